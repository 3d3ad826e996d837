package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/notify"
	"go-pos-ws/internal/repository/memory"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type workflowContext struct {
	store    *memory.Store
	orders   OrderService
	stock    StockService
	products map[string]*model.Product
	last     *CreateOrderResult
	err      error

	createProduct func(p *model.Product) error
}

func (c *workflowContext) aFreshShop() error {
	store, err := memory.New()
	if err != nil {
		return err
	}
	log := zap.NewNop()
	dispatcher := notify.NewDispatcher(notify.Nop{}, log)
	mutator := NewStockMutator()
	c.store = store
	c.orders = NewOrderService(store, mutator, NewDuplicateGuard(store.Orders(), 10*time.Minute, 0.05), dispatcher, log)
	c.stock = NewStockService(store, mutator, dispatcher, 5, log)
	c.products = map[string]*model.Product{}
	c.last, c.err = nil, nil

	inventory := NewInventoryService(store, mutator, dispatcher, log)
	c.createProduct = func(p *model.Product) error {
		return inventory.CreateProduct(context.Background(), p, notify.Actor{ID: "godog"})
	}
	return nil
}

func (c *workflowContext) productWithStockAndPrice(name string, stock, price float64) error {
	p := &model.Product{Name: name, Stock: decimal.NewFromFloat(stock), Price: decimal.NewFromFloat(price)}
	if err := c.createProduct(p); err != nil {
		return err
	}
	c.products[name] = p
	return nil
}

func (c *workflowContext) ordersOnline(customer string, qty float64, name string) error {
	p, ok := c.products[name]
	if !ok {
		return fmt.Errorf("unknown product %q", name)
	}
	c.last, c.err = c.orders.CreateOrder(context.Background(), CreateOrderInput{
		Customer:  Customer{Name: customer},
		Items:     []LineItem{{ProductID: p.ID, Quantity: decimal.NewFromFloat(qty), Price: p.Price}},
		OrderType: model.OrderOnline,
	})
	return nil
}

func (c *workflowContext) theOrderIsCancelled() error {
	if c.err != nil {
		return c.err
	}
	_, err := c.orders.UpdateStatus(context.Background(), c.last.Order.ID, model.OrderCancelled, "godog")
	return err
}

func (c *workflowContext) theOrderTotalIs(total float64) error {
	if c.err != nil {
		return c.err
	}
	if want := decimal.NewFromFloat(total); !c.last.Order.TotalAmount.Equal(want) {
		return fmt.Errorf("total %s, want %s", c.last.Order.TotalAmount, want)
	}
	return nil
}

func (c *workflowContext) productHasStock(name string, stock float64) error {
	p, err := c.store.Products().FindByID(context.Background(), c.products[name].ID)
	if err != nil {
		return err
	}
	if want := decimal.NewFromFloat(stock); !p.Stock.Equal(want) {
		return fmt.Errorf("stock of %s is %s, want %s", name, p.Stock, want)
	}
	return nil
}

func (c *workflowContext) productHasSaleMovements(name string, count int, remaining float64) error {
	history, err := c.store.Movements().ListByProduct(context.Background(), c.products[name].ID, 0)
	if err != nil {
		return err
	}
	var sales []model.StockMovement
	for _, m := range history {
		if m.MovementType == model.MovementSale {
			sales = append(sales, m)
		}
	}
	if len(sales) != count {
		return fmt.Errorf("%d sale movements, want %d", len(sales), count)
	}
	if want := decimal.NewFromFloat(remaining); !sales[0].RemainingStock.Equal(want) {
		return fmt.Errorf("remaining stock %s, want %s", sales[0].RemainingStock, want)
	}
	return nil
}

func (c *workflowContext) theLedgerReconcilesFor(name string) error {
	r, err := c.stock.Reconcile(context.Background(), c.products[name].ID)
	if err != nil {
		return err
	}
	if !r.Balanced {
		return fmt.Errorf("stock %s does not match ledger %s", r.Stock, r.LedgerBalance)
	}
	return nil
}

func (c *workflowContext) theOrderFailsWith(text string) error {
	if c.err == nil {
		return fmt.Errorf("order succeeded, want failure")
	}
	if !strings.Contains(c.err.Error(), text) {
		return fmt.Errorf("error %q does not mention %q", c.err, text)
	}
	return nil
}

func (c *workflowContext) noOrderWasCreated() error {
	_, total, err := c.store.Orders().List(context.Background(), model.OrderFilter{})
	if err != nil {
		return err
	}
	if total != 0 {
		return fmt.Errorf("%d orders stored, want none", total)
	}
	return nil
}

func (c *workflowContext) theLastSubmissionWasADuplicate() error {
	if c.err != nil {
		return c.err
	}
	if !c.last.Duplicate {
		return fmt.Errorf("order %s was created again", c.last.Order.ReferenceNumber)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	wc := &workflowContext{}

	ctx.Step(`^a fresh shop$`, wc.aFreshShop)
	ctx.Step(`^product "([^"]*)" with stock (\d+(?:\.\d+)?) and price (\d+(?:\.\d+)?)$`, wc.productWithStockAndPrice)

	ctx.Step(`^"([^"]*)" orders (\d+(?:\.\d+)?) of "([^"]*)" online$`, wc.ordersOnline)
	ctx.Step(`^the order is cancelled$`, wc.theOrderIsCancelled)

	ctx.Step(`^the order total is (\d+(?:\.\d+)?)$`, wc.theOrderTotalIs)
	ctx.Step(`^product "([^"]*)" has stock (\d+(?:\.\d+)?)$`, wc.productHasStock)
	ctx.Step(`^product "([^"]*)" has (\d+) sale movements? with remaining stock (\d+(?:\.\d+)?)$`, wc.productHasSaleMovements)
	ctx.Step(`^the ledger reconciles for "([^"]*)"$`, wc.theLedgerReconcilesFor)
	ctx.Step(`^the order fails with "([^"]*)"$`, wc.theOrderFailsWith)
	ctx.Step(`^no order was created$`, wc.noOrderWasCreated)
	ctx.Step(`^the last submission was a duplicate$`, wc.theLastSubmissionWasADuplicate)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
