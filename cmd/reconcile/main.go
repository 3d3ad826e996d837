// Command reconcile replays the stock ledger against stored product stock.
// It exits 1 when any product is still out of balance.
package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"go-pos-ws/internal/config"
	applog "go-pos-ws/internal/logger"
	"go-pos-ws/internal/notify"
	"go-pos-ws/internal/service"
	"go-pos-ws/pkg/database"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	var (
		productID = pflag.StringP("product", "p", "", "Only check this product id")
		fix       = pflag.Bool("fix", false, "Book correcting movements for unbalanced products")
	)
	pflag.Parse()

	cfg := config.LoadEnv()
	log, err := applog.New(cfg.App.Env, cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()
	store, err := database.OpenStore(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer store.Close()

	stock := service.NewStockService(store, service.NewStockMutator(), notify.NewDispatcher(nil, log), cfg.Orders.LowStockThreshold, log)

	var results []service.Reconciliation
	if *productID != "" {
		id, err := uuid.Parse(*productID)
		if err != nil {
			log.Fatal("invalid product id", zap.String("product", *productID))
		}
		r, err := stock.Reconcile(ctx, id)
		if err != nil {
			log.Fatal("reconcile failed", zap.Error(err))
		}
		results = append(results, *r)
	} else if results, err = stock.ReconcileAll(ctx); err != nil {
		log.Fatal("reconcile failed", zap.Error(err))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tNAME\tSTOCK\tLEDGER\tDIFF\tSTATUS")
	unbalanced := 0
	for _, r := range results {
		status := "ok"
		if !r.Balanced {
			status = "MISMATCH"
			if *fix {
				fixed, err := stock.Rebalance(ctx, r.ProductID, "reconcile-cli")
				if err != nil {
					log.Error("rebalance failed", zap.String("product_id", r.ProductID.String()), zap.Error(err))
				} else if fixed.Balanced {
					status = "fixed"
				}
			}
			if status != "fixed" {
				unbalanced++
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ProductID, r.Name, r.Stock, r.LedgerBalance, r.Difference, status)
	}
	w.Flush()

	if unbalanced > 0 {
		log.Warn("products out of balance", zap.Int("count", unbalanced))
		os.Exit(1)
	}
}
