// Package notify carries business events to staff dashboards and to the
// order event stream. Delivery is best effort.
package notify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	TypeStockUpdate = "stock_update"
	TypeOrderUpdate = "order_update"
	TypeUserStatus  = "user_status_update"
)

const (
	ActionProductCreated = "product_created"
	ActionProductUpdated = "product_updated"
	ActionProductDeleted = "product_deleted"
	ActionRestocked      = "restocked"
	ActionOrderCreated   = "order_created"
	ActionOrderStatus    = "order_status_changed"
	ActionHeartbeat      = "heartbeat"
)

// Actor is the staff member behind an event, if any.
type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Event struct {
	Type       string      `json:"type"`
	Action     string      `json:"action"`
	Key        string      `json:"-"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	User       *Actor      `json:"user,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Fanout delivers to every notifier and joins their errors.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range f {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// Dispatcher sends events off the request path and logs failures.
type Dispatcher struct {
	notifier Notifier
	logger   *zap.Logger
	timeout  time.Duration
}

func NewDispatcher(n Notifier, logger *zap.Logger) *Dispatcher {
	if n == nil {
		n = Nop{}
	}
	return &Dispatcher{notifier: n, logger: logger, timeout: 5 * time.Second}
}

func (d *Dispatcher) Send(event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.notifier.Notify(ctx, event); err != nil {
			d.logger.Warn("notification failed",
				zap.String("type", event.Type),
				zap.String("action", event.Action),
				zap.Error(err),
			)
		}
	}()
}
