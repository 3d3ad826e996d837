package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recorder) Notify(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestFanoutDeliversToAll(t *testing.T) {
	failing := &recorder{err: errors.New("down")}
	ok := &recorder{}

	err := Fanout{failing, ok}.Notify(context.Background(), Event{Type: TypeOrderUpdate, Action: ActionOrderCreated})
	assert.ErrorContains(t, err, "down")
	assert.Equal(t, 1, failing.count())
	assert.Equal(t, 1, ok.count())
}

func TestDispatcherSendsAsync(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(rec, zaptest.NewLogger(t))

	d.Send(Event{Type: TypeStockUpdate, Action: ActionRestocked})
	assert.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 10*time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.False(t, rec.events[0].OccurredAt.IsZero())
}
