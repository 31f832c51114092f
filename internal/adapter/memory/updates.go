package memory

import (
	"context"
	"sync"

	"gitlab.com/codemark.net/internal/core/ports/secondary"
	"gitlab.com/codemark.net/internal/domain"
)

var (
	_ secondary.UpdatePublisher  = (*UpdateBus)(nil)
	_ secondary.UpdateSubscriber = (*UpdateBus)(nil)
)

// UpdateBus fans result updates out to in-process subscribers
type UpdateBus struct {
	mu       sync.RWMutex
	handlers map[int]func(domain.ResultUpdate)
	nextID   int
}

func NewUpdateBus() *UpdateBus {
	return &UpdateBus{
		handlers: make(map[int]func(domain.ResultUpdate)),
	}
}

func (b *UpdateBus) Publish(ctx context.Context, update domain.ResultUpdate) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, handle := range b.handlers {
		handle(update)
	}
	return nil
}

func (b *UpdateBus) Subscribe(ctx context.Context, handle func(domain.ResultUpdate)) error {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handle
	b.mu.Unlock()

	<-ctx.Done()

	b.mu.Lock()
	delete(b.handlers, id)
	b.mu.Unlock()
	return nil
}

// Subscribers returns the number of active subscriptions
func (b *UpdateBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
