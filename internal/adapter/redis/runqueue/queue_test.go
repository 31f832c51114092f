package runqueue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"gitlab.com/codemark.net/internal/adapter/logging"
	"gitlab.com/codemark.net/internal/core/ports/secondary"
)

func newQueue(t *testing.T) (*RunQueue, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRunQueue(client, "codemark:runs", 100*time.Millisecond, logging.NewZapLoggerFrom(zaptest.NewLogger(t))), mr
}

func TestRunQueueOrder(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		if err := q.Enqueue(ctx, id); err != nil {
			t.Fatal(err)
		}
	}
	if n, _ := q.Len(ctx); n != 3 {
		t.Errorf("Len() = %d", n)
	}
	for _, want := range ids {
		got, err := q.Dequeue(ctx)
		if err != nil || got != want {
			t.Fatalf("Dequeue() = %s, %v; want %s", got, err, want)
		}
	}
}

func TestRunQueueEmptyAndMalformed(t *testing.T) {
	q, mr := newQueue(t)
	ctx := context.Background()

	if _, err := q.Dequeue(ctx); !errors.Is(err, secondary.ErrQueueEmpty) {
		t.Errorf("empty queue: got %v", err)
	}

	if _, err := mr.Lpush("codemark:runs", "garbage"); err != nil {
		t.Fatal(err)
	}
	if _, err := q.Dequeue(ctx); err == nil || errors.Is(err, secondary.ErrQueueEmpty) {
		t.Errorf("malformed entry: got %v", err)
	}
}
