package updates

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"gitlab.com/codemark.net/internal/core/ports/primary"
	"gitlab.com/codemark.net/internal/core/ports/secondary"
	"gitlab.com/codemark.net/internal/domain"
)

var (
	_ secondary.UpdatePublisher  = (*Channel)(nil)
	_ secondary.UpdateSubscriber = (*Channel)(nil)
)

// Channel carries result updates between dispatcher and hub processes over Redis Pub/Sub
type Channel struct {
	redisClient *redis.Client
	channel     string
	logger      primary.Logger
}

func NewChannel(redisClient *redis.Client, channel string, logger primary.Logger) *Channel {
	return &Channel{
		redisClient: redisClient,
		channel:     channel,
		logger:      logger,
	}
}

func (c *Channel) Publish(ctx context.Context, update domain.ResultUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}
	if err := c.redisClient.Publish(ctx, c.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish update: %w", err)
	}
	return nil
}

// Subscribe hands every update to handle until ctx is done.
// Malformed messages are logged and skipped.
func (c *Channel) Subscribe(ctx context.Context, handle func(domain.ResultUpdate)) error {
	sub := c.redisClient.Subscribe(ctx, c.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", c.channel, err)
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("subscription to %s closed", c.channel)
			}
			var update domain.ResultUpdate
			if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
				c.logger.Warn("Skipping malformed update", "payload", msg.Payload, "error", err)
				continue
			}
			handle(update)
		}
	}
}
