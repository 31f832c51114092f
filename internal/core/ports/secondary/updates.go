package secondary

import (
	"context"

	"gitlab.com/codemark.net/internal/domain"
)

type UpdatePublisher interface {
	Publish(ctx context.Context, update domain.ResultUpdate) error
}

// UpdateSubscriber delivers every published update to handle until ctx is done
type UpdateSubscriber interface {
	Subscribe(ctx context.Context, handle func(domain.ResultUpdate)) error
}
