package broadcast

import (
	"context"

	"github.com/google/uuid"

	"gitlab.com/codemark.net/internal/domain"
)

// IBroadcastService pushes result snapshots to the viewers of a submission
type IBroadcastService interface {
	// Connect authorizes the viewer and registers a session. Unauthorized
	// viewers get errs.ErrForbidden and no session.
	Connect(ctx context.Context, viewer domain.AuthPayload, submissionID uuid.UUID) (*Session, error)

	// Disconnect removes the session; it is safe to call more than once
	Disconnect(session *Session)

	// HandleUpdate sends the current state of the updated result to every session of its submission
	HandleUpdate(ctx context.Context, update domain.ResultUpdate)

	// Run consumes the update channel until ctx is done
	Run(ctx context.Context) error
}
