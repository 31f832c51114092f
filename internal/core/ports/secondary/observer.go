package secondary

import (
	"time"

	"gitlab.com/codemark.net/internal/domain"
)

// RunObserver receives execution events for metrics
type RunObserver interface {
	StepFinished(kind domain.StepKind, image domain.Image, outcome domain.Outcome, elapsed time.Duration)
	RunFinished(elapsed time.Duration, err error)
	EnvironmentFailed(image domain.Image)
}

// HubObserver receives broadcast hub events for metrics
type HubObserver interface {
	SessionOpened()
	SessionClosed()
	SessionRejected()
	MessageSent()
}
