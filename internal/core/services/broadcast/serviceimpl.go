package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"gitlab.com/codemark.net/internal/core/ports/primary"
	"gitlab.com/codemark.net/internal/core/ports/secondary"
	"gitlab.com/codemark.net/internal/domain"
	"gitlab.com/codemark.net/internal/static/errs"
)

var _ IBroadcastService = (*Hub)(nil)

// Hub keeps the sessions of every watched submission
type Hub struct {
	submissionRepo secondary.SubmissionRepository
	rosterRepo     secondary.RosterRepository
	resultRepo     secondary.ResultRepository
	subscriber     secondary.UpdateSubscriber
	observer       secondary.HubObserver
	logger         primary.Logger
	sendBuffer     int

	mu       sync.RWMutex
	sessions map[uuid.UUID]map[uuid.UUID]*Session
}

func NewHub(
	submissionRepo secondary.SubmissionRepository,
	rosterRepo secondary.RosterRepository,
	resultRepo secondary.ResultRepository,
	subscriber secondary.UpdateSubscriber,
	sendBuffer int,
	logger primary.Logger,
) *Hub {
	return &Hub{
		submissionRepo: submissionRepo,
		rosterRepo:     rosterRepo,
		resultRepo:     resultRepo,
		subscriber:     subscriber,
		observer:       noopObserver{},
		logger:         logger,
		sendBuffer:     sendBuffer,
		sessions:       make(map[uuid.UUID]map[uuid.UUID]*Session),
	}
}

// SetObserver sets the receiver of hub events
func (h *Hub) SetObserver(observer secondary.HubObserver) {
	if observer != nil {
		h.observer = observer
	}
}

func (h *Hub) Connect(ctx context.Context, viewer domain.AuthPayload, submissionID uuid.UUID) (*Session, error) {
	session := newSession(submissionID, viewer.UserID, h.sendBuffer)

	submission, err := h.submissionRepo.GetSubmission(ctx, submissionID)
	if err != nil {
		session.setState(SessionRejected)
		h.logger.Error("Failed to get submission", "submissionId", submissionID, "error", err)
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	if submission == nil {
		session.setState(SessionRejected)
		h.observer.SessionRejected()
		return nil, fmt.Errorf("submission %s: %w", submissionID, errs.ErrNotFound)
	}

	instructor, err := h.rosterRepo.IsInstructor(ctx, viewer.UserID, submission.ClassID)
	if err != nil {
		session.setState(SessionRejected)
		h.logger.Error("Failed to check roster", "submissionId", submissionID, "userId", viewer.UserID, "error", err)
		return nil, fmt.Errorf("failed to check roster: %w", err)
	}
	if !instructor && viewer.UserID != submission.SubmitterID {
		session.setState(SessionRejected)
		h.observer.SessionRejected()
		h.logger.Warn("Viewer rejected", "submissionId", submissionID, "userId", viewer.UserID)
		return nil, fmt.Errorf("viewer %s on submission %s: %w", viewer.UserID, submissionID, errs.ErrForbidden)
	}
	session.Instructor = instructor

	h.mu.Lock()
	if h.sessions[submissionID] == nil {
		h.sessions[submissionID] = make(map[uuid.UUID]*Session)
	}
	h.sessions[submissionID][session.ID] = session
	session.setState(SessionConnected)
	h.mu.Unlock()
	h.observer.SessionOpened()

	h.logger.Info("Viewer connected", "submissionId", submissionID, "userId", viewer.UserID, "instructor", instructor)

	latest, err := h.resultRepo.GetLatestResult(ctx, submissionID)
	if err != nil {
		h.logger.Error("Failed to get latest result", "submissionId", submissionID, "error", err)
		return session, nil
	}
	if latest != nil {
		h.deliverInitial(session, latest)
	}
	return session, nil
}

func (h *Hub) Disconnect(session *Session) {
	if session == nil {
		return
	}
	h.mu.Lock()
	if group, ok := h.sessions[session.SubmissionID]; ok {
		delete(group, session.ID)
		if len(group) == 0 {
			delete(h.sessions, session.SubmissionID)
		}
	}
	h.mu.Unlock()

	if session.close() {
		h.observer.SessionClosed()
		h.logger.Info("Viewer disconnected", "submissionId", session.SubmissionID, "userId", session.UserID)
	}
}

func (h *Hub) HandleUpdate(ctx context.Context, update domain.ResultUpdate) {
	sessions := h.sessionsOf(update.SubmissionID)
	if len(sessions) == 0 {
		return
	}

	result, err := h.resultRepo.GetResult(ctx, update.ResultID)
	if err != nil {
		h.logger.Error("Failed to get result", "resultId", update.ResultID, "error", err)
		return
	}
	if result == nil {
		h.logger.Warn("Update for unknown result", "resultId", update.ResultID)
		return
	}

	// at most two renderings per update, one per role
	rendered := make(map[bool][]byte, 2)
	for _, session := range sessions {
		msg, ok := rendered[session.Instructor]
		if !ok {
			msg, err = h.render(result, session.Instructor)
			if err != nil {
				h.logger.Error("Failed to render result", "resultId", result.ID, "error", err)
				return
			}
			rendered[session.Instructor] = msg
		}
		if session.offer(msg) {
			h.observer.MessageSent()
		}
	}
}

func (h *Hub) Run(ctx context.Context) error {
	h.logger.Info("Broadcast hub listening for result updates")
	return h.subscriber.Subscribe(ctx, func(update domain.ResultUpdate) {
		h.HandleUpdate(ctx, update)
	})
}

// SessionCount returns the number of connected sessions of a submission
func (h *Hub) SessionCount(submissionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[submissionID])
}

func (h *Hub) sessionsOf(submissionID uuid.UUID) []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	group := h.sessions[submissionID]
	sessions := make([]*Session, 0, len(group))
	for _, s := range group {
		sessions = append(sessions, s)
	}
	return sessions
}

func (h *Hub) deliverInitial(session *Session, result *domain.Result) {
	msg, err := h.render(result, session.Instructor)
	if err != nil {
		h.logger.Error("Failed to render result", "resultId", result.ID, "error", err)
		return
	}
	if !session.offerInitial(msg) {
		h.logger.Debug("Initial snapshot superseded by an update", "submissionId", session.SubmissionID, "resultId", result.ID)
		return
	}
	h.observer.MessageSent()
}

func (h *Hub) render(result *domain.Result, instructor bool) ([]byte, error) {
	result.SortLevels()
	return json.Marshal(domain.ViewFor(result, instructor))
}

type noopObserver struct{}

func (noopObserver) SessionOpened()   {}
func (noopObserver) SessionClosed()   {}
func (noopObserver) SessionRejected() {}
func (noopObserver) MessageSent()     {}
