package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"gitlab.com/codemark.net/internal/core/ports/secondary"
	"gitlab.com/codemark.net/internal/domain"
)

var (
	_ secondary.SubmissionRepository = (*Store)(nil)
	_ secondary.AssignmentRepository = (*Store)(nil)
	_ secondary.ResultRepository     = (*Store)(nil)
	_ secondary.RosterRepository     = (*Store)(nil)
)

// Store keeps the grading schema in memory. Reads return copies so callers
// observe the same isolation they get from a database.
type Store struct {
	mu          sync.RWMutex
	assignments map[uuid.UUID]*domain.Assignment
	submissions map[uuid.UUID]*domain.Submission
	results     map[uuid.UUID]*domain.Result
	instructors map[uuid.UUID]map[uuid.UUID]bool
}

func NewStore() *Store {
	return &Store{
		assignments: make(map[uuid.UUID]*domain.Assignment),
		submissions: make(map[uuid.UUID]*domain.Submission),
		results:     make(map[uuid.UUID]*domain.Result),
		instructors: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

// PutAssignment stores the assignment by reference so later edits are visible to new runs
func (s *Store) PutAssignment(a *domain.Assignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[a.ID] = a
}

func (s *Store) PutSubmission(sub *domain.Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions[sub.ID] = sub
}

func (s *Store) AddInstructor(classID, userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.instructors[classID] == nil {
		s.instructors[classID] = make(map[uuid.UUID]bool)
	}
	s.instructors[classID][userID] = true
}

func (s *Store) GetAssignment(ctx context.Context, assignmentID uuid.UUID) (*domain.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assignments[assignmentID], nil
}

func (s *Store) GetSubmission(ctx context.Context, submissionID uuid.UUID) (*domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[submissionID]
	if !ok {
		return nil, nil
	}
	c := *sub
	c.Files = append([]domain.File(nil), sub.Files...)
	return &c, nil
}

func (s *Store) ListSubmissionIDs(ctx context.Context, classID, assignmentID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var subs []*domain.Submission
	for _, sub := range s.submissions {
		if sub.ClassID == classID && sub.AssignmentID == assignmentID {
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].CreatedAt.Before(subs[j].CreatedAt) })
	ids := make([]uuid.UUID, 0, len(subs))
	for _, sub := range subs {
		ids = append(ids, sub.ID)
	}
	return ids, nil
}

func (s *Store) IsInstructor(ctx context.Context, userID, classID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.instructors[classID][userID], nil
}

func (s *Store) CreateResult(ctx context.Context, result *domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[result.ID]; ok {
		return fmt.Errorf("result %s already exists", result.ID)
	}
	s.results[result.ID] = result.Clone()
	return nil
}

func (s *Store) GetResult(ctx context.Context, resultID uuid.UUID) (*domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.results[resultID].Clone(), nil
}

func (s *Store) GetLatestResult(ctx context.Context, submissionID uuid.UUID) (*domain.Result, error) {
	results, err := s.ListResults(ctx, submissionID)
	if err != nil || len(results) == 0 {
		return nil, err
	}
	return results[0], nil
}

func (s *Store) ListResults(ctx context.Context, submissionID uuid.UUID) ([]*domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []*domain.Result
	for _, r := range s.results {
		if r.SubmissionID == submissionID {
			results = append(results, r.Clone())
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return results, nil
}

func (s *Store) SaveStepOutcome(ctx context.Context, step *domain.StepOutput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.results {
		for _, l := range r.Levels {
			for i, stored := range l.Steps {
				if stored.ID != step.ID {
					continue
				}
				outcome := step.Clone()
				updated := stored.Clone()
				updated.Stdout = outcome.Stdout
				updated.Stderr = outcome.Stderr
				updated.ActualOutput = outcome.ActualOutput
				updated.TimedOut = outcome.TimedOut
				updated.Outcome = outcome.Outcome
				l.Steps[i] = updated
				return nil
			}
		}
	}
	return fmt.Errorf("step output %s not found", step.ID)
}
