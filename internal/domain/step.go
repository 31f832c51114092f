package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StepKind tags the variant of a step or step output
type StepKind string

const (
	StepKindRun  StepKind = "RunStep"
	StepKindTest StepKind = "TestStep"
)

func (k StepKind) Valid() bool {
	switch k {
	case StepKindRun, StepKindTest:
		return true
	default:
		return false
	}
}

// OutputType is the serialized resource type of the output produced by this kind of step
func (k StepKind) OutputType() string {
	return string(k) + "Output"
}

// Step is an instructor-authored command to execute and grade.
// ExpectedOutput, CaseInsensitive and StripWhitespace only apply to StepKindTest.
type Step struct {
	ID              uuid.UUID     `db:"id"`
	Kind            StepKind      `db:"kind"`
	Name            string        `db:"name"`
	Number          int           `db:"number"`
	Weight          int           `db:"weight"`
	Hidden          bool          `db:"hidden"`
	Command         string        `db:"command"`
	Timeout         time.Duration `db:"timeout"`
	ExpectedOutput  string        `db:"expected_output"`
	CaseInsensitive bool          `db:"case_insensitive"`
	StripWhitespace bool          `db:"strip_whitespace"`
}

// Validate checks the definitional invariants of a step
func (s *Step) Validate() error {
	if !s.Kind.Valid() {
		return fmt.Errorf("step %s: unknown kind %q", s.ID, s.Kind)
	}
	if s.Number < 1 {
		return fmt.Errorf("step %s: number must be at least 1, got %d", s.ID, s.Number)
	}
	if s.Weight < 0 {
		return fmt.Errorf("step %s: weight must not be negative, got %d", s.ID, s.Weight)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("step %s: timeout must be positive", s.ID)
	}
	return nil
}

// Level is a named execution phase bound to one image
type Level struct {
	ID    uuid.UUID `db:"id"`
	Name  string    `db:"name"`
	Image Image     `db:"container"`
	Steps []*Step
}

// Validate checks that step numbers are unique within the level
func (l *Level) Validate() error {
	if !l.Image.Valid() {
		return fmt.Errorf("level %s: unknown image %q", l.Name, l.Image)
	}
	seen := make(map[int]bool, len(l.Steps))
	for _, s := range l.Steps {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("level %s: %w", l.Name, err)
		}
		if seen[s.Number] {
			return fmt.Errorf("level %s: duplicate step number %d", l.Name, s.Number)
		}
		seen[s.Number] = true
	}
	return nil
}
