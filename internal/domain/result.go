package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Outcome records how the execution of a step ended
type Outcome string

const (
	OutcomePending        Outcome = "pending"
	OutcomeSuccess        Outcome = "success"
	OutcomeTimedOut       Outcome = "timed_out"
	OutcomeExecutionError Outcome = "execution_error"
)

// StepOutput is the run-specific copy of a step plus what happened when it ran.
// The shape fields are copied once by NewResult and never change; Stdout/Stderr
// (run steps) or ActualOutput (test steps), TimedOut and Outcome are written once
// by the executor.
type StepOutput struct {
	ID              uuid.UUID     `db:"id"`
	LevelOutputID   uuid.UUID     `db:"level_output_id"`
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

	Stdout       *string `db:"stdout"`
	Stderr       *string `db:"stderr"`
	ActualOutput *string `db:"actual_output"`
	TimedOut     *bool   `db:"timed_out"`
	Outcome      Outcome `db:"outcome"`
}

// LevelOutput is the run-specific copy of a level
type LevelOutput struct {
	ID       uuid.UUID `db:"id"`
	ResultID uuid.UUID `db:"result_id"`
	Number   int       `db:"number"`
	Name     string    `db:"name"`
	Image    Image     `db:"container"`
	Steps    []*StepOutput
}

// Result is one grading run of one submission
type Result struct {
	ID           uuid.UUID `db:"id"`
	SubmissionID uuid.UUID `db:"submission_id"`
	CreatedAt    time.Time `db:"created_at"`
	Levels       []*LevelOutput
}

// ResultUpdate announces that a result of a submission has new outcomes
type ResultUpdate struct {
	SubmissionID uuid.UUID `json:"submission_id"`
	ResultID     uuid.UUID `json:"result_id"`
}

// NewResult forks the current level tree of an assignment into a fresh result.
// Every definitional field is copied so later edits to the assignment never
// reach an existing result.
func NewResult(submissionID uuid.UUID, levels []*Level, now time.Time) *Result {
	result := &Result{
		ID:           uuid.New(),
		SubmissionID: submissionID,
		CreatedAt:    now,
		Levels:       make([]*LevelOutput, 0, len(levels)),
	}
	for i, level := range levels {
		lo := &LevelOutput{
			ID:       uuid.New(),
			ResultID: result.ID,
			Number:   i + 1,
			Name:     level.Name,
			Image:    level.Image,
			Steps:    make([]*StepOutput, 0, len(level.Steps)),
		}
		for _, step := range level.Steps {
			lo.Steps = append(lo.Steps, newStepOutput(lo.ID, step))
		}
		lo.SortSteps()
		result.Levels = append(result.Levels, lo)
	}
	return result
}

func newStepOutput(levelOutputID uuid.UUID, step *Step) *StepOutput {
	out := &StepOutput{
		ID:            uuid.New(),
		LevelOutputID: levelOutputID,
		Kind:          step.Kind,
		Name:          step.Name,
		Number:        step.Number,
		Weight:        step.Weight,
		Hidden:        step.Hidden,
		Command:       step.Command,
		Timeout:       step.Timeout,
		Outcome:       OutcomePending,
	}
	if step.Kind == StepKindTest {
		out.ExpectedOutput = step.ExpectedOutput
		out.CaseInsensitive = step.CaseInsensitive
		out.StripWhitespace = step.StripWhitespace
	}
	return out
}

// SortSteps orders the steps by ascending number
func (l *LevelOutput) SortSteps() {
	sort.SliceStable(l.Steps, func(i, j int) bool {
		return l.Steps[i].Number < l.Steps[j].Number
	})
}

// SortLevels orders levels and their steps by ascending number
func (r *Result) SortLevels() {
	sort.SliceStable(r.Levels, func(i, j int) bool {
		return r.Levels[i].Number < r.Levels[j].Number
	})
	for _, l := range r.Levels {
		l.SortSteps()
	}
}

// Done reports whether every step has an outcome
func (r *Result) Done() bool {
	for _, l := range r.Levels {
		for _, s := range l.Steps {
			if s.Outcome == OutcomePending || s.Outcome == "" {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy of the result tree
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	c := *r
	c.Levels = make([]*LevelOutput, 0, len(r.Levels))
	for _, l := range r.Levels {
		c.Levels = append(c.Levels, l.Clone())
	}
	return &c
}

func (l *LevelOutput) Clone() *LevelOutput {
	c := *l
	c.Steps = make([]*StepOutput, 0, len(l.Steps))
	for _, s := range l.Steps {
		c.Steps = append(c.Steps, s.Clone())
	}
	return &c
}

func (s *StepOutput) Clone() *StepOutput {
	c := *s
	c.Stdout = cloneString(s.Stdout)
	c.Stderr = cloneString(s.Stderr)
	c.ActualOutput = cloneString(s.ActualOutput)
	if s.TimedOut != nil {
		t := *s.TimedOut
		c.TimedOut = &t
	}
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
