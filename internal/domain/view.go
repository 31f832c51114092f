package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/pmezard/go-difflib/difflib"
)

// ResultView is the serialized form of a result sent to clients
type ResultView struct {
	ID           uuid.UUID          `json:"id"`
	SubmissionID uuid.UUID          `json:"submission"`
	CreatedAt    time.Time          `json:"created_at"`
	Grade        int                `json:"grade"`
	TotalPoints  int                `json:"total_points"`
	Levels       []*LevelOutputView `json:"level_outputs"`
}

type LevelOutputView struct {
	ID          uuid.UUID         `json:"id"`
	Number      int               `json:"number"`
	Name        string            `json:"name"`
	Container   Image             `json:"container"`
	Grade       int               `json:"grade"`
	TotalPoints int               `json:"total_points"`
	Steps       []*StepOutputView `json:"step_outputs"`
}

// StepOutputView is a flat polymorphic record tagged with resourcetype.
// Fields that do not apply to the variant are omitted.
type StepOutputView struct {
	ResourceType    string    `json:"resourcetype"`
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Number          int       `json:"number"`
	Weight          int       `json:"weight"`
	Hidden          bool      `json:"hidden"`
	Command         string    `json:"command"`
	Timeout         float64   `json:"timeout"`
	Outcome         Outcome   `json:"outcome"`
	TimedOut        *bool     `json:"timed_out"`
	Grade           int       `json:"grade"`
	Stdout          *string   `json:"stdout,omitempty"`
	Stderr          *string   `json:"stderr,omitempty"`
	ExpectedOutput  *string   `json:"expected_output,omitempty"`
	ActualOutput    *string   `json:"actual_output,omitempty"`
	CaseInsensitive *bool     `json:"case_insensitive,omitempty"`
	StripWhitespace *bool     `json:"strip_whitespace,omitempty"`
	Diff            string    `json:"diff,omitempty"`
}

// View builds the client representation of the result, computing grades on the way
func (r *Result) View() *ResultView {
	view := &ResultView{
		ID:           r.ID,
		SubmissionID: r.SubmissionID,
		CreatedAt:    r.CreatedAt,
		Grade:        r.Grade(),
		TotalPoints:  r.TotalPoints(),
		Levels:       make([]*LevelOutputView, 0, len(r.Levels)),
	}
	for _, l := range r.Levels {
		view.Levels = append(view.Levels, l.View())
	}
	return view
}

func (l *LevelOutput) View() *LevelOutputView {
	view := &LevelOutputView{
		ID:          l.ID,
		Number:      l.Number,
		Name:        l.Name,
		Container:   l.Image,
		Grade:       l.Grade(),
		TotalPoints: l.TotalPoints(),
		Steps:       make([]*StepOutputView, 0, len(l.Steps)),
	}
	for _, s := range l.Steps {
		view.Steps = append(view.Steps, s.View())
	}
	return view
}

func (s *StepOutput) View() *StepOutputView {
	view := &StepOutputView{
		ResourceType: s.Kind.OutputType(),
		ID:           s.ID,
		Name:         s.Name,
		Number:       s.Number,
		Weight:       s.Weight,
		Hidden:       s.Hidden,
		Command:      s.Command,
		Timeout:      s.Timeout.Seconds(),
		Outcome:      s.Outcome,
		TimedOut:     s.TimedOut,
		Grade:        s.Grade(),
	}
	switch s.Kind {
	case StepKindRun:
		view.Stdout = s.Stdout
		view.Stderr = s.Stderr
	case StepKindTest:
		expected := s.ExpectedOutput
		ci, sw := s.CaseInsensitive, s.StripWhitespace
		view.ExpectedOutput = &expected
		view.ActualOutput = s.ActualOutput
		view.CaseInsensitive = &ci
		view.StripWhitespace = &sw
		if s.ActualOutput != nil && !s.Passed() {
			view.Diff = OutputDiff(s.ExpectedOutput, *s.ActualOutput)
		}
	}
	return view
}

// OutputDiff renders a unified diff between the expected and the actual output
func OutputDiff(expected, actual string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return diff
}
