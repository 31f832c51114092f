package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func strPtr(s string) *string { return &s }

func TestRunStepGrade(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		stderr  *string
		want    int
	}{
		{"success without stderr", OutcomeSuccess, strPtr(""), 10},
		{"success with nil stderr", OutcomeSuccess, nil, 10},
		{"stderr written", OutcomeSuccess, strPtr("warning: x\n"), 0},
		{"timed out", OutcomeTimedOut, nil, 0},
		{"execution error", OutcomeExecutionError, strPtr(""), 0},
		{"pending", OutcomePending, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &StepOutput{Kind: StepKindRun, Weight: 10, Outcome: tt.outcome, Stdout: strPtr("out"), Stderr: tt.stderr}
			if got := s.Grade(); got != tt.want {
				t.Errorf("Grade() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTestStepGrade(t *testing.T) {
	tests := []struct {
		name            string
		expected        string
		actual          *string
		caseInsensitive bool
		stripWhitespace bool
		want            int
	}{
		{"normalized match", "Hello", strPtr("  hello\n"), true, true, 7},
		{"case differs", "Hello", strPtr("hello"), false, true, 0},
		{"whitespace differs", "Hello", strPtr("Hello\n"), true, false, 0},
		{"exact", "Hello\n", strPtr("Hello\n"), false, false, 7},
		{"unset actual", "", nil, false, false, 0},
		{"empty expected and empty actual", "", strPtr(""), false, false, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &StepOutput{
				Kind:            StepKindTest,
				Weight:          7,
				ExpectedOutput:  tt.expected,
				ActualOutput:    tt.actual,
				CaseInsensitive: tt.caseInsensitive,
				StripWhitespace: tt.stripWhitespace,
				Outcome:         OutcomeSuccess,
			}
			got := s.Grade()
			if got != tt.want {
				t.Errorf("Grade() = %d, want %d", got, tt.want)
			}
			if got != 0 && got != s.Weight {
				t.Errorf("grade %d outside {0, weight}", got)
			}
		})
	}
}

func TestResultGradeSumsLevels(t *testing.T) {
	result := NewResult(uuid.New(), testLevels(), time.Now())
	build := result.Levels[0]
	build.Steps[0].Outcome = OutcomeSuccess
	build.Steps[0].Stdout, build.Steps[0].Stderr = strPtr(""), strPtr("")
	build.Steps[1].Outcome = OutcomeSuccess
	build.Steps[1].Stdout, build.Steps[1].Stderr = strPtr(""), strPtr("boom")
	secret := result.Levels[1].Steps[0]
	secret.Outcome = OutcomeSuccess
	secret.ActualOutput = strPtr("HELLO \n")

	if got := build.Grade(); got != 5 {
		t.Errorf("level grade = %d, want 5", got)
	}
	if got := result.Grade(); got != 15 {
		t.Errorf("result grade = %d, want 15", got)
	}
	if got := result.TotalPoints(); got != 20 {
		t.Errorf("total points = %d, want 20", got)
	}
}

func TestStepOutputView(t *testing.T) {
	run := &StepOutput{Kind: StepKindRun, Name: "echo", Weight: 10, Timeout: 1500 * time.Millisecond,
		Outcome: OutcomeSuccess, Stdout: strPtr("hi\n"), Stderr: strPtr("")}
	view := run.View()
	if view.ResourceType != "RunStepOutput" || view.Grade != 10 || view.Timeout != 1.5 {
		t.Errorf("unexpected run view: %+v", view)
	}
	if view.ExpectedOutput != nil || view.Diff != "" {
		t.Errorf("run view carries test fields: %+v", view)
	}

	test := &StepOutput{Kind: StepKindTest, Weight: 3, ExpectedOutput: "a\nb\n",
		Outcome: OutcomeSuccess, ActualOutput: strPtr("a\nc\n")}
	view = test.View()
	if view.ResourceType != "TestStepOutput" || view.Grade != 0 {
		t.Errorf("unexpected test view: %+v", view)
	}
	if !strings.Contains(view.Diff, "-b") || !strings.Contains(view.Diff, "+c") {
		t.Errorf("diff missing changed lines: %q", view.Diff)
	}
	if view.Stdout != nil {
		t.Errorf("test view carries run fields")
	}
}
