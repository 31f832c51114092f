package domain

import "strings"

// Grade returns the points earned by a single step output. It is either 0 or the full weight.
func (s *StepOutput) Grade() int {
	switch s.Kind {
	case StepKindRun:
		if s.Outcome == OutcomeSuccess && (s.Stderr == nil || *s.Stderr == "") {
			return s.Weight
		}
		return 0
	case StepKindTest:
		if s.Passed() {
			return s.Weight
		}
		return 0
	default:
		return 0
	}
}

// Passed reports whether a test step produced its expected output
func (s *StepOutput) Passed() bool {
	if s.Kind != StepKindTest || s.ActualOutput == nil {
		return false
	}
	return s.normalize(*s.ActualOutput) == s.normalize(s.ExpectedOutput)
}

func (s *StepOutput) normalize(text string) string {
	if s.CaseInsensitive {
		text = strings.ToLower(text)
	}
	if s.StripWhitespace {
		text = strings.TrimSpace(text)
	}
	return text
}

// Grade sums the grades of the steps in the level
func (l *LevelOutput) Grade() int {
	total := 0
	for _, s := range l.Steps {
		total += s.Grade()
	}
	return total
}

// TotalPoints is the maximum grade the level can earn
func (l *LevelOutput) TotalPoints() int {
	total := 0
	for _, s := range l.Steps {
		total += s.Weight
	}
	return total
}

// Grade sums the grades of every level in the result
func (r *Result) Grade() int {
	total := 0
	for _, l := range r.Levels {
		total += l.Grade()
	}
	return total
}

// TotalPoints is the maximum grade the result can earn
func (r *Result) TotalPoints() int {
	total := 0
	for _, l := range r.Levels {
		total += l.TotalPoints()
	}
	return total
}
