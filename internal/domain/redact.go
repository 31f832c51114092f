package domain

// Redact returns the view of a result a viewer may see. Instructors get a full copy.
// Everyone else loses hidden step outputs and any level left without steps.
// The input is never modified and redacting twice changes nothing.
func Redact(result *Result, instructor bool) *Result {
	if result == nil {
		return nil
	}
	if instructor {
		return result.Clone()
	}
	out := *result
	out.Levels = make([]*LevelOutput, 0, len(result.Levels))
	for _, l := range result.Levels {
		level := *l
		level.Steps = make([]*StepOutput, 0, len(l.Steps))
		for _, s := range l.Steps {
			if !s.Hidden {
				level.Steps = append(level.Steps, s.Clone())
			}
		}
		if len(level.Steps) > 0 {
			out.Levels = append(out.Levels, &level)
		}
	}
	return &out
}

// ViewFor serializes the result for a viewer. The overall grade always reflects
// the canonical tree, hidden steps included.
func ViewFor(result *Result, instructor bool) *ResultView {
	if result == nil {
		return nil
	}
	view := Redact(result, instructor).View()
	view.Grade = result.Grade()
	view.TotalPoints = result.TotalPoints()
	return view
}
