package domain

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRedact(t *testing.T) {
	result := NewResult(uuid.New(), testLevels(), time.Now())
	result.Levels[0].Steps[0].Hidden = true

	student := Redact(result, false)
	if len(student.Levels) != 1 {
		t.Fatalf("expected the hidden-only level to be dropped, got %d levels", len(student.Levels))
	}
	if len(student.Levels[0].Steps) != 1 || student.Levels[0].Steps[0].Name != "run" {
		t.Errorf("hidden step leaked: %+v", student.Levels[0].Steps)
	}

	instructor := Redact(result, true)
	if !reflect.DeepEqual(instructor, result) {
		t.Error("instructor view differs from canonical tree")
	}
	if instructor == result || instructor.Levels[0] == result.Levels[0] {
		t.Error("instructor view aliases canonical tree")
	}

	if len(result.Levels) != 2 || len(result.Levels[0].Steps) != 2 {
		t.Error("canonical tree was modified")
	}

	if again := Redact(student, false); !reflect.DeepEqual(again, student) {
		t.Error("redaction is not idempotent")
	}
}

func TestRedactKeepsGradeOfVisibleSteps(t *testing.T) {
	result := NewResult(uuid.New(), testLevels(), time.Now())
	secret := result.Levels[1].Steps[0]
	secret.Outcome = OutcomeSuccess
	secret.ActualOutput = strPtr("hello")

	if result.Grade() != 10 {
		t.Fatalf("canonical grade = %d", result.Grade())
	}
	if got := Redact(result, false).Grade(); got != 0 {
		t.Errorf("redacted tree grade = %d, want 0 with the hidden level removed", got)
	}

	view := ViewFor(result, false)
	if view.Grade != 10 || view.TotalPoints != 20 {
		t.Errorf("student view grade = %d/%d, want 10/20", view.Grade, view.TotalPoints)
	}
	if len(view.Levels) != 1 {
		t.Errorf("student view has %d levels", len(view.Levels))
	}
	if ViewFor(nil, true) != nil {
		t.Error("nil result produced a view")
	}
}
