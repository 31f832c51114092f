package domain

import (
	"time"

	"github.com/google/uuid"
)

// Submission is one immutable hand-in of files for an assignment
type Submission struct {
	ID           uuid.UUID `db:"id"`
	SubmitterID  uuid.UUID `db:"submitter_id"`
	AssignmentID uuid.UUID `db:"assignment_id"`
	ClassID      uuid.UUID `db:"enrolled_class_id"`
	CreatedAt    time.Time `db:"created_at"`
	Files        []File
}
