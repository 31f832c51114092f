package runs

import (
	"time"

	"github.com/google/uuid"
)

type TriggerRunResponse struct {
	ResultID     uuid.UUID `json:"result_id"`
	SubmissionID uuid.UUID `json:"submission_id"`
	CreatedAt    time.Time `json:"created_at"`
}

type RerunResponse struct {
	Queued int    `json:"queued"`
	Error  string `json:"error,omitempty"`
}
