package domain

import (
	"path"
	"time"

	"github.com/google/uuid"
)

// File is an uploaded file held by the media store
type File struct {
	ID   uuid.UUID `db:"id"`
	Name string    `db:"name"`
	Path string    `db:"path"`
}

// BaseName is the name the file gets when copied into a workspace
func (f File) BaseName() string {
	if f.Name != "" {
		return path.Base(f.Name)
	}
	return path.Base(f.Path)
}

// Fixture is a set of instructor files copied into every run
type Fixture struct {
	ID    uuid.UUID `db:"id"`
	Name  string    `db:"name"`
	Files []File
}

// FileSchema lists the file names a submission is expected to contain
type FileSchema struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	FileNames []string
}

// Missing returns the schema file names that are not present in files
func (s *FileSchema) Missing(files []File) []string {
	if s == nil {
		return nil
	}
	present := make(map[string]bool, len(files))
	for _, f := range files {
		present[f.BaseName()] = true
	}
	var missing []string
	for _, name := range s.FileNames {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

// Assignment is the live definition a run is planned from
type Assignment struct {
	ID              uuid.UUID     `db:"id"`
	Name            string        `db:"name"`
	Deadline        *time.Time    `db:"deadline"`
	LateDeadline    *time.Time    `db:"late_deadline"`
	SubmissionLimit int           `db:"submission_limit"`
	CoolOff         time.Duration `db:"cool_off"`
	Fixture         *Fixture
	FileSchema      *FileSchema
	Levels          []*Level
}

// Submittable reports whether a new submission is accepted given the
// timestamps of the submitter's earlier submissions to this assignment.
// A SubmissionLimit of zero means unlimited.
func (a *Assignment) Submittable(now time.Time, previous []time.Time) bool {
	if a.SubmissionLimit > 0 && len(previous) >= a.SubmissionLimit {
		return false
	}
	if len(previous) > 0 {
		latest := previous[0]
		for _, t := range previous[1:] {
			if t.After(latest) {
				latest = t
			}
		}
		if now.Sub(latest) < a.CoolOff {
			return false
		}
	}
	switch {
	case a.LateDeadline != nil:
		return now.Before(*a.LateDeadline)
	case a.Deadline != nil:
		return now.Before(*a.Deadline)
	default:
		return true
	}
}

// TotalPoints is the sum of every step weight in the assignment
func (a *Assignment) TotalPoints() int {
	points := 0
	for _, level := range a.Levels {
		for _, step := range level.Steps {
			points += step.Weight
		}
	}
	return points
}

func (a *Assignment) PastDue(now time.Time) bool {
	return a.Deadline != nil && now.After(*a.Deadline)
}

func (a *Assignment) PastLateDue(now time.Time) bool {
	return a.LateDeadline != nil && now.After(*a.LateDeadline)
}
