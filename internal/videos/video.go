// Package videos persists moderation jobs: one row per uploaded video with
// its processing status, progress, and final verdict.
package videos

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is the processing state of a video. It only advances
// pending → processing → completed | failed.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further status change is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Sensitivity is the moderation verdict. It is unchecked until the job completes.
type Sensitivity string

const (
	SensitivityUnchecked Sensitivity = "unchecked"
	SensitivitySafe      Sensitivity = "safe"
	SensitivityFlagged   Sensitivity = "flagged"
)

// Video is a moderation job.
type Video struct {
	ID                uuid.UUID       `json:"id"`
	OwnerID           uuid.UUID       `json:"owner_id"`
	Filename          string          `json:"filename"`
	SourcePath        string          `json:"source_path"`
	Thumbnail         *string         `json:"thumbnail"`
	Status            Status          `json:"status"`
	SensitivityStatus Sensitivity     `json:"sensitivity_status"`
	Progress          int             `json:"progress"`
	Confidence        *int            `json:"confidence"`
	DetectedLabels    []string        `json:"detected_labels"`
	AnalysisDetails   json.RawMessage `json:"analysis_details,omitempty"`
	AnalysisError     *string         `json:"analysis_error"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// CreateCommand registers a pending job for an already-stored source file.
type CreateCommand struct {
	OwnerID    uuid.UUID `json:"owner_id"`
	Filename   string    `json:"filename"`
	SourcePath string    `json:"source_path"`
}

// StatusUpdate moves a job's status and progress. Progress never decreases.
type StatusUpdate struct {
	Status      Status
	Sensitivity Sensitivity
	Progress    int
	Error       string
}

// Analysis is the verdict written when a job completes.
type Analysis struct {
	Sensitivity Sensitivity
	Confidence  int
	Labels      []string
	Details     map[string]any
}

// Fields carries optional metadata updates. Nil fields are left unchanged.
type Fields struct {
	Thumbnail *string
}
