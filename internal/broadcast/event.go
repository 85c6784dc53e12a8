package broadcast

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/warden/internal/videos"
)

// Kind names an event channel.
type Kind string

const (
	KindUploadProgress   Kind = "upload-progress"
	KindAnalysisProgress Kind = "analysis-progress"
	KindStatus           Kind = "status"
)

// Event is one notification about a job, delivered to the job owner.
type Event struct {
	Kind              Kind               `json:"type"`
	JobID             uuid.UUID          `json:"jobId"`
	Progress          int                `json:"progress"`
	Labels            []string           `json:"labels,omitempty"`
	Status            videos.Status      `json:"status,omitempty"`
	SensitivityStatus videos.Sensitivity `json:"sensitivityStatus,omitempty"`
	At                time.Time          `json:"at"`
}

// IsProgress reports whether e is subject to throttling.
func (e Event) IsProgress() bool {
	return e.Kind == KindUploadProgress || e.Kind == KindAnalysisProgress
}

// Terminal reports whether e announces a completed or failed job.
func (e Event) Terminal() bool {
	return e.Kind == KindStatus && e.Status.Terminal()
}

// UploadProgress builds a transcode/probe progress event.
func UploadProgress(job uuid.UUID, progress int) Event {
	return Event{Kind: KindUploadProgress, JobID: job, Progress: progress}
}

// AnalysisProgress builds an analysis progress event.
func AnalysisProgress(job uuid.UUID, progress int, labels []string) Event {
	return Event{Kind: KindAnalysisProgress, JobID: job, Progress: progress, Labels: labels}
}

// StatusChanged builds a status event.
func StatusChanged(job uuid.UUID, status videos.Status, sensitivity videos.Sensitivity) Event {
	return Event{Kind: KindStatus, JobID: job, Status: status, SensitivityStatus: sensitivity}
}
