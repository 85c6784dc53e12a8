package analysis

import "errors"

var (
	// ErrLocalAnalysis marks a failure of the local analyzer. It is fatal to the job.
	ErrLocalAnalysis = errors.New("local analysis failed")
	// ErrCloudAnalysis marks a failure of the cloud analyzer. The job falls back to local.
	ErrCloudAnalysis = errors.New("cloud analysis failed")
	// ErrUnavailable indicates no analyzer is registered for a backend.
	ErrUnavailable = errors.New("analyzer backend unavailable")
)
