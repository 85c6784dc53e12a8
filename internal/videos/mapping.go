package videos

import (
	"encoding/json"
	"net/url"

	"github.com/google/uuid"

	"github.com/JaimeStill/warden/pkg/query"
	"github.com/JaimeStill/warden/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "videos", "v").
	Project("id", "ID").
	Project("owner_id", "OwnerID").
	Project("filename", "Filename").
	Project("source_path", "SourcePath").
	Project("thumbnail", "Thumbnail").
	Project("status", "Status").
	Project("sensitivity_status", "SensitivityStatus").
	Project("progress", "Progress").
	Project("confidence", "Confidence").
	Project("detected_labels", "DetectedLabels").
	Project("analysis_details", "AnalysisDetails").
	Project("analysis_error", "AnalysisError").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters narrows the review listing. Nil fields are ignored.
type Filters struct {
	OwnerID           *uuid.UUID `json:"owner_id,omitempty"`
	Status            *string    `json:"status,omitempty"`
	SensitivityStatus *string    `json:"sensitivity_status,omitempty"`
	Label             *string    `json:"label,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("OwnerID", f.OwnerID).
		WhereEquals("Status", f.Status).
		WhereEquals("SensitivityStatus", f.SensitivityStatus).
		WhereHasElement("DetectedLabels", f.Label)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// An unparseable owner_id is ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if o := values.Get("owner_id"); o != "" {
		if id, err := uuid.Parse(o); err == nil {
			f.OwnerID = &id
		}
	}

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if s := values.Get("sensitivity_status"); s != "" {
		f.SensitivityStatus = &s
	}

	if s := values.Get("label"); s != "" {
		f.Label = &s
	}

	return f
}

func scanVideo(s repository.Scanner) (Video, error) {
	var (
		v       Video
		labels  []byte
		details []byte
	)
	err := s.Scan(
		&v.ID,
		&v.OwnerID,
		&v.Filename,
		&v.SourcePath,
		&v.Thumbnail,
		&v.Status,
		&v.SensitivityStatus,
		&v.Progress,
		&v.Confidence,
		&labels,
		&details,
		&v.AnalysisError,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return v, err
	}

	v.DetectedLabels = []string{}
	if len(labels) > 0 {
		if err := json.Unmarshal(labels, &v.DetectedLabels); err != nil {
			return v, err
		}
	}
	if len(details) > 0 && string(details) != "null" {
		v.AnalysisDetails = json.RawMessage(details)
	}

	return v, nil
}
