package analysis

// Category groups evidence types by what they indicate.
type Category string

const (
	CategoryWeapons  Category = "weapons"
	CategoryViolence Category = "violence"
	CategoryContext  Category = "context"
)

// Evidence is one detector's positive finding in one frame.
type Evidence struct {
	Type       string   `json:"type"`
	Category   Category `json:"category"`
	Confidence int      `json:"confidence"`
	Severity   Severity `json:"severity"`
	Source     string   `json:"source,omitempty"`
	Frame      int      `json:"frame"`
}

// Evidence types produced by the image heuristics.
const (
	TypeBloodDetected       = "blood_detected"
	TypeViolenceComposition = "violence_composition"
)
