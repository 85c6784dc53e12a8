package analysis

// Severity is the escalation level of one piece of evidence or of a verdict.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityNone:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

var severityWeight = map[Severity]float64{
	SeverityLow:      25,
	SeverityMedium:   50,
	SeverityHigh:     75,
	SeverityCritical: 100,
}

// Rank orders severities from none (0) to critical (4).
func (s Severity) Rank() int {
	return severityRank[s]
}

// Weight is the risk contribution of full-confidence evidence at s.
func (s Severity) Weight() float64 {
	return severityWeight[s]
}

// AtLeast returns the higher of s and floor.
func (s Severity) AtLeast(floor Severity) Severity {
	if floor.Rank() > s.Rank() {
		return floor
	}
	return s
}
