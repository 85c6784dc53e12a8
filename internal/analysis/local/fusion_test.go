package local_test

import (
	"testing"

	"github.com/JaimeStill/warden/internal/analysis"
	"github.com/JaimeStill/warden/internal/analysis/local"
)

func evidence(typ string, cat analysis.Category, sev analysis.Severity, conf int) analysis.Evidence {
	return analysis.Evidence{Type: typ, Category: cat, Severity: sev, Confidence: conf}
}

func TestScoreFrame(t *testing.T) {
	tests := []struct {
		name     string
		evidence []analysis.Evidence
		risk     float64
		conf     int
	}{
		{"empty", nil, 0, 95},
		{
			"critical weapon",
			[]analysis.Evidence{evidence(analysis.TypeFirearms, analysis.CategoryWeapons, analysis.SeverityCritical, 80)},
			80, 80,
		},
		{
			"context counts half",
			[]analysis.Evidence{evidence(analysis.TypeMilitary, analysis.CategoryContext, analysis.SeverityMedium, 80)},
			20, 80,
		},
		{
			"capped at 100",
			[]analysis.Evidence{
				evidence(analysis.TypeFirearms, analysis.CategoryWeapons, analysis.SeverityCritical, 90),
				evidence(analysis.TypeExplosives, analysis.CategoryWeapons, analysis.SeverityCritical, 70),
			},
			100, 80,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fr := local.ScoreFrame(3, tt.evidence)
			if fr.Risk != tt.risk {
				t.Errorf("risk = %v, want %v", fr.Risk, tt.risk)
			}
			if fr.Confidence != tt.conf {
				t.Errorf("confidence = %d, want %d", fr.Confidence, tt.conf)
			}
			if fr.Index != 3 {
				t.Errorf("index = %d, want 3", fr.Index)
			}
		})
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		risk     local.Risk
		labels   []string
		verdict  analysis.Verdict
		severity analysis.Severity
	}{
		{"no labels is safe", local.Risk{Avg: 90, Peak: 95}, nil, analysis.VerdictSafe, analysis.SeverityNone},
		{"firearms critical", local.Risk{}, []string{"WEAPONS_FIREARMS"}, analysis.VerdictFlagged, analysis.SeverityCritical},
		{"explosives critical", local.Risk{}, []string{"WEAPONS_EXPLOSIVES"}, analysis.VerdictFlagged, analysis.SeverityCritical},
		{"blood high", local.Risk{}, []string{"BLOOD_DETECTED"}, analysis.VerdictFlagged, analysis.SeverityHigh},
		{"melee medium", local.Risk{}, []string{"WEAPONS_MELEE"}, analysis.VerdictFlagged, analysis.SeverityMedium},
		{"peak 70 avg 10 high", local.Risk{Avg: 10, Peak: 70}, []string{"VIOLENCE_COMPOSITION"}, analysis.VerdictFlagged, analysis.SeverityHigh},
		{"peak above 80 critical", local.Risk{Avg: 50, Peak: 85}, []string{"VIOLENCE_COMPOSITION"}, analysis.VerdictFlagged, analysis.SeverityCritical},
		{"threshold raises mandatory medium", local.Risk{Avg: 60, Peak: 70}, []string{"WEAPONS_MELEE"}, analysis.VerdictFlagged, analysis.SeverityHigh},
		{"threshold never lowers", local.Risk{Avg: 20, Peak: 30}, []string{"WEAPONS_FIREARMS"}, analysis.VerdictFlagged, analysis.SeverityCritical},
		{"medium band", local.Risk{Avg: 10, Peak: 45}, []string{"VIOLENCE_COMPOSITION"}, analysis.VerdictFlagged, analysis.SeverityMedium},
		{"low band", local.Risk{Avg: 5, Peak: 25}, []string{"VIOLENCE_COMPOSITION"}, analysis.VerdictFlagged, analysis.SeverityLow},
		{"below every band", local.Risk{Avg: 5, Peak: 10}, []string{"VIOLENCE_COMPOSITION"}, analysis.VerdictSafe, analysis.SeverityNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, s := local.Decide(tt.risk, tt.labels)
			if v != tt.verdict {
				t.Errorf("verdict = %s, want %s", v, tt.verdict)
			}
			if s != tt.severity {
				t.Errorf("severity = %s, want %s", s, tt.severity)
			}
		})
	}
}

func TestCombinedRisk(t *testing.T) {
	if got := (local.Risk{Avg: 10, Peak: 70}).Combined(); got != 46 {
		t.Errorf("combined = %v, want 46", got)
	}
}

func TestFuse(t *testing.T) {
	t.Run("no evidence is safe at 95", func(t *testing.T) {
		a := local.Fuse([]local.FrameResult{local.ScoreFrame(0, nil), local.ScoreFrame(1, nil)})

		if a.Verdict != analysis.VerdictSafe {
			t.Errorf("verdict = %s, want safe", a.Verdict)
		}
		if a.Confidence != 95 {
			t.Errorf("confidence = %d, want 95", a.Confidence)
		}
		if a.Labels == nil || len(a.Labels) != 0 {
			t.Errorf("labels = %v, want empty non-nil", a.Labels)
		}
		if a.Details.Method() != local.Method {
			t.Errorf("method = %q, want %q", a.Details.Method(), local.Method)
		}
		if a.Details["totalFramesAnalyzed"] != 2 {
			t.Errorf("totalFramesAnalyzed = %v, want 2", a.Details["totalFramesAnalyzed"])
		}
	})

	t.Run("firearms flagged critical", func(t *testing.T) {
		a := local.Fuse([]local.FrameResult{
			local.ScoreFrame(0, nil),
			local.ScoreFrame(1, []analysis.Evidence{
				evidence(analysis.TypeFirearms, analysis.CategoryWeapons, analysis.SeverityCritical, 60),
			}),
		})

		if a.Verdict != analysis.VerdictFlagged {
			t.Fatalf("verdict = %s, want flagged", a.Verdict)
		}
		if a.Details["severity"] != analysis.SeverityCritical {
			t.Errorf("severity = %v, want critical", a.Details["severity"])
		}
		// avg 30, peak 60, combined 48
		if a.Confidence != 95 {
			t.Errorf("confidence = %d, want 95", a.Confidence)
		}
		if len(a.Labels) != 1 || a.Labels[0] != "WEAPONS_FIREARMS" {
			t.Errorf("labels = %v, want [WEAPONS_FIREARMS]", a.Labels)
		}
	})

	t.Run("context adds risk but no label", func(t *testing.T) {
		a := local.Fuse([]local.FrameResult{
			local.ScoreFrame(0, []analysis.Evidence{
				evidence(analysis.TypeCriminal, analysis.CategoryContext, analysis.SeverityHigh, 90),
			}),
		})

		if a.Verdict != analysis.VerdictSafe {
			t.Errorf("verdict = %s, want safe", a.Verdict)
		}
		flags := a.Details["contextualFlags"].(map[string]any)
		if flags["total"] != 1 {
			t.Errorf("contextual total = %v, want 1", flags["total"])
		}
	})

	t.Run("confidence below ceiling", func(t *testing.T) {
		a := local.Fuse([]local.FrameResult{
			local.ScoreFrame(0, []analysis.Evidence{
				evidence(analysis.TypeViolenceComposition, analysis.CategoryViolence, analysis.SeverityMedium, 60),
			}),
			local.ScoreFrame(1, nil),
			local.ScoreFrame(2, nil),
		})

		// peak 30, avg 10, combined 22
		if a.Verdict != analysis.VerdictFlagged {
			t.Fatalf("verdict = %s, want flagged", a.Verdict)
		}
		if a.Confidence != 72 {
			t.Errorf("confidence = %d, want 72", a.Confidence)
		}
		if a.Details["severity"] != analysis.SeverityLow {
			t.Errorf("severity = %v, want low", a.Details["severity"])
		}
	})
}
