package local_test

import (
	"testing"

	"github.com/JaimeStill/warden/internal/analysis"
	"github.com/JaimeStill/warden/internal/analysis/local"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1},
		{"gun", "gun", 1},
		{"rifel", "rifle", 0.6},
		{"pistols", "pistol", 6.0 / 7.0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			if got := local.Similarity(tt.a, tt.b); got != tt.want {
				t.Errorf("Similarity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestObjectEvidence(t *testing.T) {
	tests := []struct {
		name  string
		det   local.Detection
		types []string
	}{
		{"containment", local.Detection{Label: "rifle", Score: 0.9}, []string{analysis.TypeFirearms}},
		{"fuzzy", local.Detection{Label: "knive", Score: 0.8}, []string{analysis.TypeMelee}},
		{"below floor", local.Detection{Label: "knife", Score: 0.3}, nil},
		{"violence class", local.Detection{Label: "fist fight", Score: 0.7}, []string{analysis.TypeViolenceDirect}},
		{"weapon and violence", local.Detection{Label: "Assault Rifle", Score: 0.9}, []string{analysis.TypeFirearms, analysis.TypeViolenceDirect}},
		{"two weapon classes", local.Detection{Label: "gun with blade", Score: 0.6}, []string{analysis.TypeFirearms, analysis.TypeMelee}},
		{"one floor passes", local.Detection{Label: "gun with blade", Score: 0.45}, []string{analysis.TypeFirearms}},
		{"unrelated", local.Detection{Label: "bicycle", Score: 0.99}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := local.ObjectEvidence([]local.Detection{tt.det}, 7)
			if len(ev) != len(tt.types) {
				t.Fatalf("evidence count = %d, want %d: %+v", len(ev), len(tt.types), ev)
			}
			for i, typ := range tt.types {
				if ev[i].Type != typ {
					t.Errorf("evidence[%d] type = %s, want %s", i, ev[i].Type, typ)
				}
				if ev[i].Frame != 7 || ev[i].Source != tt.det.Label {
					t.Errorf("unexpected evidence %+v", ev[i])
				}
			}
		})
	}
}

func TestSceneEvidence(t *testing.T) {
	ev := local.SceneEvidence([]local.Detection{
		{Label: "military base", Score: 0.7},
		{Label: "soldier", Score: 0.5},
		{Label: "robbery in progress", Score: 0.6},
		{Label: "soldierly", Score: 0.9},
	}, 0)

	if len(ev) != 3 {
		t.Fatalf("evidence count = %d, want 3: %+v", len(ev), ev)
	}
	if ev[0].Type != analysis.TypeMilitary || ev[0].Confidence != 70 {
		t.Errorf("unexpected first evidence %+v", ev[0])
	}
	if ev[1].Type != analysis.TypeCriminal {
		t.Errorf("unexpected second evidence %+v", ev[1])
	}
}
