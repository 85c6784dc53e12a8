package local

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/encoding"
	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/JaimeStill/warden/internal/analysis"
	"github.com/JaimeStill/warden/pkg/formatting"
)

type visionReply struct {
	Detections []Detection `json:"detections"`
}

// VisionDetector backs both model strategies with a vision-capable chat
// model. Each call builds its own agent so concurrent frames share nothing.
type VisionDetector struct {
	cfg gaconfig.AgentConfig
}

// NewVisionDetector creates a detector for the given agent configuration.
func NewVisionDetector(cfg gaconfig.AgentConfig) *VisionDetector {
	return &VisionDetector{cfg: cfg}
}

// Validate confirms an agent can be built from the configuration.
func (v *VisionDetector) Validate() error {
	if _, err := agent.New(&v.cfg); err != nil {
		return fmt.Errorf("create agent: %w", err)
	}
	return nil
}

func (v *VisionDetector) DetectObjects(ctx context.Context, still *Still) ([]Detection, error) {
	return v.ask(ctx, objectPrompt, still)
}

func (v *VisionDetector) ClassifyScene(ctx context.Context, still *Still) ([]Detection, error) {
	return v.ask(ctx, scenePrompt, still)
}

func (v *VisionDetector) ask(ctx context.Context, prompt string, still *Still) ([]Detection, error) {
	a, err := agent.New(&v.cfg)
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}

	dataURI, err := encoding.EncodeImageDataURI(still.PNG, document.PNG)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	resp, err := a.Vision(ctx, prompt, []string{dataURI})
	if err != nil {
		return nil, fmt.Errorf("vision call: %w", err)
	}

	reply, err := formatting.Parse[visionReply](resp.Content())
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	out := reply.Detections[:0]
	for _, d := range reply.Detections {
		if strings.TrimSpace(d.Label) == "" {
			continue
		}
		d.Score = min(max(d.Score, 0), 1)
		out = append(out, d)
	}
	return out, nil
}

const replyFormat = `Respond with JSON only, in the form {"detections":[{"label":"<lowercase label>","score":<0.0-1.0>}]}. ` +
	`Return an empty list when nothing applies.`

var objectPrompt = "List the physical objects clearly visible in this video frame, " +
	"paying particular attention to weapons and to people fighting or injured. " +
	"Prefer these labels when they apply: " + strings.Join(tokens(analysis.CategoryWeapons, analysis.CategoryViolence), ", ") + ". " +
	replyFormat

var scenePrompt = "Classify the setting of this video frame with up to five short scene labels. " +
	"Prefer these labels when they apply: " + strings.Join(tokens(analysis.CategoryContext), ", ") + ". " +
	replyFormat

func tokens(categories ...analysis.Category) []string {
	var out []string
	for _, c := range analysis.Classes(categories...) {
		out = append(out, c.Tokens...)
	}
	return out
}
