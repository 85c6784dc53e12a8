package local

import (
	"context"
	"image"
)

// Detection is one label reported by a model-backed detector with a score in [0,1].
type Detection struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Still is a decoded frame handed to every strategy. PNG holds the encoded
// bytes for detectors that ship the image to a remote model.
type Still struct {
	Index int
	PNG   []byte
	Image *image.RGBA
}

// ObjectDetector reports objects visible in a frame.
type ObjectDetector interface {
	DetectObjects(ctx context.Context, still *Still) ([]Detection, error)
}

// SceneClassifier reports what kind of scene a frame depicts.
type SceneClassifier interface {
	ClassifyScene(ctx context.Context, still *Still) ([]Detection, error)
}

// Validator is implemented by detectors that can verify their backend at startup.
type Validator interface {
	Validate() error
}
