package local

import (
	"image"

	"github.com/corona10/goimagehash"
)

// dedupThreshold is the dHash Hamming distance below which consecutive
// frames are considered the same shot.
const dedupThreshold = 10

type detections struct {
	objects []Detection
	scenes  []Detection
}

// detectionCache remembers the model detections of the previous frame so a
// static shot does not repeat remote model calls. Frames are analyzed in
// order, so no locking is needed.
type detectionCache struct {
	enabled bool
	hash    *goimagehash.ImageHash
	prev    *detections
	pending *goimagehash.ImageHash
}

func newDetectionCache(enabled bool) *detectionCache {
	return &detectionCache{enabled: enabled}
}

// lookup returns the previous frame's detections when img is perceptually
// identical to it. A hashing failure is treated as a miss.
func (c *detectionCache) lookup(img image.Image) (*detections, bool) {
	c.pending = nil
	if !c.enabled {
		return &detections{}, false
	}

	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return &detections{}, false
	}
	c.pending = hash

	if c.hash != nil && c.prev != nil {
		if dist, err := hash.Distance(c.hash); err == nil && dist < dedupThreshold {
			return &detections{objects: c.prev.objects, scenes: c.prev.scenes}, true
		}
	}

	return &detections{}, false
}

// store records d as the detections of the frame passed to the last lookup.
func (c *detectionCache) store(d *detections) {
	if !c.enabled || c.pending == nil {
		return
	}
	c.hash = c.pending
	c.prev = d
}
