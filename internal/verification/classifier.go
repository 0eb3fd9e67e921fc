package verification

import (
	"math"

	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/internal/model"
)

// Classifier decides whether an orientation sample falls inside the
// angular window of a direction. Up and down are classified on pitch,
// left and right on yaw. Left is matched against yaw normalized to
// [0,360); right against the raw signed yaw, matching the client's
// native yaw range.
type Classifier struct {
	windows   map[model.Direction]config.Window
	tolerance float64
}

// NewClassifier builds a classifier from the movement configuration
func NewClassifier(cfg *config.MovementConfig) *Classifier {
	return &Classifier{
		windows: map[model.Direction]config.Window{
			model.DirectionUp:    cfg.Angles.Up,
			model.DirectionDown:  cfg.Angles.Down,
			model.DirectionLeft:  cfg.Angles.Left,
			model.DirectionRight: cfg.Angles.Right,
		},
		tolerance: cfg.Tolerance,
	}
}

// InWindow reports whether the sample is inside the direction's window,
// widened by the configured tolerance on both sides
func (c *Classifier) InWindow(dir model.Direction, yaw, pitch float64) bool {
	w, ok := c.windows[dir]
	if !ok {
		return false
	}

	var v float64
	switch dir {
	case model.DirectionUp, model.DirectionDown:
		v = pitch
	case model.DirectionLeft:
		v = normalizeYaw(yaw)
	case model.DirectionRight:
		v = yaw
	}

	return v >= w.Min-c.tolerance && v <= w.Max+c.tolerance
}

// normalizeYaw maps a yaw angle into [0, 360)
func normalizeYaw(yaw float64) float64 {
	v := math.Mod(yaw, 360)
	if v < 0 {
		v += 360
	}
	return v
}
