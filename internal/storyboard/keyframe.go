package storyboard

import (
	"math"

	"github.com/san-kum/harmony/internal/dynamo"
)

// Keyframe is an authored target state at a point on the timeline.
type Keyframe struct {
	Timestamp          float64             `json:"timestamp" yaml:"timestamp"`
	Physics            dynamo.PhysicsPatch `json:"physics,omitempty" yaml:"physics,omitempty"`
	Audio              dynamo.AudioPatch   `json:"audio,omitempty" yaml:"audio,omitempty"`
	Visual             dynamo.VisualPatch  `json:"visual,omitempty" yaml:"visual,omitempty"`
	Harmony            float64             `json:"harmony" yaml:"harmony"`
	TransitionDuration float64             `json:"transition_duration,omitempty" yaml:"transition_duration,omitempty"`
}

func (k Keyframe) Validate() error {
	if math.IsNaN(k.Timestamp) || math.IsInf(k.Timestamp, 0) || k.Timestamp < 0 {
		return dynamo.Invalid("timestamp", "must be >= 0, got %g", k.Timestamp)
	}
	if math.IsNaN(k.Harmony) || k.Harmony < 0 || k.Harmony > 1 {
		return dynamo.Invalid("harmony", "must be within [0, 1], got %g", k.Harmony)
	}
	if math.IsNaN(k.TransitionDuration) || math.IsInf(k.TransitionDuration, 0) || k.TransitionDuration < 0 {
		return dynamo.Invalid("transition_duration", "must be >= 0, got %g", k.TransitionDuration)
	}
	if err := k.Physics.Validate(); err != nil {
		return err
	}
	if err := k.Audio.Validate(); err != nil {
		return err
	}
	return k.Visual.Validate()
}

// Segment locates a time between two neighbouring keyframes. Prev and Next
// are equal when the time lies outside the authored range.
type Segment struct {
	Prev     Keyframe
	Next     Keyframe
	Progress float64
}

// Frame is the evaluated timeline at one instant.
type Frame struct {
	Time     float64             `json:"time"`
	Progress float64             `json:"progress"`
	Physics  dynamo.PhysicsPatch `json:"physics"`
	Audio    dynamo.AudioPatch   `json:"audio"`
	Visual   dynamo.VisualPatch  `json:"visual"`
	Harmony  float64             `json:"harmony"`
}
