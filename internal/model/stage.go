package model

import "fmt"

// Stage is a point in the linear discovery workflow.
type Stage int

const (
	StageIdle Stage = iota
	StageConnected
	StageColumnsLoaded
	StagePreviewReady
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageConnected:
		return "connected"
	case StageColumnsLoaded:
		return "columns-loaded"
	case StagePreviewReady:
		return "preview-ready"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// AtLeast reports whether s has reached other.
func (s Stage) AtLeast(other Stage) bool {
	return s >= other
}

// Max returns the later of two stages.
func Max(a, b Stage) Stage {
	if a > b {
		return a
	}
	return b
}
