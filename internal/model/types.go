// Package model defines shared data structures.
package model

import "time"

// Config defines capture session settings.
type Config struct {
	MaxZoom         float64
	ZoomRampRate    float64
	FocusClearDelay time.Duration
	RotationSettle  time.Duration
	ExposureDivisor float64
}

// GuidanceConfig defines settings for vision guidance requests.
type GuidanceConfig struct {
	Model       string
	Temperature float64
	Prompt      string
}

// LibraryQuery defines filters for listing saved shots.
type LibraryQuery struct {
	Since *time.Time
	Last  int
}

// Shot records a saved capture in the photo library.
type Shot struct {
	ID           int64
	TakenAt      time.Time
	Path         string
	Width        int
	Height       int
	ZoomFactor   float64
	ExposureBias float64
	Orientation  string
}

// GuidanceItem is one parsed repositioning hint from the vision model.
type GuidanceItem struct {
	Category  string
	Direction string
	Detail    string
}
