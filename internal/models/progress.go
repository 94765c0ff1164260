package models

import "time"

// MediaTypeAudiobook is the media kind tag sent with every progress upsert.
const MediaTypeAudiobook = "audiobook"

// RawProgressEvent is a listening-progress change reported by the source stream.
//
// Missing numeric fields are zero.
type RawProgressEvent struct {
	SourceItemID     string
	ProgressFraction float64 // 0..1
	PositionSeconds  float64
	DurationSeconds  float64
}

// ResolvedUpdate is a progress record keyed by the cross-service identifier.
type ResolvedUpdate struct {
	ExternalID       string // ASIN
	SourceItemID     string
	ProgressFraction float64
	PositionSeconds  float64
	DurationSeconds  float64
	ObservedAt       int64 // epoch milliseconds, assigned at translation time
}

// ObservedTime returns ObservedAt as a [time.Time].
func (u ResolvedUpdate) ObservedTime() time.Time {
	return time.UnixMilli(u.ObservedAt)
}

// Percent returns the progress as a percentage for display.
func (u ResolvedUpdate) Percent() float64 {
	return u.ProgressFraction * 100
}
