package review

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"voiceloom/internal/detection"
	"voiceloom/internal/timeline"
)

// Document is the import payload produced by the upstream detection pipeline:
// episode duration, an optional initial segment layout, and the raw voice
// trigger detections to review.
type Document struct {
	Title      string                   `json:"title"`
	Duration   float64                  `json:"duration_s"`
	Segments   []timeline.Segment       `json:"segments,omitempty"`
	Detections []detection.RawDetection `json:"detections,omitempty"`
}

type documentEnvelope struct {
	Title         string                   `json:"title"`
	Duration      float64                  `json:"duration_s"`
	TotalDuration float64                  `json:"total_duration_s"`
	Segments      []timeline.Segment       `json:"segments"`
	Detections    []detection.RawDetection `json:"detections"`
}

// ParseDocument decodes an import document. The episode duration may arrive
// as duration_s or the older total_duration_s key and must be positive.
func ParseDocument(data []byte) (Document, error) {
	var env documentEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Document{}, fmt.Errorf("parse import document: %w", err)
	}
	duration := env.Duration
	if duration <= 0 {
		duration = env.TotalDuration
	}
	if duration <= 0 {
		return Document{}, errors.New("parse import document: positive duration_s required")
	}
	return Document{
		Title:      strings.TrimSpace(env.Title),
		Duration:   duration,
		Segments:   env.Segments,
		Detections: env.Detections,
	}, nil
}

// BuildTimeline constructs the session timeline from the document, falling
// back to a single main segment covering the whole episode when the upstream
// pipeline supplied no layout. Missing labels are filled from the segment
// type.
func (d Document) BuildTimeline() (timeline.Timeline, error) {
	if len(d.Segments) == 0 {
		return timeline.Default(d.Duration)
	}
	segments := make([]timeline.Segment, len(d.Segments))
	for i, seg := range d.Segments {
		seg.Label = timeline.NormalizeLabel(seg.Label, seg.Type)
		segments[i] = seg
	}
	return timeline.New(d.Duration, segments)
}
