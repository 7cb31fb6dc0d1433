package timeline

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SegmentType classifies a segment's structural role on the timeline.
type SegmentType string

const (
	SegmentIntro  SegmentType = "intro"
	SegmentMain   SegmentType = "main"
	SegmentOutro  SegmentType = "outro"
	SegmentAd     SegmentType = "ad"
	SegmentCustom SegmentType = "custom"
)

var allSegmentTypes = []SegmentType{
	SegmentIntro,
	SegmentMain,
	SegmentOutro,
	SegmentAd,
	SegmentCustom,
}

var segmentTypeSet = func() map[SegmentType]struct{} {
	set := make(map[SegmentType]struct{}, len(allSegmentTypes))
	for _, typ := range allSegmentTypes {
		set[typ] = struct{}{}
	}
	return set
}()

// structuralTypes form the minimum skeleton of an episode and can never be
// removed from the timeline.
var structuralTypes = map[SegmentType]struct{}{
	SegmentIntro: {},
	SegmentMain:  {},
	SegmentOutro: {},
}

// ParseSegmentType validates a raw string against the known segment types.
func ParseSegmentType(value string) (SegmentType, error) {
	typ := SegmentType(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := segmentTypeSet[typ]; !ok {
		return "", fmt.Errorf("unknown segment type %q", value)
	}
	return typ, nil
}

// Valid reports whether the type is one of the known segment types.
func (t SegmentType) Valid() bool {
	_, ok := segmentTypeSet[t]
	return ok
}

// Removable reports whether segments of this type may be removed from the
// timeline. Structural types (intro, main, outro) are never removable.
func (t SegmentType) Removable() bool {
	if !t.Valid() {
		return false
	}
	_, structural := structuralTypes[t]
	return !structural
}

// Segment is one labeled, typed interval of the episode timeline.
type Segment struct {
	ID    string      `json:"id"`
	Label string      `json:"label"`
	Type  SegmentType `json:"type"`
	Start float64     `json:"start"`
	End   float64     `json:"end"`
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

var labelCaser = cases.Title(language.Und)

// NormalizeLabel trims an operator-supplied label, falling back to a
// title-cased rendering of the segment type when empty.
func NormalizeLabel(label string, typ SegmentType) string {
	if trimmed := strings.TrimSpace(label); trimmed != "" {
		return trimmed
	}
	return labelCaser.String(strings.ReplaceAll(string(typ), "_", " "))
}

// AdBreakLabel is the display label applied to inserted ad segments.
func AdBreakLabel() string {
	return labelCaser.String("ad break")
}
