package timeline

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

const (
	// MinimumSplitSeconds is the shortest segment that may be split in half.
	MinimumSplitSeconds = 120.0
	// MinimumAdHostSeconds is the shortest main segment that can host an
	// inserted ad break.
	MinimumAdHostSeconds = 120.0
	// MinAdSeconds and MaxAdSeconds bound the length of an inserted ad break.
	MinAdSeconds = 30.0
	MaxAdSeconds = 60.0

	adLengthRatio = 0.08

	// templateEdgeSeconds is the intro and outro length in the standard
	// episode template.
	templateEdgeSeconds = 30.0

	// boundaryTolerance absorbs float drift in externally supplied
	// decompositions; internal operations keep boundaries exact.
	boundaryTolerance = 1e-6
)

// Timeline is the full segment decomposition of one episode. Treat values as
// immutable: operations return a new Timeline and never patch the receiver.
type Timeline struct {
	Duration float64   `json:"duration"`
	Segments []Segment `json:"segments"`
}

// New builds a validated timeline from an externally supplied decomposition.
// Boundaries within tolerance of each other are snapped exactly so later
// operations preserve contiguity without accumulating float drift.
func New(duration float64, segments []Segment) (Timeline, error) {
	t := Timeline{Duration: duration, Segments: cloneSegments(segments)}
	if err := t.Validate(); err != nil {
		return Timeline{}, err
	}
	t.snap()
	return t, nil
}

// NewSingleMain builds a timeline containing one main segment covering the
// whole episode.
func NewSingleMain(duration float64) (Timeline, error) {
	if duration <= 0 {
		return Timeline{}, fmt.Errorf("duration must be positive, got %v", duration)
	}
	return Timeline{
		Duration: duration,
		Segments: []Segment{{
			ID:    uuid.NewString(),
			Label: NormalizeLabel("", SegmentMain),
			Type:  SegmentMain,
			Start: 0,
			End:   duration,
		}},
	}, nil
}

// Default builds the standard intro/main/outro template tiling used when a
// document arrives without its own decomposition. Episodes too short for the
// template to leave a meaningful main section collapse to a single main
// segment.
func Default(duration float64) (Timeline, error) {
	if duration < 3*templateEdgeSeconds {
		return NewSingleMain(duration)
	}
	return Timeline{
		Duration: duration,
		Segments: []Segment{
			{
				ID:    uuid.NewString(),
				Label: NormalizeLabel("", SegmentIntro),
				Type:  SegmentIntro,
				Start: 0,
				End:   templateEdgeSeconds,
			},
			{
				ID:    uuid.NewString(),
				Label: NormalizeLabel("", SegmentMain),
				Type:  SegmentMain,
				Start: templateEdgeSeconds,
				End:   duration - templateEdgeSeconds,
			},
			{
				ID:    uuid.NewString(),
				Label: NormalizeLabel("", SegmentOutro),
				Type:  SegmentOutro,
				Start: duration - templateEdgeSeconds,
				End:   duration,
			},
		},
	}, nil
}

// Validate checks the tiling invariant: segments cover [0, duration]
// contiguously with no gaps or overlaps, carry valid types, and have unique
// non-empty ids.
func (t Timeline) Validate() error {
	if t.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", t.Duration)
	}
	if len(t.Segments) == 0 {
		return fmt.Errorf("timeline has no segments")
	}
	seen := make(map[string]struct{}, len(t.Segments))
	for i, seg := range t.Segments {
		if seg.ID == "" {
			return fmt.Errorf("segment %d has empty id", i)
		}
		if _, dup := seen[seg.ID]; dup {
			return fmt.Errorf("duplicate segment id %q", seg.ID)
		}
		seen[seg.ID] = struct{}{}
		if !seg.Type.Valid() {
			return fmt.Errorf("segment %q has unknown type %q", seg.ID, seg.Type)
		}
		if seg.End-seg.Start <= boundaryTolerance {
			return fmt.Errorf("segment %q has non-positive span [%v, %v]", seg.ID, seg.Start, seg.End)
		}
		if i == 0 {
			if math.Abs(seg.Start) > boundaryTolerance {
				return fmt.Errorf("first segment starts at %v, want 0", seg.Start)
			}
			continue
		}
		prev := t.Segments[i-1]
		if math.Abs(seg.Start-prev.End) > boundaryTolerance {
			return fmt.Errorf("gap between segment %q (end %v) and %q (start %v)", prev.ID, prev.End, seg.ID, seg.Start)
		}
	}
	last := t.Segments[len(t.Segments)-1]
	if math.Abs(last.End-t.Duration) > boundaryTolerance {
		return fmt.Errorf("last segment ends at %v, want duration %v", last.End, t.Duration)
	}
	return nil
}

// snap rewrites boundaries so neighbors share values exactly. Call only after
// Validate has accepted the decomposition.
func (t *Timeline) snap() {
	for i := range t.Segments {
		if i == 0 {
			t.Segments[i].Start = 0
		} else {
			t.Segments[i].Start = t.Segments[i-1].End
		}
	}
	t.Segments[len(t.Segments)-1].End = t.Duration
}

// Clone returns a deep copy the caller may retain across later operations.
func (t Timeline) Clone() Timeline {
	return Timeline{Duration: t.Duration, Segments: cloneSegments(t.Segments)}
}

// Find returns the segment with the given id.
func (t Timeline) Find(segmentID string) (Segment, bool) {
	if idx := t.indexOf(segmentID); idx >= 0 {
		return t.Segments[idx], true
	}
	return Segment{}, false
}

// CanSplit reports whether the segment exists and is long enough to split.
func (t Timeline) CanSplit(segmentID string) bool {
	idx := t.indexOf(segmentID)
	if idx < 0 {
		return false
	}
	return t.Segments[idx].Duration() >= MinimumSplitSeconds
}

// Split replaces the segment with two halves sharing the midpoint boundary.
// The first half keeps the original id and label; the second half receives a
// fresh id. Returns the timeline unchanged when the split precondition fails.
func (t Timeline) Split(segmentID string) Timeline {
	if !t.CanSplit(segmentID) {
		return t
	}
	idx := t.indexOf(segmentID)
	seg := t.Segments[idx]
	mid := seg.Start + seg.Duration()/2

	first := seg
	first.End = mid
	second := Segment{
		ID:    uuid.NewString(),
		Label: seg.Label,
		Type:  seg.Type,
		Start: mid,
		End:   seg.End,
	}

	next := make([]Segment, 0, len(t.Segments)+1)
	next = append(next, t.Segments[:idx]...)
	next = append(next, first, second)
	next = append(next, t.Segments[idx+1:]...)
	return Timeline{Duration: t.Duration, Segments: next}
}

// CanInsertAdBreak reports whether a main segment long enough to host an ad
// break exists.
func (t Timeline) CanInsertAdBreak() bool {
	return t.adBreakTarget() >= 0
}

// InsertAdBreak carves an ad segment out of the center of the longest main
// segment (first in order on ties). The ad length is proportional to the host
// segment, clamped to [MinAdSeconds, MaxAdSeconds], and placed on integer
// second boundaries. All three replacement segments receive fresh ids.
// Returns the timeline unchanged when no eligible host exists.
func (t Timeline) InsertAdBreak() Timeline {
	idx := t.adBreakTarget()
	if idx < 0 {
		return t
	}
	seg := t.Segments[idx]
	dur := seg.Duration()

	adLen := math.Round(adLengthRatio * dur)
	if adLen < MinAdSeconds {
		adLen = MinAdSeconds
	}
	if adLen > MaxAdSeconds {
		adLen = MaxAdSeconds
	}
	mid := seg.Start + dur/2
	adStart := math.Round(mid - adLen/2)
	adEnd := adStart + adLen

	before := Segment{
		ID:    uuid.NewString(),
		Label: seg.Label,
		Type:  seg.Type,
		Start: seg.Start,
		End:   adStart,
	}
	ad := Segment{
		ID:    uuid.NewString(),
		Label: AdBreakLabel(),
		Type:  SegmentAd,
		Start: adStart,
		End:   adEnd,
	}
	after := Segment{
		ID:    uuid.NewString(),
		Label: seg.Label,
		Type:  seg.Type,
		Start: adEnd,
		End:   seg.End,
	}

	next := make([]Segment, 0, len(t.Segments)+2)
	next = append(next, t.Segments[:idx]...)
	next = append(next, before, ad, after)
	next = append(next, t.Segments[idx+1:]...)
	return Timeline{Duration: t.Duration, Segments: next}
}

// CanRemove reports whether the segment exists, is of a removable type, and is
// not the sole segment on the timeline.
func (t Timeline) CanRemove(segmentID string) bool {
	idx := t.indexOf(segmentID)
	if idx < 0 {
		return false
	}
	if len(t.Segments) == 1 {
		return false
	}
	return t.Segments[idx].Type.Removable()
}

// Remove deletes a removable segment and closes the gap it leaves. Neighbors
// of the same type merge into one segment keeping the preceding segment's
// identity; otherwise the following segment extends backward to absorb the
// span. A removed tail segment extends the preceding segment forward instead.
// Returns the timeline unchanged when the removal precondition fails.
func (t Timeline) Remove(segmentID string) Timeline {
	if !t.CanRemove(segmentID) {
		return t
	}
	idx := t.indexOf(segmentID)
	segs := t.Segments
	removed := segs[idx]
	next := make([]Segment, 0, len(segs)-1)

	switch {
	case idx > 0 && idx < len(segs)-1 && segs[idx-1].Type == segs[idx+1].Type:
		merged := segs[idx-1]
		merged.End = segs[idx+1].End
		next = append(next, segs[:idx-1]...)
		next = append(next, merged)
		next = append(next, segs[idx+2:]...)
	case idx < len(segs)-1:
		follower := segs[idx+1]
		follower.Start = removed.Start
		next = append(next, segs[:idx]...)
		next = append(next, follower)
		next = append(next, segs[idx+2:]...)
	default:
		preceding := segs[idx-1]
		preceding.End = removed.End
		next = append(next, segs[:idx-1]...)
		next = append(next, preceding)
	}
	return Timeline{Duration: t.Duration, Segments: next}
}

func (t Timeline) adBreakTarget() int {
	best := -1
	var bestDur float64
	for i, seg := range t.Segments {
		if seg.Type != SegmentMain {
			continue
		}
		if d := seg.Duration(); d > bestDur {
			best, bestDur = i, d
		}
	}
	if best >= 0 && bestDur < MinimumAdHostSeconds {
		return -1
	}
	return best
}

func (t Timeline) indexOf(segmentID string) int {
	for i, seg := range t.Segments {
		if seg.ID == segmentID {
			return i
		}
	}
	return -1
}

func cloneSegments(segments []Segment) []Segment {
	if segments == nil {
		return nil
	}
	out := make([]Segment, len(segments))
	copy(out, segments)
	return out
}
