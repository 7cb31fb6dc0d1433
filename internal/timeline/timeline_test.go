package timeline_test

import (
	"math"
	"testing"

	"voiceloom/internal/timeline"
)

func seg(id, label string, typ timeline.SegmentType, start, end float64) timeline.Segment {
	return timeline.Segment{ID: id, Label: label, Type: typ, Start: start, End: end}
}

func mustTimeline(t *testing.T, duration float64, segments ...timeline.Segment) timeline.Timeline {
	t.Helper()
	tl, err := timeline.New(duration, segments)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return tl
}

func assertTiled(t *testing.T, tl timeline.Timeline) {
	t.Helper()
	if err := tl.Validate(); err != nil {
		t.Fatalf("tiling invariant violated: %v", err)
	}
}

func TestNewValidatesTiling(t *testing.T) {
	cases := []struct {
		name     string
		duration float64
		segments []timeline.Segment
	}{
		{"empty", 100, nil},
		{"zero duration", 0, []timeline.Segment{seg("a", "Main", timeline.SegmentMain, 0, 100)}},
		{"first not at zero", 100, []timeline.Segment{seg("a", "Main", timeline.SegmentMain, 5, 100)}},
		{"last short of duration", 100, []timeline.Segment{seg("a", "Main", timeline.SegmentMain, 0, 90)}},
		{"gap between segments", 100, []timeline.Segment{
			seg("a", "Intro", timeline.SegmentIntro, 0, 40),
			seg("b", "Main", timeline.SegmentMain, 50, 100),
		}},
		{"overlap between segments", 100, []timeline.Segment{
			seg("a", "Intro", timeline.SegmentIntro, 0, 60),
			seg("b", "Main", timeline.SegmentMain, 50, 100),
		}},
		{"duplicate ids", 100, []timeline.Segment{
			seg("a", "Intro", timeline.SegmentIntro, 0, 40),
			seg("a", "Main", timeline.SegmentMain, 40, 100),
		}},
		{"unknown type", 100, []timeline.Segment{seg("a", "Main", "jingle", 0, 100)}},
		{"zero-width segment", 100, []timeline.Segment{
			seg("a", "Intro", timeline.SegmentIntro, 0, 40),
			seg("b", "Main", timeline.SegmentMain, 40, 40),
			seg("c", "Main", timeline.SegmentMain, 40, 100),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := timeline.New(tc.duration, tc.segments); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestNewSnapsFloatDrift(t *testing.T) {
	tl := mustTimeline(t, 100,
		seg("a", "Intro", timeline.SegmentIntro, 0, 40.0000001),
		seg("b", "Main", timeline.SegmentMain, 40, 100),
	)
	if tl.Segments[1].Start != tl.Segments[0].End {
		t.Fatalf("boundaries not snapped: %v vs %v", tl.Segments[0].End, tl.Segments[1].Start)
	}
	if tl.Segments[0].Start != 0 || tl.Segments[1].End != 100 {
		t.Fatalf("endpoints not snapped: %+v", tl.Segments)
	}
}

func TestDefaultTemplate(t *testing.T) {
	tl, err := timeline.Default(1800)
	if err != nil {
		t.Fatalf("Default returned error: %v", err)
	}
	assertTiled(t, tl)
	if len(tl.Segments) != 3 {
		t.Fatalf("expected intro/main/outro, got %d segments", len(tl.Segments))
	}
	wantTypes := []timeline.SegmentType{timeline.SegmentIntro, timeline.SegmentMain, timeline.SegmentOutro}
	for i, typ := range wantTypes {
		if tl.Segments[i].Type != typ {
			t.Fatalf("segment %d type = %s, want %s", i, tl.Segments[i].Type, typ)
		}
	}
	if tl.Segments[0].End != 30 || tl.Segments[1].End != 1770 {
		t.Fatalf("unexpected template boundaries: %+v", tl.Segments)
	}
	if tl.Segments[1].Label != "Main" {
		t.Fatalf("expected normalized label, got %q", tl.Segments[1].Label)
	}
}

func TestDefaultShortEpisodeCollapsesToMain(t *testing.T) {
	tl, err := timeline.Default(75)
	if err != nil {
		t.Fatalf("Default returned error: %v", err)
	}
	assertTiled(t, tl)
	if len(tl.Segments) != 1 || tl.Segments[0].Type != timeline.SegmentMain {
		t.Fatalf("expected single main segment, got %+v", tl.Segments)
	}

	if _, err := timeline.Default(0); err == nil {
		t.Fatal("expected error for non-positive duration")
	}
}

func TestSplitHalvesPreserveSpan(t *testing.T) {
	tl := mustTimeline(t, 600, seg("a", "Main", timeline.SegmentMain, 0, 600))
	split := tl.Split("a")

	if len(split.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(split.Segments))
	}
	first, second := split.Segments[0], split.Segments[1]
	if first.ID != "a" {
		t.Fatalf("first half should keep parent id, got %q", first.ID)
	}
	if second.ID == "a" || second.ID == "" {
		t.Fatalf("second half needs fresh id, got %q", second.ID)
	}
	if second.Label != first.Label || second.Type != first.Type {
		t.Fatalf("second half should inherit label and type: %+v", second)
	}
	sum := first.Duration() + second.Duration()
	if math.Abs(sum-600) > 1e-9 {
		t.Fatalf("halves sum to %v, want 600", sum)
	}
	if math.Abs(first.Duration()-second.Duration()) > 1 {
		t.Fatalf("halves differ by more than a rounding unit: %v vs %v", first.Duration(), second.Duration())
	}
	assertTiled(t, split)

	// Copy-on-write: the original value is untouched.
	if len(tl.Segments) != 1 {
		t.Fatalf("original timeline mutated: %+v", tl.Segments)
	}
}

func TestSplitBelowMinimumIsNoOp(t *testing.T) {
	tl := mustTimeline(t, 119, seg("a", "Main", timeline.SegmentMain, 0, 119))
	if tl.CanSplit("a") {
		t.Fatal("CanSplit should be false below the minimum")
	}
	out := tl.Split("a")
	if len(out.Segments) != 1 || out.Segments[0] != tl.Segments[0] {
		t.Fatalf("expected unchanged timeline, got %+v", out.Segments)
	}
}

func TestSplitUnknownSegmentIsNoOp(t *testing.T) {
	tl := mustTimeline(t, 600, seg("a", "Main", timeline.SegmentMain, 0, 600))
	out := tl.Split("missing")
	if len(out.Segments) != 1 {
		t.Fatalf("expected unchanged timeline, got %+v", out.Segments)
	}
}

func TestInsertAdBreakScenario1800(t *testing.T) {
	tl := mustTimeline(t, 1800, seg("a", "Main", timeline.SegmentMain, 0, 1800))
	out := tl.InsertAdBreak()

	if len(out.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(out.Segments))
	}
	before, ad, after := out.Segments[0], out.Segments[1], out.Segments[2]
	if before.Type != timeline.SegmentMain || after.Type != timeline.SegmentMain {
		t.Fatalf("flanks must stay main: %+v", out.Segments)
	}
	if ad.Type != timeline.SegmentAd {
		t.Fatalf("middle segment must be ad, got %q", ad.Type)
	}
	// 0.08 * 1800 = 144 clamps to the 60s maximum, centered on 900.
	if ad.Start != 870 || ad.End != 930 {
		t.Fatalf("ad window = [%v, %v], want [870, 930]", ad.Start, ad.End)
	}
	if before.Start != 0 || after.End != 1800 {
		t.Fatalf("flank endpoints wrong: %+v", out.Segments)
	}
	for _, s := range out.Segments {
		if s.ID == "a" || s.ID == "" {
			t.Fatalf("all replacement segments need fresh ids: %+v", out.Segments)
		}
	}
	assertTiled(t, out)
}

func TestInsertAdBreakBounds(t *testing.T) {
	for length := 120.0; length <= 1000; length += 40 {
		tl := mustTimeline(t, length, seg("a", "Main", timeline.SegmentMain, 0, length))
		out := tl.InsertAdBreak()
		if len(out.Segments) != 3 {
			t.Fatalf("length %v: expected 3 segments, got %d", length, len(out.Segments))
		}
		adLen := out.Segments[1].Duration()
		if adLen < 30 || adLen > 60 {
			t.Fatalf("length %v: ad length %v outside [30, 60]", length, adLen)
		}
		want := math.Round(0.08 * length)
		if want < 30 {
			want = 30
		}
		if want > 60 {
			want = 60
		}
		if adLen != want {
			t.Fatalf("length %v: ad length %v, want %v", length, adLen, want)
		}
		assertTiled(t, out)
	}
}

func TestInsertAdBreakPicksLongestMainFirstOnTie(t *testing.T) {
	tl := mustTimeline(t, 900,
		seg("a", "Main", timeline.SegmentMain, 0, 300),
		seg("b", "Ad", timeline.SegmentAd, 300, 360),
		seg("c", "Main", timeline.SegmentMain, 360, 660),
		seg("d", "Outro", timeline.SegmentOutro, 660, 900),
	)
	out := tl.InsertAdBreak()
	if len(out.Segments) != 6 {
		t.Fatalf("expected 6 segments, got %d", len(out.Segments))
	}
	// Both mains are 300s; the first in order hosts the break.
	if out.Segments[1].Type != timeline.SegmentAd {
		t.Fatalf("expected break inside first main segment: %+v", out.Segments)
	}
	if out.Segments[0].End >= 300 || out.Segments[2].Start <= 0 {
		t.Fatalf("break not carved from first main: %+v", out.Segments[:3])
	}
	assertTiled(t, out)
}

func TestInsertAdBreakNoEligibleHostIsNoOp(t *testing.T) {
	noMain := mustTimeline(t, 300,
		seg("a", "Intro", timeline.SegmentIntro, 0, 150),
		seg("b", "Outro", timeline.SegmentOutro, 150, 300),
	)
	if noMain.CanInsertAdBreak() {
		t.Fatal("CanInsertAdBreak should be false without a main segment")
	}
	if out := noMain.InsertAdBreak(); len(out.Segments) != 2 {
		t.Fatalf("expected unchanged timeline, got %+v", out.Segments)
	}

	shortMain := mustTimeline(t, 200,
		seg("a", "Main", timeline.SegmentMain, 0, 100),
		seg("b", "Outro", timeline.SegmentOutro, 100, 200),
	)
	if shortMain.CanInsertAdBreak() {
		t.Fatal("CanInsertAdBreak should be false when the main segment is too short")
	}
	if out := shortMain.InsertAdBreak(); len(out.Segments) != 2 {
		t.Fatalf("expected unchanged timeline, got %+v", out.Segments)
	}
}

func TestRemoveGuardsStructuralTypes(t *testing.T) {
	tl := mustTimeline(t, 900,
		seg("intro", "Intro", timeline.SegmentIntro, 0, 100),
		seg("main", "Main", timeline.SegmentMain, 100, 800),
		seg("outro", "Outro", timeline.SegmentOutro, 800, 900),
	)
	for _, id := range []string{"intro", "main", "outro"} {
		if tl.CanRemove(id) {
			t.Fatalf("CanRemove(%q) should be false", id)
		}
		out := tl.Remove(id)
		if len(out.Segments) != 3 {
			t.Fatalf("Remove(%q) changed the timeline: %+v", id, out.Segments)
		}
		for i := range out.Segments {
			if out.Segments[i] != tl.Segments[i] {
				t.Fatalf("Remove(%q) altered segment %d", id, i)
			}
		}
	}
}

func TestRemoveMergesSameTypeNeighbors(t *testing.T) {
	tl := mustTimeline(t, 900,
		seg("m1", "Main", timeline.SegmentMain, 0, 400),
		seg("ad", "Ad Break", timeline.SegmentAd, 400, 460),
		seg("m2", "Main", timeline.SegmentMain, 460, 900),
	)
	out := tl.Remove("ad")
	if len(out.Segments) != 1 {
		t.Fatalf("expected single merged segment, got %+v", out.Segments)
	}
	merged := out.Segments[0]
	if merged.ID != "m1" {
		t.Fatalf("merged segment should keep preceding identity, got %q", merged.ID)
	}
	if merged.Start != 0 || merged.End != 900 {
		t.Fatalf("merged span = [%v, %v], want [0, 900]", merged.Start, merged.End)
	}
	assertTiled(t, out)
}

func TestRemoveExtendsFollowingWhenTypesDiffer(t *testing.T) {
	tl := mustTimeline(t, 900,
		seg("intro", "Intro", timeline.SegmentIntro, 0, 100),
		seg("ad", "Ad Break", timeline.SegmentAd, 100, 160),
		seg("main", "Main", timeline.SegmentMain, 160, 900),
	)
	out := tl.Remove("ad")
	if len(out.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %+v", out.Segments)
	}
	if out.Segments[0] != tl.Segments[0] {
		t.Fatalf("preceding segment should be untouched: %+v", out.Segments[0])
	}
	follower := out.Segments[1]
	if follower.ID != "main" || follower.Start != 100 || follower.End != 900 {
		t.Fatalf("following segment should extend backward: %+v", follower)
	}
	assertTiled(t, out)
}

func TestRemoveTailExtendsPrecedingForward(t *testing.T) {
	tl := mustTimeline(t, 900,
		seg("main", "Main", timeline.SegmentMain, 0, 800),
		seg("bonus", "Bonus", timeline.SegmentCustom, 800, 900),
	)
	out := tl.Remove("bonus")
	if len(out.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %+v", out.Segments)
	}
	if out.Segments[0].ID != "main" || out.Segments[0].End != 900 {
		t.Fatalf("preceding segment should extend forward: %+v", out.Segments[0])
	}
	assertTiled(t, out)
}

func TestRemoveHeadExtendsFollowingBackward(t *testing.T) {
	tl := mustTimeline(t, 900,
		seg("promo", "Promo", timeline.SegmentCustom, 0, 60),
		seg("main", "Main", timeline.SegmentMain, 60, 900),
	)
	out := tl.Remove("promo")
	if len(out.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %+v", out.Segments)
	}
	if out.Segments[0].ID != "main" || out.Segments[0].Start != 0 {
		t.Fatalf("following segment should extend backward to zero: %+v", out.Segments[0])
	}
	assertTiled(t, out)
}

func TestRemoveSoleSegmentIsNoOp(t *testing.T) {
	tl := mustTimeline(t, 300, seg("only", "Bonus", timeline.SegmentCustom, 0, 300))
	if tl.CanRemove("only") {
		t.Fatal("sole segment must not be removable")
	}
	if out := tl.Remove("only"); len(out.Segments) != 1 {
		t.Fatalf("expected unchanged timeline, got %+v", out.Segments)
	}
}

func TestContiguityAcrossOperationSequence(t *testing.T) {
	tl := mustTimeline(t, 3600,
		seg("intro", "Intro", timeline.SegmentIntro, 0, 120),
		seg("main", "Main", timeline.SegmentMain, 120, 3480),
		seg("outro", "Outro", timeline.SegmentOutro, 3480, 3600),
	)
	assertTiled(t, tl)

	for i := 0; i < 4; i++ {
		tl = tl.InsertAdBreak()
		assertTiled(t, tl)
	}
	// Split every segment that still qualifies.
	for _, s := range append([]timeline.Segment{}, tl.Segments...) {
		tl = tl.Split(s.ID)
		assertTiled(t, tl)
	}
	// Remove every ad that was inserted.
	for _, s := range append([]timeline.Segment{}, tl.Segments...) {
		if s.Type == timeline.SegmentAd {
			tl = tl.Remove(s.ID)
			assertTiled(t, tl)
		}
	}
	if tl.Segments[0].Start != 0 || tl.Segments[len(tl.Segments)-1].End != 3600 {
		t.Fatalf("endpoints drifted: %+v", tl.Segments)
	}
}

func TestNormalizeLabel(t *testing.T) {
	if got := timeline.NormalizeLabel("  Cold Open ", timeline.SegmentCustom); got != "Cold Open" {
		t.Fatalf("NormalizeLabel trim = %q", got)
	}
	if got := timeline.NormalizeLabel("", timeline.SegmentMain); got != "Main" {
		t.Fatalf("NormalizeLabel fallback = %q", got)
	}
	if got := timeline.AdBreakLabel(); got != "Ad Break" {
		t.Fatalf("AdBreakLabel = %q", got)
	}
}

func TestParseSegmentType(t *testing.T) {
	typ, err := timeline.ParseSegmentType(" Main ")
	if err != nil || typ != timeline.SegmentMain {
		t.Fatalf("ParseSegmentType = %v, %v", typ, err)
	}
	if _, err := timeline.ParseSegmentType("jingle"); err == nil {
		t.Fatal("expected error for unknown type")
	}
	if !timeline.SegmentAd.Removable() || !timeline.SegmentCustom.Removable() {
		t.Fatal("ad and custom segments must be removable")
	}
	for _, typ := range []timeline.SegmentType{timeline.SegmentIntro, timeline.SegmentMain, timeline.SegmentOutro} {
		if typ.Removable() {
			t.Fatalf("%s must not be removable", typ)
		}
	}
}
