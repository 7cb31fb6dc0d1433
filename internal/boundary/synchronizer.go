package boundary

import "voiceloom/internal/detection"

// Synchronizer owns the live boundary state for every command in a review
// session. All mutations pass through its entry points; callers only ever see
// value snapshots.
type Synchronizer struct {
	states map[string]State
}

// NewSynchronizer returns an empty synchronizer.
func NewSynchronizer() *Synchronizer {
	return &Synchronizer{states: make(map[string]State)}
}

// Init seeds the selection for a command from its context defaults. Existing
// state is left untouched so reopening a session does not reset edits.
func (s *Synchronizer) Init(ctx detection.CommandContext) State {
	if st, ok := s.states[ctx.ID]; ok {
		return st
	}
	st := Initial(ctx)
	s.states[ctx.ID] = st
	return st
}

// Restore installs a previously persisted selection, re-clamped against the
// context in case bounds changed between sessions.
func (s *Synchronizer) Restore(ctx detection.CommandContext, st State) State {
	clamped := Clamp(ctx, st.StartRelative, st.EndRelative)
	s.states[ctx.ID] = clamped
	return clamped
}

// Get returns the current selection snapshot for a command.
func (s *Synchronizer) Get(commandID string) (State, bool) {
	st, ok := s.states[commandID]
	return st, ok
}

// Snapshot copies the current selections for every command. Mutating the
// returned map has no effect on the synchronizer.
func (s *Synchronizer) Snapshot() map[string]State {
	out := make(map[string]State, len(s.states))
	for id, st := range s.states {
		out[id] = st
	}
	return out
}

// SetFromWordClick moves only the end of the selection to a clicked word's
// absolute end time.
func (s *Synchronizer) SetFromWordClick(ctx detection.CommandContext, wordEndAbs float64) State {
	current := s.Init(ctx)
	next := Clamp(ctx, current.StartRelative, wordEndAbs-ctx.SnippetStart)
	s.states[ctx.ID] = next
	return next
}

// SetFromMarkerDrag reconciles a two-handle drag update. Both bounds are
// recomputed together on every update.
func (s *Synchronizer) SetFromMarkerDrag(ctx detection.CommandContext, start, end float64) State {
	s.Init(ctx)
	next := Clamp(ctx, start, end)
	s.states[ctx.ID] = next
	return next
}

// SetFromCut moves only the end of the selection to the current playhead
// position, equivalent to dragging the end marker there.
func (s *Synchronizer) SetFromCut(ctx detection.CommandContext, playheadRelative float64) State {
	current := s.Init(ctx)
	next := Clamp(ctx, current.StartRelative, playheadRelative)
	s.states[ctx.ID] = next
	return next
}
