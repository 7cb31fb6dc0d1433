package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"voiceloom/internal/assembly"
	"voiceloom/internal/boundary"
	"voiceloom/internal/config"
	"voiceloom/internal/detection"
	"voiceloom/internal/generation"
	"voiceloom/internal/logging"
	"voiceloom/internal/notifications"
	"voiceloom/internal/services"
	"voiceloom/internal/services/voice"
	"voiceloom/internal/timeline"
)

// Manager drives review sessions end to end: import, segment editing,
// boundary updates, generation, and final assembly. Every mutation is
// persisted before the call returns. Manager methods are not safe for
// concurrent use; the workspace lock serializes whole processes instead.
type Manager struct {
	cfg       *config.Config
	store     *Store
	logger    *slog.Logger
	notifier  notifications.Service
	generator generation.Generator
	lock      *flock.Flock

	session     *Session
	contexts    []detection.CommandContext
	boundaries  *boundary.Synchronizer
	coordinator *generation.Coordinator
}

// NewManager constructs a manager with the default voice client and notifier.
func NewManager(cfg *config.Config, store *Store, logger *slog.Logger) *Manager {
	generator := voice.NewClient(voice.Config{
		BaseURL:        cfg.Voice.BaseURL,
		APIKey:         cfg.Voice.APIKey,
		VoiceID:        cfg.Voice.VoiceID,
		TimeoutSeconds: cfg.Voice.TimeoutSeconds,
	})
	return NewManagerWithDependencies(cfg, store, logger, generator, notifications.NewService(cfg))
}

// NewManagerWithDependencies constructs a manager with injected
// collaborators. Tests use this to swap the generator and notifier.
func NewManagerWithDependencies(cfg *config.Config, store *Store, logger *slog.Logger, generator generation.Generator, notifier notifications.Service) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Manager{
		cfg:       cfg,
		store:     store,
		logger:    logging.NewComponentLogger(logger, "review"),
		notifier:  notifier,
		generator: generator,
		lock:      flock.New(cfg.LockPath()),
	}
}

// AcquireLock takes the workspace lock, refusing when another voiceloom
// process already holds it.
func (m *Manager) AcquireLock() error {
	if err := m.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}
	ok, err := m.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire workspace lock: %w", err)
	}
	if !ok {
		return errors.New("another voiceloom process holds the workspace lock")
	}
	return nil
}

// ReleaseLock drops the workspace lock if held.
func (m *Manager) ReleaseLock() {
	if err := m.lock.Unlock(); err != nil {
		m.logger.Warn("failed to release workspace lock", logging.Error(err))
	}
}

// ImportDocument creates a session from an upstream detection document and
// opens it. fallbackTitle is used when the document carries no title.
func (m *Manager) ImportDocument(ctx context.Context, data []byte, fallbackTitle string) (*Session, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "review", "import", "invalid import document", err)
	}
	tl, err := doc.BuildTimeline()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "review", "import", "invalid segment layout", err)
	}

	title := doc.Title
	if title == "" {
		title = strings.TrimSpace(fallbackTitle)
	}
	if title == "" {
		title = "Untitled Session"
	}

	contexts := detection.Normalize(doc.Detections)
	session := &Session{
		ID:       uuid.NewString(),
		Title:    title,
		Duration: doc.Duration,
		Timeline: tl,
	}
	records := make([]CommandRecord, 0, len(contexts))
	for _, cmdCtx := range contexts {
		records = append(records, CommandRecord{
			CommandID: cmdCtx.ID,
			Position:  cmdCtx.Index,
			Context:   cmdCtx,
			Boundary:  boundary.Initial(cmdCtx),
			Status:    generation.StatusPending,
		})
	}

	if err := m.store.CreateSession(ctx, session, records); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "review", "import", "persist session", err)
	}

	m.install(session, records)
	m.logger.Info("session imported",
		logging.String(logging.FieldSessionID, session.ID),
		logging.String("title", session.Title),
		logging.Int("commands", len(records)),
		logging.Float64("duration_s", session.Duration))
	if err := m.notifier.NotifySessionImported(ctx, session.Title, len(records)); err != nil {
		m.logger.Warn("notification failed", logging.Error(err))
	}
	return session, nil
}

// OpenSession loads a stored session and hydrates the in-memory workflow
// state. An empty id opens the most recently imported session.
func (m *Manager) OpenSession(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		latest, err := m.store.LatestSessionID(ctx)
		if err != nil {
			return nil, err
		}
		if latest == "" {
			return nil, services.Wrap(services.ErrNotFound, "review", "open", "no sessions imported yet", nil)
		}
		id = latest
	}

	session, err := m.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, services.Wrap(services.ErrNotFound, "review", "open", fmt.Sprintf("session %s not found", id), nil)
	}

	// An in-flight call cannot survive a restart; surface any stranded
	// command as failed-but-retryable before hydrating.
	if reset, err := m.store.ResetStuckProcessing(ctx, id); err != nil {
		return nil, err
	} else if reset > 0 {
		m.logger.Warn("reset stranded processing commands",
			logging.String(logging.FieldSessionID, id),
			logging.Int64("count", reset))
		stranded := fmt.Errorf("%d generation call(s) were interrupted and marked failed", reset)
		if err := m.notifier.NotifyError(ctx, stranded, "session "+id); err != nil {
			m.logger.Warn("notification failed", logging.Error(err))
		}
	}

	records, err := m.store.LoadCommands(ctx, id)
	if err != nil {
		return nil, err
	}
	m.install(session, records)
	m.logger.Info("session opened",
		logging.String(logging.FieldSessionID, id),
		logging.Int("commands", len(records)))
	return session, nil
}

func (m *Manager) install(session *Session, records []CommandRecord) {
	boundaries := boundary.NewSynchronizer()
	coordinator := generation.NewCoordinator(m.generator, boundaries, m.cfg.Review.MaxRegenerations, m.logger)
	contexts := make([]detection.CommandContext, 0, len(records))
	for _, rec := range records {
		contexts = append(contexts, rec.Context)
		boundaries.Restore(rec.Context, rec.Boundary)
		coordinator.Hydrate(rec.CommandID, rec.Status, rec.Response, rec.FailureMessage)
	}
	m.session = session
	m.contexts = contexts
	m.boundaries = boundaries
	m.coordinator = coordinator
}

// Session returns the currently open session.
func (m *Manager) Session() (*Session, bool) {
	return m.session, m.session != nil
}

// CommandView is the per-command state shown by the CLI. Prompt text and the
// absolute end time are derived from the live boundary on every call.
type CommandView struct {
	CommandID              string            `json:"command_id"`
	Position               int               `json:"position"`
	StartAbs               float64           `json:"start_abs"`
	Boundary               boundary.State    `json:"boundary"`
	EndAbs                 float64           `json:"end_abs"`
	PromptText             string            `json:"prompt_text"`
	Status                 generation.Status `json:"status"`
	ResponseText           string            `json:"response_text,omitempty"`
	AudioURL               string            `json:"audio_url,omitempty"`
	RegenerateCount        int               `json:"regenerate_count"`
	RemainingRegenerations int               `json:"remaining_regenerations"`
	FailureMessage         string            `json:"failure_message,omitempty"`
}

// Commands returns the current view of every command in detection order.
func (m *Manager) Commands() ([]CommandView, error) {
	if err := m.requireSession("commands"); err != nil {
		return nil, err
	}
	views := make([]CommandView, 0, len(m.contexts))
	for _, cmdCtx := range m.contexts {
		views = append(views, m.view(cmdCtx))
	}
	return views, nil
}

// Command returns the current view of a single command.
func (m *Manager) Command(commandID string) (CommandView, error) {
	cmdCtx, err := m.context("command", commandID)
	if err != nil {
		return CommandView{}, err
	}
	return m.view(cmdCtx), nil
}

func (m *Manager) view(cmdCtx detection.CommandContext) CommandView {
	st, ok := m.boundaries.Get(cmdCtx.ID)
	if !ok {
		st = boundary.Initial(cmdCtx)
	}
	view := CommandView{
		CommandID:              cmdCtx.ID,
		Position:               cmdCtx.Index,
		StartAbs:               cmdCtx.StartAbs,
		Boundary:               st,
		EndAbs:                 st.EndAbs(cmdCtx),
		PromptText:             boundary.DerivePromptText(cmdCtx, st.EndRelative),
		Status:                 m.coordinator.Status(cmdCtx.ID),
		RemainingRegenerations: m.coordinator.RemainingRegenerations(cmdCtx.ID),
		FailureMessage:         m.coordinator.FailureMessage(cmdCtx.ID),
	}
	if resp, ok := m.coordinator.Response(cmdCtx.ID); ok {
		view.ResponseText = resp.Text
		view.AudioURL = resp.AudioURL
		view.RegenerateCount = resp.RegenerateCount
	}
	return view
}

// Timeline returns the open session's current segment layout.
func (m *Manager) Timeline() (timeline.Timeline, error) {
	if err := m.requireSession("timeline"); err != nil {
		return timeline.Timeline{}, err
	}
	return m.session.Timeline, nil
}

// SplitSegment halves a segment and persists the new layout.
func (m *Manager) SplitSegment(ctx context.Context, segmentID string) (timeline.Timeline, error) {
	if err := m.requireSession("split"); err != nil {
		return timeline.Timeline{}, err
	}
	tl := m.session.Timeline
	seg, ok := tl.Find(segmentID)
	if !ok {
		return tl, services.Wrap(services.ErrNotFound, "review", "split", fmt.Sprintf("segment %s not found", segmentID), nil)
	}
	if !tl.CanSplit(segmentID) {
		return tl, services.Wrap(services.ErrValidation, "review", "split",
			fmt.Sprintf("segment %q is too short to split (%.0fs, minimum %.0fs)", seg.Label, seg.Duration(), timeline.MinimumSplitSeconds), nil)
	}
	next := tl.Split(segmentID)
	return m.saveTimeline(ctx, next, "segment split", logging.String("segment_id", segmentID))
}

// InsertAdBreak places an ad break in the longest main segment and persists
// the new layout.
func (m *Manager) InsertAdBreak(ctx context.Context) (timeline.Timeline, error) {
	if err := m.requireSession("ad-break"); err != nil {
		return timeline.Timeline{}, err
	}
	tl := m.session.Timeline
	if !tl.CanInsertAdBreak() {
		return tl, services.Wrap(services.ErrValidation, "review", "ad-break",
			fmt.Sprintf("no main segment of at least %.0fs to host an ad break", timeline.MinimumAdHostSeconds), nil)
	}
	next := tl.InsertAdBreak()
	return m.saveTimeline(ctx, next, "ad break inserted")
}

// RemoveSegment removes an ad or custom segment and persists the new layout.
func (m *Manager) RemoveSegment(ctx context.Context, segmentID string) (timeline.Timeline, error) {
	if err := m.requireSession("remove"); err != nil {
		return timeline.Timeline{}, err
	}
	tl := m.session.Timeline
	seg, ok := tl.Find(segmentID)
	if !ok {
		return tl, services.Wrap(services.ErrNotFound, "review", "remove", fmt.Sprintf("segment %s not found", segmentID), nil)
	}
	if !seg.Type.Removable() {
		return tl, services.Wrap(services.ErrValidation, "review", "remove",
			fmt.Sprintf("%s segments cannot be removed", seg.Type), nil)
	}
	if !tl.CanRemove(segmentID) {
		return tl, services.Wrap(services.ErrValidation, "review", "remove", "cannot remove the only segment", nil)
	}
	next := tl.Remove(segmentID)
	return m.saveTimeline(ctx, next, "segment removed", logging.String("segment_id", segmentID))
}

func (m *Manager) saveTimeline(ctx context.Context, next timeline.Timeline, msg string, attrs ...logging.Attr) (timeline.Timeline, error) {
	if err := m.store.UpdateTimeline(ctx, m.session.ID, next); err != nil {
		return m.session.Timeline, err
	}
	m.session.Timeline = next
	args := append([]logging.Attr{
		logging.String(logging.FieldSessionID, m.session.ID),
		logging.Int("segments", len(next.Segments)),
	}, attrs...)
	m.logger.Info(msg, logging.Args(args...)...)
	return next, nil
}

// ClickWord moves a command's end boundary to the end of a transcript word.
func (m *Manager) ClickWord(ctx context.Context, commandID string, wordIndex int) (boundary.State, error) {
	cmdCtx, err := m.context("word-click", commandID)
	if err != nil {
		return boundary.State{}, err
	}
	if wordIndex < 0 || wordIndex >= len(cmdCtx.Words) {
		return boundary.State{}, services.Wrap(services.ErrValidation, "review", "word-click",
			fmt.Sprintf("word index %d out of range (command has %d words)", wordIndex, len(cmdCtx.Words)), nil)
	}
	st := m.boundaries.SetFromWordClick(cmdCtx, cmdCtx.Words[wordIndex].End)
	return m.saveBoundary(ctx, commandID, st)
}

// DragMarker applies a two-handle drag update to a command's boundary.
func (m *Manager) DragMarker(ctx context.Context, commandID string, start, end float64) (boundary.State, error) {
	cmdCtx, err := m.context("drag", commandID)
	if err != nil {
		return boundary.State{}, err
	}
	st := m.boundaries.SetFromMarkerDrag(cmdCtx, start, end)
	return m.saveBoundary(ctx, commandID, st)
}

// Cut moves a command's end boundary to the playhead position.
func (m *Manager) Cut(ctx context.Context, commandID string, playheadRelative float64) (boundary.State, error) {
	cmdCtx, err := m.context("cut", commandID)
	if err != nil {
		return boundary.State{}, err
	}
	st := m.boundaries.SetFromCut(cmdCtx, playheadRelative)
	return m.saveBoundary(ctx, commandID, st)
}

func (m *Manager) saveBoundary(ctx context.Context, commandID string, st boundary.State) (boundary.State, error) {
	if err := m.store.SaveBoundary(ctx, m.session.ID, commandID, st); err != nil {
		return st, err
	}
	m.logger.Debug("boundary updated",
		logging.String(logging.FieldSessionID, m.session.ID),
		logging.String(logging.FieldCommandID, commandID),
		logging.Float64("start_relative", st.StartRelative),
		logging.Float64("end_relative", st.EndRelative))
	return st, nil
}

// Generate requests a voice response for a command and persists the outcome.
func (m *Manager) Generate(ctx context.Context, commandID string, regenerate bool) (generation.Response, error) {
	cmdCtx, err := m.context("generate", commandID)
	if err != nil {
		return generation.Response{}, err
	}
	if err := m.coordinator.CanGenerate(commandID, regenerate); err != nil {
		return generation.Response{}, err
	}
	ctx = services.WithSessionID(ctx, m.session.ID)
	ctx = services.WithCommandID(ctx, commandID)
	ctx = services.WithOperation(ctx, "generate")
	logger := logging.WithContext(ctx, m.logger)
	completeBefore := assembly.Complete(m.contexts, m.coordinator.Responses())

	// Persist the processing mark first so a crash mid-call is visible and
	// repairable on the next open.
	prior := m.responsePointer(commandID)
	if err := m.store.SaveCommandState(ctx, m.session.ID, commandID, generation.StatusProcessing, prior, ""); err != nil {
		return generation.Response{}, err
	}

	resp, genErr := m.coordinator.Generate(ctx, cmdCtx, regenerate)
	if genErr != nil {
		status := m.coordinator.Status(commandID)
		failure := m.coordinator.FailureMessage(commandID)
		if err := m.store.SaveCommandState(ctx, m.session.ID, commandID, status, m.responsePointer(commandID), failure); err != nil {
			logger.Warn("persist failed generation state", logging.Error(err))
		}
		if err := m.notifier.NotifyGenerationFailed(ctx, m.session.Title, commandID, failure); err != nil {
			logger.Warn("notification failed", logging.Error(err))
		}
		return generation.Response{}, genErr
	}

	if err := m.store.SaveCommandState(ctx, m.session.ID, commandID, generation.StatusReady, &resp, ""); err != nil {
		return resp, err
	}
	if err := m.notifier.NotifyGenerationReady(ctx, m.session.Title, commandID); err != nil {
		logger.Warn("notification failed", logging.Error(err))
	}
	if completeAfter := assembly.Complete(m.contexts, m.coordinator.Responses()); completeAfter && !completeBefore {
		if err := m.notifier.NotifySessionComplete(ctx, m.session.Title, len(m.contexts)); err != nil {
			logger.Warn("notification failed", logging.Error(err))
		}
	}
	return resp, nil
}

// ClearResponse discards a command's response, returning it to pending.
func (m *Manager) ClearResponse(ctx context.Context, commandID string) error {
	if _, err := m.context("clear", commandID); err != nil {
		return err
	}
	if m.coordinator.Busy() {
		return services.Wrap(services.ErrValidation, "review", "clear", "a generation call is in flight", nil)
	}
	m.coordinator.ClearResponse(commandID)
	return m.store.SaveCommandState(ctx, m.session.ID, commandID, generation.StatusPending, nil, "")
}

// Assemble produces the resolved command list and the completion verdict for
// the open session.
func (m *Manager) Assemble(ctx context.Context) ([]assembly.ResolvedCommand, bool, error) {
	if err := m.requireSession("assemble"); err != nil {
		return nil, false, err
	}
	responses := m.coordinator.Responses()
	rows := assembly.Assemble(m.contexts, m.boundaries.Snapshot(), responses, m.cfg.Voice.VoiceID)
	return rows, assembly.Complete(m.contexts, responses), nil
}

// MissingResponses lists the command ids still lacking a response, in
// detection order. Empty when no session is open.
func (m *Manager) MissingResponses() []string {
	if m.coordinator == nil {
		return nil
	}
	return assembly.MissingResponses(m.contexts, m.coordinator.Responses())
}

// ListSessions returns summaries for every stored session.
func (m *Manager) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	return m.store.ListSessions(ctx)
}

// DeleteSession removes a stored session and its commands.
func (m *Manager) DeleteSession(ctx context.Context, id string) (bool, error) {
	deleted, err := m.store.DeleteSession(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted && m.session != nil && m.session.ID == id {
		m.session = nil
		m.contexts = nil
		m.boundaries = nil
		m.coordinator = nil
	}
	return deleted, nil
}

func (m *Manager) requireSession(operation string) error {
	if m.session == nil {
		return services.Wrap(services.ErrValidation, "review", operation, "no session open", nil)
	}
	return nil
}

func (m *Manager) context(operation, commandID string) (detection.CommandContext, error) {
	if err := m.requireSession(operation); err != nil {
		return detection.CommandContext{}, err
	}
	for _, cmdCtx := range m.contexts {
		if cmdCtx.ID == commandID {
			return cmdCtx, nil
		}
	}
	return detection.CommandContext{}, services.Wrap(services.ErrNotFound, "review", operation,
		fmt.Sprintf("command %s not found", commandID), nil)
}

func (m *Manager) responsePointer(commandID string) *generation.Response {
	if resp, ok := m.coordinator.Response(commandID); ok {
		return &resp
	}
	return nil
}
