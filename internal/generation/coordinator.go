package generation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"voiceloom/internal/boundary"
	"voiceloom/internal/detection"
	"voiceloom/internal/logging"
)

var (
	// ErrBusy is returned when another command's call is already in flight.
	ErrBusy = errors.New("another generation is in progress")
	// ErrQuotaExhausted is returned when a command's regeneration quota is
	// used up. The check happens before any network call.
	ErrQuotaExhausted = errors.New("regeneration quota exhausted")
	// ErrNoPriorResponse is returned for a regenerate request on a command
	// that has never produced a response.
	ErrNoPriorResponse = errors.New("no prior response to regenerate")
	// ErrAlreadyGenerated is returned for a plain generate request on a
	// command that already has a response; regeneration is the only way to
	// replace it so quota accounting stays meaningful.
	ErrAlreadyGenerated = errors.New("response already exists")
)

// FallbackFailureMessage is shown to the operator when a generator error
// carries no usable message of its own.
const FallbackFailureMessage = "Voice generation failed. Try again."

// Request describes one call to the external voice generator.
type Request struct {
	Context      detection.CommandContext
	StartSeconds float64
	EndSeconds   float64
	PromptText   string
	Regenerate   bool
}

// Result is the generator's successful payload.
type Result struct {
	Text     string
	AudioURL string
	VoiceID  string
	Raw      []byte
}

// Generator is the external voice service capability the coordinator drives.
type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

// operatorMessenger is implemented by errors carrying a service-provided
// operator-facing message.
type operatorMessenger interface {
	OperatorMessage() string
}

// Coordinator serializes generation calls and tracks per-command state.
type Coordinator struct {
	generator        Generator
	boundaries       *boundary.Synchronizer
	maxRegenerations int
	logger           *slog.Logger

	mu         sync.Mutex
	processing string
	statuses   map[string]Status
	responses  map[string]Response
	failures   map[string]string
}

// NewCoordinator wires a coordinator to its generator and boundary source.
func NewCoordinator(gen Generator, boundaries *boundary.Synchronizer, maxRegenerations int, logger *slog.Logger) *Coordinator {
	if maxRegenerations < 1 {
		maxRegenerations = 1
	}
	return &Coordinator{
		generator:        gen,
		boundaries:       boundaries,
		maxRegenerations: maxRegenerations,
		logger:           logging.NewComponentLogger(logger, "generation"),
		statuses:         make(map[string]Status),
		responses:        make(map[string]Response),
		failures:         make(map[string]string),
	}
}

// Register seeds a command into the pending state. Re-registering an already
// tracked command is a no-op.
func (c *Coordinator) Register(cmd detection.CommandContext) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.statuses[cmd.ID]; !ok {
		c.statuses[cmd.ID] = StatusPending
	}
}

// Hydrate restores persisted state for a command. A persisted processing
// status is demoted to failed: an in-flight call cannot survive a restart.
func (c *Coordinator) Hydrate(commandID string, status Status, resp *Response, failureMessage string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !status.Valid() {
		status = StatusPending
	}
	if status == StatusProcessing {
		status = StatusFailed
		if failureMessage == "" {
			failureMessage = FallbackFailureMessage
		}
	}
	c.statuses[commandID] = status
	if resp != nil {
		c.responses[commandID] = *resp
	} else {
		delete(c.responses, commandID)
	}
	if failureMessage != "" {
		c.failures[commandID] = failureMessage
	} else {
		delete(c.failures, commandID)
	}
}

// Status returns the command's current lifecycle state.
func (c *Coordinator) Status(commandID string) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if status, ok := c.statuses[commandID]; ok {
		return status
	}
	return StatusPending
}

// Response returns the recorded response snapshot for a command.
func (c *Coordinator) Response(commandID string) (Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, ok := c.responses[commandID]
	return resp, ok
}

// Responses returns a snapshot of every recorded response keyed by command id.
func (c *Coordinator) Responses() map[string]Response {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]Response, len(c.responses))
	for id, resp := range c.responses {
		out[id] = resp
	}
	return out
}

// FailureMessage returns the operator-facing message from the command's most
// recent failure, empty when the last call succeeded or none was made.
func (c *Coordinator) FailureMessage(commandID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures[commandID]
}

// Busy reports whether any command is currently processing.
func (c *Coordinator) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.processing != ""
}

// RemainingRegenerations returns how many regenerations the command has left.
func (c *Coordinator) RemainingRegenerations(commandID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, ok := c.responses[commandID]
	if !ok {
		return c.maxRegenerations
	}
	remaining := c.maxRegenerations - resp.RegenerateCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CanGenerate reports whether a generate call with the given mode would be
// accepted right now; the returned error names the refusal reason.
func (c *Coordinator) CanGenerate(commandID string, regenerate bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eligible(commandID, regenerate)
}

// Generate dispatches one call to the external generator using the boundary
// snapshot captured at call time. Refusals (busy, quota, mode mismatch)
// happen before any network activity. On failure the command becomes
// retryable and the operator-facing message is recorded; no partial response
// is kept.
func (c *Coordinator) Generate(ctx context.Context, cmd detection.CommandContext, regenerate bool) (Response, error) {
	c.mu.Lock()
	if err := c.eligible(cmd.ID, regenerate); err != nil {
		c.mu.Unlock()
		return Response{}, err
	}
	prior := c.responses[cmd.ID]
	c.processing = cmd.ID
	c.statuses[cmd.ID] = StatusProcessing
	c.mu.Unlock()

	snapshot := c.snapshotBoundary(cmd)
	req := Request{
		Context:      cmd,
		StartSeconds: cmd.StartAbs,
		EndSeconds:   snapshot.EndAbs(cmd),
		PromptText:   boundary.DerivePromptText(cmd, snapshot.EndRelative),
		Regenerate:   regenerate,
	}

	c.logger.Info("dispatching generation",
		logging.String(logging.FieldCommandID, cmd.ID),
		logging.Bool("regenerate", regenerate),
		logging.Float64("end_abs", req.EndSeconds),
	)

	result, err := c.generator.Generate(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.processing = ""

	if err != nil {
		message := operatorMessage(err)
		c.statuses[cmd.ID] = StatusFailed
		c.failures[cmd.ID] = message
		logging.ErrorWithContext(c.logger, "generation failed", "generation_failed",
			logging.String(logging.FieldCommandID, cmd.ID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, message),
		)
		return Response{}, err
	}

	resp := Response{
		CommandID: cmd.ID,
		Text:      result.Text,
		AudioURL:  result.AudioURL,
		VoiceID:   result.VoiceID,
		Raw:       result.Raw,
	}
	if regenerate {
		resp.RegenerateCount = prior.RegenerateCount + 1
	}
	c.responses[cmd.ID] = resp
	c.statuses[cmd.ID] = StatusReady
	delete(c.failures, cmd.ID)

	c.logger.Info("generation ready",
		logging.String(logging.FieldCommandID, cmd.ID),
		logging.Int("regenerate_count", resp.RegenerateCount),
		logging.Bool("has_audio", resp.AudioURL != ""),
	)
	return resp, nil
}

// ClearResponse discards a command's recorded response, returning it to
// pending. Used when the operator rejects a take outright.
func (c *Coordinator) ClearResponse(commandID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.processing == commandID {
		return
	}
	delete(c.responses, commandID)
	delete(c.failures, commandID)
	c.statuses[commandID] = StatusPending
}

func (c *Coordinator) eligible(commandID string, regenerate bool) error {
	if c.processing != "" {
		return ErrBusy
	}
	resp, has := c.responses[commandID]
	if regenerate {
		if !has {
			return ErrNoPriorResponse
		}
		if resp.RegenerateCount >= c.maxRegenerations {
			return ErrQuotaExhausted
		}
		return nil
	}
	if has {
		return ErrAlreadyGenerated
	}
	return nil
}

func (c *Coordinator) snapshotBoundary(cmd detection.CommandContext) boundary.State {
	if c.boundaries == nil {
		return boundary.Initial(cmd)
	}
	if st, ok := c.boundaries.Get(cmd.ID); ok {
		return st
	}
	return c.boundaries.Init(cmd)
}

func operatorMessage(err error) string {
	var m operatorMessenger
	if errors.As(err, &m) {
		if msg := strings.TrimSpace(m.OperatorMessage()); msg != "" {
			return msg
		}
	}
	return FallbackFailureMessage
}
