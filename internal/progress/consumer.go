// The progress stream consumer. It holds the one long-lived connection to
// the agent backend's event stream, folds the tagged events into the
// current job's state, and notifies the UI relay on every change.

package progress

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aliveriver/ConvertAgent/internal/models"
)

// Phase is the consumer's position in the current job's lifecycle.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseProcessing Phase = "processing"
	PhaseComplete   Phase = "complete"
	PhaseError      Phase = "error"
)

const (
	streamPath = "/api/progress"

	// After a `complete` event the connection stays open briefly so the
	// final step reaches the UI before the stream is torn down.
	defaultCloseDelay = 3 * time.Second

	// A single frame larger than this is certainly not one of ours.
	maxFrameSize = 1 << 20
)

// Snapshot is an immutable copy of the job state, safe to hand to other
// goroutines.
type Snapshot struct {
	Status       string                 `json:"status"`
	IsProcessing bool                   `json:"is_processing"`
	IsComplete   bool                   `json:"is_complete"`
	HasError     bool                   `json:"has_error"`
	Steps        []models.ProgressEvent `json:"steps"`
}

// Consumer maintains the connection to the backend's progress stream and
// owns the derived job state. All mutation happens on the single read
// loop, so a plain mutex around state reads is all the coordination
// needed.
type Consumer struct {
	origin     string
	client     *http.Client
	closeDelay time.Duration
	onChange   func(Snapshot)

	mu         sync.Mutex
	steps      []models.ProgressEvent
	phase      Phase
	generation int // bumped on every new job and on Reset
	running    bool
	cancel     context.CancelFunc
}

// New creates a consumer for the backend at the given origin. The origin
// is injected (never compiled in) so tests can point it at a fake server.
func New(origin string) *Consumer {
	return &Consumer{
		origin: strings.TrimRight(origin, "/"),
		// No client timeout: the stream legitimately idles between events.
		client:     &http.Client{},
		closeDelay: defaultCloseDelay,
		phase:      PhaseIdle,
	}
}

// SetOnChange registers a hook invoked with a fresh snapshot after every
// state change. Must be set before Start.
func (c *Consumer) SetOnChange(fn func(Snapshot)) {
	c.onChange = fn
}

// EnsureRunning opens the stream connection if it is not already open.
// Callers use it right before submitting a job, which doubles as the
// reconnect point after an earlier transport fault.
func (c *Consumer) EnsureRunning(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	return c.Start(ctx)
}

// Start opens the persistent stream connection and begins consuming
// events. It returns once the connection is established; events are
// handled on a background goroutine.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running = true
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(runCtx, http.MethodGet, c.origin+streamPath, nil)
	if err != nil {
		c.Close()
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.client.Do(req)
	if err != nil {
		c.Close()
		return fmt.Errorf("failed to open progress stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		c.Close()
		return fmt.Errorf("progress stream returned status %s", resp.Status)
	}

	go c.readLoop(resp.Body)
	return nil
}

// readLoop consumes SSE frames until the connection drops or is closed.
// Frames are `data:` line groups terminated by a blank line.
func (c *Consumer) readLoop(body io.ReadCloser) {
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)

	var data bytes.Buffer
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if data.Len() > 0 {
				c.handleFrame(data.Bytes())
				data.Reset()
			}
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		default:
			// Comments and non-data fields are keep-alive noise.
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, context.Canceled) {
		// Transport fault: the last job state stays visible, nothing more
		// will update. Reconnecting is the caller's decision.
		log.Printf("Progress stream closed: %v", err)
	}
	c.Close()
}

// handleFrame parses one frame and applies it. A malformed frame must not
// abort an in-progress job, so it is logged and dropped.
func (c *Consumer) handleFrame(frame []byte) {
	var ev models.ProgressEvent
	if err := json.Unmarshal(frame, &ev); err != nil {
		log.Printf("Discarding malformed progress frame: %v", err)
		return
	}
	c.apply(ev)
}

// apply runs the event through the lifecycle state machine.
func (c *Consumer) apply(ev models.ProgressEvent) {
	c.mu.Lock()

	var closeNow bool
	var closeAfter time.Duration
	var closeGen int

	switch ev.Type {
	case models.EventStart:
		// A new job over the same connection: prior steps are discarded
		// and any pending delayed close becomes stale.
		c.generation++
		c.steps = []models.ProgressEvent{ev}
		c.phase = PhaseProcessing

	case models.EventStep:
		if c.phase != PhaseProcessing {
			// Orphan step (e.g. after a connection hiccup): treat it as
			// an implicit job start rather than dropping progress.
			c.generation++
			c.steps = nil
		}
		c.steps = append(c.steps, ev)
		c.phase = PhaseProcessing

	case models.EventComplete:
		if c.phase != PhaseProcessing {
			c.generation++
			c.steps = nil
		}
		c.steps = append(c.steps, ev)
		c.phase = PhaseComplete
		closeAfter = c.closeDelay
		closeGen = c.generation

	case models.EventError:
		if c.phase != PhaseProcessing {
			c.generation++
			c.steps = nil
		}
		c.steps = append(c.steps, ev)
		c.phase = PhaseError
		closeNow = true

	default:
		c.mu.Unlock()
		log.Printf("Ignoring progress event with unknown type %q", ev.Type)
		return
	}

	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)

	if closeNow {
		c.Close()
	} else if closeAfter > 0 {
		time.AfterFunc(closeAfter, func() { c.closeIfCurrent(closeGen) })
	}
}

// closeIfCurrent closes the connection unless a newer job has started
// since the delayed close was armed.
func (c *Consumer) closeIfCurrent(gen int) {
	c.mu.Lock()
	stale := c.generation != gen
	c.mu.Unlock()
	if !stale {
		c.Close()
	}
}

// Close tears down the stream connection. Safe to call any number of
// times and from any lifecycle path; only the first call acts.
func (c *Consumer) Close() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.running = false
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Reset clears the job state back to idle without touching the
// connection. Used to discard a stale display ahead of a new job request.
func (c *Consumer) Reset() {
	c.mu.Lock()
	c.generation++
	c.steps = nil
	c.phase = PhaseIdle
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// Running reports whether the stream connection is currently open.
func (c *Consumer) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Snapshot returns a copy of the current job state.
func (c *Consumer) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Consumer) snapshotLocked() Snapshot {
	steps := make([]models.ProgressEvent, len(c.steps))
	copy(steps, c.steps)
	return Snapshot{
		Status:       StatusBadge(c.phase),
		IsProcessing: c.phase == PhaseProcessing,
		IsComplete:   c.phase == PhaseComplete,
		HasError:     c.phase == PhaseError,
		Steps:        steps,
	}
}

func (c *Consumer) notify(snap Snapshot) {
	if c.onChange != nil {
		c.onChange(snap)
	}
}
