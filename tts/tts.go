// Package tts drives the local speech-synthesis server over HTTP. The
// server owns the synthesis pipeline; this controller only issues control
// calls and polls for completion.
package tts

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Status is the server-reported playback state.
type Status string

const (
	StatusSpeaking Status = "speaking"
	StatusPaused   Status = "paused"
	StatusIdle     Status = "idle"
)

const (
	defaultPollInterval = 500 * time.Millisecond
	healthTimeout       = 1500 * time.Millisecond
	controlTimeout      = 2 * time.Second
	speakTimeout        = 120 * time.Second
)

// Controller manages one speech session at a time against the TTS server.
// Starting a new session first stops any server-side playback. Completion is
// detected by polling /status; the poll loop stops as soon as idle is
// observed so no timer outlives the session.
type Controller struct {
	baseURL      string
	client       *http.Client
	ctl          *http.Client
	pollInterval time.Duration

	mu         sync.Mutex
	cancelPoll context.CancelFunc
}

// New builds a Controller for the server at baseURL. A pollInterval <= 0
// selects the 500ms default. The long-lived speak request gets its own
// client; control verbs and status polls use a short timeout so a hung
// server cannot stall a caller for the full synthesis window.
func New(baseURL string, pollInterval time.Duration) *Controller {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Controller{
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       &http.Client{Timeout: speakTimeout},
		ctl:          &http.Client{Timeout: controlTimeout},
		pollInterval: pollInterval,
	}
}

// Speak starts a speech session. It fails fast when the server is not
// reachable (the only unrecoverable case — there is no fallback TTS
// provider); otherwise it stops any prior session, fires the speak request
// in the background and polls status until idle, reporting each observed
// state change through onState. The final callback for a session is always
// StatusIdle, either from natural completion or an explicit Stop.
func (c *Controller) Speak(text, voice string, speed float64, onState func(Status)) error {
	if err := c.Health(); err != nil {
		return fmt.Errorf("TTS server not reachable (is it running?): %w", err)
	}

	// One session at a time: cut off any current playback and its poller.
	c.stopPolling()
	_ = c.control("stop")

	params := url.Values{}
	params.Set("text", text)
	params.Set("voice", voice)
	params.Set("speed", strconv.FormatFloat(speed, 'f', -1, 64))
	params.Set("play", "1")
	speakURL := c.baseURL + "/speak?" + params.Encode()

	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.cancelPoll = cancel
	c.mu.Unlock()

	// The server does not ack before playback finishes, so the speak call
	// runs detached; its outcome is observed through /status.
	go func() {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, speakURL, nil)
		if err != nil {
			return
		}
		resp, err := c.client.Do(req)
		if err != nil {
			log.Printf("TTS: speak request failed: %v", err)
			return
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
	}()

	go c.pollUntilIdle(ctx, onState)
	return nil
}

// Pause suspends playback; the session stays alive.
func (c *Controller) Pause() error { return c.control("pause") }

// Resume continues a paused session.
func (c *Controller) Resume() error { return c.control("resume") }

// Stop ends the session server-side and terminates the poll loop.
func (c *Controller) Stop() error {
	c.stopPolling()
	return c.control("stop")
}

// PollStatus queries the server's playback state once.
func (c *Controller) PollStatus() (Status, error) {
	resp, err := c.ctl.Get(c.baseURL + "/status")
	if err != nil {
		return StatusIdle, fmt.Errorf("status query: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return StatusIdle, fmt.Errorf("status query: %w", err)
	}

	switch s := Status(strings.TrimSpace(string(body))); s {
	case StatusSpeaking, StatusPaused, StatusIdle:
		return s, nil
	default:
		return StatusIdle, fmt.Errorf("status query: unexpected state %q", s)
	}
}

// Health checks the server's liveness endpoint with a short timeout.
func (c *Controller) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.ctl.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Controller) control(verb string) error {
	resp, err := c.ctl.Get(c.baseURL + "/" + verb)
	if err != nil {
		return fmt.Errorf("%s: %w", verb, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %d", verb, resp.StatusCode)
	}
	return nil
}

func (c *Controller) stopPolling() {
	c.mu.Lock()
	if c.cancelPoll != nil {
		c.cancelPoll()
		c.cancelPoll = nil
	}
	c.mu.Unlock()
}

// pollUntilIdle polls /status every pollInterval and forwards state changes
// to onState. Exits within one interval of observing idle, or when the
// session is cancelled; issues no further requests after that. Idle seen
// before playback ever started (synthesis still warming up) is not treated
// as completion until the grace window runs out.
func (c *Controller) pollUntilIdle(ctx context.Context, onState func(Status)) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	grace := time.Now().Add(20 * c.pollInterval)
	started := false
	last := Status("")
	for {
		select {
		case <-ctx.Done():
			if onState != nil {
				onState(StatusIdle)
			}
			return
		case <-ticker.C:
			status, err := c.PollStatus()
			if err != nil {
				log.Printf("TTS: %v", err)
				status = StatusIdle
			}
			if status == StatusSpeaking || status == StatusPaused {
				started = true
			}
			if status == StatusIdle && !started && time.Now().Before(grace) {
				continue
			}
			if onState != nil && status != last {
				onState(status)
			}
			last = status
			if status == StatusIdle {
				return
			}
		}
	}
}
