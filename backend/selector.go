package backend

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
)

// ErrNoBackend means every candidate failed its health probe or lacked
// credentials. Surfaced to the user as-is.
var ErrNoBackend = errors.New("no backend available: start the local inference server or check your provider settings")

const defaultProbeTimeout = 1500 * time.Millisecond

// Selector probes providers for liveness and returns the first healthy one,
// preferred first. Probing is strictly sequential and short-circuits, so the
// caller gets a value back within 2*ProbeTimeout worst case.
type Selector struct {
	client       *http.Client
	probeTimeout time.Duration
}

// NewSelector builds a Selector. A probeTimeout <= 0 selects the 1.5s default.
func NewSelector(probeTimeout time.Duration) *Selector {
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}
	return &Selector{
		client:       &http.Client{Timeout: probeTimeout},
		probeTimeout: probeTimeout,
	}
}

// Select probes preferred, then fallback, and returns the first healthy
// candidate. A nil fallback is skipped. Cloud providers are not probed over
// the network; they are healthy iff an API key is present (checked before
// any round-trip). Returns ErrNoBackend when every candidate fails.
func (s *Selector) Select(ctx context.Context, preferred, fallback *Config) (*Config, error) {
	for _, candidate := range []*Config{preferred, fallback} {
		if candidate == nil {
			continue
		}
		if err := s.Probe(ctx, candidate); err != nil {
			log.Printf("Selector: %s unhealthy: %v", candidate.Kind, err)
			continue
		}
		log.Printf("Selector: using %s", candidate.Kind)
		return candidate, nil
	}
	return nil, ErrNoBackend
}

// Probe checks a single provider for liveness. For cloud providers this is a
// credential presence check only; for self-hosted providers it is a GET on
// the declared health path bounded by the probe timeout. The bound holds
// even if the server accepts the connection and never responds.
func (s *Selector) Probe(ctx context.Context, c *Config) error {
	if c.Cloud() {
		if c.APIKey == "" {
			return fmt.Errorf("%s: API key not set", c.Kind)
		}
		return nil
	}
	if c.BaseURL == "" {
		return fmt.Errorf("%s: base URL not set", c.Kind)
	}

	probeCtx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.BaseURL+c.HealthPath, nil)
	if err != nil {
		return fmt.Errorf("%s: build probe: %w", c.Kind, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: health probe: %w", c.Kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: health probe returned %d", c.Kind, resp.StatusCode)
	}
	return nil
}
