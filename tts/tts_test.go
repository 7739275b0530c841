package tts

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeServer mimics the speech server: /speak flips to speaking, /status
// reports the scripted state, control verbs mutate it.
type fakeServer struct {
	mu         sync.Mutex
	status     Status
	statusHits atomic.Int64
	srv        *httptest.Server
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	f := &fakeServer{status: StatusIdle}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.Write([]byte("ok"))
		case "/speak":
			f.set(StatusSpeaking)
			w.Write([]byte("ok"))
		case "/pause":
			f.set(StatusPaused)
			w.Write([]byte("ok"))
		case "/resume":
			f.set(StatusSpeaking)
			w.Write([]byte("ok"))
		case "/stop":
			f.set(StatusIdle)
			w.Write([]byte("ok"))
		case "/status":
			f.statusHits.Add(1)
			f.mu.Lock()
			s := f.status
			f.mu.Unlock()
			w.Write([]byte(string(s)))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeServer) set(s Status) {
	f.mu.Lock()
	f.status = s
	f.mu.Unlock()
}

func TestSpeakObservesCompletion(t *testing.T) {
	f := newFakeServer(t)
	c := New(f.srv.URL, 20*time.Millisecond)

	states := make(chan Status, 16)
	if err := c.Speak("hello", "af_heart", 1.0, func(s Status) { states <- s }); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}

	waitFor(t, states, StatusSpeaking)

	f.set(StatusIdle)
	waitFor(t, states, StatusIdle)
}

func TestPollingStopsAfterIdle(t *testing.T) {
	f := newFakeServer(t)
	interval := 20 * time.Millisecond
	c := New(f.srv.URL, interval)

	done := make(chan struct{})
	err := c.Speak("hello", "af_heart", 1.0, func(s Status) {
		if s == StatusIdle {
			select {
			case <-done:
			default:
				close(done)
			}
		}
	})
	if err != nil {
		t.Fatalf("Speak failed: %v", err)
	}

	time.Sleep(3 * interval) // let playback "run"
	f.set(StatusIdle)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Poller never observed idle")
	}

	// Within one interval of idle the poller must stop issuing /status.
	time.Sleep(2 * interval)
	after := f.statusHits.Load()
	time.Sleep(5 * interval)
	if f.statusHits.Load() != after {
		t.Errorf("Poller kept polling after idle: %d -> %d", after, f.statusHits.Load())
	}
}

func TestPauseResumeStop(t *testing.T) {
	f := newFakeServer(t)
	c := New(f.srv.URL, 20*time.Millisecond)

	states := make(chan Status, 16)
	if err := c.Speak("hello", "af_heart", 1.0, func(s Status) { states <- s }); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	waitFor(t, states, StatusSpeaking)

	if err := c.Pause(); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	waitFor(t, states, StatusPaused)

	if err := c.Resume(); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	waitFor(t, states, StatusSpeaking)

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	waitFor(t, states, StatusIdle)
}

func TestSpeakFailsFastWhenServerDown(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	c := New(deadURL, 20*time.Millisecond)
	start := time.Now()
	err := c.Speak("hello", "af_heart", 1.0, nil)
	if err == nil {
		t.Fatal("Expected Speak to fail against a dead server")
	}
	if time.Since(start) > 3*time.Second {
		t.Errorf("Speak took %v to fail, expected fast health check", time.Since(start))
	}
}

func TestControlBoundedAgainstHungServer(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL, 20*time.Millisecond)
	c.ctl.Timeout = 50 * time.Millisecond

	start := time.Now()
	if err := c.Pause(); err == nil {
		t.Fatal("Expected Pause to fail against a hung server")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Pause took %v against a hung server, expected the control timeout", elapsed)
	}
}

func TestPollStatusRejectsGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("warming-up"))
	}))
	defer srv.Close()

	c := New(srv.URL, 20*time.Millisecond)
	if _, err := c.PollStatus(); err == nil {
		t.Error("Expected error for an unknown status string")
	}
}

func waitFor(t *testing.T, states <-chan Status, want Status) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-states:
			if s == want {
				return
			}
		case <-deadline:
			t.Fatalf("Timed out waiting for state %q", want)
		}
	}
}
