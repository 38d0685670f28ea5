package concentration

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSurface struct {
	mu         sync.Mutex
	fullscreen bool
	requestErr error
	exits      int
}

func (f *fakeSurface) RequestFullscreen() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.requestErr != nil {
		return f.requestErr
	}
	f.fullscreen = true
	return nil
}

func (f *fakeSurface) ExitFullscreen() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fullscreen = false
	f.exits++
	return nil
}

func (f *fakeSurface) IsFullscreen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fullscreen
}

// userLeaves simulates the environment dropping fullscreen behind the app's
// back.
func (f *fakeSurface) userLeaves() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fullscreen = false
}

func TestStartRejectsInvalidDuration(t *testing.T) {
	surface := &fakeSurface{}
	s := New(surface, nil)

	for _, m := range []int{0, -5, MaxMinutes + 1} {
		if _, err := s.Start(m); !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("Start(%d) err = %v", m, err)
		}
	}
	if s.Running() || surface.IsFullscreen() {
		t.Error("rejected start changed state")
	}
}

func TestTimeoutStopsSession(t *testing.T) {
	surface := &fakeSurface{}
	s := New(surface, nil)

	id, err := s.Start(1)
	if err != nil {
		t.Fatal(err)
	}
	if !surface.IsFullscreen() {
		t.Fatal("expected fullscreen on start")
	}
	if s.Display() != "01:00" {
		t.Errorf("display = %q", s.Display())
	}

	stops := 0
	for i := 0; i < 60; i++ {
		r := s.Tick(id)
		if !r.Accepted {
			t.Fatalf("tick %d rejected", i)
		}
		if r.Stopped {
			stops++
		}
	}
	if stops != 1 {
		t.Fatalf("stops = %d, want 1", stops)
	}
	if s.Running() || surface.IsFullscreen() {
		t.Error("session still running after timeout")
	}
	if s.Tick(id).Accepted {
		t.Error("tick accepted after timeout")
	}
	if s.Stop(TriggerManual) {
		t.Error("stop after timeout should be a no-op")
	}
}

func TestFullscreenExitEqualsStop(t *testing.T) {
	surface := &fakeSurface{}
	s := New(surface, nil)
	id, _ := s.Start(25)
	s.Tick(id)

	surface.userLeaves()
	if !s.FullscreenExited() {
		t.Fatal("external exit should stop a running session")
	}
	if s.Running() {
		t.Error("timer still running")
	}
	if s.Tick(id).Accepted {
		t.Error("tick accepted after external exit")
	}
	if surface.exits != 0 {
		t.Errorf("exit requested %d times on a surface that already left", surface.exits)
	}
}

func TestFullscreenExitWhileIdleIgnored(t *testing.T) {
	s := New(&fakeSurface{}, nil)
	if s.FullscreenExited() {
		t.Error("idle session reported a stop")
	}
}

func TestStopIdempotent(t *testing.T) {
	surface := &fakeSurface{}
	core, logs := observer.New(zap.InfoLevel)
	s := New(surface, zap.New(core))
	s.Start(10)

	var (
		wg    sync.WaitGroup
		stops atomic.Int32
	)
	for _, trig := range []Trigger{TriggerManual, TriggerExternalExit, TriggerManual, TriggerTimeout} {
		wg.Add(1)
		go func(trig Trigger) {
			defer wg.Done()
			if s.Stop(trig) {
				stops.Add(1)
			}
		}(trig)
	}
	wg.Wait()

	if stops.Load() != 1 {
		t.Fatalf("stops = %d, want 1", stops.Load())
	}
	if surface.exits != 1 {
		t.Errorf("exits = %d, want 1", surface.exits)
	}
	if n := logs.FilterMessage("concentration stopped").Len(); n != 1 {
		t.Errorf("stop logged %d times", n)
	}
}

func TestRestartReplacesHandle(t *testing.T) {
	s := New(nil, nil)
	first, _ := s.Start(5)
	second, _ := s.Start(5)

	if s.Tick(first).Accepted {
		t.Error("stale handle accepted")
	}
	if !s.Tick(second).Accepted {
		t.Error("current handle rejected")
	}
}

func TestFullscreenUnavailableStillRuns(t *testing.T) {
	surface := &fakeSurface{requestErr: errors.New("not supported")}
	s := New(surface, nil)

	if _, err := s.Start(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Running() {
		t.Error("session should run without fullscreen")
	}
	if !s.Stop(TriggerManual) {
		t.Error("manual stop failed")
	}
}

func TestTriggerString(t *testing.T) {
	if TriggerExternalExit.String() != "external-exit" {
		t.Errorf("got %q", TriggerExternalExit.String())
	}
}
