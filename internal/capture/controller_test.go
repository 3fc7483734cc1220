package capture

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/verte-zerg/echosnap/internal/device"
	"github.com/verte-zerg/echosnap/internal/model"
)

type recordingSaver struct {
	mu    sync.Mutex
	saves int
	err   error
}

func (s *recordingSaver) SaveAsync(photo device.Photo, zoom, bias float64, done func(model.Shot, error)) {
	s.mu.Lock()
	s.saves++
	err := s.err
	s.mu.Unlock()
	go done(model.Shot{}, err)
}

func (s *recordingSaver) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func testConfig() model.Config {
	return model.Config{
		MaxZoom:         5.0,
		FocusClearDelay: 30 * time.Millisecond,
		RotationSettle:  20 * time.Millisecond,
		ExposureDivisor: 50.0,
	}
}

func newTestController(t *testing.T, spec device.SimSpec, saver Saver) (*Controller, *device.Sim) {
	t.Helper()
	sim := device.NewSim(spec)
	auth := device.NewSimAuthorizer(device.AuthorizationAuthorized, true)
	c := New(testConfig(), &device.SimProvider{Device: sim}, auth, saver, nil)
	c.SetLogf(t.Logf)
	return c, sim
}

func waitFor(t *testing.T, msg string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func TestSetupStartsPreview(t *testing.T) {
	c, _ := newTestController(t, device.SimSpec{}, nil)
	waitFor(t, "session running", func() bool { return c.Snapshot().Running })
	snap := c.Snapshot()
	if !snap.Authorized || !snap.PreviewActive || snap.State != StatePreviewRunning {
		t.Fatalf("unexpected state after setup: %+v", snap)
	}
	if snap.MaxZoom != 5.0 {
		t.Fatalf("expected app zoom cap 5.0, got %v", snap.MaxZoom)
	}
}

func TestDeniedAuthorizationStaysInert(t *testing.T) {
	sim := device.NewSim(device.SimSpec{})
	auth := device.NewSimAuthorizer(device.AuthorizationDenied, false)
	c := New(testConfig(), &device.SimProvider{Device: sim}, auth, nil, nil)
	c.SetLogf(t.Logf)

	c.TogglePreview()
	c.CapturePhoto()
	c.SetZoomFactor(3.0, false)
	time.Sleep(20 * time.Millisecond)

	snap := c.Snapshot()
	if snap.Authorized || snap.Running || snap.State != StateIdle {
		t.Fatalf("denied controller should stay inert, got %+v", snap)
	}
	if sim.Running() {
		t.Fatalf("device must not start without authorization")
	}
}

func TestNotDeterminedPromptGrantsAndSetsUp(t *testing.T) {
	sim := device.NewSim(device.SimSpec{})
	auth := device.NewSimAuthorizer(device.AuthorizationNotDetermined, true)
	c := New(testConfig(), &device.SimProvider{Device: sim}, auth, nil, nil)
	c.SetLogf(t.Logf)
	waitFor(t, "session running after grant", func() bool { return c.Snapshot().Running })
}

func TestProviderFailureIsNonFatal(t *testing.T) {
	auth := device.NewSimAuthorizer(device.AuthorizationAuthorized, true)
	c := New(testConfig(), &device.SimProvider{Err: device.ErrNoDevice}, auth, nil, nil)
	c.SetLogf(t.Logf)

	c.TogglePreview()
	c.CapturePhoto()
	c.SetZoomFactor(3.0, false)
	c.SetFocus(Point{X: 0.5, Y: 0.5}, false)

	snap := c.Snapshot()
	if snap.Running || snap.State != StateIdle {
		t.Fatalf("controller without device should be a no-op, got %+v", snap)
	}
}

func TestTogglePreviewIdempotentStartStop(t *testing.T) {
	c, sim := newTestController(t, device.SimSpec{}, nil)
	waitFor(t, "session running", func() bool { return c.Snapshot().Running })

	// Reconciling an already-running session leaves it running.
	c.syncSession()
	waitFor(t, "session still running", func() bool { return c.Snapshot().Running })

	c.TogglePreview()
	waitFor(t, "session stopped", func() bool { return !c.Snapshot().Running })
	if sim.Running() {
		t.Fatalf("device should be stopped")
	}
	c.syncSession()
	time.Sleep(20 * time.Millisecond)
	if c.Snapshot().Running {
		t.Fatalf("reconciling a stopped preview must keep it stopped")
	}

	c.TogglePreview()
	waitFor(t, "session restarted", func() bool { return c.Snapshot().Running })
}

func TestCaptureReviewCycle(t *testing.T) {
	saver := &recordingSaver{}
	c, _ := newTestController(t, device.SimSpec{}, saver)
	waitFor(t, "session running", func() bool { return c.Snapshot().Running })

	c.CapturePhoto()
	waitFor(t, "photo pending review", func() bool {
		return c.Snapshot().State == StatePhotoPendingReview
	})
	snap := c.Snapshot()
	if snap.Pending == nil || !snap.PhotoTaken {
		t.Fatalf("expected pending photo, got %+v", snap)
	}
	waitFor(t, "session stopped during review", func() bool { return !c.Snapshot().Running })

	c.SavePhotoAndReopen()
	waitFor(t, "session restarted after save", func() bool { return c.Snapshot().Running })
	snap = c.Snapshot()
	if snap.State != StatePreviewRunning || snap.Pending != nil || snap.PhotoTaken {
		t.Fatalf("save should clear pending photo, got %+v", snap)
	}
	waitFor(t, "library save", func() bool { return saver.count() == 1 })

	c.CapturePhoto()
	waitFor(t, "second photo pending", func() bool {
		return c.Snapshot().State == StatePhotoPendingReview
	})
	c.DiscardPhotoAndReopen()
	waitFor(t, "session restarted after discard", func() bool { return c.Snapshot().Running })
	snap = c.Snapshot()
	if snap.State != StatePreviewRunning || snap.Pending != nil || snap.PhotoTaken {
		t.Fatalf("discard should clear pending photo, got %+v", snap)
	}
	if saver.count() != 1 {
		t.Fatalf("discard must not persist the photo")
	}
}

func TestSaveFailureDoesNotBlockTransition(t *testing.T) {
	saver := &recordingSaver{err: errors.New("disk full")}
	c, _ := newTestController(t, device.SimSpec{}, saver)
	waitFor(t, "session running", func() bool { return c.Snapshot().Running })

	c.CapturePhoto()
	waitFor(t, "photo pending review", func() bool {
		return c.Snapshot().State == StatePhotoPendingReview
	})
	c.SavePhotoAndReopen()
	waitFor(t, "session restarted despite save failure", func() bool {
		return c.Snapshot().Running && c.Snapshot().Pending == nil
	})
}

func TestCaptureFailureKeepsSessionRunning(t *testing.T) {
	c, _ := newTestController(t, device.SimSpec{FailCapture: true}, nil)
	waitFor(t, "session running", func() bool { return c.Snapshot().Running })

	c.CapturePhoto()
	time.Sleep(30 * time.Millisecond)
	snap := c.Snapshot()
	if snap.State != StatePreviewRunning || snap.Pending != nil || !snap.Running {
		t.Fatalf("failed capture should leave the preview running, got %+v", snap)
	}
}

func TestLatePhotoDeliveryIsDropped(t *testing.T) {
	c, _ := newTestController(t, device.SimSpec{}, nil)
	waitFor(t, "session running", func() bool { return c.Snapshot().Running })

	c.CapturePhoto()
	c.TogglePreview()
	time.Sleep(40 * time.Millisecond)
	snap := c.Snapshot()
	if snap.Pending != nil || snap.State != StateIdle {
		t.Fatalf("photo delivered after preview toggle must be dropped, got %+v", snap)
	}
}

func TestRotationRestartsSession(t *testing.T) {
	c, _ := newTestController(t, device.SimSpec{}, nil)
	waitFor(t, "session running", func() bool { return c.Snapshot().Running })

	c.HandleOrientationChange(device.OrientationLandscapeLeft)
	waitFor(t, "session restarted after rotation", func() bool {
		snap := c.Snapshot()
		return snap.Running && snap.Orientation == device.OrientationLandscapeLeft
	})

	// Flat orientations are ignored.
	c.HandleOrientationChange(device.OrientationFaceUp)
	if got := c.Snapshot().Orientation; got != device.OrientationLandscapeLeft {
		t.Fatalf("flat orientation must be ignored, got %v", got)
	}
}

func TestRotationSlowTeardownStillRestarts(t *testing.T) {
	c, sim := newTestController(t, device.SimSpec{StopDelay: 40 * time.Millisecond}, nil)
	waitFor(t, "session running", func() bool { return c.Snapshot().Running })

	// Teardown outlasts the settle window; the restart must still land
	// after it, never the other way around.
	c.HandleOrientationChange(device.OrientationLandscapeLeft)
	time.Sleep(120 * time.Millisecond)

	snap := c.Snapshot()
	if !snap.PreviewActive {
		t.Fatalf("preview should stay active across rotation, got %+v", snap)
	}
	if !sim.Running() || !snap.Running {
		t.Fatalf("session must be running after slow teardown and restart, device=%v snapshot=%+v", sim.Running(), snap)
	}
}

func TestPreviewToggleDuringRotationSettleWins(t *testing.T) {
	c, _ := newTestController(t, device.SimSpec{}, nil)
	waitFor(t, "session running", func() bool { return c.Snapshot().Running })

	c.HandleOrientationChange(device.OrientationLandscapeRight)
	c.TogglePreview()
	time.Sleep(60 * time.Millisecond)
	snap := c.Snapshot()
	if snap.Running || snap.PreviewActive {
		t.Fatalf("preview toggled off during settle must stay off, got %+v", snap)
	}
}
