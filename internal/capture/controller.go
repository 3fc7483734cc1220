// Package capture implements the camera session controller: session
// lifecycle in lockstep with preview visibility and photo review, plus
// gesture-driven zoom, focus, and exposure control over a device.
//
// All observable state is guarded by a single mutex and exposed as
// snapshots; hardware start/stop runs on background goroutines since it
// blocks. Failures are absorbed and logged, never propagated: a missing
// device or unsupported feature degrades to a no-op.
package capture

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/verte-zerg/echosnap/internal/device"
	"github.com/verte-zerg/echosnap/internal/model"
)

// State is the capture lifecycle state.
type State int

// Capture states.
const (
	StateIdle State = iota
	StatePreviewRunning
	StatePhotoPendingReview
)

// Point is a normalized coordinate in [0,1]x[0,1] relative to the preview.
type Point struct {
	X float64
	Y float64
}

// Snapshot is a read-only copy of the controller's observable state.
type Snapshot struct {
	State         State
	Authorized    bool
	PreviewActive bool
	Running       bool

	ZoomFactor float64
	MaxZoom    float64

	FocusPoint        *Point
	FocusLocked       bool
	ExposureBias      float64
	MinExposureBias   float64
	MaxExposureBias   float64
	AdjustingExposure bool

	PhotoTaken bool
	Pending    *device.Photo

	Orientation device.Orientation
}

// Saver persists a finished photo to the external photo store.
// Completion is reported via callback; failures must not block the caller.
type Saver interface {
	SaveAsync(photo device.Photo, zoom, bias float64, done func(model.Shot, error))
}

// Controller owns the capture session and its attached device. Construct
// with New; all mutation goes through its methods.
type Controller struct {
	cfg    model.Config
	auth   device.Authorizer
	saver  Saver
	notify func()
	logf   func(format string, args ...any)

	mu         sync.Mutex
	dev        device.Device
	authorized bool

	state         State
	previewActive bool
	running       bool

	zoom    float64
	maxZoom float64

	focusPoint  *Point
	focusLocked bool
	focusGen    int

	bias      float64
	minBias   float64
	maxBias   float64
	adjusting bool

	pending    *device.Photo
	photoTaken bool
	captureGen int

	orient device.Orientation
}

// New constructs a controller, queries camera authorization, and, once
// granted, configures the device and starts the preview. On denial the
// controller stays inert: every operation is a no-op and the snapshot
// reports Authorized == false.
func New(cfg model.Config, provider device.Provider, auth device.Authorizer, saver Saver, notify func()) *Controller {
	c := &Controller{
		cfg:    withDefaults(cfg),
		auth:   auth,
		saver:  saver,
		notify: notify,
		zoom:   1.0,
		orient: device.OrientationPortrait,
	}
	if c.notify == nil {
		c.notify = func() {}
	}
	c.logf = func(format string, args ...any) {
		if _, err := fmt.Fprintf(os.Stderr, format+"\n", args...); err != nil {
			// Best-effort logging to stderr.
			_ = err
		}
	}

	switch auth.Status() {
	case device.AuthorizationAuthorized:
		c.setup(provider)
	case device.AuthorizationNotDetermined:
		auth.Request(func(granted bool) {
			if granted {
				c.setup(provider)
				return
			}
			c.log("camera access denied")
		})
	default:
		c.log("camera access denied or restricted")
	}
	return c
}

func (c *Controller) log(format string, args ...any) {
	c.mu.Lock()
	logf := c.logf
	c.mu.Unlock()
	logf(format, args...)
}

// SetLogf replaces the error log sink. A nil sink silences logging.
func (c *Controller) SetLogf(logf func(format string, args ...any)) {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	c.mu.Lock()
	c.logf = logf
	c.mu.Unlock()
}

func withDefaults(cfg model.Config) model.Config {
	if cfg.MaxZoom <= 0 {
		cfg.MaxZoom = 5.0
	}
	if cfg.ZoomRampRate <= 0 {
		cfg.ZoomRampRate = 8.0
	}
	if cfg.FocusClearDelay <= 0 {
		cfg.FocusClearDelay = time.Second
	}
	if cfg.RotationSettle <= 0 {
		cfg.RotationSettle = 500 * time.Millisecond
	}
	if cfg.ExposureDivisor <= 0 {
		cfg.ExposureDivisor = 50.0
	}
	return cfg
}

// setup selects the back wide camera, records its capabilities, and starts
// the preview. Failure leaves the controller empty but usable as a no-op.
func (c *Controller) setup(provider device.Provider) {
	dev, err := provider.BackWideCamera()
	if err != nil {
		c.log("failed to set up capture device: %v", err)
		return
	}
	caps := dev.Capabilities()

	c.mu.Lock()
	c.dev = dev
	c.authorized = true
	c.maxZoom = c.cfg.MaxZoom
	if caps.MaxZoom > 0 && caps.MaxZoom < c.maxZoom {
		c.maxZoom = caps.MaxZoom
	}
	c.minBias = caps.MinExposureBias
	c.maxBias = caps.MaxExposureBias
	c.previewActive = true
	c.state = StatePreviewRunning
	c.mu.Unlock()

	c.syncSession()
	c.notify()
}

// Snapshot returns a copy of the observable state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{
		State:             c.state,
		Authorized:        c.authorized,
		PreviewActive:     c.previewActive,
		Running:           c.running,
		ZoomFactor:        c.zoom,
		MaxZoom:           c.maxZoom,
		FocusLocked:       c.focusLocked,
		ExposureBias:      c.bias,
		MinExposureBias:   c.minBias,
		MaxExposureBias:   c.maxBias,
		AdjustingExposure: c.adjusting,
		PhotoTaken:        c.photoTaken,
		Orientation:       c.orient,
	}
	if c.focusPoint != nil {
		p := *c.focusPoint
		snap.FocusPoint = &p
	}
	if c.pending != nil {
		p := *c.pending
		snap.Pending = &p
	}
	return snap
}

// PreviewFrame renders the current viewfinder at the given size.
// Without a device, or while the session is stopped, it returns an empty frame.
func (c *Controller) PreviewFrame(width, height int) device.Frame {
	c.mu.Lock()
	dev := c.dev
	running := c.running
	c.mu.Unlock()
	if dev == nil || !running {
		return device.Frame{}
	}
	return dev.PreviewFrame(width, height)
}

// syncSession reconciles the hardware session with the desired state:
// running only while the preview is active and no photo is pending review.
// Start and stop are idempotent, so concurrent reconciles are harmless.
func (c *Controller) syncSession() {
	c.mu.Lock()
	dev := c.dev
	c.mu.Unlock()
	if dev == nil {
		return
	}
	go func() {
		c.mu.Lock()
		want := c.previewActive && c.pending == nil
		c.mu.Unlock()
		if want {
			dev.Start()
		} else {
			dev.Stop()
		}
		c.mu.Lock()
		c.running = dev.Running()
		c.mu.Unlock()
		c.notify()
	}()
}

// TogglePreview flips preview visibility and starts or stops the session
// accordingly. The UI state flips immediately; the hardware call runs in
// the background. Ignored while a photo is pending review.
func (c *Controller) TogglePreview() {
	c.mu.Lock()
	if c.dev == nil || c.pending != nil {
		c.mu.Unlock()
		return
	}
	c.previewActive = !c.previewActive
	if c.previewActive {
		c.state = StatePreviewRunning
	} else {
		c.state = StateIdle
	}
	c.captureGen++
	c.mu.Unlock()

	c.syncSession()
	c.notify()
}

// CapturePhoto issues a one-shot capture tagged with the current interface
// orientation. Delivery is asynchronous and state-guarded, so a photo
// arriving after the controller moved on is silently dropped.
func (c *Controller) CapturePhoto() {
	c.mu.Lock()
	if c.dev == nil || c.state != StatePreviewRunning {
		c.mu.Unlock()
		return
	}
	dev := c.dev
	gen := c.captureGen
	orient := c.orient
	c.mu.Unlock()

	dev.Capture(orient, func(photo device.Photo, err error) {
		c.onPhotoDelivered(gen, photo, err)
	})
}

func (c *Controller) onPhotoDelivered(gen int, photo device.Photo, err error) {
	c.mu.Lock()
	if gen != c.captureGen || c.state != StatePreviewRunning || !c.previewActive {
		c.mu.Unlock()
		c.log("dropping photo delivered after state change")
		return
	}
	if err != nil {
		c.mu.Unlock()
		c.log("photo capture failed: %v", err)
		return
	}
	if len(photo.Data) == 0 {
		c.mu.Unlock()
		c.log("photo capture delivered no image data")
		return
	}
	c.pending = &photo
	c.photoTaken = true
	c.state = StatePhotoPendingReview
	c.mu.Unlock()

	c.syncSession()
	c.notify()
}

// SavePhotoAndReopen persists the pending photo to the photo library,
// clears it, and restarts the session. The write is fire-and-forget:
// a persistence failure is logged and never blocks the transition.
func (c *Controller) SavePhotoAndReopen() {
	photo, ok := c.takePending()
	if !ok {
		return
	}
	c.mu.Lock()
	saver := c.saver
	zoom := c.zoom
	bias := c.bias
	c.mu.Unlock()
	if saver != nil {
		saver.SaveAsync(photo, zoom, bias, func(_ model.Shot, err error) {
			if err != nil {
				c.log("failed to save photo to library: %v", err)
			}
		})
	}
	c.syncSession()
	c.notify()
}

// DiscardPhotoAndReopen clears the pending photo and restarts the session.
// Identical cleanup path to save, minus the persistence call.
func (c *Controller) DiscardPhotoAndReopen() {
	if _, ok := c.takePending(); !ok {
		return
	}
	c.syncSession()
	c.notify()
}

func (c *Controller) takePending() (device.Photo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePhotoPendingReview || c.pending == nil {
		return device.Photo{}, false
	}
	photo := *c.pending
	c.pending = nil
	c.photoTaken = false
	c.state = StatePreviewRunning
	c.captureGen++
	return photo, true
}

// HandleOrientationChange records a device rotation. Flat orientations are
// ignored. While previewing, the session is torn down and restarted after a
// settling delay to re-acquire the capture connection with correct
// orientation metadata. The restart is best-effort and idempotent: preview
// toggles landing inside the delay win.
func (c *Controller) HandleOrientationChange(o device.Orientation) {
	if !o.IsInterface() {
		return
	}
	c.mu.Lock()
	if o == c.orient {
		c.mu.Unlock()
		return
	}
	c.orient = o
	dev := c.dev
	active := c.previewActive && c.state == StatePreviewRunning
	settle := c.cfg.RotationSettle
	c.captureGen++
	c.mu.Unlock()
	c.notify()

	if dev == nil || !active {
		return
	}
	go func() {
		dev.Stop()
		c.mu.Lock()
		c.running = dev.Running()
		c.mu.Unlock()
		c.notify()
		// Schedule the restart only after the stop has completed, so the
		// teardown can never land after the restarted session.
		time.AfterFunc(settle, c.syncSession)
	}()
}
