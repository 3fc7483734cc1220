package device

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"sync"
	"time"
)

const (
	simCaptureWidth  = 96
	simCaptureHeight = 72
	simDeliveryDelay = 5 * time.Millisecond
)

// SimSpec tunes the simulated device. Zero values pick sensible defaults.
type SimSpec struct {
	MaxZoom         float64
	MinExposureBias float64
	MaxExposureBias float64
	NoFocusPoint    bool
	NoExposure      bool
	FailLock        bool
	FailCapture     bool
	StopDelay       time.Duration
}

// Sim is a deterministic in-memory camera. Its viewfinder is a procedural
// scene that responds to zoom and exposure bias so rendering is testable.
type Sim struct {
	spec SimSpec

	mu      sync.Mutex
	cfgMu   sync.Mutex
	running bool

	zoom      float64
	bias      float64
	focusX    float64
	focusY    float64
	hasFocus  bool
	focusMode FocusMode
}

// NewSim constructs a simulated device from the given spec.
func NewSim(spec SimSpec) *Sim {
	if spec.MaxZoom == 0 {
		spec.MaxZoom = 16.0
	}
	if spec.MinExposureBias == 0 && spec.MaxExposureBias == 0 {
		spec.MinExposureBias = -8.0
		spec.MaxExposureBias = 8.0
	}
	return &Sim{spec: spec, zoom: 1.0}
}

// SimProvider hands out a single simulated back camera.
type SimProvider struct {
	Device *Sim
	Err    error
}

// BackWideCamera implements Provider.
func (p *SimProvider) BackWideCamera() (Device, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	if p.Device == nil {
		return nil, ErrNoDevice
	}
	return p.Device, nil
}

// Capabilities implements Device.
func (s *Sim) Capabilities() Capabilities {
	return Capabilities{
		MaxZoom:             s.spec.MaxZoom,
		MinExposureBias:     s.spec.MinExposureBias,
		MaxExposureBias:     s.spec.MaxExposureBias,
		FocusPointSupported: !s.spec.NoFocusPoint,
		ExposureSupported:   !s.spec.NoExposure,
	}
}

// Start implements Device. Starting a running session is a no-op.
func (s *Sim) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
}

// Stop implements Device. Stopping a stopped session is a no-op. StopDelay
// simulates slow hardware teardown.
func (s *Sim) Stop() {
	if s.spec.StopDelay > 0 {
		time.Sleep(s.spec.StopDelay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// Running implements Device.
func (s *Sim) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Lock implements Device.
func (s *Sim) Lock() error {
	if s.spec.FailLock {
		return ErrLockFailed
	}
	s.cfgMu.Lock()
	return nil
}

// Unlock implements Device.
func (s *Sim) Unlock() {
	s.cfgMu.Unlock()
}

// SetZoom implements Device.
func (s *Sim) SetZoom(factor float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zoom = factor
	return nil
}

// RampZoom implements Device. The simulation applies the target immediately.
func (s *Sim) RampZoom(factor, rate float64) error {
	return s.SetZoom(factor)
}

// SetFocusPoint implements Device.
func (s *Sim) SetFocusPoint(x, y float64, mode FocusMode) error {
	if s.spec.NoFocusPoint {
		return ErrUnsupported
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focusX, s.focusY = x, y
	s.hasFocus = true
	s.focusMode = mode
	return nil
}

// SetContinuousAuto implements Device.
func (s *Sim) SetContinuousAuto() error {
	if s.spec.NoFocusPoint {
		return ErrUnsupported
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasFocus = false
	s.focusMode = FocusContinuous
	return nil
}

// SetExposureBias implements Device.
func (s *Sim) SetExposureBias(bias float64) error {
	if s.spec.NoExposure {
		return ErrUnsupported
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bias = bias
	return nil
}

// ExposureBias returns the applied bias, for tests and rendering.
func (s *Sim) ExposureBias() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bias
}

// Zoom returns the applied zoom factor, for tests and rendering.
func (s *Sim) Zoom() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom
}

// Capture implements Device.
func (s *Sim) Capture(orientation Orientation, deliver func(Photo, error)) {
	s.mu.Lock()
	running := s.running
	fail := s.spec.FailCapture
	s.mu.Unlock()

	go func() {
		time.Sleep(simDeliveryDelay)
		if !running {
			deliver(Photo{}, ErrNotRunning)
			return
		}
		if fail {
			deliver(Photo{}, ErrNoImageData)
			return
		}
		data, err := s.encodeJPEG(simCaptureWidth, simCaptureHeight)
		if err != nil {
			deliver(Photo{}, err)
			return
		}
		deliver(Photo{
			Data:        data,
			Width:       simCaptureWidth,
			Height:      simCaptureHeight,
			Orientation: orientation,
		}, nil)
	}()
}

// PreviewFrame implements Device.
func (s *Sim) PreviewFrame(width, height int) Frame {
	if width <= 0 || height <= 0 {
		return Frame{}
	}
	s.mu.Lock()
	zoom := s.zoom
	bias := s.bias
	s.mu.Unlock()

	lum := make([]float64, width*height)
	gain := math.Pow(2, bias/4)
	dx := math.Max(1, float64(width-1))
	dy := math.Max(1, float64(height-1))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			u := (float64(x)/dx - 0.5) / zoom
			v := (float64(y)/dy - 0.5) / zoom
			lum[y*width+x] = clamp01(scene(u, v) * gain)
		}
	}
	return Frame{Width: width, Height: height, Lum: lum}
}

// scene evaluates the procedural test scene at centered coordinates in
// [-0.5, 0.5]. A bright disc over a diagonal gradient with a grid overlay.
func scene(u, v float64) float64 {
	l := 0.35 + 0.3*(u+v+1)/2
	if math.Hypot(u-0.1, v+0.05) < 0.12 {
		l += 0.35
	}
	if math.Mod(math.Abs(u*8), 1) < 0.06 || math.Mod(math.Abs(v*8), 1) < 0.06 {
		l -= 0.15
	}
	return clamp01(l)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func (s *Sim) encodeJPEG(width, height int) ([]byte, error) {
	frame := s.PreviewFrame(width, height)
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(frame.At(x, y) * 255)})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SimAuthorizer is a scriptable camera permission source.
type SimAuthorizer struct {
	mu     sync.Mutex
	status Authorization
	grant  bool
}

// NewSimAuthorizer constructs an authorizer in the given state. When status
// is AuthorizationNotDetermined, Request resolves to grant.
func NewSimAuthorizer(status Authorization, grant bool) *SimAuthorizer {
	return &SimAuthorizer{status: status, grant: grant}
}

// Status implements Authorizer.
func (a *SimAuthorizer) Status() Authorization {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Request implements Authorizer.
func (a *SimAuthorizer) Request(grantFn func(bool)) {
	a.mu.Lock()
	if a.status == AuthorizationNotDetermined {
		if a.grant {
			a.status = AuthorizationAuthorized
		} else {
			a.status = AuthorizationDenied
		}
	}
	granted := a.status == AuthorizationAuthorized
	a.mu.Unlock()
	grantFn(granted)
}
