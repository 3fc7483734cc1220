// Package device abstracts the camera hardware boundary.
package device

import "errors"

// Authorization is the camera access state reported by the platform.
type Authorization int

// Authorization states.
const (
	AuthorizationNotDetermined Authorization = iota
	AuthorizationAuthorized
	AuthorizationDenied
)

// Authorizer answers and requests camera access.
type Authorizer interface {
	Status() Authorization
	// Request prompts for access and reports the outcome asynchronously.
	Request(grant func(bool))
}

// Orientation is the physical device orientation.
type Orientation int

// Orientations. Flat orientations carry no interface rotation.
const (
	OrientationUnknown Orientation = iota
	OrientationPortrait
	OrientationLandscapeLeft
	OrientationLandscapeRight
	OrientationFaceUp
	OrientationFaceDown
)

// IsInterface reports whether the orientation maps to an interface rotation.
func (o Orientation) IsInterface() bool {
	switch o {
	case OrientationPortrait, OrientationLandscapeLeft, OrientationLandscapeRight:
		return true
	default:
		return false
	}
}

// String returns a stable name for storage and logging.
func (o Orientation) String() string {
	switch o {
	case OrientationPortrait:
		return "portrait"
	case OrientationLandscapeLeft:
		return "landscape-left"
	case OrientationLandscapeRight:
		return "landscape-right"
	case OrientationFaceUp:
		return "face-up"
	case OrientationFaceDown:
		return "face-down"
	default:
		return "unknown"
	}
}

// FocusMode selects how the device holds a focus point of interest.
type FocusMode int

// Focus modes.
const (
	FocusContinuous FocusMode = iota
	FocusLocked
)

// Capabilities reports device limits and feature support.
type Capabilities struct {
	MaxZoom             float64
	MinExposureBias     float64
	MaxExposureBias     float64
	FocusPointSupported bool
	ExposureSupported   bool
}

// Photo is a delivered still capture.
type Photo struct {
	Data        []byte
	Width       int
	Height      int
	Orientation Orientation
}

// Frame is a rendered preview frame as a row-major luminance grid in [0,1].
type Frame struct {
	Width  int
	Height int
	Lum    []float64
}

// At returns the luminance at (x, y). Out-of-range coordinates return 0.
func (f Frame) At(x, y int) float64 {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return 0
	}
	return f.Lum[y*f.Width+x]
}

// Sentinel errors surfaced by device implementations.
var (
	ErrNoDevice    = errors.New("no capture device available")
	ErrLockFailed  = errors.New("failed to lock device for configuration")
	ErrNotRunning  = errors.New("capture session is not running")
	ErrUnsupported = errors.New("feature not supported by device")
	ErrNoImageData = errors.New("no image data delivered")
)

// Device is a camera with an exclusive configuration lock. Start and Stop
// are idempotent and may block; configuration calls require holding the lock.
type Device interface {
	Capabilities() Capabilities
	Start()
	Stop()
	Running() bool

	Lock() error
	Unlock()

	SetZoom(factor float64) error
	RampZoom(factor, rate float64) error
	SetFocusPoint(x, y float64, mode FocusMode) error
	SetContinuousAuto() error
	SetExposureBias(bias float64) error

	// Capture requests a one-shot still tagged with the given orientation.
	// The result is delivered asynchronously on a background goroutine.
	Capture(orientation Orientation, deliver func(Photo, error))

	// PreviewFrame renders the current viewfinder at the given size.
	PreviewFrame(width, height int) Frame
}

// Provider locates a capture device, preferring the back wide camera.
type Provider interface {
	BackWideCamera() (Device, error)
}
