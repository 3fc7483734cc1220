package capture

import (
	"time"

	"github.com/verte-zerg/echosnap/internal/device"
)

// GesturePhase distinguishes in-flight gesture updates from the final one.
type GesturePhase int

// Gesture phases.
const (
	PhaseChanged GesturePhase = iota
	PhaseEnded
)

const doubleTapThreshold = 1.5

// SetZoomFactor clamps the target to [1.0, maxZoom] and applies it, either
// as a smoothed ramp or instantaneously. A device lock failure is logged
// and leaves the state unchanged.
func (c *Controller) SetZoomFactor(target float64, animated bool) {
	c.mu.Lock()
	dev := c.dev
	if dev == nil {
		c.mu.Unlock()
		return
	}
	target = clampF(target, 1.0, c.maxZoom)
	rate := c.cfg.ZoomRampRate
	c.mu.Unlock()

	err := withDeviceLock(dev, func() error {
		if animated {
			return dev.RampZoom(target, rate)
		}
		return dev.SetZoom(target)
	})
	if err != nil {
		c.log("failed to apply zoom %.2f: %v", target, err)
		return
	}

	c.mu.Lock()
	c.zoom = target
	c.mu.Unlock()
	c.notify()
}

// HandlePinch applies a relative zoom scale. The caller resets the
// gesture's incremental scale after each event, so each delta multiplies
// the current factor without compounding. In-flight updates apply
// unanimated; the final one re-applies the target with animation.
func (c *Controller) HandlePinch(scale float64, phase GesturePhase) {
	if scale <= 0 {
		return
	}
	c.mu.Lock()
	target := c.zoom * scale
	c.mu.Unlock()
	c.SetZoomFactor(target, phase == PhaseEnded)
}

// HandleDoubleTap toggles zoom between 1.0x and 2.0x: above the threshold
// it snaps back to 1.0x, otherwise up to 2.0x.
func (c *Controller) HandleDoubleTap() {
	c.mu.Lock()
	zoom := c.zoom
	c.mu.Unlock()
	if zoom > doubleTapThreshold {
		c.SetZoomFactor(1.0, true)
	} else {
		c.SetZoomFactor(2.0, true)
	}
}

// SetFocus sets the focus and exposure point of interest, locked or
// continuous-auto. Every focus change resets the exposure bias to 0.0 so a
// new target does not inherit a stale manual offset. Unlocked focus points
// schedule their own clearing after the configured delay; locked ones
// persist until explicitly unlocked. Devices without focus-point support
// make this a silent no-op.
func (c *Controller) SetFocus(p Point, locked bool) {
	c.mu.Lock()
	dev := c.dev
	c.mu.Unlock()
	if dev == nil || !dev.Capabilities().FocusPointSupported {
		return
	}
	mode := device.FocusContinuous
	if locked {
		mode = device.FocusLocked
	}

	err := withDeviceLock(dev, func() error {
		if err := dev.SetFocusPoint(p.X, p.Y, mode); err != nil {
			return err
		}
		if dev.Capabilities().ExposureSupported {
			return dev.SetExposureBias(0)
		}
		return nil
	})
	if err != nil {
		c.log("failed to set focus point: %v", err)
		return
	}

	c.mu.Lock()
	c.focusPoint = &Point{X: p.X, Y: p.Y}
	c.focusLocked = locked
	c.bias = 0
	c.focusGen++
	gen := c.focusGen
	delay := c.cfg.FocusClearDelay
	c.mu.Unlock()

	if !locked {
		time.AfterFunc(delay, func() { c.autoClearFocus(gen) })
	}
	c.notify()
}

// HandleTapToFocus normalizes a raw view coordinate into [0,1]x[0,1] and
// delegates to SetFocus. A long press locks the focus point.
func (c *Controller) HandleTapToFocus(x, y, boundsWidth, boundsHeight float64, longPress bool) {
	if boundsWidth <= 0 || boundsHeight <= 0 {
		return
	}
	p := Point{
		X: clampF(x/boundsWidth, 0, 1),
		Y: clampF(y/boundsHeight, 0, 1),
	}
	c.SetFocus(p, longPress)
}

// UnlockFocus restores continuous auto-focus and auto-exposure, resets the
// bias to 0.0, and clears the focus point and lock flag.
func (c *Controller) UnlockFocus() {
	c.mu.Lock()
	dev := c.dev
	c.mu.Unlock()
	if dev == nil || !dev.Capabilities().FocusPointSupported {
		return
	}

	err := withDeviceLock(dev, func() error {
		if err := dev.SetContinuousAuto(); err != nil {
			return err
		}
		if dev.Capabilities().ExposureSupported {
			return dev.SetExposureBias(0)
		}
		return nil
	})
	if err != nil {
		c.log("failed to unlock focus: %v", err)
		return
	}

	c.mu.Lock()
	c.focusPoint = nil
	c.focusLocked = false
	c.bias = 0
	c.focusGen++
	c.mu.Unlock()
	c.notify()
}

// SetExposureBias clamps the bias to the device-reported range and applies
// it asynchronously, updating the observable state on completion. Devices
// without exposure support make this a no-op.
func (c *Controller) SetExposureBias(bias float64) {
	c.mu.Lock()
	dev := c.dev
	minBias, maxBias := c.minBias, c.maxBias
	c.mu.Unlock()
	if dev == nil || !dev.Capabilities().ExposureSupported {
		return
	}
	bias = clampF(bias, minBias, maxBias)

	go func() {
		err := withDeviceLock(dev, func() error {
			return dev.SetExposureBias(bias)
		})
		if err != nil {
			c.log("failed to set exposure bias %.2f: %v", bias, err)
			return
		}
		c.mu.Lock()
		c.bias = bias
		c.mu.Unlock()
		c.notify()
	}()
}

// HandleExposureDrag converts a vertical drag delta into a bias delta via
// the configured sensitivity divisor. Dragging up brightens. The drag only
// acts while a focus point is shown; on end, an unlocked focus point is
// rescheduled for clearing.
func (c *Controller) HandleExposureDrag(deltaY float64, phase GesturePhase) {
	c.mu.Lock()
	if c.focusPoint == nil {
		c.mu.Unlock()
		return
	}
	cur := c.bias
	divisor := c.cfg.ExposureDivisor
	locked := c.focusLocked
	gen := c.focusGen
	delay := c.cfg.FocusClearDelay
	c.adjusting = phase == PhaseChanged
	c.mu.Unlock()

	switch phase {
	case PhaseChanged:
		c.SetExposureBias(cur - deltaY/divisor)
	case PhaseEnded:
		if !locked {
			time.AfterFunc(delay, func() { c.autoClearFocus(gen) })
		}
	}
	c.notify()
}

// autoClearFocus removes an unlocked focus point once its delay elapses.
// Superseding focus actions bump the generation, and an in-flight exposure
// adjustment defers clearing until its own gesture ends.
func (c *Controller) autoClearFocus(gen int) {
	c.mu.Lock()
	if gen != c.focusGen || c.focusLocked || c.adjusting || c.focusPoint == nil {
		c.mu.Unlock()
		return
	}
	c.focusPoint = nil
	c.mu.Unlock()
	c.notify()
}

// withDeviceLock brackets a configuration change with the device's
// exclusive lock, releasing it on every exit path.
func withDeviceLock(dev device.Device, fn func() error) error {
	if err := dev.Lock(); err != nil {
		return err
	}
	defer dev.Unlock()
	return fn()
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
