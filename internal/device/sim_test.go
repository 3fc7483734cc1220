package device

import (
	"bytes"
	"image/jpeg"
	"testing"
	"time"
)

func TestSimStartStopIdempotent(t *testing.T) {
	sim := NewSim(SimSpec{})
	if sim.Running() {
		t.Fatalf("new device must be stopped")
	}
	sim.Start()
	sim.Start()
	if !sim.Running() {
		t.Fatalf("expected running after start")
	}
	sim.Stop()
	sim.Stop()
	if sim.Running() {
		t.Fatalf("expected stopped after stop")
	}
}

func TestSimCaptureDeliversDecodableJPEG(t *testing.T) {
	sim := NewSim(SimSpec{})
	sim.Start()

	done := make(chan struct{})
	var photo Photo
	var captureErr error
	sim.Capture(OrientationLandscapeLeft, func(p Photo, err error) {
		photo = p
		captureErr = err
		close(done)
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("capture never delivered")
	}
	if captureErr != nil {
		t.Fatalf("capture failed: %v", captureErr)
	}
	if photo.Orientation != OrientationLandscapeLeft {
		t.Fatalf("expected orientation tag, got %v", photo.Orientation)
	}
	img, err := jpeg.Decode(bytes.NewReader(photo.Data))
	if err != nil {
		t.Fatalf("delivered data is not a JPEG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != photo.Width || bounds.Dy() != photo.Height {
		t.Fatalf("dimension mismatch: %v vs %dx%d", bounds, photo.Width, photo.Height)
	}
}

func TestSimCaptureWhileStoppedErrors(t *testing.T) {
	sim := NewSim(SimSpec{})
	done := make(chan error, 1)
	sim.Capture(OrientationPortrait, func(_ Photo, err error) { done <- err })
	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("expected error capturing while stopped")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("capture never delivered")
	}
}

func TestSimExposureBrightensFrame(t *testing.T) {
	sim := NewSim(SimSpec{})
	base := sim.PreviewFrame(32, 24)
	if err := sim.SetExposureBias(4); err != nil {
		t.Fatalf("set bias: %v", err)
	}
	bright := sim.PreviewFrame(32, 24)

	baseSum, brightSum := 0.0, 0.0
	for i := range base.Lum {
		baseSum += base.Lum[i]
		brightSum += bright.Lum[i]
	}
	if brightSum <= baseSum {
		t.Fatalf("positive bias should brighten: %v <= %v", brightSum, baseSum)
	}
}

func TestSimUnsupportedFeatures(t *testing.T) {
	sim := NewSim(SimSpec{NoFocusPoint: true, NoExposure: true})
	if err := sim.SetFocusPoint(0.5, 0.5, FocusLocked); err != ErrUnsupported {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if err := sim.SetExposureBias(1); err != ErrUnsupported {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestOrientationClasses(t *testing.T) {
	if OrientationFaceUp.IsInterface() || OrientationFaceDown.IsInterface() || OrientationUnknown.IsInterface() {
		t.Fatalf("flat orientations must not count as interface orientations")
	}
	if !OrientationPortrait.IsInterface() || !OrientationLandscapeRight.IsInterface() {
		t.Fatalf("portrait and landscape are interface orientations")
	}
}
