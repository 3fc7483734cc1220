package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/echosnap/internal/device"
	"github.com/verte-zerg/echosnap/internal/model"
)

func openTestLibrary(t *testing.T) *Library {
	t.Helper()
	dir := t.TempDir()
	lib, err := Open(filepath.Join(dir, "library"), filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatalf("failed to open library: %v", err)
	}
	t.Cleanup(func() {
		if err := lib.Close(); err != nil {
			t.Errorf("failed to close library: %v", err)
		}
	})
	return lib
}

func testPhoto() device.Photo {
	return device.Photo{
		Data:        []byte{0xFF, 0xD8, 0xFF, 0xD9},
		Width:       96,
		Height:      72,
		Orientation: device.OrientationPortrait,
	}
}

func TestSaveWritesFileAndIndexes(t *testing.T) {
	lib := openTestLibrary(t)
	ctx := context.Background()

	shot, err := lib.Save(ctx, testPhoto(), 2.0, -1.5)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if shot.ID == 0 {
		t.Fatalf("expected assigned shot ID")
	}
	data, err := os.ReadFile(shot.Path)
	if err != nil {
		t.Fatalf("photo file missing: %v", err)
	}
	if len(data) != 4 {
		t.Fatalf("unexpected file size %d", len(data))
	}

	shots, err := lib.List(ctx, model.LibraryQuery{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(shots) != 1 {
		t.Fatalf("expected 1 shot, got %d", len(shots))
	}
	got := shots[0]
	if got.ZoomFactor != 2.0 || got.ExposureBias != -1.5 || got.Orientation != "portrait" {
		t.Fatalf("unexpected shot metadata: %+v", got)
	}
}

func TestSaveRejectsEmptyPhoto(t *testing.T) {
	lib := openTestLibrary(t)
	if _, err := lib.Save(context.Background(), device.Photo{}, 1.0, 0); err == nil {
		t.Fatalf("expected error for empty photo")
	}
}

func TestSaveAsyncReportsViaCallback(t *testing.T) {
	lib := openTestLibrary(t)
	done := make(chan error, 1)
	lib.SaveAsync(testPhoto(), 1.0, 0, func(_ model.Shot, err error) { done <- err })
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("async save failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("async save never completed")
	}
}

func TestListLastLimitsToNewest(t *testing.T) {
	lib := openTestLibrary(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := lib.Save(ctx, testPhoto(), float64(i+1), 0); err != nil {
			t.Fatalf("save %d failed: %v", i, err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	shots, err := lib.List(ctx, model.LibraryQuery{Last: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(shots) != 2 {
		t.Fatalf("expected 2 shots, got %d", len(shots))
	}
	if shots[0].ZoomFactor != 2.0 || shots[1].ZoomFactor != 3.0 {
		t.Fatalf("expected newest shots, got %+v", shots)
	}
}
