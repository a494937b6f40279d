package scanner

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DirDevice treats a directory of snapshots as a camera. Each frame is the
// most recently modified image in the directory.
type DirDevice struct {
	Dir string

	mu     sync.Mutex
	active int
}

func NewDirDevice(dir string) *DirDevice {
	return &DirDevice{Dir: dir}
}

func (d *DirDevice) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(d.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, ErrPermissionDenied
		}
		return nil, fmt.Errorf("failed to open frame directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", d.Dir)
	}

	d.mu.Lock()
	d.active++
	d.mu.Unlock()

	return &dirStream{dir: d.Dir, track: &dirTrack{label: "snapshots:" + d.Dir, device: d}}, nil
}

// ActiveTracks returns how many opened tracks have not been stopped.
func (d *DirDevice) ActiveTracks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

type dirTrack struct {
	label  string
	device *DirDevice
	once   sync.Once
	ended  bool
	mu     sync.Mutex
}

func (t *dirTrack) Label() string { return t.label }

func (t *dirTrack) Stop() {
	t.once.Do(func() {
		t.mu.Lock()
		t.ended = true
		t.mu.Unlock()

		t.device.mu.Lock()
		t.device.active--
		t.device.mu.Unlock()
	})
}

func (t *dirTrack) isEnded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ended
}

type dirStream struct {
	dir      string
	track    *dirTrack
	lastPath string
	lastMod  time.Time
}

func (s *dirStream) Tracks() []Track { return []Track{s.track} }

func (s *dirStream) Frame(ctx context.Context) (image.Image, error) {
	if s.track.isEnded() {
		return nil, ErrTrackEnded
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, mod, err := newestImage(s.dir)
	if err != nil {
		return nil, err
	}
	if path == "" || (path == s.lastPath && mod.Equal(s.lastMod)) {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		// partially written snapshot; try again next tick
		return nil, nil
	}
	s.lastPath, s.lastMod = path, mod
	return img, nil
}

func newestImage(dir string) (string, time.Time, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to read frame directory: %w", err)
	}

	var (
		newest  string
		newestT time.Time
	)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg", ".gif":
		default:
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestT) {
			newest = filepath.Join(dir, e.Name())
			newestT = info.ModTime()
		}
	}
	return newest, newestT, nil
}
