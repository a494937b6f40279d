package scanner

import (
	"context"
	"errors"
	"image"
)

var (
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrTrackEnded       = errors.New("media track ended")
)

// Track is one media track of an open stream. Stop releases it and must be
// safe to call more than once.
type Track interface {
	Label() string
	Stop()
}

// Stream yields frames from an opened device. Frame returns a nil image and
// nil error when no frame is ready yet.
type Stream interface {
	Frame(ctx context.Context) (image.Image, error)
	Tracks() []Track
}

// Device is a camera-like frame source. Open blocks while permission is
// requested and returns ErrPermissionDenied when it is refused.
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// StopAll stops every track of s.
func StopAll(s Stream) {
	if s == nil {
		return
	}
	for _, t := range s.Tracks() {
		t.Stop()
	}
}
