// Package camera provides the live frame source for the booth. A Source
// wraps exactly one hardware stream; the session controller opens it when the
// flow enters customize/capture and closes it when the flow returns to the
// layout step.
package camera

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotSupported indicates the source cannot deliver a decodable video stream.
	ErrNotSupported = errors.New("camera stream not supported")
	// ErrPermissionDenied indicates the stream endpoint refused access.
	ErrPermissionDenied = errors.New("camera access denied")
	// ErrNoDevice indicates no camera is reachable at the configured endpoint.
	ErrNoDevice = errors.New("no camera found")
	// ErrBusy indicates the camera is already in use by another consumer.
	ErrBusy = errors.New("camera is in use by another application")
	// ErrTimeout indicates the camera did not become ready within its bounds.
	ErrTimeout = errors.New("camera took too long to load")
	// ErrNotReady indicates no decodable frame has been produced yet.
	ErrNotReady = errors.New("camera not ready")
)

// Frame is a single still picture from the live stream. Data is shared by
// reference and must not be modified by consumers.
type Frame struct {
	Data      []byte
	Width     int
	Height    int
	Timestamp time.Time
	Seq       uint64
}

// Source is a live video feed. Open is a no-op while a stream is pending or
// active; Close releases the underlying stream unconditionally and is
// idempotent.
type Source interface {
	Open(ctx context.Context) error
	Frame() (*Frame, error)
	Ready() bool
	Close() error
}
