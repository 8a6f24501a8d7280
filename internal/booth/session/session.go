// Package session models the single active capture flow of the booth as an
// explicit state machine: Layout -> Customize -> Capture, with controlled
// transition functions instead of ad hoc field mutation. A Session is not safe
// for concurrent use; the owning controller serializes access.
package session

import (
	"errors"
	"fmt"

	"github.com/jo-hoe/gobooth/internal/booth/catalog"
	"github.com/jo-hoe/gobooth/internal/common"
)

// Step identifies the current stage of the capture flow.
type Step int

const (
	// StepLayout is the initial stage: the user picks a grid shape.
	StepLayout Step = iota
	// StepCustomize lets the user pick filter, frame and overlays.
	StepCustomize
	// StepCapture runs the timed shot sequence.
	StepCapture
)

func (s Step) String() string {
	switch s {
	case StepLayout:
		return "layout"
	case StepCustomize:
		return "customize"
	case StepCapture:
		return "capture"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

var (
	// ErrInvalidTransition indicates the requested transition is not legal
	// from the current step.
	ErrInvalidTransition = errors.New("transition not allowed in current step")
	// ErrOverlayNotFound indicates no overlay carries the given id.
	ErrOverlayNotFound = errors.New("overlay not found")
	// ErrSequenceComplete indicates the session already holds all required
	// frames.
	ErrSequenceComplete = errors.New("capture sequence already complete")
)

// Overlay coordinates live on the fixed logical canvas.
const (
	canvasWidth  = 640
	canvasHeight = 480
	defaultScale = 1.0
)

// Overlay is a user-placed sticker with a transient session id. The id never
// leaves the session; it is stripped before records are persisted. Rotation is
// part of the stored shape but the booth never sets it and rendering ignores
// it.
type Overlay struct {
	ID        string
	StickerID string
	X         float64
	Y         float64
	Scale     float64
	Rotation  *float64
}

// Session is the mutable state of one capture flow from layout choice to
// save.
type Session struct {
	step      Step
	layout    catalog.Layout
	hasLayout bool
	filterID  string
	frameID   string
	overlays  []Overlay
	frames    [][]byte
}

// New creates a Session in the layout stage with identity filter and no
// frame.
func New() *Session {
	s := &Session{}
	s.reset()
	return s
}

func (s *Session) reset() {
	s.step = StepLayout
	s.layout = catalog.Layout{}
	s.hasLayout = false
	s.filterID = catalog.FilterIdentity
	s.frameID = catalog.FrameNone
	s.overlays = nil
	s.frames = nil
}

// Step returns the current stage.
func (s *Session) Step() Step {
	return s.step
}

// Layout returns the selected layout; ok is false before selection.
func (s *Session) Layout() (catalog.Layout, bool) {
	return s.layout, s.hasLayout
}

// FilterID returns the selected filter id; empty means identity.
func (s *Session) FilterID() string {
	return s.filterID
}

// FrameID returns the selected frame template id.
func (s *Session) FrameID() string {
	return s.frameID
}

// Overlays returns a copy of the overlay list in insertion order.
func (s *Session) Overlays() []Overlay {
	out := make([]Overlay, len(s.overlays))
	copy(out, s.overlays)
	return out
}

// Frames returns the captured frames in shot order. The slice is shared; the
// caller must not mutate it.
func (s *Session) Frames() [][]byte {
	return s.frames
}

// ShotCount returns the number of shots the selected layout requires, 0
// before a layout is chosen.
func (s *Session) ShotCount() int {
	if !s.hasLayout {
		return 0
	}
	return s.layout.ShotCount()
}

// Complete reports whether all required frames were captured.
func (s *Session) Complete() bool {
	return s.hasLayout && len(s.frames) == s.layout.ShotCount()
}

// SelectLayout moves Layout -> Customize with the given grid shape. No other
// fields change.
func (s *Session) SelectLayout(layoutID string) error {
	if s.step != StepLayout {
		return fmt.Errorf("%w: select layout in %s", ErrInvalidTransition, s.step)
	}
	layout, ok := catalog.LayoutByID(layoutID)
	if !ok {
		return fmt.Errorf("unknown layout: %s", layoutID)
	}
	s.layout = layout
	s.hasLayout = true
	s.step = StepCustomize
	return nil
}

// StartCapture moves Customize -> Capture and clears any previously captured
// frames so every run starts fresh.
func (s *Session) StartCapture() error {
	if s.step != StepCustomize {
		return fmt.Errorf("%w: start capture in %s", ErrInvalidTransition, s.step)
	}
	s.frames = nil
	s.step = StepCapture
	return nil
}

// Back steps backwards: Capture -> Customize drops only the captured frames,
// Customize -> Layout resets the whole session.
func (s *Session) Back() error {
	switch s.step {
	case StepCapture:
		s.frames = nil
		s.step = StepCustomize
		return nil
	case StepCustomize:
		s.reset()
		return nil
	default:
		return fmt.Errorf("%w: back in %s", ErrInvalidTransition, s.step)
	}
}

// Reset clears everything and returns to the layout stage. Called after a
// successful save.
func (s *Session) Reset() {
	s.reset()
}

// SetFilter selects a preview filter. Legal while customizing or capturing.
func (s *Session) SetFilter(filterID string) error {
	if s.step == StepLayout {
		return fmt.Errorf("%w: set filter in %s", ErrInvalidTransition, s.step)
	}
	if _, ok := catalog.FilterByID(filterID); !ok {
		return fmt.Errorf("unknown filter: %s", filterID)
	}
	s.filterID = filterID
	return nil
}

// SetFrame selects a frame template. Legal while customizing or capturing.
func (s *Session) SetFrame(frameID string) error {
	if s.step == StepLayout {
		return fmt.Errorf("%w: set frame in %s", ErrInvalidTransition, s.step)
	}
	if _, ok := catalog.FrameByID(frameID); !ok {
		return fmt.Errorf("unknown frame: %s", frameID)
	}
	s.frameID = frameID
	return nil
}

// AddOverlay places a sticker at the canvas center with a fresh unique id.
func (s *Session) AddOverlay(stickerID string) (Overlay, error) {
	if s.step == StepLayout {
		return Overlay{}, fmt.Errorf("%w: add overlay in %s", ErrInvalidTransition, s.step)
	}
	if _, ok := catalog.StickerByID(stickerID); !ok {
		return Overlay{}, fmt.Errorf("unknown sticker: %s", stickerID)
	}
	id, err := common.NewID()
	if err != nil {
		return Overlay{}, fmt.Errorf("failed to generate overlay id: %w", err)
	}
	overlay := Overlay{
		ID:        id,
		StickerID: stickerID,
		X:         canvasWidth / 2,
		Y:         canvasHeight / 2,
		Scale:     defaultScale,
	}
	s.overlays = append(s.overlays, overlay)
	return overlay, nil
}

// MoveOverlay repositions an overlay, clamping the coordinates onto the
// logical canvas.
func (s *Session) MoveOverlay(id string, x, y float64) error {
	if s.step == StepLayout {
		return fmt.Errorf("%w: move overlay in %s", ErrInvalidTransition, s.step)
	}
	for i := range s.overlays {
		if s.overlays[i].ID == id {
			s.overlays[i].X = clamp(x, 0, canvasWidth)
			s.overlays[i].Y = clamp(y, 0, canvasHeight)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrOverlayNotFound, id)
}

// RemoveOverlay deletes an overlay by id.
func (s *Session) RemoveOverlay(id string) error {
	if s.step == StepLayout {
		return fmt.Errorf("%w: remove overlay in %s", ErrInvalidTransition, s.step)
	}
	for i := range s.overlays {
		if s.overlays[i].ID == id {
			s.overlays = append(s.overlays[:i], s.overlays[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrOverlayNotFound, id)
}

// AppendFrame stores a captured frame. Only legal while capturing and before
// the sequence is complete.
func (s *Session) AppendFrame(frame []byte) error {
	if s.step != StepCapture {
		return fmt.Errorf("%w: append frame in %s", ErrInvalidTransition, s.step)
	}
	if len(s.frames) >= s.layout.ShotCount() {
		return ErrSequenceComplete
	}
	s.frames = append(s.frames, frame)
	return nil
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
