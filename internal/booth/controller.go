// Package booth drives one capture flow end to end: it owns the camera
// lifecycle, the session state machine, the timed capture sequence and the
// terminal save path into the persistence gateway.
package booth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jo-hoe/gobooth/internal/backend/persistence"
	"github.com/jo-hoe/gobooth/internal/booth/camera"
	"github.com/jo-hoe/gobooth/internal/booth/catalog"
	"github.com/jo-hoe/gobooth/internal/booth/compositor"
	"github.com/jo-hoe/gobooth/internal/booth/sequencer"
	"github.com/jo-hoe/gobooth/internal/booth/session"
)

// ErrCaptureInProgress indicates a timed capture sequence is running and the
// requested action has to wait for it.
var ErrCaptureInProgress = errors.New("capture sequence in progress")

// ErrCameraNotReady indicates the camera has not delivered a frame yet.
var ErrCameraNotReady = errors.New("camera is not ready")

// Gateway is the slice of the persistence layer the controller needs for the
// terminal save path.
type Gateway interface {
	IssueUploadDestination(ctx context.Context, ownerID string) (*persistence.Destination, error)
	Transfer(ctx context.Context, ticketID string, blob []byte) (string, error)
	CreateRecord(ctx context.Context, ownerID string, input persistence.RecordInput) (string, error)
}

// Status is a point-in-time snapshot of the flow, served to polling clients.
type Status struct {
	Step          string            `json:"step"`
	LayoutID      string            `json:"layoutId,omitempty"`
	FilterID      string            `json:"filterId"`
	FrameID       string            `json:"frameId"`
	Overlays      []session.Overlay `json:"overlays"`
	CameraReady   bool              `json:"cameraReady"`
	CameraError   string            `json:"cameraError,omitempty"`
	Capturing     bool              `json:"capturing"`
	Countdown     int               `json:"countdown"`
	Flash         bool              `json:"flash"`
	ShotsTaken    int               `json:"shotsTaken"`
	ShotsRequired int               `json:"shotsRequired"`
	Saving        bool              `json:"saving"`
	SaveError     string            `json:"saveError,omitempty"`
}

// Controller serializes all session mutations behind one mutex; the capture
// goroutine re-enters through the same lock at every suspension point.
type Controller struct {
	mu sync.Mutex

	session    *session.Session
	camera     camera.Source
	compositor *compositor.Compositor
	sequencer  *sequencer.Sequencer
	gateway    Gateway

	// baseCtx bounds background work, camera acquisition in particular, to
	// the controller's lifetime rather than to any caller's request.
	baseCtx    context.Context
	baseCancel context.CancelFunc

	cameraReady bool
	cameraErr   error

	capturing     bool
	captureCancel context.CancelFunc
	countdown     int
	flashUntil    time.Time
	saving        bool
	saveErr       error
}

// NewController wires the flow components together. The camera stays closed
// until the flow first leaves the layout step.
func NewController(source camera.Source, comp *compositor.Compositor, seq *sequencer.Sequencer, gateway Gateway) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		session:    session.New(),
		camera:     source,
		compositor: comp,
		sequencer:  seq,
		gateway:    gateway,
		baseCtx:    ctx,
		baseCancel: cancel,
	}
}

// Status reports the current flow state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := Status{
		Step:          c.session.Step().String(),
		FilterID:      c.session.FilterID(),
		FrameID:       c.session.FrameID(),
		Overlays:      c.session.Overlays(),
		CameraReady:   c.cameraReady && c.camera.Ready(),
		Capturing:     c.capturing,
		Countdown:     c.countdown,
		Flash:         time.Now().Before(c.flashUntil),
		ShotsTaken:    len(c.session.Frames()),
		ShotsRequired: c.session.ShotCount(),
		Saving:        c.saving,
	}
	if layout, ok := c.session.Layout(); ok {
		status.LayoutID = layout.ID
	}
	if c.cameraErr != nil {
		status.CameraError = c.cameraErr.Error()
	}
	if c.saveErr != nil {
		status.SaveError = c.saveErr.Error()
	}
	return status
}

// SelectLayout moves the flow to customize and starts acquiring the camera in
// the background. Acquisition failures never fail the transition; they are
// surfaced on the status with a retry affordance.
func (c *Controller) SelectLayout(layoutID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.session.SelectLayout(layoutID); err != nil {
		return err
	}
	c.acquireCameraLocked()
	return nil
}

// RetryCamera re-attempts acquisition after a failure without touching any
// session state.
func (c *Controller) RetryCamera() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Step() == session.StepLayout {
		return fmt.Errorf("%w: no active flow", ErrCameraNotReady)
	}
	c.acquireCameraLocked()
	return nil
}

// acquireCameraLocked opens the camera in a background goroutine so slow
// device warm-up never blocks the caller. The acquisition runs on the
// controller's own context; request contexts are canceled as soon as the
// triggering handler returns.
func (c *Controller) acquireCameraLocked() {
	c.cameraErr = nil
	c.cameraReady = false

	go func() {
		err := c.camera.Open(c.baseCtx)

		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			slog.Warn("booth: camera acquisition failed", "error", err)
			c.cameraErr = err
			return
		}
		c.cameraReady = true
	}()
}

// SetFilter selects the preview filter.
func (c *Controller) SetFilter(filterID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.SetFilter(filterID)
}

// SetFrame selects the collage frame.
func (c *Controller) SetFrame(frameID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.SetFrame(frameID)
}

// AddOverlay places a sticker at the canvas center.
func (c *Controller) AddOverlay(stickerID string) (session.Overlay, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.AddOverlay(stickerID)
}

// MoveOverlay repositions a placed sticker.
func (c *Controller) MoveOverlay(id string, x, y float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.MoveOverlay(id, x, y)
}

// RemoveOverlay removes a placed sticker.
func (c *Controller) RemoveOverlay(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.RemoveOverlay(id)
}

// StartCapture launches the timed shot sequence for the given owner. The
// camera must have delivered at least one frame.
func (c *Controller) StartCapture(ownerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capturing || c.saving {
		return ErrCaptureInProgress
	}
	if !c.camera.Ready() {
		if c.cameraErr != nil {
			return c.cameraErr
		}
		return ErrCameraNotReady
	}
	if err := c.session.StartCapture(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(c.baseCtx)
	c.capturing = true
	c.captureCancel = cancel
	c.saveErr = nil
	c.countdown = 0

	shotCount := c.session.ShotCount()
	filterID := c.session.FilterID()
	placements := c.placementsLocked()

	go c.runCapture(ctx, ownerID, shotCount, filterID, placements)
	return nil
}

// Back steps backwards through the flow. A running capture is canceled at its
// next suspension point before the state transition applies.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.saving {
		return ErrCaptureInProgress
	}
	if c.capturing && c.captureCancel != nil {
		c.captureCancel()
		c.capturing = false
		c.countdown = 0
	}

	wasCustomize := c.session.Step() == session.StepCustomize
	if err := c.session.Back(); err != nil {
		return err
	}
	if wasCustomize {
		// Leaving the flow entirely tears down the acquisition.
		c.releaseCameraLocked()
	}
	return nil
}

// Close cancels any running capture and releases the camera.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.captureCancel != nil {
		c.captureCancel()
	}
	c.baseCancel()
	c.releaseCameraLocked()
	return nil
}

func (c *Controller) releaseCameraLocked() {
	if err := c.camera.Close(); err != nil {
		slog.Warn("booth: camera close failed", "error", err)
	}
	c.cameraReady = false
	c.cameraErr = nil
}

func (c *Controller) placementsLocked() []compositor.Placement {
	overlays := c.session.Overlays()
	placements := make([]compositor.Placement, 0, len(overlays))
	for _, overlay := range overlays {
		placements = append(placements, compositor.Placement{
			Glyph: overlay.StickerID,
			X:     overlay.X,
			Y:     overlay.Y,
			Scale: overlay.Scale,
		})
	}
	return placements
}

// runCapture is the capture goroutine: it runs the sequencer and, when the
// full sequence completed, the terminal save path.
func (c *Controller) runCapture(ctx context.Context, ownerID string, shotCount int, filterID string, placements []compositor.Placement) {
	_, err := c.sequencer.Run(ctx, shotCount, sequencer.Hooks{
		Countdown: func(remaining int) {
			c.mu.Lock()
			c.countdown = remaining
			c.mu.Unlock()
		},
		Flash: func() {
			c.mu.Lock()
			c.flashUntil = time.Now().Add(300 * time.Millisecond)
			c.mu.Unlock()
		},
		Snapshot: func(ctx context.Context) ([]byte, error) {
			frame, err := c.camera.Frame()
			if err != nil {
				return nil, err
			}
			return c.compositor.Snapshot(frame, filterID, placements)
		},
		Shot: func(index int, image []byte) {
			c.mu.Lock()
			if err := c.session.AppendFrame(image); err != nil {
				slog.Warn("booth: dropping shot", "shot", index, "error", err)
			}
			c.mu.Unlock()
		},
	})

	c.mu.Lock()
	c.capturing = false
	c.countdown = 0
	complete := err == nil && c.session.Complete()
	if complete {
		c.saving = true
	}
	c.mu.Unlock()

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Warn("booth: capture sequence aborted", "error", err)
			c.mu.Lock()
			c.saveErr = err
			c.mu.Unlock()
		}
		return
	}
	if !complete {
		return
	}

	c.save(ctx, ownerID)
}

// save composes the collage and walks the save path. Any failure aborts the
// whole save: no record is created and the session stays in capture with its
// frames intact so the user can retry.
func (c *Controller) save(ctx context.Context, ownerID string) {
	err := c.trySave(ctx, ownerID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.saving = false
	if err != nil {
		slog.Error("booth: save failed", "error", err)
		c.saveErr = err
		return
	}
	c.session.Reset()
	c.releaseCameraLocked()
}

func (c *Controller) trySave(ctx context.Context, ownerID string) error {
	c.mu.Lock()
	layout, ok := c.session.Layout()
	frames := c.session.Frames()
	filterID := c.session.FilterID()
	frameID := c.session.FrameID()
	overlays := c.session.Overlays()
	c.mu.Unlock()
	if !ok {
		return errors.New("no layout selected")
	}

	frame, ok := catalog.FrameByID(frameID)
	if !ok {
		return fmt.Errorf("unknown frame: %s", frameID)
	}
	collage, err := c.compositor.Collage(frames, layout, frame)
	if err != nil {
		return err
	}

	destination, err := c.gateway.IssueUploadDestination(ctx, ownerID)
	if err != nil {
		return err
	}
	ref, err := c.gateway.Transfer(ctx, destination.TicketID, collage)
	if err != nil {
		return err
	}
	recordID, err := c.gateway.CreateRecord(ctx, ownerID, persistence.RecordInput{
		StorageRef: ref,
		Filename:   fmt.Sprintf("photobooth-%d.png", time.Now().UnixMilli()),
		FilterID:   filterID,
		FrameID:    frameID,
		Overlays:   overlays,
	})
	if err != nil {
		return err
	}

	slog.Info("booth: collage saved", "record", recordID, "owner", ownerID, "shots", len(frames))
	return nil
}
