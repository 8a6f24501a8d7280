package camera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	defaultOpenAttempts      = 50
	defaultAttemptInterval   = 100 * time.Millisecond
	defaultFirstFrameTimeout = 10 * time.Second
)

// Config describes an MJPEG (multipart/x-mixed-replace) camera endpoint, the
// transport kiosk webcams and IP cameras expose.
type Config struct {
	StreamURL string
	// OpenAttempts bounds the connect polling loop; each failed attempt
	// waits AttemptInterval before retrying.
	OpenAttempts      int
	AttemptInterval   time.Duration
	FirstFrameTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.OpenAttempts <= 0 {
		c.OpenAttempts = defaultOpenAttempts
	}
	if c.AttemptInterval <= 0 {
		c.AttemptInterval = defaultAttemptInterval
	}
	if c.FirstFrameTimeout <= 0 {
		c.FirstFrameTimeout = defaultFirstFrameTimeout
	}
	return c
}

// MJPEGSource reads a motion-JPEG stream and keeps the most recent decodable
// frame available for snapshots.
type MJPEGSource struct {
	cfg    Config
	client *http.Client

	mu      sync.Mutex
	open    bool
	ready   bool
	cancel  context.CancelFunc
	body    io.Closer
	latest  *Frame
	seq     uint64
	readErr error
}

// NewMJPEGSource creates a source for the given endpoint. The stream is not
// contacted until Open is called.
func NewMJPEGSource(cfg Config) *MJPEGSource {
	return &MJPEGSource{
		cfg:    cfg.withDefaults(),
		client: &http.Client{},
	}
}

// Open connects to the stream endpoint and waits for the first decodable
// frame. Calls while a stream is pending or active are no-ops.
func (s *MJPEGSource) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.open {
		s.mu.Unlock()
		return nil
	}
	s.open = true
	s.ready = false
	s.readErr = nil
	s.mu.Unlock()

	resp, err := s.connect(ctx)
	if err != nil {
		s.mu.Lock()
		s.open = false
		s.mu.Unlock()
		return err
	}

	boundary, err := streamBoundary(resp)
	if err != nil {
		_ = resp.Body.Close()
		s.mu.Lock()
		s.open = false
		s.mu.Unlock()
		return err
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	firstFrame := make(chan error, 1)
	go s.readLoop(streamCtx, resp.Body, boundary, firstFrame)

	s.mu.Lock()
	s.cancel = cancel
	s.body = resp.Body
	s.mu.Unlock()

	select {
	case err := <-firstFrame:
		if err != nil {
			_ = s.Close()
			return fmt.Errorf("%w: stream delivered no decodable frame: %v", ErrNotSupported, err)
		}
	case <-time.After(s.cfg.FirstFrameTimeout):
		_ = s.Close()
		return fmt.Errorf("%w: no frame within %v", ErrTimeout, s.cfg.FirstFrameTimeout)
	case <-ctx.Done():
		_ = s.Close()
		return ctx.Err()
	}

	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
	slog.Info("camera stream ready", "url", s.cfg.StreamURL)
	return nil
}

// connect polls the endpoint up to OpenAttempts times, mirroring the bounded
// wait for the video surface to become available.
func (s *MJPEGSource) connect(ctx context.Context) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < s.cfg.OpenAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(s.cfg.AttemptInterval):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.StreamURL, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid stream url %q: %v", ErrNotSupported, s.cfg.StreamURL, err)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return resp, nil
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			_ = resp.Body.Close()
			return nil, fmt.Errorf("%w: endpoint returned %s; check camera permissions", ErrPermissionDenied, resp.Status)
		case resp.StatusCode == http.StatusNotFound:
			_ = resp.Body.Close()
			return nil, fmt.Errorf("%w: endpoint returned %s; connect a camera and try again", ErrNoDevice, resp.Status)
		case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusLocked || resp.StatusCode == http.StatusServiceUnavailable:
			_ = resp.Body.Close()
			return nil, fmt.Errorf("%w: endpoint returned %s", ErrBusy, resp.Status)
		default:
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("unexpected status %s", resp.Status)
		}
	}
	return nil, fmt.Errorf("%w: gave up after %d attempts: %v", ErrTimeout, s.cfg.OpenAttempts, lastErr)
}

func streamBoundary(resp *http.Response) (string, error) {
	contentType := resp.Header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: unparseable content type %q", ErrNotSupported, contentType)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		return "", fmt.Errorf("%w: content type %q is not a multipart stream", ErrNotSupported, contentType)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return "", fmt.Errorf("%w: multipart stream without boundary", ErrNotSupported)
	}
	return boundary, nil
}

// readLoop consumes stream parts and retains the newest decodable frame.
// The first decode result (success or failure) is reported on firstFrame.
func (s *MJPEGSource) readLoop(ctx context.Context, body io.ReadCloser, boundary string, firstFrame chan<- error) {
	defer func() {
		_ = body.Close()
	}()

	reported := false
	report := func(err error) {
		if !reported {
			reported = true
			firstFrame <- err
		}
	}

	reader := multipart.NewReader(body, boundary)
	for {
		if ctx.Err() != nil {
			return
		}
		part, err := reader.NextPart()
		if err != nil {
			s.failStream(err)
			report(err)
			return
		}
		data, err := io.ReadAll(part)
		if err != nil {
			s.failStream(err)
			report(err)
			return
		}

		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			// Skip undecodable parts; the first one is fatal because it
			// tells us the stream format is wrong.
			if !reported {
				report(err)
				return
			}
			slog.Warn("camera: skipping undecodable frame", "error", err)
			continue
		}

		s.mu.Lock()
		s.seq++
		s.latest = &Frame{
			Data:      data,
			Width:     cfg.Width,
			Height:    cfg.Height,
			Timestamp: time.Now(),
			Seq:       s.seq,
		}
		s.mu.Unlock()
		report(nil)
	}
}

func (s *MJPEGSource) failStream(err error) {
	s.mu.Lock()
	s.ready = false
	s.readErr = err
	s.mu.Unlock()
}

// Frame returns the most recent decodable frame, or ErrNotReady when the
// stream has not produced one (or has failed since).
func (s *MJPEGSource) Frame() (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open || !s.ready || s.latest == nil {
		if s.readErr != nil {
			return nil, fmt.Errorf("%w: stream error: %v", ErrNotReady, s.readErr)
		}
		return nil, ErrNotReady
	}
	return s.latest, nil
}

// Ready reports whether a decodable frame is currently available.
func (s *MJPEGSource) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open && s.ready && s.latest != nil
}

// Close stops the stream and releases the connection. It is idempotent.
func (s *MJPEGSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	// Closing the body unblocks the read loop, which may be parked in a
	// blocking read that the context cancellation alone cannot interrupt.
	if s.body != nil {
		_ = s.body.Close()
		s.body = nil
	}
	s.open = false
	s.ready = false
	s.latest = nil
	return nil
}
