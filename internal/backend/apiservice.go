// Package backend serves the JSON API of the booth: catalog, session flow,
// uploads and the photo gallery. Owner identity arrives in the X-Booth-User
// header, installed by the fronting auth layer.
package backend

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jo-hoe/gobooth/internal/backend/persistence"
	"github.com/jo-hoe/gobooth/internal/backend/storage"
	"github.com/jo-hoe/gobooth/internal/booth"
	"github.com/jo-hoe/gobooth/internal/booth/camera"
	"github.com/jo-hoe/gobooth/internal/booth/catalog"
	"github.com/jo-hoe/gobooth/internal/booth/session"
	"github.com/jo-hoe/gobooth/internal/core"
)

// OwnerHeader carries the authenticated user id.
const OwnerHeader = "X-Booth-User"

const mimePNG = "image/png"

type APIService struct {
	config      *core.ServiceConfig
	coreService *core.CoreService
}

func NewAPIService(config *core.ServiceConfig, coreService *core.CoreService) *APIService {
	return &APIService{
		config:      config,
		coreService: coreService,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	// Probe route, skipped by the request logger
	e.GET("/probe", func(ctx echo.Context) error {
		return ctx.String(http.StatusOK, "Booth service is running")
	})

	e.GET("/api/catalog", s.catalogHandler)

	e.GET("/api/session", s.sessionStatusHandler)
	e.POST("/api/session/layout", s.selectLayoutHandler)
	e.POST("/api/session/start", s.startCaptureHandler)
	e.POST("/api/session/back", s.backHandler)
	e.POST("/api/session/camera/retry", s.retryCameraHandler)
	e.POST("/api/session/filter", s.setFilterHandler)
	e.POST("/api/session/frame", s.setFrameHandler)
	e.POST("/api/session/overlays", s.addOverlayHandler)
	e.PUT("/api/session/overlays/:id", s.moveOverlayHandler)
	e.DELETE("/api/session/overlays/:id", s.removeOverlayHandler)

	e.POST("/api/uploads", s.issueUploadHandler)
	e.PUT("/upload/:ticket", s.uploadHandler)

	e.POST("/api/photos", s.createPhotoHandler)
	e.GET("/api/photos", s.listPhotosHandler)
	e.GET("/api/photos/:id/share", s.sharePhotoHandler)
	e.DELETE("/api/photos/:id", s.deletePhotoHandler)

	e.GET("/media/:ref", s.mediaHandler)
}

func ownerID(ctx echo.Context) string {
	return ctx.Request().Header.Get(OwnerHeader)
}

// requireOwner rejects mutating requests without an identity.
func requireOwner(ctx echo.Context) (string, error) {
	owner := ownerID(ctx)
	if owner == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return owner, nil
}

// httpError maps the domain error taxonomy onto status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrUnauthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, persistence.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "photo not found")
	case errors.Is(err, storage.ErrTicketNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "upload ticket not found or expired")
	case errors.Is(err, storage.ErrBlobNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "media not found")
	case errors.Is(err, persistence.ErrTransferFailed):
		return echo.NewHTTPError(http.StatusBadGateway, "transfer failed")
	case errors.Is(err, booth.ErrCaptureInProgress):
		return echo.NewHTTPError(http.StatusConflict, "capture sequence in progress")
	case errors.Is(err, session.ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrOverlayNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "overlay not found")
	case errors.Is(err, booth.ErrCameraNotReady),
		errors.Is(err, camera.ErrNotReady),
		errors.Is(err, camera.ErrTimeout),
		errors.Is(err, camera.ErrBusy),
		errors.Is(err, camera.ErrNoDevice),
		errors.Is(err, camera.ErrPermissionDenied),
		errors.Is(err, camera.ErrNotSupported):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

type catalogResponse struct {
	Layouts  []catalog.Layout        `json:"layouts"`
	Filters  []catalog.Filter        `json:"filters"`
	Frames   []catalog.FrameTemplate `json:"frames"`
	Stickers []catalog.Sticker       `json:"stickers"`
}

func (s *APIService) catalogHandler(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, catalogResponse{
		Layouts:  catalog.Layouts(),
		Filters:  catalog.Filters(),
		Frames:   catalog.Frames(),
		Stickers: catalog.Stickers(),
	})
}

func (s *APIService) sessionStatusHandler(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.coreService.Controller().Status())
}

type selectLayoutRequest struct {
	LayoutID string `json:"layoutId" validate:"required"`
}

func (s *APIService) selectLayoutHandler(ctx echo.Context) error {
	var request selectLayoutRequest
	if err := ctx.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := ctx.Validate(&request); err != nil {
		return err
	}
	if err := s.coreService.Controller().SelectLayout(request.LayoutID); err != nil {
		return httpError(err)
	}
	return ctx.JSON(http.StatusOK, s.coreService.Controller().Status())
}

func (s *APIService) startCaptureHandler(ctx echo.Context) error {
	owner, err := requireOwner(ctx)
	if err != nil {
		return err
	}
	if err := s.coreService.Controller().StartCapture(owner); err != nil {
		return httpError(err)
	}
	return ctx.JSON(http.StatusOK, s.coreService.Controller().Status())
}

func (s *APIService) backHandler(ctx echo.Context) error {
	if err := s.coreService.Controller().Back(); err != nil {
		return httpError(err)
	}
	return ctx.JSON(http.StatusOK, s.coreService.Controller().Status())
}

func (s *APIService) retryCameraHandler(ctx echo.Context) error {
	if err := s.coreService.Controller().RetryCamera(); err != nil {
		return httpError(err)
	}
	return ctx.JSON(http.StatusOK, s.coreService.Controller().Status())
}

type setFilterRequest struct {
	FilterID string `json:"filterId"`
}

func (s *APIService) setFilterHandler(ctx echo.Context) error {
	var request setFilterRequest
	if err := ctx.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := s.coreService.Controller().SetFilter(request.FilterID); err != nil {
		return httpError(err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

type setFrameRequest struct {
	FrameID string `json:"frameId" validate:"required"`
}

func (s *APIService) setFrameHandler(ctx echo.Context) error {
	var request setFrameRequest
	if err := ctx.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := ctx.Validate(&request); err != nil {
		return err
	}
	if err := s.coreService.Controller().SetFrame(request.FrameID); err != nil {
		return httpError(err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

type addOverlayRequest struct {
	StickerID string `json:"stickerId" validate:"required"`
}

type overlayResponse struct {
	ID        string  `json:"id"`
	StickerID string  `json:"stickerId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Scale     float64 `json:"scale"`
}

func (s *APIService) addOverlayHandler(ctx echo.Context) error {
	var request addOverlayRequest
	if err := ctx.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := ctx.Validate(&request); err != nil {
		return err
	}
	overlay, err := s.coreService.Controller().AddOverlay(request.StickerID)
	if err != nil {
		return httpError(err)
	}
	return ctx.JSON(http.StatusCreated, overlayResponse{
		ID:        overlay.ID,
		StickerID: overlay.StickerID,
		X:         overlay.X,
		Y:         overlay.Y,
		Scale:     overlay.Scale,
	})
}

type moveOverlayRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (s *APIService) moveOverlayHandler(ctx echo.Context) error {
	var request moveOverlayRequest
	if err := ctx.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := s.coreService.Controller().MoveOverlay(ctx.Param("id"), request.X, request.Y); err != nil {
		return httpError(err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (s *APIService) removeOverlayHandler(ctx echo.Context) error {
	if err := s.coreService.Controller().RemoveOverlay(ctx.Param("id")); err != nil {
		return httpError(err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

type uploadDestinationResponse struct {
	TicketID  string    `json:"ticketId"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *APIService) issueUploadHandler(ctx echo.Context) error {
	owner, err := requireOwner(ctx)
	if err != nil {
		return err
	}
	destination, err := s.coreService.Gateway().IssueUploadDestination(ctx.Request().Context(), owner)
	if err != nil {
		return httpError(err)
	}
	return ctx.JSON(http.StatusOK, uploadDestinationResponse{
		TicketID:  destination.TicketID,
		URL:       destination.URL,
		ExpiresAt: destination.ExpiresAt,
	})
}

type uploadResponse struct {
	StorageRef string `json:"storageRef"`
}

func (s *APIService) uploadHandler(ctx echo.Context) error {
	blob, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read upload body")
	}
	if len(blob) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "empty upload body")
	}
	ref, err := s.coreService.Gateway().Transfer(ctx.Request().Context(), ctx.Param("ticket"), blob)
	if err != nil {
		return httpError(err)
	}
	return ctx.JSON(http.StatusOK, uploadResponse{StorageRef: ref})
}

// overlayDTO is the wire shape of a stored overlay. Rotation is stored but
// not consumed by any rendering path.
type overlayDTO struct {
	Type     string   `json:"type" validate:"required"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Scale    float64  `json:"scale"`
	Rotation *float64 `json:"rotation,omitempty"`
}

type createPhotoRequest struct {
	StorageRef string       `json:"storageRef" validate:"required"`
	Filename   string       `json:"filename" validate:"required"`
	Filter     string       `json:"filter,omitempty"`
	FrameID    string       `json:"frameId,omitempty"`
	Overlays   []overlayDTO `json:"overlays,omitempty" validate:"dive"`
}

type createPhotoResponse struct {
	ID string `json:"id"`
}

func (s *APIService) createPhotoHandler(ctx echo.Context) error {
	owner, err := requireOwner(ctx)
	if err != nil {
		return err
	}
	var request createPhotoRequest
	if err := ctx.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := ctx.Validate(&request); err != nil {
		return err
	}

	overlays := make([]session.Overlay, 0, len(request.Overlays))
	for _, overlay := range request.Overlays {
		overlays = append(overlays, session.Overlay{
			StickerID: overlay.Type,
			X:         overlay.X,
			Y:         overlay.Y,
			Scale:     overlay.Scale,
			Rotation:  overlay.Rotation,
		})
	}

	id, err := s.coreService.Gateway().CreateRecord(ctx.Request().Context(), owner, persistence.RecordInput{
		StorageRef: request.StorageRef,
		Filename:   request.Filename,
		FilterID:   request.Filter,
		FrameID:    request.FrameID,
		Overlays:   overlays,
	})
	if err != nil {
		return httpError(err)
	}
	return ctx.JSON(http.StatusCreated, createPhotoResponse{ID: id})
}

type photoResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Filename  string    `json:"filename"`
	Filter    string    `json:"filter,omitempty"`
	FrameID   string    `json:"frameId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toPhotoResponse(view persistence.PhotoView) photoResponse {
	return photoResponse{
		ID:        view.Record.ID,
		URL:       view.URL,
		Filename:  view.Record.Filename,
		Filter:    view.Record.Filter,
		FrameID:   view.Record.FrameID,
		CreatedAt: view.Record.CreatedAt,
	}
}

func (s *APIService) listPhotosHandler(ctx echo.Context) error {
	// Reads without an identity yield an empty gallery, not an error.
	views, err := s.coreService.Gateway().ListRecords(ctx.Request().Context(), ownerID(ctx))
	if err != nil {
		slog.Error("listPhotosHandler: failed to list photos",
			"status", http.StatusInternalServerError, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list photos")
	}
	photos := make([]photoResponse, 0, len(views))
	for _, view := range views {
		photos = append(photos, toPhotoResponse(view))
	}
	return ctx.JSON(http.StatusOK, photos)
}

type shareResponse struct {
	URL string `json:"url"`
}

func (s *APIService) sharePhotoHandler(ctx echo.Context) error {
	owner, err := requireOwner(ctx)
	if err != nil {
		return err
	}
	view, err := s.coreService.Gateway().GetRecord(ctx.Request().Context(), owner, ctx.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return ctx.JSON(http.StatusOK, shareResponse{URL: view.URL})
}

func (s *APIService) deletePhotoHandler(ctx echo.Context) error {
	owner, err := requireOwner(ctx)
	if err != nil {
		return err
	}
	if err := s.coreService.Gateway().DeleteRecord(ctx.Request().Context(), owner, ctx.Param("id")); err != nil {
		return httpError(err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (s *APIService) mediaHandler(ctx echo.Context) error {
	blob, err := s.coreService.Gateway().FetchBlob(ctx.Request().Context(), ctx.Param("ref"))
	if err != nil {
		return httpError(err)
	}
	return ctx.Blob(http.StatusOK, mimePNG, blob)
}
