package frontend

import (
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jo-hoe/gobooth/internal/backend"
	"github.com/jo-hoe/gobooth/internal/booth/catalog"
	"github.com/jo-hoe/gobooth/internal/booth/compositor"
	"github.com/jo-hoe/gobooth/internal/core"
)

const (
	MainPageName = "index.html"
	mimePNG      = "image/png"
	mimeSVG      = "image/svg+xml"
)

type FrontendService struct {
	coreService *core.CoreService
	config      *core.ServiceConfig
}

func NewFrontendService(config *core.ServiceConfig, coreService *core.CoreService) *FrontendService {
	return &FrontendService{
		coreService: coreService,
		config:      config,
	}
}

// rootRedirectHandler redirects root path to index.html
func (service *FrontendService) rootRedirectHandler(ctx echo.Context) error {
	return ctx.Redirect(http.StatusMovedPermanently, "/"+MainPageName)
}

func (service *FrontendService) SetRoutes(e *echo.Echo) {
	// Create template renderer
	e.Renderer = &Template{
		templates: template.Must(template.New("").ParseFS(templateFS, viewsPattern)),
	}

	e.GET("/", service.rootRedirectHandler) // Redirect root to index.html
	e.GET("/"+MainPageName, service.indexHandler)

	// Routes for listing, fetching thumbnails, and deleting photos
	e.GET("/htmx/photos", service.htmxListPhotosHandler)
	e.GET("/htmx/photo/thumb/:id", service.htmxPhotoThumbnailHandler)
	e.DELETE("/htmx/photo/:id", service.htmxDeletePhotoHandler)

	// Favicon (SVG) route
	e.GET("/icon.svg", service.iconHandler)
}

type indexData struct {
	Layouts  []catalog.Layout
	Filters  []catalog.Filter
	Frames   []catalog.FrameTemplate
	Stickers []catalog.Sticker
}

func (service *FrontendService) indexHandler(ctx echo.Context) error {
	return ctx.Render(http.StatusOK, MainPageName, indexData{
		Layouts:  catalog.Layouts(),
		Filters:  catalog.Filters(),
		Frames:   catalog.Frames(),
		Stickers: catalog.Stickers(),
	})
}

func (service *FrontendService) htmxListPhotosHandler(ctx echo.Context) error {
	listHTML, err := service.buildPhotoListHTML(ctx, service.timestampNanoStr())
	if err != nil {
		slog.Error("htmxListPhotosHandler: failed to list photos",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to list photos")
	}

	// Prevent caching so the latest photos are always shown
	service.setNoCache(ctx)

	return ctx.HTML(http.StatusOK, listHTML)
}

func (service *FrontendService) htmxPhotoThumbnailHandler(ctx echo.Context) error {
	id := ctx.Param("id")
	if id == "" {
		slog.Warn("htmxPhotoThumbnailHandler: missing photo id",
			"status", http.StatusBadRequest,
			"route", "/htmx/photo/thumb/:id")
		return ctx.String(http.StatusBadRequest, "Missing photo ID")
	}

	view, err := service.coreService.Gateway().GetRecord(ctx.Request().Context(), service.ownerID(ctx), id)
	if err != nil {
		slog.Warn("htmxPhotoThumbnailHandler: photo not available",
			"status", http.StatusNotFound, "photo_id", id, "error", err)
		return ctx.String(http.StatusNotFound, "Photo not available")
	}
	blob, err := service.coreService.Gateway().FetchBlob(ctx.Request().Context(), view.Record.StorageRef)
	if err != nil {
		slog.Warn("htmxPhotoThumbnailHandler: blob not available",
			"status", http.StatusNotFound, "photo_id", id, "error", err)
		return ctx.String(http.StatusNotFound, "Photo not available")
	}
	thumbnail, err := compositor.ScaleToWidth(blob, service.config.ThumbnailWidth)
	if err != nil {
		slog.Warn("htmxPhotoThumbnailHandler: thumbnail not available",
			"status", http.StatusNotFound, "photo_id", id, "error", err)
		return ctx.String(http.StatusNotFound, "Thumbnail not available")
	}

	// Prevent caching
	service.setNoCache(ctx)

	return ctx.Blob(http.StatusOK, mimePNG, thumbnail)
}

func (service *FrontendService) htmxDeletePhotoHandler(ctx echo.Context) error {
	id := ctx.Param("id")
	if id == "" {
		slog.Warn("htmxDeletePhotoHandler: missing photo id",
			"status", http.StatusBadRequest,
			"route", "/htmx/photo/:id")
		return ctx.String(http.StatusBadRequest, "Missing photo ID")
	}

	if err := service.coreService.Gateway().DeleteRecord(ctx.Request().Context(), service.ownerID(ctx), id); err != nil {
		slog.Error("htmxDeletePhotoHandler: failed to delete photo",
			"status", http.StatusInternalServerError, "photo_id", id, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to delete photo")
	}

	// Build updated list HTML
	listHTML, err := service.buildPhotoListHTML(ctx, service.timestampNanoStr())
	if err != nil {
		slog.Error("htmxDeletePhotoHandler: failed to list photos after delete",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to list photos")
	}

	// Prevent caching so the latest state is shown
	service.setNoCache(ctx)

	// Return list HTML (to swap into #photo-list)
	return ctx.HTML(http.StatusOK, listHTML)
}

func (service *FrontendService) iconHandler(ctx echo.Context) error {
	icon, err := templateFS.ReadFile("views/icon.svg")
	if err != nil {
		slog.Error("iconHandler: failed to read icon", "error", err)
		return ctx.String(http.StatusNotFound, "Icon not available")
	}
	return ctx.Blob(http.StatusOK, mimeSVG, icon)
}

func (service *FrontendService) ownerID(ctx echo.Context) string {
	return ctx.Request().Header.Get(backend.OwnerHeader)
}

func (service *FrontendService) setNoCache(ctx echo.Context) {
	ctx.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	ctx.Response().Header().Set("Pragma", "no-cache")
	ctx.Response().Header().Set("Expires", "0")
}

func (service *FrontendService) timestampNanoStr() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

func (service *FrontendService) buildPhotoListHTML(ctx echo.Context, ts string) (string, error) {
	// Newest first, scoped to the requesting owner
	views, err := service.coreService.Gateway().ListRecords(ctx.Request().Context(), service.ownerID(ctx))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if len(views) == 0 {
		b.WriteString(`<p>No photos saved yet.</p>`)
		return b.String(), nil
	}

	b.WriteString(`<div class="photo-grid" id="photo-grid">`)
	for _, view := range views {
		record := view.Record
		// The filename is client-provided and must not end up in the
		// markup unescaped.
		filename := html.EscapeString(record.Filename)
		b.WriteString(fmt.Sprintf(`<div class="photo-card" data-id="%s"><article>
	<img src="/htmx/photo/thumb/%s?ts=%s" alt="Saved collage %s" style="max-width:100%%;height:auto">
	<footer style="display:flex;gap:0.5rem;align-items:center;flex-wrap:wrap">
		<small>%s</small>
		<div style="display:flex;gap:0.5rem">
			<a href="%s" download="%s" role="button" title="Download">Download</a>
			<button onclick="navigator.clipboard.writeText(window.location.origin + '%s')" title="Copy share link">Share</button>
			<button hx-delete="/htmx/photo/%s" hx-target="#photo-list" hx-swap="innerHTML" hx-confirm="Delete this photo?" title="Delete">Delete</button>
		</div>
	</footer>
</article></div>`,
			record.ID,
			record.ID, ts, filename,
			record.CreatedAt.Format("2006-01-02 15:04"),
			view.URL, filename,
			view.URL,
			record.ID,
		))
	}
	b.WriteString(`</div>`)
	return b.String(), nil
}
