package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"

	"github.com/jo-hoe/gobooth/internal/common"
	"github.com/jo-hoe/gobooth/internal/core"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	mr := miniredis.RunT(t)
	config := &core.ServiceConfig{
		Port: 8080,
		Database: core.Database{
			Type:             "sqlite",
			ConnectionString: ":memory:",
		},
		Storage: core.Storage{
			Type:    "redis",
			Address: mr.Addr(),
		},
		Camera: core.Camera{Type: "fake"},
		Capture: core.Capture{
			CountdownFrom: 3,
			Tick:          common.Duration(time.Microsecond),
			Pause:         common.Duration(time.Microsecond),
		},
		ThumbnailWidth: 320,
	}

	coreService := core.NewCoreService(config)
	t.Cleanup(func() { _ = coreService.Close() })

	e := echo.New()
	e.Validator = &common.GenericEchoValidator{}
	NewAPIService(config, coreService).SetRoutes(e)
	return e
}

func doJSON(e *echo.Echo, method, path, owner string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		encoded, _ := json.Marshal(body)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if owner != "" {
		req.Header.Set(OwnerHeader, owner)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestProbe(t *testing.T) {
	e := newTestServer(t)
	rec := doJSON(e, http.MethodGet, "/probe", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("probe status = %d", rec.Code)
	}
}

func TestCatalog(t *testing.T) {
	e := newTestServer(t)
	rec := doJSON(e, http.MethodGet, "/api/catalog", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("catalog status = %d", rec.Code)
	}

	var response catalogResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("catalog response not valid JSON: %v", err)
	}
	if len(response.Layouts) != 4 {
		t.Errorf("layouts = %d, want 4", len(response.Layouts))
	}
	if len(response.Filters) != 5 {
		t.Errorf("filters = %d, want 5", len(response.Filters))
	}
	if len(response.Frames) != 10 {
		t.Errorf("frames = %d, want 10", len(response.Frames))
	}
	if len(response.Stickers) != 15 {
		t.Errorf("stickers = %d, want 15", len(response.Stickers))
	}
}

func TestSessionFlowOverHTTP(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/api/session", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("session status = %d", rec.Code)
	}
	var status map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("status not valid JSON: %v", err)
	}
	if status["step"] != "layout" {
		t.Errorf("initial step = %v, want layout", status["step"])
	}

	rec = doJSON(e, http.MethodPost, "/api/session/layout", "", map[string]string{"layoutId": "2x2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("select layout status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(e, http.MethodPost, "/api/session/filter", "", map[string]string{"filterId": "sepia"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("set filter status = %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(e, http.MethodPost, "/api/session/frame", "", map[string]string{"frameId": "heart"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("set frame status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(e, http.MethodPost, "/api/session/overlays", "", map[string]string{"stickerId": "star"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add overlay status = %d: %s", rec.Code, rec.Body.String())
	}
	var overlay overlayResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &overlay); err != nil {
		t.Fatalf("overlay response not valid JSON: %v", err)
	}
	if overlay.X != 320 || overlay.Y != 240 {
		t.Errorf("overlay not centered: (%v, %v)", overlay.X, overlay.Y)
	}

	rec = doJSON(e, http.MethodPut, "/api/session/overlays/"+overlay.ID, "", map[string]float64{"x": 9999, "y": -5})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("move overlay status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(e, http.MethodDelete, "/api/session/overlays/"+overlay.ID, "", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("remove overlay status = %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(e, http.MethodDelete, "/api/session/overlays/"+overlay.ID, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("double remove status = %d, want 404", rec.Code)
	}

	rec = doJSON(e, http.MethodPost, "/api/session/back", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("back status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSelectLayout_Validation(t *testing.T) {
	e := newTestServer(t)
	rec := doJSON(e, http.MethodPost, "/api/session/layout", "", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing layoutId status = %d, want 400", rec.Code)
	}
}

func TestStartCapture_RequiresOwner(t *testing.T) {
	e := newTestServer(t)
	rec := doJSON(e, http.MethodPost, "/api/session/start", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("start without owner status = %d, want 401", rec.Code)
	}
}

func uploadBlob(t *testing.T, e *echo.Echo, owner string, blob []byte) string {
	t.Helper()

	rec := doJSON(e, http.MethodPost, "/api/uploads", owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("issue upload status = %d: %s", rec.Code, rec.Body.String())
	}
	var destination uploadDestinationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &destination); err != nil {
		t.Fatalf("upload destination not valid JSON: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, destination.URL, bytes.NewReader(blob))
	req.Header.Set(echo.HeaderContentType, mimePNG)
	uploadRec := httptest.NewRecorder()
	e.ServeHTTP(uploadRec, req)
	if uploadRec.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", uploadRec.Code, uploadRec.Body.String())
	}
	var response uploadResponse
	if err := json.Unmarshal(uploadRec.Body.Bytes(), &response); err != nil {
		t.Fatalf("upload response not valid JSON: %v", err)
	}
	return response.StorageRef
}

func TestPhotoLifecycleOverHTTP(t *testing.T) {
	e := newTestServer(t)

	ref := uploadBlob(t, e, "alice", []byte("collage bytes"))

	rotation := 15.0
	rec := doJSON(e, http.MethodPost, "/api/photos", "alice", createPhotoRequest{
		StorageRef: ref,
		Filename:   "photobooth-1.png",
		Filter:     "sepia",
		FrameID:    "heart",
		Overlays: []overlayDTO{
			{Type: "star", X: 10, Y: 20, Scale: 1},
			{Type: "heart", X: 30, Y: 40, Scale: 2, Rotation: &rotation},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create photo status = %d: %s", rec.Code, rec.Body.String())
	}
	var created createPhotoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("create response not valid JSON: %v", err)
	}

	rec = doJSON(e, http.MethodGet, "/api/photos", "alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var photos []photoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &photos); err != nil {
		t.Fatalf("list response not valid JSON: %v", err)
	}
	if len(photos) != 1 {
		t.Fatalf("expected 1 photo, got %d", len(photos))
	}
	if photos[0].Filter != "sepia" || photos[0].FrameID != "heart" {
		t.Errorf("photo selections wrong: %+v", photos[0])
	}
	if photos[0].URL == "" {
		t.Errorf("photo URL not resolved")
	}

	// The resolved URL serves the blob.
	rec = doJSON(e, http.MethodGet, photos[0].URL, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("media status = %d", rec.Code)
	}
	if rec.Body.String() != "collage bytes" {
		t.Errorf("media body = %q", rec.Body.String())
	}

	rec = doJSON(e, http.MethodGet, fmt.Sprintf("/api/photos/%s/share", created.ID), "alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("share status = %d: %s", rec.Code, rec.Body.String())
	}
	var share shareResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &share); err != nil {
		t.Fatalf("share response not valid JSON: %v", err)
	}
	if share.URL != photos[0].URL {
		t.Errorf("share URL = %q, want %q", share.URL, photos[0].URL)
	}

	// Other owners cannot see or delete the photo.
	rec = doJSON(e, http.MethodGet, "/api/photos", "bob", nil)
	var bobsPhotos []photoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &bobsPhotos); err != nil {
		t.Fatalf("list response not valid JSON: %v", err)
	}
	if len(bobsPhotos) != 0 {
		t.Errorf("bob sees alice's photos")
	}
	rec = doJSON(e, http.MethodDelete, "/api/photos/"+created.ID, "bob", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("cross-owner delete status = %d, want 404", rec.Code)
	}

	rec = doJSON(e, http.MethodDelete, "/api/photos/"+created.ID, "alice", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(e, http.MethodGet, "/api/photos", "alice", nil)
	var after []photoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &after); err != nil {
		t.Fatalf("list response not valid JSON: %v", err)
	}
	if len(after) != 0 {
		t.Errorf("photo still listed after delete")
	}
}

func TestUpload_UnknownTicket(t *testing.T) {
	e := newTestServer(t)
	req := httptest.NewRequest(http.MethodPut, "/upload/ghost", bytes.NewReader([]byte("x")))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("upload with unknown ticket status = %d, want 404", rec.Code)
	}
}

func TestUpload_EmptyBody(t *testing.T) {
	e := newTestServer(t)
	req := httptest.NewRequest(http.MethodPut, "/upload/some-ticket", bytes.NewReader(nil))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty upload status = %d, want 400", rec.Code)
	}
}

func TestListPhotos_NoOwnerYieldsEmptyList(t *testing.T) {
	e := newTestServer(t)
	rec := doJSON(e, http.MethodGet, "/api/photos", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list without owner status = %d, want 200", rec.Code)
	}
	var photos []photoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &photos); err != nil {
		t.Fatalf("list response not valid JSON: %v", err)
	}
	if len(photos) != 0 {
		t.Errorf("expected empty list, got %d", len(photos))
	}
}

func TestCreatePhoto_RequiresOwner(t *testing.T) {
	e := newTestServer(t)
	rec := doJSON(e, http.MethodPost, "/api/photos", "", createPhotoRequest{
		StorageRef: "ref",
		Filename:   "p.png",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("create without owner status = %d, want 401", rec.Code)
	}
}

func TestMedia_Unknown(t *testing.T) {
	e := newTestServer(t)
	rec := doJSON(e, http.MethodGet, "/media/ghost", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown media status = %d, want 404", rec.Code)
	}
}
