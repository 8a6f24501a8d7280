package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/jo-hoe/gobooth/internal/backend/database"
	"github.com/jo-hoe/gobooth/internal/backend/storage"
	"github.com/jo-hoe/gobooth/internal/booth/session"
)

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()

	mr := miniredis.RunT(t)
	blobs, err := storage.NewRedisBlobStore(mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisBlobStore error: %v", err)
	}
	t.Cleanup(func() { _ = blobs.Close() })

	records, err := database.NewPhotoStore("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("NewPhotoStore error: %v", err)
	}
	t.Cleanup(func() { _ = records.Close() })

	return NewGateway(blobs, records)
}

// saveCollage walks the full save path: destination, transfer, record.
func saveCollage(t *testing.T, g *Gateway, owner string, blob []byte, input RecordInput) string {
	t.Helper()
	ctx := context.Background()

	destination, err := g.IssueUploadDestination(ctx, owner)
	if err != nil {
		t.Fatalf("IssueUploadDestination error: %v", err)
	}
	ref, err := g.Transfer(ctx, destination.TicketID, blob)
	if err != nil {
		t.Fatalf("Transfer error: %v", err)
	}
	input.StorageRef = ref
	id, err := g.CreateRecord(ctx, owner, input)
	if err != nil {
		t.Fatalf("CreateRecord error: %v", err)
	}
	return id
}

func TestIssueUploadDestination(t *testing.T) {
	g := newTestGateway(t)

	destination, err := g.IssueUploadDestination(context.Background(), "alice")
	if err != nil {
		t.Fatalf("IssueUploadDestination error: %v", err)
	}
	if !strings.HasPrefix(destination.URL, "/upload/") {
		t.Errorf("destination URL = %q, want /upload/ prefix", destination.URL)
	}
	if destination.TicketID == "" {
		t.Errorf("expected non-empty ticket id")
	}
}

func TestIssueUploadDestination_Unauthenticated(t *testing.T) {
	g := newTestGateway(t)
	if _, err := g.IssueUploadDestination(context.Background(), ""); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("IssueUploadDestination without owner = %v, want ErrUnauthenticated", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	id := saveCollage(t, g, "alice", []byte("collage png"), RecordInput{
		Filename: "photobooth-1.png",
		FilterID: "sepia",
		FrameID:  "heart",
		Overlays: []session.Overlay{
			{ID: "session-id-1", StickerID: "star", X: 100, Y: 120, Scale: 1},
			{ID: "session-id-2", StickerID: "heart", X: 320, Y: 240, Scale: 1.5},
		},
	})

	view, err := g.GetRecord(ctx, "alice", id)
	if err != nil {
		t.Fatalf("GetRecord error: %v", err)
	}
	record := view.Record
	if record.Filter != "sepia" || record.FrameID != "heart" {
		t.Errorf("selection fields wrong: filter=%q frame=%q", record.Filter, record.FrameID)
	}

	var overlays []OverlayWire
	if err := json.Unmarshal([]byte(record.Overlays), &overlays); err != nil {
		t.Fatalf("stored overlays not valid JSON: %v", err)
	}
	if len(overlays) != 2 {
		t.Fatalf("expected 2 stored overlays, got %d", len(overlays))
	}
	if overlays[0].Type != "star" || overlays[1].Type != "heart" {
		t.Errorf("overlay types wrong: %+v", overlays)
	}
	// Transient session ids must not leak into storage.
	if strings.Contains(record.Overlays, "session-id") {
		t.Errorf("session ids leaked into stored overlays: %s", record.Overlays)
	}

	blob, err := g.FetchBlob(ctx, record.StorageRef)
	if err != nil {
		t.Fatalf("FetchBlob error: %v", err)
	}
	if string(blob) != "collage png" {
		t.Errorf("blob content = %q", blob)
	}
}

func TestCreateRecord_NormalizesAbsentSelections(t *testing.T) {
	g := newTestGateway(t)

	id := saveCollage(t, g, "alice", []byte("x"), RecordInput{
		Filename: "p.png",
		FilterID: "",
		FrameID:  "none",
	})

	view, err := g.GetRecord(context.Background(), "alice", id)
	if err != nil {
		t.Fatalf("GetRecord error: %v", err)
	}
	if view.Record.Filter != "" || view.Record.FrameID != "" {
		t.Errorf("identity selections not stored as absent: filter=%q frame=%q",
			view.Record.Filter, view.Record.FrameID)
	}
	if view.Record.Overlays != "" {
		t.Errorf("expected empty overlays, got %q", view.Record.Overlays)
	}
}

func TestTransfer_FailureCreatesNothing(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	// A ticket that was never issued fails the transfer.
	if _, err := g.Transfer(ctx, "bogus-ticket", []byte("x")); !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("Transfer with bogus ticket = %v, want ErrTransferFailed", err)
	}

	views, err := g.ListRecords(ctx, "alice")
	if err != nil {
		t.Fatalf("ListRecords error: %v", err)
	}
	if len(views) != 0 {
		t.Fatalf("failed transfer still produced %d records", len(views))
	}
}

func TestTransfer_UnknownTicketKeepsCause(t *testing.T) {
	g := newTestGateway(t)

	_, err := g.Transfer(context.Background(), "bogus-ticket", []byte("x"))
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("Transfer with bogus ticket = %v, want ErrTransferFailed", err)
	}
	// The cause stays in the chain so callers can map an invalid ticket
	// differently from a storage outage.
	if !errors.Is(err, storage.ErrTicketNotFound) {
		t.Fatalf("ticket cause missing from error chain: %v", err)
	}
}

func TestCreateRecord_StoresRotation(t *testing.T) {
	g := newTestGateway(t)
	rotation := 45.0

	id := saveCollage(t, g, "alice", []byte("x"), RecordInput{
		Filename: "p.png",
		Overlays: []session.Overlay{
			{ID: "session-id-1", StickerID: "star", X: 10, Y: 20, Scale: 1, Rotation: &rotation},
			{ID: "session-id-2", StickerID: "heart", X: 30, Y: 40, Scale: 1},
		},
	})

	view, err := g.GetRecord(context.Background(), "alice", id)
	if err != nil {
		t.Fatalf("GetRecord error: %v", err)
	}
	var overlays []OverlayWire
	if err := json.Unmarshal([]byte(view.Record.Overlays), &overlays); err != nil {
		t.Fatalf("stored overlays not valid JSON: %v", err)
	}
	if overlays[0].Rotation == nil || *overlays[0].Rotation != 45 {
		t.Errorf("rotation not stored: %+v", overlays[0])
	}
	if overlays[1].Rotation != nil {
		t.Errorf("absent rotation stored as %v", *overlays[1].Rotation)
	}
}

func TestListRecords_NewestFirstWithURLs(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	first := saveCollage(t, g, "alice", []byte("1"), RecordInput{Filename: "first.png"})
	second := saveCollage(t, g, "alice", []byte("2"), RecordInput{Filename: "second.png"})

	views, err := g.ListRecords(ctx, "alice")
	if err != nil {
		t.Fatalf("ListRecords error: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 records, got %d", len(views))
	}
	if views[0].Record.ID != second || views[1].Record.ID != first {
		t.Errorf("records not newest first: %q then %q", views[0].Record.ID, views[1].Record.ID)
	}
	for _, view := range views {
		if view.URL != ResolveURL(view.Record.StorageRef) {
			t.Errorf("unresolved URL %q for ref %q", view.URL, view.Record.StorageRef)
		}
	}
}

func TestListRecords_Unauthenticated(t *testing.T) {
	g := newTestGateway(t)
	views, err := g.ListRecords(context.Background(), "")
	if err != nil {
		t.Fatalf("ListRecords without owner error: %v", err)
	}
	if len(views) != 0 {
		t.Fatalf("expected empty list for missing owner, got %d", len(views))
	}
}

func TestDeleteRecord(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	id := saveCollage(t, g, "alice", []byte("x"), RecordInput{Filename: "p.png"})
	view, err := g.GetRecord(ctx, "alice", id)
	if err != nil {
		t.Fatalf("GetRecord error: %v", err)
	}

	if err := g.DeleteRecord(ctx, "alice", id); err != nil {
		t.Fatalf("DeleteRecord error: %v", err)
	}

	if _, err := g.GetRecord(ctx, "alice", id); !errors.Is(err, ErrNotFound) {
		t.Errorf("record still present after delete: %v", err)
	}
	if _, err := g.FetchBlob(ctx, view.Record.StorageRef); !errors.Is(err, storage.ErrBlobNotFound) {
		t.Errorf("blob still present after delete: %v", err)
	}
}

func TestDeleteRecord_WrongOwner(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	id := saveCollage(t, g, "alice", []byte("x"), RecordInput{Filename: "p.png"})

	if err := g.DeleteRecord(ctx, "mallory", id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-owner DeleteRecord = %v, want ErrNotFound", err)
	}

	// Record and blob are untouched.
	view, err := g.GetRecord(ctx, "alice", id)
	if err != nil {
		t.Fatalf("record vanished after failed delete: %v", err)
	}
	if _, err := g.FetchBlob(ctx, view.Record.StorageRef); err != nil {
		t.Fatalf("blob vanished after failed delete: %v", err)
	}
}

func TestDeleteRecord_Unauthenticated(t *testing.T) {
	g := newTestGateway(t)
	if err := g.DeleteRecord(context.Background(), "", "any"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("DeleteRecord without owner = %v, want ErrUnauthenticated", err)
	}
}
