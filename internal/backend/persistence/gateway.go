// Package persistence is the gateway the booth core talks to for saving and
// browsing finished collages. It owns the two backing tiers, blob storage and
// the photo record store, and keeps them consistent: a record is only created
// after its blob was transferred, and deletion removes the blob before the
// record.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jo-hoe/gobooth/internal/backend/database"
	"github.com/jo-hoe/gobooth/internal/backend/storage"
	"github.com/jo-hoe/gobooth/internal/booth/catalog"
	"github.com/jo-hoe/gobooth/internal/booth/session"
)

var (
	// ErrUnauthenticated indicates no owner identity was provided.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrTransferFailed indicates the blob could not be transferred to its
	// upload destination.
	ErrTransferFailed = errors.New("transfer failed")
	// ErrNotFound indicates the record does not exist or belongs to a
	// different owner. The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("photo not found")
)

// OverlayWire is the stored overlay shape. Rotation is stored when provided
// but not consumed by any rendering path.
type OverlayWire struct {
	Type     string   `json:"type"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Scale    float64  `json:"scale"`
	Rotation *float64 `json:"rotation,omitempty"`
}

// Destination is a one-time upload target for a collage blob.
type Destination struct {
	TicketID  string
	URL       string
	ExpiresAt time.Time
}

// RecordInput carries everything needed to create a photo record after its
// blob was transferred. Overlay session ids are transient and stripped before
// storage.
type RecordInput struct {
	StorageRef string
	Filename   string
	FilterID   string
	FrameID    string
	Overlays   []session.Overlay
}

// PhotoView pairs a stored record with the URL its blob resolves to.
type PhotoView struct {
	Record *database.PhotoRecord
	URL    string
}

// Gateway implements the persistence operations over a blob store and a photo
// record store.
type Gateway struct {
	blobs   storage.BlobStore
	records database.PhotoStore
}

func NewGateway(blobs storage.BlobStore, records database.PhotoStore) *Gateway {
	return &Gateway{
		blobs:   blobs,
		records: records,
	}
}

// IssueUploadDestination creates a single-use upload ticket for the owner.
func (g *Gateway) IssueUploadDestination(ctx context.Context, ownerID string) (*Destination, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	ticket, err := g.blobs.IssueTicket(ctx)
	if err != nil {
		return nil, err
	}
	return &Destination{
		TicketID:  ticket.ID,
		URL:       "/upload/" + ticket.ID,
		ExpiresAt: ticket.ExpiresAt,
	}, nil
}

// Transfer stores the blob under the destination's ticket and returns the
// storage ref.
func (g *Gateway) Transfer(ctx context.Context, ticketID string, blob []byte) (string, error) {
	ref, err := g.blobs.Put(ctx, ticketID, blob)
	if err != nil {
		// Keep the cause in the chain so callers can tell an invalid
		// ticket apart from a storage outage.
		return "", fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	return ref, nil
}

// CreateRecord persists the record metadata. The identity filter and the
// "none" frame are stored as absent, and overlay session ids are stripped.
func (g *Gateway) CreateRecord(ctx context.Context, ownerID string, input RecordInput) (string, error) {
	if ownerID == "" {
		return "", ErrUnauthenticated
	}

	overlays, err := marshalOverlays(input.Overlays)
	if err != nil {
		return "", err
	}

	frameID := input.FrameID
	if frameID == catalog.FrameNone {
		frameID = ""
	}

	id, err := g.records.CreatePhoto(&database.PhotoRecord{
		OwnerID:    ownerID,
		StorageRef: input.StorageRef,
		Filename:   input.Filename,
		Filter:     input.FilterID,
		FrameID:    frameID,
		Overlays:   overlays,
	})
	if err != nil {
		return "", err
	}

	slog.Info("persistence: photo record created",
		"id", id,
		"owner", ownerID,
		"filename", input.Filename)
	return id, nil
}

// ListRecords returns the owner's photos, newest first, each with its
// resolved blob URL. An empty owner yields an empty list, not an error.
func (g *Gateway) ListRecords(ctx context.Context, ownerID string) ([]PhotoView, error) {
	if ownerID == "" {
		return []PhotoView{}, nil
	}
	records, err := g.records.ListPhotosByOwner(ownerID)
	if err != nil {
		return nil, err
	}
	views := make([]PhotoView, 0, len(records))
	for _, record := range records {
		views = append(views, PhotoView{
			Record: record,
			URL:    ResolveURL(record.StorageRef),
		})
	}
	return views, nil
}

// GetRecord returns one of the owner's photos. Records of other owners are
// reported as not found.
func (g *Gateway) GetRecord(ctx context.Context, ownerID, recordID string) (*PhotoView, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	record, err := g.records.GetPhoto(recordID)
	if errors.Is(err, database.ErrPhotoNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if record.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return &PhotoView{
		Record: record,
		URL:    ResolveURL(record.StorageRef),
	}, nil
}

// FetchBlob loads the raw blob bytes for a storage ref.
func (g *Gateway) FetchBlob(ctx context.Context, ref string) ([]byte, error) {
	return g.blobs.Get(ctx, ref)
}

// DeleteRecord removes blob and record. The blob goes first so a failure
// leaves the record intact and retryable.
func (g *Gateway) DeleteRecord(ctx context.Context, ownerID, recordID string) error {
	if ownerID == "" {
		return ErrUnauthenticated
	}
	record, err := g.records.GetPhoto(recordID)
	if errors.Is(err, database.ErrPhotoNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if record.OwnerID != ownerID {
		return ErrNotFound
	}

	if err := g.blobs.Delete(ctx, record.StorageRef); err != nil && !errors.Is(err, storage.ErrBlobNotFound) {
		return err
	}
	if err := g.records.DeletePhoto(recordID, ownerID); errors.Is(err, database.ErrPhotoNotFound) {
		return ErrNotFound
	} else if err != nil {
		return err
	}

	slog.Info("persistence: photo deleted", "id", recordID, "owner", ownerID)
	return nil
}

// ResolveURL maps a storage ref onto the media endpoint serving its blob.
func ResolveURL(ref string) string {
	return "/media/" + ref
}

func marshalOverlays(overlays []session.Overlay) (string, error) {
	if len(overlays) == 0 {
		return "", nil
	}
	wire := make([]OverlayWire, 0, len(overlays))
	for _, overlay := range overlays {
		wire = append(wire, OverlayWire{
			Type:     overlay.StickerID,
			X:        overlay.X,
			Y:        overlay.Y,
			Scale:    overlay.Scale,
			Rotation: overlay.Rotation,
		})
	}
	encoded, err := json.Marshal(wire)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
