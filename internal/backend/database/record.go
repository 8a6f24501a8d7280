package database

import "time"

// PhotoRecord is the stored metadata of one saved collage. The blob itself
// lives in the blob store under StorageRef.
type PhotoRecord struct {
	ID         string    `db:"id"`
	OwnerID    string    `db:"owner_id"`
	StorageRef string    `db:"storage_ref"`
	Filename   string    `db:"filename"`
	Filter     string    `db:"filter"`   // empty means identity filter
	FrameID    string    `db:"frame_id"` // empty means no frame
	Overlays   string    `db:"overlays"` // JSON array in wire shape, may be empty
	CreatedAt  time.Time `db:"created_at"`
}
