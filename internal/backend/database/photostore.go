package database

import "errors"

// ErrPhotoNotFound indicates no photo row matches the given id and owner.
var ErrPhotoNotFound = errors.New("photo not found")

type PhotoStore interface {
	CreateSchema() error
	DoesDatabaseExist() bool
	Close() error

	// CreatePhoto inserts a new photo record and returns its generated id.
	CreatePhoto(record *PhotoRecord) (string, error)
	// ListPhotosByOwner returns the owner's records, newest first.
	ListPhotosByOwner(ownerID string) ([]*PhotoRecord, error)
	GetPhoto(id string) (*PhotoRecord, error)
	// DeletePhoto removes a record; the owner must match or
	// ErrPhotoNotFound is returned.
	DeletePhoto(id, ownerID string) error
}
