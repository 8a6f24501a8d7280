// Package storage holds the managed blob tier of the booth: finished collages
// are transferred to tickets issued ahead of time and addressed by opaque
// storage refs afterwards.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTicketNotFound indicates an upload ticket is unknown or expired.
	// Tickets are single use.
	ErrTicketNotFound = errors.New("upload ticket not found or expired")
	// ErrBlobNotFound indicates no blob is stored under the given ref.
	ErrBlobNotFound = errors.New("blob not found")
)

// Ticket is a one-time upload destination.
type Ticket struct {
	ID        string
	ExpiresAt time.Time
}

type BlobStore interface {
	// IssueTicket creates a single-use upload ticket with a bounded
	// lifetime.
	IssueTicket(ctx context.Context) (*Ticket, error)
	// Put consumes a ticket and stores the blob, returning the storage
	// ref the blob is addressable under from now on.
	Put(ctx context.Context, ticketID string, blob []byte) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
	Delete(ctx context.Context, ref string) error
	Close() error
}
