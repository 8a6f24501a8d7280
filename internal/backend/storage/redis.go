package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jo-hoe/gobooth/internal/common"
)

const (
	ticketKeyPrefix = "booth:ticket:"
	blobKeyPrefix   = "booth:blob:"

	defaultTicketTTL = 10 * time.Minute
)

type RedisBlobStore struct {
	client    *redis.Client
	ticketTTL time.Duration
}

func NewRedisBlobStore(address string) (*RedisBlobStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: address,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", address, err)
	}

	return &RedisBlobStore{
		client:    client,
		ticketTTL: defaultTicketTTL,
	}, nil
}

func (r *RedisBlobStore) IssueTicket(ctx context.Context) (*Ticket, error) {
	id, err := common.NewID()
	if err != nil {
		return nil, err
	}

	if err := r.client.Set(ctx, ticketKeyPrefix+id, "pending", r.ticketTTL).Err(); err != nil {
		return nil, err
	}

	return &Ticket{
		ID:        id,
		ExpiresAt: time.Now().Add(r.ticketTTL),
	}, nil
}

// Put consumes the ticket atomically so a ticket can never be redeemed twice.
func (r *RedisBlobStore) Put(ctx context.Context, ticketID string, blob []byte) (string, error) {
	deleted, err := r.client.Del(ctx, ticketKeyPrefix+ticketID).Result()
	if err != nil {
		return "", err
	}
	if deleted == 0 {
		return "", ErrTicketNotFound
	}

	ref, err := common.NewID()
	if err != nil {
		return "", err
	}
	if err := r.client.Set(ctx, blobKeyPrefix+ref, blob, 0).Err(); err != nil {
		return "", err
	}
	return ref, nil
}

func (r *RedisBlobStore) Get(ctx context.Context, ref string) ([]byte, error) {
	blob, err := r.client.Get(ctx, blobKeyPrefix+ref).Bytes()
	if err == redis.Nil {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, err
	}
	return blob, nil
}

func (r *RedisBlobStore) Delete(ctx context.Context, ref string) error {
	deleted, err := r.client.Del(ctx, blobKeyPrefix+ref).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrBlobNotFound
	}
	return nil
}

func (r *RedisBlobStore) Close() error {
	return r.client.Close()
}
