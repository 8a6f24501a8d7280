package storage

import "fmt"

func NewBlobStore(storageType, address string) (BlobStore, error) {
	switch storageType {
	case "redis":
		return NewRedisBlobStore(address)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", storageType)
	}
}
