package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var lastSyncKey = []byte("last_sync")

// SaveLastSync запоминает время последней успешной синхронизации (UnixNano, big endian)
func (s *Storage) SaveLastSync(_ context.Context, at time.Time) error {
	buf := binary.BigEndian.AppendUint64(nil, uint64(at.UnixNano()))
	err := s.update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMetadata).Put(lastSyncKey, buf)
	})
	if err != nil {
		return fmt.Errorf("failed to save last sync time: %w", err)
	}
	return nil
}

// GetLastSync возвращает нулевое время, если синхронизации еще не было
func (s *Storage) GetLastSync(_ context.Context) (time.Time, error) {
	var at time.Time
	err := s.view(func(tx *bbolt.Tx) error {
		if buf := tx.Bucket(bucketMetadata).Get(lastSyncKey); len(buf) == 8 {
			at = time.Unix(0, int64(binary.BigEndian.Uint64(buf)))
		}
		return nil
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last sync time: %w", err)
	}
	return at, nil
}
