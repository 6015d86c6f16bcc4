package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kilupskalvis/minigit/internal/models"
	bolt "go.etcd.io/bbolt"
)

// AppendRefLog records a ref movement in the ref's bucket.
func (s *Store) AppendRefLog(entry *models.RefLogEntry) error {
	if entry.Time.IsZero() {
		entry.Time = time.Now().UTC()
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(entry.Ref))
		if err != nil {
			return fmt.Errorf("create reflog bucket %s: %w", entry.Ref, err)
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("next reflog sequence: %w", err)
		}
		entry.Seq = seq

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshal reflog entry: %w", err)
		}

		return bucket.Put(seqKey(seq), data)
	})
}

// ReadRefLog returns up to limit entries for ref, newest first.
// A limit of 0 returns all entries.
func (s *Store) ReadRefLog(ref string, limit int) ([]*models.RefLogEntry, error) {
	var entries []*models.RefLogEntry

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(ref))
		if bucket == nil {
			return nil
		}

		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil; k, v = cursor.Prev() {
			var entry models.RefLogEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("unmarshal reflog entry: %w", err)
			}
			entry.Seq = binary.BigEndian.Uint64(k)
			entries = append(entries, &entry)

			if limit > 0 && len(entries) >= limit {
				break
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return entries, nil
}

// DeleteRefLog drops the reflog of a deleted branch.
func (s *Store) DeleteRefLog(ref string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(ref)) == nil {
			return nil
		}
		return tx.DeleteBucket([]byte(ref))
	})
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
