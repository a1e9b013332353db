package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/gogpu/canvaskit"
)

var (
	// ErrNotFound is returned when a block has no stored value.
	ErrNotFound = errors.New("persist: block not found")
)

var (
	positionsBucket = []byte("positions")
	sizesBucket     = []byte("sizes")
	contentBucket   = []byte("content")
)

// Store persists canvas block state. Each Write call executes as a single
// atomic batched transaction: either every key in the map is written or
// none is.
type Store interface {
	WritePositions(ctx context.Context, positions map[string]canvaskit.Point) error
	WriteSizes(ctx context.Context, sizes map[string]canvaskit.Size) error
	WriteContent(ctx context.Context, content map[string]string) error
	Close() error
}

// BoltStore is a Store implementation backed by bbolt. Rows are keyed by
// block identifier; positions and sizes are JSON-encoded, content is stored
// raw.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens (or creates) a store at the given path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{positionsBucket, sizesBucket, contentBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// WritePositions writes all pending positions in one transaction.
func (s *BoltStore) WritePositions(ctx context.Context, positions map[string]canvaskit.Point) error {
	if len(positions) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(positionsBucket)
		for id, pos := range positions {
			data, err := json.Marshal(pos)
			if err != nil {
				return fmt.Errorf("failed to marshal position %q: %w", id, err)
			}
			if err := b.Put([]byte(id), data); err != nil {
				return fmt.Errorf("failed to put position %q: %w", id, err)
			}
		}
		return nil
	})
}

// WriteSizes writes all pending sizes in one transaction.
func (s *BoltStore) WriteSizes(ctx context.Context, sizes map[string]canvaskit.Size) error {
	if len(sizes) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sizesBucket)
		for id, size := range sizes {
			data, err := json.Marshal(size)
			if err != nil {
				return fmt.Errorf("failed to marshal size %q: %w", id, err)
			}
			if err := b.Put([]byte(id), data); err != nil {
				return fmt.Errorf("failed to put size %q: %w", id, err)
			}
		}
		return nil
	})
}

// WriteContent writes all pending content blobs in one transaction.
func (s *BoltStore) WriteContent(ctx context.Context, content map[string]string) error {
	if len(content) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(contentBucket)
		for id, text := range content {
			if err := b.Put([]byte(id), []byte(text)); err != nil {
				return fmt.Errorf("failed to put content %q: %w", id, err)
			}
		}
		return nil
	})
}

// Position returns the stored position for a block.
func (s *BoltStore) Position(id string) (canvaskit.Point, error) {
	var pos canvaskit.Point
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(positionsBucket).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(data, &pos); err != nil {
			return fmt.Errorf("failed to unmarshal position %q: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return canvaskit.Point{}, err
	}
	return pos, nil
}

// Size returns the stored size for a block.
func (s *BoltStore) Size(id string) (canvaskit.Size, error) {
	var size canvaskit.Size
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(sizesBucket).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(data, &size); err != nil {
			return fmt.Errorf("failed to unmarshal size %q: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return canvaskit.Size{}, err
	}
	return size, nil
}

// Content returns the stored content for a block.
func (s *BoltStore) Content(id string) (string, error) {
	var text string
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(contentBucket).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		text = string(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Ensure BoltStore implements Store.
var _ Store = (*BoltStore)(nil)
