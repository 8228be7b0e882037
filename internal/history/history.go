// Package history keeps the tree documents a live server rendered, in a
// bbolt file. Entries are numbered from 1 in render order; the oldest are
// pruned once the store holds more than its limit.
package history

import (
	"encoding/binary"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/vango-dev/reconcile/internal/errors"
)

const bucketRenders = "renders"

// ErrNotFound is wrapped by the S002 error Get and Last return.
var ErrNotFound = stderrors.New("history: no such entry")

// Entry is one successfully rendered document.
type Entry struct {
	Seq    int       `json:"seq"`
	Time   time.Time `json:"time"`
	Format string    `json:"format"` // "json" or "yaml"
	Body   []byte    `json:"body"`
	Ops    int       `json:"ops"`   // ops in the broadcast batch
	Bytes  int       `json:"bytes"` // encoded batch size
}

// Options configures Open.
type Options struct {
	// Limit bounds the number of entries kept. Zero or less keeps all.
	Limit int

	// ReadOnly opens an existing file without taking the write lock, so
	// several readers may share it. Add fails on a read-only store.
	ReadOnly bool
}

// Store is a render history backed by one bbolt file. It is safe for
// concurrent use.
type Store struct {
	db    *bolt.DB
	limit int
}

// Open opens the history file at path, creating it unless opts.ReadOnly is
// set. A file locked by another process fails with S001 after one second.
func Open(path string, opts Options) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second, ReadOnly: opts.ReadOnly})
	if err != nil {
		return nil, errors.New("S001").WithPath(path).Wrap(err)
	}
	if opts.ReadOnly {
		err = db.View(func(tx *bolt.Tx) error {
			if tx.Bucket([]byte(bucketRenders)) == nil {
				return fmt.Errorf("no %q bucket", bucketRenders)
			}
			return nil
		})
	} else {
		err = db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists([]byte(bucketRenders))
			return err
		})
	}
	if err != nil {
		db.Close()
		return nil, errors.New("S001").WithPath(path).Wrap(err)
	}
	return &Store{db: db, limit: opts.Limit}, nil
}

// Close releases the file.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the file the store was opened on.
func (s *Store) Path() string { return s.db.Path() }

// Add appends e and returns its sequence number. e.Seq is ignored and a zero
// e.Time is set to now.
func (s *Store) Add(e Entry) (int, error) {
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketRenders))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		e.Seq = int(seq)
		v, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if err := b.Put(marshalSeq(seq), v); err != nil {
			return err
		}
		return s.pruneLocked(b)
	})
	if err != nil {
		return 0, fmt.Errorf("history: add: %w", err)
	}
	return e.Seq, nil
}

// pruneLocked drops the oldest entries beyond the limit.
func (s *Store) pruneLocked(b *bolt.Bucket) error {
	if s.limit <= 0 {
		return nil
	}
	var keys [][]byte
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		keys = append(keys, append([]byte(nil), k...))
	}
	for len(keys) > s.limit {
		if err := b.Delete(keys[0]); err != nil {
			return err
		}
		keys = keys[1:]
	}
	return nil
}

// Get returns the entry numbered seq.
func (s *Store) Get(seq int) (Entry, error) {
	var e Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketRenders)).Get(marshalSeq(uint64(seq)))
		if v == nil {
			return notFound(fmt.Sprintf("No render numbered %d", seq))
		}
		return json.Unmarshal(v, &e)
	})
	return e, err
}

// Last returns the most recent entry.
func (s *Store) Last() (Entry, error) {
	var e Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		_, v := tx.Bucket([]byte(bucketRenders)).Cursor().Last()
		if v == nil {
			return notFound("The history is empty")
		}
		return json.Unmarshal(v, &e)
	})
	return e, err
}

// List returns the entries numbered from from up to, but not including,
// upto, oldest first. upto <= 0 means no upper bound.
func (s *Store) List(from, upto int) ([]Entry, error) {
	var out []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketRenders)).Cursor()
		for k, v := c.Seek(marshalSeq(uint64(max(from, 0)))); k != nil; k, v = c.Next() {
			if upto > 0 && unmarshalSeq(k) >= uint64(upto) {
				break
			}
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("entry %d: %w", unmarshalSeq(k), err)
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

// Len returns the number of entries kept.
func (s *Store) Len() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket([]byte(bucketRenders)).Stats().KeyN
		return nil
	})
	return n, err
}

func notFound(detail string) error {
	return errors.New("S002").WithDetail(detail).Wrap(ErrNotFound)
}

func marshalSeq(seq uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, seq)
}

func unmarshalSeq(k []byte) uint64 {
	return binary.BigEndian.Uint64(k)
}
