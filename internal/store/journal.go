package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketPage  = []byte("page")
	bucketItems = []byte("items")
)

var (
	keyStatus = []byte("status")
	keyInput  = []byte("input_hidden")
)

// ErrJournalClosed is returned by a [Journal] after Close.
var ErrJournalClosed = errors.New("journal closed")

// Journal is a [page.Page] that persists the page to a bbolt file, so a
// later run can re-render what was consumed and resume polling from there.
//
// Every call is one bbolt transaction. Journal is safe for concurrent use.
type Journal struct {
	db   *bolt.DB
	path string
}

// OpenJournal opens or creates the journal file at path.
func OpenJournal(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketPage, bucketItems} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Journal{db: db, path: path}, nil
}

// Path returns the journal file location.
func (j *Journal) Path() string {
	return j.path
}

// Close releases the file lock. Further calls return [ErrJournalClosed].
func (j *Journal) Close() error {
	return j.db.Close()
}

// SetStatus implements [page.Page].
func (j *Journal) SetStatus(text string) error {
	return j.update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPage).Put(keyStatus, []byte(text))
	})
}

// Reset implements [page.Page]. Item keys restart from one.
func (j *Journal) Reset() error {
	return j.update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketItems); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(bucketItems)
		return err
	})
}

// HideInput implements [page.Page].
func (j *Journal) HideInput() error {
	return j.update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPage).Put(keyInput, []byte{1})
	})
}

// Append implements [page.Page]. All entries are written in one transaction.
func (j *Journal) Append(entries ...string) error {
	if len(entries) == 0 {
		return nil
	}
	return j.update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketItems)
		for _, e := range entries {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			if err := b.Put(itob(seq), []byte(e)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Snapshot reads the persisted page. Items come back in append order.
// Title and Seq are not persisted and are left zero.
func (j *Journal) Snapshot() (Snapshot, error) {
	snap := Snapshot{Items: []string{}}
	err := j.view(func(tx *bolt.Tx) error {
		p := tx.Bucket(bucketPage)
		snap.Status = string(p.Get(keyStatus))
		snap.InputHidden = len(p.Get(keyInput)) > 0

		return tx.Bucket(bucketItems).ForEach(func(_, v []byte) error {
			snap.Items = append(snap.Items, string(v))
			return nil
		})
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (j *Journal) update(fn func(*bolt.Tx) error) error {
	err := j.db.Update(fn)
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return ErrJournalClosed
	}
	if err != nil {
		return fmt.Errorf("journal %s: %w", j.path, err)
	}
	return nil
}

func (j *Journal) view(fn func(*bolt.Tx) error) error {
	err := j.db.View(fn)
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return ErrJournalClosed
	}
	if err != nil {
		return fmt.Errorf("journal %s: %w", j.path, err)
	}
	return nil
}

// itob encodes a sequence number so keys sort in append order.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
