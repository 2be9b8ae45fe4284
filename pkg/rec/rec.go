// Package rec records the event stream of a session into a bolt database,
// and plays recorded streams back as an event source.
package rec

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/loomtk/loom/pkg/event"
	"github.com/loomtk/loom/pkg/listen"
	"github.com/loomtk/loom/pkg/logutil"
)

var logger = logutil.GetLogger("[rec] ")

const bucketEvents = "events"

var initDB = map[string]func(tx *bolt.Tx) error{
	"initialize event table": func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketEvents))
		return err
	},
}

// Recorder appends events to a bolt database, one record per event, keyed
// by an increasing sequence number.
type Recorder struct {
	db *bolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Recorder, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for name, fn := range initDB {
			if err := fn(tx); err != nil {
				return fmt.Errorf("failed to %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Recorder{db}, nil
}

// Close closes the database.
func (r *Recorder) Close() error { return r.db.Close() }

// Wrap returns a poller forwarding p's results unchanged, recording every
// event that passes through. A storage failure is logged and does not
// disturb the stream.
func (r *Recorder) Wrap(p listen.Poller) listen.Poller {
	return listen.PollerFunc(func() (event.Event, error) {
		ev, err := p.Poll()
		r.tee(ev)
		return ev, err
	})
}

// WrapAsync is Wrap for asynchronous pollers.
func (r *Recorder) WrapAsync(p listen.AsyncPoller) listen.AsyncPoller {
	return listen.AsyncPollerFunc(func(ctx context.Context) (event.Event, error) {
		ev, err := p.Poll(ctx)
		r.tee(ev)
		return ev, err
	})
}

func (r *Recorder) tee(ev event.Event) {
	if ev == nil {
		return
	}
	if err := r.record(ev); err != nil {
		logger.Printf("failed to record event: %v", err)
	}
}

// Events returns all recorded events, oldest first.
func (r *Recorder) Events() ([]event.Event, error) {
	var evs []event.Event
	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketEvents))
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			ev, err := decodeEvent(v)
			if err != nil {
				return err
			}
			evs = append(evs, ev)
		}
		return nil
	})
	return evs, err
}

// Reset deletes all recorded events and restarts the sequence.
func (r *Recorder) Reset() error {
	return r.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketEvents)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketEvents))
		return err
	})
}

func (r *Recorder) record(ev event.Event) error {
	data, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketEvents))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(marshalSeq(seq), data)
	})
}

func marshalSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}
