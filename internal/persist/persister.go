package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/novelhub/readerkit/internal/lock"
	"github.com/novelhub/readerkit/internal/query"
)

const snapshotContentType = "application/json"

// Persister moves query cache snapshots in and out of a Store.
type Persister struct {
	Store Store
	// Locker serializes writers of Key. Nil writes without locking.
	Locker  lock.Locker
	Key     string
	MaxAge  time.Duration
	LockTTL time.Duration
	// Exclude lists key prefixes that are never written, such as data
	// that belongs to the logged in user. The snapshot is shared by every
	// process reading Key.
	Exclude []query.Key

	now func() time.Time
}

func (p *Persister) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

// Restore hydrates c from the stored snapshot. A missing or expired
// snapshot restores nothing and is not an error.
func (p *Persister) Restore(ctx context.Context, c *query.Client) (int, error) {
	obj, err := p.Store.Get(ctx, p.Key)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var snap query.Snapshot
	if err := json.Unmarshal(obj.Body, &snap); err != nil {
		return 0, fmt.Errorf("decode snapshot %s: %w", p.Key, err)
	}
	if p.MaxAge > 0 && p.clock().Sub(snap.SavedAt) > p.MaxAge {
		log.Printf("persist: snapshot %s expired (saved %s)", p.Key, snap.SavedAt.Format(time.RFC3339))
		return 0, nil
	}
	return c.Hydrate(snap)
}

// Save writes c's current snapshot. It reports false when another writer
// holds the lock or has stored a newer snapshot in the meantime.
func (p *Persister) Save(ctx context.Context, c *query.Client) (bool, error) {
	snap, err := c.Dehydrate(p.Exclude...)
	if err != nil {
		return false, err
	}

	if p.Locker != nil {
		ttl := p.LockTTL
		if ttl <= 0 {
			ttl = 30 * time.Second
		}
		l, ok, err := p.Locker.TryLock(ctx, "lock:"+p.Key, ttl)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		defer l.Unlock(ctx)

		updatedAt, err := p.Store.UpdatedAt(ctx, p.Key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return false, err
		}
		if err == nil && updatedAt.After(snap.SavedAt) {
			return false, nil
		}
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return false, err
	}
	err = p.Store.Put(ctx, p.Key, Object{
		Body:        body,
		ContentType: snapshotContentType,
		UpdatedAt:   snap.SavedAt,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Clear deletes the stored snapshot, e.g. after logout.
func (p *Persister) Clear(ctx context.Context) error {
	err := p.Store.Delete(ctx, p.Key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
