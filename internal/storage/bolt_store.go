package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samvad-hq/mercury-reader/pkg/mercury"
	bolt "go.etcd.io/bbolt"
)

const (
	linkBucket       = "links"
	articleBucket    = "articles"
	expiryValueBytes = 8
)

var buckets = []string{linkBucket, articleBucket}

// boltStore implements a Store backed by BoltDB.
// Every value starts with an 8-byte big-endian unix expiry; article values carry JSON after it.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	linkTTL         time.Duration
	articleTTL      time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	store := &boltStore{
		db:              db,
		linkTTL:         opts.LinkTTL,
		articleTTL:      opts.ArticleTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// SeenLink checks if a link with the given ID has been harvested.
func (b *boltStore) SeenLink(id string) (bool, error) {
	value, err := b.lookup(linkBucket, id)
	if err != nil {
		return false, err
	}
	return value != nil, nil
}

// MarkLink marks a link with the given ID as harvested.
func (b *boltStore) MarkLink(id string) error {
	return b.put(linkBucket, id, nil, b.linkTTL)
}

// GetArticle returns a cached article if one exists and has not expired.
func (b *boltStore) GetArticle(key string) (*mercury.Article, bool, error) {
	value, err := b.lookup(articleBucket, key)
	if err != nil || value == nil {
		return nil, false, err
	}

	var article mercury.Article
	if err := json.Unmarshal(value, &article); err != nil {
		return nil, false, fmt.Errorf("decode cached article: %w", err)
	}
	return &article, true, nil
}

// PutArticle caches an article under key for the configured article TTL.
func (b *boltStore) PutArticle(key string, article *mercury.Article) error {
	if article == nil {
		return fmt.Errorf("article is nil")
	}
	payload, err := json.Marshal(article)
	if err != nil {
		return fmt.Errorf("encode article: %w", err)
	}
	return b.put(articleBucket, key, payload, b.articleTTL)
}

// lookup returns the payload stored after the expiry prefix, deleting the entry if it expired.
// A nil slice with a nil error means not found.
func (b *boltStore) lookup(bucketName, key string) ([]byte, error) {
	if b == nil || b.db == nil {
		return nil, nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return nil, err
	}

	var out []byte
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket == nil {
			return fmt.Errorf("%s bucket missing", bucketName)
		}

		k := []byte(key)
		value := bucket.Get(k)
		if value == nil {
			return nil
		}

		expiry, ok := decodeExpiry(value)
		if !ok || !expiry.After(now) {
			return bucket.Delete(k)
		}

		// bolt values are only valid inside the transaction
		out = append([]byte{}, value[expiryValueBytes:]...)
		return nil
	})
	return out, err
}

func (b *boltStore) put(bucketName, key string, payload []byte, ttl time.Duration) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket == nil {
			return fmt.Errorf("%s bucket missing", bucketName)
		}
		buf := make([]byte, expiryValueBytes, expiryValueBytes+len(payload))
		binary.BigEndian.PutUint64(buf, uint64(now.Add(ttl).Unix()))
		buf = append(buf, payload...)
		return bucket.Put([]byte(key), buf)
	})
}

// maybeCleanupExpired removes expired entries on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		for _, name := range buckets {
			bucket := tx.Bucket([]byte(name))
			if bucket == nil {
				return fmt.Errorf("%s bucket missing", name)
			}

			// Deleting under a live cursor skips the following key, so collect first.
			var expired [][]byte
			cursor := bucket.Cursor()
			for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
				expiry, ok := decodeExpiry(v)
				if !ok || !expiry.After(now) {
					expired = append(expired, append([]byte(nil), k...))
				}
			}
			for _, k := range expired {
				if err := bucket.Delete(k); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

// decodeExpiry decodes the expiry time from the stored byte slice prefix.
func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) < expiryValueBytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryValueBytes]))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
