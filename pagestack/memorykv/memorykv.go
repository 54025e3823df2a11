package memorykv

import (
	"fmt"
	"sync"
	"time"
)

type Options struct {
	Name string
}

type Stats struct {
	Entries   int
	TotalSize int64
}

// KvDb is the in-process store backing TempData and sessions when no external
// store is configured.
type KvDb interface {
	GetBucket(name string) KvBucket
	Stats() map[string]Stats
	Purge() error
}

type KvBucket interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	SetEx(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Expire(key string, ttl time.Duration) error
	Flush() error
}

type kvPair struct {
	value     []byte
	expiresAt int64 // unix seconds, 0 means no expiry
}

type kvBucket struct {
	name string
	lock sync.RWMutex
	data map[string]kvPair
}

func (bucket *kvBucket) Get(key string) ([]byte, error) {
	bucket.lock.RLock()
	pair, ok := bucket.data[key]
	bucket.lock.RUnlock()
	if !ok {
		return nil, nil
	}
	if pair.expiresAt > 0 && pair.expiresAt <= time.Now().Unix() {
		// expired but not collected yet
		_ = bucket.Delete(key)
		return nil, nil
	}
	return pair.value, nil
}

func (bucket *kvBucket) Set(key string, value []byte) error {
	bucket.lock.Lock()
	pair := bucket.data[key]
	pair.value = value
	bucket.data[key] = pair
	bucket.lock.Unlock()
	return nil
}

func (bucket *kvBucket) SetEx(key string, value []byte, ttl time.Duration) error {
	err := bucket.Set(key, value)
	if err != nil {
		return err
	}
	return bucket.Expire(key, ttl)
}

func (bucket *kvBucket) Expire(key string, ttl time.Duration) error {
	bucket.lock.Lock()
	pair, ok := bucket.data[key]
	if !ok {
		bucket.lock.Unlock()
		return fmt.Errorf("key not found")
	}
	pair.expiresAt = time.Now().Add(ttl).Unix()
	bucket.data[key] = pair
	bucket.lock.Unlock()
	go func() {
		time.Sleep(ttl)
		bucket.lock.Lock()
		current, ok := bucket.data[key]
		if ok && current.expiresAt > 0 && current.expiresAt <= time.Now().Unix() {
			delete(bucket.data, key)
		}
		bucket.lock.Unlock()
	}()
	return nil
}

func (bucket *kvBucket) Delete(key string) error {
	bucket.lock.Lock()
	delete(bucket.data, key)
	bucket.lock.Unlock()
	return nil
}

func (bucket *kvBucket) Flush() error {
	bucket.lock.Lock()
	bucket.data = make(map[string]kvPair)
	bucket.lock.Unlock()
	return nil
}

func (bucket *kvBucket) stats() Stats {
	bucket.lock.RLock()
	defer bucket.lock.RUnlock()
	var size int64
	for key, pair := range bucket.data {
		size += int64(len(key) + len(pair.value))
	}
	return Stats{Entries: len(bucket.data), TotalSize: size}
}

type kvDb struct {
	name    string
	lock    sync.RWMutex
	buckets map[string]*kvBucket
}

func (db *kvDb) GetBucket(name string) KvBucket {
	db.lock.RLock()
	bucket, ok := db.buckets[name]
	db.lock.RUnlock()
	if ok {
		return bucket
	}
	db.lock.Lock()
	defer db.lock.Unlock()
	bucket, ok = db.buckets[name]
	if ok {
		return bucket
	}
	bucket = &kvBucket{name: name, data: make(map[string]kvPair)}
	db.buckets[name] = bucket
	return bucket
}

func (db *kvDb) Stats() map[string]Stats {
	db.lock.RLock()
	defer db.lock.RUnlock()
	allStats := make(map[string]Stats, len(db.buckets))
	for name, bucket := range db.buckets {
		allStats[name] = bucket.stats()
	}
	return allStats
}

func (db *kvDb) Purge() error {
	db.lock.Lock()
	db.buckets = make(map[string]*kvBucket)
	db.lock.Unlock()
	return nil
}

func NewKvDb(options Options) KvDb {
	return &kvDb{
		name:    options.Name,
		buckets: make(map[string]*kvBucket),
	}
}
