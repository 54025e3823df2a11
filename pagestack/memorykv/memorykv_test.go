package memorykv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_MemoryKv(t *testing.T) {

	t.Parallel()

	db := NewKvDb(Options{
		Name: "exampleMemoryKv",
	})
	bucket := db.GetBucket("testBucket")
	err := bucket.SetEx("foo", []byte("bar"), 3*time.Second)
	assert.NoError(t, err)
	val, err := bucket.Get("foo")
	assert.NoError(t, err)
	assert.Equal(t, []byte("bar"), val)
	// set again
	bucket.Set("foo", []byte("bar2"))
	val, err = bucket.Get("foo")
	assert.NoError(t, err)
	assert.Equal(t, []byte("bar2"), val)
	// set other
	err = bucket.SetEx("foo2", []byte("bar2"), 5*time.Second)
	assert.NoError(t, err)
	// and other
	err = bucket.SetEx("foo3", []byte("bar3"), 7*time.Second)
	assert.NoError(t, err)

	time.Sleep(4 * time.Second)
	val, err = bucket.Get("foo")
	assert.NoError(t, err)
	assert.Nil(t, val)

}

func Test_MemoryKvExpireInvalid(t *testing.T) {

	t.Parallel()

	db := NewKvDb(Options{
		Name: "exampleMemoryKv",
	})
	bucket := db.GetBucket("testBucket")
	err := bucket.Expire("foo", 3*time.Second)
	assert.EqualError(t, err, "key not found")
}

func Test_MemoryKvDelete(t *testing.T) {

	t.Parallel()

	db := NewKvDb(Options{
		Name: "exampleMemoryKv",
	})
	bucket := db.GetBucket("testBucket")
	err := bucket.SetEx("foo", []byte("bar"), 3*time.Second)
	assert.NoError(t, err)
	val, err := bucket.Get("foo")
	assert.NoError(t, err)
	assert.Equal(t, []byte("bar"), val)

	err = bucket.Delete("foo")
	assert.NoError(t, err)
	val, err = bucket.Get("foo")
	assert.NoError(t, err)
	assert.Nil(t, val)

}

func Test_MemoryKvFlush(t *testing.T) {

	t.Parallel()

	db := NewKvDb(Options{
		Name: "exampleMemoryKv",
	})
	bucket := db.GetBucket("testBucket")
	err := bucket.SetEx("foo", []byte("bar"), 3*time.Second)
	assert.NoError(t, err)

	err = bucket.Flush()
	assert.NoError(t, err)
	val, err := bucket.Get("foo")
	assert.NoError(t, err)
	assert.Nil(t, val)

}

func Test_MemoryKvPurge(t *testing.T) {

	t.Parallel()

	db := NewKvDb(Options{
		Name: "exampleMemoryKv",
	})
	bucket := db.GetBucket("testBucket")
	err := bucket.SetEx("foo", []byte("bar"), 3*time.Second)
	assert.NoError(t, err)

	err = db.Purge()
	assert.NoError(t, err)

}

func Test_MemoryKvReuseBucket(t *testing.T) {

	t.Parallel()

	db := NewKvDb(Options{
		Name: "exampleMemoryKv",
	})
	bucket := db.GetBucket("testBucket")
	err := bucket.SetEx("foo", []byte("bar"), 3*time.Second)
	assert.NoError(t, err)

	bucket = db.GetBucket("testBucket")
	val, err := bucket.Get("foo")
	assert.NoError(t, err)
	assert.Equal(t, []byte("bar"), val)

}

func Test_MemoryKvStats(t *testing.T) {

	t.Parallel()

	db := NewKvDb(Options{
		Name: "exampleMemoryKv",
	})
	bucket := db.GetBucket("testBucket")
	err := bucket.Set("foo", []byte("bar"))
	assert.NoError(t, err)

	allStats := db.Stats()
	assert.Contains(t, allStats, "testBucket")
	assert.Equal(t, 1, allStats["testBucket"].Entries)
	assert.Equal(t, int64(6), allStats["testBucket"].TotalSize)

}
