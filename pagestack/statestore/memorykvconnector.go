package statestore

import (
	"context"
	"time"

	"github.com/spf13/viper"

	"github.com/pagestack/pagestack-go/pagestack/memorykv"
)

// MemoryKVConnector implements the KVConnector interface over the in-process
// memorykv database.
type MemoryKVConnector struct {
	db       memorykv.KvDb
	dsKey    string
	dsConfig *viper.Viper
}

func (connector *MemoryKVConnector) GetName() string {
	return "memorykv"
}

func (connector *MemoryKVConnector) SetConfig(dsViper *viper.Viper) {
	connector.dsConfig = dsViper
}

func (connector *MemoryKVConnector) Connect(parentContext context.Context) error {
	connector.db = memorykv.NewKvDb(memorykv.Options{
		Name: connector.dsKey,
	})
	return nil
}

func (connector *MemoryKVConnector) Disconnect() error {
	return connector.db.Purge()
}

func (connector *MemoryKVConnector) Ping(parentCtx context.Context) error {
	// Nothing to ping in-process
	return nil
}

func (connector *MemoryKVConnector) Get(bucket string, key string) ([]byte, error) {
	return connector.db.GetBucket(bucket).Get(key)
}

func (connector *MemoryKVConnector) Set(bucket string, key string, value []byte, ttl time.Duration) error {
	if ttl > 0 {
		return connector.db.GetBucket(bucket).SetEx(key, value, ttl)
	}
	return connector.db.GetBucket(bucket).Set(key, value)
}

func (connector *MemoryKVConnector) Delete(bucket string, key string) error {
	return connector.db.GetBucket(bucket).Delete(key)
}

func (connector *MemoryKVConnector) GetClient() interface{} {
	return connector.db
}

// NewMemoryKVConnector Factory method for MemoryKVConnector
func NewMemoryKVConnector(dsKey string) KVConnector {
	return &MemoryKVConnector{
		dsKey: dsKey,
	}
}
