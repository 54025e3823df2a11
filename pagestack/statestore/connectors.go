package statestore

import (
	"context"
	"time"
)

// KVConnector is the contract every state store backend fulfills. Buckets
// hold opaque byte payloads (TempData bags, session records) under string
// keys, optionally with a TTL.
type KVConnector interface {
	// GetName Returns the name of the connector
	GetName() string
	// Connect Connects to the store
	Connect(parentContext context.Context) error
	// Disconnect Disconnects from the store
	Disconnect() error
	// Ping Pings the store
	Ping(parentCtx context.Context) error
	// Get Reads a value, nil when absent or expired
	Get(bucket string, key string) ([]byte, error)
	// Set Writes a value. ttl == 0 means no expiry
	Set(bucket string, key string, value []byte, ttl time.Duration) error
	// Delete Removes a key
	Delete(bucket string, key string) error
	// GetClient Returns the underlying client
	GetClient() interface{}
}
