package statestore

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type OperationError struct {
	Code    int
	Message string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%v %v", e.Code, e.Message)
}

func NewError(code int, message string) *OperationError {
	return &OperationError{
		code, message,
	}
}

type Options struct {
	MongoDB *MongoDBStoreOptions
}

// Store is a named state store declared in server/stores.json. It fronts one
// of the registered connectors (memorykv, redis, mongodb).
type Store struct {
	Name      string
	Connector KVConnector
	Viper     *viper.Viper
	Options   *Options

	Key         string
	Context     context.Context
	ctxCancelFn context.CancelFunc
}

func (st *Store) Initialize() error {
	dsViper := st.Viper
	connector := dsViper.GetString(st.Key + ".connector")
	switch connector {
	case "memorykv":
		st.Connector = NewMemoryKVConnector(st.Key)
	case "redis":
		st.Connector = NewRedisConnector(st.Key)
	case "mongodb":
		var mongoOptions *MongoDBStoreOptions
		if st.Options != nil {
			mongoOptions = st.Options.MongoDB
		}
		st.Connector = NewMongoDBConnector(st.Key, mongoOptions)
	default:
		return fmt.Errorf("invalid connector %v", connector)
	}

	if withConfig, ok := st.Connector.(interface{ SetConfig(*viper.Viper) }); ok {
		withConfig.SetConfig(dsViper)
	}

	err := st.Connector.Connect(st.Context)
	if err != nil {
		return err
	}
	return st.Connector.Ping(st.Context)
}

func (st *Store) Get(bucket string, key string) ([]byte, error) {
	return st.Connector.Get(bucket, key)
}

func (st *Store) Set(bucket string, key string, value []byte, ttl time.Duration) error {
	return st.Connector.Set(bucket, key, value, ttl)
}

func (st *Store) Delete(bucket string, key string) error {
	return st.Connector.Delete(bucket, key)
}

func (st *Store) Close() error {
	defer st.ctxCancelFn()
	return st.Connector.Disconnect()
}

func New(dsKey string, dsViper *viper.Viper, parentContext context.Context) *Store {
	name := dsViper.GetString(dsKey + ".name")
	if name == "" {
		name = dsKey
	}
	ctx, ctxCancelFn := context.WithCancel(parentContext)
	return &Store{
		Name:  name,
		Viper: dsViper,

		Key: dsKey,

		Context:     ctx,
		ctxCancelFn: ctxCancelFn,
	}
}
