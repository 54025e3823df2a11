package statestore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
)

// RedisConnector implements the KVConnector interface over a redis server.
// Keys are namespaced as database:bucket:key.
type RedisConnector struct {
	client   *redis.Client
	dsKey    string
	dsConfig *viper.Viper

	context context.Context
}

func (connector *RedisConnector) GetName() string {
	return "redis"
}

func (connector *RedisConnector) SetConfig(dsViper *viper.Viper) {
	connector.dsConfig = dsViper
}

func (connector *RedisConnector) Connect(parentContext context.Context) error {
	dsViper := connector.dsConfig
	url := dsViper.GetString(connector.dsKey + ".url")
	if url == "" {
		url = fmt.Sprintf("%v:%v", dsViper.GetString(connector.dsKey+".host"), dsViper.GetInt(connector.dsKey+".port"))
	}
	connector.client = redis.NewClient(&redis.Options{
		Addr:     url,
		Password: dsViper.GetString(connector.dsKey + ".password"),
		DB:       dsViper.GetInt(connector.dsKey + ".db"),
	})
	connector.context = parentContext
	return nil
}

func (connector *RedisConnector) Disconnect() error {
	return connector.client.Close()
}

func (connector *RedisConnector) Ping(parentCtx context.Context) error {
	return connector.client.Ping(parentCtx).Err()
}

func (connector *RedisConnector) composeKey(bucket string, key string) string {
	return fmt.Sprintf("%v:%v:%v", connector.dsConfig.GetString(connector.dsKey+".database"), bucket, key)
}

func (connector *RedisConnector) Get(bucket string, key string) ([]byte, error) {
	cmd := connector.client.Get(connector.context, connector.composeKey(bucket, key))
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return cmd.Bytes()
}

func (connector *RedisConnector) Set(bucket string, key string, value []byte, ttl time.Duration) error {
	return connector.client.Set(connector.context, connector.composeKey(bucket, key), value, ttl).Err()
}

func (connector *RedisConnector) Delete(bucket string, key string) error {
	return connector.client.Del(connector.context, connector.composeKey(bucket, key)).Err()
}

func (connector *RedisConnector) GetClient() interface{} {
	return connector.client
}

// NewRedisConnector Factory method for RedisConnector
func NewRedisConnector(dsKey string) KVConnector {
	return &RedisConnector{
		dsKey: dsKey,
	}
}
