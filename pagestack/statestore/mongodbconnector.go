package statestore

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type MongoDBStoreOptions struct {
	Timeout int
}

// MongoDBConnector implements the KVConnector interface. Each bucket maps to
// a collection; entries are {_id, value, expiresAt} documents.
type MongoDBConnector struct {
	db      *mongo.Client
	options *MongoDBStoreOptions
	dsKey   string
	dsViper *viper.Viper

	context context.Context
}

type storedEntry struct {
	Id        string           `bson:"_id"`
	Value     primitive.Binary `bson:"value"`
	ExpiresAt *time.Time       `bson:"expiresAt,omitempty"`
}

func (connector *MongoDBConnector) GetName() string {
	return "mongodb"
}

func (connector *MongoDBConnector) SetConfig(dsViper *viper.Viper) {
	connector.dsViper = dsViper
}

func (connector *MongoDBConnector) Connect(parentContext context.Context) error {
	var mongoCtx context.Context
	var cancelFn context.CancelFunc
	if connector.options != nil && connector.options.Timeout > 0 {
		mongoCtx, cancelFn = context.WithTimeout(parentContext, time.Duration(connector.options.Timeout)*time.Second)
		defer cancelFn()
	} else {
		mongoCtx = parentContext
	}

	url := connector.dbUrl()

	var clientOpts *options.ClientOptions
	if connector.dsViper.GetString(connector.dsKey+".username") != "" && connector.dsViper.GetString(connector.dsKey+".password") != "" {
		credential := options.Credential{
			Username: connector.dsViper.GetString(connector.dsKey + ".username"),
			Password: connector.dsViper.GetString(connector.dsKey + ".password"),
		}
		clientOpts = options.Client().ApplyURI(url).SetAuth(credential)
	} else {
		clientOpts = options.Client().ApplyURI(url)
	}

	timeoutForOptions := time.Second * 30
	if connector.options != nil && connector.options.Timeout > 0 {
		timeoutForOptions = time.Duration(connector.options.Timeout) * time.Second
	}
	clientOpts = clientOpts.SetSocketTimeout(timeoutForOptions).SetConnectTimeout(timeoutForOptions).SetServerSelectionTimeout(timeoutForOptions).SetMinPoolSize(1).SetMaxPoolSize(5)

	db, err := mongo.Connect(mongoCtx, clientOpts)
	if err != nil {
		return err
	}
	connector.db = db
	connector.context = parentContext

	return nil
}

func (connector *MongoDBConnector) Disconnect() error {
	return connector.db.Disconnect(connector.context)
}

func (connector *MongoDBConnector) Ping(parentCtx context.Context) error {
	var mongoCtx context.Context
	var cancelFn context.CancelFunc
	if connector.options != nil && connector.options.Timeout > 0 {
		mongoCtx, cancelFn = context.WithTimeout(parentCtx, time.Duration(connector.options.Timeout)*time.Second)
		defer cancelFn()
	} else {
		mongoCtx = parentCtx
	}

	return connector.db.Ping(mongoCtx, readpref.SecondaryPreferred())
}

func (connector *MongoDBConnector) collection(bucket string) *mongo.Collection {
	database := connector.db.Database(connector.dsViper.GetString(connector.dsKey + ".database"))
	return database.Collection(bucket)
}

func (connector *MongoDBConnector) Get(bucket string, key string) ([]byte, error) {
	var entry storedEntry
	err := connector.collection(bucket).FindOne(connector.context, bson.M{"_id": key}).Decode(&entry)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	if entry.ExpiresAt != nil && !entry.ExpiresAt.After(time.Now()) {
		_ = connector.Delete(bucket, key)
		return nil, nil
	}
	return entry.Value.Data, nil
}

func (connector *MongoDBConnector) Set(bucket string, key string, value []byte, ttl time.Duration) error {
	entry := storedEntry{
		Id:    key,
		Value: primitive.Binary{Data: value},
	}
	if ttl > 0 {
		expiresAt := time.Now().Add(ttl)
		entry.ExpiresAt = &expiresAt
	}
	upsert := true
	_, err := connector.collection(bucket).ReplaceOne(connector.context, bson.M{"_id": key}, entry, &options.ReplaceOptions{Upsert: &upsert})
	return err
}

func (connector *MongoDBConnector) Delete(bucket string, key string) error {
	_, err := connector.collection(bucket).DeleteOne(connector.context, bson.M{"_id": key})
	return err
}

func (connector *MongoDBConnector) GetClient() interface{} {
	return connector.db
}

func (connector *MongoDBConnector) dbUrl() string {
	dsViper := connector.dsViper
	url := ""
	if dsViper.GetString(connector.dsKey+".url") != "" {
		url = dsViper.GetString(connector.dsKey + ".url")
	} else {
		port := 0
		if dsViper.GetInt(connector.dsKey+".port") > 0 {
			port = dsViper.GetInt(connector.dsKey + ".port")
		}
		url = fmt.Sprintf("mongodb://%v:%v/%v", dsViper.GetString(connector.dsKey+".host"), port, dsViper.GetString(connector.dsKey+".database"))
		log.Printf("Using composed url %v\n", url)
	}
	return url
}

// NewMongoDBConnector Factory method for MongoDBConnector
func NewMongoDBConnector(dsKey string, mongoOptions *MongoDBStoreOptions) KVConnector {
	return &MongoDBConnector{
		options: mongoOptions,
		dsKey:   dsKey,
	}
}
