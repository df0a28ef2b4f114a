package helper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bitable-press/internal/press/model"
)

const (
	siteConfigCollection = "site_config"
	siteConfigID         = "site"
)

type Stores struct {
	Client     *mongo.Client
	DB         *mongo.Database
	SiteConfig *mongo.Collection // 固定集合：site_config，只存一条文档
}

// ConnectMongo 连接并 ping，用户名为空时不带认证
func ConnectMongo(ctx context.Context, host, dbname, username, password, authSource string) (*Stores, error) {
	clientOpts := options.Client().ApplyURI("mongodb://" + host)
	if username != "" {
		clientOpts.SetAuth(options.Credential{
			Username:   username,
			Password:   password,
			AuthSource: authSource,
		})
	}

	cli, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err = cli.Ping(ctx, nil); err != nil {
		_ = cli.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := cli.Database(dbname)
	return &Stores{
		Client:     cli,
		DB:         db,
		SiteConfig: db.Collection(siteConfigCollection),
	}, nil
}

func (s *Stores) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

type siteConfigDoc struct {
	model.SiteConfig `bson:",inline"`

	ID        string    `bson:"_id"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// MongoStore 站点配置存 MongoDB
type MongoStore struct {
	Coll *mongo.Collection
}

func NewMongoStore(stores *Stores) *MongoStore {
	return &MongoStore{Coll: stores.SiteConfig}
}

// Load 文档不存在时返回默认配置；文档里缺的字段保留默认值
func (s *MongoStore) Load(ctx context.Context) (model.SiteConfig, error) {
	doc := siteConfigDoc{SiteConfig: model.DefaultSiteConfig()}
	err := s.Coll.FindOne(ctx, bson.M{"_id": siteConfigID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.DefaultSiteConfig(), nil
	}
	if err != nil {
		return model.SiteConfig{}, fmt.Errorf("load site config: %w", err)
	}
	return doc.SiteConfig, nil
}

func (s *MongoStore) Save(ctx context.Context, cfg model.SiteConfig) error {
	doc := siteConfigDoc{
		ID:         siteConfigID,
		SiteConfig: cfg,
		UpdatedAt:  time.Now().UTC(),
	}
	_, err := s.Coll.ReplaceOne(ctx, bson.M{"_id": siteConfigID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save site config: %w", err)
	}
	return nil
}
