package helper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"bitable-press/internal/press/model"
)

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("load decodes stored document over defaults", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "site"},
			{Key: "feishu", Value: bson.D{{Key: "appId", Value: "cli"}, {Key: "tableId", Value: "tbl"}}},
			{Key: "site", Value: bson.D{{Key: "name", Value: "Mongo Blog"}}},
		}))
		store := &MongoStore{Coll: mt.Coll}

		cfg, err := store.Load(context.Background())

		require.NoError(mt, err)
		assert.Equal(mt, "cli", cfg.Feishu.AppID)
		assert.Equal(mt, "tbl", cfg.Feishu.TableID)
		assert.Equal(mt, "Mongo Blog", cfg.Site.Name)
		assert.Equal(mt, 20, cfg.Features.PostsPerPage)
	})

	mt.Run("load without document returns defaults", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		store := &MongoStore{Coll: mt.Coll}

		cfg, err := store.Load(context.Background())

		require.NoError(mt, err)
		assert.Equal(mt, model.DefaultSiteConfig(), cfg)
	})

	mt.Run("save upserts", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
		))
		store := &MongoStore{Coll: mt.Coll}

		err := store.Save(context.Background(), model.DefaultSiteConfig())

		assert.NoError(mt, err)
	})

	mt.Run("save surfaces write errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11000,
			Name:    "DuplicateKey",
			Message: "duplicate key",
		}))
		store := &MongoStore{Coll: mt.Coll}

		err := store.Save(context.Background(), model.DefaultSiteConfig())

		assert.Error(mt, err)
	})
}
