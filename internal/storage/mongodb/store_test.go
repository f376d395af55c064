package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/UkralStul/social-feed-service/internal/domain"
	"github.com/UkralStul/social-feed-service/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestPostFilter(t *testing.T) {
	all, err := postFilter(storage.AllPosts{})
	require.NoError(t, err)
	assert.Empty(t, all)

	following, err := postFilter(storage.FollowingOnly{AuthorIDs: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"userId": bson.M{"$in": []string{"a", "b"}}}, following)

	// пустой список подписок - пустой $in, а не "все посты"
	empty, err := postFilter(storage.FollowingOnly{})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"userId": bson.M{"$in": []string{}}}, empty)
}

// newMockStore собирает Store поверх мок-деплоймента драйвера.
func newMockStore(mt *mtest.T) *Store {
	db := mt.DB
	return &Store{
		client:        mt.Client,
		posts:         db.Collection(postsCollection),
		likes:         db.Collection(likesCollection),
		comments:      db.Collection(commentsCollection),
		users:         db.Collection(usersCollection),
		follows:       db.Collection(followsCollection),
		notifications: db.Collection(notificationsCollection),
	}
}

func TestStore_NotFound(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("missing like", func(mt *mtest.T) {
		s := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.likes", mtest.FirstBatch))

		_, err := s.GetLike(ctx, "u1p1")
		assert.ErrorIs(mt, err, domain.ErrNotFound)
	})

	mt.Run("missing post", func(mt *mtest.T) {
		s := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.posts", mtest.FirstBatch))

		_, err := s.GetPostByID(ctx, "p1")
		assert.ErrorIs(mt, err, domain.ErrNotFound)
	})

	mt.Run("delete nothing", func(mt *mtest.T) {
		s := newMockStore(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		assert.ErrorIs(mt, s.DeletePost(ctx, "p1"), domain.ErrNotFound)
		assert.ErrorIs(mt, s.DeleteComment(ctx, "c1"), domain.ErrNotFound)
	})

	mt.Run("update nothing", func(mt *mtest.T) {
		s := newMockStore(mt)
		nothing := mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0})
		mt.AddMockResponses(nothing, nothing)

		assert.ErrorIs(mt, s.UpdatePostText(ctx, "p1", "x", time.Now()), domain.ErrNotFound)
		assert.ErrorIs(mt, s.UpdateCommentText(ctx, "c1", "x", time.Now()), domain.ErrNotFound)
	})
}

func TestStore_FoundAndUpdated(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("get like", func(mt *mtest.T) {
		s := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.likes", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "u1p1"},
			{Key: "likeId", Value: "l-1"},
			{Key: "userId", Value: "u1"},
			{Key: "postId", Value: "p1"},
		}))

		like, err := s.GetLike(ctx, "u1p1")
		require.NoError(mt, err)
		assert.Equal(mt, "u1p1", like.Key)
		assert.Equal(mt, "u1", like.UserID)
		assert.Equal(mt, "p1", like.PostID)

		filter := mt.GetStartedEvent().Command.Lookup("filter", "_id")
		assert.Equal(mt, "u1p1", filter.StringValue())
	})

	mt.Run("update and delete", func(mt *mtest.T) {
		s := newMockStore(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		assert.NoError(mt, s.UpdatePostText(ctx, "p1", "edited", time.Now()))
		assert.NoError(mt, s.DeletePost(ctx, "p1"))
	})
}

func TestStore_PutLikeUpsertsOnKey(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("upsert", func(mt *mtest.T) {
		s := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: "u1p1"}}}},
		))

		like := &domain.Like{ID: "l-1", UserID: "u1", PostID: "p1"}
		require.NoError(mt, s.PutLike(context.Background(), like))
		assert.Equal(mt, domain.LikeKey("u1", "p1"), like.Key)

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, "likes", cmd.Lookup("update").StringValue())
		assert.Equal(mt, "u1p1", cmd.Lookup("updates", "0", "q", "_id").StringValue())
		assert.True(mt, cmd.Lookup("updates", "0", "upsert").Boolean())
	})
}

func TestStore_GetFollowingIDs(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("projection", func(mt *mtest.T) {
		s := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.follows", mtest.FirstBatch,
			bson.D{{Key: "followingUserId", Value: "alice"}},
			bson.D{{Key: "followingUserId", Value: "carol"}},
		))

		ids, err := s.GetFollowingIDs(context.Background(), "bob")
		require.NoError(mt, err)
		assert.Equal(mt, []string{"alice", "carol"}, ids)

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, "bob", cmd.Lookup("filter", "followerUserId").StringValue())
		assert.EqualValues(mt, 1, cmd.Lookup("projection", "followingUserId").AsInt64())
	})
}

func TestStore_CreateNotificationUpsertsOnID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("upsert", func(mt *mtest.T) {
		s := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		n := &domain.Notification{ID: "n-1", UserID: "alice", Text: "hi"}
		require.NoError(mt, s.CreateNotification(context.Background(), n))

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, "n-1", cmd.Lookup("updates", "0", "q", "notificationId").StringValue())
		assert.True(mt, cmd.Lookup("updates", "0", "upsert").Boolean())
	})
}
