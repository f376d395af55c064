package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/UkralStul/social-feed-service/internal/domain"
	"github.com/UkralStul/social-feed-service/internal/storage"
	"github.com/google/uuid"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Имена коллекций совпадают с документной моделью ленты.
const (
	postsCollection         = "posts"
	likesCollection         = "likes"
	commentsCollection      = "comments"
	usersCollection         = "users"
	followsCollection       = "follows"
	notificationsCollection = "notifications"
)

// Store реализует интерфейс Storage поверх MongoDB.
type Store struct {
	client        *mongo.Client
	posts         *mongo.Collection
	likes         *mongo.Collection
	comments      *mongo.Collection
	users         *mongo.Collection
	follows       *mongo.Collection
	notifications *mongo.Collection
}

// New подключается к MongoDB, проверяет соединение и создаёт индексы.
func New(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:        client,
		posts:         db.Collection(postsCollection),
		likes:         db.Collection(likesCollection),
		comments:      db.Collection(commentsCollection),
		users:         db.Collection(usersCollection),
		follows:       db.Collection(followsCollection),
		notifications: db.Collection(notificationsCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	log.Printf("Connected to MongoDB database %s", database)
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.posts: {
			{Keys: bson.D{{Key: "postId", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
		s.likes: {
			{Keys: bson.D{{Key: "postId", Value: 1}}},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
		s.comments: {
			{Keys: bson.D{{Key: "commentId", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "postId", Value: 1}}},
		},
		s.users: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: unique},
		},
		s.follows: {
			{Keys: bson.D{{Key: "followerUserId", Value: 1}, {Key: "followingUserId", Value: 1}}, Options: unique},
		},
		s.notifications: {
			{Keys: bson.D{{Key: "notificationId", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func notFound(err error, kind, id string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s with id %s: %w", kind, id, domain.ErrNotFound)
	}
	return err
}

func upsert() *options.ReplaceOptions {
	return options.Replace().SetUpsert(true)
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if _, err := s.posts.ReplaceOne(ctx, bson.M{"postId": post.ID}, post, upsert()); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	var post domain.Post
	if err := s.posts.FindOne(ctx, bson.M{"postId": id}).Decode(&post); err != nil {
		return nil, notFound(err, "post", id)
	}
	return &post, nil
}

func (s *Store) ListPosts(ctx context.Context, sel storage.PostSelection) ([]*domain.Post, error) {
	filter, err := postFilter(sel)
	if err != nil {
		return nil, err
	}
	posts := make([]*domain.Post, 0)
	err = s.findAll(ctx, s.posts, filter, bson.D{{Key: "createdAt", Value: -1}}, &posts)
	return posts, err
}

// postFilter - единственное место, где выбор ленты превращается в фильтр.
func postFilter(sel storage.PostSelection) (bson.M, error) {
	switch sel := sel.(type) {
	case storage.AllPosts:
		return bson.M{}, nil
	case storage.FollowingOnly:
		ids := sel.AuthorIDs
		if ids == nil {
			ids = []string{}
		}
		return bson.M{"userId": bson.M{"$in": ids}}, nil
	default:
		return nil, fmt.Errorf("unsupported post selection %T", sel)
	}
}

func (s *Store) UpdatePostText(ctx context.Context, id, text string, at time.Time) error {
	res, err := s.posts.UpdateOne(ctx, bson.M{"postId": id},
		bson.M{"$set": bson.M{"post": text, "updatedAt": at}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("post with id %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	return s.deleteOne(ctx, s.posts, bson.M{"postId": id}, "post", id)
}

// === Like Methods ===

func (s *Store) GetLike(ctx context.Context, key string) (*domain.Like, error) {
	var like domain.Like
	if err := s.likes.FindOne(ctx, bson.M{"_id": key}).Decode(&like); err != nil {
		return nil, notFound(err, "like", key)
	}
	return &like, nil
}

func (s *Store) PutLike(ctx context.Context, like *domain.Like) error {
	if like.Key == "" {
		like.Key = domain.LikeKey(like.UserID, like.PostID)
	}
	_, err := s.likes.ReplaceOne(ctx, bson.M{"_id": like.Key}, like, upsert())
	return err
}

func (s *Store) DeleteLike(ctx context.Context, key string) error {
	_, err := s.likes.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

func (s *Store) ListLikesByPost(ctx context.Context, postID string) ([]*domain.Like, error) {
	likes := make([]*domain.Like, 0)
	err := s.findAll(ctx, s.likes, bson.M{"postId": postID}, bson.D{{Key: "likeCreatedAt", Value: 1}}, &likes)
	return likes, err
}

func (s *Store) ListLikesByUser(ctx context.Context, userID string) ([]*domain.Like, error) {
	likes := make([]*domain.Like, 0)
	err := s.findAll(ctx, s.likes, bson.M{"userId": userID}, bson.D{{Key: "likeCreatedAt", Value: 1}}, &likes)
	return likes, err
}

func (s *Store) DeleteLikesByPost(ctx context.Context, postID string) error {
	_, err := s.likes.DeleteMany(ctx, bson.M{"postId": postID})
	return err
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if _, err := s.comments.ReplaceOne(ctx, bson.M{"commentId": comment.ID}, comment, upsert()); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *Store) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	var comment domain.Comment
	if err := s.comments.FindOne(ctx, bson.M{"commentId": id}).Decode(&comment); err != nil {
		return nil, notFound(err, "comment", id)
	}
	return &comment, nil
}

func (s *Store) ListCommentsByPost(ctx context.Context, postID string) ([]*domain.Comment, error) {
	comments := make([]*domain.Comment, 0)
	err := s.findAll(ctx, s.comments, bson.M{"postId": postID}, bson.D{{Key: "createdAt", Value: 1}}, &comments)
	return comments, err
}

func (s *Store) CountCommentsByPost(ctx context.Context, postID string) (int, error) {
	n, err := s.comments.CountDocuments(ctx, bson.M{"postId": postID})
	return int(n), err
}

func (s *Store) UpdateCommentText(ctx context.Context, id, text string, at time.Time) error {
	res, err := s.comments.UpdateOne(ctx, bson.M{"commentId": id},
		bson.M{"$set": bson.M{"commentText": text, "updatedAt": at}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("comment with id %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	return s.deleteOne(ctx, s.comments, bson.M{"commentId": id}, "comment", id)
}

func (s *Store) DeleteCommentsByPost(ctx context.Context, postID string) error {
	_, err := s.comments.DeleteMany(ctx, bson.M{"postId": postID})
	return err
}

// === User / Social Graph Methods ===

func (s *Store) SaveUser(ctx context.Context, user *domain.User) error {
	_, err := s.users.ReplaceOne(ctx, bson.M{"userId": user.ID}, user, upsert())
	return err
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := s.users.FindOne(ctx, bson.M{"userId": id}).Decode(&user); err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

func (s *Store) AddFollow(ctx context.Context, follow *domain.Follow) error {
	filter := bson.M{"followerUserId": follow.FollowerID, "followingUserId": follow.FollowingID}
	_, err := s.follows.ReplaceOne(ctx, filter, follow, upsert())
	return err
}

func (s *Store) GetFollowingIDs(ctx context.Context, userID string) ([]string, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "followingUserId", Value: 1}}).
		SetProjection(bson.M{"followingUserId": 1, "_id": 0})
	cursor, err := s.follows.Find(ctx, bson.M{"followerUserId": userID}, opts)
	if err != nil {
		return nil, err
	}
	var follows []domain.Follow
	if err := cursor.All(ctx, &follows); err != nil {
		return nil, err
	}
	ids := make([]string, len(follows))
	for i, f := range follows {
		ids[i] = f.FollowingID
	}
	return ids, nil
}

// === Notification Methods ===

func (s *Store) CreateNotification(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	_, err := s.notifications.ReplaceOne(ctx, bson.M{"notificationId": n.ID}, n, upsert())
	return err
}

func (s *Store) ListNotifications(ctx context.Context, userID string) ([]*domain.Notification, error) {
	list := make([]*domain.Notification, 0)
	err := s.findAll(ctx, s.notifications, bson.M{"userId": userID}, bson.D{{Key: "createdAt", Value: 1}}, &list)
	return list, err
}

// === Dataloader Method ===

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	users := make([]*domain.User, 0, len(ids))
	if err := s.findAll(ctx, s.users, bson.M{"userId": bson.M{"$in": ids}}, nil, &users); err != nil {
		return nil, err
	}
	result := make(map[string]*domain.User, len(users))
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		return err
	}
	log.Println("Disconnected from MongoDB")
	return nil
}

// === helpers ===

func (s *Store) findAll(ctx context.Context, coll *mongo.Collection, filter any, sort bson.D, out any) error {
	opts := options.Find()
	if sort != nil {
		opts.SetSort(sort)
	}
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	return cursor.All(ctx, out)
}

func (s *Store) deleteOne(ctx context.Context, coll *mongo.Collection, filter bson.M, kind, id string) error {
	res, err := coll.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s with id %s: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}
