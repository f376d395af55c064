package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/UkralStul/social-feed-service/internal/domain"
	"github.com/UkralStul/social-feed-service/internal/storage"
	"github.com/google/uuid"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Store реализует интерфейс Storage с использованием PostgreSQL.
type Store struct {
	db *gorm.DB
}

// New создает новый экземпляр хранилища PostgreSQL.
func New(dsn string, level logger.LogLevel) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Выполняем миграцию схемы
	if err := db.AutoMigrate(
		&domain.Post{}, &domain.Like{}, &domain.Comment{},
		&domain.User{}, &domain.Follow{}, &domain.Notification{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// notFound приводит gorm.ErrRecordNotFound к domain.ErrNotFound.
func notFound(err error, kind, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s with id %s: %w", kind, id, domain.ErrNotFound)
	}
	return err
}

func affected(res *gorm.DB, kind, id string) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s with id %s: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	// Запись по существующему id перезаписывает документ целиком
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(post).Error
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	var post domain.Post
	if err := s.db.WithContext(ctx).First(&post, "post_id = ?", id).Error; err != nil {
		return nil, notFound(err, "post", id)
	}
	return &post, nil
}

func (s *Store) ListPosts(ctx context.Context, sel storage.PostSelection) ([]*domain.Post, error) {
	if f, ok := sel.(storage.FollowingOnly); ok && len(f.AuthorIDs) == 0 {
		return []*domain.Post{}, nil
	}
	query, err := postQuery(s.db.WithContext(ctx), sel)
	if err != nil {
		return nil, err
	}
	var posts []*domain.Post
	err = query.Find(&posts).Error
	return posts, err
}

// postQuery - единственное место, где выбор ленты превращается в SQL.
func postQuery(db *gorm.DB, sel storage.PostSelection) (*gorm.DB, error) {
	query := db.Model(&domain.Post{}).Order("created_at DESC")
	switch sel := sel.(type) {
	case storage.AllPosts:
		return query, nil
	case storage.FollowingOnly:
		return query.Where("user_id IN ?", sel.AuthorIDs), nil
	default:
		return nil, fmt.Errorf("unsupported post selection %T", sel)
	}
}

func (s *Store) UpdatePostText(ctx context.Context, id, text string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&domain.Post{}).
		Where("post_id = ?", id).
		Updates(map[string]any{"post": text, "updated_at": at})
	return affected(res, "post", id)
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("post_id = ?", id).Delete(&domain.Post{})
	return affected(res, "post", id)
}

// === Like Methods ===

func (s *Store) GetLike(ctx context.Context, key string) (*domain.Like, error) {
	var like domain.Like
	if err := s.db.WithContext(ctx).First(&like, "like_key = ?", key).Error; err != nil {
		return nil, notFound(err, "like", key)
	}
	return &like, nil
}

func (s *Store) PutLike(ctx context.Context, like *domain.Like) error {
	if like.Key == "" {
		like.Key = domain.LikeKey(like.UserID, like.PostID)
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(like).Error
}

func (s *Store) DeleteLike(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("like_key = ?", key).Delete(&domain.Like{}).Error
}

func (s *Store) ListLikesByPost(ctx context.Context, postID string) ([]*domain.Like, error) {
	var likes []*domain.Like
	err := s.db.WithContext(ctx).Where("post_id = ?", postID).Order("like_created_at ASC").Find(&likes).Error
	return likes, err
}

func (s *Store) ListLikesByUser(ctx context.Context, userID string) ([]*domain.Like, error) {
	var likes []*domain.Like
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("like_created_at ASC").Find(&likes).Error
	return likes, err
}

func (s *Store) DeleteLikesByPost(ctx context.Context, postID string) error {
	return s.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&domain.Like{}).Error
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(comment).Error
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *Store) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	var comment domain.Comment
	if err := s.db.WithContext(ctx).First(&comment, "comment_id = ?", id).Error; err != nil {
		return nil, notFound(err, "comment", id)
	}
	return &comment, nil
}

func (s *Store) ListCommentsByPost(ctx context.Context, postID string) ([]*domain.Comment, error) {
	var comments []*domain.Comment
	err := s.db.WithContext(ctx).Where("post_id = ?", postID).Order("created_at ASC").Find(&comments).Error
	return comments, err
}

func (s *Store) CountCommentsByPost(ctx context.Context, postID string) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&domain.Comment{}).Where("post_id = ?", postID).Count(&n).Error
	return int(n), err
}

func (s *Store) UpdateCommentText(ctx context.Context, id, text string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&domain.Comment{}).
		Where("comment_id = ?", id).
		Updates(map[string]any{"comment_text": text, "updated_at": at})
	return affected(res, "comment", id)
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("comment_id = ?", id).Delete(&domain.Comment{})
	return affected(res, "comment", id)
}

func (s *Store) DeleteCommentsByPost(ctx context.Context, postID string) error {
	return s.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&domain.Comment{}).Error
}

// === User / Social Graph Methods ===

func (s *Store) SaveUser(ctx context.Context, user *domain.User) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(user).Error
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "user_id = ?", id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

func (s *Store) AddFollow(ctx context.Context, follow *domain.Follow) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(follow).Error
}

func (s *Store) GetFollowingIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&domain.Follow{}).
		Where("follower_user_id = ?", userID).
		Order("following_user_id").
		Pluck("following_user_id", &ids).Error
	return ids, err
}

// === Notification Methods ===

func (s *Store) CreateNotification(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(n).Error
}

func (s *Store) ListNotifications(ctx context.Context, userID string) ([]*domain.Notification, error) {
	var list []*domain.Notification
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&list).Error
	return list, err
}

// === Dataloader Method ===

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	var users []*domain.User
	// Загружаем всех авторов одним запросом
	if err := s.db.WithContext(ctx).Where("user_id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	result := make(map[string]*domain.User, len(users))
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
