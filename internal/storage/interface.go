package storage

import (
	"context"
	"time"

	"github.com/UkralStul/social-feed-service/internal/domain"
)

// PostSelection - набор постов-кандидатов ленты: AllPosts или FollowingOnly.
type PostSelection interface {
	isPostSelection()
}

// AllPosts выбирает все посты.
type AllPosts struct{}

// FollowingOnly выбирает посты указанных авторов. Пустой список даёт пустой результат.
type FollowingOnly struct {
	AuthorIDs []string
}

func (AllPosts) isPostSelection()      {}
func (FollowingOnly) isPostSelection() {}

// Storage определяет контракт для хранилищ.
// Отсутствующая запись всегда возвращается как ошибка, оборачивающая domain.ErrNotFound.
type Storage interface {
	CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error)
	GetPostByID(ctx context.Context, id string) (*domain.Post, error)
	ListPosts(ctx context.Context, sel PostSelection) ([]*domain.Post, error)
	UpdatePostText(ctx context.Context, id, text string, at time.Time) error
	DeletePost(ctx context.Context, id string) error

	GetLike(ctx context.Context, key string) (*domain.Like, error)
	PutLike(ctx context.Context, like *domain.Like) error
	DeleteLike(ctx context.Context, key string) error
	ListLikesByPost(ctx context.Context, postID string) ([]*domain.Like, error)
	ListLikesByUser(ctx context.Context, userID string) ([]*domain.Like, error)
	DeleteLikesByPost(ctx context.Context, postID string) error

	CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	GetCommentByID(ctx context.Context, id string) (*domain.Comment, error)
	ListCommentsByPost(ctx context.Context, postID string) ([]*domain.Comment, error)
	CountCommentsByPost(ctx context.Context, postID string) (int, error)
	UpdateCommentText(ctx context.Context, id, text string, at time.Time) error
	DeleteComment(ctx context.Context, id string) error
	DeleteCommentsByPost(ctx context.Context, postID string) error

	SaveUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	AddFollow(ctx context.Context, follow *domain.Follow) error
	GetFollowingIDs(ctx context.Context, userID string) ([]string, error)

	// CreateNotification идемпотентна по n.ID: повторная запись не создаёт дубль.
	CreateNotification(ctx context.Context, n *domain.Notification) error
	ListNotifications(ctx context.Context, userID string) ([]*domain.Notification, error)

	// Метод для Dataloader'а авторов
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)

	Close() error
}
