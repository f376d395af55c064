package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/UkralStul/social-feed-service/internal/domain"
	"github.com/google/uuid"
)

// Тексты уведомлений автору поста.
const (
	likedNotification     = "%s added your post to favorites"
	unlikedNotification   = "%s removed your post from favorites"
	commentedNotification = "%s added a comment to your post"
)

// LikeResult - итог переключения лайка.
type LikeResult struct {
	Liked   bool   `json:"liked"`
	Message string `json:"message"`
}

// CreatePost создает пост от имени зрителя. Категория - первый интерес автора.
func (s *Service) CreatePost(ctx context.Context, viewerID, text string) (*domain.Post, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: post cannot be empty", domain.ErrValidation)
	}
	user, err := s.actingUser(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	category := ""
	if len(user.Interests) > 0 {
		category = strings.ToLower(user.Interests[0])
	}
	now := s.now()
	post := &domain.Post{
		ID:        s.ids.PostID(text),
		UserID:    user.ID,
		Text:      text,
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := fetch(ctx, s, func() (*domain.Post, error) {
		return s.store.CreatePost(ctx, post)
	})
	if err != nil {
		log.Printf("failed to create post for user %s: %v", user.ID, err)
		return nil, err
	}
	return created, nil
}

// ToggleLike ставит или снимает лайк зрителя и уведомляет автора поста.
// Переключения одной пары (user, post) выполняются строго по очереди.
func (s *Service) ToggleLike(ctx context.Context, viewerID, postID, postAuthorID string) (*LikeResult, error) {
	if postID == "" {
		return nil, fmt.Errorf("%w: post id is required", domain.ErrValidation)
	}
	user, err := s.actingUser(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	authorID, err := s.postAuthor(ctx, postID, postAuthorID)
	if err != nil {
		return nil, err
	}

	key := domain.LikeKey(user.ID, postID)
	unlock, err := s.locker.Lock(ctx, "like:"+key)
	if err != nil {
		return nil, fmt.Errorf("failed to lock like %s: %w", key, err)
	}
	defer unlock()

	_, err = fetch(ctx, s, func() (*domain.Like, error) {
		return s.store.GetLike(ctx, key)
	})
	switch {
	case err == nil:
		if err := s.retry(ctx, func() error { return s.store.DeleteLike(ctx, key) }); err != nil {
			log.Printf("failed to remove like %s: %v", key, err)
			return nil, err
		}
		s.notify(ctx, fmt.Sprintf(unlikedNotification, user.FullName), authorID)
		return &LikeResult{Liked: false, Message: "You've removed this post from your favorites"}, nil

	case isNotFound(err):
		like := &domain.Like{
			Key:       key,
			ID:        s.ids.LikeID(user.ID),
			UserID:    user.ID,
			PostID:    postID,
			CreatedAt: s.now(),
		}
		if err := s.retry(ctx, func() error { return s.store.PutLike(ctx, like) }); err != nil {
			log.Printf("failed to create like %s: %v", key, err)
			return nil, err
		}
		s.notify(ctx, fmt.Sprintf(likedNotification, user.FullName), authorID)
		return &LikeResult{Liked: true, Message: "Post added to your favorites"}, nil

	default:
		return nil, err
	}
}

// EditPost перезаписывает текст поста. Править может автор или администратор.
func (s *Service) EditPost(ctx context.Context, viewerID, postID, text string) error {
	post, err := s.GetRawPost(ctx, postID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, viewerID, post.UserID); err != nil {
		return err
	}
	return s.retry(ctx, func() error {
		return s.store.UpdatePostText(ctx, postID, text, s.now())
	})
}

// DeletePost удаляет пост или комментарий, в зависимости от kind.
// Комментарии и лайки удалённого поста удаляются только при DeleteCascade.
func (s *Service) DeletePost(ctx context.Context, viewerID, id string, kind domain.DeleteKind) error {
	if kind == domain.KindComment {
		return s.deleteComment(ctx, viewerID, id)
	}

	post, err := s.GetRawPost(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, viewerID, post.UserID); err != nil {
		return err
	}
	if err := s.retry(ctx, func() error { return s.store.DeletePost(ctx, id) }); err != nil {
		log.Printf("failed to delete post %s: %v", id, err)
		return err
	}
	if s.deletePolicy != DeleteCascade {
		return nil
	}
	if err := s.retry(ctx, func() error { return s.store.DeleteCommentsByPost(ctx, id) }); err != nil {
		log.Printf("failed to delete comments of post %s: %v", id, err)
		return err
	}
	if err := s.retry(ctx, func() error { return s.store.DeleteLikesByPost(ctx, id) }); err != nil {
		log.Printf("failed to delete likes of post %s: %v", id, err)
		return err
	}
	return nil
}

func (s *Service) deleteComment(ctx context.Context, viewerID, id string) error {
	comment, err := s.getComment(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, viewerID, comment.UserID); err != nil {
		return err
	}
	return s.retry(ctx, func() error { return s.store.DeleteComment(ctx, id) })
}

// CreateComment добавляет комментарий и уведомляет автора поста.
func (s *Service) CreateComment(ctx context.Context, viewerID, postID, text, postAuthorID string) (*domain.Comment, error) {
	if postID == "" || strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: post id and comment text are required", domain.ErrValidation)
	}
	user, err := s.actingUser(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	authorID, err := s.postAuthor(ctx, postID, postAuthorID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	comment := &domain.Comment{
		ID:        s.ids.CommentID(text),
		UserID:    user.ID,
		PostID:    postID,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := fetch(ctx, s, func() (*domain.Comment, error) {
		return s.store.CreateComment(ctx, comment)
	})
	if err != nil {
		log.Printf("failed to create comment on post %s by %s: %v", postID, user.ID, err)
		return nil, err
	}
	s.notify(ctx, fmt.Sprintf(commentedNotification, user.FullName), authorID)
	return created, nil
}

// EditComment перезаписывает текст комментария. Править может автор или администратор.
func (s *Service) EditComment(ctx context.Context, viewerID, commentID, text string) error {
	comment, err := s.getComment(ctx, commentID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, viewerID, comment.UserID); err != nil {
		return err
	}
	return s.retry(ctx, func() error {
		return s.store.UpdateCommentText(ctx, commentID, text, s.now())
	})
}

// postAuthor находит автора поста по записи поста. Переданный клиентом автор
// только подсказка: при расхождении уведомление уходит настоящему автору.
func (s *Service) postAuthor(ctx context.Context, postID, hint string) (string, error) {
	post, err := s.GetRawPost(ctx, postID)
	if err != nil {
		return "", err
	}
	if hint != "" && hint != post.UserID {
		log.Printf("post %s: client-supplied author %s does not match %s", postID, hint, post.UserID)
	}
	return post.UserID, nil
}

func (s *Service) getComment(ctx context.Context, id string) (*domain.Comment, error) {
	return fetch(ctx, s, func() (*domain.Comment, error) {
		return s.store.GetCommentByID(ctx, id)
	})
}

// actingUser находит запись зрителя.
func (s *Service) actingUser(ctx context.Context, viewerID string) (*domain.User, error) {
	if viewerID == "" {
		return nil, domain.ErrUnauthenticated
	}
	user, err := fetch(ctx, s, func() (*domain.User, error) {
		return s.store.GetUser(ctx, viewerID)
	})
	if isNotFound(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, viewerID)
	}
	return user, err
}

// authorize пропускает владельца ресурса и администраторов.
func (s *Service) authorize(ctx context.Context, viewerID, ownerID string) error {
	if viewerID == "" {
		return domain.ErrUnauthenticated
	}
	if viewerID == ownerID {
		return nil
	}
	user, err := s.actingUser(ctx, viewerID)
	if err != nil {
		return err
	}
	if !user.Admin {
		return domain.ErrForbidden
	}
	return nil
}

// notify не откатывает уже записанную мутацию: сбой уведомления только логируется.
// id выдаётся до повторов, поэтому повтор после успешной записи не плодит дубли.
func (s *Service) notify(ctx context.Context, text, recipientID string) {
	n := &domain.Notification{
		ID:        uuid.NewString(),
		UserID:    recipientID,
		Text:      text,
		CreatedAt: s.now(),
	}
	err := s.retry(ctx, func() error {
		return s.notifier.Notify(ctx, n)
	})
	if err != nil {
		log.Printf("failed to notify %s: %v", recipientID, err)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
