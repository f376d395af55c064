package feed

import (
	"context"
	"fmt"
	"log"

	"github.com/UkralStul/social-feed-service/internal/dataloader"
	"github.com/UkralStul/social-feed-service/internal/domain"
	"github.com/UkralStul/social-feed-service/internal/storage"
	"golang.org/x/sync/errgroup"
)

// ComposeFeed собирает ленту для зрителя.
// Сбой любого поста прерывает всю сборку, частичный результат не возвращается.
func (s *Service) ComposeFeed(ctx context.Context, mode domain.FeedMode, viewerID string) ([]*domain.PostView, error) {
	if viewerID == "" {
		return nil, domain.ErrUnauthenticated
	}
	ctx = s.withLoaders(ctx)

	posts, err := s.candidates(ctx, mode, viewerID)
	if err != nil {
		log.Printf("failed to select feed posts for %s: %v", viewerID, err)
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrieval, err)
	}

	views := make([]*domain.PostView, len(posts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, post := range posts {
		g.Go(func() error {
			view, err := s.Assemble(gctx, post, viewerID)
			if err != nil {
				return err
			}
			views[i] = view
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("failed to compose feed for %s: %v", viewerID, err)
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrieval, err)
	}
	return views, nil
}

// candidates выбирает посты ленты. Пустая лента подписок заменяется общей.
func (s *Service) candidates(ctx context.Context, mode domain.FeedMode, viewerID string) ([]*domain.Post, error) {
	if mode == domain.ModeFollowing {
		following, err := s.FollowingIDs(ctx, viewerID)
		if err != nil {
			return nil, err
		}
		posts, err := s.listPosts(ctx, storage.FollowingOnly{AuthorIDs: following})
		if err != nil {
			return nil, err
		}
		if len(posts) > 0 {
			return posts, nil
		}
	}
	return s.listPosts(ctx, storage.AllPosts{})
}

func (s *Service) listPosts(ctx context.Context, sel storage.PostSelection) ([]*domain.Post, error) {
	return fetch(ctx, s, func() ([]*domain.Post, error) {
		return s.store.ListPosts(ctx, sel)
	})
}

// Assemble собирает представление одного поста. Автор обязан существовать.
func (s *Service) Assemble(ctx context.Context, post *domain.Post, viewerID string) (*domain.PostView, error) {
	var (
		author   *domain.User
		likes    int
		comments int
		liked    bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.resolveUser(gctx, post.UserID)
		if err != nil {
			return fmt.Errorf("failed to resolve author of post %s: %w", post.ID, err)
		}
		author = u
		return nil
	})
	g.Go(func() error {
		n, err := s.TotalLikes(gctx, post.ID)
		likes = n
		return err
	})
	g.Go(func() error {
		n, err := s.TotalComments(gctx, post.ID)
		comments = n
		return err
	})
	g.Go(func() error {
		v, err := s.HasLiked(gctx, viewerID, post.ID)
		liked = v
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.PostView{
		Post:            *post,
		CreatedAtString: FormatTimestamp(post.CreatedAt, s.loc),
		UpdatedAtString: FormatTimestamp(post.UpdatedAt, s.loc),
		TotalLikes:      likes,
		TotalComment:    comments,
		HasLikePost:     liked,
		User:            author.Projection(),
	}, nil
}

// TotalLikes считает лайки поста по строкам коллекции likes.
func (s *Service) TotalLikes(ctx context.Context, postID string) (int, error) {
	likes, err := fetch(ctx, s, func() ([]*domain.Like, error) {
		return s.store.ListLikesByPost(ctx, postID)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to fetch likes of post %s: %w", postID, err)
	}
	return len(likes), nil
}

// TotalComments считает комментарии поста.
func (s *Service) TotalComments(ctx context.Context, postID string) (int, error) {
	n, err := fetch(ctx, s, func() (int, error) {
		return s.store.CountCommentsByPost(ctx, postID)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count comments of post %s: %w", postID, err)
	}
	return n, nil
}

// HasLiked проверяет, есть ли пост среди всех лайков зрителя.
func (s *Service) HasLiked(ctx context.Context, viewerID, postID string) (bool, error) {
	if viewerID == "" {
		return false, domain.ErrUnauthenticated
	}
	liked, err := fetch(ctx, s, func() ([]*domain.Like, error) {
		return s.store.ListLikesByUser(ctx, viewerID)
	})
	if err != nil {
		return false, fmt.Errorf("failed to fetch liked posts of %s: %w", viewerID, err)
	}
	for _, l := range liked {
		if l.PostID == postID {
			return true, nil
		}
	}
	return false, nil
}

// GetPost возвращает собранное представление одного поста.
func (s *Service) GetPost(ctx context.Context, postID, viewerID string) (*domain.PostView, error) {
	if viewerID == "" {
		return nil, domain.ErrUnauthenticated
	}
	post, err := fetch(ctx, s, func() (*domain.Post, error) {
		return s.store.GetPostByID(ctx, postID)
	})
	if err != nil {
		return nil, err
	}
	view, err := s.Assemble(s.withLoaders(ctx), post, viewerID)
	if err != nil {
		log.Printf("failed to assemble post %s: %v", postID, err)
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrieval, err)
	}
	return view, nil
}

// PostExists сообщает, есть ли пост с таким id.
func (s *Service) PostExists(ctx context.Context, postID string) (bool, error) {
	_, err := s.GetRawPost(ctx, postID)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

// GetRawPost возвращает пост без сборки представления.
func (s *Service) GetRawPost(ctx context.Context, postID string) (*domain.Post, error) {
	return fetch(ctx, s, func() (*domain.Post, error) {
		return s.store.GetPostByID(ctx, postID)
	})
}

// ListComments возвращает комментарии поста вместе с авторами.
func (s *Service) ListComments(ctx context.Context, postID string) ([]*domain.CommentView, error) {
	ctx = s.withLoaders(ctx)
	comments, err := fetch(ctx, s, func() ([]*domain.Comment, error) {
		return s.store.ListCommentsByPost(ctx, postID)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrieval, err)
	}

	views := make([]*domain.CommentView, len(comments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, c := range comments {
		g.Go(func() error {
			u, err := s.resolveUser(gctx, c.UserID)
			if err != nil {
				return fmt.Errorf("failed to resolve author of comment %s: %w", c.ID, err)
			}
			views[i] = &domain.CommentView{
				Comment:         *c,
				CreatedAtString: FormatTimestamp(c.CreatedAt, s.loc),
				UpdatedAtString: FormatTimestamp(c.UpdatedAt, s.loc),
				User: domain.CommentAuthor{
					FullName:   u.FullName,
					ProfilePic: u.ProfilePic,
					Country:    u.Country,
				},
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("failed to list comments of post %s: %v", postID, err)
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrieval, err)
	}
	return views, nil
}

// UserCategory - первый интерес зрителя, пустая строка если интересов нет.
func (s *Service) UserCategory(ctx context.Context, viewerID string) (string, error) {
	u, err := s.actingUser(ctx, viewerID)
	if err != nil {
		return "", err
	}
	if len(u.Interests) == 0 {
		return "", nil
	}
	return u.Interests[0], nil
}

// FollowingIDs - на кого подписан пользователь.
func (s *Service) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := fetch(ctx, s, func() ([]string, error) {
		return s.graph.GetFollowingIDs(ctx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch following of %s: %w", userID, err)
	}
	return ids, nil
}

// Notifications - уведомления зрителя.
func (s *Service) Notifications(ctx context.Context, viewerID string) ([]*domain.Notification, error) {
	if viewerID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return fetch(ctx, s, func() ([]*domain.Notification, error) {
		return s.store.ListNotifications(ctx, viewerID)
	})
}

// withLoaders добавляет в контекст лоадеры, если их ещё нет (вызов не из HTTP-слоя).
func (s *Service) withLoaders(ctx context.Context) context.Context {
	if dataloader.For(ctx) != nil {
		return ctx
	}
	return dataloader.WithLoaders(ctx, dataloader.NewLoaders(s.UserBatcher()))
}

func (s *Service) resolveUser(ctx context.Context, id string) (*domain.User, error) {
	if l := dataloader.For(ctx); l != nil {
		return l.LoadUser(ctx, id)
	}
	return fetch(ctx, s, func() (*domain.User, error) {
		return s.store.GetUser(ctx, id)
	})
}
