package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/UkralStul/social-feed-service/internal/domain"
	"github.com/UkralStul/social-feed-service/internal/storage"
	"github.com/google/uuid"
)

// Store реализует интерфейс Storage в памяти.
// Наружу всегда отдаются копии, внутренние записи не разделяются с вызывающим кодом.
type Store struct {
	mu            sync.RWMutex
	posts         map[string]domain.Post
	likes         map[string]domain.Like // map[likeKey]Like
	comments      map[string]domain.Comment
	users         map[string]domain.User
	follows       map[string]map[string]struct{} // map[followerID]set[followingID]
	notifications map[string][]domain.Notification
}

// New создает новый экземпляр in-memory хранилища.
func New() *Store {
	return &Store{
		posts:         make(map[string]domain.Post),
		likes:         make(map[string]domain.Like),
		comments:      make(map[string]domain.Comment),
		users:         make(map[string]domain.User),
		follows:       make(map[string]map[string]struct{}),
		notifications: make(map[string][]domain.Notification),
	}
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s with id %s: %w", kind, id, domain.ErrNotFound)
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	if post.UpdatedAt.IsZero() {
		post.UpdatedAt = post.CreatedAt
	}
	s.posts[post.ID] = *post
	return post, nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, notFound("post", id)
	}
	return &post, nil
}

func (s *Store) ListPosts(ctx context.Context, sel storage.PostSelection) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	match, err := postFilter(sel)
	if err != nil {
		return nil, err
	}

	posts := make([]*domain.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if match(&p) {
			p := p
			posts = append(posts, &p)
		}
	}

	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

// postFilter - единственное место, где выбор ленты превращается в условие.
func postFilter(sel storage.PostSelection) (func(*domain.Post) bool, error) {
	switch sel := sel.(type) {
	case storage.AllPosts:
		return func(*domain.Post) bool { return true }, nil
	case storage.FollowingOnly:
		authors := make(map[string]struct{}, len(sel.AuthorIDs))
		for _, id := range sel.AuthorIDs {
			authors[id] = struct{}{}
		}
		return func(p *domain.Post) bool {
			_, ok := authors[p.UserID]
			return ok
		}, nil
	default:
		return nil, fmt.Errorf("unsupported post selection %T", sel)
	}
}

func (s *Store) UpdatePostText(ctx context.Context, id, text string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return notFound("post", id)
	}
	post.Text = text
	post.UpdatedAt = at
	s.posts[id] = post
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return notFound("post", id)
	}
	delete(s.posts, id)
	return nil
}

// === Like Methods ===

func (s *Store) GetLike(ctx context.Context, key string) (*domain.Like, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	like, ok := s.likes[key]
	if !ok {
		return nil, notFound("like", key)
	}
	return &like, nil
}

func (s *Store) PutLike(ctx context.Context, like *domain.Like) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if like.Key == "" {
		like.Key = domain.LikeKey(like.UserID, like.PostID)
	}
	s.likes[like.Key] = *like
	return nil
}

func (s *Store) DeleteLike(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.likes, key)
	return nil
}

func (s *Store) ListLikesByPost(ctx context.Context, postID string) ([]*domain.Like, error) {
	return s.filterLikes(func(l *domain.Like) bool { return l.PostID == postID }), nil
}

func (s *Store) ListLikesByUser(ctx context.Context, userID string) ([]*domain.Like, error) {
	return s.filterLikes(func(l *domain.Like) bool { return l.UserID == userID }), nil
}

func (s *Store) DeleteLikesByPost(ctx context.Context, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, l := range s.likes {
		if l.PostID == postID {
			delete(s.likes, key)
		}
	}
	return nil
}

func (s *Store) filterLikes(match func(*domain.Like) bool) []*domain.Like {
	s.mu.RLock()
	defer s.mu.RUnlock()

	likes := make([]*domain.Like, 0)
	for _, l := range s.likes {
		if match(&l) {
			l := l
			likes = append(likes, &l)
		}
	}
	sort.Slice(likes, func(i, j int) bool {
		return likes[i].CreatedAt.Before(likes[j].CreatedAt)
	})
	return likes
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	if comment.UpdatedAt.IsZero() {
		comment.UpdatedAt = comment.CreatedAt
	}
	s.comments[comment.ID] = *comment
	return comment, nil
}

func (s *Store) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, ok := s.comments[id]
	if !ok {
		return nil, notFound("comment", id)
	}
	return &comment, nil
}

func (s *Store) ListCommentsByPost(ctx context.Context, postID string) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comments := make([]*domain.Comment, 0)
	for _, c := range s.comments {
		if c.PostID == postID {
			c := c
			comments = append(comments, &c)
		}
	}
	// Сортируем по времени создания, как в выдаче остальных хранилищ
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

func (s *Store) CountCommentsByPost(ctx context.Context, postID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, c := range s.comments {
		if c.PostID == postID {
			n++
		}
	}
	return n, nil
}

func (s *Store) UpdateCommentText(ctx context.Context, id, text string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.comments[id]
	if !ok {
		return notFound("comment", id)
	}
	comment.Text = text
	comment.UpdatedAt = at
	s.comments[id] = comment
	return nil
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return notFound("comment", id)
	}
	delete(s.comments, id)
	return nil
}

func (s *Store) DeleteCommentsByPost(ctx context.Context, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, c := range s.comments {
		if c.PostID == postID {
			delete(s.comments, id)
		}
	}
	return nil
}

// === User / Social Graph Methods ===

func (s *Store) SaveUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := *user
	u.Interests = append([]string(nil), user.Interests...)
	s.users[user.ID] = u
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	return copyUser(u), nil
}

func (s *Store) AddFollow(ctx context.Context, follow *domain.Follow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.follows[follow.FollowerID]
	if !ok {
		set = make(map[string]struct{})
		s.follows[follow.FollowerID] = set
	}
	set[follow.FollowingID] = struct{}{}
	return nil
}

func (s *Store) GetFollowingIDs(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.follows[userID]))
	for id := range s.follows[userID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// === Notification Methods ===

func (s *Store) CreateNotification(ctx context.Context, n *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	list := s.notifications[n.UserID]
	for i := range list {
		if list[i].ID == n.ID {
			list[i] = *n
			return nil
		}
	}
	s.notifications[n.UserID] = append(list, *n)
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string) ([]*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.notifications[userID]
	out := make([]*domain.Notification, len(list))
	for i := range list {
		n := list[i]
		out[i] = &n
	}
	return out, nil
}

// === Dataloader Methods ===

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			results[id] = copyUser(u)
		}
	}
	return results, nil
}

func (s *Store) Close() error { return nil }

func copyUser(u domain.User) *domain.User {
	u.Interests = append([]string(nil), u.Interests...)
	return &u
}
