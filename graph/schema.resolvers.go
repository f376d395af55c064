package graph

import (
	"context"

	"github.com/UkralStul/social-feed-service/graph/generated"
	"github.com/UkralStul/social-feed-service/internal/domain"
	"github.com/UkralStul/social-feed-service/internal/feed"
	"github.com/UkralStul/social-feed-service/internal/session"
)

// === Query Resolvers ===

func (r *queryResolver) Feed(ctx context.Context, mode *string) ([]*domain.PostView, error) {
	return r.Resolver.Feed.ComposeFeed(ctx, domain.ParseFeedMode(deref(mode)), session.ViewerID(ctx))
}

func (r *queryResolver) Post(ctx context.Context, id string) (*domain.PostView, error) {
	return r.Resolver.Feed.GetPost(ctx, id, session.ViewerID(ctx))
}

func (r *queryResolver) PostExists(ctx context.Context, id string) (bool, error) {
	return r.Resolver.Feed.PostExists(ctx, id)
}

func (r *queryResolver) Comments(ctx context.Context, postID string) ([]*domain.CommentView, error) {
	return r.Resolver.Feed.ListComments(ctx, postID)
}

func (r *queryResolver) Notifications(ctx context.Context) ([]*domain.Notification, error) {
	notes, err := r.Resolver.Feed.Notifications(ctx, session.ViewerID(ctx))
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []*domain.Notification{}
	}
	return notes, nil
}

func (r *queryResolver) MyCategory(ctx context.Context) (string, error) {
	return r.Resolver.Feed.UserCategory(ctx, session.ViewerID(ctx))
}

// === Mutation Resolvers ===

func (r *mutationResolver) CreatePost(ctx context.Context, post string) (*domain.Post, error) {
	return r.Resolver.Feed.CreatePost(ctx, session.ViewerID(ctx), post)
}

func (r *mutationResolver) ToggleLike(ctx context.Context, postID string, postAuthorID *string) (*feed.LikeResult, error) {
	return r.Resolver.Feed.ToggleLike(ctx, session.ViewerID(ctx), postID, deref(postAuthorID))
}

func (r *mutationResolver) EditPost(ctx context.Context, id string, post string) (bool, error) {
	if err := r.Resolver.Feed.EditPost(ctx, session.ViewerID(ctx), id, post); err != nil {
		return false, err
	}
	return true, nil
}

func (r *mutationResolver) DeletePost(ctx context.Context, id string, kind *string) (bool, error) {
	k := domain.KindPost
	if kind != nil {
		k = domain.ParseDeleteKind(*kind)
	}
	if err := r.Resolver.Feed.DeletePost(ctx, session.ViewerID(ctx), id, k); err != nil {
		return false, err
	}
	return true, nil
}

func (r *mutationResolver) CreateComment(ctx context.Context, postID string, commentText string, postAuthorID *string) (*domain.Comment, error) {
	return r.Resolver.Feed.CreateComment(ctx, session.ViewerID(ctx), postID, commentText, deref(postAuthorID))
}

func (r *mutationResolver) EditComment(ctx context.Context, id string, commentText string) (bool, error) {
	if err := r.Resolver.Feed.EditComment(ctx, session.ViewerID(ctx), id, commentText); err != nil {
		return false, err
	}
	return true, nil
}

// Mutation returns generated.MutationResolver implementation.
func (r *Resolver) Mutation() generated.MutationResolver { return &mutationResolver{r} }

// Query returns generated.QueryResolver implementation.
func (r *Resolver) Query() generated.QueryResolver { return &queryResolver{r} }

type mutationResolver struct{ *Resolver }
type queryResolver struct{ *Resolver }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
