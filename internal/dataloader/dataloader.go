package dataloader

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/UkralStul/social-feed-service/internal/domain"
	"github.com/graph-gophers/dataloader"
)

type contextKey string

const key = contextKey("dataloaders")

// UserBatcher - часть хранилища, которая нужна лоадеру.
type UserBatcher interface {
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
}

// Loaders - лоадеры одного запроса.
type Loaders struct {
	UserByID *dataloader.Loader
}

// NewLoaders создает лоадеры для одного запроса.
func NewLoaders(store UserBatcher) *Loaders {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := make([]string, len(keys))
		for i, k := range keys {
			ids[i] = k.String()
		}

		// все авторы окна собираются в один вызов GetUsersByIDs
		users, err := store.GetUsersByIDs(ctx, ids)
		if err != nil {
			// сбой батча получает каждый ключ
			results := make([]*dataloader.Result, len(keys))
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		// dataloader сопоставляет результаты с ключами по индексу
		results := make([]*dataloader.Result, len(keys))
		for i, id := range ids {
			if u, ok := users[id]; ok {
				results[i] = &dataloader.Result{Data: u}
			} else {
				results[i] = &dataloader.Result{Error: fmt.Errorf("user with id %s: %w", id, domain.ErrNotFound)}
			}
		}
		return results
	}

	return &Loaders{
		UserByID: dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(time.Millisecond*1)),
	}
}

// LoadUser загружает пользователя через батч.
func (l *Loaders) LoadUser(ctx context.Context, id string) (*domain.User, error) {
	v, err := l.UserByID.Load(ctx, dataloader.StringKey(id))()
	if err != nil {
		return nil, err
	}
	return v.(*domain.User), nil
}

// Middleware кладёт в контекст свежие лоадеры на каждый запрос.
func Middleware(store UserBatcher, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithLoaders(r.Context(), NewLoaders(store))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithLoaders помещает лоадеры в контекст.
func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, key, l)
}

// For извлекает лоадеры из контекста. nil, если их там нет.
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(key).(*Loaders)
	return l
}
