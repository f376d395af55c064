package dataloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/UkralStul/social-feed-service/internal/domain"

	"github.com/stretchr/testify/assert"
)

type countingBatcher struct {
	mu    sync.Mutex
	calls [][]string
	users map[string]*domain.User
}

func (b *countingBatcher) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	b.mu.Lock()
	b.calls = append(b.calls, ids)
	b.mu.Unlock()
	out := make(map[string]*domain.User)
	for _, id := range ids {
		if u, ok := b.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func TestLoaders_BatchesConcurrentLoads(t *testing.T) {
	b := &countingBatcher{users: map[string]*domain.User{
		"a": {ID: "a", FullName: "Alice"},
		"b": {ID: "b", FullName: "Bob"},
	}}
	l := NewLoaders(b)
	ctx := context.Background()

	var wg sync.WaitGroup
	names := make([]string, 4)
	for i, id := range []string{"a", "b", "a", "b"} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			u, err := l.LoadUser(ctx, id)
			if assert.NoError(t, err) {
				names[i] = u.FullName
			}
		}(i, id)
	}
	wg.Wait()

	assert.Equal(t, []string{"Alice", "Bob", "Alice", "Bob"}, names)
	b.mu.Lock()
	defer b.mu.Unlock()
	assert.LessOrEqual(t, len(b.calls), 2)
}

func TestLoaders_MissingUser(t *testing.T) {
	l := NewLoaders(&countingBatcher{users: map[string]*domain.User{}})
	_, err := l.LoadUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMiddleware_InjectsLoaders(t *testing.T) {
	assert.Nil(t, For(context.Background()))

	var got *Loaders
	h := Middleware(&countingBatcher{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = For(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotNil(t, got)
}
