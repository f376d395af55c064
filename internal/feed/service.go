package feed

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/UkralStul/social-feed-service/internal/dataloader"
	"github.com/UkralStul/social-feed-service/internal/domain"
	"github.com/UkralStul/social-feed-service/internal/idgen"
	"github.com/UkralStul/social-feed-service/internal/lock"
	"github.com/UkralStul/social-feed-service/internal/storage"
	"github.com/cenkalti/backoff/v4"
)

// DeletePolicy решает судьбу комментариев и лайков удалённого поста.
type DeletePolicy string

const (
	// DeleteOrphan оставляет комментарии и лайки в хранилище.
	DeleteOrphan DeletePolicy = "orphan"
	// DeleteCascade удаляет их вместе с постом.
	DeleteCascade DeletePolicy = "cascade"
)

// Notifier доставляет уведомление получателю n.UserID.
// Повторная доставка с тем же n.ID не должна создавать второе уведомление.
type Notifier interface {
	Notify(ctx context.Context, n *domain.Notification) error
}

// SocialGraph отдаёт список тех, на кого подписан пользователь.
type SocialGraph interface {
	GetFollowingIDs(ctx context.Context, userID string) ([]string, error)
}

// Options - зависимости и настройки сервиса. Нулевые значения заменяются умолчаниями.
type Options struct {
	IDs          idgen.Generator
	Locker       lock.Locker
	Notifier     Notifier
	Graph        SocialGraph
	DeletePolicy DeletePolicy
	// Concurrency ограничивает число одновременно собираемых постов ленты.
	Concurrency int
	// MaxAttempts - число попыток для временных ошибок хранилища.
	MaxAttempts int
	Location    *time.Location
	Now         func() time.Time
}

// Service собирает ленту и выполняет мутации постов, лайков и комментариев.
type Service struct {
	store        storage.Storage
	ids          idgen.Generator
	locker       lock.Locker
	notifier     Notifier
	graph        SocialGraph
	deletePolicy DeletePolicy
	concurrency  int
	maxAttempts  int
	loc          *time.Location
	now          func() time.Time
}

// New создает сервис поверх хранилища.
func New(store storage.Storage, opts Options) *Service {
	s := &Service{
		store:        store,
		ids:          opts.IDs,
		locker:       opts.Locker,
		notifier:     opts.Notifier,
		graph:        opts.Graph,
		deletePolicy: opts.DeletePolicy,
		concurrency:  opts.Concurrency,
		maxAttempts:  opts.MaxAttempts,
		loc:          opts.Location,
		now:          opts.Now,
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.ids == nil {
		s.ids = idgen.NewULID(s.now)
	}
	if s.locker == nil {
		s.locker = lock.NewKeyedMutex()
	}
	if s.notifier == nil {
		s.notifier = NewStoreNotifier(store)
	}
	if s.graph == nil {
		s.graph = store
	}
	if s.deletePolicy == "" {
		s.deletePolicy = DeleteOrphan
	}
	if s.concurrency <= 0 {
		s.concurrency = 16
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = 3
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	return s
}

// UserBatcher возвращает загрузчик авторов для dataloader'а с теми же повторами, что и у сервиса.
func (s *Service) UserBatcher() dataloader.UserBatcher {
	return retryingBatcher{s}
}

type retryingBatcher struct{ s *Service }

func (b retryingBatcher) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	return fetch(ctx, b.s, func() (map[string]*domain.User, error) {
		return b.s.store.GetUsersByIDs(ctx, ids)
	})
}

// StoreNotifier пишет уведомления в коллекцию notifications.
type StoreNotifier struct {
	store interface {
		CreateNotification(ctx context.Context, n *domain.Notification) error
	}
}

// NewStoreNotifier создает StoreNotifier.
func NewStoreNotifier(store storage.Storage) *StoreNotifier {
	return &StoreNotifier{store: store}
}

func (n *StoreNotifier) Notify(ctx context.Context, note *domain.Notification) error {
	return n.store.CreateNotification(ctx, note)
}

// retry повторяет op при временных ошибках хранилища.
// Отсутствие записи и отмена контекста не повторяются.
func (s *Service) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.maxAttempts-1)), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		log.Printf("storage call failed, retrying: %v", err)
		return err
	}, policy)
}

func fetch[T any](ctx context.Context, s *Service, op func() (T, error)) (T, error) {
	var out T
	err := s.retry(ctx, func() error {
		v, err := op()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
