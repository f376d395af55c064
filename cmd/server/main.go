package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/UkralStul/social-feed-service/graph"
	"github.com/UkralStul/social-feed-service/internal/config"
	"github.com/UkralStul/social-feed-service/internal/dataloader"
	"github.com/UkralStul/social-feed-service/internal/domain"
	"github.com/UkralStul/social-feed-service/internal/feed"
	"github.com/UkralStul/social-feed-service/internal/httpapi"
	"github.com/UkralStul/social-feed-service/internal/idgen"
	"github.com/UkralStul/social-feed-service/internal/lock"
	"github.com/UkralStul/social-feed-service/internal/session"
	"github.com/UkralStul/social-feed-service/internal/storage"
	"github.com/UkralStul/social-feed-service/internal/storage/inmemory"
	"github.com/UkralStul/social-feed-service/internal/storage/mongodb"
	"github.com/UkralStul/social-feed-service/internal/storage/postgres"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	storageType := flag.String("storage", "", "Storage type (in-memory, postgres or mongo)")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *storageType)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Starting server with %s storage", cfg.Storage.Type)
	store, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open %s storage: %v", cfg.Storage.Type, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("failed to close storage: %v", err)
		}
	}()

	ids, err := idgen.New(idgen.Scheme(cfg.Feed.IDScheme), nil)
	if err != nil {
		log.Fatalf("invalid id scheme: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("invalid time location: %v", err)
	}

	var locker lock.Locker = lock.NewKeyedMutex()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect to redis at %s: %v", cfg.Redis.Addr, err)
		}
		defer client.Close()
		locker = lock.NewRedisLocker(client, cfg.Redis.LockTTL)
		log.Printf("Using redis lock at %s", cfg.Redis.Addr)
	}

	svc := feed.New(store, feed.Options{
		IDs:          ids,
		Locker:       locker,
		DeletePolicy: feed.DeletePolicy(cfg.Feed.DeletePolicy),
		Concurrency:  cfg.Feed.Concurrency,
		MaxAttempts:  cfg.Retry.MaxAttempts,
		Location:     loc,
	})

	if cfg.Storage.Type == config.StorageInMemory && cfg.Storage.Seed {
		// Заполним данными для тестов
		fillWithMockData(ctx, store, svc)
	}

	auth := session.New(cfg.Session.JWTSecret)
	router := httpapi.NewRouter(svc, auth)

	router.Handle("/", playground.Handler("GraphQL playground", "/query"))
	router.With(auth.Middleware).Handle("/query", dataloader.Middleware(svc.UserBatcher(), graph.NewServer(svc)))

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("graceful shutdown failed: %v", err)
		}
	}()

	log.Printf("connect to http://localhost:%s/ for GraphQL playground", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed to start: %v", err)
	}
	log.Println("server stopped")
}

func loadConfig(path, storageType string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if storageType != "" {
		cfg.Storage.Type = storageType
		return cfg, cfg.Validate()
	}
	return cfg, nil
}

func openStorage(ctx context.Context, cfg config.Config) (storage.Storage, error) {
	switch cfg.Storage.Type {
	case config.StoragePostgres:
		return postgres.New(cfg.Postgres.DSN, gormLogLevel(cfg.Postgres.LogLevel))
	case config.StorageMongo:
		return mongodb.New(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	default:
		return inmemory.New(), nil
	}
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	default:
		return logger.Info
	}
}

func fillWithMockData(ctx context.Context, s storage.Storage, svc *feed.Service) {
	// 1. Пользователи и подписки.
	users := []*domain.User{
		{ID: "user-1", Username: "anna", FullName: "Anna Petrova", Country: "RU", Interests: []string{"Travel", "Food"}},
		{ID: "user-2", Username: "mark", FullName: "Mark Stone", Country: "US", Interests: []string{"Tech"}},
		{ID: "user-3", Username: "lena", FullName: "Lena Novak", Country: "CZ"},
		{ID: "user-admin", Username: "admin", FullName: "Moderator", Admin: true},
	}
	for _, u := range users {
		if err := s.SaveUser(ctx, u); err != nil {
			log.Fatalf("fillWithMockData: failed to save user %s: %v", u.ID, err)
		}
	}
	if err := s.AddFollow(ctx, &domain.Follow{FollowerID: "user-3", FollowingID: "user-1"}); err != nil {
		log.Fatalf("fillWithMockData: failed to add follow: %v", err)
	}

	// 2. Посты от имени пользователей.
	post, err := svc.CreatePost(ctx, "user-1", "Вернулась из поездки по Грузии, делюсь впечатлениями.")
	if err != nil {
		log.Fatalf("fillWithMockData: failed to create post: %v", err)
	}
	techPost, err := svc.CreatePost(ctx, "user-2", "Собрал новый сервер для домашней лаборатории.")
	if err != nil {
		log.Fatalf("fillWithMockData: failed to create second post: %v", err)
	}

	// 3. Лайк и комментарий, автор получит два уведомления.
	if _, err := svc.ToggleLike(ctx, "user-2", post.ID, post.UserID); err != nil {
		log.Fatalf("fillWithMockData: failed to like post: %v", err)
	}
	if _, err := svc.CreateComment(ctx, "user-3", post.ID, "Очень красиво!", post.UserID); err != nil {
		log.Fatalf("fillWithMockData: failed to create comment: %v", err)
	}

	log.Printf("Mock data filled successfully. Created posts: %s, %s", post.ID, techPost.ID)
}
