package graph

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/gorilla/websocket"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/UkralStul/social-feed-service/graph/generated"
	"github.com/UkralStul/social-feed-service/internal/domain"
	"github.com/UkralStul/social-feed-service/internal/feed"
)

// NewServer собирает GraphQL-сервер над сервисом ленты.
// Ошибки сервиса получают код в extensions.code.
func NewServer(svc *feed.Service) *handler.Server {
	schema := generated.NewExecutableSchema(generated.Config{Resolvers: &Resolver{Feed: svc}})

	srv := handler.New(schema)
	srv.AddTransport(transport.Options{})
	srv.AddTransport(transport.GET{})
	srv.AddTransport(transport.POST{})
	srv.AddTransport(&transport.Websocket{
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		KeepAlivePingInterval: 10 * time.Second,
	})
	srv.SetErrorPresenter(presentError)
	return srv
}

// presentError переводит доменную ошибку в gqlerror с кодом.
// Сообщения совпадают с REST-ответами.
func presentError(ctx context.Context, err error) *gqlerror.Error {
	gqlErr := graphql.DefaultErrorPresenter(ctx, err)
	if gqlErr.Extensions != nil {
		if _, ok := gqlErr.Extensions["code"]; ok {
			return gqlErr
		}
	}

	code, msg := classify(err)
	if msg != "" {
		gqlErr.Message = msg
	}
	if gqlErr.Extensions == nil {
		gqlErr.Extensions = map[string]interface{}{}
	}
	gqlErr.Extensions["code"] = code
	return gqlErr
}

func classify(err error) (code, msg string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "BAD_USER_INPUT", ""
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrUserNotFound):
		return "UNAUTHENTICATED", "User not authenticated"
	case errors.Is(err, domain.ErrForbidden):
		return "FORBIDDEN", ""
	case errors.Is(err, domain.ErrRetrieval):
		return "INTERNAL_SERVER_ERROR", domain.ErrRetrieval.Error()
	case errors.Is(err, domain.ErrNotFound):
		return "NOT_FOUND", ""
	default:
		return "INTERNAL_SERVER_ERROR", domain.ErrRetrieval.Error()
	}
}
