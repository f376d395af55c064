package graph

import (
	"github.com/UkralStul/social-feed-service/internal/feed"
)

// Resolver - корневая структура резолвера.
// Она содержит все зависимости, которые нужны для выполнения запросов.
type Resolver struct {
	Feed *feed.Service
}
