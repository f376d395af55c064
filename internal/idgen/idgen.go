package idgen

import (
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	postIDLen = 15
	likeIDLen = 11
)

// Generator выдаёт идентификаторы постов, комментариев и лайков.
type Generator interface {
	PostID(text string) string
	CommentID(text string) string
	LikeID(userID string) string
}

// Scheme - имя схемы генерации из конфигурации.
type Scheme string

const (
	SchemeULID   Scheme = "ulid"
	SchemeLegacy Scheme = "legacy"
)

// New возвращает генератор для схемы. Неизвестная схема - ошибка.
func New(scheme Scheme, now func() time.Time) (Generator, error) {
	if now == nil {
		now = time.Now
	}
	switch scheme {
	case SchemeULID, "":
		return NewULID(now), nil
	case SchemeLegacy:
		return Legacy{Now: now}, nil
	default:
		return nil, fmt.Errorf("unknown id scheme %q", scheme)
	}
}

// Legacy - схема "время + содержимое". Два id в одну секунду с одинаковым
// префиксом текста совпадают.
type Legacy struct {
	Now func() time.Time
}

func (g Legacy) PostID(text string) string    { return LegacyPostID(g.Now(), text) }
func (g Legacy) CommentID(text string) string { return LegacyPostID(g.Now(), text) }
func (g Legacy) LikeID(userID string) string  { return LegacyLikeID(g.Now(), userID) }

// LegacyPostID: YYYYMMDDhhmmss + text, обрезанные до 15 символов.
func LegacyPostID(now time.Time, text string) string {
	base := fmt.Sprintf("%04d%02d%02d%02d%02d%02d%s",
		now.Year(), int(now.Month()), now.Day(), now.Hour(), now.Minute(), now.Second(), text)
	return truncate(base, postIDLen)
}

// LegacyLikeID: YYMMDDhhmmss + перевёрнутый userID, обрезанные до 11 символов.
func LegacyLikeID(now time.Time, userID string) string {
	base := fmt.Sprintf("%02d%02d%02d%02d%02d%02d%s",
		now.Year()%100, int(now.Month()), now.Day(), now.Hour(), now.Minute(), now.Second(), reverse(userID))
	return truncate(base, likeIDLen)
}

// ULID - монотонные ULID, упорядоченные по времени и уникальные в пределах процесса.
type ULID struct {
	mu      sync.Mutex
	now     func() time.Time
	entropy io.Reader
}

// NewULID создаёт генератор ULID.
func NewULID(now func() time.Time) *ULID {
	return &ULID{
		now:     now,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(now().UnixNano())), 0),
	}
}

func (g *ULID) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}

func (g *ULID) PostID(string) string    { return g.next() }
func (g *ULID) CommentID(string) string { return g.next() }
func (g *ULID) LikeID(string) string    { return g.next() }

// truncate режет по рунам, чтобы не ломать UTF-8.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
