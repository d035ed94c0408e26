// Package services holds the chat domain: sending and listing messages,
// room membership, read positions and the invite workflow. Every exported
// operation returns *Error values for user-visible failures.
package services

import (
	"context"
	"log"
	"time"

	"github.com/CUknot/chat_backend/cache"
	"github.com/CUknot/chat_backend/metrics"
	"github.com/CUknot/chat_backend/repository"
)

const (
	DefaultPageSize = 30
	MaxPageSize     = 100

	defaultInviteTTL = 7 * 24 * time.Hour
)

// Publisher hands an event to the fan-out layer. Implementations never
// fail the caller.
type Publisher interface {
	Publish(ctx context.Context, topic, eventType string, payload any)
}

// Deps are the collaborators shared by the services.
type Deps struct {
	Store     repository.Store
	Presence  cache.Presence
	Publisher Publisher
	Now       func() time.Time
	InviteTTL time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.Presence == nil {
		d.Presence = cache.Noop{}
	}
	if d.Publisher == nil {
		d.Publisher = discard{}
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.InviteTTL <= 0 {
		d.InviteTTL = defaultInviteTTL
	}
	return d
}

type discard struct{}

func (discard) Publish(context.Context, string, string, any) {}

// Page is one page of a most-recent-first listing. Page numbers start at 0.
type Page[T any] struct {
	Items         []T   `json:"items"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	HasNext       bool  `json:"hasNext"`
}

// NormalizePage clamps paging parameters to the accepted range.
func NormalizePage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

func newPage[T any](items []T, page, size int, total int64) *Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := int((total + int64(size) - 1) / int64(size))
	return &Page[T]{
		Items:         items,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    pages,
		HasNext:       page+1 < pages,
	}
}

// cacheFailed records a swallowed cache error.
func cacheFailed(op string, err error) {
	metrics.CacheErrors.Inc()
	log.Printf("chat: cache %s failed, falling back to store: %v", op, err)
}
