// Package service holds the treasurer operations: student registry, payment
// settings, payment and expense ledgers and the read models built on them.
// Every owner scoped call takes the treasurer id explicitly.
package service

import (
	"context"
	"log/slog"
	"time"

	"tesoreria/internal/auth"
	"tesoreria/internal/domain"
	"tesoreria/internal/events"
	"tesoreria/internal/imagestore"
	"tesoreria/internal/storage"

	"github.com/google/uuid"
)

type Service struct {
	store        storage.Storage
	tokens       *auth.TokenService
	publisher    events.Publisher
	images       imagestore.Store
	strictMonths bool

	now   func() time.Time
	newID func() string
}

// New wires a Service. A nil publisher drops events and a nil image store
// falls back to data URLs.
func New(store storage.Storage, tokens *auth.TokenService, publisher events.Publisher, images imagestore.Store, strictMonths bool) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if images == nil {
		images = imagestore.DataURLStore{}
	}
	return &Service{
		store:        store,
		tokens:       tokens,
		publisher:    publisher,
		images:       images,
		strictMonths: strictMonths,
		now:          func() time.Time { return time.Now().UTC() },
		newID:        uuid.NewString,
	}
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func requireOwner(ownerID string) error {
	if ownerID == "" {
		return domain.ErrUnauthorized
	}
	return nil
}

// publish never fails the caller; the mutation is already committed.
func (s *Service) publish(ctx context.Context, typ, ownerID, entityID string) {
	e := events.New(typ, ownerID, entityID, s.now())
	if err := s.publisher.Publish(ctx, e); err != nil {
		slog.WarnContext(ctx, "event not published", "type", typ, "entity_id", entityID, "error", err)
	}
}
