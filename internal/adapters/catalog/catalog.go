// Package catalog declares the event and photo collaborator interfaces the
// ranking engine consumes, plus in-memory implementations used by the binary
// and tests. Event lifecycle and photo storage live in other services; only
// the read surface needed here is modeled.
package catalog

import (
	"context"
	"sync"

	"github.com/okian/snapjudge/internal/domain/model"
)

// EventDirectory resolves events and their membership.
type EventDirectory interface {
	// Event returns the event by id.
	// Returns ErrEventNotFound if the event is unknown.
	Event(ctx context.Context, id string) (model.Event, error)
}

// PhotoCatalog resolves photos and event photo listings.
type PhotoCatalog interface {
	// Photo returns the photo by id.
	// Returns ErrPhotoNotFound if the photo is unknown.
	Photo(ctx context.Context, id string) (model.Photo, error)

	// PhotosInEvent returns every photo uploaded to the event.
	PhotosInEvent(ctx context.Context, eventID string) ([]model.Photo, error)
}

// InMemory implements both collaborator interfaces over seeded fixtures.
type InMemory struct {
	mu      sync.RWMutex
	events  map[string]model.Event
	photos  map[string]model.Photo
	byEvent map[string][]string
}

// NewInMemory creates an empty in-memory catalog.
func NewInMemory() *InMemory {
	return &InMemory{
		events:  make(map[string]model.Event),
		photos:  make(map[string]model.Photo),
		byEvent: make(map[string][]string),
	}
}

// PutEvent seeds or replaces an event.
func (m *InMemory) PutEvent(e model.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.ID] = e
}

// AddPhoto seeds a photo into its event.
func (m *InMemory) AddPhoto(p model.Photo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.photos[p.ID]; !exists {
		m.byEvent[p.EventID] = append(m.byEvent[p.EventID], p.ID)
	}
	m.photos[p.ID] = p
}

// Event returns the event by id.
func (m *InMemory) Event(ctx context.Context, id string) (model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	if !ok {
		return model.Event{}, ErrEventNotFound
	}
	return e, nil
}

// Photo returns the photo by id.
func (m *InMemory) Photo(ctx context.Context, id string) (model.Photo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.photos[id]
	if !ok {
		return model.Photo{}, ErrPhotoNotFound
	}
	return p, nil
}

// PhotosInEvent returns every photo uploaded to the event, in seed order.
func (m *InMemory) PhotosInEvent(ctx context.Context, eventID string) ([]model.Photo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.byEvent[eventID]
	out := make([]model.Photo, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.photos[id])
	}
	return out, nil
}
