package app

import (
	"context"
	"errors"
	"sync"

	"github.com/eventmesh-lab/events-service/internal/domain"
)

// fakeEventRepo stores snapshots so each load gets a fresh aggregate, the way
// a database-backed repository would.
type fakeEventRepo struct {
	mu        sync.Mutex
	events    map[string]domain.EventSnapshot
	addErr    error
	updateErr error
	adds      int
	updates   int
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[string]domain.EventSnapshot)}
}

func (f *fakeEventRepo) Add(_ context.Context, event *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	if _, ok := f.events[event.ID()]; ok {
		return domain.ErrDuplicateEntity
	}
	event.SetVersion(1)
	f.events[event.ID()] = event.Snapshot()
	f.adds++
	return nil
}

func (f *fakeEventRepo) GetByID(_ context.Context, id string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return domain.RestoreEvent(snap)
}

func (f *fakeEventRepo) Update(_ context.Context, event *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	stored, ok := f.events[event.ID()]
	if !ok {
		return domain.ErrEventNotFound
	}
	if stored.Version != event.Version() {
		return domain.ErrConcurrentUpdate
	}
	event.SetVersion(event.Version() + 1)
	f.events[event.ID()] = event.Snapshot()
	f.updates++
	return nil
}

func (f *fakeEventRepo) snapshot(id string) (domain.EventSnapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.events[id]
	return s, ok
}

var errBusDown = errors.New("bus down")

// fakePublisher accepts events until failAt (1-based) is reached. Like a
// real transport it refuses to send on a cancelled context.
type fakePublisher struct {
	mu        sync.Mutex
	published []domain.DomainEvent
	failAt    int
	calls     int
}

func (f *fakePublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.failAt > 0 && f.calls >= f.failAt {
		return errBusDown
	}
	f.published = append(f.published, event)
	return nil
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.published))
	for _, e := range f.published {
		out = append(out, e.EventType())
	}
	return out
}
