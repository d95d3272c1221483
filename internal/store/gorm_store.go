package store

import (
	"context"
	"errors"
	"log"
	"sync"

	"gorm.io/gorm"

	"inmuebles_console/internal/model"
)

// GormStore implements DocumentStore on Postgres. Snapshot fan-out is local
// to the process, which is sufficient because the record orchestrator is the
// sole writer of the collection.
type GormStore struct {
	db *gorm.DB

	mu     sync.Mutex
	nextID int
	subs   map[int]chan []model.Property
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:   db,
		subs: make(map[int]chan []model.Property),
	}
}

func (s *GormStore) Add(ctx context.Context, p *model.Property) (string, error) {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return "", err
	}
	s.broadcast(ctx)
	return p.ID, nil
}

func (s *GormStore) Update(ctx context.Context, id string, p *model.Property) error {
	var existing model.Property
	if err := s.db.WithContext(ctx).First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	p.ID = id
	p.CreatedAt = existing.CreatedAt
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return err
	}
	s.broadcast(ctx)
	return nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&model.Property{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	s.broadcast(ctx)
	return nil
}

func (s *GormStore) Get(ctx context.Context, id string) (*model.Property, error) {
	var p model.Property
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) Subscribe() (<-chan []model.Property, func()) {
	ch := make(chan []model.Property, 8)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	if snapshot, err := s.snapshot(context.Background()); err == nil {
		ch <- snapshot
	} else {
		log.Printf("Could not load initial property snapshot: %v", err)
	}

	unsubscribe := func() {
		s.mu.Lock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
		s.mu.Unlock()
	}
	return ch, unsubscribe
}

func (s *GormStore) snapshot(ctx context.Context) ([]model.Property, error) {
	var props []model.Property
	err := s.db.WithContext(ctx).
		Order("publication_date DESC").
		Find(&props).Error
	return props, err
}

func (s *GormStore) broadcast(ctx context.Context) {
	snapshot, err := s.snapshot(ctx)
	if err != nil {
		log.Printf("Could not load property snapshot: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		// Make room by dropping the stalest pending snapshot.
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}
