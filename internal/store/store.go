package store

import (
	"context"
	"errors"

	"inmuebles_console/internal/model"
)

var ErrNotFound = errors.New("property not found")

// DocumentStore is the backing store for the properties collection. Writers
// get firestore-like semantics: string ids assigned on Add, and subscribers
// receive a full snapshot ordered by publication date descending after every
// committed write.
type DocumentStore interface {
	Add(ctx context.Context, p *model.Property) (string, error)
	Update(ctx context.Context, id string, p *model.Property) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*model.Property, error)

	// Subscribe returns a snapshot stream primed with the current state and
	// an unsubscribe func. Slow consumers may miss intermediate snapshots
	// but always eventually observe the latest one.
	Subscribe() (<-chan []model.Property, func())
}
