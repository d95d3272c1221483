package records

import (
	"context"

	"inmuebles_console/internal/model"
	"inmuebles_console/internal/store"
)

// Orchestrator is the sole writer of the properties collection. Editor
// payloads and delete confirmations are routed through here; everything else
// reads listings through the listing store.
type Orchestrator struct {
	store store.DocumentStore
}

func New(ds store.DocumentStore) *Orchestrator {
	return &Orchestrator{store: ds}
}

// Save persists an editor payload: records carrying an id are updated in
// place, the rest are added and get their id from the store.
func (o *Orchestrator) Save(ctx context.Context, payload *model.Property) (string, error) {
	if payload.ID != "" {
		if err := o.store.Update(ctx, payload.ID, payload); err != nil {
			return "", err
		}
		return payload.ID, nil
	}
	return o.store.Add(ctx, payload)
}

// Delete removes the record. Callers confirm before getting here.
func (o *Orchestrator) Delete(ctx context.Context, id string) error {
	return o.store.Delete(ctx, id)
}
