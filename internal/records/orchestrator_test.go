package records

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inmuebles_console/internal/model"
	"inmuebles_console/internal/store"
)

type recordingStore struct {
	added   []*model.Property
	updated map[string]*model.Property
	deleted []string
}

func newRecordingStore() *recordingStore {
	return &recordingStore{updated: make(map[string]*model.Property)}
}

func (r *recordingStore) Add(_ context.Context, p *model.Property) (string, error) {
	p.ID = "generated-id"
	r.added = append(r.added, p)
	return p.ID, nil
}

func (r *recordingStore) Update(_ context.Context, id string, p *model.Property) error {
	r.updated[id] = p
	return nil
}

func (r *recordingStore) Delete(_ context.Context, id string) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *recordingStore) Get(context.Context, string) (*model.Property, error) {
	return nil, store.ErrNotFound
}

func (r *recordingStore) Subscribe() (<-chan []model.Property, func()) {
	ch := make(chan []model.Property)
	close(ch)
	return ch, func() {}
}

func TestSaveAddsWhenPayloadHasNoID(t *testing.T) {
	ds := newRecordingStore()
	orch := New(ds)

	id, err := orch.Save(context.Background(), &model.Property{Address: "Main St 1"})
	require.NoError(t, err)

	assert.Equal(t, "generated-id", id)
	require.Len(t, ds.added, 1)
	assert.Empty(t, ds.updated)
}

func TestSaveUpdatesInPlaceWhenPayloadHasID(t *testing.T) {
	ds := newRecordingStore()
	orch := New(ds)

	id, err := orch.Save(context.Background(), &model.Property{ID: "prop-1", Address: "Main St 1"})
	require.NoError(t, err)

	assert.Equal(t, "prop-1", id)
	assert.Empty(t, ds.added)
	require.Contains(t, ds.updated, "prop-1")
}

func TestDeletePassesThrough(t *testing.T) {
	ds := newRecordingStore()
	orch := New(ds)

	require.NoError(t, orch.Delete(context.Background(), "prop-1"))
	assert.Equal(t, []string{"prop-1"}, ds.deleted)
}
