package editor

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inmuebles_console/internal/model"
	"inmuebles_console/internal/staging"
)

type fakeUploader struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (u *fakeUploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if u.err != nil {
		return "", u.err
	}
	return "https://cdn.example.com/" + filename, nil
}

func (u *fakeUploader) callCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls
}

func newTestEditor(t *testing.T) (*Editor, *staging.Allocator, *fakeUploader) {
	t.Helper()
	alloc, err := staging.NewAllocator(t.TempDir())
	require.NoError(t, err)
	uploader := &fakeUploader{}
	return New(staging.NewEngine(alloc, uploader)), alloc, uploader
}

func validForm() Form {
	return Form{
		Address:      "Main St 1",
		Price:        "100000",
		Sqft:         "80",
		ListingType:  model.ListingTypeSale,
		Category:     "Casa",
		Status:       model.PropertyStatusAvailable,
		MainFeatures: []string{"2 plantas", "Cochera", "Jardín"},
		Description:  "Amplia casa en el centro.",
	}
}

func TestLoadDefaults(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	ed.Load(nil)

	form := ed.Form()
	assert.Equal(t, model.ListingTypeSale, form.ListingType)
	assert.Equal(t, "Casa", form.Category)
	assert.Equal(t, model.PropertyStatusAvailable, form.Status)
	assert.Equal(t, []string{"", "", ""}, form.MainFeatures)
	assert.Empty(t, form.Services)
	assert.False(t, form.IsFeatured)
	assert.Zero(t, ed.Staging().Len())
	assert.False(t, ed.Editing())
}

func TestLoadSeedsFromRecord(t *testing.T) {
	ed, _, _ := newTestEditor(t)

	frontage := 8.5
	rooms := 3
	prior := &model.Property{
		ID:              "prop-1",
		Address:         "Av. Juárez 42",
		Price:           1250000,
		Sqft:            140,
		ListingType:     model.ListingTypeRent,
		Category:        "Departamento",
		Status:          model.PropertyStatusRented,
		MainFeatures:    []string{"Balcón", "Elevador", "Roof garden"},
		Description:     "Departamento céntrico.",
		Images:          []string{"https://a/1.jpg", "https://a/2.jpg"},
		IsFeatured:      true,
		PublicationDate: "2020-01-01T00:00:00Z",
		Frontage:        &frontage,
		Rooms:           &rooms,
		Services:        []string{"Agua", "Luz"},
	}
	ed.Load(prior)

	form := ed.Form()
	assert.Equal(t, "1250000", form.Price, "numerics render textually")
	assert.Equal(t, "140", form.Sqft)
	assert.Equal(t, "8.5", form.Frontage)
	assert.Equal(t, "3", form.Rooms)
	assert.Equal(t, "", form.Depth, "absent optionals stay empty")
	assert.Equal(t, "", form.Bathrooms)
	assert.Equal(t, []string{"Agua", "Luz"}, form.Services)
	assert.True(t, ed.Editing())

	sources := ed.Staging().Sources()
	require.Len(t, sources, 2)
	assert.Equal(t, "https://a/1.jpg", sources[0].URL)
}

func TestSubmitNewRecord(t *testing.T) {
	ed, _, uploader := newTestEditor(t)
	ed.Load(nil)
	ed.now = func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC) }

	ed.SetForm(validForm())

	payload, err := ed.Submit(context.Background())
	require.NoError(t, err)

	assert.Empty(t, payload.ID, "store assigns the id")
	assert.Equal(t, "2024-05-10T12:00:00Z", payload.PublicationDate)
	assert.Equal(t, float64(100000), payload.Price)
	assert.Equal(t, float64(80), payload.Sqft)
	assert.NotNil(t, payload.Images)
	assert.Empty(t, payload.Images)
	assert.Nil(t, payload.Frontage)
	assert.Nil(t, payload.Depth)
	assert.Nil(t, payload.Rooms)
	assert.Nil(t, payload.Bathrooms)
	assert.Nil(t, payload.Services, "unsupplied optionals are absent, not empty")
	assert.Zero(t, uploader.callCount())
}

func TestSubmitEditCarriesPublicationDate(t *testing.T) {
	ed, _, _ := newTestEditor(t)

	prior := &model.Property{
		ID:              "prop-9",
		Address:         "Main St 1",
		Price:           100000,
		Sqft:            80,
		ListingType:     model.ListingTypeSale,
		Category:        "Casa",
		Status:          model.PropertyStatusAvailable,
		MainFeatures:    []string{"a", "b", "c"},
		Description:     "desc",
		Images:          []string{"https://a/1.jpg", "https://a/2.jpg"},
		PublicationDate: "2020-01-01T00:00:00Z",
	}
	ed.Load(prior)
	ed.now = func() time.Time { t.Fatal("must not generate a fresh timestamp on edit"); return time.Time{} }

	payload, err := ed.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "prop-9", payload.ID)
	assert.Equal(t, "2020-01-01T00:00:00Z", payload.PublicationDate)
	assert.Equal(t, []string{"https://a/1.jpg", "https://a/2.jpg"}, []string(payload.Images))
}

func TestSubmitOptionalFieldsWhenSupplied(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	ed.Load(nil)

	form := validForm()
	form.Frontage = "8.5"
	form.Depth = "20"
	form.Rooms = "3"
	form.Bathrooms = "2"
	form.Services = []string{"Agua", "Internet"}
	ed.SetForm(form)

	payload, err := ed.Submit(context.Background())
	require.NoError(t, err)

	require.NotNil(t, payload.Frontage)
	assert.Equal(t, 8.5, *payload.Frontage)
	require.NotNil(t, payload.Depth)
	assert.Equal(t, 20.0, *payload.Depth)
	require.NotNil(t, payload.Rooms)
	assert.Equal(t, 3, *payload.Rooms)
	require.NotNil(t, payload.Bathrooms)
	assert.Equal(t, 2, *payload.Bathrooms)
	assert.Equal(t, []string{"Agua", "Internet"}, []string(payload.Services))
}

func TestSubmitValidatesRequiredFields(t *testing.T) {
	ed, _, uploader := newTestEditor(t)
	ed.Load(nil)

	form := validForm()
	form.Address = "  "
	form.Price = "not-a-number"
	form.MainFeatures = []string{"a", "", "c"}
	form.Description = ""
	ed.SetForm(form)

	_, err := ed.Submit(context.Background())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "address")
	assert.Contains(t, verr.Fields, "price")
	assert.Contains(t, verr.Fields, "mainFeatures[1]")
	assert.Contains(t, verr.Fields, "description")
	assert.Zero(t, uploader.callCount(), "validation fails before any upload")
}

func TestSubmitRejectsNegativeAndUnparseableNumerics(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	ed.Load(nil)

	form := validForm()
	form.Price = "-5"
	form.Rooms = "three"
	ed.SetForm(form)

	_, err := ed.Submit(context.Background())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "price")
	assert.Contains(t, verr.Fields, "rooms")
}

func TestSubmitRejectsNonFiniteNumerics(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	ed.Load(nil)

	form := validForm()
	form.Price = "NaN"
	form.Sqft = "Inf"
	form.Frontage = "-Inf"
	ed.SetForm(form)

	_, err := ed.Submit(context.Background())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "price")
	assert.Contains(t, verr.Fields, "sqft")
	assert.Contains(t, verr.Fields, "frontage")
}

func TestSubmitUploadFailureKeepsState(t *testing.T) {
	ed, alloc, uploader := newTestEditor(t)
	ed.Load(nil)
	ed.SetForm(validForm())
	require.NoError(t, ed.Staging().AddFiles(staging.File{
		Name:    "nueva.jpg",
		Content: strings.NewReader("bytes"),
	}))

	uploader.err = errors.New("host down")
	_, err := ed.Submit(context.Background())
	var uerr *UploadError
	require.ErrorAs(t, err, &uerr)

	// Field state and staged images survive for a manual retry.
	assert.Equal(t, "Main St 1", ed.Form().Address)
	assert.Equal(t, 1, ed.Staging().Len())
	assert.Equal(t, 1, alloc.Owned())

	uploader.err = nil
	payload, err := ed.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"https://cdn.example.com/nueva.jpg"}, []string(payload.Images))
}

func TestCancelReleasesOnlyNewHandles(t *testing.T) {
	ed, alloc, _ := newTestEditor(t)

	prior := &model.Property{
		ID:              "prop-2",
		Images:          []string{"https://a/1.jpg"},
		PublicationDate: "2021-06-01T00:00:00Z",
	}
	ed.Load(prior)
	require.NoError(t, ed.Staging().AddFiles(staging.File{
		Name:    "extra.jpg",
		Content: strings.NewReader("bytes"),
	}))
	require.Equal(t, 1, alloc.Owned())

	ed.Cancel()
	assert.Equal(t, 0, alloc.Owned(), "new handles released, existing images untouched")

	// A second cancel or close is harmless.
	ed.Cancel()
	ed.Close()
}
