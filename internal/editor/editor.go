package editor

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"inmuebles_console/internal/model"
	"inmuebles_console/internal/staging"
	"inmuebles_console/pkg/config"
)

// RequiredFeatures is how many main-feature slots must be filled in.
const RequiredFeatures = 3

// Form is the editable field state. Numeric fields stay textual while
// editing, exactly as typed; they are parsed on submit.
type Form struct {
	Address      string               `json:"address"`
	Price        string               `json:"price"`
	Sqft         string               `json:"sqft"`
	ListingType  model.ListingType    `json:"listingType"`
	Category     string               `json:"category"`
	Status       model.PropertyStatus `json:"status"`
	MainFeatures []string             `json:"mainFeatures"`
	Description  string               `json:"description"`
	IsFeatured   bool                 `json:"isFeatured"`
	Frontage     string               `json:"frontage"`
	Depth        string               `json:"depth"`
	Rooms        string               `json:"rooms"`
	Bathrooms    string               `json:"bathrooms"`
	Services     []string             `json:"services"`
}

// Editor composes the form state with one image staging engine and produces
// the finalized property payload on submit. One editor exclusively owns its
// staging sequence for the life of the session.
type Editor struct {
	form    Form
	prior   *model.Property
	staging *staging.Engine

	now func() time.Time
}

func New(engine *staging.Engine) *Editor {
	return &Editor{
		staging: engine,
		now:     time.Now,
	}
}

// Load seeds the editor from a prior record, or resets it to defaults when
// starting a new listing. Numeric fields render as their textual form;
// optional fields default to empty when absent.
func (ed *Editor) Load(prior *model.Property) {
	ed.prior = prior

	if prior == nil {
		ed.form = Form{
			ListingType:  model.ListingTypeSale,
			Category:     config.CategoryOptions[0],
			Status:       model.PropertyStatusAvailable,
			MainFeatures: make([]string, RequiredFeatures),
			Services:     []string{},
		}
		ed.staging.Init(nil)
		return
	}

	features := make([]string, RequiredFeatures)
	copy(features, prior.MainFeatures)
	if len(prior.MainFeatures) > RequiredFeatures {
		features = append([]string{}, prior.MainFeatures...)
	}

	ed.form = Form{
		Address:      prior.Address,
		Price:        formatFloat(prior.Price),
		Sqft:         formatFloat(prior.Sqft),
		ListingType:  prior.ListingType,
		Category:     prior.Category,
		Status:       prior.Status,
		MainFeatures: features,
		Description:  prior.Description,
		IsFeatured:   prior.IsFeatured,
		Frontage:     formatOptFloat(prior.Frontage),
		Depth:        formatOptFloat(prior.Depth),
		Rooms:        formatOptInt(prior.Rooms),
		Bathrooms:    formatOptInt(prior.Bathrooms),
		Services:     append([]string{}, prior.Services...),
	}
	ed.staging.Init(prior.Images)
}

// Form returns the current field state.
func (ed *Editor) Form() Form { return ed.form }

// SetForm replaces the field state with edited values.
func (ed *Editor) SetForm(f Form) { ed.form = f }

// Staging exposes the session's image staging engine.
func (ed *Editor) Staging() *staging.Engine { return ed.staging }

// Editing reports whether the session edits an existing record.
func (ed *Editor) Editing() bool { return ed.prior != nil }

// Submit validates the form, finalizes the image sequence and assembles the
// property payload. A ValidationError is returned before anything is
// uploaded; an UploadError leaves all state intact for a retry. The
// publication date is generated fresh only when there was no prior record,
// otherwise it is carried over unchanged.
func (ed *Editor) Submit(ctx context.Context) (*model.Property, error) {
	parsed, verr := ed.validate()
	if verr != nil {
		return nil, verr
	}

	urls, err := ed.staging.Finalize(ctx)
	if err != nil {
		return nil, &UploadError{Err: err}
	}

	payload := &model.Property{
		Address:      strings.TrimSpace(ed.form.Address),
		Price:        parsed.price,
		Sqft:         parsed.sqft,
		ListingType:  ed.form.ListingType,
		Category:     ed.form.Category,
		Status:       ed.form.Status,
		MainFeatures: parsed.features,
		Description:  ed.form.Description,
		Images:       urls,
		IsFeatured:   ed.form.IsFeatured,
		Frontage:     parsed.frontage,
		Depth:        parsed.depth,
		Rooms:        parsed.rooms,
		Bathrooms:    parsed.bathrooms,
	}

	if len(ed.form.Services) > 0 {
		payload.Services = append([]string{}, ed.form.Services...)
	}

	if ed.prior != nil {
		payload.ID = ed.prior.ID
		payload.PublicationDate = ed.prior.PublicationDate
	} else {
		payload.PublicationDate = ed.now().UTC().Format(time.RFC3339)
	}

	return payload, nil
}

// Close releases the staging resources of a completed session.
func (ed *Editor) Close() {
	ed.staging.Teardown()
}

// Cancel discards all in-progress edits without persisting anything.
// Pre-existing images own no handles so only newly added, not-yet-uploaded
// files are released.
func (ed *Editor) Cancel() {
	ed.staging.Teardown()
}

type parsedFields struct {
	price    float64
	sqft     float64
	features []string

	frontage  *float64
	depth     *float64
	rooms     *int
	bathrooms *int
}

func (ed *Editor) validate() (parsedFields, *ValidationError) {
	var p parsedFields
	var invalid []string

	if strings.TrimSpace(ed.form.Address) == "" {
		invalid = append(invalid, "address")
	}
	if v, err := parseRequiredFloat(ed.form.Price); err != nil || v < 0 {
		invalid = append(invalid, "price")
	} else {
		p.price = v
	}
	if v, err := parseRequiredFloat(ed.form.Sqft); err != nil || v < 0 {
		invalid = append(invalid, "sqft")
	} else {
		p.sqft = v
	}
	if ed.form.ListingType != model.ListingTypeSale && ed.form.ListingType != model.ListingTypeRent {
		invalid = append(invalid, "listingType")
	}
	if !containsOption(config.CategoryOptions, ed.form.Category) {
		invalid = append(invalid, "category")
	}
	switch ed.form.Status {
	case model.PropertyStatusAvailable, model.PropertyStatusSold, model.PropertyStatusRented:
	default:
		invalid = append(invalid, "status")
	}

	for i := 0; i < RequiredFeatures; i++ {
		if i >= len(ed.form.MainFeatures) || strings.TrimSpace(ed.form.MainFeatures[i]) == "" {
			invalid = append(invalid, "mainFeatures["+strconv.Itoa(i)+"]")
		}
	}
	for _, f := range ed.form.MainFeatures {
		if strings.TrimSpace(f) != "" {
			p.features = append(p.features, strings.TrimSpace(f))
		}
	}

	if strings.TrimSpace(ed.form.Description) == "" {
		invalid = append(invalid, "description")
	}

	var err error
	if p.frontage, err = parseOptFloat(ed.form.Frontage); err != nil {
		invalid = append(invalid, "frontage")
	}
	if p.depth, err = parseOptFloat(ed.form.Depth); err != nil {
		invalid = append(invalid, "depth")
	}
	if p.rooms, err = parseOptInt(ed.form.Rooms); err != nil {
		invalid = append(invalid, "rooms")
	}
	if p.bathrooms, err = parseOptInt(ed.form.Bathrooms); err != nil {
		invalid = append(invalid, "bathrooms")
	}

	if len(invalid) > 0 {
		return parsedFields{}, &ValidationError{Fields: invalid}
	}
	return p, nil
}

func parseRequiredFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	// ParseFloat accepts "NaN" and "Inf"; neither is a usable amount and
	// neither survives JSON encoding.
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

func parseOptFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := parseRequiredFloat(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseOptInt(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatOptInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func containsOption(options []string, value string) bool {
	for _, opt := range options {
		if opt == value {
			return true
		}
	}
	return false
}
