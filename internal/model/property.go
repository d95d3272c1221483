package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Listing Types
type ListingType string

const (
	ListingTypeSale ListingType = "Venta"
	ListingTypeRent ListingType = "Renta"
)

// Property Status
type PropertyStatus string

const (
	PropertyStatusAvailable PropertyStatus = "Disponible"
	PropertyStatusSold      PropertyStatus = "Vendida"
	PropertyStatusRented    PropertyStatus = "Rentada"
)

// Property is one listing document. IDs are strings assigned by the store on
// creation. The images column is an ordered JSON array; the image at position
// 0 is the primary image, there is no stored cover flag.
type Property struct {
	ID          string         `json:"id" gorm:"primaryKey"`
	Address     string         `json:"address" gorm:"not null"`
	Price       float64        `json:"price" gorm:"not null"`
	Sqft        float64        `json:"sqft" gorm:"not null"`
	ListingType ListingType    `json:"listingType" gorm:"not null"`
	Category    string         `json:"category" gorm:"not null"`
	Status      PropertyStatus `json:"status" gorm:"not null"`
	Description string         `json:"description" gorm:"type:text"`

	MainFeatures datatypes.JSONSlice[string] `json:"mainFeatures"`
	Images       datatypes.JSONSlice[string] `json:"images"`

	IsFeatured bool `json:"isFeatured" gorm:"default:false"`

	// RFC 3339, set once at creation and carried over verbatim on edits.
	PublicationDate string `json:"publicationDate" gorm:"index;not null"`

	// Optional lot/room details, absent from the JSON document when unset.
	Frontage  *float64                    `json:"frontage,omitempty"`
	Depth     *float64                    `json:"depth,omitempty"`
	Rooms     *int                        `json:"rooms,omitempty"`
	Bathrooms *int                        `json:"bathrooms,omitempty"`
	Services  datatypes.JSONSlice[string] `json:"services,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// BeforeCreate assigns the document id when the caller has not set one.
func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// PrimaryImage returns the representative thumbnail URL, derived purely from
// sequence position so it can never drift from the stored order.
func (p *Property) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
