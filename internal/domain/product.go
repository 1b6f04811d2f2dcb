package domain

import (
	"regexp"
	"strings"
	"time"
)

// Product categories form a closed set; anything else fails validation.
const (
	CategoryHighValue = "High value"
	CategorySecurity  = "Security"
	CategoryColdChain = "Cold chain"
)

// PhotoExtensions lists the accepted photo file extensions.
var PhotoExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

var (
	skuPattern      = regexp.MustCompile(`^[A-Z]{3}-\d{4}$`)
	namePattern     = regexp.MustCompile(`^[a-zA-Z0-9\sáéíóúÁÉÍÓÚñÑüÜ]+$`)
	locationPattern = regexp.MustCompile(`^[A-Z]-\d{2}-\d{2}$`)
	uuidPattern     = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

// Product represents one catalog record ingested from a file row.
type Product struct {
	ID             int64      `json:"id"`
	SKU            string     `json:"sku"`
	Name           string     `json:"name"`
	ExpirationDate time.Time  `json:"expiration_date"`
	Quantity       int        `json:"quantity"`
	Price          float64    `json:"price"`
	Location       string     `json:"location"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	ProviderID     string     `json:"provider_id"`
	PhotoFilename  *string    `json:"photo_filename,omitempty"`
	PhotoURL       *string    `json:"photo_url,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewProduct builds a product and stamps its timestamps. The result is not
// validated; call Validate before persisting.
func NewProduct(sku, name string, expirationDate time.Time, quantity int, price float64,
	location, description, category, providerID string, photoFilename, photoURL *string) Product {
	now := time.Now().UTC()
	return Product{
		SKU:            sku,
		Name:           name,
		ExpirationDate: expirationDate,
		Quantity:       quantity,
		Price:          price,
		Location:       location,
		Description:    description,
		Category:       category,
		ProviderID:     providerID,
		PhotoFilename:  photoFilename,
		PhotoURL:       photoURL,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Validate runs every business rule and returns the first violation as a
// ValidationError.
func (p Product) Validate() error {
	if err := p.validateSKU(); err != nil {
		return err
	}
	if err := p.validateName(); err != nil {
		return err
	}
	if err := p.validateExpirationDate(); err != nil {
		return err
	}
	if err := p.validateQuantity(); err != nil {
		return err
	}
	if err := p.validatePrice(); err != nil {
		return err
	}
	if err := p.validateLocation(); err != nil {
		return err
	}
	if err := p.validateCategory(); err != nil {
		return err
	}
	if err := p.validateProviderID(); err != nil {
		return err
	}
	return p.validatePhotoFilename()
}

func (p Product) validateSKU() error {
	if p.SKU == "" {
		return NewValidationError("sku is required")
	}
	if !skuPattern.MatchString(p.SKU) {
		return NewValidationError("sku must match the format AAA-0000 (3 letters, 4 digits)")
	}
	return nil
}

func (p Product) validateName() error {
	if p.Name == "" {
		return NewValidationError("name is required")
	}
	if len(strings.TrimSpace(p.Name)) < 3 {
		return NewValidationError("name must have at least 3 characters")
	}
	if !namePattern.MatchString(p.Name) {
		return NewValidationError("name must contain only alphanumeric characters, spaces and accents")
	}
	return nil
}

func (p Product) validateExpirationDate() error {
	if p.ExpirationDate.IsZero() {
		return NewValidationError("expiration date is required")
	}
	if !p.ExpirationDate.UTC().After(time.Now().UTC()) {
		return NewValidationError("expiration date must be in the future")
	}
	return nil
}

func (p Product) validateQuantity() error {
	if p.Quantity < 1 || p.Quantity > 9999 {
		return NewValidationError("quantity must be between 1 and 9999")
	}
	return nil
}

func (p Product) validatePrice() error {
	if p.Price <= 0 {
		return NewValidationError("price must be a positive value")
	}
	return nil
}

func (p Product) validateLocation() error {
	if p.Location == "" {
		return NewValidationError("location is required")
	}
	if !locationPattern.MatchString(p.Location) {
		return NewValidationError("location must match the format A-01-01 (aisle, shelf, level)")
	}
	return nil
}

func (p Product) validateCategory() error {
	if p.Category == "" {
		return NewValidationError("category is required")
	}
	switch p.Category {
	case CategoryHighValue, CategorySecurity, CategoryColdChain:
		return nil
	}
	return NewValidationErrorf("category must be one of: %s, %s, %s",
		CategoryHighValue, CategorySecurity, CategoryColdChain)
}

func (p Product) validateProviderID() error {
	if p.ProviderID == "" {
		return NewValidationError("provider id is required")
	}
	if !uuidPattern.MatchString(strings.ToLower(p.ProviderID)) {
		return NewValidationError("provider id must be a valid UUID")
	}
	return nil
}

func (p Product) validatePhotoFilename() error {
	if p.PhotoFilename == nil || *p.PhotoFilename == "" {
		return nil
	}
	name := strings.ToLower(*p.PhotoFilename)
	for _, ext := range PhotoExtensions {
		if strings.HasSuffix(name, ext) {
			return nil
		}
	}
	return NewValidationError("photo must be a JPG, PNG or GIF file")
}
