package orders

import (
	"time"

	"venue-backend/internal/domain/purchaser"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentOnline PaymentMethod = "online"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCOD || m == PaymentOnline
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

type ItemType string

const (
	ItemProduct    ItemType = "product"
	ItemTournament ItemType = "tournament"
	ItemEvent      ItemType = "event"
)

func (t ItemType) Valid() bool {
	switch t {
	case ItemProduct, ItemTournament, ItemEvent:
		return true
	}
	return false
}

// Product is owned by the catalog; this service only reads it.
type Product struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"not null" json:"name"`
	PriceCents int64  `gorm:"not null" json:"price_cents"`
	Stock      int    `gorm:"not null;default:0" json:"stock"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ShippingAddress struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	FullName   string  `gorm:"not null" json:"full_name"`
	Line1      string  `gorm:"not null" json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `gorm:"not null" json:"city"`
	PostalCode string  `gorm:"not null" json:"postal_code"`
	Country    string  `gorm:"not null" json:"country"`
	Phone      string  `gorm:"not null" json:"phone"`

	CreatedAt time.Time `json:"created_at"`
}

// MissingFields lists the required address fields left blank.
func (a ShippingAddress) MissingFields() []string {
	var missing []string
	for _, f := range []struct {
		name, value string
	}{
		{"full_name", a.FullName},
		{"line1", a.Line1},
		{"city", a.City},
		{"postal_code", a.PostalCode},
		{"country", a.Country},
		{"phone", a.Phone},
	} {
		if isBlank(f.value) {
			missing = append(missing, f.name)
		}
	}
	return missing
}

type Order struct {
	ID uint `gorm:"primaryKey" json:"id"`
	purchaser.Purchaser

	TotalAmountCents  int64         `gorm:"not null" json:"total_amount_cents"`
	ShippingCostCents int64         `gorm:"not null;default:0" json:"shipping_cost_cents"`
	Status            Status        `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentMethod     PaymentMethod `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentStatus     PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`

	ShippingAddressID uint             `gorm:"not null" json:"shipping_address_id"`
	ShippingAddress   *ShippingAddress `json:"shipping_address,omitempty"`
	OrderReference    *string          `gorm:"uniqueIndex" json:"order_reference,omitempty"`

	Items []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OrderItem struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	OrderID    uint     `gorm:"not null;index" json:"order_id"`
	ItemType   ItemType `gorm:"type:varchar(20);not null" json:"item_type"`
	ItemID     uint     `gorm:"not null" json:"item_id"`
	Quantity   int      `gorm:"not null" json:"quantity"`
	PriceCents int64    `gorm:"not null" json:"price_cents"`

	CreatedAt time.Time `json:"created_at"`
}

func (i OrderItem) LineTotal() int64 {
	return int64(i.Quantity) * i.PriceCents
}

// CartItem rows belong to the storefront cart; this service only clears them.
type CartItem struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	UserID   uint     `gorm:"not null;index" json:"user_id"`
	ItemType ItemType `gorm:"type:varchar(20);not null" json:"item_type"`
	ItemID   uint     `gorm:"not null" json:"item_id"`
	Quantity int      `gorm:"not null;default:1" json:"quantity"`

	CreatedAt time.Time `json:"created_at"`
}
