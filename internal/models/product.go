package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type ProductCategory string

const (
	CategorySoftware     ProductCategory = "software"
	CategoryGaming       ProductCategory = "gaming"
	CategorySubscription ProductCategory = "subscription"
	CategoryDigital      ProductCategory = "digital"
	CategoryEducation    ProductCategory = "education"
)

type DeliveryType string

const (
	DeliveryLicenseKey   DeliveryType = "license_key"
	DeliveryAccountInfo  DeliveryType = "account_info"
	DeliveryDownloadLink DeliveryType = "download_link"
	DeliveryAPIAccess    DeliveryType = "api_access"
	DeliveryInstant      DeliveryType = "instant"
)

type Currency string

const (
	CurrencyRUB Currency = "RUB"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyXTR Currency = "XTR" // Telegram Stars
)

type Product struct {
	ID          uint            `gorm:"primaryKey"`
	Name        string          `gorm:"size:255;not null"`
	Description string          `gorm:"type:text"`
	Category    ProductCategory `gorm:"size:50;default:'digital'"`

	Price    decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Currency Currency        `gorm:"size:3;default:'RUB'"`

	DeliveryType DeliveryType `gorm:"size:50;default:'instant'"`
	DurationDays *int         // 0 for permanent, nil when not applicable

	StockCount *int `gorm:""` // nil = unlimited
	SoldCount  int  `gorm:"default:0"`

	DeliveryConfig datatypes.JSONMap `gorm:""`

	IsActive   bool `gorm:"default:true"`
	IsFeatured bool `gorm:"default:false"`

	Slug      *string `gorm:"size:255;uniqueIndex"`
	ImageURL  string  `gorm:"size:500"`
	SortOrder int     `gorm:"default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// InStock reports whether the product can be sold at all. Nil stock means
// unlimited.
func (p *Product) InStock() bool {
	return p.StockCount == nil || *p.StockCount > 0
}

// Available reports whether the product can be purchased right now.
func (p *Product) Available() bool {
	return p.IsActive && p.InStock()
}

// FormattedPrice renders the price with its currency symbol.
func (p *Product) FormattedPrice() string {
	return FormatAmount(p.Price, p.Currency)
}

func FormatAmount(amount decimal.Decimal, currency Currency) string {
	v := amount.StringFixed(2)
	switch currency {
	case CurrencyXTR:
		return v + " ⭐"
	case CurrencyRUB:
		return v + " ₽"
	case CurrencyUSD:
		return "$" + v
	case CurrencyEUR:
		return v + " €"
	default:
		return v + " " + string(currency)
	}
}
