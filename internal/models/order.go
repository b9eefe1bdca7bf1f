package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
	OrderFailed     OrderStatus = "failed"
	OrderRefunded   OrderStatus = "refunded"
)

// Terminal reports whether no further transition is allowed from the status.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderCompleted, OrderCancelled, OrderFailed, OrderRefunded:
		return true
	}
	return false
}

type PaymentGateway string

const (
	GatewayTelegramStars PaymentGateway = "telegram_stars"
	GatewayCryptomus     PaymentGateway = "cryptomus"
)

type Order struct {
	ID          uint   `gorm:"primaryKey"`
	OrderNumber string `gorm:"size:50;uniqueIndex;not null"`

	UserID    uint `gorm:"not null;index"`
	User      User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	ProductID uint `gorm:"not null;index"`
	Product   Product

	Quantity   int             `gorm:"default:1"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Currency   Currency        `gorm:"size:3;not null"`

	Status             OrderStatus    `gorm:"size:20;default:'pending';index"`
	PaymentGateway     PaymentGateway `gorm:"size:50"`
	PaymentID          string         `gorm:"size:255;index"`
	PaymentData        datatypes.JSONMap
	CancellationReason string `gorm:"size:255"`

	DeliveryData    datatypes.JSONMap
	DeliveryMessage string `gorm:"type:text"`
	DeliveredAt     *time.Time

	IsTrial      bool   `gorm:"default:false"`
	ReferralCode string `gorm:"size:50"`

	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt *time.Time
}

func (o *Order) IsPending() bool   { return o.Status == OrderPending }
func (o *Order) IsCompleted() bool { return o.Status == OrderCompleted }

// Payable reports whether a payment attempt may still resolve this order.
func (o *Order) Payable() bool {
	return o.Status == OrderPending || o.Status == OrderProcessing
}

// Expired reports whether the order is past its payment deadline.
func (o *Order) Expired(now time.Time) bool {
	return o.ExpiresAt != nil && now.After(*o.ExpiresAt)
}

func (o *Order) FormattedTotal() string {
	return FormatAmount(o.TotalPrice, o.Currency)
}
