package domain

import (
	"fmt"
	"time"
)

// TradeType is how the item changes hands.
type TradeType string

const (
	TradeMeetup   TradeType = "meetup"
	TradeDelivery TradeType = "delivery"
	TradeLocker   TradeType = "locker"
)

// TransactionStatus is the lifecycle state of an escrow trade.
type TransactionStatus string

const (
	StatusInitiated       TransactionStatus = "initiated"
	StatusPendingPayment  TransactionStatus = "pending_payment"
	StatusPaidHeld        TransactionStatus = "paid_held"
	StatusMeetupScheduled TransactionStatus = "meetup_scheduled"
	StatusShipped         TransactionStatus = "shipped"
	StatusLockerReserved  TransactionStatus = "locker_reserved"
	StatusDelivered       TransactionStatus = "delivered"
	StatusPickedUp        TransactionStatus = "picked_up"
	StatusBuyerConfirmed  TransactionStatus = "buyer_confirmed"
	StatusReleased        TransactionStatus = "released"
	StatusCancelled       TransactionStatus = "cancelled"
	StatusDisputed        TransactionStatus = "disputed"
	StatusRefunded        TransactionStatus = "refunded"
)

// Terminal reports whether no further transition is possible.
func (s TransactionStatus) Terminal() bool {
	return s == StatusReleased || s == StatusRefunded
}

// EscrowStatus tracks the money independently of the trade status.
type EscrowStatus string

const (
	EscrowPendingPayment EscrowStatus = "pending_payment"
	EscrowPaidHeld       EscrowStatus = "paid_held"
	EscrowReleased       EscrowStatus = "released"
	EscrowRefunded       EscrowStatus = "refunded"
)

// Amount is a price breakdown in minor currency units.
type Amount struct {
	Item        int64 `json:"item" dynamodbav:"item" validate:"gte=0"`
	Shipping    int64 `json:"shipping" dynamodbav:"shipping" validate:"gte=0"`
	PlatformFee int64 `json:"platform_fee" dynamodbav:"platform_fee" validate:"gte=0"`
	Total       int64 `json:"total" dynamodbav:"total" validate:"gte=0"`
}

// Validate checks non-negativity and total = item + shipping + platformFee.
func (a Amount) Validate() error {
	if a.Item < 0 || a.Shipping < 0 || a.PlatformFee < 0 || a.Total < 0 {
		return fmt.Errorf("amount components must be non-negative: %w", ErrInvalidArgument)
	}
	if a.Total != a.Item+a.Shipping+a.PlatformFee {
		return fmt.Errorf("amount total %d != item %d + shipping %d + fee %d: %w",
			a.Total, a.Item, a.Shipping, a.PlatformFee, ErrInvalidArgument)
	}
	return nil
}

// MeetupDetails is the trade payload for in-person handoff.
type MeetupDetails struct {
	Place       string     `json:"place" dynamodbav:"place"`
	Point       *GeoPoint  `json:"point,omitempty" dynamodbav:"point,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty" dynamodbav:"scheduled_at,omitempty"`
}

// DeliveryDetails is the trade payload for courier shipping.
type DeliveryDetails struct {
	Address        string     `json:"address" dynamodbav:"address"`
	Carrier        string     `json:"carrier,omitempty" dynamodbav:"carrier,omitempty"`
	TrackingNumber string     `json:"tracking_number,omitempty" dynamodbav:"tracking_number,omitempty"`
	ShippedAt      *time.Time `json:"shipped_at,omitempty" dynamodbav:"shipped_at,omitempty"`
}

// LockerDetails is the trade payload for parcel-locker handoff.
type LockerDetails struct {
	LockerID      string     `json:"locker_id" dynamodbav:"locker_id"`
	Compartment   string     `json:"compartment,omitempty" dynamodbav:"compartment,omitempty"`
	ReservedUntil *time.Time `json:"reserved_until,omitempty" dynamodbav:"reserved_until,omitempty"`
}

// Dispute is raised by a participant and freezes the trade for review.
type Dispute struct {
	OpenedBy string    `json:"opened_by" dynamodbav:"opened_by"`
	Reason   string    `json:"reason" dynamodbav:"reason"`
	OpenedAt time.Time `json:"opened_at" dynamodbav:"opened_at"`
}

// Transaction is one payment attempt for a listing. Exactly one of Meetup,
// Delivery and Locker is set, matching TradeType.
type Transaction struct {
	TransactionID string            `json:"id" dynamodbav:"transaction_id"`
	ListingID     string            `json:"listing_id" dynamodbav:"listing_id"`
	BuyerID       string            `json:"buyer_id" dynamodbav:"buyer_id"`
	SellerID      string            `json:"seller_id" dynamodbav:"seller_id"`
	TradeType     TradeType         `json:"trade_type" dynamodbav:"trade_type"`
	Status        TransactionStatus `json:"status" dynamodbav:"status"`
	EscrowStatus  EscrowStatus      `json:"escrow_status" dynamodbav:"escrow_status"`
	Amount        Amount            `json:"amount" dynamodbav:"amount"`
	Currency      string            `json:"currency" dynamodbav:"currency"`
	SafetyCode    string            `json:"-" dynamodbav:"safety_code,omitempty"`
	Meetup        *MeetupDetails    `json:"meetup,omitempty" dynamodbav:"meetup,omitempty"`
	Delivery      *DeliveryDetails  `json:"delivery,omitempty" dynamodbav:"delivery,omitempty"`
	Locker        *LockerDetails    `json:"locker,omitempty" dynamodbav:"locker,omitempty"`
	Dispute       *Dispute          `json:"dispute,omitempty" dynamodbav:"dispute,omitempty"`
	CreatedAt     time.Time         `json:"created" dynamodbav:"created_at"`
	UpdatedAt     time.Time         `json:"updated" dynamodbav:"updated_at"`
}

// IsParticipant reports whether userID is the buyer or the seller.
func (t *Transaction) IsParticipant(userID string) bool {
	return userID != "" && (t.BuyerID == userID || t.SellerID == userID)
}

// CreateTransactionRequest is the input to escrow creation.
type CreateTransactionRequest struct {
	ListingID string           `json:"listing_id" validate:"required"`
	BuyerID   string           `json:"buyer_id" validate:"required"`
	SellerID  string           `json:"seller_id" validate:"required,nefield=BuyerID"`
	TradeType TradeType        `json:"trade_type" validate:"required,oneof=meetup delivery locker"`
	Amount    Amount           `json:"amount"`
	Currency  string           `json:"currency" validate:"required,len=3"`
	Meetup    *MeetupDetails   `json:"meetup,omitempty"`
	Delivery  *DeliveryDetails `json:"delivery,omitempty"`
	Locker    *LockerDetails   `json:"locker,omitempty"`
}

// ValidateTradeDetails checks that the payload set matches TradeType.
func (r *CreateTransactionRequest) ValidateTradeDetails() error {
	set := map[TradeType]bool{
		TradeMeetup:   r.Meetup != nil,
		TradeDelivery: r.Delivery != nil,
		TradeLocker:   r.Locker != nil,
	}
	for tt, present := range set {
		if tt != r.TradeType && present {
			return fmt.Errorf("%s details given for a %s trade: %w", tt, r.TradeType, ErrInvalidArgument)
		}
	}
	if !set[r.TradeType] {
		return fmt.Errorf("%s trade requires %s details: %w", r.TradeType, r.TradeType, ErrInvalidArgument)
	}
	return nil
}

// StatusUpdateRequest is the input to a transition request.
type StatusUpdateRequest struct {
	Status       TransactionStatus `json:"status" validate:"required"`
	EscrowStatus *EscrowStatus     `json:"escrow_status,omitempty"`
}

// DisputeRequest opens a dispute.
type DisputeRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

// VerifyCodeRequest carries the safety code typed in by the seller.
type VerifyCodeRequest struct {
	Code string `json:"code" validate:"required,len=4,numeric"`
}
