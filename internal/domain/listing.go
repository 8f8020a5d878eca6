package domain

// ListingStatus is the sale state of a listing as set by the client app.
type ListingStatus string

const (
	ListingActive   ListingStatus = "active"
	ListingReserved ListingStatus = "reserved"
	ListingSold     ListingStatus = "sold"
)

// Listing is an item offered for sale. Price is in minor currency units.
type Listing struct {
	ListingID   string        `json:"id" dynamodbav:"listing_id"`
	SellerID    string        `json:"seller_id" dynamodbav:"seller_id"`
	Title       string        `json:"title" dynamodbav:"title"`
	Description string        `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Price       int64         `json:"price" dynamodbav:"price"`
	Currency    string        `json:"currency,omitempty" dynamodbav:"currency,omitempty"`
	Photos      []string      `json:"photos" dynamodbav:"photos"`
	Status      ListingStatus `json:"status" dynamodbav:"status"`
	Location    *GeoPoint     `json:"location,omitempty" dynamodbav:"location,omitempty"`
	CreatedAt   Timestamp     `json:"created" dynamodbav:"created_at"`
	UpdatedAt   Timestamp     `json:"updated" dynamodbav:"updated_at"`
}

// WishlistEntry records that UserID liked ListingID. Entries are immutable.
type WishlistEntry struct {
	WishlistID string    `json:"id" dynamodbav:"wishlist_id"`
	UserID     string    `json:"user_id" dynamodbav:"user_id"`
	ListingID  string    `json:"listing_id" dynamodbav:"listing_id"`
	CreatedAt  Timestamp `json:"created" dynamodbav:"created_at"`
}
