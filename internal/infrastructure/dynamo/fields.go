package dynamo

// Key attributes and index names shared by the repositories and Bootstrap.
const (
	keyUserID         = "user_id"
	keyListingID      = "listing_id"
	keyWishlistID     = "wishlist_id"
	keyConversationID = "conversation_id"
	keyMessageID      = "message_id"
	keyNotificationID = "notification_id"
	keyTransactionID  = "transaction_id"

	fieldRead      = "read"
	fieldStatus    = "status"
	fieldCreatedAt = "created_at"
	fieldUpdatedAt = "updated_at"
	fieldBuyerID   = "buyer_id"
	fieldSellerID  = "seller_id"

	indexListing          = "listing_id-index"
	indexUserCreated      = "user_id-created_at-index"
	indexTransactionBuyer = "buyer_id-index"
	indexTransactionSell  = "seller_id-index"
)
