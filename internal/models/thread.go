package models

import (
	"time"

	"driftmarket/server/internal/utils"
)

// Thread represents a buyer/seller conversation about one listing.
// Summary fields (Preview, LastMessageAt, UnreadCount) are derived from the
// message sequence and are only ever written together with a message append.
type Thread struct {
	ID            utils.SixID `bson:"_id,omitempty" json:"id,omitempty"`
	ListingTitle  string      `bson:"listing_title" json:"listingTitle"`
	SellerName    string      `bson:"seller_name" json:"sellerName"`
	Preview       string      `bson:"preview" json:"preview"`
	LastMessageAt time.Time   `bson:"last_message_at" json:"lastMessageAt"`
	UnreadCount   int         `bson:"unread_count" json:"unreadCount"` // buyer-side inbox: seller messages not yet read
	Blocked       bool        `bson:"blocked" json:"blocked"`
	Reported      bool        `bson:"reported" json:"reported"` // one-way, never unset
	OfferState    *OfferState `bson:"offer_state,omitempty" json:"offerState,omitempty"`
	CreatedAt     time.Time   `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time   `bson:"updated_at" json:"updatedAt"`
}
