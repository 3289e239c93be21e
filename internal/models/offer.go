package models

import "time"

// OfferStatus is the lifecycle state of a price offer.
type OfferStatus string

const (
	OfferPending   OfferStatus = "pending"
	OfferCountered OfferStatus = "countered"
	OfferAccepted  OfferStatus = "accepted"
	OfferDeclined  OfferStatus = "declined"
	OfferExpired   OfferStatus = "expired"
)

func (s OfferStatus) Valid() bool {
	switch s {
	case OfferPending, OfferCountered, OfferAccepted, OfferDeclined, OfferExpired:
		return true
	}
	return false
}

// Terminal reports whether s ends a negotiation episode. Only a new
// SubmitOffer can follow a terminal status.
func (s OfferStatus) Terminal() bool {
	return s == OfferAccepted || s == OfferDeclined || s == OfferExpired
}

// OfferState is the single live offer on a thread. It is replaced as a unit
// by each submission; partial offer states are never observable.
type OfferState struct {
	Amount        float64     `bson:"amount" json:"amount"`
	Status        OfferStatus `bson:"status" json:"status"`
	ExpiresAt     time.Time   `bson:"expires_at" json:"expiresAt"`
	LastUpdatedBy string      `bson:"last_updated_by" json:"lastUpdatedBy"`
	SubmittedAt   time.Time   `bson:"submitted_at" json:"submittedAt"`
}

// EffectiveStatus applies lazy expiry: a non-terminal offer whose expiry has
// passed reads as expired regardless of the stored status.
func (o *OfferState) EffectiveStatus(now time.Time) OfferStatus {
	if !o.Status.Terminal() && now.After(o.ExpiresAt) {
		return OfferExpired
	}
	return o.Status
}

// Lapsed reports whether the stored status no longer reflects reality and a
// sweep may persist the expired state.
func (o *OfferState) Lapsed(now time.Time) bool {
	return !o.Status.Terminal() && now.After(o.ExpiresAt)
}
