package model

import "time"

// Payment is an append-only audit record written once per successfully
// verified subscription payment. Never updated or deleted.
type Payment struct {
	ID                     string    `db:"id" json:"id"`
	ProviderPaymentID      string    `db:"provider_payment_id" json:"provider_payment_id"`
	ProviderSubscriptionID string    `db:"provider_subscription_id" json:"provider_subscription_id"`
	ProviderSignature      string    `db:"provider_signature" json:"provider_signature"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
}
