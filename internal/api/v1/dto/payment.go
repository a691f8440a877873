package dto

// VerifyPaymentDTO carries the provider's signed confirmation of a
// subscription payment.
type VerifyPaymentDTO struct {
	PaymentID      string `json:"payment_id" validate:"required"`
	Signature      string `json:"signature" validate:"required"`
	SubscriptionID string `json:"subscription_id" validate:"required"`
}

// SubscribeResponseDTO returns the provider subscription id after purchase
type SubscribeResponseDTO struct {
	SubscriptionID string `json:"subscription_id"`
}

// APIKeyResponseDTO exposes the provider's public key id for checkout
type APIKeyResponseDTO struct {
	Key string `json:"key"`
}
