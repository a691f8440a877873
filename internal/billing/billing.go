// Package billing wraps the payment-plan provider behind a narrow interface.
// The core never moves money itself; it only creates and cancels recurring
// subscriptions and relays payment lookups.
package billing

import "context"

// Subscription is the provider's view of a recurring billing subscription.
type Subscription struct {
	ID     string
	Status string
}

// Client is the payment-plan provider boundary. Provider failures are
// returned as-is; callers classify them as upstream dependency failures.
type Client interface {
	// CreateSubscription starts a recurring subscription on the given plan.
	CreateSubscription(ctx context.Context, planID string, totalCount int, customerNotify bool) (*Subscription, error)
	// CancelSubscription cancels by provider subscription id and reports the
	// resulting provider status.
	CancelSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	// FetchPayment relays a single payment record; nil means not found.
	FetchPayment(ctx context.Context, paymentID string) (map[string]interface{}, error)
	// ListPayments relays the most recent payment records.
	ListPayments(ctx context.Context, count int) ([]map[string]interface{}, error)
}
