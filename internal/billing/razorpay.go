package billing

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	razorpay "github.com/razorpay/razorpay-go"
)

// razorpayClient implements Client on the Razorpay SDK. The SDK is not
// context-aware; ctx is accepted for interface symmetry and future use.
type razorpayClient struct {
	client *razorpay.Client
	logger zerolog.Logger
}

// NewRazorpayClient builds a provider client from API credentials.
func NewRazorpayClient(keyID, keySecret string, logger zerolog.Logger) Client {
	return &razorpayClient{
		client: razorpay.NewClient(keyID, keySecret),
		logger: logger.With().Str("client", "RazorpayClient").Logger(),
	}
}

func (c *razorpayClient) CreateSubscription(ctx context.Context, planID string, totalCount int, customerNotify bool) (*Subscription, error) {
	notify := 0
	if customerNotify {
		notify = 1
	}
	data := map[string]interface{}{
		"plan_id":         planID,
		"total_count":     totalCount,
		"customer_notify": notify,
	}
	body, err := c.client.Subscription.Create(data, nil)
	if err != nil {
		c.logger.Error().Err(err).Str("plan_id", planID).Msg("Failed to create provider subscription")
		return nil, fmt.Errorf("create provider subscription: %w", err)
	}
	sub := subscriptionFromBody(body)
	if sub.ID == "" {
		return nil, fmt.Errorf("provider returned subscription without id")
	}
	return sub, nil
}

func (c *razorpayClient) CancelSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	body, err := c.client.Subscription.Cancel(subscriptionID, nil, nil)
	if err != nil {
		c.logger.Error().Err(err).Str("subscription_id", subscriptionID).Msg("Failed to cancel provider subscription")
		return nil, fmt.Errorf("cancel provider subscription: %w", err)
	}
	return subscriptionFromBody(body), nil
}

func (c *razorpayClient) FetchPayment(ctx context.Context, paymentID string) (map[string]interface{}, error) {
	body, err := c.client.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		c.logger.Error().Err(err).Str("payment_id", paymentID).Msg("Failed to fetch provider payment")
		return nil, fmt.Errorf("fetch provider payment: %w", err)
	}
	return body, nil
}

func (c *razorpayClient) ListPayments(ctx context.Context, count int) ([]map[string]interface{}, error) {
	body, err := c.client.Payment.All(map[string]interface{}{"count": count}, nil)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to list provider payments")
		return nil, fmt.Errorf("list provider payments: %w", err)
	}
	items, _ := body["items"].([]interface{})
	payments := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			payments = append(payments, m)
		}
	}
	return payments, nil
}

func subscriptionFromBody(body map[string]interface{}) *Subscription {
	sub := &Subscription{}
	if id, ok := body["id"].(string); ok {
		sub.ID = id
	}
	if status, ok := body["status"].(string); ok {
		sub.Status = status
	}
	return sub
}
