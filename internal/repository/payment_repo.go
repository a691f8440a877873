package repository

import (
	"app/internal/model"
	"context"
	"database/sql"
)

// PaymentRepository persists payment audit records. Records are append-only:
// there is deliberately no update or delete.
type PaymentRepository interface {
	CreatePayment(ctx context.Context, p *model.Payment) error
}

type paymentRepo struct {
	db *sql.DB
}

func NewPaymentRepo(db *sql.DB) PaymentRepository {
	return &paymentRepo{db: db}
}

func (r *paymentRepo) CreatePayment(ctx context.Context, p *model.Payment) error {
	query := `INSERT INTO payments (provider_payment_id, provider_subscription_id, provider_signature)
              VALUES ($1, $2, $3) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, p.ProviderPaymentID, p.ProviderSubscriptionID, p.ProviderSignature).
		Scan(&p.ID, &p.CreatedAt)
}
