package repository

import (
	"context"

	"github.com/smallbiznis/vindisync/internal/queue/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.Entry) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO vindi_order_creation_queue (id, bill_data, status, vindi_subscription_id, vindi_bill_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.BillData,
		entry.Status,
		entry.SubscriptionID,
		entry.BillID,
		entry.CreatedAt,
		entry.UpdatedAt,
	).Error
}
