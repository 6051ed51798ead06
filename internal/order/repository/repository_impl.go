package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/vindisync/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Create(order).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var orders []*domain.Order
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return orders[0], nil
}

func (r *repo) ListAttachable(ctx context.Context, db *gorm.DB, subscriptionID string) ([]*domain.Order, error) {
	var orders []*domain.Order
	err := db.WithContext(ctx).
		Where("vindi_subscription_id = ? AND vindi_subscription_can_create_new_order = ?", subscriptionID, true).
		Order("created_at desc, id desc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) ListBySubscription(ctx context.Context, db *gorm.DB, subscriptionID string) ([]*domain.Order, error) {
	var orders []*domain.Order
	err := db.WithContext(ctx).
		Where("vindi_subscription_id = ?", subscriptionID).
		Order("created_at desc, id desc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) AttachBill(ctx context.Context, db *gorm.DB, id snowflake.ID, billID string, at time.Time) error {
	res := db.WithContext(ctx).Exec(
		`UPDATE orders
		 SET vindi_subscription_can_create_new_order = ?, vindi_bill_id = ?, vindi_bill_attached_at = ?, updated_at = ?
		 WHERE id = ? AND vindi_subscription_can_create_new_order = ?`,
		false,
		billID,
		at,
		at,
		id,
		true,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrAlreadyAttached
	}
	return nil
}
