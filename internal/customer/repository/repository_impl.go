package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/vindisync/internal/customer/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Create(customer).Error
}

func (r *repo) InsertAddress(ctx context.Context, db *gorm.DB, addr *domain.CustomerAddress) error {
	return db.WithContext(ctx).Create(addr).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Customer, error) {
	return first[domain.Customer](ctx, db, "id = ?", id)
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Customer, error) {
	return first[domain.Customer](ctx, db, "email = ?", email)
}

func (r *repo) FindAddress(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.CustomerAddress, error) {
	return first[domain.CustomerAddress](ctx, db, "id = ?", id)
}

func (r *repo) UpdateTaxvat(ctx context.Context, db *gorm.DB, id snowflake.ID, taxvat string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE customers SET taxvat = ?, updated_at = ? WHERE id = ?`,
		taxvat,
		at,
		id,
	).Error
}

func (r *repo) FindProfile(ctx context.Context, db *gorm.DB, customerID snowflake.ID) (*domain.PaymentProfile, error) {
	return first[domain.PaymentProfile](ctx, db, "customer_id = ?", customerID)
}

func (r *repo) UpsertProfile(ctx context.Context, db *gorm.DB, profile *domain.PaymentProfile) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"vindi_customer_id", "updated_at"}),
	}).Create(profile).Error
}

func first[T any](ctx context.Context, db *gorm.DB, query string, args ...any) (*T, error) {
	var rows []*T
	if err := db.WithContext(ctx).Where(query, args...).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}
