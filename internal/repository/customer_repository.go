package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"caterflow/internal/domain/customer"
	caterflow_errors "caterflow/pkg/errors"
)

type PostgresCustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &PostgresCustomerRepository{db: db}
}

// Create inserts with ON CONFLICT DO NOTHING on the contact key. A raised
// unique violation would abort the enclosing command transaction and make
// the caller's fallback re-read fail with 25P02, so the conflict has to be
// swallowed at the INSERT; losing the race surfaces as ErrAlreadyExists via
// the zero rows affected.
func (r *PostgresCustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "contact"}},
			DoNothing: true,
		}).
		Create(c)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return caterflow_errors.ErrAlreadyExists
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return caterflow_errors.ErrAlreadyExists
	}
	return nil
}

func (r *PostgresCustomerRepository) GetByContact(ctx context.Context, contact string) (customer.Customer, error) {
	var c customer.Customer
	err := r.db.WithContext(ctx).Where("contact = ?", contact).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return customer.Customer{}, caterflow_errors.ErrNotFound
		}
		return customer.Customer{}, err
	}
	return c, nil
}
