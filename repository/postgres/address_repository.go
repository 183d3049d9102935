package postgres

import (
	"context"
	"errors"

	"github.com/arunvm123/bookstore/model"
	"github.com/arunvm123/bookstore/repository"
	"gorm.io/gorm"
)

type PostgresAddressRepository struct {
	db *gorm.DB
}

func NewAddressRepository(db *gorm.DB) *PostgresAddressRepository {
	return &PostgresAddressRepository{db: db}
}

// CreateAddress stores a new address. A user's first address becomes the
// default, and at most one address per user is flagged default.
func (r *PostgresAddressRepository) CreateAddress(ctx context.Context, address *model.Address) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Address{}).Where("user_id = ?", address.UserID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			address.IsDefault = true
		}
		if address.IsDefault {
			if err := clearDefault(tx, address.UserID); err != nil {
				return err
			}
		}
		return tx.Create(address).Error
	})
}

func (r *PostgresAddressRepository) GetAddress(ctx context.Context, userID, id string) (*model.Address, error) {
	var address model.Address
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &address, nil
}

func (r *PostgresAddressRepository) ListAddresses(ctx context.Context, userID string) ([]model.Address, error) {
	addresses := []model.Address{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at ASC").
		Find(&addresses).Error
	if err != nil {
		return nil, err
	}
	return addresses, nil
}

func (r *PostgresAddressRepository) UpdateAddress(ctx context.Context, address *model.Address) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if address.IsDefault {
			if err := clearDefault(tx, address.UserID); err != nil {
				return err
			}
		}
		return tx.Save(address).Error
	})
}

func (r *PostgresAddressRepository) DeleteAddress(ctx context.Context, userID, id string) error {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.Address{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func clearDefault(tx *gorm.DB, userID string) error {
	return tx.Model(&model.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}
