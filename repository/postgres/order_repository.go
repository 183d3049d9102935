package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/arunvm123/bookstore/model"
	"github.com/arunvm123/bookstore/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PostgresOrderRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewOrderRepository(db *gorm.DB, log *zap.Logger) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db, log: log}
}

// PlaceOrder prices the cart, reserves tracked stock, records the order and
// empties the cart. Nothing is written when any line fails.
func (r *PostgresOrderRepository) PlaceOrder(ctx context.Context, userID, addressID string) (*model.Order, error) {
	order := &model.Order{
		UserID: userID,
		Status: model.OrderPending,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var address model.Address
		if err := tx.Where("id = ? AND user_id = ?", addressID, userID).First(&address).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repository.ErrNotFound
			}
			return err
		}
		order.ShippingAddress = address.OneLine()

		var items []model.CartItem
		if err := tx.Preload("Book").Where("user_id = ?", userID).Order("created_at ASC").Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return repository.ErrCartEmpty
		}

		for _, item := range items {
			book := item.Book
			if book.ID == "" || book.IsDeleted {
				return fmt.Errorf("%w: %s", repository.ErrBookUnavailable, item.BookID)
			}
			if err := reserveStock(tx, &book, item.Quantity); err != nil {
				return err
			}
			order.AddLine(&book, item.Quantity)
		}

		if err := tx.Create(order).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).Delete(&model.CartItem{}).Error
	})
	if err != nil {
		r.log.Warn("Order placement failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	r.log.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.Float64("total", order.TotalAmount),
	)
	return order, nil
}

// reserveStock decrements tracked stock, guarding against a concurrent
// order taking the last copies
func reserveStock(tx *gorm.DB, book *model.Book, quantity int) error {
	if book.StockQuantity == nil {
		return nil
	}
	if *book.StockQuantity < quantity {
		return fmt.Errorf("%w: %s", repository.ErrInsufficientStock, book.Title)
	}

	result := tx.Model(&model.Book{}).
		Where("id = ? AND stock_quantity >= ?", book.ID, quantity).
		UpdateColumns(map[string]interface{}{
			"stock_quantity": gorm.Expr("stock_quantity - ?", quantity),
			"out_of_stock":   gorm.Expr("stock_quantity - ? = 0", quantity),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", repository.ErrInsufficientStock, book.Title)
	}
	return nil
}

func (r *PostgresOrderRepository) GetOrder(ctx context.Context, userID, id string) (*model.Order, error) {
	return r.findOne(r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID))
}

func (r *PostgresOrderRepository) GetOrderByID(ctx context.Context, id string) (*model.Order, error) {
	return r.findOne(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *PostgresOrderRepository) findOne(query *gorm.DB) (*model.Order, error) {
	var order model.Order
	if err := query.Preload("Items").First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *PostgresOrderRepository) ListOrders(ctx context.Context, userID string) ([]model.Order, error) {
	orders := []model.Order{}
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").Where("id = ?", id).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repository.ErrNotFound
			}
			return err
		}
		if !order.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s to %s", repository.ErrInvalidTransition, order.Status, status)
		}

		if status == model.OrderCancelled {
			for _, item := range order.Items {
				err := tx.Model(&model.Book{}).
					Where("id = ? AND stock_quantity IS NOT NULL", item.BookID).
					UpdateColumns(map[string]interface{}{
						"stock_quantity": gorm.Expr("stock_quantity + ?", item.Quantity),
						"out_of_stock":   false,
					}).Error
				if err != nil {
					return err
				}
			}
		}

		order.Status = status
		return tx.Model(&model.Order{}).Where("id = ?", order.ID).Update("status", status).Error
	})
	if err != nil {
		return nil, err
	}

	r.log.Info("Order status updated", zap.String("order_id", id), zap.String("status", string(status)))
	return &order, nil
}
