package payments

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/altairlabs/payhub/models"
	"github.com/altairlabs/payhub/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const insertRetries = 3

// validTransitions is the order state machine:
// pending -> processing -> {success, failed, cancelled};
// success -> refunded; failed/cancelled/refunded are terminal.
// A callback may move a pending order straight to a settled state when
// the provider never acknowledged creation separately.
var validTransitions = map[string][]string{
	models.OrderStatusPending: {
		models.OrderStatusProcessing,
		models.OrderStatusSuccess,
		models.OrderStatusFailed,
		models.OrderStatusCancelled,
	},
	models.OrderStatusProcessing: {
		models.OrderStatusSuccess,
		models.OrderStatusFailed,
		models.OrderStatusCancelled,
	},
	models.OrderStatusSuccess: {
		models.OrderStatusRefunded,
	},
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to string) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderStore owns persistence for orders, transactions and callback
// audit rows. All status changes go through TransitionOrder; nothing
// else mutates an order's status.
type OrderStore struct {
	db  *gorm.DB
	ttl time.Duration
}

func NewOrderStore(db *gorm.DB, ttl time.Duration) *OrderStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &OrderStore{db: db, ttl: ttl}
}

// CreateOrder persists a pending order with a fresh order number and
// the fixed expiry horizon. A duplicate-key collision on the order
// number fails fast and is retried with new randomness.
func (s *OrderStore) CreateOrder(order *models.PaymentOrder) error {
	order.Status = models.OrderStatusPending
	order.ExpiredAt = time.Now().Add(s.ttl)

	var lastErr error
	for attempt := 0; attempt < insertRetries; attempt++ {
		order.OrderNo = utils.GenerateOrderNo()
		err := s.db.Create(order).Error
		if err == nil {
			return nil
		}
		if !isDuplicateKey(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (s *OrderStore) GetOrderByNo(orderNo string) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	if err := s.db.Where("order_no = ?", orderNo).First(&order).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// TransitionOrder moves an order to a new status, applying mutate to
// set co-travelling fields (paid_at, gateway trade number) inside the
// same write. Illegal transitions fail with ErrInvalidStateTransition.
func (s *OrderStore) TransitionOrder(tx *gorm.DB, order *models.PaymentOrder, to string, mutate func(*models.PaymentOrder)) error {
	if tx == nil {
		tx = s.db
	}
	if !CanTransition(order.Status, to) {
		return ErrInvalidStateTransition
	}
	order.Status = to
	if mutate != nil {
		mutate(order)
	}
	return tx.Save(order).Error
}

// CreateTransaction appends a transaction row for an order, retrying
// the generated number on collision. Refund rows carry a refund-prefixed
// number so the two movements are distinguishable in exports.
func (s *OrderStore) CreateTransaction(tx *gorm.DB, txn *models.PaymentTransaction) error {
	if tx == nil {
		tx = s.db
	}

	var lastErr error
	for attempt := 0; attempt < insertRetries; attempt++ {
		if txn.Kind == models.TransactionKindRefund {
			txn.TransactionNo = utils.GenerateRefundNo()
		} else {
			txn.TransactionNo = utils.GenerateTransactionNo()
		}
		err := tx.Create(txn).Error
		if err == nil {
			return nil
		}
		if !isDuplicateKey(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (s *OrderStore) ListTransactions(orderID uuid.UUID) ([]models.PaymentTransaction, error) {
	var txns []models.PaymentTransaction
	err := s.db.Where("order_id = ?", orderID).Order("created_at asc").Find(&txns).Error
	return txns, err
}

// RecordCallback writes the immutable audit row before any
// verification or processing happens.
func (s *OrderStore) RecordCallback(cb *models.PaymentCallback) error {
	return s.db.Create(cb).Error
}

func (s *OrderStore) MarkCallbackVerified(cb *models.PaymentCallback, verified bool) error {
	cb.Verified = verified
	return s.db.Model(cb).Update("verified", verified).Error
}

// LinkCallbackOrder attaches the resolved order to a callback audit
// row once the order number is known.
func (s *OrderStore) LinkCallbackOrder(cb *models.PaymentCallback, order *models.PaymentOrder) error {
	cb.OrderID = &order.ID
	cb.OrderNo = &order.OrderNo
	return s.db.Model(cb).Updates(map[string]interface{}{
		"order_id": order.ID,
		"order_no": order.OrderNo,
	}).Error
}

func (s *OrderStore) MarkCallbackProcessed(cb *models.PaymentCallback, result string) error {
	cb.Processed = true
	cb.Result = result
	return s.db.Model(cb).Updates(map[string]interface{}{
		"processed": true,
		"result":    result,
	}).Error
}

// ExpireStaleOrders cancels pending/processing orders past their
// expiry horizon. Already-terminal orders are untouched, so the sweep
// is idempotent and tolerates overlapping runs.
func (s *OrderStore) ExpireStaleOrders() (int64, error) {
	res := s.db.Model(&models.PaymentOrder{}).
		Where("status IN ? AND expired_at < ?",
			[]string{models.OrderStatusPending, models.OrderStatusProcessing}, time.Now()).
		Update("status", models.OrderStatusCancelled)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		log.Printf("[payments] expired %d stale orders", res.RowsAffected)
	}
	return res.RowsAffected, nil
}

// ListProcessingBefore returns processing orders older than the cutoff,
// for the reconciliation job.
func (s *OrderStore) ListProcessingBefore(cutoff time.Time) ([]models.PaymentOrder, error) {
	var orders []models.PaymentOrder
	err := s.db.Where("status = ? AND updated_at < ?", models.OrderStatusProcessing, cutoff).
		Limit(100).Find(&orders).Error
	return orders, err
}

// ComputeFee applies the channel fee rate to an amount, rounded to the
// currency's two decimal places.
func ComputeFee(amount, feeRate decimal.Decimal) decimal.Decimal {
	return amount.Mul(feeRate).Round(2)
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
