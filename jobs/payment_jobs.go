package jobs

import (
	"context"
	"log"
	"time"

	"github.com/altairlabs/payhub/payments"
)

var (
	paymentEngine *payments.Engine
	orderStore    *payments.OrderStore
)

func InitPaymentJobs(engine *payments.Engine, store *payments.OrderStore) {
	paymentEngine = engine
	orderStore = store
}

// ExpireStaleOrders cancels pending/processing orders past their
// expiry horizon. Safe to run on overlap: already-terminal orders are
// never touched.
func ExpireStaleOrders() {
	if _, err := orderStore.ExpireStaleOrders(); err != nil {
		log.Printf("Error expiring stale payment orders: %v", err)
	}
}

// ReconcileProcessingOrders re-queries providers for orders that have
// sat in processing without a callback, converging stored state on the
// provider's ground truth.
func ReconcileProcessingOrders() {
	cutoff := time.Now().Add(-2 * time.Minute)
	orders, err := orderStore.ListProcessingBefore(cutoff)
	if err != nil {
		log.Printf("Error listing processing payment orders: %v", err)
		return
	}

	for _, order := range orders {
		if _, err := paymentEngine.QueryOrder(context.Background(), order.OrderNo); err != nil {
			log.Printf("Error reconciling payment order %s: %v", order.OrderNo, err)
		}
	}
}
