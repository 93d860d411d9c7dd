package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"yalla-business/internal/entities"
	"yalla-business/internal/repositories"
)

// subscriptionCanceller отменяет подписку и её будущие заказы одной транзакцией.
// Нужен и подпискам, и деактивации сотрудника.
type subscriptionCanceller struct {
	subRepo    repositories.SubscriptionRepositoryInterface
	orderRepo  repositories.OrderRepositoryInterface
	ledgerRepo repositories.LedgerRepositoryInterface
}

type cancelResult struct {
	OrdersCancelled int64
	Refund          int64
	Entry           *entities.LedgerEntry
}

// cancel закрывает заказы начиная с from. Деньги возвращаются только за активные
// и приостановленные: замороженный день уже перенесён на заменяющий заказ.
func (c *subscriptionCanceller) cancel(ctx context.Context, tx pgx.Tx, sub *entities.Subscription, from time.Time, userID uint64, reason string) (*cancelResult, error) {
	orders, err := c.orderRepo.ListBySubscription(ctx, tx, sub.ID, from,
		[]entities.Status{entities.StatusActive, entities.StatusPaused, entities.StatusFrozen})
	if err != nil {
		return nil, err
	}

	res := &cancelResult{}
	ids := make([]uint64, 0, len(orders))
	for i := range orders {
		ids = append(ids, orders[i].ID)
		if orders[i].Status != entities.StatusFrozen {
			res.Refund += orders[i].Total()
		}
	}
	if res.OrdersCancelled, err = c.orderRepo.UpdateStatus(ctx, tx, ids, entities.StatusCancelled); err != nil {
		return nil, err
	}
	if err := c.subRepo.UpdateStatus(ctx, tx, sub.ID, entities.StatusCancelled); err != nil {
		return nil, err
	}

	if res.Refund > 0 {
		comment := fmt.Sprintf("%s: подписка #%d", reason, sub.ID)
		res.Entry, err = c.ledgerRepo.Apply(ctx, tx, &entities.LedgerEntry{
			CompanyID:      sub.CompanyID,
			EntryType:      entities.LedgerRefund,
			Amount:         res.Refund,
			SubscriptionID: &sub.ID,
			Comment:        &comment,
			CreatedBy:      &userID,
		}, nil)
		if err != nil {
			return nil, ledgerError(err, 0)
		}
	}
	return res, nil
}
