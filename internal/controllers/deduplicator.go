package controllers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "yalla-business/pkg/errors"
	"yalla-business/pkg/utils"
)

// CodeDuplicateRequest - повторное нажатие до завершения первого запроса.
const CodeDuplicateRequest = "DUPLICATE_REQUEST"

// RequestDeduplicator гасит двойные отправки денежных операций
// (оформление подписок, гостевые заказы) от одного пользователя.
type RequestDeduplicator struct {
	locks sync.Map
	now   func() time.Time
}

// dedupLock - запись о захвате. Сравнивается по указателю, поэтому
// чужой захват того же ключа не снимается.
type dedupLock struct {
	expires time.Time
}

func NewRequestDeduplicator() *RequestDeduplicator {
	return &RequestDeduplicator{now: time.Now}
}

// TryAcquire захватывает ключ пользователя на ttl. Возвращённая функция
// снимает только этот захват.
func (d *RequestDeduplicator) TryAcquire(userID uint64, keySuffix string, ttl time.Duration) (func(), bool) {
	key := fmt.Sprintf("%d_%s", userID, keySuffix)
	now := d.now()
	lock := &dedupLock{expires: now.Add(ttl)}
	release := func() { d.locks.CompareAndDelete(key, lock) }

	for {
		current, loaded := d.locks.LoadOrStore(key, lock)
		if !loaded {
			return release, true
		}
		if now.Before(current.(*dedupLock).expires) {
			return nil, false
		}
		// просроченный захват заменяем, только если его не успели заменить раньше нас
		if d.locks.CompareAndSwap(key, current, lock) {
			return release, true
		}
	}
}

// Guard - middleware поверх Auth: пока запрос пользователя к маршруту
// выполняется (но не дольше ttl), второй такой же отклоняется с 409.
func (d *RequestDeduplicator) Guard(ttl time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, err := utils.PrincipalFromCtx(c.Request().Context())
			if err != nil {
				return next(c)
			}
			suffix := c.Request().Method + " " + c.Path()
			release, ok := d.TryAcquire(principal.UserID, suffix, ttl)
			if !ok {
				return apperrors.NewConflictError(CodeDuplicateRequest, "Запрос уже обрабатывается, подождите")
			}
			defer release()
			return next(c)
		}
	}
}

func (d *RequestDeduplicator) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := d.now()
			d.locks.Range(func(key, value interface{}) bool {
				if now.After(value.(*dedupLock).expires) {
					d.locks.CompareAndDelete(key, value)
				}
				return true
			})
		}
	}
}
