package utils

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/granformato/pedidos_backend/config"
	"github.com/sirupsen/logrus"
)

func IsValidEmail(email string) bool {
	// Basic email validation regex pattern
	pattern := `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	regex := regexp.MustCompile(pattern)
	return regex.MatchString(email)
}

// NormalizeMaterialKey folds a free-form material identifier into the
// canonical preset key: lower case, no whitespace, hyphens or underscores.
// "Vinilo-106", "vinilo 106" and "VINILO_106" all normalize to "vinilo106".
func NormalizeMaterialKey(id string) string {
	key := strings.ToLower(strings.TrimSpace(id))
	replacer := strings.NewReplacer(" ", "", "\t", "", "-", "", "_", "")
	return replacer.Replace(key)
}

func DereferencePtr[T any](ptr *T, def T) T {
	if ptr == nil {
		return def
	}
	return *ptr
}

// ObtainPedidoLock serializes aggregate recomputes per pedido across
// instances. Best-effort: reliability must not depend on Redis, the
// recompute also serializes via a MySQL advisory lock on the same pedido.
// Returns nil when Redis is unavailable or the lock is contended; the
// caller proceeds either way.
func ObtainPedidoLock(ctx context.Context, pedidoId int) *redislock.Lock {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		return nil
	}
	lockKey := fmt.Sprintf("pedido:recompute:%d", pedidoId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		if logger != nil {
			logger.WithFields(logrus.Fields{
				"module":    "utils",
				"funcName":  "ObtainPedidoLock",
				"pedido_id": pedidoId,
			}).Warn("could not obtain redis lock; proceeding without redis lock")
		}
		return nil
	} else if err != nil {
		config.LogError(logger, "utils", "ObtainPedidoLock", "locker.Obtain", pedidoId, err)
		return nil
	}
	return lock
}

func ReleasePedidoLock(ctx context.Context, lock *redislock.Lock) {
	if lock == nil {
		return
	}
	_ = lock.Release(ctx)
}
