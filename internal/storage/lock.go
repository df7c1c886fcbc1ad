package storage

import (
	"context"
	"errors"
	"strconv"
	"time"

	"civicreport/backend/internal/apperr"
	"civicreport/backend/internal/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// unlockScript deletes the lock only when it still holds our token, so an
// expired-and-retaken lock is never released by the previous holder.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func reportLockKey(reportID uint) string {
	return config.ReportLockPrefix + strconv.FormatUint(uint64(reportID), 10)
}

// LockReport takes the per-report Redis lock with SET NX PX.
func (s *Service) LockReport(ctx context.Context, reportID uint) (func(), error) {
	if s.Redis == nil {
		return func() {}, nil
	}

	key := reportLockKey(reportID)
	token := uuid.NewString()

	ok, err := s.Redis.SetNX(ctx, key, token, s.LockTTL).Result()
	if err != nil {
		return nil, s.fail(err, "lock report", "report %d", reportID)
	}
	if !ok {
		return nil, apperr.Conflict("report %d is being updated by another request", reportID)
	}

	return func() {
		// The request context may already be cancelled; release anyway.
		uctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := unlockScript.Run(uctx, s.Redis, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			s.Log.Warnw("failed to release report lock", "report_id", reportID, "error", err)
		}
	}, nil
}
