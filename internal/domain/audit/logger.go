package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/heya-pos/heya/internal/shared/biztime"
	"github.com/heya-pos/heya/internal/shared/logger"
)

// Logger writes entries to a Sink on a best-effort basis: a failed write is
// logged and never returned to the caller.
type Logger struct {
	sink   Sink
	now    func() time.Time
	logger logger.Interface
}

func NewLogger(sink Sink, now func() time.Time, log logger.Interface) *Logger {
	if now == nil {
		now = biztime.NowUTC
	}
	return &Logger{
		sink:   sink,
		now:    now,
		logger: log.With("component", "audit"),
	}
}

// Record fills ID and Timestamp when unset and appends the entry.
func (l *Logger) Record(ctx context.Context, entry Entry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now()
	}

	if err := l.sink.Append(ctx, &entry); err != nil {
		l.logger.Errorw("failed to write audit log",
			"error", err,
			"action", entry.Action,
			"merchant_id", entry.MerchantID,
			"staff_id", entry.StaffID,
		)
	}
}
