package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/jannisdufft-wq/shift-bot-ej/internal/clock"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/repository"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/webhook"
	"github.com/samber/do/v2"
)

const (
	defaultQueryLimit = 20
	maxQueryLimit     = 100

	webhookSendTimeout = 5 * time.Second
)

// Log is the append-only record of actions taken. Append never fails the
// operation it accompanies: a write failure is logged as a warning and
// swallowed. Each entry is also mirrored to the configured audit webhook,
// equally best-effort.
type Log struct {
	repo    repository.AuditLogRepository
	clock   clock.Clock
	webhook webhook.Sender
}

func NewLog(repo repository.AuditLogRepository, clk clock.Clock, wh webhook.Sender) *Log {
	return &Log{repo: repo, clock: clk, webhook: wh}
}

func (l *Log) Append(ctx context.Context, userID, guildID, actorID, action, data string) {
	ts := l.clock.Now()
	err := l.repo.InsertAuditLog(ctx, repository.InsertAuditLogInput{
		UserID:  userID,
		GuildID: guildID,
		ActorID: actorID,
		Action:  action,
		Data:    data,
		Ts:      ts,
	})
	if err != nil {
		slog.Warn("audit log append failed", "error", err, "action", action, "user_id", userID, "guild_id", guildID)
	}

	whCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), webhookSendTimeout)
	defer cancel()
	if err := l.webhook.SendAuditEvent(whCtx, webhook.AuditEventPayload{
		GuildID: guildID,
		UserID:  userID,
		ActorID: actorID,
		Action:  action,
		Data:    data,
		Ts:      ts,
	}); err != nil {
		slog.Warn("audit webhook send failed", "error", err, "action", action, "guild_id", guildID)
	}
}

// Query returns the most recent entries for a user, newest first.
func (l *Log) Query(ctx context.Context, guildID, userID string, limit int) ([]repository.AuditLogEntry, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}
	return l.repo.ListAuditLogs(ctx, guildID, userID, limit)
}

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Log, error) {
		repo := do.MustInvoke[repository.Repository](i)
		clk := do.MustInvoke[clock.Clock](i)
		wh := do.MustInvoke[webhook.Sender](i)
		return NewLog(repo, clk, wh), nil
	})
}
