package loa

import (
	"context"
	"fmt"

	"github.com/jannisdufft-wq/shift-bot-ej/internal/audit"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/clock"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/ledger"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/repository"
	"github.com/samber/do/v2"
)

const (
	defaultReason = "Keine Angabe"

	defaultUserListLimit  = 50
	maxUserListLimit      = 50
	defaultGuildListLimit = 50
	maxGuildListLimit     = 200
)

// Ledger owns leave-of-absence requests: created pending, resolved exactly
// once to approved or denied by an admin.
type Ledger struct {
	repo  repository.LoaRepository
	audit *audit.Log
	clock clock.Clock
}

func NewLedger(repo repository.LoaRepository, auditLog *audit.Log, clk clock.Clock) *Ledger {
	return &Ledger{repo: repo, audit: auditLog, clock: clk}
}

// Request creates a pending request. The end of the range is computed from
// the duration expression; an unparseable expression gives a zero-length
// range, which is accepted.
func (l *Ledger) Request(ctx context.Context, actor ledger.Actor, guildID, durationExpr, reason string) (*repository.Loa, error) {
	if reason == "" {
		reason = defaultReason
	}
	startTs := l.clock.Now()
	rec, err := l.repo.CreateLoa(ctx, repository.CreateLoaInput{
		UserID:  actor.ID,
		GuildID: guildID,
		StartTs: startTs,
		EndTs:   startTs + parseDurationSeconds(durationExpr),
		Reason:  reason,
	})
	if err != nil {
		return nil, fmt.Errorf("create loa: %w", err)
	}
	l.audit.Append(ctx, actor.ID, guildID, actor.ID, "loa_request", fmt.Sprintf("id=%d,reason=%s", rec.ID, rec.Reason))
	return rec, nil
}

func (l *Ledger) Approve(ctx context.Context, actor ledger.Actor, id int64, note string) (*repository.Loa, error) {
	return l.resolve(ctx, actor, id, repository.LoaStatusApproved, "loa_approve", note)
}

func (l *Ledger) Deny(ctx context.Context, actor ledger.Actor, id int64, note string) (*repository.Loa, error) {
	return l.resolve(ctx, actor, id, repository.LoaStatusDenied, "loa_deny", note)
}

func (l *Ledger) resolve(ctx context.Context, actor ledger.Actor, id int64, status repository.LoaStatus, action, note string) (*repository.Loa, error) {
	if !actor.Admin {
		return nil, ledger.ErrForbidden
	}
	rec, err := l.repo.ResolveLoa(ctx, id, status, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve loa %d: %w", id, err)
	}
	if rec == nil {
		current, err := l.repo.GetLoaByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get loa %d: %w", id, err)
		}
		if current == nil {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("%w: loa %d is already %s", ledger.ErrInvalidState, id, current.Status)
	}
	l.audit.Append(ctx, rec.UserID, rec.GuildID, actor.ID, action, fmt.Sprintf("id=%d,note=%s", id, note))
	return rec, nil
}

func (l *Ledger) ListForUser(ctx context.Context, guildID, userID string, limit int) ([]repository.Loa, error) {
	if limit <= 0 {
		limit = defaultUserListLimit
	}
	if limit > maxUserListLimit {
		limit = maxUserListLimit
	}
	return l.repo.ListLoasByUser(ctx, guildID, userID, limit)
}

// List returns guild-wide requests for admin review, optionally only the
// pending ones.
func (l *Ledger) List(ctx context.Context, guildID string, pendingOnly bool, limit int) ([]repository.Loa, error) {
	if limit <= 0 {
		limit = defaultGuildListLimit
	}
	if limit > maxGuildListLimit {
		limit = maxGuildListLimit
	}
	return l.repo.ListLoasByGuild(ctx, guildID, pendingOnly, limit)
}

// LatestStatus returns the user's most recent request by creation order.
func (l *Ledger) LatestStatus(ctx context.Context, guildID, userID string) (*repository.Loa, error) {
	rec, err := l.repo.LatestLoaByUser(ctx, guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("latest loa: %w", err)
	}
	if rec == nil {
		return nil, ledger.ErrNotFound
	}
	return rec, nil
}

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Ledger, error) {
		repo := do.MustInvoke[repository.Repository](i)
		auditLog := do.MustInvoke[*audit.Log](i)
		clk := do.MustInvoke[clock.Clock](i)
		return NewLedger(repo, auditLog, clk), nil
	})
}
