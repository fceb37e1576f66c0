package shift

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jannisdufft-wq/shift-bot-ej/internal/audit"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/clock"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/ledger"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/repository"
	"github.com/samber/do/v2"
)

const DefaultType = "normal"

// Ledger owns the shift state machine: active → paused → active any number of
// times, terminal ended. total_seconds accumulates only when an active
// interval closes; the open interval is not counted until the next pause or
// end. All mutations are atomic conditional updates in the repository, so a
// lost race surfaces as ErrInvalidState instead of double-counting.
type Ledger struct {
	repo  repository.ShiftRepository
	audit *audit.Log
	clock clock.Clock
}

func NewLedger(repo repository.ShiftRepository, auditLog *audit.Log, clk clock.Clock) *Ledger {
	return &Ledger{repo: repo, audit: auditLog, clock: clk}
}

// Start creates a new active shift. A caller with an already-open shift is
// not rejected (both entry paths of the original bot behave this way); the
// overlap is logged so operators can see it.
func (l *Ledger) Start(ctx context.Context, actor ledger.Actor, guildID, shiftType string) (*repository.Shift, error) {
	if shiftType == "" {
		shiftType = DefaultType
	}
	open, err := l.repo.GetOpenShiftByUser(ctx, guildID, actor.ID)
	if err == nil && open != nil {
		slog.Warn("starting shift while another is still open", "user_id", actor.ID, "guild_id", guildID, "open_shift_id", open.ID)
	}
	s, err := l.repo.CreateShift(ctx, repository.CreateShiftInput{
		UserID:  actor.ID,
		GuildID: guildID,
		Type:    shiftType,
		StartTs: l.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("create shift: %w", err)
	}
	l.audit.Append(ctx, actor.ID, guildID, actor.ID, "shift_start", fmt.Sprintf("id=%d,type=%s", s.ID, s.Type))
	return s, nil
}

// Pause closes the open interval of an active shift. Pausing an
// already-paused or ended shift is rejected with ErrInvalidState, never
// silently accepted.
func (l *Ledger) Pause(ctx context.Context, actor ledger.Actor, id int64) (*repository.Shift, error) {
	current, err := l.authorize(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	s, err := l.repo.PauseShift(ctx, id, l.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("pause shift %d: %w", id, err)
	}
	if s == nil {
		return nil, l.classifyNoMatch(ctx, id)
	}
	l.audit.Append(ctx, current.UserID, current.GuildID, actor.ID, "shift_pause", fmt.Sprintf("id=%d", id))
	return s, nil
}

// Resume reopens a paused shift. start_ts is reset to the resume instant so
// the next pause or end measures only the new interval.
func (l *Ledger) Resume(ctx context.Context, actor ledger.Actor, id int64) (*repository.Shift, error) {
	current, err := l.authorize(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	s, err := l.repo.ResumeShift(ctx, id, l.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("resume shift %d: %w", id, err)
	}
	if s == nil {
		return nil, l.classifyNoMatch(ctx, id)
	}
	l.audit.Append(ctx, current.UserID, current.GuildID, actor.ID, "shift_resume", fmt.Sprintf("id=%d", id))
	return s, nil
}

// End terminates an active or paused shift. Ending another user's shift is a
// force-end and requires admin rights.
func (l *Ledger) End(ctx context.Context, actor ledger.Actor, id int64, force bool) (*repository.Shift, error) {
	current, err := l.authorize(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	s, err := l.repo.EndShift(ctx, id, l.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("end shift %d: %w", id, err)
	}
	if s == nil {
		return nil, l.classifyNoMatch(ctx, id)
	}
	action := "shift_end"
	if force {
		action = "shift_force_end"
	}
	l.audit.Append(ctx, current.UserID, current.GuildID, actor.ID, action, fmt.Sprintf("id=%d,total=%d", id, s.TotalSeconds))
	return s, nil
}

// BulkEnd ends every open shift matching the filter. Records are processed
// independently: a failure on one is logged and skipped, the rest continue.
// The ended records are returned so the caller can run per-record side
// effects.
func (l *Ledger) BulkEnd(ctx context.Context, actor ledger.Actor, filter repository.ShiftFilter) ([]repository.Shift, error) {
	if !actor.Admin {
		return nil, ledger.ErrForbidden
	}
	open, err := l.repo.ListOpenShifts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list open shifts: %w", err)
	}
	ended := make([]repository.Shift, 0, len(open))
	for _, s := range open {
		res, err := l.repo.EndShift(ctx, s.ID, l.clock.Now())
		if err != nil {
			slog.Warn("bulk end: skipping shift after repository error", "error", err, "shift_id", s.ID)
			continue
		}
		if res == nil {
			// Ended concurrently between the list and the update.
			continue
		}
		l.audit.Append(ctx, s.UserID, s.GuildID, actor.ID, "shift_bulk_end", fmt.Sprintf("id=%d,total=%d", res.ID, res.TotalSeconds))
		ended = append(ended, *res)
	}
	return ended, nil
}

// BulkDelete hard-deletes matching shifts regardless of status, logging each
// deletion individually. An empty match set deletes nothing and appends no
// log entries. The deleted records are returned for presentation.
func (l *Ledger) BulkDelete(ctx context.Context, actor ledger.Actor, filter repository.ShiftFilter) ([]repository.Shift, error) {
	if !actor.Admin {
		return nil, ledger.ErrForbidden
	}
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return nil, fmt.Errorf("%w: id list is empty", ledger.ErrValidation)
	}
	matched, err := l.repo.ListShifts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	deleted := make([]repository.Shift, 0, len(matched))
	for _, s := range matched {
		ok, err := l.repo.DeleteShift(ctx, s.ID)
		if err != nil {
			slog.Warn("bulk delete: skipping shift after repository error", "error", err, "shift_id", s.ID)
			continue
		}
		if !ok {
			continue
		}
		l.audit.Append(ctx, s.UserID, s.GuildID, actor.ID, "shift_bulk_delete", fmt.Sprintf("id=%d", s.ID))
		deleted = append(deleted, s)
	}
	return deleted, nil
}

// OpenShift returns the caller's newest active or paused shift, ErrNotFound
// when there is none.
func (l *Ledger) OpenShift(ctx context.Context, guildID, userID string) (*repository.Shift, error) {
	s, err := l.repo.GetOpenShiftByUser(ctx, guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("get open shift: %w", err)
	}
	if s == nil {
		return nil, ledger.ErrNotFound
	}
	return s, nil
}

func (l *Ledger) ByID(ctx context.Context, id int64) (*repository.Shift, error) {
	s, err := l.repo.GetShiftByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get shift %d: %w", id, err)
	}
	if s == nil {
		return nil, ledger.ErrNotFound
	}
	return s, nil
}

// authorize loads the shift and checks owner-or-admin. The loaded record is
// pre-update state and only used for authorization and audit attribution.
func (l *Ledger) authorize(ctx context.Context, actor ledger.Actor, id int64) (*repository.Shift, error) {
	s, err := l.repo.GetShiftByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get shift %d: %w", id, err)
	}
	if s == nil {
		return nil, ledger.ErrNotFound
	}
	if !actor.MayActOn(s.UserID) {
		return nil, ledger.ErrForbidden
	}
	return s, nil
}

// classifyNoMatch distinguishes a conditional update that matched nothing:
// the record either moved to a state the action is invalid for, or was
// deleted in between.
func (l *Ledger) classifyNoMatch(ctx context.Context, id int64) error {
	s, err := l.repo.GetShiftByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get shift %d: %w", id, err)
	}
	if s == nil {
		return ledger.ErrNotFound
	}
	return fmt.Errorf("%w: shift %d is %s", ledger.ErrInvalidState, id, s.Status)
}

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Ledger, error) {
		repo := do.MustInvoke[repository.Repository](i)
		auditLog := do.MustInvoke[*audit.Log](i)
		clk := do.MustInvoke[clock.Clock](i)
		return NewLedger(repo, auditLog, clk), nil
	})
}
