package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jannisdufft-wq/shift-bot-ej/internal/audit"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/discord"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/ledger"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/loa"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/repository"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/shift"
	"github.com/samber/do/v2"
)

const effectTimeout = 5 * time.Second

// Facade translates structured action requests into ledger calls. It checks
// authorization before dispatch, maps typed ledger errors to caller-facing
// messages, and runs side effects (role changes, DMs, log-channel broadcasts)
// best-effort after the mutation.
type Facade struct {
	shifts *shift.Ledger
	loas   *loa.Ledger
	audit  *audit.Log
	dc     discord.Client
}

func NewFacade(shifts *shift.Ledger, loas *loa.Ledger, auditLog *audit.Log, dc discord.Client) *Facade {
	return &Facade{shifts: shifts, loas: loas, audit: auditLog, dc: dc}
}

// Handle processes one action. A panic anywhere below is converted into a
// generic failure reply so a single bad request never tears down the event
// stream.
func (f *Facade) Handle(event discord.ActionEvent) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic while handling action", "panic", r, "kind", event.Action.Kind)
			f.respondText(event, messageGenericError)
		}
	}()

	ctx := context.Background()
	actor := ledger.Actor{ID: event.Action.ActorID, Admin: event.Action.ActorIsAdmin}

	switch event.Action.Kind {
	case discord.ActionShiftStart:
		f.handleShiftStart(ctx, actor, event)
	case discord.ActionShiftPause:
		f.handleShiftPause(ctx, actor, event)
	case discord.ActionShiftResume:
		f.handleShiftResume(ctx, actor, event)
	case discord.ActionShiftEnd, discord.ActionShiftForceEnd:
		f.handleShiftEnd(ctx, actor, event)
	case discord.ActionShiftBulkEnd:
		f.handleBulkEnd(ctx, actor, event)
	case discord.ActionShiftBulkDelete:
		f.handleBulkDelete(ctx, actor, event)
	case discord.ActionShiftLogs:
		f.handleShiftLogs(ctx, actor, event)
	case discord.ActionLoaRequest:
		f.handleLoaRequest(ctx, actor, event)
	case discord.ActionLoaList:
		f.handleLoaList(ctx, actor, event)
	case discord.ActionLoaStatus:
		f.handleLoaStatus(ctx, actor, event)
	case discord.ActionLoaApprove, discord.ActionLoaDeny:
		f.handleLoaResolve(ctx, actor, event)
	case discord.ActionLoaManageList:
		f.handleLoaManageList(ctx, actor, event)
	default:
		slog.Warn("unknown action kind", "kind", event.Action.Kind)
		f.respondText(event, messageGenericError)
	}
}

func (f *Facade) handleShiftStart(ctx context.Context, actor ledger.Actor, event discord.ActionEvent) {
	s, err := f.shifts.Start(ctx, actor, event.Action.GuildID, event.Action.ShiftType)
	if err != nil {
		f.respondError(event, err, messageShiftNotFound)
		return
	}
	f.respondShift(event, s, labelStartedBy, true)
	f.runEffect("grant shift role", func() error {
		return f.dc.GrantShiftRole(s.GuildID, s.UserID)
	})
	f.broadcastShift(s, labelStartedBy)
}

func (f *Facade) handleShiftPause(ctx context.Context, actor ledger.Actor, event discord.ActionEvent) {
	id, ok := f.resolveShiftID(ctx, actor, event, messageNoActiveShift)
	if !ok {
		return
	}
	s, err := f.shifts.Pause(ctx, actor, id)
	if err != nil {
		f.respondError(event, err, messageShiftNotFound)
		return
	}
	f.respondShift(event, s, labelPausedBy, true)
	f.broadcastShift(s, labelPausedBy)
}

func (f *Facade) handleShiftResume(ctx context.Context, actor ledger.Actor, event discord.ActionEvent) {
	id, ok := f.resolveShiftID(ctx, actor, event, messageNoPausedShift)
	if !ok {
		return
	}
	s, err := f.shifts.Resume(ctx, actor, id)
	if err != nil {
		f.respondError(event, err, messageShiftNotFound)
		return
	}
	f.respondShift(event, s, labelResumedBy, true)
	f.broadcastShift(s, labelResumedBy)
}

func (f *Facade) handleShiftEnd(ctx context.Context, actor ledger.Actor, event discord.ActionEvent) {
	force := event.Action.Kind == discord.ActionShiftForceEnd
	id, ok := f.resolveShiftID(ctx, actor, event, messageNoOpenShift)
	if !ok {
		return
	}
	s, err := f.shifts.End(ctx, actor, id, force)
	if err != nil {
		f.respondError(event, err, messageShiftNotFound)
		return
	}
	label := labelEndedBy
	if force {
		label = labelForceEndedBy
	}
	f.respondShift(event, s, label, false)
	f.runEffect("revoke shift role", func() error {
		return f.dc.RevokeShiftRole(s.GuildID, s.UserID)
	})
	f.broadcastShift(s, label)
}

func (f *Facade) handleBulkEnd(ctx context.Context, actor ledger.Actor, event discord.ActionEvent) {
	if !actor.Admin {
		f.respondText(event, messageAdminOnly)
		return
	}
	ended, err := f.shifts.BulkEnd(ctx, actor, repository.ShiftFilter{
		GuildID:  event.Action.GuildID,
		UserID:   event.Action.TargetUserID,
		BeforeTs: event.Action.BeforeTs,
	})
	if err != nil {
		f.respondError(event, err, messageNoShiftsForFilter)
		return
	}
	if len(ended) == 0 {
		f.respondText(event, messageNoShiftsForFilter)
		return
	}
	for i := range ended {
		s := &ended[i]
		f.runEffect("revoke shift role", func() error {
			return f.dc.RevokeShiftRole(s.GuildID, s.UserID)
		})
		f.broadcastShift(s, labelBulkEndedBy)
	}
	f.respondText(event, messageBulkEnded(len(ended)))
}

func (f *Facade) handleBulkDelete(ctx context.Context, actor ledger.Actor, event discord.ActionEvent) {
	if !actor.Admin {
		f.respondText(event, messageAdminOnly)
		return
	}
	deleted, err := f.shifts.BulkDelete(ctx, actor, repository.ShiftFilter{
		GuildID:  event.Action.GuildID,
		UserID:   event.Action.TargetUserID,
		BeforeTs: event.Action.BeforeTs,
		IDs:      event.Action.IDs,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrValidation) {
			f.respondText(event, messageInvalidIDList)
			return
		}
		f.respondError(event, err, messageNoShiftsToDelete)
		return
	}
	if len(deleted) == 0 {
		f.respondText(event, messageNoShiftsToDelete)
		return
	}
	for _, s := range deleted {
		f.broadcastText(s.GuildID, messageShiftDeleted(s.ID, actor.ID))
	}
	f.respondText(event, messageBulkDeleted(len(deleted)))
}

func (f *Facade) handleShiftLogs(ctx context.Context, actor ledger.Actor, event discord.ActionEvent) {
	entries, err := f.audit.Query(ctx, event.Action.GuildID, actor.ID, event.Action.Limit)
	if err != nil {
		f.respondError(event, err, messageNoLogs)
		return
	}
	if len(entries) == 0 {
		f.respondText(event, messageNoLogs)
		return
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, formatAuditLine(e))
	}
	f.respondText(event, strings.Join(lines, "\n"))
}

func (f *Facade) handleLoaRequest(ctx context.Context, actor ledger.Actor, event discord.ActionEvent) {
	rec, err := f.loas.Request(ctx, actor, event.Action.GuildID, event.Action.DurationExpr, event.Action.Reason)
	if err != nil {
		f.respondError(event, err, messageNoLoa)
		return
	}
	f.respondLoa(event, rec, labelRequestedBy)
	f.broadcastLoa(rec, labelRequestedBy)
}

func (f *Facade) handleLoaList(ctx context.Context, actor ledger.Actor, event discord.ActionEvent) {
	list, err := f.loas.ListForUser(ctx, event.Action.GuildID, actor.ID, event.Action.Limit)
	if err != nil {
		f.respondError(event, err, messageNoLoaRequests)
		return
	}
	if len(list) == 0 {
		f.respondText(event, messageNoLoaRequests)
		return
	}
	f.respondText(event, formatLoaLines(list, false))
}

func (f *Facade) handleLoaStatus(ctx context.Context, actor ledger.Actor, event discord.ActionEvent) {
	rec, err := f.loas.LatestStatus(ctx, event.Action.GuildID, actor.ID)
	if err != nil {
		f.respondError(event, err, messageNoLoa)
		return
	}
	f.respondLoa(event, rec, "")
}

func (f *Facade) handleLoaResolve(ctx context.Context, actor ledger.Actor, event discord.ActionEvent) {
	if !actor.Admin {
		f.respondText(event, messageAdminOnly)
		return
	}
	approve := event.Action.Kind == discord.ActionLoaApprove
	var (
		rec *repository.Loa
		err error
	)
	if approve {
		rec, err = f.loas.Approve(ctx, actor, event.Action.LoaID, event.Action.Note)
	} else {
		rec, err = f.loas.Deny(ctx, actor, event.Action.LoaID, event.Action.Note)
	}
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidState) {
			f.respondText(event, messageLoaAlreadyResolved)
			return
		}
		f.respondError(event, err, messageLoaNotFound)
		return
	}
	label := labelApprovedBy
	dm := messageLoaApprovedDM(rec.ID)
	if !approve {
		label = labelDeniedBy
		dm = messageLoaDeniedDM(rec.ID)
	}
	f.respondLoa(event, rec, label)
	f.runEffect("loa decision dm", func() error {
		return f.dc.SendDirectMessage(rec.UserID, dm)
	})
	f.broadcastLoa(rec, label)
}

func (f *Facade) handleLoaManageList(ctx context.Context, actor ledger.Actor, event discord.ActionEvent) {
	if !actor.Admin {
		f.respondText(event, messageAdminOnly)
		return
	}
	list, err := f.loas.List(ctx, event.Action.GuildID, event.Action.PendingOnly, event.Action.Limit)
	if err != nil {
		f.respondError(event, err, messageNoLoaRequests)
		return
	}
	if len(list) == 0 {
		f.respondText(event, messageNoLoaRequests)
		return
	}
	f.respondText(event, formatLoaLines(list, true))
}

// resolveShiftID returns the explicit shift id from the action, or falls back
// to the caller's open shift for the id-less slash paths.
func (f *Facade) resolveShiftID(ctx context.Context, actor ledger.Actor, event discord.ActionEvent, noneMessage string) (int64, bool) {
	if event.Action.ShiftID != 0 {
		return event.Action.ShiftID, true
	}
	open, err := f.shifts.OpenShift(ctx, event.Action.GuildID, actor.ID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			f.respondText(event, noneMessage)
		} else {
			f.respondError(event, err, noneMessage)
		}
		return 0, false
	}
	return open.ID, true
}

// respondError maps typed ledger errors onto caller-facing messages; anything
// outside the taxonomy becomes the generic failure reply.
func (f *Facade) respondError(event discord.ActionEvent, err error, notFoundMessage string) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		f.respondText(event, notFoundMessage)
	case errors.Is(err, ledger.ErrForbidden):
		f.respondText(event, messageShiftNotAllowed)
	case errors.Is(err, ledger.ErrInvalidState):
		f.respondText(event, messageShiftWrongState)
	case errors.Is(err, ledger.ErrValidation):
		f.respondText(event, messageInvalidIDList)
	default:
		slog.Error("action failed", "error", err, "kind", event.Action.Kind)
		f.respondText(event, messageGenericError)
	}
}

func (f *Facade) respondShift(event discord.ActionEvent, s *repository.Shift, label string, withButtons bool) {
	if err := event.RespondShift(s, label, withButtons); err != nil {
		slog.Warn("failed to respond with shift", "error", err, "shift_id", s.ID)
	}
}

func (f *Facade) respondLoa(event discord.ActionEvent, rec *repository.Loa, label string) {
	if err := event.RespondLoa(rec, label); err != nil {
		slog.Warn("failed to respond with loa", "error", err, "loa_id", rec.ID)
	}
}

func (f *Facade) respondText(event discord.ActionEvent, content string) {
	if err := event.RespondText(content); err != nil {
		slog.Warn("failed to respond", "error", err, "kind", event.Action.Kind)
	}
}

func (f *Facade) broadcastShift(s *repository.Shift, label string) {
	f.runEffect("broadcast shift", func() error {
		return f.dc.BroadcastShift(s.GuildID, s, label)
	})
}

func (f *Facade) broadcastLoa(rec *repository.Loa, label string) {
	f.runEffect("broadcast loa", func() error {
		return f.dc.BroadcastLoa(rec.GuildID, rec, label)
	})
}

func (f *Facade) broadcastText(guildID, content string) {
	f.runEffect("broadcast text", func() error {
		return f.dc.BroadcastText(guildID, content)
	})
}

// runEffect executes a best-effort side effect under a time box. Failures and
// timeouts are logged and swallowed; they never reach the caller.
func (f *Facade) runEffect(name string, fn func() error) {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		if err != nil {
			slog.Warn("side effect failed", "effect", name, "error", err)
		}
	case <-time.After(effectTimeout):
		slog.Warn("side effect timed out", "effect", name)
	}
}

func formatAuditLine(e repository.AuditLogEntry) string {
	ts := time.Unix(e.Ts, 0).Format("2006-01-02 15:04:05")
	actor := e.ActorID
	if actor == "" {
		actor = e.UserID
	}
	return fmt.Sprintf("%s | %s | by: %s | %s", ts, e.Action, actor, e.Data)
}

func formatLoaLines(list []repository.Loa, withUser bool) string {
	lines := make([]string, 0, len(list))
	for _, r := range list {
		from := time.Unix(r.StartTs, 0).Format("02.01.2006")
		to := time.Unix(r.EndTs, 0).Format("02.01.2006")
		if withUser {
			lines = append(lines, fmt.Sprintf("ID:%d | U:%s | %s | %s | %s - %s", r.ID, r.UserID, r.Status, r.Reason, from, to))
		} else {
			lines = append(lines, fmt.Sprintf("ID:%d | %s | %s | %s - %s", r.ID, r.Status, r.Reason, from, to))
		}
	}
	return strings.Join(lines, "\n")
}

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Facade, error) {
		shifts := do.MustInvoke[*shift.Ledger](i)
		loas := do.MustInvoke[*loa.Ledger](i)
		auditLog := do.MustInvoke[*audit.Log](i)
		dc := do.MustInvoke[discord.Client](i)
		return NewFacade(shifts, loas, auditLog, dc), nil
	})
}
