package command

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/jannisdufft-wq/shift-bot-ej/internal/audit"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/discord"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/ledger"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/loa"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/repository"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/repository/memory"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/shift"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/webhook"
)

type fakeClock struct {
	now int64
}

func (f *fakeClock) Now() int64 { return f.now }

type noopWebhook struct{}

func (noopWebhook) SendAuditEvent(_ context.Context, _ webhook.AuditEventPayload) error { return nil }

// mockDiscordClient records side-effect calls. Effects run on goroutines, so
// access is mutex-guarded.
type mockDiscordClient struct {
	mu            sync.Mutex
	granted       []string
	revoked       []string
	dms           []string
	shiftLabels   []string
	loaLabels     []string
	textBroadcast []string
}

func (m *mockDiscordClient) Connect(_ context.Context) error                   { return nil }
func (m *mockDiscordClient) Close() error                                      { return nil }
func (m *mockDiscordClient) Run() error                                        { return nil }
func (m *mockDiscordClient) UpsertSlashCommands(_ string) error                { return nil }
func (m *mockDiscordClient) RegisterActionHandler(_ func(discord.ActionEvent)) {}

func (m *mockDiscordClient) GrantShiftRole(_, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.granted = append(m.granted, userID)
	return nil
}

func (m *mockDiscordClient) RevokeShiftRole(_, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked = append(m.revoked, userID)
	return nil
}

func (m *mockDiscordClient) SendDirectMessage(userID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dms = append(m.dms, userID+": "+content)
	return nil
}

func (m *mockDiscordClient) BroadcastShift(_ string, _ *repository.Shift, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shiftLabels = append(m.shiftLabels, label)
	return nil
}

func (m *mockDiscordClient) BroadcastLoa(_ string, _ *repository.Loa, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaLabels = append(m.loaLabels, label)
	return nil
}

func (m *mockDiscordClient) BroadcastText(_, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.textBroadcast = append(m.textBroadcast, content)
	return nil
}

func (m *mockDiscordClient) snapshot() mockDiscordClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	return mockDiscordClient{
		granted:       append([]string(nil), m.granted...),
		revoked:       append([]string(nil), m.revoked...),
		dms:           append([]string(nil), m.dms...),
		shiftLabels:   append([]string(nil), m.shiftLabels...),
		loaLabels:     append([]string(nil), m.loaLabels...),
		textBroadcast: append([]string(nil), m.textBroadcast...),
	}
}

// eventRecorder captures what the façade replied with.
type eventRecorder struct {
	shiftReply  *repository.Shift
	shiftLabel  string
	withButtons bool
	loaReply    *repository.Loa
	loaLabel    string
	texts       []string
}

func (r *eventRecorder) event(action discord.Action) discord.ActionEvent {
	return discord.ActionEvent{
		Action: action,
		RespondShift: func(s *repository.Shift, label string, withButtons bool) error {
			r.shiftReply = s
			r.shiftLabel = label
			r.withButtons = withButtons
			return nil
		},
		RespondLoa: func(rec *repository.Loa, label string) error {
			r.loaReply = rec
			r.loaLabel = label
			return nil
		},
		RespondText: func(content string) error {
			r.texts = append(r.texts, content)
			return nil
		},
	}
}

func (r *eventRecorder) lastText() string {
	if len(r.texts) == 0 {
		return ""
	}
	return r.texts[len(r.texts)-1]
}

type harness struct {
	facade *Facade
	store  *memory.Store
	clk    *fakeClock
	dc     *mockDiscordClient
	shifts *shift.Ledger
	loas   *loa.Ledger
}

func newHarness() *harness {
	store := memory.NewStore()
	clk := &fakeClock{now: 1000}
	auditLog := audit.NewLog(store, clk, noopWebhook{})
	shifts := shift.NewLedger(store, auditLog, clk)
	loas := loa.NewLedger(store, auditLog, clk)
	dc := &mockDiscordClient{}
	return &harness{
		facade: NewFacade(shifts, loas, auditLog, dc),
		store:  store,
		clk:    clk,
		dc:     dc,
		shifts: shifts,
		loas:   loas,
	}
}

func TestHandle_ShiftStart(t *testing.T) {
	h := newHarness()
	rec := &eventRecorder{}

	h.facade.Handle(rec.event(discord.Action{
		Kind:    discord.ActionShiftStart,
		ActorID: "u1",
		GuildID: "g1",
	}))

	if rec.shiftReply == nil {
		t.Fatal("expected a shift reply")
	}
	if rec.shiftReply.Status != repository.ShiftStatusActive {
		t.Errorf("status = %s, want active", rec.shiftReply.Status)
	}
	if rec.shiftLabel != labelStartedBy {
		t.Errorf("label = %q, want %q", rec.shiftLabel, labelStartedBy)
	}
	if !rec.withButtons {
		t.Error("start reply should carry buttons")
	}
	dc := h.dc.snapshot()
	if len(dc.granted) != 1 || dc.granted[0] != "u1" {
		t.Errorf("granted = %v, want [u1]", dc.granted)
	}
	if len(dc.shiftLabels) != 1 || dc.shiftLabels[0] != labelStartedBy {
		t.Errorf("broadcast labels = %v", dc.shiftLabels)
	}
}

func TestHandle_PauseWithoutOpenShift(t *testing.T) {
	h := newHarness()
	rec := &eventRecorder{}

	h.facade.Handle(rec.event(discord.Action{
		Kind:    discord.ActionShiftPause,
		ActorID: "u1",
		GuildID: "g1",
	}))

	if got := rec.lastText(); got != messageNoActiveShift {
		t.Errorf("reply = %q, want %q", got, messageNoActiveShift)
	}
}

func TestHandle_PauseResolvesOpenShift(t *testing.T) {
	h := newHarness()
	started, err := h.shifts.Start(context.Background(), ledger.Actor{ID: "u1"}, "g1", "")
	if err != nil {
		t.Fatal(err)
	}
	h.clk.now = 1600

	rec := &eventRecorder{}
	h.facade.Handle(rec.event(discord.Action{
		Kind:    discord.ActionShiftPause,
		ActorID: "u1",
		GuildID: "g1",
	}))

	if rec.shiftReply == nil {
		t.Fatal("expected a shift reply")
	}
	if rec.shiftReply.ID != started.ID {
		t.Errorf("paused shift %d, want %d", rec.shiftReply.ID, started.ID)
	}
	if rec.shiftReply.TotalSeconds != 600 {
		t.Errorf("total = %d, want 600", rec.shiftReply.TotalSeconds)
	}
}

func TestHandle_PauseByStranger(t *testing.T) {
	h := newHarness()
	started, err := h.shifts.Start(context.Background(), ledger.Actor{ID: "u1"}, "g1", "")
	if err != nil {
		t.Fatal(err)
	}

	rec := &eventRecorder{}
	h.facade.Handle(rec.event(discord.Action{
		Kind:    discord.ActionShiftPause,
		ActorID: "u2",
		GuildID: "g1",
		ShiftID: started.ID,
	}))

	if got := rec.lastText(); got != messageShiftNotAllowed {
		t.Errorf("reply = %q, want %q", got, messageShiftNotAllowed)
	}
	stored, _ := h.store.GetShiftByID(context.Background(), started.ID)
	if stored.Status != repository.ShiftStatusActive {
		t.Errorf("status = %s, shift must stay active", stored.Status)
	}
}

func TestHandle_DoublePauseMapsToWrongState(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	started, err := h.shifts.Start(ctx, ledger.Actor{ID: "u1"}, "g1", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.shifts.Pause(ctx, ledger.Actor{ID: "u1"}, started.ID); err != nil {
		t.Fatal(err)
	}

	rec := &eventRecorder{}
	h.facade.Handle(rec.event(discord.Action{
		Kind:    discord.ActionShiftPause,
		ActorID: "u1",
		GuildID: "g1",
		ShiftID: started.ID,
	}))

	if got := rec.lastText(); got != messageShiftWrongState {
		t.Errorf("reply = %q, want %q", got, messageShiftWrongState)
	}
}

func TestHandle_EndRevokesRole(t *testing.T) {
	h := newHarness()
	started, err := h.shifts.Start(context.Background(), ledger.Actor{ID: "u1"}, "g1", "")
	if err != nil {
		t.Fatal(err)
	}
	h.clk.now = 2000

	rec := &eventRecorder{}
	h.facade.Handle(rec.event(discord.Action{
		Kind:    discord.ActionShiftEnd,
		ActorID: "u1",
		GuildID: "g1",
		ShiftID: started.ID,
	}))

	if rec.shiftReply == nil {
		t.Fatal("expected a shift reply")
	}
	if rec.withButtons {
		t.Error("end reply must not carry buttons")
	}
	if rec.shiftLabel != labelEndedBy {
		t.Errorf("label = %q, want %q", rec.shiftLabel, labelEndedBy)
	}
	dc := h.dc.snapshot()
	if len(dc.revoked) != 1 || dc.revoked[0] != "u1" {
		t.Errorf("revoked = %v, want [u1]", dc.revoked)
	}
}

func TestHandle_ForceEndUsesForceLabel(t *testing.T) {
	h := newHarness()
	started, err := h.shifts.Start(context.Background(), ledger.Actor{ID: "u1"}, "g1", "")
	if err != nil {
		t.Fatal(err)
	}

	rec := &eventRecorder{}
	h.facade.Handle(rec.event(discord.Action{
		Kind:         discord.ActionShiftForceEnd,
		ActorID:      "boss",
		ActorIsAdmin: true,
		GuildID:      "g1",
		ShiftID:      started.ID,
	}))

	if rec.shiftLabel != labelForceEndedBy {
		t.Errorf("label = %q, want %q", rec.shiftLabel, labelForceEndedBy)
	}
}

func TestHandle_BulkEndRequiresAdmin(t *testing.T) {
	h := newHarness()
	if _, err := h.shifts.Start(context.Background(), ledger.Actor{ID: "u1"}, "g1", ""); err != nil {
		t.Fatal(err)
	}

	rec := &eventRecorder{}
	h.facade.Handle(rec.event(discord.Action{
		Kind:    discord.ActionShiftBulkEnd,
		ActorID: "u1",
		GuildID: "g1",
	}))

	if got := rec.lastText(); got != messageAdminOnly {
		t.Errorf("reply = %q, want %q", got, messageAdminOnly)
	}
	open, _ := h.store.GetOpenShiftByUser(context.Background(), "g1", "u1")
	if open == nil {
		t.Fatal("shift must still be open after a denied bulk end")
	}
}

func TestHandle_BulkEnd(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	if _, err := h.shifts.Start(ctx, ledger.Actor{ID: "u1"}, "g1", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := h.shifts.Start(ctx, ledger.Actor{ID: "u2"}, "g1", ""); err != nil {
		t.Fatal(err)
	}

	rec := &eventRecorder{}
	h.facade.Handle(rec.event(discord.Action{
		Kind:         discord.ActionShiftBulkEnd,
		ActorID:      "boss",
		ActorIsAdmin: true,
		GuildID:      "g1",
	}))

	if got := rec.lastText(); got != messageBulkEnded(2) {
		t.Errorf("reply = %q, want %q", got, messageBulkEnded(2))
	}
	dc := h.dc.snapshot()
	if len(dc.revoked) != 2 {
		t.Errorf("revoked %d roles, want 2", len(dc.revoked))
	}
	for _, label := range dc.shiftLabels {
		if label != labelBulkEndedBy {
			t.Errorf("broadcast label = %q, want %q", label, labelBulkEndedBy)
		}
	}
}

func TestHandle_BulkDeleteEmptyIDList(t *testing.T) {
	h := newHarness()
	rec := &eventRecorder{}

	h.facade.Handle(rec.event(discord.Action{
		Kind:         discord.ActionShiftBulkDelete,
		ActorID:      "boss",
		ActorIsAdmin: true,
		GuildID:      "g1",
		IDs:          []int64{},
	}))

	if got := rec.lastText(); got != messageInvalidIDList {
		t.Errorf("reply = %q, want %q", got, messageInvalidIDList)
	}
}

func TestHandle_BulkDelete(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	started, err := h.shifts.Start(ctx, ledger.Actor{ID: "u1"}, "g1", "")
	if err != nil {
		t.Fatal(err)
	}

	rec := &eventRecorder{}
	h.facade.Handle(rec.event(discord.Action{
		Kind:         discord.ActionShiftBulkDelete,
		ActorID:      "boss",
		ActorIsAdmin: true,
		GuildID:      "g1",
		IDs:          []int64{started.ID},
	}))

	if got := rec.lastText(); got != messageBulkDeleted(1) {
		t.Errorf("reply = %q, want %q", got, messageBulkDeleted(1))
	}
	dc := h.dc.snapshot()
	if len(dc.textBroadcast) != 1 || !strings.Contains(dc.textBroadcast[0], "gelöscht") {
		t.Errorf("text broadcasts = %v", dc.textBroadcast)
	}
	if gone, _ := h.store.GetShiftByID(ctx, started.ID); gone != nil {
		t.Error("shift must be deleted")
	}
}

func TestHandle_LoaApproveSendsDM(t *testing.T) {
	h := newHarness()
	requested, err := h.loas.Request(context.Background(), ledger.Actor{ID: "u1"}, "g1", "3d", "")
	if err != nil {
		t.Fatal(err)
	}

	rec := &eventRecorder{}
	h.facade.Handle(rec.event(discord.Action{
		Kind:         discord.ActionLoaApprove,
		ActorID:      "boss",
		ActorIsAdmin: true,
		GuildID:      "g1",
		LoaID:        requested.ID,
	}))

	if rec.loaReply == nil {
		t.Fatal("expected a loa reply")
	}
	if rec.loaReply.Status != repository.LoaStatusApproved {
		t.Errorf("status = %s, want approved", rec.loaReply.Status)
	}
	if rec.loaLabel != labelApprovedBy {
		t.Errorf("label = %q, want %q", rec.loaLabel, labelApprovedBy)
	}
	dc := h.dc.snapshot()
	if len(dc.dms) != 1 || !strings.HasPrefix(dc.dms[0], "u1: ") {
		t.Errorf("dms = %v, want one to u1", dc.dms)
	}
	if !strings.Contains(dc.dms[0], "genehmigt") {
		t.Errorf("dm = %q, want approval wording", dc.dms[0])
	}
}

func TestHandle_LoaResolveRequiresAdmin(t *testing.T) {
	h := newHarness()
	requested, err := h.loas.Request(context.Background(), ledger.Actor{ID: "u1"}, "g1", "3d", "")
	if err != nil {
		t.Fatal(err)
	}

	rec := &eventRecorder{}
	h.facade.Handle(rec.event(discord.Action{
		Kind:    discord.ActionLoaDeny,
		ActorID: "u2",
		GuildID: "g1",
		LoaID:   requested.ID,
	}))

	if got := rec.lastText(); got != messageAdminOnly {
		t.Errorf("reply = %q, want %q", got, messageAdminOnly)
	}
	stored, _ := h.store.GetLoaByID(context.Background(), requested.ID)
	if stored.Status != repository.LoaStatusPending {
		t.Errorf("status = %s, must stay pending", stored.Status)
	}
}

func TestHandle_LoaResolveTwice(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	requested, err := h.loas.Request(ctx, ledger.Actor{ID: "u1"}, "g1", "3d", "")
	if err != nil {
		t.Fatal(err)
	}
	admin := ledger.Actor{ID: "boss", Admin: true}
	if _, err := h.loas.Approve(ctx, admin, requested.ID, ""); err != nil {
		t.Fatal(err)
	}

	rec := &eventRecorder{}
	h.facade.Handle(rec.event(discord.Action{
		Kind:         discord.ActionLoaDeny,
		ActorID:      "boss",
		ActorIsAdmin: true,
		GuildID:      "g1",
		LoaID:        requested.ID,
	}))

	if got := rec.lastText(); got != messageLoaAlreadyResolved {
		t.Errorf("reply = %q, want %q", got, messageLoaAlreadyResolved)
	}
}

func TestHandle_ShiftLogs(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	started, err := h.shifts.Start(ctx, ledger.Actor{ID: "u1"}, "g1", "")
	if err != nil {
		t.Fatal(err)
	}
	h.clk.now = 2000
	if _, err := h.shifts.End(ctx, ledger.Actor{ID: "u1"}, started.ID, false); err != nil {
		t.Fatal(err)
	}

	rec := &eventRecorder{}
	h.facade.Handle(rec.event(discord.Action{
		Kind:    discord.ActionShiftLogs,
		ActorID: "u1",
		GuildID: "g1",
	}))

	reply := rec.lastText()
	lines := strings.Split(reply, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), reply)
	}
	// Newest first.
	if !strings.Contains(lines[0], "shift_end") || !strings.Contains(lines[1], "shift_start") {
		t.Errorf("unexpected order: %q", reply)
	}
	if !strings.Contains(lines[0], "by: u1") {
		t.Errorf("missing actor attribution: %q", lines[0])
	}
}

func TestHandle_UnknownKind(t *testing.T) {
	h := newHarness()
	rec := &eventRecorder{}

	h.facade.Handle(rec.event(discord.Action{Kind: "bogus", ActorID: "u1", GuildID: "g1"}))

	if got := rec.lastText(); got != messageGenericError {
		t.Errorf("reply = %q, want %q", got, messageGenericError)
	}
}

func TestHandle_RecoversFromPanic(t *testing.T) {
	h := newHarness()
	var texts []string
	event := discord.ActionEvent{
		Action: discord.Action{Kind: discord.ActionShiftStart, ActorID: "u1", GuildID: "g1"},
		RespondShift: func(_ *repository.Shift, _ string, _ bool) error {
			panic("renderer exploded")
		},
		RespondLoa:  func(_ *repository.Loa, _ string) error { return nil },
		RespondText: func(content string) error { texts = append(texts, content); return nil },
	}

	h.facade.Handle(event)

	if len(texts) != 1 || texts[0] != messageGenericError {
		t.Errorf("texts = %v, want the generic failure reply", texts)
	}
}
