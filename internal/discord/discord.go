package discord

import (
	"context"

	"github.com/jannisdufft-wq/shift-bot-ej/internal/repository"
)

type ActionKind string

const (
	ActionShiftStart      ActionKind = "shift.start"
	ActionShiftPause      ActionKind = "shift.pause"
	ActionShiftResume     ActionKind = "shift.resume"
	ActionShiftEnd        ActionKind = "shift.end"
	ActionShiftForceEnd   ActionKind = "shift.forceEnd"
	ActionShiftBulkEnd    ActionKind = "shift.bulkEnd"
	ActionShiftBulkDelete ActionKind = "shift.bulkDelete"
	ActionShiftLogs       ActionKind = "shift.logs"
	ActionLoaRequest      ActionKind = "loa.request"
	ActionLoaList         ActionKind = "loa.list"
	ActionLoaStatus       ActionKind = "loa.status"
	ActionLoaApprove      ActionKind = "loa.approve"
	ActionLoaDeny         ActionKind = "loa.deny"
	ActionLoaManageList   ActionKind = "loa.manageList"
)

// Action is a fully parsed action request. The discordgo layer validates
// slash-command options and button custom IDs at its boundary and only ever
// hands structured values to the command façade.
type Action struct {
	Kind         ActionKind
	ActorID      string
	ActorIsAdmin bool
	GuildID      string

	// ShiftID is 0 on slash paths that operate on the caller's open shift;
	// button paths always carry the id.
	ShiftID      int64
	ShiftType    string
	LoaID        int64
	DurationExpr string
	Reason       string
	Note         string
	Limit        int
	PendingOnly  bool

	// Bulk filter fields. IDs is nil when no id list was supplied and
	// non-nil empty when one was supplied but contained nothing usable.
	TargetUserID string
	BeforeTs     int64
	IDs          []int64
}

// ActionEvent carries an action together with the rendering callbacks for
// the interaction it came from.
type ActionEvent struct {
	Action       Action
	RespondShift func(shift *repository.Shift, label string, withButtons bool) error
	RespondLoa   func(loa *repository.Loa, label string) error
	RespondText  func(content string) error
}

type Client interface {
	Connect(ctx context.Context) error
	Close() error
	Run() error
	UpsertSlashCommands(guildID string) error
	RegisterActionHandler(handler func(ActionEvent))

	// Best-effort side effects. Each is a no-op when the corresponding
	// configuration (shift role, log channel) is absent.
	GrantShiftRole(guildID, userID string) error
	RevokeShiftRole(guildID, userID string) error
	SendDirectMessage(userID, content string) error
	BroadcastShift(guildID string, shift *repository.Shift, label string) error
	BroadcastLoa(guildID string, loa *repository.Loa, label string) error
	BroadcastText(guildID, content string) error
}
