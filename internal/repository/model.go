package repository

type ShiftStatus string

const (
	ShiftStatusActive ShiftStatus = "active"
	ShiftStatusPaused ShiftStatus = "paused"
	ShiftStatusEnded  ShiftStatus = "ended"
)

type LoaStatus string

const (
	LoaStatusPending  LoaStatus = "pending"
	LoaStatusApproved LoaStatus = "approved"
	LoaStatusDenied   LoaStatus = "denied"
)

// Shift is a tracked interval of work time, possibly split by pauses.
// All timestamps are epoch seconds; zero means unset. TotalSeconds holds the
// sum of completed active intervals only; the currently open interval is not
// included until the next pause or end closes it.
type Shift struct {
	ID           int64
	UserID       string
	GuildID      string
	StartTs      int64
	PauseTs      int64
	ResumeTs     int64
	EndTs        int64
	TotalSeconds int64
	Type         string
	Status       ShiftStatus
}

// Loa is a time-ranged, admin-approved absence request. ActorID is empty
// while the request is pending.
type Loa struct {
	ID      int64
	UserID  string
	GuildID string
	StartTs int64
	EndTs   int64
	Reason  string
	Status  LoaStatus
	ActorID string
}

// AuditLogEntry records one action taken against a user's records.
type AuditLogEntry struct {
	ID      int64
	UserID  string
	GuildID string
	ActorID string
	Action  string
	Data    string
	Ts      int64
}
