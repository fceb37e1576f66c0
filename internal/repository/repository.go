package repository

import "context"

type CreateShiftInput struct {
	UserID  string
	GuildID string
	Type    string
	StartTs int64
}

// ShiftFilter scopes bulk operations. GuildID is always required; UserID and
// BeforeTs narrow the match, IDs intersects with the rest when non-nil.
type ShiftFilter struct {
	GuildID  string
	UserID   string
	BeforeTs int64
	IDs      []int64
}

type CreateLoaInput struct {
	UserID  string
	GuildID string
	StartTs int64
	EndTs   int64
	Reason  string
}

type InsertAuditLogInput struct {
	UserID  string
	GuildID string
	ActorID string
	Action  string
	Data    string
	Ts      int64
}

// ShiftRepository owns the shifts table. The conditional mutations
// (PauseShift, ResumeShift, EndShift) must be atomic update-where-status
// statements and return nil when no row matched, so two concurrent calls on
// the same shift cannot both succeed.
type ShiftRepository interface {
	CreateShift(ctx context.Context, input CreateShiftInput) (*Shift, error)
	GetShiftByID(ctx context.Context, id int64) (*Shift, error)
	GetOpenShiftByUser(ctx context.Context, guildID, userID string) (*Shift, error)
	PauseShift(ctx context.Context, id, pauseTs int64) (*Shift, error)
	ResumeShift(ctx context.Context, id, resumeTs int64) (*Shift, error)
	EndShift(ctx context.Context, id, endTs int64) (*Shift, error)
	ListOpenShifts(ctx context.Context, filter ShiftFilter) ([]Shift, error)
	ListShifts(ctx context.Context, filter ShiftFilter) ([]Shift, error)
	DeleteShift(ctx context.Context, id int64) (bool, error)
}

// LoaRepository owns the loa table. ResolveLoa is conditional on the record
// still being pending and returns nil when no row matched.
type LoaRepository interface {
	CreateLoa(ctx context.Context, input CreateLoaInput) (*Loa, error)
	GetLoaByID(ctx context.Context, id int64) (*Loa, error)
	ResolveLoa(ctx context.Context, id int64, status LoaStatus, actorID string) (*Loa, error)
	ListLoasByUser(ctx context.Context, guildID, userID string, limit int) ([]Loa, error)
	ListLoasByGuild(ctx context.Context, guildID string, pendingOnly bool, limit int) ([]Loa, error)
	LatestLoaByUser(ctx context.Context, guildID, userID string) (*Loa, error)
}

// AuditLogRepository is a pure sink plus a simple query; entries are never
// mutated or deleted.
type AuditLogRepository interface {
	InsertAuditLog(ctx context.Context, input InsertAuditLogInput) error
	ListAuditLogs(ctx context.Context, guildID, userID string, limit int) ([]AuditLogEntry, error)
}

type Repository interface {
	ShiftRepository
	LoaRepository
	AuditLogRepository
}
