package webhook

import "context"

// AuditEventPayload mirrors one audit log entry for external sinks.
type AuditEventPayload struct {
	GuildID string `json:"guild_id"`
	UserID  string `json:"user_id"`
	ActorID string `json:"actor_id"`
	Action  string `json:"action"`
	Data    string `json:"data"`
	Ts      int64  `json:"ts"`
}

type Sender interface {
	SendAuditEvent(ctx context.Context, payload AuditEventPayload) error
}
