package discord

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	discordpkg "github.com/jannisdufft-wq/shift-bot-ej/internal/discord"
)

func slashCommandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "shift",
			Description: "Shift commands",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "start",
					Description: "Start a shift",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "type", Description: "Shift type"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "pause",
					Description: "Pause your active shift",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "resume",
					Description: "Resume a paused shift",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "end",
					Description: "End your active shift",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "logs",
					Description: "View your shift logs",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionInteger, Name: "limit", Description: "Max lines"},
					},
				},
			},
		},
		{
			Name:        "shift-manage",
			Description: "Admin shift management",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "bulk-end",
					Description: "End multiple shifts",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Filter by user"},
						{Type: discordgo.ApplicationCommandOptionString, Name: "before", Description: "Before date YYYY-MM-DD"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "bulk-delete",
					Description: "Delete multiple shifts",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Filter by user"},
						{Type: discordgo.ApplicationCommandOptionString, Name: "before", Description: "Before date YYYY-MM-DD"},
						{Type: discordgo.ApplicationCommandOptionString, Name: "ids", Description: "Comma-separated IDs"},
					},
				},
			},
		},
		{
			Name:        "loa",
			Description: "Leave of Absence commands",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "request",
					Description: "Request LoA",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "duration", Description: "e.g. 3d, 2w", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Reason for LoA"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List your LoAs",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "status",
					Description: "Check your LoA status",
				},
			},
		},
		{
			Name:        "loa-manage",
			Description: "Admin LoA management",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "approve",
					Description: "Approve LoA",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionInteger, Name: "id", Description: "LoA ID", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "note", Description: "Optional note"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "deny",
					Description: "Deny LoA",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionInteger, Name: "id", Description: "LoA ID", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "note", Description: "Optional note"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List LoA requests",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionInteger, Name: "limit", Description: "Maximum number of entries"},
						{Type: discordgo.ApplicationCommandOptionBoolean, Name: "pending", Description: "Only pending requests"},
					},
				},
			},
		},
	}
}

// buildCommandAction maps a slash-command interaction onto a structured
// action. Unknown command/subcommand combinations return false.
func buildCommandAction(data discordgo.ApplicationCommandInteractionData) (discordpkg.Action, bool) {
	if len(data.Options) == 0 {
		return discordpkg.Action{}, false
	}
	sub := data.Options[0]
	opts := indexOptions(sub.Options)

	switch data.Name + " " + sub.Name {
	case "shift start":
		return discordpkg.Action{Kind: discordpkg.ActionShiftStart, ShiftType: stringOption(opts, "type")}, true
	case "shift pause":
		return discordpkg.Action{Kind: discordpkg.ActionShiftPause}, true
	case "shift resume":
		return discordpkg.Action{Kind: discordpkg.ActionShiftResume}, true
	case "shift end":
		return discordpkg.Action{Kind: discordpkg.ActionShiftEnd}, true
	case "shift logs":
		return discordpkg.Action{Kind: discordpkg.ActionShiftLogs, Limit: intOption(opts, "limit")}, true
	case "shift-manage bulk-end":
		return discordpkg.Action{
			Kind:         discordpkg.ActionShiftBulkEnd,
			TargetUserID: userOption(opts, "user"),
			BeforeTs:     parseBeforeDate(stringOption(opts, "before")),
		}, true
	case "shift-manage bulk-delete":
		action := discordpkg.Action{
			Kind:         discordpkg.ActionShiftBulkDelete,
			TargetUserID: userOption(opts, "user"),
			BeforeTs:     parseBeforeDate(stringOption(opts, "before")),
		}
		if raw := stringOption(opts, "ids"); raw != "" {
			action.IDs = parseIDList(raw)
		}
		return action, true
	case "loa request":
		return discordpkg.Action{
			Kind:         discordpkg.ActionLoaRequest,
			DurationExpr: stringOption(opts, "duration"),
			Reason:       stringOption(opts, "reason"),
		}, true
	case "loa list":
		return discordpkg.Action{Kind: discordpkg.ActionLoaList}, true
	case "loa status":
		return discordpkg.Action{Kind: discordpkg.ActionLoaStatus}, true
	case "loa-manage approve":
		return discordpkg.Action{Kind: discordpkg.ActionLoaApprove, LoaID: int64Option(opts, "id"), Note: stringOption(opts, "note")}, true
	case "loa-manage deny":
		return discordpkg.Action{Kind: discordpkg.ActionLoaDeny, LoaID: int64Option(opts, "id"), Note: stringOption(opts, "note")}, true
	case "loa-manage list":
		return discordpkg.Action{
			Kind:        discordpkg.ActionLoaManageList,
			Limit:       intOption(opts, "limit"),
			PendingOnly: boolOption(opts, "pending"),
		}, true
	}
	return discordpkg.Action{}, false
}

func indexOptions(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		if opt != nil {
			m[opt.Name] = opt
		}
	}
	return m
}

func stringOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := opts[name]; ok {
		return opt.StringValue()
	}
	return ""
}

func intOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) int {
	return int(int64Option(opts, name))
}

func int64Option(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) int64 {
	if opt, ok := opts[name]; ok {
		return opt.IntValue()
	}
	return 0
}

func boolOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) bool {
	if opt, ok := opts[name]; ok {
		return opt.BoolValue()
	}
	return false
}

func userOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := opts[name]; ok {
		if u := opt.UserValue(nil); u != nil {
			return u.ID
		}
	}
	return ""
}

func parseBeforeDate(s string) int64 {
	if s == "" {
		return 0
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return 0
	}
	return t.Unix()
}

// parseIDList keeps every parseable positive id; an input that yields nothing
// usable becomes a non-nil empty slice so the ledger can reject it.
func parseIDList(raw string) []int64 {
	ids := make([]int64, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func shiftCustomID(verb string, shiftID int64) string {
	return fmt.Sprintf("shift:%s:%d", verb, shiftID)
}

// parseShiftCustomID validates a button custom ID and maps it onto an action
// kind plus shift id. Malformed IDs are rejected here and never reach the
// command façade.
func parseShiftCustomID(customID string) (discordpkg.ActionKind, int64, bool) {
	parts := strings.Split(customID, ":")
	if len(parts) != 3 || parts[0] != "shift" {
		return "", 0, false
	}
	id, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || id < 0 {
		return "", 0, false
	}
	var kind discordpkg.ActionKind
	switch parts[1] {
	case "start":
		kind = discordpkg.ActionShiftStart
	case "pause":
		kind = discordpkg.ActionShiftPause
	case "resume":
		kind = discordpkg.ActionShiftResume
	case "end":
		kind = discordpkg.ActionShiftEnd
	case "forceend":
		kind = discordpkg.ActionShiftForceEnd
	default:
		return "", 0, false
	}
	if kind != discordpkg.ActionShiftStart && id == 0 {
		return "", 0, false
	}
	return kind, id, true
}
