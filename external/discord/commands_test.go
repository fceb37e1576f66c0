package discord

import (
	"reflect"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	discordpkg "github.com/jannisdufft-wq/shift-bot-ej/internal/discord"
)

func TestParseShiftCustomID(t *testing.T) {
	tests := []struct {
		customID string
		wantKind discordpkg.ActionKind
		wantID   int64
		wantOK   bool
	}{
		{"shift:start:0", discordpkg.ActionShiftStart, 0, true},
		{"shift:pause:7", discordpkg.ActionShiftPause, 7, true},
		{"shift:resume:7", discordpkg.ActionShiftResume, 7, true},
		{"shift:end:7", discordpkg.ActionShiftEnd, 7, true},
		{"shift:forceend:7", discordpkg.ActionShiftForceEnd, 7, true},
		{"shift:pause:0", "", 0, false}, // only start may omit the id
		{"shift:end:-1", "", 0, false},
		{"shift:end:abc", "", 0, false},
		{"shift:selfdestruct:7", "", 0, false},
		{"loa:approve:7", "", 0, false},
		{"shift:end", "", 0, false},
		{"shift:end:7:extra", "", 0, false},
		{"", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.customID, func(t *testing.T) {
			kind, id, ok := parseShiftCustomID(tt.customID)
			if ok != tt.wantOK || kind != tt.wantKind || id != tt.wantID {
				t.Errorf("parseShiftCustomID(%q) = (%q, %d, %v), want (%q, %d, %v)",
					tt.customID, kind, id, ok, tt.wantKind, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestShiftCustomIDRoundTrip(t *testing.T) {
	kind, id, ok := parseShiftCustomID(shiftCustomID("pause", 42))
	if !ok || kind != discordpkg.ActionShiftPause || id != 42 {
		t.Errorf("round trip = (%q, %d, %v)", kind, id, ok)
	}
}

func TestParseIDList(t *testing.T) {
	tests := []struct {
		raw  string
		want []int64
	}{
		{"1,2,3", []int64{1, 2, 3}},
		{" 1 , 2 ", []int64{1, 2}},
		{"1,abc,3", []int64{1, 3}},
		{"0,-5,2", []int64{2}},
		{"abc", []int64{}},
		{",,,", []int64{}},
		{"", []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := parseIDList(tt.raw)
			if got == nil {
				t.Fatal("parseIDList must never return nil")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseIDList(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseBeforeDate(t *testing.T) {
	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC).Unix()
	if got := parseBeforeDate("2026-03-15"); got != want {
		t.Errorf("parseBeforeDate = %d, want %d", got, want)
	}
	if got := parseBeforeDate("15.03.2026"); got != 0 {
		t.Errorf("invalid format should give 0, got %d", got)
	}
	if got := parseBeforeDate(""); got != 0 {
		t.Errorf("empty input should give 0, got %d", got)
	}
}

func TestBuildCommandAction(t *testing.T) {
	data := discordgo.ApplicationCommandInteractionData{
		Name: "loa",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{
				Name: "request",
				Type: discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{Name: "duration", Type: discordgo.ApplicationCommandOptionString, Value: "2w"},
					{Name: "reason", Type: discordgo.ApplicationCommandOptionString, Value: "Urlaub"},
				},
			},
		},
	}
	action, ok := buildCommandAction(data)
	if !ok {
		t.Fatal("expected a valid action")
	}
	if action.Kind != discordpkg.ActionLoaRequest {
		t.Errorf("kind = %q", action.Kind)
	}
	if action.DurationExpr != "2w" || action.Reason != "Urlaub" {
		t.Errorf("options = (%q, %q)", action.DurationExpr, action.Reason)
	}
}

func TestBuildCommandAction_BulkDeleteIDs(t *testing.T) {
	data := discordgo.ApplicationCommandInteractionData{
		Name: "shift-manage",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{
				Name: "bulk-delete",
				Type: discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{Name: "ids", Type: discordgo.ApplicationCommandOptionString, Value: "abc"},
				},
			},
		},
	}
	action, ok := buildCommandAction(data)
	if !ok {
		t.Fatal("expected a valid action")
	}
	if action.IDs == nil || len(action.IDs) != 0 {
		t.Errorf("IDs = %v, want non-nil empty so the ledger rejects it", action.IDs)
	}

	// Without the option the list stays nil, meaning "no id filter".
	data.Options[0].Options = nil
	action, ok = buildCommandAction(data)
	if !ok {
		t.Fatal("expected a valid action")
	}
	if action.IDs != nil {
		t.Errorf("IDs = %v, want nil", action.IDs)
	}
}

func TestBuildCommandAction_Unknown(t *testing.T) {
	data := discordgo.ApplicationCommandInteractionData{
		Name: "shift",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: "teleport", Type: discordgo.ApplicationCommandOptionSubCommand},
		},
	}
	if _, ok := buildCommandAction(data); ok {
		t.Error("unknown subcommand must be rejected")
	}

	if _, ok := buildCommandAction(discordgo.ApplicationCommandInteractionData{Name: "shift"}); ok {
		t.Error("missing subcommand must be rejected")
	}
}
