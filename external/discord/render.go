package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/repository"
)

const embedColor = 0x0b1020

func secsToHMS(s int64) string {
	h := s / 3600
	s %= 3600
	m := s / 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s%60)
}

func discordTimestamp(ts int64, style string) string {
	if ts == 0 {
		return "—"
	}
	return fmt.Sprintf("<t:%d:%s>", ts, style)
}

func buildShiftEmbed(s *repository.Shift, actorLine string) *discordgo.MessageEmbed {
	total := "0s"
	if s.TotalSeconds > 0 {
		total = secsToHMS(s.TotalSeconds)
	}
	embed := &discordgo.MessageEmbed{
		Title: "⏱ Shift",
		Color: embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: ":bust_in_silhouette: User", Value: fmt.Sprintf("<@%s>", s.UserID), Inline: true},
			{Name: ":label: Type", Value: s.Type, Inline: true},
			{Name: "⏱ Total", Value: total, Inline: true},
			{Name: "Start", Value: discordTimestamp(s.StartTs, "f"), Inline: true},
			{Name: "Last pause", Value: discordTimestamp(s.PauseTs, "f"), Inline: true},
			{Name: "Last resume", Value: discordTimestamp(s.ResumeTs, "f"), Inline: true},
			{Name: "End", Value: discordTimestamp(s.EndTs, "f"), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Shift ID: %d", s.ID)},
	}
	if actorLine != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "​",
			Value: actorLine,
		})
	}
	return embed
}

func buildLoaEmbed(l *repository.Loa, actorLine string) *discordgo.MessageEmbed {
	rangeValue := "—"
	if l.StartTs != 0 {
		rangeValue = discordTimestamp(l.StartTs, "d") + " - " + discordTimestamp(l.EndTs, "d")
	}
	reason := l.Reason
	if reason == "" {
		reason = "—"
	}
	embed := &discordgo.MessageEmbed{
		Title: ":pencil: LoA Request",
		Color: embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "ID", Value: fmt.Sprintf("%d", l.ID), Inline: true},
			{Name: "User", Value: fmt.Sprintf("<@%s>", l.UserID), Inline: true},
			{Name: "Status", Value: string(l.Status), Inline: true},
			{Name: "Range", Value: rangeValue},
			{Name: "Reason", Value: reason},
		},
	}
	if actorLine != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "​",
			Value: actorLine,
		})
	}
	return embed
}

func shiftActorLine(label, actorID string, shiftID int64) string {
	if label == "" {
		return ""
	}
	return fmt.Sprintf("%s: <@%s> · Shift ID: #%d", label, actorID, shiftID)
}

func loaActorLine(label, actorID string, loaID int64) string {
	if label == "" {
		return ""
	}
	return fmt.Sprintf("%s: <@%s> · LoA ID: #%d", label, actorID, loaID)
}

// buildShiftButtons renders the control row for a shift embed. Buttons that
// are invalid for the current status are disabled rather than hidden, so the
// row keeps a stable shape.
func buildShiftButtons(shiftID int64, status repository.ShiftStatus, forAdmin bool) discordgo.ActionsRow {
	buttons := []discordgo.MessageComponent{
		discordgo.Button{
			Label:    "Start",
			Style:    discordgo.SuccessButton,
			CustomID: shiftCustomID("start", 0),
			Disabled: status == repository.ShiftStatusActive,
		},
		discordgo.Button{
			Label:    "Pause",
			Style:    discordgo.SecondaryButton,
			CustomID: shiftCustomID("pause", shiftID),
			Disabled: status != repository.ShiftStatusActive,
		},
		discordgo.Button{
			Label:    "Resume",
			Style:    discordgo.PrimaryButton,
			CustomID: shiftCustomID("resume", shiftID),
			Disabled: status != repository.ShiftStatusPaused,
		},
		discordgo.Button{
			Label:    "End",
			Style:    discordgo.DangerButton,
			CustomID: shiftCustomID("end", shiftID),
			Disabled: status != repository.ShiftStatusActive && status != repository.ShiftStatusPaused,
		},
	}
	if forAdmin {
		buttons = append(buttons, discordgo.Button{
			Label:    "Force End",
			Style:    discordgo.DangerButton,
			CustomID: shiftCustomID("forceend", shiftID),
		})
	}
	return discordgo.ActionsRow{Components: buttons}
}
