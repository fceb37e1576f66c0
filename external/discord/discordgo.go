package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	discordpkg "github.com/jannisdufft-wq/shift-bot-ej/internal/discord"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/repository"
)

type Client struct {
	session      *discordgo.Session
	token        string
	adminRoleID  string
	shiftRoleID  string
	logChannelID string
}

func NewClient(token, adminRoleID, shiftRoleID, logChannelID string) discordpkg.Client {
	return &Client{
		token:        token,
		adminRoleID:  adminRoleID,
		shiftRoleID:  shiftRoleID,
		logChannelID: logChannelID,
	}
}

func (c *Client) Connect(ctx context.Context) error {
	_ = ctx
	s, err := discordgo.New("Bot " + c.token)
	if err != nil {
		return err
	}
	c.session = s
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	return s.Open()
}

func (c *Client) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}

func (c *Client) Run() error {
	select {}
}

// UpsertSlashCommands registers the command set on the given guild, or
// globally when guildID is empty (global registration can take up to an hour
// to propagate).
func (c *Client) UpsertSlashCommands(guildID string) error {
	appID := c.applicationID()
	if appID == "" {
		return fmt.Errorf("discord application id is not available")
	}
	_, err := c.session.ApplicationCommandBulkOverwrite(appID, guildID, slashCommandDefinitions())
	return err
}

func (c *Client) RegisterActionHandler(handler func(discordpkg.ActionEvent)) {
	c.session.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		if ic == nil {
			return
		}
		switch ic.Type {
		case discordgo.InteractionApplicationCommand:
			if event, ok := c.commandEvent(s, ic); ok {
				handler(event)
			}
		case discordgo.InteractionMessageComponent:
			if event, ok := c.componentEvent(s, ic); ok {
				handler(event)
			}
		}
	})
}

func (c *Client) commandEvent(s *discordgo.Session, ic *discordgo.InteractionCreate) (discordpkg.ActionEvent, bool) {
	data := ic.ApplicationCommandData()
	action, ok := buildCommandAction(data)
	if !ok {
		return discordpkg.ActionEvent{}, false
	}
	userID := interactionUserID(ic)
	if userID == "" {
		return discordpkg.ActionEvent{}, false
	}
	action.ActorID = userID
	action.ActorIsAdmin = c.memberIsAdmin(ic.Member)
	action.GuildID = interactionGuildID(ic)
	slog.Info("slash command interaction received", "guild_id", action.GuildID, "command", data.Name, "user_id", userID)

	return discordpkg.ActionEvent{
		Action:       action,
		RespondShift: c.shiftResponder(s, ic, action, false),
		RespondLoa:   c.loaResponder(s, ic, action),
		RespondText:  c.textResponder(s, ic),
	}, true
}

func (c *Client) componentEvent(s *discordgo.Session, ic *discordgo.InteractionCreate) (discordpkg.ActionEvent, bool) {
	kind, shiftID, ok := parseShiftCustomID(ic.MessageComponentData().CustomID)
	if !ok {
		c.respondEphemeral(s, ic, "Unbekannte Button-Aktion.")
		return discordpkg.ActionEvent{}, false
	}
	userID := interactionUserID(ic)
	if userID == "" {
		return discordpkg.ActionEvent{}, false
	}
	action := discordpkg.Action{
		Kind:         kind,
		ShiftID:      shiftID,
		ActorID:      userID,
		ActorIsAdmin: c.memberIsAdmin(ic.Member),
		GuildID:      interactionGuildID(ic),
	}
	slog.Info("button interaction received", "guild_id", action.GuildID, "kind", kind, "shift_id", shiftID, "user_id", userID)

	return discordpkg.ActionEvent{
		Action:       action,
		RespondShift: c.shiftResponder(s, ic, action, true),
		RespondLoa:   c.loaResponder(s, ic, action),
		RespondText:  c.textResponder(s, ic),
	}, true
}

// shiftResponder renders a shift snapshot. Button interactions update the
// message they came from; slash commands post a new reply.
func (c *Client) shiftResponder(s *discordgo.Session, ic *discordgo.InteractionCreate, action discordpkg.Action, update bool) func(*repository.Shift, string, bool) error {
	return func(shiftRec *repository.Shift, label string, withButtons bool) error {
		embed := buildShiftEmbed(shiftRec, shiftActorLine(label, action.ActorID, shiftRec.ID))
		components := []discordgo.MessageComponent{}
		if withButtons {
			components = append(components, buildShiftButtons(shiftRec.ID, shiftRec.Status, action.ActorIsAdmin))
		}
		responseType := discordgo.InteractionResponseChannelMessageWithSource
		if update {
			responseType = discordgo.InteractionResponseUpdateMessage
		}
		return s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
			Type: responseType,
			Data: &discordgo.InteractionResponseData{
				Embeds:     []*discordgo.MessageEmbed{embed},
				Components: components,
			},
		})
	}
}

func (c *Client) loaResponder(s *discordgo.Session, ic *discordgo.InteractionCreate, action discordpkg.Action) func(*repository.Loa, string) error {
	return func(loaRec *repository.Loa, label string) error {
		embed := buildLoaEmbed(loaRec, loaActorLine(label, action.ActorID, loaRec.ID))
		return s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Embeds: []*discordgo.MessageEmbed{embed},
				Flags:  discordgo.MessageFlagsEphemeral,
			},
		})
	}
}

func (c *Client) textResponder(s *discordgo.Session, ic *discordgo.InteractionCreate) func(string) error {
	return func(content string) error {
		return s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: content,
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
	}
}

func (c *Client) respondEphemeral(s *discordgo.Session, ic *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		slog.Warn("failed to respond to interaction", "error", err)
	}
}

// memberIsAdmin checks the configured admin role, falling back to the
// ManageServer permission bit either way.
func (c *Client) memberIsAdmin(member *discordgo.Member) bool {
	if member == nil {
		return false
	}
	if c.adminRoleID != "" {
		for _, roleID := range member.Roles {
			if roleID == c.adminRoleID {
				return true
			}
		}
	}
	return member.Permissions&discordgo.PermissionManageServer != 0
}

func (c *Client) GrantShiftRole(guildID, userID string) error {
	if c.shiftRoleID == "" {
		return nil
	}
	return c.session.GuildMemberRoleAdd(guildID, userID, c.shiftRoleID)
}

func (c *Client) RevokeShiftRole(guildID, userID string) error {
	if c.shiftRoleID == "" {
		return nil
	}
	return c.session.GuildMemberRoleRemove(guildID, userID, c.shiftRoleID)
}

func (c *Client) SendDirectMessage(userID, content string) error {
	ch, err := c.session.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = c.session.ChannelMessageSend(ch.ID, content)
	return err
}

func (c *Client) BroadcastShift(guildID string, shiftRec *repository.Shift, label string) error {
	_ = guildID
	if c.logChannelID == "" {
		return nil
	}
	embed := buildShiftEmbed(shiftRec, shiftActorLine(label, shiftRec.UserID, shiftRec.ID))
	_, err := c.session.ChannelMessageSendEmbed(c.logChannelID, embed)
	return err
}

func (c *Client) BroadcastLoa(guildID string, loaRec *repository.Loa, label string) error {
	_ = guildID
	if c.logChannelID == "" {
		return nil
	}
	embed := buildLoaEmbed(loaRec, loaActorLine(label, loaRec.ActorID, loaRec.ID))
	_, err := c.session.ChannelMessageSendEmbed(c.logChannelID, embed)
	return err
}

func (c *Client) BroadcastText(guildID, content string) error {
	_ = guildID
	if c.logChannelID == "" {
		return nil
	}
	_, err := c.session.ChannelMessageSend(c.logChannelID, content)
	return err
}

func interactionUserID(ic *discordgo.InteractionCreate) string {
	if ic.Member != nil && ic.Member.User != nil {
		return ic.Member.User.ID
	}
	if ic.User != nil {
		return ic.User.ID
	}
	return ""
}

func interactionGuildID(ic *discordgo.InteractionCreate) string {
	if ic.GuildID != "" {
		return ic.GuildID
	}
	return "dm"
}

func (c *Client) applicationID() string {
	if c.session == nil || c.session.State == nil {
		return ""
	}
	if c.session.State.Application != nil && c.session.State.Application.ID != "" {
		return c.session.State.Application.ID
	}
	if c.session.State.User != nil {
		return c.session.State.User.ID
	}
	return ""
}
