package discord

import (
	"github.com/jannisdufft-wq/shift-bot-ej/internal/config"
	discordpkg "github.com/jannisdufft-wq/shift-bot-ej/internal/discord"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (discordpkg.Client, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewClient(c.DiscordToken, c.AdminRoleID, c.ShiftRoleID, c.LogChannelID), nil
	})
}
