package webhook

import (
	"github.com/jannisdufft-wq/shift-bot-ej/internal/config"
	"github.com/jannisdufft-wq/shift-bot-ej/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (webhook.Sender, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewHTTPSender(cfg.AuditWebhookURL), nil
	})
}
