package config

import "fmt"

type Config struct {
	Env             string
	DiscordToken    string
	DiscordGuildID  string
	DatabaseURL     string
	AdminRoleID     string
	ShiftRoleID     string
	LogChannelID    string
	AuditWebhookURL string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "DISCORD_TOKEN", value: c.DiscordToken},
		{name: "DATABASE_URL", value: c.DatabaseURL},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
