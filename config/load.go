package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

var ErrMissingToken = errors.New("DISCORD_TOKEN is not set")

// Default returns the configuration the bot runs with when neither a config
// file nor environment overrides are given.
func Default() Configs {
	return Configs{
		Env:      "local",
		LogLevel: "info",
		Database: DatabaseConfigs{
			Kind:       SqliteDatabase,
			SqliteFile: "database.sqlite",
		},
		Discord: DiscordConfigs{
			APIURL:     "https://discord.com/api/v10",
			GatewayURL: "wss://gateway.discord.gg/?v=10&encoding=json",
			// GUILDS | GUILD_MESSAGES | GUILD_MESSAGE_REACTIONS | MESSAGE_CONTENT
			Intents:        1<<0 | 1<<9 | 1<<10 | 1<<15,
			ReconnectDelay: 5 * time.Second,
		},
		Reaction: ReactionConfigs{
			Message: "Reageer op dit bericht om je rol te krijgen!\n" +
				":sunny: Voor Dag\n" +
				":house: Voor Wonen\n" +
				":older_man: Voor Oud dag/wonen",
			Bindings: []BindingConfigs{
				{Emoji: "🌞", RoleID: "1248651801960513536"},
				{Emoji: "🏠", RoleID: "1248651723703324893"},
				{Emoji: "👴", RoleID: "1248651987868717208"},
			},
			FetchRetries:    3,
			FetchRetryDelay: time.Second,
		},
	}
}

// Load builds the configuration from defaults, then the optional TOML file at
// path, then environment variables. The bot token only comes from the
// environment.
func Load(path string) (Configs, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Configs{}, err
		}
	}

	readEnvString("ENV", &cfg.Env)
	readEnvString("LOG_LEVEL", &cfg.LogLevel)

	readEnvString("DB_KIND", &cfg.Database.Kind)
	readEnvString("SQLITE_FILE", &cfg.Database.SqliteFile)
	readEnvString("DB_HOST", &cfg.Database.Host)
	readEnvString("DB_PORT", &cfg.Database.Port)
	readEnvString("DB_DATABASE", &cfg.Database.Database)
	readEnvString("DB_USER", &cfg.Database.User)
	readEnvString("DB_PASSWORD", &cfg.Database.Password)

	readEnvString("DISCORD_TOKEN", &cfg.Discord.BotToken)
	readEnvString("DISCORD_API_URL", &cfg.Discord.APIURL)
	readEnvString("DISCORD_GATEWAY_URL", &cfg.Discord.GatewayURL)
	readEnvInt("DISCORD_INTENTS", &cfg.Discord.Intents)
	readEnvBool("DISCORD_COMPRESS", &cfg.Discord.Compress)

	readEnvInt("REACTION_FETCH_RETRIES", &cfg.Reaction.FetchRetries)
	readEnvDuration("REACTION_FETCH_RETRY_DELAY", &cfg.Reaction.FetchRetryDelay)

	readEnvString("REDIS_ADDR", &cfg.Redis.Addr)

	readEnvString("PROMETHEUS_HOST", &cfg.PrometheusServer.Host)
	readEnvString("PROMETHEUS_PORT", &cfg.PrometheusServer.Port)

	if cfg.Discord.BotToken == "" {
		return Configs{}, ErrMissingToken
	}

	return cfg, nil
}

func readEnvString(name string, value *string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	*value = v
}

func readEnvInt(name string, value *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*value = i
}

func readEnvBool(name string, value *bool) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return
	}
	*value = b
}

func readEnvDuration(name string, value *time.Duration) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return
	}
	*value = d
}
