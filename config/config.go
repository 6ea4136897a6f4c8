package config

import (
	"fmt"
	"time"
)

type Configs struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`

	Database         DatabaseConfigs `toml:"database"`
	Discord          DiscordConfigs  `toml:"discord"`
	Reaction         ReactionConfigs `toml:"reaction"`
	Redis            RedisConfigs    `toml:"redis"`
	PrometheusServer ServerConfigs   `toml:"prometheus_server"`
}

const (
	SqliteDatabase = "sqlite"
	MysqlDatabase  = "mysql"
)

type DatabaseConfigs struct {
	Kind       string `toml:"kind"`
	SqliteFile string `toml:"sqlite_file"`

	Host     string `toml:"host"`
	Port     string `toml:"port"`
	Database string `toml:"database"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

func (d *DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type DiscordConfigs struct {
	// BotToken is never read from the config file.
	BotToken   string `toml:"-"`
	APIURL     string `toml:"api_url"`
	GatewayURL string `toml:"gateway_url"`
	Intents    int    `toml:"intents"`
	Compress   bool   `toml:"compress"`

	ReconnectDelay time.Duration `toml:"reconnect_delay"`
}

type BindingConfigs struct {
	Emoji  string `toml:"emoji"`
	RoleID string `toml:"role_id"`
}

type ReactionConfigs struct {
	Message  string           `toml:"message"`
	Bindings []BindingConfigs `toml:"bindings"`

	FetchRetries    int           `toml:"fetch_retries"`
	FetchRetryDelay time.Duration `toml:"fetch_retry_delay"`
}

type RedisConfigs struct {
	Addr string `toml:"addr"`
}

type ServerConfigs struct {
	Host string `toml:"host"`
	Port string `toml:"port"`
}

func (c ServerConfigs) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}
