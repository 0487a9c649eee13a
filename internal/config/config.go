package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var ErrConfigurationMissing = errors.New("configuration missing")

type AppConfig struct {
	v *viper.Viper
}

func NewAppConfig() *AppConfig {
	v := viper.New()

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &AppConfig{v: v}
}

// Load reads a yaml config file. A missing file is not an error, the
// defaults and environment are enough to run.
func (c *AppConfig) Load(filename string) error {
	if filename == "" {
		return nil
	}

	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		slog.Info("no config file " + filename)
		return nil
	}

	c.v.SetConfigFile(filename)

	if err := c.v.ReadInConfig(); err != nil {
		return fmt.Errorf("error loading config %s: %w", filename, err)
	}

	slog.Info("config loaded from " + filename)

	return nil
}

// Validate fails with ErrConfigurationMissing when the process can't do
// anything useful.
func (c *AppConfig) Validate() error {
	if c.StoreURI() == "" {
		return fmt.Errorf("%w: MONGODB_URI (or store.uri) is required", ErrConfigurationMissing)
	}

	if c.TalkgroupFile() == "" {
		return fmt.Errorf("%w: talkgroup_file is required", ErrConfigurationMissing)
	}

	if c.DBName() == "" || c.Collection() == "" {
		return fmt.Errorf("%w: db_name and collection_name must not be empty", ErrConfigurationMissing)
	}

	return nil
}

func (c *AppConfig) Set(key string, v any) {
	c.v.Set(key, v)
}

func (c *AppConfig) FirstString(key ...string) string {
	for _, k := range key {
		if s := c.v.GetString(k); s != "" {
			return s
		}
	}

	return ""
}

func (c *AppConfig) StoreURI() string {
	return c.FirstString("store.uri", "mongodb_uri")
}

func (c *AppConfig) DBName() string {
	return c.v.GetString("db_name")
}

func (c *AppConfig) Collection() string {
	return c.v.GetString("collection_name")
}

func (c *AppConfig) TalkgroupFile() string {
	return c.v.GetString("talkgroup_file")
}

func (c *AppConfig) Addr() string {
	if a := c.v.GetString("listen"); a != "" {
		return a
	}

	return fmt.Sprintf(":%d", c.v.GetInt("port"))
}

func (c *AppConfig) StoreTimeout() time.Duration {
	return c.v.GetDuration("store.timeout")
}

func (c *AppConfig) StatusInterval() time.Duration {
	return c.v.GetDuration("status.interval")
}

func (c *AppConfig) QueueSize() int {
	return c.v.GetInt("relay.queue_size")
}

func (c *AppConfig) BackoffInitial() time.Duration {
	return c.v.GetDuration("relay.backoff_initial")
}

func (c *AppConfig) BackoffMax() time.Duration {
	return c.v.GetDuration("relay.backoff_max")
}

func (c *AppConfig) MaxWindowEvents() int {
	return c.v.GetInt("history.max_window_events")
}

func (c *AppConfig) SQLPollInterval() time.Duration {
	return c.v.GetDuration("sql.poll_interval")
}

func (c *AppConfig) MQTTBroker() string {
	return c.v.GetString("mqtt.broker")
}

func (c *AppConfig) MQTTTopic() string {
	return c.v.GetString("mqtt.topic")
}

func (c *AppConfig) MQTTClientID() string {
	return c.v.GetString("mqtt.client_id")
}

func (c *AppConfig) MQTTQueueSize() int {
	return c.v.GetInt("mqtt.queue_size")
}

func (c *AppConfig) Debug() bool {
	return c.v.GetBool("debug")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mongodb_uri", "")
	v.SetDefault("store.uri", "")
	v.SetDefault("db_name", "trunk_recorder")
	v.SetDefault("collection_name", "radio_events")
	v.SetDefault("talkgroup_file", "trs_tg_6643.csv")
	v.SetDefault("port", 3000)
	v.SetDefault("listen", "")

	v.SetDefault("store.timeout", time.Second*5)
	v.SetDefault("status.interval", time.Second*30)
	v.SetDefault("relay.queue_size", 256)
	v.SetDefault("relay.backoff_initial", time.Second)
	v.SetDefault("relay.backoff_max", time.Second*30)
	v.SetDefault("history.max_window_events", 50000)
	v.SetDefault("sql.poll_interval", time.Second)

	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.topic", "scanrelay/events")
	v.SetDefault("mqtt.client_id", "")
	v.SetDefault("mqtt.queue_size", 1024)

	v.SetDefault("debug", false)
}
