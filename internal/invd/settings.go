package invd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Settings are the daemon's runtime knobs, read from the environment (and
// an optional .env file). Scenario inputs never come from here; they arrive
// per run.
type Settings struct {
	ListenAddr string
	LogLevel   string
	LogFormat  string

	PolicyWorkers      int
	ReplicationWorkers int
	StoreCapacity      int
}

// LoadSettings reads settings from the environment with sane defaults.
func LoadSettings() *Settings {
	// A missing .env file is fine.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("INVD_LISTEN_ADDR", ":8080")
	v.SetDefault("INVD_LOG_LEVEL", "info")
	v.SetDefault("INVD_LOG_FORMAT", "json")
	v.SetDefault("INVD_POLICY_WORKERS", 0)
	v.SetDefault("INVD_REPLICATION_WORKERS", 0)
	v.SetDefault("INVD_STORE_CAPACITY", DefaultStoreCapacity)
	v.AutomaticEnv()

	return &Settings{
		ListenAddr:         v.GetString("INVD_LISTEN_ADDR"),
		LogLevel:           v.GetString("INVD_LOG_LEVEL"),
		LogFormat:          v.GetString("INVD_LOG_FORMAT"),
		PolicyWorkers:      v.GetInt("INVD_POLICY_WORKERS"),
		ReplicationWorkers: v.GetInt("INVD_REPLICATION_WORKERS"),
		StoreCapacity:      v.GetInt("INVD_STORE_CAPACITY"),
	}
}
