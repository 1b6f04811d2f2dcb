package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads config.yaml from configPath and applies environment overrides
// (INVENTORY_ prefix, e.g. INVENTORY_DATABASE_HOST).
func Load(configPath string) (Config, error) {
	// Start with defaults
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("INVENTORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Map nested keys to flat env vars
	v.BindEnv("server.port")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("storage.bucket")
	v.BindEnv("storage.region")
	v.BindEnv("storage.processed_folder")
	v.BindEnv("storage.public_base_url")
	v.BindEnv("events.redis_addr")
	v.BindEnv("events.redis_password")
	v.BindEnv("events.redis_db")
	v.BindEnv("events.import_topic")
	v.BindEnv("import.max_rows")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Use defaults + env
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	if v.IsSet("server.port") {
		cfg.Server.Port = v.GetInt("server.port")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("storage.bucket") {
		cfg.Storage.Bucket = v.GetString("storage.bucket")
	}
	if v.IsSet("storage.region") {
		cfg.Storage.Region = v.GetString("storage.region")
	}
	if v.IsSet("storage.processed_folder") {
		cfg.Storage.ProcessedFolder = v.GetString("storage.processed_folder")
	}
	if v.IsSet("storage.public_base_url") {
		cfg.Storage.PublicBaseURL = v.GetString("storage.public_base_url")
	}
	if v.IsSet("storage.uploader_tag") {
		cfg.Storage.UploaderTag = v.GetString("storage.uploader_tag")
	}
	if v.IsSet("events.redis_addr") {
		cfg.Events.RedisAddr = v.GetString("events.redis_addr")
	}
	if v.IsSet("events.redis_password") {
		cfg.Events.RedisPassword = v.GetString("events.redis_password")
	}
	if v.IsSet("events.redis_db") {
		cfg.Events.RedisDB = v.GetInt("events.redis_db")
	}
	if v.IsSet("events.import_topic") {
		cfg.Events.ImportTopic = v.GetString("events.import_topic")
	}
	if v.IsSet("import.max_rows") {
		cfg.Import.MaxRows = v.GetInt("import.max_rows")
	}

	return cfg, nil
}
