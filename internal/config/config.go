package config

import "github.com/medisupply/inventory/internal/db"

// Config is the explicit configuration value object handed to each component
// at construction. Business logic never reads the environment directly.
type Config struct {
	Server   ServerConfig
	Database db.Config
	Storage  StorageConfig
	Events   EventsConfig
	Import   ImportConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	AllowedOrigins []string
}

// StorageConfig holds blob store settings.
type StorageConfig struct {
	Bucket          string
	Region          string
	ProcessedFolder string
	PublicBaseURL   string
	UploaderTag     string
}

// EventsConfig holds message channel settings.
type EventsConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ImportTopic   string
}

// ImportConfig holds bulk-import limits.
type ImportConfig struct {
	MaxRows int
}

// Default returns the configuration used when no file or env override is set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: db.DefaultConfig(),
		Storage: StorageConfig{
			Bucket:          "medisupply-images-bucket",
			Region:          "us-east-1",
			ProcessedFolder: "processed-products",
			PublicBaseURL:   "https://medisupply-images-bucket.s3.amazonaws.com",
			UploaderTag:     "medisupply-inventories",
		},
		Events: EventsConfig{
			RedisAddr:   "localhost:6379",
			ImportTopic: "inventory.processing.products",
		},
		Import: ImportConfig{
			MaxRows: 100,
		},
	}
}
