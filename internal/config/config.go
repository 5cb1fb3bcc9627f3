package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
	Storage    StorageConfig    `mapstructure:"storage"    validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// GenerationConfig contains the image-generation backend settings.
type GenerationConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	Model        string `mapstructure:"model"          validate:"required"`
}

// StorageConfig contains the local image storage settings.
type StorageConfig struct {
	// ImageDir is the filesystem directory where generated and uploaded
	// images are written.
	ImageDir string `mapstructure:"image_dir" validate:"required"`

	// PublicPath is the URL path prefix under which images in ImageDir
	// are served (e.g., "/images").
	PublicPath string `mapstructure:"public_path" validate:"required"`
}
