// Package config loads configuration structs from environment
// variables. A .env file in the working directory is loaded once, if
// present, before the first parse; values are then bound to struct
// fields via `env` and `envDefault` tags.
//
// Example:
//
//	type StorageConfig struct {
//	    ConnectionString string `env:"DATABASE_URL,required"`
//	    MaxOpenConns     int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
//	}
//
//	var cfg StorageConfig
//	if err := config.Load(&cfg); err != nil {
//	    // Handle missing or malformed variables
//	}
package config
