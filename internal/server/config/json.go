package config

import (
	"encoding/json"
	"os"

	"github.com/beamit-app/beamit-server/internal/flagx"
	"github.com/beamit-app/beamit-server/internal/timex"
)

// JsonConfig is the intermediate DTO for reading JSON configuration
// files. It uses timex.Duration for interval fields, which parses both
// string values such as "10s" and integer nanoseconds. Only fields
// present in the file overlay the running Config.
type JsonConfig struct {
	Addr             string         `json:"addr"`
	DatabaseDSN      string         `json:"database_dsn"`
	LogLevel         string         `json:"log_level"`
	FileStoreBackend string         `json:"file_store_backend"`
	FileStoreDir     string         `json:"file_store_dir"`
	ShutdownTimeout  timex.Duration `json:"shutdown_timeout"`
	S3RootUser       string         `json:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
}

// parseJson overlays configuration values from the JSON file named by the
// -c/-config flag, if any. A missing or invalid file is fatal.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	overlay(&config.Addr, c.Addr)
	overlay(&config.DatabaseDSN, c.DatabaseDSN)
	overlay(&config.LogLevel, c.LogLevel)
	overlay(&config.FileStoreBackend, c.FileStoreBackend)
	overlay(&config.FileStoreDir, c.FileStoreDir)
	overlay(&config.S3RootUser, c.S3RootUser)
	overlay(&config.S3RootPassword, c.S3RootPassword)
	overlay(&config.S3Bucket, c.S3Bucket)
	overlay(&config.S3Region, c.S3Region)
	overlay(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
