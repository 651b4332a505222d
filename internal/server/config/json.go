package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/monkeyandriver/healthforge/internal/flagx"
	"github.com/monkeyandriver/healthforge/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "2h" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config
// struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddr          string         `json:"endpoint_addr"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenIssuer           string         `json:"token_issuer"`
	TokenAudience         string         `json:"token_audience"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	AIAPIKey              string         `json:"ai_api_key"`
	AIBaseURL             string         `json:"ai_base_url"`
	AIModel               string         `json:"ai_model"`
	S3RootUser            string         `json:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
	AdminEmail            string         `json:"admin_email"`
	AdminPassword         string         `json:"admin_password"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path is taken from the -c or -config command-line flags; when
// neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics: a broken config file should
// stop startup, not be silently ignored.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.TokenIssuer = c.TokenIssuer
	config.TokenAudience = c.TokenAudience
	config.TokenValidityDuration = time.Duration(c.TokenValidityDuration.Duration)
	config.AIAPIKey = c.AIAPIKey
	config.AIBaseURL = c.AIBaseURL
	config.AIModel = c.AIModel
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.AdminEmail = c.AdminEmail
	config.AdminPassword = c.AdminPassword
}
