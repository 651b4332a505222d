package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected *Config
		name     string
		args     []string
	}{
		{
			name: "all flags",
			args: []string{"cmd",
				"-a", "127.0.0.1:9090", "-d", "db", "-s", "secret",
				"-i", "issuer", "-w", "audience", "-t", "120",
				"-k", "gsk_key", "-m", "model-x",
				"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
			},
			expected: &Config{
				EndpointAddr:          "127.0.0.1:9090",
				DatabaseDSN:           "db",
				SecretKey:             "secret",
				TokenIssuer:           "issuer",
				TokenAudience:         "audience",
				TokenValidityDuration: 120 * time.Minute,
				AIAPIKey:              "gsk_key",
				AIModel:               "model-x",
				S3RootUser:            "user",
				S3RootPassword:        "password",
				S3Bucket:              "bucket",
				S3Region:              "us-west-1",
				S3BaseEndpoint:        "http://endpoint",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Equal(t, tt.expected, config)
		})
	}
}

func TestParseFlags_KeepsExistingWhenAbsent(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"cmd"}

	config := &Config{
		EndpointAddr:          ":8080",
		AIAPIKey:              "preset",
		TokenValidityDuration: 2 * time.Hour,
	}
	parseFlags(config)

	assert.Equal(t, ":8080", config.EndpointAddr)
	assert.Equal(t, "preset", config.AIAPIKey)
	assert.Equal(t, 2*time.Hour, config.TokenValidityDuration)
}
