package tinybird

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearTBEnv unsets every TB_* variable for the duration of the test.
func clearTBEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TB_TOKEN", "TB_HOST", "TB_REGION", "TB_LOCAL", "TB_LOCAL_PORT", "TB_API_VERSION",
		"TB_MAX_RETRIES", "TB_RETRY_DELAY", "TB_RETRY_BACKOFF_MULTIPLIER", "TB_TIMEOUT",
		"TB_RATE_LIMIT", "TB_RATE_BURST",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadEnvConfig_Defaults(t *testing.T) {
	clearTBEnv(t)

	cfg, err := LoadEnvConfig()
	require.NoError(t, err)
	assert.Equal(t, 7181, cfg.LocalPort)
	assert.Equal(t, "v0", cfg.APIVersion)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.Equal(t, 2.0, cfg.BackoffMultiplier)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.False(t, cfg.Local)
}

func TestLoadEnvConfig_Values(t *testing.T) {
	clearTBEnv(t)
	t.Setenv("TB_TOKEN", "p.token")
	t.Setenv("TB_REGION", "aws-us-east-1")
	t.Setenv("TB_MAX_RETRIES", "5")
	t.Setenv("TB_RETRY_DELAY", "250ms")
	t.Setenv("TB_RATE_LIMIT", "50")

	cfg, err := LoadEnvConfig()
	require.NoError(t, err)
	assert.Equal(t, "p.token", cfg.Token)
	assert.Equal(t, "aws-us-east-1", cfg.Region)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, 50.0, cfg.RateLimit)
}

func TestLoadEnvConfig_Invalid(t *testing.T) {
	clearTBEnv(t)
	t.Setenv("TB_MAX_RETRIES", "many")

	_, err := LoadEnvConfig()
	assert.ErrorContains(t, err, "failed to load config")
}

func TestNewFromEnv(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "explicit host",
			env:  map[string]string{"TB_TOKEN": "t", "TB_HOST": "https://custom.example.com"},
			want: "https://custom.example.com",
		},
		{
			name: "region",
			env:  map[string]string{"TB_TOKEN": "t", "TB_REGION": "gcp-us-east4"},
			want: "https://api.us-east.tinybird.co",
		},
		{
			name: "local",
			env:  map[string]string{"TB_TOKEN": "t", "TB_LOCAL": "true", "TB_LOCAL_PORT": "8001"},
			want: "http://localhost:8001",
		},
		{
			name: "region from token",
			env:  map[string]string{"TB_TOKEN": tokenFor("aws-eu-west-1")},
			want: "https://api.eu-west-1.aws.tinybird.co",
		},
		{
			name: "local from token",
			env:  map[string]string{"TB_TOKEN": tokenFor("local")},
			want: "http://localhost:7181",
		},
		{
			name: "default region",
			env:  map[string]string{"TB_TOKEN": "opaque"},
			want: "https://api.tinybird.co",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTBEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			client, err := NewFromEnv()
			require.NoError(t, err)
			assert.Equal(t, tt.want, client.BaseURL())
		})
	}
}

func TestNewFromEnv_MissingToken(t *testing.T) {
	clearTBEnv(t)

	_, err := NewFromEnv()
	assert.ErrorIs(t, err, ErrMissingToken)
}
