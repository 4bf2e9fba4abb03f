package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/musikmadness?sslmode=disable")
	t.Setenv("JWT_SECRET_KEY", "secret")
	for _, name := range []string{"SERVER_PORT", "DB_CONNECT_TIMEOUT", "CORS_ALLOWED_ORIGINS",
		"R2_ACCOUNT_ID", "R2_ACCESS_KEY_ID", "R2_SECRET_ACCESS_KEY", "R2_BUCKET_NAME", "R2_PUBLIC_BASE_URL"} {
		t.Setenv(name, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 5*time.Second, cfg.DBConnectTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.ArchiveEnabled())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_CONNECT_TIMEOUT", "2s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("R2_ACCOUNT_ID", "acc")
	t.Setenv("R2_ACCESS_KEY_ID", "key")
	t.Setenv("R2_SECRET_ACCESS_KEY", "secret")
	t.Setenv("R2_BUCKET_NAME", "brackets")
	t.Setenv("R2_PUBLIC_BASE_URL", "https://cdn.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, 2*time.Second, cfg.DBConnectTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.ArchiveEnabled())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing database url", map[string]string{"DATABASE_URL": ""}, "DATABASE_URL"},
		{"missing jwt secret", map[string]string{"JWT_SECRET_KEY": ""}, "JWT_SECRET_KEY"},
		{"port not a number", map[string]string{"SERVER_PORT": "http"}, "SERVER_PORT"},
		{"port out of range", map[string]string{"SERVER_PORT": "70000"}, "SERVER_PORT"},
		{"bad timeout", map[string]string{"DB_CONNECT_TIMEOUT": "soon"}, "DB_CONNECT_TIMEOUT"},
		{"negative timeout", map[string]string{"DB_CONNECT_TIMEOUT": "-1s"}, "DB_CONNECT_TIMEOUT"},
		{"partial r2", map[string]string{"R2_ACCOUNT_ID": "acc", "R2_BUCKET_NAME": "b"}, "R2_ACCESS_KEY_ID, R2_PUBLIC_BASE_URL, R2_SECRET_ACCESS_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
