package config

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PSEUDONYM_SALT", "0123456789abcdef0123")
	t.Setenv("JWT_EXPIRY_HOURS", "2")
	t.Setenv("ENFORCE_DEADLINE", "false")
	t.Setenv("ALLOWED_ORIGINS", " https://a.uni.test ,,https://b.uni.test")
	t.Setenv("APP_BASE_URL", "https://eval.uni.test/")
	t.Setenv("MAX_DB_CONNS", "not-a-number")

	cfg := Load()

	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.False(t, cfg.EnforceDeadline)
	assert.Equal(t, []string{"https://a.uni.test", "https://b.uni.test"}, cfg.AllowedOrigins)
	assert.Equal(t, "https://eval.uni.test", cfg.AppBaseURL)
	assert.Equal(t, int32(16), cfg.MaxDBConns)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"ok", Config{PseudonymSalt: "0123456789abcdef", DatabaseURL: "postgres://x"}, ""},
		{"missing salt", Config{DatabaseURL: "postgres://x"}, "PSEUDONYM_SALT"},
		{"missing both", Config{}, "PSEUDONYM_SALT, DATABASE_URL"},
		{"short salt", Config{PseudonymSalt: "short", DatabaseURL: "postgres://x"}, "at least 16 bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSMTPConfigured(t *testing.T) {
	cfg := Config{SMTPHost: "smtp.uni.test", SMTPPort: 587, SMTPUser: "u", SMTPPass: "p"}
	assert.False(t, cfg.SMTPConfigured())
	cfg.SMTPFrom = "eval@uni.test"
	assert.True(t, cfg.SMTPConfigured())
}

func TestCacheKeys(t *testing.T) {
	id := uuid.MustParse("6f1c1c52-3f4e-4e55-9d59-2f6a2b7f0a11")
	assert.Equal(t, "login:7", CacheKey.UserSessionKey(7))
	assert.Equal(t, "questionnaire:6f1c1c52-3f4e-4e55-9d59-2f6a2b7f0a11:paper", CacheKey.QuestionnairePaperKey(id))
	assert.Equal(t, "questionnaire:6f1c1c52-3f4e-4e55-9d59-2f6a2b7f0a11:monitor", CacheKey.QuestionnaireMonitorChannel(id))
}
