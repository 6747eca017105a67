package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/tally/internal/common"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("TALLY_TEST_DIR", "/srv/tally")

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "~", want: home},
		{in: "~/data/tally.db", want: filepath.Join(home, "data", "tally.db")},
		{in: "$TALLY_TEST_DIR/tally.db", want: "/srv/tally/tally.db"},
		{in: "/abs/path", want: "/abs/path"},
		{in: "rel~/path", want: "rel~/path"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestDefaults(t *testing.T) {
	v := newViper()

	assert.Equal(t, filepath.Join(DataDir(), "tally.db"), DatabasePath(v))
	assert.Equal(t, ":8080", v.GetString("server.addr"))

	s, err := LoadSuggestSettings(v)
	require.NoError(t, err)
	assert.Equal(t, SuggestSettings{Timeout: 5 * time.Second, Debounce: 500 * time.Millisecond, MinLength: 5}, s)

	day, err := WeekStart(v)
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, day)
}

func TestLoadSuggestSettings_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value any
	}{
		{key: "suggest.timeout", value: "0s"},
		{key: "suggest.debounce", value: "-1s"},
		{key: "suggest.min_length", value: 0},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.value)
			_, err := LoadSuggestSettings(v)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Weekday
		wantErr bool
	}{
		{in: "sunday", want: time.Sunday},
		{in: "Monday", want: time.Monday},
		{in: " sat ", want: time.Saturday},
		{in: "WED", want: time.Wednesday},
		{in: "funday", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWeekday(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadLLMConfig(t *testing.T) {
	t.Run("openai key from environment", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "sk-env")
		v := newViper()
		v.Set("llm.provider", "OpenAI")

		cfg, err := LoadLLMConfig(v)
		require.NoError(t, err)
		assert.Equal(t, "openai", cfg.Provider)
		assert.Equal(t, "sk-env", cfg.APIKey)
		assert.Equal(t, 3, cfg.MaxRetries)
		assert.Equal(t, 60, cfg.RateLimit)
		assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
		assert.Equal(t, 30*time.Second, cfg.Timeout)
	})

	t.Run("configured key wins", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "from-env")
		v := newViper()
		v.Set("llm.provider", "anthropic")
		v.Set("llm.anthropic_api_key", "from-config")

		cfg, err := LoadLLMConfig(v)
		require.NoError(t, err)
		assert.Equal(t, "from-config", cfg.APIKey)
	})

	t.Run("missing key", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")
		v := newViper()
		v.Set("llm.provider", "anthropic")

		_, err := LoadLLMConfig(v)
		assert.ErrorIs(t, err, common.ErrMissingConfig)
	})

	t.Run("no provider", func(t *testing.T) {
		_, err := LoadLLMConfig(newViper())
		assert.ErrorIs(t, err, common.ErrMissingConfig)
	})

	t.Run("unknown provider", func(t *testing.T) {
		v := newViper()
		v.Set("llm.provider", "ollama")
		_, err := LoadLLMConfig(v)
		assert.ErrorIs(t, err, common.ErrInvalidConfig)
	})
}

func TestLoadSheetsConfig(t *testing.T) {
	for _, key := range []string{
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "GOOGLE_SHEETS_CLIENT_ID", "GOOGLE_SHEETS_CLIENT_SECRET",
		"GOOGLE_SHEETS_REFRESH_TOKEN", "GOOGLE_SHEETS_SPREADSHEET_ID", "GOOGLE_SHEETS_SPREADSHEET_NAME",
	} {
		t.Setenv(key, "")
	}

	t.Run("service account from viper", func(t *testing.T) {
		v := newViper()
		v.Set("sheets.service_account_path", "/keys/sa.json")
		v.Set("sheets.spreadsheet_id", "sheet-1")

		cfg, err := LoadSheetsConfig(v)
		require.NoError(t, err)
		assert.Equal(t, "/keys/sa.json", cfg.ServiceAccountPath)
		assert.Equal(t, "sheet-1", cfg.SpreadsheetID)
		assert.Equal(t, "Tally", cfg.SpreadsheetName)
	})

	t.Run("environment fills gaps", func(t *testing.T) {
		t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "env-client")
		t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "env-secret")
		t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "env-refresh")
		v := newViper()
		v.Set("sheets.client_id", "viper-client")

		cfg, err := LoadSheetsConfig(v)
		require.NoError(t, err)
		assert.Equal(t, "viper-client", cfg.ClientID)
		assert.Equal(t, "env-secret", cfg.ClientSecret)
		assert.Equal(t, "env-refresh", cfg.RefreshToken)
	})

	t.Run("refresh token from saved token file", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "token.json")
		require.NoError(t, os.WriteFile(tokenFile, []byte(`{"refresh_token":"saved-refresh","token_type":"Bearer"}`), 0o600))

		v := newViper()
		v.Set("sheets.client_id", "client")
		v.Set("sheets.client_secret", "secret")
		v.Set("sheets.token_file", tokenFile)

		cfg, err := LoadSheetsConfig(v)
		require.NoError(t, err)
		assert.Equal(t, "saved-refresh", cfg.RefreshToken)
	})

	t.Run("nothing configured", func(t *testing.T) {
		v := newViper()
		v.Set("sheets.token_file", filepath.Join(t.TempDir(), "absent.json"))

		_, err := LoadSheetsConfig(v)
		assert.Error(t, err)
	})
}
