package config

import (
	"os"

	"github.com/spf13/viper"

	"github.com/Veraticus/tally/internal/sheets"
)

// SheetsSettings reads the sheets.* keys without validating them. Direct
// GOOGLE_SHEETS_* environment variables fill anything viper leaves empty,
// and a saved token file supplies the refresh token last.
func SheetsSettings(v *viper.Viper) sheets.Config {
	config := sheets.DefaultConfig()

	config.ServiceAccountPath = ExpandPath(firstNonEmpty(v.GetString("sheets.service_account_path"), os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH")))
	config.ClientID = firstNonEmpty(v.GetString("sheets.client_id"), os.Getenv("GOOGLE_SHEETS_CLIENT_ID"))
	config.ClientSecret = firstNonEmpty(v.GetString("sheets.client_secret"), os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET"))
	config.RefreshToken = firstNonEmpty(v.GetString("sheets.refresh_token"), os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN"))
	config.SpreadsheetID = firstNonEmpty(v.GetString("sheets.spreadsheet_id"), os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"))
	config.SpreadsheetName = firstNonEmpty(v.GetString("sheets.spreadsheet_name"), os.Getenv("GOOGLE_SHEETS_SPREADSHEET_NAME"), config.SpreadsheetName)
	config.TimeZone = firstNonEmpty(v.GetString("sheets.time_zone"), config.TimeZone)
	config.TokenFile = ExpandPath(v.GetString("sheets.token_file"))

	if config.RefreshToken == "" && config.ServiceAccountPath == "" && config.TokenFile != "" {
		if token, err := sheets.LoadToken(config.TokenFile); err == nil {
			config.RefreshToken = token.RefreshToken
		}
	}

	return config
}

// LoadSheetsConfig reads and validates the export configuration.
func LoadSheetsConfig(v *viper.Viper) (*sheets.Config, error) {
	config := SheetsSettings(v)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func firstNonEmpty(values ...string) string {
	for _, s := range values {
		if s != "" {
			return s
		}
	}
	return ""
}
