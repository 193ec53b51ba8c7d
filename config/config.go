// Package config loads the processor settings from the environment and an
// optional processor.env file.
//
// Environment variables win over the file. The file is looked up in
// CONFIG_DIR when set, then in the working directory. A missing file is not
// an error.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/harvestingmedia/dataprocessor/google"
	"github.com/harvestingmedia/dataprocessor/hours"
	"github.com/harvestingmedia/dataprocessor/ratelimit"
)

const (
	fileName = "processor"
	fileType = "env"
	envDir   = "CONFIG_DIR"
)

// Setting keys
const (
	KeyLogLevel          = "LOG_LEVEL"
	KeyHoursURL          = "HOURS_FEED_URL"
	KeyHoursTimeout      = "HOURS_FEED_TIMEOUT"
	KeyHoursRetries      = "HOURS_FEED_RETRIES"
	KeySheetsEnabled     = "GOOGLE_SHEETS_ENABLED"
	KeyServiceAccountKey = "GOOGLE_SERVICE_ACCOUNT_KEY_FILE"
	KeySheetsAPIDelay    = "SHEETS_API_DELAY"
	KeySheetsMaxAttempts = "SHEETS_MAX_ATTEMPTS"
	KeyDonationSheet     = "DONATION_SPREADSHEET_ID"
	KeyCertoMarketSheet  = "CERTO_MARKET_SPREADSHEET_ID"
	KeyKeyFoodSheet      = "KEY_FOOD_SPREADSHEET_ID"
)

const (
	defaultDonationSheet  = "1mlOhXY4aITLXXGS7IDrQfaZcg3MwxvI0vm3hDgswsB0"
	defaultCertoMarket    = "1qWLg1vQHvJQG2hFHrUpO8y6bC8_xDdkLG2ErY_aGxkw"
	defaultKeyFoodSheet   = "1xsDEfSg2qv-3-hVyOWbhyWz3TuxNBnIEnweZ54iExv8"
	defaultLogLevel       = "INFO"
	defaultSheetsDisabled = false
)

// Spreadsheets holds the destination spreadsheet of each process family
type Spreadsheets struct {
	Donation    string
	CertoMarket string
	KeyFood     string
}

// Config is the loaded configuration. It is read once at startup and not
// changed afterwards.
type Config struct {
	LogLevel     string
	Hours        hours.Config
	Google       google.Config
	RateLimit    ratelimit.Config
	Spreadsheets Spreadsheets
	// File is the config file that was read, empty when none was found
	File string
}

func setDefaults(v *viper.Viper) {
	hoursDefaults := hours.DefaultConfig()
	rl := ratelimit.DefaultConfig()

	v.SetDefault(KeyLogLevel, defaultLogLevel)
	v.SetDefault(KeyHoursURL, hoursDefaults.URL)
	v.SetDefault(KeyHoursTimeout, hoursDefaults.Timeout)
	v.SetDefault(KeyHoursRetries, hoursDefaults.Retries)
	v.SetDefault(KeySheetsEnabled, defaultSheetsDisabled)
	v.SetDefault(KeyServiceAccountKey, google.DefaultKeyFile)
	v.SetDefault(KeySheetsAPIDelay, rl.APIDelay)
	v.SetDefault(KeySheetsMaxAttempts, rl.MaxAttempts)
	v.SetDefault(KeyDonationSheet, defaultDonationSheet)
	v.SetDefault(KeyCertoMarketSheet, defaultCertoMarket)
	v.SetDefault(KeyKeyFoodSheet, defaultKeyFoodSheet)
}

// Load reads the configuration
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName(fileName)
	v.SetConfigType(fileType)
	if dir := strings.TrimSpace(os.Getenv(envDir)); dir != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := Config{
		LogLevel: v.GetString(KeyLogLevel),
		Hours: hours.Config{
			URL:     strings.TrimSpace(v.GetString(KeyHoursURL)),
			Timeout: v.GetDuration(KeyHoursTimeout),
			Retries: v.GetInt(KeyHoursRetries),
		},
		Google: google.Config{
			Enabled: v.GetBool(KeySheetsEnabled),
			KeyFile: v.GetString(KeyServiceAccountKey),
		},
		RateLimit: ratelimit.Config{
			APIDelay:    v.GetDuration(KeySheetsAPIDelay),
			MaxAttempts: v.GetInt(KeySheetsMaxAttempts),
		},
		Spreadsheets: Spreadsheets{
			Donation:    strings.TrimSpace(v.GetString(KeyDonationSheet)),
			CertoMarket: strings.TrimSpace(v.GetString(KeyCertoMarketSheet)),
			KeyFood:     strings.TrimSpace(v.GetString(KeyKeyFoodSheet)),
		},
		File: v.ConfigFileUsed(),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail later at run time
func (c Config) Validate() error {
	if c.Hours.URL == "" {
		return fmt.Errorf("%s must not be empty", KeyHoursURL)
	}
	if c.Hours.Timeout <= 0 {
		return fmt.Errorf("%s must be positive, got %s", KeyHoursTimeout, c.Hours.Timeout)
	}
	if c.Hours.Retries < 0 {
		return fmt.Errorf("%s must not be negative, got %d", KeyHoursRetries, c.Hours.Retries)
	}
	if c.Google.Enabled {
		if c.Spreadsheets.Donation == "" || c.Spreadsheets.CertoMarket == "" || c.Spreadsheets.KeyFood == "" {
			return errors.New("spreadsheet ids must be set when Google Sheets is enabled")
		}
	}
	return nil
}
