package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Config holds the settings that affect ledger arithmetic.
type Config struct {
	// DaysPerYear annualises interest figures.
	DaysPerYear decimal.Decimal
}

var defaultDaysPerYear = decimal.NewFromInt(365)

// NewConfig creates a Config with a 365 day year.
func NewConfig() *Config {
	return &Config{
		DaysPerYear: defaultDaysPerYear,
	}
}

// ConfigFromDaysPerYear parses a days-per-year setting such as "365" or "365.25".
// An empty string keeps the default.
func ConfigFromDaysPerYear(value string) (*Config, error) {
	cfg := NewConfig()
	if value == "" {
		return cfg, nil
	}

	days, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid days_per_year %q: %w", value, err)
	}
	if !days.IsPositive() {
		return nil, fmt.Errorf("invalid days_per_year %q, expected a positive number", value)
	}
	cfg.DaysPerYear = days

	return cfg, nil
}

func (c *Config) daysPerYear() decimal.Decimal {
	if c == nil || !c.DaysPerYear.IsPositive() {
		return defaultDaysPerYear
	}
	return c.DaysPerYear
}
