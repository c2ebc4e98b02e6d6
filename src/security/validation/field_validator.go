package validation

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/username/tradefolio/backend/src/models"
)

// ErrValidationFailed is the root of every user-input validation error.
var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	MaxNameLength         = 100
	MaxSymbolLength       = 20
	MaxCurrencyCodeLength = 3
	MaxStrategyLength     = 255
	MaxNotesLength        = 4096
)

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateFiniteNumber rejects NaN and infinities, which would otherwise
// poison every downstream aggregate.
func ValidateFiniteNumber(v float64, fieldName string) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be a finite number", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidatePositiveAmount requires a finite amount strictly greater than zero.
func ValidatePositiveAmount(v float64, fieldName string) error {
	if err := ValidateFiniteNumber(v, fieldName); err != nil {
		return err
	}
	if v <= 0 {
		return fmt.Errorf("%w: %s must be greater than zero", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateNonNegativeAmount requires a finite amount of zero or more.
func ValidateNonNegativeAmount(v float64, fieldName string) error {
	if err := ValidateFiniteNumber(v, fieldName); err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("%w: %s cannot be negative", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateTradeType restricts the direction to BUY or SELL.
func ValidateTradeType(t models.TradeType) error {
	if t != models.TradeTypeBuy && t != models.TradeTypeSell {
		return fmt.Errorf("%w: trade type must be BUY or SELL, got %q", ErrValidationFailed, t)
	}
	return nil
}

// ValidateTradeInput checks a submitted trade before any mutation happens.
func ValidateTradeInput(in models.TradeInput) error {
	if err := ValidateStringNotEmpty(in.AccountID, "account_id"); err != nil {
		return err
	}
	if err := ValidateStringNotEmpty(in.Symbol, "symbol"); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(in.Symbol, MaxSymbolLength, "symbol"); err != nil {
		return err
	}
	if err := ValidateTradeType(in.Type); err != nil {
		return err
	}
	if err := ValidateFiniteNumber(in.EntryPrice, "entry_price"); err != nil {
		return err
	}
	if err := ValidateFiniteNumber(in.ExitPrice, "exit_price"); err != nil {
		return err
	}
	if err := ValidateNonNegativeAmount(in.Size, "size"); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(in.Strategy, MaxStrategyLength, "strategy"); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(in.Notes, MaxNotesLength, "notes"); err != nil {
		return err
	}
	var totalPct float64
	for _, e := range in.Exits {
		if err := ValidateFiniteNumber(e.Price, "exit price"); err != nil {
			return err
		}
		if err := ValidateNonNegativeAmount(e.Percentage, "exit percentage"); err != nil {
			return err
		}
		if e.Percentage > 100 {
			return fmt.Errorf("%w: exit percentage cannot exceed 100", ErrValidationFailed)
		}
		totalPct += e.Percentage
	}
	// Small tolerance so thirds summing to 100 survive float addition.
	if totalPct > 100+1e-9 {
		return fmt.Errorf("%w: exit percentages cannot total more than 100", ErrValidationFailed)
	}
	return nil
}

// ValidateAccountInput checks account creation parameters.
func ValidateAccountInput(name string, initialBalance float64, currency string) error {
	if err := ValidateStringNotEmpty(name, "name"); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(name, MaxNameLength, "name"); err != nil {
		return err
	}
	if err := ValidateNonNegativeAmount(initialBalance, "initial_balance"); err != nil {
		return err
	}
	if err := ValidateStringNotEmpty(currency, "currency"); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(currency, MaxCurrencyCodeLength, "currency"); err != nil {
		return err
	}
	return nil
}
