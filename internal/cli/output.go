package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Scenario/assertion failure
	ExitCommandError = 2 // Command error (bad paths, unreadable files, etc.)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// moneyPrinter formats amounts for text output.
var moneyPrinter = message.NewPrinter(language.English)

// formatAmount renders an amount in minor units (cents) of the given
// ISO currency, e.g. formatAmount(-350, "EUR") → "-€ 3.50". Unknown
// codes fall back to a plain decimal with the raw code suffixed.
func formatAmount(minor int64, code string) string {
	major := float64(minor) / 100
	unit, err := currency.ParseISO(code)
	if err != nil {
		return moneyPrinter.Sprintf("%.2f %s", major, code)
	}
	return moneyPrinter.Sprintf("%v", currency.Symbol(unit.Amount(major)))
}

// formatRate renders one exchange rate for text output.
func formatRate(code string, value float64) string {
	return moneyPrinter.Sprintf("%s %.4f", code, value)
}
