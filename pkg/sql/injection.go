package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult contains the result of an injection check on a
// user-supplied value.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if SQL injection pattern detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	Value       string // The value that was checked
}

// CheckForInjection uses libinjection to detect SQL injection patterns
// in a user-supplied string before it is interpolated into a synthesis
// prompt or compared against the schema.
//
// Returns nil if no injection is detected, or an InjectionCheckResult
// with details about the detected pattern.
//
// Example:
//
//	// Safe value - no injection
//	result := CheckForInjection("how many employees joined in 2024")
//	// result == nil
//
//	// Injection attempt detected
//	result := CheckForInjection("'; DROP TABLE employees--")
//	// result.IsSQLi == true
//	// result.Fingerprint == "s&1c" (or similar)
func CheckForInjection(value string) *InjectionCheckResult {
	isSQLi, fingerprint := libinjection.IsSQLi(value)
	if isSQLi {
		return &InjectionCheckResult{
			IsSQLi:      true,
			Fingerprint: string(fingerprint),
			Value:       value,
		}
	}

	return nil
}
