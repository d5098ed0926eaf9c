package program

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrorCode - Custom program error codes (Anchor numbering starts at 6000)
type ErrorCode int

const (
	ErrUnauthorized                ErrorCode = 6000
	ErrInvalidFeeBps               ErrorCode = 6001
	ErrPlatformInactive            ErrorCode = 6002
	ErrPaymentBelowMinimum         ErrorCode = 6003
	ErrInvalidPaymentID            ErrorCode = 6004
	ErrInvalidMerchantID           ErrorCode = 6005
	ErrInsufficientTreasuryBalance ErrorCode = 6006
	ErrMathOverflow                ErrorCode = 6007
	ErrPaymentNotRefundable        ErrorCode = 6008
)

// ProgramErrors codes from Rust
var ProgramErrors = map[int]string{
	6000: "Unauthorized - Only the platform authority can perform this action",
	6001: "InvalidFeeBps - Fee must be between 0 and 10000 basis points",
	6002: "PlatformInactive - Platform is not accepting payments",
	6003: "PaymentBelowMinimum - Amount is below the minimum payment",
	6004: "InvalidPaymentId - Payment ID is empty or too long",
	6005: "InvalidMerchantId - Merchant ID is empty or too long",
	6006: "InsufficientTreasuryBalance - Treasury does not cover the requested amount",
	6007: "MathOverflow - Math calculation overflow",
	6008: "PaymentNotRefundable - Payment is not in a refundable state",
}

// Error - Typed program error carrying the custom code
type Error struct {
	Code ErrorCode
}

func (e *Error) Error() string {
	if msg, ok := ProgramErrors[int(e.Code)]; ok {
		return msg
	}
	return fmt.Sprintf("custom program error: %d", e.Code)
}

// NewError creates a typed program error for a code
func NewError(code ErrorCode) *Error {
	return &Error{Code: code}
}

// ExtractErrorCode tries multiple methods to extract custom program error code
func ExtractErrorCode(err error) *int {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	// Method 1: Try to parse JSON structure
	// Format: "err": {"InstructionError": [0, {"Custom": 6002}]}
	type InstructionErrorData struct {
		InstructionError []interface{} `json:"InstructionError"`
	}
	type ErrorWrapper struct {
		Err InstructionErrorData `json:"err"`
	}

	// Find JSON portion in error string
	if jsonStart := strings.Index(errStr, `"err":`); jsonStart != -1 {
		// Extract balanced JSON object
		jsonStr := errStr[jsonStart-1:]
		braceCount := 0
		endPos := -1

		for i, ch := range jsonStr {
			if ch == '{' {
				braceCount++
			} else if ch == '}' {
				braceCount--
				if braceCount == 0 {
					endPos = i + 1
					break
				}
			}
		}

		if endPos > 0 {
			jsonStr = "{" + jsonStr[:endPos]

			var wrapper ErrorWrapper
			if err := json.Unmarshal([]byte(jsonStr), &wrapper); err == nil {
				if len(wrapper.Err.InstructionError) >= 2 {
					if customMap, ok := wrapper.Err.InstructionError[1].(map[string]interface{}); ok {
						if customVal, ok := customMap["Custom"]; ok {
							// Handle different JSON number types
							switch v := customVal.(type) {
							case float64:
								code := int(v)
								return &code
							case string:
								if code, err := strconv.Atoi(v); err == nil {
									return &code
								}
							}
						}
					}
				}
			}
		}
	}

	// Method 2: Regex patterns for "Custom": 6002
	patterns := []string{
		`"Custom":\s*(\d+)`,     // "Custom": 6002
		`"Custom":\s*"(\d+)"`,   // "Custom": "6002"
		`Custom:\s*(\d+)`,       // Custom: 6002
		`error code:\s*(\d+)`,   // error code: 6002
		`Error Number:\s*(\d+)`, // Error Number: 6002 (from Anchor logs)
	}

	for _, pattern := range patterns {
		if matches := regexp.MustCompile(pattern).FindStringSubmatch(errStr); len(matches) > 1 {
			if code, err := strconv.Atoi(matches[1]); err == nil {
				return &code
			}
		}
	}

	// Method 3: Hex format - custom program error: 0x1770
	if matches := regexp.MustCompile(`custom program error: 0x([0-9a-fA-F]+)`).FindStringSubmatch(errStr); len(matches) > 1 {
		if code, err := strconv.ParseInt(matches[1], 16, 64); err == nil {
			intCode := int(code)
			return &intCode
		}
	}

	return nil
}

// ParseProgramError extracts and formats error
func ParseProgramError(err error) string {
	if err == nil {
		return ""
	}

	errStr := err.Error()

	// Check for BlockhashNotFound (transaction expired)
	if strings.Contains(errStr, "BlockhashNotFound") ||
		strings.Contains(errStr, "Blockhash not found") {
		return "Transaction expired. The blockhash is no longer valid. Please create a new transaction and try again."
	}

	// Account already in use -> duplicate PDA (payment ID reuse, merchant re-init)
	if strings.Contains(errStr, "already in use") {
		return "Account already exists. The payment ID or merchant ID has already been settled."
	}

	// Try to get custom program error code
	if code := ExtractErrorCode(err); code != nil {
		if msg, ok := ProgramErrors[*code]; ok {
			return msg
		}
		return fmt.Sprintf("Custom program error code: %d", *code)
	}

	// Check for simulation failed
	if regexp.MustCompile(`simulation failed`).MatchString(errStr) {
		return "Transaction simulation failed. Check program logs for details."
	}

	// Token program insufficient funds (propagated verbatim, not a custom code)
	if regexp.MustCompile(`insufficient funds`).MatchString(errStr) {
		return "Insufficient token balance to cover the payment"
	}

	// Return truncated error
	if len(errStr) > 300 {
		return errStr[:300] + "..."
	}
	return errStr
}

// ExtractLogMessages extracts program logs from error
func ExtractLogMessages(err error) []string {
	if err == nil {
		return nil
	}

	errStr := err.Error()
	logs := []string{}

	// Pattern to extract "Program log: ..." messages
	// Handle both escaped and non-escaped strings
	patterns := []string{
		`Program log: ([^"\\n]+?)(?:"|\\n|$)`, // With quotes
		`Program log: ([^\n]+)`,               // Without quotes
	}

	for _, pattern := range patterns {
		matches := regexp.MustCompile(pattern).FindAllStringSubmatch(errStr, -1)
		for _, match := range matches {
			if len(match) > 1 {
				log := strings.TrimSpace(match[1])
				if log != "" && !contains(logs, log) {
					logs = append(logs, log)
				}
			}
		}
	}

	return logs
}

// Helper function to check if slice contains string
func contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}
