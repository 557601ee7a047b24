package connectors

import (
	"errors"
	"fmt"
)

// Upstream failure taxonomy. The polling loop matches on these to decide
// between retry-with-backoff and reject-all-trades behavior.
var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrOrderRejected       = errors.New("order rejected by broker")
	ErrNoQuote             = errors.New("no quote available")
)

// AlpacaErrorCodes maps Alpaca API error codes to their symbolic names.
var AlpacaErrorCodes = map[int]string{
	40010000: "INVALID_REQUEST",
	40110000: "UNAUTHORIZED",
	40310000: "INSUFFICIENT_BUYING_POWER",
	40310100: "ACCOUNT_TRADING_BLOCKED",
	40410000: "RESOURCE_NOT_FOUND",
	42210000: "UNPROCESSABLE_ORDER",
	42910000: "RATE_LIMIT_EXCEEDED",
	50010000: "INTERNAL_SERVER_ERROR",
}

// GetErrorMsg returns the symbolic name for an Alpaca error code, or a
// generic message for unknown codes.
func GetErrorMsg(code int) string {
	if msg, ok := AlpacaErrorCodes[code]; ok {
		return msg
	}
	return fmt.Sprintf("UNKNOWN_ALPACA_ERROR_%d", code)
}
