/**
 * @description
 * This package defines the stable numeric error classifications attached to
 * dispatch failures. The ranges distinguish client validation problems from
 * external API problems and internal ones, and drive the HTTP status mapping
 * performed at the API layer.
 */

package errcode

// Client validation errors (never reach the external API).
const (
	// ValidationInvalidRequest signals a malformed request body (JSON parsing error).
	ValidationInvalidRequest = 400

	// ValidationMissingParameter signals a missing required parameter or field.
	ValidationMissingParameter = 401

	// ValidationInvalidValue signals an invalid parameter value (e.g., a bad date format).
	ValidationInvalidValue = 402
)

// External API errors.
const (
	// APIError means the external API returned an error response.
	APIError = 500

	// APIConnectionFailed means the external API could not be reached at all.
	APIConnectionFailed = 501

	// APIParseError means the external API response could not be decoded.
	APIParseError = 502
)

// Internal errors.
const (
	// InternalSerialization means an outbound reply could not be encoded.
	InternalSerialization = 600

	// Internal means an unclassified internal processing error.
	Internal = 601
)

// ToHTTPStatus maps an error classification to the transport status code the
// API layer should answer with: client-class errors map to 400, external API
// errors to 502 (bad gateway), everything else to 500.
func ToHTTPStatus(code int) int {
	switch {
	case code >= 400 && code < 500:
		return 400
	case code >= 500 && code < 600:
		return 502
	default:
		return 500
	}
}
