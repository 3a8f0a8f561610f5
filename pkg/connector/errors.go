package connector

import "fmt"

// Kind is a programmatic error category, distinct from the error string,
// so callers can branch on failure class without substring matching.
type Kind string

const (
	KindInvalidManifest     Kind = "invalid_manifest"
	KindInvalidOperation    Kind = "invalid_operation"
	KindInvalidRequestSpec  Kind = "invalid_request_spec"
	KindConnectorNotFound   Kind = "connector_not_found"
	KindOperationNotFound   Kind = "operation_not_found"
	KindFeatureDisabled     Kind = "feature_disabled"
	KindRateLimited         Kind = "rate_limited"
	KindDomainNotAllowed    Kind = "domain_not_allowed"
	KindKeyNotFound         Kind = "key_not_found"
	KindPermissionDenied    Kind = "permission_denied"
	KindOAuthSigningError   Kind = "oauth_signing_error"
	KindTransportError      Kind = "transport_error"
	KindProtocolActionUnknown Kind = "protocol_action_unknown"
	KindPolicyDenied        Kind = "policy_denied"
)

// Error is the typed error wrapper used across the connector plane.
// Error() returns a message safe to surface to callers and logs; callers
// that need the kind must use errors.As, not string matching.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Newf builds an *Error with a formatted message and no cause.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error carrying an underlying cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}
