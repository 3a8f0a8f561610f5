package connector

// ConnectorResponse is what the proxy returns after attempting (or
// refusing) an outbound call. Construction never panics; every failure
// path, internal or transport, produces a well-formed value of this type.
type ConnectorResponse struct {
	OperationID string
	ConnectorID string
	StatusCode  int // 0 means transport failure before any HTTP exchange
	Headers     map[string]string
	Body        any // parsed JSON value, or raw string on parse failure
	ElapsedMS   int64
	Success     bool
	Error       string
	ErrorKind   Kind
	ReceiptID   string
}

// IsError reports whether the call should be treated as failed:
// not successful, or an HTTP status of 400 and above.
func (r *ConnectorResponse) IsError() bool {
	return !r.Success || r.StatusCode >= 400
}

// ErrorResponse builds a failure ConnectorResponse from a typed error.
func ErrorResponse(operationID, connectorID string, err *Error) *ConnectorResponse {
	return &ConnectorResponse{
		OperationID: operationID,
		ConnectorID: connectorID,
		StatusCode:  statusForKind(err.Kind),
		Success:     false,
		Error:       err.Error(),
		ErrorKind:   err.Kind,
	}
}

func statusForKind(k Kind) int {
	switch k {
	case KindRateLimited:
		return 429
	default:
		return 0
	}
}
