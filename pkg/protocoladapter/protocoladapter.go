// Package protocoladapter bridges non-HTTP ConnectorResults (URLs using
// the protocol:// scheme) to the SMTP and IMAP wire protocols. The
// adapter is a long-lived collaborator of the proxy: connections open
// lazily on first use, are reused across operations, and close
// idempotently.
package protocoladapter

import (
	"fmt"
	"strings"
	"time"

	"github.com/wisbric/connectorplane/pkg/connector"
)

// Config configures the adapter's SMTP and IMAP endpoints and
// credentials. Both are optional; an adapter only needs the endpoint its
// connectors actually dispatch to.
type Config struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUseTLS   bool
	SMTPUsername string
	SMTPPassword string

	IMAPHost     string
	IMAPPort     int
	IMAPUseTLS   bool
	IMAPUsername string
	IMAPPassword string
}

// Adapter is the long-lived collaborator the proxy delegates protocol://
// requests to. It owns at most one SMTP and one IMAP session, opened
// lazily on first use.
type Adapter struct {
	cfg  Config
	smtp *smtpSession
	imap *imapSession
}

// New constructs an Adapter. No network connection is made until the
// first Dispatch call that needs it.
func New(cfg Config) *Adapter {
	return &Adapter{cfg: cfg}
}

// Close quits the SMTP session and logs out of IMAP, if either is open.
// Safe to call multiple times and safe to call when nothing was ever
// opened.
func (a *Adapter) Close() {
	if a.smtp != nil {
		a.smtp.close()
	}
	if a.imap != nil {
		a.imap.close()
	}
}

// Dispatch executes a protocol:// ConnectorResult and returns the
// ConnectorResponse. Any failure — connection, protocol, or action
// lookup — surfaces as status_code=0, success=false with elapsed_ms
// populated, never a panic.
func (a *Adapter) Dispatch(result *connector.ConnectorResult) *connector.ConnectorResponse {
	start := time.Now()
	resp := &connector.ConnectorResponse{
		OperationID: result.OperationID,
		ConnectorID: result.ConnectorID,
	}

	scheme, ok := protocolScheme(result.URL)
	if !ok {
		resp.Error = fmt.Sprintf("unrecognized protocol URL %q", result.URL)
		resp.ElapsedMS = time.Since(start).Milliseconds()
		return resp
	}

	if result.Body.Kind != connector.BodyProtocol {
		resp.Error = "protocol request must carry a protocol body"
		resp.ElapsedMS = time.Since(start).Milliseconds()
		return resp
	}
	action, _ := result.Body.Protocol["action"].(string)
	if action == "" {
		resp.Error = "protocol request body missing \"action\""
		resp.ElapsedMS = time.Since(start).Milliseconds()
		return resp
	}

	var body any
	var err error
	switch scheme {
	case "smtp":
		body, err = a.dispatchSMTP(action, result.Body.Protocol)
	case "imap":
		body, err = a.dispatchIMAP(action, result.Body.Protocol)
	default:
		err = connector.Newf(connector.KindProtocolActionUnknown, "unsupported protocol scheme %q", scheme)
	}

	resp.ElapsedMS = time.Since(start).Milliseconds()
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	resp.Success = true
	resp.StatusCode = 200
	resp.Body = body
	return resp
}

func protocolScheme(url string) (string, bool) {
	const prefix = "protocol://"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(url, prefix)
	scheme, _, _ := strings.Cut(rest, "/")
	if scheme == "" {
		return "", false
	}
	return scheme, true
}
