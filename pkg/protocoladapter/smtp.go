package protocoladapter

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/wisbric/connectorplane/pkg/connector"
)

type smtpSession struct {
	cfg    Config
	client *smtp.Client
}

func (a *Adapter) dispatchSMTP(action string, payload map[string]any) (any, error) {
	switch action {
	case "send", "reply":
	default:
		return nil, connector.Newf(connector.KindProtocolActionUnknown, "unknown smtp action %q", action)
	}

	if a.smtp == nil {
		a.smtp = &smtpSession{cfg: a.cfg}
	}
	if err := a.smtp.ensureOpen(); err != nil {
		return nil, err
	}

	msg, err := buildMIMEMessage(action, payload)
	if err != nil {
		return nil, err
	}

	to := stringSlice(payload["to"])
	if len(to) == 0 {
		return nil, connector.Newf(connector.KindInvalidRequestSpec, "smtp %s: \"to\" must not be empty", action)
	}

	if err := a.smtp.send(a.cfg.SMTPUsername, to, msg); err != nil {
		return nil, connector.Wrap(connector.KindTransportError, err, "smtp %s failed", action)
	}
	return map[string]any{"status": "sent", "to": to}, nil
}

func buildMIMEMessage(action string, payload map[string]any) ([]byte, error) {
	to := stringSlice(payload["to"])
	cc := stringSlice(payload["cc"])
	subject, _ := payload["subject"].(string)
	body, _ := payload["body"].(string)
	mimeType, _ := payload["mime_type"].(string)
	if mimeType == "" {
		mimeType = "text/plain; charset=\"UTF-8\""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	if len(cc) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", strings.Join(cc, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)

	if action == "reply" {
		if headers, ok := payload["headers"].(map[string]any); ok {
			if v, ok := headers["In-Reply-To"].(string); ok && v != "" {
				fmt.Fprintf(&b, "In-Reply-To: %s\r\n", v)
			}
			if v, ok := headers["References"].(string); ok && v != "" {
				fmt.Fprintf(&b, "References: %s\r\n", v)
			}
		}
	}

	fmt.Fprintf(&b, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s\r\n\r\n", mimeType)
	b.WriteString(body)
	return []byte(b.String()), nil
}

func stringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	default:
		return nil
	}
}

func (s *smtpSession) ensureOpen() error {
	if s.client != nil {
		return nil
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	c, err := smtp.Dial(addr)
	if err != nil {
		return connector.Wrap(connector.KindTransportError, err, "smtp dial %s", addr)
	}
	if s.cfg.SMTPUseTLS {
		if err := c.StartTLS(nil); err != nil {
			c.Close()
			return connector.Wrap(connector.KindTransportError, err, "smtp starttls %s", addr)
		}
	}
	if s.cfg.SMTPUsername != "" {
		auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
		if err := c.Auth(auth); err != nil {
			c.Close()
			return connector.Wrap(connector.KindTransportError, err, "smtp auth")
		}
	}
	s.client = c
	return nil
}

func (s *smtpSession) send(from string, to []string, msg []byte) error {
	if err := s.client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := s.client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := s.client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// close quits the SMTP session. Safe to call multiple times.
func (s *smtpSession) close() {
	if s.client == nil {
		return
	}
	_ = s.client.Quit()
	s.client = nil
}
