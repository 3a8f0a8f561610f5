package protocoladapter

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/wisbric/connectorplane/pkg/connector"
)

// imapSession is a minimal IMAP4rev1 client covering only the command
// subset the adapter actions need: SELECT, SEARCH, FETCH, STORE, EXPUNGE, COPY,
// plus LOGIN/LOGOUT. There is no standard library IMAP client, and the
// pack carries no third-party one, so this talks the wire protocol
// directly over net.Conn / crypto/tls.
type imapSession struct {
	cfg     Config
	conn    net.Conn
	r       *bufio.Reader
	tagSeq  int
	selected string
}

func (a *Adapter) dispatchIMAP(action string, payload map[string]any) (any, error) {
	if a.imap == nil {
		a.imap = &imapSession{cfg: a.cfg}
	}
	if err := a.imap.ensureOpen(); err != nil {
		return nil, err
	}

	switch action {
	case "list":
		return a.imap.list(payload)
	case "fetch":
		return a.imap.fetch(payload)
	case "search":
		return a.imap.search(payload)
	case "delete":
		return a.imap.delete(payload)
	case "move":
		return a.imap.move(payload)
	default:
		return nil, connector.Newf(connector.KindProtocolActionUnknown, "unknown imap action %q", action)
	}
}

func (s *imapSession) ensureOpen() error {
	if s.conn != nil {
		return nil
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.IMAPHost, s.cfg.IMAPPort)
	var conn net.Conn
	var err error
	if s.cfg.IMAPUseTLS {
		conn, err = tls.Dial("tcp", addr, nil)
	} else {
		conn, err = net.Dial("tcp", addr)
	}
	if err != nil {
		return connector.Wrap(connector.KindTransportError, err, "imap dial %s", addr)
	}
	s.conn = conn
	s.r = bufio.NewReader(conn)

	// Greeting.
	if _, err := s.readLine(); err != nil {
		return connector.Wrap(connector.KindTransportError, err, "imap greeting")
	}

	if _, err := s.command("LOGIN %s %s", quoteIMAP(s.cfg.IMAPUsername), quoteIMAP(s.cfg.IMAPPassword)); err != nil {
		return connector.Wrap(connector.KindTransportError, err, "imap login")
	}
	return nil
}

func (s *imapSession) selectFolder(folder string) error {
	if folder == "" {
		folder = "INBOX"
	}
	if s.selected == folder {
		return nil
	}
	if _, err := s.command("SELECT %s", quoteIMAP(folder)); err != nil {
		return err
	}
	s.selected = folder
	return nil
}

func (s *imapSession) list(payload map[string]any) (any, error) {
	folder := stringOr(payload["folder"], "INBOX")
	if err := s.selectFolder(folder); err != nil {
		return nil, connector.Wrap(connector.KindTransportError, err, "imap list: select")
	}
	lines, err := s.command("SEARCH ALL")
	if err != nil {
		return nil, connector.Wrap(connector.KindTransportError, err, "imap list: search")
	}
	ids := parseSearchIDs(lines)

	maxResults := intOr(payload["max_results"], 50)
	total := len(ids)
	if len(ids) > maxResults {
		ids = ids[len(ids)-maxResults:]
	}
	return map[string]any{"ids": ids, "total": total}, nil
}

func (s *imapSession) fetch(payload map[string]any) (any, error) {
	if err := s.selectFolder("INBOX"); err != nil {
		return nil, connector.Wrap(connector.KindTransportError, err, "imap fetch: select")
	}
	id := stringOr(payload["id"], "")
	if id == "" {
		return nil, connector.Newf(connector.KindInvalidRequestSpec, "imap fetch: \"id\" is required")
	}
	lines, err := s.command("FETCH %s (RFC822)", id)
	if err != nil {
		return nil, connector.Wrap(connector.KindTransportError, err, "imap fetch")
	}
	return map[string]any{"id": id, "raw": strings.Join(lines, "\n")}, nil
}

func (s *imapSession) search(payload map[string]any) (any, error) {
	if err := s.selectFolder("INBOX"); err != nil {
		return nil, connector.Wrap(connector.KindTransportError, err, "imap search: select")
	}
	query := stringOr(payload["query"], "")
	lines, err := s.command("SEARCH SUBJECT %s", quoteIMAP(query))
	if err != nil {
		return nil, connector.Wrap(connector.KindTransportError, err, "imap search")
	}
	return map[string]any{"ids": parseSearchIDs(lines)}, nil
}

func (s *imapSession) delete(payload map[string]any) (any, error) {
	if err := s.selectFolder("INBOX"); err != nil {
		return nil, connector.Wrap(connector.KindTransportError, err, "imap delete: select")
	}
	id := stringOr(payload["id"], "")
	if id == "" {
		return nil, connector.Newf(connector.KindInvalidRequestSpec, "imap delete: \"id\" is required")
	}
	if _, err := s.command("STORE %s +FLAGS (\\Deleted)", id); err != nil {
		return nil, connector.Wrap(connector.KindTransportError, err, "imap delete: store")
	}
	if _, err := s.command("EXPUNGE"); err != nil {
		return nil, connector.Wrap(connector.KindTransportError, err, "imap delete: expunge")
	}
	return map[string]any{"id": id, "status": "deleted"}, nil
}

func (s *imapSession) move(payload map[string]any) (any, error) {
	if err := s.selectFolder("INBOX"); err != nil {
		return nil, connector.Wrap(connector.KindTransportError, err, "imap move: select")
	}
	id := stringOr(payload["id"], "")
	dest := stringOr(payload["destination"], "")
	if id == "" || dest == "" {
		return nil, connector.Newf(connector.KindInvalidRequestSpec, "imap move: \"id\" and \"destination\" are required")
	}
	// Partial failure here (COPY succeeds, STORE fails) is not rolled
	// back; the message then exists in both folders until an operator
	// intervenes.
	if _, err := s.command("COPY %s %s", id, quoteIMAP(dest)); err != nil {
		return nil, connector.Wrap(connector.KindTransportError, err, "imap move: copy")
	}
	if _, err := s.command("STORE %s +FLAGS (\\Deleted)", id); err != nil {
		return nil, connector.Wrap(connector.KindTransportError, err, "imap move: store")
	}
	if _, err := s.command("EXPUNGE"); err != nil {
		return nil, connector.Wrap(connector.KindTransportError, err, "imap move: expunge")
	}
	return map[string]any{"id": id, "destination": dest, "status": "moved"}, nil
}

// command sends one tagged command and reads lines until the tagged
// completion response, returning the untagged response lines.
func (s *imapSession) command(format string, args ...any) ([]string, error) {
	s.tagSeq++
	tag := fmt.Sprintf("A%04d", s.tagSeq)
	line := fmt.Sprintf(format, args...)
	if _, err := fmt.Fprintf(s.conn, "%s %s\r\n", tag, line); err != nil {
		return nil, err
	}

	var untagged []string
	for {
		l, err := s.readLine()
		if err != nil {
			return untagged, err
		}
		if strings.HasPrefix(l, tag+" ") {
			status := strings.Fields(strings.TrimPrefix(l, tag+" "))
			if len(status) > 0 && !strings.EqualFold(status[0], "OK") {
				return untagged, fmt.Errorf("imap command %q failed: %s", line, l)
			}
			return untagged, nil
		}
		untagged = append(untagged, l)
	}
}

func (s *imapSession) readLine() (string, error) {
	line, err := s.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// close logs out of the IMAP session. Safe to call multiple times.
func (s *imapSession) close() {
	if s.conn == nil {
		return
	}
	_, _ = s.command("LOGOUT")
	s.conn.Close()
	s.conn = nil
}

func parseSearchIDs(lines []string) []int {
	var ids []int
	for _, l := range lines {
		if !strings.HasPrefix(strings.ToUpper(l), "* SEARCH") {
			continue
		}
		for _, f := range strings.Fields(l)[2:] {
			if n, err := strconv.Atoi(f); err == nil {
				ids = append(ids, n)
			}
		}
	}
	return ids
}

func quoteIMAP(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}

func intOr(v any, def int) int {
	switch t := v.(type) {
	case int:
		return t
	case float64:
		return int(t)
	default:
		return def
	}
}
