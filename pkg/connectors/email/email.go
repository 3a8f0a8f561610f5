// Package email implements the SMTP/IMAP connector. Its request specs
// use the protocol:// URL scheme instead of https://; the proxy routes
// them to the protocol adapter, which owns the actual mail sessions and
// their credentials. No vault key is carried on these specs — the
// adapter authenticates with the credentials it was constructed with.
package email

import (
	"github.com/wisbric/connectorplane/pkg/connector"
)

const (
	connectorID = "email"
	smtpURL     = "protocol://smtp"
	imapURL     = "protocol://imap"
)

type Connector struct {
	connector.Base
	manifest connector.ConnectorManifest
}

func New() *Connector {
	return &Connector{
		Base: connector.NewBase(),
		manifest: connector.ConnectorManifest{
			ID:          connectorID,
			Name:        "Email (SMTP/IMAP)",
			Version:     "1.0.0",
			Author:      "connectorplane",
			Source:      connector.SourceFirstParty,
			Description: "Sends mail over SMTP and reads/manages a mailbox over IMAP via the protocol adapter.",
			TargetDomains: []string{
				"protocol.smtp",
				"protocol.imap",
			},
			RequiredCredentials: []connector.CredentialSpec{
				{Name: "Mailbox password", Type: connector.CredentialConfig, VaultKey: "email.password", Required: true},
			},
			DataReads:     []string{"mailbox listings", "message bodies", "search results"},
			DataWrites:    []string{"sent mail", "deletions", "folder moves"},
			DoesNotAccess: []string{"other mailboxes on the same server"},
		},
	}
}

func (c *Connector) Manifest() *connector.ConnectorManifest { return &c.manifest }

func (c *Connector) ValidateCredentials() bool { return true }

func (c *Connector) Operations() []connector.ConnectorOperation {
	return []connector.ConnectorOperation{
		{ID: "send_email", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Send email", Description: "Sends a message over SMTP. Not reversible once accepted for delivery.",
			DefaultTier: connector.TierIrreversible, Idempotent: false, Reversible: false,
			Parameters: []connector.ParameterSpec{
				{Name: "to", Type: "str", Required: true},
				{Name: "subject", Type: "str", Required: true},
				{Name: "body", Type: "str", Required: true},
				{Name: "cc", Type: "str", Required: false},
				{Name: "mime_type", Type: "str", Required: false, Default: "text/plain"},
			}},
		{ID: "reply_email", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Reply to email", DefaultTier: connector.TierIrreversible, Idempotent: false, Reversible: false,
			Parameters: []connector.ParameterSpec{
				{Name: "to", Type: "str", Required: true},
				{Name: "subject", Type: "str", Required: true},
				{Name: "body", Type: "str", Required: true},
				{Name: "headers", Type: "dict", Required: false, Description: "In-Reply-To / References from the original"},
			}},
		{ID: "list_emails", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "List emails", DefaultTier: connector.TierReversible, Idempotent: true, Reversible: true,
			Parameters: []connector.ParameterSpec{
				{Name: "folder", Type: "str", Required: false, Default: "INBOX"},
				{Name: "max_results", Type: "int", Required: false, Default: 50},
			}},
		{ID: "fetch_email", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "Fetch email", DefaultTier: connector.TierReversible, Idempotent: true, Reversible: true,
			Parameters: []connector.ParameterSpec{{Name: "id", Type: "str", Required: true}}},
		{ID: "search_emails", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "Search emails", DefaultTier: connector.TierReversible, Idempotent: true, Reversible: true,
			Parameters: []connector.ParameterSpec{{Name: "query", Type: "str", Required: true}}},
		{ID: "delete_email", ConnectorID: connectorID, Capability: connector.CapabilityDelete,
			Name: "Delete email", DefaultTier: connector.TierIrreversible, Idempotent: true, Reversible: false,
			Parameters: []connector.ParameterSpec{{Name: "id", Type: "str", Required: true}}},
		{ID: "move_email", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Move email", DefaultTier: connector.TierControlled, Idempotent: false, Reversible: true,
			RollbackOperationID: "move_email",
			Parameters: []connector.ParameterSpec{
				{Name: "id", Type: "str", Required: true},
				{Name: "destination", Type: "str", Required: true},
			}},
	}
}

func (c *Connector) Execute(operationID string, params map[string]any) (*connector.ConnectorResult, error) {
	op := connector.OperationByID(c.Operations(), operationID)
	if op == nil {
		return nil, connector.NotFound(connectorID, operationID)
	}

	base := &connector.ConnectorResult{
		OperationID:    operationID,
		ConnectorID:    connectorID,
		Method:         connector.MethodPost,
		TimeoutSeconds: 30,
		Metadata:       map[string]string{"auth_type": "internal", "protocol_adapter": "true"},
	}

	switch operationID {
	case "send_email", "reply_email":
		to, err := connector.StringParam(params, "to", true)
		if err != nil {
			return nil, err
		}
		subject, err := connector.StringParam(params, "subject", true)
		if err != nil {
			return nil, err
		}
		body, err := connector.StringParam(params, "body", true)
		if err != nil {
			return nil, err
		}
		action := "send"
		if operationID == "reply_email" {
			action = "reply"
		}
		payload := map[string]any{
			"protocol":  "smtp",
			"action":    action,
			"to":        to,
			"subject":   subject,
			"body":      body,
			"mime_type": connector.OptionalString(params, "mime_type", "text/plain"),
		}
		if cc := connector.OptionalString(params, "cc", ""); cc != "" {
			payload["cc"] = cc
		}
		if headers, ok := params["headers"].(map[string]any); ok {
			payload["headers"] = headers
		}
		base.URL = smtpURL
		base.Body = connector.ProtocolBody(payload)

	case "list_emails":
		base.URL = imapURL
		base.Body = connector.ProtocolBody(map[string]any{
			"protocol":    "imap",
			"action":      "list",
			"folder":      connector.OptionalString(params, "folder", "INBOX"),
			"max_results": intParam(params, "max_results", 50),
		})

	case "fetch_email":
		id, err := connector.StringParam(params, "id", true)
		if err != nil {
			return nil, err
		}
		base.URL = imapURL
		base.Body = connector.ProtocolBody(map[string]any{
			"protocol": "imap", "action": "fetch", "id": id,
		})

	case "search_emails":
		query, err := connector.StringParam(params, "query", true)
		if err != nil {
			return nil, err
		}
		base.URL = imapURL
		base.Body = connector.ProtocolBody(map[string]any{
			"protocol": "imap", "action": "search", "query": query,
		})

	case "delete_email":
		id, err := connector.StringParam(params, "id", true)
		if err != nil {
			return nil, err
		}
		base.URL = imapURL
		base.Body = connector.ProtocolBody(map[string]any{
			"protocol": "imap", "action": "delete", "id": id,
		})

	case "move_email":
		id, err := connector.StringParam(params, "id", true)
		if err != nil {
			return nil, err
		}
		destination, err := connector.StringParam(params, "destination", true)
		if err != nil {
			return nil, err
		}
		base.URL = imapURL
		base.Body = connector.ProtocolBody(map[string]any{
			"protocol": "imap", "action": "move", "id": id, "destination": destination,
		})

	default:
		return nil, connector.NotFound(connectorID, operationID)
	}

	return base, nil
}

func intParam(params map[string]any, name string, def int) int {
	switch t := params[name].(type) {
	case int:
		return t
	case float64:
		return int(t)
	default:
		return def
	}
}
