// Package gmail implements the Gmail REST API connector. The send path
// assembles an RFC 2822 message and wraps it base64url, the wire format
// Gmail's messages endpoint requires.
package gmail

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/wisbric/connectorplane/pkg/connector"
)

const (
	connectorID = "gmail"
	apiBase     = "https://gmail.googleapis.com/gmail/v1"
	vaultKey    = "gmail.oauth_token"
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
			Name:        "Gmail",
			Version:     "1.0.0",
			Author:      "connectorplane",
			Source:      connector.SourceFirstParty,
			Description: "Reads, labels, and sends mail via the Gmail REST API.",
			TargetDomains: []string{
				"gmail.googleapis.com",
			},
			RequiredCredentials: []connector.CredentialSpec{
				{Name: "Gmail OAuth token", Type: connector.CredentialOAuthToken, VaultKey: vaultKey, Required: true,
					Scopes: []string{"https://www.googleapis.com/auth/gmail.modify"}},
			},
			DataReads:     []string{"message list", "message bodies", "labels"},
			DataWrites:    []string{"sent mail", "label changes", "deletions"},
			DoesNotAccess: []string{"account settings", "other users' mailboxes"},
		},
	}
}

func (c *Connector) Manifest() *connector.ConnectorManifest { return &c.manifest }

func (c *Connector) ValidateCredentials() bool { return true }

func (c *Connector) Operations() []connector.ConnectorOperation {
	return []connector.ConnectorOperation{
		// list_messages is deliberately T1, not T0: the listing exposes
		// subject lines and senders, which read as message content.
		{ID: "list_messages", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "List messages", DefaultTier: connector.TierReversible, Idempotent: true, Reversible: true,
			Parameters: []connector.ParameterSpec{
				{Name: "max_results", Type: "int", Required: false, Default: 25},
			}},
		{ID: "get_message", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "Get message", DefaultTier: connector.TierReversible, Idempotent: true, Reversible: true,
			Parameters: []connector.ParameterSpec{{Name: "message_id", Type: "str", Required: true}}},
		{ID: "search_messages", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "Search messages", DefaultTier: connector.TierReversible, Idempotent: true, Reversible: true,
			Parameters: []connector.ParameterSpec{{Name: "query", Type: "str", Required: true}}},
		{ID: "send_message", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Send message", Description: "Sends an email. Not reversible once accepted for delivery.",
			DefaultTier: connector.TierIrreversible, Idempotent: false, Reversible: false,
			Parameters: []connector.ParameterSpec{
				{Name: "to", Type: "str", Required: true},
				{Name: "subject", Type: "str", Required: true},
				{Name: "body", Type: "str", Required: true},
				{Name: "cc", Type: "str", Required: false},
			}},
		// move_to_folder only ADDS the target label; the prior label is
		// kept. Callers that need a true move must remove the source
		// label themselves.
		{ID: "move_to_folder", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Move to folder", Description: "Adds a label to a message. The existing labels are not removed.",
			DefaultTier: connector.TierControlled, Idempotent: true, Reversible: false,
			Parameters: []connector.ParameterSpec{
				{Name: "message_id", Type: "str", Required: true},
				{Name: "label_id", Type: "str", Required: true},
			}},
		{ID: "delete_message", ConnectorID: connectorID, Capability: connector.CapabilityDelete,
			Name: "Delete message", DefaultTier: connector.TierIrreversible, Idempotent: true, Reversible: false,
			Parameters: []connector.ParameterSpec{{Name: "message_id", Type: "str", Required: true}}},
		{ID: "list_labels", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "List labels", DefaultTier: connector.TierInert, Idempotent: true, Reversible: true},
	}
}

func (c *Connector) Execute(operationID string, params map[string]any) (*connector.ConnectorResult, error) {
	op := connector.OperationByID(c.Operations(), operationID)
	if op == nil {
		return nil, connector.NotFound(connectorID, operationID)
	}

	base := &connector.ConnectorResult{
		OperationID:        operationID,
		ConnectorID:        connectorID,
		CredentialVaultKey: vaultKey,
		TimeoutSeconds:     15,
		Metadata:           map[string]string{},
	}

	switch operationID {
	case "list_messages":
		base.Method = connector.MethodGet
		maxResults := 25
		switch v := params["max_results"].(type) {
		case int:
			maxResults = v
		case float64:
			maxResults = int(v)
		}
		base.URL = fmt.Sprintf("%s/users/me/messages?maxResults=%d", apiBase, maxResults)

	case "get_message":
		messageID, err := connector.StringParam(params, "message_id", true)
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodGet
		base.URL = fmt.Sprintf("%s/users/me/messages/%s", apiBase, messageID)

	case "search_messages":
		query, err := connector.StringParam(params, "query", true)
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodGet
		base.URL = fmt.Sprintf("%s/users/me/messages?q=%s", apiBase, url.QueryEscape(query))

	case "send_message":
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
		cc := connector.OptionalString(params, "cc", "")

		base.Method = connector.MethodPost
		base.URL = apiBase + "/users/me/messages"
		base.Body = connector.JSONBody(map[string]string{
			"raw": encodeRaw(to, cc, subject, body),
		})
		base.TimeoutSeconds = 30

	case "move_to_folder":
		messageID, err := connector.StringParam(params, "message_id", true)
		if err != nil {
			return nil, err
		}
		labelID, err := connector.StringParam(params, "label_id", true)
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodPost
		base.URL = fmt.Sprintf("%s/users/me/messages/%s/modify", apiBase, messageID)
		base.Body = connector.JSONBody(map[string]any{
			"addLabelIds": []string{labelID},
		})

	case "delete_message":
		messageID, err := connector.StringParam(params, "message_id", true)
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodPost
		base.URL = fmt.Sprintf("%s/users/me/messages/%s/trash", apiBase, messageID)
		base.Body = connector.JSONBody(map[string]any{})

	case "list_labels":
		base.Method = connector.MethodGet
		base.URL = apiBase + "/users/me/labels"

	default:
		return nil, connector.NotFound(connectorID, operationID)
	}

	return base, nil
}

// encodeRaw builds the RFC 2822 message and wraps it base64url, the
// shape Gmail's send endpoint requires in its "raw" field.
func encodeRaw(to, cc, subject, body string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "To: %s\r\n", to)
	if cc != "" {
		fmt.Fprintf(&sb, "Cc: %s\r\n", cc)
	}
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return base64.URLEncoding.EncodeToString([]byte(sb.String()))
}
