// Package outlook implements the Outlook mail connector over the
// Microsoft Graph API, sharing Teams' auth shape with mail-specific
// resource paths.
package outlook

import (
	"fmt"
	"net/url"

	"github.com/wisbric/connectorplane/pkg/connector"
)

const (
	connectorID = "outlook"
	apiBase     = "https://graph.microsoft.com/v1.0"
	vaultKey    = "outlook.oauth_token"
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
			Name:        "Outlook",
			Version:     "1.0.0",
			Author:      "connectorplane",
			Source:      connector.SourceFirstParty,
			Description: "Reads, files, and sends mail via Microsoft Graph.",
			TargetDomains: []string{
				"graph.microsoft.com",
			},
			RequiredCredentials: []connector.CredentialSpec{
				{Name: "Graph OAuth token", Type: connector.CredentialOAuthToken, VaultKey: vaultKey, Required: true,
					Scopes: []string{"Mail.ReadWrite", "Mail.Send"}},
			},
			DataReads:     []string{"message list", "message bodies", "mail folders"},
			DataWrites:    []string{"sent mail", "drafts", "folder moves", "deletions"},
			DoesNotAccess: []string{"calendar", "contacts", "other mailboxes"},
		},
	}
}

func (c *Connector) Manifest() *connector.ConnectorManifest { return &c.manifest }

func (c *Connector) ValidateCredentials() bool { return true }

func (c *Connector) Operations() []connector.ConnectorOperation {
	return []connector.ConnectorOperation{
		{ID: "list_messages", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "List messages", DefaultTier: connector.TierReversible, Idempotent: true, Reversible: true,
			Parameters: []connector.ParameterSpec{{Name: "folder_id", Type: "str", Required: false}}},
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
			}},
		{ID: "move_message", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Move message", DefaultTier: connector.TierControlled, Idempotent: false, Reversible: true,
			RollbackOperationID: "move_message",
			Parameters: []connector.ParameterSpec{
				{Name: "message_id", Type: "str", Required: true},
				{Name: "destination_id", Type: "str", Required: true},
			}},
		{ID: "delete_message", ConnectorID: connectorID, Capability: connector.CapabilityDelete,
			Name: "Delete message", DefaultTier: connector.TierIrreversible, Idempotent: true, Reversible: false,
			Parameters: []connector.ParameterSpec{{Name: "message_id", Type: "str", Required: true}}},
		{ID: "list_folders", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "List mail folders", DefaultTier: connector.TierInert, Idempotent: true, Reversible: true},
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
		if folderID := connector.OptionalString(params, "folder_id", ""); folderID != "" {
			base.URL = fmt.Sprintf("%s/me/mailFolders/%s/messages", apiBase, folderID)
		} else {
			base.URL = apiBase + "/me/messages"
		}

	case "get_message":
		messageID, err := connector.StringParam(params, "message_id", true)
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodGet
		base.URL = fmt.Sprintf("%s/me/messages/%s", apiBase, messageID)

	case "search_messages":
		query, err := connector.StringParam(params, "query", true)
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodGet
		base.URL = fmt.Sprintf("%s/me/messages?$search=%s", apiBase, url.QueryEscape(`"`+query+`"`))

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
		base.Method = connector.MethodPost
		base.URL = apiBase + "/me/sendMail"
		base.Body = connector.JSONBody(map[string]any{
			"message": map[string]any{
				"subject": subject,
				"body":    map[string]string{"contentType": "Text", "content": body},
				"toRecipients": []map[string]any{
					{"emailAddress": map[string]string{"address": to}},
				},
			},
		})
		base.TimeoutSeconds = 30

	case "move_message":
		messageID, err := connector.StringParam(params, "message_id", true)
		if err != nil {
			return nil, err
		}
		destinationID, err := connector.StringParam(params, "destination_id", true)
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodPost
		base.URL = fmt.Sprintf("%s/me/messages/%s/move", apiBase, messageID)
		base.Body = connector.JSONBody(map[string]string{"destinationId": destinationID})

	case "delete_message":
		messageID, err := connector.StringParam(params, "message_id", true)
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodDelete
		base.URL = fmt.Sprintf("%s/me/messages/%s", apiBase, messageID)

	case "list_folders":
		base.Method = connector.MethodGet
		base.URL = apiBase + "/me/mailFolders"

	default:
		return nil, connector.NotFound(connectorID, operationID)
	}

	return base, nil
}
