// Package telegram implements the Telegram Bot API connector. Telegram
// authenticates by embedding the bot token in the URL path; every
// request spec here carries the literal {token} placeholder and the
// url_token auth type, and the proxy substitutes the real secret after
// domain validation. The token never appears in a request built by this
// package.
package telegram

import (
	"fmt"

	"github.com/wisbric/connectorplane/pkg/connector"
)

const (
	connectorID = "telegram"
	apiBase     = "https://api.telegram.org/bot{token}"
	vaultKey    = "telegram.bot_token"
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
			Name:        "Telegram",
			Version:     "1.0.0",
			Author:      "connectorplane",
			Source:      connector.SourceFirstParty,
			Description: "Sends and manages bot messages via the Telegram Bot API.",
			TargetDomains: []string{
				"api.telegram.org",
			},
			RequiredCredentials: []connector.CredentialSpec{
				{Name: "Bot token", Type: connector.CredentialAPIKey, VaultKey: vaultKey, Required: true},
			},
			DataReads:     []string{"chat metadata", "bot updates"},
			DataWrites:    []string{"sent messages", "edits", "pins", "deletions"},
			DoesNotAccess: []string{"other bots", "user phone numbers"},
		},
	}
}

func (c *Connector) Manifest() *connector.ConnectorManifest { return &c.manifest }

func (c *Connector) ValidateCredentials() bool { return true }

func (c *Connector) Operations() []connector.ConnectorOperation {
	return []connector.ConnectorOperation{
		// send_message is T1, not T2: Telegram messages are fully
		// removable via delete_message, so the action stays reversible.
		{ID: "send_message", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Send message", DefaultTier: connector.TierReversible, Idempotent: false, Reversible: true,
			RollbackOperationID: "delete_message",
			Parameters: []connector.ParameterSpec{
				{Name: "chat_id", Type: "str", Required: true},
				{Name: "text", Type: "str", Required: true},
			}},
		{ID: "edit_message", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Edit message", DefaultTier: connector.TierControlled, Idempotent: true, Reversible: true,
			RollbackOperationID: "edit_message",
			Parameters: []connector.ParameterSpec{
				{Name: "chat_id", Type: "str", Required: true},
				{Name: "message_id", Type: "str", Required: true},
				{Name: "text", Type: "str", Required: true},
			}},
		{ID: "delete_message", ConnectorID: connectorID, Capability: connector.CapabilityDelete,
			Name: "Delete message", DefaultTier: connector.TierControlled, Idempotent: true, Reversible: false,
			Parameters: []connector.ParameterSpec{
				{Name: "chat_id", Type: "str", Required: true},
				{Name: "message_id", Type: "str", Required: true},
			}},
		{ID: "send_photo", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Send photo", DefaultTier: connector.TierControlled, Idempotent: false, Reversible: true,
			RollbackOperationID: "delete_message",
			Parameters: []connector.ParameterSpec{
				{Name: "chat_id", Type: "str", Required: true},
				{Name: "photo_url", Type: "str", Required: true},
				{Name: "caption", Type: "str", Required: false},
			}},
		{ID: "pin_message", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Pin message", DefaultTier: connector.TierControlled, Idempotent: true, Reversible: true,
			RollbackOperationID: "unpin_message",
			Parameters: []connector.ParameterSpec{
				{Name: "chat_id", Type: "str", Required: true},
				{Name: "message_id", Type: "str", Required: true},
			}},
		{ID: "unpin_message", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Unpin message", DefaultTier: connector.TierControlled, Idempotent: true, Reversible: false,
			Parameters: []connector.ParameterSpec{
				{Name: "chat_id", Type: "str", Required: true},
				{Name: "message_id", Type: "str", Required: true},
			}},
		{ID: "get_chat", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "Get chat", DefaultTier: connector.TierInert, Idempotent: true, Reversible: true,
			Parameters: []connector.ParameterSpec{{Name: "chat_id", Type: "str", Required: true}}},
		{ID: "get_updates", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "Get updates", DefaultTier: connector.TierReversible, Idempotent: true, Reversible: true},
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
		Metadata:           map[string]string{"auth_type": "url_token"},
	}

	str := func(name string) (string, error) { return connector.StringParam(params, name, true) }

	switch operationID {
	case "send_message":
		chatID, err := str("chat_id")
		if err != nil {
			return nil, err
		}
		text, err := str("text")
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodPost
		base.URL = apiBase + "/sendMessage"
		base.Body = connector.JSONBody(map[string]string{"chat_id": chatID, "text": text})

	case "edit_message":
		chatID, err := str("chat_id")
		if err != nil {
			return nil, err
		}
		messageID, err := str("message_id")
		if err != nil {
			return nil, err
		}
		text, err := str("text")
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodPost
		base.URL = apiBase + "/editMessageText"
		base.Body = connector.JSONBody(map[string]string{
			"chat_id": chatID, "message_id": messageID, "text": text,
		})

	case "delete_message":
		chatID, err := str("chat_id")
		if err != nil {
			return nil, err
		}
		messageID, err := str("message_id")
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodPost
		base.URL = apiBase + "/deleteMessage"
		base.Body = connector.JSONBody(map[string]string{"chat_id": chatID, "message_id": messageID})

	case "send_photo":
		chatID, err := str("chat_id")
		if err != nil {
			return nil, err
		}
		photoURL, err := str("photo_url")
		if err != nil {
			return nil, err
		}
		body := map[string]string{"chat_id": chatID, "photo": photoURL}
		if caption := connector.OptionalString(params, "caption", ""); caption != "" {
			body["caption"] = caption
		}
		base.Method = connector.MethodPost
		base.URL = apiBase + "/sendPhoto"
		base.Body = connector.JSONBody(body)

	case "pin_message", "unpin_message":
		chatID, err := str("chat_id")
		if err != nil {
			return nil, err
		}
		messageID, err := str("message_id")
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodPost
		if operationID == "pin_message" {
			base.URL = apiBase + "/pinChatMessage"
		} else {
			base.URL = apiBase + "/unpinChatMessage"
		}
		base.Body = connector.JSONBody(map[string]string{"chat_id": chatID, "message_id": messageID})

	case "get_chat":
		chatID, err := str("chat_id")
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodGet
		base.URL = fmt.Sprintf("%s/getChat?chat_id=%s", apiBase, chatID)

	case "get_updates":
		base.Method = connector.MethodGet
		base.URL = apiBase + "/getUpdates"

	default:
		return nil, connector.NotFound(connectorID, operationID)
	}

	return base, nil
}
