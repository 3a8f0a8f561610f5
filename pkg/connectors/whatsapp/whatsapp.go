// Package whatsapp implements the WhatsApp Business Cloud API connector.
// Grounded on pkg/connectors/discord for the declarative request-spec
// shape, adapted to Meta's Graph conventions. Free-form sends outside
// the 24-hour customer service window are rejected by the platform; the
// requires_template_outside_window metadata flag surfaces that to the
// governance layer.
package whatsapp

import (
	"fmt"

	"github.com/wisbric/connectorplane/pkg/connector"
)

const (
	connectorID = "whatsapp"
	apiBase     = "https://graph.facebook.com/v19.0"
	vaultKey    = "whatsapp.access_token"
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
			Name:        "WhatsApp Business",
			Version:     "1.0.0",
			Author:      "connectorplane",
			Source:      connector.SourceFirstParty,
			Description: "Sends messages and manages the business profile via the WhatsApp Cloud API.",
			TargetDomains: []string{
				"graph.facebook.com",
			},
			RequiredCredentials: []connector.CredentialSpec{
				{Name: "Cloud API access token", Type: connector.CredentialOAuthToken, VaultKey: vaultKey, Required: true},
			},
			DataReads:     []string{"business profile", "message templates", "media"},
			DataWrites:    []string{"outbound messages", "read receipts", "business profile"},
			DoesNotAccess: []string{"end-user contact lists", "message history"},
		},
	}
}

func (c *Connector) Manifest() *connector.ConnectorManifest { return &c.manifest }

func (c *Connector) ValidateCredentials() bool { return true }

func (c *Connector) Operations() []connector.ConnectorOperation {
	return []connector.ConnectorOperation{
		{ID: "send_text_message", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Send text message", Description: "Sends a free-form text message. Requires an open service window.",
			DefaultTier: connector.TierIrreversible, Idempotent: false, Reversible: false,
			Parameters: []connector.ParameterSpec{
				{Name: "phone_number_id", Type: "str", Required: true},
				{Name: "to", Type: "str", Required: true},
				{Name: "text", Type: "str", Required: true},
			}},
		// Template sends are T2, not T3: the template body is
		// pre-approved by Meta, so content risk is bounded.
		{ID: "send_template_message", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Send template message", DefaultTier: connector.TierControlled, Idempotent: false, Reversible: false,
			Parameters: []connector.ParameterSpec{
				{Name: "phone_number_id", Type: "str", Required: true},
				{Name: "to", Type: "str", Required: true},
				{Name: "template_name", Type: "str", Required: true},
				{Name: "language_code", Type: "str", Required: false, Default: "en_US"},
			}},
		{ID: "send_media_message", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Send media message", DefaultTier: connector.TierIrreversible, Idempotent: false, Reversible: false,
			Parameters: []connector.ParameterSpec{
				{Name: "phone_number_id", Type: "str", Required: true},
				{Name: "to", Type: "str", Required: true},
				{Name: "media_type", Type: "str", Required: true, Description: "image, document, audio, or video"},
				{Name: "media_id", Type: "str", Required: true},
			}},
		{ID: "mark_as_read", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Mark message as read", DefaultTier: connector.TierControlled, Idempotent: true, Reversible: false,
			Parameters: []connector.ParameterSpec{
				{Name: "phone_number_id", Type: "str", Required: true},
				{Name: "message_id", Type: "str", Required: true},
			}},
		{ID: "get_business_profile", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "Get business profile", DefaultTier: connector.TierInert, Idempotent: true, Reversible: true,
			Parameters: []connector.ParameterSpec{{Name: "phone_number_id", Type: "str", Required: true}}},
		{ID: "update_business_profile", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Update business profile", DefaultTier: connector.TierControlled, Idempotent: true, Reversible: true,
			RollbackOperationID: "update_business_profile",
			Parameters: []connector.ParameterSpec{
				{Name: "phone_number_id", Type: "str", Required: true},
				{Name: "about", Type: "str", Required: false},
				{Name: "description", Type: "str", Required: false},
			}},
		{ID: "list_templates", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "List message templates", DefaultTier: connector.TierInert, Idempotent: true, Reversible: true,
			Parameters: []connector.ParameterSpec{{Name: "business_account_id", Type: "str", Required: true}}},
		{ID: "get_media", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "Get media", DefaultTier: connector.TierReversible, Idempotent: true, Reversible: true,
			Parameters: []connector.ParameterSpec{{Name: "media_id", Type: "str", Required: true}}},
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

	str := func(name string) (string, error) { return connector.StringParam(params, name, true) }

	switch operationID {
	case "send_text_message":
		phoneNumberID, err := str("phone_number_id")
		if err != nil {
			return nil, err
		}
		to, err := str("to")
		if err != nil {
			return nil, err
		}
		text, err := str("text")
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodPost
		base.URL = fmt.Sprintf("%s/%s/messages", apiBase, phoneNumberID)
		base.Body = connector.JSONBody(map[string]any{
			"messaging_product": "whatsapp",
			"to":                to,
			"type":              "text",
			"text":              map[string]string{"body": text},
		})
		base.Metadata["requires_template_outside_window"] = "true"

	case "send_template_message":
		phoneNumberID, err := str("phone_number_id")
		if err != nil {
			return nil, err
		}
		to, err := str("to")
		if err != nil {
			return nil, err
		}
		templateName, err := str("template_name")
		if err != nil {
			return nil, err
		}
		languageCode := connector.OptionalString(params, "language_code", "en_US")
		base.Method = connector.MethodPost
		base.URL = fmt.Sprintf("%s/%s/messages", apiBase, phoneNumberID)
		base.Body = connector.JSONBody(map[string]any{
			"messaging_product": "whatsapp",
			"to":                to,
			"type":              "template",
			"template": map[string]any{
				"name":     templateName,
				"language": map[string]string{"code": languageCode},
			},
		})

	case "send_media_message":
		phoneNumberID, err := str("phone_number_id")
		if err != nil {
			return nil, err
		}
		to, err := str("to")
		if err != nil {
			return nil, err
		}
		mediaType, err := connector.RequireOneOf(params, "media_type", "image", "document", "audio", "video")
		if err != nil {
			return nil, err
		}
		mediaID, err := str("media_id")
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodPost
		base.URL = fmt.Sprintf("%s/%s/messages", apiBase, phoneNumberID)
		base.Body = connector.JSONBody(map[string]any{
			"messaging_product": "whatsapp",
			"to":                to,
			"type":              mediaType,
			mediaType:           map[string]string{"id": mediaID},
		})
		base.Metadata["requires_template_outside_window"] = "true"

	case "mark_as_read":
		phoneNumberID, err := str("phone_number_id")
		if err != nil {
			return nil, err
		}
		messageID, err := str("message_id")
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodPost
		base.URL = fmt.Sprintf("%s/%s/messages", apiBase, phoneNumberID)
		base.Body = connector.JSONBody(map[string]any{
			"messaging_product": "whatsapp",
			"status":            "read",
			"message_id":        messageID,
		})

	case "get_business_profile":
		phoneNumberID, err := str("phone_number_id")
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodGet
		base.URL = fmt.Sprintf("%s/%s/whatsapp_business_profile", apiBase, phoneNumberID)

	case "update_business_profile":
		phoneNumberID, err := str("phone_number_id")
		if err != nil {
			return nil, err
		}
		body := map[string]any{"messaging_product": "whatsapp"}
		if about := connector.OptionalString(params, "about", ""); about != "" {
			body["about"] = about
		}
		if desc := connector.OptionalString(params, "description", ""); desc != "" {
			body["description"] = desc
		}
		base.Method = connector.MethodPost
		base.URL = fmt.Sprintf("%s/%s/whatsapp_business_profile", apiBase, phoneNumberID)
		base.Body = connector.JSONBody(body)

	case "list_templates":
		businessAccountID, err := str("business_account_id")
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodGet
		base.URL = fmt.Sprintf("%s/%s/message_templates", apiBase, businessAccountID)

	case "get_media":
		mediaID, err := str("media_id")
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodGet
		base.URL = fmt.Sprintf("%s/%s", apiBase, mediaID)

	default:
		return nil, connector.NotFound(connectorID, operationID)
	}

	return base, nil
}
