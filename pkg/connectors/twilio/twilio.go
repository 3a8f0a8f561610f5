// Package twilio implements the Twilio SMS connector. Twilio's REST API
// takes form-encoded bodies and HTTP basic auth composed from the
// account SID and auth token; request specs here carry the encoded form
// string and the basic_auth_composed auth type so the proxy assembles
// the Authorization header from the two vault entries.
package twilio

import (
	"fmt"
	"net/url"

	"github.com/wisbric/connectorplane/pkg/connector"
)

const (
	connectorID     = "twilio"
	apiBase         = "https://api.twilio.com/2010-04-01"
	authTokenKey    = "twilio.auth_token"
	accountSidKey   = "twilio.account_sid"
	formContentType = "application/x-www-form-urlencoded"
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
			Name:        "Twilio SMS",
			Version:     "1.0.0",
			Author:      "connectorplane",
			Source:      connector.SourceFirstParty,
			Description: "Sends SMS/MMS and reads message records via the Twilio REST API.",
			TargetDomains: []string{
				"api.twilio.com",
			},
			RequiredCredentials: []connector.CredentialSpec{
				{Name: "Account SID", Type: connector.CredentialConfig, VaultKey: accountSidKey, Required: true},
				{Name: "Auth token", Type: connector.CredentialBasicAuth, VaultKey: authTokenKey, Required: true},
			},
			DataReads:     []string{"message records", "phone number metadata"},
			DataWrites:    []string{"outbound SMS", "outbound MMS", "record deletions"},
			DoesNotAccess: []string{"voice calls", "account billing settings"},
		},
	}
}

func (c *Connector) Manifest() *connector.ConnectorManifest { return &c.manifest }

func (c *Connector) ValidateCredentials() bool { return true }

func (c *Connector) Operations() []connector.ConnectorOperation {
	return []connector.ConnectorOperation{
		{ID: "send_sms", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Send SMS", Description: "Sends a text message. Billable and not reversible once queued.",
			DefaultTier: connector.TierIrreversible, Idempotent: false, Reversible: false,
			Parameters: []connector.ParameterSpec{
				{Name: "account_sid", Type: "str", Required: true},
				{Name: "to", Type: "str", Required: true},
				{Name: "body", Type: "str", Required: true},
				{Name: "from", Type: "str", Required: false},
				{Name: "messaging_service_sid", Type: "str", Required: false},
			}},
		{ID: "send_mms", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Send MMS", DefaultTier: connector.TierIrreversible, Idempotent: false, Reversible: false,
			Parameters: []connector.ParameterSpec{
				{Name: "account_sid", Type: "str", Required: true},
				{Name: "to", Type: "str", Required: true},
				{Name: "body", Type: "str", Required: true},
				{Name: "media_url", Type: "str", Required: true},
				{Name: "from", Type: "str", Required: false},
				{Name: "messaging_service_sid", Type: "str", Required: false},
			}},
		{ID: "list_messages", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "List messages", DefaultTier: connector.TierReversible, Idempotent: true, Reversible: true,
			Parameters: []connector.ParameterSpec{{Name: "account_sid", Type: "str", Required: true}}},
		{ID: "get_message", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "Get message", DefaultTier: connector.TierReversible, Idempotent: true, Reversible: true,
			Parameters: []connector.ParameterSpec{
				{Name: "account_sid", Type: "str", Required: true},
				{Name: "message_sid", Type: "str", Required: true},
			}},
		{ID: "delete_message_record", ConnectorID: connectorID, Capability: connector.CapabilityDelete,
			Name: "Delete message record", DefaultTier: connector.TierIrreversible, Idempotent: true, Reversible: false,
			Parameters: []connector.ParameterSpec{
				{Name: "account_sid", Type: "str", Required: true},
				{Name: "message_sid", Type: "str", Required: true},
			}},
		{ID: "lookup_number", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "Look up phone number", DefaultTier: connector.TierInert, Idempotent: true, Reversible: true,
			Parameters: []connector.ParameterSpec{
				{Name: "account_sid", Type: "str", Required: true},
				{Name: "phone_number", Type: "str", Required: true},
			}},
	}
}

func (c *Connector) Execute(operationID string, params map[string]any) (*connector.ConnectorResult, error) {
	op := connector.OperationByID(c.Operations(), operationID)
	if op == nil {
		return nil, connector.NotFound(connectorID, operationID)
	}

	accountSid, err := connector.StringParam(params, "account_sid", true)
	if err != nil {
		return nil, err
	}

	base := &connector.ConnectorResult{
		OperationID:        operationID,
		ConnectorID:        connectorID,
		CredentialVaultKey: authTokenKey,
		TimeoutSeconds:     15,
		Headers:            map[string]string{},
		Metadata: map[string]string{
			"auth_type":               "basic_auth_composed",
			"basic_auth_username_key": accountSidKey,
			"billable":                "true",
		},
	}

	switch operationID {
	case "send_sms", "send_mms":
		to, err := connector.StringParam(params, "to", true)
		if err != nil {
			return nil, err
		}
		body, err := connector.StringParam(params, "body", true)
		if err != nil {
			return nil, err
		}
		from := connector.OptionalString(params, "from", "")
		serviceSid := connector.OptionalString(params, "messaging_service_sid", "")
		if (from == "") == (serviceSid == "") {
			return nil, connector.Newf(connector.KindInvalidRequestSpec,
				"exactly one of \"from\" or \"messaging_service_sid\" must be provided")
		}

		form := url.Values{}
		form.Set("To", to)
		form.Set("Body", body)
		if from != "" {
			form.Set("From", from)
		} else {
			form.Set("MessagingServiceSid", serviceSid)
		}
		if operationID == "send_mms" {
			mediaURL, err := connector.StringParam(params, "media_url", true)
			if err != nil {
				return nil, err
			}
			form.Set("MediaUrl", mediaURL)
		}

		base.Method = connector.MethodPost
		base.URL = fmt.Sprintf("%s/Accounts/%s/Messages.json", apiBase, accountSid)
		base.Headers["Content-Type"] = formContentType
		base.Body = connector.FormBody(form.Encode())

	case "list_messages":
		base.Method = connector.MethodGet
		base.URL = fmt.Sprintf("%s/Accounts/%s/Messages.json", apiBase, accountSid)

	case "get_message":
		messageSid, err := connector.StringParam(params, "message_sid", true)
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodGet
		base.URL = fmt.Sprintf("%s/Accounts/%s/Messages/%s.json", apiBase, accountSid, messageSid)

	case "delete_message_record":
		messageSid, err := connector.StringParam(params, "message_sid", true)
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodDelete
		base.URL = fmt.Sprintf("%s/Accounts/%s/Messages/%s.json", apiBase, accountSid, messageSid)

	case "lookup_number":
		phoneNumber, err := connector.StringParam(params, "phone_number", true)
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodGet
		base.URL = fmt.Sprintf("%s/Accounts/%s/IncomingPhoneNumbers.json?PhoneNumber=%s",
			apiBase, accountSid, url.QueryEscape(phoneNumber))

	default:
		return nil, connector.NotFound(connectorID, operationID)
	}

	return base, nil
}
