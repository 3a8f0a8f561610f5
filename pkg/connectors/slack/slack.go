// Package slack implements the Slack Web API connector. Endpoint names
// and attachment shapes follow the slack-go client's conventions, but
// no client is constructed here: Execute builds a plain ConnectorResult
// and never calls the API directly.
package slack

import (
	"fmt"

	goslack "github.com/slack-go/slack"

	"github.com/wisbric/connectorplane/pkg/connector"
)

const (
	connectorID = "slack"
	apiBase     = "https://slack.com/api/"
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
			Name:        "Slack",
			Version:     "1.0.0",
			Author:      "connectorplane",
			Source:      connector.SourceFirstParty,
			Description: "Posts messages and reads channel/user metadata via the Slack Web API.",
			TargetDomains: []string{
				"slack.com",
			},
			RequiredCredentials: []connector.CredentialSpec{
				{Name: "Bot token", Type: connector.CredentialOAuthToken, VaultKey: "slack.bot_token", Required: true},
			},
			DataReads:     []string{"channel list", "message history", "user profiles"},
			DataWrites:    []string{"posted messages", "reactions"},
			DoesNotAccess: []string{"workspace admin settings"},
		},
	}
}

func (c *Connector) Manifest() *connector.ConnectorManifest { return &c.manifest }

func (c *Connector) ValidateCredentials() bool { return true }

func (c *Connector) Operations() []connector.ConnectorOperation {
	return []connector.ConnectorOperation{
		{
			ID: "list_channels", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "List channels", Description: "Lists conversations visible to the bot.",
			DefaultTier: connector.TierInert, Idempotent: true, Reversible: true,
		},
		{
			ID: "list_users", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "List users", Description: "Lists workspace members.",
			DefaultTier: connector.TierInert, Idempotent: true, Reversible: true,
		},
		{
			ID: "read_history", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "Read channel history", Description: "Reads recent messages from a channel.",
			DefaultTier: connector.TierReversible, Idempotent: true, Reversible: true,
			Parameters: []connector.ParameterSpec{
				{Name: "channel", Type: "str", Required: true},
				{Name: "limit", Type: "int", Required: false, Default: 100},
			},
		},
		{
			ID: "post_message", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Post message", Description: "Posts a message to a channel.",
			DefaultTier: connector.TierControlled, Idempotent: false, Reversible: true,
			RollbackOperationID: "delete_message",
			Parameters: []connector.ParameterSpec{
				{Name: "channel", Type: "str", Required: true},
				{Name: "text", Type: "str", Required: true},
				{Name: "attachments", Type: "list[str]", Required: false,
					Description: "Optional attachments, each {title, text, color}"},
			},
		},
		{
			ID: "delete_message", ConnectorID: connectorID, Capability: connector.CapabilityDelete,
			Name: "Delete message", Description: "Deletes a previously posted message.",
			DefaultTier: connector.TierControlled, Idempotent: false, Reversible: false,
			Parameters: []connector.ParameterSpec{
				{Name: "channel", Type: "str", Required: true},
				{Name: "ts", Type: "str", Required: true},
			},
		},
		{
			ID: "add_reaction", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Add reaction", Description: "Adds an emoji reaction to a message.",
			DefaultTier: connector.TierControlled, Idempotent: true, Reversible: true,
			RollbackOperationID: "remove_reaction",
			Parameters: []connector.ParameterSpec{
				{Name: "channel", Type: "str", Required: true},
				{Name: "timestamp", Type: "str", Required: true},
				{Name: "name", Type: "str", Required: true},
			},
		},
		{
			ID: "remove_reaction", ConnectorID: connectorID, Capability: connector.CapabilityDelete,
			Name: "Remove reaction", Description: "Removes an emoji reaction from a message.",
			DefaultTier: connector.TierControlled, Idempotent: true, Reversible: false,
			Parameters: []connector.ParameterSpec{
				{Name: "channel", Type: "str", Required: true},
				{Name: "timestamp", Type: "str", Required: true},
				{Name: "name", Type: "str", Required: true},
			},
		},
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
		CredentialVaultKey: "slack.bot_token",
		TimeoutSeconds:     15,
		Metadata:           map[string]string{},
	}

	switch operationID {
	case "list_channels":
		base.Method = connector.MethodGet
		base.URL = apiBase + "conversations.list"

	case "list_users":
		base.Method = connector.MethodGet
		base.URL = apiBase + "users.list"

	case "read_history":
		channel, err := connector.StringParam(params, "channel", true)
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodGet
		base.URL = fmt.Sprintf("%sconversations.history?channel=%s", apiBase, channel)
		base.Metadata["rate_limit_group"] = "channel:" + channel

	case "post_message":
		channel, err := connector.StringParam(params, "channel", true)
		if err != nil {
			return nil, err
		}
		text, err := connector.StringParam(params, "text", true)
		if err != nil {
			return nil, err
		}
		body := map[string]any{"channel": channel, "text": text}
		if atts := attachmentsParam(params); len(atts) > 0 {
			body["attachments"] = atts
		}
		base.Method = connector.MethodPost
		base.URL = apiBase + "chat.postMessage"
		base.Body = connector.JSONBody(body)
		base.Metadata["rate_limit_group"] = "channel:" + channel

	case "delete_message":
		channel, err := connector.StringParam(params, "channel", true)
		if err != nil {
			return nil, err
		}
		ts, err := connector.StringParam(params, "ts", true)
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodPost
		base.URL = apiBase + "chat.delete"
		base.Body = connector.JSONBody(map[string]string{"channel": channel, "ts": ts})

	case "add_reaction", "remove_reaction":
		channel, err := connector.StringParam(params, "channel", true)
		if err != nil {
			return nil, err
		}
		timestamp, err := connector.StringParam(params, "timestamp", true)
		if err != nil {
			return nil, err
		}
		name, err := connector.StringParam(params, "name", true)
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodPost
		if operationID == "add_reaction" {
			base.URL = apiBase + "reactions.add"
		} else {
			base.URL = apiBase + "reactions.remove"
		}
		base.Body = connector.JSONBody(map[string]string{"channel": channel, "timestamp": timestamp, "name": name})

	default:
		return nil, connector.NotFound(connectorID, operationID)
	}

	return base, nil
}

// attachmentsParam maps the optional "attachments" parameter into
// slack-go attachment values so the serialized body matches what the
// chat.postMessage endpoint expects.
func attachmentsParam(params map[string]any) []goslack.Attachment {
	raw, ok := params["attachments"].([]any)
	if !ok {
		return nil
	}
	out := make([]goslack.Attachment, 0, len(raw))
	for _, e := range raw {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		att := goslack.Attachment{}
		if v, ok := m["title"].(string); ok {
			att.Title = v
		}
		if v, ok := m["text"].(string); ok {
			att.Text = v
		}
		if v, ok := m["color"].(string); ok {
			att.Color = v
		}
		out = append(out, att)
	}
	return out
}
