// Package discord implements the Discord bot API connector: bot-token
// auth, URL path parameters, and percent-encoded emoji in reaction
// endpoints.
package discord

import (
	"fmt"
	"net/url"

	"github.com/wisbric/connectorplane/pkg/connector"
)

const (
	connectorID = "discord"
	apiBase     = "https://discord.com/api/v10"
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
			Name:        "Discord",
			Version:     "1.0.0",
			Author:      "connectorplane",
			Source:      connector.SourceFirstParty,
			Description: "Posts messages and manages channels via the Discord bot API.",
			TargetDomains: []string{
				"discord.com",
			},
			RequiredCredentials: []connector.CredentialSpec{
				{Name: "Bot token", Type: connector.CredentialBotToken, VaultKey: "discord.bot_token", Required: true},
			},
			DataReads:     []string{"channel list", "message history", "guild members"},
			DataWrites:    []string{"posted messages", "reactions", "channel topics"},
			DoesNotAccess: []string{"server owner transfer", "billing"},
		},
	}
}

func (c *Connector) Manifest() *connector.ConnectorManifest { return &c.manifest }

func (c *Connector) ValidateCredentials() bool { return true }

func (c *Connector) Operations() []connector.ConnectorOperation {
	return []connector.ConnectorOperation{
		{ID: "list_channels", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "List channels", DefaultTier: connector.TierInert, Idempotent: true, Reversible: true,
			Parameters: []connector.ParameterSpec{{Name: "guild_id", Type: "str", Required: true}}},
		{ID: "list_members", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "List guild members", DefaultTier: connector.TierInert, Idempotent: true, Reversible: true,
			Parameters: []connector.ParameterSpec{{Name: "guild_id", Type: "str", Required: true}}},
		{ID: "read_messages", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "Read channel messages", DefaultTier: connector.TierReversible, Idempotent: true, Reversible: true,
			Parameters: []connector.ParameterSpec{{Name: "channel_id", Type: "str", Required: true}}},
		{ID: "post_message", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Post message", DefaultTier: connector.TierControlled, Idempotent: false, Reversible: true,
			RollbackOperationID: "delete_message",
			Parameters: []connector.ParameterSpec{
				{Name: "channel_id", Type: "str", Required: true},
				{Name: "content", Type: "str", Required: true},
			}},
		{ID: "delete_message", ConnectorID: connectorID, Capability: connector.CapabilityDelete,
			Name: "Delete message", DefaultTier: connector.TierControlled, Idempotent: false, Reversible: false,
			Parameters: []connector.ParameterSpec{
				{Name: "channel_id", Type: "str", Required: true},
				{Name: "message_id", Type: "str", Required: true},
			}},
		{ID: "add_reaction", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Add reaction", DefaultTier: connector.TierControlled, Idempotent: true, Reversible: true,
			RollbackOperationID: "remove_reaction",
			Parameters: []connector.ParameterSpec{
				{Name: "channel_id", Type: "str", Required: true},
				{Name: "message_id", Type: "str", Required: true},
				{Name: "emoji", Type: "str", Required: true},
			}},
		{ID: "remove_reaction", ConnectorID: connectorID, Capability: connector.CapabilityDelete,
			Name: "Remove reaction", DefaultTier: connector.TierControlled, Idempotent: true, Reversible: false,
			Parameters: []connector.ParameterSpec{
				{Name: "channel_id", Type: "str", Required: true},
				{Name: "message_id", Type: "str", Required: true},
				{Name: "emoji", Type: "str", Required: true},
			}},
		{ID: "edit_channel_topic", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Edit channel topic", DefaultTier: connector.TierControlled, Idempotent: true, Reversible: true,
			RollbackOperationID: "edit_channel_topic",
			Parameters: []connector.ParameterSpec{
				{Name: "channel_id", Type: "str", Required: true},
				{Name: "topic", Type: "str", Required: true},
			}},
		{ID: "create_invite", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Create invite", DefaultTier: connector.TierIrreversible, Idempotent: false, Reversible: false,
			Parameters: []connector.ParameterSpec{{Name: "channel_id", Type: "str", Required: true}}},
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
		CredentialVaultKey: "discord.bot_token",
		TimeoutSeconds:     15,
		Metadata:           map[string]string{},
	}

	str := func(name string) (string, error) { return connector.StringParam(params, name, true) }

	switch operationID {
	case "list_channels":
		guildID, err := str("guild_id")
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodGet
		base.URL = fmt.Sprintf("%s/guilds/%s/channels", apiBase, guildID)
		base.Metadata["rate_limit_group"] = "guild:" + guildID

	case "list_members":
		guildID, err := str("guild_id")
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodGet
		base.URL = fmt.Sprintf("%s/guilds/%s/members", apiBase, guildID)
		base.Metadata["rate_limit_group"] = "guild:" + guildID

	case "read_messages":
		channelID, err := str("channel_id")
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodGet
		base.URL = fmt.Sprintf("%s/channels/%s/messages", apiBase, channelID)
		base.Metadata["rate_limit_group"] = "channel:" + channelID

	case "post_message":
		channelID, err := str("channel_id")
		if err != nil {
			return nil, err
		}
		content, err := str("content")
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodPost
		base.URL = fmt.Sprintf("%s/channels/%s/messages", apiBase, channelID)
		base.Body = connector.JSONBody(map[string]string{"content": content})
		base.Metadata["rate_limit_group"] = "channel:" + channelID

	case "delete_message":
		channelID, err := str("channel_id")
		if err != nil {
			return nil, err
		}
		messageID, err := str("message_id")
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodDelete
		base.URL = fmt.Sprintf("%s/channels/%s/messages/%s", apiBase, channelID, messageID)

	case "add_reaction", "remove_reaction":
		channelID, err := str("channel_id")
		if err != nil {
			return nil, err
		}
		messageID, err := str("message_id")
		if err != nil {
			return nil, err
		}
		emoji, err := str("emoji")
		if err != nil {
			return nil, err
		}
		encodedEmoji := url.PathEscape(emoji)
		if operationID == "add_reaction" {
			base.Method = connector.MethodPut
		} else {
			base.Method = connector.MethodDelete
		}
		base.URL = fmt.Sprintf("%s/channels/%s/messages/%s/reactions/%s/@me", apiBase, channelID, messageID, encodedEmoji)

	case "edit_channel_topic":
		channelID, err := str("channel_id")
		if err != nil {
			return nil, err
		}
		topic, err := str("topic")
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodPatch
		base.URL = fmt.Sprintf("%s/channels/%s", apiBase, channelID)
		base.Body = connector.JSONBody(map[string]string{"topic": topic})

	case "create_invite":
		channelID, err := str("channel_id")
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodPost
		base.URL = fmt.Sprintf("%s/channels/%s/invites", apiBase, channelID)
		base.Body = connector.JSONBody(map[string]any{})

	default:
		return nil, connector.NotFound(connectorID, operationID)
	}

	return base, nil
}
