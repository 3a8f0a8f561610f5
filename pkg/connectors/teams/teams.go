// Package teams implements the Microsoft Teams connector over the
// Microsoft Graph API, using Graph's resource-path conventions
// (teams/{id}/channels/{id}/messages).
package teams

import (
	"fmt"

	"github.com/wisbric/connectorplane/pkg/connector"
)

const (
	connectorID = "teams"
	apiBase     = "https://graph.microsoft.com/v1.0"
	vaultKey    = "teams.oauth_token"
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
			Name:        "Microsoft Teams",
			Version:     "1.0.0",
			Author:      "connectorplane",
			Source:      connector.SourceFirstParty,
			Description: "Posts channel messages and reads team/channel metadata via Microsoft Graph.",
			TargetDomains: []string{
				"graph.microsoft.com",
			},
			RequiredCredentials: []connector.CredentialSpec{
				{Name: "Graph OAuth token", Type: connector.CredentialOAuthToken, VaultKey: vaultKey, Required: true,
					Scopes: []string{"ChannelMessage.Send", "ChannelMessage.Read.All", "Team.ReadBasic.All"}},
			},
			DataReads:     []string{"team list", "channel list", "channel messages", "team members"},
			DataWrites:    []string{"channel messages", "message replies", "channels"},
			DoesNotAccess: []string{"private chats outside the bot's teams", "tenant directory admin"},
		},
	}
}

func (c *Connector) Manifest() *connector.ConnectorManifest { return &c.manifest }

func (c *Connector) ValidateCredentials() bool { return true }

func (c *Connector) Operations() []connector.ConnectorOperation {
	return []connector.ConnectorOperation{
		{ID: "list_teams", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "List teams", DefaultTier: connector.TierInert, Idempotent: true, Reversible: true},
		{ID: "list_channels", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "List channels", DefaultTier: connector.TierInert, Idempotent: true, Reversible: true,
			Parameters: []connector.ParameterSpec{{Name: "team_id", Type: "str", Required: true}}},
		{ID: "list_members", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "List team members", DefaultTier: connector.TierInert, Idempotent: true, Reversible: true,
			Parameters: []connector.ParameterSpec{{Name: "team_id", Type: "str", Required: true}}},
		{ID: "read_messages", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "Read channel messages", DefaultTier: connector.TierReversible, Idempotent: true, Reversible: true,
			Parameters: []connector.ParameterSpec{
				{Name: "team_id", Type: "str", Required: true},
				{Name: "channel_id", Type: "str", Required: true},
			}},
		{ID: "get_message", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "Get message", DefaultTier: connector.TierReversible, Idempotent: true, Reversible: true,
			Parameters: []connector.ParameterSpec{
				{Name: "team_id", Type: "str", Required: true},
				{Name: "channel_id", Type: "str", Required: true},
				{Name: "message_id", Type: "str", Required: true},
			}},
		{ID: "post_message", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Post channel message", DefaultTier: connector.TierControlled, Idempotent: false, Reversible: true,
			RollbackOperationID: "delete_message",
			Parameters: []connector.ParameterSpec{
				{Name: "team_id", Type: "str", Required: true},
				{Name: "channel_id", Type: "str", Required: true},
				{Name: "content", Type: "str", Required: true},
			}},
		{ID: "reply_to_message", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Reply to message", DefaultTier: connector.TierControlled, Idempotent: false, Reversible: true,
			RollbackOperationID: "delete_message",
			Parameters: []connector.ParameterSpec{
				{Name: "team_id", Type: "str", Required: true},
				{Name: "channel_id", Type: "str", Required: true},
				{Name: "message_id", Type: "str", Required: true},
				{Name: "content", Type: "str", Required: true},
			}},
		{ID: "delete_message", ConnectorID: connectorID, Capability: connector.CapabilityDelete,
			Name: "Delete message", Description: "Soft-deletes a channel message.",
			DefaultTier: connector.TierControlled, Idempotent: true, Reversible: false,
			Parameters: []connector.ParameterSpec{
				{Name: "team_id", Type: "str", Required: true},
				{Name: "channel_id", Type: "str", Required: true},
				{Name: "message_id", Type: "str", Required: true},
			}},
		{ID: "create_channel", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Create channel", DefaultTier: connector.TierControlled, Idempotent: false, Reversible: true,
			RollbackOperationID: "delete_channel",
			Parameters: []connector.ParameterSpec{
				{Name: "team_id", Type: "str", Required: true},
				{Name: "display_name", Type: "str", Required: true},
				{Name: "description", Type: "str", Required: false},
			}},
		{ID: "delete_channel", ConnectorID: connectorID, Capability: connector.CapabilityDelete,
			Name: "Delete channel", DefaultTier: connector.TierIrreversible, Idempotent: true, Reversible: false,
			Parameters: []connector.ParameterSpec{
				{Name: "team_id", Type: "str", Required: true},
				{Name: "channel_id", Type: "str", Required: true},
			}},
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
	case "list_teams":
		base.Method = connector.MethodGet
		base.URL = apiBase + "/me/joinedTeams"

	case "list_channels":
		teamID, err := str("team_id")
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodGet
		base.URL = fmt.Sprintf("%s/teams/%s/channels", apiBase, teamID)

	case "list_members":
		teamID, err := str("team_id")
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodGet
		base.URL = fmt.Sprintf("%s/teams/%s/members", apiBase, teamID)

	case "read_messages":
		teamID, err := str("team_id")
		if err != nil {
			return nil, err
		}
		channelID, err := str("channel_id")
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodGet
		base.URL = fmt.Sprintf("%s/teams/%s/channels/%s/messages", apiBase, teamID, channelID)

	case "get_message":
		teamID, err := str("team_id")
		if err != nil {
			return nil, err
		}
		channelID, err := str("channel_id")
		if err != nil {
			return nil, err
		}
		messageID, err := str("message_id")
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodGet
		base.URL = fmt.Sprintf("%s/teams/%s/channels/%s/messages/%s", apiBase, teamID, channelID, messageID)

	case "post_message":
		teamID, err := str("team_id")
		if err != nil {
			return nil, err
		}
		channelID, err := str("channel_id")
		if err != nil {
			return nil, err
		}
		content, err := str("content")
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodPost
		base.URL = fmt.Sprintf("%s/teams/%s/channels/%s/messages", apiBase, teamID, channelID)
		base.Body = connector.JSONBody(map[string]any{
			"body": map[string]string{"content": content},
		})

	case "reply_to_message":
		teamID, err := str("team_id")
		if err != nil {
			return nil, err
		}
		channelID, err := str("channel_id")
		if err != nil {
			return nil, err
		}
		messageID, err := str("message_id")
		if err != nil {
			return nil, err
		}
		content, err := str("content")
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodPost
		base.URL = fmt.Sprintf("%s/teams/%s/channels/%s/messages/%s/replies", apiBase, teamID, channelID, messageID)
		base.Body = connector.JSONBody(map[string]any{
			"body": map[string]string{"content": content},
		})

	case "delete_message":
		teamID, err := str("team_id")
		if err != nil {
			return nil, err
		}
		channelID, err := str("channel_id")
		if err != nil {
			return nil, err
		}
		messageID, err := str("message_id")
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodPost
		base.URL = fmt.Sprintf("%s/teams/%s/channels/%s/messages/%s/softDelete", apiBase, teamID, channelID, messageID)
		base.Body = connector.JSONBody(map[string]any{})

	case "create_channel":
		teamID, err := str("team_id")
		if err != nil {
			return nil, err
		}
		displayName, err := str("display_name")
		if err != nil {
			return nil, err
		}
		body := map[string]any{"displayName": displayName}
		if desc := connector.OptionalString(params, "description", ""); desc != "" {
			body["description"] = desc
		}
		base.Method = connector.MethodPost
		base.URL = fmt.Sprintf("%s/teams/%s/channels", apiBase, teamID)
		base.Body = connector.JSONBody(body)

	case "delete_channel":
		teamID, err := str("team_id")
		if err != nil {
			return nil, err
		}
		channelID, err := str("channel_id")
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodDelete
		base.URL = fmt.Sprintf("%s/teams/%s/channels/%s", apiBase, teamID, channelID)

	default:
		return nil, connector.NotFound(connectorID, operationID)
	}

	return base, nil
}
