// Package x implements the X (Twitter) API v2 connector. X signs every
// request with OAuth 1.0a; the four signing secrets stay in the vault
// and are named here as metadata so the proxy can retrieve them and
// build the signed Authorization header.
package x

import (
	"fmt"

	"github.com/wisbric/connectorplane/pkg/connector"
)

const (
	connectorID = "x"
	apiBase     = "https://api.x.com/2"

	consumerKeyKey    = "x.consumer_key"
	consumerSecretKey = "x.consumer_secret"
	accessTokenKey    = "x.access_token"
	accessSecretKey   = "x.access_token_secret"
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
			Name:        "X",
			Version:     "1.0.0",
			Author:      "connectorplane",
			Source:      connector.SourceFirstParty,
			Description: "Posts and deletes tweets via the X API v2 with OAuth 1.0a signing.",
			TargetDomains: []string{
				"api.x.com",
			},
			RequiredCredentials: []connector.CredentialSpec{
				{Name: "Consumer key", Type: connector.CredentialConfig, VaultKey: consumerKeyKey, Required: true},
				{Name: "Consumer secret", Type: connector.CredentialConfig, VaultKey: consumerSecretKey, Required: true},
				{Name: "Access token", Type: connector.CredentialOAuthToken, VaultKey: accessTokenKey, Required: true},
				{Name: "Access token secret", Type: connector.CredentialConfig, VaultKey: accessSecretKey, Required: true},
			},
			DataReads:     []string{"tweet content"},
			DataWrites:    []string{"posted tweets", "deletions"},
			DoesNotAccess: []string{"direct messages", "account settings", "follower lists"},
		},
	}
}

func (c *Connector) Manifest() *connector.ConnectorManifest { return &c.manifest }

func (c *Connector) ValidateCredentials() bool { return true }

func (c *Connector) Operations() []connector.ConnectorOperation {
	return []connector.ConnectorOperation{
		// post_tweet is T1, not T2: a tweet is fully removable via
		// delete_tweet, so the action stays reversible.
		{ID: "post_tweet", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Post tweet", DefaultTier: connector.TierReversible, Idempotent: false, Reversible: true,
			RollbackOperationID: "delete_tweet",
			Parameters: []connector.ParameterSpec{{Name: "text", Type: "str", Required: true}}},
		{ID: "delete_tweet", ConnectorID: connectorID, Capability: connector.CapabilityDelete,
			Name: "Delete tweet", DefaultTier: connector.TierIrreversible, Idempotent: true, Reversible: false,
			Parameters: []connector.ParameterSpec{{Name: "tweet_id", Type: "str", Required: true}}},
		{ID: "get_tweet", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "Get tweet", DefaultTier: connector.TierReversible, Idempotent: true, Reversible: true,
			Parameters: []connector.ParameterSpec{{Name: "tweet_id", Type: "str", Required: true}}},
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
		CredentialVaultKey: accessTokenKey,
		TimeoutSeconds:     15,
		Metadata: map[string]string{
			"auth_type":             "oauth1",
			"oauth_consumer_key":    consumerKeyKey,
			"oauth_consumer_secret": consumerSecretKey,
			"oauth_token_key":       accessTokenKey,
			"oauth_token_secret":    accessSecretKey,
		},
	}

	switch operationID {
	case "post_tweet":
		text, err := connector.StringParam(params, "text", true)
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodPost
		base.URL = apiBase + "/tweets"
		base.Body = connector.JSONBody(map[string]string{"text": text})

	case "delete_tweet":
		tweetID, err := connector.StringParam(params, "tweet_id", true)
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodDelete
		base.URL = fmt.Sprintf("%s/tweets/%s", apiBase, tweetID)

	case "get_tweet":
		tweetID, err := connector.StringParam(params, "tweet_id", true)
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodGet
		base.URL = fmt.Sprintf("%s/tweets/%s", apiBase, tweetID)

	default:
		return nil, connector.NotFound(connectorID, operationID)
	}

	return base, nil
}
