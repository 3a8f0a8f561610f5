package vault

import (
	"golang.org/x/oauth2"

	"github.com/wisbric/connectorplane/pkg/connector"
)

// OAuthToken returns the entry at key as an *oauth2.Token. Only entries
// typed oauth_token or bearer can be projected this way; the access
// policy is the same as Retrieve's (an empty accessorID is
// administrative).
func (v *Vault) OAuthToken(key, accessorID string) (*oauth2.Token, error) {
	v.mu.Lock()
	typ, ok := connector.CredentialType(""), false
	if e, present := v.entries[key]; present {
		typ, ok = e.Type, true
	}
	v.mu.Unlock()

	if ok && typ != connector.CredentialOAuthToken && typ != connector.CredentialBearer {
		return nil, connector.Newf(connector.KindInvalidRequestSpec,
			"credential %q is typed %q, not an oauth token", key, typ)
	}

	value, err := v.Retrieve(key, accessorID)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: value, TokenType: "Bearer"}, nil
}
