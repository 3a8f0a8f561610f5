package proxy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wisbric/connectorplane/pkg/connector"
)

type fakeManifest struct{ domains map[string]bool }

func (m fakeManifest) HasTargetDomain(host string) bool { return m.domains[host] }

type fakeRegistry struct{ entries map[string]Manifest }

func (r fakeRegistry) Get(id string) (Manifest, bool) {
	m, ok := r.entries[id]
	return m, ok
}

type fakeVault struct {
	secrets map[string]string
	types   map[string]connector.CredentialType
	denied  map[string]bool
}

func (v fakeVault) Retrieve(key, accessorID string) (string, error) {
	if v.denied[key] {
		return "", connector.Newf(connector.KindPermissionDenied, "denied: %s", key)
	}
	s, ok := v.secrets[key]
	if !ok {
		return "", connector.Newf(connector.KindKeyNotFound, "not found: %s", key)
	}
	return s, nil
}

func (v fakeVault) Describe(key string) (VaultDescription, bool) {
	t, ok := v.types[key]
	if !ok {
		return VaultDescription{}, false
	}
	return VaultDescription{Type: t}, true
}

type alwaysAdmit struct{}

func (alwaysAdmit) Check(string) bool { return true }

type alwaysDeny struct{}

func (alwaysDeny) Check(string) bool { return false }

func TestExecuteConnectorNotFound(t *testing.T) {
	p := New(fakeRegistry{entries: map[string]Manifest{}}, fakeVault{}, nil, nil)
	resp := p.Execute(context.Background(), &connector.ConnectorResult{
		ConnectorID: "ghost", OperationID: "op", Method: connector.MethodGet,
		URL: "https://example.com", TimeoutSeconds: 5,
	})
	require.True(t, resp.IsError())
	require.Equal(t, connector.KindConnectorNotFound, resp.ErrorKind)
}

func TestExecuteRateLimited(t *testing.T) {
	p := New(fakeRegistry{entries: map[string]Manifest{
		"slack": fakeManifest{domains: map[string]bool{"slack.com": true}},
	}}, fakeVault{}, alwaysDeny{}, nil)

	resp := p.Execute(context.Background(), &connector.ConnectorResult{
		ConnectorID: "slack", OperationID: "op", Method: connector.MethodGet,
		URL: "https://slack.com/api/foo", TimeoutSeconds: 5,
	})
	require.True(t, resp.IsError())
	require.Equal(t, 429, resp.StatusCode)
}

func TestExecuteDomainNotAllowed(t *testing.T) {
	p := New(fakeRegistry{entries: map[string]Manifest{
		"slack": fakeManifest{domains: map[string]bool{"slack.com": true}},
	}}, fakeVault{}, alwaysAdmit{}, nil)

	resp := p.Execute(context.Background(), &connector.ConnectorResult{
		ConnectorID: "slack", OperationID: "op", Method: connector.MethodGet,
		URL: "https://evil.example.com/steal", TimeoutSeconds: 5,
	})
	require.True(t, resp.IsError())
	require.Equal(t, connector.KindDomainNotAllowed, resp.ErrorKind)
}

func TestExecuteSuccessWithBearerAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer shh", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
	}))
	defer srv.Close()

	host := srv.Listener.Addr().String()
	p := New(fakeRegistry{entries: map[string]Manifest{
		"svc": fakeManifest{domains: map[string]bool{host: true}},
	}}, fakeVault{
		secrets: map[string]string{"svc-token": "shh"},
		types:   map[string]connector.CredentialType{"svc-token": connector.CredentialBearer},
	}, alwaysAdmit{}, nil)

	resp := p.Execute(context.Background(), &connector.ConnectorResult{
		ConnectorID:        "svc",
		OperationID:        "op",
		Method:             connector.MethodGet,
		URL:                "http://" + host + "/thing",
		TimeoutSeconds:     5,
		CredentialVaultKey: "svc-token",
	})
	require.False(t, resp.IsError())
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, map[string]any{"ok": "yes"}, resp.Body)
}

func TestExecuteVaultPermissionDenied(t *testing.T) {
	p := New(fakeRegistry{entries: map[string]Manifest{
		"svc": fakeManifest{domains: map[string]bool{"example.com": true}},
	}}, fakeVault{denied: map[string]bool{"svc-token": true}}, alwaysAdmit{}, nil)

	resp := p.Execute(context.Background(), &connector.ConnectorResult{
		ConnectorID:        "svc",
		OperationID:        "op",
		Method:             connector.MethodGet,
		URL:                "https://example.com/thing",
		TimeoutSeconds:     5,
		CredentialVaultKey: "svc-token",
	})
	require.True(t, resp.IsError())
	require.Equal(t, connector.KindPermissionDenied, resp.ErrorKind)
}

func TestExecuteURLTokenSubstitution(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, "/botBOT123/sendMessage")
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()
	host := srv.Listener.Addr().String()

	p := New(fakeRegistry{entries: map[string]Manifest{
		"telegram": fakeManifest{domains: map[string]bool{host: true}},
	}}, fakeVault{secrets: map[string]string{"telegram.bot_token": "BOT123"}}, alwaysAdmit{}, nil)

	resp := p.Execute(context.Background(), &connector.ConnectorResult{
		ConnectorID:        "telegram",
		OperationID:        "send_message",
		Method:             connector.MethodGet,
		URL:                "http://" + host + "/bot{token}/sendMessage",
		TimeoutSeconds:     5,
		CredentialVaultKey: "telegram.bot_token",
		Metadata:           map[string]string{"auth_type": "url_token"},
	})
	require.False(t, resp.IsError())
}
