package governedproxy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wisbric/connectorplane/pkg/classifier"
	"github.com/wisbric/connectorplane/pkg/connector"
	"github.com/wisbric/connectorplane/pkg/connectors/slack"
	"github.com/wisbric/connectorplane/pkg/proxy"
	"github.com/wisbric/connectorplane/pkg/registry"
	"github.com/wisbric/connectorplane/pkg/vault"
)

// rewriteProxy swaps the connector-declared host for the test server's
// before handing the request to the real proxy, so the full pipeline
// runs against a local listener.
type rewriteProxy struct {
	inner *proxy.Proxy
	from  string
	to    string
}

func (r rewriteProxy) Execute(ctx context.Context, result *connector.ConnectorResult) *connector.ConnectorResponse {
	result.URL = "http://" + r.to + result.URL[len("https://"+r.from):]
	return r.inner.Execute(ctx, result)
}

// The full Slack posting path: vault-scoped credential, registry lookup,
// domain validation, bearer injection, JSON transport, and a receipt in
// the durable sink.
func TestSlackPostMessageEndToEnd(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()
	host := srv.Listener.Addr().String()

	v, err := vault.Open(vault.Config{}, nil, false)
	require.NoError(t, err)
	_, err = v.Store("slack.bot_token", "xoxb-abc", connector.CredentialOAuthToken)
	require.NoError(t, err)
	v.Grant("slack.bot_token", "slack")

	reg := registry.New(registry.Catalog{}, true)
	sc := slack.New()
	sc.Manifest().TargetDomains = append(sc.Manifest().TargetDomains, host)
	require.NoError(t, reg.Register(sc))

	raw := proxy.New(proxy.RegistryAdapter{Registry: reg}, proxy.VaultAdapter{Vault: v}, nil, nil)
	clf := classifier.New(nil, nil, nil, false)

	batch := NewInMemorySink()
	store := NewInMemorySink()
	gp := New(reg, clf, nil, rewriteProxy{inner: raw, from: "slack.com", to: host}, nil, batch, store)
	require.NoError(t, gp.RegisterConnectorTiers("slack"))

	resp := gp.ExecuteGoverned(context.Background(), "slack", "post_message",
		map[string]any{"channel": "C1", "text": "hi"})

	require.False(t, resp.IsError(), resp.Error)
	require.Equal(t, "Bearer xoxb-abc", gotAuth)
	require.Equal(t, map[string]any{"channel": "C1", "text": "hi"}, gotBody)

	// post_message is T2: the receipt lands in the store, not the batch
	// buffer.
	require.Empty(t, batch.Receipts())
	require.Len(t, store.Receipts(), 1)
	require.Equal(t, "T2_CONTROLLED", store.Receipts()[0].Tier)
	require.Equal(t, store.Receipts()[0].ReceiptID, resp.ReceiptID)
}
