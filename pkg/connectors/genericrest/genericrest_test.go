package genericrest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wisbric/connectorplane/pkg/connector"
)

func validConfig() Config {
	return Config{
		ID:           "acme",
		Name:         "Acme API",
		BaseURL:      "https://api.acme.example",
		AuthType:     "bearer",
		AuthVaultKey: "acme.token",
		Endpoints: []EndpointConfig{
			{Path: "/widgets", Method: "GET", Name: "List widgets"},
			{Path: "/widgets/{id}", Method: "GET", Name: "Get widget"},
			{Path: "/widgets", Method: "POST", Name: "Create widget"},
		},
	}
}

func TestValidConfigConstructs(t *testing.T) {
	c, err := New(validConfig())
	require.NoError(t, err)
	require.Len(t, c.Operations(), 3)
	require.NoError(t, c.Manifest().Validate())
}

func TestRejectsNonHTTPSBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.BaseURL = "http://api.acme.example"
	_, err := New(cfg)
	require.Error(t, err)
}

func TestRejectsLoopbackHost(t *testing.T) {
	for _, base := range []string{
		"https://127.0.0.1/api",
		"https://localhost/api",
		"https://10.1.2.3/api",
		"https://172.16.0.1/api",
		"https://192.168.1.1/api",
		"https://169.254.0.1/api",
	} {
		cfg := validConfig()
		cfg.BaseURL = base
		_, err := New(cfg)
		require.Error(t, err, base)
	}
}

func TestRejectsWildcardHost(t *testing.T) {
	cfg := validConfig()
	cfg.BaseURL = "https://*.acme.example"
	_, err := New(cfg)
	require.Error(t, err)
}

func TestRejectsPathTraversal(t *testing.T) {
	cfg := validConfig()
	cfg.Endpoints = []EndpointConfig{{Path: "/../../etc/passwd", Method: "GET", Name: "Bad"}}
	_, err := New(cfg)
	require.Error(t, err)

	cfg.Endpoints = []EndpointConfig{{Path: `/ok/..\windows`, Method: "GET", Name: "Bad"}}
	_, err = New(cfg)
	require.Error(t, err)
}

func TestRejectsPathWithoutLeadingSlash(t *testing.T) {
	cfg := validConfig()
	cfg.Endpoints = []EndpointConfig{{Path: "widgets", Method: "GET", Name: "Bad"}}
	_, err := New(cfg)
	require.Error(t, err)
}

func TestRejectsTooManyEndpoints(t *testing.T) {
	cfg := validConfig()
	cfg.Endpoints = nil
	for i := 0; i < 51; i++ {
		cfg.Endpoints = append(cfg.Endpoints, EndpointConfig{
			Path: fmt.Sprintf("/e%d", i), Method: "GET", Name: fmt.Sprintf("E%d", i),
		})
	}
	_, err := New(cfg)
	require.Error(t, err)
}

func TestRejectsUnknownAuthType(t *testing.T) {
	cfg := validConfig()
	cfg.AuthType = "kerberos"
	_, err := New(cfg)
	require.Error(t, err)
}

func TestExecuteRejectsBadParameterName(t *testing.T) {
	c, err := New(validConfig())
	require.NoError(t, err)
	_, err = c.Execute("post_widgets", map[string]any{"x; DROP TABLE": "y"})
	require.Error(t, err)
}

func TestExecuteSubstitutesPlaceholders(t *testing.T) {
	c, err := New(validConfig())
	require.NoError(t, err)
	result, err := c.Execute("get_widgets__id", map[string]any{"id": "w-42"})
	require.NoError(t, err)
	require.NoError(t, result.Validate())
	require.Equal(t, "https://api.acme.example/widgets/w-42", result.URL)
	require.True(t, result.Body.IsNil())
}

func TestExecuteEchoesParamsAsJSONBody(t *testing.T) {
	c, err := New(validConfig())
	require.NoError(t, err)
	result, err := c.Execute("post_widgets", map[string]any{"name": "sprocket", "size": 3})
	require.NoError(t, err)
	require.Equal(t, connector.BodyJSON, result.Body.Kind)
	body, ok := result.Body.JSON.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "sprocket", body["name"])
}
