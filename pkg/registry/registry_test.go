package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wisbric/connectorplane/pkg/connector"
	"github.com/wisbric/connectorplane/pkg/connectors/echo"
)

func TestRegisterFailsWhenFeatureDisabled(t *testing.T) {
	r := New(Catalog{}, false)
	err := r.Register(echo.New())
	require.Error(t, err)

	var cerr *connector.Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, connector.KindFeatureDisabled, cerr.Kind)
}

func TestRegisterThenGet(t *testing.T) {
	r := New(Catalog{}, true)
	require.NoError(t, r.Register(echo.New()))

	entry, ok := r.Get("echo")
	require.True(t, ok)
	require.Equal(t, "echo", entry.Manifest.ID)
	require.Equal(t, connector.StatusRegistered, entry.Connector.Status())
}

func TestDuplicateRegistrationFails(t *testing.T) {
	r := New(Catalog{}, true)
	require.NoError(t, r.Register(echo.New()))
	err := r.Register(echo.New())
	require.Error(t, err)
}

func TestListActiveFiltersByStatus(t *testing.T) {
	r := New(Catalog{}, true)
	require.NoError(t, r.Register(echo.New()))
	require.Empty(t, r.ListActive())

	require.NoError(t, r.UpdateStatus("echo", connector.StatusActive))
	require.Equal(t, []string{"echo"}, r.ListActive())
}

func TestGetOperationByID(t *testing.T) {
	r := New(Catalog{}, true)
	require.NoError(t, r.Register(echo.New()))

	op, err := r.GetOperation("echo", "get")
	require.NoError(t, err)
	require.Equal(t, "get", op.ID)

	_, err = r.GetOperation("echo", "does-not-exist")
	require.Error(t, err)

	var cerr *connector.Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, connector.KindOperationNotFound, cerr.Kind)
}

func TestUnregisterReportsPresence(t *testing.T) {
	r := New(Catalog{}, true)
	require.NoError(t, r.Register(echo.New()))

	require.True(t, r.Unregister("echo"))
	require.False(t, r.Unregister("echo"))
	_, ok := r.Get("echo")
	require.False(t, ok)
}

func TestCatalogOverridesAttachToEntry(t *testing.T) {
	cat := Catalog{
		PerConnector: map[string]ConnectorOverride{
			"echo": {Enabled: true, Config: map[string]any{"timeout": 5}},
		},
	}
	r := New(cat, true)
	require.NoError(t, r.Register(echo.New()))

	entry, _ := r.Get("echo")
	require.True(t, entry.Override.Enabled)
	require.Equal(t, 5, entry.Override.Config["timeout"])
}
