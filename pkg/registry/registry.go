// Package registry is the connector registry: it loads the YAML
// catalog, gates registration behind a feature flag, and maps connector
// and operation ids to live instances. A single registry-wide mutex
// serializes all mutations.
package registry

import (
	"sync"
	"time"

	"github.com/wisbric/connectorplane/pkg/connector"
)

// RegistryEntry pairs a live connector instance with its manifest,
// registration timestamp, and catalog-sourced override.
type RegistryEntry struct {
	Connector    connector.Connector
	Manifest     *connector.ConnectorManifest
	RegisteredAt time.Time
	Override     ConnectorOverride
}

// Registry owns connector instances and their manifests. It never owns
// vault entries, rate limiters, or the HTTP transport — those are
// separate collaborators threaded in by the governed proxy.
type Registry struct {
	mu              sync.Mutex
	entries         map[string]*RegistryEntry
	catalog         Catalog
	connectorsFlag  bool
}

// New constructs a Registry from a loaded catalog. connectorsEnabled
// mirrors the global connector feature flag: when false, every Register
// call fails with FeatureDisabled.
func New(catalog Catalog, connectorsEnabled bool) *Registry {
	return &Registry{
		entries:        make(map[string]*RegistryEntry),
		catalog:        catalog,
		connectorsFlag: connectorsEnabled,
	}
}

// Catalog returns the loaded catalog, for collaborators (rate limiter,
// governed proxy) that need global settings at boot.
func (r *Registry) Catalog() Catalog {
	return r.catalog
}

// Register adds c to the registry under its manifest id. Fails if the id
// is already registered, or fatally (FeatureDisabled) if the connectors
// flag is off.
func (r *Registry) Register(c connector.Connector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.connectorsFlag {
		return connector.Newf(connector.KindFeatureDisabled,
			"connector registration is disabled by the global connectors feature flag")
	}

	m := c.Manifest()
	if err := m.Validate(); err != nil {
		return err
	}
	if _, exists := r.entries[m.ID]; exists {
		return connector.Newf(connector.KindInvalidManifest,
			"connector %q is already registered", m.ID)
	}

	r.entries[m.ID] = &RegistryEntry{
		Connector:    c,
		Manifest:     m,
		RegisteredAt: time.Now(),
		Override:     r.catalog.PerConnector[m.ID],
	}
	c.SetStatus(connector.StatusRegistered)
	return nil
}

// Unregister removes a connector, reporting whether one was present.
func (r *Registry) Unregister(connectorID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[connectorID]; !ok {
		return false
	}
	delete(r.entries, connectorID)
	return true
}

// Get returns the entry for connectorID, if registered.
func (r *Registry) Get(connectorID string) (*RegistryEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[connectorID]
	return e, ok
}

// ListConnectors returns every registered connector id, in no particular
// order.
func (r *Registry) ListConnectors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}

// ListActive returns the ids of connectors whose status is active.
func (r *Registry) ListActive() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.entries))
	for id, e := range r.entries {
		if e.Connector.Status() == connector.StatusActive {
			ids = append(ids, id)
		}
	}
	return ids
}

// GetOperations returns the operations exposed by connectorID.
func (r *Registry) GetOperations(connectorID string) ([]connector.ConnectorOperation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[connectorID]
	if !ok {
		return nil, connector.Newf(connector.KindConnectorNotFound, "connector %q not found", connectorID)
	}
	return e.Connector.Operations(), nil
}

// GetOperation returns a single operation by id.
func (r *Registry) GetOperation(connectorID, operationID string) (*connector.ConnectorOperation, error) {
	r.mu.Lock()
	e, ok := r.entries[connectorID]
	r.mu.Unlock()
	if !ok {
		return nil, connector.Newf(connector.KindConnectorNotFound, "connector %q not found", connectorID)
	}
	op := connector.OperationByID(e.Connector.Operations(), operationID)
	if op == nil {
		return nil, connector.NotFound(connectorID, operationID)
	}
	return op, nil
}

// UpdateStatus transitions a registered connector's status.
func (r *Registry) UpdateStatus(connectorID string, status connector.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[connectorID]
	if !ok {
		return connector.Newf(connector.KindConnectorNotFound, "connector %q not found", connectorID)
	}
	e.Connector.SetStatus(status)
	return nil
}
