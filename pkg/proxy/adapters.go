package proxy

import (
	"github.com/wisbric/connectorplane/pkg/registry"
	"github.com/wisbric/connectorplane/pkg/vault"
)

// RegistryAdapter narrows a *registry.Registry down to the RegistryLookup
// contract the proxy needs, keeping this package free of a direct
// compile-time dependency on the registry's full API surface.
type RegistryAdapter struct {
	Registry *registry.Registry
}

func (a RegistryAdapter) Get(connectorID string) (Manifest, bool) {
	entry, ok := a.Registry.Get(connectorID)
	if !ok {
		return nil, false
	}
	return entry.Manifest, true
}

// VaultAdapter narrows a *vault.Vault down to the VaultLookup contract.
type VaultAdapter struct {
	Vault *vault.Vault
}

func (a VaultAdapter) Retrieve(key, accessorID string) (string, error) {
	return a.Vault.Retrieve(key, accessorID)
}

func (a VaultAdapter) Describe(key string) (VaultDescription, bool) {
	d, ok := a.Vault.Describe(key)
	if !ok {
		return VaultDescription{}, false
	}
	return VaultDescription{Type: d.Type}, true
}
