package vault

import "sort"

// Grant records that connectorID may retrieve key. Returns false if the
// grant already existed.
func (v *Vault) Grant(key, connectorID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.grantLocked(key, connectorID)
}

func (v *Vault) grantLocked(key, connectorID string) bool {
	set, ok := v.grants[key]
	if !ok {
		set = make(map[string]struct{})
		v.grants[key] = set
	}
	if _, exists := set[connectorID]; exists {
		return false
	}
	set[connectorID] = struct{}{}
	v.audit.log("grant", key, connectorID)
	return true
}

// Revoke removes a single connector's access to key. Returns false if no
// such grant existed.
func (v *Vault) Revoke(key, connectorID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	set, ok := v.grants[key]
	if !ok {
		return false
	}
	if _, exists := set[connectorID]; !exists {
		return false
	}
	delete(set, connectorID)
	if len(set) == 0 {
		delete(v.grants, key)
	}
	v.audit.log("revoke", key, connectorID)
	return true
}

// RevokeAll removes every grant held by connectorID across all keys,
// returning the number removed. Until a new grant exists, every scoped
// retrieve by that connector fails with permission denied.
func (v *Vault) RevokeAll(connectorID string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for key, set := range v.grants {
		if _, ok := set[connectorID]; !ok {
			continue
		}
		delete(set, connectorID)
		if len(set) == 0 {
			delete(v.grants, key)
		}
		n++
	}
	if n > 0 {
		v.audit.log("revoke_all", "*", connectorID)
	}
	return n
}

// IsAllowed reports whether connectorID may retrieve key. A key with no
// grants recorded at all is treated as ungranted: an explicit grant
// must exist before any non-administrative retrieval succeeds.
func (v *Vault) IsAllowed(connectorID, key string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.isAllowedLocked(connectorID, key)
}

func (v *Vault) isAllowedLocked(connectorID, key string) bool {
	set, ok := v.grants[key]
	if !ok {
		return false
	}
	_, ok = set[connectorID]
	return ok
}

// ListGrants returns the vault keys connectorID may access, sorted.
func (v *Vault) ListGrants(connectorID string) []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []string
	for key, set := range v.grants {
		if _, ok := set[connectorID]; ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

// GrantConnectorAccess grants connectorID access to every vault key named
// in keys, skipping keys that do not exist. Returns the keys actually
// granted.
func (v *Vault) GrantConnectorAccess(connectorID string, keys []string) []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	granted := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, ok := v.entries[key]; !ok {
			continue
		}
		v.grantLocked(key, connectorID)
		granted = append(granted, key)
	}
	return granted
}
