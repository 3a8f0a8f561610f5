package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wisbric/connectorplane/pkg/connector"
)

// storeCredentialRequest is the POST /connectors/{id}/credentials body.
type storeCredentialRequest struct {
	VaultKey string `json:"vault_key" validate:"required"`
	Value    string `json:"value" validate:"required"`
	Type     string `json:"type" validate:"required,oneof=oauth_token bearer api_key basic_auth bot_token config"`
}

// credentialStatus is one row of the status listing. Values never appear
// here — only presence.
type credentialStatus struct {
	Name     string `json:"name"`
	VaultKey string `json:"vault_key"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Present  bool   `json:"present"`
}

// declaredCredential finds vaultKey among the manifest's required
// credentials, or nil.
func declaredCredential(m *connector.ConnectorManifest, vaultKey string) *connector.CredentialSpec {
	for i := range m.RequiredCredentials {
		if m.RequiredCredentials[i].VaultKey == vaultKey {
			return &m.RequiredCredentials[i]
		}
	}
	return nil
}

func (s *Server) handleStoreCredential(w http.ResponseWriter, r *http.Request) {
	connectorID := chi.URLParam(r, "connector_id")
	entry, ok := s.registry.Get(connectorID)
	if !ok {
		RespondError(w, http.StatusNotFound, "connector_not_found", "unknown connector "+connectorID)
		return
	}

	var req storeCredentialRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	if declaredCredential(entry.Manifest, req.VaultKey) == nil {
		RespondError(w, http.StatusBadRequest, "undeclared_vault_key",
			"vault key "+req.VaultKey+" is not declared by connector "+connectorID)
		return
	}

	if _, err := s.vault.Store(req.VaultKey, req.Value, connector.CredentialType(req.Type)); err != nil {
		s.Logger.Error("storing credential failed", "connector_id", connectorID, "vault_key", req.VaultKey, "error", err)
		RespondError(w, http.StatusInternalServerError, "store_failed", "could not store credential")
		return
	}
	s.vault.Grant(req.VaultKey, connectorID)

	Respond(w, http.StatusCreated, map[string]string{
		"vault_key": req.VaultKey,
		"type":      req.Type,
	})
}

func (s *Server) handleCredentialStatus(w http.ResponseWriter, r *http.Request) {
	connectorID := chi.URLParam(r, "connector_id")
	entry, ok := s.registry.Get(connectorID)
	if !ok {
		RespondError(w, http.StatusNotFound, "connector_not_found", "unknown connector "+connectorID)
		return
	}

	specs := entry.Manifest.RequiredCredentials
	present := s.vault.CheckRequirements(specs)

	out := make([]credentialStatus, 0, len(specs))
	for _, spec := range specs {
		out = append(out, credentialStatus{
			Name:     spec.Name,
			VaultKey: spec.VaultKey,
			Type:     string(spec.Type),
			Required: spec.Required,
			Present:  present[spec.VaultKey],
		})
	}
	Respond(w, http.StatusOK, map[string]any{"credentials": out})
}

func (s *Server) handleDeleteCredential(w http.ResponseWriter, r *http.Request) {
	connectorID := chi.URLParam(r, "connector_id")
	vaultKey := chi.URLParam(r, "vault_key")
	if _, ok := s.registry.Get(connectorID); !ok {
		RespondError(w, http.StatusNotFound, "connector_not_found", "unknown connector "+connectorID)
		return
	}

	s.vault.Revoke(vaultKey, connectorID)
	deleted, err := s.vault.Delete(vaultKey)
	if err != nil {
		s.Logger.Error("deleting credential failed", "connector_id", connectorID, "vault_key", vaultKey, "error", err)
		RespondError(w, http.StatusInternalServerError, "delete_failed", "could not delete credential")
		return
	}
	Respond(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (s *Server) handleValidateCredentials(w http.ResponseWriter, r *http.Request) {
	connectorID := chi.URLParam(r, "connector_id")
	entry, ok := s.registry.Get(connectorID)
	if !ok {
		RespondError(w, http.StatusNotFound, "connector_not_found", "unknown connector "+connectorID)
		return
	}

	specs := entry.Manifest.RequiredCredentials
	present := s.vault.CheckRequirements(specs)

	missing := make([]string, 0)
	for _, spec := range specs {
		if !spec.Required {
			continue
		}
		if !present[spec.VaultKey] {
			missing = append(missing, spec.VaultKey)
			continue
		}
		// oauth-typed secrets get an extra liveness check: an entry that
		// projects to an invalid oauth2 token counts as missing.
		if spec.Type == connector.CredentialOAuthToken || spec.Type == connector.CredentialBearer {
			tok, err := s.vault.OAuthToken(spec.VaultKey, "")
			if err != nil || !tok.Valid() {
				missing = append(missing, spec.VaultKey)
			}
		}
	}

	Respond(w, http.StatusOK, map[string]any{
		"missing":           missing,
		"credentials_valid": len(missing) == 0 && entry.Connector.ValidateCredentials(),
	})
}
