// Package proxy implements the outbound request pipeline: the
// only component in the system allowed to perform outbound HTTP. It
// resolves the connector, checks the rate limiter, dispatches
// protocol:// requests to the protocol adapter, validates the target
// domain, injects credentials, and issues the transport call over a
// shared *http.Client.
package proxy

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/wisbric/connectorplane/internal/telemetry"
	"github.com/wisbric/connectorplane/pkg/connector"
	"github.com/wisbric/connectorplane/pkg/protocoladapter"
	"github.com/wisbric/connectorplane/pkg/ratelimit"
)

// RegistryLookup is the subset of the registry's contract the proxy
// depends on, so it can be tested against a fake without constructing a
// full registry.
type RegistryLookup interface {
	Get(connectorID string) (Manifest, bool)
}

// Manifest is the subset of *connector.ConnectorManifest the proxy reads.
type Manifest interface {
	HasTargetDomain(host string) bool
}

// VaultLookup is the subset of the vault's contract the proxy depends on.
type VaultLookup interface {
	Retrieve(key, accessorID string) (string, error)
	Describe(key string) (VaultDescription, bool)
}

// VaultDescription mirrors vault.Description without importing pkg/vault,
// keeping the proxy decoupled from the vault's storage implementation.
type VaultDescription struct {
	Type connector.CredentialType
}

// RateLimiter is the subset of the rate limiter registry's contract the
// proxy depends on.
type RateLimiter interface {
	Check(connectorID string) bool
}

// Proxy owns the shared HTTP client ("session pool") and its three
// collaborators. It does not own them: they are constructed and wired in
// by the governed proxy / application wiring layer.
type Proxy struct {
	client       *http.Client
	registry     RegistryLookup
	vault        VaultLookup
	rateLimiter  RateLimiter
	adapter      *protocoladapter.Adapter
	requestCount atomic.Int64
}

// New constructs a Proxy. rateLimiter and adapter may be nil for
// deployments that need neither admission control nor mail protocols.
func New(registry RegistryLookup, vault VaultLookup, rateLimiter RateLimiter, adapter *protocoladapter.Adapter) *Proxy {
	return &Proxy{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		registry:    registry,
		vault:       vault,
		rateLimiter: rateLimiter,
		adapter:     adapter,
	}
}

const tokenPlaceholder = "{token}"

// Execute runs the fixed pipeline — resolve, rate-check, protocol
// dispatch, domain validation, credential injection, transport — and
// always returns a well-formed ConnectorResponse, never an error: every
// failure path is represented in the response itself.
func (p *Proxy) Execute(ctx context.Context, result *connector.ConnectorResult) *connector.ConnectorResponse {
	start := time.Now()

	// Step 1: resolve connector.
	manifest, ok := p.registry.Get(result.ConnectorID)
	if !ok {
		return errResponse(result, connector.Newf(connector.KindConnectorNotFound,
			"Connector %q not found", result.ConnectorID), start)
	}

	// Step 2: rate-limit check.
	if p.rateLimiter != nil && !p.rateLimiter.Check(result.ConnectorID) {
		resp := errResponse(result, connector.Newf(connector.KindRateLimited,
			"connector %q is rate limited", result.ConnectorID), start)
		resp.StatusCode = 429
		return resp
	}

	// Step 3: protocol dispatch. The request counter covers protocol
	// traffic too — the adapter call is still one outbound request.
	if strings.HasPrefix(result.URL, "protocol://") {
		if p.adapter == nil {
			return errResponse(result, connector.Newf(connector.KindTransportError,
				"no protocol adapter configured for %q", result.URL), start)
		}
		p.requestCount.Add(1)
		telemetry.ProxyRequestsTotal.WithLabelValues(result.ConnectorID, "protocol").Inc()
		return p.adapter.Dispatch(result)
	}

	// Step 4: domain validation, with {token} substituted by a fixed
	// placeholder first so validation never depends on the secret value.
	validationURL := strings.ReplaceAll(result.URL, tokenPlaceholder, "placeholder")
	host, err := hostOf(validationURL)
	if err != nil {
		return errResponse(result, connector.Wrap(connector.KindDomainNotAllowed, err,
			"could not parse url %q", result.URL), start)
	}
	if !manifest.HasTargetDomain(host) {
		return errResponse(result, connector.Newf(connector.KindDomainNotAllowed,
			"host %q is not an allowed target domain for connector %q", host, result.ConnectorID), start)
	}

	// Step 5: credential injection.
	finalURL, headers, err := p.injectCredentials(result)
	if err != nil {
		return errResponse(result, err, start)
	}

	// Step 6: transport.
	return p.transport(ctx, result, finalURL, headers, start)
}

func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return u.Host, nil
}

func (p *Proxy) injectCredentials(result *connector.ConnectorResult) (string, map[string]string, error) {
	headers := make(map[string]string, len(result.Headers)+1)
	for k, v := range result.Headers {
		headers[k] = v
	}

	finalURL := result.URL
	authType := result.MetadataAuthType()

	switch authType {
	case "url_token":
		secret, err := p.vault.Retrieve(result.CredentialVaultKey, result.ConnectorID)
		if err != nil {
			return "", nil, vaultErr(err)
		}
		finalURL = strings.ReplaceAll(finalURL, tokenPlaceholder, secret)

	case "oauth1":
		creds, err := p.resolveOAuth1Credentials(result)
		if err != nil {
			return "", nil, err
		}
		header, err := signOAuth1(string(result.Method), finalURL, creds)
		if err != nil {
			return "", nil, connector.Wrap(connector.KindOAuthSigningError, err, "oauth1 signing failed")
		}
		headers["Authorization"] = header

	case "basic_auth_composed":
		usernameKey := result.Metadata["basic_auth_username_key"]
		username, err := p.vault.Retrieve(usernameKey, result.ConnectorID)
		if err != nil {
			return "", nil, vaultErr(err)
		}
		password, err := p.vault.Retrieve(result.CredentialVaultKey, result.ConnectorID)
		if err != nil {
			return "", nil, vaultErr(err)
		}
		encoded := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers["Authorization"] = "Basic " + encoded

	default:
		if result.CredentialVaultKey == "" {
			break
		}
		secret, err := p.vault.Retrieve(result.CredentialVaultKey, result.ConnectorID)
		if err != nil {
			return "", nil, vaultErr(err)
		}
		desc, _ := p.vault.Describe(result.CredentialVaultKey)
		if desc.Type == connector.CredentialAPIKey {
			headers["X-API-Key"] = secret
		} else {
			headers["Authorization"] = headerForCredentialType(desc.Type, secret)
		}
	}

	return finalURL, headers, nil
}

func headerForCredentialType(typ connector.CredentialType, secret string) string {
	switch typ {
	case connector.CredentialBasicAuth:
		return "Basic " + secret
	case connector.CredentialBotToken:
		return "Bot " + secret
	default:
		return "Bearer " + secret
	}
}

func (p *Proxy) resolveOAuth1Credentials(result *connector.ConnectorResult) (oauth1Credentials, error) {
	keyNames := [4]string{
		result.Metadata["oauth_consumer_key"],
		result.Metadata["oauth_consumer_secret"],
		result.Metadata["oauth_token_key"],
		result.Metadata["oauth_token_secret"],
	}
	values := [4]string{}
	for i, keyName := range keyNames {
		v, err := p.vault.Retrieve(keyName, result.ConnectorID)
		if err != nil {
			return oauth1Credentials{}, vaultErr(err)
		}
		values[i] = v
	}
	return oauth1Credentials{
		ConsumerKey:    values[0],
		ConsumerSecret: values[1],
		TokenKey:       values[2],
		TokenSecret:    values[3],
	}, nil
}

// vaultErr rewraps a vault error so the secret value (never present in
// these errors, but the key name is) is preserved while the kind is
// normalized for the response.
func vaultErr(err error) error {
	if cerr, ok := err.(*connector.Error); ok {
		return cerr
	}
	return connector.Wrap(connector.KindTransportError, err, "vault retrieval failed")
}

// RequestCount reports how many outbound requests (HTTP and protocol)
// the proxy has dispatched since construction.
func (p *Proxy) RequestCount() int64 { return p.requestCount.Load() }

func (p *Proxy) transport(ctx context.Context, result *connector.ConnectorResult, finalURL string, headers map[string]string, start time.Time) *connector.ConnectorResponse {
	p.requestCount.Add(1)
	telemetry.ProxyRequestsTotal.WithLabelValues(result.ConnectorID, "http").Inc()
	defer func() {
		telemetry.ProxyRequestDuration.WithLabelValues(result.ConnectorID).Observe(time.Since(start).Seconds())
	}()

	var bodyReader io.Reader
	contentType := headers["Content-Type"]

	switch {
	case contentType == "application/x-www-form-urlencoded" && result.Body.Kind == connector.BodyForm:
		bodyReader = strings.NewReader(result.Body.Form)
	case result.Body.Kind == connector.BodyJSON:
		encoded, err := json.Marshal(result.Body.JSON)
		if err != nil {
			return errResponse(result, connector.Wrap(connector.KindInvalidRequestSpec, err, "encoding json body"), start)
		}
		bodyReader = bytes.NewReader(encoded)
		if contentType == "" {
			headers["Content-Type"] = "application/json"
		}
	case result.Body.Kind == connector.BodyForm:
		bodyReader = strings.NewReader(result.Body.Form)
	}

	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(result.TimeoutSeconds)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, string(result.Method), finalURL, bodyReader)
	if err != nil {
		return errResponse(result, connector.Wrap(connector.KindTransportError, err, "building request"), start)
	}
	for k, v := range headers {
		if v == "" {
			continue
		}
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		r := errResponse(result, connector.Wrap(connector.KindTransportError, err, "request failed"), start)
		return r
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errResponse(result, connector.Wrap(connector.KindTransportError, err, "reading response body"), start)
	}

	respHeaders := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		respHeaders[k] = resp.Header.Get(k)
	}

	var parsedBody any
	if err := json.Unmarshal(raw, &parsedBody); err != nil {
		parsedBody = string(raw)
	}

	success := resp.StatusCode > 0 && resp.StatusCode < 400
	return &connector.ConnectorResponse{
		OperationID: result.OperationID,
		ConnectorID: result.ConnectorID,
		StatusCode:  resp.StatusCode,
		Headers:     respHeaders,
		Body:        parsedBody,
		ElapsedMS:   time.Since(start).Milliseconds(),
		Success:     success,
	}
}

func errResponse(result *connector.ConnectorResult, err error, start time.Time) *connector.ConnectorResponse {
	var cerr *connector.Error
	if asCerr, ok := err.(*connector.Error); ok {
		cerr = asCerr
	} else {
		cerr = connector.Wrap(connector.KindTransportError, err, "%s", err.Error())
	}
	resp := connector.ErrorResponse(result.OperationID, result.ConnectorID, cerr)
	resp.ElapsedMS = time.Since(start).Milliseconds()
	return resp
}
