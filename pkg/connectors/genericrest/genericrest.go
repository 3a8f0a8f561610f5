// Package genericrest implements user-declared REST connectors: the
// operation catalog is generated at construction time from a declarative
// endpoint config instead of being hard-coded. Construction validates
// the whole config and fails loudly on violation — a bad user config is
// rejected before the connector can ever register.
package genericrest

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/wisbric/connectorplane/pkg/connector"
)

// MaxEndpoints bounds how many operations one user config may declare.
const MaxEndpoints = 50

// paramNamePattern is the only shape accepted for parameter names at
// execute time; anything else is rejected before URL assembly.
var paramNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

// placeholderPattern finds {name} path placeholders.
var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// EndpointConfig declares one operation of a generic REST connector.
type EndpointConfig struct {
	Path        string `yaml:"path"`
	Method      string `yaml:"method"`
	Name        string `yaml:"name"`
	DefaultTier string `yaml:"default_tier"` // optional tier name; empty uses the method default
}

// Config is the declarative definition a user supplies.
type Config struct {
	ID           string           `yaml:"id"`
	Name         string           `yaml:"name"`
	BaseURL      string           `yaml:"base_url"`
	AuthType     string           `yaml:"auth_type"` // bearer, api_key, basic, oauth2
	AuthVaultKey string           `yaml:"auth_vault_key"`
	Endpoints    []EndpointConfig `yaml:"endpoints"`
}

type Connector struct {
	connector.Base
	cfg        Config
	manifest   connector.ConnectorManifest
	operations []connector.ConnectorOperation
	host       string
}

// New validates cfg and constructs the connector. Validation failures
// are programmer/user errors and abort construction; nothing is coerced.
func New(cfg Config) (*Connector, error) {
	host, err := validateConfig(cfg)
	if err != nil {
		return nil, err
	}

	c := &Connector{
		Base: connector.NewBase(),
		cfg:  cfg,
		host: host,
	}
	c.manifest = connector.ConnectorManifest{
		ID:          cfg.ID,
		Name:        cfg.Name,
		Version:     "1.0.0",
		Author:      "user",
		Source:      connector.SourceUser,
		Description: fmt.Sprintf("User-declared REST connector targeting %s.", host),
		TargetDomains: []string{
			host,
		},
		RequiredCredentials: []connector.CredentialSpec{
			{Name: "API credential", Type: credentialTypeFor(cfg.AuthType), VaultKey: cfg.AuthVaultKey, Required: true},
		},
		DataReads:     []string{"user-declared endpoint responses"},
		DataWrites:    []string{"user-declared endpoint requests"},
		DoesNotAccess: []string{"hosts other than " + host},
	}
	if err := c.manifest.Validate(); err != nil {
		return nil, err
	}

	c.operations = make([]connector.ConnectorOperation, 0, len(cfg.Endpoints))
	for _, ep := range cfg.Endpoints {
		op := connector.ConnectorOperation{
			ID:          endpointOperationID(ep),
			ConnectorID: cfg.ID,
			Capability:  capabilityFor(ep.Method),
			Name:        ep.Name,
			DefaultTier: tierFor(ep),
			Idempotent:  ep.Method == "GET" || ep.Method == "PUT" || ep.Method == "DELETE",
			Reversible:  strings.EqualFold(ep.Method, "GET"),
			Parameters: []connector.ParameterSpec{
				{Name: "params", Type: "dict", Required: false, Description: "Path placeholders and request fields"},
			},
		}
		if err := op.Validate(); err != nil {
			return nil, err
		}
		c.operations = append(c.operations, op)
	}

	return c, nil
}

// validateConfig enforces the construction-time rules and returns the
// base URL's host.
func validateConfig(cfg Config) (string, error) {
	if cfg.ID == "" {
		return "", connector.Newf(connector.KindInvalidManifest, "generic rest: id must not be empty")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return "", connector.Wrap(connector.KindInvalidManifest, err, "generic rest %q: invalid base_url", cfg.ID)
	}
	if u.Scheme != "https" {
		return "", connector.Newf(connector.KindInvalidManifest,
			"generic rest %q: base_url must be https, got %q", cfg.ID, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return "", connector.Newf(connector.KindInvalidManifest, "generic rest %q: base_url has no host", cfg.ID)
	}
	if strings.Contains(host, "*") {
		return "", connector.Newf(connector.KindInvalidManifest,
			"generic rest %q: wildcard hostnames are not allowed", cfg.ID)
	}
	if isForbiddenHost(host) {
		return "", connector.Newf(connector.KindInvalidManifest,
			"generic rest %q: host %q resolves to a loopback or private network", cfg.ID, host)
	}

	if len(cfg.Endpoints) == 0 {
		return "", connector.Newf(connector.KindInvalidManifest, "generic rest %q: at least one endpoint required", cfg.ID)
	}
	if len(cfg.Endpoints) > MaxEndpoints {
		return "", connector.Newf(connector.KindInvalidManifest,
			"generic rest %q: %d endpoints exceeds the limit of %d", cfg.ID, len(cfg.Endpoints), MaxEndpoints)
	}

	switch cfg.AuthType {
	case "bearer", "api_key", "basic", "oauth2":
	default:
		return "", connector.Newf(connector.KindInvalidManifest,
			"generic rest %q: unsupported auth_type %q", cfg.ID, cfg.AuthType)
	}
	if cfg.AuthVaultKey == "" {
		return "", connector.Newf(connector.KindInvalidManifest, "generic rest %q: auth_vault_key must not be empty", cfg.ID)
	}

	seen := make(map[string]struct{}, len(cfg.Endpoints))
	for _, ep := range cfg.Endpoints {
		if !strings.HasPrefix(ep.Path, "/") {
			return "", connector.Newf(connector.KindInvalidManifest,
				"generic rest %q: path %q must begin with /", cfg.ID, ep.Path)
		}
		if strings.Contains(ep.Path, "../") || strings.Contains(ep.Path, `..\`) {
			return "", connector.Newf(connector.KindInvalidManifest,
				"generic rest %q: path %q contains a traversal sequence", cfg.ID, ep.Path)
		}
		switch strings.ToUpper(ep.Method) {
		case "GET", "POST", "PUT", "PATCH", "DELETE":
		default:
			return "", connector.Newf(connector.KindInvalidManifest,
				"generic rest %q: unsupported method %q on %q", cfg.ID, ep.Method, ep.Path)
		}
		id := endpointOperationID(ep)
		if _, dup := seen[id]; dup {
			return "", connector.Newf(connector.KindInvalidManifest,
				"generic rest %q: duplicate endpoint %q", cfg.ID, id)
		}
		seen[id] = struct{}{}
	}

	return host, nil
}

// isForbiddenHost rejects loopback, RFC 1918, and link-local targets.
// Only literal addresses (and the localhost name) are checked: DNS
// resolution at construction time would make validation racy, so
// hostname-based rebinding is left to network-layer egress policy.
func isForbiddenHost(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}

func endpointOperationID(ep EndpointConfig) string {
	cleaned := strings.Trim(strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + 32
		default:
			return '_'
		}
	}, ep.Path), "_")
	return strings.ToLower(ep.Method) + "_" + cleaned
}

func capabilityFor(method string) connector.Capability {
	switch strings.ToUpper(method) {
	case "GET":
		return connector.CapabilityRead
	case "DELETE":
		return connector.CapabilityDelete
	default:
		return connector.CapabilityWrite
	}
}

func tierFor(ep EndpointConfig) connector.RiskTier {
	if ep.DefaultTier != "" {
		return connector.ParseTier(ep.DefaultTier)
	}
	switch strings.ToUpper(ep.Method) {
	case "GET":
		return connector.TierReversible
	case "DELETE":
		return connector.TierIrreversible
	default:
		return connector.TierControlled
	}
}

func credentialTypeFor(authType string) connector.CredentialType {
	switch authType {
	case "api_key":
		return connector.CredentialAPIKey
	case "basic":
		return connector.CredentialBasicAuth
	default:
		return connector.CredentialBearer
	}
}

func (c *Connector) Manifest() *connector.ConnectorManifest { return &c.manifest }

func (c *Connector) ValidateCredentials() bool { return true }

func (c *Connector) Operations() []connector.ConnectorOperation { return c.operations }

func (c *Connector) Execute(operationID string, params map[string]any) (*connector.ConnectorResult, error) {
	var ep *EndpointConfig
	for i := range c.cfg.Endpoints {
		if endpointOperationID(c.cfg.Endpoints[i]) == operationID {
			ep = &c.cfg.Endpoints[i]
			break
		}
	}
	if ep == nil {
		return nil, connector.NotFound(c.cfg.ID, operationID)
	}

	for name := range params {
		if !paramNamePattern.MatchString(name) {
			return nil, connector.Newf(connector.KindInvalidRequestSpec,
				"parameter name %q is not allowed", name)
		}
	}

	path := ep.Path
	substituted := map[string]struct{}{}
	for _, m := range placeholderPattern.FindAllStringSubmatch(ep.Path, -1) {
		name := m[1]
		v, err := connector.StringParam(params, name, true)
		if err != nil {
			return nil, err
		}
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(v))
		substituted[name] = struct{}{}
	}

	method := connector.Method(strings.ToUpper(ep.Method))
	result := &connector.ConnectorResult{
		OperationID:        operationID,
		ConnectorID:        c.cfg.ID,
		Method:             method,
		URL:                strings.TrimRight(c.cfg.BaseURL, "/") + path,
		TimeoutSeconds:     30,
		CredentialVaultKey: c.cfg.AuthVaultKey,
		Metadata:           map[string]string{"auth_type": c.cfg.AuthType},
	}

	// GET and DELETE carry no body; every other method echoes the
	// non-placeholder params back as the JSON body.
	if method != connector.MethodGet && method != connector.MethodDelete {
		body := make(map[string]any, len(params))
		for name, v := range params {
			if _, used := substituted[name]; used {
				continue
			}
			body[name] = v
		}
		result.Body = connector.JSONBody(body)
	}

	return result, nil
}

