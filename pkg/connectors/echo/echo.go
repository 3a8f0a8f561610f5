// Package echo implements a minimal first-party connector used for
// integration tests and local development: it targets no production
// service and always builds a request against httpbin-style echo
// endpoints.
package echo

import (
	"github.com/wisbric/connectorplane/pkg/connector"
)

const connectorID = "echo"

// Connector is the trivial reference implementation used to exercise the
// registry, proxy, and classifier without calling a real third party.
type Connector struct {
	connector.Base
	manifest connector.ConnectorManifest
}

// New constructs the echo connector.
func New() *Connector {
	return &Connector{
		Base: connector.NewBase(),
		manifest: connector.ConnectorManifest{
			ID:          connectorID,
			Name:        "Echo",
			Version:     "1.0.0",
			Author:      "connectorplane",
			Source:      connector.SourceFirstParty,
			Description: "Reflects requests back for integration testing.",
			TargetDomains: []string{
				"httpbin.org",
			},
			DataReads:     []string{"request body"},
			DataWrites:    nil,
			DoesNotAccess: []string{"any production system"},
		},
	}
}

func (c *Connector) Manifest() *connector.ConnectorManifest { return &c.manifest }

func (c *Connector) ValidateCredentials() bool { return true }

// Operations exposes a read, a write, and a delete, matched by httpbin's
// own /get, /post, and /delete endpoints.
func (c *Connector) Operations() []connector.ConnectorOperation {
	return []connector.ConnectorOperation{
		{
			ID:          "get",
			ConnectorID: connectorID,
			Capability:  connector.CapabilityRead,
			Name:        "Get",
			Description: "Issues a GET and reflects query parameters.",
			DefaultTier: connector.TierInert,
			Parameters: []connector.ParameterSpec{
				{Name: "message", Type: "str", Required: false, Description: "value to echo back"},
			},
			Idempotent: true,
			Reversible: true,
		},
		{
			ID:          "post",
			ConnectorID: connectorID,
			Capability:  connector.CapabilityWrite,
			Name:        "Post",
			Description: "Issues a POST and reflects the JSON body.",
			DefaultTier: connector.TierReversible,
			Parameters: []connector.ParameterSpec{
				{Name: "message", Type: "str", Required: true, Description: "value to echo back"},
			},
			Idempotent: false,
			Reversible: false,
		},
		{
			ID:          "delete",
			ConnectorID: connectorID,
			Capability:  connector.CapabilityDelete,
			Name:        "Delete",
			Description: "Issues a DELETE and reflects the request.",
			DefaultTier: connector.TierControlled,
			Idempotent:  true,
			Reversible:  false,
		},
	}
}

// Execute is pure: it assembles a ConnectorResult and performs no I/O.
func (c *Connector) Execute(operationID string, params map[string]any) (*connector.ConnectorResult, error) {
	op := connector.OperationByID(c.Operations(), operationID)
	if op == nil {
		return nil, connector.NotFound(connectorID, operationID)
	}

	switch operationID {
	case "get":
		msg := connector.OptionalString(params, "message", "")
		url := "https://httpbin.org/get"
		if msg != "" {
			url += "?message=" + msg
		}
		return &connector.ConnectorResult{
			OperationID:    operationID,
			ConnectorID:    connectorID,
			Method:         connector.MethodGet,
			URL:            url,
			TimeoutSeconds: 10,
		}, nil

	case "post":
		msg, err := connector.StringParam(params, "message", true)
		if err != nil {
			return nil, err
		}
		return &connector.ConnectorResult{
			OperationID:    operationID,
			ConnectorID:    connectorID,
			Method:         connector.MethodPost,
			URL:            "https://httpbin.org/post",
			Body:           connector.JSONBody(map[string]string{"message": msg}),
			TimeoutSeconds: 10,
		}, nil

	case "delete":
		return &connector.ConnectorResult{
			OperationID:    operationID,
			ConnectorID:    connectorID,
			Method:         connector.MethodDelete,
			URL:            "https://httpbin.org/delete",
			TimeoutSeconds: 10,
		}, nil

	default:
		return nil, connector.NotFound(connectorID, operationID)
	}
}
