// Package calendar implements the Google Calendar connector:
// event-resource paths plus the sendUpdates notification knob.
package calendar

import (
	"fmt"

	"github.com/wisbric/connectorplane/pkg/connector"
)

const (
	connectorID = "calendar"
	apiBase     = "https://www.googleapis.com/calendar/v3"
	vaultKey    = "calendar.oauth_token"
)

type Connector struct {
	connector.Base
	manifest connector.ConnectorManifest
}

func New() *Connector {
	return &Connector{
		Base: connector.NewBase(),
		manifest: connector.ConnectorManifest{
			ID:          connectorID,
			Name:        "Google Calendar",
			Version:     "1.0.0",
			Author:      "connectorplane",
			Source:      connector.SourceFirstParty,
			Description: "Reads and manages events via the Google Calendar API.",
			TargetDomains: []string{
				"www.googleapis.com",
			},
			RequiredCredentials: []connector.CredentialSpec{
				{Name: "Calendar OAuth token", Type: connector.CredentialOAuthToken, VaultKey: vaultKey, Required: true,
					Scopes: []string{"https://www.googleapis.com/auth/calendar.events"}},
			},
			DataReads:     []string{"calendar list", "event details", "attendee lists"},
			DataWrites:    []string{"created events", "event updates", "deletions"},
			DoesNotAccess: []string{"calendar sharing ACLs", "other users' calendars"},
		},
	}
}

func (c *Connector) Manifest() *connector.ConnectorManifest { return &c.manifest }

func (c *Connector) ValidateCredentials() bool { return true }

func (c *Connector) Operations() []connector.ConnectorOperation {
	return []connector.ConnectorOperation{
		{ID: "list_calendars", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "List calendars", DefaultTier: connector.TierInert, Idempotent: true, Reversible: true},
		{ID: "list_events", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "List events", DefaultTier: connector.TierInert, Idempotent: true, Reversible: true,
			Parameters: []connector.ParameterSpec{{Name: "calendar_id", Type: "str", Required: false, Default: "primary"}}},
		{ID: "get_event", ConnectorID: connectorID, Capability: connector.CapabilityRead,
			Name: "Get event", DefaultTier: connector.TierReversible, Idempotent: true, Reversible: true,
			Parameters: []connector.ParameterSpec{
				{Name: "calendar_id", Type: "str", Required: false, Default: "primary"},
				{Name: "event_id", Type: "str", Required: true},
			}},
		{ID: "create_event", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Create event", DefaultTier: connector.TierControlled, Idempotent: false, Reversible: true,
			RollbackOperationID: "delete_event",
			Parameters: []connector.ParameterSpec{
				{Name: "calendar_id", Type: "str", Required: false, Default: "primary"},
				{Name: "summary", Type: "str", Required: true},
				{Name: "start", Type: "str", Required: true, Description: "RFC 3339 start time"},
				{Name: "end", Type: "str", Required: true, Description: "RFC 3339 end time"},
				{Name: "attendees", Type: "list[str]", Required: false},
				{Name: "send_updates", Type: "str", Required: false, Default: "none",
					Description: "Passed through as sendUpdates: all, externalOnly, or none"},
			}},
		{ID: "update_event", ConnectorID: connectorID, Capability: connector.CapabilityWrite,
			Name: "Update event", DefaultTier: connector.TierControlled, Idempotent: true, Reversible: true,
			RollbackOperationID: "update_event",
			Parameters: []connector.ParameterSpec{
				{Name: "calendar_id", Type: "str", Required: false, Default: "primary"},
				{Name: "event_id", Type: "str", Required: true},
				{Name: "summary", Type: "str", Required: false},
				{Name: "start", Type: "str", Required: false},
				{Name: "end", Type: "str", Required: false},
				{Name: "send_updates", Type: "str", Required: false, Default: "none"},
			}},
		{ID: "delete_event", ConnectorID: connectorID, Capability: connector.CapabilityDelete,
			Name: "Delete event", DefaultTier: connector.TierIrreversible, Idempotent: true, Reversible: false,
			Parameters: []connector.ParameterSpec{
				{Name: "calendar_id", Type: "str", Required: false, Default: "primary"},
				{Name: "event_id", Type: "str", Required: true},
				{Name: "send_updates", Type: "str", Required: false, Default: "none"},
			}},
	}
}

func (c *Connector) Execute(operationID string, params map[string]any) (*connector.ConnectorResult, error) {
	op := connector.OperationByID(c.Operations(), operationID)
	if op == nil {
		return nil, connector.NotFound(connectorID, operationID)
	}

	base := &connector.ConnectorResult{
		OperationID:        operationID,
		ConnectorID:        connectorID,
		CredentialVaultKey: vaultKey,
		TimeoutSeconds:     15,
		Metadata:           map[string]string{},
	}

	calendarID := connector.OptionalString(params, "calendar_id", "primary")
	sendUpdates := connector.OptionalString(params, "send_updates", "none")

	switch operationID {
	case "list_calendars":
		base.Method = connector.MethodGet
		base.URL = apiBase + "/users/me/calendarList"

	case "list_events":
		base.Method = connector.MethodGet
		base.URL = fmt.Sprintf("%s/calendars/%s/events", apiBase, calendarID)

	case "get_event":
		eventID, err := connector.StringParam(params, "event_id", true)
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodGet
		base.URL = fmt.Sprintf("%s/calendars/%s/events/%s", apiBase, calendarID, eventID)

	case "create_event":
		summary, err := connector.StringParam(params, "summary", true)
		if err != nil {
			return nil, err
		}
		start, err := connector.StringParam(params, "start", true)
		if err != nil {
			return nil, err
		}
		end, err := connector.StringParam(params, "end", true)
		if err != nil {
			return nil, err
		}
		body := map[string]any{
			"summary": summary,
			"start":   map[string]string{"dateTime": start},
			"end":     map[string]string{"dateTime": end},
		}
		if attendees := connector.StringSliceParam(params, "attendees"); len(attendees) > 0 {
			list := make([]map[string]string, 0, len(attendees))
			for _, a := range attendees {
				list = append(list, map[string]string{"email": a})
			}
			body["attendees"] = list
		}
		base.Method = connector.MethodPost
		base.URL = fmt.Sprintf("%s/calendars/%s/events?sendUpdates=%s", apiBase, calendarID, sendUpdates)
		base.Body = connector.JSONBody(body)

	case "update_event":
		eventID, err := connector.StringParam(params, "event_id", true)
		if err != nil {
			return nil, err
		}
		body := map[string]any{}
		if summary := connector.OptionalString(params, "summary", ""); summary != "" {
			body["summary"] = summary
		}
		if start := connector.OptionalString(params, "start", ""); start != "" {
			body["start"] = map[string]string{"dateTime": start}
		}
		if end := connector.OptionalString(params, "end", ""); end != "" {
			body["end"] = map[string]string{"dateTime": end}
		}
		base.Method = connector.MethodPatch
		base.URL = fmt.Sprintf("%s/calendars/%s/events/%s?sendUpdates=%s", apiBase, calendarID, eventID, sendUpdates)
		base.Body = connector.JSONBody(body)

	case "delete_event":
		eventID, err := connector.StringParam(params, "event_id", true)
		if err != nil {
			return nil, err
		}
		base.Method = connector.MethodDelete
		base.URL = fmt.Sprintf("%s/calendars/%s/events/%s?sendUpdates=%s", apiBase, calendarID, eventID, sendUpdates)

	default:
		return nil, connector.NotFound(connectorID, operationID)
	}

	return base, nil
}
