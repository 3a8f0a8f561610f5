package twilio

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wisbric/connectorplane/pkg/connector"
)

func TestSendSMSBuildsFormBody(t *testing.T) {
	c := New()
	result, err := c.Execute("send_sms", map[string]any{
		"account_sid": "AC123",
		"to":          "+15551234567",
		"body":        "Test",
		"from":        "+15550000000",
	})
	require.NoError(t, err)
	require.NoError(t, result.Validate())
	require.Equal(t, connector.MethodPost, result.Method)
	require.Equal(t, "https://api.twilio.com/2010-04-01/Accounts/AC123/Messages.json", result.URL)
	require.Equal(t, "application/x-www-form-urlencoded", result.Headers["Content-Type"])
	require.Equal(t, connector.BodyForm, result.Body.Kind)

	form, err := url.ParseQuery(result.Body.Form)
	require.NoError(t, err)
	require.Equal(t, "+15551234567", form.Get("To"))
	require.Equal(t, "Test", form.Get("Body"))
	require.Equal(t, "+15550000000", form.Get("From"))
	require.Empty(t, form.Get("MessagingServiceSid"))
	// Percent-encoding, not JSON: the plus signs must be escaped in the
	// raw form string.
	require.Contains(t, result.Body.Form, "%2B15551234567")
}

func TestSendSMSRequiresExactlyOneSender(t *testing.T) {
	c := New()

	_, err := c.Execute("send_sms", map[string]any{
		"account_sid": "AC123", "to": "+15551234567", "body": "Test",
	})
	require.Error(t, err)

	_, err = c.Execute("send_sms", map[string]any{
		"account_sid": "AC123", "to": "+15551234567", "body": "Test",
		"from": "+15550000000", "messaging_service_sid": "MG1",
	})
	require.Error(t, err)

	_, err = c.Execute("send_sms", map[string]any{
		"account_sid": "AC123", "to": "+15551234567", "body": "Test",
		"messaging_service_sid": "MG1",
	})
	require.NoError(t, err)
}

func TestSendSMSUsesComposedBasicAuth(t *testing.T) {
	c := New()
	result, err := c.Execute("send_sms", map[string]any{
		"account_sid": "AC123", "to": "+1", "body": "b", "from": "+2",
	})
	require.NoError(t, err)
	require.Equal(t, "basic_auth_composed", result.Metadata["auth_type"])
	require.Equal(t, "twilio.account_sid", result.Metadata["basic_auth_username_key"])
	require.Equal(t, "twilio.auth_token", result.CredentialVaultKey)
	require.Equal(t, "true", result.Metadata["billable"])
}

func TestSendSMSIsIrreversible(t *testing.T) {
	c := New()
	op := connector.OperationByID(c.Operations(), "send_sms")
	require.NotNil(t, op)
	require.Equal(t, connector.TierIrreversible, op.DefaultTier)
	require.False(t, op.Reversible)
}
