package outlook

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wisbric/connectorplane/pkg/connector"
)

func TestSendMessageBuildsSendMailRequest(t *testing.T) {
	c := New()
	result, err := c.Execute("send_message", map[string]any{
		"to": "bob@example.com", "subject": "Hi", "body": "Hello",
	})
	require.NoError(t, err)
	require.NoError(t, result.Validate())
	require.Equal(t, "https://graph.microsoft.com/v1.0/me/sendMail", result.URL)

	body, ok := result.Body.JSON.(map[string]any)
	require.True(t, ok)
	msg, ok := body["message"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "Hi", msg["subject"])
}

func TestMoveMessageIsReversible(t *testing.T) {
	c := New()
	op := connector.OperationByID(c.Operations(), "move_message")
	require.NotNil(t, op)
	require.True(t, op.Reversible)
	require.Equal(t, "move_message", op.RollbackOperationID)
}

func TestDeleteMessageCarriesNoBody(t *testing.T) {
	c := New()
	result, err := c.Execute("delete_message", map[string]any{"message_id": "m1"})
	require.NoError(t, err)
	require.True(t, result.Body.IsNil())
}
