// Package connectors gathers the first-party connector constructors so
// application wiring can register the whole catalog in one pass.
package connectors

import (
	"github.com/wisbric/connectorplane/pkg/connector"
	"github.com/wisbric/connectorplane/pkg/connectors/calendar"
	"github.com/wisbric/connectorplane/pkg/connectors/discord"
	"github.com/wisbric/connectorplane/pkg/connectors/echo"
	"github.com/wisbric/connectorplane/pkg/connectors/email"
	"github.com/wisbric/connectorplane/pkg/connectors/gmail"
	"github.com/wisbric/connectorplane/pkg/connectors/outlook"
	"github.com/wisbric/connectorplane/pkg/connectors/slack"
	"github.com/wisbric/connectorplane/pkg/connectors/teams"
	"github.com/wisbric/connectorplane/pkg/connectors/telegram"
	"github.com/wisbric/connectorplane/pkg/connectors/twilio"
	"github.com/wisbric/connectorplane/pkg/connectors/whatsapp"
	"github.com/wisbric/connectorplane/pkg/connectors/x"
)

// BuiltIn returns a fresh instance of every first-party connector.
// Generic REST connectors are user-declared and constructed separately
// from their own configs.
func BuiltIn() []connector.Connector {
	return []connector.Connector{
		slack.New(),
		discord.New(),
		teams.New(),
		gmail.New(),
		outlook.New(),
		email.New(),
		whatsapp.New(),
		telegram.New(),
		twilio.New(),
		x.New(),
		calendar.New(),
		echo.New(),
	}
}
