package settings

import (
	"leetbot/application"

	"github.com/bwmarrin/discordgo"
)

// CommandSettings is the name of the admin settings command
const CommandSettings = "1337-settings"

// Feature handles guild settings management
type Feature struct {
	session    *discordgo.Session
	uowFactory application.UnitOfWorkFactory
	game       *application.Game
}

// NewFeature creates a new settings feature instance
func NewFeature(session *discordgo.Session, uowFactory application.UnitOfWorkFactory, game *application.Game) *Feature {
	return &Feature{
		session:    session,
		uowFactory: uowFactory,
		game:       game,
	}
}

// HandleCommand routes settings commands to appropriate handlers
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return
	}

	switch options[0].Name {
	case "enable":
		f.handleEnable(s, i)
	case "channel":
		f.handleChannel(s, i)
	case "role":
		f.handleRole(s, i)
	case "show":
		f.handleShow(s, i)
	}
}
