package leet

import (
	"leetbot/application"

	"github.com/bwmarrin/discordgo"
)

// Command names
const (
	CommandBet       = "1337"
	CommandEarlyBird = "1337-early-bird"
	CommandInfo      = "1337-info"
	CommandRules     = "1337-rules"
)

// Feature handles the betting and information commands of the game
type Feature struct {
	session    *discordgo.Session
	uowFactory application.UnitOfWorkFactory
	game       *application.Game
}

// NewFeature creates a new leet feature instance
func NewFeature(session *discordgo.Session, uowFactory application.UnitOfWorkFactory, game *application.Game) *Feature {
	return &Feature{
		session:    session,
		uowFactory: uowFactory,
		game:       game,
	}
}

// HandleCommand routes game commands to appropriate handlers
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case CommandBet:
		f.handleBet(s, i)
	case CommandEarlyBird:
		f.handleEarlyBird(s, i)
	case CommandInfo:
		f.handleInfo(s, i)
	case CommandRules:
		f.handleRules(s, i)
	}
}
