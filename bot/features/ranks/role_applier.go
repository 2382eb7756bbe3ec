package ranks

import (
	"context"
	"fmt"

	"leetbot/application"
	"leetbot/bot/common"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// RoleSession is the part of the Discord session needed to move roles
type RoleSession interface {
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
}

// RoleApplier moves tier roles between guild members
type RoleApplier struct {
	session RoleSession
}

var _ application.RoleApplier = (*RoleApplier)(nil)

// NewRoleApplier creates a new role applier
func NewRoleApplier(session RoleSession) *RoleApplier {
	return &RoleApplier{session: session}
}

// ApplyAssignment removes the role from the old holder before granting it to the new one.
// A failed removal does not stop the grant so the new holder is never left without the role.
func (r *RoleApplier) ApplyAssignment(ctx context.Context, assignment application.RoleAssignment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	guildID := common.FormatUserID(assignment.GuildID)
	roleID := common.FormatUserID(assignment.RoleID)

	var removeErr error
	if assignment.OldHolder != 0 && assignment.OldHolder != assignment.NewHolder {
		removeErr = r.session.GuildMemberRoleRemove(guildID, common.FormatUserID(assignment.OldHolder), roleID, discordgo.WithContext(ctx))
		if removeErr != nil {
			log.WithFields(log.Fields{
				"guild_id": assignment.GuildID,
				"tier":     assignment.Tier,
				"user_id":  assignment.OldHolder,
			}).WithError(removeErr).Warn("Failed to remove tier role")
		}
	}

	if assignment.NewHolder != 0 {
		if err := r.session.GuildMemberRoleAdd(guildID, common.FormatUserID(assignment.NewHolder), roleID, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("failed to add %s role to %d: %w", assignment.Tier, assignment.NewHolder, err)
		}
	}

	if removeErr != nil {
		return fmt.Errorf("failed to remove %s role from %d: %w", assignment.Tier, assignment.OldHolder, removeErr)
	}

	log.WithFields(log.Fields{
		"guild_id":   assignment.GuildID,
		"tier":       assignment.Tier,
		"old_holder": assignment.OldHolder,
		"new_holder": assignment.NewHolder,
	}).Info("Tier role updated")
	return nil
}
