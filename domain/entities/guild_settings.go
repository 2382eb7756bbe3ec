package entities

// GuildSettings represents per-guild configuration of the game
type GuildSettings struct {
	GuildID               int64  `db:"guild_id"`
	Enabled               bool   `db:"enabled"`
	AnnouncementChannelID *int64 `db:"announcement_channel_id"` // Nullable - channel for winner announcements
	SergeantRoleID        *int64 `db:"sergeant_role_id"`        // Nullable - role for the daily tier
	CommanderRoleID       *int64 `db:"commander_role_id"`       // Nullable - role for the 14-day tier
	GeneralRoleID         *int64 `db:"general_role_id"`         // Nullable - role for the 365-day tier
}

// HasAnnouncementChannel checks if an announcement channel is configured
func (gs *GuildSettings) HasAnnouncementChannel() bool {
	return gs.AnnouncementChannelID != nil && *gs.AnnouncementChannelID > 0
}

// RoleFor returns the Discord role configured for a tier, if any
func (gs *GuildSettings) RoleFor(tier Tier) (int64, bool) {
	var roleID *int64
	switch tier {
	case TierSergeant:
		roleID = gs.SergeantRoleID
	case TierCommander:
		roleID = gs.CommanderRoleID
	case TierGeneral:
		roleID = gs.GeneralRoleID
	}
	if roleID == nil || *roleID <= 0 {
		return 0, false
	}
	return *roleID, true
}

// SetRole sets the role ID for a tier
func (gs *GuildSettings) SetRole(tier Tier, roleID *int64) {
	switch tier {
	case TierSergeant:
		gs.SergeantRoleID = roleID
	case TierCommander:
		gs.CommanderRoleID = roleID
	case TierGeneral:
		gs.GeneralRoleID = roleID
	}
}

// SetAnnouncementChannel sets the announcement channel ID
func (gs *GuildSettings) SetAnnouncementChannel(channelID *int64) {
	gs.AnnouncementChannelID = channelID
}
