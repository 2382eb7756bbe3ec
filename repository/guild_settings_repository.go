package repository

import (
	"context"
	"errors"
	"fmt"

	"leetbot/database"
	"leetbot/domain/entities"
	"leetbot/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

const guildSettingsColumns = `guild_id, enabled, announcement_channel_id,
		       sergeant_role_id, commander_role_id, general_role_id`

// GuildSettingsRepository implements the GuildSettingsRepository interface
type GuildSettingsRepository struct {
	q Queryable
}

var _ interfaces.GuildSettingsRepository = (*GuildSettingsRepository)(nil)

// NewGuildSettingsRepository creates a new guild settings repository
func NewGuildSettingsRepository(db *database.DB) *GuildSettingsRepository {
	return &GuildSettingsRepository{q: db.Pool}
}

// NewGuildSettingsRepositoryWithTx creates a new guild settings repository with a transaction
func NewGuildSettingsRepositoryWithTx(tx Queryable) *GuildSettingsRepository {
	return &GuildSettingsRepository{q: tx}
}

func scanGuildSettings(row pgx.Row) (*entities.GuildSettings, error) {
	var settings entities.GuildSettings
	err := row.Scan(
		&settings.GuildID,
		&settings.Enabled,
		&settings.AnnouncementChannelID,
		&settings.SergeantRoleID,
		&settings.CommanderRoleID,
		&settings.GeneralRoleID,
	)
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// GetGuildSettings retrieves guild settings, nil if the guild has none
func (r *GuildSettingsRepository) GetGuildSettings(ctx context.Context, guildID int64) (*entities.GuildSettings, error) {
	query := `SELECT ` + guildSettingsColumns + `
		FROM guild_settings
		WHERE guild_id = $1`

	settings, err := scanGuildSettings(r.q.QueryRow(ctx, query, guildID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guild settings for guild %d: %w", guildID, err)
	}
	return settings, nil
}

// GetOrCreateGuildSettings retrieves guild settings or creates disabled defaults
func (r *GuildSettingsRepository) GetOrCreateGuildSettings(ctx context.Context, guildID int64) (*entities.GuildSettings, error) {
	insertQuery := `
		INSERT INTO guild_settings (guild_id)
		VALUES ($1)
		ON CONFLICT (guild_id) DO NOTHING
	`
	if _, err := r.q.Exec(ctx, insertQuery, guildID); err != nil {
		return nil, fmt.Errorf("failed to create guild settings for guild %d: %w", guildID, err)
	}

	settings, err := r.GetGuildSettings(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, fmt.Errorf("guild settings for guild %d not found after insert", guildID)
	}
	return settings, nil
}

// UpdateGuildSettings updates guild settings
func (r *GuildSettingsRepository) UpdateGuildSettings(ctx context.Context, settings *entities.GuildSettings) error {
	query := `
		UPDATE guild_settings
		SET enabled = $2,
		    announcement_channel_id = $3,
		    sergeant_role_id = $4,
		    commander_role_id = $5,
		    general_role_id = $6,
		    updated_at = NOW()
		WHERE guild_id = $1
	`

	result, err := r.q.Exec(ctx, query,
		settings.GuildID,
		settings.Enabled,
		settings.AnnouncementChannelID,
		settings.SergeantRoleID,
		settings.CommanderRoleID,
		settings.GeneralRoleID,
	)
	if err != nil {
		return fmt.Errorf("failed to update guild settings for guild %d: %w", settings.GuildID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("guild settings for guild %d not found", settings.GuildID)
	}

	return nil
}

// GetEnabledGuilds returns every guild with the game enabled
func (r *GuildSettingsRepository) GetEnabledGuilds(ctx context.Context) ([]*entities.GuildSettings, error) {
	query := `SELECT ` + guildSettingsColumns + `
		FROM guild_settings
		WHERE enabled
		ORDER BY guild_id ASC`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get enabled guilds: %w", err)
	}
	defer rows.Close()

	var guilds []*entities.GuildSettings
	for rows.Next() {
		settings, err := scanGuildSettings(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guild settings: %w", err)
		}
		guilds = append(guilds, settings)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate guild settings: %w", err)
	}

	return guilds, nil
}
