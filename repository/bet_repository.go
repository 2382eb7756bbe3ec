package repository

import (
	"context"
	"errors"
	"fmt"

	"leetbot/domain/entities"
	"leetbot/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

const betColumns = `id, cycle_id, guild_id, discord_id, display_name, offset_ms, class, submitted_at`

// betRepository implements interfaces.BetRepository
type betRepository struct {
	q       Queryable
	guildID int64
}

// NewBetRepositoryScoped creates a bet repository scoped to a guild
func NewBetRepositoryScoped(tx Queryable, guildID int64) interfaces.BetRepository {
	return &betRepository{
		q:       tx,
		guildID: guildID,
	}
}

func scanBet(row pgx.Row) (*entities.Bet, error) {
	var bet entities.Bet
	err := row.Scan(
		&bet.ID,
		&bet.CycleID,
		&bet.GuildID,
		&bet.DiscordID,
		&bet.DisplayName,
		&bet.OffsetMs,
		&bet.Class,
		&bet.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}
	bet.SubmittedAt = bet.SubmittedAt.UTC()
	return &bet, nil
}

// Create inserts the bet. The unique (cycle, participant) constraint decides duplicates,
// so concurrent submissions by one participant store exactly one bet.
func (r *betRepository) Create(ctx context.Context, bet *entities.Bet) (bool, error) {
	query := `
		INSERT INTO bets (cycle_id, guild_id, discord_id, display_name, offset_ms, class, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (cycle_id, discord_id) DO NOTHING
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		bet.CycleID,
		r.guildID,
		bet.DiscordID,
		bet.DisplayName,
		bet.OffsetMs,
		bet.Class,
		bet.SubmittedAt.UTC(),
	).Scan(&bet.ID)

	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create bet: %w", err)
	}

	bet.GuildID = r.guildID
	return true, nil
}

// GetByCycle returns every bet of a cycle in submission order
func (r *betRepository) GetByCycle(ctx context.Context, cycleID int64) ([]*entities.Bet, error) {
	query := `SELECT ` + betColumns + `
		FROM bets
		WHERE cycle_id = $1 AND guild_id = $2
		ORDER BY submitted_at ASC, id ASC`

	rows, err := r.q.Query(ctx, query, cycleID, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for cycle %d: %w", cycleID, err)
	}
	defer rows.Close()

	var bets []*entities.Bet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", err)
	}

	return bets, nil
}

// GetByCycleAndUser returns a participant's bet for a cycle
func (r *betRepository) GetByCycleAndUser(ctx context.Context, cycleID int64, discordID int64) (*entities.Bet, error) {
	query := `SELECT ` + betColumns + `
		FROM bets
		WHERE cycle_id = $1 AND discord_id = $2 AND guild_id = $3`

	bet, err := scanBet(r.q.QueryRow(ctx, query, cycleID, discordID, r.guildID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet of user %d for cycle %d: %w", discordID, cycleID, err)
	}
	return bet, nil
}

// CountByCycle returns the number of bets in a cycle
func (r *betRepository) CountByCycle(ctx context.Context, cycleID int64) (int, error) {
	query := `SELECT COUNT(*) FROM bets WHERE cycle_id = $1 AND guild_id = $2`

	var count int
	if err := r.q.QueryRow(ctx, query, cycleID, r.guildID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bets for cycle %d: %w", cycleID, err)
	}
	return count, nil
}
