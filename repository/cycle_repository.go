package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leetbot/domain/entities"
	"leetbot/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

const cycleColumns = `id, guild_id, starts_at, early_window_ms, resolution_window_ms,
		       target_offset_ms, resolved_at, winner_discord_id, created_at`

// cycleRepository implements interfaces.CycleRepository
type cycleRepository struct {
	q       Queryable
	guildID int64
}

// NewCycleRepositoryScoped creates a cycle repository scoped to a guild.
// Guild 0 lets the scheduling queries see every guild.
func NewCycleRepositoryScoped(tx Queryable, guildID int64) interfaces.CycleRepository {
	return &cycleRepository{
		q:       tx,
		guildID: guildID,
	}
}

func scanCycle(row pgx.Row) (*entities.Cycle, error) {
	var cycle entities.Cycle
	err := row.Scan(
		&cycle.ID,
		&cycle.GuildID,
		&cycle.StartsAt,
		&cycle.EarlyWindowMs,
		&cycle.ResolutionWindowMs,
		&cycle.TargetOffsetMs,
		&cycle.ResolvedAt,
		&cycle.WinnerDiscordID,
		&cycle.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	cycle.StartsAt = cycle.StartsAt.UTC()
	cycle.CreatedAt = cycle.CreatedAt.UTC()
	if cycle.ResolvedAt != nil {
		resolvedAt := cycle.ResolvedAt.UTC()
		cycle.ResolvedAt = &resolvedAt
	}
	return &cycle, nil
}

func (r *cycleRepository) getOne(ctx context.Context, query string, args ...any) (*entities.Cycle, error) {
	cycle, err := scanCycle(r.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return cycle, err
}

// GetOrCreate inserts the cycle unless one already exists for its start and returns the stored row
func (r *cycleRepository) GetOrCreate(ctx context.Context, cycle *entities.Cycle) (*entities.Cycle, error) {
	query := `
		INSERT INTO cycles (guild_id, starts_at, early_window_ms, resolution_window_ms, target_offset_ms)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (guild_id, starts_at) DO NOTHING
		RETURNING ` + cycleColumns

	created, err := r.getOne(ctx, query,
		r.guildID,
		cycle.StartsAt.UTC(),
		cycle.EarlyWindowMs,
		cycle.ResolutionWindowMs,
		cycle.TargetOffsetMs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cycle: %w", err)
	}
	if created != nil {
		return created, nil
	}

	existing, err := r.GetByStart(ctx, cycle.StartsAt)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("cycle for guild %d at %s vanished after insert conflict", r.guildID, cycle.StartsAt.UTC())
	}
	return existing, nil
}

// GetByID retrieves a cycle by its ID
func (r *cycleRepository) GetByID(ctx context.Context, id int64) (*entities.Cycle, error) {
	query := `SELECT ` + cycleColumns + `
		FROM cycles
		WHERE id = $1 AND guild_id = $2`

	cycle, err := r.getOne(ctx, query, id, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cycle by ID %d: %w", id, err)
	}
	return cycle, nil
}

// GetByStart retrieves the cycle starting at the given instant
func (r *cycleRepository) GetByStart(ctx context.Context, startsAt time.Time) (*entities.Cycle, error) {
	query := `SELECT ` + cycleColumns + `
		FROM cycles
		WHERE guild_id = $1 AND starts_at = $2`

	cycle, err := r.getOne(ctx, query, r.guildID, startsAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get cycle starting at %s: %w", startsAt.UTC(), err)
	}
	return cycle, nil
}

// GetByIDForShare retrieves a cycle with a shared row lock.
// Bets hold it until commit so resolution cannot start underneath them.
func (r *cycleRepository) GetByIDForShare(ctx context.Context, id int64) (*entities.Cycle, error) {
	query := `SELECT ` + cycleColumns + `
		FROM cycles
		WHERE id = $1 AND guild_id = $2
		FOR SHARE`

	cycle, err := r.getOne(ctx, query, id, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cycle for share by ID %d: %w", id, err)
	}
	return cycle, nil
}

// GetByIDForUpdate retrieves a cycle by ID with row lock for update
func (r *cycleRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Cycle, error) {
	query := `SELECT ` + cycleColumns + `
		FROM cycles
		WHERE id = $1 AND guild_id = $2
		FOR UPDATE`

	cycle, err := r.getOne(ctx, query, id, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cycle for update by ID %d: %w", id, err)
	}
	return cycle, nil
}

// SetTarget stores the target offset unless one is already stored
func (r *cycleRepository) SetTarget(ctx context.Context, id int64, targetOffsetMs int64) error {
	query := `
		UPDATE cycles
		SET target_offset_ms = $3
		WHERE id = $1 AND guild_id = $2 AND target_offset_ms IS NULL
	`

	if _, err := r.q.Exec(ctx, query, id, r.guildID, targetOffsetMs); err != nil {
		return fmt.Errorf("failed to set target for cycle %d: %w", id, err)
	}
	return nil
}

// MarkResolved records the resolution instant and winner
func (r *cycleRepository) MarkResolved(ctx context.Context, id int64, resolvedAt time.Time, winnerDiscordID *int64) error {
	query := `
		UPDATE cycles
		SET resolved_at = $3,
		    winner_discord_id = $4
		WHERE id = $1 AND guild_id = $2 AND resolved_at IS NULL
	`

	result, err := r.q.Exec(ctx, query, id, r.guildID, resolvedAt.UTC(), winnerDiscordID)
	if err != nil {
		return fmt.Errorf("failed to mark cycle %d resolved: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("cycle %d not found or already resolved", id)
	}

	return nil
}

// GetDueForResolution returns unresolved cycles whose resolution instant has passed
func (r *cycleRepository) GetDueForResolution(ctx context.Context, now time.Time) ([]*entities.Cycle, error) {
	query := `SELECT ` + cycleColumns + `
		FROM cycles
		WHERE resolved_at IS NULL
		  AND starts_at + resolution_window_ms * INTERVAL '1 millisecond' <= $1
		  AND ($2::BIGINT = 0 OR guild_id = $2)
		ORDER BY starts_at ASC, id ASC`

	rows, err := r.q.Query(ctx, query, now.UTC(), r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cycles due for resolution: %w", err)
	}
	defer rows.Close()

	var cycles []*entities.Cycle
	for rows.Next() {
		cycle, err := scanCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}
		cycles = append(cycles, cycle)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cycles: %w", err)
	}

	return cycles, nil
}

// GetNextResolutionTime returns the earliest resolution instant of an unresolved cycle
func (r *cycleRepository) GetNextResolutionTime(ctx context.Context) (*time.Time, error) {
	query := `
		SELECT MIN(starts_at + resolution_window_ms * INTERVAL '1 millisecond')
		FROM cycles
		WHERE resolved_at IS NULL
		  AND ($1::BIGINT = 0 OR guild_id = $1)
	`

	var next *time.Time
	if err := r.q.QueryRow(ctx, query, r.guildID).Scan(&next); err != nil {
		return nil, fmt.Errorf("failed to get next resolution time: %w", err)
	}
	if next != nil {
		utc := next.UTC()
		next = &utc
	}

	return next, nil
}

// GetLatestResolved returns the most recently started resolved cycle
func (r *cycleRepository) GetLatestResolved(ctx context.Context) (*entities.Cycle, error) {
	query := `SELECT ` + cycleColumns + `
		FROM cycles
		WHERE guild_id = $1 AND resolved_at IS NOT NULL
		ORDER BY starts_at DESC
		LIMIT 1`

	cycle, err := r.getOne(ctx, query, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest resolved cycle: %w", err)
	}
	return cycle, nil
}
