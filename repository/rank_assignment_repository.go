package repository

import (
	"context"
	"fmt"

	"leetbot/domain/entities"
	"leetbot/domain/interfaces"
)

// rankAssignmentRepository implements interfaces.RankAssignmentRepository
type rankAssignmentRepository struct {
	q       Queryable
	guildID int64
}

// NewRankAssignmentRepositoryScoped creates a rank assignment repository scoped to a guild
func NewRankAssignmentRepositoryScoped(tx Queryable, guildID int64) interfaces.RankAssignmentRepository {
	return &rankAssignmentRepository{
		q:       tx,
		guildID: guildID,
	}
}

// GetSnapshot returns the holder of every occupied tier
func (r *rankAssignmentRepository) GetSnapshot(ctx context.Context) (entities.RankSnapshot, error) {
	query := `
		SELECT tier, discord_id
		FROM rank_assignments
		WHERE guild_id = $1
	`

	rows, err := r.q.Query(ctx, query, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rank assignments: %w", err)
	}
	defer rows.Close()

	snapshot := entities.RankSnapshot{}
	for rows.Next() {
		var tier entities.Tier
		var holder int64
		if err := rows.Scan(&tier, &holder); err != nil {
			return nil, fmt.Errorf("failed to scan rank assignment: %w", err)
		}
		snapshot[tier] = holder
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rank assignments: %w", err)
	}

	return snapshot, nil
}

// ApplyDeltas writes holder changes. A vacated tier loses its row.
func (r *rankAssignmentRepository) ApplyDeltas(ctx context.Context, deltas []entities.AssignmentDelta) error {
	upsert := `
		INSERT INTO rank_assignments (guild_id, tier, discord_id, assigned_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (guild_id, tier) DO UPDATE
		SET discord_id = EXCLUDED.discord_id,
		    assigned_at = EXCLUDED.assigned_at
	`
	vacate := `DELETE FROM rank_assignments WHERE guild_id = $1 AND tier = $2`

	for _, delta := range deltas {
		if !delta.Tier.IsValid() {
			return fmt.Errorf("unknown tier %q", delta.Tier)
		}

		var err error
		if delta.IsVacate() {
			_, err = r.q.Exec(ctx, vacate, r.guildID, delta.Tier)
		} else {
			_, err = r.q.Exec(ctx, upsert, r.guildID, delta.Tier, delta.NewHolder)
		}
		if err != nil {
			return fmt.Errorf("failed to apply %s assignment: %w", delta.Tier, err)
		}
	}

	return nil
}
