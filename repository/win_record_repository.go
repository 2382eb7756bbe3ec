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

const winRecordColumns = `id, cycle_id, guild_id, discord_id, display_name, win_date,
		       offset_ms, target_offset_ms, class, created_at`

// winRecordRepository implements interfaces.WinRecordRepository.
// Records are only ever inserted.
type winRecordRepository struct {
	q       Queryable
	guildID int64
}

// NewWinRecordRepositoryScoped creates a win record repository scoped to a guild
func NewWinRecordRepositoryScoped(tx Queryable, guildID int64) interfaces.WinRecordRepository {
	return &winRecordRepository{
		q:       tx,
		guildID: guildID,
	}
}

func scanWinRecord(row pgx.Row) (*entities.WinRecord, error) {
	var record entities.WinRecord
	err := row.Scan(
		&record.ID,
		&record.CycleID,
		&record.GuildID,
		&record.DiscordID,
		&record.DisplayName,
		&record.WinDate,
		&record.OffsetMs,
		&record.TargetOffsetMs,
		&record.Class,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.WinDate = dateUTC(record.WinDate)
	record.CreatedAt = record.CreatedAt.UTC()
	return &record, nil
}

func dateUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Create appends a win record. A record already stored for the cycle is returned instead.
func (r *winRecordRepository) Create(ctx context.Context, record *entities.WinRecord) (*entities.WinRecord, error) {
	query := `
		INSERT INTO win_records (cycle_id, guild_id, discord_id, display_name, win_date,
		                         offset_ms, target_offset_ms, class)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (cycle_id) DO NOTHING
		RETURNING ` + winRecordColumns

	created, err := scanWinRecord(r.q.QueryRow(ctx, query,
		record.CycleID,
		r.guildID,
		record.DiscordID,
		record.DisplayName,
		dateUTC(record.WinDate),
		record.OffsetMs,
		record.TargetOffsetMs,
		record.Class,
	))
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to create win record for cycle %d: %w", record.CycleID, err)
	}

	existing, err := r.GetByCycle(ctx, record.CycleID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("win record for cycle %d vanished after insert conflict", record.CycleID)
	}
	return existing, nil
}

// GetByCycle retrieves the win record of a cycle
func (r *winRecordRepository) GetByCycle(ctx context.Context, cycleID int64) (*entities.WinRecord, error) {
	query := `SELECT ` + winRecordColumns + `
		FROM win_records
		WHERE cycle_id = $1 AND guild_id = $2`

	record, err := scanWinRecord(r.q.QueryRow(ctx, query, cycleID, r.guildID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get win record for cycle %d: %w", cycleID, err)
	}
	return record, nil
}

// GetHistorySince returns every win on or after since, oldest first
func (r *winRecordRepository) GetHistorySince(ctx context.Context, since time.Time) ([]*entities.WinRecord, error) {
	query := `SELECT ` + winRecordColumns + `
		FROM win_records
		WHERE guild_id = $1 AND win_date >= $2
		ORDER BY win_date ASC, id ASC`

	rows, err := r.q.Query(ctx, query, r.guildID, dateUTC(since))
	if err != nil {
		return nil, fmt.Errorf("failed to get win history: %w", err)
	}
	defer rows.Close()

	var records []*entities.WinRecord
	for rows.Next() {
		record, err := scanWinRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan win record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate win records: %w", err)
	}

	return records, nil
}

// GetTopWinners returns win counts on or after since, most wins first
func (r *winRecordRepository) GetTopWinners(ctx context.Context, since time.Time, limit int) ([]*entities.WinnerStat, error) {
	query := `
		SELECT discord_id,
		       (ARRAY_AGG(display_name ORDER BY win_date DESC, id DESC))[1] AS display_name,
		       COUNT(*) AS wins
		FROM win_records
		WHERE guild_id = $1 AND win_date >= $2
		GROUP BY discord_id
		ORDER BY wins DESC, discord_id ASC
		LIMIT $3
	`

	rows, err := r.q.Query(ctx, query, r.guildID, dateUTC(since), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top winners: %w", err)
	}
	defer rows.Close()

	var stats []*entities.WinnerStat
	for rows.Next() {
		var stat entities.WinnerStat
		if err := rows.Scan(&stat.DiscordID, &stat.DisplayName, &stat.Wins); err != nil {
			return nil, fmt.Errorf("failed to scan winner stat: %w", err)
		}
		stats = append(stats, &stat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate winner stats: %w", err)
	}

	return stats, nil
}
