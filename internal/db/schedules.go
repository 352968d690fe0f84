package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/sehri/internal/model"
)

// dates are stored as DATE and read back as ISO strings
const scheduleColumns = `id, to_char(date, 'YYYY-MM-DD') AS date, sehri, iftar, location, created_at, updated_at`

// UpsertSchedules writes entries in one transaction, replacing the times of any
// (date, location) that already exists. It returns the number of rows written.
func (s *pgStore) UpsertSchedules(ctx context.Context, entries []model.PrayerTimeEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, `
	INSERT INTO schedules (date, sehri, iftar, location, created_at, updated_at)
	VALUES ($1, $2, $3, $4, now(), now())
	ON CONFLICT (date, location) DO UPDATE
	SET sehri = EXCLUDED.sehri,
	iftar = EXCLUDED.iftar,
	updated_at = now();
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Date, e.Sehri, e.Iftar, e.Location); err != nil {
			log.Error().Err(err).
				Str("location", e.Location).
				Str("date", e.Date).
				Msg("failed to upsert schedule")
			return 0, fmt.Errorf("upsert %s %s: %w", e.Location, e.Date, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}
	return written, nil
}

func (s *pgStore) ListSchedules(ctx context.Context, filter ScheduleFilter) ([]model.Schedule, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.From != "" {
		add("date >= $%d", filter.From)
	}
	if filter.To != "" {
		add("date <= $%d", filter.To)
	}
	if filter.Location != "" {
		add("lower(location) = lower($%d)", filter.Location)
	}

	query := `SELECT ` + scheduleColumns + ` FROM schedules`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY date, location`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	list := []model.Schedule{}
	if err := s.db.SelectContext(ctx, &list, query, args...); err != nil {
		log.Error().Err(err).Msg("failed to list schedules")
		return nil, err
	}
	return list, nil
}

func (s *pgStore) GetSchedule(ctx context.Context, id int) (*model.Schedule, error) {
	var sc model.Schedule
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1;`
	if err := s.db.GetContext(ctx, &sc, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sc, nil
}

func (s *pgStore) CreateSchedule(ctx context.Context, entry model.PrayerTimeEntry) (*model.Schedule, error) {
	var sc model.Schedule
	query := `
	INSERT INTO schedules (date, sehri, iftar, location, created_at, updated_at)
	VALUES ($1, $2, $3, $4, now(), now())
	RETURNING ` + scheduleColumns + `;`
	if err := s.db.GetContext(ctx, &sc, query, entry.Date, entry.Sehri, entry.Iftar, entry.Location); err != nil {
		log.Error().Err(err).Str("location", entry.Location).Str("date", entry.Date).Msg("failed to create schedule")
		return nil, uniqueViolation(err)
	}
	return &sc, nil
}

func (s *pgStore) UpdateSchedule(ctx context.Context, id int, entry model.PrayerTimeEntry) (*model.Schedule, error) {
	var sc model.Schedule
	query := `
	UPDATE schedules
	SET date = $2,
	sehri = $3,
	iftar = $4,
	location = $5,
	updated_at = now()
	WHERE id = $1
	RETURNING ` + scheduleColumns + `;`
	if err := s.db.GetContext(ctx, &sc, query, id, entry.Date, entry.Sehri, entry.Iftar, entry.Location); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int("schedule_id", id).Msg("failed to update schedule")
		return nil, uniqueViolation(err)
	}
	return &sc, nil
}

func (s *pgStore) DeleteSchedule(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("failed to delete schedule")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
