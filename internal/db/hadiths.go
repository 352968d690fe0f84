package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Nixie-Tech-LLC/sehri/internal/model"
)

func (s *pgStore) CreateHadith(ctx context.Context, text, source string) (*model.Hadith, error) {
	var h model.Hadith
	query := `
	INSERT INTO hadiths (text, source, created_at)
	VALUES ($1, $2, now())
	RETURNING id, text, source, created_at;
	`
	if err := s.db.GetContext(ctx, &h, query, text, source); err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *pgStore) ListHadiths(ctx context.Context) ([]model.Hadith, error) {
	list := []model.Hadith{}
	err := s.db.SelectContext(ctx, &list, `SELECT id, text, source, created_at FROM hadiths ORDER BY id;`)
	return list, err
}

// RandomHadith returns ErrNotFound when the table is empty.
func (s *pgStore) RandomHadith(ctx context.Context) (*model.Hadith, error) {
	var h model.Hadith
	err := s.db.GetContext(ctx, &h, `SELECT id, text, source, created_at FROM hadiths ORDER BY random() LIMIT 1;`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *pgStore) DeleteHadith(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM hadiths WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
