package db

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/sehri/internal/model"
)

func (s *pgStore) CreateUploadLog(ctx context.Context, upload model.UploadLog) (*model.UploadLog, error) {
	var out model.UploadLog
	query := `
	INSERT INTO upload_logs (filename, stored_path, rows_imported, rows_rejected, uploaded_by, created_at)
	VALUES ($1, $2, $3, $4, $5, now())
	RETURNING id, filename, stored_path, rows_imported, rows_rejected, uploaded_by, created_at;
	`
	err := s.db.GetContext(ctx, &out, query,
		upload.Filename, upload.StoredPath, upload.RowsImported, upload.RowsRejected, upload.UploadedBy)
	if err != nil {
		log.Error().Err(err).Str("filename", upload.Filename).Msg("failed to record upload")
		return nil, err
	}
	return &out, nil
}

// ListUploadLogs returns the newest uploads first.
func (s *pgStore) ListUploadLogs(ctx context.Context, limit int) ([]model.UploadLog, error) {
	if limit <= 0 {
		limit = 50
	}
	list := []model.UploadLog{}
	query := `
	SELECT id, filename, stored_path, rows_imported, rows_rejected, uploaded_by, created_at
	FROM upload_logs
	ORDER BY created_at DESC, id DESC
	LIMIT $1;
	`
	if err := s.db.SelectContext(ctx, &list, query, limit); err != nil {
		return nil, err
	}
	return list, nil
}
