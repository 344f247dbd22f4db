package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/explorer/internal/explorer/domain"
)

type mediaRepo struct {
	db dbtx
}

const mediaSelect = `SELECT id, app_id, type, object_key, image_url, caption, sort_order, created_at FROM app_media`

func scanMedia(row scanner) (domain.Media, error) {
	var (
		m       domain.Media
		caption sql.NullString
		created string
	)
	err := row.Scan(&m.ID, &m.AppID, &m.Type, &m.ObjectKey, &m.ImageURL, &caption, &m.SortOrder, &created)
	if err != nil {
		return domain.Media{}, err
	}
	m.Caption = mapNullString(caption)
	m.CreatedAt = parseTime(created)
	return m, nil
}

func (r *mediaRepo) CreateMedia(ctx context.Context, m domain.Media) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO app_media (id, app_id, type, object_key, image_url, caption, sort_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.AppID, m.Type, m.ObjectKey, m.ImageURL, mapOptionalString(m.Caption), m.SortOrder,
		formatTime(m.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *mediaRepo) GetMediaByID(ctx context.Context, id string) (domain.Media, error) {
	m, err := scanMedia(r.db.QueryRowContext(ctx, mediaSelect+` WHERE id = ?`, id))
	if err != nil {
		return domain.Media{}, mapNotFound(err)
	}
	return m, nil
}

func (r *mediaRepo) GetIcon(ctx context.Context, appID string) (domain.Media, error) {
	m, err := scanMedia(r.db.QueryRowContext(ctx,
		mediaSelect+` WHERE app_id = ? AND type = 'icon'`, appID))
	if err != nil {
		return domain.Media{}, mapNotFound(err)
	}
	return m, nil
}

// ListMediaByApp orders icons before screenshots, then by sort_order.
func (r *mediaRepo) ListMediaByApp(ctx context.Context, appID string) ([]domain.Media, error) {
	rows, err := r.db.QueryContext(ctx,
		mediaSelect+` WHERE app_id = ? ORDER BY type ASC, sort_order ASC, id ASC`, appID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Media{}
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *mediaRepo) ListIconURLs(ctx context.Context, appIDs ...string) (map[string]string, error) {
	out := make(map[string]string, len(appIDs))
	if len(appIDs) == 0 {
		return out, nil
	}

	in, args := inArgs(appIDs)
	rows, err := r.db.QueryContext(ctx,
		`SELECT app_id, image_url FROM app_media WHERE type = 'icon' AND app_id IN (`+in+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var appID, url string
		if err := rows.Scan(&appID, &url); err != nil {
			return nil, err
		}
		out[appID] = url
	}
	return out, rows.Err()
}

func (r *mediaRepo) CountScreenshots(ctx context.Context, appID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM app_media WHERE app_id = ? AND type = 'screenshot'`, appID).Scan(&n)
	return n, err
}

func (r *mediaRepo) ReplaceObject(ctx context.Context, id, objectKey, imageURL string) error {
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE app_media SET object_key = ?, image_url = ? WHERE id = ?`, objectKey, imageURL, id))
}

func (r *mediaRepo) DeleteMedia(ctx context.Context, id string) error {
	return requireAffected(r.db.ExecContext(ctx, `DELETE FROM app_media WHERE id = ?`, id))
}
