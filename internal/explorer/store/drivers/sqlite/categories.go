package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aussiebroadwan/explorer/internal/explorer/domain"
)

type categoriesRepo struct {
	db dbtx
}

func (r *categoriesRepo) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, slug, name_vi, name_en, icon, color FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Category{}
	for rows.Next() {
		var (
			c    domain.Category
			icon sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Slug, &c.NameVI, &c.NameEN, &icon, &c.Color); err != nil {
			return nil, err
		}
		c.Icon = mapNullString(icon)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *categoriesRepo) CategoryExists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM categories WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}
