package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/aussiebroadwan/explorer/internal/explorer/domain"
	"github.com/aussiebroadwan/explorer/internal/explorer/store"
)

type appsRepo struct {
	db dbtx
}

const appColumns = `a.id, a.slug, a.name, a.short_desc, a.short_desc_en, a.description, a.category_id,
	a.website_url, a.download_url, a.source_code_url, a.install_command, a.license,
	a.is_verified, a.is_featured, a.avg_rating, a.review_count, a.user_id, a.created_at, a.updated_at`

const appViewSelect = `SELECT ` + appColumns + `,
	c.slug, c.name_vi, c.name_en, c.color, u.display_name
	FROM apps a
	JOIN categories c ON a.category_id = c.id
	JOIN users u ON a.user_id = u.id`

// appOrder maps each sort to a fixed ORDER BY clause. The trailing id keeps
// pagination stable between ties.
var appOrder = map[store.AppSort]string{
	store.SortNewest:       "a.created_at DESC, a.id DESC",
	store.SortTopRated:     "a.avg_rating DESC, a.review_count DESC, a.id DESC",
	store.SortMostReviewed: "a.review_count DESC, a.id DESC",
	store.SortAZ:           "a.name ASC, a.id ASC",
	store.SortTrending:     "a.review_count DESC, a.avg_rating DESC, a.id DESC",
}

func appDest(a *domain.App, nulls *appNulls, created, updated *string, verified, featured *int) []any {
	return []any{
		&a.ID, &a.Slug, &a.Name, &a.ShortDesc, &nulls.shortDescEN, &nulls.description, &a.CategoryID,
		&nulls.website, &nulls.download, &nulls.source, &nulls.install, &nulls.license,
		verified, featured, &a.AvgRating, &a.ReviewCount, &a.UserID, created, updated,
	}
}

type appNulls struct {
	shortDescEN, description, website, download, source, install, license sql.NullString
}

func (n appNulls) apply(a *domain.App) {
	a.ShortDescEN = mapNullString(n.shortDescEN)
	a.Description = mapNullString(n.description)
	a.WebsiteURL = mapNullString(n.website)
	a.DownloadURL = mapNullString(n.download)
	a.SourceCodeURL = mapNullString(n.source)
	a.InstallCommand = mapNullString(n.install)
	a.License = mapNullString(n.license)
}

func scanApp(row scanner) (domain.App, error) {
	var (
		a                  domain.App
		nulls              appNulls
		created, updated   string
		verified, featured int
	)
	if err := row.Scan(appDest(&a, &nulls, &created, &updated, &verified, &featured)...); err != nil {
		return domain.App{}, err
	}
	nulls.apply(&a)
	a.IsVerified, a.IsFeatured = verified != 0, featured != 0
	a.CreatedAt, a.UpdatedAt = parseTime(created), parseTime(updated)
	return a, nil
}

func scanAppView(row scanner) (domain.AppView, error) {
	var (
		v                  domain.AppView
		nulls              appNulls
		created, updated   string
		verified, featured int
	)
	dest := appDest(&v.App, &nulls, &created, &updated, &verified, &featured)
	dest = append(dest, &v.CategorySlug, &v.CategoryNameVI, &v.CategoryNameEN, &v.CategoryColor, &v.UserDisplayName)
	if err := row.Scan(dest...); err != nil {
		return domain.AppView{}, err
	}
	nulls.apply(&v.App)
	v.IsVerified, v.IsFeatured = verified != 0, featured != 0
	v.CreatedAt, v.UpdatedAt = parseTime(created), parseTime(updated)
	return v, nil
}

func (r *appsRepo) CreateApp(ctx context.Context, a domain.App) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO apps (id, slug, name, short_desc, short_desc_en, description, category_id,
			website_url, download_url, source_code_url, install_command, license,
			is_verified, is_featured, avg_rating, review_count, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Slug, a.Name, a.ShortDesc, mapOptionalString(a.ShortDescEN), mapOptionalString(a.Description),
		a.CategoryID, mapOptionalString(a.WebsiteURL), mapOptionalString(a.DownloadURL),
		mapOptionalString(a.SourceCodeURL), mapOptionalString(a.InstallCommand), mapOptionalString(a.License),
		boolInt(a.IsVerified), boolInt(a.IsFeatured), a.AvgRating, a.ReviewCount, a.UserID,
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *appsRepo) GetAppByID(ctx context.Context, id string) (domain.App, error) {
	a, err := scanApp(r.db.QueryRowContext(ctx, `SELECT `+appColumns+` FROM apps a WHERE a.id = ?`, id))
	if err != nil {
		return domain.App{}, mapNotFound(err)
	}
	return a, nil
}

func (r *appsRepo) GetAppViewBySlug(ctx context.Context, slug string) (domain.AppView, error) {
	v, err := scanAppView(r.db.QueryRowContext(ctx, appViewSelect+` WHERE a.slug = ?`, slug))
	if err != nil {
		return domain.AppView{}, mapNotFound(err)
	}
	return v, nil
}

// appWhere builds the WHERE clause for a listing. Only fixed fragments are
// concatenated; every user value goes through args.
func appWhere(f store.AppFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Query != "" {
		like := "%" + escapeLike(f.Query) + "%"
		conds = append(conds, `(a.name LIKE ? ESCAPE '\' OR a.short_desc LIKE ? ESCAPE '\' OR a.short_desc_en LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}
	if f.Category != "" {
		conds = append(conds, `c.slug = ?`)
		args = append(args, f.Category)
	}
	if f.Tag != "" {
		conds = append(conds, `EXISTS (SELECT 1 FROM app_tags t WHERE t.app_id = a.id AND t.tag = ?)`)
		args = append(args, f.Tag)
	}
	if f.Featured {
		conds = append(conds, `a.is_featured = 1`)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *appsRepo) ListApps(ctx context.Context, f store.AppFilter) ([]domain.AppView, int, error) {
	where, args := appWhere(f)

	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM apps a JOIN categories c ON a.category_id = c.id`+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	order, ok := appOrder[f.Sort]
	if !ok {
		order = appOrder[store.SortNewest]
	}

	rows, err := r.db.QueryContext(ctx,
		appViewSelect+where+` ORDER BY `+order+` LIMIT ? OFFSET ?`,
		append(args, f.Limit, f.Offset)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []domain.AppView{}
	for rows.Next() {
		v, err := scanAppView(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

func (r *appsRepo) UpdateApp(ctx context.Context, id string, p domain.AppPatch, now time.Time) error {
	var (
		sets []string
		args []any
	)
	text := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, mapOptionalString(v))
		}
	}
	required := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, *v)
		}
	}

	required("name", p.Name)
	required("short_desc", p.ShortDesc)
	text("short_desc_en", p.ShortDescEN)
	text("description", p.Description)
	if p.CategoryID != nil {
		sets = append(sets, "category_id = ?")
		args = append(args, *p.CategoryID)
	}
	text("website_url", p.WebsiteURL)
	text("download_url", p.DownloadURL)
	text("source_code_url", p.SourceCodeURL)
	text("install_command", p.InstallCommand)
	text("license", p.License)

	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(now), id)

	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE apps SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...))
}

func (r *appsRepo) DeleteApp(ctx context.Context, id string) error {
	return requireAffected(r.db.ExecContext(ctx, `DELETE FROM apps WHERE id = ?`, id))
}

func (r *appsRepo) SetFeatured(ctx context.Context, id string, featured bool, now time.Time) error {
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE apps SET is_featured = ?, updated_at = ? WHERE id = ?`, boolInt(featured), formatTime(now), id))
}

func (r *appsRepo) SetVerified(ctx context.Context, id string, verified bool, now time.Time) error {
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE apps SET is_verified = ?, updated_at = ? WHERE id = ?`, boolInt(verified), formatTime(now), id))
}

func (r *appsRepo) ReplaceTags(ctx context.Context, appID string, tags []string) error {
	return r.replaceSet(ctx, "app_tags", "tag", appID, tags)
}

func (r *appsRepo) ReplacePackageTypes(ctx context.Context, appID string, types []string) error {
	return r.replaceSet(ctx, "app_package_types", "package_type", appID, types)
}

// replaceSet is only called with the fixed table and column names above.
func (r *appsRepo) replaceSet(ctx context.Context, table, col, appID string, values []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE app_id = ?`, appID); err != nil {
		return err
	}
	for _, v := range values {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO `+table+` (app_id, `+col+`) VALUES (?, ?) ON CONFLICT DO NOTHING`, appID, v)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *appsRepo) ListTags(ctx context.Context, appIDs ...string) (map[string][]string, error) {
	return r.listSet(ctx, "app_tags", "tag", appIDs)
}

func (r *appsRepo) ListPackageTypes(ctx context.Context, appIDs ...string) (map[string][]string, error) {
	return r.listSet(ctx, "app_package_types", "package_type", appIDs)
}

func (r *appsRepo) listSet(ctx context.Context, table, col string, appIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(appIDs))
	if len(appIDs) == 0 {
		return out, nil
	}

	in, args := inArgs(appIDs)
	rows, err := r.db.QueryContext(ctx,
		`SELECT app_id, `+col+` FROM `+table+` WHERE app_id IN (`+in+`) ORDER BY app_id, `+col, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var appID, v string
		if err := rows.Scan(&appID, &v); err != nil {
			return nil, err
		}
		out[appID] = append(out[appID], v)
	}
	return out, rows.Err()
}

func (r *appsRepo) RecomputeRating(ctx context.Context, appID string, now time.Time) error {
	return requireAffected(r.db.ExecContext(ctx, `
		UPDATE apps SET
			review_count = (SELECT COUNT(*) FROM reviews WHERE app_id = ?),
			avg_rating = COALESCE((SELECT ROUND(AVG(rating), 1) FROM reviews WHERE app_id = ?), 0),
			updated_at = ?
		WHERE id = ?`,
		appID, appID, formatTime(now), appID,
	))
}
