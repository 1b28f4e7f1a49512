package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/content"
)

type assetRepository struct {
	db *sqlx.DB
}

var _ content.Repository = (*assetRepository)(nil)

func NewAssetRepository(db *sql.DB) content.Repository {
	return &assetRepository{db: sqlx.NewDb(db, core.Conf.Database.Engine)}
}

// assetRow mirrors the asset table. A NULL thumbnail_name means the asset has
// no thumbnail; it never scans into a zero-valued key.
type assetRow struct {
	Org           string      `db:"org"`
	Course        string      `db:"course"`
	Category      string      `db:"category"`
	Name          string      `db:"name"`
	ContentType   string      `db:"content_type"`
	Length        int64       `db:"length"`
	ThumbnailName null.String `db:"thumbnail_name"`
	LastModified  time.Time   `db:"last_modified"`
}

func (r assetRow) toAsset() content.Asset {
	ast := content.Asset{
		Location:     content.AssetKey{Org: r.Org, Course: r.Course, Category: r.Category, Name: r.Name},
		Name:         r.Name,
		ContentType:  r.ContentType,
		Length:       r.Length,
		LastModified: r.LastModified.UTC(),
	}
	if r.ThumbnailName.Valid {
		ast.ThumbnailLocation = &content.AssetKey{
			Org:      r.Org,
			Course:   r.Course,
			Category: content.ThumbnailCategory,
			Name:     r.ThumbnailName.String,
		}
	}
	return ast
}

const assetColumns = `org, course, category, name, content_type, length, thumbnail_name, last_modified`

func (repo *assetRepository) executor(exec []core.DBExecutor) sqlx.ExtContext {
	if len(exec) > 0 {
		if x, ok := exec[0].(sqlx.ExtContext); ok {
			return x
		}
	}
	return repo.db
}

func (repo *assetRepository) SaveAsset(ctx context.Context, ast content.Asset, exec ...core.DBExecutor) (content.Asset, error) {
	var thumbName null.String
	if ast.ThumbnailLocation != nil {
		thumbName = null.StringFrom(ast.ThumbnailLocation.Name)
	}

	query := `
		INSERT INTO asset (` + assetColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (org, course, category, name) DO UPDATE
		SET content_type = EXCLUDED.content_type, length = EXCLUDED.length,
			thumbnail_name = EXCLUDED.thumbnail_name, last_modified = EXCLUDED.last_modified`
	_, err := repo.executor(exec).ExecContext(ctx, query,
		ast.Location.Org, ast.Location.Course, ast.Location.Category, ast.Location.Name,
		ast.ContentType, ast.Length, thumbName, ast.LastModified,
	)
	if err != nil {
		return content.Asset{}, errors.Wrap(err, "saving asset")
	}
	return ast, nil
}

func (repo *assetRepository) GetAsset(ctx context.Context, key content.AssetKey, exec ...core.DBExecutor) (content.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM asset WHERE org = $1 AND course = $2 AND category = $3 AND name = $4`

	var row assetRow
	if err := sqlx.GetContext(ctx, repo.executor(exec), &row, query, key.Org, key.Course, key.Category, key.Name); err != nil {
		if err == sql.ErrNoRows {
			return content.Asset{}, content.ErrNotFound
		}
		return content.Asset{}, errors.Wrap(err, "getting asset")
	}
	return row.toAsset(), nil
}

func (repo *assetRepository) QueryCourseAssets(ctx context.Context, org, course string, exec ...core.DBExecutor) ([]content.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM asset WHERE org = $1 AND course = $2 AND category = $3 ORDER BY name`

	var rows []assetRow
	if err := sqlx.SelectContext(ctx, repo.executor(exec), &rows, query, org, course, content.AssetCategory); err != nil {
		return nil, errors.Wrap(err, "querying course assets")
	}

	assets := make([]content.Asset, 0, len(rows))
	for _, row := range rows {
		assets = append(assets, row.toAsset())
	}
	return assets, nil
}

func (repo *assetRepository) DeleteAsset(ctx context.Context, key content.AssetKey, exec ...core.DBExecutor) error {
	query := `DELETE FROM asset WHERE org = $1 AND course = $2 AND category = $3 AND name = $4`
	res, err := repo.executor(exec).ExecContext(ctx, query, key.Org, key.Course, key.Category, key.Name)
	if err != nil {
		return errors.Wrap(err, "deleting asset")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return content.ErrNotFound
	}
	return nil
}
