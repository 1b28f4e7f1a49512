package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/content"
)

type assetRepository struct {
	db *assetTable
}

var _ content.Repository = (*assetRepository)(nil)

func NewAssetRepository(db *DB) content.Repository {
	return &assetRepository{db: db.asset}
}

func (repo *assetRepository) SaveAsset(_ context.Context, ast content.Asset, _ ...core.DBExecutor) (content.Asset, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[ast.Location.MapKey()] = &ast
	return ast, nil
}

func (repo *assetRepository) GetAsset(_ context.Context, key content.AssetKey, _ ...core.DBExecutor) (content.Asset, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ast, ok := repo.db.table[key.MapKey()]; ok {
		return *ast, nil
	}
	return content.Asset{}, content.ErrNotFound
}

func (repo *assetRepository) QueryCourseAssets(_ context.Context, org, course string, _ ...core.DBExecutor) ([]content.Asset, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	assets := make([]content.Asset, 0)
	for _, ast := range repo.db.table {
		key := ast.Location
		if key.Org == org && key.Course == course && key.Category == content.AssetCategory {
			assets = append(assets, *ast)
		}
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Name < assets[j].Name })
	return assets, nil
}

func (repo *assetRepository) DeleteAsset(_ context.Context, key content.AssetKey, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[key.MapKey()]; !ok {
		return content.ErrNotFound
	}
	delete(repo.db.table, key.MapKey())
	return nil
}
