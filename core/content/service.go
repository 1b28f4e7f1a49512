package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/storage/blob"
)

// ErrNotFound is returned when no asset exists under the requested key.
var ErrNotFound = errors.New("asset not found")

type (
	// Repository persists asset descriptors.
	Repository interface {
		SaveAsset(ctx context.Context, ast Asset, exec ...core.DBExecutor) (Asset, error)
		GetAsset(ctx context.Context, key AssetKey, exec ...core.DBExecutor) (Asset, error)
		QueryCourseAssets(ctx context.Context, org, course string, exec ...core.DBExecutor) ([]Asset, error)
		DeleteAsset(ctx context.Context, key AssetKey, exec ...core.DBExecutor) error
	}

	Service struct {
		store     blob.Store
		repo      Repository
		logger    core.Logger
		metrics   Metrics
		chunkSize int
	}

	// OpenedAsset couples a descriptor with a chunked reader over its bytes.
	// Close releases the underlying object once streaming is done.
	OpenedAsset struct {
		Asset
		Reader *ChunkedReader
		obj    blob.Object
	}
)

func (a *OpenedAsset) Close() error { return a.obj.Close() }

func NewService(store blob.Store, repo Repository, logger core.Logger, metrics Metrics) *Service {
	if metrics == nil {
		metrics = noOpMetrics{}
	}
	return &Service{
		store:     store,
		repo:      repo,
		logger:    logger,
		metrics:   metrics,
		chunkSize: core.Conf.Content.ChunkSize,
	}
}

// Save stores an uploaded file under its computed location and persists the
// descriptor. Image payloads get a 128x128 thumbnail stored alongside;
// payloads that cannot be thumbnailed never fail the upload.
func (s *Service) Save(ctx context.Context, org, course, filename, contentType string, r io.Reader) (Asset, error) {
	key := NewAssetKey(org, course, AssetCategory, filename)

	var buf bytes.Buffer
	n, err := s.store.Put(ctx, key.Path(), io.TeeReader(r, &buf))
	if err != nil {
		return Asset{}, errors.Wrap(err, "storing asset")
	}

	ast := Asset{
		Location:     key,
		Name:         key.Name,
		ContentType:  contentType,
		Length:       n,
		LastModified: time.Now().UTC(),
	}

	if strings.HasPrefix(contentType, "image/") {
		thumbKey, err := s.saveThumbnail(ctx, key, buf.Bytes())
		if err != nil {
			s.logger.Warn(fmt.Sprintf("could not store thumbnail for %s", key), err)
		}
		ast.ThumbnailLocation = thumbKey
	}

	if ast, err = s.repo.SaveAsset(ctx, ast); err != nil {
		return Asset{}, errors.Wrap(err, "saving asset")
	}
	s.metrics.AssetSaved(ast.Length)
	return ast, nil
}

func (s *Service) saveThumbnail(ctx context.Context, key AssetKey, data []byte) (*AssetKey, error) {
	thumb, err := GenerateThumbnail(data)
	if err != nil || thumb == nil {
		return nil, err
	}

	thumbKey := AssetKey{Org: key.Org, Course: key.Course, Category: ThumbnailCategory, Name: ThumbnailName(key.Name)}
	if _, err = s.store.Put(ctx, thumbKey.Path(), bytes.NewReader(thumb)); err != nil {
		return nil, err
	}
	return &thumbKey, nil
}

// Open returns the descriptor and a chunked reader over the stored bytes.
func (s *Service) Open(ctx context.Context, key AssetKey) (*OpenedAsset, error) {
	ast, err := s.repo.GetAsset(ctx, key)
	if err != nil {
		return nil, err
	}

	obj, err := s.store.Open(ctx, key.Path())
	if err != nil {
		if errors.Cause(err) == blob.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "opening asset blob")
	}

	rdr := NewChunkedReaderSize(obj, ast.Length, s.chunkSize)
	rdr.metrics = s.metrics
	return &OpenedAsset{Asset: ast, Reader: rdr, obj: obj}, nil
}

// OpenRange opens an asset restricted to the inclusive byte range
// [first, last], failing with ErrInvalidRange before any byte is read.
func (s *Service) OpenRange(ctx context.Context, key AssetKey, first, last int64) (*OpenedAsset, *ChunkStream, error) {
	opened, err := s.Open(ctx, key)
	if err != nil {
		return nil, nil, err
	}

	stream, err := opened.Reader.StreamRange(first, last)
	if err != nil {
		opened.Close()
		return nil, nil, err
	}
	return opened, stream, nil
}

// Stat returns the stored descriptor without opening the blob.
func (s *Service) Stat(ctx context.Context, key AssetKey) (Asset, error) {
	return s.repo.GetAsset(ctx, key)
}

// Delete removes the stored bytes, any thumbnail, and the descriptor.
func (s *Service) Delete(ctx context.Context, key AssetKey) error {
	ast, err := s.repo.GetAsset(ctx, key)
	if err != nil {
		return err
	}

	if err = s.store.Delete(ctx, key.Path()); err != nil && errors.Cause(err) != blob.ErrNotFound {
		return errors.Wrap(err, "deleting asset blob")
	}
	if ast.ThumbnailLocation != nil {
		if err = s.store.Delete(ctx, ast.ThumbnailLocation.Path()); err != nil && errors.Cause(err) != blob.ErrNotFound {
			s.logger.Warn(fmt.Sprintf("could not delete thumbnail for %s", key), err)
		}
	}
	return s.repo.DeleteAsset(ctx, key)
}

// Find lists the assets of a course.
func (s *Service) Find(ctx context.Context, org, course string) ([]Asset, error) {
	return s.repo.QueryCourseAssets(ctx, org, course)
}
