package echoapi

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/content"
)

type contentApi struct {
	svc *content.Service
}

func registerContentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *content.Service) {
	api := contentApi{svc: svc}

	// un-authed endpoints; assets are embedded in public course pages
	g.GET("/assets/c4x/:org/:course/:category/:name", api.serve)
	g.HEAD("/assets/c4x/:org/:course/:category/:name", api.serve)

	// authed endpoints
	ag := g.Group("/assets", jwt)
	ag.GET("/:org/:course", api.list)
	ag.POST("/:org/:course", api.upload, staffMiddleware())
	ag.DELETE("/c4x/:org/:course/:category/:name", api.delete, staffMiddleware())
}

// Handlers

func (api *contentApi) serve(ctx echo.Context) error {
	key := assetKeyFromPath(ctx)
	req := ctx.Request()

	ast, err := api.svc.Stat(req.Context(), key)
	if err != nil {
		return errors.Wrap(err, "looking up asset")
	}

	hdr := ctx.Response().Header()
	hdr.Set(echo.HeaderContentType, ast.ContentType)
	hdr.Set("Accept-Ranges", "bytes")
	hdr.Set("Last-Modified", ast.LastModified.UTC().Format(http.TimeFormat))

	if notModifiedSince(req, ast.LastModified) {
		return ctx.NoContent(http.StatusNotModified)
	}

	first, last, partial, err := parseRangeHeader(req.Header.Get("Range"), ast.Length)
	if err != nil {
		hdr.Set("Content-Range", fmt.Sprintf("bytes */%d", ast.Length))
		return ctx.NoContent(http.StatusRequestedRangeNotSatisfiable)
	}

	status := http.StatusOK
	length := ast.Length
	if partial {
		status = http.StatusPartialContent
		length = last - first + 1
		hdr.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", first, last, ast.Length))
	}
	hdr.Set(echo.HeaderContentLength, strconv.FormatInt(length, 10))

	if req.Method == http.MethodHead {
		return ctx.NoContent(status)
	}

	if partial {
		opened, stream, err := api.svc.OpenRange(req.Context(), key, first, last)
		if err != nil {
			return errors.Wrap(err, "opening asset range")
		}
		defer opened.Close()
		return ctx.Stream(status, ast.ContentType, stream)
	}

	opened, err := api.svc.Open(req.Context(), key)
	if err != nil {
		return errors.Wrap(err, "opening asset")
	}
	defer opened.Close()
	return ctx.Stream(status, ast.ContentType, opened.Reader.Stream())
}

func (api *contentApi) list(ctx echo.Context) error {
	assets, err := api.svc.Find(ctx.Request().Context(), ctx.Param("org"), ctx.Param("course"))
	if err != nil {
		return errors.Wrap(err, "listing course assets")
	}
	if assets == nil {
		assets = []content.Asset{}
	}
	return ctx.JSON(http.StatusOK, assets)
}

func (api *contentApi) upload(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing uploaded file")
	}

	contentType := fh.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(fh.Filename))
	}

	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer f.Close()

	ast, err := api.svc.Save(ctx.Request().Context(), ctx.Param("org"), ctx.Param("course"), fh.Filename, contentType, f)
	if err != nil {
		return errors.Wrap(err, "saving asset")
	}
	return ctx.JSON(http.StatusCreated, ast)
}

func (api *contentApi) delete(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), assetKeyFromPath(ctx)); err != nil {
		return errors.Wrap(err, "deleting asset")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Helpers

func assetKeyFromPath(ctx echo.Context) content.AssetKey {
	return content.AssetKey{
		Org:      ctx.Param("org"),
		Course:   ctx.Param("course"),
		Category: ctx.Param("category"),
		Name:     ctx.Param("name"),
	}
}

func notModifiedSince(req *http.Request, lastModified time.Time) bool {
	ims := req.Header.Get("If-Modified-Since")
	if ims == "" {
		return false
	}
	t, err := http.ParseTime(ims)
	if err != nil {
		return false
	}
	// header granularity is one second
	return !lastModified.Truncate(time.Second).After(t)
}

var errUnsatisfiableRange = errors.New("unsatisfiable byte range")

// parseRangeHeader resolves a "Range: bytes=..." header against size. The
// first satisfiable range wins; overlapping multi-range responses are not
// supported. A missing or malformed header means the whole body is served,
// while a well-formed header with no satisfiable range fails with
// errUnsatisfiableRange (416).
func parseRangeHeader(hdr string, size int64) (first, last int64, partial bool, err error) {
	if hdr == "" || !strings.HasPrefix(hdr, "bytes=") {
		return 0, 0, false, nil
	}

	wellFormed := false
	for _, part := range strings.Split(strings.TrimPrefix(hdr, "bytes="), ",") {
		part = strings.TrimSpace(part)
		dash := strings.Index(part, "-")
		if dash < 0 {
			continue
		}
		start, end := strings.TrimSpace(part[:dash]), strings.TrimSpace(part[dash+1:])

		if start == "" {
			// suffix range: last n bytes
			n, perr := strconv.ParseInt(end, 10, 64)
			if perr != nil {
				continue
			}
			wellFormed = true
			if n <= 0 || size == 0 {
				continue
			}
			if n > size {
				n = size
			}
			return size - n, size - 1, true, nil
		}

		first, perr := strconv.ParseInt(start, 10, 64)
		if perr != nil || first < 0 {
			continue
		}
		last := size - 1
		if end != "" {
			if last, perr = strconv.ParseInt(end, 10, 64); perr != nil {
				continue
			}
		}
		wellFormed = true
		if first > last || first >= size {
			continue
		}
		if last >= size {
			last = size - 1
		}
		return first, last, true, nil
	}

	if wellFormed {
		return 0, 0, false, errUnsatisfiableRange
	}
	return 0, 0, false, nil
}
