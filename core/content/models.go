package content

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Asset categories under the legacy /c4x/ namespace.
const (
	AssetCategory     = "asset"
	ThumbnailCategory = "thumbnail"
)

const thumbnailExt = ".jpg"

var (
	unsafeNameChars = regexp.MustCompile(`[^\w.%-]`)
	assetPathRegex  = regexp.MustCompile(`^/c4x/([^/]+)/([^/]+)/([^/]+)/([^/]+)$`)
)

type (
	// AssetKey locates one stored object within a course.
	AssetKey struct {
		Org      string `json:"org"`
		Course   string `json:"course"`
		Category string `json:"category"`
		Name     string `json:"name"`
	}

	// Asset describes one stored static file. ThumbnailLocation is nil when
	// the asset has no thumbnail; a zero-valued key never stands in for
	// absence.
	Asset struct {
		Location          AssetKey  `json:"location"`
		Name              string    `json:"name"`
		ContentType       string    `json:"content_type"`
		Length            int64     `json:"length"`
		ThumbnailLocation *AssetKey `json:"thumbnail_location"`
		LastModified      time.Time `json:"last_modified"` // UTC
	}
)

// NewAssetKey builds a key for name within a course, sanitizing the name.
func NewAssetKey(org, course, category, name string) AssetKey {
	return AssetKey{Org: org, Course: course, Category: category, Name: SanitizeName(name)}
}

// Path renders the legacy serving path, "/c4x/{org}/{course}/{category}/{name}".
func (k AssetKey) Path() string {
	return fmt.Sprintf("/c4x/%s/%s/%s/%s", k.Org, k.Course, k.Category, k.Name)
}

func (k AssetKey) String() string { return k.Path() }

func (k AssetKey) IsZero() bool { return k == AssetKey{} }

// MapKey returns a stable identity for use as a map or database key.
func (k AssetKey) MapKey() string { return k.Path() }

// ParseAssetPath parses a legacy serving path back into its key.
func ParseAssetPath(path string) (AssetKey, error) {
	m := assetPathRegex.FindStringSubmatch(path)
	if m == nil {
		return AssetKey{}, errors.Errorf("invalid asset path %q", path)
	}
	return AssetKey{Org: m[1], Course: m[2], Category: m[3], Name: m[4]}, nil
}

// SanitizeName replaces every character outside [A-Za-z0-9_.%-] with "_" so
// names are safe to embed in serving paths.
func SanitizeName(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "_")
}

// ThumbnailName derives the stored thumbnail filename for an asset name.
// Thumbnails are always JPEG: "foo.jpg" keeps its name while any other
// extension folds into the stem ("foo.png" -> "foo-png.jpg").
func ThumbnailName(name string) string {
	ext := filepath.Ext(name)
	root := strings.TrimSuffix(name, ext)
	if ext != thumbnailExt {
		root += strings.Replace(ext, ".", "-", 1)
	}
	return root + thumbnailExt
}
