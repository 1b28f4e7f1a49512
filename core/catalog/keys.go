package catalog

import (
	"fmt"

	"github.com/google/uuid"
)

// Cache key formats are shared by every process reading the catalog cache,
// never derive keys any other way.
const (
	programCacheKeyFmt          = "program-%s"
	siteProgramUUIDsCacheKeyFmt = "program-uuids-%s"
	pathwayCacheKeyFmt          = "credit-pathway-%d"
	sitePathwayIDsCacheKeyFmt   = "credit-pathway-ids-%s"
)

// ProgramCacheKey locates one cached program.
func ProgramCacheKey(id uuid.UUID) string {
	return fmt.Sprintf(programCacheKeyFmt, id)
}

// SiteProgramUUIDsCacheKey locates the list of program UUIDs of a site.
func SiteProgramUUIDsCacheKey(domain string) string {
	return fmt.Sprintf(siteProgramUUIDsCacheKeyFmt, domain)
}

// PathwayCacheKey locates one cached credit pathway.
func PathwayCacheKey(id int64) string {
	return fmt.Sprintf(pathwayCacheKeyFmt, id)
}

// SitePathwayIDsCacheKey locates the list of credit pathway ids of a site.
func SitePathwayIDsCacheKey(domain string) string {
	return fmt.Sprintf(sitePathwayIDsCacheKeyFmt, domain)
}
