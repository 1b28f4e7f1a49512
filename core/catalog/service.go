package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// Service serves catalog data out of the cache, filling it from the
// discovery service on misses.
type Service struct {
	client *http.Client
	cache  Cache
	logger core.Logger
	ttl    time.Duration
}

func NewService(cache Cache, logger core.Logger) *Service {
	return &Service{
		client: &http.Client{Timeout: 30 * time.Second},
		cache:  cache,
		logger: logger,
		ttl:    core.Conf.Catalog.CacheTTL,
	}
}

// Program returns one program by UUID, from cache when fresh.
func (s *Service) Program(ctx context.Context, id uuid.UUID) (Program, error) {
	key := ProgramCacheKey(id)
	if data, ok := s.cache.Get(ctx, key); ok {
		var prog Program
		if err := json.Unmarshal(data, &prog); err == nil {
			return prog, nil
		}
		s.logger.Warn(fmt.Sprintf("dropping unreadable cache entry %q", key))
		s.cache.Delete(ctx, key)
	}

	var prog Program
	if err := s.getJSON(ctx, fmt.Sprintf("/api/v1/programs/%s/", id), &prog); err != nil {
		return Program{}, err
	}
	s.cachePut(ctx, key, prog)
	return prog, nil
}

// Programs returns the site's active programs. The UUID list is cached under
// the site domain; each program is cached individually.
func (s *Service) Programs(ctx context.Context, domain string) ([]Program, error) {
	uuids, err := s.siteProgramUUIDs(ctx, domain)
	if err != nil {
		return nil, err
	}

	programs := make([]Program, 0, len(uuids))
	for _, id := range uuids {
		prog, err := s.Program(ctx, id)
		if err != nil {
			return nil, err
		}
		programs = append(programs, prog)
	}
	return programs, nil
}

func (s *Service) siteProgramUUIDs(ctx context.Context, domain string) ([]uuid.UUID, error) {
	key := SiteProgramUUIDsCacheKey(domain)
	if data, ok := s.cache.Get(ctx, key); ok {
		var uuids []uuid.UUID
		if err := json.Unmarshal(data, &uuids); err == nil {
			return uuids, nil
		}
		s.logger.Warn(fmt.Sprintf("dropping unreadable cache entry %q", key))
		s.cache.Delete(ctx, key)
	}

	var uuids []uuid.UUID
	if err := s.getJSON(ctx, fmt.Sprintf("/api/v1/programs/?status=%s&uuids_only=1", ProgramStatusActive), &uuids); err != nil {
		return nil, err
	}
	s.cachePut(ctx, key, uuids)
	return uuids, nil
}

// Pathway returns one credit pathway from the cache. Pathways only exist in
// the cache once the site list has been fetched.
func (s *Service) Pathway(ctx context.Context, domain string, id int64) (Pathway, error) {
	key := PathwayCacheKey(id)
	if data, ok := s.cache.Get(ctx, key); ok {
		var pw Pathway
		if err := json.Unmarshal(data, &pw); err == nil {
			return pw, nil
		}
		s.logger.Warn(fmt.Sprintf("dropping unreadable cache entry %q", key))
		s.cache.Delete(ctx, key)
	}

	pathways, err := s.refreshPathways(ctx, domain)
	if err != nil {
		return Pathway{}, err
	}
	for _, pw := range pathways {
		if pw.ID == id {
			return pw, nil
		}
	}
	return Pathway{}, errors.Errorf("pathway %d not found", id)
}

// Pathways returns the site's credit pathways, filling the cache on a miss.
func (s *Service) Pathways(ctx context.Context, domain string) ([]Pathway, error) {
	key := SitePathwayIDsCacheKey(domain)
	data, ok := s.cache.Get(ctx, key)
	if !ok {
		return s.refreshPathways(ctx, domain)
	}

	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		s.logger.Warn(fmt.Sprintf("dropping unreadable cache entry %q", key))
		s.cache.Delete(ctx, key)
		return s.refreshPathways(ctx, domain)
	}

	pathways := make([]Pathway, 0, len(ids))
	for _, id := range ids {
		entry, ok := s.cache.Get(ctx, PathwayCacheKey(id))
		if !ok {
			return s.refreshPathways(ctx, domain)
		}
		var pw Pathway
		if err := json.Unmarshal(entry, &pw); err != nil {
			return s.refreshPathways(ctx, domain)
		}
		pathways = append(pathways, pw)
	}
	return pathways, nil
}

// refreshPathways pulls the full pathway list from the discovery service and
// rebuilds the per-pathway and ids cache entries.
func (s *Service) refreshPathways(ctx context.Context, domain string) ([]Pathway, error) {
	var page struct {
		Results []Pathway `json:"results"`
	}
	if err := s.getJSON(ctx, "/api/v1/pathways/", &page); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(page.Results))
	for _, pw := range page.Results {
		ids = append(ids, pw.ID)
		s.cachePut(ctx, PathwayCacheKey(pw.ID), pw)
	}
	s.cachePut(ctx, SitePathwayIDsCacheKey(domain), ids)
	return page.Results, nil
}

func (s *Service) cachePut(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("could not cache %q", key), err)
		return
	}
	s.cache.Set(ctx, key, data, s.ttl)
}

func (s *Service) getJSON(ctx context.Context, path string, out interface{}) error {
	u := strings.TrimSuffix(core.Conf.Catalog.DiscoveryAPIURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrap(err, "building request")
	}

	res, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "calling discovery service")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return errors.Errorf("discovery service returned %s", res.Status)
	}
	if err = json.NewDecoder(res.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decoding discovery response")
	}
	return nil
}
