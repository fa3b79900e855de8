// Package options loads the department, designation and report-to choices
// for the user wizard. Each list is served from a caller supplied seed
// first, then from the Cache, and only then fetched.
package options

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Fetcher is the department/designation/reporting-users data API
type Fetcher interface {
	FetchDepartments(ctx context.Context) ([]models.Option, error)
	FetchDesignations(ctx context.Context, departmentID int64) ([]models.Option, error)
	FetchReportTo(ctx context.Context, departmentID int64) ([]models.Option, error)
}

// Seed holds lists handed over by the caller, typically rendered with the
// page that opened the wizard. Designations and report-to candidates carry
// their department in Meta and are filtered here.
type Seed struct {
	Departments  []models.Option
	Designations []models.Option
	ReportTo     []models.Option
}

// DefaultFetchTimeout bounds a shared fetch when no timeout is set
const DefaultFetchTimeout = 15 * time.Second

// Provider serves option lists
type Provider struct {
	seed    Seed
	cache   *Cache
	fetcher Fetcher
	group   singleflight.Group
	timeout time.Duration
	log     zerolog.Logger
}

// NewProvider creates a Provider. cache may be shared between providers that
// talk to the same backend.
func NewProvider(seed Seed, cache *Cache, fetcher Fetcher, log zerolog.Logger) *Provider {
	if cache == nil {
		cache = NewCache(0)
	}
	return &Provider{
		seed:    seed,
		cache:   cache,
		fetcher: fetcher,
		timeout: DefaultFetchTimeout,
		log:     log.With().Str("component", "options").Logger(),
	}
}

// SetTimeout bounds each fetch. Non-positive values are ignored.
func (p *Provider) SetTimeout(d time.Duration) {
	if d > 0 {
		p.timeout = d
	}
}

// Cache returns the provider's cache
func (p *Provider) Cache() *Cache {
	return p.cache
}

// LoadDepartments returns every department
func (p *Provider) LoadDepartments(ctx context.Context) ([]models.Option, error) {
	if len(p.seed.Departments) > 0 {
		return cloneOptions(p.seed.Departments), nil
	}
	return p.load(ctx, Key(KindDepartments, 0), func(ctx context.Context) ([]models.Option, error) {
		return p.fetcher.FetchDepartments(ctx)
	})
}

// LoadDesignations returns the designations of departmentID
func (p *Provider) LoadDesignations(ctx context.Context, departmentID int64) ([]models.Option, error) {
	if departmentID <= 0 {
		return nil, nil
	}
	if seeded := filterByDepartment(p.seed.Designations, departmentID); len(seeded) > 0 {
		return seeded, nil
	}
	opts, err := p.load(ctx, Key(KindDesignations, departmentID), func(ctx context.Context) ([]models.Option, error) {
		return p.fetcher.FetchDesignations(ctx, departmentID)
	})
	if err != nil {
		return nil, err
	}
	return filterByDepartment(opts, departmentID), nil
}

// LoadReportToCandidates returns the users of departmentID that
// excludeUserID may report to, most senior first then by name
func (p *Provider) LoadReportToCandidates(ctx context.Context, departmentID, excludeUserID int64) ([]models.Option, error) {
	if departmentID <= 0 {
		return nil, nil
	}
	opts := filterByDepartment(p.seed.ReportTo, departmentID)
	if len(opts) == 0 {
		var err error
		opts, err = p.load(ctx, Key(KindReportTo, departmentID), func(ctx context.Context) ([]models.Option, error) {
			return p.fetcher.FetchReportTo(ctx, departmentID)
		})
		if err != nil {
			return nil, err
		}
		opts = filterByDepartment(opts, departmentID)
	}

	out := opts[:0]
	for _, o := range opts {
		if excludeUserID != 0 && o.ID == excludeUserID {
			continue
		}
		out = append(out, o)
	}
	SortBySeniority(out)
	return out, nil
}

// DesignationBelongs reports whether designationID is one of the
// designations of departmentID
func (p *Provider) DesignationBelongs(ctx context.Context, designationID, departmentID int64) (bool, error) {
	opts, err := p.LoadDesignations(ctx, departmentID)
	if err != nil {
		return false, err
	}
	return containsID(opts, designationID), nil
}

// CandidateBelongs reports whether userID is a report-to candidate of
// departmentID
func (p *Provider) CandidateBelongs(ctx context.Context, userID, departmentID, excludeUserID int64) (bool, error) {
	opts, err := p.LoadReportToCandidates(ctx, departmentID, excludeUserID)
	if err != nil {
		return false, err
	}
	return containsID(opts, userID), nil
}

// Invalidate drops a cached list
func (p *Provider) Invalidate(kind Kind, departmentID int64) {
	p.cache.Invalidate(Key(kind, departmentID))
}

func (p *Provider) load(ctx context.Context, key string, fetch func(context.Context) ([]models.Option, error)) ([]models.Option, error) {
	if opts, ok := p.cache.Get(key); ok {
		return opts, nil
	}
	if p.fetcher == nil {
		return nil, fmt.Errorf("no fetcher configured for %s", key)
	}

	// shared by every caller waiting on key, detached from the first one's
	// cancellation
	ch := p.group.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()
		opts, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		p.cache.Put(key, opts)
		return opts, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load %s: %w", key, ctx.Err())
	case res = <-ch:
	}
	v, err, shared := res.Val, res.Err, res.Shared
	if err != nil {
		p.log.Error().Err(err).Str("key", key).Msg("Failed to fetch options")
		return nil, fmt.Errorf("load %s: %w", key, err)
	}

	p.log.Debug().Str("key", key).Bool("shared", shared).Msg("Options fetched")
	return cloneOptions(v.([]models.Option)), nil
}

// SortBySeniority orders options by level descending, then label ascending
func SortBySeniority(opts []models.Option) {
	sort.SliceStable(opts, func(i, j int) bool {
		if opts[i].Meta.Level != opts[j].Meta.Level {
			return opts[i].Meta.Level > opts[j].Meta.Level
		}
		return strings.ToLower(opts[i].Label) < strings.ToLower(opts[j].Label)
	})
}

func filterByDepartment(opts []models.Option, departmentID int64) []models.Option {
	var out []models.Option
	for _, o := range opts {
		if o.Meta.DepartmentID == departmentID {
			out = append(out, o)
		}
	}
	return out
}

func containsID(opts []models.Option, id int64) bool {
	for _, o := range opts {
		if o.ID == id {
			return true
		}
	}
	return false
}
