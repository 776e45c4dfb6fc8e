package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/konkayan987-blip/Dashbord-condensate/internal/cache"
	"github.com/konkayan987-blip/Dashbord-condensate/internal/config"
	"github.com/konkayan987-blip/Dashbord-condensate/internal/dataset"
	"github.com/konkayan987-blip/Dashbord-condensate/internal/loader"
	"github.com/konkayan987-blip/Dashbord-condensate/internal/metrics"
	"github.com/konkayan987-blip/Dashbord-condensate/internal/pipeline"
	"github.com/konkayan987-blip/Dashbord-condensate/internal/present"
)

// ErrStale is returned by ExportAsOf when the cached dataset is no longer the
// one the caller rendered from.
var ErrStale = errors.New("dashboard: data changed since the page was rendered")

// Fetcher loads the dataset from its source. *loader.Loader satisfies it.
type Fetcher interface {
	URL() string
	Load(ctx context.Context) (*dataset.Dataset, error)
}

// Settings are the presentation settings of a Service.
type Settings struct {
	Title          string
	TargetLine     bool
	ExportFilename string
}

// SettingsFor extracts the Settings from a config.
func SettingsFor(cfg *config.Config) Settings {
	return Settings{
		Title:          cfg.Dashboard.Title,
		TargetLine:     cfg.Dashboard.TargetLine(),
		ExportFilename: cfg.Dashboard.ExportFilename,
	}
}

// View is one rendered pass together with what the page needs around it.
type View struct {
	Dashboard present.Dashboard
	Choices   present.Choices
	LoadedAt  time.Time
	Rows      int
	Dropped   int
}

// OptionsView describes the loaded dataset without filtering it.
type OptionsView struct {
	present.Choices
	Rows     int       `json:"rows"`
	Dropped  int       `json:"dropped"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Status is the service state reported by the health endpoint.
type Status struct {
	SourceURL string        `json:"source_url"`
	CacheTTL  time.Duration `json:"-"`
	Cached    bool          `json:"cached"`
	CacheAge  time.Duration `json:"-"`
	Rows      int           `json:"rows"`
}

// Service runs Loader(cache) -> Filter -> Derive -> Presenter. Every request
// is an independent pass over the shared cached dataset.
//
// All exported methods are safe for concurrent use. Reconfigure may be called
// while requests are in flight; each pass uses the fetcher it started with.
type Service struct {
	mu       sync.RWMutex
	fetcher  Fetcher
	src      config.Source
	settings Settings

	cache   *cache.Cache
	metrics *metrics.Recorder
	now     func() time.Time
}

// New creates a Service from cfg. rec may be nil.
func New(cfg *config.Config, rec *metrics.Recorder) *Service {
	s := NewWithFetcher(loader.New(cfg.Source), cache.New(cfg.Source.CacheTTL), rec, SettingsFor(cfg))
	s.src = cfg.Source
	return s
}

// NewWithFetcher creates a Service over an explicit fetcher and cache.
func NewWithFetcher(f Fetcher, c *cache.Cache, rec *metrics.Recorder, st Settings) *Service {
	if rec == nil {
		rec = metrics.New()
	}
	return &Service{
		fetcher:  f,
		settings: st,
		cache:    c,
		metrics:  rec,
		now:      time.Now,
	}
}

// Reconfigure applies a reloaded config. A changed source drops the cached
// dataset so the next pass loads with the new settings.
func (s *Service) Reconfigure(cfg *config.Config) {
	s.mu.Lock()
	changed := !sameSource(cfg.Source, s.src)
	if changed {
		s.fetcher = loader.New(cfg.Source)
		s.src = cfg.Source
	}
	s.settings = SettingsFor(cfg)
	s.mu.Unlock()

	s.cache.SetTTL(cfg.Source.CacheTTL)
	if changed {
		s.cache.Invalidate()
	}
	slog.Info("dashboard: reconfigured",
		"url", cfg.Source.URL,
		"source_changed", changed,
		"cache_ttl", cfg.Source.CacheTTL,
		"date_policy", cfg.Source.DatePolicy,
	)
}

// sameSource reports whether a and b load the same dataset. The cache TTL
// governs reuse, not what is loaded, so it is ignored.
func sameSource(a, b config.Source) bool {
	a.CacheTTL, b.CacheTTL = 0, 0
	return a == b
}

// Settings returns the current presentation settings.
func (s *Service) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Load returns the cached dataset, fetching it when absent or expired.
func (s *Service) Load(ctx context.Context) (*cache.Entry, error) {
	s.mu.RLock()
	f := s.fetcher
	s.mu.RUnlock()

	e, hit, err := s.cache.GetOrLoad(ctx, f.URL(), func(ctx context.Context) (*dataset.Dataset, error) {
		ds, err := f.Load(ctx)
		if err != nil {
			s.metrics.RecordLoad(0, 0, err)
			return nil, err
		}
		s.metrics.RecordLoad(ds.Len(), ds.Dropped, nil)
		return ds, nil
	})
	if err != nil {
		slog.Error("dashboard: load failed", "url", f.URL(), "err", err)
		return nil, fmt.Errorf("dashboard: load: %w", err)
	}
	if hit {
		s.metrics.RecordCacheHit()
	}
	return e, nil
}

// Render runs one full pass for c.
func (s *Service) Render(ctx context.Context, c pipeline.Criteria) (*View, error) {
	e, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	st := s.Settings()

	res := pipeline.FilterAndDerive(e.Dataset, c)
	s.metrics.RecordRender(res.Empty, res.Aggregates.AvgPct, res.Aggregates.AvgTarget)

	d := present.Build(res, present.Options{Title: st.Title, TargetLine: st.TargetLine}, s.now())
	return &View{
		Dashboard: d,
		Choices:   present.BuildChoices(e.Dataset),
		LoadedAt:  e.LoadedAt,
		Rows:      e.Dataset.Len(),
		Dropped:   e.Dataset.Dropped,
	}, nil
}

// Summary renders the default, unfiltered view without its table.
func (s *Service) Summary(ctx context.Context) (present.Dashboard, error) {
	v, err := s.Render(ctx, pipeline.Criteria{})
	if err != nil {
		return present.Dashboard{}, err
	}
	d := v.Dashboard
	d.Table = nil
	return d, nil
}

// Export writes the filtered table for c as CSV. It returns pipeline.ErrEmpty
// without writing anything when c matches no rows.
func (s *Service) Export(ctx context.Context, c pipeline.Criteria, w io.Writer) error {
	return s.ExportAsOf(ctx, c, time.Time{}, w)
}

// ExportAsOf is Export pinned to the dataset loaded at asOf, the LoadedAt of
// the View the caller rendered. It returns ErrStale without writing anything
// when the cache has been refreshed since. A zero asOf pins nothing.
func (s *Service) ExportAsOf(ctx context.Context, c pipeline.Criteria, asOf time.Time, w io.Writer) error {
	e, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if !asOf.IsZero() && !e.LoadedAt.Equal(asOf) {
		return ErrStale
	}
	res := pipeline.FilterAndDerive(e.Dataset, c)
	if res.Empty {
		return pipeline.ErrEmpty
	}
	return present.WriteCSV(w, present.BuildTable(res.Dataset))
}

// Options describes the loaded dataset: its date bounds, boilers and size.
func (s *Service) Options(ctx context.Context) (*OptionsView, error) {
	e, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &OptionsView{
		Choices:  present.BuildChoices(e.Dataset),
		Rows:     e.Dataset.Len(),
		Dropped:  e.Dataset.Dropped,
		LoadedAt: e.LoadedAt,
	}, nil
}

// Status reports the source and cache state without loading anything.
func (s *Service) Status() Status {
	s.mu.RLock()
	url := s.fetcher.URL()
	s.mu.RUnlock()

	st := Status{SourceURL: url, CacheTTL: s.cache.TTL()}
	if e, ok := s.cache.Get(url); ok {
		st.Cached = true
		st.Rows = e.Dataset.Len()
		st.CacheAge = s.now().Sub(e.LoadedAt)
	}
	return st
}

// Metrics returns the recorder the service reports to.
func (s *Service) Metrics() *metrics.Recorder { return s.metrics }
