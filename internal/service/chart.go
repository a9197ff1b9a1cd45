package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"organigram/internal/adapter"
	"organigram/internal/codec"
	"organigram/internal/config"
	"organigram/internal/containers"
	"organigram/internal/domain"
	"organigram/internal/hierarchy"
	"organigram/internal/metrics"
)

// ErrNoResult is returned by readers before the first successful run
var ErrNoResult = errors.New("no chart has been built yet")

// Result is one finished run. It is never modified after Build returns it.
type Result struct {
	RunID      string
	View       *domain.ChartView
	Agents     *hierarchy.Builder
	Containers *containers.Hierarchy
	Stats      metrics.RunStats
}

// Warnings returns the container warnings followed by the agent warnings
func (r *Result) Warnings() []domain.Warning {
	return r.View.Warnings
}

// ChartService builds charts from the configured directory
type ChartService struct {
	cfg      *config.Config
	dirs     *adapter.Registry
	eventBus *EventBus
	metrics  *metrics.Registry
	log      logrus.FieldLogger
	now      func() time.Time

	build   sync.Mutex
	mu      sync.RWMutex
	current *Result
}

// Option configures a ChartService
type Option func(*ChartService)

// WithLogger sets the service logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *ChartService) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics records every run in reg
func WithMetrics(reg *metrics.Registry) Option {
	return func(s *ChartService) {
		s.metrics = reg
	}
}

// WithClock overrides the clock used for run timestamps
func WithClock(now func() time.Time) Option {
	return func(s *ChartService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewChartService creates a new chart service
func NewChartService(cfg *config.Config, dirs *adapter.Registry, eventBus *EventBus, opts ...Option) *ChartService {
	s := &ChartService{
		cfg:      cfg,
		dirs:     dirs,
		eventBus: eventBus,
		log:      logrus.StandardLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the latest finished run
func (s *ChartService) Current() (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNoResult
	}
	return s.current, nil
}

// Build performs one run against the configured directory and makes it
// the current result. Runs are serialized; a failed run leaves the
// previous result in place.
func (s *ChartService) Build(ctx context.Context) (*Result, error) {
	s.build.Lock()
	defer s.build.Unlock()

	runID := uuid.New().String()
	log := s.log.WithField("run_id", runID)
	start := time.Now()

	res, err := s.run(ctx, runID, log)
	if err != nil {
		s.record(metrics.RunStats{Failed: true})
		if s.eventBus != nil {
			s.eventBus.Publish(Event{
				Type:    EventRunFailed,
				Payload: RunPayload{RunID: runID, Error: err.Error()},
			})
		}
		log.WithError(err).Error("run failed")
		return nil, err
	}
	res.Stats.Duration = time.Since(start)
	s.record(res.Stats)

	s.mu.Lock()
	s.current = res
	s.mu.Unlock()

	if s.eventBus != nil {
		s.eventBus.Publish(Event{
			Type: EventChartRebuilt,
			Payload: RunPayload{
				RunID:    runID,
				Agents:   res.Stats.Agents,
				Warnings: len(res.View.Warnings),
			},
		})
	}
	log.WithFields(logrus.Fields{
		"agents":       res.Stats.Agents,
		"placeholders": res.Stats.Placeholders,
		"containers":   res.Stats.Containers,
		"warnings":     len(res.View.Warnings),
		"duration":     res.Stats.Duration,
	}).Info("chart built")
	return res, nil
}

func (s *ChartService) run(ctx context.Context, runID string, log logrus.FieldLogger) (*Result, error) {
	dc := s.cfg.Directory
	dir, err := s.dirs.Open(ctx, dc.Kind, dc.Path)
	if err != nil {
		return nil, fmt.Errorf("open directory: %w", err)
	}
	defer dir.Close()
	log = log.WithField("source", dir.Name())

	ch, err := s.loadContainers(ctx, dir, log)
	if err != nil {
		return nil, err
	}

	b := hierarchy.New(
		hierarchy.WithLogger(log),
		hierarchy.WithNameOrder(domain.ParseNameOrder(s.cfg.Hierarchy.NameOrder)),
		hierarchy.WithLookup(hierarchy.LookupFunc(adapter.Bind(ctx, dir))),
	)
	if err := s.loadAgents(ctx, dir, b, log); err != nil {
		return nil, err
	}

	if s.cfg.Hierarchy.SynthesizeVacancies {
		for _, c := range ch.All() {
			if c.Manager != domain.ManagerAbsent {
				continue
			}
			b.SynthesizeVacantManager(c.Path, s.cfg.Hierarchy.VacantLabel)
		}
	}
	b.FindOtherPostIDs()
	b.ResolveReplacements()

	view := codec.BuildView(b, ch, codec.ViewOptions{
		RunID:       runID,
		GeneratedAt: s.now().UTC(),
		IncludeAll:  s.cfg.Hierarchy.IncludeAll,
		Columns:     s.columns(),
		GroupFrom:   s.cfg.Export.GroupFrom,
		GroupLevels: s.cfg.Export.GroupLevels,
	})

	ls := b.LookupStats()
	agents := b.Count()
	return &Result{
		RunID:      runID,
		View:       view,
		Agents:     b,
		Containers: ch,
		Stats: metrics.RunStats{
			Agents:       agents,
			Placeholders: b.Len() - 1 - agents,
			Containers:   ch.Len(),
			LookupsFound: ls.Found,
			LookupsMiss:  ls.Missed,
			LookupErrors: ls.Errors,
			Warnings:     view.Warnings,
		},
	}, nil
}

func (s *ChartService) loadContainers(ctx context.Context, dir adapter.Directory, log logrus.FieldLogger) (*containers.Hierarchy, error) {
	recs, err := dir.Containers(ctx, s.cfg.Directory.Base)
	if err != nil {
		return nil, fmt.Errorf("read containers: %w", err)
	}

	ch := containers.New(
		containers.WithLogger(log),
		containers.WithLevelAttribute(s.cfg.Export.LevelAttribute),
	)
	for _, rec := range recs {
		// Rejected records are already recorded as warnings
		_, _ = ch.Add(rec)
	}
	ch.Chain()
	for _, a := range s.cfg.Attributes {
		ch.RegisterAttribute(a.Name, a.Default)
	}
	return ch, nil
}

func (s *ChartService) loadAgents(ctx context.Context, dir adapter.Directory, b *hierarchy.Builder, log logrus.FieldLogger) error {
	recs, err := dir.Agents(ctx, s.cfg.Directory.Base)
	if err != nil {
		return fmt.Errorf("read agents: %w", err)
	}
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := b.Add(rec); err != nil && !errors.Is(err, domain.ErrDuplicateIdentity) {
			log.WithError(err).WithField("path", rec.DN).Warn("agent record skipped")
		}
	}
	log.WithField("records", len(recs)).Debug("agents loaded")
	return nil
}

// columns returns the attributes copied onto every node: the configured
// export columns, or every registered attribute when none are listed.
func (s *ChartService) columns() []string {
	if len(s.cfg.Export.Columns) > 0 {
		return s.cfg.Export.Columns
	}
	cols := make([]string, 0, len(s.cfg.Attributes))
	for _, a := range s.cfg.Attributes {
		cols = append(cols, a.Name)
	}
	return cols
}

func (s *ChartService) record(stats metrics.RunStats) {
	if s.metrics != nil {
		s.metrics.RecordRun(stats)
	}
}

// Export writes the current result in format to w
func (s *ChartService) Export(format string, w io.Writer) error {
	res, err := s.Current()
	if err != nil {
		return err
	}
	exp, err := codec.ExporterFor(format)
	if err != nil {
		return err
	}
	if err := exp.Export(res.View, w); err != nil {
		return fmt.Errorf("export %s: %w", format, err)
	}
	return nil
}

// Agent renders the agent carrying id in the current result
func (s *ChartService) Agent(id int64) (*domain.ChartNode, error) {
	res, err := s.Current()
	if err != nil {
		return nil, err
	}
	a, ok := res.Agents.ByID(id)
	if !ok {
		return nil, fmt.Errorf("agent %d: %w", id, domain.ErrUnknownAgent)
	}
	node, ok := codec.NodeOf(res.Agents, res.Containers, a.Ref, s.columns())
	if !ok {
		return nil, fmt.Errorf("agent %d: %w", id, domain.ErrUnknownAgent)
	}
	return &node, nil
}

// AttributeValue resolves an inherited container attribute in the current result
func (s *ChartService) AttributeValue(path, name string) (string, bool, error) {
	res, err := s.Current()
	if err != nil {
		return "", false, err
	}
	v, ok := res.Containers.AttributeValue(path, name)
	return v, ok, nil
}
