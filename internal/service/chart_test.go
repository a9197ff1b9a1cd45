package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"organigram/internal/adapter"
	"organigram/internal/config"
	"organigram/internal/domain"
	"organigram/internal/metrics"
)

const directoryYAML = `
version: "1"
containers:
  - dn: ou=hq,dc=corp
    name: Headquarters
    attributes:
      site: Paris
  - dn: ou=team,ou=hq,dc=corp
    name: Team
    manager: ""
agents:
  - dn: uid=boss,ou=hq,dc=corp
    id: 10
    last_name: Boss
    manager: uid=chief,dc=other
  - dn: uid=xu,ou=team,ou=hq,dc=corp
    id: 11
    last_name: Xu
    email: xu@corp
    manager: uid=boss,ou=hq,dc=corp
  - dn: uid=cee,ou=hq,dc=corp
    id: 12
    last_name: Cee
    manager: uid=missing,dc=corp
  - dn: uid=chief,dc=other
    id: 1
    last_name: Chief
`

func writeDirectory(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "directory.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func newTestService(t *testing.T, mutate func(*config.Config)) (*ChartService, *EventBus, *metrics.Registry) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Directory.Path = writeDirectory(t, directoryYAML)
	cfg.Directory.Base = "dc=corp"
	cfg.Attributes = []config.AttributeConfig{{Name: "site", Default: "Remote"}}
	if mutate != nil {
		mutate(cfg)
	}

	log, _ := test.NewNullLogger()
	bus := NewEventBus()
	reg := metrics.NewRegistry()
	svc := NewChartService(cfg, adapter.NewRegistry(log), bus,
		WithLogger(log),
		WithMetrics(reg),
		WithClock(func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }),
	)
	return svc, bus, reg
}

func rootNames(view *domain.ChartView) []string {
	var out []string
	for _, n := range view.Roots {
		out = append(out, n.LastName)
	}
	return out
}

func TestBuildResolvesChart(t *testing.T) {
	svc, bus, reg := newTestService(t, nil)
	events := make(chan Event, 4)
	bus.Subscribe(events)

	res, err := svc.Build(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, res.RunID, res.View.RunID)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), res.View.GeneratedAt)

	// The out-of-scope manager becomes a placeholder; cee stays at the top
	assert.Equal(t, []string{"Cee", "Chief"}, rootNames(res.View))
	chief := res.View.Roots[1]
	require.Len(t, chief.Children, 1)
	boss := chief.Children[0]
	assert.Equal(t, "Boss", boss.LastName)
	assert.Equal(t, "Paris", boss.Attributes["site"])

	// Team reports no manager, so a vacant post is placed above its members
	require.Len(t, boss.Children, 1)
	vacant := boss.Children[0]
	assert.Equal(t, "Vacant post", vacant.LastName)
	assert.Contains(t, vacant.Status, "vacant")
	require.Len(t, vacant.Children, 1)
	assert.Equal(t, "Xu", vacant.Children[0].LastName)
	assert.Equal(t, "Paris", vacant.Children[0].Attributes["site"])

	counts := domain.CountWarnings(res.Warnings())
	assert.Equal(t, 1, counts[domain.WarnUnresolvableManager])

	assert.Equal(t, 3, res.Stats.Agents)
	assert.Equal(t, 2, res.Stats.Placeholders)
	assert.Equal(t, 2, res.Stats.Containers)
	assert.Equal(t, 1, res.Stats.LookupsFound)
	assert.Equal(t, 1, res.Stats.LookupsMiss)

	assert.Equal(t, float64(1), testutil.ToFloat64(reg.RunsTotal.WithLabelValues("success")))
	assert.Equal(t, float64(3), testutil.ToFloat64(reg.AgentsTotal))

	select {
	case ev := <-events:
		assert.Equal(t, EventChartRebuilt, ev.Type)
		payload := ev.Payload.(RunPayload)
		assert.Equal(t, res.RunID, payload.RunID)
		assert.Equal(t, 3, payload.Agents)
	default:
		t.Fatal("expected a chart_rebuilt event")
	}

	current, err := svc.Current()
	require.NoError(t, err)
	assert.Same(t, res, current)
}

func TestBuildWithoutVacancies(t *testing.T) {
	svc, _, _ := newTestService(t, func(c *config.Config) {
		c.Hierarchy.SynthesizeVacancies = false
	})

	res, err := svc.Build(context.Background())
	require.NoError(t, err)

	boss := res.View.Roots[1].Children[0]
	require.Len(t, boss.Children, 1)
	assert.Equal(t, "Xu", boss.Children[0].LastName)
	assert.Equal(t, 1, res.Stats.Placeholders)
}

func TestEachBuildIsANewRun(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	first, err := svc.Build(context.Background())
	require.NoError(t, err)
	second, err := svc.Build(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.View.NodeCount(), second.View.NodeCount())
	assert.Len(t, second.Warnings(), len(first.Warnings()))
}

func TestBuildFailureKeepsPreviousResult(t *testing.T) {
	var path string
	svc, bus, reg := newTestService(t, func(c *config.Config) { path = c.Directory.Path })
	events := make(chan Event, 4)
	bus.Subscribe(events)

	_, err := svc.Current()
	assert.ErrorIs(t, err, ErrNoResult)

	good, err := svc.Build(context.Background())
	require.NoError(t, err)
	<-events

	require.NoError(t, os.WriteFile(path, []byte("agents: [dn: ["), 0644))
	_, err = svc.Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open directory")

	current, err := svc.Current()
	require.NoError(t, err)
	assert.Same(t, good, current)
	assert.Equal(t, float64(1), testutil.ToFloat64(reg.RunsTotal.WithLabelValues("error")))

	ev := <-events
	assert.Equal(t, EventRunFailed, ev.Type)
	assert.NotEmpty(t, ev.Payload.(RunPayload).Error)
}

func TestBuildHonoursCancellation(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAgentAndAttributeQueries(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	_, err := svc.Agent(11)
	assert.ErrorIs(t, err, ErrNoResult)

	_, err = svc.Build(context.Background())
	require.NoError(t, err)

	node, err := svc.Agent(11)
	require.NoError(t, err)
	assert.Equal(t, "Xu", node.LastName)
	assert.Equal(t, "xu@corp", node.Email)
	assert.Empty(t, node.Children)

	_, err = svc.Agent(999)
	assert.True(t, errors.Is(err, domain.ErrUnknownAgent))

	v, ok, err := svc.AttributeValue("ou=team,ou=hq,dc=corp", "site")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Paris", v)

	v, ok, err = svc.AttributeValue("ou=elsewhere,dc=corp", "site")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Remote", v)
}

func TestExport(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	var buf bytes.Buffer
	assert.ErrorIs(t, svc.Export("json", &buf), ErrNoResult)

	_, err := svc.Build(context.Background())
	require.NoError(t, err)

	require.NoError(t, svc.Export("json", &buf))
	var view domain.ChartView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &view))
	assert.Equal(t, 5, view.NodeCount())

	assert.Error(t, svc.Export("pdf", &buf))
}
