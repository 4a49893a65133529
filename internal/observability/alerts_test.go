package observability

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	jobmetrics "github.com/odyssey-erp/console/internal/jobs"
)

type alertRule struct {
	Alert       string            `yaml:"alert"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for"`
	Labels      map[string]string `yaml:"labels"`
	Annotations map[string]string `yaml:"annotations"`
}

type ruleFile struct {
	Groups []struct {
		Name  string      `yaml:"name"`
		Rules []alertRule `yaml:"rules"`
	} `yaml:"groups"`
}

var (
	metricRef     = regexp.MustCompile(`console_[a-z_]+`)
	seriesSuffix  = regexp.MustCompile(`_(bucket|sum|count)$`)
	runbookAnchor = regexp.MustCompile(`(?m)^#{2,3} (.+)$`)
)

func loadConsoleRules(t *testing.T) []alertRule {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "deploy", "prometheus", "alerts", "console.yml"))
	require.NoError(t, err)
	var file ruleFile
	require.NoError(t, yaml.Unmarshal(data, &file))
	for _, g := range file.Groups {
		if g.Name == "console" {
			return g.Rules
		}
	}
	t.Fatal("console alert group missing")
	return nil
}

// exportedFamilies lists every metric family the API and worker register once
// each vector has at least one series.
func exportedFamilies(t *testing.T) map[string]bool {
	t.Helper()
	m := NewMetrics()
	m.requests.WithLabelValues("/", "200")
	m.latency.WithLabelValues("/").Observe(0)
	m.events.WithLabelValues("invoice", "send")
	m.ObserveDashboardBuild("compute", 0)
	m.SetVersion("test")

	jobs := jobmetrics.NewMetrics(m.Registerer())
	_ = jobs.Track("dashboard_warmup").End(assert.AnError)
	jobs.AddProcessed("dashboard_warmup", 1)

	families, err := m.registry.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func runbookAnchors(t *testing.T) map[string]bool {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "docs", "runbook-console.md"))
	require.NoError(t, err)
	anchors := map[string]bool{}
	for _, m := range runbookAnchor.FindAllStringSubmatch(string(data), -1) {
		anchors[strings.ReplaceAll(strings.ToLower(strings.TrimSpace(m[1])), " ", "-")] = true
	}
	return anchors
}

func TestConsoleAlertRulesReferenceExportedMetrics(t *testing.T) {
	rules := loadConsoleRules(t)
	require.NotEmpty(t, rules)
	families := exportedFamilies(t)

	for _, rule := range rules {
		t.Run(rule.Alert, func(t *testing.T) {
			refs := metricRef.FindAllString(rule.Expr, -1)
			require.NotEmpty(t, refs, "expression must use a console metric")
			for _, ref := range refs {
				name := seriesSuffix.ReplaceAllString(ref, "")
				assert.True(t, families[name] || families[ref], "%s is not exported", ref)
			}
		})
	}
}

func TestConsoleAlertRulesAreDocumented(t *testing.T) {
	anchors := runbookAnchors(t)
	for _, rule := range loadConsoleRules(t) {
		t.Run(rule.Alert, func(t *testing.T) {
			assert.Contains(t, []string{"critical", "warning"}, rule.Labels["severity"])
			assert.NotEmpty(t, rule.For)
			assert.NotEmpty(t, rule.Annotations["summary"])
			assert.NotEmpty(t, rule.Annotations["description"])

			doc, anchor, ok := strings.Cut(rule.Annotations["runbook"], "#")
			require.True(t, ok, "runbook must point at a section")
			assert.Equal(t, "docs/runbook-console.md", doc)
			assert.True(t, anchors[anchor], "runbook has no section for #%s", anchor)
		})
	}
}

func TestRegistryRejectsDuplicateJobMetrics(t *testing.T) {
	m := NewMetrics()
	jobmetrics.NewMetrics(m.Registerer())
	assert.Panics(t, func() { jobmetrics.NewMetrics(m.Registerer()) })
	assert.NotPanics(t, func() { jobmetrics.NewMetrics(prometheus.NewRegistry()) })
}
