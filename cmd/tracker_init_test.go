package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/meeting-tracker/internal/config"
	"github.com/sells-group/meeting-tracker/internal/extract"
	"github.com/sells-group/meeting-tracker/internal/model"
	"github.com/sells-group/meeting-tracker/internal/taxonomy"
)

const testTaxonomy = `
industries:
  - name: 3PL
    companies:
      - name: XPO Logistics
        aliases: [XPO]
  - name: E-Commerce
    companies: [Amazon]
  - name: Technology
    priority: false
    companies: [Microsoft]
`

func writeTaxonomy(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testTaxonomy), 0o644))
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Tracker: config.TrackerConfig{
			LookbackDays:          7,
			TaxonomyPath:          writeTaxonomy(t),
			MaxConcurrentArticles: 2,
		},
		Store: config.StoreConfig{Driver: "file", DatabaseURL: filepath.Join(dir, "history.json")},
		Fetch: config.FetchConfig{TimeoutSecs: 5, MaxConcurrentSources: 2},
		Report: config.ReportConfig{
			XLSXPath:        filepath.Join(dir, "meetings.xlsx"),
			HTMLPreviewPath: filepath.Join(dir, "preview.html"),
		},
	}
}

func TestTrackerEnv_Close_Nil(t *testing.T) {
	env := &trackerEnv{}
	assert.NotPanics(t, env.Close)
}

func TestInitTracker_AddIsIdempotent(t *testing.T) {
	cfg = testConfig(t)
	ctx := context.Background()

	env, err := initTracker(ctx)
	require.NoError(t, err)
	defer env.Close()

	m := model.ExtractedMeeting{
		AttendeeName: "Andy Jassy",
		CompanyRaw:   "Amazon",
		MeetingType:  model.MeetingTypeMeeting,
		Source:       model.ArticleRef{Title: "Manual entry", SourceName: "Manual"},
	}
	fresh, err := env.Tracker.Add(ctx, m)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "E-Commerce", fresh[0].Industry)
	assert.Equal(t, model.PriorityHigh, fresh[0].Priority)

	fresh, err = env.Tracker.Add(ctx, m)
	require.NoError(t, err)
	assert.Empty(t, fresh)

	history, err := env.Store.LoadMeetings(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestInitTracker_LookupFillsCompany(t *testing.T) {
	cfg = testConfig(t)
	cfg.Tracker.LookupEnabled = true
	ctx := context.Background()

	env, err := initTracker(ctx)
	require.NoError(t, err)
	defer env.Close()

	fresh, err := env.Tracker.Add(ctx, model.ExtractedMeeting{
		AttendeeName: "Andy Jassy",
		MeetingType:  model.MeetingTypeMeeting,
		Source:       model.ArticleRef{Title: "Manual entry", SourceName: "Manual"},
	})
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "Amazon", fresh[0].CompanyRaw)
	assert.Equal(t, "E-Commerce", fresh[0].Industry)
}

func TestInitTracker_BadTaxonomy(t *testing.T) {
	cfg = testConfig(t)
	cfg.Tracker.TaxonomyPath = filepath.Join(t.TempDir(), "missing.yaml")

	env, err := initTracker(context.Background())
	assert.Nil(t, env)
	require.Error(t, err)
	assert.True(t, eris.Is(err, taxonomy.ErrConfigInvalid))
}

func TestInitTracker_BadDriver(t *testing.T) {
	cfg = testConfig(t)
	cfg.Store.Driver = "mongo"

	env, err := initTracker(context.Background())
	assert.Nil(t, env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestWriteClassifications(t *testing.T) {
	tx, err := taxonomy.Parse([]byte(testTaxonomy))
	require.NoError(t, err)

	var buf bytes.Buffer
	writeClassifications(&buf, tx, []string{"XPO", "Microsoft", "Acme Widgets"})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"COMPANY", "INDUSTRY", "CONFIDENCE", "TIER", "MATCHED", "PRIORITY"},
		fieldsOf(lines[0]))
	assert.Equal(t, []string{"XPO", "3PL", "high", "alias", "XPO", "high"}, fieldsOf(lines[1]))
	assert.Equal(t, []string{"Microsoft", "Technology", "high", "exact", "Microsoft", "other"}, fieldsOf(lines[2]))
	assert.Equal(t, []string{"Acme", "Widgets", "-", "low", "none", "other"}, fieldsOf(lines[3]))
}

func fieldsOf(line []byte) []string {
	var out []string
	for _, f := range bytes.Fields(line) {
		out = append(out, string(f))
	}
	return out
}

func TestWriteExtraction(t *testing.T) {
	e := extract.New(taxonomy.DefaultExtraction())

	var buf bytes.Buffer
	require.NoError(t, writeExtraction(&buf, e, model.Article{
		Title:      "Trump meets Amazon CEO Andy Jassy at Mar-a-Lago",
		Body:       "President Trump met with Amazon CEO Andy Jassy at Mar-a-Lago on Friday.",
		SourceURL:  "manual://input",
		SourceName: "Manual",
	}))

	var got struct {
		Passed     bool                     `json:"passed"`
		Candidates []model.ExtractedMeeting `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.True(t, got.Passed)
	require.Len(t, got.Candidates, 1)
	assert.Equal(t, "Andy Jassy", got.Candidates[0].AttendeeName)
	assert.Equal(t, "Amazon", got.Candidates[0].CompanyRaw)
}

func TestWriteExtraction_NoCandidates(t *testing.T) {
	e := extract.New(taxonomy.DefaultExtraction())

	var buf bytes.Buffer
	require.NoError(t, writeExtraction(&buf, e, model.Article{Title: "Stock markets rallied Tuesday"}))
	assert.Contains(t, buf.String(), `"candidates": []`)
}
