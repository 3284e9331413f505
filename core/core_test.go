package core

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/classdrift/internal/iocache"
	"github.com/huangsam/classdrift/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteRun(t *testing.T) {
	cfg := testConfig()
	cfg.DescriptorPath = demoHistory(t)
	cfg.OutputFile = filepath.Join(t.TempDir(), "releases.json")
	mgr := iocache.NewStoreManager(iocache.NewMemoryStore(), nil)

	require.NoError(t, ExecuteRun(context.Background(), cfg, mgr))

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var doc struct {
		System   string                  `json:"system"`
		Releases []schema.ReleaseSummary `json:"releases"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "demo", doc.System)
	require.Len(t, doc.Releases, 2)
	assert.Equal(t, 1, doc.Releases[1].Added)
	assert.Empty(t, cfg.System, "the caller's config is left untouched")
}

func TestExecuteRunNothingExtracted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: Empty\nreleases:\n  - rsn: 1\n    id: \"1\"\n    path: missing.jar\n"), 0o644))

	cfg := testConfig()
	cfg.DescriptorPath = path
	err := ExecuteRun(context.Background(), cfg, iocache.NewStoreManager(iocache.NewMemoryStore(), nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no release of empty")
}

func TestExecuteExtractBadDescriptor(t *testing.T) {
	cfg := testConfig()
	cfg.DescriptorPath = filepath.Join(t.TempDir(), "nope.yaml")
	assert.Error(t, ExecuteExtract(context.Background(), cfg, iocache.NewStoreManager(iocache.NewMemoryStore(), nil)))
}

func TestExecuteReports(t *testing.T) {
	mgr := iocache.NewStoreManager(renamedStore(t), nil)
	ctx := context.Background()
	dir := t.TempDir()

	executors := map[string]ExecutorFunc{
		"systems":  ExecuteSystems,
		"releases": ExecuteReleases,
		"classes":  ExecuteClasses,
		"class":    ExecuteClassTimeline,
		"metrics":  ExecuteMetrics,
	}
	for name, exec := range executors {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			cfg.System = "demo"
			cfg.ClassName = "app.New"
			cfg.Output = schema.CSVOut
			cfg.OutputFile = filepath.Join(dir, name+".csv")
			require.NoError(t, exec(ctx, cfg, mgr))
			assert.FileExists(t, cfg.OutputFile)
		})
	}
}

func TestExecuteRuns(t *testing.T) {
	cfg := testConfig()
	err := ExecuteRuns(context.Background(), cfg, iocache.NewStoreManager(iocache.NewMemoryStore(), nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run tracking is not configured")

	runs := &iocache.MockRunStore{}
	runs.On("GetAllRuns").Return([]schema.RunRecord{{RunID: 1, System: "demo", Kind: schema.ExtractRun}}, nil)
	cfg.Output = schema.JSONOut
	cfg.OutputFile = filepath.Join(t.TempDir(), "runs.json")
	require.NoError(t, ExecuteRuns(context.Background(), cfg, iocache.NewStoreManager(nil, runs)))
	runs.AssertExpectations(t)
}
