package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/airace/internal/config"
	"github.com/san-kum/airace/internal/dynamo"
	"github.com/san-kum/airace/internal/experiment"
)

func sampleResult() *experiment.Result {
	return &experiment.Result{
		Episodes: []dynamo.Episode{
			{Agent: "agent-0", Number: 1, Steps: 120, Reward: -1.024, Checkpoints: 0, Reason: "collision"},
			{Agent: "agent-1", Number: 1, Steps: 301, Reward: 0.44, Checkpoints: 2, Reason: "timeout"},
		},
		Metrics:       map[string]float64{"mean_reward": -0.292},
		RewardHistory: []float64{-1.024, 0.44},
		Ticks:         301,
		SimTime:       6.02,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Arena.Seed = 42
	runID, err := st.Save(cfg, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Fatal("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Track != "oval" || meta.Seed != 42 || meta.Episodes != 2 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Metrics["mean_reward"] != -0.292 {
		t.Errorf("metrics not saved: %v", meta.Metrics)
	}

	episodes, err := st.LoadEpisodes(runID)
	if err != nil {
		t.Fatalf("load episodes failed: %v", err)
	}
	if len(episodes) != 2 {
		t.Fatalf("expected 2 episodes, got %d", len(episodes))
	}
	if episodes[1].Reason != "timeout" || episodes[1].Checkpoints != 2 || episodes[1].Reward != 0.44 {
		t.Errorf("unexpected episode %+v", episodes[1])
	}

	saved, err := st.LoadConfig(runID)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Arena.Seed != 42 {
		t.Errorf("config seed = %d, want 42", saved.Arena.Seed)
	}
}

func TestStoreListOrdered(t *testing.T) {
	st := New(t.TempDir())
	cfg := config.DefaultConfig()

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := st.Save(cfg, sampleResult())
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	if err := os.WriteFile(filepath.Join(st.baseDir, "stray.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	for i := 1; i < len(runs); i++ {
		if runs[i-1].ID > runs[i].ID {
			t.Error("runs not sorted by id")
		}
	}
}

func TestStoreListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "absent")).List()
	if err != nil || len(runs) != 0 {
		t.Errorf("List on missing dir = %v, %v", runs, err)
	}
}

func TestLoadUnknownRun(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("err = %v, want ErrRunNotFound", err)
	}
	if _, err := st.LoadEpisodes("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("err = %v, want ErrRunNotFound", err)
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(config.DefaultConfig(), sampleResult())
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "run.json")
	if err := st.ExportJSON(runID, out); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var exported ExportData
	if err := json.Unmarshal(data, &exported); err != nil {
		t.Fatal(err)
	}
	if exported.Run.ID != runID || len(exported.Episodes) != 2 {
		t.Errorf("unexpected export %+v", exported.Run)
	}
}
