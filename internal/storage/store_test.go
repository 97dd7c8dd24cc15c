package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/san-kum/odeiv/internal/ivp"
)

func sampleTrajectory() *ivp.Trajectory {
	return &ivp.Trajectory{
		T: []float64{0, 0.1, 0.2},
		Y: [][]float64{
			{1, 0},
			{0.995004165278026, -0.0998334166468282},
			{0.980066577841242, -0.198669330795061},
		},
	}
}

func sampleMeta() RunMetadata {
	return RunMetadata{
		Model:   "oscillator",
		Stepper: "rkf45",
		Control: "y",
		T0:      0,
		T1:      0.2,
		HStart:  1e-6,
		EpsAbs:  1e-8,
		Steps:   42,
		Failed:  3,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(sampleMeta(), sampleTrajectory())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Fatal("empty run ID")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.ID != runID || meta.Model != "oscillator" || meta.Stepper != "rkf45" {
		t.Errorf("metadata mismatch: %+v", meta)
	}
	if meta.Dim != 2 || meta.Steps != 42 {
		t.Errorf("metadata counters mismatch: %+v", meta)
	}
	if meta.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

// The CSV keeps full precision, so a reloaded trajectory must match
// the saved one exactly.
func TestTrajectoryRoundTripIsExact(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	want := sampleTrajectory()
	runID, err := st.Save(sampleMeta(), want)
	if err != nil {
		t.Fatal(err)
	}
	got, err := st.LoadTrajectory(runID)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.T, want.T) {
		t.Errorf("times changed: %v vs %v", got.T, want.T)
	}
	if !reflect.DeepEqual(got.Y, want.Y) {
		t.Errorf("states changed: %v vs %v", got.Y, want.Y)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	metaA := sampleMeta()
	if _, err := st.Save(metaA, sampleTrajectory()); err != nil {
		t.Fatal(err)
	}
	metaB := sampleMeta()
	metaB.Model = "lorenz"
	if _, err := st.Save(metaB, sampleTrajectory()); err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("listed %d runs, want 2", len(runs))
	}
}

func TestStoreListSkipsDamagedRuns(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Save(sampleMeta(), sampleTrajectory()); err != nil {
		t.Fatal(err)
	}

	damaged := filepath.Join(dir, "broken_1")
	if err := os.MkdirAll(damaged, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(damaged, "metadata.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("listed %d runs, want the 1 healthy one", len(runs))
	}
}

func TestStoreListEmptyBase(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "never-created"))
	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Fatalf("listed %d runs in a missing directory", len(runs))
	}
}

func TestLoadMissingRun(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("no_such_run"); err == nil {
		t.Error("expected error for missing run")
	}
	if _, err := st.LoadTrajectory("no_such_run"); err == nil {
		t.Error("expected error for missing trajectory")
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	meta := sampleMeta()
	meta.ID = "oscillator_1"

	if err := ExportJSON(path, meta, sampleTrajectory()); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got ExportData
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != "oscillator_1" || got.Samples != 3 {
		t.Errorf("export mismatch: %+v", got)
	}
	if len(got.Times) != 3 || len(got.States) != 3 || got.States[2][0] != 0.980066577841242 {
		t.Errorf("trajectory mismatch: %+v", got)
	}
}
