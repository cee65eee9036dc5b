package results

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mkowalski/hypertuner/internal/metrics"
)

func writeResult(t *testing.T, dir, prefix, project, arch, instance string, keyMetrics map[string]float64) {
	t.Helper()
	_, err := Write(dir, File{
		Meta: Meta{
			Project:      project,
			Architecture: arch,
			Instance:     instance,
		},
		KeyMetrics:      keyMetrics,
		ConfigFile:      prefix + "-config.json",
		WeightsFile:     prefix + "-weights.bin",
		ResultsFile:     prefix + "-results.json",
		ExecutionPrefix: prefix,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestList_ParsesRecords(t *testing.T) {
	dir := t.TempDir()
	writeResult(t, dir, "a1", "mnist", "cnn", "aaaa1111", map[string]float64{"loss": 0.3, "val_acc": 0.9})

	records, err := List(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Instance != "aaaa1111" || rec.Project != "mnist" || rec.Architecture != "cnn" {
		t.Errorf("unexpected meta: %+v", rec)
	}
	if rec.Metrics["val_acc"] != 0.9 {
		t.Errorf("val_acc = %v, want 0.9", rec.Metrics["val_acc"])
	}
	if rec.ConfigFile != "a1-config.json" {
		t.Errorf("config file = %q", rec.ConfigFile)
	}
}

func TestList_SkipsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	writeResult(t, dir, "ok", "p", "a", "id1", map[string]float64{"loss": 0.1})

	// Corrupt JSON and a result missing its instance id.
	if err := os.WriteFile(filepath.Join(dir, "bad-results.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "empty-results.json"), []byte(`{"meta_data":{}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := List(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected only the valid record, got %d", len(records))
	}
}

func TestSortByMetric_TopKOrdering(t *testing.T) {
	dir := t.TempDir()
	values := []float64{0.7, 0.9, 0.5, 0.95, 0.8}
	prefixes := []string{"r0", "r1", "r2", "r3", "r4"}
	for i, v := range values {
		writeResult(t, dir, prefixes[i], "p", "a", prefixes[i]+"id", map[string]float64{"val_acc": v})
	}

	records, err := List(dir)
	if err != nil {
		t.Fatal(err)
	}

	top := Limit(SortByMetric(records, "val_acc", metrics.Maximize), 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 records, got %d", len(top))
	}
	if top[0].Metrics["val_acc"] != 0.95 || top[1].Metrics["val_acc"] != 0.9 {
		t.Errorf("top-2 = [%v, %v], want [0.95, 0.9]",
			top[0].Metrics["val_acc"], top[1].Metrics["val_acc"])
	}
}

func TestSortByMetric_MinimizeAndMissingSink(t *testing.T) {
	records := []Record{
		{Instance: "a", Metrics: map[string]float64{"loss": 0.4}},
		{Instance: "b", Metrics: map[string]float64{}}, // no loss recorded
		{Instance: "c", Metrics: map[string]float64{"loss": 0.1}},
	}

	sorted := SortByMetric(records, "loss", metrics.Minimize)
	if sorted[0].Instance != "c" || sorted[1].Instance != "a" || sorted[2].Instance != "b" {
		t.Errorf("unexpected order: %s, %s, %s", sorted[0].Instance, sorted[1].Instance, sorted[2].Instance)
	}
}

func TestSortByMetric_StableTies(t *testing.T) {
	records := []Record{
		{Instance: "first", Metrics: map[string]float64{"loss": 0.5}},
		{Instance: "second", Metrics: map[string]float64{"loss": 0.5}},
	}
	sorted := SortByMetric(records, "loss", metrics.Minimize)
	if sorted[0].Instance != "first" {
		t.Error("ties must preserve discovery order")
	}
}

func TestLimit_Bounds(t *testing.T) {
	records := []Record{{Instance: "a"}, {Instance: "b"}}
	if got := len(Limit(records, 5)); got != 2 {
		t.Errorf("limit beyond length = %d records, want 2", got)
	}
	if got := len(Limit(records, 1)); got != 1 {
		t.Errorf("limit 1 = %d records, want 1", got)
	}
	if got := len(Limit(records, -1)); got != 2 {
		t.Errorf("negative limit = %d records, want all", got)
	}
}

func TestLoadPreviousIndex_FiltersProjectAndArchitecture(t *testing.T) {
	dir := t.TempDir()
	writeResult(t, dir, "m1", "mnist", "cnn", "match1", map[string]float64{"loss": 0.2})
	writeResult(t, dir, "m2", "mnist", "dense", "otherarch", map[string]float64{"loss": 0.2})
	writeResult(t, dir, "m3", "cifar", "cnn", "otherproj", map[string]float64{"loss": 0.2})

	ix, err := LoadPreviousIndex(dir, "mnist", "cnn")
	if err != nil {
		t.Fatal(err)
	}
	if len(ix) != 1 {
		t.Fatalf("expected 1 matching previous instance, got %d", len(ix))
	}
	if !ix.Contains("match1") {
		t.Error("matching instance missing from index")
	}
	if ix.Contains("otherarch") || ix.Contains("otherproj") {
		t.Error("non-matching instances must be filtered out")
	}
}

func TestWrite_NeedsPrefix(t *testing.T) {
	if _, err := Write(t.TempDir(), File{}); err == nil {
		t.Error("expected error for missing execution prefix")
	}
}
