package export

import (
	"path/filepath"
	"testing"

	"github.com/mkowalski/hypertuner/internal/model"
)

func TestParseOutputType(t *testing.T) {
	for _, s := range []string{"config_weights", "bundle", "saved_graph", "frozen", "optimized", "lite"} {
		if _, err := ParseOutputType(s); err != nil {
			t.Errorf("ParseOutputType(%q) failed: %v", s, err)
		}
	}
	if _, err := ParseOutputType("onnx"); err == nil {
		t.Error("expected error for unknown output type")
	}
}

func TestJSONArtifacts_SaveReloadRoundTrip(t *testing.T) {
	spec := &model.Spec{
		Name:       "demo-dense",
		InputUnits: 784,
		Layers: []model.Layer{
			{Kind: "dense", Units: 64, Activation: "relu"},
			{Kind: "dense", Units: 10, Activation: "softmax"},
		},
	}

	prefix := filepath.Join(t.TempDir(), "m0")
	var a JSONArtifacts
	if err := a.Save(spec, prefix, t.TempDir(), OutputConfigWeights); err != nil {
		t.Fatal(err)
	}

	got, err := a.Reload(prefix+"-config.json", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != spec.Name || got.InputUnits != spec.InputUnits {
		t.Errorf("reloaded spec header mismatch: %+v", got)
	}
	if len(got.Layers) != 2 || got.Layers[0].Units != 64 || got.Layers[1].Activation != "softmax" {
		t.Errorf("reloaded layers mismatch: %+v", got.Layers)
	}
}

func TestJSONArtifacts_RejectsEngineFormats(t *testing.T) {
	var a JSONArtifacts
	err := a.Save(&model.Spec{}, filepath.Join(t.TempDir(), "m"), t.TempDir(), OutputFrozen)
	if err == nil {
		t.Error("expected error for a format the built-in saver cannot produce")
	}
}
