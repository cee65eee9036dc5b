package identity

import (
	"testing"

	"github.com/mkowalski/hypertuner/internal/model"
)

func denseSpec(units int) *model.Spec {
	return &model.Spec{
		Name:       "test",
		InputUnits: 784,
		Layers: []model.Layer{
			{Kind: "dense", Units: units, Activation: "relu"},
			{Kind: "dense", Units: 10, Activation: "softmax"},
		},
	}
}

func TestCompute_Deterministic(t *testing.T) {
	a := Compute(denseSpec(64))
	b := Compute(denseSpec(64))
	if a != b {
		t.Errorf("identical specs produced different identities: %s vs %s", a, b)
	}
	if len(a) != HexLength {
		t.Errorf("expected %d hex chars, got %d", HexLength, len(a))
	}
}

func TestCompute_DistinguishesStructure(t *testing.T) {
	a := Compute(denseSpec(64))
	b := Compute(denseSpec(128))
	if a == b {
		t.Error("structurally different specs produced the same identity")
	}
}

func TestCanonical_FieldOrderStable(t *testing.T) {
	// Same fields, different insertion order: map iteration order must
	// not leak into the canonical form.
	a := &model.Spec{Layers: []model.Layer{{
		Kind: "conv2d", Units: 32,
		Fields: map[string]float64{"kernel": 3, "stride": 1, "padding": 0},
	}}}
	b := &model.Spec{Layers: []model.Layer{{
		Kind: "conv2d", Units: 32,
		Fields: map[string]float64{"padding": 0, "stride": 1, "kernel": 3},
	}}}

	if Canonical(a) != Canonical(b) {
		t.Errorf("canonical form depends on map insertion order:\n%s\n%s", Canonical(a), Canonical(b))
	}
}

func TestCanonical_LayerOrderMatters(t *testing.T) {
	a := &model.Spec{Layers: []model.Layer{
		{Kind: "dense", Units: 32},
		{Kind: "dense", Units: 64},
	}}
	b := &model.Spec{Layers: []model.Layer{
		{Kind: "dense", Units: 64},
		{Kind: "dense", Units: 32},
	}}
	if Canonical(a) == Canonical(b) {
		t.Error("layer order is structural and must affect the canonical form")
	}
}

func TestCanonical_NilSpec(t *testing.T) {
	if got := Canonical(nil); got != "" {
		t.Errorf("expected empty canonical for nil spec, got %q", got)
	}
}
