package model

import (
	"errors"
	"testing"
)

func TestParamCount_DenseChain(t *testing.T) {
	s := &Spec{
		InputUnits: 784,
		Layers: []Layer{
			{Kind: "dense", Units: 64, Activation: "relu"},
			{Kind: "dropout", Fields: map[string]float64{"rate": 0.2}},
			{Kind: "dense", Units: 10, Activation: "softmax"},
		},
	}
	// (784+1)*64 + (64+1)*10; the dropout layer passes fan-in through.
	want := 785*64 + 65*10
	if got := s.ParamCount(); got != want {
		t.Errorf("ParamCount = %d, want %d", got, want)
	}
}

func TestBuild_Outcomes(t *testing.T) {
	ok := Build(FactoryFunc(func() (*Spec, error) {
		return &Spec{Name: "m"}, nil
	}))
	if !ok.Valid() {
		t.Error("successful build must be valid")
	}

	failed := Build(FactoryFunc(func() (*Spec, error) {
		return nil, errors.New("no")
	}))
	if failed.Valid() {
		t.Error("errored build must be invalid")
	}

	empty := Build(FactoryFunc(func() (*Spec, error) { return nil, nil }))
	if empty.Valid() {
		t.Error("nil spec without error must be invalid")
	}

	panicked := Build(FactoryFunc(func() (*Spec, error) { panic("boom") }))
	if panicked.Valid() || panicked.Err == nil {
		t.Error("panicking factory must yield an invalid outcome with an error")
	}
}
