package engine

import (
	"github.com/mkowalski/hypertuner/internal/export"
	"github.com/mkowalski/hypertuner/internal/history"
	"github.com/mkowalski/hypertuner/internal/hyperparam"
	"github.com/mkowalski/hypertuner/internal/metrics"
	"github.com/mkowalski/hypertuner/internal/model"
	"github.com/mkowalski/hypertuner/internal/train"
)

// #region instance

// Instance is one sampled-and-built model candidate. Created on
// successful validation, mutated when results are recorded, retained
// in the tuner's mapping for the whole run.
type Instance struct {
	ID              string
	Spec            *model.Spec
	Hyperparameters hyperparam.Configuration
	ParamCount      int
	Mode            train.Mode
	Settings        train.Settings
	ExecutionPrefix string

	Results  train.Results
	Recorded bool
}

// #endregion instance

// #region state

// State holds the process-wide tuner counters. Initialized at
// construction, incremented throughout the run, never reset.
type State struct {
	NumGeneratedModels   int `json:"num_generated_models"`
	NumInvalidModels     int `json:"num_invalid_models"`
	NumCollisions        int `json:"num_collisions"`
	NumOverSizedModels   int `json:"num_over_sized_models"`
	NumPreviouslyTrained int `json:"num_mdl_previously_trained"`
	RemainingBudget      int `json:"remaining_budget"`
}

// #endregion state

// #region config

// Config is the tuner's resolved configuration.
type Config struct {
	Project      string
	Architecture string

	LocalDir  string
	ExportDir string
	TmpDir    string

	MaxFailStreak int
	MaxParams     int // <= 0 means no ceiling
	Budget        int

	Mode     train.Mode
	Settings train.Settings

	KeyMetrics []metrics.KeyMetric
}

// #endregion config

// #region collaborators

// Collaborators are the injected external dependencies. Zero values
// select defaults: spec-based size computation and JSON artifacts.
// History is optional; nil disables attempt persistence.
type Collaborators struct {
	SizeFn   func(*model.Spec) int
	Reloader export.Reloader
	Saver    export.Saver
	History  *history.Store
}

// Trainer is the external execution engine. It blocks for the whole
// training of one instance; there is no timeout at this layer.
type Trainer interface {
	Train(inst *Instance) (train.Results, error)
}

// #endregion collaborators
