package train

// #region mode

// Mode selects how the external execution engine feeds data to the
// model: in-memory arrays or a batch generator.
type Mode string

const (
	ModeFit          Mode = "fit"
	ModeGeneratorFit Mode = "fit_generator"
)

// #endregion mode

// #region settings

// Settings carries the training configuration attached to each
// instance. The tuner records these; the execution engine consumes
// them.
type Settings struct {
	BatchSize  int      `json:"batch_size"`
	Epochs     int      `json:"epochs"`
	Checkpoint bool     `json:"checkpoint"`
	Callbacks  []string `json:"callbacks,omitempty"`
}

// #endregion settings

// #region results

// Results is what the execution engine reports back for one trained
// instance. KeyMetrics is keyed by metric name (loss, val_acc, ...).
type Results struct {
	KeyMetrics map[string]float64 `json:"key_metrics"`
	EpochsRun  int                `json:"epochs_run"`
	WallTimeMs int64              `json:"wall_time_ms"`
}

// #endregion results
