package engine

// #region imports
import (
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/mkowalski/hypertuner/internal/budget"
	"github.com/mkowalski/hypertuner/internal/export"
	"github.com/mkowalski/hypertuner/internal/history"
	"github.com/mkowalski/hypertuner/internal/hyperparam"
	"github.com/mkowalski/hypertuner/internal/identity"
	"github.com/mkowalski/hypertuner/internal/metrics"
	"github.com/mkowalski/hypertuner/internal/model"
	"github.com/mkowalski/hypertuner/internal/results"
	"github.com/mkowalski/hypertuner/internal/train"
)

// #endregion

// #region tuner-struct

// Tuner owns the instance-generation and state-tracking loop: it
// samples configurations through the factory, deduplicates by model
// identity, enforces the streak budgets, tracks best/latest metrics,
// and selects top results for export. Single-threaded by design: all
// mutable state belongs to the one search loop.
type Tuner struct {
	cfg     Config
	factory model.Factory
	dist    hyperparam.Distribution
	collab  Collaborators

	previous  results.PreviousIndex
	instances map[string]*Instance
	currentID string

	tracker *metrics.Tracker
	state   State

	run        history.RunRecord
	attemptNum int

	// pendingHP is the per-attempt transient sampling context,
	// cleared at the top of every generation attempt.
	pendingHP hyperparam.Configuration
}

// #endregion tuner-struct

// #region constructor

// New creates a fully wired tuner. The distribution strategy is an
// explicit dependency, never ambient global state. The previous-run
// index is loaded once here by scanning cfg.LocalDir.
func New(cfg Config, factory model.Factory, dist hyperparam.Distribution, collab Collaborators) (*Tuner, error) {
	if factory == nil {
		return nil, fmt.Errorf("tuner needs a model factory")
	}
	if dist == nil {
		return nil, fmt.Errorf("tuner needs a distribution strategy")
	}
	if cfg.MaxFailStreak <= 0 {
		cfg.MaxFailStreak = budget.DefaultMaxFailStreak
	}
	if len(cfg.KeyMetrics) == 0 {
		cfg.KeyMetrics = metrics.DefaultKeyMetrics()
	}
	if cfg.Mode == "" {
		cfg.Mode = train.ModeFit
	}
	if collab.SizeFn == nil {
		collab.SizeFn = (*model.Spec).ParamCount
	}
	if collab.Reloader == nil {
		collab.Reloader = export.JSONArtifacts{}
	}
	if collab.Saver == nil {
		collab.Saver = export.JSONArtifacts{}
	}

	previous, err := results.LoadPreviousIndex(cfg.LocalDir, cfg.Project, cfg.Architecture)
	if err != nil {
		return nil, fmt.Errorf("load previous instances: %w", err)
	}
	if n := len(previous); n > 0 {
		log.Printf("[TUNER] found %d previously trained instances in %s", n, cfg.LocalDir)
	}

	// Not fatal: a factory that ignores the sampler still trains, it
	// just cannot search.
	if len(dist.SpaceConfig()) == 0 {
		log.Printf("[TUNER] warning: no hyperparameters declared in search space - are you sure?")
	}

	t := &Tuner{
		cfg:       cfg,
		factory:   factory,
		dist:      dist,
		collab:    collab,
		previous:  previous,
		instances: make(map[string]*Instance),
		tracker:   metrics.NewTracker(cfg.KeyMetrics),
		state:     State{RemainingBudget: cfg.Budget},
	}

	if collab.History != nil {
		run, err := collab.History.BeginRun(cfg.Project, cfg.Architecture)
		if err != nil {
			return nil, fmt.Errorf("begin history run: %w", err)
		}
		t.run = run
	}

	return t, nil
}

// #endregion constructor

// #region new-instance

// NewInstance returns a never-seen-before model instance, or nil when
// one of the failure streaks exhausts its budget. nil is the sole stop
// signal: it means the search space is exhausted or unproductive, not
// a transient error.
func (t *Tuner) NewInstance() *Instance {
	policy := budget.NewPolicy(t.cfg.MaxFailStreak)

	for {
		t.resetAttempt()

		outcome := model.Build(t.factory)
		if !outcome.Valid() {
			t.state.NumInvalidModels++
			t.recordAttempt(budget.OutcomeInvalid, "", 0)
			log.Printf("[TUNER] invalid model %d/%d: %v",
				policy.Streak(budget.OutcomeInvalid)+1, policy.MaxFailStreak(), outcome.Err)
			if policy.Observe(budget.OutcomeInvalid) {
				return nil
			}
			continue
		}

		id := identity.Compute(outcome.Spec)

		if t.previous.Contains(id) {
			t.state.NumPreviouslyTrained++
			t.recordAttempt(budget.OutcomeDuplicatePrevious, id, 0)
			log.Printf("[TUNER] instance %s already trained - skipping", shortID(id))
			policy.Observe(budget.OutcomeDuplicatePrevious)
			continue
		}

		if _, ok := t.instances[id]; ok {
			t.state.NumCollisions++
			t.recordAttempt(budget.OutcomeCollision, id, 0)
			log.Printf("[TUNER] collision for %s - skipping", shortID(id))
			if policy.Observe(budget.OutcomeCollision) {
				return nil
			}
			continue
		}

		t.pendingHP = t.dist.CurrentHyperparameters()
		inst := &Instance{
			ID:              id,
			Spec:            outcome.Spec,
			Hyperparameters: t.pendingHP,
			Mode:            t.cfg.Mode,
			Settings:        t.cfg.Settings,
			ExecutionPrefix: fmt.Sprintf("%s-%s", shortID(id), uuid.New().String()[:8]),
		}
		inst.ParamCount = t.collab.SizeFn(outcome.Spec)

		if t.cfg.MaxParams > 0 && inst.ParamCount > t.cfg.MaxParams {
			// Abandon the constructed instance: nothing of it may
			// leak into the mapping.
			t.state.NumOverSizedModels++
			t.recordAttempt(budget.OutcomeOversized, id, inst.ParamCount)
			log.Printf("[TUNER] oversized model: %d parameters - skipping", inst.ParamCount)
			if policy.Observe(budget.OutcomeOversized) {
				return nil
			}
			continue
		}

		t.instances[id] = inst
		t.currentID = id
		t.state.NumGeneratedModels++
		if t.state.RemainingBudget > 0 {
			t.state.RemainingBudget--
		}
		t.recordAttempt(budget.OutcomeValid, id, inst.ParamCount)
		policy.Observe(budget.OutcomeValid)

		log.Printf("[TUNER] new instance %s: %d params, budget left %d, trained %d",
			shortID(id), inst.ParamCount, t.state.RemainingBudget, t.state.NumGeneratedModels)
		return inst
	}
}

// resetAttempt clears transient per-attempt state so a failed build
// cannot contaminate the next one.
func (t *Tuner) resetAttempt() {
	t.pendingHP = nil
}

// #endregion new-instance

// #region record-results

// RecordResults folds a trained instance's results into the aggregate
// statistics and persists the result file. Empty id means the last
// generated instance.
func (t *Tuner) RecordResults(id string, res train.Results) (string, error) {
	if id == "" {
		id = t.currentID
	}
	inst, ok := t.instances[id]
	if !ok {
		return "", fmt.Errorf("unknown instance %s", id)
	}

	inst.Results = res
	inst.Recorded = true
	t.tracker.Record(res.KeyMetrics)

	if err := t.writeConfigArtifact(inst); err != nil {
		return "", err
	}

	path, err := results.Write(t.cfg.LocalDir, results.File{
		Meta: results.Meta{
			Project:      t.cfg.Project,
			Architecture: t.cfg.Architecture,
			Instance:     inst.ID,
			Tuner:        t.counters(),
			Statistics:   t.tracker.Snapshot(),
		},
		KeyMetrics:      res.KeyMetrics,
		ConfigFile:      inst.ExecutionPrefix + "-config.json",
		WeightsFile:     inst.ExecutionPrefix + "-weights.bin",
		ResultsFile:     inst.ExecutionPrefix + "-results.json",
		ExecutionPrefix: inst.ExecutionPrefix,
	})
	if err != nil {
		return "", err
	}

	t.snapshotHistory()
	return path, nil
}

func (t *Tuner) writeConfigArtifact(inst *Instance) error {
	configPath := filepath.Join(t.cfg.LocalDir, inst.ExecutionPrefix)
	if err := t.collab.Saver.Save(inst.Spec, configPath, t.cfg.TmpDir, export.OutputConfigWeights); err != nil {
		return fmt.Errorf("write config artifact: %w", err)
	}
	return nil
}

// #endregion record-results

// #region best-models

// GetBestModels ranks all on-disk results by metric and direction,
// takes the top n, and reloads each as a model.
func (t *Tuner) GetBestModels(metric string, dir metrics.Direction, n int) ([]*model.Spec, []results.Record, error) {
	records, err := results.List(t.cfg.LocalDir)
	if err != nil {
		return nil, nil, fmt.Errorf("list results: %w", err)
	}
	top := results.Limit(results.SortByMetric(records, metric, dir), n)

	specs := make([]*model.Spec, 0, len(top))
	for _, rec := range top {
		spec, err := t.collab.Reloader.Reload(
			filepath.Join(t.cfg.LocalDir, rec.ConfigFile),
			filepath.Join(t.cfg.LocalDir, rec.WeightsFile),
			filepath.Join(t.cfg.LocalDir, rec.ResultsFile),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("reload %s: %w", rec.Instance, err)
		}
		specs = append(specs, spec)
	}
	return specs, top, nil
}

// GetBestModel is the top-1 convenience form.
func (t *Tuner) GetBestModel(metric string, dir metrics.Direction) (*model.Spec, *results.Record, error) {
	specs, recs, err := t.GetBestModels(metric, dir, 1)
	if err != nil {
		return nil, nil, err
	}
	if len(specs) == 0 {
		return nil, nil, fmt.Errorf("no results for metric %s", metric)
	}
	return specs[0], &recs[0], nil
}

// ExportBestModels exports the top n models by metric into the export
// directory using the requested output format.
func (t *Tuner) ExportBestModels(metric string, dir metrics.Direction, format export.OutputType, n int) error {
	specs, recs, err := t.GetBestModels(metric, dir, n)
	if err != nil {
		return err
	}
	for i, spec := range specs {
		name := recs[i].ExecutionPrefix
		exportPath := filepath.Join(t.cfg.ExportDir, name)
		tmpPath := filepath.Join(t.cfg.TmpDir, name)
		log.Printf("[TUNER] exporting top model (%d/%d) - %s", i+1, len(specs), exportPath)
		if err := t.collab.Saver.Save(spec, exportPath, tmpPath, format); err != nil {
			return fmt.Errorf("export %s: %w", name, err)
		}
	}
	return nil
}

// #endregion best-models

// #region reporting

// Summary logs the declared hyperparameter search space by group.
func (t *Tuner) Summary() {
	summary := hyperparam.Summarize(t.dist.SpaceConfig())
	log.Printf("[TUNER] hyperparameter search space:")
	for _, g := range summary.Groups {
		log.Printf("[TUNER]   group %s (size %d)", g.Group, g.Size)
		for _, p := range g.Params {
			log.Printf("[TUNER]     |-%s: %d", p.Name, p.SpaceSize)
		}
	}
	log.Printf("[TUNER]   total space size: %d", summary.TotalSize)
}

// Done logs the terminal pointer to the results directory.
func (t *Tuner) Done() {
	log.Printf("[TUNER] hypertuning complete - results in %s", t.cfg.LocalDir)
}

// #endregion reporting

// #region accessors

// State returns a snapshot of the run counters.
func (t *Tuner) State() State { return t.state }

// Stats returns a snapshot of the aggregate metric statistics.
func (t *Tuner) Stats() metrics.Stats { return t.tracker.Snapshot() }

// InstanceByID returns a registered instance, or nil.
func (t *Tuner) InstanceByID(id string) *Instance { return t.instances[id] }

// CurrentInstance returns the last generated instance, or nil.
func (t *Tuner) CurrentInstance() *Instance { return t.instances[t.currentID] }

// NumInstances returns how many instances are registered this run.
func (t *Tuner) NumInstances() int { return len(t.instances) }

// Run returns the history run record (zero value when history is off).
func (t *Tuner) Run() history.RunRecord { return t.run }

// #endregion accessors

// #region history

func (t *Tuner) recordAttempt(outcome budget.Outcome, id string, paramCount int) {
	t.attemptNum++
	if t.collab.History == nil {
		return
	}
	err := t.collab.History.RecordAttempt(history.AttemptRecord{
		RunID:      t.run.RunID,
		AttemptNum: t.attemptNum,
		Outcome:    string(outcome),
		Instance:   id,
		ParamCount: paramCount,
	})
	if err != nil {
		log.Printf("[TUNER] failed to record attempt: %v", err)
	}
}

func (t *Tuner) snapshotHistory() {
	if t.collab.History == nil {
		return
	}
	data, err := json.Marshal(t.state)
	if err != nil {
		return
	}
	if err := t.collab.History.SnapshotCounters(t.run.RunID, string(data)); err != nil {
		log.Printf("[TUNER] failed to snapshot counters: %v", err)
	}
}

func (t *Tuner) counters() map[string]int {
	return map[string]int{
		"trained_models":     t.state.NumGeneratedModels,
		"invalid_models":     t.state.NumInvalidModels,
		"collisions":         t.state.NumCollisions,
		"over_size_models":   t.state.NumOverSizedModels,
		"previously_trained": t.state.NumPreviouslyTrained,
		"remaining_budget":   t.state.RemainingBudget,
	}
}

// #endregion history

// #region helpers

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion helpers
