package main

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/mkowalski/hypertuner/internal/engine"
	"github.com/mkowalski/hypertuner/internal/hyperparam"
	"github.com/mkowalski/hypertuner/internal/model"
	"github.com/mkowalski/hypertuner/internal/train"
)

// #region demo-distribution

var (
	unitChoices   = []int{16, 32, 64, 128}
	layerRange    = hyperparam.Range[int]{Min: 1, Max: 3}
	lrChoices     = []float64{0.1, 0.01, 0.001, 0.0001}
	dropoutRange  = hyperparam.Range[float64]{Min: 0.0, Max: 0.5}
	dropoutPoints = 3
)

// demoDistribution is a random sampler over a small dense-network
// space. The factory drives sampling; the tuner only observes the
// values consumed by the most recent build.
type demoDistribution struct {
	rng     *rand.Rand
	current hyperparam.Configuration
}

func newDemoDistribution(seed int64) *demoDistribution {
	return &demoDistribution{rng: rand.New(rand.NewSource(seed))}
}

// sample draws a fresh configuration and makes it current.
func (d *demoDistribution) sample() hyperparam.Configuration {
	numLayers := layerRange.Min + d.rng.Intn(layerRange.Max-layerRange.Min+1)
	units := unitChoices[d.rng.Intn(len(unitChoices))]
	lr := lrChoices[d.rng.Intn(len(lrChoices))]
	step := (dropoutRange.Max - dropoutRange.Min) / float64(dropoutPoints-1)
	dropout := dropoutRange.Min + float64(d.rng.Intn(dropoutPoints))*step

	d.current = hyperparam.Configuration{
		{Name: "num_layers", Group: "arch", Value: numLayers},
		{Name: "units", Group: "arch", Value: units},
		{Name: "learning_rate", Group: "training", Value: lr},
		{Name: "dropout", Group: "training", Value: dropout},
	}
	return d.current
}

func (d *demoDistribution) CurrentHyperparameters() hyperparam.Configuration {
	return d.current
}

func (d *demoDistribution) SpaceConfig() []hyperparam.SpaceEntry {
	return []hyperparam.SpaceEntry{
		{Name: "num_layers", Group: "arch", SpaceSize: layerRange.Max - layerRange.Min + 1},
		{Name: "units", Group: "arch", SpaceSize: len(unitChoices)},
		{Name: "learning_rate", Group: "training", SpaceSize: len(lrChoices)},
		{Name: "dropout", Group: "training", SpaceSize: dropoutPoints},
	}
}

// #endregion demo-distribution

// #region demo-factory

// newDemoFactory builds a dense classifier from the sampled
// hyperparameters.
func newDemoFactory(dist *demoDistribution) model.Factory {
	return model.FactoryFunc(func() (*model.Spec, error) {
		hp := dist.sample()
		numLayers := hp.Get("num_layers").(int)
		units := hp.Get("units").(int)
		dropout := hp.Get("dropout").(float64)

		spec := &model.Spec{Name: "demo-dense", InputUnits: 784}
		for i := 0; i < numLayers; i++ {
			spec.Layers = append(spec.Layers, model.Layer{
				Kind: "dense", Units: units, Activation: "relu",
			})
			if dropout > 0 {
				spec.Layers = append(spec.Layers, model.Layer{
					Kind: "dropout", Fields: map[string]float64{"rate": dropout},
				})
			}
		}
		spec.Layers = append(spec.Layers, model.Layer{
			Kind: "dense", Units: 10, Activation: "softmax",
		})
		return spec, nil
	})
}

// #endregion demo-factory

// #region demo-trainer

// demoTrainer fakes a training run: accuracy improves with capacity up
// to a point, with sampler noise. Stands in for the real execution
// engine so the search loop can be exercised end to end.
type demoTrainer struct {
	rng *rand.Rand
}

func newDemoTrainer(seed int64) *demoTrainer {
	return &demoTrainer{rng: rand.New(rand.NewSource(seed + 1))}
}

func (tr *demoTrainer) Train(inst *engine.Instance) (train.Results, error) {
	start := time.Now()

	lr, _ := inst.Hyperparameters.Get("learning_rate").(float64)
	if lr <= 0 {
		return train.Results{}, fmt.Errorf("instance %s has no learning rate", inst.ID)
	}

	// Capacity sweet spot around 50k params; big lr hurts.
	capacity := 1.0 - math.Abs(math.Log10(float64(inst.ParamCount)/50000.0))*0.2
	penalty := math.Abs(math.Log10(lr/0.001)) * 0.05
	noise := tr.rng.Float64() * 0.05

	acc := clamp01(capacity - penalty + noise)
	valAcc := clamp01(acc - 0.03 - tr.rng.Float64()*0.04)
	loss := clamp01(1.0 - acc)
	valLoss := clamp01(1.0 - valAcc)

	return train.Results{
		KeyMetrics: map[string]float64{
			"loss": loss, "val_loss": valLoss,
			"acc": acc, "val_acc": valAcc,
		},
		EpochsRun:  inst.Settings.Epochs,
		WallTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion demo-trainer
