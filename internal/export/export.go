package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mkowalski/hypertuner/internal/model"
)

// #region output-type

// OutputType selects the target format when exporting a model. The
// tuner treats these as opaque labels for the save collaborator.
type OutputType string

const (
	// OutputConfigWeights saves separate config and weights files.
	OutputConfigWeights OutputType = "config_weights"
	// OutputBundle saves a single bundled file in the native format.
	OutputBundle OutputType = "bundle"
	// OutputSavedGraph saves a deployment-oriented graph directory.
	OutputSavedGraph OutputType = "saved_graph"
	// OutputFrozen inlines weights into the graph file itself.
	OutputFrozen OutputType = "frozen"
	// OutputOptimized additionally strips training-only nodes.
	OutputOptimized OutputType = "optimized"
	// OutputLite targets mobile/edge runtimes.
	OutputLite OutputType = "lite"
)

// ParseOutputType validates a format label.
func ParseOutputType(s string) (OutputType, error) {
	switch OutputType(s) {
	case OutputConfigWeights, OutputBundle, OutputSavedGraph,
		OutputFrozen, OutputOptimized, OutputLite:
		return OutputType(s), nil
	}
	return "", fmt.Errorf("unknown output type %q", s)
}

// #endregion output-type

// #region collaborators

// Reloader rebuilds a model from its persisted artifacts.
type Reloader interface {
	Reload(configPath, weightsPath, resultsPath string) (*model.Spec, error)
}

// Saver writes a model out in the requested format. tmpPath is scratch
// space for formats that need staging.
type Saver interface {
	Save(spec *model.Spec, exportPath, tmpPath string, format OutputType) error
}

// #endregion collaborators

// #region json-artifacts

// JSONArtifacts is the built-in collaborator: configs are plain JSON
// spec files. Weights and results paths are carried through untouched;
// real weight serialization belongs to the execution engine.
type JSONArtifacts struct{}

// Reload parses the config file back into a spec.
func (JSONArtifacts) Reload(configPath, weightsPath, resultsPath string) (*model.Spec, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}
	var spec model.Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", configPath, err)
	}
	return &spec, nil
}

// Save writes the spec config under exportPath. Only the
// config+weights format is materialized here; other formats need the
// execution engine's serializer.
func (JSONArtifacts) Save(spec *model.Spec, exportPath, tmpPath string, format OutputType) error {
	if format != OutputConfigWeights {
		return fmt.Errorf("output type %s requires an execution-engine saver", format)
	}
	if err := os.MkdirAll(filepath.Dir(exportPath), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(exportPath+"-config.json", data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// #endregion json-artifacts
