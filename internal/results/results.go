package results

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/gjson"

	"github.com/mkowalski/hypertuner/internal/metrics"
)

// #region record

// Record is one on-disk trial result, as consumed by ranking and
// export. Path is the source file; records keep their discovery order
// so metric sorts can break ties deterministically.
type Record struct {
	Instance     string             `json:"instance"`
	Project      string             `json:"project"`
	Architecture string             `json:"architecture"`
	Metrics      map[string]float64 `json:"key_metrics"`

	ConfigFile      string `json:"config_file"`
	WeightsFile     string `json:"weights_file"`
	ResultsFile     string `json:"results_file"`
	ExecutionPrefix string `json:"execution_prefix"`

	Path string `json:"-"`
}

// #endregion record

// #region list

// List scans dir for *-results.json files and parses each into a
// Record. Files that cannot be parsed are skipped with a warning, not
// fatal: one corrupt result should not hide the rest of the run.
func List(dir string) ([]Record, error) {
	pattern := filepath.Join(dir, "*-results.json")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	sort.Strings(paths)

	var records []Record
	for _, p := range paths {
		rec, err := parseFile(p)
		if err != nil {
			log.Printf("[RESULTS] skipping %s: %v", p, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseFile(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, err
	}
	if !gjson.ValidBytes(data) {
		return Record{}, fmt.Errorf("invalid json")
	}
	root := gjson.ParseBytes(data)

	instance := root.Get("meta_data.instance").String()
	if instance == "" {
		return Record{}, fmt.Errorf("missing meta_data.instance")
	}

	rec := Record{
		Instance:        instance,
		Project:         root.Get("meta_data.project").String(),
		Architecture:    root.Get("meta_data.architecture").String(),
		Metrics:         make(map[string]float64),
		ConfigFile:      root.Get("config_file").String(),
		WeightsFile:     root.Get("weights_file").String(),
		ResultsFile:     root.Get("results_file").String(),
		ExecutionPrefix: root.Get("execution_prefix").String(),
		Path:            path,
	}
	root.Get("key_metrics").ForEach(func(k, v gjson.Result) bool {
		rec.Metrics[k.String()] = v.Float()
		return true
	})
	return rec, nil
}

// #endregion list

// #region ranking

// SortByMetric orders records by the named metric. The sort is stable;
// records missing the metric sink to the end in discovery order.
func SortByMetric(records []Record, metric string, dir metrics.Direction) []Record {
	out := make([]Record, len(records))
	copy(out, records)

	sort.SliceStable(out, func(i, j int) bool {
		vi, oki := out[i].Metrics[metric]
		vj, okj := out[j].Metrics[metric]
		if !oki || !okj {
			return oki && !okj
		}
		return dir.Better(vi, vj)
	})
	return out
}

// Limit returns the first n records after sorting.
func Limit(records []Record, n int) []Record {
	if n < 0 || n > len(records) {
		n = len(records)
	}
	return records[:n]
}

// #endregion ranking

// #region previous-index

// PreviousIndex maps instance identity to the result recorded for it
// in an earlier run. Read-only during a run; used for skip-detection.
type PreviousIndex map[string]Record

// LoadPreviousIndex scans dir and keeps only records whose project and
// architecture match the current run.
func LoadPreviousIndex(dir, project, architecture string) (PreviousIndex, error) {
	records, err := List(dir)
	if err != nil {
		return nil, err
	}
	ix := make(PreviousIndex)
	for _, rec := range records {
		if rec.Project == project && rec.Architecture == architecture {
			ix[rec.Instance] = rec
		}
	}
	return ix, nil
}

// Contains reports whether the identity was trained in a prior run.
func (ix PreviousIndex) Contains(id string) bool {
	_, ok := ix[id]
	return ok
}

// #endregion previous-index

// #region write

// File is the full serialized result document. Meta mirrors the run
// metadata snapshot taken when the instance was selected.
type File struct {
	Meta Meta `json:"meta_data"`

	KeyMetrics map[string]float64 `json:"key_metrics"`

	ConfigFile      string `json:"config_file"`
	WeightsFile     string `json:"weights_file"`
	ResultsFile     string `json:"results_file"`
	ExecutionPrefix string `json:"execution_prefix"`
}

// Meta is the meta_data block of a result file.
type Meta struct {
	Project      string         `json:"project"`
	Architecture string         `json:"architecture"`
	Instance     string         `json:"instance"`
	Tuner        map[string]int `json:"tuner"`
	Statistics   metrics.Stats  `json:"statistics"`
}

// Write persists f under dir as <execution_prefix>-results.json and
// returns the written path.
func Write(dir string, f File) (string, error) {
	if f.ExecutionPrefix == "" {
		return "", fmt.Errorf("result file needs an execution prefix")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	path := filepath.Join(dir, f.ExecutionPrefix+"-results.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write result: %w", err)
	}
	return path, nil
}

// #endregion write
