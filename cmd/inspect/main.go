package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/mkowalski/hypertuner/internal/history"
	"github.com/mkowalski/hypertuner/internal/metrics"
	"github.com/mkowalski/hypertuner/internal/results"
)

// #region main

func main() {
	resultsDir := flag.String("results", "", "path to a results directory")
	dbPath := flag.String("db", "", "path to a hypertune history db")
	metric := flag.String("metric", "loss", "metric to rank by")
	direction := flag.String("direction", "min", "min or max")
	top := flag.Int("top", 20, "show N best results")
	runID := flag.String("run", "", "show attempt detail for one run")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *resultsDir == "" && *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --results dir [--metric m --direction d --top N] | --db path [--run id] [--json]")
		os.Exit(2)
	}

	if *resultsDir != "" {
		keys, err := metrics.Parse([]string{*metric + ":" + *direction})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}
		if err := runResultsMode(*resultsDir, keys[0], *top, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	if *dbPath != "" {
		if err := runHistoryMode(*dbPath, *runID, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
}

// #endregion main

// #region results-mode

type resultRow struct {
	Instance        string  `json:"instance"`
	Project         string  `json:"project"`
	Architecture    string  `json:"architecture"`
	MetricValue     float64 `json:"metric_value"`
	HasMetric       bool    `json:"has_metric"`
	ExecutionPrefix string  `json:"execution_prefix"`
}

func runResultsMode(dir string, key metrics.KeyMetric, top int, jsonOut bool) error {
	records, err := results.List(dir)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "no results found")
		return nil
	}

	ranked := results.Limit(results.SortByMetric(records, key.Name, key.Direction), top)
	rows := make([]resultRow, len(ranked))
	for i, rec := range ranked {
		v, ok := rec.Metrics[key.Name]
		rows[i] = resultRow{
			Instance:        rec.Instance,
			Project:         rec.Project,
			Architecture:    rec.Architecture,
			MetricValue:     v,
			HasMetric:       ok,
			ExecutionPrefix: rec.ExecutionPrefix,
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-12s  %-16s  %-16s  %10s  %s\n", "Instance", "Project", "Architecture", key.Name, "Prefix")
	fmt.Printf("%-12s+-%-16s+-%-16s+-%10s+-%s\n",
		"------------", "----------------", "----------------", "----------", "--------------------")
	for _, r := range rows {
		val := "—"
		if r.HasMetric {
			val = fmt.Sprintf("%.4f", r.MetricValue)
		}
		fmt.Printf("%-12s  %-16s  %-16s  %10s  %s\n",
			shortID(r.Instance), r.Project, r.Architecture, val, r.ExecutionPrefix)
	}
	return nil
}

// #endregion results-mode

// #region history-mode

type runRow struct {
	RunID        string         `json:"run_id"`
	Project      string         `json:"project"`
	Architecture string         `json:"architecture"`
	CreatedAt    string         `json:"created_at"`
	Outcomes     map[string]int `json:"outcomes"`
}

func runHistoryMode(dbPath, runID string, jsonOut bool) error {
	store, err := history.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if runID != "" {
		return runAttemptDetail(store, runID, jsonOut)
	}

	runs, err := store.ListRuns(20)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	rows := make([]runRow, len(runs))
	for i, r := range runs {
		counts, err := store.OutcomeCounts(r.RunID)
		if err != nil {
			return err
		}
		rows[i] = runRow{
			RunID:        r.RunID,
			Project:      r.Project,
			Architecture: r.Architecture,
			CreatedAt:    r.CreatedAt.Format("2006-01-02T15:04:05Z"),
			Outcomes:     counts,
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-12s  %-16s  %-16s  %-20s  %s\n", "Run", "Project", "Architecture", "Time", "Outcomes")
	for _, r := range rows {
		fmt.Printf("%-12s  %-16s  %-16s  %-20s  %s\n",
			shortID(r.RunID), r.Project, r.Architecture, r.CreatedAt, formatOutcomes(r.Outcomes))
	}
	return nil
}

func runAttemptDetail(store *history.Store, runID string, jsonOut bool) error {
	attempts, err := store.ListAttempts(runID, 1000)
	if err != nil {
		return err
	}
	if len(attempts) == 0 {
		fmt.Fprintln(os.Stderr, "no attempts found")
		return nil
	}

	if jsonOut {
		return printJSON(attempts)
	}

	fmt.Printf("%-8s  %-20s  %-12s  %10s\n", "Attempt", "Outcome", "Instance", "Params")
	for _, a := range attempts {
		inst := "—"
		if a.Instance != "" {
			inst = shortID(a.Instance)
		}
		fmt.Printf("%-8d  %-20s  %-12s  %10d\n", a.AttemptNum, a.Outcome, inst, a.ParamCount)
	}
	return nil
}

// #endregion history-mode

// #region output

func formatOutcomes(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := ""
	for i, k := range keys {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%d", k, counts[k])
	}
	return out
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
