package history

import (
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_BeginRunAndList(t *testing.T) {
	store := newTestStore(t)

	run, err := store.BeginRun("mnist", "cnn")
	if err != nil {
		t.Fatal(err)
	}
	if run.RunID == "" {
		t.Fatal("expected a run id")
	}

	runs, err := store.ListRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].Project != "mnist" || runs[0].Architecture != "cnn" {
		t.Errorf("unexpected run meta: %+v", runs[0])
	}
}

func TestStore_RecordAndListAttempts(t *testing.T) {
	store := newTestStore(t)
	run, err := store.BeginRun("p", "a")
	if err != nil {
		t.Fatal(err)
	}

	outcomes := []string{"invalid", "collision", "valid"}
	for i, o := range outcomes {
		err := store.RecordAttempt(AttemptRecord{
			RunID:      run.RunID,
			AttemptNum: i + 1,
			Outcome:    o,
			Instance:   "abc123",
			ParamCount: 100 * (i + 1),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	attempts, err := store.ListAttempts(run.RunID, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(attempts) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(attempts))
	}
	for i, a := range attempts {
		if a.AttemptNum != i+1 || a.Outcome != outcomes[i] {
			t.Errorf("attempt %d: %+v", i, a)
		}
	}
}

func TestStore_OutcomeCounts(t *testing.T) {
	store := newTestStore(t)
	run, err := store.BeginRun("p", "a")
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		store.RecordAttempt(AttemptRecord{RunID: run.RunID, AttemptNum: i + 1, Outcome: "collision"})
	}
	store.RecordAttempt(AttemptRecord{RunID: run.RunID, AttemptNum: 4, Outcome: "valid", Instance: "x"})

	counts, err := store.OutcomeCounts(run.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if counts["collision"] != 3 || counts["valid"] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestStore_SnapshotCounters(t *testing.T) {
	store := newTestStore(t)
	run, err := store.BeginRun("p", "a")
	if err != nil {
		t.Fatal(err)
	}

	if err := store.SnapshotCounters(run.RunID, `{"num_generated_models":2}`); err != nil {
		t.Fatal(err)
	}

	var countersJSON string
	err = store.DB().QueryRow(
		`SELECT counters_json FROM runs WHERE run_id = ?`, run.RunID,
	).Scan(&countersJSON)
	if err != nil {
		t.Fatal(err)
	}
	if countersJSON != `{"num_generated_models":2}` {
		t.Errorf("unexpected snapshot: %s", countersJSON)
	}
}
