package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"ward/internal/runtime"
)

func sampleResult() *runtime.Result {
	ctx := runtime.NewContext()
	ctx.AddTarget("https://example.com")
	ctx.AddScope("10.0.0.0/8")
	task := &runtime.Task{Name: "recon", Docstring: "sweeps the perimeter"}
	ctx.PushTask(task)
	ctx.AddAction(runtime.Action{Kind: "portscan", Summary: "Port scan ports 80", Line: 3})
	ctx.PopTask()
	ctx.AddAction(runtime.Action{Kind: "note", Summary: "checked"})
	ctx.AddNote("checked")
	ctx.AddFinding(runtime.Finding{Severity: "HIGH", Message: "weak TLS", Line: 9})
	return ctx.Snapshot(map[string]interface{}{"x": int64(1)})
}

func TestWriteJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	result := sampleResult()
	if err := Write(context.Background(), path, result); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if decoded["run_id"] != result.RunID {
		t.Errorf("run_id wrong. got=%v", decoded["run_id"])
	}
	tasks, ok := decoded["tasks"].([]interface{})
	if !ok || len(tasks) != 1 {
		t.Errorf("tasks wrong. got=%v", decoded["tasks"])
	}
}

func TestWriteEmptyDSN(t *testing.T) {
	if err := Write(context.Background(), "", sampleResult()); err == nil {
		t.Fatal("expected an error for an empty destination")
	}
}

func TestWriteSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.db")
	result := sampleResult()
	if err := Write(context.Background(), "sqlite://"+path, result); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	counts := map[string]int{"runs": 1, "tasks": 1, "actions": 1, "findings": 1, "notes": 1}
	for table, want := range counts {
		var got int
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&got); err != nil {
			t.Fatalf("counting %s failed: %v", table, err)
		}
		if got != want {
			t.Errorf("%s row count wrong. got=%d, want=%d", table, got, want)
		}
	}

	var runID, targets string
	if err := db.QueryRow("SELECT run_id, targets FROM runs").Scan(&runID, &targets); err != nil {
		t.Fatal(err)
	}
	if runID != result.RunID {
		t.Errorf("run_id wrong. got=%q", runID)
	}
	if targets != `["https://example.com"]` {
		t.Errorf("targets wrong. got=%q", targets)
	}
}

func TestRebind(t *testing.T) {
	query := "INSERT INTO t (a, b) VALUES (?, ?)"
	if got := rebind("sqlite3", query); got != query {
		t.Errorf("sqlite query rewritten. got=%q", got)
	}
	if got := rebind("mysql", query); got != query {
		t.Errorf("mysql query rewritten. got=%q", got)
	}
	want := "INSERT INTO t (a, b) VALUES ($1, $2)"
	if got := rebind("postgres", query); got != want {
		t.Errorf("postgres rebind wrong. got=%q, want=%q", got, want)
	}
}
