package journal

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/srllamadev/protocol-14-weex/testutils"
)

func TestWriterAppendsJSONLines(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, testutils.NewMockLogger())
	w.now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }

	w.Record("decision", map[string]string{"symbol": "cmt_solusdt", "action": "skip"})
	w.Record("trade_open", map[string]float64{"size": 4.0})
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "journal.jsonl"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer f.Close()

	var kinds []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("line not valid JSON: %v", err)
		}
		if e.Time.IsZero() {
			t.Error("entry missing timestamp")
		}
		kinds = append(kinds, e.Kind)
	}
	if len(kinds) != 2 || kinds[0] != "decision" || kinds[1] != "trade_open" {
		t.Errorf("kinds = %v", kinds)
	}
}
