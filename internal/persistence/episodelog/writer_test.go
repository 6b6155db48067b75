package episodelog

import (
	"bufio"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"gravitybench.ai/internal/session"
)

func TestWriteStepRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, log.New(io.Discard, "", 0))

	for i := 1; i <= 3; i++ {
		w.WriteStep(session.StepRecord{
			Time:      time.Now().UTC(),
			SessionID: "s1",
			Task:      "gap",
			Version:   "v1",
			Step:      i,
			Action:    "forward",
			Reward:    -0.01,
		})
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(ents) != 1 || !strings.HasSuffix(ents[0].Name(), ".jsonl.zst") {
		t.Fatalf("expected one rotated jsonl.zst file, got %v", ents)
	}

	f, err := os.Open(filepath.Join(dir, ents[0].Name()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()

	var lines int
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var rec session.StepRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("line %d: %v", lines, err)
		}
		if rec.SessionID != "s1" || rec.Action != "forward" {
			t.Fatalf("unexpected record: %+v", rec)
		}
		lines++
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if lines != 3 {
		t.Fatalf("expected 3 records, got %d", lines)
	}
}
