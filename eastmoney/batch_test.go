/*
Copyright 2022

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package eastmoney

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func fakeRowSet(code string, rows int) []*Quote {
	quotes := make([]*Quote, rows)
	for i := range quotes {
		quotes[i] = &Quote{
			Date: fmt.Sprintf("2021-07-%02d", i+1), Open: "10.00", Close: "10.50",
			High: "10.60", Low: "9.90", Volume: "123456", Turnover: "1300000.00",
			Amplitude: "7.07", PctChange: "5.00", Change: "0.50",
			TurnoverRate: "0.65", Code: code,
		}
	}
	return quotes
}

func countDataLines(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output file: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	return len(lines) - 1 // minus header
}

func TestBatchWriterFlushesAtThresholdAndAtEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w := NewBatchWriter(path, 50)

	for i := 0; i < 51; i++ {
		if err := w.Add(fakeRowSet(fmt.Sprintf("%06d", i), 2)); err != nil {
			t.Fatalf("add row-set %d: %v", i, err)
		}
	}
	if w.Flushes() != 1 {
		t.Fatalf("expected 1 flush after 51 row-sets, got %d", w.Flushes())
	}
	if got := countDataLines(t, path); got != 100 {
		t.Errorf("expected 100 rows on disk after threshold flush, got %d", got)
	}

	if err := w.Flush(); err != nil {
		t.Fatalf("final flush: %v", err)
	}
	if w.Flushes() != 2 {
		t.Fatalf("expected 2 flushes total, got %d", w.Flushes())
	}
	if got := countDataLines(t, path); got != 102 {
		t.Errorf("expected 102 rows on disk after final flush, got %d", got)
	}

	// flushing an empty buffer is a no-op
	if err := w.Flush(); err != nil {
		t.Fatalf("empty flush: %v", err)
	}
	if w.Flushes() != 2 {
		t.Errorf("empty flush was counted, got %d", w.Flushes())
	}
}

func TestBatchWriterHeaderAndBOMWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w := NewBatchWriter(path, 1)

	if err := w.Add(fakeRowSet("600519", 1)); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := w.Add(fakeRowSet("000001", 1)); err != nil {
		t.Fatalf("second add: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output file: %v", err)
	}
	if !bytes.HasPrefix(data, utf8BOM) {
		t.Error("output file does not start with a UTF-8 BOM")
	}
	if n := bytes.Count(data, utf8BOM); n != 1 {
		t.Errorf("expected exactly 1 BOM, found %d", n)
	}
	if n := strings.Count(string(data), "date,open,close"); n != 1 {
		t.Errorf("expected exactly 1 header, found %d", n)
	}
}

func TestLoadQuotesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w := NewBatchWriter(path, 50)
	if err := w.Add(fakeRowSet("600519", 3)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	quotes, err := LoadQuotes(path)
	if err != nil {
		t.Fatalf("load quotes: %v", err)
	}
	if len(quotes) != 3 {
		t.Fatalf("expected 3 quotes, got %d", len(quotes))
	}
	if quotes[0].Code != "600519" || quotes[0].Close != "10.50" {
		t.Errorf("unexpected first quote: %+v", quotes[0])
	}
	if quotes[2].Date != "2021-07-03" {
		t.Errorf("unexpected last date: %s", quotes[2].Date)
	}
}
