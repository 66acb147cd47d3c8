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
	"encoding/csv"
	"io"
	"os"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BatchWriter buffers fetched row-sets in memory and appends them to a CSV
// file once the buffered row-set count reaches a threshold, bounding memory
// use over a long run. The header (and a UTF-8 BOM, so spreadsheet tools
// pick up the encoding) is written only when the file is new or empty.
type BatchWriter struct {
	path      string
	threshold int
	buf       []*Quote
	pending   int
	flushes   int
}

// NewBatchWriter creates a BatchWriter appending to path, flushing every
// threshold row-sets.
func NewBatchWriter(path string, threshold int) *BatchWriter {
	if threshold <= 0 {
		threshold = 50
	}
	return &BatchWriter{path: path, threshold: threshold}
}

// Add buffers one row-set and flushes when the threshold is reached.
func (w *BatchWriter) Add(quotes []*Quote) error {
	w.buf = append(w.buf, quotes...)
	w.pending++
	if w.pending >= w.threshold {
		return w.Flush()
	}
	return nil
}

// Flush appends all buffered rows to the output file and clears the buffer.
// A flush with an empty buffer is a no-op.
func (w *BatchWriter) Flush() error {
	if len(w.buf) == 0 {
		return nil
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}

	cw := csv.NewWriter(f)
	if st.Size() == 0 {
		if _, err := f.Write(utf8BOM); err != nil {
			f.Close()
			return err
		}
		if err := cw.Write(csvHeader); err != nil {
			f.Close()
			return err
		}
	}
	for _, q := range w.buf {
		if err := cw.Write(q.record()); err != nil {
			f.Close()
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	w.buf = w.buf[:0]
	w.pending = 0
	w.flushes++
	return nil
}

// Flushes reports how many non-empty flushes have happened.
func (w *BatchWriter) Flushes() int {
	return w.flushes
}

// LoadQuotes reads the CSV artifact back into memory for the export sinks.
func LoadQuotes(path string) ([]*Quote, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	quotes := []*Quote{}
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if first {
			first = false
			continue
		}
		quotes = append(quotes, &Quote{
			Date: rec[0], Open: rec[1], Close: rec[2], High: rec[3],
			Low: rec[4], Volume: rec[5], Turnover: rec[6], Amplitude: rec[7],
			PctChange: rec[8], Change: rec[9], TurnoverRate: rec[10], Code: rec[11],
		})
	}
	return quotes, nil
}
