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
	"encoding/json"
	"os"
)

// Progress is the durable checkpoint of one download run. Completed and
// Remaining partition the universe snapshot taken at initialization:
// disjoint, and their union is the full universe.
type Progress struct {
	Total     int      `json:"total"`
	Completed []string `json:"completed"`
	Remaining []string `json:"remaining"`
	StartTime int64    `json:"start_time"`
}

// NewProgress initializes a fresh checkpoint with the whole universe
// remaining.
func NewProgress(codes []string, startTime int64) *Progress {
	return &Progress{
		Total:     len(codes),
		Completed: []string{},
		Remaining: append([]string(nil), codes...),
		StartTime: startTime,
	}
}

// MarkCompleted moves code from Remaining to Completed. Unknown codes are
// ignored.
func (p *Progress) MarkCompleted(code string) {
	for i, c := range p.Remaining {
		if c == code {
			p.Remaining = append(p.Remaining[:i], p.Remaining[i+1:]...)
			p.Completed = append(p.Completed, code)
			return
		}
	}
}

// ProgressStore persists Progress as JSON at Path.
type ProgressStore struct {
	Path string
}

// Load reads the checkpoint. A missing file yields a zero Progress, which
// the caller detects via Total == 0 and re-initializes.
func (s *ProgressStore) Load() (*Progress, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Progress{Completed: []string{}, Remaining: []string{}}, nil
		}
		return nil, err
	}
	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save overwrites the checkpoint. Last writer wins; there are no concurrent
// writers.
func (s *ProgressStore) Save(p *Progress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0644)
}

// Clear deletes the checkpoint. Missing file is not an error.
func (s *ProgressStore) Clear() error {
	err := os.Remove(s.Path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
