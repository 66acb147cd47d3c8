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

import "time"

// Config collects every knob of a download run. A zero value is not usable;
// start from NewConfig and override.
type Config struct {
	// StartDate and EndDate bound the kline query, formatted YYYYMMDD.
	StartDate string
	EndDate   string

	// OutputFile is the CSV artifact rows are appended to.
	OutputFile string
	// StatusFile is the JSON checkpoint enabling resumable runs.
	StatusFile string

	// MaxRetries caps retry attempts for transient fetch failures. Rate-limit
	// (HTTP 429) backoff is not counted against this cap.
	MaxRetries int
	// BatchSize is the number of fetched row-sets buffered before an append
	// to OutputFile.
	BatchSize int

	// MinDelay and MaxDelay bound the randomized pause between stocks.
	MinDelay time.Duration
	MaxDelay time.Duration

	// RateLimit caps outgoing requests per second across retries.
	RateLimit int

	// Limit truncates the universe to the first N codes when positive.
	Limit int

	// KeepFailed leaves the checkpoint on disk when some codes never
	// succeeded, so the next run retries only those. Off by default: the
	// checkpoint is cleared unconditionally at run end.
	KeepFailed bool
}

// NewConfig returns a Config with production defaults.
func NewConfig() *Config {
	return &Config{
		StartDate:  "20210706",
		EndDate:    "20250706",
		OutputFile: "ashare_history.csv",
		StatusFile: "download_status.json",
		MaxRetries: 5,
		BatchSize:  50,
		MinDelay:   2 * time.Second,
		MaxDelay:   5 * time.Second,
		RateLimit:  5,
	}
}
