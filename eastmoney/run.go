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
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

// Summary describes the outcome of one download run.
type Summary struct {
	Total       int
	Succeeded   int
	Failed      int
	Elapsed     time.Duration
	OutputFile  string
	OutputBytes int64
}

// Downloader drives one resumable run: universe selection, checkpoint
// load/init, the fetch loop, batched persistence and the final summary.
type Downloader struct {
	cfg      *Config
	universe Universe
	client   *Client
	store    *ProgressStore
	writer   *BatchWriter
	sleep    func(time.Duration)
	rng      *rand.Rand
	now      func() time.Time
	progress bool
}

// NewDownloader wires a Downloader from cfg and the given universe.
func NewDownloader(cfg *Config, universe Universe) *Downloader {
	return &Downloader{
		cfg:      cfg,
		universe: universe,
		client:   NewClient(cfg),
		store:    &ProgressStore{Path: cfg.StatusFile},
		writer:   NewBatchWriter(cfg.OutputFile, cfg.BatchSize),
		sleep:    time.Sleep,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
		progress: true,
	}
}

// Run executes the whole workflow. Fetch failures degrade to skipped codes;
// only persistence failures (checkpoint or output file) abort the run,
// leaving the last saved checkpoint intact for a future resume.
func (d *Downloader) Run() (*Summary, error) {
	codes, err := d.universe.Codes()
	if err != nil {
		return nil, err
	}
	if d.cfg.Limit > 0 && len(codes) > d.cfg.Limit {
		codes = codes[:d.cfg.Limit]
	}
	sample := codes
	if len(sample) > 5 {
		sample = sample[:5]
	}
	log.Info().Int("Count", len(codes)).Strs("Sample", sample).Msg("stock universe selected")

	progress, err := d.store.Load()
	if err != nil {
		return nil, err
	}
	if progress.Total == 0 {
		progress = NewProgress(codes, d.now().Unix())
		if err := d.store.Save(progress); err != nil {
			return nil, err
		}
	} else {
		// resume against the universe snapshot from first initialization
		log.Info().
			Int("Completed", len(progress.Completed)).
			Int("Remaining", len(progress.Remaining)).
			Int("Total", progress.Total).
			Msg("resuming from checkpoint")
	}

	var bar *progressbar.ProgressBar
	if d.progress {
		bar = progressbar.Default(int64(len(progress.Remaining)))
	}

	remaining := append([]string(nil), progress.Remaining...)
	for _, code := range remaining {
		log.Info().
			Str("Code", code).
			Int("Position", len(progress.Completed)+1).
			Int("Total", progress.Total).
			Msg("downloading stock history")

		quotes, err := d.client.FetchHistory(code)
		if err != nil {
			log.Warn().Err(err).Str("Code", code).Msg("giving up on stock for this run")
		} else {
			if err := d.writer.Add(quotes); err != nil {
				return nil, err
			}
			progress.MarkCompleted(code)
			if err := d.store.Save(progress); err != nil {
				return nil, err
			}
		}

		if bar != nil {
			bar.Add(1)
		}
		d.sleep(d.interRequestDelay())
	}

	if err := d.writer.Flush(); err != nil {
		return nil, err
	}

	summary := &Summary{
		Total:      progress.Total,
		Succeeded:  len(progress.Completed),
		Failed:     progress.Total - len(progress.Completed),
		Elapsed:    d.now().Sub(time.Unix(progress.StartTime, 0)),
		OutputFile: d.cfg.OutputFile,
	}
	if st, err := os.Stat(d.cfg.OutputFile); err == nil {
		summary.OutputBytes = st.Size()
	}

	if d.cfg.KeepFailed && len(progress.Remaining) > 0 {
		log.Info().Int("Remaining", len(progress.Remaining)).Msg("keeping checkpoint for failed stocks")
	} else if err := d.store.Clear(); err != nil {
		return nil, err
	}

	log.Info().
		Int("Total", summary.Total).
		Int("Succeeded", summary.Succeeded).
		Int("Failed", summary.Failed).
		Msg("download run finished")
	return summary, nil
}

// interRequestDelay returns a uniform random duration in [MinDelay, MaxDelay).
func (d *Downloader) interRequestDelay() time.Duration {
	span := d.cfg.MaxDelay - d.cfg.MinDelay
	if span <= 0 {
		return d.cfg.MinDelay
	}
	return d.cfg.MinDelay + time.Duration(d.rng.Int63n(int64(span)))
}
