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
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog/log"
)

// SaveToDatabase upserts all quotes into the eod_cn table. Individual row
// failures are logged and skipped so one bad row does not lose the batch.
func SaveToDatabase(quotes []*Quote, dsn string) error {
	log.Info().Msg("saving to database")
	conn, err := pgx.Connect(context.Background(), dsn)
	if err != nil {
		log.Error().Err(err).Msg("Could not connect to database")
		return err
	}
	defer conn.Close(context.Background())

	for _, quote := range quotes {
		_, err := conn.Exec(context.Background(),
			`INSERT INTO eod_cn (
			"code",
			"event_date",
			"open",
			"high",
			"low",
			"close",
			"volume",
			"turnover",
			"amplitude",
			"pct_change",
			"change",
			"turnover_rate",
			"source"
		) VALUES (
			$1,
			$2,
			$3,
			$4,
			$5,
			$6,
			$7,
			$8,
			$9,
			$10,
			$11,
			$12,
			$13
		) ON CONFLICT ON CONSTRAINT eod_cn_pkey
		DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume,
			turnover = EXCLUDED.turnover,
			amplitude = EXCLUDED.amplitude,
			pct_change = EXCLUDED.pct_change,
			change = EXCLUDED.change,
			turnover_rate = EXCLUDED.turnover_rate,
			source = EXCLUDED.source;`,
			quote.Code, quote.Date,
			quote.Open, quote.High, quote.Low, quote.Close, quote.Volume,
			quote.Turnover, quote.Amplitude, quote.PctChange, quote.Change,
			quote.TurnoverRate, "push2his.eastmoney.com")
		if err != nil {
			log.Error().Err(err).Str("Code", quote.Code).Str("EventDate", quote.Date).Msg("error saving EOD quote to database")
		}
	}

	return nil
}
