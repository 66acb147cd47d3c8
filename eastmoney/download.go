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
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"go.uber.org/ratelimit"
)

// ErrNoData marks an HTTP 200 response that carried no kline payload for the
// requested stock. Not retried: the code stays in the remaining set and is
// picked up by a future run.
var ErrNoData = errors.New("no kline data in response")

const klineURL = "http://push2his.eastmoney.com/api/qt/stock/kline/get"

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
}

// Client fetches daily kline history for single stocks with bounded retry
// for transient failures and escalating, uncapped backoff for rate limiting.
type Client struct {
	http       *resty.Client
	limiter    ratelimit.Limiter
	baseURL    string
	startDate  string
	endDate    string
	maxRetries int
	sleep      func(time.Duration)
	rng        *rand.Rand
}

// NewClient creates a Client from cfg.
func NewClient(cfg *Config) *Client {
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		http:       resty.New().SetTimeout(15 * time.Second),
		limiter:    ratelimit.New(rps),
		baseURL:    klineURL,
		startDate:  cfg.StartDate,
		endDate:    cfg.EndDate,
		maxRetries: cfg.MaxRetries,
		sleep:      time.Sleep,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SecID maps a stock code to the exchange-qualified id the kline endpoint
// expects: 1 for Shanghai (codes starting 6 or 9), 0 for Shenzhen.
func SecID(code string) string {
	if strings.HasPrefix(code, "6") || strings.HasPrefix(code, "9") {
		return "1." + code
	}
	return "0." + code
}

// FetchHistory downloads every daily bar for one stock over the configured
// date range. Transient failures (transport errors, unexpected statuses,
// malformed payloads) are retried up to MaxRetries with a uniform random
// 10-30s backoff; HTTP 429 waits 60s times the number of rate-limit hits and
// does not count against the cap.
func (c *Client) FetchHistory(code string) ([]*Quote, error) {
	rateHits := 0
	attempt := 0
	for {
		c.limiter.Take()
		resp, err := c.http.R().
			SetHeader("User-Agent", userAgents[c.rng.Intn(len(userAgents))]).
			SetQueryParams(map[string]string{
				"secid":   SecID(code),
				"fields1": "f1,f2,f3,f4,f5",
				"fields2": "f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61",
				"klt":     "101",
				"fqt":     "1",
				"beg":     c.startDate,
				"end":     c.endDate,
			}).
			Get(c.baseURL)

		switch {
		case err != nil:
			// transport failure, fall through to the retry cap
		case resp.StatusCode() == http.StatusTooManyRequests:
			wait := time.Duration(60*(rateHits+1)) * time.Second
			log.Warn().Str("Code", code).Dur("Wait", wait).Msg("rate limited, backing off")
			c.sleep(wait)
			rateHits++
			continue
		case resp.StatusCode() == http.StatusOK:
			quotes, perr := parseKlines(code, resp.Body())
			if perr == nil {
				return quotes, nil
			}
			if errors.Is(perr, ErrNoData) {
				return nil, perr
			}
			err = perr
		default:
			err = fmt.Errorf("kline request returned status %d", resp.StatusCode())
		}

		if attempt >= c.maxRetries {
			return nil, fmt.Errorf("fetch %s: %w", code, err)
		}
		wait := c.transientBackoff()
		log.Warn().Err(err).Str("Code", code).Dur("Wait", wait).Msg("request failed, retrying")
		c.sleep(wait)
		attempt++
	}
}

// transientBackoff returns a uniform random duration in [10s, 30s).
func (c *Client) transientBackoff() time.Duration {
	return 10*time.Second + time.Duration(c.rng.Int63n(int64(20*time.Second)))
}

type klineEnvelope struct {
	Data *struct {
		Code   string   `json:"code"`
		Name   string   `json:"name"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

func parseKlines(code string, body []byte) ([]*Quote, error) {
	var envelope klineEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	if envelope.Data == nil || len(envelope.Data.Klines) == 0 {
		return nil, fmt.Errorf("%s: %w", code, ErrNoData)
	}

	quotes := make([]*Quote, 0, len(envelope.Data.Klines))
	for _, line := range envelope.Data.Klines {
		parts := strings.Split(line, ",")
		if len(parts) != 11 {
			return nil, fmt.Errorf("malformed kline %q for %s", line, code)
		}
		quotes = append(quotes, &Quote{
			Date:         parts[0],
			Open:         parts[1],
			Close:        parts[2],
			High:         parts[3],
			Low:          parts[4],
			Volume:       parts[5],
			Turnover:     parts[6],
			Amplitude:    parts[7],
			PctChange:    parts[8],
			Change:       parts[9],
			TurnoverRate: parts[10],
			Code:         code,
		})
	}
	return quotes, nil
}
