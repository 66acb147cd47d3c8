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
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/ratelimit"
)

const klineBody = `{"data":{"code":"600519","name":"贵州茅台","klines":[
"2021-07-06,2080.00,2025.00,2096.00,2010.10,34000,6900000000.00,4.13,-2.64,-55.00,0.27",
"2021-07-07,2025.00,2060.00,2070.00,2021.00,28000,5700000000.00,2.42,1.73,35.00,0.22",
"2021-07-08,2050.00,1999.00,2055.00,1990.00,41000,8300000000.00,3.25,-2.96,-61.00,0.33"
]}}`

// newTestClient points a Client at url with no rate limiting and a recorded
// sleep so backoff timing can be asserted without waiting.
func newTestClient(url string, sleeps *[]time.Duration) *Client {
	c := NewClient(NewConfig())
	c.baseURL = url
	c.limiter = ratelimit.NewUnlimited()
	c.rng = rand.New(rand.NewSource(1))
	c.sleep = func(d time.Duration) {
		if sleeps != nil {
			*sleeps = append(*sleeps, d)
		}
	}
	return c
}

func TestFetchHistoryParsesKlines(t *testing.T) {
	var gotSecID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSecID = r.URL.Query().Get("secid")
		fmt.Fprint(w, klineBody)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, nil)
	quotes, err := c.FetchHistory("600519")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotSecID != "1.600519" {
		t.Errorf("expected secid 1.600519, got %s", gotSecID)
	}
	if len(quotes) != 3 {
		t.Fatalf("expected 3 quotes, got %d", len(quotes))
	}
	q := quotes[0]
	if q.Date != "2021-07-06" || q.Open != "2080.00" || q.Close != "2025.00" ||
		q.High != "2096.00" || q.Low != "2010.10" || q.Volume != "34000" ||
		q.TurnoverRate != "0.27" || q.Code != "600519" {
		t.Errorf("unexpected first quote: %+v", q)
	}
}

func TestSecID(t *testing.T) {
	cases := map[string]string{
		"600519": "1.600519",
		"900901": "1.900901",
		"000001": "0.000001",
		"300750": "0.300750",
	}
	for code, want := range cases {
		if got := SecID(code); got != want {
			t.Errorf("SecID(%s) = %s, want %s", code, got, want)
		}
	}
}

func TestFetchHistoryRateLimitBackoffEscalates(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, klineBody)
	}))
	defer srv.Close()

	var sleeps []time.Duration
	c := newTestClient(srv.URL, &sleeps)
	quotes, err := c.FetchHistory("600519")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(quotes) != 3 {
		t.Fatalf("expected 3 quotes, got %d", len(quotes))
	}
	if len(sleeps) != 2 {
		t.Fatalf("expected 2 backoff sleeps, got %d: %v", len(sleeps), sleeps)
	}
	if sleeps[0] != 60*time.Second {
		t.Errorf("first rate-limit wait = %s, want 60s", sleeps[0])
	}
	if sleeps[1] != 120*time.Second {
		t.Errorf("second rate-limit wait = %s, want 120s", sleeps[1])
	}
}

func TestFetchHistoryTransientFailuresExhaustRetries(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var sleeps []time.Duration
	c := newTestClient(srv.URL, &sleeps)
	if _, err := c.FetchHistory("000001"); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if hits != 6 {
		t.Errorf("expected 6 attempts (1 + 5 retries), got %d", hits)
	}
	if len(sleeps) != 5 {
		t.Fatalf("expected 5 backoff sleeps, got %d", len(sleeps))
	}
	for i, d := range sleeps {
		if d < 10*time.Second || d >= 30*time.Second {
			t.Errorf("sleep %d = %s, want within [10s, 30s)", i, d)
		}
	}
}

func TestFetchHistoryEmptyPayloadNotRetried(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, `{"data":null}`)
	}))
	defer srv.Close()

	var sleeps []time.Duration
	c := newTestClient(srv.URL, &sleeps)
	_, err := c.FetchHistory("000001")
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if hits != 1 {
		t.Errorf("empty payload was retried: %d attempts", hits)
	}
	if len(sleeps) != 0 {
		t.Errorf("unexpected sleeps for empty payload: %v", sleeps)
	}
}

func TestFetchHistoryMalformedKlineRetried(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			fmt.Fprint(w, `{"data":{"code":"600519","klines":["not,enough,fields"]}}`)
			return
		}
		fmt.Fprint(w, klineBody)
	}))
	defer srv.Close()

	var sleeps []time.Duration
	c := newTestClient(srv.URL, &sleeps)
	quotes, err := c.FetchHistory("600519")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(quotes) != 3 {
		t.Fatalf("expected 3 quotes after retry, got %d", len(quotes))
	}
	if hits != 2 {
		t.Errorf("expected 2 attempts, got %d", hits)
	}
}
