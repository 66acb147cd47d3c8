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
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Universe returns the ordered list of stock codes to download. Order is not
// guaranteed stable across calls.
type Universe interface {
	Codes() ([]string, error)
}

// DefaultFallbackCodes is the static universe used when the reference table
// cannot be fetched. Large, liquid names only.
var DefaultFallbackCodes = []string{
	"600519", "000001", "601318", "000858", "600036",
	"601988", "601288", "601398", "601628",
}

const spotListURL = "http://80.push2.eastmoney.com/api/qt/clist/get"

// SpotUniverse queries the Eastmoney listed-stock reference table and keeps
// Shanghai/Shenzhen main-board and ChiNext codes (prefix 6, 0 or 3) whose
// name carries no ST or delisting marker.
type SpotUniverse struct {
	client  *resty.Client
	baseURL string
}

// NewSpotUniverse creates a SpotUniverse with a bounded request timeout.
func NewSpotUniverse() *SpotUniverse {
	return &SpotUniverse{
		client:  resty.New().SetTimeout(15 * time.Second),
		baseURL: spotListURL,
	}
}

type spotEnvelope struct {
	Data *struct {
		Total int `json:"total"`
		Diff  []struct {
			Code string `json:"f12"`
			Name string `json:"f14"`
		} `json:"diff"`
	} `json:"data"`
}

func (u *SpotUniverse) Codes() ([]string, error) {
	resp, err := u.client.R().
		SetQueryParams(map[string]string{
			"pn":     "1",
			"pz":     "10000",
			"po":     "1",
			"np":     "1",
			"fltt":   "2",
			"invt":   "2",
			"fid":    "f12",
			"fs":     "m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23",
			"fields": "f12,f14",
		}).
		Get(u.baseURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("stock list request returned status %d", resp.StatusCode())
	}

	var envelope spotEnvelope
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, err
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("stock list response has no data")
	}

	codes := make([]string, 0, len(envelope.Data.Diff))
	for _, row := range envelope.Data.Diff {
		if !Tradable(Stock{Code: row.Code, Name: row.Name}) {
			continue
		}
		codes = append(codes, row.Code)
	}
	return codes, nil
}

// Tradable reports whether a stock belongs to the download universe:
// Shanghai/Shenzhen code prefix and no distress or delisting marker in the
// display name.
func Tradable(s Stock) bool {
	if !strings.HasPrefix(s.Code, "6") && !strings.HasPrefix(s.Code, "0") && !strings.HasPrefix(s.Code, "3") {
		return false
	}
	if strings.Contains(s.Name, "ST") || strings.Contains(s.Name, "退市") {
		return false
	}
	return true
}

// StaticUniverse is a fixed list of codes.
type StaticUniverse []string

func (u StaticUniverse) Codes() ([]string, error) {
	return append([]string(nil), u...), nil
}

// Fallback tries Primary first and fails over to Backup when Primary errors
// or returns an empty list. The failover is logged, never surfaced.
type Fallback struct {
	Primary Universe
	Backup  Universe
}

func (f *Fallback) Codes() ([]string, error) {
	codes, err := f.Primary.Codes()
	if err == nil && len(codes) > 0 {
		return codes, nil
	}
	if err != nil {
		log.Warn().Err(err).Msg("primary stock universe failed, using fallback list")
	} else {
		log.Warn().Msg("primary stock universe is empty, using fallback list")
	}
	return f.Backup.Codes()
}
