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

// Quote is one daily bar for a single stock. Fields are kept verbatim as
// returned by the kline endpoint; no numeric conversion happens before the
// row reaches an export sink.
type Quote struct {
	Date         string `json:"date" csv:"date" parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Open         string `json:"open" csv:"open" parquet:"name=open, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Close        string `json:"close" csv:"close" parquet:"name=close, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	High         string `json:"high" csv:"high" parquet:"name=high, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Low          string `json:"low" csv:"low" parquet:"name=low, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Volume       string `json:"volume" csv:"volume" parquet:"name=volume, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Turnover     string `json:"turnover" csv:"turnover" parquet:"name=turnover, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Amplitude    string `json:"amplitude" csv:"amplitude" parquet:"name=amplitude, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	PctChange    string `json:"pctChange" csv:"pct_change" parquet:"name=pctChange, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Change       string `json:"change" csv:"change" parquet:"name=change, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	TurnoverRate string `json:"turnoverRate" csv:"turnover_rate" parquet:"name=turnoverRate, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Code         string `json:"code" csv:"code" parquet:"name=code, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}

// Stock is one entry of the listed-stock reference table.
type Stock struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// csvHeader matches the field order returned by the kline endpoint, with the
// owning code appended last.
var csvHeader = []string{
	"date", "open", "close", "high", "low", "volume", "turnover",
	"amplitude", "pct_change", "change", "turnover_rate", "code",
}

func (q *Quote) record() []string {
	return []string{
		q.Date, q.Open, q.Close, q.High, q.Low, q.Volume, q.Turnover,
		q.Amplitude, q.PctChange, q.Change, q.TurnoverRate, q.Code,
	}
}
