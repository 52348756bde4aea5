// Copyright 2023 venues-ranker Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// SessionRecord is one impression inside a historical ranking session.
type SessionRecord struct {
	SessionId                 int64
	VenueId                   int64
	PositionInList            int
	Purchased                 bool
	IsNewUser                 bool
	IsFromOrderAgain          bool
	IsRecommended             bool
	HasSeenVenueInThisSession bool
}

// Venue is the static reference data of one venue.
type Venue struct {
	VenueId                  int64
	ConversionsPerImpression float32
	PriceRange               int
	Rating                   float32
	Popularity               float32
	RetentionRate            float32
}

// SessionTable is the sessions dataset together with its column names. The
// column names take part in the merge invariant checks.
type SessionTable struct {
	Columns []string
	Records []SessionRecord
}

// VenueTable is the venues dataset together with its column names.
type VenueTable struct {
	Columns []string
	Venues  []Venue
}

var (
	sessionColumns = []string{
		"session_id", "venue_id", "position_in_list", "purchased",
		"is_new_user", "is_from_order_again", "is_recommended",
		"has_seen_venue_in_this_session",
	}
	venueColumns = []string{
		"venue_id", "conversions_per_impression", "price_range",
		"rating", "popularity", "retention_rate",
	}
)

// LoadSessions reads the sessions dataset from a CSV file.
func LoadSessions(path string) (*SessionTable, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	index, err := columnIndex(path, header, sessionColumns)
	if err != nil {
		return nil, errors.Trace(err)
	}
	table := &SessionTable{Columns: header}
	for i, row := range rows {
		p := rowParser{row: row, index: index}
		record := SessionRecord{
			SessionId:                 p.int64("session_id"),
			VenueId:                   p.int64("venue_id"),
			PositionInList:            p.int("position_in_list"),
			Purchased:                 p.bool("purchased"),
			IsNewUser:                 p.bool("is_new_user"),
			IsFromOrderAgain:          p.bool("is_from_order_again"),
			IsRecommended:             p.bool("is_recommended"),
			HasSeenVenueInThisSession: p.bool("has_seen_venue_in_this_session"),
		}
		if p.err != nil {
			return nil, errors.Annotatef(p.err, "%s: row %d", path, i+2)
		}
		table.Records = append(table.Records, record)
	}
	return table, nil
}

// LoadVenues reads the venues dataset from a CSV file.
func LoadVenues(path string) (*VenueTable, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	index, err := columnIndex(path, header, venueColumns)
	if err != nil {
		return nil, errors.Trace(err)
	}
	table := &VenueTable{Columns: header}
	for i, row := range rows {
		p := rowParser{row: row, index: index}
		venue := Venue{
			VenueId:                  p.int64("venue_id"),
			ConversionsPerImpression: p.float32("conversions_per_impression"),
			PriceRange:               p.int("price_range"),
			Rating:                   p.float32("rating"),
			Popularity:               p.float32("popularity"),
			RetentionRate:            p.float32("retention_rate"),
		}
		if p.err != nil {
			return nil, errors.Annotatef(p.err, "%s: row %d", path, i+2)
		}
		table.Venues = append(table.Venues, venue)
	}
	return table, nil
}

// readCSV reads a CSV file and splits the header from the data rows. A
// leading unnamed index column is dropped.
func readCSV(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	defer f.Close()
	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	if len(records) == 0 {
		return nil, nil, errors.Errorf("%s: empty file", path)
	}
	header, rows = records[0], records[1:]
	if len(header) > 0 && header[0] == "" {
		header = header[1:]
		for i := range rows {
			rows[i] = rows[i][1:]
		}
	}
	return header, rows, nil
}

func columnIndex(path string, header, required []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, name := range required {
		if _, exist := index[name]; !exist {
			return nil, errors.Errorf("%s: missing column %s", path, name)
		}
	}
	return index, nil
}

// rowParser parses typed cells out of one CSV row and keeps the first error.
type rowParser struct {
	row   []string
	index map[string]int
	err   error
}

func (p *rowParser) cell(name string) string {
	return strings.TrimSpace(p.row[p.index[name]])
}

func (p *rowParser) int64(name string) int64 {
	if p.err != nil {
		return 0
	}
	var v int64
	if v, p.err = strconv.ParseInt(p.cell(name), 10, 64); p.err != nil {
		p.err = errors.Annotatef(p.err, "column %s", name)
	}
	return v
}

func (p *rowParser) int(name string) int {
	if p.err != nil {
		return 0
	}
	var v int
	if v, p.err = strconv.Atoi(p.cell(name)); p.err != nil {
		p.err = errors.Annotatef(p.err, "column %s", name)
	}
	return v
}

func (p *rowParser) float32(name string) float32 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(p.cell(name), 32)
	if err != nil {
		p.err = errors.Annotatef(err, "column %s", name)
	}
	return float32(v)
}

func (p *rowParser) bool(name string) bool {
	if p.err != nil {
		return false
	}
	switch strings.ToLower(p.cell(name)) {
	case "true", "1":
		return true
	case "false", "0":
		return false
	}
	p.err = errors.Errorf("column %s: invalid boolean: %s", name, p.cell(name))
	return false
}
