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
	"sort"

	"github.com/juju/errors"
)

const joinKey = "venue_id"

// MergedRow is one session impression joined with the static data of the
// venue it references.
type MergedRow struct {
	Session SessionRecord
	Venue   Venue
}

// MergedTable is the left join of sessions to venues on venue id.
type MergedTable struct {
	Columns []string
	Rows    []MergedRow
}

// Merge left-joins session rows to venue rows on venue identifier. Two
// invariants abort the merge with an error instead of producing a defective
// training set:
//  1. venue identifiers must be unique in the venue table;
//  2. the join must preserve the session row count and the column count must
//     be additive minus the shared join key.
func Merge(sessions *SessionTable, venues *VenueTable) (*MergedTable, error) {
	// venues must be a dictionary
	venueById := make(map[int64]Venue, len(venues.Venues))
	for _, venue := range venues.Venues {
		if _, exist := venueById[venue.VenueId]; exist {
			return nil, errors.Errorf("venues is not a dictionary: duplicate venue id %d", venue.VenueId)
		}
		venueById[venue.VenueId] = venue
	}
	// left join on venue id
	merged := &MergedTable{Columns: append([]string{}, sessions.Columns...)}
	for _, column := range venues.Columns {
		if column != joinKey {
			merged.Columns = append(merged.Columns, column)
		}
	}
	for _, record := range sessions.Records {
		venue, exist := venueById[record.VenueId]
		if !exist {
			return nil, errors.Errorf("session %d references unknown venue %d", record.SessionId, record.VenueId)
		}
		merged.Rows = append(merged.Rows, MergedRow{Session: record, Venue: venue})
	}
	// check the join is row-count-preserving and column-count-additive
	if len(merged.Rows) != len(sessions.Records) {
		return nil, errors.Errorf("data is not merged correctly: %d rows, want %d",
			len(merged.Rows), len(sessions.Records))
	}
	if len(merged.Columns) != len(sessions.Columns)+len(venues.Columns)-1 {
		return nil, errors.Errorf("data is not merged correctly: %d columns, want %d",
			len(merged.Columns), len(sessions.Columns)+len(venues.Columns)-1)
	}
	return merged, nil
}

// FeatureNames are the model features in row order. Position, the raw venue
// identifier and the has-seen flag are bookkeeping columns and never reach
// the model.
var FeatureNames = []string{
	"is_new_user",
	"is_from_order_again",
	"is_recommended",
	"conversions_per_impression",
	"price_range",
	"rating",
	"popularity",
	"retention_rate",
}

// Prepare turns the merged table into a Pool: the label column becomes an
// integer 0/1, rows are sorted by (session id, position in list) for
// deterministic grouping, and the non-feature columns are dropped.
func (merged *MergedTable) Prepare() *Pool {
	rows := make([]MergedRow, len(merged.Rows))
	copy(rows, merged.Rows)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Session.SessionId != rows[j].Session.SessionId {
			return rows[i].Session.SessionId < rows[j].Session.SessionId
		}
		return rows[i].Session.PositionInList < rows[j].Session.PositionInList
	})
	pool := &Pool{
		FeatureNames: FeatureNames,
		Features:     make([][]float32, 0, len(rows)),
		Labels:       make([]float32, 0, len(rows)),
		Groups:       make([]int64, 0, len(rows)),
	}
	for _, row := range rows {
		pool.Features = append(pool.Features, featureRow(row))
		if row.Session.Purchased {
			pool.Labels = append(pool.Labels, 1)
		} else {
			pool.Labels = append(pool.Labels, 0)
		}
		pool.Groups = append(pool.Groups, row.Session.SessionId)
	}
	return pool
}

func featureRow(row MergedRow) []float32 {
	return []float32{
		boolToFloat(row.Session.IsNewUser),
		boolToFloat(row.Session.IsFromOrderAgain),
		boolToFloat(row.Session.IsRecommended),
		row.Venue.ConversionsPerImpression,
		float32(row.Venue.PriceRange),
		row.Venue.Rating,
		row.Venue.Popularity,
		row.Venue.RetentionRate,
	}
}

func boolToFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
