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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

const sessionsCSV = `,session_id,venue_id,position_in_list,purchased,is_new_user,is_from_order_again,is_recommended,has_seen_venue_in_this_session
0,1,10,0,1,True,False,True,False
1,1,20,1,0,True,False,False,False
2,2,10,0,0,False,True,False,True
`

const venuesCSV = `,venue_id,conversions_per_impression,price_range,rating,popularity,retention_rate
0,10,0.25,2,8.6,0.9,0.75
1,20,0.1,1,7.2,0.4,0.5
`

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSessions(t *testing.T) {
	table, err := LoadSessions(writeFile(t, "sessions.csv", sessionsCSV))
	assert.NoError(t, err)
	assert.Len(t, table.Columns, 8)
	assert.Len(t, table.Records, 3)
	assert.Equal(t, SessionRecord{
		SessionId:      1,
		VenueId:        10,
		PositionInList: 0,
		Purchased:      true,
		IsNewUser:      true,
		IsRecommended:  true,
	}, table.Records[0])
}

func TestLoadSessions_Malformed(t *testing.T) {
	_, err := LoadSessions(writeFile(t, "sessions.csv",
		",session_id,venue_id\n0,1,10\n"))
	assert.Error(t, err)

	_, err = LoadSessions(writeFile(t, "sessions.csv",
		sessionsCSV+"3,2,oops,0,0,False,False,False,False\n"))
	assert.Error(t, err)
}

func TestLoadVenues(t *testing.T) {
	table, err := LoadVenues(writeFile(t, "venues.csv", venuesCSV))
	assert.NoError(t, err)
	assert.Len(t, table.Columns, 6)
	assert.Len(t, table.Venues, 2)
	assert.Equal(t, Venue{
		VenueId:                  10,
		ConversionsPerImpression: 0.25,
		PriceRange:               2,
		Rating:                   8.6,
		Popularity:               0.9,
		RetentionRate:            0.75,
	}, table.Venues[0])
}
