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

package feature

import (
	"github.com/juju/errors"
	"github.com/venues-ranker/venues-ranker/dataset"
	"github.com/venues-ranker/venues-ranker/storage/data"
)

// Item is one candidate venue of a ranking request.
type Item struct {
	VenueId                  int64 `json:"venue_id"`
	IsFromOrderAgain         bool  `json:"is_from_order_again"`
	IsRecommended            bool  `json:"is_recommended"`
	HasSeenVenueInThisSession bool `json:"has_seen_venue_in_this_session"`
}

// Assembler builds model feature rows from request items and stored venue
// features.
type Assembler struct{}

// Assemble returns one feature row per item, in item order. The rows follow
// dataset.FeatureNames. A venue absent from venues is a not found error.
func (Assembler) Assemble(isNewUser bool, items []Item, venues map[int64]data.Venue) ([][]float32, error) {
	rows := make([][]float32, 0, len(items))
	for _, item := range items {
		venue, exists := venues[item.VenueId]
		if !exists {
			return nil, errors.NotFoundf("venue %d", item.VenueId)
		}
		rows = append(rows, []float32{
			boolToFloat(isNewUser),
			boolToFloat(item.IsFromOrderAgain),
			boolToFloat(item.IsRecommended),
			venue.ConversionsPerImpression,
			float32(venue.PriceRange),
			venue.Rating,
			venue.Popularity,
			venue.RetentionRate,
		})
	}
	return rows, nil
}

// FeatureNames returns the feature order of assembled rows.
func (Assembler) FeatureNames() []string {
	return dataset.FeatureNames
}

func boolToFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
