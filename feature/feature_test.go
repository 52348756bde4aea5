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
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/venues-ranker/venues-ranker/storage/data"
)

func TestAssembler_Assemble(t *testing.T) {
	var assembler Assembler
	venues := map[int64]data.Venue{
		1: {VenueId: 1, ConversionsPerImpression: 0.2, PriceRange: 2, Rating: 8.4, Popularity: 0.7, RetentionRate: 0.3},
		2: {VenueId: 2, ConversionsPerImpression: 0.1, PriceRange: 1, Rating: 9.1, Popularity: 0.5, RetentionRate: 0.4},
	}
	rows, err := assembler.Assemble(true, []Item{
		{VenueId: 2, IsRecommended: true, HasSeenVenueInThisSession: true},
		{VenueId: 1, IsFromOrderAgain: true},
	}, venues)
	assert.NoError(t, err)
	// rows follow item order, the has-seen flag is not a feature
	assert.Equal(t, [][]float32{
		{1, 0, 1, 0.1, 1, 9.1, 0.5, 0.4},
		{1, 1, 0, 0.2, 2, 8.4, 0.7, 0.3},
	}, rows)
	assert.Len(t, rows[0], len(assembler.FeatureNames()))
}

func TestAssembler_UnknownVenue(t *testing.T) {
	var assembler Assembler
	_, err := assembler.Assemble(false, []Item{{VenueId: 404}}, map[int64]data.Venue{})
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestAssembler_Empty(t *testing.T) {
	var assembler Assembler
	rows, err := assembler.Assemble(false, nil, nil)
	assert.NoError(t, err)
	assert.Empty(t, rows)
}
