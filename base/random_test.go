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

package base

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomGenerator_Deterministic(t *testing.T) {
	a := NewRandomGenerator(21).UniformVector(10, 0, 1)
	b := NewRandomGenerator(21).UniformVector(10, 0, 1)
	assert.Equal(t, a, b)
}

func TestRandomGenerator_SampleInts(t *testing.T) {
	rng := NewRandomGenerator(21)
	sampled := rng.SampleInts(0, 100, 10)
	assert.Len(t, sampled, 10)
	seen := make(map[int]struct{})
	for _, v := range sampled {
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 100)
		_, exist := seen[v]
		assert.False(t, exist)
		seen[v] = struct{}{}
	}
	// sampling more than the interval returns the whole interval
	assert.Len(t, rng.SampleInts(0, 5, 10), 5)
}
