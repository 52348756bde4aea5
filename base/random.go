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
	"math/rand"
)

// RandomGenerator is the random generator for venues-ranker.
type RandomGenerator struct {
	*rand.Rand
}

// NewRandomGenerator creates a RandomGenerator.
func NewRandomGenerator(seed int64) RandomGenerator {
	return RandomGenerator{rand.New(rand.NewSource(seed))}
}

// UniformVector makes a vec filled with uniform random floats.
func (rng RandomGenerator) UniformVector(size int, low, high float32) []float32 {
	ret := make([]float32, size)
	scale := high - low
	for i := 0; i < len(ret); i++ {
		ret[i] = rng.Float32()*scale + low
	}
	return ret
}

// SampleInts samples n distinct integers from [low, high).
func (rng RandomGenerator) SampleInts(low, high, n int) []int {
	if n >= high-low {
		sampled := make([]int, 0, high-low)
		for i := low; i < high; i++ {
			sampled = append(sampled, i)
		}
		return sampled
	}
	sampled := make([]int, 0, n)
	seen := make(map[int]struct{}, n)
	for len(sampled) < n {
		v := rng.Intn(high-low) + low
		if _, exist := seen[v]; !exist {
			seen[v] = struct{}{}
			sampled = append(sampled, v)
		}
	}
	return sampled
}
