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

package rank

import (
	"sort"
)

// rankIndices returns row indices of [begin, end) ordered by descending
// score. Ties keep the original row order.
func rankIndices(scores []float32, begin, end int) []int {
	indices := make([]int, end-begin)
	for i := range indices {
		indices[i] = begin + i
	}
	sort.SliceStable(indices, func(i, j int) bool {
		return scores[indices[i]] > scores[indices[j]]
	})
	return indices
}

// averagePrecision computes AP@k of one ranked group. Groups without a
// positive label return (0, false) and are excluded from the mean.
func averagePrecision(labels []float32, ranked []int, k int) (float32, bool) {
	var positives int
	for _, index := range ranked {
		if labels[index] > 0 {
			positives++
		}
	}
	if positives == 0 {
		return 0, false
	}
	if k > len(ranked) {
		k = len(ranked)
	}
	var hits int
	var sum float32
	for rank := 1; rank <= k; rank++ {
		if labels[ranked[rank-1]] > 0 {
			hits++
			sum += float32(hits) / float32(rank)
		}
	}
	denominator := positives
	if k < denominator {
		denominator = k
	}
	return sum / float32(denominator), true
}

// MeanAveragePrecision computes MAP@k over grouped rows: the average
// precision truncated at rank k, averaged over groups that contain at least
// one positive label.
func MeanAveragePrecision(scores, labels []float32, groups [][2]int, k int) float32 {
	var sum float32
	var counted int
	for _, group := range groups {
		ranked := rankIndices(scores, group[0], group[1])
		if ap, ok := averagePrecision(labels, ranked, k); ok {
			sum += ap
			counted++
		}
	}
	if counted == 0 {
		return 0
	}
	return sum / float32(counted)
}
