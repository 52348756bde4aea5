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

// Pool is the bundled (features, label, group) dataset unit consumed by the
// ranker's fit routine. Rows of one session are contiguous.
type Pool struct {
	FeatureNames []string
	Features     [][]float32
	Labels       []float32
	Groups       []int64
}

// Count returns the number of rows.
func (pool *Pool) Count() int {
	return len(pool.Features)
}

// DistinctSessions returns session identifiers in order of first appearance.
func (pool *Pool) DistinctSessions() []int64 {
	var sessions []int64
	seen := make(map[int64]struct{})
	for _, group := range pool.Groups {
		if _, exist := seen[group]; !exist {
			seen[group] = struct{}{}
			sessions = append(sessions, group)
		}
	}
	return sessions
}

// SubsetBySessions returns the rows whose session identifier is in the set,
// preserving row order.
func (pool *Pool) SubsetBySessions(sessions map[int64]struct{}) *Pool {
	subset := &Pool{FeatureNames: pool.FeatureNames}
	for i, group := range pool.Groups {
		if _, exist := sessions[group]; exist {
			subset.Features = append(subset.Features, pool.Features[i])
			subset.Labels = append(subset.Labels, pool.Labels[i])
			subset.Groups = append(subset.Groups, group)
		}
	}
	return subset
}

// GroupRanges returns the [begin, end) row range of each session, in row
// order. Rows of one session must be contiguous.
func (pool *Pool) GroupRanges() [][2]int {
	var ranges [][2]int
	begin := 0
	for i := 1; i <= len(pool.Groups); i++ {
		if i == len(pool.Groups) || pool.Groups[i] != pool.Groups[begin] {
			ranges = append(ranges, [2]int{begin, i})
			begin = i
		}
	}
	return ranges
}
