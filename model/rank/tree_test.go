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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTree_Predict(t *testing.T) {
	tree := &Tree{Nodes: []TreeNode{
		{Feature: 0, Threshold: 1.5, Left: 1, Right: 2},
		{Feature: -1, Value: -1},
		{Feature: 1, Threshold: 0.5, Left: 3, Right: 4},
		{Feature: -1, Value: 2},
		{Feature: -1, Value: 3},
	}}
	assert.Equal(t, float32(-1), tree.Predict([]float32{1.0, 0.9}))
	assert.Equal(t, float32(-1), tree.Predict([]float32{1.5, 0.9}))
	assert.Equal(t, float32(2), tree.Predict([]float32{2.0, 0.4}))
	assert.Equal(t, float32(3), tree.Predict([]float32{2.0, 0.9}))
}

func TestTreeBuilder_Split(t *testing.T) {
	// feature 0 separates the targets exactly
	features := [][]float32{{0, 7}, {1, 7}, {2, 7}, {3, 7}}
	targets := []float32{-2, -2, 2, 2}
	weights := []float32{1, 1, 1, 1}
	builder := newTreeBuilder(features, targets, weights, 3, 1, 0, 2)
	tree := builder.build([]int{0, 1, 2, 3})
	assert.Less(t, tree.Predict([]float32{0.5, 7}), float32(0))
	assert.Greater(t, tree.Predict([]float32{2.5, 7}), float32(0))
	// the constant feature never gains
	assert.Zero(t, builder.gain[1])
	assert.Greater(t, builder.gain[0], float32(0))
}

func TestTreeBuilder_MinSamplesLeaf(t *testing.T) {
	features := [][]float32{{0}, {1}, {2}, {3}}
	targets := []float32{-1, -1, 1, 1}
	weights := []float32{1, 1, 1, 1}
	builder := newTreeBuilder(features, targets, weights, 5, 4, 0, 1)
	tree := builder.build([]int{0, 1, 2, 3})
	// a leaf needs 4 samples, so no split happens
	assert.Equal(t, tree.Predict([]float32{0}), tree.Predict([]float32{3}))
}
