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

// TreeNode is one node of a regression tree. Feature is -1 for leaves.
type TreeNode struct {
	Feature   int32
	Threshold float32
	Left      int32
	Right     int32
	Value     float32
}

// Tree is a regression tree over dense feature rows.
type Tree struct {
	Nodes []TreeNode
}

// Predict walks the tree for one feature row.
func (tree *Tree) Predict(row []float32) float32 {
	index := int32(0)
	for {
		node := tree.Nodes[index]
		if node.Feature < 0 {
			return node.Value
		}
		if row[node.Feature] <= node.Threshold {
			index = node.Left
		} else {
			index = node.Right
		}
	}
}

// treeBuilder grows a regression tree by exact greedy split search. Leaf
// values are Newton steps sum(target)/(sum(weight)+reg).
type treeBuilder struct {
	features [][]float32
	targets  []float32
	weights  []float32
	maxDepth int
	minLeaf  int
	reg      float32
	gain     []float32 // accumulated split gain per feature
	nodes    []TreeNode
}

func newTreeBuilder(features [][]float32, targets, weights []float32, maxDepth, minLeaf int, reg float32, numFeatures int) *treeBuilder {
	return &treeBuilder{
		features: features,
		targets:  targets,
		weights:  weights,
		maxDepth: maxDepth,
		minLeaf:  minLeaf,
		reg:      reg,
		gain:     make([]float32, numFeatures),
	}
}

func (b *treeBuilder) build(indices []int) *Tree {
	b.nodes = b.nodes[:0]
	b.buildNode(indices, 0)
	return &Tree{Nodes: append([]TreeNode{}, b.nodes...)}
}

func (b *treeBuilder) buildNode(indices []int, depth int) int32 {
	var sumTarget, sumWeight float32
	for _, i := range indices {
		sumTarget += b.targets[i]
		sumWeight += b.weights[i]
	}
	nodeIndex := int32(len(b.nodes))
	b.nodes = append(b.nodes, TreeNode{Feature: -1, Value: sumTarget / (sumWeight + b.reg)})
	if depth >= b.maxDepth || len(indices) < 2*b.minLeaf {
		return nodeIndex
	}
	feature, threshold, gain := b.bestSplit(indices, sumTarget, sumWeight)
	if feature < 0 {
		return nodeIndex
	}
	b.gain[feature] += gain
	left := make([]int, 0, len(indices))
	right := make([]int, 0, len(indices))
	for _, i := range indices {
		if b.features[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	leftIndex := b.buildNode(left, depth+1)
	rightIndex := b.buildNode(right, depth+1)
	b.nodes[nodeIndex] = TreeNode{
		Feature:   int32(feature),
		Threshold: threshold,
		Left:      leftIndex,
		Right:     rightIndex,
	}
	return nodeIndex
}

// bestSplit searches every feature for the threshold with maximal gain.
// Returns feature -1 when no split improves on the parent node.
func (b *treeBuilder) bestSplit(indices []int, sumTarget, sumWeight float32) (int, float32, float32) {
	parentScore := sumTarget * sumTarget / (sumWeight + b.reg)
	bestFeature, bestThreshold, bestGain := -1, float32(0), float32(0)
	sorted := make([]int, len(indices))
	for feature := range b.gain {
		copy(sorted, indices)
		sort.Slice(sorted, func(i, j int) bool {
			return b.features[sorted[i]][feature] < b.features[sorted[j]][feature]
		})
		var leftTarget, leftWeight float32
		for i := 0; i < len(sorted)-1; i++ {
			leftTarget += b.targets[sorted[i]]
			leftWeight += b.weights[sorted[i]]
			value, next := b.features[sorted[i]][feature], b.features[sorted[i+1]][feature]
			if value == next {
				continue
			}
			if i+1 < b.minLeaf || len(sorted)-i-1 < b.minLeaf {
				continue
			}
			rightTarget := sumTarget - leftTarget
			rightWeight := sumWeight - leftWeight
			gain := leftTarget*leftTarget/(leftWeight+b.reg) +
				rightTarget*rightTarget/(rightWeight+b.reg) - parentScore
			if gain > bestGain {
				bestFeature = feature
				bestThreshold = (value + next) / 2
				bestGain = gain
			}
		}
	}
	return bestFeature, bestThreshold, bestGain
}
