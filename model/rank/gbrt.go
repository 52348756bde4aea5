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
	"context"
	"time"

	"github.com/chewxy/math32"
	"github.com/venues-ranker/venues-ranker/base/log"
	"github.com/venues-ranker/venues-ranker/common/parallel"
	"github.com/venues-ranker/venues-ranker/dataset"
	"github.com/venues-ranker/venues-ranker/model"
	"go.uber.org/zap"
)

// TopK is the rank cutoff of the optimized metric.
const TopK = 10

const treeRegularization = 1.0

// GBRT is a gradient-boosted regression tree ranker trained with
// LambdaRank-style listwise gradients that optimize MAP@10.
type GBRT struct {
	model.BaseModel
	Trees        []*Tree
	LearningRate float32
	FeatureNames []string
	FeatureGain  []float32
	// hyper-parameters
	nTrees              int
	maxDepth            int
	minSamplesLeaf      int
	earlyStoppingRounds int
}

// NewGBRT creates a GBRT ranker.
func NewGBRT(params model.Params) *GBRT {
	gbrt := new(GBRT)
	gbrt.SetParams(params)
	return gbrt
}

// SetParams sets hyper-parameters for the GBRT ranker.
func (gbrt *GBRT) SetParams(params model.Params) {
	gbrt.BaseModel.SetParams(params)
	gbrt.nTrees = params.GetInt(model.NTrees, 4000)
	gbrt.LearningRate = params.GetFloat32(model.Lr, 0.1)
	gbrt.maxDepth = params.GetInt(model.MaxDepth, 6)
	gbrt.minSamplesLeaf = params.GetInt(model.MinSamplesLeaf, 1)
	gbrt.earlyStoppingRounds = params.GetInt(model.EarlyStoppingRounds, 100)
}

// Clear removes the fitted trees.
func (gbrt *GBRT) Clear() {
	gbrt.Trees = nil
	gbrt.FeatureNames = nil
	gbrt.FeatureGain = nil
}

// Invalid reports whether the model has never been fitted.
func (gbrt *GBRT) Invalid() bool {
	return gbrt == nil || gbrt.Trees == nil
}

func (gbrt *GBRT) predictRow(row []float32) float32 {
	var sum float32
	for _, tree := range gbrt.Trees {
		sum += gbrt.LearningRate * tree.Predict(row)
	}
	return sum
}

// Predict returns one relevance score per feature row, in row order.
func (gbrt *GBRT) Predict(rows [][]float32) []float32 {
	predictions := make([]float32, len(rows))
	for i, row := range rows {
		predictions[i] = gbrt.predictRow(row)
	}
	return predictions
}

// FeatureImportance returns per-feature split gains normalized to sum to 100,
// keyed by feature name.
func (gbrt *GBRT) FeatureImportance() map[string]float32 {
	var total float32
	for _, gain := range gbrt.FeatureGain {
		total += gain
	}
	importance := make(map[string]float32, len(gbrt.FeatureNames))
	for i, name := range gbrt.FeatureNames {
		if total > 0 {
			importance[name] = gbrt.FeatureGain[i] / total * 100
		} else {
			importance[name] = 0
		}
	}
	return importance
}

// Fit the ranker on trainSet with early stopping against evalSet. The fitted
// model keeps the trees of the best evaluation iteration.
func (gbrt *GBRT) Fit(ctx context.Context, trainSet, evalSet *dataset.Pool, config *FitConfig) Score {
	config = config.LoadDefaultIfNil()
	log.Logger().Info("fit gbrt",
		zap.Int("train_set_size", trainSet.Count()),
		zap.Int("eval_set_size", evalSet.Count()),
		zap.Any("params", gbrt.GetParams()),
		zap.Any("config", config))
	numFeatures := len(trainSet.FeatureNames)
	gbrt.Trees = make([]*Tree, 0, gbrt.nTrees)
	gbrt.FeatureNames = trainSet.FeatureNames
	trainGroups := trainSet.GroupRanges()
	evalGroups := evalSet.GroupRanges()
	trainScores := make([]float32, trainSet.Count())
	evalScores := make([]float32, evalSet.Count())
	targets := make([]float32, trainSet.Count())
	weights := make([]float32, trainSet.Count())
	indices := make([]int, trainSet.Count())
	for i := range indices {
		indices[i] = i
	}
	builder := newTreeBuilder(trainSet.Features, targets, weights,
		gbrt.maxDepth, gbrt.minSamplesLeaf, treeRegularization, numFeatures)
	treeGains := make([][]float32, 0, gbrt.nTrees)
	var (
		bestEval  float32
		bestLearn float32
		bestIter  = -1
	)
	for iter := 0; iter < gbrt.nTrees; iter++ {
		fitStart := time.Now()
		// listwise gradients
		for i := range targets {
			targets[i] = 0
			weights[i] = 0
		}
		if err := parallel.Parallel(ctx, len(trainGroups), config.Jobs, func(_, groupId int) error {
			lambdaGradients(trainScores, trainSet.Labels, trainGroups[groupId], targets, weights)
			return nil
		}); err != nil {
			log.Logger().Error("failed to compute gradients", zap.Error(err))
			break
		}
		// fit one tree
		for i := range builder.gain {
			builder.gain[i] = 0
		}
		tree := builder.build(indices)
		gbrt.Trees = append(gbrt.Trees, tree)
		treeGains = append(treeGains, append([]float32{}, builder.gain...))
		for i, row := range trainSet.Features {
			trainScores[i] += gbrt.LearningRate * tree.Predict(row)
		}
		for i, row := range evalSet.Features {
			evalScores[i] += gbrt.LearningRate * tree.Predict(row)
		}
		fitTime := time.Since(fitStart)
		// evaluate
		learnMAP := MeanAveragePrecision(trainScores, trainSet.Labels, trainGroups, TopK)
		evalMAP := MeanAveragePrecision(evalScores, evalSet.Labels, evalGroups, TopK)
		if bestIter < 0 || evalMAP > bestEval {
			bestEval = evalMAP
			bestLearn = learnMAP
			bestIter = iter
		} else if iter-bestIter >= gbrt.earlyStoppingRounds {
			log.Logger().Info("early stopping",
				zap.Int("iteration", iter),
				zap.Int("best_iteration", bestIter))
			break
		}
		if (iter+1)%config.Verbose == 0 {
			log.Logger().Info("fit gbrt",
				zap.Int("iteration", iter+1),
				zap.String("fit_time", fitTime.String()),
				zap.Float32("MAP@10", evalMAP),
				zap.Float32("learn_MAP@10", learnMAP))
		}
	}
	// keep the best model
	gbrt.Trees = gbrt.Trees[:bestIter+1]
	gbrt.FeatureGain = make([]float32, numFeatures)
	for _, gains := range treeGains[:bestIter+1] {
		for i, gain := range gains {
			gbrt.FeatureGain[i] += gain
		}
	}
	score := Score{LearnMAP: bestLearn, ValidationMAP: bestEval}
	log.Logger().Info("fit gbrt complete",
		append([]zap.Field{zap.Int("trees", len(gbrt.Trees))}, score.ZapFields()...)...)
	return score
}

// lambdaGradients accumulates LambdaRank gradients and second derivatives of
// one group into targets and weights. Rows of other groups are not touched,
// so groups may be processed in parallel.
func lambdaGradients(scores, labels []float32, group [2]int, targets, weights []float32) {
	begin, end := group[0], group[1]
	ranked := rankIndices(scores, begin, end)
	baseline, ok := averagePrecision(labels, ranked, TopK)
	if !ok {
		return
	}
	position := make(map[int]int, len(ranked))
	for rank, index := range ranked {
		position[index] = rank
	}
	for i := begin; i < end; i++ {
		if labels[i] <= 0 {
			continue
		}
		for j := begin; j < end; j++ {
			if labels[j] > 0 {
				continue
			}
			delta := deltaAveragePrecision(labels, ranked, baseline, position[i], position[j])
			rho := 1 / (1 + math32.Exp(scores[i]-scores[j]))
			targets[i] += rho * delta
			targets[j] -= rho * delta
			hessian := rho * (1 - rho) * delta
			weights[i] += hessian
			weights[j] += hessian
		}
	}
}

// deltaAveragePrecision is the absolute change of AP@k when the items at the
// two rank positions swap places.
func deltaAveragePrecision(labels []float32, ranked []int, baseline float32, rankI, rankJ int) float32 {
	ranked[rankI], ranked[rankJ] = ranked[rankJ], ranked[rankI]
	swapped, _ := averagePrecision(labels, ranked, TopK)
	ranked[rankI], ranked[rankJ] = ranked[rankJ], ranked[rankI]
	return math32.Abs(swapped - baseline)
}
