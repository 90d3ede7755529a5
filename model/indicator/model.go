// Copyright 2025 gorse Project Authors
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

// Package indicator computes item-to-item indicators from a log of user-item
// interactions. An indicator of an item is another item whose co-occurrence with it
// across users is statistically surprising under a null model of independence,
// judged by Dunning's log-likelihood ratio test.
//
// The computation runs in two passes over the interaction stream. The first pass
// (dataset.LoadDataset) derives dictionaries and occurrence statistics. The second
// pass groups interactions into down-sampled user rows and accumulates their outer
// products into a sparse co-occurrence matrix, from which the top indicators of every
// item are selected.
package indicator

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"modernc.org/mathutil"

	"github.com/gorse-io/indicate/base"
	"github.com/gorse-io/indicate/base/log"
	"github.com/gorse-io/indicate/base/parallel"
	"github.com/gorse-io/indicate/dataset"
)

// Config holds the training parameters.
type Config struct {
	// NumIndicators is the number of indicators selected per item.
	NumIndicators int
	// MaxInteractionsPerUser caps the number of items retained per user row (f_max).
	MaxInteractionsPerUser int
	// MaxInteractionsPerItem caps the expected retained occurrences of frequent
	// items (k_max).
	MaxInteractionsPerItem int
	// Jobs is the number of workers scoring items.
	Jobs int
	// Seed of the sampling RNG.
	Seed int64
}

// Result holds the computed indicators and training statistics.
type Result struct {
	// Indicators maps every item index to its indicated item indices, strongest first.
	// Items without positively associated partners map to an empty slice.
	Indicators [][]int32
	// NumRows is the number of non-empty user rows observed.
	NumRows int64
	// NumCooccurrences is the number of co-occurrences observed.
	NumCooccurrences int64
	// NumScoredItems is the number of items with at least one co-occurring partner.
	NumScoredItems int64
	// RetainedOccurrences maps every item index to the number of user rows that
	// retained it after down-sampling.
	RetainedOccurrences []int64
}

// rowSampler accumulates the distinct items of the current user in a bounded
// reservoir. When the reservoir is full, an admitted item replaces a uniformly
// chosen predecessor with probability capacity/admitted, which keeps the retained
// set a uniform sample without replacement of all admitted items.
type rowSampler struct {
	capacity int
	rng      base.RandomGenerator
	items    []int32
	lookup   mapset.Set[int32]
	admitted int
}

func newRowSampler(capacity int, rng base.RandomGenerator) *rowSampler {
	return &rowSampler{
		capacity: capacity,
		rng:      rng,
		items:    make([]int32, 0, capacity),
		lookup:   mapset.NewThreadUnsafeSet[int32](),
	}
}

// Add admits an item into the reservoir. Items already present are ignored, a user
// row is a set.
func (sampler *rowSampler) Add(item int32) {
	if sampler.lookup.Contains(item) {
		return
	}
	sampler.admitted++
	if len(sampler.items) < sampler.capacity {
		sampler.items = append(sampler.items, item)
		sampler.lookup.Add(item)
	} else if position := sampler.rng.Intn(sampler.admitted); position < sampler.capacity {
		sampler.lookup.Remove(sampler.items[position])
		sampler.items[position] = item
		sampler.lookup.Add(item)
	}
}

// Flush returns the sampled row and resets the sampler for the next user.
func (sampler *rowSampler) Flush() []int32 {
	row := make([]int32, len(sampler.items))
	copy(row, sampler.items)
	sampler.items = sampler.items[:0]
	sampler.lookup.Clear()
	sampler.admitted = 0
	return row
}

// Train replays the interaction source (the second pass) and computes the top
// indicators of every item. The source must be grouped by user: a change of user
// flushes the current row. Runs with the same dataset, source and seed produce
// identical results regardless of Jobs.
func Train(data *dataset.Dataset, source dataset.Source, config Config) (*Result, error) {
	numItems := data.CountItems()
	rng := base.NewRandomGenerator(config.Seed)
	matrix := NewCooccurrenceMatrix(numItems)
	sampler := newRowSampler(config.MaxInteractionsPerUser, rng)
	kMax := int64(config.MaxInteractionsPerItem)
	currentUser := base.NotId
	if err := source(func(userId, itemId string) error {
		userIndex := data.UserIndex.ToNumber(userId)
		itemIndex := data.ItemIndex.ToNumber(itemId)
		if userIndex == base.NotId || itemIndex == base.NotId {
			return errors.Errorf("unknown identifier in replayed input: (%s, %s)", userId, itemId)
		}
		if userIndex != currentUser {
			if currentUser != base.NotId {
				matrix.AddRow(sampler.Flush())
			}
			currentUser = userIndex
		}
		// Frequent items are admitted with probability k_max/occurrences so that
		// their expected retained count stays at k_max. Admission is decided before
		// the per-user reservoir sees the item.
		if occurrences := data.ItemOccurrences[itemIndex]; occurrences > kMax &&
			!rng.Bernoulli(float64(kMax)/float64(occurrences)) {
			return nil
		}
		sampler.Add(itemIndex)
		return nil
	}); err != nil {
		return nil, errors.Trace(err)
	}
	if currentUser != base.NotId {
		matrix.AddRow(sampler.Flush())
	}

	result := &Result{
		Indicators:          make([][]int32, numItems),
		NumRows:             matrix.NumRows(),
		NumCooccurrences:    matrix.NumCooccurrences(),
		RetainedOccurrences: matrix.diagonal,
	}
	scorer := NewScorer(config.MaxInteractionsPerUser*config.MaxInteractionsPerItem + 1)
	scoredItems := atomic.NewInt64(0)
	numRows := matrix.NumRows()
	if err := parallel.Parallel(numItems, mathutil.Max(config.Jobs, 1), func(_, jobId int) error {
		itemIndex := int32(jobId)
		occurrences := matrix.Occurrences(itemIndex)
		filter := base.NewTopKFilter(config.NumIndicators)
		touched := false
		matrix.ForEachNeighbor(itemIndex, func(other int32, k11 int64) {
			touched = true
			otherOccurrences := matrix.Occurrences(other)
			// discard pairs that are not positively associated
			if k11*numRows <= occurrences*otherOccurrences {
				return
			}
			k12 := occurrences - k11
			k21 := otherOccurrences - k11
			k22 := numRows - k11 - k12 - k21
			if k12 < 0 || k21 < 0 || k22 < 0 {
				log.Logger().Fatal("co-occurrence count exceeds marginals",
					zap.Int32("item", itemIndex), zap.Int32("other", other),
					zap.Int64("k11", k11), zap.Int64("k12", k12),
					zap.Int64("k21", k21), zap.Int64("k22", k22))
			}
			if score := scorer.LogLikelihoodRatio(k11, k12, k21, k22); score > 0 {
				filter.Push(other, score)
			}
		})
		if touched {
			scoredItems.Inc()
		}
		items, _ := filter.PopAll()
		result.Indicators[jobId] = items
		return nil
	}); err != nil {
		return nil, errors.Trace(err)
	}
	result.NumScoredItems = scoredItems.Load()
	return result, nil
}
