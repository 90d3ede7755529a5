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

package dataset

import (
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"

	"github.com/gorse-io/indicate/base"
)

// Dataset holds the identifier dictionaries and the statistics collected during the
// first pass over the interaction log. The raw per-item occurrence counts gathered
// here only drive down-sampling; the marginals used for scoring are the retained
// occurrence counts measured during the second pass.
type Dataset struct {
	UserIndex *base.Index
	ItemIndex *base.Index
	// NumFeedback is the total number of interactions including duplicates.
	NumFeedback int64
	// ItemOccurrences counts observations per item, incremented on every interaction.
	ItemOccurrences []int64
	// UserInteractions counts observations per user, incremented on every interaction.
	UserInteractions []int64
}

// NewDataset creates an empty Dataset.
func NewDataset() *Dataset {
	return &Dataset{
		UserIndex: base.NewMapIndex(),
		ItemIndex: base.NewMapIndex(),
	}
}

// AddFeedback indexes a user-item interaction and updates the statistics.
func (dataset *Dataset) AddFeedback(userId, itemId string) {
	dataset.UserIndex.Add(userId)
	userIndex := dataset.UserIndex.ToNumber(userId)
	for int(userIndex) >= len(dataset.UserInteractions) {
		dataset.UserInteractions = append(dataset.UserInteractions, 0)
	}
	dataset.ItemIndex.Add(itemId)
	itemIndex := dataset.ItemIndex.ToNumber(itemId)
	for int(itemIndex) >= len(dataset.ItemOccurrences) {
		dataset.ItemOccurrences = append(dataset.ItemOccurrences, 0)
	}
	dataset.UserInteractions[userIndex]++
	dataset.ItemOccurrences[itemIndex]++
	dataset.NumFeedback++
}

// CountUsers returns the number of distinct users.
func (dataset *Dataset) CountUsers() int {
	return int(dataset.UserIndex.Len())
}

// CountItems returns the number of distinct items.
func (dataset *Dataset) CountItems() int {
	return int(dataset.ItemIndex.Len())
}

// LoadDataset consumes an interaction source and builds dictionaries and statistics.
func LoadDataset(source Source) (*Dataset, error) {
	dataset := NewDataset()
	if err := source(func(userId, itemId string) error {
		dataset.AddFeedback(userId, itemId)
		return nil
	}); err != nil {
		return nil, errors.Trace(err)
	}
	return dataset, nil
}

// LoadHistories replays an interaction source and collects the distinct items of each
// user, addressed by dense user index. Identifiers unknown to the dataset are rejected.
func LoadHistories(source Source, dataset *Dataset) ([][]int32, error) {
	sets := make([]mapset.Set[int32], dataset.CountUsers())
	for i := range sets {
		sets[i] = mapset.NewThreadUnsafeSet[int32]()
	}
	if err := source(func(userId, itemId string) error {
		userIndex := dataset.UserIndex.ToNumber(userId)
		itemIndex := dataset.ItemIndex.ToNumber(itemId)
		if userIndex == base.NotId || itemIndex == base.NotId {
			return errors.Errorf("unknown identifier in replayed input: (%s, %s)", userId, itemId)
		}
		sets[userIndex].Add(itemIndex)
		return nil
	}); err != nil {
		return nil, errors.Trace(err)
	}
	histories := make([][]int32, len(sets))
	for i, set := range sets {
		histories[i] = set.ToSlice()
		slices.Sort(histories[i])
	}
	return histories, nil
}
