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

package indicator

import (
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/samber/lo"

	"github.com/gorse-io/indicate/base"
)

// Recommend returns for each user up to n items that the user has not interacted
// with, ranked by how many of the user's history items indicate them. Candidates
// are visited in ascending index order so that ties resolve deterministically.
func Recommend(histories [][]int32, indicators [][]int32, n int) [][]int32 {
	recommendations := make([][]int32, len(histories))
	for userIndex, history := range histories {
		seen := mapset.NewThreadUnsafeSet(history...)
		counts := make(map[int32]int64)
		for _, itemIndex := range history {
			for _, other := range indicators[itemIndex] {
				if !seen.Contains(other) {
					counts[other]++
				}
			}
		}
		filter := base.NewTopKFilter(n)
		candidates := lo.Keys(counts)
		slices.Sort(candidates)
		for _, candidate := range candidates {
			filter.Push(candidate, float64(counts[candidate]))
		}
		items, _ := filter.PopAll()
		recommendations[userIndex] = items
	}
	return recommendations
}
