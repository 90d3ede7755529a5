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
	"fmt"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gorse-io/indicate/dataset"
)

func defaultConfig() Config {
	return Config{
		NumIndicators:          10,
		MaxInteractionsPerUser: 500,
		MaxInteractionsPerItem: 500,
		Jobs:                   1,
		Seed:                   1,
	}
}

func trainOn(t *testing.T, interactions [][2]string, config Config) (*dataset.Dataset, *Result) {
	t.Helper()
	source := dataset.FromSlice(interactions)
	data, err := dataset.LoadDataset(source)
	require.NoError(t, err)
	result, err := Train(data, source, config)
	require.NoError(t, err)
	require.Len(t, result.Indicators, data.CountItems())
	return data, result
}

// indicatorSets maps item names to the set of their indicated item names.
func indicatorSets(data *dataset.Dataset, result *Result) map[string]mapset.Set[string] {
	sets := make(map[string]mapset.Set[string])
	for itemIndex, indicated := range result.Indicators {
		names := lo.Map(indicated, func(other int32, _ int) string {
			return data.ItemIndex.ToName(other)
		})
		sets[data.ItemIndex.ToName(int32(itemIndex))] = mapset.NewSet(names...)
	}
	return sets
}

func TestTrain_Toy(t *testing.T) {
	config := defaultConfig()
	config.NumIndicators = 2
	data, result := trainOn(t, [][2]string{
		{"u1", "a"}, {"u1", "b"},
		{"u2", "a"}, {"u2", "b"},
		{"u3", "a"}, {"u3", "c"},
		{"u4", "d"}, {"u4", "e"},
	}, config)
	sets := indicatorSets(data, result)
	assert.True(t, sets["a"].Equal(mapset.NewSet("b", "c")))
	assert.True(t, sets["b"].Equal(mapset.NewSet("a")))
	assert.True(t, sets["c"].Equal(mapset.NewSet("a")))
	assert.True(t, sets["d"].Equal(mapset.NewSet("e")))
	assert.True(t, sets["e"].Equal(mapset.NewSet("d")))
	assert.Equal(t, int64(4), result.NumRows)
}

func TestTrain_NoIndicatorForSelf(t *testing.T) {
	data, result := trainOn(t, [][2]string{
		{"u1", "a"}, {"u1", "a"}, {"u1", "b"},
		{"u2", "a"}, {"u2", "b"},
		{"u3", "c"},
	}, defaultConfig())
	sets := indicatorSets(data, result)
	for name, indicated := range sets {
		assert.False(t, indicated.Contains(name))
	}
}

func TestTrain_Independence(t *testing.T) {
	// two items in disjoint user populations never indicate each other
	var interactions [][2]string
	for i := 0; i < 100; i++ {
		interactions = append(interactions, [2]string{fmt.Sprintf("x_user_%d", i), "x"})
	}
	for i := 0; i < 100; i++ {
		interactions = append(interactions, [2]string{fmt.Sprintf("y_user_%d", i), "y"})
	}
	data, result := trainOn(t, interactions, defaultConfig())
	sets := indicatorSets(data, result)
	assert.True(t, sets["x"].IsEmpty())
	assert.True(t, sets["y"].IsEmpty())
}

func TestTrain_PerfectCorrelation(t *testing.T) {
	// p and q always co-occur, the background rows make the association visible
	var interactions [][2]string
	for i := 0; i < 50; i++ {
		user := fmt.Sprintf("user_%d", i)
		interactions = append(interactions, [2]string{user, "p"}, [2]string{user, "q"})
	}
	for i := 0; i < 10; i++ {
		interactions = append(interactions, [2]string{fmt.Sprintf("other_%d", i), "r"})
	}
	data, result := trainOn(t, interactions, defaultConfig())
	sets := indicatorSets(data, result)
	assert.True(t, sets["p"].Equal(mapset.NewSet("q")))
	assert.True(t, sets["q"].Equal(mapset.NewSet("p")))
	assert.True(t, sets["r"].IsEmpty())
}

func TestTrain_TopKCap(t *testing.T) {
	// h co-occurs with 20 equally frequent partners, only K survive
	var interactions [][2]string
	for i := 0; i < 100; i++ {
		user := fmt.Sprintf("user_%d", i)
		interactions = append(interactions,
			[2]string{user, "h"},
			[2]string{user, fmt.Sprintf("c%d", i%20)})
	}
	for i := 0; i < 30; i++ {
		interactions = append(interactions, [2]string{fmt.Sprintf("other_%d", i), "d"})
	}
	data, result := trainOn(t, interactions, defaultConfig())
	sets := indicatorSets(data, result)
	candidates := mapset.NewSet[string]()
	for i := 0; i < 20; i++ {
		candidates.Add(fmt.Sprintf("c%d", i))
	}
	assert.Equal(t, 10, sets["h"].Cardinality())
	assert.True(t, sets["h"].IsSubset(candidates))
	assert.False(t, sets["h"].Contains("d"))
	for i := 0; i < 20; i++ {
		assert.True(t, sets[fmt.Sprintf("c%d", i)].Equal(mapset.NewSet("h")))
	}
}

func TestTrain_DownSampling(t *testing.T) {
	// a heavy-hitter item is retained k_max times in expectation
	var interactions [][2]string
	for i := 0; i < 2000; i++ {
		user := fmt.Sprintf("user_%d", i)
		interactions = append(interactions,
			[2]string{user, "pop"},
			[2]string{user, fmt.Sprintf("rare_%d", i)})
	}
	config := defaultConfig()
	config.MaxInteractionsPerItem = 100
	config.Seed = 42
	data, result := trainOn(t, interactions, config)
	retained := result.RetainedOccurrences[data.ItemIndex.ToNumber("pop")]
	// binomial(2000, 0.05), four standard deviations around the mean
	assert.InDelta(t, 100, float64(retained), 40)
	// rare items are never down-sampled
	assert.Equal(t, int64(1), result.RetainedOccurrences[data.ItemIndex.ToNumber("rare_0")])
}

func TestTrain_Deterministic(t *testing.T) {
	var interactions [][2]string
	for i := 0; i < 500; i++ {
		user := fmt.Sprintf("user_%d", i)
		interactions = append(interactions,
			[2]string{user, "pop"},
			[2]string{user, fmt.Sprintf("item_%d", i%37)},
			[2]string{user, fmt.Sprintf("item_%d", (i+13)%37)})
	}
	config := defaultConfig()
	config.MaxInteractionsPerItem = 50
	config.Seed = 7
	_, first := trainOn(t, interactions, config)
	_, second := trainOn(t, interactions, config)
	assert.Equal(t, first.Indicators, second.Indicators)
	assert.Equal(t, first.RetainedOccurrences, second.RetainedOccurrences)
	// the worker count must not change results
	config.Jobs = 4
	_, parallelized := trainOn(t, interactions, config)
	assert.Equal(t, first.Indicators, parallelized.Indicators)
}

func TestTrain_EmptyInput(t *testing.T) {
	_, result := trainOn(t, nil, defaultConfig())
	assert.Empty(t, result.Indicators)
	assert.Zero(t, result.NumRows)
	assert.Zero(t, result.NumCooccurrences)
}

func TestTrain_SingleInteraction(t *testing.T) {
	data, result := trainOn(t, [][2]string{{"u1", "a"}}, defaultConfig())
	require.Len(t, result.Indicators, 1)
	assert.Empty(t, result.Indicators[data.ItemIndex.ToNumber("a")])
	assert.Equal(t, int64(1), result.NumRows)
}

func TestTrain_UserCap(t *testing.T) {
	// a user with more items than f_max keeps a row of exactly f_max items
	config := defaultConfig()
	config.MaxInteractionsPerUser = 2
	_, result := trainOn(t, [][2]string{
		{"u1", "a"}, {"u1", "b"}, {"u1", "c"}, {"u1", "d"}, {"u1", "e"},
	}, config)
	var retained int64
	for _, count := range result.RetainedOccurrences {
		retained += count
	}
	assert.Equal(t, int64(2), retained)
	assert.Equal(t, int64(1), result.NumRows)
}

func TestTrain_UserTransitionFlushesRow(t *testing.T) {
	// a re-appearing user opens a fresh row instead of extending the old one
	_, result := trainOn(t, [][2]string{
		{"u1", "a"}, {"u2", "b"}, {"u1", "c"},
	}, defaultConfig())
	assert.Equal(t, int64(3), result.NumRows)
	assert.Zero(t, result.NumCooccurrences)
}

func TestTrain_UnknownIdentifier(t *testing.T) {
	data, err := dataset.LoadDataset(dataset.FromSlice([][2]string{{"u1", "a"}}))
	require.NoError(t, err)
	_, err = Train(data, dataset.FromSlice([][2]string{{"u1", "stranger"}}), defaultConfig())
	assert.Error(t, err)
}
