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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var interactions = [][2]string{
	{"user_a", "item_a"},
	{"user_a", "item_b"},
	{"user_b", "item_b"},
	{"user_c", "item_a"},
	{"user_c", "item_a"},
}

func TestLoadDataset(t *testing.T) {
	data, err := LoadDataset(FromSlice(interactions))
	require.NoError(t, err)
	assert.Equal(t, 3, data.CountUsers())
	assert.Equal(t, 2, data.CountItems())
	assert.Equal(t, int64(5), data.NumFeedback)

	assert.Equal(t, int32(0), data.UserIndex.ToNumber("user_a"))
	assert.Equal(t, int32(2), data.UserIndex.ToNumber("user_c"))
	assert.Equal(t, int32(0), data.ItemIndex.ToNumber("item_a"))
	assert.Equal(t, int32(1), data.ItemIndex.ToNumber("item_b"))

	// duplicates count towards occurrences and per-user interactions
	assert.Equal(t, []int64{3, 2}, data.ItemOccurrences)
	assert.Equal(t, []int64{2, 1, 2}, data.UserInteractions)

	// sum of per-user interactions equals the total interaction count
	var total int64
	for _, count := range data.UserInteractions {
		total += count
	}
	assert.Equal(t, data.NumFeedback, total)
}

func TestLoadHistories(t *testing.T) {
	data, err := LoadDataset(FromSlice(interactions))
	require.NoError(t, err)
	histories, err := LoadHistories(FromSlice(interactions), data)
	require.NoError(t, err)
	require.Len(t, histories, 3)
	assert.Equal(t, []int32{0, 1}, histories[0]) // user_a: item_a, item_b
	assert.Equal(t, []int32{1}, histories[1])    // user_b: item_b
	assert.Equal(t, []int32{0}, histories[2])    // user_c: item_a deduplicated
}

func TestLoadHistories_UnknownId(t *testing.T) {
	data, err := LoadDataset(FromSlice(interactions))
	require.NoError(t, err)
	_, err = LoadHistories(FromSlice([][2]string{{"stranger", "item_a"}}), data)
	assert.Error(t, err)
}
