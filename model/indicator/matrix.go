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

	"github.com/samber/lo"
)

// CooccurrenceMatrix is a symmetric sparse count matrix over item indices. Off-diagonal
// entries count the user rows containing both items; the diagonal counts the user rows
// containing an item (its retained occurrences). Both triangles are stored so that the
// neighbors of an item can be iterated from its own row.
type CooccurrenceMatrix struct {
	rows             []map[int32]int64
	diagonal         []int64
	numRows          int64
	numCooccurrences int64
}

// NewCooccurrenceMatrix creates an empty matrix over numItems items.
func NewCooccurrenceMatrix(numItems int) *CooccurrenceMatrix {
	matrix := new(CooccurrenceMatrix)
	matrix.rows = make([]map[int32]int64, numItems)
	for i := range matrix.rows {
		matrix.rows[i] = make(map[int32]int64)
	}
	matrix.diagonal = make([]int64, numItems)
	return matrix
}

// AddRow outer-products a user row with itself: every unordered pair of distinct items
// in the row co-occurs once, and every item in the row gains one retained occurrence.
// Empty rows are dropped and do not count towards NumRows.
func (matrix *CooccurrenceMatrix) AddRow(row []int32) {
	if len(row) == 0 {
		return
	}
	for position, item := range row {
		matrix.diagonal[item]++
		for _, other := range row[position+1:] {
			matrix.rows[item][other]++
			matrix.rows[other][item]++
			matrix.numCooccurrences += 2
		}
	}
	matrix.numRows++
}

// Count returns the number of user rows containing both items.
func (matrix *CooccurrenceMatrix) Count(item, other int32) int64 {
	if item == other {
		return matrix.diagonal[item]
	}
	return matrix.rows[item][other]
}

// Occurrences returns the number of user rows containing the item.
func (matrix *CooccurrenceMatrix) Occurrences(item int32) int64 {
	return matrix.diagonal[item]
}

// NumRows returns the number of non-empty user rows added to the matrix.
func (matrix *CooccurrenceMatrix) NumRows() int64 {
	return matrix.numRows
}

// NumCooccurrences returns the number of co-occurrences observed, counting both
// directions of each pair.
func (matrix *CooccurrenceMatrix) NumCooccurrences() int64 {
	return matrix.numCooccurrences
}

// ForEachNeighbor iterates the co-occurring partners of an item in ascending index
// order. The fixed order keeps top-k selection deterministic when scores tie.
func (matrix *CooccurrenceMatrix) ForEachNeighbor(item int32, f func(other int32, count int64)) {
	neighbors := lo.Keys(matrix.rows[item])
	slices.Sort(neighbors)
	for _, other := range neighbors {
		f(other, matrix.rows[item][other])
	}
}
