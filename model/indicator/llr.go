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
	"math"
)

// Scorer computes Dunning's log-likelihood ratio (G²) for 2x2 contingency tables.
// Logarithms of small integers are looked up in a precomputed table since sparse
// co-occurrence counts repeat the same small values over and over. Counts beyond
// the table fall back to math.Log, so results only differ by float rounding.
type Scorer struct {
	logarithms []float64
}

// NewScorer creates a Scorer with a logarithm table covering [0, maxArg).
func NewScorer(maxArg int) *Scorer {
	logarithms := make([]float64, maxArg)
	for i := 1; i < maxArg; i++ {
		logarithms[i] = math.Log(float64(i))
	}
	return &Scorer{logarithms: logarithms}
}

func (s *Scorer) xLogX(x int64) float64 {
	if x == 0 {
		return 0
	}
	if int(x) < len(s.logarithms) {
		return float64(x) * s.logarithms[x]
	}
	return float64(x) * math.Log(float64(x))
}

// LogLikelihoodRatio computes the G² statistic of the table
//
//	k11 k12
//	k21 k22
//
// where k11 counts rows with both items, k12 and k21 rows with exactly one, and
// k22 rows with neither. The statistic is symmetric in its arguments, so
// LogLikelihoodRatio(i, j) == LogLikelihoodRatio(j, i) for swapped marginals.
//
// See the original implementation in Apache Mahout:
// https://github.com/apache/mahout/blob/08e02602e947ff945b9bd73ab5f0b45863df3e53/math/src/main/java/org/apache/mahout/math/stats/LogLikelihood.java
func (s *Scorer) LogLikelihoodRatio(k11, k12, k21, k22 int64) float64 {
	xlxAll := s.xLogX(k11 + k12 + k21 + k22)
	rowEntropy := xlxAll - s.xLogX(k11+k12) - s.xLogX(k21+k22)
	columnEntropy := xlxAll - s.xLogX(k11+k21) - s.xLogX(k12+k22)
	matrixEntropy := xlxAll - s.xLogX(k11) - s.xLogX(k12) - s.xLogX(k21) - s.xLogX(k22)
	if rowEntropy+columnEntropy < matrixEntropy {
		// round-off error
		return 0
	}
	return 2 * (rowEntropy + columnEntropy - matrixEntropy)
}
