// Copyright 2018 Fabian Wenzelmann
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

package histmosaic

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Direction describes which metric values are considered better: Smaller
// values for distances, larger values for similarities.
type Direction int

const (
	// Minimize is the direction of distance functions: The smaller the value
	// the more equal two histograms are.
	Minimize Direction = iota
	// Maximize is the direction of similarity functions: The larger the value
	// the more equal two histograms are.
	Maximize
)

func (d Direction) String() string {
	switch d {
	case Minimize:
		return "min"
	case Maximize:
		return "max"
	default:
		return fmt.Sprintf("Direction(%d)", d)
	}
}

// Better returns true if candidate is strictly better than best.
// Equal values are never better, that is the first best value found is kept.
func (d Direction) Better(candidate, best float64) bool {
	if d == Maximize {
		return candidate > best
	}
	return candidate < best
}

// Worst returns the initial value for a search of the best value: every
// finite metric value is better.
func (d Direction) Worst() float64 {
	if d == Maximize {
		return math.Inf(-1)
	}
	return math.Inf(1)
}

// HistogramMetric is a function that compares two histograms.
// A HistogramMetric can assume that both histograms are defined for the same k.
// Whether small or large values describe similar histograms is defined by the
// Direction of the Metric wrapping the function.
type HistogramMetric func(hA, hB *Histogram) float64

// VectorMetric is a function that takes two vectors of the same length and
// returns a metric value of the two.
//
// Vector metrics therefor can be used for comparing histograms.
type VectorMetric func(p, q []float64) float64

// HistogramVectorMetric converts a vector metric to a histogram metric.
func HistogramVectorMetric(vm VectorMetric) HistogramMetric {
	return func(hA, hB *Histogram) float64 {
		return vm(hA.Entries, hB.Entries)
	}
}

// Metric is a named histogram metric together with its direction.
// The direction is part of the metric and must not be guessed by callers.
type Metric struct {
	Name      string
	Compare   HistogramMetric
	Direction Direction
}

// NewMetric returns a new metric.
func NewMetric(name string, compare HistogramMetric, direction Direction) Metric {
	return Metric{Name: strings.ToLower(name), Compare: compare, Direction: direction}
}

// Better returns true if the metric value candidate is strictly better than
// best.
func (m Metric) Better(candidate, best float64) bool {
	return m.Direction.Better(candidate, best)
}

func (m Metric) String() string {
	return fmt.Sprintf("%s (best = %s)", m.Name, m.Direction)
}

// The following metrics are the four comparison methods of OpenCV's
// compareHist. In all functions p is the histogram of the query tile and q the
// histogram of a sample.

// Correlation returns the correlation coefficient of p and q. It is 1 for
// equal vectors. If one of the vectors is constant the result is 1.
func Correlation(p, q []float64) float64 {
	n := float64(len(p))
	if n == 0 {
		return 1.0
	}
	var s1, s2, s11, s12, s22 float64
	for i, a := range p {
		b := q[i]
		s1 += a
		s2 += b
		s11 += a * a
		s12 += a * b
		s22 += b * b
	}
	num := s12 - s1*s2/n
	denom2 := (s11 - s1*s1/n) * (s22 - s2*s2/n)
	if math.Abs(denom2) <= epsilon {
		return 1.0
	}
	return num / math.Sqrt(denom2)
}

// ChiSquared returns Σ (p_i - q_i)² / p_i, entries with p_i = 0 are
// skipped. It is 0 for equal vectors.
func ChiSquared(p, q []float64) float64 {
	var res float64
	for i, a := range p {
		if math.Abs(a) <= epsilon {
			continue
		}
		diff := a - q[i]
		res += (diff * diff) / a
	}
	return res
}

// Intersection returns min(p1, q1) + ... + min(pn, qn). For normalized
// histograms it is 1 for equal vectors.
func Intersection(p, q []float64) float64 {
	var sum float64
	for i, a := range p {
		sum += math.Min(a, q[i])
	}
	return sum
}

// Hellinger returns the Hellinger distance (called Bhattacharyya distance in
// OpenCV): sqrt(1 - Σ sqrt(p_i * q_i) / sqrt(Σp * Σq)). It is 0 for equal
// vectors and 1 for vectors with disjoint support.
func Hellinger(p, q []float64) float64 {
	var s1, s2, bc float64
	for i, a := range p {
		b := q[i]
		s1 += a
		s2 += b
		bc += math.Sqrt(a * b)
	}
	scale := 1.0
	if prod := s1 * s2; math.Abs(prod) > epsilon {
		scale = 1.0 / math.Sqrt(prod)
	}
	return math.Sqrt(math.Max(1.0-bc*scale, 0.0))
}

// Manhattan returns the manhattan distance of two vectors, that is
// |p1 - q1| + ... + |pn - qn|.
func Manhattan(p, q []float64) float64 {
	var result float64
	for i, e1 := range p {
		result += math.Abs(e1 - q[i])
	}
	return result
}

// EuclideanDistance returns the euclidean distance of two
// vectors, that is sqrt( (p1 - q1)² + ... + (pn - qn)² ).
func EuclideanDistance(p, q []float64) float64 {
	var sum float64
	for i, e1 := range p {
		diff := e1 - q[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// CosineSimilarity returns 1 - cos(∡(p, q)). The result is between 0 and 2,
// as special case is that the length of p or q is 0, in this case the result
// is 2.1
func CosineSimilarity(p, q []float64) float64 {
	var dotProduct, lengthP, lengthQ float64
	for i, e1 := range p {
		e2 := q[i]
		dotProduct += e1 * e2
		lengthP += e1 * e1
		lengthQ += e2 * e2
	}
	if lengthP == 0.0 || lengthQ == 0.0 {
		// an "empty" vector gets a distance larger than all others
		return 2.1
	}
	return 1.0 - (dotProduct / (math.Sqrt(lengthP) * math.Sqrt(lengthQ)))
}

// ChessboardDistance is the max over all absolute distances,
// see https://reference.wolfram.com/language/ref/ChessboardDistance.html
func ChessboardDistance(p, q []float64) float64 {
	res := 0.0
	for i, e1 := range p {
		res = math.Max(res, math.Abs(e1-q[i]))
	}
	return res
}

// CanberraDistance is a weighted version of the manhattan
// distance, see https://en.wikipedia.org/wiki/Canberra_distance
// Entries that are 0 in both vectors don't contribute.
func CanberraDistance(p, q []float64) float64 {
	res := 0.0
	for i, e1 := range p {
		e2 := q[i]
		denominator := math.Abs(e1) + math.Abs(e2)
		if denominator == 0.0 {
			continue
		}
		res += math.Abs(e1-e2) / denominator
	}
	return res
}

const (
	epsilon = 1e-12

	// MetricCorrelation is the name of the correlation metric.
	MetricCorrelation = "correlation"
	// MetricChiSquared is the name of the chi-squared metric.
	MetricChiSquared = "chi-squared"
	// MetricIntersection is the name of the intersection metric.
	MetricIntersection = "intersection"
	// MetricHellinger is the name of the hellinger metric.
	MetricHellinger = "hellinger"

	// DefaultMetric is the metric used if nothing else is configured.
	DefaultMetric = MetricCorrelation
)

var (
	metrics map[string]Metric
)

// RegisterMetric is used to register a named metric. It will only add the
// metric if the name does not exist yet. The result is true if the metric was
// successfully registered and false otherwise.
// All names are lowercase strings, the register and get methods will always
// transform a string to lowercase.
//
// All metrics should be registered by an init method.
func RegisterMetric(metric Metric) bool {
	name := strings.ToLower(metric.Name)
	if _, has := metrics[name]; has {
		return false
	}
	metric.Name = name
	metrics[name] = metric
	return true
}

// GetMetricNames returns the sorted list of all registered metric names.
func GetMetricNames() []string {
	res := make([]string, 0, len(metrics))
	for key := range metrics {
		res = append(res, key)
	}
	sort.Strings(res)
	return res
}

// GetMetric returns a registered metric.
// Returns the metric and true on success and an empty metric and false
// otherwise.
func GetMetric(name string) (Metric, bool) {
	metric, has := metrics[strings.ToLower(strings.TrimSpace(name))]
	return metric, has
}

// LookupMetric works as GetMetric but returns a ConfigError if the metric
// does not exist.
func LookupMetric(name string) (Metric, error) {
	if metric, has := GetMetric(name); has {
		return metric, nil
	}
	return Metric{}, &ConfigError{Field: "opt", Value: name,
		Reason: "unknown metric, must be one of " + strings.Join(GetMetricNames(), ", ")}
}

func init() {
	metrics = make(map[string]Metric)
	RegisterMetric(NewMetric(MetricCorrelation, HistogramVectorMetric(Correlation), Maximize))
	RegisterMetric(NewMetric(MetricChiSquared, HistogramVectorMetric(ChiSquared), Minimize))
	RegisterMetric(NewMetric(MetricIntersection, HistogramVectorMetric(Intersection), Maximize))
	RegisterMetric(NewMetric(MetricHellinger, HistogramVectorMetric(Hellinger), Minimize))

	RegisterMetric(NewMetric("manhattan", HistogramVectorMetric(Manhattan), Minimize))
	RegisterMetric(NewMetric("euclid", HistogramVectorMetric(EuclideanDistance), Minimize))
	RegisterMetric(NewMetric("cosine", HistogramVectorMetric(CosineSimilarity), Minimize))
	RegisterMetric(NewMetric("chessboard", HistogramVectorMetric(ChessboardDistance), Minimize))
	RegisterMetric(NewMetric("canberra", HistogramVectorMetric(CanberraDistance), Minimize))
}
