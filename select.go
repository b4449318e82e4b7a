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
	"image"
)

// ImageSelector is used to select a sample for all tiles.
//
// The sample set must not be changed while images are selected.
type ImageSelector interface {
	// SelectImages returns the most fitting sample for each tile of the
	// query. The returned matrix has the same size as the dist matrix.
	SelectImages(samples *SampleSet, query image.Image, dist TileDivision) ([][]ImageID, error)
}

// HistogramSelector implements ImageSelector. For each tile it computes the
// normalized histogram of the tile and selects the sample whose histogram
// has the best metric value, see SampleSet.BestMatch.
//
// Each tile is handled independently, a sample can be selected for any
// number of tiles. NumRoutines tiles are processed concurrently, the result
// does not depend on NumRoutines.
type HistogramSelector struct {
	Metric      Metric
	NumRoutines int
	// Progress is called with the number of processed tiles, it may be nil.
	Progress ProgressFunc
}

// NewHistogramSelector returns a new selector given the metric to use and the
// number of go routines to run when selecting images.
func NewHistogramSelector(metric Metric, numRoutines int) *HistogramSelector {
	if numRoutines <= 0 {
		numRoutines = 1
	}
	return &HistogramSelector{Metric: metric, NumRoutines: numRoutines}
}

// SelectImages implements ImageSelector.
func (sel *HistogramSelector) SelectImages(samples *SampleSet, query image.Image, dist TileDivision) ([][]ImageID, error) {
	numRoutines := sel.NumRoutines
	if numRoutines <= 0 {
		numRoutines = 1
	}
	k := samples.Divisions()
	progress := sel.Progress
	if progress == nil {
		progress = ProgressIgnore
	}

	result := make([][]ImageID, len(dist))
	for i, row := range dist {
		result[i] = make([]ImageID, len(row))
		for j := range row {
			result[i][j] = NoImageID
		}
	}
	numTiles := dist.NumTiles()

	type job struct {
		i, j int
	}
	jobs := make(chan job, BufferSize)
	errorChan := make(chan error, BufferSize)

	for w := 0; w < numRoutines; w++ {
		go func() {
			for next := range jobs {
				tile := SubImage(query, dist[next.i][next.j])
				hist := GenNormalizedHistogram(tile, k)
				best, _, err := samples.BestMatch(hist, sel.Metric)
				// each job writes only its own cell
				result[next.i][next.j] = best
				errorChan <- err
			}
		}()
	}

	go func() {
		for i, row := range dist {
			for j := range row {
				jobs <- job{i, j}
			}
		}
		close(jobs)
	}()

	var err error
	for n := 0; n < numTiles; n++ {
		if nextErr := <-errorChan; nextErr != nil && err == nil {
			err = nextErr
		}
		progress(n + 1)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
