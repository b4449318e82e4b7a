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
	"image"
	"image/draw"
	"sync"
)

// ComposeMosaic creates the mosaic image given the selected samples for each
// tile of the division. The division must be the division of area, the result
// has the size of area but starts at (0, 0).
//
// Each tile is replaced by an exact copy of its sample, NumRoutines tiles are
// copied concurrently (each into its own area of the result).
func ComposeMosaic(samples *SampleSet, selected [][]ImageID, dist TileDivision,
	area image.Rectangle, numRoutines int) (*image.RGBA, error) {
	if numRoutines <= 0 {
		numRoutines = 1
	}
	if len(selected) != len(dist) {
		return nil, fmt.Errorf("Invalid selection: Expected %d rows, got %d", len(dist), len(selected))
	}
	for i, row := range dist {
		if len(selected[i]) != len(row) {
			return nil, fmt.Errorf("Invalid selection: Expected %d tiles in row %d, got %d",
				len(row), i, len(selected[i]))
		}
		for j, id := range selected[i] {
			if id < 0 || int(id) >= samples.Len() {
				return nil, fmt.Errorf("Invalid selection for tile (%d, %d): %v", j, i, id)
			}
		}
	}

	res := image.NewRGBA(image.Rect(0, 0, area.Dx(), area.Dy()))
	offset := area.Min

	type job struct {
		i, j int
	}
	var wg sync.WaitGroup
	wg.Add(dist.NumTiles())
	jobs := make(chan job, BufferSize)

	for w := 0; w < numRoutines; w++ {
		go func() {
			for next := range jobs {
				target := dist[next.i][next.j].Sub(offset)
				sample := samples.Get(selected[next.i][next.j]).Image
				draw.Draw(res, target, sample, sample.Bounds().Min, draw.Src)
				wg.Done()
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

	wg.Wait()
	return res, nil
}
