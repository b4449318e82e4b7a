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

// Package cvcompare compares the histogram metrics of histmosaic with
// compareHist of OpenCV. The tests require OpenCV to be installed.
//
// Run with: cd cvcompare && go test -v
package cvcompare

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/FabianWe/histmosaic"
	"gocv.io/x/gocv"
)

// histToMat converts the entries of a histogram to a 1 x n float32 matrix.
func histToMat(h *histmosaic.Histogram) gocv.Mat {
	mat := gocv.NewMatWithSize(1, len(h.Entries), gocv.MatTypeCV32F)
	for i, entry := range h.Entries {
		mat.SetFloatAt(0, i, float32(entry))
	}
	return mat
}

func patternImage(width, height, seed int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x*seed + y) % 256),
				G: uint8((y * (seed + 7)) % 256),
				B: uint8(((x + y) * 13) % 256),
				A: 255,
			})
		}
	}
	return img
}

func TestCompareHist(t *testing.T) {
	methods := []struct {
		name   string
		method gocv.HistCompMethod
	}{
		{histmosaic.MetricCorrelation, gocv.HistCmpCorrel},
		{histmosaic.MetricChiSquared, gocv.HistCmpChiSqr},
		{histmosaic.MetricIntersection, gocv.HistCmpIntersect},
		{histmosaic.MetricHellinger, gocv.HistCmpBhattacharya},
	}
	pairs := [][2]image.Image{
		{patternImage(32, 32, 3), patternImage(32, 32, 3)},
		{patternImage(32, 32, 3), patternImage(40, 24, 11)},
		{patternImage(16, 48, 5), patternImage(64, 64, 17)},
	}
	for _, k := range []uint{4, 8} {
		for i, pair := range pairs {
			p := histmosaic.GenNormalizedHistogram(pair[0], k)
			q := histmosaic.GenNormalizedHistogram(pair[1], k)
			matP, matQ := histToMat(p), histToMat(q)
			for _, m := range methods {
				metric, _ := histmosaic.GetMetric(m.name)
				got := metric.Compare(p, q)
				want := float64(gocv.CompareHist(matP, matQ, m.method))
				if math.Abs(got-want) > 1e-4*math.Max(1, math.Abs(want)) {
					t.Errorf("k = %d, pair %d, %s: got %f, OpenCV %f", k, i, m.name, got, want)
				}
			}
			matP.Close()
			matQ.Close()
		}
	}
}
