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
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

var (
	red    = color.RGBA{R: 255, A: 255}
	green  = color.RGBA{G: 255, A: 255}
	blue   = color.RGBA{B: 255, A: 255}
	white  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black  = color.RGBA{A: 255}
	yellow = color.RGBA{R: 255, G: 255, A: 255}
)

// createSolidImage creates an image of the given size filled with c.
func createSolidImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createQuadrantImage creates a size x size image with four colored
// quadrants.
func createQuadrantImage(size int, topLeft, topRight, bottomLeft, bottomRight color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	half := size / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			var c color.Color
			switch {
			case x < half && y < half:
				c = topLeft
			case y < half:
				c = topRight
			case x < half:
				c = bottomLeft
			default:
				c = bottomRight
			}
			img.Set(x, y, c)
		}
	}
	return img
}

// createPatternImage creates an image with many different colors.
func createPatternImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 37) % 256),
				G: uint8((y * 53) % 256),
				B: uint8(((x + y) * 11) % 256),
				A: 255,
			})
		}
	}
	return img
}

// writeTestImage saves img in dir, the format is chosen by the extension of
// name.
func writeTestImage(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("Can't write test image %s: %v", path, err)
	}
	return path
}

// newSolidSampleSet creates a sample set with one solid sample per color.
func newSolidSampleSet(t *testing.T, k uint, tileWidth, tileHeight int, colors ...color.Color) *SampleSet {
	t.Helper()
	samples := make([]Sample, len(colors))
	for i, c := range colors {
		img := createSolidImage(tileWidth, tileHeight, c)
		samples[i] = Sample{
			Path:      ImageID(i).String(),
			Image:     img,
			Histogram: GenNormalizedHistogram(img, k),
		}
	}
	set, err := NewSampleSet(samples, k, tileWidth, tileHeight)
	if err != nil {
		t.Fatalf("Can't create sample set: %v", err)
	}
	return set
}

// pixelAt returns the color at (x, y) as color.RGBA.
func pixelAt(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}
