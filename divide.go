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

// TileDivision represents the divison of an image into rectangles.
//
// Tiles are not stored in the fashion (x, y) but (y, x). That means each entry
// in the division describes one row of the image.
// The get method does this correctly.
type TileDivision [][]image.Rectangle

// Get returns the rectangle at position div[y][x], that is the rectangle
// in row y and column x.
func (div TileDivision) Get(x, y int) image.Rectangle {
	return div[y][x]
}

// NumTiles returns the number of rectangles in the division.
func (div TileDivision) NumTiles() int {
	res := 0
	for _, row := range div {
		res += len(row)
	}
	return res
}

// TruncatedBounds returns the largest rectangle starting at bounds.Min whose
// width is a multiple of tileWidth and whose height is a multiple of
// tileHeight. Remaining pixels at the right and the bottom are discarded.
//
// If bounds can't contain a single tile a *TileTooLargeError is returned.
func TruncatedBounds(bounds image.Rectangle, tileWidth, tileHeight int) (image.Rectangle, error) {
	width, height := bounds.Dx(), bounds.Dy()
	if tileWidth <= 0 || tileHeight <= 0 || width < tileWidth || height < tileHeight {
		return image.Rectangle{}, &TileTooLargeError{
			Width:      width,
			Height:     height,
			TileWidth:  tileWidth,
			TileHeight: tileHeight,
		}
	}
	width -= width % tileWidth
	height -= height % tileHeight
	return image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Min.X+width, bounds.Min.Y+height), nil
}

// FixedSizeDivider divides an image into tiles where each tile has the
// given width and height. Pixels that don't fill a whole tile at the right or
// the bottom are discarded.
type FixedSizeDivider struct {
	Width, Height int
}

// NewFixedSizeDivider returns a new FixedSizeDivider.
func NewFixedSizeDivider(width, height int) FixedSizeDivider {
	return FixedSizeDivider{Width: width, Height: height}
}

// Divide returns floor(height / tile height) rows with floor(width / tile
// width) rectangles each. The rectangles don't overlap and are ordered from
// top to bottom, left to right.
// The result is nil if not a single tile fits into bounds.
func (divider FixedSizeDivider) Divide(bounds image.Rectangle) TileDivision {
	truncated, err := TruncatedBounds(bounds, divider.Width, divider.Height)
	if err != nil {
		return nil
	}
	numRows := truncated.Dy() / divider.Height
	numCols := truncated.Dx() / divider.Width
	res := make(TileDivision, numRows)
	for i := 0; i < numRows; i++ {
		res[i] = make([]image.Rectangle, numCols)
		for j := 0; j < numCols; j++ {
			x0 := truncated.Min.X + j*divider.Width
			y0 := truncated.Min.Y + i*divider.Height
			res[i][j] = image.Rect(x0, y0, x0+divider.Width, y0+divider.Height)
		}
	}
	return res
}
