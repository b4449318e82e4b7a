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
	"image/color"
	"io"
	"math"
	"strings"
)

// Histogram is a global color histogram: Each color is quantized to K levels
// per channel and Entries holds one bucket per quantized color, K³ in total.
// Bucket (r, g, b) is found at RGBID(r, g, b, K).
//
// Entries are either pixel counts (GenHistogram) or relative frequencies
// summing up to 1 (GenNormalizedHistogram). All histograms compared with a
// Metric are normalized.
type Histogram struct {
	Entries []float64
	// K is the number of levels per channel, between 1 and 256.
	K uint
}

// CheckBins returns a ConfigError if k is not a valid number of
// sub-divisions.
func CheckBins(k uint) error {
	if k < 1 || k > QuantizeFactor {
		return &ConfigError{Field: "bins", Value: k, Reason: "must be between 1 and 256"}
	}
	return nil
}

// NewHistogram returns a histogram with K³ empty buckets.
func NewHistogram(k uint) *Histogram {
	return &Histogram{Entries: make([]float64, k*k*k), K: k}
}

func (h *Histogram) String() string {
	parts := make([]string, len(h.Entries))
	for i, v := range h.Entries {
		parts[i] = fmt.Sprintf("%.2f", v)
	}
	return "〈" + strings.Join(parts, ", ") + "〉"
}

// PrintInfo writes a description of h to w, with verbose set one line per
// bucket.
func (h *Histogram) PrintInfo(w io.Writer, verbose bool) {
	fmt.Fprintf(w, "Histogram consisting of k = %d sub-divisions, leading to %d color categories\n",
		h.K, h.K*h.K*h.K)
	if !verbose {
		fmt.Fprintln(w, h)
		return
	}
	fmt.Fprintf(w, "%-6s %6s %6s %10s\n", "red", "green", "blue", "value")
	for r := uint(0); r < h.K; r++ {
		for g := uint(0); g < h.K; g++ {
			for b := uint(0); b < h.K; b++ {
				fmt.Fprintf(w, "%6d %6d %6d %10.4f\n", r, g, b, h.Entries[RGBID(r, g, b, h.K)])
			}
		}
	}
}

// Equals reports whether both histograms have the same K and no bucket
// differs by more than epsilon.
func (h *Histogram) Equals(other *Histogram, epsilon float64) bool {
	if h.K != other.K || len(h.Entries) != len(other.Entries) {
		return false
	}
	for i, v := range h.Entries {
		if math.Abs(v-other.Entries[i]) > epsilon {
			return false
		}
	}
	return true
}

// Add counts the pixels of img into h. k must equal h.K.
// Calling Add again accumulates, concurrent calls on the same histogram are
// not allowed.
func (h *Histogram) Add(img image.Image, k uint) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return
	}
	switch src := img.(type) {
	case *image.RGBA:
		h.addPix(src.Pix, src.Stride, src.PixOffset(bounds.Min.X, bounds.Min.Y), bounds, k, false)
	case *image.NRGBA:
		h.addPix(src.Pix, src.Stride, src.PixOffset(bounds.Min.X, bounds.Min.Y), bounds, k, true)
	default:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				h.Entries[ConvertRGB(img.At(x, y)).Quantize(k).ID(k)]++
			}
		}
	}
}

// addPix counts the pixels of an RGBA or NRGBA buffer. Non-premultiplied
// pixels with alpha < 255 are converted first, so both paths agree with
// ConvertRGB.
func (h *Histogram) addPix(pix []uint8, stride, start int, bounds image.Rectangle, k uint, nonPremul bool) {
	width := bounds.Dx()
	for y := 0; y < bounds.Dy(); y++ {
		row := pix[start+y*stride : start+y*stride+4*width]
		for i := 0; i < len(row); i += 4 {
			c := RGB{R: row[i], G: row[i+1], B: row[i+2]}
			if nonPremul && row[i+3] != 0xff {
				c = ConvertRGB(color.NRGBA{R: row[i], G: row[i+1], B: row[i+2], A: row[i+3]})
			}
			h.Entries[c.Quantize(k).ID(k)]++
		}
	}
}

// GenHistogram returns the pixel counts of img quantized to k levels per
// channel.
func GenHistogram(img image.Image, k uint) *Histogram {
	h := NewHistogram(k)
	h.Add(img, k)
	return h
}

// GenNormalizedHistogram returns the histogram of img divided by the number
// of pixels, so the buckets sum up to 1. An empty image yields all zeros.
//
// Tiles and samples are both described by this function, which makes
// histograms of images of different sizes comparable.
func GenNormalizedHistogram(img image.Image, k uint) *Histogram {
	h := GenHistogram(img, k)
	b := img.Bounds()
	if b.Empty() {
		return h
	}
	return h.Normalize(b.Dx() * b.Dy())
}

// EntrySum adds up all buckets.
func (h *Histogram) EntrySum() float64 {
	sum := 0.0
	for _, v := range h.Entries {
		sum += v
	}
	return sum
}

// Normalize divides each count by pixels and returns the result as a new
// histogram. A pixels value <= 0 means "use EntrySum". If there is nothing to
// divide by the result is empty.
func (h *Histogram) Normalize(pixels int) *Histogram {
	total := float64(pixels)
	if pixels <= 0 {
		total = h.EntrySum()
	}
	res := NewHistogram(h.K)
	if total == 0 {
		return res
	}
	for i, v := range h.Entries {
		res.Entries[i] = v / total
	}
	return res
}
