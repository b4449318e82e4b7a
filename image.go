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
	"path/filepath"
	"regexp"
	"strings"

	// imaging registers jpeg, png, gif, bmp and tiff, webp samples are
	// common enough to support them as well
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// FileFilter reports whether a file (given by its base name, e.g. "foo.jpg")
// is a sample candidate.
type FileFilter func(name string) bool

// JPGAndPNG accepts the extensions .jpg, .jpeg and .png in any case.
func JPGAndPNG(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// RegexFilter returns a FileFilter that accepts all file names that contain
// a match of pattern. The match is case insensitive, thus the pattern ".jpg"
// accepts "a.JPG". Note that pattern is a regular expression, ".jpg" also
// matches "ajpg.png". Use "\.jpe?g$" if you want to be strict.
//
// An empty pattern yields JPGAndPNG.
func RegexFilter(pattern string) (FileFilter, error) {
	if pattern == "" {
		return JPGAndPNG, nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, &ConfigError{Field: "type", Value: pattern, Reason: err.Error()}
	}
	return re.MatchString, nil
}

// QuantizeFactor is the number of values of an 8 bit color channel.
const QuantizeFactor uint = 256

// QuantizeC maps a channel value to one of k levels: floor(val * k / 256).
func QuantizeC(val uint8, k uint) uint8 {
	return uint8((uint(val) * k) / QuantizeFactor)
}

// RGBID is the bucket index of the quantized color (r, g, b):
// r + k*g + k²*b.
func RGBID(r, g, b, k uint) uint {
	return r + k*(g+k*b)
}

// RGB is an 8 bit color without alpha.
type RGB struct {
	R, G, B uint8
}

// NewRGB returns a new RGB color.
func NewRGB(r, g, b uint8) RGB {
	return RGB{R: r, G: g, B: b}
}

// ConvertRGB drops the alpha channel of c after converting it to
// color.RGBA.
func ConvertRGB(c color.Color) RGB {
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	return RGB{R: rgba.R, G: rgba.G, B: rgba.B}
}

// ID returns RGBID of the (already quantized) color.
func (c RGB) ID(k uint) uint {
	return RGBID(uint(c.R), uint(c.G), uint(c.B), k)
}

// Quantize applies QuantizeC to each channel.
func (c RGB) Quantize(k uint) RGB {
	return RGB{R: QuantizeC(c.R, k), G: QuantizeC(c.G, k), B: QuantizeC(c.B, k)}
}

// SubImager is implemented by the image types of the standard library.
type SubImager interface {
	SubImage(r image.Rectangle) image.Image
}

// SubImage returns the part of img inside r. If the image type has a
// SubImage method no pixels are copied, otherwise the area is copied with
// imaging.Crop (and the result starts at (0, 0)).
func SubImage(img image.Image, r image.Rectangle) image.Image {
	if imager, ok := img.(SubImager); ok {
		return imager.SubImage(r)
	}
	return imaging.Crop(img, r)
}

// ImageResizer scales an image to exactly width x height, the aspect ratio
// is not kept.
type ImageResizer interface {
	Resize(width, height uint, img image.Image) image.Image
}

// ImagingResizer scales with imaging.Resize and the given filter.
type ImagingResizer struct {
	Filter imaging.ResampleFilter
}

// NewImagingResizer returns a new resizer given the resample filter.
func NewImagingResizer(filter imaging.ResampleFilter) ImagingResizer {
	return ImagingResizer{Filter: filter}
}

// Resize implements ImageResizer.
func (r ImagingResizer) Resize(width, height uint, img image.Image) image.Image {
	return imaging.Resize(img, int(width), int(height), r.Filter)
}

// NfntResizer scales with nfnt/resize.
type NfntResizer struct {
	InterP resize.InterpolationFunction
}

// NewNfntResizer returns a new resizer given the interpolation function.
func NewNfntResizer(interP resize.InterpolationFunction) NfntResizer {
	return NfntResizer{InterP: interP}
}

var interpolations = []resize.InterpolationFunction{
	resize.NearestNeighbor,
	resize.Bilinear,
	resize.Bicubic,
	resize.MitchellNetravali,
	resize.Lanczos2,
	resize.Lanczos3,
}

// GetInterP maps a quality between 0 (nearest neighbor) and 5 (Lanczos3) to
// an nfnt interpolation function. Larger values are treated as 5.
func GetInterP(quality uint) resize.InterpolationFunction {
	if quality >= uint(len(interpolations)) {
		quality = uint(len(interpolations) - 1)
	}
	return interpolations[quality]
}

// Resize implements ImageResizer.
func (r NfntResizer) Resize(width, height uint, img image.Image) image.Image {
	return resize.Resize(width, height, img, r.InterP)
}

// DefaultResizer averages all source pixels covered by a target pixel (box
// filter).
var DefaultResizer ImageResizer = NewImagingResizer(imaging.Box)

// GetResizer returns a resizer by name: "imaging" (box filter) or "nfnt"
// (interpolation selected by quality, see GetInterP).
func GetResizer(name string, quality uint) (ImageResizer, error) {
	switch strings.ToLower(name) {
	case "", "imaging", "box":
		return DefaultResizer, nil
	case "nfnt":
		return NewNfntResizer(GetInterP(quality)), nil
	default:
		return nil, &ConfigError{Field: "resizer", Value: name,
			Reason: "must be \"imaging\" or \"nfnt\""}
	}
}

// LoadImage reads and decodes an image file. EXIF orientation is applied.
func LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &InputError{Op: "open", Path: path, Err: err}
	}
	return img, nil
}

// SaveImage encodes img to path, the format is chosen by the file extension.
// quality is the jpeg quality (1 - 100) and ignored for other formats.
func SaveImage(img image.Image, path string, quality int) error {
	if err := imaging.Save(img, path, imaging.JPEGQuality(quality)); err != nil {
		return &InputError{Op: "save", Path: path, Err: err}
	}
	return nil
}

// ImageID is the position of a sample in its SampleSet (or of a file in an
// FSImageDB).
type ImageID int

// NoImageID marks "nothing selected".
const NoImageID ImageID = -1

func (id ImageID) String() string {
	if id == NoImageID {
		return "NoImageID"
	}
	return fmt.Sprintf("ImageID(%d)", int(id))
}
