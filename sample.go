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
	"errors"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	log "github.com/sirupsen/logrus"
)

const (
	// PolicyCrop is the name of CropPolicy.
	PolicyCrop = "crop"
	// PolicyResize is the name of ResizePolicy.
	PolicyResize = "resize"
)

// SamplePolicy prepares a sample image s.t. it has exactly the size of a
// tile. If the sample can't be used a *SampleRejectedError should be
// returned, the sample is skipped in this case.
//
// Implementations must be safe for concurrent use.
type SamplePolicy interface {
	// Name identifies the policy, it is stored in histogram cache files.
	Name() string
	Prepare(img image.Image, tileWidth, tileHeight int) (image.Image, error)
}

// CropPolicy takes the top left tileWidth x tileHeight area of a sample.
// Samples smaller than a tile are rejected.
type CropPolicy struct{}

// Name returns PolicyCrop.
func (CropPolicy) Name() string {
	return PolicyCrop
}

// Prepare implements SamplePolicy.
func (CropPolicy) Prepare(img image.Image, tileWidth, tileHeight int) (image.Image, error) {
	bounds := img.Bounds()
	if bounds.Dx() < tileWidth || bounds.Dy() < tileHeight {
		return nil, &SampleRejectedError{
			Width:      bounds.Dx(),
			Height:     bounds.Dy(),
			TileWidth:  tileWidth,
			TileHeight: tileHeight,
		}
	}
	area := image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Min.X+tileWidth, bounds.Min.Y+tileHeight)
	return imaging.Crop(img, area), nil
}

// ResizePolicy scales each sample to the size of a tile, ignoring the ratio
// of the original image. No sample is rejected.
type ResizePolicy struct {
	Resizer ImageResizer
	// ResizerName is the name of the resizer, it is part of the policy name
	// because samples scaled by different resizers have different histograms.
	ResizerName string
}

// NewResizePolicy returns a new resize policy. If resizer is nil
// DefaultResizer is used.
func NewResizePolicy(resizer ImageResizer, resizerName string) ResizePolicy {
	if resizer == nil {
		resizer = DefaultResizer
	}
	return ResizePolicy{Resizer: resizer, ResizerName: resizerName}
}

// Name returns PolicyResize, followed by the resizer name if set.
func (p ResizePolicy) Name() string {
	if p.ResizerName == "" {
		return PolicyResize
	}
	return PolicyResize + "/" + p.ResizerName
}

// Prepare implements SamplePolicy.
func (p ResizePolicy) Prepare(img image.Image, tileWidth, tileHeight int) (image.Image, error) {
	resizer := p.Resizer
	if resizer == nil {
		resizer = DefaultResizer
	}
	return resizer.Resize(uint(tileWidth), uint(tileHeight), img), nil
}

// GetSamplePolicy returns the policy with the given name ("crop" or
// "resize"). The resizer arguments are only used by the resize policy, see
// GetResizer.
func GetSamplePolicy(name, resizerName string, quality uint) (SamplePolicy, error) {
	switch strings.ToLower(name) {
	case "", PolicyCrop:
		return CropPolicy{}, nil
	case PolicyResize:
		resizer, err := GetResizer(resizerName, quality)
		if err != nil {
			return nil, err
		}
		if resizerName == "" {
			resizerName = "imaging"
		}
		return NewResizePolicy(resizer, strings.ToLower(resizerName)), nil
	default:
		return nil, &ConfigError{Field: "policy", Value: name,
			Reason: "must be \"crop\" or \"resize\""}
	}
}

// Sample is an image of the sample set together with its histogram.
type Sample struct {
	// Path is the path relative to the root of the database.
	Path      string
	Image     image.Image
	Histogram *Histogram
}

// SampleSet is the fixed list of samples a mosaic is composed of. All images
// have exactly the size of a tile, all histograms are normalized and have
// the same number of sub-divisions.
//
// A SampleSet is not modified after creation and thus safe for concurrent use.
type SampleSet struct {
	samples               []Sample
	k                     uint
	tileWidth, tileHeight int
}

// NewSampleSet returns a new sample set, the samples slice is copied.
// It returns an error if the set is empty or if a sample does not match the
// tile size or k.
func NewSampleSet(samples []Sample, k uint, tileWidth, tileHeight int) (*SampleSet, error) {
	if len(samples) == 0 {
		return nil, &EmptySampleSetError{}
	}
	for _, sample := range samples {
		bounds := sample.Image.Bounds()
		if bounds.Dx() != tileWidth || bounds.Dy() != tileHeight {
			return nil, fmt.Errorf("Sample \"%s\" has size %dx%d, expected %dx%d",
				sample.Path, bounds.Dx(), bounds.Dy(), tileWidth, tileHeight)
		}
		if sample.Histogram == nil || sample.Histogram.K != k {
			return nil, fmt.Errorf("Sample \"%s\": %w", sample.Path, ErrDimensionMismatch)
		}
	}
	cp := make([]Sample, len(samples))
	copy(cp, samples)
	return &SampleSet{
		samples:    cp,
		k:          k,
		tileWidth:  tileWidth,
		tileHeight: tileHeight,
	}, nil
}

// Len returns the number of samples.
func (s *SampleSet) Len() int {
	return len(s.samples)
}

// Get returns the sample with the given id.
func (s *SampleSet) Get(id ImageID) Sample {
	return s.samples[id]
}

// Divisions returns the number of sub-divisions k of all histograms.
func (s *SampleSet) Divisions() uint {
	return s.k
}

// TileSize returns the width and height of all samples.
func (s *SampleSet) TileSize() (int, int) {
	return s.tileWidth, s.tileHeight
}

// BestMatch compares h with the histogram of each sample and returns the
// sample with the best metric value (as defined by the direction of the
// metric) together with this value.
// Samples are compared in order and a sample only replaces the best one
// found so far if its value is strictly better, so on ties the sample with
// the smallest id wins.
func (s *SampleSet) BestMatch(h *Histogram, metric Metric) (ImageID, float64, error) {
	if h.K != s.k {
		return NoImageID, 0, ErrDimensionMismatch
	}
	best := NoImageID
	bestValue := metric.Direction.Worst()
	for i, sample := range s.samples {
		value := metric.Compare(h, sample.Histogram)
		if best == NoImageID || metric.Better(value, bestValue) {
			best = ImageID(i)
			bestValue = value
		}
	}
	return best, bestValue, nil
}

// SampleOptions controls how LoadSampleSet prepares samples.
type SampleOptions struct {
	TileWidth, TileHeight int
	// K is the number of sub-divisions for the histograms.
	K uint
	// Policy defaults to CropPolicy.
	Policy      SamplePolicy
	NumRoutines int
	// Cache is an optional store of precomputed histograms. It is read during
	// loading and afterwards contains exactly the entries of the loaded
	// samples.
	Cache *HistogramFSController
}

// Validate checks tile size and k.
func (opts SampleOptions) Validate() error {
	if opts.TileWidth <= 0 {
		return &ConfigError{Field: "width", Value: opts.TileWidth, Reason: "must be positive"}
	}
	if opts.TileHeight <= 0 {
		return &ConfigError{Field: "height", Value: opts.TileHeight, Reason: "must be positive"}
	}
	return CheckBins(opts.K)
}

type sampleResult struct {
	pos    int
	sample *Sample
	entry  HistogramFSEntry
	err    error
}

// LoadSampleSet loads and prepares all images from db.
// It runs NumRoutines go routines concurrently, the order of the samples is
// the order of db.
//
// Images that can't be decoded or are rejected by the policy are logged and
// skipped. If no image remains an *EmptySampleSetError is returned.
func LoadSampleSet(db *FSImageDB, opts SampleOptions, progress ProgressFunc) (*SampleSet, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Policy == nil {
		opts.Policy = CropPolicy{}
	}
	if progress == nil {
		progress = ProgressIgnore
	}
	numRoutines := opts.NumRoutines
	if numRoutines <= 0 {
		numRoutines = 1
	}
	var cached map[string]HistogramFSEntry
	if opts.Cache != nil {
		if opts.Cache.Matches(opts.K, opts.TileWidth, opts.TileHeight, opts.Policy.Name()) {
			cached = opts.Cache.Map()
		} else {
			opts.Cache.Reset(opts.K, opts.TileWidth, opts.TileHeight, opts.Policy.Name())
		}
	}

	numImages := int(db.NumImages())
	jobs := make(chan int, BufferSize)
	results := make(chan sampleResult, BufferSize)

	for w := 0; w < numRoutines; w++ {
		go func() {
			for pos := range jobs {
				results <- loadSample(db, ImageID(pos), opts, cached)
			}
		}()
	}

	go func() {
		for i := 0; i < numImages; i++ {
			jobs <- i
		}
		close(jobs)
	}()

	loaded := make([]*Sample, numImages)
	entries := make([]HistogramFSEntry, numImages)
	rejected := 0
	for i := 0; i < numImages; i++ {
		next := <-results
		if next.err != nil {
			rejected++
			var rejectErr *SampleRejectedError
			fields := log.Fields{"sample": db.Paths[next.pos]}
			if errors.As(next.err, &rejectErr) {
				log.WithFields(fields).Warn(rejectErr.Error())
			} else {
				fields[log.ErrorKey] = next.err
				log.WithFields(fields).Warn("Can't load sample, ignoring it")
			}
		} else {
			loaded[next.pos] = next.sample
			entries[next.pos] = next.entry
		}
		progress(i + 1)
	}

	samples := make([]Sample, 0, numImages-rejected)
	var cacheEntries []HistogramFSEntry
	for i, sample := range loaded {
		if sample == nil {
			continue
		}
		samples = append(samples, *sample)
		cacheEntries = append(cacheEntries, entries[i])
	}
	if len(samples) == 0 {
		return nil, &EmptySampleSetError{Root: db.Root, Rejected: rejected}
	}
	if opts.Cache != nil {
		opts.Cache.Entries = cacheEntries
	}
	log.WithFields(log.Fields{
		"samples":  len(samples),
		"rejected": rejected,
		"policy":   opts.Policy.Name(),
	}).Info("Sample set loaded")
	return NewSampleSet(samples, opts.K, opts.TileWidth, opts.TileHeight)
}

func loadSample(db *FSImageDB, id ImageID, opts SampleOptions, cached map[string]HistogramFSEntry) sampleResult {
	res := sampleResult{pos: int(id)}
	path := db.GetPath(id)
	img, err := db.LoadImage(id)
	if err != nil {
		res.err = err
		return res
	}
	prepared, err := opts.Policy.Prepare(img, opts.TileWidth, opts.TileHeight)
	if err != nil {
		var rejectErr *SampleRejectedError
		if errors.As(err, &rejectErr) {
			rejectErr.Path = db.Paths[id]
		}
		res.err = err
		return res
	}
	res.entry = HistogramFSEntry{Path: path}
	if info, statErr := os.Stat(path); statErr == nil {
		res.entry.Size = info.Size()
		res.entry.ModTime = info.ModTime().UnixNano()
	}
	if entry, has := cached[path]; has && entry.Fresh(res.entry.Size, res.entry.ModTime, opts.K) {
		res.entry.Histogram = entry.Histogram
	} else {
		res.entry.Histogram = GenNormalizedHistogram(prepared, opts.K)
	}
	res.sample = &Sample{
		Path:      db.Paths[id],
		Image:     prepared,
		Histogram: res.entry.Histogram,
	}
	return res
}
