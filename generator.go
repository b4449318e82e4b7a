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
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// GenerateMosaic creates the mosaic of query. The image is cut to a multiple
// of the tile size of the samples, each tile is replaced by the sample with
// the best histogram metric value.
//
// A *TileTooLargeError is returned if query is smaller than one tile.
// progress is called with the number of tiles for which a sample was selected,
// it may be nil.
func GenerateMosaic(query image.Image, samples *SampleSet, metric Metric,
	numRoutines int, progress ProgressFunc) (*image.RGBA, error) {
	tileWidth, tileHeight := samples.TileSize()
	area, err := TruncatedBounds(query.Bounds(), tileWidth, tileHeight)
	if err != nil {
		return nil, err
	}
	dist := NewFixedSizeDivider(tileWidth, tileHeight).Divide(area)
	selector := NewHistogramSelector(metric, numRoutines)
	selector.Progress = progress
	selected, err := selector.SelectImages(samples, query, dist)
	if err != nil {
		return nil, err
	}
	return ComposeMosaic(samples, selected, dist, area, numRoutines)
}

// Config contains all options of a mosaic run.
type Config struct {
	// Target is the path of the query image.
	Target string
	// SampleDir is the directory containing the samples.
	SampleDir string
	// Filter is a regular expression matched against sample file names.
	Filter    string
	Recursive bool
	// Output is the path of the mosaic image.
	Output                string
	TileWidth, TileHeight int
	Bins                  uint
	Metric                string
	// Policy is "crop" or "resize", Resizer and Interp are used for "resize".
	Policy      string
	Resizer     string
	Interp      uint
	NumRoutines int
	// GCHFile is an optional histogram file (or directory) to cache sample
	// histograms.
	GCHFile     string
	JPEGQuality int
}

// DefaultConfig returns the default options, Target must be set.
func DefaultConfig() Config {
	return Config{
		SampleDir:   "./color_set",
		Filter:      ".jpg",
		Output:      "./out.jpg",
		TileWidth:   16,
		TileHeight:  16,
		Bins:        8,
		Metric:      DefaultMetric,
		Policy:      PolicyCrop,
		Resizer:     "imaging",
		Interp:      3,
		NumRoutines: DefaultRoutines(),
		JPEGQuality: 95,
	}
}

// Validate checks all values that can be checked without accessing files.
func (cfg Config) Validate() error {
	opts := SampleOptions{TileWidth: cfg.TileWidth, TileHeight: cfg.TileHeight, K: cfg.Bins}
	if err := opts.Validate(); err != nil {
		return err
	}
	if _, err := LookupMetric(cfg.Metric); err != nil {
		return err
	}
	if _, err := GetSamplePolicy(cfg.Policy, cfg.Resizer, cfg.Interp); err != nil {
		return err
	}
	if _, err := RegexFilter(cfg.Filter); err != nil {
		return err
	}
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		return &ConfigError{Field: "quality", Value: cfg.JPEGQuality, Reason: "must be between 1 and 100"}
	}
	return nil
}

// LoadSamples lists, loads and prepares the samples described by cfg.
// If GCHFile is set precomputed histograms are read from that file and the
// file is updated afterwards.
func LoadSamples(cfg Config) (*SampleSet, error) {
	filter, err := RegexFilter(cfg.Filter)
	if err != nil {
		return nil, err
	}
	policy, err := GetSamplePolicy(cfg.Policy, cfg.Resizer, cfg.Interp)
	if err != nil {
		return nil, err
	}
	db, err := GenFSDatabase(cfg.SampleDir, cfg.Recursive, filter)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"dir":   db.Root,
		"files": len(db.Paths),
	}).Info("Loading samples")
	opts := SampleOptions{
		TileWidth:   cfg.TileWidth,
		TileHeight:  cfg.TileHeight,
		K:           cfg.Bins,
		Policy:      policy,
		NumRoutines: cfg.NumRoutines,
	}
	var gchPath string
	if cfg.GCHFile != "" {
		gchPath = ResolveGCHPath(cfg.GCHFile, cfg.Bins)
		opts.Cache = ReadOrCreateController(gchPath, cfg.Bins, cfg.TileWidth, cfg.TileHeight, policy.Name())
	}
	samples, err := LoadSampleSet(db, opts, LoggerProgressFunc("Samples", len(db.Paths), 100))
	if err != nil {
		return nil, err
	}
	if opts.Cache != nil {
		if writeErr := opts.Cache.WriteFile(gchPath); writeErr != nil {
			log.WithFields(log.Fields{
				"file":       gchPath,
				log.ErrorKey: writeErr,
			}).Warn("Can't write histogram file")
		}
	}
	return samples, nil
}

// Run creates a mosaic as described by cfg and writes it to cfg.Output.
func Run(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	metric, _ := LookupMetric(cfg.Metric)
	logger := log.WithFields(log.Fields{
		"run":    uuid.New().String(),
		"metric": metric.Name,
	})
	start := time.Now()

	query, err := LoadImage(cfg.Target)
	if err != nil {
		return err
	}
	// fail before loading samples if not a single tile fits
	if _, err := TruncatedBounds(query.Bounds(), cfg.TileWidth, cfg.TileHeight); err != nil {
		return err
	}

	samples, err := LoadSamples(cfg)
	if err != nil {
		return err
	}

	dist := NewFixedSizeDivider(cfg.TileWidth, cfg.TileHeight).Divide(query.Bounds())
	numTiles := dist.NumTiles()
	logger.WithFields(log.Fields{
		"tiles":   numTiles,
		"samples": samples.Len(),
	}).Info("Selecting samples")
	mosaic, err := GenerateMosaic(query, samples, metric, cfg.NumRoutines,
		LoggerProgressFunc("Tiles", numTiles, 1000))
	if err != nil {
		return err
	}
	if err := SaveImage(mosaic, cfg.Output, cfg.JPEGQuality); err != nil {
		return err
	}
	logger.WithFields(log.Fields{
		"output":   cfg.Output,
		"duration": time.Since(start),
	}).Info("Mosaic created")
	return nil
}
