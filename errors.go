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
)

// This file contains the error types returned by the library. All of them
// are returned as pointers and can be inspected with errors.As.

var (
	// ErrDimensionMismatch is returned when two histograms with a different
	// number of sub-divisions are compared.
	ErrDimensionMismatch = errors.New("Histograms have different dimensions")
)

// InputError is returned if an input (the query image, the sample directory,
// the output file) can't be read or written. Such an error is fatal for a
// mosaic run.
type InputError struct {
	// Op describes what we tried to do, for example "open" or "save".
	Op   string
	Path string
	Err  error
}

func (err *InputError) Error() string {
	return fmt.Sprintf("Can't %s \"%s\": %v", err.Op, err.Path, err.Err)
}

func (err *InputError) Unwrap() error {
	return err.Err
}

// SampleRejectedError is returned by a SamplePolicy if a sample can't be
// used, for example because it is smaller than a tile and the policy does
// not scale images. It is recoverable: the sample is skipped.
type SampleRejectedError struct {
	Path                  string
	Width, Height         int
	TileWidth, TileHeight int
}

func (err *SampleRejectedError) Error() string {
	name := err.Path
	if name == "" {
		name = "sample"
	}
	return fmt.Sprintf("Can't crop %s: size %dx%d is smaller than tile size %dx%d",
		name, err.Width, err.Height, err.TileWidth, err.TileHeight)
}

// EmptySampleSetError is returned if no sample survived filtering and
// preparation, no mosaic can be created in this case.
type EmptySampleSetError struct {
	Root string
	// Rejected is the number of files that matched the filter but were
	// rejected.
	Rejected int
}

func (err *EmptySampleSetError) Error() string {
	if err.Rejected > 0 {
		return fmt.Sprintf("No usable samples in \"%s\": all %d candidates were rejected",
			err.Root, err.Rejected)
	}
	return fmt.Sprintf("No usable samples in \"%s\"", err.Root)
}

// TileTooLargeError is returned if the query image can't contain a single
// tile.
type TileTooLargeError struct {
	Width, Height         int
	TileWidth, TileHeight int
}

func (err *TileTooLargeError) Error() string {
	return fmt.Sprintf("Image of size %dx%d is smaller than one tile of size %dx%d",
		err.Width, err.Height, err.TileWidth, err.TileHeight)
}

// ConfigError describes an invalid option value.
type ConfigError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (err *ConfigError) Error() string {
	return fmt.Sprintf("Invalid value for %s (%v): %s", err.Field, err.Value, err.Reason)
}
