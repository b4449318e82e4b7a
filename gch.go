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
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Sample histograms can be stored in a file (gob or json) and reused by later
// runs on the same sample directory. Such a file is called a GCH (global color
// histogram) file.

// Version is stored in histogram files.
const Version = "1.0.0"

// HistogramFSEntry is the cached histogram of one sample file. Size and
// ModTime (unix nanoseconds) of the file are stored to detect changes.
type HistogramFSEntry struct {
	Path      string
	Size      int64
	ModTime   int64
	Histogram *Histogram
}

// Fresh returns true if the entry was created for a file with the given size
// and modification time (in nanoseconds) and holds a histogram with k
// sub-divisions.
func (entry HistogramFSEntry) Fresh(size, modTime int64, k uint) bool {
	return entry.ModTime != 0 && entry.Size == size && entry.ModTime == modTime &&
		entry.Histogram != nil && entry.Histogram.K == k &&
		uint(len(entry.Histogram.Entries)) == k*k*k
}

// HistogramFSController is the content of a histogram file.
//
// The histogram of a sample depends on k, the tile size and the sample
// policy, so these are stored too. A file written with other values is
// ignored as a whole.
type HistogramFSController struct {
	Entries               []HistogramFSEntry
	K                     uint
	TileWidth, TileHeight int
	Policy                string
	Version               string
}

// NewHistogramFSController creates an empty file system controller.
func NewHistogramFSController(k uint, tileWidth, tileHeight int, policy string) *HistogramFSController {
	res := &HistogramFSController{}
	res.Reset(k, tileWidth, tileHeight, policy)
	return res
}

// Reset removes all entries and sets the parameters.
func (c *HistogramFSController) Reset(k uint, tileWidth, tileHeight int, policy string) {
	*c = HistogramFSController{
		K:          k,
		TileWidth:  tileWidth,
		TileHeight: tileHeight,
		Policy:     policy,
		Version:    Version,
	}
}

// Matches returns true if the controller stores histograms for the given
// parameters.
func (c *HistogramFSController) Matches(k uint, tileWidth, tileHeight int, policy string) bool {
	return c.K == k && c.TileWidth == tileWidth && c.TileHeight == tileHeight && c.Policy == policy
}

func gchFormat(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".gob", ".json":
		return ext, nil
	default:
		return "", fmt.Errorf("Unknown extension %q for histogram file, must be \".gob\" or \".json\"", ext)
	}
}

// ReadFile replaces the content of c by the file at path, the encoding
// (gob or json) is chosen by the extension.
func (c *HistogramFSController) ReadFile(path string) error {
	format, err := gchFormat(path)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if format == ".json" {
		return json.NewDecoder(f).Decode(c)
	}
	return gob.NewDecoder(f).Decode(c)
}

// WriteFile writes c to path, the encoding (gob or json) is chosen by the
// extension.
func (c *HistogramFSController) WriteFile(path string) error {
	format, err := gchFormat(path)
	if err != nil {
		return err
	}
	c.Version = Version
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if format == ".json" {
		err = json.NewEncoder(f).Encode(c)
	} else {
		err = gob.NewEncoder(f).Encode(c)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return err
}

// CheckData validates the entries read from a file: each histogram must
// exist, have the k of the controller with k³ buckets and all buckets must
// be in [0, 1]. All problems found are joined into the returned error.
func (c *HistogramFSController) CheckData() error {
	var errs []error
	for _, entry := range c.Entries {
		h := entry.Histogram
		switch {
		case h == nil:
			errs = append(errs, fmt.Errorf("%s: no histogram", entry.Path))
		case h.K != c.K:
			errs = append(errs, fmt.Errorf("%s: k = %d, expected %d", entry.Path, h.K, c.K))
		case uint(len(h.Entries)) != h.K*h.K*h.K:
			errs = append(errs, fmt.Errorf("%s: %d buckets, expected %d", entry.Path, len(h.Entries), h.K*h.K*h.K))
		default:
			for _, v := range h.Entries {
				if v < 0 || v > 1 {
					errs = append(errs, fmt.Errorf("%s: invalid bucket value %.2f", entry.Path, v))
					break
				}
			}
		}
	}
	return errors.Join(errs...)
}

// Map returns the entries by path.
func (c *HistogramFSController) Map() map[string]HistogramFSEntry {
	res := make(map[string]HistogramFSEntry, len(c.Entries))
	for _, entry := range c.Entries {
		res[entry.Path] = entry
	}
	return res
}

// GCHFileName returns the default name of a histogram file, "gch-k.ext",
// for example "gch-8.gob".
func GCHFileName(k uint, ext string) string {
	return fmt.Sprintf("gch-%d.%s", k, strings.TrimPrefix(ext, "."))
}

// ResolveGCHPath returns path if it names a file, if path is an existing
// directory the file GCHFileName(k, "gob") inside that directory is used.
func ResolveGCHPath(path string, k uint) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, GCHFileName(k, "gob"))
	}
	return path
}

// ReadOrCreateController reads the histogram file at path. If the file does
// not exist, can't be read, is invalid or was created with other parameters
// an empty controller is returned, thus all histograms are computed again.
func ReadOrCreateController(path string, k uint, tileWidth, tileHeight int, policy string) *HistogramFSController {
	res := NewHistogramFSController(k, tileWidth, tileHeight, policy)
	if _, statErr := os.Stat(path); statErr != nil {
		return res
	}
	fields := log.Fields{"file": path}
	read := &HistogramFSController{}
	if err := read.ReadFile(path); err != nil {
		fields[log.ErrorKey] = err
		log.WithFields(fields).Warn("Can't read histogram file, computing all histograms")
		return res
	}
	if !read.Matches(k, tileWidth, tileHeight, policy) {
		log.WithFields(fields).Info("Histogram file was created with other parameters, computing all histograms")
		return res
	}
	if err := read.CheckData(); err != nil {
		fields[log.ErrorKey] = err
		log.WithFields(fields).Warn("Invalid histogram file, computing all histograms")
		return res
	}
	log.WithFields(fields).WithField("entries", len(read.Entries)).Debug("Read histogram file")
	return read
}
