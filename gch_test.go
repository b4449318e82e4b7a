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
	"os"
	"path/filepath"
	"testing"
)

func TestHistogramFileFormats(t *testing.T) {
	dir := t.TempDir()
	hist := GenNormalizedHistogram(createQuadrantImage(8, red, blue, green, white), 4)
	for _, ext := range []string{"gob", "json"} {
		path := filepath.Join(dir, GCHFileName(4, ext))
		c := NewHistogramFSController(4, 16, 16, PolicyCrop)
		c.Entries = append(c.Entries, HistogramFSEntry{Path: "/a.png", Size: 10, ModTime: 42, Histogram: hist})
		if err := c.WriteFile(path); err != nil {
			t.Fatalf("%s: can't write file: %v", ext, err)
		}
		read := ReadOrCreateController(path, 4, 16, 16, PolicyCrop)
		if len(read.Entries) != 1 {
			t.Fatalf("%s: expected 1 entry, got %d", ext, len(read.Entries))
		}
		entry := read.Map()["/a.png"]
		if !entry.Fresh(10, 42, 4) {
			t.Errorf("%s: entry should be fresh", ext)
		}
		if !entry.Histogram.Equals(hist, 1e-12) {
			t.Errorf("%s: histogram changed", ext)
		}
		if entry.Fresh(11, 42, 4) || entry.Fresh(10, 43, 4) || entry.Fresh(10, 42, 8) {
			t.Errorf("%s: changed file should not be fresh", ext)
		}

		// other parameters: nothing is used
		other := ReadOrCreateController(path, 4, 32, 16, PolicyCrop)
		if len(other.Entries) != 0 || !other.Matches(4, 32, 16, PolicyCrop) {
			t.Errorf("%s: controller for other tile size should be empty", ext)
		}
	}
}

func TestHistogramFileInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gch.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	c := ReadOrCreateController(path, 8, 16, 16, PolicyCrop)
	if len(c.Entries) != 0 || !c.Matches(8, 16, 16, PolicyCrop) {
		t.Error("Expected empty controller for invalid file")
	}
	if err := c.WriteFile(filepath.Join(dir, "gch.txt")); err == nil {
		t.Error("Expected error for unknown extension")
	}
}

func TestCheckData(t *testing.T) {
	c := NewHistogramFSController(2, 4, 4, PolicyCrop)
	c.Entries = append(c.Entries, HistogramFSEntry{Path: "a", Histogram: NewHistogram(2)})
	if err := c.CheckData(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	bad := NewHistogram(2)
	bad.Entries[0] = 1.5
	c.Entries = append(c.Entries, HistogramFSEntry{Path: "b", Histogram: bad},
		HistogramFSEntry{Path: "c", Histogram: NewHistogram(3)})
	if err := c.CheckData(); err == nil {
		t.Error("Expected error for invalid entries")
	}
}

func TestResolveGCHPath(t *testing.T) {
	dir := t.TempDir()
	if got := ResolveGCHPath(dir, 8); got != filepath.Join(dir, "gch-8.gob") {
		t.Errorf("Unexpected path for directory: %s", got)
	}
	file := filepath.Join(dir, "cache.json")
	if got := ResolveGCHPath(file, 8); got != file {
		t.Errorf("Unexpected path for file: %s", got)
	}
}

func TestLoadSampleSetUsesCache(t *testing.T) {
	dir := t.TempDir()
	writeTestImage(t, dir, "a.png", createSolidImage(16, 16, red))
	writeTestImage(t, dir, "b.png", createSolidImage(16, 16, blue))
	db, err := GenFSDatabase(dir, false, nil)
	if err != nil {
		t.Fatal(err)
	}

	cache := NewHistogramFSController(8, 16, 16, PolicyCrop)
	opts := SampleOptions{TileWidth: 16, TileHeight: 16, K: 8, Cache: cache}
	if _, err := LoadSampleSet(db, opts, nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(cache.Entries) != 2 {
		t.Fatalf("Expected 2 cache entries, got %d", len(cache.Entries))
	}

	// a fresh entry is used as is, even if it does not describe the image
	path := db.GetPath(0)
	fake := NewHistogram(8)
	fake.Entries[RGBID(0, 7, 0, 8)] = 1
	cache.Entries[0].Histogram = fake
	samples, err := LoadSampleSet(db, opts, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !samples.Get(0).Histogram.Equals(fake, 0) {
		t.Errorf("Cached histogram for %s was not used", path)
	}
	if !samples.Get(1).Histogram.Equals(GenNormalizedHistogram(createSolidImage(16, 16, blue), 8), 1e-12) {
		t.Error("Wrong histogram for second sample")
	}
}
