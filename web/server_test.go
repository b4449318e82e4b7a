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

package web

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/FabianWe/histmosaic"
	"github.com/disintegration/imaging"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

func solidImage(size int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	var samples []histmosaic.Sample
	for i, c := range []color.Color{red, blue} {
		img := solidImage(8, c)
		samples = append(samples, histmosaic.Sample{
			Path:      histmosaic.ImageID(i).String(),
			Image:     img,
			Histogram: histmosaic.GenNormalizedHistogram(img, 8),
		})
	}
	set, err := histmosaic.NewSampleSet(samples, 8, 8, 8)
	if err != nil {
		t.Fatalf("Can't create sample set: %v", err)
	}
	context := NewContext(set)
	context.NumRoutines = 2
	server := httptest.NewServer(NewRouter(context, 30*time.Second))
	t.Cleanup(server.Close)
	return server
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestHealthEndpoint(t *testing.T) {
	server := setupTestServer(t)
	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	var health struct {
		Status  string `json:"status"`
		Samples int    `json:"samples"`
		Bins    uint   `json:"bins"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if health.Status != "ok" || health.Samples != 2 || health.Bins != 8 {
		t.Errorf("Unexpected health response %+v", health)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server := setupTestServer(t)
	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	var metrics []MetricInfo
	if err := json.NewDecoder(resp.Body).Decode(&metrics); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(metrics) != len(histmosaic.GetMetricNames()) {
		t.Errorf("Expected %d metrics, got %d", len(histmosaic.GetMetricNames()), len(metrics))
	}
	best := make(map[string]string)
	for _, m := range metrics {
		best[m.Name] = m.Best
	}
	if best["correlation"] != "max" || best["hellinger"] != "min" {
		t.Errorf("Unexpected metric directions %v", best)
	}
}

func TestMosaicEndpoint(t *testing.T) {
	server := setupTestServer(t)
	query := solidImage(16, blue)
	query.Set(0, 0, red)

	tests := []struct {
		name        string
		query       string
		contentType string
	}{
		{"default", "", "image/png"},
		{"hellinger", "?metric=hellinger", "image/png"},
		{"jpeg", "?metric=Intersection&format=jpeg&quality=80", "image/jpeg"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(server.URL+"/mosaic"+tc.query, "image/png", bytes.NewReader(encodePNG(t, query)))
			if err != nil {
				t.Fatalf("Failed to make request: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				t.Fatalf("Expected status 200, got %d: %s", resp.StatusCode, body)
			}
			if ct := resp.Header.Get("Content-Type"); ct != tc.contentType {
				t.Errorf("Expected content type %s, got %s", tc.contentType, ct)
			}
			if _, err := ParseJobID(resp.Header.Get(MosaicIDHeader)); err != nil {
				t.Errorf("Invalid mosaic id: %v", err)
			}
			mosaic, err := imaging.Decode(resp.Body)
			if err != nil {
				t.Fatalf("Can't decode mosaic: %v", err)
			}
			if mosaic.Bounds() != image.Rect(0, 0, 16, 16) {
				t.Errorf("Unexpected mosaic size %v", mosaic.Bounds())
			}
		})
	}
}

func TestMosaicEndpointMultipart(t *testing.T) {
	server := setupTestServer(t)
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "query.png")
	if err != nil {
		t.Fatal(err)
	}
	part.Write(encodePNG(t, solidImage(24, red)))
	writer.Close()

	resp, err := http.Post(server.URL+"/mosaic", writer.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	mosaic, err := imaging.Decode(resp.Body)
	if err != nil {
		t.Fatalf("Can't decode mosaic: %v", err)
	}
	c := color.RGBAModel.Convert(mosaic.At(23, 23)).(color.RGBA)
	if c != red {
		t.Errorf("Expected red mosaic, got %v", c)
	}
}

func TestMosaicEndpointBadRequests(t *testing.T) {
	server := setupTestServer(t)
	tests := []struct {
		name  string
		query string
		body  []byte
	}{
		{"unknown metric", "?metric=foo", encodePNG(t, solidImage(16, red))},
		{"unknown format", "?format=gif", encodePNG(t, solidImage(16, red))},
		{"invalid quality", "?quality=200", encodePNG(t, solidImage(16, red))},
		{"no image", "", []byte("definitely not an image")},
		{"tile too large", "", encodePNG(t, solidImage(7, red))},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(server.URL+"/mosaic"+tc.query, "application/octet-stream", bytes.NewReader(tc.body))
			if err != nil {
				t.Fatalf("Failed to make request: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestMosaicEndpointMethod(t *testing.T) {
	server := setupTestServer(t)
	resp, err := http.Get(server.URL + "/mosaic")
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", resp.StatusCode)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name     string
		expected imaging.Format
		valid    bool
	}{
		{"", imaging.PNG, true},
		{"PNG", imaging.PNG, true},
		{"jpg", imaging.JPEG, true},
		{"jpeg", imaging.JPEG, true},
		{"bmp", imaging.PNG, false},
	}
	for _, tc := range tests {
		format, err := ParseFormat(tc.name)
		if (err == nil) != tc.valid {
			t.Errorf("ParseFormat(%q): unexpected error state %v", tc.name, err)
		}
		if tc.valid && format != tc.expected {
			t.Errorf("ParseFormat(%q) = %v, expected %v", tc.name, format, tc.expected)
		}
	}
}

func TestJobID(t *testing.T) {
	id := GenJobID()
	parsed, err := ParseJobID(id.String())
	if err != nil {
		t.Fatalf("Can't parse job id: %v", err)
	}
	if parsed != id {
		t.Errorf("Expected %s, got %s", id, parsed)
	}
	if GenJobID() == id {
		t.Error("Generated the same job id twice")
	}
}
