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
	"fmt"
	"image"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
)

// ParseFormat returns the output format for a format name, an empty name
// yields png.
func ParseFormat(name string) (imaging.Format, error) {
	switch strings.ToLower(name) {
	case "", "png":
		return imaging.PNG, nil
	case "jpg", "jpeg":
		return imaging.JPEG, nil
	default:
		return imaging.PNG, fmt.Errorf("Unsupported image format: %s", name)
	}
}

// ContentType returns the mime type of the format.
func ContentType(format imaging.Format) string {
	if format == imaging.JPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// WriteImage encodes img in the given format and writes it as response.
func WriteImage(w http.ResponseWriter, img image.Image, format imaging.Format, quality int) error {
	w.Header().Set("Content-Type", ContentType(format))
	return imaging.Encode(w, img, format, imaging.JPEGQuality(quality))
}
