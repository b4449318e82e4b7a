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
	"runtime"

	log "github.com/sirupsen/logrus"
)

// BufferSize is the capacity of the job and result channels of the worker
// pools.
var BufferSize = 1000

// DefaultRoutines is the number of worker go routines if nothing else is
// configured: twice the number of CPUs.
func DefaultRoutines() int {
	if n := runtime.NumCPU() * 2; n > 0 {
		return n
	}
	return 4
}

// ProgressFunc is called with the number of items processed so far, for
// example loaded samples or matched tiles.
//
// Progress functions are always called from a single go routine.
type ProgressFunc func(num int)

// ProgressIgnore is a ProgressFunc that does nothing.
func ProgressIgnore(num int) {}

// LoggerProgressFunc returns a ProgressFunc that logs (debug level) every
// step items and once all max items are done. A negative step logs every
// call.
func LoggerProgressFunc(prefix string, max, step int) ProgressFunc {
	if prefix == "" {
		prefix = "Progress"
	}
	return func(num int) {
		if step == 0 || max == 0 {
			return
		}
		if step > 0 && num%step != 0 && num != max {
			return
		}
		percent := float64(num) / float64(max) * 100
		if percent > 100 {
			percent = 100
		}
		log.WithFields(log.Fields{
			"done":    num,
			"total":   max,
			"percent": percent,
		}).Debug(prefix)
	}
}
