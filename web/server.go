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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/FabianWe/histmosaic"
	"github.com/disintegration/imaging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrAlreadyHandled is returned by handlers that already wrote a response.
	ErrAlreadyHandled = errors.New("Error was already handled")
)

const (
	// MosaicIDHeader is the response header containing the id of a mosaic
	// job.
	MosaicIDHeader = "X-Mosaic-ID"

	// DefaultMaxUpload is the default maximal size of an uploaded image.
	DefaultMaxUpload int64 = 32 << 20
)

// Context holds everything handlers need. The sample set is loaded once
// and shared by all requests.
type Context struct {
	Samples       *histmosaic.SampleSet
	NumRoutines   int
	DefaultMetric string
	JPEGQuality   int
	MaxUpload     int64
}

// NewContext returns a new context with default values.
func NewContext(samples *histmosaic.SampleSet) *Context {
	return &Context{
		Samples:       samples,
		NumRoutines:   histmosaic.DefaultRoutines(),
		DefaultMetric: histmosaic.DefaultMetric,
		JPEGQuality:   95,
		MaxUpload:     DefaultMaxUpload,
	}
}

// HTTPError is an error with a status code that is reported to the client.
type HTTPError struct {
	Status int
	Err    error
}

func (err *HTTPError) Error() string {
	return err.Err.Error()
}

func (err *HTTPError) Unwrap() error {
	return err.Err
}

func badRequest(err error) error {
	return &HTTPError{Status: http.StatusBadRequest, Err: err}
}

// HandlerFunc is a handler that returns a value that is encoded as JSON.
type HandlerFunc func(context *Context, w http.ResponseWriter, r *http.Request) (interface{}, error)

// ToHTTPFunc converts a HandlerFunc to a http.HandlerFunc.
// An HTTPError is reported with its status and message, all other errors
// are logged and reported as internal server error.
func ToHTTPFunc(context *Context, handler HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jsonData, err := handler(context, w, r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if jsonData == nil {
			return
		}
		jData, jErr := json.Marshal(jsonData)
		if jErr != nil {
			log.WithError(jErr).Error("Internal error: Can't marshal json")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(jData)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if err == ErrAlreadyHandled {
		return
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		http.Error(w, httpErr.Error(), httpErr.Status)
		return
	}
	log.WithFields(log.Fields{
		log.ErrorKey: err,
		"request":    middleware.GetReqID(r.Context()),
	}).Error("Error in request")
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// requestLogger logs each request with logrus.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"bytes":    ww.BytesWritten(),
			"duration": time.Since(start),
			"request":  middleware.GetReqID(r.Context()),
		}).Info("Request")
	})
}

// NewRouter returns the router serving all endpoints of context.
func NewRouter(context *Context, timeout time.Duration) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	r.Get("/health", ToHTTPFunc(context, HealthHandler))
	r.Get("/metrics", ToHTTPFunc(context, MetricsHandler))
	r.Post("/mosaic", ToHTTPFunc(context, MosaicHandler))
	return r
}

// HealthHandler reports the state of the sample set.
func HealthHandler(context *Context, w http.ResponseWriter, r *http.Request) (interface{}, error) {
	width, height := context.Samples.TileSize()
	return map[string]interface{}{
		"status":  "ok",
		"samples": context.Samples.Len(),
		"bins":    context.Samples.Divisions(),
		"tile":    fmt.Sprintf("%dx%d", width, height),
	}, nil
}

// MetricInfo describes a metric in the response of MetricsHandler.
type MetricInfo struct {
	Name string `json:"name"`
	Best string `json:"best"`
}

// MetricsHandler lists all registered metrics.
func MetricsHandler(context *Context, w http.ResponseWriter, r *http.Request) (interface{}, error) {
	names := histmosaic.GetMetricNames()
	res := make([]MetricInfo, 0, len(names))
	for _, name := range names {
		metric, _ := histmosaic.GetMetric(name)
		res = append(res, MetricInfo{Name: metric.Name, Best: metric.Direction.String()})
	}
	return res, nil
}

// MosaicHandler creates a mosaic for the image in the request and writes the
// encoded mosaic. The image is either the request body or the form field
// "image" of a multipart request.
//
// Query parameters: metric (default is the context metric), format (png or
// jpeg, default png) and quality (jpeg quality).
func MosaicHandler(context *Context, w http.ResponseWriter, r *http.Request) (interface{}, error) {
	query := r.URL.Query()
	metricName := query.Get("metric")
	if metricName == "" {
		metricName = context.DefaultMetric
	}
	metric, metricErr := histmosaic.LookupMetric(metricName)
	if metricErr != nil {
		return nil, badRequest(metricErr)
	}
	format, formatErr := ParseFormat(query.Get("format"))
	if formatErr != nil {
		return nil, badRequest(formatErr)
	}
	quality := context.JPEGQuality
	if q := query.Get("quality"); q != "" {
		var qErr error
		quality, qErr = strconv.Atoi(q)
		if qErr != nil || quality < 1 || quality > 100 {
			return nil, badRequest(fmt.Errorf("Invalid jpeg quality: %s", q))
		}
	}

	body, bodyErr := requestImage(context, w, r)
	if bodyErr != nil {
		return nil, bodyErr
	}
	defer body.Close()
	img, decodeErr := imaging.Decode(body, imaging.AutoOrientation(true))
	if decodeErr != nil {
		return nil, badRequest(fmt.Errorf("Can't decode image: %v", decodeErr))
	}

	id := GenJobID()
	logger := log.WithFields(log.Fields{
		"job":     id.String(),
		"metric":  metric.Name,
		"request": middleware.GetReqID(r.Context()),
	})
	start := time.Now()
	mosaic, mosaicErr := histmosaic.GenerateMosaic(img, context.Samples, metric, context.NumRoutines, nil)
	if mosaicErr != nil {
		var tileErr *histmosaic.TileTooLargeError
		if errors.As(mosaicErr, &tileErr) {
			return nil, badRequest(tileErr)
		}
		return nil, mosaicErr
	}
	logger.WithField("duration", time.Since(start)).Info("Mosaic created")

	w.Header().Set(MosaicIDHeader, id.String())
	if err := WriteImage(w, mosaic, format, quality); err != nil {
		logger.WithError(err).Error("Can't write mosaic")
	}
	return nil, nil
}

func requestImage(context *Context, w http.ResponseWriter, r *http.Request) (io.ReadCloser, error) {
	if r.Body == nil {
		return nil, badRequest(errors.New("No request body given"))
	}
	r.Body = http.MaxBytesReader(w, r.Body, context.MaxUpload)
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.Body, nil
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, badRequest(fmt.Errorf("Can't read form field \"image\": %v", err))
	}
	return file, nil
}
