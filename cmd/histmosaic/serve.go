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

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FabianWe/histmosaic"
	"github.com/FabianWe/histmosaic/web"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an HTTP server creating mosaics from uploaded images",
	Long: `Load the sample images once and serve mosaics over HTTP.

Endpoints:
  GET  /health   state of the sample set
  GET  /metrics  available metrics
  POST /mosaic   create a mosaic of the image in the request body
                 (query parameters: metric, format=png|jpeg, quality)

Examples:
  histmosaic serve --sample ./color_set --port 8080
  curl --data-binary @photo.jpg "http://localhost:8080/mosaic?metric=intersection" > mosaic.png`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("bind", "b", "localhost", "bind address")
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	serveCmd.Flags().Duration("timeout", 60*time.Second, "request timeout")

	viper.BindPFlag("server.bind", serveCmd.Flags().Lookup("bind"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.timeout", serveCmd.Flags().Lookup("timeout"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := configFromViper()
	if err := cfg.Validate(); err != nil {
		return err
	}
	samples, err := histmosaic.LoadSamples(cfg)
	if err != nil {
		return err
	}

	webContext := web.NewContext(samples)
	webContext.NumRoutines = cfg.NumRoutines
	webContext.DefaultMetric = cfg.Metric
	webContext.JPEGQuality = cfg.JPEGQuality

	timeout := viper.GetDuration("server.timeout")
	addr := fmt.Sprintf("%s:%d", viper.GetString("server.bind"), viper.GetInt("server.port"))
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      web.NewRouter(webContext, timeout),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	go shutdownOnSignal(httpServer)

	log.WithFields(log.Fields{
		"addr":    addr,
		"samples": samples.Len(),
	}).Info("Starting server")
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("Server error: %v", err)
	}
	return nil
}

func shutdownOnSignal(httpServer *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server shutdown error")
	}
}
