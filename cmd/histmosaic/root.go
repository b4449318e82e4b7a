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
	"errors"
	"strings"

	"github.com/FabianWe/histmosaic"
	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "histmosaic",
	Short: "Create a photomosaic by matching color histograms",
	Long: `histmosaic divides a target image into tiles of a fixed size and replaces
each tile by the sample image whose color histogram matches best.

Examples:
  # Mosaic with the default sample directory ./color_set
  histmosaic --i photo.jpg --o mosaic.jpg

  # 32x32 tiles, chi-squared metric, samples scaled to the tile size
  histmosaic --i photo.jpg --width 32 --height 32 --opt chi-squared --policy resize

  # Cache the sample histograms between runs
  histmosaic --i photo.jpg --sample ~/pictures --recursive --gch ~/pictures/gch.gob`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if viper.GetBool("verbose") {
			log.SetLevel(log.DebugLevel)
		}
	},
	RunE: runMosaic,
}

func init() {
	cobra.OnInitialize(initConfig)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	def := histmosaic.DefaultConfig()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.histmosaic.yaml)")
	flags.Bool("verbose", false, "print debug output")
	flags.String("sample", def.SampleDir, "directory containing the sample images")
	flags.String("type", def.Filter, "regular expression (case-insensitive) sample file names must contain")
	flags.Bool("recursive", def.Recursive, "search the sample directory recursively")
	flags.Int("width", def.TileWidth, "tile width in pixels")
	flags.Int("height", def.TileHeight, "tile height in pixels")
	flags.Uint("bins", def.Bins, "histogram buckets per color channel")
	flags.String("opt", def.Metric, "histogram metric, see \"histmosaic metrics\"")
	flags.String("policy", def.Policy, "sample policy (crop|resize)")
	flags.String("resizer", def.Resizer, "resize engine for the resize policy (imaging|nfnt)")
	flags.Uint("interp", def.Interp, "interpolation quality of the nfnt resizer (0-5)")
	flags.Int("routines", def.NumRoutines, "number of worker go routines")
	flags.String("gch", "", "histogram cache file (.gob or .json) or directory")

	rootCmd.Flags().String("i", "", "target image (required)")
	rootCmd.Flags().String("o", def.Output, "output image, the format is chosen by extension")
	rootCmd.Flags().Int("quality", def.JPEGQuality, "jpeg quality of the output")

	for _, name := range []string{"verbose", "sample", "type", "recursive", "width", "height",
		"bins", "opt", "policy", "resizer", "interp", "routines", "gch"} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
	for _, name := range []string{"i", "o", "quality"} {
		viper.BindPFlag(name, rootCmd.Flags().Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(expandPath(cfgFile))
	} else {
		home, err := homedir.Dir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName(".histmosaic")
	}

	viper.SetEnvPrefix("histmosaic")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.WithField("file", viper.ConfigFileUsed()).Info("Using config file")
	}
}

func expandPath(path string) string {
	if path == "" {
		return path
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		log.WithFields(log.Fields{
			"path":       path,
			log.ErrorKey: err,
		}).Warn("Can't expand path")
		return path
	}
	return expanded
}

// configFromViper builds the mosaic configuration from flags, environment and
// config file.
func configFromViper() histmosaic.Config {
	cfg := histmosaic.DefaultConfig()
	cfg.Target = expandPath(viper.GetString("i"))
	cfg.SampleDir = expandPath(viper.GetString("sample"))
	cfg.Filter = viper.GetString("type")
	cfg.Recursive = viper.GetBool("recursive")
	cfg.Output = expandPath(viper.GetString("o"))
	cfg.TileWidth = viper.GetInt("width")
	cfg.TileHeight = viper.GetInt("height")
	cfg.Bins = viper.GetUint("bins")
	cfg.Metric = viper.GetString("opt")
	cfg.Policy = viper.GetString("policy")
	cfg.Resizer = viper.GetString("resizer")
	cfg.Interp = viper.GetUint("interp")
	cfg.NumRoutines = viper.GetInt("routines")
	cfg.GCHFile = expandPath(viper.GetString("gch"))
	if q := viper.GetInt("quality"); q != 0 {
		cfg.JPEGQuality = q
	}
	return cfg
}

func runMosaic(cmd *cobra.Command, args []string) error {
	cfg := configFromViper()
	if cfg.Target == "" {
		return errors.New("No target image given (use --i)")
	}
	if err := histmosaic.Run(cfg); err != nil {
		log.WithError(err).Error("Can't create mosaic")
		return err
	}
	return nil
}
