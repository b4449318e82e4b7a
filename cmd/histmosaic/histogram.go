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
	"fmt"
	"time"

	"github.com/FabianWe/histmosaic"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var histogramCmd = &cobra.Command{
	Use:   "histogram <image>",
	Short: "Print the color histogram of an image",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistogram,
}

func init() {
	rootCmd.AddCommand(histogramCmd)
}

func runHistogram(cmd *cobra.Command, args []string) error {
	k := viper.GetUint("bins")
	if err := histmosaic.CheckBins(k); err != nil {
		return err
	}
	verbose := viper.GetBool("verbose")
	out := cmd.OutOrStdout()

	img, err := histmosaic.LoadImage(expandPath(args[0]))
	if err != nil {
		return err
	}
	start := time.Now()
	hist := histmosaic.GenHistogram(img, k)
	execTime := time.Since(start)
	fmt.Fprintln(out, "Histogram:")
	hist.PrintInfo(out, verbose)

	bounds := img.Bounds()
	if bounds.Empty() {
		fmt.Fprintln(out, "No data found")
	} else {
		normalized := hist.Normalize(bounds.Dx() * bounds.Dy())
		fmt.Fprintln(out, "Normalized histogram:")
		normalized.PrintInfo(out, verbose)
		fmt.Fprintf(out, "Sum of all entries is %.2f\n", normalized.EntrySum())
	}
	fmt.Fprintln(out, "Done after", execTime)
	return nil
}
