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

	"github.com/FabianWe/histmosaic"
	"github.com/spf13/cobra"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "List all histogram metrics",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-14s %s\n", "name", "best")
		for _, name := range histmosaic.GetMetricNames() {
			metric, _ := histmosaic.GetMetric(name)
			marker := ""
			if metric.Name == histmosaic.DefaultMetric {
				marker = " (default)"
			}
			fmt.Fprintf(out, "%-14s %s%s\n", metric.Name, metric.Direction, marker)
		}
	},
}

func init() {
	rootCmd.AddCommand(metricsCmd)
}
