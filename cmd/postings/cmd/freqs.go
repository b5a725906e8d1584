//  Copyright (c) 2026 FullTextDB, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// 		http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// freqsCmd represents the freqs command
var freqsCmd = &cobra.Command{
	Use:   "freqs [path] [term]",
	Short: "freqs prints the termfreq and collfreq of the specified term",
	Long:  `The freqs command lets you print the aggregates stored in the first chunk of the specified term's posting list.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 2 {
			return fmt.Errorf("must specify term")
		}
		termfreq, collfreq, err := table.GetFreqs(args[1])
		if err != nil {
			return fmt.Errorf("error reading freqs of %q: %v", args[1], err)
		}
		fmt.Printf("term %q termfreq %d collfreq %d\n", args[1], termfreq, collfreq)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(freqsCmd)
}
