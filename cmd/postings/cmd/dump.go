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

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump [path] [term]",
	Short: "dump prints every (docid, wdf) entry of the specified term",
	Long: `The dump command lets you print every entry of the specified term's
posting list, or of the document length list when no term is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		term := ""
		if len(args) > 1 {
			term = args[1]
		}
		pl, err := table.OpenPostList(term)
		if err != nil {
			return fmt.Errorf("error opening posting list for %q: %v", term, err)
		}
		count := 0
		for pl.Next() {
			fmt.Printf("docid %d wdf %d\n", pl.DocID(), pl.WDF())
			count++
		}
		if err := pl.Err(); err != nil {
			return fmt.Errorf("error iterating posting list for %q: %v", term, err)
		}
		fmt.Printf("%d entries (header termfreq %d)\n", count, pl.Count())
		return nil
	},
}

func init() {
	RootCmd.AddCommand(dumpCmd)
}
