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

	postings "github.com/fulltextdb/postings"
	"github.com/spf13/cobra"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats [path]",
	Short: "stats prints per-term chunk counts for the whole store",
	Long:  `The stats command walks every key in the store and prints the chunk count and aggregates of each posting list.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cursor := store.Cursor()
		cursor.FindEntry(nil)

		curTerm := ""
		chunks := 0
		haveTerm := false
		flush := func() error {
			if !haveTerm {
				return nil
			}
			termfreq, collfreq, err := table.GetFreqs(curTerm)
			if err != nil {
				return err
			}
			name := curTerm
			if name == "" {
				name = "<doclen list>"
			}
			fmt.Printf("%-30s chunks %-6d termfreq %-10d collfreq %d\n",
				name, chunks, termfreq, collfreq)
			return nil
		}

		for cursor.Next() {
			term, _, _, err := postings.ParseChunkKey(cursor.Key())
			if err != nil {
				return fmt.Errorf("error parsing key % x: %v", cursor.Key(), err)
			}
			if !haveTerm || term != curTerm {
				if err := flush(); err != nil {
					return err
				}
				curTerm = term
				chunks = 0
				haveTerm = true
			}
			chunks++
		}
		if err := flush(); err != nil {
			return err
		}
		fmt.Printf("%d keys total\n", store.Len())
		return nil
	},
}

func init() {
	RootCmd.AddCommand(statsCmd)
}
