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
	"errors"
	"fmt"
	"strconv"

	postings "github.com/fulltextdb/postings"
	"github.com/spf13/cobra"
)

// doclenCmd represents the doclen command
var doclenCmd = &cobra.Command{
	Use:   "doclen [path] [docid]",
	Short: "doclen prints the stored length of the specified document",
	Long:  `The doclen command lets you print the document length stored for the specified docid.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 2 {
			return fmt.Errorf("must specify docid")
		}
		did, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid docid %q: %v", args[1], err)
		}
		length, err := table.GetDocLength(uint32(did))
		if errors.Is(err, postings.ErrDocNotFound) {
			fmt.Printf("docid %d not present\n", did)
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading doclen of %d: %v", did, err)
		}
		fmt.Printf("docid %d doclen %d\n", did, length)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(doclenCmd)
}
