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
	"os"

	postings "github.com/fulltextdb/postings"
	"github.com/spf13/cobra"
)

var store *postings.BakedStore
var table *postings.PostListTable

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "postings",
	Short: "command-line tool to inspect a baked posting-list store",
	Long:  `The postings command-line tool lets you inspect the posting lists inside a baked store file.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 1 {
			return fmt.Errorf("must specify path to baked store file")
		}
		var err error
		store, err = postings.OpenBaked(args[0])
		if err != nil {
			return fmt.Errorf("error opening %s: %v", args[0], err)
		}
		table = postings.NewPostListTable(store)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if store != nil {
			return store.Close()
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(-1)
	}
}
