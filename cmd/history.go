// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"

	"github.com/penny-vault/pv-pricing/api"
	"github.com/spf13/cobra"
)

var (
	historyDataset string
	historyField   string
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyDataset, "dataset", "TREOD", "dataset to query")
	historyCmd.Flags().StringVar(&historyField, "field", "adjustedTradePrice", "dataset field to print")
}

var historyCmd = &cobra.Command{
	Use:   "history <ric>",
	Short: "Print the history of a dataset field for an asset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := api.SessionFromConfig()
		if err != nil {
			return err
		}

		df, err := session.History(cmd.Context(), historyDataset, args[0], historyField)
		if err != nil {
			return err
		}

		fmt.Println(df.Table())
		return nil
	},
}
