// Copyright 2025 Arcentra Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/arcentrix/runstream/pkg/client"
	"github.com/arcentrix/runstream/pkg/env"
	"github.com/arcentrix/runstream/pkg/version"
	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

var (
	server  string
	token   string
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "runstream-cli",
	Short: "runstream cli runs session scripts on a runstream server",
	Long:  "runstream cli runs session scripts on a runstream server",
	Run: func(cmd *cobra.Command, args []string) {
		err := cmd.Help()
		if err != nil {
			return
		}
	},
}

func newClient() *client.Client {
	return client.New(client.Options{BaseURL: server, Token: token, Timeout: timeout})
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(out))
	return nil
}

var runCmd = &cobra.Command{
	Use:   "run <sessionId>",
	Short: "Run the latest script of a session and wait for the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newClient().Run(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

var streamCmd = &cobra.Command{
	Use:   "stream <sessionId>",
	Short: "Run a session and print its output as it arrives",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var failure error
		// stream has no overall timeout; runs can be long
		c := client.New(client.Options{BaseURL: server, Token: token})
		err := c.Stream(cmd.Context(), args[0], func(e client.Event) error {
			switch e.Type {
			case "stdout":
				fmt.Fprintln(cmd.OutOrStdout(), e.Data)
			case "stderr":
				fmt.Fprintln(cmd.ErrOrStderr(), e.Data)
			case "exit":
				if e.ReturnCode != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "exit %d\n", *e.ReturnCode)
				}
			case "complete":
				fmt.Fprintf(cmd.ErrOrStderr(), "artifacts: %s\n", e.SignedURL)
			case "error":
				failure = fmt.Errorf("run failed at %s: %s", e.Stage, e.Message)
			}
			return nil
		})
		if err != nil {
			return err
		}
		return failure
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit <sessionId>",
	Short: "Queue a background run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newClient().Submit(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

var resultCmd = &cobra.Command{
	Use:   "result <sessionId>",
	Short: "Show the stored result of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newClient().Result(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <runId>",
	Short: "Show the state of a background run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newClient().Status(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&server, "server", "s", env.GetEnvString("RUNSTREAM_SERVER", "http://127.0.0.1:8080"), "runstream server address")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("RUNSTREAM_TOKEN"), "bearer token")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Minute, "request timeout")

	rootCmd.AddCommand(version.VersionCmd, runCmd, streamCmd, submitCmd, resultCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
