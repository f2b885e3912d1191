package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/viant/sourcepatch"
)

var errToolFailed = errors.New("tool failed")

func newExecCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exec TOOL [ARGS_JSON|-]",
		Short: "Run a tool with JSON arguments; arguments are read from stdin when omitted or '-'",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload []byte
			if len(args) == 2 && args[1] != "-" {
				payload = []byte(args[1])
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				payload = data
			}
			srv, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = srv.Close(cmd.Context()) }()
			output := srv.Execute(cmd.Context(), args[0], payload)
			fmt.Fprintln(cmd.OutOrStdout(), string(output))
			result := &sourcepatch.Result{}
			if err = json.Unmarshal(output, result); err != nil {
				return err
			}
			if !result.OK {
				return errToolFailed
			}
			return nil
		},
	}
}
