package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/viant/sourcepatch"
	"github.com/viant/sourcepatch/logging"
)

type rootOptions struct {
	configURL string
	baseURL   string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "sourcepatch",
		Short: "Apply machine-proposed patches to source files",
		Long: `sourcepatch applies patches and structural edits to source files.

Tools:
  apply-patch          "*** Begin Patch" multi-file envelope
  diff-patch           line-addressed hunks against one file
  apply-unified-diff   git style multi-file unified diff
  diff-write           overwrite a file
  js-change-property   replace a JavaScript function or property`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configURL, "config", "c", "", "config URL (YAML)")
	cmd.PersistentFlags().StringVarP(&opts.baseURL, "base-url", "b", "", "base URL relative tool paths are resolved against")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	cmd.AddCommand(newToolsCmd(opts), newExecCmd(opts), newDiffCmd())
	return cmd
}

func (o *rootOptions) service(ctx context.Context) (*sourcepatch.Service, error) {
	cfg := sourcepatch.DefaultConfig()
	if o.configURL != "" {
		var err error
		if cfg, err = sourcepatch.LoadConfig(ctx, o.configURL); err != nil {
			return nil, err
		}
	}
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	if o.logLevel != "" {
		cfg.Log = &logging.Config{Level: o.logLevel, Development: true}
	}
	return sourcepatch.NewFromConfig(cfg)
}
