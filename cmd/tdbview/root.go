package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/tobsdb/tdbview/internal/config"
	"github.com/tobsdb/tdbview/internal/conn"
	"github.com/tobsdb/tdbview/internal/mutation"
	"github.com/tobsdb/tdbview/internal/store"
	"github.com/tobsdb/tdbview/pkg"
)

type rootOptions struct {
	config_path string
	log_level   string

	cfg config.Config
}

// sourceOptions say where a command reads its table from.
type sourceOptions struct {
	dataset  string
	remote   string
	table    string
	username string
	password string
}

func (o *sourceOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.dataset, "dataset", "d", "", "YAML or JSON dataset file")
	cmd.Flags().StringVarP(&o.remote, "remote", "r", "", "websocket url of a tdbview server")
	cmd.Flags().StringVarP(&o.table, "table", "t", "", "table to read from the server (default source.table)")
	cmd.Flags().StringVarP(&o.username, "username", "u", "", "server username")
	cmd.Flags().StringVarP(&o.password, "password", "p", "", "server password")
}

// collaborator opens the configured source. cleanup releases it.
func (o *sourceOptions) collaborator(cfg config.Config) (c mutation.Collaborator, cleanup func(), err error) {
	switch {
	case o.remote != "" && o.dataset != "":
		return nil, nil, errors.New("use either --remote or --dataset, not both")
	case o.remote != "":
		table := o.table
		if table == "" {
			table = cfg.Source.Table
		}
		client, err := conn.NewClient(o.remote, table, conn.ClientOptions{Username: o.username, Password: o.password})
		if err != nil {
			return nil, nil, err
		}
		return client, func() { client.Close() }, nil
	case o.dataset != "":
		table, err := loadTable(cfg, o.dataset)
		if err != nil {
			return nil, nil, err
		}
		return table, func() {}, nil
	}
	return nil, nil, errors.New("one of --remote or --dataset is required")
}

// loadTable reads a dataset and narrows it the way the config's source
// section asks.
func loadTable(cfg config.Config, path string) (*store.Table, error) {
	table, err := store.LoadDataset(path)
	if err != nil {
		return nil, err
	}
	if cfg.Source.Table != "" {
		table.Name = cfg.Source.Table
	}
	table.Columns = cfg.Columns(table.Columns)
	table.Limit = cfg.Source.Limit
	pkg.InfoLog("loaded", table.Len(), "records into table", table.Name)
	return table, nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "tdbview",
		Short:         "Browse and edit tabular records",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.config_path)
			if err != nil {
				return err
			}
			if opts.log_level != "" {
				cfg.LogLevel = opts.log_level
			}
			if err := cfg.ApplyLogLevel(); err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}
	cmd.SetContext(context.Background())

	cmd.PersistentFlags().StringVarP(&opts.config_path, "config", "c", "", "config file")
	cmd.PersistentFlags().StringVar(&opts.log_level, "log-level", "", "none | error | debug")

	cmd.AddCommand(newServeCmd(opts), newViewCmd(opts), newExecCmd(opts))
	return cmd
}
