package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tobsdb/tdbview/internal/conn"
	"github.com/tobsdb/tdbview/internal/store"
	"github.com/tobsdb/tdbview/pkg"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var datasets []string
	var addr string
	var save bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve dataset tables over websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg
			if addr == "" {
				addr = cfg.Server.Addr
			}
			if len(datasets) == 0 {
				return errors.New("at least one --dataset is required")
			}

			users, err := cfg.Users()
			if err != nil {
				return err
			}
			if len(users) == 0 {
				pkg.WarnLog("no users configured; every connection can write")
			}

			tables := make([]*store.Table, len(datasets))
			for i, path := range datasets {
				if tables[i], err = loadTable(cfg, path); err != nil {
					return err
				}
				// only the first table takes source.table as its name
				cfg.Source.Table = ""
			}
			server := conn.NewServer(users, tables...)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return server.Listen(ctx, addr) })
			g.Go(func() error {
				<-ctx.Done()
				if !save {
					return nil
				}
				return saveTables(tables, datasets)
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringSliceVarP(&datasets, "dataset", "d", nil, "dataset file to serve, one table each")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default server.addr)")
	cmd.Flags().BoolVar(&save, "save", false, "write tables back to their dataset files on shutdown")
	return cmd
}

func saveTables(tables []*store.Table, paths []string) error {
	for i, t := range tables {
		pkg.DebugLog("writing table", t.Name, "to", paths[i])
		if err := t.WriteToFile(paths[i]); err != nil {
			return err
		}
	}
	return nil
}
