package main

import (
	"github.com/spf13/cobra"
	"github.com/tobsdb/tdbview/internal/query"
	"github.com/tobsdb/tdbview/internal/view"
)

func newViewCmd(root *rootOptions) *cobra.Command {
	src := &sourceOptions{}
	var search, sort_field string
	var desc bool
	var page, page_size int

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Print one page of a table",
		RunE: func(cmd *cobra.Command, args []string) error {
			collaborator, cleanup, err := src.collaborator(root.cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			opts := root.cfg.ViewOptions()
			opts.Collaborator = collaborator
			ctrl := view.NewController(opts)
			if _, err := ctrl.Refresh(cmd.Context()); err != nil {
				return err
			}

			if cmd.Flags().Changed("page-size") {
				if _, err := ctrl.SetPageSize(page_size); err != nil {
					return err
				}
			}
			ctrl.Search(search)
			if sort_field != "" {
				dir := query.DirectionAsc
				if desc {
					dir = query.DirectionDesc
				}
				ctrl.Sort(sort_field, dir)
			}
			snap := ctrl.Snapshot()
			for i := 1; i < page; i++ {
				snap = ctrl.NextPage()
			}

			renderSnapshot(cmd.OutOrStdout(), snap)
			return nil
		},
	}

	src.bind(cmd)
	cmd.Flags().StringVarP(&search, "search", "s", "", "only show records with a value containing this")
	cmd.Flags().StringVar(&sort_field, "sort", "", "field to sort by")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	cmd.Flags().IntVar(&page, "page", 1, "page to show")
	cmd.Flags().IntVar(&page_size, "page-size", 0, "records per page (default view.page_size)")
	return cmd
}
