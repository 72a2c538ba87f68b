package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tobsdb/tdbview/internal/record"
	"github.com/tobsdb/tdbview/internal/view"
)

func newExecCmd(root *rootOptions) *cobra.Command {
	src := &sourceOptions{}

	cmd := &cobra.Command{
		Use:   "exec <script.yaml>",
		Short: "Replay a script of view operations against a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := readScript(args[0])
			if err != nil {
				return err
			}

			collaborator, cleanup, err := src.collaborator(root.cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			opts := root.cfg.ViewOptions()
			opts.Collaborator = collaborator
			opts.Navigator = view.NavigatorFunc(func(id record.ID) error {
				fmt.Fprintln(out, "opening record", id)
				return nil
			})
			ctrl := view.NewController(opts)
			if _, err := ctrl.Refresh(cmd.Context()); err != nil {
				return err
			}

			runner := &scriptRunner{ctrl: ctrl, out: out}
			if err := runner.run(cmd.Context(), s); err != nil {
				return err
			}
			if runner.failed > 0 {
				fmt.Fprintf(out, "%d of %d steps failed\n", runner.failed, len(s.Steps))
			}
			return nil
		},
	}

	src.bind(cmd)
	return cmd
}
