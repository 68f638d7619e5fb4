package console

import (
	"fmt"

	"github.com/spf13/cobra"

	"pet-admin-sync/internal/sync/view"
)

func newWatchCmd(app *App) *cobra.Command {
	var q view.Query
	cmd := &cobra.Command{
		Use:   "watch <kind>",
		Short: "Seguir un dominio en vivo vía el canal push",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := openSession(cmd, app, true)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer sess.Close()

			h, err := handleFor(ctx, sess, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}

			changed := make(chan struct{}, 1)
			cancel := h.Watch(func() {
				select {
				case changed <- struct{}{}:
				default:
				}
			})
			defer cancel()

			sess.Start(ctx)
			out := cmd.OutOrStdout()
			renderRows(out, h.Rows(q))
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-changed:
					fmt.Fprintln(out)
					renderRows(out, h.Rows(q))
				}
			}
		},
	}
	cmd.Flags().StringVar(&q.Search, "search", "", "Texto libre")
	cmd.Flags().StringSliceVar(&q.Statuses, "status", nil, "Filtrar por status")
	cmd.Flags().StringVar(&q.Sort, "sort", "", "Campo de orden")
	cmd.Flags().IntVar(&q.PageSize, "page-size", view.DefaultPageSize, "Tamaño de página")
	return cmd
}
