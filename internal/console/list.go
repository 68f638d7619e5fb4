package console

import (
	"github.com/spf13/cobra"

	"pet-admin-sync/internal/sync/view"
)

func newListCmd(app *App) *cobra.Command {
	var q view.Query
	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "Listar entidades con búsqueda, filtro y orden",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd, app, false)
			if err != nil {
				return writeErr(cmd, err)
			}
			h, err := handleFor(cmd.Context(), sess, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			renderRows(cmd.OutOrStdout(), h.Rows(q))
			return nil
		},
	}
	cmd.Flags().StringVar(&q.Search, "search", "", "Texto libre")
	cmd.Flags().StringSliceVar(&q.Statuses, "status", nil, "Filtrar por status (repetible)")
	cmd.Flags().StringVar(&q.Sort, "sort", "", "Campo de orden (según dominio)")
	cmd.Flags().BoolVar(&q.Desc, "desc", false, "Orden descendente")
	cmd.Flags().IntVar(&q.Page, "page", 1, "Página (desde 1)")
	cmd.Flags().IntVar(&q.PageSize, "page-size", view.DefaultPageSize, "Tamaño de página")
	cmd.Flags().BoolVar(&q.IncludeArchived, "include-archived", false, "Incluir archivados")
	return cmd
}
