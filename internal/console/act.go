package console

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pet-admin-sync/internal/domain/entity"
	"pet-admin-sync/internal/sync/bulk"
)

type commandFlags struct {
	target string
	match  string
	reason string
	notes  string
}

func (f *commandFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.target, "target", "", "Status destino (solo override)")
	cmd.Flags().StringVar(&f.match, "match", "", "Id de la entidad a vincular (reports match)")
	cmd.Flags().StringVar(&f.reason, "reason", "", "Motivo")
	cmd.Flags().StringVar(&f.notes, "notes", "", "Notas")
}

func (f *commandFlags) command(action string) entity.Command {
	return entity.Command{
		Action:  strings.TrimSpace(action),
		Target:  strings.TrimSpace(f.target),
		MatchID: strings.TrimSpace(f.match),
		Reason:  strings.TrimSpace(f.reason),
		Notes:   strings.TrimSpace(f.notes),
	}
}

func newActCmd(app *App) *cobra.Command {
	var f commandFlags
	cmd := &cobra.Command{
		Use:   "act <kind> <id> <action>",
		Short: "Ejecutar una acción sobre una entidad",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd, app, false)
			if err != nil {
				return writeErr(cmd, err)
			}
			h, err := handleFor(cmd.Context(), sess, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := h.Act(cmd.Context(), args[1], f.command(args[2])); err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", okStyle.Render("ok"), args[2], args[1])
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func newBulkCmd(app *App) *cobra.Command {
	var (
		f   commandFlags
		yes bool
	)
	cmd := &cobra.Command{
		Use:   "bulk <kind> <action> <id>...",
		Short: "Ejecutar una acción sobre varias entidades",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd, app, false)
			if err != nil {
				return writeErr(cmd, err)
			}
			h, err := handleFor(cmd.Context(), sess, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}

			var gate bulk.Confirmer = bulk.AlwaysConfirm
			if !yes {
				gate = promptGate(cmd)
			}
			res, err := h.BulkAct(cmd.Context(), args[2:], f.command(args[1]), gate)
			if err != nil {
				return writeErr(cmd, err)
			}
			renderResult(cmd.OutOrStdout(), res)
			if res.Outcome == bulk.OutcomeFailed {
				return fmt.Errorf("bulk %s failed for all items", res.Action)
			}
			return nil
		},
	}
	f.bind(cmd)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "No pedir confirmación")
	return cmd
}

// promptGate pide confirmación por stdin mostrando qué se ejecuta y qué se omite.
func promptGate(cmd *cobra.Command) bulk.Confirmer {
	return bulk.ConfirmFunc(func(_ context.Context, p bulk.Prompt) (bool, error) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s sobre %d %s: %s\n", headerStyle.Render(p.Action), len(p.Eligible), p.Kind, strings.Join(p.Eligible, ", "))
		if len(p.Skipped) > 0 {
			fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("se omiten %d no elegibles: %s", len(p.Skipped), strings.Join(p.Skipped, ", "))))
		}
		fmt.Fprint(out, "¿Confirmar? [y/N] ")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return false, nil
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes", "s", "si", "sí":
			return true, nil
		default:
			return false, nil
		}
	})
}
