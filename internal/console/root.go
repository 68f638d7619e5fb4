// Package console es la CLI del operador: lista, actúa y observa los cuatro
// dominios a través del engine de sincronización.
package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pet-admin-sync/internal/domain/entity"
	"pet-admin-sync/internal/platform/config"
	"pet-admin-sync/internal/platform/logger"
	"pet-admin-sync/internal/sync/engine"
)

type App struct {
	APIURL string
	WSURL  string
	Actor  string
	Role   string
	Token  string

	BulkConcurrency int
	ReconcileEvery  time.Duration
	RequestTimeout  time.Duration

	Log logger.Logger
}

func NewRootCmd() *cobra.Command {
	cfg, cfgErr := config.LoadConsole()
	app := &App{
		APIURL:          cfg.APIURL,
		WSURL:           cfg.WSURL,
		Actor:           cfg.ActorRef,
		Role:            cfg.Role,
		Token:           cfg.Token,
		BulkConcurrency: cfg.BulkConcurrency,
		ReconcileEvery:  cfg.ReconcileEvery,
		RequestTimeout:  cfg.RequestTimeout,
		Log:             logger.NewFromEnv("pet-admin-console"),
	}

	cmd := &cobra.Command{
		Use:          "petadmin",
		Short:        "Consola de administración: citas, reportes, mascotas y usuarios",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Listar citas pendientes
  petadmin list appointments --status pending

  # Confirmar una cita
  petadmin act appointments appt-1 confirm

  # Aprobar varios profesionales (pide confirmación)
  petadmin bulk users approve pro-1 pro-2

  # Seguir los cambios en vivo
  petadmin watch reports
`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfgErr
		},
	}

	cmd.PersistentFlags().StringVar(&app.APIURL, "api", app.APIURL, "Base URL del backend")
	cmd.PersistentFlags().StringVar(&app.WSURL, "ws", app.WSURL, "URL del canal push (default: derivada de --api)")
	cmd.PersistentFlags().StringVar(&app.Actor, "actor", app.Actor, "Actor id del operador")
	cmd.PersistentFlags().StringVar(&app.Role, "role", app.Role, "Rol del operador (admin|professional|owner)")
	cmd.PersistentFlags().StringVar(&app.Token, "token", app.Token, "Bearer token")

	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newActCmd(app))
	cmd.AddCommand(newBulkCmd(app))
	cmd.AddCommand(newWatchCmd(app))
	return cmd
}

// openSession arma la sesión. Sin push salvo que withPush.
func openSession(cmd *cobra.Command, app *App, withPush bool) (*engine.Session, error) {
	role, ok := entity.ParseRole(app.Role)
	if !ok {
		return nil, fmt.Errorf("invalid role %q (admin|professional|owner)", app.Role)
	}
	ws := ""
	if withPush {
		ws = app.WSURL
		if strings.TrimSpace(ws) == "" || (!cmd.Flags().Changed("ws") && cmd.Flags().Changed("api")) {
			ws = config.DeriveWSURL(app.APIURL)
		}
	}
	return engine.NewSession(engine.SessionConfig{
		APIURL:          app.APIURL,
		WSURL:           ws,
		Scope:           entity.Scope{ActorRef: strings.TrimSpace(app.Actor), Role: role},
		Token:           app.Token,
		BulkConcurrency: app.BulkConcurrency,
		ReconcileEvery:  app.ReconcileEvery,
		RequestTimeout:  app.RequestTimeout,
		Logger:          app.Log,
	})
}

// handleFor resuelve el dominio y hace el fetch inicial solo de ese dominio.
func handleFor(ctx context.Context, sess *engine.Session, kind string) (engine.Handle, error) {
	k, ok := entity.ParseKind(kind)
	if !ok {
		return nil, fmt.Errorf("unknown kind %q (appointments|reports|pets|users)", kind)
	}
	h, _ := sess.Handle(k)
	if err := h.Refresh(ctx); err != nil {
		return nil, err
	}
	return h, nil
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render(err.Error()))
	return err
}
