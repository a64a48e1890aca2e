// Command dentctl is a terminal client for the clinic backend. It shares the
// portal's session rules: credentials live in a local file, are verified once
// per invocation and are discarded when the backend rejects them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/harentsoaR/dentist-portal/internal/apiclient"
	"github.com/harentsoaR/dentist-portal/internal/auth"
	"github.com/harentsoaR/dentist-portal/internal/config"
	"github.com/harentsoaR/dentist-portal/internal/errs"
	"github.com/harentsoaR/dentist-portal/internal/reports"
	"github.com/harentsoaR/dentist-portal/internal/session"
	"github.com/harentsoaR/dentist-portal/pkg/logger"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app is built once per invocation by the root command.
type app struct {
	cfg  *config.Config
	log  zerolog.Logger
	api  *apiclient.Client
	auth *auth.Context
	gen  *reports.Generator
	kv   *session.FileKV
	out  io.Writer

	// patientID selects the history shown by the records page.
	patientID string
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out}
	var verbose bool

	root := &cobra.Command{
		Use:           "dentctl",
		Short:         "Cliente de terminal de la clínica dental",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := a.init(cmd.Context(), errOut, verbose)
			if err != nil {
				return err
			}
			cmd.SetContext(ctx)
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "mostrar el registro de depuración")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newRegisterCmd(a),
		newViewCmd(a),
		newReportCmd(a),
	)

	return root
}

func (a *app) init(ctx context.Context, errOut io.Writer, verbose bool) (context.Context, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	a.cfg = cfg
	a.log = logger.Init(logger.Options{Level: level, Pretty: true, Service: "dentctl", Output: errOut})
	a.kv = session.NewFileKV(cfg.StorageDir())
	a.api = apiclient.New(apiclient.Options{
		BaseURL:  cfg.APIURL,
		Timeout:  cfg.APITimeout,
		DevMode:  cfg.DevMode,
		DevDelay: cfg.DevDelay,
		OnUnauthorized: func(ctx context.Context, token string) {
			if ac, ok := auth.FromContext(ctx); ok {
				ac.LogoutIfToken(ctx, token)
			}
		},
		Logger: a.log,
	})
	a.auth = auth.New(a.api, session.NewStore(a.kv), a.log)
	a.gen = reports.NewGenerator(a.api, a.log)

	ctx = auth.WithContext(ctx, a.auth)
	a.auth.Hydrate(ctx)
	return ctx, nil
}

var errLoginRequired = errors.New("no hay una sesión activa; ingrese con: dentctl login")

// describe turns backend failures into messages for the terminal.
func describe(err error) error {
	if errors.Is(err, errs.ErrUnauthorized) {
		return errors.New("su sesión expiró; ingrese de nuevo con: dentctl login")
	}
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		return errors.New(apiErr.UserMessage())
	}
	return err
}
