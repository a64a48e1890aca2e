package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harentsoaR/dentist-portal/internal/auth"
	"github.com/harentsoaR/dentist-portal/internal/reports"
)

func newReportCmd(a *app) *cobra.Command {
	var format, from, to, dir string
	cmd := &cobra.Command{
		Use:   "report <tipo>",
		Short: "Generar un reporte en PDF o Excel",
		Long:  "Tipos: patients, appointments, treatments, payments, income",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.auth.HasAccess(auth.ModuleReports) {
				if !a.auth.Snapshot().Authenticated() {
					return errLoginRequired
				}
				return fmt.Errorf("su rol no tiene acceso a los reportes")
			}
			kind, err := reports.ParseKind(args[0])
			if err != nil {
				return err
			}
			f, err := reports.ParseFormat(format)
			if err != nil {
				return err
			}
			rng, err := reports.ParseDateRange(from, to)
			if err != nil {
				return err
			}

			art, err := a.gen.Generate(cmd.Context(), reports.Request{Kind: kind, Format: f, Range: rng, Token: a.auth.Token()})
			if err != nil {
				return describe(err)
			}
			if !a.auth.Snapshot().Authenticated() {
				return errLoginRequired
			}

			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			path := filepath.Join(dir, art.Filename)
			if err := os.WriteFile(path, art.Data, 0o644); err != nil {
				return fmt.Errorf("guardar reporte: %w", err)
			}
			fmt.Fprintln(a.out, "Reporte guardado en", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "formato", string(reports.FormatPDF), "pdf o xlsx")
	cmd.Flags().StringVar(&from, "desde", "", "inicio del periodo (AAAA-MM-DD)")
	cmd.Flags().StringVar(&to, "hasta", "", "fin del periodo (AAAA-MM-DD)")
	cmd.Flags().StringVar(&dir, "dir", ".", "carpeta de destino")
	return cmd
}
