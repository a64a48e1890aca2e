package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harentsoaR/dentist-portal/internal/auth"
	"github.com/harentsoaR/dentist-portal/internal/guard"
	"github.com/harentsoaR/dentist-portal/internal/models"
)

// passwordEnv lets scripts avoid putting the password on the command line.
const passwordEnv = "DENTCTL_PASSWORD"

func passwordFrom(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if v := os.Getenv(passwordEnv); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("indique la contraseña con --password o %s", passwordEnv)
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Iniciar sesión",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := passwordFrom(password)
			if err != nil {
				return err
			}
			if !a.auth.Login(cmd.Context(), email, pw) {
				msg := a.auth.Snapshot().Error
				a.auth.ClearError()
				return errors.New(msg)
			}
			s := a.auth.Snapshot()
			fmt.Fprintf(a.out, "Bienvenido, %s (%s)\n", s.User.FullName(), roleName(s.Role()))
			fmt.Fprintf(a.out, "Su panel: %s\n", landingName(s.Role()))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "correo", "", "correo electrónico")
	cmd.Flags().StringVar(&password, "password", "", "contraseña (o "+passwordEnv+")")
	_ = cmd.MarkFlagRequired("correo")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Cerrar sesión y borrar las credenciales locales",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.auth.Logout(cmd.Context())
			fmt.Fprintln(a.out, "Sesión cerrada")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Mostrar el usuario de la sesión actual",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			s := a.auth.Snapshot()
			if !s.Authenticated() {
				return errLoginRequired
			}
			modules := auth.Modules(s.Role())
			names := make([]string, 0, len(modules))
			for _, m := range modules {
				names = append(names, string(m))
			}
			t := newTable(a.out)
			t.row("Nombre", s.User.FullName())
			t.row("Correo", s.User.Email)
			t.row("Rol", roleName(s.Role()))
			t.row("Módulos", joinComma(names))
			return t.flush()
		},
	}
}

func newRegisterCmd(a *app) *cobra.Command {
	var req models.RegisterRequest
	var password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Crear una cuenta de paciente",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := passwordFrom(password)
			if err != nil {
				return err
			}
			req.Password = pw
			if !a.auth.Register(cmd.Context(), req) {
				msg := a.auth.Snapshot().Error
				a.auth.ClearError()
				return errors.New(msg)
			}
			fmt.Fprintln(a.out, "Cuenta creada. Ingrese con: dentctl login --correo", req.Email)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.GivenName, "nombre", "", "nombre")
	f.StringVar(&req.FamilyName, "apellido", "", "apellido")
	f.StringVar(&req.Email, "correo", "", "correo electrónico")
	f.StringVar(&req.Phone, "telefono", "", "teléfono")
	f.StringVar(&req.BirthDate, "nacimiento", "", "fecha de nacimiento (AAAA-MM-DD)")
	f.StringVar(&req.Address, "direccion", "", "dirección")
	f.StringVar(&password, "password", "", "contraseña (o "+passwordEnv+")")
	for _, name := range []string{"nombre", "apellido", "correo"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func roleName(r models.Role) string {
	switch r {
	case models.RoleAdmin:
		return "Administrador"
	case models.RoleDentist:
		return "Odontólogo"
	case models.RolePatient:
		return "Paciente"
	}
	return string(r)
}

func landingName(r models.Role) string {
	if p, ok := guard.PageAt(guard.Landing(r)); ok {
		return p.Name
	}
	return "dashboard"
}
