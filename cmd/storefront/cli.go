package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"storefront-client/internal/authapi"
	"storefront-client/internal/config"
	"storefront-client/internal/rbac"
	"storefront-client/internal/session"
	"storefront-client/pkg/logger"

	"github.com/spf13/cobra"
)

// cliConfig loads config for one-shot commands. A memory store would lose the
// session between invocations, so the CLI falls back to a file under $HOME.
func cliConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if cfg.Store.Backend == config.StoreMemory {
		cfg.Store.Backend = config.StoreFile
	}
	if cfg.Store.Backend == config.StoreFile && cfg.Store.Path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return config.Config{}, fmt.Errorf("resolve session path: %w", err)
		}
		cfg.Store.Path = filepath.Join(home, "."+appName, "session.json")
	}
	return cfg, nil
}

// withSession restores the persisted session and runs fn against it.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, err := cliConfig()
	if err != nil {
		return err
	}
	log := logger.NewWithWriter(cfg.App.Env, cmd.ErrOrStderr())
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	a.session.Init(ctx)
	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// password prefers the flag, then STOREFRONT_PASSWORD so it stays out of shell history.
func password(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if v := os.Getenv("STOREFRONT_PASSWORD"); v != "" {
		return v, nil
	}
	return "", errors.New("password required (--password or STOREFRONT_PASSWORD)")
}

func loginCmd() *cobra.Command {
	var phone, pass string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and persist the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := password(pass)
			if err != nil {
				return err
			}
			return withSession(cmd, func(ctx context.Context, a *app) error {
				resp, err := a.session.Login(ctx, authapi.Credentials{PhoneNumber: phone, Password: pw})
				if err != nil {
					return errors.New(session.Message(err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s %s\n", resp.FirstName, resp.LastName)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&pass, "password", "", "password")
	_ = cmd.MarkFlagRequired("phone")
	return cmd
}

func registerCmd() *cobra.Command {
	var req authapi.RegisterRequest
	var pass string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := password(pass)
			if err != nil {
				return err
			}
			req.Password = pw
			return withSession(cmd, func(ctx context.Context, a *app) error {
				resp, err := a.session.Register(ctx, req)
				if err != nil {
					return errors.New(session.Message(err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s\n", resp.PhoneNumber)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.PhoneNumber, "phone", "", "phone number")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&req.Email, "email", "", "email (optional)")
	cmd.Flags().StringVar(&pass, "password", "", "password")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("last-name")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and clear local credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, a *app) error {
				if err := a.session.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the restored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, a *app) error {
				st := a.session.Snapshot()
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"session":   st,
					"userId":    a.session.Inspector().CurrentUserID(ctx),
					"dashboard": rbac.DashboardFor(st.Role),
				})
			})
		},
	}
}

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new token pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, a *app) error {
				if _, err := a.session.Refresh(ctx, session.TriggerManual); err != nil {
					return errors.New(session.Message(err))
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Session refreshed")
				return nil
			})
		},
	}
}

func productsCmd() *cobra.Command {
	var page, size int
	var query string
	cmd := &cobra.Command{
		Use:   "products [id]",
		Short: "List, search or fetch catalog products",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, a *app) error {
				catalog := a.services.Catalog
				if len(args) == 1 {
					id, err := strconv.ParseInt(args[0], 10, 64)
					if err != nil {
						return fmt.Errorf("invalid product id %q", args[0])
					}
					p, err := catalog.Product(ctx, id)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), p)
				}
				if query != "" {
					out, err := catalog.SearchProducts(ctx, query, page, size)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), out)
				}
				out, err := catalog.Products(ctx, page, size)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "page number")
	cmd.Flags().IntVar(&size, "size", 20, "page size")
	cmd.Flags().StringVarP(&query, "query", "q", "", "search keyword")
	return cmd
}
