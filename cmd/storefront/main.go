// Package main is the storefront client binary: a local gateway holding one
// authenticated session, a CLI over a persisted session, and a mock auth
// service for development.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const appName = "storefront"

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	// .env is optional; real env vars win.
	_ = godotenv.Load(".env")

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Storefront session client",
		Long: `storefront keeps an authenticated session against the storefront
backend services: it restores and refreshes tokens, attaches them to every
backend call and recovers once from an expired access token.

Configuration comes from the environment (optionally a .env file).`,
		SilenceUsage: true,
	}

	cmd.AddCommand(
		serveCmd(),
		loginCmd(),
		registerCmd(),
		logoutCmd(),
		whoamiCmd(),
		refreshCmd(),
		productsCmd(),
		mockAuthCmd(),
	)
	return cmd
}
