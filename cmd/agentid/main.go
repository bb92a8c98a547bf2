// Package main is the entry point for the agentid CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "agentid",
	Short: "AgentID Verification & Trust Core CLI",
	Long: `The verification and trust core for the AgentID ecosystem.
Issues and verifies agent credentials, tracks agent and issuer reputation,
and analyzes verification activity.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: agentid.yaml if present)")
}
