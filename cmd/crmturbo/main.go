package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "crmturbo",
	Short: "WhatsApp gateway proxy, webhook and conversation store for the CRM panel",
	Long: `crmturbo fronts an Evolution API gateway for the CRM panel.

It proxies authenticated panel actions to the gateway, ingests the
gateway's messages.upsert webhook into per-contact conversations and
serves the conversation list to the panel.

Examples:
  crmturbo serve --port 8080
  crmturbo migrate
  crmturbo gateway getInstanceStatus --instance crm-turbo
  crmturbo status crm-turbo sales-team
  crmturbo docs --base-url https://api.example.com`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lambdaCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(gatewayCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(docsCmd)

	rootCmd.PersistentFlags().String("env-file", ".env", "Dotenv file read before the environment")
}

func loadFromFlags(cmd *cobra.Command) (Settings, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	return LoadSettings(envFile, nil)
}
