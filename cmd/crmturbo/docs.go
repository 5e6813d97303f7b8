package main

import (
	"github.com/Abraxas-365/crmturbo/docx"
	"github.com/Abraxas-365/crmturbo/server"
	"github.com/spf13/cobra"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Print the endpoint catalogue with curl examples as Markdown",
	RunE: func(cmd *cobra.Command, _ []string) error {
		baseURL, _ := cmd.Flags().GetString("base-url")
		return docx.WriteMarkdown(cmd.OutOrStdout(), baseURL, server.Catalogue()...)
	},
}

func init() {
	docsCmd.Flags().String("base-url", "http://localhost:8080", "Base URL used in the curl examples")
}
