package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Abraxas-365/crmturbo/logx"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long:  `Serve the gateway proxy, the webhook and the conversation API over HTTP.`,
	RunE:  runServe,
}

var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "Run as an AWS Lambda function behind an API Gateway HTTP API",
	RunE:  runLambda,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "Listen port (overrides SERVER_PORT)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	settings, err := loadFromFlags(cmd)
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		settings.Port = port
	}

	app, err := buildApplication(cmd.Context(), settings)
	if err != nil {
		return err
	}
	defer app.close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.server.Listen(fmt.Sprintf(":%d", settings.Port))
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logx.Info("Received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.server.Shutdown(shutdownCtx)
}

func runLambda(cmd *cobra.Command, _ []string) error {
	settings, err := loadFromFlags(cmd)
	if err != nil {
		return err
	}
	app, err := buildApplication(context.Background(), settings)
	if err != nil {
		return err
	}
	defer app.close()

	lambda.Start(app.server.LambdaHandler())
	return nil
}
