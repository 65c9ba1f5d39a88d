// Package main is the AWS Lambda entry point for sismoscrape.
//
// The function is meant to be invoked on a schedule (EventBridge). Each
// invocation replaces the contents of the DynamoDB table named by TABLE_NAME
// with the latest reported earthquakes and returns {statusCode, body}.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/nao1215/sismoscrape/internal/config"
	"github.com/nao1215/sismoscrape/internal/handler"
	"github.com/nao1215/sismoscrape/internal/log"
	"github.com/nao1215/sismoscrape/internal/store"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// lambdaConfig returns the defaults for a function invocation, overlaid with
// the environment.
func lambdaConfig(lookup config.LookupFunc) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Store = string(store.KindDynamoDB)
	cfg.LogFormat = config.LogFormatJSON
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context) error {
	cfg, err := lambdaConfig(os.LookupEnv)
	if err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	logger := log.New(os.Stderr, cfg.LogFormat, cfg.Verbose)

	h, err := handler.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer h.Close()

	lambda.StartWithOptions(h.Handle, lambda.WithContext(ctx))
	return nil
}
