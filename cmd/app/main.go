// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/orderflow/cmd/app/commands"
	"github.com/allisson/orderflow/internal/config"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:     "app",
		Usage:    "Durable order lifecycle controller",
		Version:  version,
		Commands: getCommands(),
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}

func getCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server, shipping dispatcher, and order recovery",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
				return commands.RunMigrations(logger, cfg.DBDriver, cfg.DBConnectionString)
			},
		},
		{
			Name:  "start-order",
			Usage: "Start the lifecycle of an order",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "order-id",
					Aliases:  []string{"o"},
					Required: true,
					Usage:    "Order ID",
				},
				&cli.StringFlag{
					Name:     "payment-id",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "Payment ID used as the idempotency key for the charge",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunStartOrder(
					ctx,
					commands.DefaultIO(),
					cmd.String("order-id"),
					cmd.String("payment-id"),
				)
			},
		},
		{
			Name:  "approve",
			Usage: "Approve an order waiting in manual review",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "order-id",
					Aliases:  []string{"o"},
					Required: true,
					Usage:    "Order ID",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunApproveOrder(ctx, commands.DefaultIO(), cmd.String("order-id"))
			},
		},
		{
			Name:  "cancel",
			Usage: "Cancel an order with an optional reason",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "order-id",
					Aliases:  []string{"o"},
					Required: true,
					Usage:    "Order ID",
				},
				&cli.StringFlag{
					Name:    "reason",
					Aliases: []string{"r"},
					Value:   "",
					Usage:   "Cancellation reason recorded on the order",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunCancelOrder(
					ctx,
					commands.DefaultIO(),
					cmd.String("order-id"),
					cmd.String("reason"),
				)
			},
		},
		{
			Name:  "update-address",
			Usage: "Update the shipping address of an order before it ships",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "order-id",
					Aliases:  []string{"o"},
					Required: true,
					Usage:    "Order ID",
				},
				&cli.StringFlag{
					Name:     "line1",
					Required: true,
					Usage:    "Street address",
				},
				&cli.StringFlag{
					Name:     "city",
					Required: true,
					Usage:    "City",
				},
				&cli.StringFlag{
					Name:     "state",
					Required: true,
					Usage:    "State or region",
				},
				&cli.StringFlag{
					Name:     "zip",
					Required: true,
					Usage:    "Postal code",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunUpdateAddress(
					ctx,
					commands.DefaultIO(),
					cmd.String("order-id"),
					cmd.String("line1"),
					cmd.String("city"),
					cmd.String("state"),
					cmd.String("zip"),
				)
			},
		},
		{
			Name:  "status",
			Usage: "Show the current state of an order",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "order-id",
					Aliases:  []string{"o"},
					Required: true,
					Usage:    "Order ID",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunOrderStatus(ctx, commands.DefaultIO(), cmd.String("order-id"))
			},
		},
		{
			Name:  "events",
			Usage: "List the audit log of an order, newest first",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "order-id",
					Aliases:  []string{"o"},
					Required: true,
					Usage:    "Order ID",
				},
				&cli.IntFlag{
					Name:  "offset",
					Value: 0,
					Usage: "Pagination offset",
				},
				&cli.IntFlag{
					Name:  "limit",
					Value: 50,
					Usage: "Pagination limit",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunOrderEvents(
					ctx,
					commands.DefaultIO(),
					cmd.String("order-id"),
					cmd.Int("offset"),
					cmd.Int("limit"),
				)
			},
		},
	}
}
