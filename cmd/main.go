package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/yungbote/modelhub-backend/internal/app"
	"github.com/yungbote/modelhub-backend/internal/data/repos"
	"github.com/yungbote/modelhub-backend/internal/platform/dbctx"
	"github.com/yungbote/modelhub-backend/internal/platform/envutil"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
	"github.com/yungbote/modelhub-backend/internal/services"
)

func main() {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	root := &cli.Command{
		Name:  "modelhub",
		Usage: "Collaborative model registry and aggregation server",
		Commands: []*cli.Command{
			serveCommand(log),
			migrateCommand(log),
			seedRolesCommand(log),
			createUserCommand(log),
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, log)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.Run(ctx, os.Args); err != nil {
		log.Error("command failed", "error", err)
		log.Sync()
		os.Exit(1)
	}
}

func serveCommand(log *logger.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, log)
		},
	}
}

func serve(ctx context.Context, log *logger.Logger) error {
	a, err := app.New(ctx, log)
	if err != nil {
		return err
	}
	defer a.Close()
	a.Start(ctx)
	return a.Run(ctx)
}

func migrateCommand(log *logger.Logger) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create tables and indexes, then seed roles",
		Action: func(ctx context.Context, c *cli.Command) error {
			svc, _, err := app.OpenDatabase(log)
			if err != nil {
				return err
			}
			defer svc.Close()
			return app.MigrateAndSeed(ctx, log, svc)
		},
	}
}

func seedRolesCommand(log *logger.Logger) *cli.Command {
	return &cli.Command{
		Name:  "seed-roles",
		Usage: "Insert the fixed role rows",
		Action: func(ctx context.Context, c *cli.Command) error {
			svc, _, err := app.OpenDatabase(log)
			if err != nil {
				return err
			}
			defer svc.Close()
			return repos.NewRoleRepo(svc.DB(), log).Seed(dbctx.Context{Ctx: ctx})
		},
	}
}

func createUserCommand(log *logger.Logger) *cli.Command {
	return &cli.Command{
		Name:  "create-user",
		Usage: "Create a user with a bcrypt-hashed password",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true},
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true, Sources: cli.EnvVars("MODELHUB_USER_PASSWORD")},
			&cli.StringFlag{Name: "role", Value: "Visitor", Usage: "Visitor, Member, Researcher or Admin"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			svc, cfg, err := app.OpenDatabase(log)
			if err != nil {
				return err
			}
			defer svc.Close()
			set := repos.NewSet(svc.DB(), log)
			auth := services.NewAuthService(log, set.Users, set.Roles, cfg.JWTSecretKey)
			u, err := auth.CreateUser(ctx, services.CreateUserRequest{
				Username: c.String("username"),
				Email:    c.String("email"),
				Password: c.String("password"),
				RoleName: c.String("role"),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "created user %s (%s)\n", u.Username, u.ID)
			return nil
		},
	}
}
