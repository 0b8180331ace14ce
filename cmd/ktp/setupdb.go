package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/spf13/cobra"

	pgstore "ktp/internal/applicant/persistence/postgres"
	"ktp/internal/platform/config"
)

// duplicateDatabase is the SQLSTATE returned by CREATE DATABASE for an existing name.
const duplicateDatabase = "42P04"

func setupDBCommand() *cobra.Command {
	var adminDB string
	cmd := &cobra.Command{
		Use:   "setup-db",
		Short: "Create the Postgres database and applicants table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				return errors.New("no config found in context")
			}
			if cfg.Postgres.DSN == "" {
				return errors.New("setup-db requires KTP_POSTGRES_DSN")
			}
			return setupDB(cmd.Context(), cfg.Postgres.DSN, adminDB, commonRun(cfg))
		},
	}
	cmd.Flags().StringVar(&adminDB, "admin-db", "postgres", "maintenance database used to issue CREATE DATABASE")
	return cmd
}

// setupDB creates the database named in dsn when missing, then applies the
// applicants schema inside it. Both steps are idempotent.
func setupDB(ctx context.Context, dsn, adminDB string, logger *slog.Logger) error {
	target, err := pgx.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse postgres dsn: %w", err)
	}
	if target.Database == "" {
		return errors.New("postgres dsn must name a database")
	}

	admin := target.Copy()
	admin.Database = adminDB
	adminConn, err := pgx.ConnectConfig(ctx, admin)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", adminDB, err)
	}
	defer adminConn.Close(context.Background())

	created, err := createDatabase(ctx, adminConn, target.Database)
	if err != nil {
		return err
	}
	if created {
		logger.Info("database created", "database", target.Database)
	} else {
		logger.Info("database already exists", "database", target.Database)
	}

	conn, err := pgx.ConnectConfig(ctx, target)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", target.Database, err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, pgstore.Schema); err != nil {
		return fmt.Errorf("apply applicants schema: %w", err)
	}
	logger.Info("applicants table ready", "database", target.Database)
	return nil
}

func createDatabase(ctx context.Context, conn *pgx.Conn, name string) (bool, error) {
	_, err := conn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize())
	if err == nil {
		return true, nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == duplicateDatabase {
		return false, nil
	}
	return false, fmt.Errorf("create database %s: %w", name, err)
}
