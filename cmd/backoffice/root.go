package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/backoffice-ingest/cmd/api"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/conversion"
	importrepo "github.com/FACorreiaa/backoffice-ingest/internal/domain/import/repository"
	"github.com/FACorreiaa/backoffice-ingest/pkg/config"
	"github.com/FACorreiaa/backoffice-ingest/pkg/db"
)

// cli carries what every subcommand shares.
type cli struct {
	logger  *slog.Logger
	verbose bool
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:          "backoffice",
		Short:        "Ingest dispute data into the back-office database",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if c.verbose {
				level = slog.LevelDebug
			}
			c.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}
	cmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log debug output to stderr")

	cmd.AddCommand(
		c.newDetectCmd(),
		c.newClassifyCmd(),
		c.newConvertCmd(),
		c.newImportCmd(),
		c.newMigrateCmd(),
	)
	return cmd
}

// readInput reads the named file, or stdin when name is empty or "-".
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(b), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// openStore loads the configuration and connects to the database.
func (c *cli) openStore() (*config.Config, *db.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	database, err := db.New(db.Config{
		DSN:      cfg.Database.DSN(),
		MaxConns: 4,
	}, c.logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, database, nil
}

func (c *cli) newConvertCmd() *cobra.Command {
	var year, tablesPath string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Fill the base-currency amount of every dispute of a year",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, database, err := c.openStore()
			if err != nil {
				return err
			}
			defer database.Close()

			if tablesPath == "" {
				tablesPath = cfg.Conversion.TablesPath
			}
			tables, err := api.LoadConversionTables(tablesPath)
			if err != nil {
				return err
			}

			svc := conversion.NewService(conversion.NewPostgresRepository(database.Pool), tables, c.logger)
			res, err := svc.ConvertByYear(cmd.Context(), strings.TrimSpace(year))
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&year, "year", "", "year whose disputes are converted")
	cmd.Flags().StringVar(&tablesPath, "tables", "", "YAML file overriding the built-in rate tables")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}

func (c *cli) newImportCmd() *cobra.Command {
	var table, file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load the first sheet of an xlsx workbook into a table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, database, err := c.openStore()
			if err != nil {
				return err
			}
			defer database.Close()

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open workbook: %w", err)
			}
			defer f.Close()

			tables, err := api.LoadConversionTables(cfg.Conversion.TablesPath)
			if err != nil {
				return err
			}
			svc := api.NewImportService(cfg, importrepo.NewPostgresImportRepository(database.Pool), tables, c.logger)

			res, err := svc.ImportSheet(cmd.Context(), table, f.Name(), f)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&table, "table", "aclaraciones", "destination table")
	cmd.Flags().StringVar(&file, "file", "", "path to the .xlsx workbook")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (c *cli) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, database, err := c.openStore()
			if err != nil {
				return err
			}
			defer database.Close()
			return database.RunMigrations()
		},
	}
}
