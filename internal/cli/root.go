package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/credigo/credigo/internal/config"
	"github.com/credigo/credigo/internal/db"
	"github.com/credigo/credigo/internal/db/memory"
	"github.com/credigo/credigo/internal/db/mongodb"
	"github.com/credigo/credigo/internal/db/postgres"
	"github.com/credigo/credigo/internal/db/sqlite"
	"github.com/credigo/credigo/internal/logger"
	"github.com/credigo/credigo/internal/services"
)

var (
	cfgFile        string
	cfg            *config.Config
	store          db.Store
	companyService *services.CompanyService
	creditService  *services.CreditService
	statsService   *services.StatsService
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "credigo",
	Short: "Credit information service for registered companies",
	Long: `Credigo tracks companies, their annual reports and bank loans, and
computes each company's creditworthiness: the turnover of its two most
recent fiscal years minus its outstanding due loan amounts.

Run the HTTP API with 'credigo serve', or inspect the data directly from
the command line.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip init for the init command itself
		if cmd.Name() == "init" {
			return nil
		}

		// Load configuration
		if cfgFile == "" {
			cfgFile = config.GetConfigPath()
		}

		if !config.Exists(cfgFile) {
			return fmt.Errorf("configuration file not found. Run 'credigo init' to create one")
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger.Init(logger.ParseLogLevel(cfg.Logging.Level), os.Stderr)

		store, err = openStore(cfg)
		if err != nil {
			return err
		}

		if err := store.Connect(context.Background()); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		companyService = services.NewCompanyService(store)
		creditService = services.NewCreditService(store)
		statsService = services.NewStatsService(store, creditService)

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if store != nil {
			return store.Disconnect(context.Background())
		}
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.credigo/config.yaml)")

	// Disable completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Add subcommands
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(companyCmd)
	rootCmd.AddCommand(creditCmd)
	rootCmd.AddCommand(statsCmd)
}

// openStore builds the store for the configured provider
func openStore(cfg *config.Config) (db.Store, error) {
	dbConfig := &db.Config{
		Provider: cfg.Database.Provider,
		URI:      cfg.Database.URI,
		Database: cfg.Database.Database,
		Options:  cfg.Database.Options,
	}

	switch dbConfig.Provider {
	case "postgres":
		return postgres.New(dbConfig)
	case "sqlite":
		return sqlite.New(dbConfig)
	case "mongodb":
		return mongodb.New(dbConfig)
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported database provider: %s", dbConfig.Provider)
	}
}
