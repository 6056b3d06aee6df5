package cli

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/credigo/credigo/internal/db"
	"github.com/credigo/credigo/internal/db/postgres"
	"github.com/credigo/credigo/internal/db/sqlite"
)

var migrationsDir string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database migrations",
	Long:  `Run database schema migrations for the SQL backends (postgres, sqlite).`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Run all pending migrations",
	Long:  `Apply all pending database migrations.`,
	RunE:  runMigrateUp,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Long:  `Show the current migration version and dirty state.`,
	RunE:  runMigrateStatus,
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show current migration version",
	Long:  `Show the current database migration version.`,
	RunE:  runMigrateStatus,
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "", "migrations directory (default internal/db/migrations/<provider>)")
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
}

// migrationDB returns the SQL handle of the connected store
func migrationDB() (*sql.DB, error) {
	switch s := store.(type) {
	case *postgres.Postgres:
		return s.DB(), nil
	case *sqlite.SQLite:
		return s.DB(), nil
	default:
		return nil, fmt.Errorf("migrations not supported for provider: %s", cfg.Database.Provider)
	}
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	fmt.Println("🔄 Running database migrations...")

	sqlDB, err := migrationDB()
	if err != nil {
		return err
	}

	if err := db.RunMigrations(sqlDB, cfg.Database.Provider, migrationsDir); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Println("✅ Migrations completed successfully!")
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	sqlDB, err := migrationDB()
	if err != nil {
		return err
	}

	var (
		version int64
		dirty   bool
	)
	err = sqlDB.QueryRow("SELECT version, dirty FROM schema_migrations LIMIT 1").Scan(&version, &dirty)
	if err == sql.ErrNoRows {
		fmt.Println("No migrations applied yet.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}

	fmt.Printf("%s %s\n", FormatLabel("Current migration version:"), FormatValue(fmt.Sprintf("%d", version)))
	if dirty {
		fmt.Println(FormatWarning("⚠️  Migration state is dirty"))
	}
	return nil
}
