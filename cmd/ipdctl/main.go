package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/app"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/application/services"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/infrastructure/migrations"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/infrastructure/observability"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/pkg/config"
)

var hospitalID string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp loads the config and wires the service graph. The caller must defer Close.
func newApp(skipMigrationCheck bool) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	observability.InitLogger("ipdctl", cfg.Env)

	a, err := app.New(cfg, app.Options{SkipMigrationCheck: skipMigrationCheck})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// adminSession acts on behalf of the hospital named by --hospital
func adminSession() (entities.Session, error) {
	if hospitalID == "" {
		return entities.Session{}, fmt.Errorf("--hospital is required")
	}
	return entities.Session{HospitalID: hospitalID}, nil
}

var rootCmd = &cobra.Command{
	Use:          "ipdctl",
	Short:        "Administer IPD Now hospitals, departments and the database schema",
	SilenceUsage: true,
}

// migrate commands
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the PostgreSQL schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()
		if a.DB == nil {
			return fmt.Errorf("migrations need STORE_DRIVER=%s", config.StoreDriverPostgres)
		}

		if err := migrations.MigrateUp(a.DB.DB()); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
		status, err := migrations.GetStatus(a.DB.DB())
		if err != nil {
			return err
		}
		fmt.Printf("Schema at version %d\n", status.Version)
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()
		if a.DB == nil {
			return fmt.Errorf("migrations need STORE_DRIVER=%s", config.StoreDriverPostgres)
		}

		status, err := migrations.GetStatus(a.DB.DB())
		if err != nil {
			return err
		}
		fmt.Printf("Version: %d\nLatest:  %d\nDirty:   %t\n", status.Version, status.Latest, status.Dirty)
		if !status.UpToDate() {
			return fmt.Errorf("schema is not up to date")
		}
		return nil
	},
}

// hospital commands
var hospitalCmd = &cobra.Command{
	Use:   "hospital",
	Short: "Manage hospital accounts",
}

var (
	hospitalName     string
	hospitalPassword string
	hospitalLogoURL  string
)

var hospitalCreateCmd = &cobra.Command{
	Use:   "create <hospital-id>",
	Short: "Create a hospital account and seed its default departments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := context.Background()
		hospital, err := a.Auth.CreateHospital(ctx, services.CreateHospitalInput{
			ID:       args[0],
			Name:     hospitalName,
			Password: hospitalPassword,
			LogoURL:  hospitalLogoURL,
		})
		if err != nil {
			return err
		}
		departments, err := a.Departments.EnsureDefaults(ctx, hospital.ID)
		if err != nil {
			return fmt.Errorf("seeding departments: %w", err)
		}
		fmt.Printf("Created hospital %s (%s) with %d departments\n", hospital.ID, hospital.Name, len(departments))
		return nil
	},
}

// department commands
var departmentCmd = &cobra.Command{
	Use:   "department",
	Short: "Manage departments and their beds",
}

var departmentSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create any missing default departments",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := adminSession()
		if err != nil {
			return err
		}
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		departments, err := a.Departments.EnsureDefaults(context.Background(), session.HospitalID)
		if err != nil {
			return err
		}
		return printDepartments(a, departments)
	},
}

var departmentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List departments with their bed counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := adminSession()
		if err != nil {
			return err
		}
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		departments, err := a.Departments.List(context.Background(), session)
		if err != nil {
			return err
		}
		return printDepartments(a, departments)
	},
}

var totalBeds int

var departmentResizeCmd = &cobra.Command{
	Use:   "resize <department-id>",
	Short: "Change a department's total bed count",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := adminSession()
		if err != nil {
			return err
		}
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		department, err := a.Ledger.ResizeDepartment(context.Background(), session, args[0], totalBeds)
		if err != nil {
			return err
		}
		return printDepartments(a, []*entities.Department{department})
	},
}

var bedDelta int

var bedsAdjustCmd = &cobra.Command{
	Use:   "adjust-beds <department-id>",
	Short: "Free (+n) or reserve (-n) beds without an admission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := adminSession()
		if err != nil {
			return err
		}
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		department, err := a.Ledger.AdjustAvailableBeds(context.Background(), session, args[0], bedDelta)
		if err != nil {
			return err
		}
		return printDepartments(a, []*entities.Department{department})
	},
}

func printDepartments(a *app.App, departments []*entities.Department) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tAVAILABLE\tTOTAL\tSTATUS")
	for _, d := range departments {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", d.ID, d.Name, d.AvailableBeds, d.TotalBeds, a.Ledger.Status(d))
	}
	return w.Flush()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&hospitalID, "hospital", "", "hospital id to act on")

	hospitalCreateCmd.Flags().StringVar(&hospitalName, "name", "", "display name")
	hospitalCreateCmd.Flags().StringVar(&hospitalPassword, "password", "", "login password")
	hospitalCreateCmd.Flags().StringVar(&hospitalLogoURL, "logo-url", "", "logo shown in the admin panel")
	hospitalCreateCmd.MarkFlagRequired("name")
	hospitalCreateCmd.MarkFlagRequired("password")

	departmentResizeCmd.Flags().IntVar(&totalBeds, "total", 0, "new total bed count")
	departmentResizeCmd.MarkFlagRequired("total")
	bedsAdjustCmd.Flags().IntVar(&bedDelta, "delta", 0, "beds to free (positive) or reserve (negative)")
	bedsAdjustCmd.MarkFlagRequired("delta")

	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd)
	hospitalCmd.AddCommand(hospitalCreateCmd)
	departmentCmd.AddCommand(departmentSeedCmd, departmentListCmd, departmentResizeCmd, bedsAdjustCmd)
	rootCmd.AddCommand(migrateCmd, hospitalCmd, departmentCmd)
}
