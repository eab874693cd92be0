// Package clubcmd groups the registry management commands: create and
// deactivate clubs, list the registry, and provision database schemas.
package clubcmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	sqlassets "github.com/clubreserve/clubreserve/database"
	registryrepo "github.com/clubreserve/clubreserve/domains/registry/be/repo"
	registryservice "github.com/clubreserve/clubreserve/domains/registry/be/service"
	settingsrepo "github.com/clubreserve/clubreserve/domains/settings/be/repo"
	settingsservice "github.com/clubreserve/clubreserve/domains/settings/be/service"
	"github.com/clubreserve/clubreserve/platform/go/club"
	"github.com/clubreserve/clubreserve/platform/go/persistence"
	"github.com/clubreserve/clubreserve/platform/go/secrets"
)

// Command groups club registry helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "club",
		Short: "Club registry utilities (create/deactivate/list/provision)",
	}

	cmd.AddCommand(createCommand())
	cmd.AddCommand(deactivateCommand())
	cmd.AddCommand(listCommand())
	cmd.AddCommand(initRegistryCommand())
	cmd.AddCommand(provisionCommand())
	return cmd
}

func registryFromFlags(ctx context.Context, databaseURL string) (*registryservice.Service, func(), error) {
	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
	if err != nil {
		return nil, nil, fmt.Errorf("init registry pool: %w", err)
	}
	logger := zap.NewNop()
	svc := registryservice.New(registryservice.Config{
		Repo:    registryrepo.NewPostgresRepository(pool, logger),
		Cache:   registryservice.NewCache(),
		Secrets: secrets.EnvStore{},
		Logger:  logger,
	})
	return svc, func() { persistence.ClosePool(pool) }, nil
}

func createCommand() *cobra.Command {
	var (
		databaseURL  string
		name         string
		shortName    string
		vehicleType  string
		dbName       string
		dbUser       string
		contactEmail string
		timezone     string
	)

	c := &cobra.Command{
		Use:   "create",
		Short: "Register a club in the master registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := registryFromFlags(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer cleanup()

			created, err := svc.Create(ctx, registryservice.CreateInput{
				Name:         name,
				ShortName:    shortName,
				VehicleType:  club.VehicleType(vehicleType),
				DBName:       dbName,
				DBUser:       dbUser,
				ContactEmail: contactEmail,
				Timezone:     timezone,
			})
			if err != nil {
				return fmt.Errorf("create club: %w", err)
			}

			fmt.Printf("created club %q (id %d, subdomain %s)\n", created.Name, created.ID, created.Subdomain)
			if created.SharedDatabase() {
				fmt.Println("club uses the shared database target")
			} else {
				fmt.Printf("set secret %s before serving this club\n", secrets.DBPasswordName(created.DBUser))
			}
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "master registry database URL")
	c.Flags().StringVar(&name, "name", "", "club display name")
	c.Flags().StringVar(&shortName, "short-name", "", "club short identifier (subdomain label)")
	c.Flags().StringVar(&vehicleType, "vehicle-type", "boat", "boat or plane")
	c.Flags().StringVar(&dbName, "db-name", "", "dedicated database name (empty for shared)")
	c.Flags().StringVar(&dbUser, "db-user", "", "dedicated database user (empty for shared)")
	c.Flags().StringVar(&contactEmail, "contact-email", "", "club contact email")
	c.Flags().StringVar(&timezone, "timezone", "", "IANA timezone (defaults to America/Chicago)")
	_ = c.MarkFlagRequired("name")
	_ = c.MarkFlagRequired("short-name")
	return c
}

func deactivateCommand() *cobra.Command {
	var (
		databaseURL string
		shortName   string
	)

	c := &cobra.Command{
		Use:   "deactivate",
		Short: "Flag a club inactive so its subdomain stops resolving",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := registryFromFlags(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.Deactivate(ctx, shortName); err != nil {
				return fmt.Errorf("deactivate club: %w", err)
			}
			// This process's cache is dropped by Deactivate itself; running
			// api servers hold their own.
			fmt.Printf("club %q deactivated\n", shortName)
			fmt.Printf("running api servers keep a cached entry: POST /admin/registry/invalidate?club=%s on each\n", shortName)
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "master registry database URL")
	c.Flags().StringVar(&shortName, "short-name", "", "club short identifier")
	_ = c.MarkFlagRequired("short-name")
	return c
}

func listCommand() *cobra.Command {
	var databaseURL string

	c := &cobra.Command{
		Use:   "list",
		Short: "List every registry row, active or not",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := registryFromFlags(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer cleanup()

			clubs, err := svc.List(ctx)
			if err != nil {
				return fmt.Errorf("list clubs: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSHORT NAME\tNAME\tTYPE\tDATABASE\tACTIVE")
			for _, c := range clubs {
				db := c.DBName
				if c.SharedDatabase() {
					db = "(shared)"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\n",
					c.ID, c.ShortName, c.Name, c.VehicleType, db, c.IsActive)
			}
			return w.Flush()
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "master registry database URL")
	return c
}

func initRegistryCommand() *cobra.Command {
	var databaseURL string

	c := &cobra.Command{
		Use:   "init-registry",
		Short: "Apply the master registry schema (idempotent)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
			if err != nil {
				return fmt.Errorf("init pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			if _, err := pool.Exec(ctx, sqlassets.MasterRegistrySQL); err != nil {
				return fmt.Errorf("apply registry schema: %w", err)
			}
			fmt.Println("master registry schema applied")
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "master registry database URL")
	return c
}

func provisionCommand() *cobra.Command {
	var (
		clubURL     string
		seedType    string
		seedDefault bool
	)

	c := &cobra.Command{
		Use:   "provision",
		Short: "Apply the club database schema to a club's database (idempotent)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: clubURL})
			if err != nil {
				return fmt.Errorf("init club pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			if _, err := pool.Exec(ctx, sqlassets.ClubDatabaseSQL); err != nil {
				return fmt.Errorf("apply club schema: %w", err)
			}
			fmt.Println("club database schema applied")

			if !seedDefault {
				return nil
			}
			handle := persistence.NewHandle(pool)
			settings := settingsservice.New(settingsrepo.NewPostgresRepository())
			for key, value := range settingsservice.DefaultsFor(club.VehicleType(seedType)) {
				if err := settings.Set(ctx, handle, key, value); err != nil {
					return fmt.Errorf("seed setting %s: %w", key, err)
				}
			}
			fmt.Println("default settings seeded")
			return nil
		},
	}

	c.Flags().StringVar(&clubURL, "club-url", "", "club database URL")
	c.Flags().StringVar(&seedType, "vehicle-type", "boat", "boat or plane, used when seeding defaults")
	c.Flags().BoolVar(&seedDefault, "seed-defaults", false, "seed the default club settings after applying the schema")
	_ = c.MarkFlagRequired("club-url")
	return c
}
