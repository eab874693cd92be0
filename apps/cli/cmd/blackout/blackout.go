// Package blackoutcmd declares blackout periods directly against a club
// database, for operators working outside the HTTP API.
package blackoutcmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	fleetrepo "github.com/clubreserve/clubreserve/domains/fleet/be/repo"
	fleetservice "github.com/clubreserve/clubreserve/domains/fleet/be/service"
	"github.com/clubreserve/clubreserve/platform/go/persistence"
)

// Command groups blackout helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blackout",
		Short: "Blackout period utilities",
	}

	cmd.AddCommand(addCommand())
	return cmd
}

func addCommand() *cobra.Command {
	var (
		clubURL   string
		vehicleID string
		start     string
		end       string
		reason    string
	)

	c := &cobra.Command{
		Use:   "add",
		Short: "Declare a blackout for one vehicle or, without --vehicle-id, the whole fleet",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			startAt, err := time.Parse(time.RFC3339, start)
			if err != nil {
				return fmt.Errorf("parse --start: %w", err)
			}
			endAt, err := time.Parse(time.RFC3339, end)
			if err != nil {
				return fmt.Errorf("parse --end: %w", err)
			}

			var vid *uuid.UUID
			if vehicleID != "" {
				parsed, err := uuid.Parse(vehicleID)
				if err != nil {
					return fmt.Errorf("parse --vehicle-id: %w", err)
				}
				vid = &parsed
			}

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: clubURL})
			if err != nil {
				return fmt.Errorf("init club pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			fleet := fleetservice.New(fleetrepo.NewPostgresRepository())
			b, err := fleet.DeclareBlackout(ctx, persistence.NewHandle(pool), vid, startAt, endAt, reason, operator())
			if err != nil {
				return fmt.Errorf("declare blackout: %w", err)
			}

			scope := "fleet-wide"
			if b.VehicleID != nil {
				scope = "vehicle " + b.VehicleID.String()
			}
			fmt.Printf("blackout %s recorded (%s, %s – %s)\n",
				b.ID, scope, b.Start.Format(time.RFC3339), b.End.Format(time.RFC3339))
			return nil
		},
	}

	c.Flags().StringVar(&clubURL, "club-url", "", "club database URL")
	c.Flags().StringVar(&vehicleID, "vehicle-id", "", "vehicle uuid (omit for fleet-wide)")
	c.Flags().StringVar(&start, "start", "", "start time, RFC3339")
	c.Flags().StringVar(&end, "end", "", "end time, RFC3339")
	c.Flags().StringVar(&reason, "reason", "", "member-visible reason")
	_ = c.MarkFlagRequired("club-url")
	_ = c.MarkFlagRequired("start")
	_ = c.MarkFlagRequired("end")
	return c
}

func operator() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "cli"
}
