// Package staff provides the staff administration commands.
package staff

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/heya-pos/heya/internal/infrastructure/auth"
	"github.com/heya-pos/heya/internal/infrastructure/config"
	"github.com/heya-pos/heya/internal/infrastructure/database"
	"github.com/heya-pos/heya/internal/infrastructure/repository"
	"github.com/heya-pos/heya/internal/shared/biztime"
	"github.com/heya-pos/heya/internal/shared/id"
	"github.com/heya-pos/heya/internal/shared/logger"
)

var (
	env        string
	configPath string
	seedFile   string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Staff administration tools",
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	cmd.AddCommand(newSeedCommand())
	return cmd
}

func newSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load locations, merchant accounts and staff from a YAML file",
		Long:  `Create locations, merchant accounts and staff members from a YAML file. PINs and passwords are hashed before they are stored.`,
		RunE:  runSeed,
	}

	cmd.Flags().StringVarP(&seedFile, "file", "f", "", "Path to the seed YAML file (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runSeed(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(seedFile)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	doc, err := parseSeedFile(data)
	if err != nil {
		return err
	}

	cfg, err := config.Load(env, configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	locations, err := buildLocations(doc.Locations, biztime.NowUTC, id.NewLocationID)
	if err != nil {
		return err
	}
	accounts, err := buildMerchants(doc.Merchants, auth.NewBcryptPasswordHasher(cfg.Auth.Pin.BcryptCost), biztime.NowUTC, id.NewMerchantID)
	if err != nil {
		return err
	}
	pinHasher := auth.NewBcryptPinHasher(cfg.Auth.Pin.BcryptCost)
	credentials, err := buildCredentials(doc.Staff, pinHasher, biztime.NowUTC, id.NewStaffID)
	if err != nil {
		return err
	}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	staffRepo := repository.NewStaffRepository(database.Get())
	merchantRepo := repository.NewMerchantRepository(database.Get())
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	if err := checkExistingPins(ctx, staffRepo, pinHasher, doc.Staff); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, l := range locations {
		if err := staffRepo.CreateLocation(ctx, l); err != nil {
			return fmt.Errorf("failed to create location %s: %w", l.Name, err)
		}
		log.Infow("location seeded", "location_id", l.ID, "merchant_id", l.MerchantID)
		fmt.Fprintf(out, "%s\t%s\tlocation\n", l.ID, l.Name)
	}

	for _, a := range accounts {
		if err := merchantRepo.Create(ctx, a); err != nil {
			return fmt.Errorf("failed to create merchant %s: %w", a.Email, err)
		}
		log.Infow("merchant seeded", "merchant_id", a.MerchantID, "account_id", a.ID)
		fmt.Fprintf(out, "%s\t%s\t%s\n", a.MerchantID, a.Email, describeTrial(a))
	}

	for _, c := range credentials {
		if err := staffRepo.Create(ctx, c); err != nil {
			return fmt.Errorf("failed to create staff %s %s: %w", c.FirstName, c.LastName, err)
		}
		log.Infow("staff seeded",
			"staff_id", c.ID,
			"merchant_id", c.MerchantID,
			"access_level", c.AccessLevel.Role(),
		)
		fmt.Fprintf(out, "%s\t%s %s\t%s\n", c.ID, c.FirstName, c.LastName, c.AccessLevel.Role())
	}

	log.Infow("seed completed",
		"locations", len(locations),
		"merchants", len(accounts),
		"staff", len(credentials),
	)
	return nil
}
