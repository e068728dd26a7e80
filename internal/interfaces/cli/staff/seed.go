package staff

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/heya-pos/heya/internal/domain/merchant"
	"github.com/heya-pos/heya/internal/domain/staff"
	"github.com/heya-pos/heya/internal/shared/biztime"
	"github.com/heya-pos/heya/internal/shared/id"
	"github.com/heya-pos/heya/internal/shared/utils"
)

const defaultTrialDays = 14

// seedDocument is the YAML layout read by "staff seed":
//
//	locations:
//	  - id: loc_main
//	    merchant_id: mer_abc
//	    name: Main Street
//	merchants:
//	  - merchant_id: mer_abc
//	    name: Ana's Salon
//	    email: ana@example.com
//	    password: change-me-now
//	staff:
//	  - merchant_id: mer_abc
//	    first_name: Ana
//	    last_name: Lee
//	    pin: "1234"
//	    access_level: owner
//	    location_ids: [loc_main]
type seedDocument struct {
	Locations []seedLocation `yaml:"locations"`
	Merchants []seedMerchant `yaml:"merchants"`
	Staff     []seedEntry    `yaml:"staff"`
}

type seedLocation struct {
	ID         string `yaml:"id" json:"id"`
	MerchantID string `yaml:"merchant_id" json:"merchant_id" validate:"required"`
	Name       string `yaml:"name" json:"name" validate:"required,max=100"`
	Inactive   bool   `yaml:"inactive" json:"inactive"`
}

type seedMerchant struct {
	MerchantID         string `yaml:"merchant_id" json:"merchant_id"`
	Name               string `yaml:"name" json:"name" validate:"required"`
	Email              string `yaml:"email" json:"email" validate:"required,email"`
	Username           string `yaml:"username" json:"username"`
	Password           string `yaml:"password" json:"password" validate:"required"`
	SubscriptionStatus string `yaml:"subscription_status" json:"subscription_status" validate:"omitempty,oneof=trial active past_due cancelled TRIAL ACTIVE PAST_DUE CANCELLED"`
	TrialDays          int    `yaml:"trial_days" json:"trial_days" validate:"min=0"`
}

type seedEntry struct {
	ID          string   `yaml:"id" json:"id"`
	MerchantID  string   `yaml:"merchant_id" json:"merchant_id" validate:"required"`
	FirstName   string   `yaml:"first_name" json:"first_name" validate:"required"`
	LastName    string   `yaml:"last_name" json:"last_name"`
	PIN         string   `yaml:"pin" json:"pin"`
	AccessLevel string   `yaml:"access_level" json:"access_level"`
	LocationIDs []string `yaml:"location_ids" json:"location_ids"`
	Inactive    bool     `yaml:"inactive" json:"inactive"`
}

func parseSeedFile(data []byte) (*seedDocument, error) {
	var doc seedDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if len(doc.Staff) == 0 && len(doc.Locations) == 0 && len(doc.Merchants) == 0 {
		return nil, fmt.Errorf("seed file has no entries")
	}
	return &doc, nil
}

func parseAccessLevel(s string) (staff.AccessLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "staff", "1":
		return staff.AccessLevelStaff, nil
	case "manager", "2":
		return staff.AccessLevelManager, nil
	case "owner", "3":
		return staff.AccessLevelOwner, nil
	default:
		return 0, fmt.Errorf("unknown access level %q", s)
	}
}

func buildLocations(entries []seedLocation, now func() time.Time, newID func() (string, error)) ([]*staff.Location, error) {
	locations := make([]*staff.Location, 0, len(entries))
	for i, e := range entries {
		if err := utils.ValidateStruct(e); err != nil {
			return nil, fmt.Errorf("location %d: %w", i+1, err)
		}

		locationID := e.ID
		if locationID == "" {
			var err error
			if locationID, err = newID(); err != nil {
				return nil, fmt.Errorf("location %d: failed to generate id: %w", i+1, err)
			}
		} else if !id.HasPrefix(locationID, id.PrefixLocation) {
			return nil, fmt.Errorf("location %d: id %q must start with %s_", i+1, locationID, id.PrefixLocation)
		}

		locations = append(locations, &staff.Location{
			ID:         locationID,
			MerchantID: e.MerchantID,
			Name:       e.Name,
			IsActive:   !e.Inactive,
			CreatedAt:  now(),
		})
	}
	return locations, nil
}

// buildMerchants hashes every password before anything is written. A
// missing merchant_id is generated.
func buildMerchants(entries []seedMerchant, hasher merchant.PasswordHasher, now func() time.Time, newID func() (string, error)) ([]*merchant.Account, error) {
	accounts := make([]*merchant.Account, 0, len(entries))
	for i, e := range entries {
		if err := utils.ValidateStruct(e); err != nil {
			return nil, fmt.Errorf("merchant %d: %w", i+1, err)
		}
		if err := merchant.ValidatePassword(e.Password); err != nil {
			return nil, fmt.Errorf("merchant %d: %w", i+1, err)
		}

		hash, err := hasher.Hash(e.Password)
		if err != nil {
			return nil, fmt.Errorf("merchant %d: failed to hash password: %w", i+1, err)
		}

		merchantID := e.MerchantID
		if merchantID == "" {
			if merchantID, err = newID(); err != nil {
				return nil, fmt.Errorf("merchant %d: failed to generate id: %w", i+1, err)
			}
		}

		ts := now()
		subscription := merchant.SubscriptionStatus(strings.ToUpper(e.SubscriptionStatus))
		if subscription == "" {
			subscription = merchant.SubscriptionTrial
		}
		var trialEndsAt *time.Time
		if subscription == merchant.SubscriptionTrial {
			days := e.TrialDays
			if days == 0 {
				days = defaultTrialDays
			}
			ends := ts.AddDate(0, 0, days)
			trialEndsAt = &ends
		}

		accounts = append(accounts, &merchant.Account{
			ID:                 uuid.NewString(),
			MerchantID:         merchantID,
			Name:               e.Name,
			Email:              strings.ToLower(strings.TrimSpace(e.Email)),
			Username:           e.Username,
			PasswordHash:       hash,
			Status:             merchant.StatusActive,
			SubscriptionStatus: subscription,
			TrialEndsAt:        trialEndsAt,
			CreatedAt:          ts,
			UpdatedAt:          ts,
		})
	}
	return accounts, nil
}

// buildCredentials validates and hashes every entry before anything is
// written, so a bad entry leaves the database untouched. Two active staff of
// one merchant may not share a PIN.
func buildCredentials(entries []seedEntry, hasher staff.PinHasher, now func() time.Time, newID func() (string, error)) ([]*staff.Credential, error) {
	credentials := make([]*staff.Credential, 0, len(entries))
	pinOwners := make(map[string]int)
	for i, e := range entries {
		if err := utils.ValidateStruct(e); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		level, err := parseAccessLevel(e.AccessLevel)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}

		var pinHash string
		if e.PIN != "" {
			if err := staff.ValidatePIN(e.PIN); err != nil {
				return nil, fmt.Errorf("entry %d: %w", i+1, err)
			}
			if !e.Inactive {
				key := e.MerchantID + "\x00" + e.PIN
				if prev, ok := pinOwners[key]; ok {
					return nil, fmt.Errorf("entry %d: pin is already used by entry %d", i+1, prev)
				}
				pinOwners[key] = i + 1
			}
			if pinHash, err = hasher.Hash(e.PIN); err != nil {
				return nil, fmt.Errorf("entry %d: failed to hash pin: %w", i+1, err)
			}
		}

		staffID := e.ID
		if staffID == "" {
			if staffID, err = newID(); err != nil {
				return nil, fmt.Errorf("entry %d: failed to generate id: %w", i+1, err)
			}
		}

		status := staff.StatusActive
		if e.Inactive {
			status = staff.StatusInactive
		}

		ts := now()
		credentials = append(credentials, &staff.Credential{
			ID:          staffID,
			MerchantID:  e.MerchantID,
			FirstName:   e.FirstName,
			LastName:    e.LastName,
			PinHash:     pinHash,
			Status:      status,
			AccessLevel: level,
			LocationIDs: e.LocationIDs,
			CreatedAt:   ts,
			UpdatedAt:   ts,
		})
	}
	return credentials, nil
}

// activeStaffLister is the part of staff.Repository used to find PIN
// conflicts with staff already in the database.
type activeStaffLister interface {
	FindActiveByMerchant(ctx context.Context, merchantID, locationID string) ([]*staff.Credential, error)
}

// checkExistingPins rejects seeding an active staff member whose PIN
// already belongs to an active staff member of the same merchant.
func checkExistingPins(ctx context.Context, repo activeStaffLister, hasher staff.PinHasher, entries []seedEntry) error {
	existing := make(map[string][]*staff.Credential)
	for i, e := range entries {
		if e.PIN == "" || e.Inactive {
			continue
		}
		others, ok := existing[e.MerchantID]
		if !ok {
			var err error
			if others, err = repo.FindActiveByMerchant(ctx, e.MerchantID, ""); err != nil {
				return fmt.Errorf("failed to load staff of %s: %w", e.MerchantID, err)
			}
			existing[e.MerchantID] = others
		}
		for _, other := range others {
			if other.ID == e.ID || !other.HasPin() {
				continue
			}
			if hasher.Verify(e.PIN, other.PinHash) == nil {
				return fmt.Errorf("entry %d: pin is already used by staff %s", i+1, other.ID)
			}
		}
	}
	return nil
}

// describeTrial renders the trial end in the business timezone.
func describeTrial(a *merchant.Account) string {
	if a.TrialEndsAt == nil {
		return string(a.SubscriptionStatus)
	}
	return fmt.Sprintf("%s until %s", a.SubscriptionStatus, biztime.ToBizTimezone(*a.TrialEndsAt).Format("2006-01-02 15:04 MST"))
}
