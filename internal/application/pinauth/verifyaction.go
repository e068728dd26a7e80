package pinauth

import (
	"context"

	"github.com/heya-pos/heya/internal/domain/audit"
	"github.com/heya-pos/heya/internal/domain/auth"
	apperrors "github.com/heya-pos/heya/internal/shared/errors"
)

type VerifyActionCommand struct {
	MerchantID string
	StaffID    string
	PIN        string
	Action     string
	ResourceID string
	IPAddress  string
}

// VerifyPinForAction re-checks one staff member's PIN before a sensitive
// action and confirms their access level allows it. Every outcome after the
// staff lookup is audited.
func (a *PinAuthenticator) VerifyPinForAction(ctx context.Context, cmd VerifyActionCommand) (*StaffSummary, error) {
	identifier := auth.StepUpIdentifier(cmd.MerchantID, cmd.PIN)
	if a.attempts.IsLocked(identifier) {
		return nil, a.lockedError(identifier)
	}

	c, err := a.loadMerchantStaff(ctx, cmd.MerchantID, cmd.StaffID)
	if err != nil {
		return nil, err
	}
	if !c.IsActive() {
		return nil, apperrors.NewNotFoundError("Staff member not found")
	}

	entityID := cmd.ResourceID
	if entityID == "" {
		entityID = cmd.Action
	}

	if !a.pinMatches(c, cmd.PIN) {
		failure := a.recordFailure(identifier)
		a.audit.Record(ctx, audit.Entry{
			MerchantID: cmd.MerchantID,
			Action:     audit.ActionPinVerifyFailed,
			EntityType: audit.EntityTypeAction,
			EntityID:   entityID,
			Details:    map[string]any{"attemptedAction": cmd.Action},
			IPAddress:  cmd.IPAddress,
		})
		return nil, failure
	}

	a.attempts.Clear(identifier)

	level := c.AccessLevel.Normalize()
	if !level.CanPerform(cmd.Action) {
		a.audit.Record(ctx, audit.Entry{
			MerchantID: cmd.MerchantID,
			StaffID:    c.ID,
			Action:     audit.ActionUnauthorized,
			EntityType: audit.EntityTypeAction,
			EntityID:   entityID,
			Details: map[string]any{
				"attemptedAction":  cmd.Action,
				"staffAccessLevel": int(level),
				"staffName":        c.FullName(),
			},
			IPAddress: cmd.IPAddress,
		})
		return nil, apperrors.NewForbiddenError("You do not have permission to perform this action")
	}

	a.audit.Record(ctx, audit.Entry{
		MerchantID: cmd.MerchantID,
		StaffID:    c.ID,
		Action:     audit.VerifiedAction(cmd.Action),
		EntityType: audit.EntityTypeAction,
		EntityID:   entityID,
		Details: map[string]any{
			"verifiedAction":   cmd.Action,
			"staffAccessLevel": int(level),
			"staffName":        c.FullName(),
		},
		IPAddress: cmd.IPAddress,
	})

	summary := summarize(c)
	return &summary, nil
}
