package pinauth

import (
	"context"

	"github.com/heya-pos/heya/internal/domain/audit"
	"github.com/heya-pos/heya/internal/domain/auth"
)

type UnlockCommand struct {
	MerchantID string
	PIN        string
	IPAddress  string
}

// UnlockByPin identifies which staff member owns pin so a locked screen can
// switch to them. No session is minted. Failures share one counter per
// merchant.
func (a *PinAuthenticator) UnlockByPin(ctx context.Context, cmd UnlockCommand) (*StaffSummary, error) {
	identifier := auth.UnlockIdentifier(cmd.MerchantID)
	if a.attempts.IsLocked(identifier) {
		return nil, a.lockedError(identifier)
	}

	candidates, err := a.activeStaff(ctx, cmd.MerchantID, "")
	if err != nil {
		return nil, err
	}

	matched := a.findByPin(candidates, cmd.PIN)
	if matched == nil {
		return nil, a.recordFailure(identifier)
	}
	a.attempts.Clear(identifier)

	a.audit.Record(ctx, audit.Entry{
		MerchantID: cmd.MerchantID,
		StaffID:    matched.ID,
		Action:     audit.ActionStaffUnlock,
		EntityType: audit.EntityTypeStaff,
		EntityID:   matched.ID,
		Details:    map[string]any{"staffName": matched.FullName()},
		IPAddress:  cmd.IPAddress,
	})

	summary := summarize(matched)
	return &summary, nil
}
