package pinauth

import "context"

// PinStatusResult summarises PIN coverage. HasDuplicates is always false:
// a PIN is checked against the merchant's other active staff when it is
// written (ChangePin and staff seeding), so stored PINs are unique.
type PinStatusResult struct {
	HasPins       bool `json:"has_pins"`
	StaffCount    int  `json:"staff_count"`
	HasDuplicates bool `json:"has_duplicates"`
}

// PinStatus reports whether any active staff member of the merchant can log
// in by PIN at locationID. An empty locationID covers every location.
func (a *PinAuthenticator) PinStatus(ctx context.Context, merchantID, locationID string) (*PinStatusResult, error) {
	candidates, err := a.activeStaff(ctx, merchantID, locationID)
	if err != nil {
		return nil, err
	}

	status := &PinStatusResult{}
	for _, c := range candidates {
		if c.HasPin() {
			status.StaffCount++
		}
	}
	status.HasPins = status.StaffCount > 0
	return status, nil
}
