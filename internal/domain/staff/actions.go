package staff

// Step-up actions that require a fresh PIN entry.
const (
	ActionViewCustomerDetails       = "view_customer_details"
	ActionProcessPayment            = "process_payment"
	ActionCreateBooking             = "create_booking"
	ActionRefundPayment             = "refund_payment"
	ActionCancelBooking             = "cancel_booking"
	ActionViewReports               = "view_reports"
	ActionEditStaff                 = "edit_staff"
	ActionViewSensitiveCustomerData = "view_sensitive_customer_data"
	ActionDeleteCustomer            = "delete_customer"
	ActionExportAllData             = "export_all_data"
	ActionModifySettings            = "modify_settings"
	ActionViewFinancialReports      = "view_financial_reports"
)

var actionLevels = map[string]AccessLevel{
	ActionViewCustomerDetails: AccessLevelStaff,
	ActionProcessPayment:      AccessLevelStaff,
	ActionCreateBooking:       AccessLevelStaff,

	ActionRefundPayment:             AccessLevelManager,
	ActionCancelBooking:             AccessLevelManager,
	ActionViewReports:               AccessLevelManager,
	ActionEditStaff:                 AccessLevelManager,
	ActionViewSensitiveCustomerData: AccessLevelManager,

	ActionDeleteCustomer:       AccessLevelOwner,
	ActionExportAllData:        AccessLevelOwner,
	ActionModifySettings:       AccessLevelOwner,
	ActionViewFinancialReports: AccessLevelOwner,
}

// RequiredLevelFor returns the minimum access level for action. Unknown
// actions require owner level.
func RequiredLevelFor(action string) AccessLevel {
	if level, ok := actionLevels[action]; ok {
		return level
	}
	return AccessLevelOwner
}

// CanPerform reports whether level is high enough for action.
func (l AccessLevel) CanPerform(action string) bool {
	return l >= RequiredLevelFor(action)
}
