package domain

// CallbackRole names one of the host extension points the engine can call into.
type CallbackRole string

// Callback roles.
const (
	RoleExpandDecider  CallbackRole = "expand_decider"
	RoleFieldProcessor CallbackRole = "field_processor"
	RoleMatchDecider   CallbackRole = "match_decider"
	RoleMatchSpy       CallbackRole = "match_spy"
	RoleRangeProcessor CallbackRole = "range_processor"
	RoleStopper        CallbackRole = "stopper"
)

// AllCallbackRoles returns every role in registration-table order.
func AllCallbackRoles() []CallbackRole {
	return []CallbackRole{
		RoleExpandDecider,
		RoleFieldProcessor,
		RoleMatchDecider,
		RoleMatchSpy,
		RoleRangeProcessor,
		RoleStopper,
	}
}

// IsValid returns true if the role is recognised.
func (r CallbackRole) IsValid() bool {
	switch r {
	case RoleExpandDecider, RoleFieldProcessor, RoleMatchDecider,
		RoleMatchSpy, RoleRangeProcessor, RoleStopper:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (r CallbackRole) String() string {
	return string(r)
}

// Description returns a human-readable description of the role.
func (r CallbackRole) Description() string {
	switch r {
	case RoleExpandDecider:
		return "Expansion-term filter"
	case RoleFieldProcessor:
		return "Field query processor"
	case RoleMatchDecider:
		return "Match filter"
	case RoleMatchSpy:
		return "Match observer"
	case RoleRangeProcessor:
		return "Value-range processor"
	case RoleStopper:
		return "Stopword predicate"
	default:
		return unknownDescription
	}
}
