// Package engine - errors.go
// Typed gameplay failures. These are expected outcomes, not faults:
// callers branch on them and the API layer maps them to status codes.
package engine

import "errors"

var (
	ErrInsufficientEnergy  = errors.New("insufficient energy")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrMaxLevelReached     = errors.New("upgrade already at max level")
	ErrUpgradeNotFound     = errors.New("upgrade not found")
	ErrTaskNotFound        = errors.New("task not found")
	ErrAchievementNotFound = errors.New("achievement not found")
	ErrNotCompleted        = errors.New("requirement not met")
	ErrAlreadyClaimed      = errors.New("reward already claimed")
	ErrInvalidBooster      = errors.New("invalid booster parameters")

	// ErrConflict surfaces only after the write retry budget is spent.
	ErrConflict = errors.New("too many concurrent writes")

	// ErrUnavailable wraps storage faults. The player record is unchanged.
	ErrUnavailable = errors.New("storage unavailable")
)

// domainErrors are the rejections a healthy server produces constantly.
// They are never retried and never logged as server errors.
var domainErrors = []error{
	ErrInsufficientEnergy,
	ErrInsufficientFunds,
	ErrMaxLevelReached,
	ErrUpgradeNotFound,
	ErrTaskNotFound,
	ErrAchievementNotFound,
	ErrNotCompleted,
	ErrAlreadyClaimed,
	ErrInvalidBooster,
}

// IsDomainError reports whether err is an expected gameplay rejection
// rather than an infrastructure fault.
func IsDomainError(err error) bool {
	for _, sentinel := range domainErrors {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// Code returns the machine-readable code clients branch on.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientEnergy):
		return "INSUFFICIENT_ENERGY"
	case errors.Is(err, ErrInsufficientFunds):
		return "INSUFFICIENT_FUNDS"
	case errors.Is(err, ErrMaxLevelReached):
		return "MAX_LEVEL_REACHED"
	case errors.Is(err, ErrUpgradeNotFound):
		return "UPGRADE_NOT_FOUND"
	case errors.Is(err, ErrTaskNotFound):
		return "TASK_NOT_FOUND"
	case errors.Is(err, ErrAchievementNotFound):
		return "ACHIEVEMENT_NOT_FOUND"
	case errors.Is(err, ErrNotCompleted):
		return "NOT_COMPLETED"
	case errors.Is(err, ErrAlreadyClaimed):
		return "ALREADY_CLAIMED"
	case errors.Is(err, ErrInvalidBooster):
		return "INVALID_BOOSTER"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	}
	return "INTERNAL"
}
