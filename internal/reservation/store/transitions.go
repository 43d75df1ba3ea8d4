package store

import "bellatavola/internal/reservation/models"

// Status changes are server-authoritative: the client only requests an
// action and re-renders whatever comes back.
var transitionMap = map[string][]string{
	"approve": {models.StatusPending},
	"reject":  {models.StatusPending},
	"cancel":  {models.StatusPending, models.StatusApproved},
}

func ValidTransition(action, fromStatus string) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == fromStatus {
			return true
		}
	}
	return false
}

// StatusForAction maps an action to the status it produces.
func StatusForAction(action string) (string, bool) {
	switch action {
	case "approve":
		return models.StatusApproved, true
	case "reject":
		return models.StatusRejected, true
	case "cancel":
		return models.StatusCancelled, true
	}
	return "", false
}
