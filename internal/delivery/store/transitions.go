package store

import "bellatavola/internal/delivery/models"

var orderTransitions = map[string][]string{
	"confirm": {models.StatusPending},
	"ready":   {models.StatusConfirmed},
	"deliver": {models.StatusReady},
	"cancel":  {models.StatusPending, models.StatusConfirmed},
}

var itemTransitions = map[string][]string{
	"start": {models.ItemPending},
	"ready": {models.ItemPreparing},
}

func ValidOrderTransition(action, fromStatus string) bool {
	return contains(orderTransitions[action], fromStatus)
}

func ValidItemTransition(action, fromStatus string) bool {
	return contains(itemTransitions[action], fromStatus)
}

// OrderStatusForAction maps an action to the order status it produces.
func OrderStatusForAction(action string) (string, bool) {
	switch action {
	case "confirm":
		return models.StatusConfirmed, true
	case "ready":
		return models.StatusReady, true
	case "deliver":
		return models.StatusDelivered, true
	case "cancel":
		return models.StatusCancelled, true
	}
	return "", false
}

// ItemStatusForAction maps an action to the item status it produces.
func ItemStatusForAction(action string) (string, bool) {
	switch action {
	case "start":
		return models.ItemPreparing, true
	case "ready":
		return models.ItemReady, true
	}
	return "", false
}

func contains(statuses []string, status string) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
