// Package stations routes confirmed order items to the kitchen and bar
// preparation queues.
package stations

import (
	"context"
	"encoding/json"

	"bellatavola/internal/delivery/models"
	"bellatavola/internal/mq"
)

// Job is one station's share of a confirmed order.
type Job struct {
	OrderID     string        `json:"order_id"`
	OrderNumber int           `json:"order_number"`
	Station     string        `json:"station"`
	Items       []models.Item `json:"items"`
}

// Publisher sends station jobs; satisfied by *mq.Client in production.
type Publisher interface {
	PublishPersistent(ctx context.Context, routingKey, correlationID string, body []byte) error
}

var _ Publisher = (*mq.Client)(nil)

// Dispatch splits an order by station and publishes one job per station
// that has items. An order with only kitchen items produces no bar job.
func Dispatch(ctx context.Context, pub Publisher, order models.Order) error {
	kitchen, bar := models.Partition(order.Items)
	if err := publishJob(ctx, pub, order, models.CategoryKitchen, kitchen); err != nil {
		return err
	}
	return publishJob(ctx, pub, order, models.CategoryBar, bar)
}

func publishJob(ctx context.Context, pub Publisher, order models.Order, station string, items []models.Item) error {
	if len(items) == 0 {
		return nil
	}
	body, err := json.Marshal(Job{
		OrderID:     order.OrderID,
		OrderNumber: order.OrderNumber,
		Station:     station,
		Items:       items,
	})
	if err != nil {
		return err
	}
	return pub.PublishPersistent(ctx, station+".order", order.OrderID, body)
}
