// Package kitchen runs the station workers that prepare delivery order
// items. The same worker binary serves the kitchen and the bar; the
// station name picks which queue it drains.
package kitchen

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"bellatavola/internal/delivery/models"
	"bellatavola/internal/delivery/stations"
	"bellatavola/internal/delivery/store"
	"bellatavola/internal/mq"

	amqp "github.com/rabbitmq/amqp091-go"
)

// OrderStore is the slice of the delivery store a station worker needs.
type OrderStore interface {
	UpdateItemStatus(ctx context.Context, orderID, itemID, action string) (models.Order, error)
}

type Worker struct {
	store    OrderStore
	station  string
	prefetch int
}

func NewWorker(store OrderStore, station string, prefetch int) *Worker {
	return &Worker{store: store, station: station, prefetch: prefetch}
}

// QueueName maps a station to its queue.
func QueueName(station string) string {
	if station == "bar" {
		return mq.BarQueue
	}
	return mq.KitchenQueue
}

// Run consumes station jobs until ctx is cancelled. Jobs that cannot be
// decoded are rejected without requeue so they dead-letter instead of
// spinning.
func (w *Worker) Run(ctx context.Context, client *mq.Client) error {
	deliveries, err := client.Consume(QueueName(w.station), w.station+"-worker", w.prefetch)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("consume channel closed")
			}
			w.handleDelivery(ctx, d)
		}
	}
}

func (w *Worker) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var job stations.Job
	if err := json.Unmarshal(d.Body, &job); err != nil {
		log.Printf("%s worker: bad job payload: %v", w.station, err)
		_ = d.Nack(false, false)
		return
	}
	if err := w.Process(ctx, job); err != nil {
		log.Printf("%s worker: order %s: %v", w.station, job.OrderID, err)
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

// Process advances every item in a station job from pending through
// preparing to ready. Items already past a step are skipped rather than
// failing the whole job, so redelivered jobs are safe.
func (w *Worker) Process(ctx context.Context, job stations.Job) error {
	for _, item := range job.Items {
		for _, action := range []string{"start", "ready"} {
			if _, err := w.store.UpdateItemStatus(ctx, job.OrderID, item.ItemID, action); err != nil {
				if errors.Is(err, store.ErrInvalidTransition) {
					continue
				}
				return err
			}
		}
	}
	return nil
}
