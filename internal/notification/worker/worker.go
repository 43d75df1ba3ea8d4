package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"bellatavola/internal/notification/store"

	"github.com/google/uuid"
)

type Worker struct {
	store       store.Store
	batchSize   int
	maxAttempts int
	provider    Provider
}

type payloadData map[string]interface{}

type Config struct {
	BatchSize   int
	MaxAttempts int
	Provider    string
}

func New(store store.Store, cfg Config) *Worker {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 50
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Worker{
		store:       store,
		batchSize:   batch,
		maxAttempts: maxAttempts,
		provider:    newProvider(cfg.Provider),
	}
}

// Run drains one batch from the outbox. The offset only advances past
// events that were handed to processEvent, so a crash re-reads at most
// one batch.
func (w *Worker) Run(ctx context.Context) error {
	offset, err := w.store.GetOffset(ctx)
	if err != nil {
		return err
	}

	events, err := w.store.ListOutboxEvents(ctx, offset, w.batchSize)
	if err != nil {
		return err
	}

	for _, event := range events {
		if err := w.processEvent(ctx, event); err != nil {
			log.Printf("notification: event %s: %v", event.EventID, err)
		}
		offset.LastEventTime = event.CreatedAt
		offset.LastEventID = event.EventID
	}

	if len(events) > 0 {
		if err := w.store.UpdateOffset(ctx, offset); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) processEvent(ctx context.Context, event store.OutboxEvent) error {
	templateID := templateForEvent(event.Type)
	if templateID == "" {
		return nil
	}

	recipient, err := w.store.GetRecipient(ctx, event.UserID)
	if err != nil {
		return err
	}
	if recipient == "" {
		// Anonymous diners have no email; nothing to deliver.
		return nil
	}

	payload := payloadData{}
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return err
	}

	lang := "es"
	body, err := w.store.GetTemplate(ctx, templateID, lang, "email")
	if err != nil {
		return err
	}
	if body == "" {
		body = defaultTemplate(templateID, lang)
	}
	message := renderTemplate(body, payload)

	notification := store.Notification{
		NotificationID: uuid.NewString(),
		UserID:         event.UserID,
		Channel:        "email",
		Recipient:      recipient,
		Status:         "pending",
		Attempts:       1,
	}
	if err := w.store.InsertNotification(ctx, notification); err != nil {
		return err
	}

	if providerErr := w.provider.Send(ctx, message, recipient); providerErr != nil {
		if err := w.store.MarkNotificationFailed(ctx, notification.NotificationID, providerErr.Error()); err != nil {
			return err
		}
		if notification.Attempts >= w.maxAttempts {
			return w.store.InsertDLQ(ctx, notification.NotificationID, "max attempts reached")
		}
		return nil
	}
	return w.store.MarkNotificationSent(ctx, notification.NotificationID)
}

func templateForEvent(eventType string) string {
	switch eventType {
	case "delivery_payment_confirmed":
		return "payment_confirmed"
	case "reservation_approved":
		return "reservation_approved"
	case "reservation_rejected":
		return "reservation_rejected"
	case "reservation_cancelled":
		return "reservation_cancelled"
	default:
		return ""
	}
}

func defaultTemplate(templateID, lang string) string {
	if lang == "en" {
		switch templateID {
		case "payment_confirmed":
			return "Payment confirmed for order {order_number}."
		case "reservation_approved":
			return "Your reservation for {date} at {time} was approved."
		case "reservation_rejected":
			return "Your reservation for {date} at {time} was rejected: {rejection_reason}"
		case "reservation_cancelled":
			return "Your reservation for {date} at {time} was cancelled."
		}
		return ""
	}
	switch templateID {
	case "payment_confirmed":
		return "Pago confirmado para el pedido {order_number}."
	case "reservation_approved":
		return "Su reserva del {date} a las {time} fue aprobada."
	case "reservation_rejected":
		return "Su reserva del {date} a las {time} fue rechazada: {rejection_reason}"
	case "reservation_cancelled":
		return "Su reserva del {date} a las {time} fue cancelada."
	}
	return ""
}

func renderTemplate(template string, payload payloadData) string {
	result := template
	for _, key := range []string{"order_number", "date", "time", "table_number", "rejection_reason"} {
		result = strings.ReplaceAll(result, "{"+key+"}", str(payload, key))
	}
	return result
}

func str(payload payloadData, key string) string {
	value, ok := payload[key]
	if !ok || value == nil {
		return ""
	}
	if text, ok := value.(string); ok {
		return text
	}
	if number, ok := value.(float64); ok {
		return fmt.Sprintf("%.0f", number)
	}
	return fmt.Sprint(value)
}

func Start(ctx context.Context, interval time.Duration, w *Worker) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Run(ctx); err != nil {
				log.Printf("notification worker error: %v", err)
			}
		}
	}
}
