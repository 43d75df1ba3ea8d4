package stations

import (
	"context"
	"encoding/json"
	"testing"

	"bellatavola/internal/delivery/models"
)

type recordingPublisher struct {
	keys   []string
	bodies [][]byte
}

func (p *recordingPublisher) PublishPersistent(ctx context.Context, routingKey, correlationID string, body []byte) error {
	p.keys = append(p.keys, routingKey)
	p.bodies = append(p.bodies, body)
	return nil
}

func TestDispatchSplitsByStation(t *testing.T) {
	order := models.Order{
		OrderID:     "order-1",
		OrderNumber: 42,
		Items: []models.Item{
			{ItemID: "i1", Name: "Milanesa", Category: models.CategoryKitchen},
			{ItemID: "i2", Name: "Fernet", Category: models.CategoryBar},
		},
	}
	pub := &recordingPublisher{}
	if err := Dispatch(context.Background(), pub, order); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(pub.keys) != 2 || pub.keys[0] != "kitchen.order" || pub.keys[1] != "bar.order" {
		t.Fatalf("routing keys = %v", pub.keys)
	}

	var job Job
	if err := json.Unmarshal(pub.bodies[0], &job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if job.Station != models.CategoryKitchen || len(job.Items) != 1 || job.Items[0].Name != "Milanesa" {
		t.Fatalf("unexpected kitchen job: %+v", job)
	}
}

func TestDispatchSkipsEmptyStations(t *testing.T) {
	order := models.Order{
		OrderID: "order-2",
		Items:   []models.Item{{ItemID: "i1", Category: models.CategoryKitchen}},
	}
	pub := &recordingPublisher{}
	if err := Dispatch(context.Background(), pub, order); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(pub.keys) != 1 || pub.keys[0] != "kitchen.order" {
		t.Fatalf("routing keys = %v", pub.keys)
	}
}
