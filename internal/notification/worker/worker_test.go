package worker

import "testing"

func TestRenderTemplate(t *testing.T) {
	payload := payloadData{
		"order_number": float64(42),
	}
	got := renderTemplate("Pago confirmado para el pedido {order_number}.", payload)
	if got != "Pago confirmado para el pedido 42." {
		t.Fatalf("unexpected template render: %s", got)
	}
}

func TestRenderTemplateReservation(t *testing.T) {
	payload := payloadData{
		"date":             "2026-09-12",
		"time":             "21:00",
		"rejection_reason": "sala completa",
	}
	got := renderTemplate(defaultTemplate("reservation_rejected", "es"), payload)
	want := "Su reserva del 2026-09-12 a las 21:00 fue rechazada: sala completa"
	if got != want {
		t.Fatalf("render = %q, want %q", got, want)
	}
}

func TestTemplateForEvent(t *testing.T) {
	if templateForEvent("delivery_payment_confirmed") != "payment_confirmed" {
		t.Fatal("payment events must map to the payment template")
	}
	if templateForEvent("reservation_created") != "" {
		t.Fatal("created events carry no notification")
	}
}
