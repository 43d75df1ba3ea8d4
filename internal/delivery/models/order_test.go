package models

import "testing"

func TestPartition(t *testing.T) {
	items := []Item{
		{ItemID: "i1", Category: CategoryKitchen},
		{ItemID: "i2", Category: CategoryBar},
		{ItemID: "i3", Category: CategoryKitchen},
	}
	kitchen, bar := Partition(items)
	if len(kitchen) != 2 || len(bar) != 1 {
		t.Fatalf("partition sizes kitchen=%d bar=%d", len(kitchen), len(bar))
	}
	if bar[0].ItemID != "i2" {
		t.Fatalf("bar item = %q", bar[0].ItemID)
	}
}

func TestPartitionDefaultsToKitchen(t *testing.T) {
	kitchen, bar := Partition([]Item{{ItemID: "i1", Category: ""}})
	if len(kitchen) != 1 || len(bar) != 0 {
		t.Fatal("unknown category must fall back to the kitchen station")
	}
}

func TestAllItemsReady(t *testing.T) {
	if AllItemsReady(nil) {
		t.Fatal("empty order must not count as ready")
	}
	items := []Item{{Status: ItemReady}, {Status: ItemPreparing}}
	if AllItemsReady(items) {
		t.Fatal("preparing item must block readiness")
	}
	items[1].Status = ItemReady
	if !AllItemsReady(items) {
		t.Fatal("all ready items must mark the order ready")
	}
}
