package cart

import (
	"testing"

	"tableside/internal/domain"
)

func item(id int, name string, price float64) domain.MenuItem {
	return domain.MenuItem{ID: id, Name: name, Price: price}
}

func TestAddItemMergesExistingLine(t *testing.T) {
	s := New(NewMemoryStorage())
	s.SetRestaurant(1)

	s.AddItem(item(10, "Margherita", 11.5), 1)
	s.AddItem(item(10, "Margherita", 11.5), 1)

	lines := s.Items()
	if len(lines) != 1 {
		t.Fatalf("expected one merged line, got %d", len(lines))
	}
	if lines[0].Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", lines[0].Quantity)
	}
	if s.Count() != 2 {
		t.Errorf("expected count 2, got %d", s.Count())
	}
}

func TestAddItemPreservesInsertionOrder(t *testing.T) {
	s := New(NewMemoryStorage())
	s.SetRestaurant(1)

	s.AddItem(item(1, "Tiramisu", 6), 1)
	s.AddItem(item(2, "Espresso", 2), 1)
	s.AddItem(item(1, "Tiramisu", 6), 3)

	lines := s.Items()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].ItemID != 1 || lines[1].ItemID != 2 {
		t.Errorf("insertion order lost: %+v", lines)
	}
	if lines[0].Quantity != 4 {
		t.Errorf("expected merged quantity 4, got %d", lines[0].Quantity)
	}
}

func TestAddItemClampsQuantityToOne(t *testing.T) {
	s := New(NewMemoryStorage())
	s.SetRestaurant(1)
	s.AddItem(item(1, "Focaccia", 4), 0)
	if got := s.Count(); got != 1 {
		t.Errorf("expected quantity clamped to 1, got %d", got)
	}
}

func TestDecrementRemovesLineAtOne(t *testing.T) {
	s := New(NewMemoryStorage())
	s.SetRestaurant(1)
	s.AddItem(item(7, "Limonade", 3.5), 1)

	s.Decrement(7)

	if len(s.Items()) != 0 {
		t.Fatalf("expected line removed, got %+v", s.Items())
	}
	if s.Count() != 0 {
		t.Errorf("expected count 0, got %d", s.Count())
	}
	if s.Total() != 0 {
		t.Errorf("expected total 0, got %v", s.Total())
	}
}

func TestIncrementDecrement(t *testing.T) {
	s := New(NewMemoryStorage())
	s.SetRestaurant(1)
	s.AddItem(item(3, "Salade", 8), 2)

	s.Increment(3)
	if got := s.Items()[0].Quantity; got != 3 {
		t.Errorf("expected 3 after increment, got %d", got)
	}
	s.Decrement(3)
	if got := s.Items()[0].Quantity; got != 2 {
		t.Errorf("expected 2 after decrement, got %d", got)
	}
	// unknown ids are ignored
	s.Increment(99)
	s.Decrement(99)
	if got := s.Items()[0].Quantity; got != 2 {
		t.Errorf("unknown item id mutated the cart: %d", got)
	}
}

func TestRemoveIgnoresQuantity(t *testing.T) {
	s := New(NewMemoryStorage())
	s.SetRestaurant(1)
	s.AddItem(item(5, "Risotto", 14), 4)

	s.Remove(5)
	if len(s.Items()) != 0 {
		t.Fatalf("expected empty cart, got %+v", s.Items())
	}
}

func TestClearKeepsSelection(t *testing.T) {
	s := New(NewMemoryStorage())
	s.SetRestaurant(2)
	s.SetTableNumber("T4")
	s.AddItem(item(1, "Tartare", 12), 1)

	s.Clear()

	if len(s.Items()) != 0 {
		t.Errorf("expected items cleared")
	}
	if s.RestaurantID() != 2 || s.TableNumber() != "T4" {
		t.Errorf("selection lost: restaurant=%d table=%q", s.RestaurantID(), s.TableNumber())
	}
}

func TestTotalAndCount(t *testing.T) {
	s := New(NewMemoryStorage())
	s.SetRestaurant(1)
	s.AddItem(item(1, "Pizza", 11.5), 2)
	s.AddItem(item(2, "Bière", 5), 3)

	if got := s.Total(); got != 11.5*2+5*3 {
		t.Errorf("unexpected total %v", got)
	}
	if got := s.Count(); got != 5 {
		t.Errorf("unexpected count %d", got)
	}
}

func TestRestaurantSwitchIsolation(t *testing.T) {
	storage := NewMemoryStorage()
	s := New(storage)

	s.SetRestaurant(1)
	s.SetTableNumber("A1")
	s.AddItem(item(1, "Pho", 13), 2)

	s.SetRestaurant(2)
	if len(s.Items()) != 0 {
		t.Fatalf("expected empty cart for fresh restaurant, got %+v", s.Items())
	}
	s.AddItem(item(9, "Ramen", 15), 1)

	s.SetRestaurant(1)
	lines := s.Items()
	if len(lines) != 1 || lines[0].ItemID != 1 || lines[0].Quantity != 2 {
		t.Fatalf("restaurant 1 cart not restored: %+v", lines)
	}
	if s.TableNumber() != "A1" {
		t.Errorf("table number not restored, got %q", s.TableNumber())
	}

	s.SetRestaurant(2)
	lines = s.Items()
	if len(lines) != 1 || lines[0].ItemID != 9 {
		t.Fatalf("restaurant 2 cart contaminated: %+v", lines)
	}
}

func TestSwitchSurvivesStoreRecreation(t *testing.T) {
	storage := NewMemoryStorage()
	s := New(storage)
	s.SetRestaurant(3)
	s.AddItem(item(4, "Couscous", 16), 1)

	// a new store over the same storage sees the persisted state
	s2 := New(storage)
	s2.SetRestaurant(3)
	if len(s2.Items()) != 1 || s2.Items()[0].ItemID != 4 {
		t.Fatalf("persisted cart not reloaded: %+v", s2.Items())
	}
}
