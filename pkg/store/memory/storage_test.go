package memory

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nimburion/i18nloader/pkg/store"
)

func TestStorage_CRUD(t *testing.T) {
	s := New(0)

	if _, err := s.GetItem("missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.SetItem("b", "2"); err != nil {
		t.Fatalf("SetItem() error = %v", err)
	}
	if err := s.SetItem("a", "1"); err != nil {
		t.Fatalf("SetItem() error = %v", err)
	}
	if got, _ := s.GetItem("a"); got != "1" {
		t.Fatalf("GetItem(a) = %q", got)
	}

	keys, err := s.Keys()
	if err != nil || !reflect.DeepEqual(keys, []string{"a", "b"}) {
		t.Fatalf("Keys() = %v, %v", keys, err)
	}

	if err := s.RemoveItem("a"); err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}
	if err := s.RemoveItem("a"); err != nil {
		t.Fatalf("RemoveItem() of a missing key error = %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 key, got %d", s.Len())
	}
}

func TestStorage_Quota(t *testing.T) {
	s := New(10)

	if err := s.SetItem("k", "12345"); err != nil {
		t.Fatalf("SetItem() error = %v", err)
	}
	if err := s.SetItem("k2", "1234567"); !errors.Is(err, store.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if err := s.SetItem("k", "123456789"); err != nil {
		t.Fatalf("overwriting within quota failed: %v", err)
	}
	if err := s.RemoveItem("k"); err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}
	if err := s.SetItem("k2", "1234567"); err != nil {
		t.Fatalf("SetItem() after freeing space error = %v", err)
	}
}

func TestDisabled(t *testing.T) {
	var s store.Storage = store.Disabled{}
	if _, err := s.GetItem("k"); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("GetItem() = %v", err)
	}
	if err := s.SetItem("k", "v"); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("SetItem() = %v", err)
	}
	if err := s.RemoveItem("k"); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("RemoveItem() = %v", err)
	}
	if _, err := s.Keys(); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("Keys() = %v", err)
	}
}
