package bridge

import (
	"errors"
	"testing"
)

func TestDeviceRegistry_RegisterAndGet(t *testing.T) {
	// GIVEN a registry with one device
	r := NewDeviceRegistry()
	ctx, err := r.Register(0x7A04, ChipsetIntel, true)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	// WHEN the device is looked up
	got, ok := r.Get(0x7A04)

	// THEN the same context comes back
	if !ok || got != ctx {
		t.Errorf("Get: got %v (ok=%v), want %v", got, ok, ctx)
	}
	if got.Chipset != ChipsetIntel || !got.AIManaged {
		t.Errorf("device fields: got %+v", got)
	}
}

func TestDeviceRegistry_DuplicateRegistration(t *testing.T) {
	// GIVEN a registered device
	r := NewDeviceRegistry()
	if _, err := r.Register(1, ChipsetAMD, true); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// WHEN the same ID is registered again
	_, err := r.Register(1, ChipsetNvidia, false)

	// THEN it fails with ErrInvalidArgument
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("duplicate register: got %v, want ErrInvalidArgument", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len after duplicate: got %d, want 1", r.Len())
	}
}

func TestDeviceRegistry_ListPreservesRegistrationOrder(t *testing.T) {
	// GIVEN devices registered in a known order
	r := NewDeviceRegistry()
	ids := []uint32{30, 10, 20}
	for _, id := range ids {
		if _, err := r.Register(id, ChipsetUnknown, false); err != nil {
			t.Fatalf("Register 0x%x: %v", id, err)
		}
	}

	// WHEN listed
	list := r.List()

	// THEN the order matches registration, not ID order
	if len(list) != len(ids) {
		t.Fatalf("List: got %d devices, want %d", len(list), len(ids))
	}
	for i, dev := range list {
		if dev.DeviceID != ids[i] {
			t.Errorf("List[%d]: got 0x%x, want 0x%x", i, dev.DeviceID, ids[i])
		}
	}
}

func TestDeviceRegistry_Unregister(t *testing.T) {
	// GIVEN a registry with two devices
	r := NewDeviceRegistry()
	r.Register(1, ChipsetIntel, true)
	r.Register(2, ChipsetAMD, true)

	// WHEN one is unregistered
	if err := r.Unregister(1); err != nil {
		t.Fatalf("Unregister: %v", err)
	}

	// THEN it is gone and the order list shrank
	if _, ok := r.Get(1); ok {
		t.Error("Get after unregister: device still present")
	}
	if list := r.List(); len(list) != 1 || list[0].DeviceID != 2 {
		t.Errorf("List after unregister: got %v", list)
	}

	// AND unregistering again fails
	if err := r.Unregister(1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("double unregister: got %v, want ErrInvalidArgument", err)
	}
}
