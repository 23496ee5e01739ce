package bridge

import "testing"

func TestDetectChipsets_ReturnsCatalogCopy(t *testing.T) {
	// GIVEN the detection catalog
	first := DetectChipsets()
	if len(first) == 0 {
		t.Fatal("DetectChipsets returned no entries")
	}

	// WHEN a caller mutates its copy
	first[0].Name = "mutated"

	// THEN a fresh detection is unaffected
	second := DetectChipsets()
	if second[0].Name == "mutated" {
		t.Error("DetectChipsets shares state with callers")
	}
}

func TestLookupChipset_Known(t *testing.T) {
	// GIVEN a vendor/device pair from the catalog
	info, ok := LookupChipset(0x8086, 0x7A04)

	// THEN the Intel entry comes back with its capabilities
	if !ok {
		t.Fatal("LookupChipset: known chipset not found")
	}
	if info.Type != ChipsetIntel {
		t.Errorf("type: got %v, want %v", info.Type, ChipsetIntel)
	}
	if !info.Capabilities.DMA || info.Capabilities.MaxTransferSize == 0 {
		t.Errorf("capabilities not populated: %+v", info.Capabilities)
	}
}

func TestLookupChipset_Unknown(t *testing.T) {
	// GIVEN an ID pair not in the catalog
	_, ok := LookupChipset(0xDEAD, 0xBEEF)

	// THEN the lookup reports not-found
	if ok {
		t.Error("LookupChipset: unknown chipset reported as found")
	}
}
