// Chipset catalog: simulated enumeration of the chipsets the bridge knows
// how to drive, with their capability sets. Feeds device registration in
// demos and tests; a real deployment would populate this from PCI
// enumeration.

package bridge

// DriverCapabilities describes what a chipset's driver supports.
type DriverCapabilities struct {
	DMA             bool
	MSI             bool
	PowerManagement bool
	PCIe            bool
	MaxTransferSize uint32
	Alignment       uint32
}

// ChipsetInfo describes one detectable chipset.
type ChipsetInfo struct {
	Name         string
	Vendor       string
	VendorID     uint32
	DeviceID     uint32
	Type         ChipsetType
	Capabilities DriverCapabilities
}

// chipsetCatalog is the simulated detection table.
var chipsetCatalog = []ChipsetInfo{
	{
		Name:     "Z790 Platform Controller Hub",
		Vendor:   "Intel Corporation",
		VendorID: 0x8086, DeviceID: 0x7A04,
		Type: ChipsetIntel,
		Capabilities: DriverCapabilities{
			DMA: true, MSI: true, PowerManagement: true, PCIe: true,
			MaxTransferSize: 65536, Alignment: 64,
		},
	},
	{
		Name:     "X670 Chipset",
		Vendor:   "Advanced Micro Devices",
		VendorID: 0x1022, DeviceID: 0x43F4,
		Type: ChipsetAMD,
		Capabilities: DriverCapabilities{
			DMA: true, MSI: true, PowerManagement: true, PCIe: true,
			MaxTransferSize: 65536, Alignment: 64,
		},
	},
	{
		Name:     "GeForce Host Interface",
		Vendor:   "NVIDIA Corporation",
		VendorID: 0x10DE, DeviceID: 0x2684,
		Type: ChipsetNvidia,
		Capabilities: DriverCapabilities{
			DMA: true, MSI: true, PowerManagement: true, PCIe: true,
			MaxTransferSize: 131072, Alignment: 128,
		},
	},
	{
		Name:     "Snapdragon Interconnect",
		Vendor:   "Qualcomm",
		VendorID: 0x17CB, DeviceID: 0x0108,
		Type: ChipsetQualcomm,
		Capabilities: DriverCapabilities{
			DMA: true, MSI: false, PowerManagement: true, PCIe: false,
			MaxTransferSize: 32768, Alignment: 32,
		},
	},
}

// DetectChipsets returns the catalog of detectable chipsets. The result
// is a copy; callers may modify it freely.
func DetectChipsets() []ChipsetInfo {
	out := make([]ChipsetInfo, len(chipsetCatalog))
	copy(out, chipsetCatalog)
	return out
}

// LookupChipset finds a catalog entry by vendor and device ID.
func LookupChipset(vendorID, deviceID uint32) (ChipsetInfo, bool) {
	for _, info := range chipsetCatalog {
		if info.VendorID == vendorID && info.DeviceID == deviceID {
			return info, true
		}
	}
	return ChipsetInfo{}, false
}
