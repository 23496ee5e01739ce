// Device registry: bookkeeping for the devices whose drivers submit
// requests through the bridge. Lookups are map-keyed by device ID; an
// auxiliary ordered list preserves registration order for enumeration.

package bridge

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ChipsetType identifies the chipset family a device belongs to.
type ChipsetType uint8

const (
	ChipsetIntel ChipsetType = iota
	ChipsetAMD
	ChipsetNvidia
	ChipsetQualcomm
	ChipsetUnknown
)

var chipsetNames = map[ChipsetType]string{
	ChipsetIntel:    "intel",
	ChipsetAMD:      "amd",
	ChipsetNvidia:   "nvidia",
	ChipsetQualcomm: "qualcomm",
	ChipsetUnknown:  "unknown",
}

func (c ChipsetType) String() string {
	if s, ok := chipsetNames[c]; ok {
		return s
	}
	return fmt.Sprintf("chipset(%d)", uint8(c))
}

// DeviceContext tracks one registered device. ActiveRequests is updated
// from both producer and dispatcher goroutines, hence atomic.
type DeviceContext struct {
	DeviceID  uint32
	Chipset   ChipsetType
	AIManaged bool // whether the engine scores this device's requests

	activeRequests atomic.Int64
}

// ActiveRequests returns the number of requests currently in flight for
// this device.
func (d *DeviceContext) ActiveRequests() int64 {
	return d.activeRequests.Load()
}

func (d *DeviceContext) String() string {
	return fmt.Sprintf("Device: (ID: 0x%x, Chipset: %s, Active: %d)", d.DeviceID, d.Chipset, d.ActiveRequests())
}

// DeviceRegistry holds registered devices. All methods are safe for
// concurrent use.
type DeviceRegistry struct {
	mu    sync.Mutex
	byID  map[uint32]*DeviceContext
	order []uint32 // registration order, for List
}

// NewDeviceRegistry returns an empty registry.
func NewDeviceRegistry() *DeviceRegistry {
	return &DeviceRegistry{byID: make(map[uint32]*DeviceContext)}
}

// Register adds a device. Registering an already-present ID fails with
// ErrInvalidArgument.
func (r *DeviceRegistry) Register(deviceID uint32, chipset ChipsetType, aiManaged bool) (*DeviceContext, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[deviceID]; exists {
		return nil, fmt.Errorf("%w: device 0x%x already registered", ErrInvalidArgument, deviceID)
	}
	ctx := &DeviceContext{DeviceID: deviceID, Chipset: chipset, AIManaged: aiManaged}
	r.byID[deviceID] = ctx
	r.order = append(r.order, deviceID)
	return ctx, nil
}

// Unregister removes a device by ID.
func (r *DeviceRegistry) Unregister(deviceID uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[deviceID]; !exists {
		return fmt.Errorf("%w: device 0x%x not registered", ErrInvalidArgument, deviceID)
	}
	delete(r.byID, deviceID)
	for i, id := range r.order {
		if id == deviceID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get looks up a device by ID.
func (r *DeviceRegistry) Get(deviceID uint32) (*DeviceContext, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx, ok := r.byID[deviceID]
	return ctx, ok
}

// Len returns the number of registered devices.
func (r *DeviceRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// List returns the registered devices in registration order.
func (r *DeviceRegistry) List() []*DeviceContext {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*DeviceContext, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}
