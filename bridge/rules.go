// Port-forward rule table: NAT/PAT bookkeeping for drivers that redirect
// network traffic through the bridge. Rules live in an id-keyed map with
// an insertion-ordered list for enumeration.

package bridge

import (
	"errors"
	"fmt"
	"sync"
)

// Protocol numbers follow IANA assignments; ProtoAny matches everything.
type Protocol uint8

const (
	ProtoAny  Protocol = 0
	ProtoTCP  Protocol = 6
	ProtoUDP  Protocol = 17
	ProtoSCTP Protocol = 132
)

// Rule flags.
const (
	RuleEnabled uint32 = 1 << iota
	RulePersistent
	RuleNAT
	RulePAT
	RuleBidirectional
)

// DefaultMaxRules bounds the table size.
const DefaultMaxRules = 1024

// Rule table errors.
var (
	ErrRuleNotFound = errors.New("bridge: rule not found")
	ErrRuleLimit    = errors.New("bridge: rule limit reached")
)

// ForwardRule describes one port-forward rule.
type ForwardRule struct {
	ID   uint32
	Name string

	SrcAddr string // empty or "0.0.0.0" matches any source
	SrcPort uint16
	DstAddr string
	DstPort uint16

	Protocol Protocol
	Flags    uint32

	PacketsForwarded uint64
	BytesForwarded   uint64

	DriverID uint32 // owning driver, 0 if unowned
}

// Enabled reports whether the rule is active.
func (r *ForwardRule) Enabled() bool {
	return r.Flags&RuleEnabled != 0
}

// RuleStats aggregates table-wide counters.
type RuleStats struct {
	TotalRules   uint64
	TotalPackets uint64
	TotalBytes   uint64
	Dropped      uint64
}

// PortForwardTable holds the rules. All methods are safe for concurrent
// use; no call takes more than the table's own lock.
type PortForwardTable struct {
	mu       sync.Mutex
	byID     map[uint32]*ForwardRule
	order    []uint32
	nextID   uint32
	maxRules int

	dropped uint64
}

// NewPortForwardTable creates an empty table bounded at maxRules
// (DefaultMaxRules when <= 0).
func NewPortForwardTable(maxRules int) *PortForwardTable {
	if maxRules <= 0 {
		maxRules = DefaultMaxRules
	}
	return &PortForwardTable{
		byID:     make(map[uint32]*ForwardRule),
		nextID:   1,
		maxRules: maxRules,
	}
}

// AddRule validates and inserts a rule, assigning and returning its ID.
func (t *PortForwardTable) AddRule(rule ForwardRule) (uint32, error) {
	if rule.DstAddr == "" {
		return 0, fmt.Errorf("%w: rule destination address required", ErrInvalidArgument)
	}
	if rule.DstPort == 0 {
		return 0, fmt.Errorf("%w: rule destination port required", ErrInvalidArgument)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.byID) >= t.maxRules {
		return 0, ErrRuleLimit
	}
	rule.ID = t.nextID
	t.nextID++
	rule.PacketsForwarded = 0
	rule.BytesForwarded = 0

	stored := rule
	t.byID[stored.ID] = &stored
	t.order = append(t.order, stored.ID)
	return stored.ID, nil
}

// RemoveRule deletes a rule by ID.
func (t *PortForwardTable) RemoveRule(id uint32) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.byID[id]; !ok {
		return ErrRuleNotFound
	}
	delete(t.byID, id)
	for i, rid := range t.order {
		if rid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

// UpdateRule replaces the configuration of an existing rule, preserving
// its ID and traffic counters.
func (t *PortForwardTable) UpdateRule(id uint32, rule ForwardRule) error {
	if rule.DstAddr == "" || rule.DstPort == 0 {
		return fmt.Errorf("%w: rule destination required", ErrInvalidArgument)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	existing, ok := t.byID[id]
	if !ok {
		return ErrRuleNotFound
	}
	rule.ID = id
	rule.PacketsForwarded = existing.PacketsForwarded
	rule.BytesForwarded = existing.BytesForwarded
	*existing = rule
	return nil
}

// GetRule returns a copy of a rule by ID.
func (t *PortForwardTable) GetRule(id uint32) (ForwardRule, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rule, ok := t.byID[id]
	if !ok {
		return ForwardRule{}, ErrRuleNotFound
	}
	return *rule, nil
}

// ListRules returns copies of all rules in insertion order.
func (t *PortForwardTable) ListRules() []ForwardRule {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]ForwardRule, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.byID[id])
	}
	return out
}

// SetEnabled flips a rule's enabled flag.
func (t *PortForwardTable) SetEnabled(id uint32, enabled bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rule, ok := t.byID[id]
	if !ok {
		return ErrRuleNotFound
	}
	if enabled {
		rule.Flags |= RuleEnabled
	} else {
		rule.Flags &^= RuleEnabled
	}
	return nil
}

// RecordForward charges a forwarded packet against a rule's counters.
// Packets hitting a missing or disabled rule count as dropped.
func (t *PortForwardTable) RecordForward(id uint32, bytes uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rule, ok := t.byID[id]
	if !ok || !rule.Enabled() {
		t.dropped++
		if !ok {
			return ErrRuleNotFound
		}
		return fmt.Errorf("%w: rule %d disabled", ErrInvalidArgument, id)
	}
	rule.PacketsForwarded++
	rule.BytesForwarded += bytes
	return nil
}

// NATTranslate maps a source address to the destination address of the
// first enabled NAT rule matching it. A rule with an empty or wildcard
// source matches any address.
func (t *PortForwardTable) NATTranslate(srcAddr string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range t.order {
		rule := t.byID[id]
		if !rule.Enabled() || rule.Flags&RuleNAT == 0 {
			continue
		}
		if rule.SrcAddr == "" || rule.SrcAddr == "0.0.0.0" || rule.SrcAddr == srcAddr {
			return rule.DstAddr, true
		}
	}
	return "", false
}

// PATTranslate maps a source port to the destination port of the first
// enabled PAT rule matching it.
func (t *PortForwardTable) PATTranslate(srcPort uint16) (uint16, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range t.order {
		rule := t.byID[id]
		if !rule.Enabled() || rule.Flags&RulePAT == 0 {
			continue
		}
		if rule.SrcPort == 0 || rule.SrcPort == srcPort {
			return rule.DstPort, true
		}
	}
	return 0, false
}

// Stats returns aggregate counters across all rules.
func (t *PortForwardTable) Stats() RuleStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := RuleStats{TotalRules: uint64(len(t.byID)), Dropped: t.dropped}
	for _, rule := range t.byID {
		stats.TotalPackets += rule.PacketsForwarded
		stats.TotalBytes += rule.BytesForwarded
	}
	return stats
}
