package cmd

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kernel-bridge/kernel-bridge/bridge"
)

// demoCmd walks the engine's surfaces end to end: synchronous scoring
// with feedback, chipset detection, and a short asynchronous run.
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Walk through prediction, chipset detection, and a short run",
	Run: func(cmd *cobra.Command, args []string) {
		logrus.SetLevel(logrus.WarnLevel)

		fmt.Println("kernel-bridge demo")
		fmt.Println("==================")

		b, err := bridge.New(bridge.DefaultConfig())
		if err != nil {
			logrus.Fatalf("unable to start engine: %v", err)
		}
		defer b.Shutdown()

		demoPredictions(b)
		demoChipsets()
		demoPortForwarding()
		demoBridgeRun(b)
	},
}

// demoPortForwarding sets up a small NAT/PAT rule table and runs traffic
// through it.
func demoPortForwarding() {
	fmt.Println("\n--- Port forwarding ---")

	table := bridge.NewPortForwardTable(0)
	natID, err := table.AddRule(bridge.ForwardRule{
		Name:     "web-nat",
		SrcAddr:  "10.0.0.5",
		DstAddr:  "192.168.1.10",
		DstPort:  80,
		Protocol: bridge.ProtoTCP,
		Flags:    bridge.RuleEnabled | bridge.RuleNAT,
	})
	if err != nil {
		fmt.Printf("add rule: %v\n", err)
		return
	}
	patID, err := table.AddRule(bridge.ForwardRule{
		Name:     "alt-http",
		SrcPort:  80,
		DstAddr:  "192.168.1.10",
		DstPort:  8080,
		Protocol: bridge.ProtoTCP,
		Flags:    bridge.RuleEnabled | bridge.RulePAT,
	})
	if err != nil {
		fmt.Printf("add rule: %v\n", err)
		return
	}

	if dst, ok := table.NATTranslate("10.0.0.5"); ok {
		fmt.Printf("NAT: 10.0.0.5 -> %s\n", dst)
	}
	if port, ok := table.PATTranslate(80); ok {
		fmt.Printf("PAT: port 80 -> %d\n", port)
	}

	table.RecordForward(natID, 1500)
	table.RecordForward(natID, 1500)
	table.RecordForward(patID, 512)

	stats := table.Stats()
	fmt.Printf("rules=%d packets=%d bytes=%d dropped=%d\n",
		stats.TotalRules, stats.TotalPackets, stats.TotalBytes, stats.Dropped)
}

// demoPredictions scores a handful of sample requests synchronously and
// feeds their outcomes back.
func demoPredictions(b *bridge.Bridge) {
	fmt.Println("\n--- Synchronous prediction ---")

	samples := []bridge.Request{
		{Type: bridge.ReqIORead, DeviceID: 0x8086, Address: 0x1000, Size: 64, Priority: 5},
		{Type: bridge.ReqIOWrite, DeviceID: 0x8086, Address: 0x2000, Size: 128, Priority: 7},
		{Type: bridge.ReqDMAAlloc, DeviceID: 0x1022, Address: 0x0, Size: 4096, Priority: 10},
		{Type: bridge.ReqPCIConfig, DeviceID: 0x10DE, Address: 0x100, Size: 4, Priority: 3},
	}

	for i, req := range samples {
		req.Timestamp = bridge.NowNs()
		pred, err := b.ProcessNow(req)
		if err != nil {
			fmt.Printf("request %d: %v\n", i+1, err)
			continue
		}
		fmt.Printf("request %d: %v\n", i+1, req)
		fmt.Printf("  %v\n", pred)

		if err := b.Feedback(req, pred.Decision, pred.EstimatedLatencyUs+100, true); err != nil {
			fmt.Printf("  feedback failed: %v\n", err)
		}
	}

	fmt.Printf("\n%v\n", b.Stats())
}

// demoChipsets lists the detectable chipset catalog with capabilities.
func demoChipsets() {
	fmt.Println("\n--- Chipset detection ---")

	for i, info := range bridge.DetectChipsets() {
		caps := info.Capabilities
		fmt.Printf("%d. %s (%s)\n", i+1, info.Name, info.Vendor)
		fmt.Printf("   VID:DID 0x%04x:0x%04x, type %s\n", info.VendorID, info.DeviceID, info.Type)
		fmt.Printf("   DMA=%v MSI=%v PM=%v PCIe=%v, max transfer %d bytes\n",
			caps.DMA, caps.MSI, caps.PowerManagement, caps.PCIe, caps.MaxTransferSize)
	}
}

// demoBridgeRun submits a burst of requests through the asynchronous
// path and prints the resulting counters.
func demoBridgeRun(b *bridge.Bridge) {
	fmt.Println("\n--- Asynchronous bridge run ---")

	for _, info := range bridge.DetectChipsets() {
		if _, err := b.RegisterDevice(info.DeviceID, info.Type); err != nil {
			fmt.Printf("register device 0x%x: %v\n", info.DeviceID, err)
		}
	}

	burst := []bridge.Request{
		{Type: bridge.ReqIORead, DeviceID: 0x7A04, Address: 0x1000, Size: 64, Priority: 5},
		{Type: bridge.ReqIOWrite, DeviceID: 0x43F4, Address: 0x2000, Size: 128, Priority: 7},
		{Type: bridge.ReqDMAAlloc, DeviceID: 0x2684, Address: 0x0, Size: 8192, Priority: 10},
	}
	for _, req := range burst {
		req.Timestamp = bridge.NowNs()
		if err := b.Submit(req); err != nil {
			fmt.Printf("submit failed: %v\n", err)
		}
	}

	// Give the dispatcher a couple of timeout cycles to drain the burst.
	time.Sleep(50 * time.Millisecond)

	stats := b.Stats()
	fmt.Printf("total=%d forwarded=%d optimized=%d batched=%d failures=%d\n",
		stats.TotalRequests, stats.Forwarded, stats.Optimized, stats.Batched, stats.Failures)
	fmt.Printf("accuracy=%.2f avg latency=%dus, dispatcher wakes=%d\n",
		stats.Accuracy, stats.AvgLatencyUs, b.DispatcherWakes())
}
