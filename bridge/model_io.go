// Fixed-layout binary persistence for the full engine state: model
// weights, aggregate stats, and the history ledger. Load validates the
// header and the exact byte size before committing anything, so a
// truncated or mismatched file never leaves the in-memory state
// partially overwritten.

package bridge

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

const (
	modelMagic   = uint32(0x4E4E424D) // "NNBM"
	modelVersion = uint32(1)

	// Fixed byte sizes of the layout sections (little-endian, packed).
	headerBytes  = 6 * 4
	weightsBytes = FeatureSize*HiddenSize + HiddenSize*OutputSize + HiddenSize + OutputSize
	scalesBytes  = 3 * 8
	statsBytes   = 7*8 + 8 + 1
	recordBytes  = 4 + 1 + 4 + 1
)

// modelFileSize returns the exact on-disk size for a given ledger capacity.
func modelFileSize(ledgerCapacity int) int {
	return headerBytes + weightsBytes + scalesBytes + statsBytes + 8 + ledgerCapacity*recordBytes
}

// modelWeights is the serializable form of the quantized network.
type modelWeights struct {
	WIH [FeatureSize][HiddenSize]int8
	WHO [HiddenSize][OutputSize]int8
	BH  [HiddenSize]int8
	BO  [OutputSize]int8

	ScaleInput  float64
	ScaleHidden float64
	ScaleOutput float64
}

// state copies the quantized weights out under the read lock.
func (m *Model) state() modelWeights {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return modelWeights{
		WIH:         m.weightsInputHidden,
		WHO:         m.weightsHiddenOutput,
		BH:          m.biasHidden,
		BO:          m.biasOutput,
		ScaleInput:  m.scaleInput,
		ScaleHidden: m.scaleHidden,
		ScaleOutput: m.scaleOutput,
	}
}

// restore replaces the network wholesale and marks it initialized.
func (m *Model) restore(w modelWeights) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.weightsInputHidden = w.WIH
	m.weightsHiddenOutput = w.WHO
	m.biasHidden = w.BH
	m.biasOutput = w.BO
	m.scaleInput = w.ScaleInput
	m.scaleHidden = w.ScaleHidden
	m.scaleOutput = w.ScaleOutput
	m.densifyLocked()
	m.initialized = true
}

// saveState serializes model + stats + ledger to path.
func saveState(path string, m *Model, stats *StatsAggregator, ledger *HistoryLedger) error {
	weights := m.state()
	st := stats.state()
	records, writes := ledger.snapshot()

	buf := bytes.NewBuffer(make([]byte, 0, modelFileSize(len(records))))

	header := []uint32{
		modelMagic, modelVersion,
		uint32(FeatureSize), uint32(HiddenSize), uint32(OutputSize),
		uint32(len(records)),
	}
	for _, v := range header {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("encoding model header: %w", err)
		}
	}
	if err := binary.Write(buf, binary.LittleEndian, &weights); err != nil {
		return fmt.Errorf("encoding model weights: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, &st); err != nil {
		return fmt.Errorf("encoding stats: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, writes); err != nil {
		return fmt.Errorf("encoding ledger index: %w", err)
	}
	for i := range records {
		rec := &records[i]
		var success uint8
		if rec.Success {
			success = 1
		}
		if err := binary.Write(buf, binary.LittleEndian, rec.Pattern); err != nil {
			return fmt.Errorf("encoding ledger record: %w", err)
		}
		buf.WriteByte(uint8(rec.Decision))
		if err := binary.Write(buf, binary.LittleEndian, rec.LatencyUs); err != nil {
			return fmt.Errorf("encoding ledger record: %w", err)
		}
		buf.WriteByte(success)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing model file: %w", err)
	}
	logrus.Debugf("saved model state to %s (%d bytes)", path, buf.Len())
	return nil
}

// loadState reads, fully validates, and only then commits the file's
// contents into m, stats, and ledger.
func loadState(path string, m *Model, stats *StatsAggregator, ledger *HistoryLedger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading model file: %w", err)
	}

	if len(data) < headerBytes {
		return fmt.Errorf("%w: file shorter than header (%d bytes)", ErrModelCorrupt, len(data))
	}
	r := bytes.NewReader(data)

	var header [6]uint32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("%w: unreadable header", ErrModelCorrupt)
	}
	if header[0] != modelMagic {
		return fmt.Errorf("%w: bad magic 0x%08x", ErrModelCorrupt, header[0])
	}
	if header[1] != modelVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrModelCorrupt, header[1])
	}
	if header[2] != uint32(FeatureSize) || header[3] != uint32(HiddenSize) || header[4] != uint32(OutputSize) {
		return fmt.Errorf("%w: dimension mismatch %dx%dx%d, want %dx%dx%d",
			ErrModelCorrupt, header[2], header[3], header[4], FeatureSize, HiddenSize, OutputSize)
	}
	capacity := int(header[5])
	if capacity <= 0 {
		return fmt.Errorf("%w: ledger capacity %d", ErrModelCorrupt, capacity)
	}
	if want := modelFileSize(capacity); len(data) != want {
		return fmt.Errorf("%w: size %d, want %d", ErrModelCorrupt, len(data), want)
	}

	// Decode everything into staging before touching live state.
	var weights modelWeights
	if err := binary.Read(r, binary.LittleEndian, &weights); err != nil {
		return fmt.Errorf("%w: truncated weights", ErrModelCorrupt)
	}
	var st statsState
	if err := binary.Read(r, binary.LittleEndian, &st); err != nil {
		return fmt.Errorf("%w: truncated stats", ErrModelCorrupt)
	}
	var writes uint64
	if err := binary.Read(r, binary.LittleEndian, &writes); err != nil {
		return fmt.Errorf("%w: truncated ledger index", ErrModelCorrupt)
	}
	records := make([]HistoryRecord, capacity)
	for i := range records {
		var pattern, latency uint32
		var decision, success uint8
		if err := binary.Read(r, binary.LittleEndian, &pattern); err != nil {
			return fmt.Errorf("%w: truncated ledger records", ErrModelCorrupt)
		}
		decision, _ = r.ReadByte()
		if err := binary.Read(r, binary.LittleEndian, &latency); err != nil {
			return fmt.Errorf("%w: truncated ledger records", ErrModelCorrupt)
		}
		success, _ = r.ReadByte()
		records[i] = HistoryRecord{
			Pattern:   pattern,
			Decision:  Decision(decision),
			LatencyUs: latency,
			Success:   success == 1,
		}
	}

	// All-or-nothing commit.
	m.restore(weights)
	stats.restore(st)
	ledger.restore(records, writes)

	logrus.Debugf("loaded model state from %s (%d bytes, ledger capacity %d)", path, len(data), capacity)
	return nil
}
