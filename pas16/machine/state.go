package machine

import (
	"fmt"
	"os"

	"github.com/valerio/go-pas16/pas16"
)

// SaveState returns the board's save state.
func (m *Machine) SaveState() ([]byte, error) {
	buf := make([]byte, pas16.SerializeSize)
	if err := m.Card.Serialize(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// LoadState restores a board save state taken with SaveState. The DMA
// stream and output position are not part of the state.
func (m *Machine) LoadState(buf []byte) error {
	return m.Card.Deserialize(buf)
}

// SaveStateFile writes the board's save state to path.
func (m *Machine) SaveStateFile(path string) error {
	buf, err := m.SaveState()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("machine: save state: %w", err)
	}
	return nil
}

// LoadStateFile restores the board from a file written by SaveStateFile.
func (m *Machine) LoadStateFile(path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("machine: load state: %w", err)
	}
	return m.LoadState(buf)
}
