package mqtt

import (
	"fmt"
	"sync"

	coremqtt "github.com/kilianp07/drt/core/mqtt"
)

// Publisher mirrors the core mqtt.Publisher interface.
type Publisher = coremqtt.Publisher

// MockPublisher records commands in memory. It is used by tests and by dry
// runs that want the command stream without a broker.
type MockPublisher struct {
	mu       sync.Mutex
	Commands []coremqtt.Command
	// FailIDs makes publishing for these vehicles fail.
	FailIDs map[string]bool
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{FailIDs: make(map[string]bool)}
}

// PublishCommand records the command or returns an error if configured to fail.
func (m *MockPublisher) PublishCommand(cmd coremqtt.Command) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailIDs[cmd.VehicleID] {
		return "", fmt.Errorf("publish failed")
	}
	if cmd.CommandID == "" {
		cmd.CommandID = fmt.Sprintf("cmd-%d", len(m.Commands)+1)
	}
	m.Commands = append(m.Commands, cmd)
	return cmd.CommandID, nil
}

// Sent returns a copy of the recorded commands.
func (m *MockPublisher) Sent() []coremqtt.Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]coremqtt.Command(nil), m.Commands...)
}
