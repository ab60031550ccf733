package serial

import "bytes"

// MockPort is an in-memory Port that cmd/ptzfw falls back to for local
// development without a physical link.
type MockPort struct {
	In  bytes.Buffer // bytes the host "sent"
	Out bytes.Buffer // bytes the firmware wrote back
}

func NewMockPort() *MockPort { return &MockPort{} }

func (m *MockPort) Read(b []byte) (int, error)  { return m.In.Read(b) }
func (m *MockPort) Write(b []byte) (int, error) { return m.Out.Write(b) }
func (m *MockPort) Close() error                { return nil }
func (m *MockPort) Flush() error                { return nil }
