// Package mock provides scriptable fakes for transport collaborators.
package mock

import (
	"fmt"
	"sync"

	"github.com/gencam-project/gencam-go/pkg/gentl"
)

// Access records one register access.
type Access struct {
	// Address is the register address.
	Address uint64

	// Size is the read size (reads only).
	Size int

	// Data is the written bytes (writes only).
	Data []byte
}

// Port is a scriptable in-memory register space.
type Port struct {
	mu  sync.Mutex
	mem []byte

	// Reads and Writes record every access in order.
	Reads  []Access
	Writes []Access

	// OnRead, if set, replaces the default memory-backed read.
	OnRead func(address uint64, size int) ([]byte, error)

	// OnWrite, if set, replaces the default memory-backed write.
	OnWrite func(address uint64, data []byte) error

	// ReadErr and WriteErr fail every access when set.
	ReadErr  error
	WriteErr error
}

var _ gentl.Port = (*Port)(nil)

// NewPort creates a port backed by size bytes of zeroed memory.
func NewPort(size int) *Port {
	return &Port{mem: make([]byte, size)}
}

// Seed copies data into memory at address.
func (p *Port) Seed(address uint64, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	copy(p.mem[address:], data)
}

// Mem returns the byte at the given address.
func (p *Port) Mem(address uint64) byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mem[address]
}

// MemRange returns a copy of size bytes at address.
func (p *Port) MemRange(address uint64, size int) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]byte, size)
	copy(out, p.mem[address:int(address)+size])
	return out
}

func (p *Port) Read(address uint64, size int) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Reads = append(p.Reads, Access{Address: address, Size: size})
	if p.ReadErr != nil {
		return nil, p.ReadErr
	}
	if p.OnRead != nil {
		return p.OnRead(address, size)
	}
	if int(address)+size > len(p.mem) {
		return nil, fmt.Errorf("read out of range: %#x+%d", address, size)
	}
	out := make([]byte, size)
	copy(out, p.mem[address:int(address)+size])
	return out, nil
}

func (p *Port) Write(address uint64, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	recorded := append([]byte(nil), data...)
	p.Writes = append(p.Writes, Access{Address: address, Data: recorded})
	if p.WriteErr != nil {
		return p.WriteErr
	}
	if p.OnWrite != nil {
		return p.OnWrite(address, data)
	}
	if int(address)+len(data) > len(p.mem) {
		return fmt.Errorf("write out of range: %#x+%d", address, len(data))
	}
	copy(p.mem[address:], data)
	return nil
}
