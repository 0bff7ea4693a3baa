package parser

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps client codes to parsers. Codes are matched case-insensitively.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser
}

// NewRegistry creates a registry holding parsers
func NewRegistry(parsers ...Parser) (*Registry, error) {
	r := &Registry{parsers: make(map[string]Parser)}
	for _, p := range parsers {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Register adds p under its client code. A code can only be registered once.
func (r *Registry) Register(p Parser) error {
	if p == nil {
		return fmt.Errorf("nil parser")
	}
	code := normalizeCode(p.ClientCode())
	if code == "" {
		return fmt.Errorf("parser has an empty client code")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.parsers[code]; ok {
		return fmt.Errorf("client code %s already registered", code)
	}
	r.parsers[code] = p
	return nil
}

// Get returns the parser for code
func (r *Registry) Get(code string) (Parser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[normalizeCode(code)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClient, code)
	}
	return p, nil
}

// Codes returns the registered client codes in sorted order
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]string, 0, len(r.parsers))
	for code := range r.parsers {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
