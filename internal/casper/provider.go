package casper

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"casper-learning/internal/domain"
)

// NoProvider stands in for a wallet that is not installed.
type NoProvider struct{}

func (NoProvider) Installed() bool { return false }

func (NoProvider) RequestConnection(context.Context) error { return domain.ErrWalletUnavailable }

func (NoProvider) IsConnected(context.Context) (bool, error) { return false, nil }

func (NoProvider) ActivePublicKey(context.Context) (string, error) {
	return "", domain.ErrWalletUnavailable
}

func (NoProvider) Disconnect(context.Context) error { return nil }

// StaticProvider connects to a fixed public key, typically from configuration.
type StaticProvider struct {
	publicKey string

	mu        sync.Mutex
	connected bool
}

func NewStaticProvider(publicKey string) *StaticProvider {
	return &StaticProvider{publicKey: strings.TrimSpace(publicKey)}
}

func (p *StaticProvider) Installed() bool { return true }

func (p *StaticProvider) RequestConnection(context.Context) error {
	if _, err := ParsePublicKey(p.publicKey); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConnectionRejected, err)
	}
	p.mu.Lock()
	p.connected = true
	p.mu.Unlock()
	return nil
}

func (p *StaticProvider) IsConnected(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected, nil
}

func (p *StaticProvider) ActivePublicKey(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected {
		return "", domain.ErrConnectionRejected
	}
	return p.publicKey, nil
}

func (p *StaticProvider) Disconnect(context.Context) error {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	return nil
}

// KeyFileProvider reads the active public key from a file on every connection
// request, so rotating the file switches accounts.
type KeyFileProvider struct {
	path string

	mu        sync.Mutex
	publicKey string
}

func NewKeyFileProvider(path string) *KeyFileProvider {
	return &KeyFileProvider{path: path}
}

func (p *KeyFileProvider) Installed() bool { return p.path != "" }

func (p *KeyFileProvider) RequestConnection(context.Context) error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("%w: read key file: %v", domain.ErrConnectionRejected, err)
	}
	key, err := ParsePublicKey(string(data))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConnectionRejected, err)
	}
	p.mu.Lock()
	p.publicKey = key.Hex()
	p.mu.Unlock()
	return nil
}

func (p *KeyFileProvider) IsConnected(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.publicKey != "", nil
}

func (p *KeyFileProvider) ActivePublicKey(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.publicKey == "" {
		return "", domain.ErrConnectionRejected
	}
	return p.publicKey, nil
}

func (p *KeyFileProvider) Disconnect(context.Context) error {
	p.mu.Lock()
	p.publicKey = ""
	p.mu.Unlock()
	return nil
}
