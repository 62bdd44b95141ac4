package provider

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// Mode selects which storage backend is active for the process.
type Mode string

const (
	ModeHosted Mode = "hosted"
	ModeDemo   Mode = "demo"
	ModeLocal  Mode = "local"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeHosted, ModeDemo, ModeLocal:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown storage mode %q", s)
	}
}

// Builders construct the provider for each mode on first use. Keeping
// construction behind closures means the demo mode never opens a database
// and the hosted mode never connects until something validates against it.
type Builders struct {
	Hosted func() (DataProvider, error)
	Demo   func() (DataProvider, error)
	Local  func() (DataProvider, error)
}

// Factory resolves the active mode through the supplied resolver and
// memoizes one provider per mode. Reset must be called whenever the
// active mode changes so no stale backend keeps answering.
type Factory struct {
	resolve func() Mode

	mu       sync.Mutex
	builders Builders
	cache    map[Mode]DataProvider
}

func NewFactory(resolve func() Mode, builders Builders) *Factory {
	return &Factory{
		resolve:  resolve,
		builders: builders,
		cache:    make(map[Mode]DataProvider),
	}
}

// Provider returns the provider for the currently active mode, building
// and caching it on first use.
func (f *Factory) Provider() (DataProvider, error) {
	mode := f.resolve()

	f.mu.Lock()
	defer f.mu.Unlock()

	if p, ok := f.cache[mode]; ok {
		return p, nil
	}

	var build func() (DataProvider, error)
	switch mode {
	case ModeHosted:
		build = f.builders.Hosted
	case ModeDemo:
		build = f.builders.Demo
	case ModeLocal:
		build = f.builders.Local
	default:
		return nil, fmt.Errorf("unknown storage mode %q", mode)
	}
	if build == nil {
		return nil, fmt.Errorf("storage mode %q is not configured", mode)
	}

	p, err := build()
	if err != nil {
		return nil, errors.Wrapf(err, "build %s provider", mode)
	}
	f.cache[mode] = p
	return p, nil
}

// Reset drops every cached provider.
func (f *Factory) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache = make(map[Mode]DataProvider)
}
