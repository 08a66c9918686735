package universe

import (
	"fmt"
	"regexp"

	"github.com/wonny/pocscan/internal/contracts"
)

// KRX 6자리 종목코드
var codePattern = regexp.MustCompile(`^\d{6}$`)

// Registry is the fixed, ordered list of instruments scanned on every run
// ⭐ SSOT: 스캔 대상 종목은 여기서만 정의
type Registry struct {
	instruments []contracts.Instrument
	index       map[string]int
}

// New builds a registry; symbols must be unique 6-digit KRX codes
func New(instruments []contracts.Instrument) (*Registry, error) {
	r := &Registry{
		instruments: make([]contracts.Instrument, 0, len(instruments)),
		index:       make(map[string]int, len(instruments)),
	}

	for _, inst := range instruments {
		if !codePattern.MatchString(inst.Symbol) {
			return nil, fmt.Errorf("invalid symbol %q: want 6-digit code", inst.Symbol)
		}
		if inst.Name == "" {
			return nil, fmt.Errorf("symbol %s: name is required", inst.Symbol)
		}
		if _, dup := r.index[inst.Symbol]; dup {
			return nil, fmt.Errorf("duplicate symbol %s", inst.Symbol)
		}
		r.index[inst.Symbol] = len(r.instruments)
		r.instruments = append(r.instruments, inst)
	}

	if len(r.instruments) == 0 {
		return nil, fmt.Errorf("universe is empty")
	}

	return r, nil
}

// Default returns the built-in 20 large-cap KOSPI universe
func Default() *Registry {
	r, err := New(defaultInstruments)
	if err != nil {
		panic(fmt.Sprintf("default universe: %v", err))
	}
	return r
}

// Instruments returns a copy of the universe in scan order
func (r *Registry) Instruments() []contracts.Instrument {
	out := make([]contracts.Instrument, len(r.instruments))
	copy(out, r.instruments)
	return out
}

// Len returns the universe size
func (r *Registry) Len() int {
	return len(r.instruments)
}

// Lookup finds an instrument by symbol
func (r *Registry) Lookup(symbol string) (contracts.Instrument, bool) {
	i, ok := r.index[symbol]
	if !ok {
		return contracts.Instrument{}, false
	}
	return r.instruments[i], true
}

// Sectors returns the distinct sectors in first-seen order
func (r *Registry) Sectors() []string {
	seen := make(map[string]bool)
	sectors := make([]string, 0)
	for _, inst := range r.instruments {
		if !seen[inst.Sector] {
			seen[inst.Sector] = true
			sectors = append(sectors, inst.Sector)
		}
	}
	return sectors
}
