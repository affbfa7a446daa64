// Package currency defines the canonical symbols and symbol pairs the
// library operates on, together with the per-exchange variant spellings
// that normalize onto them.
package currency

import (
	"fmt"
	"strings"
)

// Symbol is a canonical lowercase currency code, e.g. "btc".
type Symbol string

// Canonical symbols.
const (
	USD Symbol = "usd"
	BTC Symbol = "btc"
	BCH Symbol = "bch"
	BTG Symbol = "btg"
	ETH Symbol = "eth"
	ETC Symbol = "etc"
	LTC Symbol = "ltc"
	IOT Symbol = "iot"
	BFX Symbol = "bfx"
	XRP Symbol = "xrp"
	EOS Symbol = "eos"
)

// Symbols lists every canonical symbol.
var Symbols = []Symbol{USD, BTC, BCH, BTG, ETH, ETC, LTC, IOT, BFX, XRP, EOS}

// symbolVariants maps each canonical symbol to the wire spellings used by
// the supported exchanges. Variant sets must stay disjoint across symbols.
var symbolVariants = map[Symbol][]string{
	USD: {"zusd"},
	BTC: {"xxbt", "xbt"},
	BCH: {"bcc"},
	BTG: {},
	ETH: {"xeth"},
	ETC: {"xetc"},
	LTC: {"xltc"},
	IOT: {},
	BFX: {},
	XRP: {"xxrp"},
	EOS: {},
}

// Pair is a canonical "{base}_{quote}" trading instrument code, e.g. "btc_usd".
type Pair string

// Canonical symbol pairs.
const (
	BTCUSD Pair = "btc_usd"
	ETHUSD Pair = "eth_usd"
	ETCUSD Pair = "etc_usd"
	LTCUSD Pair = "ltc_usd"
	BCHUSD Pair = "bch_usd"
	XRPUSD Pair = "xrp_usd"
	EOSUSD Pair = "eos_usd"
	BTGUSD Pair = "btg_usd"
)

// Pairs lists every canonical symbol pair.
var Pairs = []Pair{BTCUSD, ETHUSD, ETCUSD, LTCUSD, BCHUSD, XRPUSD, EOSUSD, BTGUSD}

// pairVariants maps each canonical pair to its wire spellings, including
// Kraken's X/Z-prefixed codes and OKEx quarterly futures contract names.
var pairVariants = map[Pair][]string{
	BTCUSD: {"btcusd", "xbtusd", "xxbtzusd", "btc0929", "btc1229"},
	ETHUSD: {"ethusd", "xethzusd", "eth0511", "eth0518", "eth0629", "eth0929", "eth1229"},
	ETCUSD: {"etcusd", "xetczusd", "etc0929", "etc1229"},
	LTCUSD: {"ltcusd", "xltczusd", "ltc0511", "ltc0518", "ltc0629", "ltc0929", "ltc1229"},
	BCHUSD: {"bchusd", "bccusd", "bch0929", "bch1229"},
	XRPUSD: {"xrpusd", "xxrpzusd", "xrp0929", "xrp1229"},
	EOSUSD: {"eosusd", "eos0929", "eos1229"},
	BTGUSD: {"btgusd", "btg0929", "btg1229"},
}

// String returns the symbol as a plain string.
func (s Symbol) String() string { return string(s) }

// String returns the pair as a plain string.
func (p Pair) String() string { return string(p) }

// Base returns the base symbol of the pair.
func (p Pair) Base() Symbol {
	parts := strings.SplitN(string(p), "_", 2)
	return Symbol(parts[0])
}

// Quote returns the quote symbol of the pair.
func (p Pair) Quote() Symbol {
	parts := strings.SplitN(string(p), "_", 2)
	if len(parts) < 2 {
		return ""
	}
	return Symbol(parts[1])
}

// IsValidSymbol reports whether s is a canonical symbol.
func IsValidSymbol(s Symbol) bool {
	_, ok := symbolVariants[s]
	return ok
}

// IsValidPair reports whether p is a canonical pair.
func IsValidPair(p Pair) bool {
	_, ok := pairVariants[p]
	return ok
}

// NormalizeSymbol maps a wire spelling onto its canonical symbol. Canonical
// input passes through unchanged; an unregistered spelling is an error.
func NormalizeSymbol(raw string) (Symbol, error) {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := symbolVariants[Symbol(lowered)]; ok {
		return Symbol(lowered), nil
	}
	for symbol, variants := range symbolVariants {
		for _, variant := range variants {
			if lowered == variant {
				return symbol, nil
			}
		}
	}
	return "", fmt.Errorf("could not normalize %q symbol", raw)
}

// NormalizePair maps a wire spelling onto its canonical pair. Canonical
// input passes through unchanged; an unregistered spelling is an error.
func NormalizePair(raw string) (Pair, error) {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := pairVariants[Pair(lowered)]; ok {
		return Pair(lowered), nil
	}
	for pair, variants := range pairVariants {
		for _, variant := range variants {
			if lowered == variant {
				return pair, nil
			}
		}
	}
	return "", fmt.Errorf("could not normalize %q symbol pair", raw)
}

// Variants returns the registered wire spellings for a canonical pair.
func Variants(p Pair) []string {
	variants := pairVariants[p]
	out := make([]string, len(variants))
	copy(out, variants)
	return out
}

// SymbolVariants returns the registered wire spellings for a canonical symbol.
func SymbolVariants(s Symbol) []string {
	variants := symbolVariants[s]
	out := make([]string, len(variants))
	copy(out, variants)
	return out
}
