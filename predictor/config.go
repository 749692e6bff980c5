package predictor

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Kind names a predictor variant.
type Kind string

// Supported predictor kinds.
const (
	KindStatic     Kind = "static"
	KindGshare     Kind = "gshare"
	KindTournament Kind = "tournament"
)

// MaxTableBits is the largest width accepted for any table or history. A
// 26-bit table already holds 64M counters.
const MaxTableBits = 26

// MaxFootprintBytes bounds the predictor state one configuration may
// allocate. Widths that are each in range can still add up past it.
const MaxFootprintBytes = 256 << 20

// Config describes one predictor instance. It is passed by value to the
// constructor and never changed afterwards.
type Config struct {
	// Kind selects the predictor variant.
	Kind Kind `json:"kind"`

	// HistoryBits is the gshare global history width, which is also the
	// table index width.
	HistoryBits uint `json:"history_bits"`

	// GlobalBits is the tournament global history width. It sizes the global
	// table and the chooser table.
	GlobalBits uint `json:"global_bits"`

	// LocalHistoryBits is the width of each per-address history register
	// and the index width of the local table.
	LocalHistoryBits uint `json:"local_history_bits"`

	// PCIndexBits is the number of low address bits that select a local
	// history register.
	PCIndexBits uint `json:"pc_index_bits"`

	// CounterInit is the state every counter starts in. Default: weakly not
	// taken.
	CounterInit SaturatingCounter `json:"counter_init"`
}

// DefaultGshareConfig returns a gshare configuration with 13 history bits.
func DefaultGshareConfig() Config {
	return Config{
		Kind:        KindGshare,
		HistoryBits: 13,
		CounterInit: WeaklyNotTaken,
	}
}

// DefaultTournamentConfig returns a tournament configuration with a 9-bit
// global history, 10-bit local histories, and 1024 local history slots.
func DefaultTournamentConfig() Config {
	return Config{
		Kind:             KindTournament,
		GlobalBits:       9,
		LocalHistoryBits: 10,
		PCIndexBits:      10,
		CounterInit:      WeaklyNotTaken,
	}
}

// ParseConfig parses a configuration string of the form
//
//	static
//	gshare:<historyBits>
//	tournament:<globalBits>:<localHistoryBits>:<pcIndexBits>
//
// An optional leading "--" is accepted, so command lines written as
// "--gshare:13" parse as well. Counters start weakly not taken.
func ParseConfig(s string) (Config, error) {
	input := strings.TrimSpace(s)
	body := strings.TrimPrefix(input, "--")

	parts := strings.Split(body, ":")
	name := Kind(strings.ToLower(parts[0]))
	args := parts[1:]

	config := Config{Kind: name, CounterInit: WeaklyNotTaken}

	var widths []*uint
	switch name {
	case KindStatic:
	case KindGshare:
		widths = []*uint{&config.HistoryBits}
	case KindTournament:
		widths = []*uint{
			&config.GlobalBits,
			&config.LocalHistoryBits,
			&config.PCIndexBits,
		}
	default:
		return Config{}, configErrorf(input, ErrUnknownPredictor,
			"unknown predictor %q", parts[0])
	}

	if len(args) != len(widths) {
		return Config{}, configErrorf(input, ErrArity,
			"%s takes %d parameter(s), got %d", name, len(widths), len(args))
	}

	for i, arg := range args {
		w, err := parseWidth(input, arg)
		if err != nil {
			return Config{}, err
		}
		*widths[i] = w
	}

	if err := config.checkFootprint(input); err != nil {
		return Config{}, err
	}

	return config, nil
}

func parseWidth(input, arg string) (uint, error) {
	v, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, configErrorf(input, ErrWidth,
			"width %q is not a positive integer", arg)
	}

	return uint(v), checkWidth(input, "width", uint(v))
}

func checkWidth(input, field string, w uint) error {
	if w == 0 {
		return configErrorf(input, ErrWidth, "%s must be > 0", field)
	}
	if w > MaxTableBits {
		return configErrorf(input, ErrWidth,
			"%s %d exceeds the maximum of %d bits", field, w, MaxTableBits)
	}
	return nil
}

// MustParseConfig is like ParseConfig but panics on error.
func MustParseConfig(s string) Config {
	config, err := ParseConfig(s)
	if err != nil {
		panic(err)
	}
	return config
}

// String returns the configuration string that ParseConfig accepts.
func (c Config) String() string {
	switch c.Kind {
	case KindGshare:
		return fmt.Sprintf("gshare:%d", c.HistoryBits)
	case KindTournament:
		return fmt.Sprintf("tournament:%d:%d:%d",
			c.GlobalBits, c.LocalHistoryBits, c.PCIndexBits)
	default:
		return string(c.Kind)
	}
}

// Validate checks that the configuration names a known predictor and that
// all widths it uses are in range.
func (c Config) Validate() error {
	input := c.String()

	if !c.CounterInit.Valid() {
		return configErrorf(input, ErrCounterInit,
			"counter_init must be between 0 and 3, got %d", c.CounterInit)
	}

	switch c.Kind {
	case KindStatic:
		return nil
	case KindGshare:
		return checkWidth(input, "history_bits", c.HistoryBits)
	case KindTournament:
		if err := checkWidth(input, "global_bits", c.GlobalBits); err != nil {
			return err
		}
		if err := checkWidth(input, "local_history_bits", c.LocalHistoryBits); err != nil {
			return err
		}
		if err := checkWidth(input, "pc_index_bits", c.PCIndexBits); err != nil {
			return err
		}
		return c.checkFootprint(input)
	default:
		return configErrorf(input, ErrUnknownPredictor,
			"unknown predictor %q", c.Kind)
	}
}

// Footprint returns the number of bytes of predictor state the
// configuration allocates: one byte per counter and eight per local history.
// Widths must already be in range.
func (c Config) Footprint() uint64 {
	switch c.Kind {
	case KindGshare:
		return uint64(1) << c.HistoryBits
	case KindTournament:
		return 2*(uint64(1)<<c.GlobalBits) +
			uint64(1)<<c.LocalHistoryBits +
			8*(uint64(1)<<c.PCIndexBits)
	default:
		return 0
	}
}

func (c Config) checkFootprint(input string) error {
	if n := c.Footprint(); n > MaxFootprintBytes {
		return configErrorf(input, ErrTooLarge,
			"needs %d MiB of predictor state, the limit is %d MiB",
			n>>20, MaxFootprintBytes>>20)
	}
	return nil
}

// WithCounterInit returns a copy of the configuration with a different
// initial counter state.
func (c Config) WithCounterInit(initial SaturatingCounter) Config {
	c.CounterInit = initial
	return c
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep the gshare defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read predictor config file: %w", err)
	}

	config := DefaultGshareConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse predictor config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// SaveConfig writes the configuration to a JSON file.
func (c Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize predictor config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write predictor config file: %w", err)
	}

	return nil
}

// ParseCounterInit parses an initial counter state, either as a number 0-3 or
// as a state name such as "weakly-not-taken".
func ParseCounterInit(s string) (SaturatingCounter, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	for c := StronglyNotTaken; c <= StronglyTaken; c++ {
		if s == c.String() || s == strconv.Itoa(int(c)) {
			return c, nil
		}
	}

	return 0, configErrorf(s, ErrCounterInit,
		"expected 0-3 or a state name such as %q", WeaklyNotTaken.String())
}
