package engine

import (
	"encoding/json"
	"fmt"
)

// Config is the per-instance configuration blob read via
// tokenizer.HostIO.ReadArg, opaque to the core beyond the fields it
// understands. rezoekt decodes the fields it understands and ignores
// the rest, the way engine-embedded controllers typically accept a
// superset JSON document from the host.
type Config struct {
	// Pattern is the regex text (RegexBuilder surface syntax) for the
	// session's sole constraint. Sessions needing more than one regex
	// evaluated in lockstep should use NewSession directly with
	// pre-built rx.ExprRefs instead of decoding a Config.
	Pattern string `json:"pattern"`
}

// ParseConfig decodes a read_arg() blob. Unknown fields are ignored,
// keeping the core agnostic to host-side bookkeeping fields.
func ParseConfig(blob []byte) (Config, error) {
	var cfg Config
	if err := json.Unmarshal(blob, &cfg); err != nil {
		return Config{}, fmt.Errorf("engine: decoding config blob: %w", err)
	}
	return cfg, nil
}
