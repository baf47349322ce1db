// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package merge

import (
	"context"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/antgroup/hugescm/modules/diferenco"
)

const envConfigPath = "ZETA_MERGE_CONFIG"

// Config is the ambient tuning surface for the merge strategies: which
// conflict-marker style the text driver uses, whether fast-forward
// unpack defaults to aggressive trivial resolution, and an external
// merge program (Tool, ToolArgs) in the shape SpawnMergeCallback takes.
// Nothing in this package passes Tool or ToolArgs to
// SpawnMergeCallback itself.
type Config struct {
	ConflictStyle string   `toml:"conflictStyle,omitempty"`
	Aggressive    *bool    `toml:"aggressive,omitempty"`
	Tool          string   `toml:"tool,omitempty"`
	ToolArgs      []string `toml:"toolArgs,omitempty"`
}

func overwriteString(a, b string) string {
	if len(b) != 0 {
		return b
	}
	return a
}

// Overwrite merges o's non-zero fields onto c, o taking precedence
// (the same override-by-presence rule modules/zeta/config.User.Overwrite
// uses for global-vs-system config layering).
func (c *Config) Overwrite(o *Config) {
	c.ConflictStyle = overwriteString(c.ConflictStyle, o.ConflictStyle)
	c.Tool = overwriteString(c.Tool, o.Tool)
	if o.Aggressive != nil {
		c.Aggressive = o.Aggressive
	}
	if len(o.ToolArgs) != 0 {
		c.ToolArgs = o.ToolArgs
	}
}

// AggressiveDefault reports whether fast-forward unpack should attempt
// trivial three-way resolution when the config doesn't say, defaulting
// to true (the behaviour Resolve/Octopus already assume).
func (c *Config) AggressiveDefault() bool {
	if c == nil || c.Aggressive == nil {
		return true
	}
	return *c.Aggressive
}

// Style resolves the configured conflict-marker style via
// diferenco.ParseConflictStyle, falling back to the zealous diff3
// style DefaultMergeTextDriver already uses.
func (c *Config) Style() int {
	if c == nil || len(c.ConflictStyle) == 0 {
		return diferenco.STYLE_ZEALOUS_DIFF3
	}
	return diferenco.ParseConflictStyle(c.ConflictStyle)
}

// LoadConfig reads the merge config from the path named by
// ZETA_MERGE_CONFIG, if set, falling back to an empty (all-default)
// Config when the variable is unset or the file doesn't exist —
// grounded on modules/zeta/config/decode.go's LoadSystem/LoadGlobal
// layering, reduced to the single-file case this module needs.
func LoadConfig() (*Config, error) {
	path, ok := os.LookupEnv(envConfigPath)
	if !ok {
		return &Config{}, nil
	}
	var cfg Config
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// TextDriver builds the internal three-way text merge driver honouring
// c's configured conflict style, or DefaultMergeTextDriver's own
// zealous-diff3 default when c is nil.
func (c *Config) TextDriver() MergeTextDriver {
	style := c.Style()
	return func(ctx context.Context, textO, textA, textB, labelO, labelA, labelB string) (string, bool, error) {
		return diferenco.Merge(ctx, &diferenco.MergeOptions{
			TextO: textO, TextA: textA, TextB: textB,
			LabelO: labelO, LabelA: labelA, LabelB: labelB,
			A:     diferenco.Histogram,
			Style: style,
		})
	}
}
