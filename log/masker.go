/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"fmt"
	"regexp"
	"strings"
)

// Mask replaces every match of RegExp with Mask.
type Mask struct {
	RegExp *regexp.Regexp
	Mask   string
}

// NewMask compiles cfg.
func NewMask(cfg MaskConfig) (Mask, error) {
	re, err := regexp.Compile(cfg.RegExp)
	if err != nil {
		return Mask{}, err
	}
	return Mask{re, cfg.Mask}, nil
}

// FieldMasker hides the value of a single named secret written in any of several notations.
type FieldMasker struct {
	Field string // lower-cased, a string without it is never touched
	Masks []Mask
}

// NewFieldMasker builds masks for the formats listed in cfg plus its custom masks.
func NewFieldMasker(cfg MaskingRuleConfig) (FieldMasker, error) {
	fm := FieldMasker{Field: strings.ToLower(cfg.Field)}
	maskCfgs := append([]MaskConfig{}, cfg.Masks...)
	name := regexp.QuoteMeta(cfg.Field)
	for _, format := range cfg.Formats {
		switch format {
		case FieldMaskFormatHeader:
			maskCfgs = append(maskCfgs, MaskConfig{`(?i)` + name + `:\s*[^\r\n"']+`, cfg.Field + ": ***"})
		case FieldMaskFormatJSON:
			maskCfgs = append(maskCfgs, MaskConfig{`(?i)"` + name + `"\s*:\s*".*?[^\\]"`, `"` + cfg.Field + `": "***"`})
		case FieldMaskFormatURLEncoded:
			maskCfgs = append(maskCfgs, MaskConfig{`(?i)` + name + `\s*=\s*[^&\s"']+`, cfg.Field + "=***"})
		case FieldMaskFormatCLIFlag:
			maskCfgs = append(maskCfgs, MaskConfig{`(?i)(--?)` + name + `\s+[^\s-]\S*`, "${1}" + cfg.Field + " ***"})
		default:
			return FieldMasker{}, fmt.Errorf("unknown mask format %q", format)
		}
	}
	for _, mc := range maskCfgs {
		m, err := NewMask(mc)
		if err != nil {
			return FieldMasker{}, fmt.Errorf("invalid mask for %q: %w", cfg.Field, err)
		}
		fm.Masks = append(fm.Masks, m)
	}
	return fm, nil
}

// Masker hides secrets in strings. Rules are applied in order.
type Masker struct {
	FieldMasks []FieldMasker
}

// NewMasker builds a Masker from rules.
func NewMasker(rules []MaskingRuleConfig) (*Masker, error) {
	m := &Masker{FieldMasks: make([]FieldMasker, 0, len(rules))}
	for _, rule := range rules {
		fm, err := NewFieldMasker(rule)
		if err != nil {
			return nil, err
		}
		m.FieldMasks = append(m.FieldMasks, fm)
	}
	return m, nil
}

// Mask returns s with every known secret replaced.
func (m *Masker) Mask(s string) string {
	lower := strings.ToLower(s)
	for _, fm := range m.FieldMasks {
		if fm.Field != "" && !strings.Contains(lower, fm.Field) {
			continue
		}
		for _, mask := range fm.Masks {
			s = mask.RegExp.ReplaceAllString(s, mask.Mask)
		}
	}
	return s
}

var allMaskFormats = []FieldMaskFormat{
	FieldMaskFormatHeader, FieldMaskFormatJSON, FieldMaskFormatURLEncoded, FieldMaskFormatCLIFlag,
}

// DefaultMasks hide the usual credentials that end up in command lines, environment assignments and command output.
var DefaultMasks = []MaskingRuleConfig{
	{Field: "Authorization", Formats: []FieldMaskFormat{FieldMaskFormatHeader}},
	{Field: "password", Formats: allMaskFormats},
	{Field: "secret", Formats: allMaskFormats},
	{Field: "token", Formats: allMaskFormats},
	{Field: "api_key", Formats: allMaskFormats},
}
