// Package award defines achievement badges and decides whether they have
// been earned.
package award

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed awards.json
var builtinJSON []byte

// Criteria understood by HasEarned.
const (
	CriterionIssues = "issues"
	CriterionClosed = "closed"
	CriterionTags   = "tags"
)

// Colors names the palette award colors are drawn from.
var Colors = []string{
	"Dark Blue", "Dark Gray", "Gold", "Gray", "Green", "Light Blue",
	"Midnight", "Orange", "Pink", "Purple", "Red", "Teal",
}

// Award is a badge earned by reaching a count threshold.
type Award struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Criterion   string `json:"criterion"`
	Value       int    `json:"value"`
	Image       string `json:"image"`
}

// ID returns the award's identity, its name.
func (a Award) ID() string { return a.Name }

// Counter is the count source awards are checked against.
type Counter interface {
	CountIssues() int
	CountClosedIssues() int
	CountTags() int
}

// HasEarned reports whether the counts reached the award's threshold. An
// unknown criterion is never earned.
func HasEarned(a Award, c Counter) bool {
	switch a.Criterion {
	case CriterionIssues:
		return c.CountIssues() >= a.Value
	case CriterionClosed:
		return c.CountClosedIssues() >= a.Value
	case CriterionTags:
		return c.CountTags() >= a.Value
	default:
		return false
	}
}

// paletteColor returns the palette spelling of name, matched
// case-insensitively.
func paletteColor(name string) (string, bool) {
	for _, c := range Colors {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}

// Load decodes a JSON array of award definitions. Unknown fields, an empty
// list, an award without a name or criterion, or a color outside Colors are
// errors. An empty color is allowed.
func Load(r io.Reader) ([]Award, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var awards []Award
	if err := dec.Decode(&awards); err != nil {
		return nil, fmt.Errorf("decoding awards: %w", err)
	}
	if len(awards) == 0 {
		return nil, errors.New("decoding awards: no awards defined")
	}

	seen := make(map[string]bool, len(awards))
	for i, a := range awards {
		if a.Name == "" {
			return nil, fmt.Errorf("award %d: name is required", i)
		}
		if a.Criterion == "" {
			return nil, fmt.Errorf("award %q: criterion is required", a.Name)
		}
		if a.Color != "" {
			c, ok := paletteColor(a.Color)
			if !ok {
				return nil, fmt.Errorf("award %q: unknown color %q", a.Name, a.Color)
			}
			awards[i].Color = c
		}
		if seen[a.Name] {
			return nil, fmt.Errorf("award %q: duplicate name", a.Name)
		}
		seen[a.Name] = true
	}
	return awards, nil
}

// LoadFile reads award definitions from path.
func LoadFile(path string) ([]Award, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening awards file: %w", err)
	}
	defer f.Close()

	awards, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return awards, nil
}

// Builtin returns the award definitions shipped with the binary. It panics
// if they are malformed.
func Builtin() []Award {
	awards, err := Load(bytes.NewReader(builtinJSON))
	if err != nil {
		panic(fmt.Sprintf("builtin awards: %v", err))
	}
	return awards
}
