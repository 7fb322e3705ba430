package pipeline

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/timmy/soulsync/internal/domain"
)

const (
	minGate = 1
	maxGate = 64
)

// ExtractGates returns the distinct gate numbers found in the blueprint, ascending.
// Gates are read from any "gates" key, at any depth. Values may be strings
// such as "34.3" (gate.line), plain numbers, or nested objects of such arrays.
// Anything outside 1..64 is ignored.
func ExtractGates(blueprint domain.Blueprint) []int {
	var root interface{}
	dec := json.NewDecoder(bytes.NewReader(blueprint))
	dec.UseNumber()
	if err := dec.Decode(&root); err != nil {
		return nil
	}

	seen := make(map[int]struct{})
	collectGates(root, false, seen)

	gates := make([]int, 0, len(seen))
	for g := range seen {
		gates = append(gates, g)
	}
	sort.Ints(gates)
	return gates
}

func collectGates(v interface{}, inGates bool, seen map[int]struct{}) {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, child := range t {
			collectGates(child, inGates || strings.EqualFold(k, "gates"), seen)
		}
	case []interface{}:
		for _, child := range t {
			collectGates(child, inGates, seen)
		}
	case string:
		if inGates {
			addGate(t, seen)
		}
	case json.Number:
		if inGates {
			addGate(t.String(), seen)
		}
	}
}

func addGate(raw string, seen map[int]struct{}) {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '.'); i >= 0 {
		raw = raw[:i]
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < minGate || n > maxGate {
		return
	}
	seen[n] = struct{}{}
}
