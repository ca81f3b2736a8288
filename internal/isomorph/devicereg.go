package isomorph

import "strings"

// DeviceDefinition is a registered device master: a name and its terminals'
// canonicalized classes
type DeviceDefinition struct {
	Name      string
	Terminals []int // one class per pin, in declaration order
}

// simpleHash is an xor/shift hash of the uppercased label, used only to
// pre-sort candidate-equal labels before the string comparison that actually
// decides equality.
func simpleHash(s string) uint32 {
	var h uint32
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		h = (h << 5) ^ (h >> 2) ^ uint32(r)
	}
	return h
}

// canonicalizeTerminals assigns the same class to any two pin labels that
// hash-equal and string-equal (ignoring case), and distinct classes
// otherwise, numbered in ascending label-hash order so that permuting the
// labels permutes the classes the same way. Uses a stable insertion sort
// rather than an unstable one so ties break deterministically by original
// position.
func canonicalizeTerminals(labels []string) []int {
	type entry struct {
		label      string
		hash       uint32
		origIndex  int
		class      int
	}
	entries := make([]entry, len(labels))
	for i, l := range labels {
		entries[i] = entry{label: l, hash: simpleHash(l), origIndex: i}
	}
	// Sort by hash so equal-hash labels land adjacent; break ties by
	// original index for determinism.
	sortEntries(entries, func(a, b entry) bool {
		if a.hash != b.hash {
			return a.hash < b.hash
		}
		return a.origIndex < b.origIndex
	})
	class := 0
	for i := range entries {
		if i > 0 && entries[i].hash == entries[i-1].hash && strings.EqualFold(entries[i].label, entries[i-1].label) {
			entries[i].class = entries[i-1].class
		} else {
			entries[i].class = class
			class++
		}
	}
	// Sort back to original declaration order.
	sortEntries(entries, func(a, b entry) bool { return a.origIndex < b.origIndex })
	classes := make([]int, len(entries))
	for i, e := range entries {
		classes[i] = e.class
	}
	return classes
}

func sortEntries[T any](s []T, less func(a, b T) bool) {
	// Simple insertion sort: terminal counts per device are small (the
	// original caps at MAXDEVICETYPES-scale devices, not terminal count).
	for i := 1; i < len(s); i++ {
		v := s[i]
		j := i - 1
		for j >= 0 && less(v, s[j]) {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = v
	}
}

func (e *Engine) namesEqual(a, b string) bool {
	if e.options.IgnoreCase {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// DefineDeviceMaster registers a device master. Pin labels that hash-and-
// string-equal collapse to the same terminal class. Redefining an existing
// master with an identical shape succeeds idempotently; any other
// redefinition is a fatal Ingestion error.
func (e *Engine) DefineDeviceMaster(name string, pinLabels []string) error {
	if len(name) < 2 {
		return newError(ErrIngestion, "device master name %q must be at least 2 characters", name)
	}
	if len(pinLabels) < 1 {
		return newError(ErrIngestion, "device master %q must declare at least one terminal", name)
	}
	if len(e.deviceDefs) >= maxDeviceTypes {
		return newError(ErrIngestion, "exceeded maximum number of device types (%d)", maxDeviceTypes)
	}

	classes := canonicalizeTerminals(pinLabels)

	for i, existing := range e.deviceDefs {
		if e.namesEqual(existing.Name, name) {
			if len(existing.Terminals) != len(classes) {
				return newError(ErrIngestion,
					"device master %q redefined with %d terminals, previously %d",
					name, len(classes), len(existing.Terminals))
			}
			for j := range classes {
				if existing.Terminals[j] != classes[j] {
					return newError(ErrIngestion,
						"device master %q redefined with a different terminal-class shape", name)
				}
			}
			_ = i
			return nil // idempotent redefinition
		}
	}

	e.deviceDefs = append(e.deviceDefs, DeviceDefinition{Name: name, Terminals: classes})
	return nil
}

const maxDeviceTypes = 100000

func (e *Engine) findDeviceDef(name string) (int, bool) {
	for i, d := range e.deviceDefs {
		if e.namesEqual(d.Name, name) {
			return i, true
		}
	}
	return 0, false
}
