// Package featureflags evaluates operator-controlled switches such as
// "vouches=on,uploads=25%".
package featureflags

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Known flags.
const (
	Vouches  = "vouches"
	Uploads  = "uploads"
	TopSort  = "top_sort"
	AuditLog = "audit_kafka"
)

// Defaults applies when a flag is absent from configuration.
var Defaults = map[string]bool{
	Vouches:  true,
	Uploads:  true,
	TopSort:  true,
	AuditLog: false,
}

// Manager evaluates flags parsed from a comma-separated key=value list.
// Values are on/off (also true/false, 1/0) or a percentage rollout "N%".
type Manager struct {
	flags    map[string]string
	defaults map[string]bool
}

// NewManager parses raw and falls back to defaults for unset flags.
func NewManager(raw string, defaults map[string]bool) *Manager {
	m := &Manager{
		flags:    make(map[string]string),
		defaults: make(map[string]bool, len(defaults)),
	}
	for name, on := range defaults {
		m.defaults[normalize(name)] = on
	}

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		m.flags[key] = value
	}
	return m
}

// Enabled reports whether name is on for userID. Percentage rollouts bucket
// users deterministically and are always off for anonymous callers.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	name = normalize(name)

	value, ok := m.flags[name]
	if !ok {
		return m.defaults[name]
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	if err != nil || pct <= 0 {
		return false
	}
	if pct >= 100 {
		return true
	}
	if userID == 0 {
		return false
	}
	return bucket(name, userID) < pct
}

// Names lists every configured or defaulted flag in sorted order.
func (m *Manager) Names() []string {
	seen := make(map[string]struct{}, len(m.flags)+len(m.defaults))
	for name := range m.flags {
		seen[name] = struct{}{}
	}
	for name := range m.defaults {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Raw returns a copy of the configured values.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.flags))
	for k, v := range m.flags {
		out[k] = v
	}
	return out
}

// Snapshot evaluates every flag for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	names := m.Names()
	out := make(map[string]bool, len(names))
	for _, name := range names {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name + ":" + strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
