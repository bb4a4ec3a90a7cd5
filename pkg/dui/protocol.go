package dui

import (
	"fmt"
	"strconv"
	"strings"
)

// Info is one "info" line emitted during a search. Zero fields are left
// out of the line.
type Info struct {
	Depth    int
	Nodes    int
	NPS      int
	Time     int // milliseconds
	Score    int
	Progress int // percent of the search done
	PV       string
}

// String formats the info line. PV, when set, runs to the end of the line.
func (i Info) String() string {
	parts := []string{"info"}
	add := func(key string, v int) {
		if v != 0 {
			parts = append(parts, key, strconv.Itoa(v))
		}
	}
	add("depth", i.Depth)
	add("nodes", i.Nodes)
	add("nps", i.NPS)
	add("time", i.Time)
	add("score", i.Score)
	add("progress", i.Progress)
	if i.PV != "" {
		parts = append(parts, "pv", i.PV)
	}
	return strings.Join(parts, " ")
}

// EngineID is what the engine reports about itself during the handshake.
type EngineID struct {
	Name            string
	Author          string
	ProtocolVersion int
}

// EngineOption describes a configuration option the engine advertises.
type EngineOption struct {
	Name    string
	Type    string // spin, check, combo or string
	Default string
	Min     string
	Max     string
	Vars    []string
}

// String formats the option as a handshake line:
// option name <id> type <type> [default <x>] [min <x>] [max <x>] [var <x> ...]
func (o EngineOption) String() string {
	parts := []string{"option", "name", o.Name, "type", o.Type}
	if o.Default != "" {
		parts = append(parts, "default", o.Default)
	}
	if o.Min != "" {
		parts = append(parts, "min", o.Min)
	}
	if o.Max != "" {
		parts = append(parts, "max", o.Max)
	}
	for _, v := range o.Vars {
		parts = append(parts, "var", v)
	}
	return strings.Join(parts, " ")
}

// GoParams configures search constraints for the go command.
type GoParams struct {
	MoveTime int  // milliseconds; 0 means use engine default
	Depth    int  // search depth limit; 0 means unlimited
	Nodes    int  // node count limit; 0 means unlimited
	Infinite bool // search until stop is sent
}

// String formats GoParams as a "go" command suffix.
func (p GoParams) String() string {
	if p.Infinite {
		return "infinite"
	}
	var parts []string
	if p.MoveTime > 0 {
		parts = append(parts, fmt.Sprintf("movetime %d", p.MoveTime))
	}
	if p.Depth > 0 {
		parts = append(parts, fmt.Sprintf("depth %d", p.Depth))
	}
	if p.Nodes > 0 {
		parts = append(parts, fmt.Sprintf("nodes %d", p.Nodes))
	}
	return strings.Join(parts, " ")
}

// ParseGoParams parses the arguments of a go command.
func ParseGoParams(args string) (GoParams, error) {
	var p GoParams
	tokens := strings.Fields(args)
	for i := 0; i < len(tokens); i++ {
		var dst *int
		switch tokens[i] {
		case "infinite":
			p.Infinite = true
			continue
		case "movetime":
			dst = &p.MoveTime
		case "depth":
			dst = &p.Depth
		case "nodes":
			dst = &p.Nodes
		default:
			return GoParams{}, fmt.Errorf("dui: unknown go parameter %q", tokens[i])
		}
		if i+1 >= len(tokens) {
			return GoParams{}, fmt.Errorf("dui: %s needs a value", tokens[i])
		}
		i++
		n, err := strconv.Atoi(tokens[i])
		if err != nil || n < 0 {
			return GoParams{}, fmt.Errorf("dui: bad %s value %q", tokens[i-1], tokens[i])
		}
		*dst = n
	}
	return p, nil
}

// parseSetOption splits the arguments of "setoption name <id> [value <x>]".
// Values may contain spaces.
func parseSetOption(args string) (name, value string, err error) {
	rest, ok := strings.CutPrefix(args, "name ")
	if !ok {
		return "", "", fmt.Errorf("dui: setoption without name")
	}
	name, value, _ = strings.Cut(rest, " value ")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", fmt.Errorf("dui: setoption without name")
	}
	return name, strings.TrimSpace(value), nil
}
