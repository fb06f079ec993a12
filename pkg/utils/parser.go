package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/fyerfyer/gate-synth/pkg/circuit"
	"github.com/fyerfyer/gate-synth/pkg/editor"
)

// Regular expressions for parsing edit scripts
var (
	gateRegex       = regexp.MustCompile(`^(\w+)\s*=\s*(\w+)(?:\(\s*(\d*)\s*\))?(?:\s*@\s*\(?\s*(-?[\d.]+)\s*,\s*(-?[\d.]+)\s*\)?)?$`)
	connectRegex    = regexp.MustCompile(`^(\w+)\s*->\s*(\w+)\[(\d+)\]$`)
	snapRegex       = regexp.MustCompile(`^(\w+)\s*->\s*@\s*\(?\s*(-?[\d.]+)\s*,\s*(-?[\d.]+)\s*\)?$`)
	disconnectRegex = regexp.MustCompile(`(?i)^DISCONNECT\(\s*(\w+)\[(\d+)\]\s*\)$`)
	removeRegex     = regexp.MustCompile(`(?i)^REMOVE\(\s*(\w+)\s*\)$`)
	clearRegex      = regexp.MustCompile(`(?i)^CLEAR$`)
	undoRegex       = regexp.MustCompile(`(?i)^UNDO$`)
)

// CommandKind identifies an edit script statement
type CommandKind int

const (
	AddGate CommandKind = iota
	Connect
	Snap
	Disconnect
	Remove
	Clear
	Undo
)

// String returns a string representation of the command kind
func (k CommandKind) String() string {
	switch k {
	case AddGate:
		return "ADD"
	case Connect:
		return "CONNECT"
	case Snap:
		return "SNAP"
	case Disconnect:
		return "DISCONNECT"
	case Remove:
		return "REMOVE"
	case Clear:
		return "CLEAR"
	case Undo:
		return "UNDO"
	default:
		return "UNKNOWN"
	}
}

// Command is one parsed edit script statement
type Command struct {
	Line     int              // 1-based source line
	Kind     CommandKind      // Statement type
	Alias    string           // Gate being added or removed, or the connection source
	GateKind circuit.GateKind // Kind for AddGate
	Arity    int              // Arity hint for AddGate, 0 when omitted
	At       *circuit.Point   // Optional position for AddGate, target point for Snap
	Dest     string           // Destination alias for Connect and Disconnect
	Slot     int              // Destination slot for Connect and Disconnect
}

// ParseScriptFile reads an edit script and returns the circuit name derived
// from the file name along with the parsed commands
func ParseScriptFile(filename string) (string, []Command, error) {
	file, err := os.Open(filename)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	cmds, err := ParseScript(file)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", filename, err)
	}
	return name, cmds, nil
}

// ParseScript parses an edit script. Blank lines and text after '#' are ignored.
func ParseScript(r io.Reader) ([]Command, error) {
	cmds := make([]Command, 0)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		cmd, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		cmd.Line = lineNo
		cmds = append(cmds, cmd)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading script: %w", err)
	}
	return cmds, nil
}

// parseLine converts one trimmed, comment-free statement to a Command
func parseLine(line string) (Command, error) {
	if clearRegex.MatchString(line) {
		return Command{Kind: Clear}, nil
	}
	if undoRegex.MatchString(line) {
		return Command{Kind: Undo}, nil
	}

	if m := disconnectRegex.FindStringSubmatch(line); m != nil {
		slot, _ := strconv.Atoi(m[2])
		return Command{Kind: Disconnect, Dest: m[1], Slot: slot}, nil
	}

	if m := removeRegex.FindStringSubmatch(line); m != nil {
		return Command{Kind: Remove, Alias: m[1]}, nil
	}

	if m := connectRegex.FindStringSubmatch(line); m != nil {
		slot, _ := strconv.Atoi(m[3])
		return Command{Kind: Connect, Alias: m[1], Dest: m[2], Slot: slot}, nil
	}

	if m := snapRegex.FindStringSubmatch(line); m != nil {
		p, err := parsePoint(m[2], m[3])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: Snap, Alias: m[1], At: &p}, nil
	}

	if m := gateRegex.FindStringSubmatch(line); m != nil {
		kind, err := circuit.ParseGateKind(m[2])
		if err != nil {
			return Command{}, err
		}
		cmd := Command{Kind: AddGate, Alias: m[1], GateKind: kind}
		if m[3] != "" {
			cmd.Arity, _ = strconv.Atoi(m[3])
		}
		if m[4] != "" {
			p, err := parsePoint(m[4], m[5])
			if err != nil {
				return Command{}, err
			}
			cmd.At = &p
		}
		return cmd, nil
	}

	return Command{}, fmt.Errorf("unrecognized statement %q", line)
}

func parsePoint(xs, ys string) (circuit.Point, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return circuit.Point{}, fmt.Errorf("invalid x coordinate %q", xs)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return circuit.Point{}, fmt.Errorf("invalid y coordinate %q", ys)
	}
	return circuit.Point{X: x, Y: y}, nil
}

// Replay applies commands to an editor in order and returns the final alias
// table. It stops at the first failing command. A Snap that finds no slot is
// not an error.
func Replay(ed *editor.Editor, cmds []Command) (map[string]circuit.GateID, error) {
	aliases := make(map[string]circuit.GateID)

	resolve := func(alias string) (circuit.GateID, error) {
		id, ok := aliases[alias]
		if !ok {
			return "", fmt.Errorf("%w: alias %q", circuit.ErrUnknownGate, alias)
		}
		return id, nil
	}

	for _, cmd := range cmds {
		var err error

		switch cmd.Kind {
		case AddGate:
			// An alias may be reused once its gate is gone
			if id, ok := aliases[cmd.Alias]; ok && ed.Has(id) {
				err = fmt.Errorf("alias %q already names a gate", cmd.Alias)
				break
			}
			var id circuit.GateID
			if cmd.At != nil {
				id, err = ed.AddGateAt(cmd.GateKind, cmd.Arity, *cmd.At)
			} else {
				id, err = ed.AddGate(cmd.GateKind, cmd.Arity)
			}
			if err == nil {
				aliases[cmd.Alias] = id
			}

		case Connect:
			var src, dst circuit.GateID
			if src, err = resolve(cmd.Alias); err != nil {
				break
			}
			if dst, err = resolve(cmd.Dest); err != nil {
				break
			}
			_, err = ed.Connect(src, dst, cmd.Slot)

		case Snap:
			var src circuit.GateID
			if src, err = resolve(cmd.Alias); err != nil {
				break
			}
			if err = ed.SelectOutput(src); err != nil {
				break
			}
			_, _, err = ed.ConnectAt(*cmd.At)

		case Disconnect:
			var dst circuit.GateID
			if dst, err = resolve(cmd.Dest); err != nil {
				break
			}
			ed.Disconnect(dst, cmd.Slot)

		case Remove:
			var id circuit.GateID
			if id, err = resolve(cmd.Alias); err != nil {
				break
			}
			err = ed.RemoveGate(id)

		case Clear:
			ed.Clear()
			aliases = make(map[string]circuit.GateID)

		case Undo:
			_, err = ed.Undo()
		}

		if err != nil {
			return aliases, fmt.Errorf("line %d (%s): %w", cmd.Line, cmd.Kind, err)
		}
	}

	return aliases, nil
}

// WriteExpressions writes synthesized expressions to a file
func WriteExpressions(filename, circuitName, text string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "# Expressions synthesized by gate-synth\n")
	fmt.Fprintf(writer, "# Circuit: %s\n", circuitName)
	if text != "" {
		writer.WriteString(text)
		writer.WriteString("\n")
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
