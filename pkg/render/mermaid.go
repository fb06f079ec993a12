package render

import (
	"fmt"
	"strings"

	"github.com/fyerfyer/gate-synth/pkg/circuit"
)

// GenerateMermaid produces a left-to-right Mermaid flowchart of a circuit.
// Gates are rectangles labelled "F1 AND", free slots are stadium nodes named
// after their variable, and edges carry the destination slot's name.
// Terminal gates get the "terminal" class.
func GenerateMermaid(c *circuit.Circuit) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	gates := c.Gates()
	labels := make(map[circuit.GateID]string, len(gates))
	for _, g := range gates {
		labels[g.ID] = g.Label
	}

	for _, g := range gates {
		safeID := sanitizeMermaidID(g.Label)
		sb.WriteString(fmt.Sprintf("    %s[\"%s %s\"]\n", safeID, g.Label, g.Kind))

		for _, slot := range g.Slots {
			if slot.IsBound() {
				safeFrom := sanitizeMermaidID(labels[slot.Source])
				sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", safeFrom, slot.Name, safeID))
				continue
			}
			freeID := safeID + "_" + sanitizeMermaidID(slot.Name)
			sb.WriteString(fmt.Sprintf("    %s([\"%s\"]) --> %s\n", freeID, slot.Name, safeID))
		}
	}

	terminals := c.Terminals()
	if len(terminals) > 0 {
		sb.WriteString("\n    classDef terminal fill:#ffeb3b,stroke:#fbc02d,stroke-width:2px,color:#000;\n")
		for _, id := range terminals {
			sb.WriteString(fmt.Sprintf("    class %s terminal;\n", sanitizeMermaidID(labels[id])))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
