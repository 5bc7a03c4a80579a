package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/pcegraph/pkg/graph"
)

var (
	listDimStyle     = lipgloss.NewStyle().Foreground(colorDim)
	tabActiveStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Underline(true)
	tabInactiveStyle = lipgloss.NewStyle().Foreground(colorGray)
)

// browserTab selects what the graph browser lists.
type browserTab int

const (
	tabNodes browserTab = iota
	tabLinks
)

// =============================================================================
// GraphBrowserModel - Interactive node/link browser
// =============================================================================

// GraphBrowserModel is the bubbletea model for browsing a built graph.
type GraphBrowserModel struct {
	Graph  *graph.Graph
	Nodes  []graph.Node
	Links  []graph.Link
	Tab    browserTab
	Cursor int
	Offset int
	Height int
}

// newGraphBrowser creates a browser over g, starting on the node list.
func newGraphBrowser(g *graph.Graph) GraphBrowserModel {
	return GraphBrowserModel{
		Graph:  g,
		Nodes:  g.Nodes(),
		Links:  g.Links(),
		Height: 15,
	}
}

func (m GraphBrowserModel) Init() tea.Cmd {
	return nil
}

func (m GraphBrowserModel) count() int {
	if m.Tab == tabLinks {
		return len(m.Links)
	}
	return len(m.Nodes)
}

func (m GraphBrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "left", "right", "h", "l":
			if m.Tab == tabNodes {
				m.Tab = tabLinks
			} else {
				m.Tab = tabNodes
			}
			m.Cursor, m.Offset = 0, 0
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < m.count()-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			if n := m.count(); n > 0 {
				m.Cursor = n - 1
				m.Offset = max(0, n-m.Height)
			}
		}
	case tea.WindowSizeMsg:
		// Leave room for the header, tabs and the detail pane.
		m.Height = max(msg.Height-14, 5)
		if m.Cursor >= m.Offset+m.Height {
			m.Offset = m.Cursor - m.Height + 1
		}
	}
	return m, nil
}

func (m GraphBrowserModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("%s graph", m.Graph.ServiceType())))
	b.WriteString("  ")
	b.WriteString(StyleEndpoint.Render(m.Graph.AEnd().ID))
	b.WriteString(listDimStyle.Render(" → "))
	b.WriteString(StyleEndpoint.Render(m.Graph.ZEnd().ID))
	b.WriteString("\n")
	b.WriteString(m.tabs())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  tab switch  q quit"))
	b.WriteString("\n\n")

	if m.count() == 0 {
		b.WriteString(listDimStyle.Render("  (empty)"))
		return b.String()
	}

	headers, rows := m.rows()
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, m.count())))
	b.WriteString("\n\n")
	b.WriteString(m.detail())
	return b.String()
}

func (m GraphBrowserModel) tabs() string {
	nodes := fmt.Sprintf("Nodes (%d)", len(m.Nodes))
	links := fmt.Sprintf("Links (%d)", len(m.Links))
	if m.Tab == tabNodes {
		return tabActiveStyle.Render(nodes) + "  " + tabInactiveStyle.Render(links)
	}
	return tabInactiveStyle.Render(nodes) + "  " + tabActiveStyle.Render(links)
}

func (m GraphBrowserModel) rows() ([]string, [][]string) {
	end := min(m.Offset+m.Height, m.count())
	var rows [][]string
	if m.Tab == tabNodes {
		for i := m.Offset; i < end; i++ {
			n := m.Nodes[i]
			rows = append(rows, []string{cursorMark(i == m.Cursor), n.ID, string(n.Type), n.DeviceID,
				strconv.Itoa(len(n.OutgoingLinks()))})
		}
		return []string{"", "Node", "Type", "Device", "Out"}, rows
	}
	for i := m.Offset; i < end; i++ {
		l := m.Links[i]
		rows = append(rows, []string{cursorMark(i == m.Cursor), string(l.Type), l.Source.Node, l.Dest.Node})
	}
	return []string{"", "Type", "Source", "Dest"}, rows
}

// detail describes the item under the cursor.
func (m GraphBrowserModel) detail() string {
	var lines []string
	if m.Tab == tabNodes {
		n := m.Nodes[m.Cursor]
		lines = append(lines, StyleHighlight.Render(n.ID))
		if n.CLLI != "" {
			lines = append(lines, "clli: "+n.CLLI)
		}
		if r, ok := n.OpticalResources(); ok {
			lines = append(lines, fmt.Sprintf("wavelengths: %d", len(r.Wavelengths)))
		}
		if r, ok := n.OTNResources(); ok {
			lines = append(lines, fmt.Sprintf("network TPs: %s", strings.Join(r.NetworkTPs, ", ")))
			lines = append(lines, fmt.Sprintf("client TPs: %s", strings.Join(r.ClientTPs, ", ")))
		}
		for _, id := range n.OutgoingLinks() {
			lines = append(lines, listDimStyle.Render("→ "+id))
		}
	} else {
		l := m.Links[m.Cursor]
		lines = append(lines, StyleHighlight.Render(l.ID))
		lines = append(lines, fmt.Sprintf("%s/%s → %s/%s", l.Source.Node, l.Source.TP, l.Dest.Node, l.Dest.TP))
		if l.OppositeLink != "" {
			lines = append(lines, "opposite: "+l.OppositeLink)
		}
		if a, ok := l.Impairments(); ok {
			lines = append(lines, fmt.Sprintf("length: %.1f km", a.LengthKm))
			if len(a.SRLGs) > 0 {
				lines = append(lines, fmt.Sprintf("srlg: %v", a.SRLGs))
			}
		}
		if a, ok := l.Bandwidth(); ok {
			lines = append(lines, fmt.Sprintf("bandwidth: %d available, %d used", a.Available, a.Used))
		}
	}
	return "  " + strings.Join(lines, "\n  ")
}

func cursorMark(selected bool) string {
	if selected {
		return "▸"
	}
	return " "
}
