package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/firefly-engineering/ember-addon-tests/internal/workspace"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
)

// LinkMode says how a picked package is added to the project.
type LinkMode int

const (
	Unlinked LinkMode = iota
	LinkDependency
	LinkDevDependency
)

func (m LinkMode) next() LinkMode {
	return (m + 1) % 3
}

func (m LinkMode) marker() string {
	switch m {
	case LinkDependency:
		return "[dep]"
	case LinkDevDependency:
		return "[dev]"
	default:
		return "[   ]"
	}
}

// Selection is the result of the picker.
type Selection struct {
	Dependencies    []string
	DevDependencies []string
}

// Empty reports whether nothing was picked.
func (s Selection) Empty() bool {
	return len(s.Dependencies) == 0 && len(s.DevDependencies) == 0
}

// packageItem is a list row. mode points into the picker's state so
// toggling does not need to replace list items.
type packageItem struct {
	pkg  workspace.PackageUnderTest
	mode *LinkMode
}

func (i packageItem) Title() string       { return i.mode.marker() + " " + i.pkg.Name }
func (i packageItem) Description() string { return truncatePath(i.pkg.Location, 50) }
func (i packageItem) FilterValue() string { return i.pkg.Name }

func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	return "..." + path[len(path)-maxLen+3:]
}

// Model is the bubbletea model choosing which packages under test to link.
type Model struct {
	list      list.Model
	packages  []workspace.PackageUnderTest
	modes     []LinkMode
	confirmed bool
	quitting  bool
}

// NewPicker creates a picker over the given packages, all unlinked.
func NewPicker(packages []workspace.PackageUnderTest) Model {
	modes := make([]LinkMode, len(packages))
	items := make([]list.Item, len(packages))
	for i, pkg := range packages {
		items[i] = packageItem{pkg: pkg, mode: &modes[i]}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	l := list.New(items, delegate, 80, 20)
	l.Title = "Link packages under test"
	l.SetShowStatusBar(len(packages) > 5)
	l.SetShowHelp(false)
	l.Styles.Title = titleStyle

	return Model{list: l, packages: packages, modes: modes}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case " ":
			if item, ok := m.list.SelectedItem().(packageItem); ok {
				*item.mode = item.mode.next()
			}
			return m, nil

		case "enter":
			// Nothing marked links the highlighted package.
			if m.Selection().Empty() {
				if item, ok := m.list.SelectedItem().(packageItem); ok {
					*item.mode = LinkDependency
				}
			}
			m.confirmed = true
			m.quitting = true
			return m, tea.Quit

		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.list.View() + "\n" + helpStyle.Render("[space] dep/dev/none  [enter] Confirm  [/] Filter  [q] Cancel")
}

// Selection returns the packages marked so far, in list order.
func (m Model) Selection() Selection {
	var s Selection
	for i, mode := range m.modes {
		switch mode {
		case LinkDependency:
			s.Dependencies = append(s.Dependencies, m.packages[i].Name)
		case LinkDevDependency:
			s.DevDependencies = append(s.DevDependencies, m.packages[i].Name)
		}
	}
	return s
}

// Result returns the confirmed selection. A cancelled picker returns an
// empty one.
func (m Model) Result() Selection {
	if !m.confirmed {
		return Selection{}
	}
	return m.Selection()
}

// RunPicker asks which packages to link. With a single package there is
// nothing to choose and it is linked as a dependency.
func RunPicker(packages []workspace.PackageUnderTest) (Selection, error) {
	switch len(packages) {
	case 0:
		return Selection{}, nil
	case 1:
		return Selection{Dependencies: []string{packages[0].Name}}, nil
	}

	final, err := tea.NewProgram(NewPicker(packages), tea.WithAltScreen()).Run()
	if err != nil {
		return Selection{}, err
	}
	return final.(Model).Result(), nil
}

// SimpleList renders packages for non-interactive output, with the flags
// that link them.
func SimpleList(packages []workspace.PackageUnderTest) string {
	var sb strings.Builder

	sb.WriteString("Packages under test\n")
	sb.WriteString(strings.Repeat("─", 60) + "\n")

	if len(packages) == 0 {
		sb.WriteString("No packages found.\n")
		return sb.String()
	}

	for _, pkg := range packages {
		fmt.Fprintf(&sb, "  --link %-30s %s\n", pkg.Name, truncatePath(pkg.Location, 40))
	}
	return sb.String()
}
