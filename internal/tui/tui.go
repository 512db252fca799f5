package tui

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tatianab/chronicle/internal/anim"
	"github.com/tatianab/chronicle/internal/epoch"
	"github.com/tatianab/chronicle/internal/game"
	"github.com/tatianab/chronicle/internal/geo"
	"github.com/tatianab/chronicle/internal/mockdata"
	"github.com/tatianab/chronicle/internal/models"
)

// Regions describes places on the globe. *engine.Engine satisfies it.
type Regions interface {
	RegionContext(ctx context.Context, lat, lng float64, world models.WorldState) (*models.RegionContext, error)
}

// Options configures the terminal UI.
type Options struct {
	Regions       Regions // nil means the offline gazetteer
	TranscriptDir string  // empty disables saving
	Clock         anim.Clock
}

type screen int

const (
	screenMap screen = iota
	screenIntervene
	screenResults
)

const frame = 50 * time.Millisecond

type model struct {
	store *game.Store
	opts  Options
	st    game.State

	screen screen
	cities list.Model
	input  textinput.Model
	log    viewport.Model
	spin   spinner.Model

	ripple *anim.Ripple
	year   *anim.YearCounter

	region    *models.RegionContext
	regionFor string
	notice    string
	width     int
	height    int
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD27F"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#CCCCCC"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA")).
			Italic(true)

	scoreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true).
			Padding(1, 4).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FFA500"))
)

type cityItem struct {
	city   models.City
	hidden bool // not yet reached by the ripple
}

func (i cityItem) Title() string {
	mark := " "
	switch i.city.Change {
	case models.ChangeBrighter:
		mark = "▲"
	case models.ChangeDimmer:
		mark = "▼"
	case models.ChangeNew:
		mark = "✦"
	case models.ChangeGone:
		mark = "✗"
	}
	if i.hidden {
		mark = "·"
	}
	return mark + " " + i.city.Name
}

func (i cityItem) Description() string {
	if i.hidden {
		return "…"
	}
	return fmt.Sprintf("%s · pop %s · tech %d", i.city.Civilization, humanize.Comma(i.city.Population), i.city.TechLevel)
}

func (i cityItem) FilterValue() string { return i.city.Name }

type (
	stateMsg  game.State
	tickMsg   time.Time
	regionMsg struct {
		id string
		rc models.RegionContext
	}
	savedMsg struct {
		path string
		err  error
	}
)

func newModel(store *game.Store, opts Options) model {
	if opts.Clock == nil {
		opts.Clock = anim.SystemClock{}
	}

	ti := textinput.New()
	ti.Placeholder = "What changes here? (or @lat,lng to jump)"
	ti.CharLimit = 280
	ti.Width = 60

	cities := list.New(nil, list.NewDefaultDelegate(), 40, 20)
	cities.Title = "Cities"
	cities.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.Globe

	m := model{
		store:  store,
		opts:   opts,
		cities: cities,
		input:  ti,
		log:    viewport.New(60, 10),
		spin:   sp,
	}
	m.apply(store.Snapshot())
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick)
}

func tick() tea.Cmd {
	return tea.Tick(frame, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) animating() bool {
	now := m.opts.Clock.Now()
	return (m.ripple != nil && !m.ripple.Done(now)) || (m.year != nil && !m.year.Finished(now))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		listWidth := msg.Width * 2 / 5
		m.cities.SetSize(listWidth, msg.Height-6)
		m.log.Width = msg.Width - listWidth - 4
		m.log.Height = max(5, msg.Height-20)
		m.input.Width = max(20, msg.Width-10)
		m.refresh()
		return m, nil

	case stateMsg:
		cmds = append(cmds, m.onState(game.State(msg))...)
		return m, tea.Batch(cmds...)

	case tickMsg:
		m.refresh()
		if m.animating() {
			return m, tick()
		}
		m.ripple, m.year = nil, nil
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case regionMsg:
		if msg.id == m.regionFor {
			rc := msg.rc
			m.region = &rc
		}
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.notice = "Could not save transcript: " + msg.err.Error()
		} else {
			m.notice = "Transcript saved to " + msg.path
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.screen {
		case screenResults:
			return m.updateResults(msg)
		case screenIntervene:
			return m.updateIntervene(msg)
		default:
			return m.updateMap(msg)
		}
	}

	var cmd tea.Cmd
	if m.screen == screenIntervene {
		m.input, cmd = m.input.Update(msg)
	} else {
		m.cities, cmd = m.cities.Update(msg)
	}
	return m, cmd
}

func (m model) updateMap(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.cities.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.cities, cmd = m.cities.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "ctrl+r":
		m.store.Reset()
		return m, nil
	case "i":
		if m.st.Chosen != nil {
			return m.openIntervene(*m.st.Chosen)
		}
	case "enter":
		item, ok := m.cities.SelectedItem().(cityItem)
		if !ok || item.hidden {
			return m, nil
		}
		m.store.Select(item.city.ID)
		if m.st.Chosen != nil {
			return m.openIntervene(*m.st.Chosen)
		}
		return m.openIntervene(item.city)
	}

	var cmd tea.Cmd
	m.cities, cmd = m.cities.Update(msg)
	return m, cmd
}

func (m model) openIntervene(target models.City) (tea.Model, tea.Cmd) {
	m.screen = screenIntervene
	m.notice = ""
	m.input.Reset()
	focus := m.input.Focus()
	if m.regionFor == target.ID && m.region != nil {
		return m, focus
	}
	m.regionFor = target.ID
	m.region = nil
	return m, tea.Batch(focus, m.fetchRegion(target))
}

func (m model) updateIntervene(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.screen = screenMap
		m.input.Blur()
		m.store.ClearSelection()
		return m, nil

	case tea.KeyEnter:
		text := strings.TrimSpace(m.input.Value())
		if strings.HasPrefix(text, "@") {
			return m.jump(text[1:])
		}
		if n, err := strconv.Atoi(text); err == nil && m.region != nil && n >= 1 && n <= len(m.region.Suggestions) {
			text = m.region.Suggestions[n-1].Text
		}
		if _, ok := m.store.Submit(text); !ok {
			m.notice = "The world is not ready for another change yet."
			return m, nil
		}
		m.input.Reset()
		m.input.Blur()
		m.screen = screenMap
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// jump selects the city closest to "lat,lng".
func (m model) jump(coords string) (tea.Model, tea.Cmd) {
	lat, lng, err := parseLatLng(coords)
	if err != nil || m.st.World == nil {
		m.notice = "Use @lat,lng, for example @31.8,35.4"
		return m, nil
	}
	c, ok := geo.Nearest(models.LatLng{Lat: lat, Lng: lng}, m.st.World.Cities)
	if !ok {
		return m, nil
	}
	m.store.Select(c.ID)
	for i, it := range m.cities.Items() {
		if it.(cityItem).city.ID == c.ID {
			m.cities.Select(i)
		}
	}
	m.notice = fmt.Sprintf("Nearest city: %s (%.0f° away)", c.Name, geo.AngularDistance(models.LatLng{Lat: lat, Lng: lng}, c.Position()))
	if m.st.Chosen == nil {
		return m.openIntervene(c)
	}
	m.input.Reset()
	return m, nil
}

func parseLatLng(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want lat,lng")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, err
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, err
	}
	if !models.ValidLatLng(lat, lng) {
		return 0, 0, fmt.Errorf("off the globe")
	}
	return lat, lng, nil
}

func (m model) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "r", "enter":
		m.store.Reset()
		m.screen = screenMap
		m.notice = ""
	}
	return m, nil
}

// onState reacts to a new store snapshot, starting or finishing the
// animations that follow an intervention.
func (m *model) onState(st game.State) []tea.Cmd {
	prev := m.st
	now := m.opts.Clock.Now()
	var cmds []tea.Cmd

	if len(st.History) > len(prev.History) {
		iv := st.History[len(st.History)-1]
		ep := epoch.MustLookup(iv.Epoch)
		m.ripple = anim.NewRipple(models.LatLng{Lat: iv.Lat, Lng: iv.Lng}, now)
		m.year = anim.NewYearCounter(iv.Year, ep.EndYear, now)
		cmds = append(cmds, tick())
	}
	if !st.Loading && m.year != nil && !m.year.Resolved() {
		m.year.Resolve(now)
		if m.ripple != nil {
			m.ripple.Complete()
		}
	}
	if len(st.History) < len(prev.History) {
		m.ripple, m.year = nil, nil
		m.region, m.regionFor = nil, ""
	}

	m.apply(st)

	if epoch.IsTerminal(st.Epoch) {
		m.screen = screenResults
		m.input.Blur()
	} else if m.screen == screenResults {
		m.screen = screenMap
	}
	if st.Result != nil && prev.Result == nil {
		cmds = append(cmds, m.saveTranscript(st))
	}
	return cmds
}

func (m *model) apply(st game.State) {
	m.st = st
	m.refresh()
}

// refresh rebuilds the city list and the narrative pane from the current
// snapshot and animation state.
func (m *model) refresh() {
	if m.st.World == nil {
		return
	}
	now := m.opts.Clock.Now()
	cities := append([]models.City(nil), m.st.World.Cities...)
	sort.SliceStable(cities, func(i, j int) bool { return cities[i].Brightness > cities[j].Brightness })

	items := make([]list.Item, len(cities))
	for i, c := range cities {
		hidden := m.ripple != nil && !m.ripple.Reveals(c.Position(), now)
		items[i] = cityItem{city: c, hidden: hidden}
	}
	m.cities.SetItems(items)
	m.log.SetContent(m.renderNarrative())
}

func (m model) displayYear() int {
	if m.year != nil {
		return m.year.Value(m.opts.Clock.Now())
	}
	if m.st.World != nil {
		return m.st.World.Year
	}
	return epoch.MustLookup(m.st.Epoch).StartYear
}

func (m model) View() string {
	var body string
	switch m.screen {
	case screenResults:
		body = m.viewResults()
	case screenIntervene:
		body = m.viewIntervene()
	default:
		body = m.viewMap()
	}
	if m.notice != "" {
		body += "\n" + noteStyle.Render(m.notice)
	}
	return "\n" + m.viewHeader() + "\n\n" + body + "\n"
}

func (m model) viewHeader() string {
	ep, _ := epoch.Lookup(m.st.Epoch)
	status := fmt.Sprintf("%d intervention left", m.st.Remaining)
	if m.st.Remaining != 1 {
		status = fmt.Sprintf("%d interventions left", m.st.Remaining)
	}
	if m.st.Loading {
		status = m.spin.View() + " simulating consequences..."
	}
	return lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("CHRONICLE"),
		"   ",
		headerStyle.Render(ep.Label()),
		"   ",
		titleStyle.Render(models.FormatYear(m.displayYear())),
		"   ",
		helpStyle.Render(status),
	)
}

func (m model) viewMap() string {
	detail := m.renderDetail()
	right := lipgloss.JoinVertical(lipgloss.Left, detail, "", m.log.View())
	paneWidth := max(30, m.width-m.cities.Width()-4)
	main := lipgloss.JoinHorizontal(lipgloss.Top,
		m.cities.View(),
		paneStyle.Width(paneWidth).Render(right),
	)

	help := "↑/↓ browse · / filter · enter choose · ctrl+r restart · q quit"
	if m.st.Chosen != nil {
		help = "↑/↓ browse · i intervene at " + m.st.Chosen.Name + " · ctrl+r restart · q quit"
	}
	return lipgloss.JoinVertical(lipgloss.Left, main, helpStyle.Render(help))
}

func (m model) renderDetail() string {
	item, ok := m.cities.SelectedItem().(cityItem)
	if !ok {
		return ""
	}
	c := item.city
	if item.hidden {
		return titleStyle.Render(c.Name) + "\n" + noteStyle.Render("The ripple has not reached here yet.")
	}

	tech := lipgloss.NewStyle().Foreground(lipgloss.Color(models.TechColor(c.TechLevel))).Render(fmt.Sprintf("tech %d/%d", c.TechLevel, models.MaxTechLevel))
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s · %s people · %s · brightness %s\n",
		titleStyle.Render(c.Name), c.Civilization, humanize.Comma(c.Population), tech, bar(c.Brightness, 10))
	if c.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", c.Description)
	}
	if m.st.Epoch == epoch.First && m.st.Chosen == nil {
		if c.Pros != "" {
			fmt.Fprintf(&b, "\n+ %s", c.Pros)
		}
		if c.Cons != "" {
			fmt.Fprintf(&b, "\n- %s", c.Cons)
		}
	}
	if c.CausalNote != "" {
		fmt.Fprintf(&b, "\n%s", noteStyle.Render(c.CausalNote))
	}
	return b.String()
}

func bar(v float64, width int) string {
	n := int(v*float64(width) + 0.5)
	return strings.Repeat("█", n) + strings.Repeat("░", width-n)
}

func (m model) renderNarrative() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("THE WORLD") + "\n")
	b.WriteString(m.st.World.Narrative + "\n")

	if r := m.st.LastResult; r != nil {
		if len(r.Milestones) > 0 {
			b.WriteString("\n" + titleStyle.Render("MILESTONES") + "\n")
			for _, ms := range r.Milestones {
				fmt.Fprintf(&b, "%s  %s\n", models.FormatYear(ms.Year), ms.Event)
			}
		}
		if r.MostSurprising.Description != "" {
			b.WriteString("\n" + titleStyle.Render("MOST SURPRISING") + "\n")
			b.WriteString(r.MostSurprising.Description + "\n")
			for i, step := range r.MostSurprising.CausalChain {
				fmt.Fprintf(&b, "  %d. %s\n", i+1, step)
			}
		}
	}
	if len(m.st.History) > 0 {
		b.WriteString("\n" + titleStyle.Render("YOUR CHANGES") + "\n")
		for _, iv := range m.st.History {
			fmt.Fprintf(&b, "%s  %s\n", models.FormatYear(iv.Year), iv.Description)
		}
	}
	return b.String()
}

func (m model) viewIntervene() string {
	var b strings.Builder
	target := m.st.Chosen
	if target == nil {
		target = m.st.Selected
	}
	if target != nil {
		b.WriteString(titleStyle.Render("Intervene at "+target.Name) + "\n")
		if m.st.Chosen == nil {
			b.WriteString(noteStyle.Render("This city becomes yours for the rest of the game.") + "\n")
		}
	}
	b.WriteString("\n")

	switch {
	case m.region != nil:
		b.WriteString(m.region.Description + "\n\n")
		for i, s := range m.region.Suggestions {
			fmt.Fprintf(&b, "%d. %s\n   %s\n", i+1, s.Text, noteStyle.Render(s.Reasoning))
		}
	default:
		b.WriteString(m.spin.View() + " consulting the chronicles...\n")
	}

	b.WriteString("\n" + m.input.View() + "\n\n")
	b.WriteString(helpStyle.Render("enter submit · a number picks a suggestion · esc back"))
	return b.String()
}

func (m model) viewResults() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("GOAL: "+models.Goal) + "\n\n")

	r := m.st.Result
	if r == nil {
		b.WriteString(m.spin.View() + " judging your timeline...\n")
		return b.String()
	}
	b.WriteString(scoreStyle.Render(fmt.Sprintf("%d / 100", r.Score)) + "\n\n")
	b.WriteString(r.Summary + "\n\n")
	if len(r.CausalChain) > 0 {
		b.WriteString(titleStyle.Render("HOW IT HAPPENED") + "\n")
		for i, step := range r.CausalChain {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
		b.WriteString("\n")
	}
	if m.st.Chosen != nil {
		fmt.Fprintf(&b, "Your city: %s\n\n", m.st.Chosen.Name)
	}
	b.WriteString(helpStyle.Render("r play again · q quit"))
	return b.String()
}

func (m model) fetchRegion(c models.City) tea.Cmd {
	world := models.WorldState{}
	if m.st.World != nil {
		world = m.st.World.Clone()
	}
	regions := m.opts.Regions
	return func() tea.Msg {
		if regions != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			rc, err := regions.RegionContext(ctx, c.Lat, c.Lng, world)
			if err == nil {
				return regionMsg{id: c.ID, rc: *rc}
			}
			slog.Warn("region context failed, using gazetteer", "city", c.ID, "err", err)
		}
		return regionMsg{id: c.ID, rc: mockdata.RegionContext(c.Lat, c.Lng, world.Year)}
	}
}

func (m model) saveTranscript(st game.State) tea.Cmd {
	dir := m.opts.TranscriptDir
	if dir == "" || st.World == nil {
		return nil
	}
	now := time.Now()
	t := st.Transcript(now)
	return func() tea.Msg {
		path, err := t.Save(dir, "chronicle-"+now.Format("20060102-150405"))
		return savedMsg{path: path, err: err}
	}
}

// Run plays one interactive game on the terminal.
func Run(store *game.Store, opts Options) error {
	p := tea.NewProgram(newModel(store, opts), tea.WithAltScreen())

	// Subscribers must not block, so the store only raises a flag here and
	// a separate goroutine forwards the latest snapshot to the program.
	signal := make(chan struct{}, 1)
	unsubscribe := store.Subscribe(func(game.State) {
		select {
		case signal <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-signal:
				p.Send(stateMsg(store.Snapshot()))
			case <-done:
				return
			}
		}
	}()

	_, err := p.Run()
	close(done)
	wg.Wait()
	return err
}
