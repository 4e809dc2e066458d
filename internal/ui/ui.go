package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/songx/internal/formatter"
	"github.com/desertthunder/songx/internal/models"
	"github.com/desertthunder/songx/internal/services"
	"github.com/desertthunder/songx/internal/shared"
	"github.com/desertthunder/songx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SearchView ViewState = iota
	ResultsView
	DetailView
)

const (
	maxLyricsLines   = 20
	maxCommentsLines = 8
)

// Catalog resolves sources by name. [services.Registry] is one.
type Catalog interface {
	Names() []string
	Provider(name string) (services.Provider, error)
	Searcher(name string) (services.Searcher, error)
}

// Saver stores a song in the local library. [tasks.Librarian] is one.
type Saver interface {
	Save(ctx context.Context, progress chan<- tasks.ProgressUpdate, src tasks.DetailSource, song models.SongSummary) (*models.SavedSong, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	catalog Catalog
	saver   Saver
	limit   int
	width   int
	height  int

	sources []string
	source  int
	input   textinput.Model

	searching    bool
	results      list.Model
	hasResults   bool
	resultSource string

	selected  *models.SongSummary
	detail    tasks.DetailSource
	commenter services.Provider
	lyrics    string
	extra     *models.ExtraMetadata
	comments  models.CommentList
	saving    bool

	statusText string
	statusErr  error

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model. saver may be nil, in which case saving is disabled.
func NewModel(ctx context.Context, catalog Catalog, saver Saver, limit int) *Model {
	input := textinput.New()
	input.Placeholder = "Search by song or artist"
	input.CharLimit = 100
	input.Focus()

	if limit <= 0 {
		limit = services.DefaultLimit
	}

	return &Model{
		ctx:     ctx,
		view:    SearchView,
		catalog: catalog,
		saver:   saver,
		limit:   limit,
		sources: append(catalog.Names(), services.AggregatorName),
		input:   input,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Source returns the name of the source the next search goes to.
func (m *Model) Source() string {
	return m.sources[m.source]
}

// Init starts the cursor blinking in the search box.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.hasResults {
			m.results.SetSize(m.listSize())
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SearchView:
			return m.handleSearchKeys(msg)
		case ResultsView:
			return m.handleResultsKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateActive(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSearchDone:
		d := msg.data.(searchDone)
		m.searching = false
		m.setStatus("", nil)
		if len(d.songs) == 0 {
			m.setStatus(fmt.Sprintf("No results for %q on %s", d.keyword, d.source), nil)
			return m, nil
		}
		w, h := m.listSize()
		m.results = list.New(songItems(d.songs), list.NewDefaultDelegate(), w, h)
		m.results.Title = fmt.Sprintf("%s results for %q", d.source, d.keyword)
		m.hasResults = true
		m.resultSource = d.source
		m.view = ResultsView
		m.input.Blur()

	case MsgLyricsFetched:
		if d := msg.data.(songDetail); m.isSelected(d.songID) {
			m.lyrics = d.lyrics
		}

	case MsgExtraFetched:
		if d := msg.data.(songDetail); m.isSelected(d.songID) {
			m.extra = &d.extra
		}

	case MsgCommentsFetched:
		if d := msg.data.(songDetail); m.isSelected(d.songID) {
			m.comments = d.comments
		}

	case MsgSongSaved:
		d := msg.data.(songSaved)
		m.saving = false
		if d.err != nil {
			m.setStatus("", d.err)
		} else {
			m.setStatus(fmt.Sprintf("Saved to library as #%d", d.saved.Sequence()), nil)
		}

	case MsgStatus:
		d := msg.data.(status)
		m.searching = false
		m.setStatus(d.text, d.err)
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case SearchView:
		return m.renderSearch()
	case ResultsView:
		return m.renderResults()
	case DetailView:
		return m.renderDetail()
	default:
		return ""
	}
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		if !m.hasResults {
			return m, tea.Quit
		}
		m.view = ResultsView
		m.input.Blur()
		return m, nil
	case "tab":
		m.source = (m.source + 1) % len(m.sources)
		return m, nil
	case "enter":
		keyword := strings.TrimSpace(m.input.Value())
		if keyword == "" || m.searching {
			return m, nil
		}
		m.searching = true
		m.setStatus(fmt.Sprintf("Searching %s...", m.Source()), nil)
		return m, m.search(m.Source(), keyword)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleResultsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.results.FilterState() != list.Unfiltered {
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = SearchView
		return m, m.input.Focus()
	case "enter":
		if item, ok := m.results.SelectedItem().(songItem); ok {
			return m, m.openDetail(item.song)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = ResultsView
		m.selected = nil
		m.setStatus("", nil)
		return m, nil
	case "s":
		if m.saver == nil {
			m.setStatus("", fmt.Errorf("%w: library not configured", shared.ErrServiceUnavailable))
			return m, nil
		}
		if m.saving {
			return m, nil
		}
		m.saving = true
		m.setStatus("Saving...", nil)
		return m, m.save(*m.selected)
	case "o":
		target := m.audioURL()
		if target == "" {
			m.setStatus("", fmt.Errorf("%w: no audio url", shared.ErrMissingArgument))
			return m, nil
		}
		return m, m.open(target)
	}
	return m, nil
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SearchView:
		m.input, cmd = m.input.Update(msg)
	case ResultsView:
		m.results, cmd = m.results.Update(msg)
	}
	return m, cmd
}

// openDetail switches to the detail view for song and requests its lyrics,
// extra metadata and comments. Aggregator results carry their own lyrics and
// links, so they are served from the song itself.
func (m *Model) openDetail(song models.SongSummary) tea.Cmd {
	m.view = DetailView
	m.selected = &song
	m.lyrics = ""
	m.extra = nil
	m.comments = nil
	m.saving = false
	m.setStatus("", nil)

	if p, err := m.catalog.Provider(m.resultSource); err == nil {
		m.detail = p
		m.commenter = p
	} else {
		m.detail = tasks.SongSource{Source: m.resultSource, Song: song}
		m.commenter = nil
	}

	cmds := []tea.Cmd{m.fetchLyrics(m.detail, song.ID), m.fetchExtra(m.detail, song.ID)}
	if m.commenter != nil {
		cmds = append(cmds, m.fetchComments(m.commenter, song.ID))
	}
	return tea.Batch(cmds...)
}

func (m *Model) isSelected(songID string) bool {
	return m.view == DetailView && m.selected != nil && m.selected.ID == songID
}

func (m *Model) setStatus(text string, err error) {
	m.statusText = text
	m.statusErr = err
}

func (m *Model) listSize() (int, int) {
	return max(m.width-4, 0), max(m.height-8, 0)
}

func (m *Model) audioURL() string {
	if m.extra != nil && m.extra.AudioURL != "" {
		return m.extra.AudioURL
	}
	if m.selected == nil {
		return ""
	}
	if m.selected.URL != "" {
		return m.selected.URL
	}
	return m.selected.Link
}

func (m *Model) search(name, keyword string) tea.Cmd {
	return func() tea.Msg {
		searcher, err := m.catalog.Searcher(name)
		if err != nil {
			return statusMsg("", err)
		}
		return searchDoneMsg(searcher.Name(), keyword, searcher.Search(m.ctx, keyword, m.limit))
	}
}

func (m *Model) fetchLyrics(src tasks.DetailSource, songID string) tea.Cmd {
	return func() tea.Msg {
		return lyricsFetchedMsg(songID, src.Lyrics(m.ctx, songID))
	}
}

func (m *Model) fetchExtra(src tasks.DetailSource, songID string) tea.Cmd {
	return func() tea.Msg {
		return extraFetchedMsg(songID, src.Extra(m.ctx, songID))
	}
}

func (m *Model) fetchComments(p services.Provider, songID string) tea.Cmd {
	return func() tea.Msg {
		return commentsFetchedMsg(songID, p.HotComments(m.ctx, songID))
	}
}

func (m *Model) save(song models.SongSummary) tea.Cmd {
	src := m.detail
	return func() tea.Msg {
		saved, err := m.saver.Save(m.ctx, nil, src, song)
		return songSavedMsg(saved, err)
	}
}

func (m *Model) open(target string) tea.Cmd {
	return func() tea.Msg {
		if err := shared.OpenBrowser(target); err != nil {
			return statusMsg("", err)
		}
		return statusMsg("Opened "+target, nil)
	}
}

func (m *Model) renderStatus() string {
	if m.statusErr != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v", m.statusErr))
	}
	if m.statusText != "" {
		return styles.warn.Render(m.statusText)
	}
	return ""
}

func (m *Model) renderSearch() string {
	title := styles.title.Render("songx")

	names := make([]string, len(m.sources))
	for i, name := range m.sources {
		if i == m.source {
			names[i] = styles.ok.Render("[" + name + "]")
		} else {
			names[i] = styles.help.Render(name)
		}
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.source, m.keys.quit}
	return fmt.Sprintf("%s\nSource: %s\n\n%s\n\n%s\n%s",
		title, strings.Join(names, " "), m.input.View(), m.renderStatus(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderResults() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n%s", m.results.View(), m.renderStatus(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderDetail() string {
	if m.selected == nil {
		return ""
	}
	song := m.selected

	var b strings.Builder
	b.WriteString(styles.title.Render(song.Name))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s%s\n", styles.label.Render("Artists"), song.Artists)
	if song.Duration > 0 {
		fmt.Fprintf(&b, "%s%s\n", styles.label.Render("Length"), shared.FormatDuration(song.Duration))
	}
	fmt.Fprintf(&b, "%s%s\n", styles.label.Render("ID"), song.ID)
	fmt.Fprintf(&b, "%s%s\n", styles.label.Render("Source"), m.detail.Name())

	if m.extra == nil {
		fmt.Fprintf(&b, "%s%s\n", styles.label.Render("Audio"), styles.help.Render("loading..."))
	} else {
		fmt.Fprintf(&b, "%s%s\n", styles.label.Render("Cover"), valueOrDash(m.extra.CoverURL))
		fmt.Fprintf(&b, "%s%s\n", styles.label.Render("Audio"), valueOrDash(m.extra.AudioURL))
	}

	b.WriteString("\n")
	b.WriteString(styles.ok.Render("Lyrics"))
	b.WriteString("\n")
	switch {
	case m.lyrics == "":
		b.WriteString(styles.help.Render("loading..."))
	case models.IsLyricsSentinel(m.lyrics):
		b.WriteString(styles.warn.Render(m.lyrics))
	default:
		b.WriteString(firstLines(formatter.StripTimestamps(m.lyrics), maxLyricsLines))
	}
	b.WriteString("\n")

	if m.commenter != nil {
		b.WriteString("\n")
		b.WriteString(styles.ok.Render("Hot comments"))
		b.WriteString("\n")
		switch {
		case m.comments == nil:
			b.WriteString(styles.help.Render("loading..."))
		case len(m.comments) == 0:
			b.WriteString(styles.help.Render("none"))
		default:
			b.WriteString(firstLines(string(formatter.CommentsToText(m.comments)), maxCommentsLines))
		}
		b.WriteString("\n")
	}

	helpKeys := []key.Binding{m.keys.save, m.keys.open, m.keys.back, m.keys.quit}
	fmt.Fprintf(&b, "\n%s\n%s", m.renderStatus(), m.help.ShortHelpView(helpKeys))
	return b.String()
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func firstLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[:n], "\n") + styles.help.Render(fmt.Sprintf("\n... %d more lines", len(lines)-n))
}
