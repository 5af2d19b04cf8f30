package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mkoelbl/treescope/pkg/diagram"
	"github.com/mkoelbl/treescope/pkg/fsops"
	"github.com/mkoelbl/treescope/pkg/nav"
	"github.com/mkoelbl/treescope/pkg/pipeline"
	"github.com/mkoelbl/treescope/pkg/render"
	"github.com/mkoelbl/treescope/pkg/session"
	"github.com/mkoelbl/treescope/pkg/shell"
	"github.com/mkoelbl/treescope/pkg/template"
	"github.com/mkoelbl/treescope/pkg/tree"
	"github.com/mkoelbl/treescope/pkg/watch"
)

// viewCommand creates the view command for the interactive surface.
func (c *CLI) viewCommand() *cobra.Command {
	var noCache bool
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "view [path]",
		Short: "Explore and edit a directory tree interactively",
		Long: `View opens the diagram in an interactive terminal surface.

Keys:
  arrows/hjkl  move focus spatially
  n            new folder under the focused one
  r            rename the focused folder
  d            delete the focused folder (confirm with y)
  o            open the focused folder in the file manager
  t            save the focused subtree as a template
  T            apply a template under the focused folder
  D            toggle the overlap debug overlay
  R            rescan now
  q            quit

The surface rebuilds automatically when the tree changes on disk,
keeping focus on the same folder when it still exists.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults := c.pipelineOptions(args[0])
			mergeScanDefaults(&opts, defaults)
			return c.runView(cmd.Context(), opts, noCache)
		},
	}

	cmd.Flags().BoolVar(&opts.IncludeFiles, "files", false, "include regular files as leaf nodes")
	cmd.Flags().BoolVar(&opts.ShowHidden, "hidden", false, "include hidden entries")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "limit scan depth (0 = config default)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runView wires the pipeline, watcher, and session store into the
// bubbletea program and blocks until the user quits.
func (c *CLI) runView(ctx context.Context, opts pipeline.Options, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	watcher, err := watch.New(opts.Root, watch.Options{
		ShowHidden: opts.ShowHidden,
		Logger:     c.Logger,
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", opts.Root, err)
	}
	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	go watcher.Run(watchCtx)
	defer watcher.Close()

	sessions, err := session.NewFileStore("")
	if err != nil {
		c.Logger.Warn("session store unavailable", "err", err)
		sessions = nil
	}

	m := newViewModel(ctx, c, runner, opts, watcher, sessions)
	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	final, err := prog.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) {
			return context.Canceled
		}
		return err
	}
	if fm, ok := final.(viewModel); ok {
		fm.saveSession()
	}
	return nil
}

// =============================================================================
// Model
// =============================================================================

// inputMode says what a submitted prompt line means.
type inputMode int

const (
	modeNormal inputMode = iota
	modeCreate
	modeRename
	modeTemplateSave
	modeTemplateApply
	modeConfirmDelete
)

// viewModel is the bubbletea model for the interactive surface. The
// model owns the tree and diagram and replaces them wholesale on every
// rebuild; no other goroutine mutates them.
type viewModel struct {
	ctx     context.Context
	cli     *CLI
	runner  *pipeline.Runner
	opts    pipeline.Options
	watcher *watch.Watcher

	sessions *session.FileStore
	sess     *session.Session

	tree    *tree.Tree
	diagram diagram.Diagram
	nav     *nav.Navigator
	focus   string

	mode   inputMode
	input  textinput.Model
	status string
	err    error

	width  int
	height int
}

func newViewModel(ctx context.Context, c *CLI, runner *pipeline.Runner, opts pipeline.Options, w *watch.Watcher, sessions *session.FileStore) viewModel {
	ti := textinput.New()
	ti.CharLimit = 255
	ti.Width = 40

	m := viewModel{
		ctx:      ctx,
		cli:      c,
		runner:   runner,
		opts:     opts,
		watcher:  w,
		sessions: sessions,
		input:    ti,
		status:   "scanning…",
	}
	m.restoreSession()
	return m
}

// restoreSession picks up the focus of a previous visit to this root.
func (m *viewModel) restoreSession() {
	if m.sessions == nil {
		return
	}
	sess, err := m.sessions.Find(m.ctx, m.opts.Root)
	if err != nil || sess == nil {
		m.sess = session.New(m.opts.Root, m.opts.TreeOptions(), session.DefaultTTL)
		return
	}
	m.sess = sess
	m.focus = sess.FocusedPath
}

// saveSession persists the current focus for the next visit.
func (m viewModel) saveSession() {
	if m.sessions == nil || m.sess == nil {
		return
	}
	m.sess.FocusedPath = m.focus
	m.sess.Touch(session.DefaultTTL)
	if err := m.sessions.Set(m.ctx, m.sess); err != nil {
		m.cli.Logger.Warn("save session", "err", err)
	}
}

// =============================================================================
// Messages & Commands
// =============================================================================

// rebuildMsg carries a fresh tree and diagram (or the failure).
type rebuildMsg struct {
	tree    *tree.Tree
	diagram diagram.Diagram
	err     error
}

// fsChangedMsg reports a debounced batch of filesystem changes.
type fsChangedMsg struct{ paths int }

// watchStoppedMsg reports that the watcher shut down.
type watchStoppedMsg struct{}

// rebuild scans and lays out off the event loop.
func (m viewModel) rebuild(refresh bool) tea.Cmd {
	opts := m.opts
	opts.Refresh = refresh
	runner, ctx := m.runner, m.ctx
	return func() tea.Msg {
		t, _, err := runner.ScanWithCacheInfo(ctx, opts)
		if err != nil {
			return rebuildMsg{err: err}
		}
		d, err := runner.ComputeDiagram(ctx, t, opts)
		if err != nil {
			return rebuildMsg{err: err}
		}
		return rebuildMsg{tree: t, diagram: d}
	}
}

// waitForChange blocks until the watcher reports a settled batch.
func waitForChange(w *watch.Watcher) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-w.Events()
		if !ok {
			return watchStoppedMsg{}
		}
		return fsChangedMsg{paths: len(ev.Paths)}
	}
}

func (m viewModel) Init() tea.Cmd {
	return tea.Batch(m.rebuild(false), waitForChange(m.watcher))
}

// =============================================================================
// Update
// =============================================================================

func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case rebuildMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.tree = msg.tree
		m.diagram = msg.diagram
		m.focus = msg.tree.CarryFocus(m.focus)
		m.nav = nav.New(msg.tree, msg.diagram.Rects(), m.cli.Config.NavWeights())
		m.status = fmt.Sprintf("%d folders · depth %d", msg.tree.Len(), msg.tree.MaxDepth())
		if n := len(msg.diagram.Overlaps); n > 0 {
			m.status += fmt.Sprintf(" · %d overlaps", n)
		}
		return m, nil

	case fsChangedMsg:
		m.status = fmt.Sprintf("detected %d changes, rescanning…", msg.paths)
		return m, tea.Batch(m.rebuild(true), waitForChange(m.watcher))

	case watchStoppedMsg:
		return m, nil

	case tea.KeyMsg:
		if m.mode != modeNormal {
			return m.updatePrompt(msg)
		}
		return m.updateNormal(msg)
	}

	return m, nil
}

// updateNormal handles keys while no prompt is open.
func (m viewModel) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.saveSession()
		return m, tea.Quit

	case "up", "k":
		return m.move(nav.Up), nil
	case "down", "j":
		return m.move(nav.Down), nil
	case "left", "h":
		return m.move(nav.Left), nil
	case "right", "l":
		return m.move(nav.Right), nil

	case "n":
		return m.openPrompt(modeCreate, "New folder name"), nil

	case "r":
		if m.isRootFocused() {
			m.status = "cannot rename the root"
			return m, nil
		}
		prompt := m.openPrompt(modeRename, "Rename to")
		prompt.input.SetValue(filepath.Base(m.focus))
		return prompt, nil

	case "d":
		if m.isRootFocused() {
			m.status = "cannot delete the root"
			return m, nil
		}
		m.mode = modeConfirmDelete
		m.status = fmt.Sprintf("delete %s and everything in it? (y/n)", m.focus)
		return m, nil

	case "o":
		if err := shell.OpenInFileManager(m.focus); err != nil {
			m.err = err
		} else {
			m.status = "opened in file manager"
		}
		return m, nil

	case "t":
		if m.isRootFocused() {
			m.status = "pick a subtree to save as template"
			return m, nil
		}
		return m.openPrompt(modeTemplateSave, "Template name"), nil

	case "T":
		return m.openPrompt(modeTemplateApply, "Apply template"), nil

	case "D":
		m.opts.Debug = !m.opts.Debug
		return m, m.rebuild(false)

	case "R":
		m.status = "rescanning…"
		return m, m.rebuild(true)
	}

	return m, nil
}

// move shifts focus spatially; unknown or edge moves keep it in place.
func (m viewModel) move(dir nav.Direction) viewModel {
	if m.nav == nil {
		return m
	}
	if next, ok := m.nav.Next(m.focus, dir); ok {
		m.focus = next
		m.err = nil
	}
	return m
}

func (m viewModel) isRootFocused() bool {
	return m.tree == nil || m.focus == m.tree.RootPath()
}

// openPrompt switches into an input mode.
func (m viewModel) openPrompt(mode inputMode, prompt string) viewModel {
	m.mode = mode
	m.input.Prompt = prompt + ": "
	m.input.SetValue("")
	m.input.Focus()
	return m
}

// updatePrompt handles keys while a prompt or confirmation is open.
func (m viewModel) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode == modeConfirmDelete {
		switch msg.String() {
		case "y", "Y":
			m.mode = modeNormal
			return m.deleteFocused()
		default:
			m.mode = modeNormal
			m.status = "delete cancelled"
			return m, nil
		}
	}

	switch msg.String() {
	case "esc", "ctrl+c":
		m.mode = modeNormal
		m.input.Blur()
		m.status = "cancelled"
		return m, nil
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.mode = modeNormal
		m.input.Blur()
		if value == "" {
			m.status = "cancelled"
			return m, nil
		}
		return m.submitPrompt(mode, value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submitPrompt performs the operation a prompt was opened for.
func (m viewModel) submitPrompt(mode inputMode, value string) (tea.Model, tea.Cmd) {
	switch mode {
	case modeCreate:
		path, err := fsops.CreateDirectory(m.focus, value)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.focus = path // carried to the new folder once the rebuild lands
		m.status = fmt.Sprintf("created %s", path)
		return m, m.rebuild(true)

	case modeRename:
		path, err := fsops.RenameDirectory(m.focus, value)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.focus = path
		m.status = fmt.Sprintf("renamed to %s", path)
		return m, m.rebuild(true)

	case modeTemplateSave:
		item, err := template.FromTree(m.tree, m.focus)
		if err != nil {
			m.err = err
			return m, nil
		}
		path, err := template.Save(template.Dir, value, item)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("saved template %s", path)
		return m, nil

	case modeTemplateApply:
		tmpl, err := template.Load(template.Dir, value)
		if err != nil {
			m.err = err
			return m, nil
		}
		created, err := template.Apply(tmpl, m.focus)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("applied %s: %d folders", value, len(created))
		return m, m.rebuild(true)
	}

	return m, nil
}

// deleteFocused removes the focused folder and moves focus to its parent.
func (m viewModel) deleteFocused() (tea.Model, tea.Cmd) {
	parent := filepath.Dir(m.focus)
	if err := fsops.DeleteDirectory(m.focus); err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.status = fmt.Sprintf("deleted %s", m.focus)
	m.focus = parent
	return m, m.rebuild(true)
}

// =============================================================================
// View
// =============================================================================

func (m viewModel) View() string {
	var b strings.Builder

	title := fmt.Sprintf(" %s — %s", appName, m.opts.Root)
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n\n")

	if m.tree == nil {
		b.WriteString(StyleDim.Render("  scanning…"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.renderDiagram())
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(styleIconError.Render(iconError) + " " + m.err.Error())
	} else {
		b.WriteString(StyleDim.Render(m.status))
	}
	b.WriteString("\n")

	if m.mode != modeNormal && m.mode != modeConfirmDelete {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	b.WriteString(StyleDim.Render("arrows move · n new · r rename · d delete · o open · t/T templates · D debug · R rescan · q quit"))
	b.WriteString("\n")

	return b.String()
}

// renderDiagram draws the laid-out tree, clipped vertically around the
// focused node when it does not fit the terminal.
func (m viewModel) renderDiagram() string {
	art := render.RenderTerm(m.diagram, render.TermOptions{Focus: m.focus})
	lines := strings.Split(art, "\n")

	avail := m.height - 6 // title, status, help, padding
	if avail <= 0 || len(lines) <= avail {
		return art
	}

	// Keep the focused box in view.
	focusLine := 0
	if rect, ok := m.diagram.Rects()[m.focus]; ok {
		opts := render.DefaultTermOptions()
		focusLine = int(rect.CenterY() / opts.YScale)
	}
	top := focusLine - avail/2
	if top < 0 {
		top = 0
	}
	if top+avail > len(lines) {
		top = len(lines) - avail
	}
	return strings.Join(lines[top:top+avail], "\n")
}
