// Package session composes a graph viewer: data, render engine, selection,
// filter and detail state for one display surface.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/schemascope/core/internal/datasource"
	"github.com/schemascope/core/internal/detail"
	"github.com/schemascope/core/internal/interaction"
	"github.com/schemascope/core/internal/metrics"
	"github.com/schemascope/core/internal/models"
	"github.com/schemascope/core/internal/parser"
	"github.com/schemascope/core/internal/render"
	"github.com/schemascope/core/internal/search"
)

var (
	ErrSuperseded = errors.New("load superseded by a newer request")
	ErrClosed     = errors.New("viewer closed")
	ErrNoSource   = errors.New("no data source configured")
	ErrExport     = errors.New("export unavailable")
)

// Callbacks are invoked synchronously from interaction input.
type Callbacks struct {
	OnNodeTapped       func(models.GraphNode)
	OnEdgeTapped       func(models.GraphEdge)
	OnSelectionChanged func(interaction.Selection)
}

type Options struct {
	Render    render.Config
	Source    datasource.Source
	Formatter *detail.Formatter
	Logger    *slog.Logger
}

// Summary describes the graph a viewer currently shows.
type Summary struct {
	ConnectionID string            `json:"connectionId,omitempty"`
	Stats        models.GraphStats `json:"stats"`
	Report       parser.Report     `json:"report"`
	NodeTypes    []models.NodeType `json:"nodeTypes"`
	EdgeTypes    []models.EdgeType `json:"edgeTypes"`
}

// Viewer binds one graph at a time to a surface. Data replacement is
// wholesale: the previous engine is torn down before the next is built.
type Viewer struct {
	adapter    *render.Adapter
	surface    render.Surface
	cfg        render.Config
	source     datasource.Source
	formatter  *detail.Formatter
	controller *interaction.Controller
	logger     *slog.Logger

	mu           sync.Mutex
	connectionID string
	data         models.GraphData
	stats        models.GraphStats
	report       parser.Report
	filter       models.SearchFilter
	visual       search.VisualState
	handle       *render.Handle
	token        uint64
	lastErr      error
	closed       bool
}

func NewViewer(adapter *render.Adapter, surface render.Surface, opts Options, cb Callbacks) *Viewer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	formatter := opts.Formatter
	if formatter == nil {
		formatter = detail.NewFormatter(detail.ParseLanguage("en"))
	}
	cfg := opts.Render
	if cfg == (render.Config{}) {
		cfg = render.DefaultConfig()
	}

	v := &Viewer{
		adapter:   adapter,
		surface:   surface,
		cfg:       cfg,
		source:    opts.Source,
		formatter: formatter,
		logger:    logger.With("component", "session", "surface", surface.ID()),
		data:      models.Empty(),
		stats:     models.ComputeStats(models.Empty()),
	}
	v.controller = interaction.NewController(v.data, interaction.Callbacks{
		OnNodeTapped:       cb.OnNodeTapped,
		OnEdgeTapped:       cb.OnEdgeTapped,
		OnSelectionChanged: cb.OnSelectionChanged,
	})
	return v
}

// SetData replaces the graph. The current filter is re-applied to the new
// graph; selection and detail are cleared.
func (v *Viewer) SetData(data models.GraphData) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	v.token++
	v.installLocked(data)
	v.lastErr = nil
	return nil
}

func (v *Viewer) installLocked(data models.GraphData) {
	clean, report := parser.Sanitize(data)
	v.data = clean
	v.report = report
	v.stats = models.ComputeStats(clean)
	v.controller.SetData(clean)
	v.handle = v.adapter.Initialize(v.surface, clean, v.cfg, v.onEngineEvent)
	v.visual = v.adapter.ApplyFilter(v.handle, v.filter)
}

// NextToken starts a load. Only the result carrying the latest token is
// applied.
func (v *Viewer) NextToken() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.token++
	return v.token
}

// Apply installs the outcome of the load identified by token. A failed load
// installs an empty graph and records the error. Results for older tokens
// are discarded with ErrSuperseded.
func (v *Viewer) Apply(token uint64, connectionID string, data models.GraphData, fetchErr error) (Summary, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return Summary{}, ErrClosed
	}
	if token != v.token {
		metrics.SupersededLoads.Inc()
		v.logger.Debug("discarded superseded load", "token", token, "latest", v.token, "connection_id", connectionID)
		return Summary{}, ErrSuperseded
	}

	v.connectionID = connectionID
	if fetchErr != nil {
		v.lastErr = fetchErr
		v.installLocked(models.Empty())
		if errors.Is(fetchErr, datasource.ErrNoData) {
			v.logger.Info("no graph data for connection", "connection_id", connectionID)
		} else {
			v.logger.Error("failed to load graph", "connection_id", connectionID, "error", fetchErr)
		}
		return v.summaryLocked(), fetchErr
	}

	v.lastErr = nil
	v.installLocked(data)
	v.logger.Info("graph loaded", "connection_id", connectionID,
		"nodes", v.stats.TotalNodes, "edges", v.stats.TotalEdges, "dropped", v.report.Dropped())
	return v.summaryLocked(), nil
}

// Load fetches the graph of a connection from the configured source.
func (v *Viewer) Load(ctx context.Context, connectionID string) (Summary, error) {
	if v.source == nil {
		return Summary{}, ErrNoSource
	}
	token := v.NextToken()
	data, err := v.source.Fetch(ctx, connectionID)
	if err != nil {
		err = fmt.Errorf("failed to load graph: %w", err)
	}
	return v.Apply(token, connectionID, data, err)
}

// SetFilter stores f and recomputes the highlight classes.
func (v *Viewer) SetFilter(f models.SearchFilter) (search.VisualState, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return search.VisualState{}, ErrClosed
	}
	v.filter = f.Normalize()
	v.visual = v.adapter.ApplyFilter(v.handle, v.filter)
	return v.visual, nil
}

func (v *Viewer) Filter() (models.SearchFilter, search.VisualState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter, v.visual
}

// Input forwards surface pointer input. Callbacks run before Input returns.
func (v *Viewer) Input(in render.Input) error {
	h, err := v.current()
	if err != nil {
		return err
	}
	return v.adapter.Input(h, in)
}

func (v *Viewer) Fit() error {
	h, err := v.current()
	if err != nil {
		return err
	}
	v.adapter.Fit(h)
	return nil
}

func (v *Viewer) Center() error {
	h, err := v.current()
	if err != nil {
		return err
	}
	v.adapter.Center(h)
	return nil
}

func (v *Viewer) ResetZoom() error {
	h, err := v.current()
	if err != nil {
		return err
	}
	v.adapter.ResetZoom(h)
	return nil
}

func (v *Viewer) Export(format string) ([]byte, error) {
	h, err := v.current()
	if err != nil {
		return nil, err
	}
	out := v.adapter.ExportImage(h, format)
	if out == nil {
		return nil, fmt.Errorf("%s: %w", format, ErrExport)
	}
	return out, nil
}

func (v *Viewer) current() (*render.Handle, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil, ErrClosed
	}
	return v.handle, nil
}

func (v *Viewer) Summary() Summary {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.summaryLocked()
}

func (v *Viewer) summaryLocked() Summary {
	return Summary{
		ConnectionID: v.connectionID,
		Stats:        v.stats,
		Report:       v.report,
		NodeTypes:    v.data.NodeTypes(),
		EdgeTypes:    v.data.EdgeTypes(),
	}
}

func (v *Viewer) Stats() models.GraphStats {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stats
}

// Data is the sanitized graph on display.
func (v *Viewer) Data() models.GraphData {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.data
}

func (v *Viewer) ConnectionID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.connectionID
}

func (v *Viewer) Selection() interaction.Selection {
	return v.controller.Selection()
}

// Detail projects the entity whose detail view is open.
func (v *Viewer) Detail() (detail.Detail, bool) {
	ent, ok := v.controller.Detail()
	if !ok {
		return detail.Detail{}, false
	}
	if ent.Node != nil {
		return v.formatter.ProjectNode(*ent.Node), true
	}
	return v.formatter.ProjectEdge(*ent.Edge), true
}

// CloseDetail closes the detail view and clears the selection.
func (v *Viewer) CloseDetail() {
	v.controller.Clear()
}

// LastError is the error of the latest load, nil after a successful one.
func (v *Viewer) LastError() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastErr
}

func (v *Viewer) Loading() bool {
	h, err := v.current()
	if err != nil {
		return false
	}
	return h.Loading()
}

// EngineError is the render engine failure of the current graph, if any.
func (v *Viewer) EngineError() error {
	h, err := v.current()
	if err != nil {
		return nil
	}
	return h.Err()
}

// Close tears down the engine. It is safe to call more than once.
func (v *Viewer) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	h := v.handle
	v.handle = nil
	v.mu.Unlock()

	v.adapter.Destroy(h)
	v.controller.Clear()
}

func (v *Viewer) onEngineEvent(ev render.Event) {
	switch ev.Type {
	case render.EventTap:
		if ev.Target != nil {
			v.controller.OnElementTapped(*ev.Target)
		}
	case render.EventSelect, render.EventUnselect:
		v.controller.OnSelectionChanged(ev.Selection)
	}
}
