// Package service owns the application state and threads every list
// operation through the ranking core: reconcile, fit, sample, persist.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/pairwise/internal/adapters/mq/queue"
	"github.com/okian/pairwise/internal/adapters/mq/worker"
	"github.com/okian/pairwise/internal/adapters/repository"
	"github.com/okian/pairwise/internal/domain/catalog"
	"github.com/okian/pairwise/internal/domain/dedupe"
	"github.com/okian/pairwise/internal/domain/matchup"
	"github.com/okian/pairwise/internal/domain/model"
	"github.com/okian/pairwise/internal/domain/ranking"
	"github.com/okian/pairwise/internal/domain/reconcile"
	"github.com/okian/pairwise/internal/domain/types"
	"github.com/okian/pairwise/pkg/logger"
	"github.com/okian/pairwise/pkg/metrics"
)

const (
	defaultSampler               = "auto"
	defaultInitialIterations     = 100
	defaultIncrementalIterations = 10
	defaultDisplayScale          = 100
	defaultSaveQueueSize         = 8
	defaultDedupeSize            = 10_000
	flusherShutdownTimeout       = 10 * time.Second
)

// Catalog supplies lists.
type Catalog interface {
	Lists(ctx context.Context) ([]model.ListInfo, error)
	Load(ctx context.Context, id string) (model.List, error)
	Suggest(ctx context.Context, id string) (string, bool)
}

// Persistence loads and saves the whole application state. Neither call
// fails from the caller's point of view.
type Persistence interface {
	Load(ctx context.Context) model.AppState
	Save(ctx context.Context, state model.AppState)
	Close() error
}

// session is the in-memory companion of a persisted list state.
type session struct {
	list    model.List
	current *matchup.Matchup
}

// Service implements the API dependencies for the ranking system.
type Service struct {
	mu sync.Mutex

	catalog     Catalog
	persistence Persistence
	deduper     dedupe.Deduper
	saveQueue   *eventqueue.InMemoryQueue
	flusher     *worker.Flusher

	// Configuration
	samplerName           string
	initialIterations     int
	incrementalIterations int
	displayScale          float64
	saveQueueSize         int
	dedupeSize            int
	seed                  int64

	// State
	state    model.AppState
	sessions map[string]*session
	rng      *rand.Rand
	started  bool
	closed   bool
	cancel   context.CancelFunc

	logger logger.Logger
}

// New constructs a Service. Without WithPersistence state lives in memory.
func New(opts ...Option) *Service {
	s := &Service{
		samplerName:           defaultSampler,
		initialIterations:     defaultInitialIterations,
		incrementalIterations: defaultIncrementalIterations,
		displayScale:          defaultDisplayScale,
		saveQueueSize:         defaultSaveQueueSize,
		dedupeSize:            defaultDedupeSize,
		state:                 model.NewAppState(),
		sessions:              make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.persistence == nil {
		s.persistence = repository.NewGateway(repository.NewMemoryStore(), repository.WithLogger(s.logger))
	}
	return s
}

// Start loads the stored state once and starts the save flusher.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.started {
		return nil
	}
	if s.catalog == nil {
		return ErrNoCatalog
	}

	s.logger.Info(ctx, "starting ranking service...")

	seed := s.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // sampling, not security

	s.state = s.persistence.Load(ctx)
	s.sessions = make(map[string]*session)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	s.saveQueue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.saveQueueSize))
	s.flusher = worker.NewFlusher(s.saveQueue, s.persistence, worker.WithName("state-flusher"))
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.flusher.Run(runCtx)

	s.started = true
	s.updateStateMetrics()
	selected, _ := s.state.Selected()
	s.logger.Info(ctx, "ranking service started",
		logger.Int("lists", len(s.state.Lists)),
		logger.String("selected", selected),
		logger.String("sampler", s.samplerName),
		logger.Int("initialIterations", s.initialIterations),
		logger.Int("incrementalIterations", s.incrementalIterations),
	)
	return nil
}

// Stop drains pending saves and writes the final state. Storage stays open
// so the service can be started again; Close releases it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Close stops the service and closes storage. Start fails afterwards.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.stopLocked()
	s.closed = true
	if err := s.persistence.Close(); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}
	return nil
}

func (s *Service) stopLocked() {
	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping ranking service...")

	_ = s.saveQueue.Close()
	shutdownCtx, cancel := context.WithTimeout(ctx, flusherShutdownTimeout)
	if err := s.flusher.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "save flusher did not drain", logger.Error(err))
	}
	cancel()
	s.cancel()

	s.persistence.Save(ctx, s.state.Clone())

	s.started = false
	s.logger.Info(ctx, "ranking service stopped")
}

// Lists returns the catalog index.
func (s *Service) Lists(ctx context.Context) ([]model.ListInfo, error) {
	ctx, span := startSpan(ctx, "Service.Lists")
	defer span.End()

	if s.catalog == nil {
		return nil, endSpan(span, ErrNoCatalog)
	}
	infos, err := s.catalog.Lists(ctx)
	if err != nil {
		return nil, endSpan(span, fmt.Errorf("list catalog: %w", err))
	}
	return infos, nil
}

// SelectList loads listID from the catalog, reconciles its stored history,
// refits, samples a matchup and makes it the selected list.
func (s *Service) SelectList(ctx context.Context, listID string) (View, error) {
	ctx, span := startSpan(ctx, "Service.SelectList", listAttr(listID))
	defer span.End()

	list, err := s.fetch(ctx, listID)
	if err != nil {
		return View{}, endSpan(span, err)
	}

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return View{}, endSpan(span, ErrNotStarted)
	}
	sess, _ := s.install(ctx, list)
	s.state.Select(listID)
	if sess.current == nil {
		s.sample(sess, nil)
	}
	view := s.view(sess)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.logger.Info(ctx, "list selected",
		logger.String("list", listID),
		logger.Int("items", len(list.Items)),
		logger.Any("comparisons", view.Comparisons),
	)
	return view, nil
}

// Selected returns the currently selected list id.
func (s *Service) Selected(_ context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Selected()
}

// Matchup returns the current matchup of listID, sampling one if needed.
func (s *Service) Matchup(ctx context.Context, listID string) (MatchupView, error) {
	ctx, span := startSpan(ctx, "Service.Matchup", listAttr(listID))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(ctx, listID)
	if err != nil {
		return MatchupView{}, endSpan(span, err)
	}
	if sess.current == nil && !s.sample(sess, nil) {
		return MatchupView{}, endSpan(span, ErrNoMatchup)
	}
	return s.matchupView(sess), nil
}

// Skip discards the current matchup of listID and samples another, treating
// the skipped pair as the previous one.
func (s *Service) Skip(ctx context.Context, listID string) (MatchupView, error) {
	ctx, span := startSpan(ctx, "Service.Skip", listAttr(listID))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(ctx, listID)
	if err != nil {
		return MatchupView{}, endSpan(span, err)
	}
	if !s.sample(sess, sess.current) {
		return MatchupView{}, endSpan(span, ErrNoMatchup)
	}
	return s.matchupView(sess), nil
}

// RecordVote applies one comparison outcome: the winner's win count over
// the loser grows by one, the model is refit and the next matchup sampled.
// A vote id seen before changes nothing and is reported as a duplicate.
func (s *Service) RecordVote(ctx context.Context, v Vote) (VoteResult, error) {
	ctx, span := startSpan(ctx, "Service.RecordVote", listAttr(v.ListID))
	defer span.End()

	if v.VoteID == "" {
		v.VoteID = uuid.NewString()
	}
	if v.ListID == "" || v.WinnerID == "" || v.LoserID == "" {
		metrics.RecordRejectedVote("missing_field")
		return VoteResult{}, endSpan(span, fmt.Errorf("%w: list, winner and loser are required", ErrInvalidVote))
	}
	if v.WinnerID == v.LoserID {
		metrics.RecordRejectedVote("self_comparison")
		return VoteResult{}, endSpan(span, fmt.Errorf("%w: winner and loser must differ", ErrInvalidVote))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(ctx, v.ListID)
	if err != nil {
		return VoteResult{}, endSpan(span, err)
	}

	key := dedupe.Key(v.ListID, v.VoteID)
	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordDuplicateVote()
		s.logger.Debug(ctx, "duplicate vote ignored",
			logger.String("list", v.ListID), logger.String("vote", v.VoteID))
		result := VoteResult{VoteID: v.VoteID, Duplicate: true}
		if sess.current != nil {
			mv := s.matchupView(sess)
			result.Matchup = &mv
		}
		return result, nil
	}

	state := s.state.Lists[v.ListID]
	w, l := state.IndexOf(v.WinnerID), state.IndexOf(v.LoserID)
	if w < 0 || l < 0 {
		s.deduper.Unrecord(ctx, key)
		metrics.RecordRejectedVote("unknown_item")
		return VoteResult{}, endSpan(span, fmt.Errorf("%w: %q or %q not in list %q",
			ErrUnknownItem, v.WinnerID, v.LoserID, v.ListID))
	}

	state = state.Clone()
	state.WinMatrix[w][l]++
	state.MatchTotals = reconcile.MatchTotals(state.WinMatrix)
	state.Abilities = s.fit(ctx, state, s.incrementalIterations, "incremental")
	s.state.Lists[v.ListID] = state

	result := VoteResult{VoteID: v.VoteID}
	if s.sample(sess, &matchup.Matchup{Left: w, Right: l}) {
		mv := s.matchupView(sess)
		result.Matchup = &mv
	}
	s.persistLocked(ctx)

	metrics.RecordVote(v.ListID)
	s.logger.Debug(ctx, "vote recorded",
		logger.String("list", v.ListID),
		logger.String("vote", v.VoteID),
		logger.String("winner", v.WinnerID),
		logger.String("loser", v.LoserID),
		logger.Uint64("pairCount", uint64(state.WinMatrix[w][l])+uint64(state.WinMatrix[l][w])),
	)
	return result, nil
}

// Ranking returns listID's items ordered by ability, best first. Ties are
// broken by item id.
func (s *Service) Ranking(ctx context.Context, listID string) ([]types.Entry, error) {
	ctx, span := startSpan(ctx, "Service.Ranking", listAttr(listID))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(ctx, listID)
	if err != nil {
		return nil, endSpan(span, err)
	}
	state := s.state.Lists[listID]
	m := ranking.FromAbilities(state.Abilities, ranking.WithDisplayScale(s.displayScale))
	totals := state.MatchTotals
	if len(totals) != state.Len() {
		totals = reconcile.MatchTotals(state.WinMatrix)
	}

	entries := make([]types.Entry, state.Len())
	for i, id := range state.ItemIDs {
		var wins uint32
		for j, c := range state.WinMatrix[i] {
			if j != i {
				wins += c
			}
		}
		entries[i] = types.Entry{
			ItemID:        id,
			Label:         sess.label(i),
			Ability:       m.Ability(i),
			LogScore:      m.LogScore(i),
			DisplayRating: m.DisplayRating(i),
			Matches:       totals[i],
			Wins:          wins,
		}
	}
	sort.SliceStable(entries, func(a, b int) bool {
		if entries[a].Ability != entries[b].Ability {
			return entries[a].Ability > entries[b].Ability
		}
		return entries[a].ItemID < entries[b].ItemID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// Reset drops listID's comparison history.
func (s *Service) Reset(ctx context.Context, listID string) error {
	ctx, span := startSpan(ctx, "Service.Reset", listAttr(listID))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(ctx, listID)
	if err != nil {
		return endSpan(span, err)
	}
	s.state.Lists[listID] = reconcile.Align(nil, sess.list.IDs())
	sess.current = nil
	s.deduper.Forget(ctx, listID)
	metrics.ForgetList(listID)
	s.persistLocked(ctx)

	s.logger.Info(ctx, "list history reset", logger.String("list", listID))
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := map[string]interface{}{
		"started":               s.started,
		"sampler":               s.samplerName,
		"initialIterations":     s.initialIterations,
		"incrementalIterations": s.incrementalIterations,
		"listsTracked":          len(s.state.Lists),
	}
	if selected, ok := s.state.Selected(); ok {
		stats["selected"] = selected
	}
	comparisons := make(map[string]uint64, len(s.state.Lists))
	for id, st := range s.state.Lists {
		comparisons[id] = totalComparisons(st)
	}
	stats["comparisons"] = comparisons

	if s.started {
		stats["saveQueueLength"] = s.saveQueue.Len(context.Background())
		stats["dedupeSize"] = s.deduper.Size()
	}
	return stats
}

// fetch loads a list from the catalog and maps catalog errors.
func (s *Service) fetch(ctx context.Context, listID string) (model.List, error) {
	if s.catalog == nil {
		return model.List{}, ErrNoCatalog
	}
	list, err := s.catalog.Load(ctx, listID)
	switch {
	case err == nil:
		return list, nil
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, catalog.ErrInvalidID):
		nf := &ListNotFoundError{ListID: listID}
		if suggestion, ok := s.catalog.Suggest(ctx, listID); ok && suggestion != listID {
			nf.Suggestion = suggestion
		}
		return model.List{}, nf
	case errors.Is(err, catalog.ErrParse):
		return model.List{}, fmt.Errorf("%w: %v", ErrListInvalid, err)
	default:
		return model.List{}, fmt.Errorf("load list %q: %w", listID, err)
	}
}

// session returns the live session of listID, loading it from the catalog
// on first use. A created or remapped state is persisted right away. Must be
// called with mu held.
func (s *Service) session(ctx context.Context, listID string) (*session, error) {
	if !s.started {
		return nil, ErrNotStarted
	}
	if sess, ok := s.sessions[listID]; ok {
		return sess, nil
	}
	list, err := s.fetch(ctx, listID)
	if err != nil {
		return nil, err
	}
	sess, kind := s.install(ctx, list)
	if kind != reconcile.KindUnchanged {
		s.persistLocked(ctx)
	}
	return sess, nil
}

// install aligns the stored state with list, refits it and registers a
// session. It reports what the alignment did. Must be called with mu held.
func (s *Service) install(ctx context.Context, list model.List) (*session, reconcile.Kind) {
	id := list.Info.ID
	var existing *model.ListState
	if st, ok := s.state.Lists[id]; ok {
		existing = &st
	}
	state, report := reconcile.AlignReport(existing, list.IDs())
	metrics.RecordReconciliation(string(report.Kind))
	if report.Kind == reconcile.KindRemapped {
		s.logger.Info(ctx, "list history remapped",
			logger.String("list", id),
			logger.Int("kept", len(report.Kept)),
			logger.Int("added", len(report.Added)),
			logger.Int("removed", len(report.Removed)),
			logger.Bool("reordered", report.Reordered),
		)
	}
	state.Abilities = s.fit(ctx, state, s.initialIterations, "initial")
	s.state.Lists[id] = state

	sess, ok := s.sessions[id]
	if !ok || report.Kind != reconcile.KindUnchanged {
		sess = &session{}
		s.sessions[id] = sess
	}
	sess.list = list
	s.updateStateMetrics()
	return sess, report.Kind
}

// fit runs the strength model over state and returns the new abilities.
func (s *Service) fit(ctx context.Context, state model.ListState, iterations int, phase string) []float64 {
	start := time.Now()
	m := ranking.FromAbilities(state.Abilities)
	m.EnsureLength(state.Len())
	if err := m.Fit(state.WinMatrix, iterations); err != nil {
		// Align always produces a square matrix; keep the prior abilities.
		metrics.RecordErrorByComponent("ranking", "fit")
		s.logger.Error(ctx, "fit failed", logger.Error(err))
	}
	metrics.RecordFitLatency(phase, float64(time.Since(start).Microseconds())/1000)
	return m.Abilities()
}

// sample draws the next matchup of sess. Must be called with mu held.
func (s *Service) sample(sess *session, previous *matchup.Matchup) bool {
	state := s.state.Lists[sess.list.Info.ID]
	sampler := matchup.ByName(s.samplerName, state.Abilities)
	m, ok := sampler.Sample(s.rng, matchup.Input{
		Abilities: state.Abilities,
		Wins:      state.WinMatrix,
		Totals:    state.MatchTotals,
		Previous:  previous,
	})
	if !ok || !m.Valid(state.Len()) {
		sess.current = nil
		if state.Len() >= 2 {
			metrics.RecordSamplerFailure()
		}
		return false
	}
	sess.current = &m
	metrics.RecordMatchupServed(samplerLabel(sampler))
	return true
}

// persistLocked hands a snapshot to the flusher. Must be called with mu held.
func (s *Service) persistLocked(ctx context.Context) {
	s.updateStateMetrics()
	if err := s.saveQueue.Enqueue(ctx, s.state.Clone()); err != nil {
		s.logger.Warn(ctx, "state snapshot not queued", logger.Error(err))
	}
}

func (s *Service) view(sess *session) View {
	v := View{
		List:        sess.list.Info,
		Items:       append([]model.Item(nil), sess.list.Items...),
		Comparisons: totalComparisons(s.state.Lists[sess.list.Info.ID]),
	}
	if sess.current != nil {
		mv := s.matchupView(sess)
		v.Matchup = &mv
	}
	return v
}

func (s *Service) matchupView(sess *session) MatchupView {
	state := s.state.Lists[sess.list.Info.ID]
	m := *sess.current
	strength := ranking.FromAbilities(state.Abilities)
	return MatchupView{
		ListID:             sess.list.Info.ID,
		Left:               sess.item(m.Left),
		Right:              sess.item(m.Right),
		LeftWinProbability: strength.ExpectedOutcome(m.Left, m.Right),
		pair:               m,
	}
}

func (s *Service) updateStateMetrics() {
	metrics.UpdateListsTracked(len(s.state.Lists))
	for id, st := range s.state.Lists {
		metrics.UpdateItemsTracked(id, st.Len())
	}
}

func (sess *session) item(i int) model.Item {
	if i >= 0 && i < len(sess.list.Items) {
		return sess.list.Items[i]
	}
	return model.Item{}
}

func (sess *session) label(i int) string {
	return sess.item(i).Label
}

func totalComparisons(st model.ListState) uint64 {
	var total uint64
	for i, row := range st.WinMatrix {
		for j, c := range row {
			if i != j {
				total += uint64(c)
			}
		}
	}
	return total
}

func samplerLabel(s matchup.Sampler) string {
	switch s.(type) {
	case matchup.Uniform:
		return "uniform"
	default:
		return "informative"
	}
}
