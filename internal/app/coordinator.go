package app

import (
	"context"
	"log"
	"time"

	"trivia-game-service/internal/domain"
)

// State names the coordinator's position in the game lifecycle.
type State string

const (
	StateIdle            State = "idle"
	StateLobby           State = "lobby"
	StateAwaitingAnswers State = "awaiting_answers"
	StateRevealing       State = "revealing"
	StateEnded           State = "ended"
)

// Timing holds the delays that drive the state machine.
type Timing struct {
	MinPlayers   int
	LobbyWait    time.Duration
	StartDelay   time.Duration
	AnswerWindow time.Duration
	RevealDelay  time.Duration
	EndCooldown  time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		MinPlayers:   2,
		LobbyWait:    15 * time.Second,
		StartDelay:   2 * time.Second,
		AnswerWindow: 30 * time.Second,
		RevealDelay:  5 * time.Second,
		EndCooldown:  10 * time.Second,
	}
}

// PersistenceGateway receives finalized session data at game end. Writes are
// best-effort relative to game flow: the coordinator never blocks on them.
type PersistenceGateway interface {
	SaveSession(ctx context.Context, record domain.SessionRecord) error
	SaveResults(ctx context.Context, sessionID string, finalScores map[string]int) ([]domain.PlayerResult, error)
}

type message interface{ isMessage() }

type connectMsg struct {
	id     string
	outbox chan Event
}

type disconnectMsg struct{ id string }

type submitMsg struct {
	id          string
	choiceIndex int
}

type timerMsg struct{ gen uint64 }

type viewMsg struct{ reply chan View }

type shutdownMsg struct{}

func (connectMsg) isMessage()    {}
func (disconnectMsg) isMessage() {}
func (submitMsg) isMessage()     {}
func (timerMsg) isMessage()      {}
func (viewMsg) isMessage()       {}
func (shutdownMsg) isMessage()   {}

// View reflects coordinator internals without data races; used by tests and
// by the hub's idle check.
type View struct {
	State         State
	QuestionIndex int
	Players       int
	Scores        map[string]int
}

// Coordinator runs one trivia session. All mutation — roster changes, answer
// submissions, timer firings — is serialized through a single goroutine
// draining the inbox, so the session needs no locks. Timers are generation
// tagged: arming a new timer invalidates any previously scheduled one, which
// keeps a late-firing stale timeout from double-advancing a round.
type Coordinator struct {
	id        string
	questions []domain.Question
	timing    Timing
	gateway   PersistenceGateway

	inbox       chan message
	roster      *Roster
	collector   *AnswerCollector
	state       State
	qIndex      int
	startedAt   time.Time
	gen         uint64
	startArmed  bool
	subscribers map[string]chan Event

	now      func() time.Time
	schedule func(d time.Duration, fn func())
	persist  func(record domain.SessionRecord, finalScores map[string]int)

	ctx    context.Context
	cancel context.CancelFunc
}

// NewCoordinator starts a session loop for the given question list. The
// gateway may be nil, in which case results are discarded at game end.
func NewCoordinator(id string, questions []domain.Question, timing Timing, gateway PersistenceGateway) *Coordinator {
	c := newCoordinator(id, questions, timing, gateway)
	go c.loop()
	return c
}

// newCoordinator builds the coordinator without starting the loop; tests
// swap the clock and scheduler before running it.
func newCoordinator(id string, questions []domain.Question, timing Timing, gateway PersistenceGateway) *Coordinator {
	if timing.MinPlayers < 1 {
		timing.MinPlayers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		id:          id,
		questions:   questions,
		timing:      timing,
		gateway:     gateway,
		inbox:       make(chan message, 64),
		roster:      NewRoster(),
		collector:   NewAnswerCollector(),
		state:       StateIdle,
		subscribers: make(map[string]chan Event),
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
	}
	c.schedule = func(d time.Duration, fn func()) { time.AfterFunc(d, fn) }
	c.persist = c.persistResults
	return c
}

// Connect registers a player and its outbound event channel.
func (c *Coordinator) Connect(id string, outbox chan Event) {
	c.post(connectMsg{id: id, outbox: outbox})
}

// Disconnect removes a player in any state.
func (c *Coordinator) Disconnect(id string) {
	c.post(disconnectMsg{id: id})
}

// Submit records a player's answer for the current round. Out-of-turn or
// duplicate submissions are silently ignored.
func (c *Coordinator) Submit(id string, choiceIndex int) {
	c.post(submitMsg{id: id, choiceIndex: choiceIndex})
}

// View returns a snapshot of the session state.
func (c *Coordinator) View() View {
	reply := make(chan View, 1)
	c.post(viewMsg{reply: reply})
	select {
	case v := <-reply:
		return v
	case <-c.ctx.Done():
		return View{State: StateIdle}
	}
}

// Idle reports whether the session has no players and no game in progress.
func (c *Coordinator) Idle() bool {
	v := c.View()
	return v.State == StateIdle && v.Players == 0
}

// Shutdown stops the loop and closes all subscriber channels.
func (c *Coordinator) Shutdown() {
	c.post(shutdownMsg{})
}

func (c *Coordinator) post(m message) {
	select {
	case c.inbox <- m:
	case <-c.ctx.Done():
	}
}

func (c *Coordinator) loop() {
	for {
		select {
		case <-c.ctx.Done():
			c.teardown()
			return
		case m := <-c.inbox:
			switch msg := m.(type) {
			case connectMsg:
				c.handleConnect(msg.id, msg.outbox)
			case disconnectMsg:
				c.handleDisconnect(msg.id)
			case submitMsg:
				c.handleSubmit(msg.id, msg.choiceIndex)
			case timerMsg:
				c.handleTimer(msg.gen)
			case viewMsg:
				msg.reply <- View{
					State:         c.state,
					QuestionIndex: c.qIndex,
					Players:       c.roster.Count(),
					Scores:        c.roster.SnapshotScores(),
				}
			case shutdownMsg:
				c.teardown()
				return
			}
		}
	}
}

func (c *Coordinator) teardown() {
	for id, ch := range c.subscribers {
		close(ch)
		delete(c.subscribers, id)
	}
	c.cancel()
}

func (c *Coordinator) handleConnect(id string, outbox chan Event) {
	c.subscribers[id] = outbox
	if !c.roster.Add(id) {
		return
	}

	switch c.state {
	case StateIdle:
		c.state = StateLobby
		c.startArmed = false
		if c.roster.Count() >= c.timing.MinPlayers {
			c.startGame()
		} else {
			c.armTimer(c.timing.LobbyWait)
		}
	case StateLobby:
		if !c.startArmed && c.roster.Count() >= c.timing.MinPlayers {
			c.startGame()
		}
	default:
		// Mid-game joiners are part of the roster from the next round on.
	}
}

func (c *Coordinator) handleDisconnect(id string) {
	if ch, ok := c.subscribers[id]; ok {
		close(ch)
		delete(c.subscribers, id)
	}
	if !c.roster.Has(id) {
		return
	}
	c.roster.Remove(id)
	c.collector.Remove(id)

	if c.roster.Count() == 0 {
		// Nobody left: discard the in-progress session without persisting.
		c.resetToIdle()
		return
	}
	if c.state == StateAwaitingAnswers && c.collector.IsComplete(c.roster.IDs()) {
		c.reveal()
	}
}

func (c *Coordinator) handleSubmit(id string, choiceIndex int) {
	if c.state != StateAwaitingAnswers {
		return
	}
	if !c.roster.Has(id) {
		return
	}
	if !c.collector.Submit(id, choiceIndex, c.now()) {
		return
	}
	c.broadcast(PlayerAnswered{PlayerID: id})
	if c.collector.IsComplete(c.roster.IDs()) {
		c.reveal()
	}
}

func (c *Coordinator) handleTimer(gen uint64) {
	if gen != c.gen {
		return
	}
	switch c.state {
	case StateLobby:
		if c.startArmed {
			c.beginQuestion(0)
		} else if c.roster.Count() > 0 {
			// Waited long enough: start with whoever is here.
			c.startGame()
		}
	case StateAwaitingAnswers:
		c.reveal()
	case StateRevealing:
		if c.qIndex+1 < len(c.questions) {
			c.beginQuestion(c.qIndex + 1)
		} else {
			c.endGame()
		}
	case StateEnded:
		c.resetToIdle()
	}
}

func (c *Coordinator) startGame() {
	c.startedAt = c.now()
	c.startArmed = true
	c.broadcast(GameStart{PlayerIDs: c.roster.IDs()})
	c.armTimer(c.timing.StartDelay)
}

func (c *Coordinator) beginQuestion(index int) {
	if index < 0 || index >= len(c.questions) {
		log.Printf("session %s: question index %d out of range", c.id, index)
		c.resetToIdle()
		return
	}
	c.state = StateAwaitingAnswers
	c.qIndex = index
	c.collector.Reset()
	q := c.questions[index]
	c.broadcast(NewQuestion{
		QuestionNumber: index + 1,
		TotalQuestions: len(c.questions),
		Prompt:         q.Prompt,
		Choices:        q.Choices,
	})
	c.armTimer(c.timing.AnswerWindow)
}

// reveal closes the round: it scores the collected answers, applies points,
// and publishes results. Entering StateRevealing plus the timer generation
// bump guarantees at most one reveal per question index, whether triggered by
// completion, timeout, or a disconnect that completed the round.
func (c *Coordinator) reveal() {
	c.state = StateRevealing
	result := Score(c.collector.All(), c.questions[c.qIndex].CorrectIndex)
	for id, points := range result.PerPlayerPoints {
		c.roster.ApplyPoints(id, points)
	}
	scores := c.roster.SnapshotScores()
	for id, ch := range c.subscribers {
		c.send(ch, RoundResults{
			CorrectIndex: result.CorrectIndex,
			Scores:       scores,
			PointsEarned: result.PerPlayerPoints[id],
		})
	}
	c.armTimer(c.timing.RevealDelay)
}

func (c *Coordinator) endGame() {
	c.state = StateEnded
	finalScores := c.roster.SnapshotScores()
	c.broadcast(GameEnd{FinalScores: finalScores})

	record := domain.SessionRecord{
		SessionID:     c.id + "-" + c.startedAt.UTC().Format("20060102T150405"),
		JoinCode:      c.id,
		Status:        "completed",
		StartTime:     c.startedAt,
		EndTime:       c.now(),
		PlayerIDs:     c.roster.IDs(),
		QuestionCount: len(c.questions),
	}
	go c.persist(record, finalScores)

	c.armTimer(c.timing.EndCooldown)
}

// persistResults is fire-and-forget relative to game flow: one retry, then
// log and drop. A persistence failure must never crash or stall the session.
func (c *Coordinator) persistResults(record domain.SessionRecord, finalScores map[string]int) {
	if c.gateway == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	save := func() error {
		if err := c.gateway.SaveSession(ctx, record); err != nil {
			return err
		}
		_, err := c.gateway.SaveResults(ctx, record.SessionID, finalScores)
		return err
	}
	err := save()
	if err != nil {
		log.Printf("session %s: persist failed, retrying: %v", c.id, err)
		time.Sleep(500 * time.Millisecond)
		err = save()
	}
	if err != nil {
		log.Printf("session %s: persist failed, dropping results: %v", c.id, err)
	}
}

func (c *Coordinator) resetToIdle() {
	c.gen++ // invalidate any pending timer
	c.state = StateIdle
	c.qIndex = 0
	c.startArmed = false
	c.collector.Reset()
	c.roster.ResetScores()
}

// armTimer schedules the single active timer for the current state. Bumping
// the generation first invalidates whatever was pending.
func (c *Coordinator) armTimer(d time.Duration) {
	c.gen++
	gen := c.gen
	c.schedule(d, func() {
		select {
		case c.inbox <- timerMsg{gen: gen}:
		case <-c.ctx.Done():
		}
	})
}

func (c *Coordinator) broadcast(ev Event) {
	for _, ch := range c.subscribers {
		c.send(ch, ev)
	}
}

// send never blocks the loop: when a subscriber's buffer is full the oldest
// pending event is dropped to make room.
func (c *Coordinator) send(ch chan Event, ev Event) {
	select {
	case ch <- ev:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}
