package game

import (
	"sort"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/quizbuzz/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Room is the session authority: one goroutine per room owns the Session and
// processes every intent and deadline expiry off a single queue. The buzz
// arbiter's first-writer-wins rule is enforced by this ordering, not by locks
// on shared memory.
type Room struct {
	code     string
	rules    Rules
	clock    clockwork.Clock
	sched    *Scheduler
	session  *models.Session
	sink     EventSink
	outcomes OutcomeSink
	hostID   string

	commands  chan command
	closed    chan struct{}
	closeOnce sync.Once

	// OnClosed is invoked (from the room goroutine) after the room shuts
	// down, so the manager can release the room code.
	OnClosed func(code string)
}

type command struct {
	intent Intent
	from   string
	tag    *DeadlineTag
}

// NewRoom builds a room around a preloaded question set. Run must be called
// before intents are submitted.
func NewRoom(code string, questions []models.Question, rules Rules, clock clockwork.Clock, sink EventSink, outcomes OutcomeSink) *Room {
	if outcomes == nil {
		outcomes = NopOutcomeSink{}
	}
	r := &Room{
		code:     code,
		rules:    rules,
		clock:    clock,
		sink:     sink,
		outcomes: outcomes,
		session: &models.Session{
			RoomCode:          code,
			Phase:             models.PhaseLobby,
			DisabledBuzzerIDs: make(map[string]struct{}),
			Students:          make(map[string]*models.Student),
			Questions:         questions,
		},
		commands: make(chan command, 64),
		closed:   make(chan struct{}),
	}
	r.sched = NewScheduler(clock, r.enqueueExpiry)
	return r
}

// Code returns the room code.
func (r *Room) Code() string { return r.code }

// Submit queues an intent from the given sender. Ordering between different
// senders is whatever order the queue receives; that is the race being
// arbitrated.
func (r *Room) Submit(from string, intent Intent) error {
	select {
	case <-r.closed:
		return ErrRoomClosed
	case r.commands <- command{intent: intent, from: from}:
		return nil
	}
}

func (r *Room) enqueueExpiry(tag DeadlineTag) {
	t := tag
	select {
	case <-r.closed:
	case r.commands <- command{tag: &t}:
	}
}

// Run processes the room queue until the room shuts down.
func (r *Room) Run() {
	log.Info().Str("room", r.code).Msg("room started")
	for {
		select {
		case <-r.closed:
			log.Info().Str("room", r.code).Msg("room stopped")
			return
		case cmd := <-r.commands:
			if cmd.tag != nil {
				r.handleExpiry(*cmd.tag)
			} else {
				r.handleIntent(cmd.from, cmd.intent)
			}
		}
	}
}

// Close tears the room down from outside the loop (manager shutdown).
func (r *Room) Close() {
	r.shutdown()
}

func (r *Room) shutdown() {
	r.closeOnce.Do(func() {
		r.sched.CancelAll()
		close(r.closed)
		if r.OnClosed != nil {
			go r.OnClosed(r.code)
		}
	})
}

// requiresHost reports whether an intent may only come from the host. Clients
// are untrusted; the gateway binds identity but the room is the authority.
func requiresHost(intent Intent) bool {
	switch intent.(type) {
	case CreateTeams, AssignStudent, StartGame, StartQuestion, NextQuestion, EndGame:
		return true
	}
	return false
}

func (r *Room) handleIntent(from string, intent Intent) {
	if requiresHost(intent) && (r.hostID == "" || from != r.hostID) {
		log.Debug().
			Str("room", r.code).
			Str("from", from).
			Str("intent", intent.intentType()).
			Msg("host-only intent rejected")
		r.sendTo(from, EventError, ErrorPayload{Message: ErrNotHost.Error()})
		return
	}

	var err error
	switch in := intent.(type) {
	case JoinRoom:
		err = r.handleJoin(in)
	case CreateTeams:
		err = r.handleCreateTeams(in)
	case AssignStudent:
		err = r.handleAssign(in)
	case StartGame:
		err = r.handleStartGame()
	case StartQuestion:
		r.handleStartQuestion(in)
	case BuzzIn:
		err = r.handleBuzz(in)
	case SubmitAnswer:
		err = r.handleSubmit(in)
	case NextQuestion:
		err = r.handleNextQuestion()
	case EndGame:
		r.finishGame()
	case LeaveRoom:
		r.handleLeave(in)
	default:
		log.Warn().Str("room", r.code).Str("intent", intent.intentType()).Msg("unhandled intent")
	}
	if err != nil {
		log.Debug().
			Err(err).
			Str("room", r.code).
			Str("from", from).
			Str("intent", intent.intentType()).
			Msg("intent rejected")
		r.sendTo(from, EventError, ErrorPayload{Message: err.Error()})
	}
}

func (r *Room) handleExpiry(tag DeadlineTag) {
	switch tag.Kind {
	case DeadlineReveal:
		r.handleRevealTick(tag)
	case DeadlineAnswer:
		r.handleAnswerExpiry(tag)
	case DeadlineTeardown:
		r.handleTeardownExpiry()
	}
}

// --- lobby & team setup ---

func (r *Room) handleJoin(in JoinRoom) error {
	s := r.session
	if in.IsHost {
		r.hostID = in.StudentID
		s.HostConnected = true
		r.sched.Cancel(DeadlineTag{Kind: DeadlineTeardown, QuestionIndex: -1})
		if s.Phase != models.PhaseLobby {
			// Reconnect mid-game: hand the host the full snapshot.
			r.sendTo(in.StudentID, EventRoomState, r.roomState())
			return nil
		}
		r.broadcastLobbyUpdate()
		return nil
	}

	if existing, ok := s.Students[in.StudentID]; ok {
		existing.Name = in.StudentName
		r.sendTo(in.StudentID, EventRoomState, r.roomState())
		return nil
	}
	if s.Phase != models.PhaseLobby {
		return ErrWrongPhase
	}
	s.Students[in.StudentID] = &models.Student{ID: in.StudentID, Name: in.StudentName}
	log.Info().Str("room", r.code).Str("student", in.StudentID).Msg("student joined")
	r.broadcastLobbyUpdate()
	return nil
}

func (r *Room) handleLeave(in LeaveRoom) {
	s := r.session
	if in.IsHost {
		s.HostConnected = false
		grace := r.clock.Now().Add(r.rules.HostGracePeriod())
		r.sched.Schedule(DeadlineTag{Kind: DeadlineTeardown, QuestionIndex: -1}, grace)
		log.Info().Str("room", r.code).Time("teardown_at", grace).Msg("host disconnected, grace period started")
		return
	}
	if s.Phase == models.PhaseLobby {
		delete(s.Students, in.StudentID)
		for _, t := range s.Teams {
			t.RemoveMember(in.StudentID)
		}
		r.broadcastLobbyUpdate()
	}
}

func (r *Room) handleTeardownExpiry() {
	if r.session.HostConnected {
		return
	}
	log.Info().Str("room", r.code).Msg("host grace period elapsed, tearing down room")
	r.shutdown()
}

func (r *Room) handleCreateTeams(in CreateTeams) error {
	var (
		teams []*models.Team
		err   error
	)
	if in.Auto {
		teams, err = autoBalanceTeams(r.session, in.NumTeams)
	} else {
		teams, err = buildTeams(r.session, in.Teams)
	}
	if err != nil {
		return err
	}
	r.broadcast(EventTeamsCreated, TeamsCreatedPayload{Teams: teams})
	return nil
}

func (r *Room) handleAssign(in AssignStudent) error {
	if err := assignStudent(r.session, in.StudentID, in.TeamID); err != nil {
		return err
	}
	r.broadcastLobbyUpdate()
	return nil
}

// --- game flow ---

func (r *Room) handleStartGame() error {
	s := r.session
	if s.Phase != models.PhaseLobby {
		return ErrWrongPhase
	}
	if err := validateStartable(s); err != nil {
		return err
	}
	s.QuestionIndex = 0
	r.beginQuestion()
	r.broadcast(EventGameStarted, GameStartedPayload{
		QuestionIndex:  s.QuestionIndex,
		TotalQuestions: len(s.Questions),
	})
	r.startReveal()
	return nil
}

// beginQuestion resets all per-question state for the current index and
// enters the question phase.
func (r *Room) beginQuestion() {
	s := r.session
	s.Phase = models.PhaseQuestion
	s.RevealedTokenCount = 0
	s.RevealCountAtBuzz = 0
	s.BuzzedTeamID = nil
	s.AnsweringStudentID = ""
	s.IsStealPhase = false
	s.WrongTeamID = nil
	s.StealsRemaining = r.rules.StealsPerQuestion
	s.AnswerDeadline = nil
	s.DisabledBuzzerIDs = make(map[string]struct{})
	thawCooldownTeams(r.rules, s)
}

func (r *Room) startReveal() {
	tag := DeadlineTag{Kind: DeadlineReveal, QuestionIndex: r.session.QuestionIndex}
	r.sched.Schedule(tag, r.clock.Now().Add(r.rules.RevealInterval()))
}

func (r *Room) handleStartQuestion(in StartQuestion) {
	s := r.session
	// Only meaningful when the reveal never started (host reconnect path);
	// anything else is a soft no-op.
	if s.Phase != models.PhaseQuestion || in.QuestionIndex != s.QuestionIndex ||
		s.IsStealPhase || s.RevealedTokenCount > 0 || s.BuzzedTeamID != nil {
		return
	}
	r.startReveal()
}

func (r *Room) handleRevealTick(tag DeadlineTag) {
	s := r.session
	if s.Phase != models.PhaseQuestion || tag.QuestionIndex != s.QuestionIndex ||
		s.IsStealPhase || s.BuzzedTeamID != nil {
		return
	}
	q := s.CurrentQuestion()
	if q == nil {
		return
	}
	tokens := q.Tokens()
	if s.RevealedTokenCount >= len(tokens) {
		return
	}
	idx := s.RevealedTokenCount
	s.RevealedTokenCount++
	r.broadcast(EventWordRevealed, WordRevealedPayload{
		Word:       tokens[idx],
		Index:      idx,
		TotalWords: len(tokens),
	})
	if s.RevealedTokenCount < len(tokens) {
		r.sched.Schedule(tag, r.clock.Now().Add(r.rules.RevealInterval()))
	}
}

func (r *Room) handleBuzz(in BuzzIn) error {
	s := r.session
	if in.QuestionIndex != s.QuestionIndex {
		// Late arrival after a host-forced skip: soft no-op.
		log.Debug().
			Err(ErrStaleQuestion).
			Str("room", r.code).
			Int("got", in.QuestionIndex).
			Int("want", s.QuestionIndex).
			Msg("stale buzz dropped")
		return nil
	}
	if err := tryBuzz(s, in.TeamID, in.StudentID); err != nil {
		return err
	}

	team := s.TeamByID(in.TeamID)
	student := s.Students[in.StudentID]
	teamID := in.TeamID
	s.BuzzedTeamID = &teamID
	s.AnsweringStudentID = in.StudentID
	s.RevealCountAtBuzz = s.RevealedTokenCount
	s.Phase = models.PhaseAnswering

	// The reveal stops the instant a buzz is admitted.
	r.sched.Cancel(DeadlineTag{Kind: DeadlineReveal, QuestionIndex: s.QuestionIndex})

	deadline := r.clock.Now().Add(r.rules.AnswerTimeLimit())
	s.AnswerDeadline = &deadline
	r.sched.Schedule(DeadlineTag{Kind: DeadlineAnswer, QuestionIndex: s.QuestionIndex}, deadline)

	q := s.CurrentQuestion()
	studentName := in.StudentID
	if student != nil {
		studentName = student.Name
	}
	log.Info().
		Str("room", r.code).
		Str("team", team.Name).
		Str("student", in.StudentID).
		Int("revealed_at_buzz", s.RevealCountAtBuzz).
		Bool("steal", s.IsStealPhase).
		Msg("buzz admitted")

	r.broadcast(EventTeamBuzzed, TeamBuzzedPayload{
		TeamID:             team.ID,
		TeamName:           team.Name,
		StudentID:          in.StudentID,
		StudentName:        studentName,
		FullQuestion:       q.Text,
		Options:            q.Options,
		DisabledBuzzers:    s.DisabledBuzzerList(),
		AnswerDeadline:     deadline,
		AnswerTimeLimitSec: r.rules.AnswerTimeLimitSec,
	})
	r.broadcast(EventStudentAnswering, StudentAnsweringPayload{
		StudentID:   in.StudentID,
		StudentName: studentName,
		TeamID:      team.ID,
		TeamName:    team.Name,
	})
	return nil
}

func (r *Room) handleSubmit(in SubmitAnswer) error {
	s := r.session
	if in.QuestionIndex != s.QuestionIndex {
		log.Debug().Err(ErrStaleQuestion).Str("room", r.code).Msg("stale submission dropped")
		return nil
	}
	if s.Phase != models.PhaseAnswering {
		// Expiry race: the auto-submit already judged this window.
		log.Debug().
			Err(ErrDeadlinePassed).
			Str("room", r.code).
			Str("student", in.StudentID).
			Msg("submission after judging dropped")
		return nil
	}
	if s.BuzzedTeamID == nil || in.TeamID != *s.BuzzedTeamID || in.StudentID != s.AnsweringStudentID {
		return ErrNotAnswerer
	}
	r.resolveAnswer(in.Answer, false)
	return nil
}

func (r *Room) handleAnswerExpiry(tag DeadlineTag) {
	s := r.session
	if s.Phase != models.PhaseAnswering || tag.QuestionIndex != s.QuestionIndex {
		return
	}
	log.Info().Str("room", r.code).Str("student", s.AnsweringStudentID).Msg("answer deadline expired, auto-judging empty answer")
	r.resolveAnswer("", true)
}

// resolveAnswer judges the pending answer exactly once per buzz window: it is
// reached either from a manual submission or from the deadline expiry, never
// both, because the first one through leaves the answering phase.
func (r *Room) resolveAnswer(raw string, autoSubmitted bool) {
	s := r.session
	q := s.CurrentQuestion()
	team := s.TeamByID(*s.BuzzedTeamID)
	answerer := s.AnsweringStudentID

	r.sched.Cancel(DeadlineTag{Kind: DeadlineAnswer, QuestionIndex: s.QuestionIndex})
	s.AnswerDeadline = nil

	correct := matchAnswer(q, raw)
	verdict := scoreAnswer(r.rules, q, correct, s.IsStealPhase, s.RevealCountAtBuzz)
	applyVerdict(r.rules, team, verdict, s.QuestionIndex)

	// The answerer's buzzer is spent for the rest of this question.
	s.DisabledBuzzerIDs[answerer] = struct{}{}

	log.Info().
		Str("room", r.code).
		Str("team", team.Name).
		Bool("correct", correct).
		Bool("steal", verdict.WasSteal).
		Bool("auto", autoSubmitted).
		Int("points", verdict.TotalPoints).
		Msg("answer judged")

	r.outcomes.RecordAnswer(AnswerOutcome{
		RoomCode:      r.code,
		QuestionIndex: s.QuestionIndex,
		QuestionID:    q.ID,
		TeamID:        team.ID,
		TeamName:      team.Name,
		StudentID:     answerer,
		IsCorrect:     correct,
		WasSteal:      verdict.WasSteal,
		AutoSubmitted: autoSubmitted,
		PointsAwarded: verdict.TotalPoints,
		NewScore:      team.Score,
		JudgedAt:      r.clock.Now(),
	})

	wrongTeamID := team.ID
	opensSteal := !correct && canOpenSteal(s, wrongTeamID)

	result := AnswerResultPayload{
		TeamID:            team.ID,
		IsCorrect:         correct,
		BasePointsAwarded: verdict.BasePoints,
		EarlyBonusAwarded: verdict.EarlyBonus,
		PointsAwarded:     verdict.TotalPoints,
		NewScore:          team.Score,
		Streak:            team.Streak,
		DisabledBuzzers:   s.DisabledBuzzerList(),
		WasSteal:          verdict.WasSteal,
		AutoSubmitted:     autoSubmitted,
		TeamFrozen:        team.Frozen,
	}
	if correct || !opensSteal {
		// Only reveal the answer once the question is decided.
		result.CorrectAnswer = q.CorrectAnswer()
	}
	r.broadcast(EventAnswerResult, result)

	if correct {
		r.toResults()
		return
	}

	if opensSteal {
		s.StealsRemaining--
		s.IsStealPhase = true
		s.WrongTeamID = &wrongTeamID
		s.Phase = models.PhaseQuestion
		s.BuzzedTeamID = nil
		s.AnsweringStudentID = ""
		log.Info().
			Str("room", r.code).
			Str("wrong_team", team.Name).
			Int("steals_remaining", s.StealsRemaining).
			Msg("steal phase opened")
		r.broadcast(EventStealPhase, StealPhasePayload{
			WrongTeamID:     wrongTeamID,
			RemainingSteals: s.StealsRemaining,
			DisabledBuzzers: s.DisabledBuzzerList(),
		})
		return
	}

	// No steals left or nobody eligible: the question closes unclaimed.
	r.toResults()
}

func (r *Room) toResults() {
	s := r.session
	r.cancelQuestionDeadlines()
	s.Phase = models.PhaseResults
	s.BuzzedTeamID = nil
	s.AnsweringStudentID = ""
	s.AnswerDeadline = nil
}

func (r *Room) handleNextQuestion() error {
	s := r.session
	switch s.Phase {
	case models.PhaseQuestion, models.PhaseAnswering, models.PhaseResults:
	default:
		return ErrWrongPhase
	}
	r.cancelQuestionDeadlines()
	if s.QuestionIndex+1 >= len(s.Questions) {
		r.finishGame()
		return nil
	}
	s.QuestionIndex++
	r.beginQuestion()
	r.broadcast(EventNextQuestion, NextQuestionPayload{
		QuestionIndex:  s.QuestionIndex,
		TotalQuestions: len(s.Questions),
	})
	r.startReveal()
	return nil
}

func (r *Room) finishGame() {
	s := r.session
	if s.Phase == models.PhaseFinished {
		return
	}
	r.cancelQuestionDeadlines()
	// A game ended straight from the lobby never entered a question.
	questionsPlayed := 0
	if s.Phase != models.PhaseLobby {
		questionsPlayed = s.QuestionIndex + 1
	}
	s.Phase = models.PhaseFinished

	results := make([]TeamResult, 0, len(s.Teams))
	for _, t := range s.Teams {
		results = append(results, TeamResult{TeamID: t.ID, Name: t.Name, Score: t.Score})
	}
	r.outcomes.RecordGame(GameOutcome{
		RoomCode:        r.code,
		QuestionsPlayed: questionsPlayed,
		Teams:           results,
		FinishedAt:      r.clock.Now(),
	})
	r.broadcast(EventGameFinished, GameFinishedPayload{Teams: s.Teams})
	log.Info().Str("room", r.code).Msg("game finished")
	r.shutdown()
}

func (r *Room) cancelQuestionDeadlines() {
	idx := r.session.QuestionIndex
	r.sched.Cancel(DeadlineTag{Kind: DeadlineReveal, QuestionIndex: idx})
	r.sched.Cancel(DeadlineTag{Kind: DeadlineAnswer, QuestionIndex: idx})
}

// --- event helpers ---

func (r *Room) broadcast(eventType EventType, data any) {
	r.sink.Broadcast(r.code, newEvent(r.code, eventType, r.clock.Now(), data))
}

func (r *Room) sendTo(studentID string, eventType EventType, data any) {
	if studentID == "" {
		return
	}
	r.sink.SendToStudent(r.code, studentID, newEvent(r.code, eventType, r.clock.Now(), data))
}

func (r *Room) broadcastLobbyUpdate() {
	s := r.session
	r.broadcast(EventLobbyUpdate, LobbyUpdatePayload{Students: sortedStudents(s), Teams: s.Teams})
}

// roomState assembles the reconnect snapshot, including the roster and the
// disabled-buzzer set that the session struct itself never serializes.
func (r *Room) roomState() RoomStatePayload {
	s := r.session
	return RoomStatePayload{
		RoomCode:           s.RoomCode,
		Phase:              s.Phase,
		QuestionIndex:      s.QuestionIndex,
		TotalQuestions:     len(s.Questions),
		RevealedTokenCount: s.RevealedTokenCount,
		BuzzedTeamID:       s.BuzzedTeamID,
		AnsweringStudentID: s.AnsweringStudentID,
		IsStealPhase:       s.IsStealPhase,
		StealsRemaining:    s.StealsRemaining,
		AnswerDeadline:     s.AnswerDeadline,
		Teams:              s.Teams,
		Students:           sortedStudents(s),
		DisabledBuzzers:    s.DisabledBuzzerList(),
	}
}

func sortedStudents(s *models.Session) []*models.Student {
	students := make([]*models.Student, 0, len(s.Students))
	for _, st := range s.Students {
		students = append(students, st)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Name < students[j].Name })
	return students
}
