package game

import (
	"errors"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/quizbuzz/go/internal/models"
)

// captureSink records events synchronously so tests can assert on exactly
// what a room emitted. Intents are driven through handleIntent directly, so
// the room loop's serialization is simulated by the test's own call order.
type captureSink struct {
	broadcasts []Event
	direct     map[string][]Event
}

func newCaptureSink() *captureSink {
	return &captureSink{direct: make(map[string][]Event)}
}

func (c *captureSink) Broadcast(roomCode string, event Event) {
	c.broadcasts = append(c.broadcasts, event)
}

func (c *captureSink) SendToStudent(roomCode, studentID string, event Event) {
	c.direct[studentID] = append(c.direct[studentID], event)
}

func (c *captureSink) ofType(t EventType) []Event {
	var out []Event
	for _, e := range c.broadcasts {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (c *captureSink) last(t EventType) (Event, bool) {
	events := c.ofType(t)
	if len(events) == 0 {
		return Event{}, false
	}
	return events[len(events)-1], true
}

type captureOutcomes struct {
	answers []AnswerOutcome
	games   []GameOutcome
}

func (c *captureOutcomes) RecordAnswer(o AnswerOutcome) { c.answers = append(c.answers, o) }
func (c *captureOutcomes) RecordGame(o GameOutcome)     { c.games = append(c.games, o) }

func testQuestions() []models.Question {
	return []models.Question{
		{
			ID:              "q1",
			Text:            "alpha beta gamma delta",
			Type:            models.QuestionFreeText,
			AcceptedAnswers: []string{"gamma"},
			Points:          20,
		},
		{
			ID:            "q2",
			Text:          "pick the second option",
			Type:          models.QuestionMultipleChoice,
			Options:       []string{"first", "second"},
			CorrectOption: 1,
			Points:        10,
		},
	}
}

func newTestRoom(t *testing.T, rules Rules) (*Room, *captureSink, *captureOutcomes, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	sink := newCaptureSink()
	outcomes := &captureOutcomes{}
	r := NewRoom("TEST42", testQuestions(), rules, clock, sink, outcomes)
	t.Cleanup(r.Close)
	return r, sink, outcomes, clock
}

// startedRoom joins a host and three students, builds Red={alice,bob} and
// Blue={carol}, starts the game and reveals the first token so buzzing is
// open.
func startedRoom(t *testing.T, rules Rules) (*Room, *captureSink, *captureOutcomes, *clockwork.FakeClock) {
	t.Helper()
	r, sink, outcomes, clock := newTestRoom(t, rules)

	r.handleIntent("host", JoinRoom{StudentID: "host", StudentName: "Host", IsHost: true})
	r.handleIntent("alice", JoinRoom{StudentID: "alice", StudentName: "Alice"})
	r.handleIntent("bob", JoinRoom{StudentID: "bob", StudentName: "Bob"})
	r.handleIntent("carol", JoinRoom{StudentID: "carol", StudentName: "Carol"})
	r.handleIntent("host", CreateTeams{Teams: []TeamSetup{
		{Name: "Red", MemberIDs: []string{"alice", "bob"}},
		{Name: "Blue", MemberIDs: []string{"carol"}},
	}})
	r.handleIntent("host", StartGame{})

	if r.session.Phase != models.PhaseQuestion {
		t.Fatalf("phase after start = %s, want %s", r.session.Phase, models.PhaseQuestion)
	}

	r.handleExpiry(DeadlineTag{Kind: DeadlineReveal, QuestionIndex: 0})
	if r.session.RevealedTokenCount != 1 {
		t.Fatalf("revealed %d tokens, want 1", r.session.RevealedTokenCount)
	}
	return r, sink, outcomes, clock
}

func teamNamed(t *testing.T, r *Room, name string) *models.Team {
	t.Helper()
	for _, team := range r.session.Teams {
		if team.Name == name {
			return team
		}
	}
	t.Fatalf("no team named %s", name)
	return nil
}

func TestBuzzRaceSingleWinner(t *testing.T) {
	r, sink, _, _ := startedRoom(t, DefaultRules())
	red := teamNamed(t, r, "Red")
	blue := teamNamed(t, r, "Blue")

	r.handleIntent("alice", BuzzIn{TeamID: red.ID, StudentID: "alice", QuestionIndex: 0})
	r.handleIntent("carol", BuzzIn{TeamID: blue.ID, StudentID: "carol", QuestionIndex: 0})

	if r.session.BuzzedTeamID == nil || *r.session.BuzzedTeamID != red.ID {
		t.Fatal("first buzz in queue order did not win the race")
	}
	if r.session.AnsweringStudentID != "alice" {
		t.Errorf("answering student = %s, want alice", r.session.AnsweringStudentID)
	}
	if r.session.Phase != models.PhaseAnswering {
		t.Errorf("phase = %s, want %s", r.session.Phase, models.PhaseAnswering)
	}

	if got := len(sink.ofType(EventTeamBuzzed)); got != 1 {
		t.Errorf("%d team-buzzed events, want exactly 1", got)
	}

	// The loser gets a race-lost error, not silence.
	carolEvents := sink.direct["carol"]
	if len(carolEvents) == 0 || carolEvents[len(carolEvents)-1].Type != EventError {
		t.Fatal("race loser did not receive an error event")
	}
}

func TestBuzzRecordsRevealCountAndStopsReveal(t *testing.T) {
	r, sink, _, _ := startedRoom(t, DefaultRules())
	red := teamNamed(t, r, "Red")

	r.handleExpiry(DeadlineTag{Kind: DeadlineReveal, QuestionIndex: 0})
	r.handleIntent("alice", BuzzIn{TeamID: red.ID, StudentID: "alice", QuestionIndex: 0})

	if r.session.RevealCountAtBuzz != 2 {
		t.Errorf("RevealCountAtBuzz = %d, want 2", r.session.RevealCountAtBuzz)
	}

	// A reveal expiry that was in flight when the buzz won must do nothing.
	before := len(sink.ofType(EventWordRevealed))
	r.handleExpiry(DeadlineTag{Kind: DeadlineReveal, QuestionIndex: 0})
	if got := len(sink.ofType(EventWordRevealed)); got != before {
		t.Error("reveal tick leaked into the answering phase")
	}
	if r.session.RevealedTokenCount != 2 {
		t.Errorf("RevealedTokenCount moved to %d during answering", r.session.RevealedTokenCount)
	}
}

func TestCorrectAnswerScoresWithEarlyBonus(t *testing.T) {
	r, sink, outcomes, _ := startedRoom(t, DefaultRules())
	red := teamNamed(t, r, "Red")

	// Buzz with 1 of 4 tokens revealed: bonus = round(10 * 3/4) = 8.
	r.handleIntent("alice", BuzzIn{TeamID: red.ID, StudentID: "alice", QuestionIndex: 0})
	r.handleIntent("alice", SubmitAnswer{TeamID: red.ID, StudentID: "alice", Answer: "Gamma", QuestionIndex: 0})

	result, ok := sink.last(EventAnswerResult)
	if !ok {
		t.Fatal("no answer-result broadcast")
	}
	payload := result.Data.(AnswerResultPayload)
	if !payload.IsCorrect {
		t.Fatal("correct answer judged wrong")
	}
	if payload.BasePointsAwarded != 20 || payload.EarlyBonusAwarded != 8 || payload.PointsAwarded != 28 {
		t.Errorf("scored base=%d bonus=%d total=%d, want 20/8/28",
			payload.BasePointsAwarded, payload.EarlyBonusAwarded, payload.PointsAwarded)
	}
	if payload.CorrectAnswer != "gamma" {
		t.Errorf("CorrectAnswer = %q, want %q", payload.CorrectAnswer, "gamma")
	}
	if red.Score != 28 || red.Streak != 1 {
		t.Errorf("team score=%d streak=%d, want 28 and 1", red.Score, red.Streak)
	}
	if r.session.Phase != models.PhaseResults {
		t.Errorf("phase = %s, want %s", r.session.Phase, models.PhaseResults)
	}

	if len(outcomes.answers) != 1 {
		t.Fatalf("%d answer outcomes recorded, want 1", len(outcomes.answers))
	}
	if o := outcomes.answers[0]; !o.IsCorrect || o.PointsAwarded != 28 || o.QuestionID != "q1" {
		t.Errorf("recorded outcome %+v does not match the judged answer", o)
	}
}

func TestWrongAnswerOpensStealAndHidesCorrectAnswer(t *testing.T) {
	r, sink, _, _ := startedRoom(t, DefaultRules())
	red := teamNamed(t, r, "Red")
	blue := teamNamed(t, r, "Blue")

	r.handleIntent("alice", BuzzIn{TeamID: red.ID, StudentID: "alice", QuestionIndex: 0})
	r.handleIntent("alice", SubmitAnswer{TeamID: red.ID, StudentID: "alice", Answer: "nope", QuestionIndex: 0})

	result, _ := sink.last(EventAnswerResult)
	payload := result.Data.(AnswerResultPayload)
	if payload.IsCorrect {
		t.Fatal("wrong answer judged correct")
	}
	if payload.CorrectAnswer != "" {
		t.Error("correct answer leaked while a steal is still open")
	}

	steal, ok := sink.last(EventStealPhase)
	if !ok {
		t.Fatal("no steal-phase broadcast after wrong answer")
	}
	stealPayload := steal.Data.(StealPhasePayload)
	if stealPayload.WrongTeamID != red.ID || stealPayload.RemainingSteals != 1 {
		t.Errorf("steal payload %+v, want wrong team Red and 1 remaining", stealPayload)
	}

	if !r.session.IsStealPhase || r.session.Phase != models.PhaseQuestion {
		t.Fatal("session did not reopen as a steal phase")
	}

	// The wrong team cannot steal its own miss, even via another member.
	r.handleIntent("bob", BuzzIn{TeamID: red.ID, StudentID: "bob", QuestionIndex: 0})
	bobEvents := sink.direct["bob"]
	if len(bobEvents) == 0 || bobEvents[len(bobEvents)-1].Type != EventError {
		t.Fatal("wrong team's steal attempt was not rejected")
	}

	// The other team steals and earns half points with no bonus.
	r.handleIntent("carol", BuzzIn{TeamID: blue.ID, StudentID: "carol", QuestionIndex: 0})
	if r.session.Phase != models.PhaseAnswering {
		t.Fatal("steal buzz not admitted")
	}
	r.handleIntent("carol", SubmitAnswer{TeamID: blue.ID, StudentID: "carol", Answer: "gamma", QuestionIndex: 0})

	result, _ = sink.last(EventAnswerResult)
	payload = result.Data.(AnswerResultPayload)
	if !payload.WasSteal || payload.PointsAwarded != 10 || payload.EarlyBonusAwarded != 0 {
		t.Errorf("steal scored %+v, want half points and zero bonus", payload)
	}
	if blue.Score != 10 {
		t.Errorf("blue score = %d, want 10", blue.Score)
	}
}

func TestAnswerExpiryAutoJudgesOnce(t *testing.T) {
	r, sink, outcomes, _ := startedRoom(t, DefaultRules())
	red := teamNamed(t, r, "Red")

	r.handleIntent("alice", BuzzIn{TeamID: red.ID, StudentID: "alice", QuestionIndex: 0})
	r.handleExpiry(DeadlineTag{Kind: DeadlineAnswer, QuestionIndex: 0})

	result, ok := sink.last(EventAnswerResult)
	if !ok {
		t.Fatal("expiry did not auto-judge")
	}
	payload := result.Data.(AnswerResultPayload)
	if payload.IsCorrect || !payload.AutoSubmitted {
		t.Errorf("auto-judged payload %+v, want incorrect and auto-submitted", payload)
	}

	// A submission that lost the race against the expiry is dropped silently.
	before := len(sink.ofType(EventAnswerResult))
	r.handleIntent("alice", SubmitAnswer{TeamID: red.ID, StudentID: "alice", Answer: "gamma", QuestionIndex: 0})
	if got := len(sink.ofType(EventAnswerResult)); got != before {
		t.Fatal("late submission was judged a second time")
	}
	if events := sink.direct["alice"]; len(events) != 0 {
		t.Errorf("late submission drew %d direct events, want silence", len(events))
	}
	if len(outcomes.answers) != 1 {
		t.Errorf("%d answer outcomes, want 1", len(outcomes.answers))
	}

	// A duplicate expiry for the same window is equally inert.
	r.handleExpiry(DeadlineTag{Kind: DeadlineAnswer, QuestionIndex: 0})
	if got := len(sink.ofType(EventAnswerResult)); got != before {
		t.Fatal("duplicate expiry re-judged the window")
	}
}

func TestHostSkipInvalidatesStaleIntents(t *testing.T) {
	r, sink, _, _ := startedRoom(t, DefaultRules())
	red := teamNamed(t, r, "Red")
	blue := teamNamed(t, r, "Blue")

	r.handleIntent("alice", BuzzIn{TeamID: red.ID, StudentID: "alice", QuestionIndex: 0})
	r.handleIntent("host", NextQuestion{})

	if r.session.QuestionIndex != 1 || r.session.Phase != models.PhaseQuestion {
		t.Fatalf("after skip: index=%d phase=%s, want 1/%s",
			r.session.QuestionIndex, r.session.Phase, models.PhaseQuestion)
	}
	if _, ok := sink.last(EventNextQuestion); !ok {
		t.Fatal("no next-question broadcast")
	}

	// Intents stamped with the old question index are dropped without error.
	r.handleIntent("carol", BuzzIn{TeamID: blue.ID, StudentID: "carol", QuestionIndex: 0})
	if r.session.BuzzedTeamID != nil {
		t.Fatal("stale buzz mutated the new question")
	}
	if events := sink.direct["carol"]; len(events) != 0 {
		t.Error("stale buzz drew an error event, want silence")
	}

	before := len(sink.ofType(EventAnswerResult))
	r.handleIntent("alice", SubmitAnswer{TeamID: red.ID, StudentID: "alice", Answer: "1", QuestionIndex: 0})
	if got := len(sink.ofType(EventAnswerResult)); got != before {
		t.Error("stale submission was judged")
	}

	// The stale answer deadline from the skipped question must not fire into
	// the new one.
	r.handleExpiry(DeadlineTag{Kind: DeadlineAnswer, QuestionIndex: 0})
	if got := len(sink.ofType(EventAnswerResult)); got != before {
		t.Error("stale expiry was judged")
	}
}

func TestAnswererBuzzerDisabledForRestOfQuestion(t *testing.T) {
	rules := DefaultRules()
	rules.StealsPerQuestion = 2
	r, sink, _, _ := startedRoom(t, rules)
	red := teamNamed(t, r, "Red")
	blue := teamNamed(t, r, "Blue")

	r.handleIntent("carol", BuzzIn{TeamID: blue.ID, StudentID: "carol", QuestionIndex: 0})
	r.handleIntent("carol", SubmitAnswer{TeamID: blue.ID, StudentID: "carol", Answer: "nope", QuestionIndex: 0})

	if !r.session.IsStealPhase {
		t.Fatal("steal did not open")
	}

	// Carol already answered this question; her buzzer is spent even though
	// her team would otherwise be eligible again later.
	r.handleIntent("carol", BuzzIn{TeamID: blue.ID, StudentID: "carol", QuestionIndex: 0})
	carolEvents := sink.direct["carol"]
	if len(carolEvents) == 0 || carolEvents[len(carolEvents)-1].Type != EventError {
		t.Fatal("spent buzzer was allowed to buzz again")
	}

	// Red steals, misses, and the steal may land back on Blue; but Blue's
	// only member is disabled, so the question closes instead.
	r.handleIntent("alice", BuzzIn{TeamID: red.ID, StudentID: "alice", QuestionIndex: 0})
	r.handleIntent("alice", SubmitAnswer{TeamID: red.ID, StudentID: "alice", Answer: "also wrong", QuestionIndex: 0})

	if r.session.Phase != models.PhaseResults {
		t.Fatalf("phase = %s, want %s with no eligible stealers left", r.session.Phase, models.PhaseResults)
	}
	result, _ := sink.last(EventAnswerResult)
	if payload := result.Data.(AnswerResultPayload); payload.CorrectAnswer != "gamma" {
		t.Error("correct answer not revealed once the question closed")
	}
}

func TestFrozenTeamCannotBuzz(t *testing.T) {
	rules := DefaultRules()
	rules.FreezeThreshold = 1
	r, sink, _, _ := startedRoom(t, rules)
	red := teamNamed(t, r, "Red")

	r.handleIntent("alice", BuzzIn{TeamID: red.ID, StudentID: "alice", QuestionIndex: 0})
	r.handleIntent("alice", SubmitAnswer{TeamID: red.ID, StudentID: "alice", Answer: "nope", QuestionIndex: 0})

	if !red.Frozen {
		t.Fatal("team not frozen at threshold 1")
	}
	result, _ := sink.last(EventAnswerResult)
	if payload := result.Data.(AnswerResultPayload); !payload.TeamFrozen {
		t.Error("answer-result did not report the freeze")
	}

	r.handleIntent("host", NextQuestion{})
	r.handleExpiry(DeadlineTag{Kind: DeadlineReveal, QuestionIndex: 1})

	r.handleIntent("bob", BuzzIn{TeamID: red.ID, StudentID: "bob", QuestionIndex: 1})
	bobEvents := sink.direct["bob"]
	if len(bobEvents) == 0 || bobEvents[len(bobEvents)-1].Type != EventError {
		t.Fatal("frozen team's buzz was not rejected")
	}
}

func TestGameFinishesAfterLastQuestion(t *testing.T) {
	r, sink, outcomes, _ := startedRoom(t, DefaultRules())
	red := teamNamed(t, r, "Red")

	r.handleIntent("host", NextQuestion{})
	r.handleExpiry(DeadlineTag{Kind: DeadlineReveal, QuestionIndex: 1})
	r.handleIntent("alice", BuzzIn{TeamID: red.ID, StudentID: "alice", QuestionIndex: 1})
	r.handleIntent("alice", SubmitAnswer{TeamID: red.ID, StudentID: "alice", Answer: "1", QuestionIndex: 1})
	r.handleIntent("host", NextQuestion{})

	if r.session.Phase != models.PhaseFinished {
		t.Fatalf("phase = %s, want %s", r.session.Phase, models.PhaseFinished)
	}
	if _, ok := sink.last(EventGameFinished); !ok {
		t.Fatal("no game-finished broadcast")
	}
	if len(outcomes.games) != 1 {
		t.Fatalf("%d game outcomes recorded, want 1", len(outcomes.games))
	}
	if outcomes.games[0].QuestionsPlayed != 2 {
		t.Errorf("QuestionsPlayed = %d, want 2", outcomes.games[0].QuestionsPlayed)
	}

	// A finished room refuses further intents.
	if err := r.Submit("host", NextQuestion{}); !errors.Is(err, ErrRoomClosed) {
		t.Errorf("Submit after finish = %v, want ErrRoomClosed", err)
	}
}

func TestHostDisconnectTeardownAndRejoin(t *testing.T) {
	r, sink, _, _ := startedRoom(t, DefaultRules())
	red := teamNamed(t, r, "Red")

	// Spend alice's buzzer so the snapshot has mid-question state to carry.
	r.handleIntent("alice", BuzzIn{TeamID: red.ID, StudentID: "alice", QuestionIndex: 0})
	r.handleIntent("alice", SubmitAnswer{TeamID: red.ID, StudentID: "alice", Answer: "nope", QuestionIndex: 0})

	r.handleIntent("host", LeaveRoom{StudentID: "host", IsHost: true})
	r.handleIntent("host", JoinRoom{StudentID: "host", StudentName: "Host", IsHost: true})

	// The rejoin canceled the grace clock; a stray teardown expiry is inert.
	r.handleExpiry(DeadlineTag{Kind: DeadlineTeardown, QuestionIndex: -1})
	if err := r.Submit("host", NextQuestion{}); errors.Is(err, ErrRoomClosed) {
		t.Fatal("room tore down despite host rejoin")
	}

	// The reconnecting host gets the full session snapshot mid-game,
	// including the roster and spent buzzers that the session struct itself
	// keeps off the wire.
	hostEvents := sink.direct["host"]
	if len(hostEvents) == 0 || hostEvents[len(hostEvents)-1].Type != EventRoomState {
		t.Fatal("rejoining host did not receive a room-state snapshot")
	}
	snapshot := hostEvents[len(hostEvents)-1].Data.(RoomStatePayload)
	if snapshot.Phase != models.PhaseQuestion || !snapshot.IsStealPhase {
		t.Errorf("snapshot phase=%s steal=%v, want the live steal phase", snapshot.Phase, snapshot.IsStealPhase)
	}
	if len(snapshot.Students) != 3 {
		t.Errorf("snapshot carries %d students, want 3", len(snapshot.Students))
	}
	if len(snapshot.Teams) != 2 {
		t.Errorf("snapshot carries %d teams, want 2", len(snapshot.Teams))
	}
	if len(snapshot.DisabledBuzzers) != 1 || snapshot.DisabledBuzzers[0] != "alice" {
		t.Errorf("snapshot disabled buzzers = %v, want [alice]", snapshot.DisabledBuzzers)
	}
	if snapshot.TotalQuestions != 2 || snapshot.QuestionIndex != 0 {
		t.Errorf("snapshot index=%d total=%d, want 0 of 2", snapshot.QuestionIndex, snapshot.TotalQuestions)
	}

	r.handleIntent("host", LeaveRoom{StudentID: "host", IsHost: true})
	r.handleExpiry(DeadlineTag{Kind: DeadlineTeardown, QuestionIndex: -1})
	if err := r.Submit("host", NextQuestion{}); !errors.Is(err, ErrRoomClosed) {
		t.Error("room survived the elapsed grace period")
	}
}

func TestHostOnlyIntentsRejectedFromStudents(t *testing.T) {
	r, sink, _, _ := startedRoom(t, DefaultRules())
	blue := teamNamed(t, r, "Blue")

	r.handleIntent("carol", EndGame{})
	if r.session.Phase == models.PhaseFinished {
		t.Fatal("a student ended the game")
	}

	r.handleIntent("alice", NextQuestion{})
	if r.session.QuestionIndex != 0 {
		t.Fatal("a student advanced the question")
	}

	r.handleIntent("carol", CreateTeams{Auto: true, NumTeams: 2})
	r.handleIntent("carol", AssignStudent{StudentID: "alice", TeamID: blue.ID})
	if blue.HasMember("alice") {
		t.Fatal("a student rewired the roster")
	}

	// Each rejected intent is answered with an error event, not silence.
	for _, student := range []string{"carol", "alice"} {
		events := sink.direct[student]
		if len(events) == 0 || events[len(events)-1].Type != EventError {
			t.Errorf("student %s drove a host intent without a rejection", student)
		}
	}

	// The host can still do all of it.
	r.handleIntent("host", NextQuestion{})
	if r.session.QuestionIndex != 1 {
		t.Fatal("host advance rejected")
	}
	r.handleIntent("host", EndGame{})
	if r.session.Phase != models.PhaseFinished {
		t.Fatal("host end rejected")
	}
}

func TestHostOnlyIntentsRejectedBeforeHostJoins(t *testing.T) {
	r, sink, _, _ := newTestRoom(t, DefaultRules())

	r.handleIntent("alice", JoinRoom{StudentID: "alice", StudentName: "Alice"})
	r.handleIntent("alice", StartGame{})

	if r.session.Phase != models.PhaseLobby {
		t.Fatal("game started with no host in the room")
	}
	aliceEvents := sink.direct["alice"]
	if len(aliceEvents) == 0 || aliceEvents[len(aliceEvents)-1].Type != EventError {
		t.Fatal("hostless start was not rejected with an error event")
	}
}

func TestEndGameFromLobbyRecordsNoQuestions(t *testing.T) {
	r, _, outcomes, _ := newTestRoom(t, DefaultRules())

	r.handleIntent("host", JoinRoom{StudentID: "host", StudentName: "Host", IsHost: true})
	r.handleIntent("host", EndGame{})

	if r.session.Phase != models.PhaseFinished {
		t.Fatalf("phase = %s, want %s", r.session.Phase, models.PhaseFinished)
	}
	if len(outcomes.games) != 1 {
		t.Fatalf("%d game outcomes, want 1", len(outcomes.games))
	}
	if got := outcomes.games[0].QuestionsPlayed; got != 0 {
		t.Errorf("QuestionsPlayed = %d for a lobby-ended game, want 0", got)
	}
}

func TestLobbyJoinAndLeave(t *testing.T) {
	r, sink, _, _ := newTestRoom(t, DefaultRules())

	r.handleIntent("host", JoinRoom{StudentID: "host", StudentName: "Host", IsHost: true})
	r.handleIntent("alice", JoinRoom{StudentID: "alice", StudentName: "Alice"})
	r.handleIntent("bob", JoinRoom{StudentID: "bob", StudentName: "Bob"})

	update, ok := sink.last(EventLobbyUpdate)
	if !ok {
		t.Fatal("no lobby-update broadcast")
	}
	if got := len(update.Data.(LobbyUpdatePayload).Students); got != 2 {
		t.Errorf("lobby shows %d students, want 2", got)
	}

	r.handleIntent("bob", LeaveRoom{StudentID: "bob"})
	update, _ = sink.last(EventLobbyUpdate)
	if got := len(update.Data.(LobbyUpdatePayload).Students); got != 1 {
		t.Errorf("lobby shows %d students after leave, want 1", got)
	}

	// A returning student is re-synced rather than rejected.
	r.handleIntent("alice", JoinRoom{StudentID: "alice", StudentName: "Alice"})
	aliceEvents := sink.direct["alice"]
	if len(aliceEvents) == 0 || aliceEvents[len(aliceEvents)-1].Type != EventRoomState {
		t.Fatal("returning student did not receive a room-state snapshot")
	}
}

func TestNewStudentCannotJoinMidGame(t *testing.T) {
	r, sink, _, _ := startedRoom(t, DefaultRules())

	r.handleIntent("dave", JoinRoom{StudentID: "dave", StudentName: "Dave"})

	if _, ok := r.session.Students["dave"]; ok {
		t.Fatal("new student joined mid-game")
	}
	daveEvents := sink.direct["dave"]
	if len(daveEvents) == 0 || daveEvents[len(daveEvents)-1].Type != EventError {
		t.Fatal("mid-game join was not rejected with an error event")
	}
}

func TestRevealStopsAtLastToken(t *testing.T) {
	r, sink, _, _ := startedRoom(t, DefaultRules())

	// q1 has four tokens; the first tick ran in startedRoom.
	for i := 0; i < 6; i++ {
		r.handleExpiry(DeadlineTag{Kind: DeadlineReveal, QuestionIndex: 0})
	}
	if r.session.RevealedTokenCount != 4 {
		t.Errorf("revealed %d tokens, want 4", r.session.RevealedTokenCount)
	}
	if got := len(sink.ofType(EventWordRevealed)); got != 4 {
		t.Errorf("%d word-revealed events, want 4", got)
	}
	last, _ := sink.last(EventWordRevealed)
	payload := last.Data.(WordRevealedPayload)
	if payload.Word != "delta" || payload.Index != 3 || payload.TotalWords != 4 {
		t.Errorf("last reveal %+v, want delta/3/4", payload)
	}
}

func TestEndGameIntentFinishesImmediately(t *testing.T) {
	r, sink, outcomes, _ := startedRoom(t, DefaultRules())

	r.handleIntent("host", EndGame{})

	if r.session.Phase != models.PhaseFinished {
		t.Fatalf("phase = %s, want %s", r.session.Phase, models.PhaseFinished)
	}
	if _, ok := sink.last(EventGameFinished); !ok {
		t.Fatal("no game-finished broadcast")
	}
	if len(outcomes.games) != 1 {
		t.Errorf("%d game outcomes, want 1", len(outcomes.games))
	}
}
