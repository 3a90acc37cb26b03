package web

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jdgilhuly/workout_log/pkg/credential"
	"github.com/jdgilhuly/workout_log/pkg/generator"
	"github.com/jdgilhuly/workout_log/pkg/presenter"
	"github.com/jdgilhuly/workout_log/pkg/provider"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "workoutlog_session"

// Snapshot is everything the page renders for one session.
type Snapshot struct {
	Credentials []credential.Status `json:"credentials"`
	Visible     bool                `json:"visible"`
	Cycle       uint64              `json:"cycle"`
	Panes       []presenter.Pane    `json:"panes"`
}

// session is one browser's in-memory state. Nothing in it outlives the
// process.
type session struct {
	id        string
	creds     *credential.Store
	state     *generator.State
	gen       *generator.Generator
	presenter *presenter.Presenter
	hub       *hub
	log       zerolog.Logger

	// pubMu orders snapshot publication so clients never see an older
	// snapshot after a newer one.
	pubMu        sync.Mutex
	stopListener func()

	seenMu   sync.Mutex
	lastSeen time.Time
}

func (s *Server) newSession() *session {
	id := uuid.NewString()
	log := s.logger.With().Str("session", id[:8]).Logger()

	sess := &session{
		id:       id,
		creds:    credential.NewStore(),
		state:    generator.NewState(),
		hub:      newHub(),
		log:      log,
		lastSeen: s.now(),
	}
	sess.gen = generator.New(s.routes, sess.creds, sess.state,
		generator.WithLogger(log),
		generator.WithPrompt(s.prompt),
	)
	sess.presenter = presenter.New(sess.state,
		presenter.WithCopiedWindow(s.copiedWindow),
		presenter.WithOnChange(func(provider.ID) { sess.publish() }),
	)
	sess.stopListener = sess.state.OnChange(func(provider.ID) { sess.publish() })
	return sess
}

func (sess *session) snapshot() Snapshot {
	st := sess.state.Snapshot()
	return Snapshot{
		Credentials: sess.creds.Statuses(),
		Visible:     st.Visible,
		Cycle:       st.Cycle,
		Panes:       sess.presenter.Panes(),
	}
}

func (sess *session) encode() []byte {
	b, err := json.Marshal(sess.snapshot())
	if err != nil {
		sess.log.Error().Err(err).Msg("encoding snapshot")
		return nil
	}
	return b
}

// publish pushes the current snapshot to every open socket of the session.
func (sess *session) publish() {
	sess.pubMu.Lock()
	defer sess.pubMu.Unlock()
	if sess.hub.len() == 0 {
		return
	}
	if b := sess.encode(); b != nil {
		sess.hub.broadcast(b)
	}
}

// attach queues the current snapshot for c and registers it, both under
// pubMu so no publish can slip between the two.
func (sess *session) attach(c *wsConn) bool {
	sess.pubMu.Lock()
	defer sess.pubMu.Unlock()
	if b := sess.encode(); b != nil {
		c.send <- b
	}
	return sess.hub.add(c)
}

func (sess *session) touch(now time.Time) {
	sess.seenMu.Lock()
	sess.lastSeen = now
	sess.seenMu.Unlock()
}

func (sess *session) idleSince() time.Time {
	sess.seenMu.Lock()
	defer sess.seenMu.Unlock()
	return sess.lastSeen
}

func (sess *session) close() {
	sess.stopListener()
	sess.presenter.Close()
	sess.hub.close()
}

// sessionStore maps session ids to sessions and expires idle ones.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*session)}
}

func (st *sessionStore) get(id string) (*session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	sess, ok := st.sessions[id]
	return sess, ok
}

func (st *sessionStore) put(sess *session) {
	st.mu.Lock()
	st.sessions[sess.id] = sess
	st.mu.Unlock()
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// sweep drops sessions idle since before cutoff that have no open sockets.
// It returns how many were dropped.
func (st *sessionStore) sweep(cutoff time.Time) int {
	var expired []*session
	st.mu.Lock()
	for id, sess := range st.sessions {
		if sess.idleSince().Before(cutoff) && sess.hub.len() == 0 {
			expired = append(expired, sess)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, sess := range expired {
		sess.close()
	}
	return len(expired)
}

func (st *sessionStore) closeAll() {
	st.mu.Lock()
	all := st.sessions
	st.sessions = make(map[string]*session)
	st.mu.Unlock()

	for _, sess := range all {
		sess.close()
	}
}

// session returns the caller's session, creating one and setting the cookie
// when the request carries no known id.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session {
	if sess, ok := s.existingSession(r); ok {
		return sess
	}

	sess := s.newSession()
	s.sessions.put(sess)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	sess.log.Debug().Msg("session created")
	return sess
}

// existingSession resolves the request's session cookie without creating a
// session for unknown or missing cookies.
func (s *Server) existingSession(r *http.Request) (*session, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, false
	}
	sess, ok := s.sessions.get(c.Value)
	if !ok {
		return nil, false
	}
	sess.touch(s.now())
	return sess, true
}
