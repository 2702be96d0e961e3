package transport

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"sync"

	"github.com/lxzan/gws"
)

type session struct {
	subscribed map[string]bool
	advertised map[string]bool
}

type advert struct {
	schema string
	owner  *gws.Conn
}

// Server is an in-process bus: it relays published messages to every
// connection subscribed to the topic and keeps all connections informed of
// the advertised topics.
type Server struct {
	gws.BuiltinEventHandler

	upgrader *gws.Upgrader

	mu       sync.Mutex
	sessions map[*gws.Conn]*session
	adverts  map[string]advert
}

func NewServer() *Server {
	s := &Server{
		sessions: make(map[*gws.Conn]*session),
		adverts:  make(map[string]advert),
	}
	s.upgrader = gws.NewUpgrader(s, &gws.ServerOption{})
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r)
	if err != nil {
		log.Printf("Bus upgrade failed: %v", err)
		return
	}
	go conn.ReadLoop()
}

func (s *Server) OnOpen(socket *gws.Conn) {
	s.mu.Lock()
	s.sessions[socket] = &session{
		subscribed: make(map[string]bool),
		advertised: make(map[string]bool),
	}
	listing := s.listingLocked()
	s.mu.Unlock()

	writeEnvelope(socket, envelope{Op: OpTopics, Listing: listing})
}

func (s *Server) OnClose(socket *gws.Conn, err error) {
	s.mu.Lock()
	sess, ok := s.sessions[socket]
	delete(s.sessions, socket)
	changed := false
	if ok {
		for topic := range sess.advertised {
			if s.adverts[topic].owner == socket {
				delete(s.adverts, topic)
				changed = true
			}
		}
	}
	s.mu.Unlock()

	if changed {
		s.broadcastTopics()
	}
}

func (s *Server) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()

	var env envelope
	if err := json.Unmarshal(message.Bytes(), &env); err != nil {
		log.Printf("Error parsing bus message: %v", err)
		return
	}

	switch env.Op {
	case OpSubscribe:
		s.mu.Lock()
		if sess, ok := s.sessions[socket]; ok {
			sess.subscribed = make(map[string]bool, len(env.Topics))
			for _, t := range env.Topics {
				sess.subscribed[t] = true
			}
		}
		s.mu.Unlock()

	case OpAdvertise:
		s.mu.Lock()
		if sess, ok := s.sessions[socket]; ok && env.Topic != "" {
			sess.advertised[env.Topic] = true
			s.adverts[env.Topic] = advert{schema: env.Schema, owner: socket}
		}
		s.mu.Unlock()
		s.broadcastTopics()

	case OpUnadvertise:
		s.mu.Lock()
		if sess, ok := s.sessions[socket]; ok {
			delete(sess.advertised, env.Topic)
			if s.adverts[env.Topic].owner == socket {
				delete(s.adverts, env.Topic)
			}
		}
		s.mu.Unlock()
		s.broadcastTopics()

	case OpPublish:
		s.relay(env)
	}
}

func (s *Server) relay(env envelope) {
	s.mu.Lock()
	schema := s.adverts[env.Topic].schema
	var targets []*gws.Conn
	for conn, sess := range s.sessions {
		if sess.subscribed[env.Topic] {
			targets = append(targets, conn)
		}
	}
	s.mu.Unlock()

	out := envelope{Op: OpMessage, Topic: env.Topic, Schema: schema, Message: env.Message}
	for _, conn := range targets {
		if err := writeEnvelope(conn, out); err != nil {
			log.Printf("Bus relay failed: %v", err)
		}
	}
}

func (s *Server) broadcastTopics() {
	s.mu.Lock()
	listing := s.listingLocked()
	conns := make([]*gws.Conn, 0, len(s.sessions))
	for conn := range s.sessions {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		writeEnvelope(conn, envelope{Op: OpTopics, Listing: listing})
	}
}

func (s *Server) listingLocked() []Topic {
	listing := make([]Topic, 0, len(s.adverts))
	for name, a := range s.adverts {
		listing = append(listing, Topic{Name: name, Schema: a.schema})
	}
	sort.Slice(listing, func(i, j int) bool { return listing[i].Name < listing[j].Name })
	return listing
}
