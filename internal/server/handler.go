package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/soar/joyview/internal/hub"
	"github.com/soar/joyview/internal/theme"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local use
	},
}

func handleWebSocket(h *hub.Hub, b *hub.Broadcaster, actions hub.ActionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		client := hub.NewClient(h, conn)

		// Queue current state before the client can receive broadcasts
		b.SendInitialState(client)
		if !h.Register(client) {
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump(actions)
	}
}

func handleTheme(state StateSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			id = state.Config().Theme
		}
		out, err := theme.Load(id)
		if errors.Is(err, theme.ErrUnknownTheme) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			log.Printf("Error loading theme %s: %v", id, err)
			http.Error(w, "theme unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(out))
	}
}

func handlePlaceholder(w http.ResponseWriter, r *http.Request) {
	out, err := theme.Placeholder()
	if err != nil {
		log.Printf("Error loading placeholder: %v", err)
		http.Error(w, "placeholder unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write([]byte(out))
}

func handleConfig(state StateSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := state.Config().Encode()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}
}

func handleThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := theme.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(themes)
}
