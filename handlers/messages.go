package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"dgexport/core/log"
)

// MessageReceiver consumes a message posted by the authorization popup
type MessageReceiver interface {
	HandleMessage(origin, data string) error
}

type MessagePayload struct {
	Data string `json:"data"`
}

// MessagesHandler is the local listener the popup page posts the access token to
type MessagesHandler struct {
	receiver      MessageReceiver
	trustedOrigin string
	untrusted     error
}

func NewMessagesHandler(receiver MessageReceiver, trustedOrigin string, untrustedOriginErr error) *MessagesHandler {
	return &MessagesHandler{
		receiver:      receiver,
		trustedOrigin: trustedOrigin,
		untrusted:     untrustedOriginErr,
	}
}

func (h *MessagesHandler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	log.Debug("📨 Message received", "origin", origin, "remote", r.RemoteAddr)

	var payload MessagePayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&payload); err != nil {
		log.Warn("⚠️ Invalid message body", "error", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.receiver.HandleMessage(origin, payload.Data); err != nil {
		if h.untrusted != nil && errors.Is(err, h.untrusted) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *MessagesHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
		log.Error("❌ Failed to write health check response", "error", err)
	}
}

func (h *MessagesHandler) SetupEndpoints(router *mux.Router) {
	router.HandleFunc("/message", h.HandleMessage).Methods("POST")
	router.HandleFunc("/health", h.HandleHealth).Methods("GET")
}

// Handler wraps the router in CORS rules that only admit the trusted origin
func (h *MessagesHandler) Handler() http.Handler {
	router := mux.NewRouter()
	h.SetupEndpoints(router)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{h.trustedOrigin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(router)
}

// MessageListener serves the messages handler until it is shut down
type MessageListener struct {
	server   *http.Server
	listener net.Listener
}

// Listen binds addr immediately so messages are accepted before any popup opens
func Listen(addr string, handler *MessagesHandler) (*MessageListener, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	server := &http.Server{
		Handler:           handler.Handler(),
		ReadHeaderTimeout: 30 * time.Second,
	}
	go func() {
		log.Info("✅ Listening for authorization messages", "addr", listener.Addr().String())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("❌ Message listener error", "error", err)
		}
	}()

	return &MessageListener{server: server, listener: listener}, nil
}

func (l *MessageListener) Addr() string {
	return l.listener.Addr().String()
}

func (l *MessageListener) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return l.server.Shutdown(ctx)
}
