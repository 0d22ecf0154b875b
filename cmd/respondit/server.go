package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	slackapi "github.com/slack-go/slack"

	"github.com/poiesic/respondit/router"
	"github.com/poiesic/respondit/slack"
)

// eventServer hosts the Events API webhook. Payloads are acknowledged as
// soon as the event is claimed; processing happens on the router's pool.
type eventServer struct {
	addr          string
	signingSecret string
	router        *router.Router
	logger        *slog.Logger
}

func newEventServer(addr, signingSecret string, r *router.Router) *eventServer {
	return &eventServer{
		addr:          addr,
		signingSecret: signingSecret,
		router:        r,
		logger:        slog.Default().With("component", "server"),
	}
}

func (s *eventServer) run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /slack/events", s.handleEvents)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *eventServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if !s.verifySignature(r.Header, body) {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	inbound, err := slack.ParseInbound(body)
	if err != nil {
		if errors.Is(err, slack.ErrUnhandledEvent) {
			// Acknowledge so the platform stops redelivering.
			w.WriteHeader(http.StatusOK)
			return
		}
		s.logger.Warn("rejected payload", "error", err)
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	if inbound.Challenge != "" {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(inbound.Challenge))
		return
	}

	if err := s.router.HandleEvent(r.Context(), inbound.Event); err != nil {
		s.logger.Error("failed to handle event", "event_id", inbound.Event.ID, "error", err)
		http.Error(w, "failed to handle event", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// verifySignature checks the request signature when a signing secret is
// configured. Deployments that terminate verification upstream leave the
// secret empty.
func (s *eventServer) verifySignature(header http.Header, body []byte) bool {
	if s.signingSecret == "" {
		return true
	}

	verifier, err := slackapi.NewSecretsVerifier(header, s.signingSecret)
	if err != nil {
		return false
	}
	if _, err := verifier.Write(body); err != nil {
		return false
	}
	return verifier.Ensure() == nil
}
