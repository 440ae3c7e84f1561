package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rocketscienceinc/msgapps-backend/internal/app"
	"github.com/rocketscienceinc/msgapps-backend/pkg/handlers"
)

// Status is the dispatcher surface the status endpoint reads from.
type Status interface {
	ActiveUsers() []string
	Apps() []app.Info
}

type statusResponse struct {
	ActiveSessions int        `json:"active_sessions"`
	Apps           []app.Info `json:"apps"`
}

func Start(port string, status Status) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", handlers.PingHandler)
	mux.HandleFunc("/status", statusHandler(status))

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func statusHandler(status Status) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response := statusResponse{
			ActiveSessions: len(status.ActiveUsers()),
			Apps:           status.Apps(),
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}
}
