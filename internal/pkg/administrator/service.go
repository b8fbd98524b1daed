package administrator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"foodpics/internal/pkg/ingest"
	"foodpics/internal/pkg/logger"
	"foodpics/internal/pkg/queue"
)

type runSummary struct {
	RunID    string `json:"run_id"`
	Outcome  string `json:"outcome"`
	PostID   string `json:"post_id,omitempty"`
	Duration string `json:"duration"`
}

type health struct {
	Status     string      `json:"status"`
	QueueDepth int         `json:"queue_depth"`
	Schedule   string      `json:"schedule"`
	NextRun    *time.Time  `json:"next_run,omitempty"`
	LastRun    *runSummary `json:"last_run,omitempty"`
	Uptime     string      `json:"uptime"`
	StartTime  time.Time   `json:"start_time"`
}

// Builds the service routes: POST /run enqueues a manual run, /metrics serves
// Prometheus and /health reports queue and last-run state.
func newMux(admin Administrator, q *queue.Queue) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/run", ingest.RunHandler(q))

	// /metrics endpoint for Prometheus
	mux.Handle("/metrics", promhttp.Handler())

	// /health endpoint
	mux.HandleFunc("/health", func(writer http.ResponseWriter, request *http.Request) {
		report := health{
			Status:     "OK",
			QueueDepth: admin.QueueDepth(),
			Schedule:   admin.Schedule(),
			Uptime:     time.Since(admin.StartTime()).String(),
			StartTime:  admin.StartTime(),
		}
		if next := admin.NextRun(); !next.IsZero() {
			report.NextRun = &next
		}
		if last := admin.LastRun(); last != nil {
			summary := &runSummary{
				RunID:    last.RunID,
				Outcome:  last.Outcome,
				Duration: last.Duration.String(),
			}
			if last.Post != nil {
				summary.PostID = last.Post.ID
			}
			report.LastRun = summary
		}

		writer.Header().Set("Content-Type", "application/json")
		json.NewEncoder(writer).Encode(report)
	})

	return mux
}

// Serves until ctx is done, then shuts the listener down gracefully.
func serveHTTP(ctx context.Context, admin Administrator, q *queue.Queue, port string) error {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           newMux(admin, q),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.Warn("HTTP service shutdown failed", zap.Error(err))
		}
	}()

	logger.Log.Info("HTTP service listening", zap.String("address", server.Addr))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
