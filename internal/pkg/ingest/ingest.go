package ingest

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"foodpics/internal/pkg/logger"
	"foodpics/internal/pkg/queue"
)

// Returns an HTTP handler that enqueues a manual run.
func RunHandler(q *queue.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		err := q.Insert(queue.Job{Trigger: queue.TriggerManual, EnqueuedAt: time.Now()})
		if err != nil {
			logger.Log.Warn("Rejected manual run", zap.Error(err))
			http.Error(w, "Queue is full, try again later", http.StatusServiceUnavailable)
			return
		}

		logger.Log.Info("Manual run enqueued", zap.String("remote_addr", r.RemoteAddr))
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("Accepted"))
	}
}
