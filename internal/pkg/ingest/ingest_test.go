package ingest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"foodpics/internal/pkg/logger"
	"foodpics/internal/pkg/queue"
)

func init() {
	logger.Log = zap.NewNop()
}

func TestRunHandler(t *testing.T) {
	q, err := queue.CreateQueue(1)
	if err != nil {
		t.Fatalf("Failed to create queue: %v", err)
	}
	server := httptest.NewServer(RunHandler(q))
	defer server.Close()

	response, err := http.Post(server.URL, "application/json", nil)
	if err != nil {
		t.Fatalf("Failed to send POST request: %v", err)
	}
	body, _ := io.ReadAll(response.Body)
	response.Body.Close()
	if response.StatusCode != http.StatusAccepted {
		t.Errorf("Expected status %d, got %d", http.StatusAccepted, response.StatusCode)
	}
	if string(body) != "Accepted" {
		t.Errorf("Expected body 'Accepted', got %q", body)
	}

	job, err := q.Remove()
	if err != nil {
		t.Fatalf("Expected a queued job, got %v", err)
	}
	if job.Trigger != queue.TriggerManual {
		t.Errorf("Expected manual trigger, got %q", job.Trigger)
	}
}

func TestRunHandlerQueueFull(t *testing.T) {
	q, _ := queue.CreateQueue(1)
	q.Insert(queue.Job{Trigger: queue.TriggerSchedule})
	server := httptest.NewServer(RunHandler(q))
	defer server.Close()

	response, err := http.Post(server.URL, "application/json", nil)
	if err != nil {
		t.Fatalf("Failed to send POST request: %v", err)
	}
	response.Body.Close()
	if response.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, response.StatusCode)
	}
}

func TestRunHandlerRejectsGet(t *testing.T) {
	q, _ := queue.CreateQueue(1)
	recorder := httptest.NewRecorder()
	RunHandler(q)(recorder, httptest.NewRequest(http.MethodGet, "/run", nil))

	if recorder.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status %d, got %d", http.StatusMethodNotAllowed, recorder.Code)
	}
	if !q.IsEmpty() {
		t.Errorf("Expected no job to be queued")
	}
}
