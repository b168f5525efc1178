package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"explorer/internal/domain"
)

// keepAliveInterval paces SSE comments and status checks on an idle stream.
var keepAliveInterval = 5 * time.Second

func (a *App) ScrapersPage(w http.ResponseWriter, r *http.Request) {
	a.page(w, r, http.StatusOK, "scrapers", "Scrapers", "scrapers", scrapersView{Workers: a.Console.Workers()}, nil)
}

type workerStatusResponse struct {
	Worker string              `json:"worker"`
	Status domain.WorkerStatus `json:"status"`
}

func (a *App) ScraperStart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "worker")
	a.workerAction(w, id, a.Console.Start(r.Context(), id))
}

func (a *App) ScraperStop(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "worker")
	a.workerAction(w, id, a.Console.Stop(r.Context(), id))
}

func (a *App) workerAction(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownWorker):
		a.error(w, http.StatusNotFound, "unknown_worker", err.Error())
		return
	case errors.Is(err, domain.ErrWorkerBusy):
		a.error(w, http.StatusConflict, "worker_busy", err.Error())
		return
	case err != nil:
		a.error(w, http.StatusBadGateway, "upstream_error", err.Error())
		return
	}
	state, err := a.Console.Worker(id)
	if err != nil {
		a.error(w, http.StatusNotFound, "unknown_worker", err.Error())
		return
	}
	a.json(w, http.StatusOK, workerStatusResponse{Worker: id, Status: state.Status})
}

// ScraperLogs returns the buffered console of a worker as JSON.
func (a *App) ScraperLogs(w http.ResponseWriter, r *http.Request) {
	state, err := a.Console.Worker(chi.URLParam(r, "worker"))
	if err != nil {
		a.error(w, http.StatusNotFound, "unknown_worker", err.Error())
		return
	}
	a.json(w, http.StatusOK, state)
}

// ScraperEvents relays a worker console as server-sent events: a reset, the
// backlog, then live lines and status changes until the client leaves.
func (a *App) ScraperEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "worker")
	backlog, lines, cancel, err := a.Console.Subscribe(id)
	if err != nil {
		a.error(w, http.StatusNotFound, "unknown_worker", err.Error())
		return
	}
	defer cancel()

	rc := http.NewResponseController(w)
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	send := func(event, data string) error {
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
			return err
		}
		return rc.Flush()
	}
	sendLine := func(line domain.LogLine) error {
		raw, err := json.Marshal(line)
		if err != nil {
			return err
		}
		return send("log", string(raw))
	}

	if err := send("reset", "{}"); err != nil {
		return
	}
	for _, line := range backlog {
		if err := sendLine(line); err != nil {
			return
		}
	}
	status := a.workerStatus(id)
	if err := send("status", string(status)); err != nil {
		return
	}
	syncStatus := func() error {
		next := a.workerStatus(id)
		if next == status {
			return nil
		}
		status = next
		return send("status", string(status))
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if err := sendLine(line); err != nil {
				return
			}
			if err := syncStatus(); err != nil {
				return
			}
		case <-ticker.C:
			if err := syncStatus(); err != nil {
				return
			}
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func (a *App) workerStatus(id string) domain.WorkerStatus {
	state, err := a.Console.Worker(id)
	if err != nil {
		return domain.WorkerIdle
	}
	return state.Status
}
