package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ruslanmv/jobcraft/internal/tracker"
)

func (d *Dependencies) handleListTrackedJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := d.Tracker.List()
	if err != nil {
		d.Logger.Error("listing tracked jobs", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	if jobs == nil {
		jobs = []tracker.Job{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (d *Dependencies) handleUpsertTrackedJob(w http.ResponseWriter, r *http.Request) {
	var job tracker.Job
	if err := decodeBody(r, &job); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := d.Tracker.Upsert(job); err != nil {
		if errors.Is(err, tracker.ErrInvalidJob) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		d.Logger.Error("upserting tracked job", zap.String("id", job.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to save job")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
