package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ruslanmv/jobcraft/internal/discovery"
	"github.com/ruslanmv/jobcraft/internal/safety"
)

func (d *Dependencies) handleDiscoverGreenhouse(w http.ResponseWriter, r *http.Request) {
	board := r.PathValue("board")
	countries := d.requestCountries(r)

	jobs, err := d.Discovery.Greenhouse(r.Context(), board, countries)
	if err != nil {
		d.Logger.Error("greenhouse discovery failed", zap.String("board", board), zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJobs(w, jobs)
}

func (d *Dependencies) handleDiscoverLever(w http.ResponseWriter, r *http.Request) {
	company := r.PathValue("company")
	countries := d.requestCountries(r)

	jobs, err := d.Discovery.Lever(r.Context(), company, countries)
	if err != nil {
		d.Logger.Error("lever discovery failed", zap.String("company", company), zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJobs(w, jobs)
}

// requestCountries reads the countries query parameter, falling back to the
// configured default set.
func (d *Dependencies) requestCountries(r *http.Request) []string {
	csv := r.URL.Query().Get("countries")
	if csv == "" {
		csv = d.Settings.DefaultCountries
	}
	return safety.ParseCountries(csv)
}

func respondJobs(w http.ResponseWriter, jobs []discovery.JobPosting) {
	if jobs == nil {
		jobs = []discovery.JobPosting{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}
