package httpapi

import (
	"errors"
	"io"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/ruslanmv/jobcraft/internal/cvtext"
	"github.com/ruslanmv/jobcraft/internal/digest"
	"github.com/ruslanmv/jobcraft/internal/packet"
)

// maxUploadBytes bounds CV uploads.
const maxUploadBytes = 10 << 20

func (d *Dependencies) handleEmailDigest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ToEmail string `json:"to_email"`
		Subject string `json:"subject"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ToEmail == "" {
		respondError(w, http.StatusBadRequest, "to_email is required")
		return
	}

	jobs, err := d.Tracker.List()
	if err != nil {
		d.Logger.Error("listing jobs for digest", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to read tracked jobs")
		return
	}

	body := digest.Render(jobs)
	if err := d.Digest.Send(r.Context(), req.ToEmail, req.Subject, body); err != nil {
		if errors.Is(err, digest.ErrNotConfigured) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		d.Logger.Error("sending digest", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"sent": true})
}

func (d *Dependencies) handleCreatePacket(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	jobTitle := r.FormValue("job_title")
	company := r.FormValue("company")
	jobDescription := r.FormValue("job_description")
	if jobTitle == "" || company == "" || jobDescription == "" {
		respondError(w, http.StatusBadRequest, "job_title, company and job_description are required")
		return
	}

	country := r.FormValue("country")
	if country == "" {
		country = "IT"
	}

	file, header, err := r.FormFile("cv_file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "cv_file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "reading cv_file")
		return
	}

	path, err := packet.SaveUpload(d.Settings.DataDir, header.Filename, data)
	if err != nil {
		d.Logger.Error("saving cv upload", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	defer os.Remove(path)

	profileText, err := cvtext.Extract(path)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := d.Packets.Draft(r.Context(), packet.Request{
		Provider:       r.FormValue("provider"),
		ProfileText:    profileText,
		JobTitle:       jobTitle,
		Company:        company,
		JobDescription: jobDescription,
		Country:        country,
	})
	if err != nil {
		d.Logger.Error("drafting packet", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (d *Dependencies) handleAssistOpen(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := d.Assist.Open(req.URL); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "opened"})
}
