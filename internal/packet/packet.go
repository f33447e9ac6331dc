// Package packet drafts application materials for one job: rewritten resume
// bullets, a cover letter, screening answers and a submission checklist. The
// output is advice in Markdown; the user reviews it and submits themselves.
package packet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// systemPrompt states the assistant's operating rules. They hold regardless
// of which backend drafts the packet.
const systemPrompt = `You are JobCraft Copilot.
Rules:
- You do NOT submit applications.
- You only prepare materials, checklists, and safe guidance.
- You avoid scraping restricted platforms (LinkedIn/Indeed).
- You localize tone and spelling for Europe/UK when appropriate.
`

// Chatter is the slice of the LLM router the builder needs.
type Chatter interface {
	Chat(ctx context.Context, provider, system, user string) (string, error)
}

// Request describes one drafting job.
type Request struct {
	Provider       string
	ProfileText    string
	JobTitle       string
	Company        string
	JobDescription string
	Country        string
}

// Result holds the drafted packet.
type Result struct {
	Markdown string `json:"packet_markdown"`
}

// Builder turns a request into a drafted packet via the configured backend.
type Builder struct {
	chatter Chatter
	logger  *zap.Logger
}

func NewBuilder(chatter Chatter, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{chatter: chatter, logger: logger}
}

// Draft builds the prompts and asks the backend for the packet.
func (b *Builder) Draft(ctx context.Context, req Request) (Result, error) {
	user := buildUserPrompt(req)

	b.logger.Debug("drafting application packet",
		zap.String("company", req.Company),
		zap.String("title", req.JobTitle),
	)

	text, err := b.chatter.Chat(ctx, req.Provider, systemPrompt, user)
	if err != nil {
		return Result{}, fmt.Errorf("drafting packet: %w", err)
	}
	return Result{Markdown: text}, nil
}

func buildUserPrompt(req Request) string {
	localeHint := "Use clear international English suitable for Europe."
	switch strings.ToUpper(req.Country) {
	case "GB", "UK":
		localeHint = "Use UK English spelling."
	}

	region := req.Country
	if region == "" {
		region = "Europe (IT/DE/GB/CH)"
	}

	return fmt.Sprintf(`Create a tailored application packet.

%s

Candidate profile (raw CV text):
---
%s
---

Target role:
- Title: %s
- Company: %s
- Region/Country preference: %s

Job description:
---
%s
---

Deliverables (Markdown, with headings):
1) Resume bullet rewrites (6-10, impact-focused, quantifiable).
2) Cover letter (<= 1 page).
3) Suggested answers to screening questions (3-6).
4) Submission checklist (fields to double-check; remind user must review and click submit).

Avoid exaggerations or unverifiable claims.
`, localeHint, req.ProfileText, req.JobTitle, req.Company, region, req.JobDescription)
}

// SaveUpload writes an uploaded CV to the data directory under a unique
// name and returns the path. The caller removes the file when done.
func SaveUpload(dataDir, filename string, data []byte) (string, error) {
	name := fmt.Sprintf("cv_%s_%s", uuid.New().String(), filepath.Base(filename))
	path := filepath.Join(dataDir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("saving upload: %w", err)
	}
	return path, nil
}
