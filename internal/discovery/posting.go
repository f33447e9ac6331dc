package discovery

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// JobPosting is the normalized shape every connector reduces to.
type JobPosting struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"`
	PostedAt    string `json:"posted_at,omitempty"`
	Country     string `json:"country,omitempty"`
}

type greenhouseJob struct {
	ID          any    `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	AbsoluteURL string `json:"absolute_url"`
	URL         string `json:"url"`
	UpdatedAt   string `json:"updated_at"`
	CreatedAt   string `json:"created_at"`
	Location    struct {
		Name string `json:"name"`
	} `json:"location"`
}

type leverPosting struct {
	ID               string `json:"id"`
	Text             string `json:"text"`
	HostedURL        string `json:"hostedUrl"`
	ApplyURL         string `json:"applyUrl"`
	DescriptionPlain string `json:"descriptionPlain"`
	CreatedAt        any    `json:"createdAt"`
	Categories       struct {
		Location string `json:"location"`
	} `json:"categories"`
}

func fromGreenhouse(j greenhouseJob) JobPosting {
	url := j.AbsoluteURL
	if url == "" {
		url = j.URL
	}
	posted := j.UpdatedAt
	if posted == "" {
		posted = j.CreatedAt
	}
	return JobPosting{
		ID:       stringID(j.ID),
		Title:    j.Title,
		Company:  j.Company,
		Location: j.Location.Name,
		URL:      url,
		Source:   "greenhouse",
		PostedAt: posted,
	}
}

func fromLever(j leverPosting, company string) JobPosting {
	id := j.ID
	for _, fallback := range []string{j.Text, j.HostedURL, j.ApplyURL, "lever"} {
		if id != "" {
			break
		}
		id = fallback
	}
	url := j.HostedURL
	if url == "" {
		url = j.ApplyURL
	}
	return JobPosting{
		ID:          id,
		Title:       j.Text,
		Company:     company,
		Location:    j.Categories.Location,
		URL:         url,
		Description: j.DescriptionPlain,
		Source:      "lever",
		PostedAt:    stringID(j.CreatedAt),
	}
}

// filterByCountry keeps postings whose location mentions one of the wanted
// country codes. Postings without a location survive the filter so remote
// roles are not silently dropped.
func filterByCountry(postings []JobPosting, countries []string) []JobPosting {
	if len(countries) == 0 {
		return postings
	}

	out := make([]JobPosting, 0, len(postings))
	for _, jp := range postings {
		loc := strings.ToUpper(jp.Location)
		if loc == "" {
			out = append(out, jp)
			continue
		}
		for _, c := range countries {
			if strings.Contains(loc, c) {
				out = append(out, jp)
				break
			}
		}
	}
	return out
}

// stringID renders the wire-format id, which boards send as either a JSON
// number or a string.
func stringID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case json.Number:
		return id.String()
	default:
		return fmt.Sprintf("%v", id)
	}
}
