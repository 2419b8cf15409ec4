package submission

import (
	"time"

	"kycdesk/internal/kyc/models"
	"kycdesk/pkg/platform/textutil"
)

// DefaultPerPage is the admin list page size.
const DefaultPerPage = 10

// Filter narrows a submission list. Zero fields match everything.
type Filter struct {
	Status       models.Status
	DocumentType models.DocumentType
	// Query matches case-insensitively against "first last" or the submission ID.
	Query string
}

// Apply returns the submissions matching every set criterion, order preserved.
func (f Filter) Apply(subs []*models.Submission) []*models.Submission {
	out := make([]*models.Submission, 0, len(subs))
	for _, s := range subs {
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if f.DocumentType != "" && s.PersonalInfo.DocumentType != f.DocumentType {
			continue
		}
		if !textutil.MatchAny(f.Query, s.PersonalInfo.FullName(), s.ID) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Page is one slice of a paginated list.
type Page struct {
	Items      []*models.Submission `json:"items"`
	Page       int                  `json:"page"`
	PerPage    int                  `json:"per_page"`
	Total      int                  `json:"total"`
	TotalPages int                  `json:"total_pages"`
}

// Paginate returns 1-based page of subs. Pages past the end are empty.
func Paginate(subs []*models.Submission, page, perPage int) Page {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page < 1 {
		page = 1
	}
	total := len(subs)
	totalPages := (total + perPage - 1) / perPage

	start := min((page-1)*perPage, total)
	end := min(start+perPage, total)
	return Page{
		Items:      subs[start:end],
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Stats summarizes a submission list for the dashboard.
type Stats struct {
	Total        int                   `json:"total"`
	ByStatus     map[models.Status]int `json:"by_status"`
	Today        int                   `json:"today"`
	AverageScore float64               `json:"average_score"`
}

// ComputeStats counts submissions per status and those submitted on now's UTC
// date, and averages the scores that are present. Absent scores are excluded;
// the average is 0 when no score exists.
func ComputeStats(subs []*models.Submission, now time.Time) Stats {
	st := Stats{Total: len(subs), ByStatus: make(map[models.Status]int, len(models.AllStatuses))}
	for _, s := range models.AllStatuses {
		st.ByStatus[s] = 0
	}

	y, m, d := now.UTC().Date()
	var sum float64
	var scored int
	for _, s := range subs {
		st.ByStatus[s.Status]++
		if sy, sm, sd := s.SubmittedAt.UTC().Date(); sy == y && sm == m && sd == d {
			st.Today++
		}
		if score, ok := s.Score(); ok {
			sum += score
			scored++
		}
	}
	if scored > 0 {
		st.AverageScore = sum / float64(scored)
	}
	return st
}

// FindDuplicates returns submissions whose case-insensitive "first last" name
// and document type both match info.
func FindDuplicates(subs []*models.Submission, info models.PersonalInfo) []*models.Submission {
	name := info.FullName()
	var out []*models.Submission
	for _, s := range subs {
		if s.PersonalInfo.DocumentType == info.DocumentType &&
			textutil.EqualFold(s.PersonalInfo.FullName(), name) {
			out = append(out, s)
		}
	}
	return out
}
