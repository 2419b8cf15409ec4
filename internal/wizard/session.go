package wizard

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"kycdesk/internal/kyc/models"
)

// session is one applicant's wizard. All fields are guarded by mu.
type session struct {
	mu           sync.Mutex
	id           string
	stage        Stage
	draft        models.KycData
	failed       bool
	notice       string
	verifying    bool
	submissionID string
	updatedAt    time.Time
}

// State is the client-facing view of a wizard. Image payloads are reported as
// presence flags; Export returns them in full.
type State struct {
	ID                 string                     `json:"id"`
	Stage              Stage                      `json:"stage"`
	PersonalInfo       models.PersonalInfo        `json:"personal_info"`
	HasIDFront         bool                       `json:"has_id_front"`
	HasIDBack          bool                       `json:"has_id_back"`
	HasFacialImage     bool                       `json:"has_facial_image"`
	VerificationResult *models.VerificationResult `json:"verification_result,omitempty"`
	Failed             bool                       `json:"failed"`
	Notice             string                     `json:"notice,omitempty"`
	Verifying          bool                       `json:"verifying"`
	SubmissionID       string                     `json:"submission_id,omitempty"`
	UpdatedAt          time.Time                  `json:"updated_at"`
}

// snapshot must be called with mu held.
func (s *session) snapshot() *State {
	st := &State{
		ID:             s.id,
		Stage:          s.stage,
		PersonalInfo:   s.draft.PersonalInfo,
		HasIDFront:     s.draft.IDFrontImage != "",
		HasIDBack:      s.draft.IDBackImage != "",
		HasFacialImage: s.draft.FacialImage != "",
		Failed:         s.failed,
		Notice:         s.notice,
		Verifying:      s.verifying,
		SubmissionID:   s.submissionID,
		UpdatedAt:      s.updatedAt,
	}
	if s.draft.VerificationResult != nil {
		vr := *s.draft.VerificationResult
		st.VerificationResult = &vr
	}
	return st
}

// reset returns the wizard to its first stage with an empty draft.
func (s *session) reset(now time.Time) {
	s.stage = StagePersonalInfo
	s.draft = models.KycData{}
	s.failed = false
	s.notice = ""
	s.submissionID = ""
	s.updatedAt = now
}

// registry holds live sessions in memory. Idle sessions expire after the TTL;
// the oldest are evicted once the size bound is reached.
type registry struct {
	mu       sync.Mutex
	sessions *expirable.LRU[string, *session]
}

func newRegistry(size int, ttl time.Duration) *registry {
	return &registry{sessions: expirable.NewLRU[string, *session](size, nil, ttl)}
}

func (r *registry) get(id string) (*session, bool) {
	return r.sessions.Get(id)
}

// put stores or refreshes a session, restarting its idle timer.
func (r *registry) put(s *session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions.Add(s.id, s)
}

// adopt stores s unless a session with its ID is already live, in which case
// the live one is returned. Concurrent resumes therefore share one session.
func (r *registry) adopt(s *session) (*session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if live, ok := r.sessions.Get(s.id); ok {
		return live, false
	}
	r.sessions.Add(s.id, s)
	return s, true
}

func (r *registry) len() int {
	return r.sessions.Len()
}
