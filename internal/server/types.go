package server

import (
	"github.com/kamai-suraksha/frontend/internal/handoff"
	"github.com/kamai-suraksha/frontend/internal/profile"
)

// StateResponse is what GET /api/state returns: the handoff state, the
// route the view should show, the derived session snapshot, and any
// user-visible error banner text.
type StateResponse struct {
	State      handoff.State    `json:"state"`
	NavigateTo string           `json:"navigateTo,omitempty"`
	Error      string           `json:"error,omitempty"`
	Session    handoff.Snapshot `json:"session"`
}

// OnboardingRequest carries the filled onboarding form.
type OnboardingRequest struct {
	FullName          string   `json:"full_name"`
	PhoneNumber       string   `json:"phone_number"`
	EmailId           string   `json:"email_id"`
	Dob               string   `json:"dob"`
	Gender            string   `json:"gender"`
	Address           string   `json:"address"`
	City              string   `json:"city"`
	AadhaarNumber     string   `json:"aadhaar_number"`
	PanNumber         string   `json:"pan_number"`
	GigPlatforms      []string `json:"gig_platform"`
	WorkType          string   `json:"work_type"`
	WorkTenureMonths  string   `json:"work_tenure_months"`
	MonthlyIncome     string   `json:"monthly_income"`
	BankAccountLinked string   `json:"bank_account_linked"`
}

func (r *OnboardingRequest) toProfile(current handoff.Snapshot) *profile.Profile {
	p := &profile.Profile{
		FullName:          r.FullName,
		PhoneNumber:       r.PhoneNumber,
		EmailId:           r.EmailId,
		Dob:               r.Dob,
		Gender:            r.Gender,
		Address:           r.Address,
		City:              r.City,
		AadhaarNumber:     r.AadhaarNumber,
		PanNumber:         r.PanNumber,
		GigPlatforms:      r.GigPlatforms,
		WorkType:          r.WorkType,
		WorkTenureMonths:  r.WorkTenureMonths,
		MonthlyIncome:     r.MonthlyIncome,
		BankAccountLinked: r.BankAccountLinked,
	}
	// The admin flag, score and worker ID are server-assigned; carry over
	// whatever the session already knows rather than trusting the form.
	p.Admin = current.Admin
	p.ConfidenceScore = current.ConfidenceScore
	if current.Profile != nil {
		p.WorkerId = current.Profile.WorkerId
	}
	return p
}
