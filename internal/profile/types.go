package profile

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Profile is the onboarding record for a gig worker: identity attributes,
// work attributes, the server-assigned worker identifier, the admin flag
// and the backend-computed confidence score. The backend owns it; the
// client holds a cached, locally-editable copy while the onboarding form
// is active.
type Profile struct {
	WorkerId          string
	FullName          string
	PhoneNumber       string
	EmailId           string
	Dob               string
	Gender            string
	Address           string
	City              string
	AadhaarNumber     string
	PanNumber         string
	GigPlatforms      []string
	WorkType          string
	WorkTenureMonths  string
	MonthlyIncome     string
	BankAccountLinked string
	Admin             bool
	ConfidenceScore   int
}

// OnboardingComplete reports whether this profile represents a user who
// has actually filled in the onboarding form, as opposed to the empty or
// "N/A"-placeholder record created at first login.
func (p *Profile) OnboardingComplete() bool {
	name := strings.TrimSpace(p.FullName)
	return name != "" && strings.ToLower(name) != "n/a"
}

// SavePayload flattens the profile into the shape the backend expects on a
// POST: gig platforms joined with ", ", the admin flag stringified, and
// the worker ID sent as "UserID".
func (p *Profile) SavePayload() map[string]string {
	payload := p.flatten()
	if p.WorkerId != "" {
		payload["UserID"] = p.WorkerId
	}
	return payload
}

// ExchangePayload is the variant submitted alongside a deferred code
// exchange; the backend assigns the worker ID itself, so none is sent.
func (p *Profile) ExchangePayload() map[string]string {
	return p.flatten()
}

func (p *Profile) flatten() map[string]string {
	return map[string]string{
		"full_name":           p.FullName,
		"phone_number":        p.PhoneNumber,
		"email_id":            p.EmailId,
		"dob":                 p.Dob,
		"gender":              p.Gender,
		"address":             p.Address,
		"city":                p.City,
		"aadhaar_number":      p.AadhaarNumber,
		"pan_number":          p.PanNumber,
		"gig_platform":        strings.Join(p.GigPlatforms, ", "),
		"work_type":           p.WorkType,
		"work_tenure_months":  p.WorkTenureMonths,
		"monthly_income":      p.MonthlyIncome,
		"bank_account_linked": p.BankAccountLinked,
		"admin":               strconv.FormatBool(p.Admin),
	}
}

// userDataResponse matches the backend's GET /userdata payload. The
// backend is loose about casing and types on a couple of fields, so both
// variants are accepted here.
type userDataResponse struct {
	UserId            string          `json:"user_id"`
	FullName          string          `json:"full_name"`
	PhoneNumber       string          `json:"phone_number"`
	EmailId           string          `json:"email_id"`
	Dob               string          `json:"dob"`
	Gender            string          `json:"gender"`
	Address           string          `json:"address"`
	City              string          `json:"city"`
	AadhaarNumber     string          `json:"aadhaar_number"`
	PanNumber         string          `json:"pan_number"`
	GigPlatform       string          `json:"gig_platform"`
	WorkType          string          `json:"work_type"`
	WorkTenureMonths  string          `json:"work_tenure_months"`
	MonthlyIncome     string          `json:"monthly_income"`
	BankAccountLinked string          `json:"bank_account_linked"`
	Admin             json.RawMessage `json:"admin"`
	AdminUpper        json.RawMessage `json:"Admin"`
	ConfidenceScore   json.RawMessage `json:"ConfidenceScore"`
	ConfidenceLower   json.RawMessage `json:"confidence_score"`
}

func (r *userDataResponse) toProfile() *Profile {
	p := &Profile{
		WorkerId:          r.UserId,
		FullName:          cleanValue(r.FullName),
		PhoneNumber:       cleanValue(r.PhoneNumber),
		EmailId:           cleanValue(r.EmailId),
		Dob:               cleanValue(r.Dob),
		Gender:            cleanValue(r.Gender),
		Address:           cleanValue(r.Address),
		City:              cleanValue(r.City),
		AadhaarNumber:     cleanValue(r.AadhaarNumber),
		PanNumber:         cleanValue(r.PanNumber),
		WorkType:          cleanValue(r.WorkType),
		WorkTenureMonths:  cleanValue(r.WorkTenureMonths),
		MonthlyIncome:     cleanValue(r.MonthlyIncome),
		BankAccountLinked: cleanValue(r.BankAccountLinked),
		Admin:             parseAdminFlag(r.Admin) || parseAdminFlag(r.AdminUpper),
		ConfidenceScore:   parseScore(r.ConfidenceScore, r.ConfidenceLower),
	}
	if platforms := cleanValue(r.GigPlatform); platforms != "" {
		for _, s := range strings.Split(platforms, ",") {
			p.GigPlatforms = append(p.GigPlatforms, strings.TrimSpace(s))
		}
	}
	return p
}

// cleanValue normalizes the backend's "N/A" placeholder to an empty string.
func cleanValue(value string) string {
	if strings.TrimSpace(value) == "" || value == "N/A" {
		return ""
	}
	return value
}

// parseAdminFlag accepts the admin flag as either a JSON bool or the
// string "true".
func parseAdminFlag(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s == "true"
	}
	return false
}

// parseScore accepts the confidence score as a JSON number or a numeric
// string, under either field name.
func parseScore(candidates ...json.RawMessage) int {
	for _, raw := range candidates {
		if len(raw) == 0 {
			continue
		}
		var n int
		if err := json.Unmarshal(raw, &n); err == nil {
			return n
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if n, err := strconv.Atoi(s); err == nil {
				return n
			}
		}
	}
	return 0
}
