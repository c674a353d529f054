package offers

// Offer is a loan offer record from the catalog. minEligibilityScore gates
// which users see the offer on their dashboard.
type Offer struct {
	Id                  string  `json:"id"`
	Title               string  `json:"title"`
	MinAmount           int     `json:"minAmount"`
	MaxAmount           int     `json:"maxAmount"`
	InterestRate        float64 `json:"interestRate"`
	TenureMonths        int     `json:"tenureMonths"`
	MinEligibilityScore int     `json:"minEligibilityScore"`
	Description         string  `json:"description"`
	Status              string  `json:"status"`
	PublicLink          string  `json:"publicLink"`
}

// Eligible filters the catalog down to offers whose eligibility threshold
// the given confidence score meets. The backend serves the full catalog;
// this gating happens client-side.
func Eligible(catalog []Offer, confidenceScore int) []Offer {
	eligible := make([]Offer, 0, len(catalog))
	for _, offer := range catalog {
		if offer.MinEligibilityScore <= confidenceScore {
			eligible = append(eligible, offer)
		}
	}
	return eligible
}
