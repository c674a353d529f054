package applications

import (
	"strconv"
	"time"

	"github.com/kamai-suraksha/frontend/internal/offers"
)

// Application is a loan application as submitted to and returned by the
// backend. Amounts and rates travel as strings on the wire.
type Application struct {
	NbfcPartner     string `json:"nbfc_partner"`
	LoanAmount      string `json:"loan_amount"`
	InterestRate    string `json:"interest_rate"`
	TenureMonths    string `json:"tenure_months"`
	Status          string `json:"status"`
	LoanName        string `json:"loanName"`
	RequestedAmount string `json:"requestedAmount"`
	Date            string `json:"date"`
}

// NewFromOffer builds the pending application submitted when a user
// applies for an offer from the dashboard.
func NewFromOffer(offer offers.Offer, requestedAmount int) Application {
	amount := strconv.Itoa(requestedAmount)
	return Application{
		NbfcPartner:     offer.Title,
		LoanAmount:      amount,
		InterestRate:    strconv.FormatFloat(offer.InterestRate, 'f', -1, 64),
		TenureMonths:    strconv.Itoa(offer.TenureMonths),
		Status:          "Pending",
		LoanName:        offer.Title,
		RequestedAmount: amount,
		Date:            time.Now().UTC().Format(time.RFC3339),
	}
}
