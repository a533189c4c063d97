package model

// InsuranceDetails is collected by the insurance dialog.
type InsuranceDetails struct {
	Carrier         string `json:"carrier,omitempty"`
	InsuranceNumber string `json:"insurance_number,omitempty"`
}

// BookingDetails is collected by the booking dialog.
type BookingDetails struct {
	// TravelDate is the inspection day as YYYY-MM-DD.
	TravelDate  string `json:"travel_date,omitempty"`
	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`
}

// Complete reports whether every field has been collected.
func (b BookingDetails) Complete() bool {
	return b.TravelDate != "" && b.Origin != "" && b.Destination != ""
}
