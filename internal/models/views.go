package models

import "encoding/json"

// Views are the JSON shapes returned when references are populated. The
// outer fields shadow the embedded ids of the same JSON name.

type BookingView struct {
	PoojaBooking
	User  *UserSummary `json:"user"`
	Pooja *Pooja       `json:"pooja"`
}

type OrderItemView struct {
	OrderItem
	Product *Product `json:"product"`
}

type OrderView struct {
	Order
	User    *UserSummary    `json:"user"`
	Items   []OrderItemView `json:"items"`
	Actions []OrderStatus   `json:"actions"`
}

// MarshalJSON writes a summary that carries only an id as the bare id, the
// shape of an unpopulated reference.
func (u UserSummary) MarshalJSON() ([]byte, error) {
	if u.Name == "" && u.Email == "" {
		return json.Marshal(u.ID)
	}
	type summary UserSummary
	return json.Marshal(summary(u))
}

func (u *UserSummary) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		*u = UserSummary{}
		return json.Unmarshal(b, &u.ID)
	}
	type summary UserSummary
	return json.Unmarshal(b, (*summary)(u))
}
