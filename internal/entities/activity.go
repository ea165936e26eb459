package entities

import "strconv"

// Activity is one bookable quest offering.
type Activity struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	PricePerPerson int    `json:"price_per_person"`
	// EveningPrice applies from EveningFrom (an hour label like "21:00")
	// through closing.
	EveningPrice int    `json:"evening_price,omitempty"`
	EveningFrom  string `json:"evening_from,omitempty"`
}

// Catalog is the venue's fixed activity list. The venue hosts one
// activity at a time, so these share a single slot grid.
func Catalog() []Activity {
	return []Activity{
		{ID: "danger", Name: "Danger Zone", PricePerPerson: 1000, EveningPrice: 1200, EveningFrom: "21:00"},
		{ID: "artifact", Name: "Artifact Hunt", PricePerPerson: 1000, EveningPrice: 1200, EveningFrom: "21:00"},
	}
}

// ActivityByID looks up the catalog; ok is false for freeform quest ids
// not in the fixed list.
func ActivityByID(id string) (Activity, bool) {
	for _, a := range Catalog() {
		if a.ID == id {
			return a, true
		}
	}
	return Activity{}, false
}

// PriceFor returns the per-person price for a slot label, applying the
// evening rate when the slot's hour reaches EveningFrom.
func (a Activity) PriceFor(slot string) int {
	if a.EveningPrice == 0 || a.EveningFrom == "" || len(slot) < 2 {
		return a.PricePerPerson
	}
	hour, err := strconv.Atoi(slot[:2])
	if err != nil {
		return a.PricePerPerson
	}
	from, err := strconv.Atoi(a.EveningFrom[:2])
	if err != nil {
		return a.PricePerPerson
	}
	if hour >= from {
		return a.EveningPrice
	}
	return a.PricePerPerson
}
