package domain

import "strings"

type Profile struct {
	ID          string `json:"id"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Mobile      string `json:"mobile,omitempty"`
	SecondPhone string `json:"second_phone,omitempty"`
	Street      string `json:"street"`
	City        string `json:"city"`
	Area        string `json:"area"`
	State       string `json:"state,omitempty"`
	ZipCode     string `json:"zip_code"`
	Country     string `json:"country,omitempty"`
}

// RequiredProfileFields must all be non-blank before checkout may proceed.
var RequiredProfileFields = []string{"email", "street", "city", "area", "zipCode"}

// MissingFields lists the required fields that are empty or whitespace.
func (p Profile) MissingFields() []string {
	values := map[string]string{
		"email":   p.Email,
		"street":  p.Street,
		"city":    p.City,
		"area":    p.Area,
		"zipCode": p.ZipCode,
	}
	var missing []string
	for _, f := range RequiredProfileFields {
		if strings.TrimSpace(values[f]) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

func (p Profile) Complete() bool {
	return len(p.MissingFields()) == 0
}

func (p Profile) Phone() string {
	if p.Mobile != "" {
		return p.Mobile
	}
	return p.SecondPhone
}

// Shipping is the address snapshot sent with an order.
func (p Profile) Shipping() Address {
	state := p.State
	if state == "" {
		state = p.Area
	}
	return Address{
		Name:    p.FullName,
		Email:   p.Email,
		Phone:   p.Phone(),
		Address: p.Street,
		City:    p.City,
		State:   state,
		Zip:     p.ZipCode,
		Country: strings.ToUpper(p.Country),
	}
}

func (p Profile) Contact() Contact {
	return Contact{Name: p.FullName, Email: p.Email, Phone: p.Phone()}
}

// ProfileUpdate carries the editable profile fields; nil means unchanged.
type ProfileUpdate struct {
	FullName    *string `json:"full_name,omitempty"`
	Mobile      *string `json:"mobile,omitempty"`
	SecondPhone *string `json:"second_phone,omitempty"`
	Street      *string `json:"street,omitempty"`
	City        *string `json:"city,omitempty"`
	Area        *string `json:"area,omitempty"`
	State       *string `json:"state,omitempty"`
	ZipCode     *string `json:"zip_code,omitempty"`
	Country     *string `json:"country,omitempty"`
}
