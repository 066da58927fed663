package models

import "time"

// Gender values accepted on a passenger record
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ContactInfo is the contact block collected for the primary passenger
// (and for guest checkout).
type ContactInfo struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// TravelDocument is the passport block required on international routes.
type TravelDocument struct {
	PassportNumber string     `json:"passport_number"`
	Nationality    string     `json:"nationality"`
	IssuingCountry string     `json:"issuing_country"`
	IssuedAt       *time.Time `json:"issued_at,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	Birthplace     string     `json:"birthplace"`
}

// PassengerRecord is one traveler in a checkout session. The Contact and
// Document pointers are non-nil exactly when the corresponding block is
// required: Contact on the first record, Document on international routes.
// Requiredness is therefore carried by the shape of the record itself.
type PassengerRecord struct {
	FirstName   string          `json:"first_name"`
	LastName    string          `json:"last_name"`
	DateOfBirth *time.Time      `json:"date_of_birth,omitempty"`
	Gender      Gender          `json:"gender"`
	Contact     *ContactInfo    `json:"contact,omitempty"`
	Document    *TravelDocument `json:"document,omitempty"`
}

// FullName returns "FIRST LAST"; names are stored uppercased.
func (p *PassengerRecord) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// MissingFields lists the required fields not yet populated. Blocks are
// only inspected when their pointer is present, so a domestic passenger
// never reports passport fields and a non-primary passenger never reports
// contact fields.
func (p *PassengerRecord) MissingFields() []string {
	var missing []string
	if p.FirstName == "" {
		missing = append(missing, "first_name")
	}
	if p.LastName == "" {
		missing = append(missing, "last_name")
	}
	if p.DateOfBirth == nil {
		missing = append(missing, "date_of_birth")
	}
	if p.Gender == "" {
		missing = append(missing, "gender")
	}
	if p.Contact != nil {
		if p.Contact.Email == "" {
			missing = append(missing, "email")
		}
		if p.Contact.Phone == "" {
			missing = append(missing, "phone")
		}
	}
	if p.Document != nil {
		if p.Document.PassportNumber == "" {
			missing = append(missing, "passport_number")
		}
		if p.Document.Nationality == "" {
			missing = append(missing, "nationality")
		}
		if p.Document.IssuingCountry == "" {
			missing = append(missing, "issuing_country")
		}
		if p.Document.IssuedAt == nil {
			missing = append(missing, "issued_at")
		}
		if p.Document.ExpiresAt == nil {
			missing = append(missing, "expires_at")
		}
		if p.Document.Birthplace == "" {
			missing = append(missing, "birthplace")
		}
	}
	return missing
}

// Complete reports whether every required field of this record is set.
func (p *PassengerRecord) Complete() bool {
	return len(p.MissingFields()) == 0
}
