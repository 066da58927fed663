package services

import (
	"strings"
	"time"

	"travelkita_app/internal/models"
)

// PassengerInput is a partial passenger update. Nil fields are left
// untouched, so the UI can submit one field at a time or a whole form.
type PassengerInput struct {
	FirstName   *string              `json:"first_name,omitempty"`
	LastName    *string              `json:"last_name,omitempty"`
	DateOfBirth *time.Time           `json:"date_of_birth,omitempty"`
	Gender      *models.Gender       `json:"gender,omitempty"`
	Email       *string              `json:"email,omitempty"`
	Phone       *string              `json:"phone,omitempty"`
	Document    *TravelDocumentInput `json:"document,omitempty"`
}

// TravelDocumentInput is a partial passport-block update.
type TravelDocumentInput struct {
	PassportNumber *string    `json:"passport_number,omitempty"`
	Nationality    *string    `json:"nationality,omitempty"`
	IssuingCountry *string    `json:"issuing_country,omitempty"`
	IssuedAt       *time.Time `json:"issued_at,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	Birthplace     *string    `json:"birthplace,omitempty"`
}

// PassengerManager owns the ordered passenger records of one checkout
// session and applies the conditional completeness rules: contact details on
// the first record only, travel documents on international routes only.
type PassengerManager struct {
	records       []*models.PassengerRecord
	international bool
}

// NewPassengerManager seeds travelerCount empty records. The first record
// gets an empty contact block; every record gets an empty document block
// when the route is international. Block presence encodes requiredness.
func NewPassengerManager(travelerCount int, international bool) *PassengerManager {
	if travelerCount < 1 {
		travelerCount = 1
	}
	records := make([]*models.PassengerRecord, travelerCount)
	for i := range records {
		rec := &models.PassengerRecord{}
		if i == 0 {
			rec.Contact = &models.ContactInfo{}
		}
		if international {
			rec.Document = &models.TravelDocument{}
		}
		records[i] = rec
	}
	return &PassengerManager{records: records, international: international}
}

// WrapPassengers rebuilds a manager over records seeded earlier, e.g. when a
// session is picked up again on a later request.
func WrapPassengers(records []*models.PassengerRecord, international bool) *PassengerManager {
	return &PassengerManager{records: records, international: international}
}

// Records exposes the underlying slice; the manager retains ownership.
func (m *PassengerManager) Records() []*models.PassengerRecord {
	return m.records
}

// Count returns the number of traveler records.
func (m *PassengerManager) Count() int {
	return len(m.records)
}

// Update merges the partial input into record index. Name fields are
// normalized to uppercase on write. Returns an IndexError when index is out
// of range.
func (m *PassengerManager) Update(index int, in PassengerInput) error {
	if index < 0 || index >= len(m.records) {
		return &IndexError{Index: index, Length: len(m.records)}
	}
	rec := m.records[index]

	if in.FirstName != nil {
		rec.FirstName = strings.ToUpper(strings.TrimSpace(*in.FirstName))
	}
	if in.LastName != nil {
		rec.LastName = strings.ToUpper(strings.TrimSpace(*in.LastName))
	}
	if in.DateOfBirth != nil {
		dob := *in.DateOfBirth
		rec.DateOfBirth = &dob
	}
	if in.Gender != nil {
		rec.Gender = *in.Gender
	}

	// Contact fields are only writable on the primary record; elsewhere the
	// block does not exist and the input is ignored.
	if rec.Contact != nil {
		if in.Email != nil {
			rec.Contact.Email = strings.TrimSpace(*in.Email)
		}
		if in.Phone != nil {
			rec.Contact.Phone = strings.TrimSpace(*in.Phone)
		}
	}

	if rec.Document != nil && in.Document != nil {
		doc := in.Document
		if doc.PassportNumber != nil {
			rec.Document.PassportNumber = strings.ToUpper(strings.TrimSpace(*doc.PassportNumber))
		}
		if doc.Nationality != nil {
			rec.Document.Nationality = strings.TrimSpace(*doc.Nationality)
		}
		if doc.IssuingCountry != nil {
			rec.Document.IssuingCountry = strings.TrimSpace(*doc.IssuingCountry)
		}
		if doc.IssuedAt != nil {
			issued := *doc.IssuedAt
			rec.Document.IssuedAt = &issued
		}
		if doc.ExpiresAt != nil {
			expires := *doc.ExpiresAt
			rec.Document.ExpiresAt = &expires
		}
		if doc.Birthplace != nil {
			rec.Document.Birthplace = strings.TrimSpace(*doc.Birthplace)
		}
	}

	return nil
}

// IsComplete reports whether record index satisfies its completeness rules.
// Out-of-range indexes are simply incomplete.
func (m *PassengerManager) IsComplete(index int) bool {
	if index < 0 || index >= len(m.records) {
		return false
	}
	return m.records[index].Complete()
}

// MissingFields lists the unmet required fields of record index.
func (m *PassengerManager) MissingFields(index int) []string {
	if index < 0 || index >= len(m.records) {
		return nil
	}
	return m.records[index].MissingFields()
}

// AllComplete reports whether every record is complete.
func (m *PassengerManager) AllComplete() bool {
	for _, rec := range m.records {
		if !rec.Complete() {
			return false
		}
	}
	return true
}

// Advance validates record current and returns the next index. Moving
// forward past an incomplete record fails with a ValidationError naming the
// missing fields; moving past the last record returns the last index.
func (m *PassengerManager) Advance(current int) (int, error) {
	if current < 0 || current >= len(m.records) {
		return current, &IndexError{Index: current, Length: len(m.records)}
	}
	if missing := m.records[current].MissingFields(); len(missing) > 0 {
		return current, NewValidationError("passenger details are incomplete", missing...)
	}
	if current+1 >= len(m.records) {
		return current, nil
	}
	return current + 1, nil
}

// Retreat moves back one record; backward navigation is unconstrained.
func (m *PassengerManager) Retreat(current int) int {
	if current <= 0 {
		return 0
	}
	return current - 1
}
