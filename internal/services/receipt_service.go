package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"travelkita_app/internal/models"
)

const receiptKeyPrefix = "receipt:"

// ReceiptService finalizes successful checkouts into immutable booking
// records. Every receipt is written twice: a relational row for trip history
// and a key-value snapshot under receipt:<reference> for the receipt viewer.
type ReceiptService struct {
	db    *gorm.DB
	cache *RedisCache
	email *EmailService
	brand string
}

func NewReceiptService(db *gorm.DB, cache *RedisCache, email *EmailService, brand string) *ReceiptService {
	return &ReceiptService{db: db, cache: cache, email: email, brand: brand}
}

// Finalize snapshots the session into a Booking. Only callable for a
// succeeded attempt; the attempt's booking reference becomes the receipt
// key. Idempotent per reference: a second call returns the stored record.
func (r *ReceiptService) Finalize(sess *models.BookingSession, attempt *models.PaymentAttempt) (*models.Booking, error) {
	if attempt == nil || attempt.Outcome != models.OutcomeSucceeded {
		return nil, ErrAttemptNotSucceeded
	}

	if r.db != nil {
		var existing models.Booking
		err := r.db.Where("reference = ?", attempt.BookingRef).First(&existing).Error
		if err == nil {
			return &existing, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}

	booking := buildBooking(sess, attempt)

	if r.db != nil {
		if err := r.db.Create(booking).Error; err != nil {
			return nil, fmt.Errorf("failed to persist booking %s: %w", booking.Reference, err)
		}
	}

	if r.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.cache.Set(ctx, receiptKeyPrefix+booking.Reference, booking, 0); err != nil {
			log.Printf("Failed to cache receipt %s: %v", booking.Reference, err)
		}
	}

	r.sendConfirmation(booking)

	return booking, nil
}

// ByReference looks a receipt up, key-value store first, then the database.
func (r *ReceiptService) ByReference(ctx context.Context, reference string) (*models.Booking, error) {
	if r.cache != nil {
		var booking models.Booking
		if err := r.cache.Get(ctx, receiptKeyPrefix+reference, &booking); err == nil {
			return &booking, nil
		}
	}
	if r.db == nil {
		return nil, gorm.ErrRecordNotFound
	}
	var booking models.Booking
	if err := r.db.Where("reference = ?", reference).First(&booking).Error; err != nil {
		return nil, err
	}
	if r.cache != nil {
		_ = r.cache.Set(ctx, receiptKeyPrefix+reference, booking, 0)
	}
	return &booking, nil
}

// History lists a user's bookings, newest first, for the trip-history view.
func (r *ReceiptService) History(userID uint) ([]models.Booking, error) {
	if r.db == nil {
		return nil, nil
	}
	var bookings []models.Booking
	err := r.db.Where("user_id = ?", userID).Order("issued_at desc").Find(&bookings).Error
	return bookings, err
}

// ReferenceTaken reports whether a booking reference already exists.
func (r *ReceiptService) ReferenceTaken(reference string) bool {
	if r.db == nil {
		return false
	}
	var count int64
	r.db.Model(&models.Booking{}).Where("reference = ?", reference).Count(&count)
	return count > 0
}

func (r *ReceiptService) sendConfirmation(booking *models.Booking) {
	if r.email == nil || !r.email.Configured() || booking.ContactEmail == "" {
		return
	}
	subject := fmt.Sprintf("%s booking confirmed: %s", r.brand, booking.Reference)
	body := fmt.Sprintf(
		"Your booking is confirmed.\n\nReference: %s\n%s\nTotal: %s %.2f\n\nThank you for booking with %s.",
		booking.Reference, booking.Title, booking.Currency, booking.GrandTotal, r.brand)
	if err := r.email.SendEmail([]string{booking.ContactEmail}, subject, body); err != nil {
		log.Printf("Failed to send confirmation for %s: %v", booking.Reference, err)
	}
}

func buildBooking(sess *models.BookingSession, attempt *models.PaymentAttempt) *models.Booking {
	summaries := make([]models.PassengerSummary, 0, len(sess.Passengers))
	for _, p := range sess.Passengers {
		summary := models.PassengerSummary{FullName: p.FullName(), Gender: p.Gender}
		if p.DateOfBirth != nil {
			summary.DateOfBirth = p.DateOfBirth.Format("2006-01-02")
		}
		summaries = append(summaries, summary)
	}

	contactEmail := sess.UserEmail
	if sess.GuestContact != nil {
		contactEmail = sess.GuestContact.Email
	} else if len(sess.Passengers) > 0 && sess.Passengers[0].Contact != nil && sess.Passengers[0].Contact.Email != "" {
		contactEmail = sess.Passengers[0].Contact.Email
	}

	// Guest bookings carry no account reference at all; a zero id would
	// violate the foreign key to users.
	var userID *uint
	if sess.UserID != 0 {
		uid := sess.UserID
		userID = &uid
	}

	return &models.Booking{
		Reference:      attempt.BookingRef,
		UserID:         userID,
		Category:       sess.Offer.Category,
		Title:          sess.Offer.Title,
		Origin:         sess.Search.Origin,
		Destination:    sess.Search.Destination,
		DepartureDate:  sess.Search.DepartureDate,
		ReturnDate:     sess.Search.ReturnDate,
		Passengers:     summaries,
		ContactEmail:   contactEmail,
		BaseTotal:      sess.Pricing.Base,
		InsuranceTotal: sess.Pricing.Insurance,
		GrandTotal:     sess.Pricing.Total,
		Currency:       attempt.Currency,
		Insurance:      sess.Insurance,
		PaymentGateway: models.GatewayForStrategy(attempt.StrategyID),
		OrderID:        attempt.OrderID,
		IssuedAt:       time.Now(),
	}
}
