package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an authenticated account. Guest checkouts produce bookings with a
// zero UserID; signed-in checkouts attach the booking to the account so it
// shows up in trip history.
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	FirebaseUID string `gorm:"type:varchar(128);uniqueIndex" json:"firebase_uid"`
	Name        string `gorm:"type:varchar(255)" json:"name"`
	Phone       string `gorm:"type:varchar(50)" json:"phone"`
	Email       string `gorm:"type:varchar(255);uniqueIndex" json:"email"`

	Bookings []Booking `gorm:"foreignKey:UserID" json:"bookings,omitempty"`
}
