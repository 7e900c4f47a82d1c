// internal/app/features/contact/form.go
package contact

import (
	"net/http"
	"strings"

	"github.com/copperowls/website/internal/delivery"
)

// Form is the booking inquiry as submitted. The Website field is the
// honeypot: it is rendered hidden, humans never fill it, and a non-empty
// value marks the submission as automated.
type Form struct {
	Name      string `json:"name" validate:"required,min=2,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
	EventDate string `json:"event_date" validate:"omitempty,date"`
	Message   string `json:"message" validate:"required,min=10,max=2000"`
	Website   string `json:"website"`
}

// fromPostForm fills the form from an HTML form POST. ParseForm must have
// been called already.
func fromPostForm(r *http.Request) Form {
	return Form{
		Name:      r.PostFormValue("name"),
		Email:     r.PostFormValue("email"),
		Phone:     r.PostFormValue("phone"),
		EventDate: r.PostFormValue("event_date"),
		Message:   r.PostFormValue("message"),
		Website:   r.PostFormValue("website"),
	}
}

// normalize trims surrounding whitespace so validation and delivery see the
// values a human meant to send.
func (f *Form) normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.EventDate = strings.TrimSpace(f.EventDate)
	f.Message = strings.TrimSpace(f.Message)
	f.Website = strings.TrimSpace(f.Website)
}

// submission converts an accepted form into the delivery payload. The
// honeypot field is carried so the relay endpoint can run its own check;
// it is always empty here.
func (f Form) submission() delivery.Submission {
	return delivery.Submission{
		Name:      f.Name,
		Email:     f.Email,
		Phone:     f.Phone,
		EventDate: f.EventDate,
		Message:   f.Message,
		Website:   f.Website,
	}
}
