package models

import "strings"

// Review is a public, immutable testimonial.
type Review struct {
	ID   string `json:"id" firestore:"-" bson:"_id"`
	Name string `json:"name" firestore:"name" bson:"name"`
	Text string `json:"text" firestore:"text" bson:"text"`
	Date string `json:"date" firestore:"date" bson:"date"`
}

type CreateReviewRequest struct {
	Name           string `json:"name"`
	Text           string `json:"text"`
	RecaptchaToken string `json:"recaptchaToken"`
}

func (r *CreateReviewRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(r.Name) == "" {
		errors["name"] = "Name is required"
	} else if len(r.Name) > 120 {
		errors["name"] = "Name is too long"
	}
	if strings.TrimSpace(r.Text) == "" {
		errors["text"] = "Review text is required"
	} else if len(r.Text) > 4000 {
		errors["text"] = "Review text is too long"
	}

	return errors
}
