package models

import (
	"encoding/json"
	"strings"
)

// MaxPhotoBytes bounds the decoded size of a profile photo data URL so the
// user document stays under the store's 1 MiB document limit.
const MaxPhotoBytes = 700 * 1024

// NullableString distinguishes an absent JSON field from an explicit null.
type NullableString struct {
	Set   bool
	Value *string
}

func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

type UpdateProfileRequest struct {
	Name         *string        `json:"name"`
	PhotoDataURL NullableString `json:"photoDataURL"`
}

// Validate checks the request and converts it into a store update.
func (r *UpdateProfileRequest) Validate() (ProfileUpdate, map[string]string) {
	var upd ProfileUpdate
	errors := make(map[string]string)

	if r.Name == nil && !r.PhotoDataURL.Set {
		errors["profile"] = "Nothing to update: expected name or photoDataURL"
		return upd, errors
	}

	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			errors["name"] = "Name cannot be empty"
		} else {
			upd.Name = &name
		}
	}

	if r.PhotoDataURL.Set {
		switch {
		case r.PhotoDataURL.Value == nil:
			upd.ClearPhoto = true
		case !strings.HasPrefix(*r.PhotoDataURL.Value, "data:image/"):
			errors["photoDataURL"] = "Invalid photo data URL format"
		case EstimatedDataURLBytes(*r.PhotoDataURL.Value) > MaxPhotoBytes:
			errors["photoDataURL"] = "Image file is too large (max ~700KB)"
		default:
			photo := *r.PhotoDataURL.Value
			upd.PhotoURL = &photo
		}
	}

	return upd, errors
}

// EstimatedDataURLBytes approximates the decoded size of a base64 data URL.
func EstimatedDataURLBytes(dataURL string) float64 {
	return float64(len(dataURL)) * 0.75
}
