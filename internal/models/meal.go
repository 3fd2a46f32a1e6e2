package models

import "regexp"

// Meal-time labels become document field paths, so dots and other path
// separators are not allowed.
var mealTimeRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

type MealRequest struct {
	MealTime string                 `json:"mealTime"`
	MealData map[string]interface{} `json:"mealData"`
}

func (r *MealRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.MealTime == "" {
		errors["mealTime"] = "Meal time is required"
	} else if !mealTimeRe.MatchString(r.MealTime) {
		errors["mealTime"] = "Meal time may contain only letters, digits, '_' and '-'"
	}
	if r.MealData == nil {
		errors["mealData"] = "Meal data must be an object"
	}

	return errors
}
