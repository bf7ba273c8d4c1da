package conversation

import "github.com/tripflow/tripflow/internal/domain"

// slotQuestions maps each required field to its canonical clarifying
// question. Only the first missing field's question is surfaced per turn.
var slotQuestions = map[string]string{
	domain.FieldDestination:  "Where would you like to travel to?",
	domain.FieldFlyingFrom:   "Which city or country are you traveling from?",
	domain.FieldStartDate:    "When would you like to start your trip? (Please provide a date in YYYY-MM-DD format)",
	domain.FieldTripDuration: "How many days would you like your trip to be?",
}
