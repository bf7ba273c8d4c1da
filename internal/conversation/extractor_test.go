package conversation

import (
	"context"
	"strings"
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestExtractParsesEmbeddedJSON(t *testing.T) {
	t.Parallel()

	client := &fakeClient{replies: []string{
		"Sure, here is the extraction:\n" +
			`{"destination": "Paris", "flying_from": "New York", "start_date": "2025-01-10",` +
			` "end_date": null, "trip_duration": 3, "travel_type": "romantic", "region_preference": "international"}`,
	}}
	ex := NewExtractor(client, fixedNow)

	fields, err := ex.Extract(context.Background(), "a 3-day trip to Paris from New York starting 2025-01-10")
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	if fields.Destination != "Paris" {
		t.Errorf("Destination = %q", fields.Destination)
	}
	if fields.FlyingFrom != "New York" {
		t.Errorf("FlyingFrom = %q", fields.FlyingFrom)
	}
	if fields.StartDate != "2025-01-10" {
		t.Errorf("StartDate = %q", fields.StartDate)
	}
	if fields.EndDate != "" {
		t.Errorf("EndDate = %q, want unset for null", fields.EndDate)
	}
	if fields.TripDuration != 3 {
		t.Errorf("TripDuration = %d", fields.TripDuration)
	}
	if fields.TravelType != "romantic" {
		t.Errorf("TravelType = %q", fields.TravelType)
	}
	if fields.RegionPreference != "international" {
		t.Errorf("RegionPreference = %q", fields.RegionPreference)
	}
}

func TestExtractCleansJunkTokens(t *testing.T) {
	t.Parallel()

	client := &fakeClient{replies: []string{
		`{"destination": "null", "flying_from": "None", "start_date": "", "trip_duration": -2}`,
	}}
	ex := NewExtractor(client, fixedNow)

	fields, err := ex.Extract(context.Background(), "somewhere nice")
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if fields.Destination != "" || fields.FlyingFrom != "" || fields.StartDate != "" {
		t.Errorf("junk string tokens not normalized to unset: %+v", fields)
	}
	if fields.TripDuration != 0 {
		t.Errorf("non-positive duration accepted: %d", fields.TripDuration)
	}
}

func TestExtractRejectsNonIntegerDuration(t *testing.T) {
	t.Parallel()

	client := &fakeClient{replies: []string{
		`{"destination": "Rome", "trip_duration": "three"}`,
	}}
	ex := NewExtractor(client, fixedNow)

	fields, err := ex.Extract(context.Background(), "to Rome for three days")
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if fields.TripDuration != 0 {
		t.Errorf("TripDuration = %d, want 0 for non-integer", fields.TripDuration)
	}
}

func TestExtractNoJSONIsError(t *testing.T) {
	t.Parallel()

	client := &fakeClient{replies: []string{"I could not determine any fields."}}
	ex := NewExtractor(client, fixedNow)

	if _, err := ex.Extract(context.Background(), "hmm"); err == nil {
		t.Fatal("Extract() = nil error, want failure for reply without JSON")
	}
}

func TestExtractMalformedJSONIsError(t *testing.T) {
	t.Parallel()

	client := &fakeClient{replies: []string{`{"destination": }`}}
	ex := NewExtractor(client, fixedNow)

	if _, err := ex.Extract(context.Background(), "hmm"); err == nil {
		t.Fatal("Extract() = nil error, want failure for malformed JSON")
	}
}

func TestExtractNormalizesDatesBeforeTheModelCall(t *testing.T) {
	t.Parallel()

	client := &fakeClient{replies: []string{`{}`}}
	ex := NewExtractor(client, fixedNow)

	if _, err := ex.Extract(context.Background(), "leaving tomorrow"); err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	call := client.lastCall()
	if !strings.Contains(call.User, "2024-06-02") {
		t.Errorf("user prompt %q does not contain normalized date", call.User)
	}
	if call.Temperature != 0 {
		t.Errorf("Temperature = %v, want 0 for deterministic extraction", call.Temperature)
	}
}
