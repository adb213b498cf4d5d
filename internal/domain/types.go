package domain

import "time"

// Lead sources. Only GOOGLE_MAPS has a scraper behind it; the others exist
// so the scorer's reliability table can name them.
const (
	SourceGoogleMaps          = "GOOGLE_MAPS"
	SourceFacebookMarketplace = "FACEBOOK_MARKETPLACE"
	SourceTonaton             = "TONATON"
	SourceJiji                = "JIJI"
	SourceWhatsAppBusiness    = "WHATSAPP_BUSINESS"
)

// Run statuses returned to the caller.
const (
	RunCompleted = "COMPLETED"
)

// ScrapeRequest is the body of POST /api/v1/osint/scrape.
type ScrapeRequest struct {
	Location     string `json:"location"`
	BusinessType string `json:"businessType"`
	Source       string `json:"source"`
}

// ScrapedCandidate is one listing as extracted from the results page.
// GPSLat and GPSLng are either both set or both nil.
type ScrapedCandidate struct {
	BusinessName string
	PhoneRaw     string
	Address      string
	GPSLat       *float64
	GPSLng       *float64
	Category     string
	URL          string
}

// HasGPS reports whether both coordinates were recovered.
func (c ScrapedCandidate) HasGPS() bool {
	return c.GPSLat != nil && c.GPSLng != nil
}

// ValidatedPhone is a phone number that passed the numbering-plan and
// mobile-prefix checks.
type ValidatedPhone struct {
	International string `json:"international"` // +233244123456
	National      string `json:"national"`      // 0244123456
	Carrier       string `json:"carrier"`       // MTN, Vodafone, AirtelTigo
	Valid         bool   `json:"valid"`
}

// ClassificationResult is the business type picked for a candidate.
type ClassificationResult struct {
	Type           string  `json:"type"`
	Confidence     float64 `json:"confidence"`
	MatchedKeyword string  `json:"matchedKeyword,omitempty"`
}

// Lead is the persisted record (collection: leads).
type Lead struct {
	ID              string    `bson:"_id"                      json:"id"`
	JobID           string    `bson:"job_id,omitempty"         json:"jobId,omitempty"`
	Source          string    `bson:"source"                   json:"source"`
	BusinessName    string    `bson:"business_name"            json:"businessName"`
	PhoneNumber     *string   `bson:"phone_number,omitempty"   json:"phoneNumber"`
	NormalizedPhone *string   `bson:"normalized_phone,omitempty" json:"normalizedPhone"`
	Carrier         string    `bson:"carrier,omitempty"        json:"carrier,omitempty"`
	Location        string    `bson:"location"                 json:"location"`
	GPSLat          *float64  `bson:"gps_lat,omitempty"        json:"gpsLat,omitempty"`
	GPSLng          *float64  `bson:"gps_lng,omitempty"        json:"gpsLng,omitempty"`
	Category        string    `bson:"category"                 json:"category"`
	ConfidenceScore float64   `bson:"confidence_score"         json:"confidenceScore"`
	Status          string    `bson:"status"                   json:"status"`
	IsOnboarded     bool      `bson:"is_onboarded"             json:"isOnboarded"`
	ScrapedAt       time.Time `bson:"scraped_at"               json:"scrapedAt"`
}

// LeadPreview is the short form of a saved lead returned with a run.
type LeadPreview struct {
	ID              string  `json:"id"`
	BusinessName    string  `json:"businessName"`
	PhoneNumber     *string `json:"phoneNumber"`
	Category        string  `json:"category"`
	ConfidenceScore float64 `json:"confidenceScore"`
}

// RunSummary is the result of one ingestion run, as returned by the API.
type RunSummary struct {
	JobID                string        `json:"jobId"`
	Status               string        `json:"status"`
	LeadsFound           int           `json:"leadsFound"`
	DuplicatesSkipped    int           `json:"duplicatesSkipped"`
	InvalidPhonesSkipped int           `json:"invalidPhonesSkipped"`
	NoPhone              int           `json:"noPhone"`
	Failed               int           `json:"failed,omitempty"`
	TotalScraped         int           `json:"totalScraped"`
	Message              string        `json:"message,omitempty"`
	Cached               bool          `json:"cached"`
	StartedAt            time.Time     `json:"startedAt"`
	DurationMs           int64         `json:"durationMs"`
	Leads                []LeadPreview `json:"leads,omitempty"`
}

// RunRecord is the run metadata document stored in MongoDB (collection: scrape_runs).
type RunRecord struct {
	ID                   string    `bson:"_id,omitempty"          json:"id"`
	JobID                string    `bson:"job_id"                 json:"jobId"`
	BusinessType         string    `bson:"business_type"          json:"businessType"`
	Location             string    `bson:"location"               json:"location"`
	Source               string    `bson:"source"                 json:"source"`
	TotalScraped         int       `bson:"total_scraped"          json:"totalScraped"`
	LeadsFound           int       `bson:"leads_found"            json:"leadsFound"`
	DuplicatesSkipped    int       `bson:"duplicates_skipped"     json:"duplicatesSkipped"`
	InvalidPhonesSkipped int       `bson:"invalid_phones_skipped" json:"invalidPhonesSkipped"`
	NoPhone              int       `bson:"no_phone"               json:"noPhone"`
	Failed               int       `bson:"failed"                 json:"failed"`
	DurationMs           int64     `bson:"duration_ms"            json:"durationMs"`
	StartedAt            time.Time `bson:"started_at"             json:"startedAt"`
	CreatedAt            time.Time `bson:"created_at"             json:"createdAt"`
}

// Pagination describes a page of a listing endpoint.
type Pagination struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"hasMore"`
}
