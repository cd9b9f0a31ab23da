package services

import (
	"net/url"
	"strings"
)

// LinkBuilder renders the public-facing URLs embedded in outgoing emails.
type LinkBuilder struct {
	baseURL string
}

func NewLinkBuilder(baseURL string) *LinkBuilder {
	return &LinkBuilder{baseURL: strings.TrimRight(baseURL, "/")}
}

// SurveyPage is the shareable seat-selection page for a survey reference.
func (b *LinkBuilder) SurveyPage(surveyLink string) string {
	return b.baseURL + "/Survey?id=" + url.QueryEscape(surveyLink)
}

// CancellationPage is the tokenized self-service cancellation page.
func (b *LinkBuilder) CancellationPage(token string) string {
	return b.baseURL + "/CancelReservation?token=" + url.QueryEscape(token)
}

// ThankYouPage is the post-reservation confirmation page.
func (b *LinkBuilder) ThankYouPage(surveyID string) string {
	return b.baseURL + "/ThankYou?surveyId=" + url.QueryEscape(surveyID)
}
