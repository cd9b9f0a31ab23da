package services

import (
	"html"
	"strconv"

	"github.com/seatplan/seatplan/internal/models"
	"github.com/seatplan/seatplan/pkg/mail"
	"github.com/seatplan/seatplan/pkg/placeholder"
)

const (
	// he-IL rendering: day and month without leading zeros.
	eventDateLayout = "2.1.2006"
	unsetFieldText  = "יפורסם"
)

const fallbackConfirmationSubject = "הזמנת המקום שלך אושרה!"

const fallbackConfirmationBody = `שלום {name},

הזמנת המקום שלך אושרה בהצלחה!

אירוע: {event_title}
תאריך: {event_date}
שעה: {event_time}
מיקום: {event_location}
המקום שלך: #{seat_number}

חשוב: אם אתה צריך לבטל, אנא עשה זאת לפחות יומיים מראש באמצעות הקישור:
{cancellation_link}

אנחנו מצפים לראות אותך באירוע!

בברכה,
צוות האירוע`

const fallbackReminderSubject = "תזכורת לאירוע - {event_title}"

const fallbackReminderBody = `שלום {name},

זוהי תזכורת ידידותית לאירוע הקרב:

אירוע: {event_title}
תאריך: {event_date}
שעה: {event_time}
מיקום: {event_location}
המקום שלך: #{seat_number}

אנחנו מצפים לראות אותך!

אם אתה צריך לבטל, אנא השתמש בקישור: {cancellation_link}

בברכה,
צוות האירוע`

// templateValues assembles the placeholder substitutions for one recipient.
func templateValues(survey *models.Survey, participant *models.Participant, cancellationLink string) map[string]string {
	date := unsetFieldText
	if survey.Date != nil {
		date = survey.Date.Format(eventDateLayout)
	}
	eventTime := survey.Time
	if eventTime == "" {
		eventTime = unsetFieldText
	}
	location := survey.Location
	if location == "" {
		location = unsetFieldText
	}
	return map[string]string{
		"name":              participant.Name,
		"event_title":       survey.Title,
		"event_date":        date,
		"event_time":        eventTime,
		"event_location":    location,
		"seat_number":       strconv.Itoa(participant.SeatNumber),
		"cancellation_link": cancellationLink,
	}
}

// composeParticipantEmail expands a resolved template for one recipient and
// wraps it in the HTML shell.
func composeParticipantEmail(tpl ResolvedTemplate, survey *models.Survey, participant *models.Participant, links *LinkBuilder) mail.Message {
	values := templateValues(survey, participant, links.CancellationPage(participant.CancellationToken))
	subject := renderSubject(tpl.Subject, survey.Title)
	body := renderBody(tpl.Body, values)

	return mail.Message{
		To:      []string{participant.Email},
		Subject: subject,
		Body:    wrapHTML(subject, body),
		HTML:    true,
	}
}

func renderSubject(subjectTemplate, eventTitle string) string {
	return placeholder.Render(subjectTemplate, map[string]string{"event_title": eventTitle})
}

func renderBody(bodyTemplate string, values map[string]string) string {
	return placeholder.Render(bodyTemplate, values)
}

// wrapHTML embeds rendered body text in the right-to-left email shell.
// The text is escaped so recipient-provided values cannot inject markup.
func wrapHTML(subject, bodyText string) string {
	return `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>` + html.EscapeString(subject) + `</title>
    <style>
        * { box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif;
            font-size: 16px;
            line-height: 1.6;
            color: #333333;
            direction: rtl;
            text-align: right;
            margin: 0;
            padding: 0;
            background-color: #f5f5f5;
        }
        .email-container {
            max-width: 600px;
            margin: 20px auto;
            background-color: #ffffff;
            border-radius: 12px;
            box-shadow: 0 4px 12px rgba(0,0,0,0.1);
            overflow: hidden;
        }
        .email-content {
            padding: 40px 30px;
            line-height: 1.8;
            white-space: pre-wrap;
            word-wrap: break-word;
        }
        a { color: #dc2626; text-decoration: underline; font-weight: bold; }
    </style>
</head>
<body>
    <div class="email-container">
        <div class="email-content">` + html.EscapeString(bodyText) + `</div>
    </div>
</body>
</html>`
}
