package inbox

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/subhive-systems/subhive/internal/models"
)

// ErrInvalidPayload is returned when no recognized provider shape matches
// the inbound payload.
var ErrInvalidPayload = errors.New("invalid email payload")

// Email is the canonical inbound email, built per request from whatever
// shape the provider sent. It is never persisted as-is.
type Email struct {
	From        string
	FromName    string
	Subject     string
	TextBody    string
	HTMLBody    string
	Attachments []models.EmailAttachment
}

// format pairs a shape predicate with its mapper. Formats are tried in
// order; the first match wins.
type format struct {
	name  string
	match func(p map[string]any) bool
	parse func(p map[string]any) *Email
}

var formats = []format{
	{name: "generic", match: matchGeneric, parse: parseGeneric},
	{name: "envelope", match: matchEnvelope, parse: parseEnvelope},
	{name: "sender", match: matchSender, parse: parseSender},
	{name: "token", match: matchToken, parse: parseToken},
}

// Normalize converts a provider payload into a canonical Email. The subject
// defaults to "No Subject"; an empty sender fails normalization.
func Normalize(payload map[string]any) (*Email, error) {
	if payload == nil {
		return nil, ErrInvalidPayload
	}

	for _, f := range formats {
		if !f.match(payload) {
			continue
		}
		email := f.parse(payload)
		email.From = strings.TrimSpace(email.From)
		if email.From == "" {
			return nil, ErrInvalidPayload
		}
		if email.Subject == "" {
			email.Subject = "No Subject"
		}
		if email.Attachments == nil {
			email.Attachments = []models.EmailAttachment{}
		}
		return email, nil
	}

	return nil, ErrInvalidPayload
}

// Generic format: "from" plus a "subject" key (value may be empty).
func matchGeneric(p map[string]any) bool {
	_, hasSubject := p["subject"]
	return stringField(p, "from") != "" && hasSubject
}

func parseGeneric(p map[string]any) *Email {
	return &Email{
		From:        stringField(p, "from"),
		FromName:    stringField(p, "fromName", "from-name"),
		Subject:     stringField(p, "subject"),
		TextBody:    stringField(p, "text", "text-body"),
		HTMLBody:    stringField(p, "html", "html-body"),
		Attachments: normalizeAttachments(p["attachments"]),
	}
}

// Envelope format (SendGrid inbound parse): nested envelope.from carries the
// sender; the top-level "from" is the display name. Attachments may arrive
// as a map keyed by filename.
func matchEnvelope(p map[string]any) bool {
	env, ok := p["envelope"].(map[string]any)
	return ok && stringField(env, "from") != ""
}

func parseEnvelope(p map[string]any) *Email {
	env, _ := p["envelope"].(map[string]any)
	return &Email{
		From:        stringField(env, "from"),
		FromName:    stringField(p, "from"),
		Subject:     stringField(p, "subject"),
		TextBody:    stringField(p, "text"),
		HTMLBody:    stringField(p, "html"),
		Attachments: normalizeAttachments(p["attachments"]),
	}
}

// Sender format (Mailgun): flat "sender" field with capitalized header keys
// and hyphenated body keys.
func matchSender(p map[string]any) bool {
	return stringField(p, "sender") != ""
}

func parseSender(p map[string]any) *Email {
	sender := stringField(p, "sender")
	fromName := stringField(p, "From")
	if fromName == "" {
		fromName = sender
	}
	return &Email{
		From:        sender,
		FromName:    fromName,
		Subject:     stringField(p, "Subject", "subject"),
		TextBody:    stringField(p, "body-plain", "text"),
		HTMLBody:    stringField(p, "body-html", "html"),
		Attachments: normalizeAttachments(p["attachments"]),
	}
}

var (
	tokenMarkerRe    = regexp.MustCompile(`(?i)#subject#|#textbody#`)
	subjectMarkerRe  = regexp.MustCompile(`(?i)^[^#]*#subject#`)
	textBodyMarkerRe = regexp.MustCompile(`(?i)^[^#]*#textbody#`)
	fromMarkerRe     = regexp.MustCompile(`(?i)#from#`)
	lineBreakRe      = regexp.MustCompile(`\r?\n`)
)

// Token-templated format (InstAddr-style forwarding services). The upstream
// provider substitutes #subject#/#textbody#/#from# tokens depending on its
// configuration, so the content is interpreted both ways: literal markers
// are stripped when present, otherwise the first line is the subject and
// the remaining lines are the body.
func matchToken(p map[string]any) bool {
	_, hasContent := p["content"].(string)
	_, hasUsername := p["username"].(string)
	return hasContent || hasUsername
}

func parseToken(p map[string]any) *Email {
	content := stringField(p, "content")
	username := stringField(p, "username", "from", "sender")

	lines := lineBreakRe.Split(content, -1)
	var subject, textBody string
	if tokenMarkerRe.MatchString(content) {
		stripped := subjectMarkerRe.ReplaceAllString(content, "")
		subject = lineBreakRe.Split(stripped, -1)[0]
		if len(lines) > 1 {
			rest := strings.Join(lines[1:], "\n")
			textBody = textBodyMarkerRe.ReplaceAllString(rest, "")
		}
	} else {
		subject = strings.TrimSpace(lines[0])
		if len(lines) > 1 {
			textBody = strings.TrimSpace(strings.Join(lines[1:], "\n"))
		}
	}

	if subject == "" {
		subject = stringField(p, "subject")
	}
	if textBody == "" {
		textBody = stringField(p, "text")
	}

	return &Email{
		From:        strings.TrimSpace(fromMarkerRe.ReplaceAllString(username, "")),
		Subject:     subject,
		TextBody:    textBody,
		HTMLBody:    stringField(p, "html"),
		Attachments: normalizeAttachments(p["attachments"]),
	}
}

// normalizeAttachments converts heterogeneous attachment representations
// into the canonical list. It never fails: anything unrecognized yields an
// empty list.
func normalizeAttachments(raw any) []models.EmailAttachment {
	switch v := raw.(type) {
	case []any:
		attachments := make([]models.EmailAttachment, 0, len(v))
		for _, elem := range v {
			m, ok := elem.(map[string]any)
			if !ok {
				continue
			}
			att := models.EmailAttachment{
				Filename:    stringField(m, "filename", "name"),
				ContentType: stringField(m, "contentType", "content-type"),
				Size:        numberField(m, "size"),
				Data:        stringField(m, "data", "content"),
			}
			if att.Filename == "" {
				att.Filename = "attachment"
			}
			if att.ContentType == "" {
				att.ContentType = "application/octet-stream"
			}
			attachments = append(attachments, att)
		}
		return attachments

	case map[string]any:
		// Filename-keyed map; values are opaque payloads.
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}
		sort.Strings(names)

		attachments := make([]models.EmailAttachment, 0, len(names))
		for _, name := range names {
			data, _ := v[name].(string)
			attachments = append(attachments, models.EmailAttachment{
				Filename:    name,
				ContentType: "application/octet-stream",
				Size:        0,
				Data:        data,
			})
		}
		return attachments

	default:
		return []models.EmailAttachment{}
	}
}

func stringField(p map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := p[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func numberField(p map[string]any, key string) int64 {
	switch v := p[key].(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	default:
		return 0
	}
}
