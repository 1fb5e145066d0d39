package inbox

import (
	"errors"
	"testing"
)

func TestNormalizeGenericFormat(t *testing.T) {
	email, err := Normalize(map[string]any{
		"from":     "alice@example.com",
		"fromName": "Alice",
		"subject":  "Hello",
		"text":     "Plain body",
		"html":     "<p>Plain body</p>",
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if email.From != "alice@example.com" {
		t.Errorf("From = %q, want alice@example.com", email.From)
	}
	if email.FromName != "Alice" {
		t.Errorf("FromName = %q, want Alice", email.FromName)
	}
	if email.Subject != "Hello" {
		t.Errorf("Subject = %q, want Hello", email.Subject)
	}
	if email.TextBody != "Plain body" {
		t.Errorf("TextBody = %q, want Plain body", email.TextBody)
	}
	if email.HTMLBody != "<p>Plain body</p>" {
		t.Errorf("HTMLBody = %q", email.HTMLBody)
	}
}

func TestNormalizeEnvelopeFormat(t *testing.T) {
	email, err := Normalize(map[string]any{
		"envelope": map[string]any{"from": "bob@example.com"},
		"from":     "Bob the Sender",
		"subject":  "Envelope subject",
		"text":     "body",
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if email.From != "bob@example.com" {
		t.Errorf("From = %q, want bob@example.com", email.From)
	}
	if email.FromName != "Bob the Sender" {
		t.Errorf("FromName = %q, want Bob the Sender", email.FromName)
	}
	if email.Subject != "Envelope subject" {
		t.Errorf("Subject = %q", email.Subject)
	}
}

func TestNormalizeSenderFormat(t *testing.T) {
	email, err := Normalize(map[string]any{
		"sender":     "carol@example.com",
		"From":       "Carol <carol@example.com>",
		"Subject":    "Mailgun style",
		"body-plain": "plain text",
		"body-html":  "<b>html</b>",
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if email.From != "carol@example.com" {
		t.Errorf("From = %q, want carol@example.com", email.From)
	}
	if email.FromName != "Carol <carol@example.com>" {
		t.Errorf("FromName = %q", email.FromName)
	}
	if email.Subject != "Mailgun style" {
		t.Errorf("Subject = %q", email.Subject)
	}
	if email.TextBody != "plain text" {
		t.Errorf("TextBody = %q", email.TextBody)
	}
	if email.HTMLBody != "<b>html</b>" {
		t.Errorf("HTMLBody = %q", email.HTMLBody)
	}
}

func TestNormalizeSenderFormatFromNameFallsBackToSender(t *testing.T) {
	email, err := Normalize(map[string]any{
		"sender":  "carol@example.com",
		"Subject": "No display name",
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if email.FromName != "carol@example.com" {
		t.Errorf("FromName = %q, want sender fallback", email.FromName)
	}
}

func TestNormalizeTokenFormatWithMarkers(t *testing.T) {
	email, err := Normalize(map[string]any{
		"content":  "#subject#Hello\n#textbody#World",
		"username": "dave@example.com",
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if email.Subject != "Hello" {
		t.Errorf("Subject = %q, want Hello", email.Subject)
	}
	if email.TextBody != "World" {
		t.Errorf("TextBody = %q, want World", email.TextBody)
	}
	if email.From != "dave@example.com" {
		t.Errorf("From = %q", email.From)
	}
}

func TestNormalizeTokenFormatFirstLineSubject(t *testing.T) {
	email, err := Normalize(map[string]any{
		"content":  "Hello\nWorld\nMore",
		"username": "dave@example.com",
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if email.Subject != "Hello" {
		t.Errorf("Subject = %q, want Hello", email.Subject)
	}
	if email.TextBody != "World\nMore" {
		t.Errorf("TextBody = %q, want World\\nMore", email.TextBody)
	}
}

func TestNormalizeTokenFormatStripsFromMarker(t *testing.T) {
	email, err := Normalize(map[string]any{
		"content":  "Hi",
		"username": "#from#dave@example.com",
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if email.From != "dave@example.com" {
		t.Errorf("From = %q, want dave@example.com", email.From)
	}
}

func TestNormalizeSubjectDefaultsWhenEmpty(t *testing.T) {
	email, err := Normalize(map[string]any{
		"from":    "alice@example.com",
		"subject": "",
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if email.Subject != "No Subject" {
		t.Errorf("Subject = %q, want No Subject", email.Subject)
	}
}

func TestNormalizeRejectsEmptyFrom(t *testing.T) {
	_, err := Normalize(map[string]any{
		"from":    "   ",
		"subject": "whitespace sender",
	})
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("err = %v, want ErrInvalidPayload", err)
	}
}

func TestNormalizeRejectsUnrecognizedShape(t *testing.T) {
	_, err := Normalize(map[string]any{
		"foo": "bar",
	})
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("err = %v, want ErrInvalidPayload", err)
	}

	_, err = Normalize(nil)
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("err = %v, want ErrInvalidPayload for nil payload", err)
	}
}

func TestNormalizeAttachmentsArray(t *testing.T) {
	email, err := Normalize(map[string]any{
		"from":    "alice@example.com",
		"subject": "with attachments",
		"attachments": []any{
			map[string]any{
				"filename":    "report.pdf",
				"contentType": "application/pdf",
				"size":        float64(2048),
				"data":        "base64data",
			},
			map[string]any{
				"name":    "notes.txt",
				"content": "aGVsbG8=",
			},
			map[string]any{},
		},
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(email.Attachments) != 3 {
		t.Fatalf("got %d attachments, want 3", len(email.Attachments))
	}

	first := email.Attachments[0]
	if first.Filename != "report.pdf" || first.ContentType != "application/pdf" || first.Size != 2048 {
		t.Errorf("first attachment = %+v", first)
	}

	second := email.Attachments[1]
	if second.Filename != "notes.txt" {
		t.Errorf("fallback name key not used: %+v", second)
	}
	if second.Data != "aGVsbG8=" {
		t.Errorf("fallback content key not used: %+v", second)
	}

	third := email.Attachments[2]
	if third.Filename != "attachment" || third.ContentType != "application/octet-stream" {
		t.Errorf("defaults not applied: %+v", third)
	}
}

func TestNormalizeAttachmentsFilenameKeyedMap(t *testing.T) {
	email, err := Normalize(map[string]any{
		"from":    "alice@example.com",
		"subject": "map attachments",
		"attachments": map[string]any{
			"b.txt": "second",
			"a.txt": "first",
		},
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(email.Attachments) != 2 {
		t.Fatalf("got %d attachments, want 2", len(email.Attachments))
	}
	if email.Attachments[0].Filename != "a.txt" || email.Attachments[1].Filename != "b.txt" {
		t.Errorf("attachments not in filename order: %+v", email.Attachments)
	}
	if email.Attachments[0].Data != "first" {
		t.Errorf("Data = %q, want first", email.Attachments[0].Data)
	}
}

func TestNormalizeAttachmentsNeverNil(t *testing.T) {
	email, err := Normalize(map[string]any{
		"from":    "alice@example.com",
		"subject": "no attachments",
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if email.Attachments == nil {
		t.Error("Attachments is nil, want empty slice")
	}
}
