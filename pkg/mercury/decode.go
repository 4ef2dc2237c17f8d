package mercury

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
)

const maxSnippetLen = 512

// envelope captures the fields used to classify a response before decoding the article.
type envelope struct {
	URL      string          `json:"url"`
	Error    bool            `json:"error"`
	Message  json.RawMessage `json:"message"`
	Messages json.RawMessage `json:"messages"`
}

// Decode converts a raw response into an Article. It never returns a partially
// populated Article together with a nil error: any non-2xx status, in-band error
// payload or schema mismatch yields a typed error instead.
func Decode(status int, body []byte) (*Article, error) {
	if status < 200 || status > 299 {
		return nil, &APIError{StatusCode: status, Message: errorMessage(status, body)}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, &DecodeError{Reason: "empty response body"}
	}
	if trimmed[0] != '{' {
		return nil, &DecodeError{Reason: "response is not a JSON object", Snippet: responseSnippet(body)}
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, &DecodeError{Reason: "invalid json", Snippet: responseSnippet(body), Err: err}
	}

	msg := firstNonEmpty(rawMessageText(env.Message), rawMessageText(env.Messages))
	if env.Error {
		if msg == "" {
			msg = "service reported an error"
		}
		return nil, &APIError{StatusCode: status, Message: msg}
	}
	if strings.TrimSpace(env.URL) == "" {
		if msg != "" {
			return nil, &APIError{StatusCode: status, Message: msg}
		}
		return nil, &DecodeError{Reason: "missing url", Snippet: responseSnippet(body)}
	}

	article := Article{
		Direction:     LTR,
		TotalPages:    1,
		RenderedPages: 1,
	}
	if err := json.Unmarshal(trimmed, &article); err != nil {
		return nil, &DecodeError{Reason: "unexpected article schema", Snippet: responseSnippet(body), Err: err}
	}
	return &article, nil
}

// errorMessage extracts the server-supplied message from an error body.
func errorMessage(status int, body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		if msg := firstNonEmpty(rawMessageText(env.Message), rawMessageText(env.Messages)); msg != "" {
			return msg
		}
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return responseSnippet(body)
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "unexpected status"
}

// rawMessageText accepts a JSON string or an array of strings.
func rawMessageText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if item = strings.TrimSpace(item); item != "" {
				parts = append(parts, item)
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

func responseSnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxSnippetLen {
		return s[:maxSnippetLen] + "..."
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
