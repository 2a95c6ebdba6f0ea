package entity

import (
	"fmt"
	"strings"
)

type Document struct {
	URI        string `json:"uri"`
	FileName   string `json:"fileName"`
	LanguageID string `json:"languageId"`
	Text       string `json:"text"`
	Selection  string `json:"selection,omitempty"`
}

type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInformation
	SeverityHint
)

var severityNames = []string{"error", "warning", "information", "hint"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityNames[s]
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	name := strings.ToLower(string(text))
	for i, n := range severityNames {
		if n == name {
			*s = Severity(i)
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", text)
}

type Diagnostic struct {
	Range    Range    `json:"range"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Source   string   `json:"source,omitempty"`
}

type Panel struct {
	ViewType string `json:"viewType"`
	Title    string `json:"title"`
	HTML     string `json:"html"`
}

type FileQuery struct {
	Include     string
	Exclude     string
	Limit       int
	PrefixBytes int
}

type FileSample struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}
