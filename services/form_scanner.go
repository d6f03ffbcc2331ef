package services

import (
	"regexp"
	"strings"
)

// WidgetKind is the input control family of a question
type WidgetKind string

const (
	WidgetDate            WidgetKind = "date"
	WidgetText            WidgetKind = "text"
	WidgetTextarea        WidgetKind = "textarea"
	WidgetContentEditable WidgetKind = "contenteditable"
	WidgetSelect          WidgetKind = "select"
	WidgetListbox         WidgetKind = "listbox"
	WidgetRadio           WidgetKind = "radio"
	WidgetCheckbox        WidgetKind = "checkbox"
	WidgetFile            WidgetKind = "file"
	WidgetUnknown         WidgetKind = "unknown"
)

// InputAttributes are the machine attributes of a question's primary input
type InputAttributes struct {
	Name        string `json:"name,omitempty"`
	ID          string `json:"id,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	AriaLabel   string `json:"aria_label,omitempty"`
	Type        string `json:"type,omitempty"`
}

// Question is one scanned form question; valid only for the current page
type Question struct {
	Index          int             `json:"index"`
	Label          string          `json:"label"`
	CompositeLabel string          `json:"composite_label"`
	Attributes     InputAttributes `json:"attributes"`
	Widget         WidgetKind      `json:"widget"`
	IsRequired     bool            `json:"is_required"`
	Container      Element         `json:"-"`
}

// Selector lists are evaluated in order; adding markup support means
// appending a selector.
const (
	textInputSelector = `input[type="text"], input[type="email"], input[type="tel"], input[type="number"], input[type="url"], input:not([type])`
	radioSelector     = `[role="radio"], input[type="radio"]`
	checkboxSelector  = `[role="checkbox"], input[type="checkbox"]`
	dateSelector      = `input[type="date"]`
	selectSelector    = `select`
	listboxSelector   = `[role="listbox"]`
	fileSelector      = `input[type="file"]`
	textareaSelector  = `textarea`
	editableSelector  = `[contenteditable="true"], [contenteditable=""]`
	requiredSelector  = `[required], [aria-required="true"]`
)

var DefaultContainerSelectors = []string{
	`div[role="listitem"]`,
	`fieldset`,
	`.form-group`,
	`.question`,
	`.field`,
}

var DefaultLabelSelectors = []string{
	`[role="heading"]`,
	`legend`,
	`label`,
	`.question-title`,
	`h1, h2, h3, h4`,
}

type widgetMatcher struct {
	kind     WidgetKind
	selector string
}

// Detection order mirrors fill precedence; companion "Other" text boxes sit
// inside choice groups, so choice widgets are probed before plain text.
var widgetMatchers = []widgetMatcher{
	{WidgetDate, dateSelector},
	{WidgetRadio, radioSelector},
	{WidgetCheckbox, checkboxSelector},
	{WidgetSelect, selectSelector},
	{WidgetListbox, listboxSelector},
	{WidgetFile, fileSelector},
	{WidgetTextarea, textareaSelector},
	{WidgetContentEditable, editableSelector},
	{WidgetText, textInputSelector},
}

var datePlaceholder = regexp.MustCompile(`(?i)\b(dd|mm|yyyy|yy)\s*[-/.]\s*(dd|mm|yyyy|yy)`)

// ScannerConfig overrides the default selector lists
type ScannerConfig struct {
	ContainerSelectors []string
	LabelSelectors     []string
}

// FormScanner enumerates the questions of a loaded page
type FormScanner struct {
	containerSelectors []string
	labelSelectors     []string
}

func NewFormScanner(cfg ScannerConfig) *FormScanner {
	s := &FormScanner{
		containerSelectors: cfg.ContainerSelectors,
		labelSelectors:     cfg.LabelSelectors,
	}
	if len(s.containerSelectors) == 0 {
		s.containerSelectors = DefaultContainerSelectors
	}
	if len(s.labelSelectors) == 0 {
		s.labelSelectors = DefaultLabelSelectors
	}
	return s
}

// Scan returns the questions on the page. Containers without any input
// control (section headers, images) are skipped.
func (s *FormScanner) Scan(page Page) ([]Question, error) {
	containers, _, err := queryAny(page, s.containerSelectors)
	if err != nil {
		return nil, err
	}

	var questions []Question
	for _, container := range containers {
		q, ok, err := s.inspect(container)
		if err != nil {
			if isPageClosed(err) {
				return nil, err
			}
			continue
		}
		if !ok {
			continue
		}
		q.Index = len(questions)
		questions = append(questions, q)
	}

	return questions, nil
}

func (s *FormScanner) inspect(container Element) (Question, bool, error) {
	widget, input, err := detectWidget(container)
	if err != nil {
		return Question{}, false, err
	}
	if widget == WidgetUnknown {
		return Question{}, false, nil
	}

	label, err := s.extractLabel(container)
	if err != nil {
		return Question{}, false, err
	}

	attrs := readAttributes(input, widget)
	if widget == WidgetText && datePlaceholder.MatchString(attrs.Placeholder) {
		widget = WidgetDate
	}

	required, err := isRequired(container, label)
	if err != nil {
		return Question{}, false, err
	}

	return Question{
		Label:          cleanLabel(label),
		CompositeLabel: compositeSignature(cleanLabel(label), attrs),
		Attributes:     attrs,
		Widget:         widget,
		IsRequired:     required,
		Container:      container,
	}, true, nil
}

func (s *FormScanner) extractLabel(container Element) (string, error) {
	for _, selector := range s.labelSelectors {
		elements, err := container.QueryAll(selector)
		if err != nil {
			if isPageClosed(err) {
				return "", err
			}
			continue
		}
		for _, el := range elements {
			// A label wrapping its own input names an option, not the question.
			if wrapped, _ := el.QueryAll(`input[type="radio"], input[type="checkbox"]`); len(wrapped) > 0 {
				continue
			}
			text, err := el.Text()
			if err != nil {
				if isPageClosed(err) {
					return "", err
				}
				continue
			}
			if strings.TrimSpace(text) != "" {
				return text, nil
			}
		}
	}

	text, err := container.Text()
	if err != nil {
		return "", err
	}
	return firstLine(text), nil
}

func detectWidget(container Element) (WidgetKind, Element, error) {
	for _, matcher := range widgetMatchers {
		elements, err := container.QueryAll(matcher.selector)
		if err != nil {
			if isPageClosed(err) {
				return WidgetUnknown, nil, err
			}
			continue
		}
		if len(elements) > 0 {
			return matcher.kind, elements[0], nil
		}
	}
	return WidgetUnknown, nil, nil
}

func readAttributes(input Element, widget WidgetKind) InputAttributes {
	if input == nil {
		return InputAttributes{}
	}
	attrs := InputAttributes{}
	attrs.Name, _ = input.Attr("name")
	attrs.Type, _ = input.Attr("type")
	if attrs.Type == "" {
		attrs.Type = string(widget)
	}

	// Option elements of choice groups carry the option text, not the question.
	if widget == WidgetRadio || widget == WidgetCheckbox {
		return attrs
	}
	attrs.ID, _ = input.Attr("id")
	attrs.Placeholder, _ = input.Attr("placeholder")
	attrs.AriaLabel, _ = input.Attr("aria-label")
	return attrs
}

func isRequired(container Element, label string) (bool, error) {
	if flag, _ := container.Attr("aria-required"); strings.EqualFold(flag, "true") {
		return true, nil
	}
	marked, err := container.QueryAll(requiredSelector)
	if err != nil && isPageClosed(err) {
		return false, err
	}
	if len(marked) > 0 {
		return true, nil
	}
	if strings.HasSuffix(strings.TrimSpace(label), "*") {
		return true, nil
	}
	text, err := container.Text()
	if err != nil {
		if isPageClosed(err) {
			return false, err
		}
		return false, nil
	}
	return containsWords(Normalize(text), "required"), nil
}

func compositeSignature(label string, attrs InputAttributes) string {
	parts := []string{label}
	for _, v := range []string{attrs.Name, attrs.ID, attrs.Placeholder, attrs.AriaLabel} {
		if v = strings.TrimSpace(v); v != "" && !strings.EqualFold(v, label) {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func cleanLabel(label string) string {
	label = strings.Join(strings.Fields(label), " ")
	return strings.TrimSpace(strings.TrimRight(label, "* "))
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// Fingerprint summarizes the first n question labels; it is a transition
// signal only, never an identity.
func Fingerprint(questions []Question, n int) string {
	if n <= 0 {
		n = 3
	}
	parts := make([]string, 0, n)
	for i := 0; i < len(questions) && i < n; i++ {
		parts = append(parts, Normalize(questions[i].Label))
	}
	return strings.Join(parts, "|")
}
