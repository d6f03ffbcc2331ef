package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"formfill/utils"
)

// Fill methods reported for filled fields
const (
	MethodDate            = "date"
	MethodText            = "text"
	MethodContentEditable = "contenteditable"
	MethodSelect          = "select"
	MethodListbox         = "listbox"
	MethodRadio           = "radio"
	MethodRadioOther      = "radio-other"
	MethodCheckbox        = "checkbox"
	MethodCheckboxOther   = "checkbox-other"
	MethodFile            = "file"
)

var (
	errNotApplicable   = errors.New("widget not present")
	errNoOptionMatched = errors.New("no option matched")
)

// FillOutcome is the per-question record of what was written and why
type FillOutcome struct {
	Label    string `json:"label"`
	Key      string `json:"key,omitempty"`
	Filled   bool   `json:"filled"`
	Method   string `json:"method,omitempty"`
	Value    string `json:"value,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Required bool   `json:"required"`
	Error    string `json:"error,omitempty"`
}

// FilledField is one successful assignment
type FilledField struct {
	Label  string `json:"label"`
	Key    string `json:"key"`
	Method string `json:"method"`
	Value  string `json:"value"`
}

// UnmatchedField is one question that was left alone
type UnmatchedField struct {
	Label  string `json:"label"`
	Key    string `json:"key,omitempty"`
	Reason string `json:"reason"`
	Error  string `json:"error,omitempty"`
}

// Diagnostics aggregates the outcomes of one automation run
type Diagnostics struct {
	FieldsFilled       []FilledField    `json:"fields_filled"`
	UnmatchedMandatory []UnmatchedField `json:"unmatched_mandatory"`
	UnmatchedOptional  []UnmatchedField `json:"unmatched_optional"`
	PagesVisited       int              `json:"pages_visited"`
	StopReason         string           `json:"stop_reason,omitempty"`
	Warnings           []string         `json:"warnings"`
}

// NewDiagnostics returns diagnostics with empty, non-nil lists
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{
		FieldsFilled:       []FilledField{},
		UnmatchedMandatory: []UnmatchedField{},
		UnmatchedOptional:  []UnmatchedField{},
		Warnings:           []string{},
	}
}

// Record files an outcome into the matching list
func (d *Diagnostics) Record(o FillOutcome) {
	if o.Filled {
		d.FieldsFilled = append(d.FieldsFilled, FilledField{Label: o.Label, Key: o.Key, Method: o.Method, Value: o.Value})
		return
	}
	u := UnmatchedField{Label: o.Label, Key: o.Key, Reason: o.Reason, Error: o.Error}
	if o.Required {
		d.UnmatchedMandatory = append(d.UnmatchedMandatory, u)
	} else {
		d.UnmatchedOptional = append(d.UnmatchedOptional, u)
	}
}

// Warn appends a formatted warning
func (d *Diagnostics) Warn(format string, args ...interface{}) {
	d.Warnings = append(d.Warnings, fmt.Sprintf(format, args...))
}

// Merge appends another run's results; used when a run resumes after sign-in
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}
	d.FieldsFilled = append(d.FieldsFilled, other.FieldsFilled...)
	d.UnmatchedMandatory = append(d.UnmatchedMandatory, other.UnmatchedMandatory...)
	d.UnmatchedOptional = append(d.UnmatchedOptional, other.UnmatchedOptional...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.PagesVisited += other.PagesVisited
	d.StopReason = other.StopReason
}

type fillStrategy struct {
	method string
	fill   func(ctx context.Context, q Question, key string, profile Profile) (string, string, error)
}

// FillExecutor writes profile values into scanned questions
type FillExecutor struct {
	mapper     *FieldMapper
	httpClient *http.Client
	strategies []fillStrategy
}

func NewFillExecutor(mapper *FieldMapper) *FillExecutor {
	e := &FillExecutor{
		mapper:     mapper,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	// Fixed precedence; the first widget present on the container decides.
	e.strategies = []fillStrategy{
		{MethodDate, e.fillDate},
		{MethodText, e.fillText},
		{MethodContentEditable, e.fillContentEditable},
		{MethodSelect, e.fillSelect},
		{MethodListbox, e.fillListbox},
		{MethodRadio, e.fillRadio},
		{MethodCheckbox, e.fillCheckbox},
		{MethodFile, e.fillFile},
	}
	return e
}

// FillPage fills every question and records the outcomes. Only a closed
// page aborts the loop.
func (e *FillExecutor) FillPage(ctx context.Context, questions []Question, profile Profile, diag *Diagnostics) error {
	for _, q := range questions {
		if err := ctx.Err(); err != nil {
			return err
		}
		outcome, err := e.FillQuestion(ctx, q, profile)
		if err != nil {
			return err
		}
		diag.Record(outcome)
	}
	return nil
}

// FillQuestion maps and fills one question. The error return is reserved
// for session-level failures; widget trouble lands in the outcome.
func (e *FillExecutor) FillQuestion(ctx context.Context, q Question, profile Profile) (FillOutcome, error) {
	outcome := FillOutcome{Label: q.Label, Required: q.IsRequired}

	key, ok := e.mapper.FindMatch(q.CompositeLabel)
	if !ok && q.Label != q.CompositeLabel {
		key, ok = e.mapper.FindMatch(q.Label)
	}
	if !ok {
		outcome.Reason = ReasonNoMapping
		return outcome, nil
	}
	outcome.Key = key

	if _, ok := profile.Value(key); !ok {
		outcome.Reason = ReasonNoUserData
		return outcome, nil
	}

	for _, strategy := range e.strategies {
		method, value, err := strategy.fill(ctx, q, key, profile)
		if errors.Is(err, errNotApplicable) {
			continue
		}
		switch {
		case err == nil:
			outcome.Filled = true
			outcome.Method = method
			outcome.Value = value
			utils.LogDebug("Filled field", map[string]interface{}{
				"label":  q.Label,
				"key":    key,
				"method": method,
			})
		case isPageClosed(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return outcome, err
		case errors.Is(err, errNoOptionMatched):
			outcome.Reason = ReasonNoInputMatched
		default:
			fillErr := &FillError{Label: q.Label, Widget: strategy.method, Err: err}
			outcome.Reason = ReasonFillError
			outcome.Error = fillErr.Error()
			utils.LogWarn("Field fill failed", map[string]interface{}{
				"label": q.Label,
				"error": err.Error(),
			})
		}
		return outcome, nil
	}

	outcome.Reason = ReasonNoInputMatched
	return outcome, nil
}

func (e *FillExecutor) fillDate(_ context.Context, q Question, key string, profile Profile) (string, string, error) {
	input, err := firstElement(q.Container, dateSelector)
	if err != nil {
		return "", "", err
	}
	if input == nil {
		if input, err = dateLikeTextInput(q.Container); err != nil || input == nil {
			return "", "", orNotApplicable(err)
		}
	}

	raw, _ := profile.Value(key)
	placeholder, _ := input.Attr("placeholder")

	var lastErr error
	for _, attempt := range dateAttempts(raw, placeholder) {
		if lastErr = input.Fill(attempt); lastErr == nil {
			return MethodDate, attempt, nil
		}
		if isPageClosed(lastErr) {
			return "", "", lastErr
		}
	}
	return "", "", lastErr
}

func (e *FillExecutor) fillText(_ context.Context, q Question, key string, profile Profile) (string, string, error) {
	// Text boxes inside choice groups are "Other" companions, not answers.
	if hasChoices, err := hasAny(q.Container, radioSelector, checkboxSelector); err != nil || hasChoices {
		return "", "", orNotApplicable(err)
	}

	input, err := firstElement(q.Container, textInputSelector+", "+textareaSelector)
	if err != nil || input == nil {
		return "", "", orNotApplicable(err)
	}

	value, _ := profile.Value(key)
	if err := input.Fill(value); err != nil {
		return "", "", err
	}
	return MethodText, value, nil
}

func (e *FillExecutor) fillContentEditable(_ context.Context, q Question, key string, profile Profile) (string, string, error) {
	region, err := firstElement(q.Container, editableSelector)
	if err != nil || region == nil {
		return "", "", orNotApplicable(err)
	}

	value, _ := profile.Value(key)
	if err := region.Fill(value); err != nil {
		return "", "", err
	}
	return MethodContentEditable, value, nil
}

func (e *FillExecutor) fillSelect(_ context.Context, q Question, key string, profile Profile) (string, string, error) {
	sel, err := firstElement(q.Container, selectSelector)
	if err != nil || sel == nil {
		return "", "", orNotApplicable(err)
	}

	options, err := sel.QueryAll("option")
	if err != nil {
		return "", "", err
	}
	choices := make([]choiceOption, 0, len(options))
	for _, opt := range options {
		label, _ := opt.Text()
		choices = append(choices, choiceOption{label: strings.TrimSpace(label), el: opt})
	}

	// A dropdown has no companion box, so its "Other" entry is never a match.
	desired, _ := profile.Value(key)
	idx, other := e.pickOption(choices, desired)
	if idx < 0 || other {
		return "", "", errNoOptionMatched
	}
	if err := sel.SelectOption(choices[idx].label); err != nil {
		return "", "", err
	}
	return MethodSelect, choices[idx].label, nil
}

func (e *FillExecutor) fillListbox(_ context.Context, q Question, key string, profile Profile) (string, string, error) {
	listbox, err := firstElement(q.Container, listboxSelector)
	if err != nil || listbox == nil {
		return "", "", orNotApplicable(err)
	}

	// The popup only renders its options once opened.
	if err := listbox.Click(); err != nil {
		return "", "", err
	}
	options, err := listbox.QueryAll(`[role="option"]`)
	if err != nil {
		return "", "", err
	}
	choices := make([]choiceOption, 0, len(options))
	for _, opt := range options {
		choices = append(choices, choiceOption{label: optionLabel(opt), el: opt})
	}

	desired, _ := profile.Value(key)
	idx, other := e.pickOption(choices, desired)
	if idx < 0 || other {
		return "", "", errNoOptionMatched
	}
	if err := choices[idx].el.Click(); err != nil {
		return "", "", err
	}
	return MethodListbox, choices[idx].label, nil
}

func (e *FillExecutor) fillRadio(_ context.Context, q Question, key string, profile Profile) (string, string, error) {
	choices, err := collectChoices(q.Container, `[role="radio"]`, `input[type="radio"]`)
	if err != nil || len(choices) == 0 {
		return "", "", orNotApplicable(err)
	}

	desired, _ := profile.Value(key)
	idx, other := e.pickOption(choices, desired)
	if idx < 0 {
		return "", "", errNoOptionMatched
	}
	if err := choices[idx].el.Click(); err != nil {
		return "", "", err
	}
	if other {
		if err := fillCompanion(q.Container, desired); err != nil {
			return "", "", err
		}
		return MethodRadioOther, desired, nil
	}
	return MethodRadio, choices[idx].label, nil
}

func (e *FillExecutor) fillCheckbox(_ context.Context, q Question, key string, profile Profile) (string, string, error) {
	choices, err := collectChoices(q.Container, `[role="checkbox"]`, `input[type="checkbox"]`)
	if err != nil || len(choices) == 0 {
		return "", "", orNotApplicable(err)
	}

	var picked, others []string
	otherIdx := -1
	for _, desired := range profile.Values(key) {
		idx, other := e.pickOption(choices, desired)
		switch {
		case idx < 0:
			continue
		case other:
			otherIdx = idx
			others = append(others, desired)
			continue
		}
		if err := checkChoice(choices[idx].el); err != nil {
			return "", "", err
		}
		picked = append(picked, choices[idx].label)
	}

	if otherIdx < 0 {
		if len(picked) == 0 {
			return "", "", errNoOptionMatched
		}
		return MethodCheckbox, strings.Join(picked, ", "), nil
	}

	// Values without a box of their own go to Other, alongside any real picks.
	if err := checkChoice(choices[otherIdx].el); err != nil {
		return "", "", err
	}
	if err := fillCompanion(q.Container, strings.Join(others, ", ")); err != nil {
		return "", "", err
	}
	return MethodCheckboxOther, strings.Join(append(picked, others...), ", "), nil
}

func (e *FillExecutor) fillFile(ctx context.Context, q Question, key string, profile Profile) (string, string, error) {
	input, err := firstElement(q.Container, fileSelector)
	if err != nil || input == nil {
		return "", "", orNotApplicable(err)
	}

	source, _ := profile.Value(key)
	local, cleanup, err := e.localFile(ctx, source)
	if err != nil {
		return "", "", err
	}
	defer cleanup()

	if err := input.SetInputFiles(local); err != nil {
		return "", "", err
	}
	return MethodFile, source, nil
}

// localFile returns a path for source, downloading http(s) URLs to a temp
// file that the returned cleanup removes.
func (e *FillExecutor) localFile(ctx context.Context, source string) (string, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		if _, err := os.Stat(source); err != nil {
			return "", noop, fmt.Errorf("file not readable: %w", err)
		}
		return source, noop, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return "", noop, fmt.Errorf("invalid file URL: %w", err)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", noop, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", noop, fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}

	name := path.Base(req.URL.Path)
	if name == "/" || name == "." {
		name = "upload"
	}
	dir, err := os.MkdirTemp("", "formfill-upload-")
	if err != nil {
		return "", noop, fmt.Errorf("failed to create temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	local := filepath.Join(dir, name)
	f, err := os.Create(local)
	if err != nil {
		cleanup()
		return "", noop, fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		cleanup()
		return "", noop, fmt.Errorf("failed to save file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", noop, fmt.Errorf("failed to save file: %w", err)
	}
	return local, cleanup, nil
}

type choiceOption struct {
	label string
	el    Element
}

// pickOption prefers exact equality, then a whole-word match, then the
// mapper's choice matching, and only then a generic "Other" option. The
// second return reports that the Other option was chosen.
func (e *FillExecutor) pickOption(choices []choiceOption, desired string) (int, bool) {
	want := Normalize(desired)
	if want == "" {
		return -1, false
	}

	for i, c := range choices {
		if Normalize(c.label) == want {
			return i, false
		}
	}
	for i, c := range choices {
		option := Normalize(c.label)
		if !isOtherDecoy(option, want) && containsWords(option, want) {
			return i, false
		}
	}
	for i, c := range choices {
		if e.mapper.ChoiceMatches(c.label, desired) {
			return i, false
		}
	}
	for i, c := range choices {
		if isOtherOption(c.label) {
			return i, true
		}
	}
	return -1, false
}

// collectChoices reads option labels from ARIA choice widgets, then from
// native inputs wrapped in a label, then from bare native inputs.
func collectChoices(container Element, ariaSelector, nativeSelector string) ([]choiceOption, error) {
	aria, err := container.QueryAll(ariaSelector)
	if err != nil {
		return nil, err
	}
	if len(aria) > 0 {
		choices := make([]choiceOption, 0, len(aria))
		for _, el := range aria {
			choices = append(choices, choiceOption{label: optionLabel(el), el: el})
		}
		return choices, nil
	}

	labels, err := container.QueryAll("label")
	if err != nil {
		return nil, err
	}
	var choices []choiceOption
	for _, label := range labels {
		inputs, err := label.QueryAll(nativeSelector)
		if err != nil || len(inputs) == 0 {
			continue
		}
		text, _ := label.Text()
		choices = append(choices, choiceOption{label: strings.TrimSpace(text), el: inputs[0]})
	}
	if len(choices) > 0 {
		return choices, nil
	}

	inputs, err := container.QueryAll(nativeSelector)
	if err != nil {
		return nil, err
	}
	for _, input := range inputs {
		value, _ := input.Attr("value")
		choices = append(choices, choiceOption{label: value, el: input})
	}
	return choices, nil
}

func optionLabel(el Element) string {
	for _, attr := range []string{"aria-label", "data-value"} {
		if v, _ := el.Attr(attr); strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	text, _ := el.Text()
	return strings.TrimSpace(text)
}

func checkChoice(el Element) error {
	if checked, _ := el.Attr("aria-checked"); checked == "true" {
		return nil
	}
	return el.Click()
}

// fillCompanion writes into the free-text box that accompanies "Other"
func fillCompanion(container Element, value string) error {
	box, err := firstElement(container, textInputSelector+", "+textareaSelector)
	if err != nil {
		return err
	}
	if box == nil {
		return errNoOptionMatched
	}
	return box.Fill(value)
}

func dateLikeTextInput(container Element) (Element, error) {
	inputs, err := container.QueryAll(textInputSelector)
	if err != nil {
		return nil, err
	}
	for _, input := range inputs {
		if placeholder, _ := input.Attr("placeholder"); datePlaceholder.MatchString(placeholder) {
			return input, nil
		}
	}
	return nil, nil
}

func firstElement(root Queryable, selector string) (Element, error) {
	elements, err := root.QueryAll(selector)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, nil
	}
	return elements[0], nil
}

func hasAny(root Queryable, selectors ...string) (bool, error) {
	elements, _, err := queryAny(root, selectors)
	return len(elements) > 0, err
}

func orNotApplicable(err error) error {
	if err != nil {
		return err
	}
	return errNotApplicable
}
