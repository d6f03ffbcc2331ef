package services

import (
	"context"
	"strings"
	"time"

	"formfill/utils"
)

// SubmissionCheckerService looks for signs that a form submission went through
type SubmissionCheckerService struct {
	pollInterval time.Duration
}

func NewSubmissionCheckerService(pollInterval time.Duration) *SubmissionCheckerService {
	if pollInterval <= 0 {
		pollInterval = 250 * time.Millisecond
	}
	return &SubmissionCheckerService{pollInterval: pollInterval}
}

var (
	successURLKeywords = []string{
		"formresponse",
		"success",
		"confirmation",
		"thank",
		"complete",
		"submitted",
		"received",
	}
	successTitleKeywords = []string{
		"thank you",
		"success",
		"submitted",
		"complete",
		"received",
		"confirmation",
	}
	successTextPhrases = []string{
		"your response has been recorded",
		"thank you for your response",
		"thanks for submitting",
		"submission successful",
		"successfully submitted",
		"form submitted",
		"we have received your",
		"response recorded",
	}
	successSelectors = []string{
		`[class*="success"]`,
		`[class*="confirmation"]`,
		`[class*="submitted"]`,
		`[data-testid*="success"]`,
		`[data-testid*="confirmation"]`,
	}
)

// WaitForSuccess polls CheckForSuccess until it reports true or d elapses
func (s *SubmissionCheckerService) WaitForSuccess(ctx context.Context, page Page, d time.Duration) (bool, error) {
	deadline := time.Now().Add(d)
	for {
		ok, err := s.CheckForSuccess(page)
		if err != nil || ok {
			return ok, err
		}
		if time.Now().After(deadline) {
			return false, nil
		}
		if err := page.Wait(ctx, s.pollInterval); err != nil {
			return false, err
		}
	}
}

// CheckForSuccess checks the URL, the title and the page text for
// confirmation markers
func (s *SubmissionCheckerService) CheckForSuccess(page Page) (bool, error) {
	if page.IsClosed() {
		return false, ErrPageUnavailable
	}

	pageURL := page.URL()
	if s.checkURLForSuccess(pageURL) {
		utils.LogInfo("Found success keyword in URL", map[string]interface{}{"url": pageURL})
		return true, nil
	}

	pageTitle, err := page.Title()
	if err != nil && isPageClosed(err) {
		return false, err
	}
	if s.checkTitleForSuccess(pageTitle) {
		utils.LogInfo("Found success keyword in title", map[string]interface{}{"title": pageTitle})
		return true, nil
	}

	bodies, err := page.QueryAll("body")
	if err != nil && isPageClosed(err) {
		return false, err
	}
	for _, body := range bodies {
		text, _ := body.Text()
		normalized := Normalize(text)
		for _, phrase := range successTextPhrases {
			if containsWords(normalized, Normalize(phrase)) {
				utils.LogInfo("Found success text", map[string]interface{}{"phrase": phrase})
				return true, nil
			}
		}
	}

	el, selector, err := firstVisible(page, successSelectors)
	if err != nil {
		return false, err
	}
	if el != nil {
		utils.LogInfo("Found success indicator", map[string]interface{}{"selector": selector})
		return true, nil
	}

	return false, nil
}

func (s *SubmissionCheckerService) checkURLForSuccess(url string) bool {
	urlLower := strings.ToLower(url)
	for _, keyword := range successURLKeywords {
		if strings.Contains(urlLower, keyword) {
			return true
		}
	}
	return false
}

func (s *SubmissionCheckerService) checkTitleForSuccess(title string) bool {
	titleLower := strings.ToLower(title)
	for _, keyword := range successTitleKeywords {
		if strings.Contains(titleLower, keyword) {
			return true
		}
	}
	return false
}
