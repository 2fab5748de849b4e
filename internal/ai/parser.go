package ai

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrMalformedOutput marks model output that does not match the expected shape.
var ErrMalformedOutput = errors.New("malformed model output")

// Suggestions holds per-area improvement advice.
type Suggestions struct {
	Structure    string `json:"structure"`
	Skills       string `json:"skills"`
	Achievements string `json:"achievements"`
}

// ResumeAnalysis is the structured result of a resume review.
type ResumeAnalysis struct {
	ResumeQualityScore float64     `json:"resumeQualityScore"`
	JobReadinessScore  float64     `json:"jobReadinessScore"`
	AnalysisSummary    string      `json:"analysisSummary"`
	KeywordsPresent    []string    `json:"keywordsPresent"`
	KeywordsMissing    []string    `json:"keywordsMissing"`
	Suggestions        Suggestions `json:"suggestions"`
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedOutput, fmt.Sprintf(format, args...))
}

// extractJSON strips markdown fences and surrounding prose, returning the
// outermost JSON object.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

// ParseResumeAnalysis validates raw model output and decodes it.
func ParseResumeAnalysis(raw string) (*ResumeAnalysis, error) {
	body := extractJSON(raw)
	if body == "" || !gjson.Valid(body) {
		return nil, malformed("no JSON object in response")
	}
	doc := gjson.Parse(body)

	out := &ResumeAnalysis{}
	var err error
	if out.ResumeQualityScore, err = score(doc, "resumeQualityScore"); err != nil {
		return nil, err
	}
	if out.JobReadinessScore, err = score(doc, "jobReadinessScore"); err != nil {
		return nil, err
	}

	summary := doc.Get("analysisSummary")
	if summary.Type != gjson.String || strings.TrimSpace(summary.Str) == "" {
		return nil, malformed("analysisSummary missing")
	}
	out.AnalysisSummary = summary.Str

	if out.KeywordsPresent, err = stringList(doc, "keywordsPresent"); err != nil {
		return nil, err
	}
	if out.KeywordsMissing, err = stringList(doc, "keywordsMissing"); err != nil {
		return nil, err
	}

	sug := doc.Get("suggestions")
	if !sug.IsObject() {
		return nil, malformed("suggestions missing")
	}
	out.Suggestions = Suggestions{
		Structure:    sug.Get("structure").String(),
		Skills:       sug.Get("skills").String(),
		Achievements: sug.Get("achievements").String(),
	}
	return out, nil
}

func score(doc gjson.Result, field string) (float64, error) {
	v := doc.Get(field)
	if v.Type != gjson.Number {
		return 0, malformed("%s missing or not a number", field)
	}
	if v.Num < 1 || v.Num > 100 {
		return 0, malformed("%s out of range: %v", field, v.Num)
	}
	return v.Num, nil
}

func stringList(doc gjson.Result, field string) ([]string, error) {
	v := doc.Get(field)
	if !v.IsArray() {
		return nil, malformed("%s missing or not a list", field)
	}
	items := v.Array()
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item.Type != gjson.String {
			return nil, malformed("%s contains a non-string entry", field)
		}
		out = append(out, item.Str)
	}
	return out, nil
}
