package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"socialhub/internal/ai"
	"socialhub/internal/middleware"
	"socialhub/internal/models"
	"socialhub/internal/observability"
	"socialhub/internal/repository"

	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/otel/attribute"
)

const (
	MsgAIPostNotFound    = "Post not found."
	MsgSummarizeFailed   = "Failed to summarize comments"
	MsgSuggestFailed     = "Failed to suggest a reply"
	MsgAnalyzeFailed     = "Failed to analyze resume"
	MaxResumeBytes       = 5 << 20
	resumeMIME           = "application/pdf"
	opSummarize          = "summarize"
	opSuggest            = "suggest"
	opAnalyzeResume      = "analyze_resume"
	outcomeOK            = "ok"
	outcomeUpstreamError = "upstream_error"
	outcomeMalformed     = "malformed"
)

type AIConfig struct {
	TextModel     string
	AnalysisModel string
	Timeout       time.Duration
}

type AIService struct {
	gen   ai.Generator
	posts repository.PostRepository
	cfg   AIConfig
}

// ResumeInput requires RolePreference and exactly one of Resume or PortfolioLink.
type ResumeInput struct {
	RolePreference string
	Resume         []byte
	PortfolioLink  string
}

func NewAIService(gen ai.Generator, posts repository.PostRepository, cfg AIConfig) *AIService {
	if gen == nil {
		gen = ai.Unconfigured()
	}
	return &AIService{gen: gen, posts: posts, cfg: cfg}
}

func (s *AIService) discussion(ctx context.Context, postID uint) (ai.Discussion, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if hasCode(err, models.CodeNotFound) {
			return ai.Discussion{}, models.NewNotFoundMessage(MsgAIPostNotFound)
		}
		return ai.Discussion{}, err
	}
	d := ai.Discussion{PostContent: post.Content}
	for _, c := range post.Comments {
		d.Comments = append(d.Comments, ai.CommentLine{Author: c.User.Name, Content: c.Content})
	}
	return d, nil
}

// SummarizeComments summarizes the discussion under a post. A post without
// comments gets a canned answer and the model is not called.
func (s *AIService) SummarizeComments(ctx context.Context, postID uint) (string, error) {
	d, err := s.discussion(ctx, postID)
	if err != nil {
		return "", err
	}
	if len(d.Comments) == 0 {
		return ai.NoCommentsSummary, nil
	}
	out, err := s.generate(ctx, opSummarize, ai.Request{
		Model:  s.cfg.TextModel,
		System: ai.SystemSummaryPrompt,
		Prompt: ai.SummaryPrompt(d),
	})
	if err != nil {
		return "", models.NewUpstreamError(MsgSummarizeFailed, err)
	}
	s.record(opSummarize, outcomeOK)
	return strings.TrimSpace(out), nil
}

// SuggestReply drafts a reply to the discussion under a post.
func (s *AIService) SuggestReply(ctx context.Context, postID uint) (string, error) {
	d, err := s.discussion(ctx, postID)
	if err != nil {
		return "", err
	}
	if len(d.Comments) == 0 {
		return ai.NoCommentsSuggestion, nil
	}
	out, err := s.generate(ctx, opSuggest, ai.Request{
		Model:  s.cfg.TextModel,
		System: ai.SystemReplyPrompt,
		Prompt: ai.ReplyPrompt(d),
	})
	if err != nil {
		return "", models.NewUpstreamError(MsgSuggestFailed, err)
	}
	s.record(opSuggest, outcomeOK)
	return strings.TrimSpace(out), nil
}

// AnalyzeResume scores a PDF resume or a portfolio link against the desired role.
func (s *AIService) AnalyzeResume(ctx context.Context, in ResumeInput) (*ai.ResumeAnalysis, error) {
	req, err := s.resumeRequest(in)
	if err != nil {
		return nil, err
	}

	raw, err := s.generate(ctx, opAnalyzeResume, req)
	if err != nil {
		return nil, models.NewUpstreamError(MsgAnalyzeFailed, err)
	}

	analysis, err := ai.ParseResumeAnalysis(raw)
	if err != nil {
		s.record(opAnalyzeResume, outcomeMalformed)
		middleware.Logger.WarnContext(ctx, "resume analysis output rejected", "error", err)
		return nil, models.NewMalformedAIOutputError(err)
	}
	s.record(opAnalyzeResume, outcomeOK)
	return analysis, nil
}

func (s *AIService) resumeRequest(in ResumeInput) (ai.Request, error) {
	role := strings.TrimSpace(in.RolePreference)
	if role == "" {
		return ai.Request{}, models.NewValidationError("rolePreference is required")
	}
	link := strings.TrimSpace(in.PortfolioLink)
	hasFile := len(in.Resume) > 0
	if hasFile == (link != "") {
		return ai.Request{}, models.NewValidationError("Provide either a resume PDF or a portfolio link, but not both")
	}

	req := ai.Request{
		Model:  s.cfg.AnalysisModel,
		System: ai.SystemResumePrompt,
		Format: ai.FormatResumeAnalysis,
	}
	if hasFile {
		if len(in.Resume) > MaxResumeBytes {
			return ai.Request{}, models.NewValidationError("Resume PDF must be 5MB or smaller")
		}
		if !mimetype.Detect(in.Resume).Is(resumeMIME) {
			return ai.Request{}, models.NewValidationError("Resume must be a PDF file")
		}
		req.Attachments = []ai.Attachment{{MIMEType: resumeMIME, Data: in.Resume}}
		req.Prompt = ai.ResumePrompt(role, "")
		return req, nil
	}

	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ai.Request{}, models.NewValidationError("portfolioLink must be a valid http(s) URL")
	}
	req.Prompt = ai.ResumePrompt(role, u.String())
	return req, nil
}

// generate runs one model call under the configured timeout and records its
// latency. Failures are counted here; success is counted by the caller once the
// output has been accepted.
func (s *AIService) generate(ctx context.Context, op string, req ai.Request) (string, error) {
	span, ctx := observability.NewSpan(ctx, "ai."+op,
		attribute.String("ai.operation", op),
		attribute.String("ai.model", req.Model))
	defer span.End()

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := s.gen.Generate(ctx, req)
	observability.AIRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		span.SetError(err)
		s.record(op, outcomeUpstreamError)
		middleware.Logger.ErrorContext(ctx, "ai request failed", "operation", op,
			"not_configured", errors.Is(err, ai.ErrNotConfigured), "error", err)
		return "", err
	}
	return out, nil
}

func (s *AIService) record(op, outcome string) {
	observability.AIRequests.WithLabelValues(op, outcome).Inc()
}
