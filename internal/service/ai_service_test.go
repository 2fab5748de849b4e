package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"socialhub/internal/ai"
	"socialhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAIConfig = AIConfig{TextModel: "text-model", AnalysisModel: "analysis-model", Timeout: time.Second}

func postWithComments(comments ...models.Comment) *postRepoStub {
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		if id != 1 {
			return nil, models.NewNotFoundError("Post", id)
		}
		return &models.Post{ID: 1, Content: "Launch day", Comments: comments}, nil
	}
	return repo
}

func countingGenerator(calls *int, out string, err error) ai.Generator {
	return ai.GeneratorFunc(func(_ context.Context, _ ai.Request) (string, error) {
		*calls++
		return out, err
	})
}

func TestAIService_ZeroCommentsSkipsModel(t *testing.T) {
	t.Parallel()
	calls := 0
	svc := NewAIService(countingGenerator(&calls, "unused", nil), postWithComments(), testAIConfig)

	summary, err := svc.SummarizeComments(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, ai.NoCommentsSummary, summary)

	suggestion, err := svc.SuggestReply(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, ai.NoCommentsSuggestion, suggestion)
	assert.Equal(t, 0, calls)
}

func TestAIService_SummarizeComments(t *testing.T) {
	t.Parallel()
	var got ai.Request
	gen := ai.GeneratorFunc(func(ctx context.Context, req ai.Request) (string, error) {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		got = req
		return "  A lively thread.  \n", nil
	})
	svc := NewAIService(gen, postWithComments(
		models.Comment{Content: "Congrats", User: models.User{Name: "Jane"}},
		models.Comment{Content: "", User: models.User{Name: "Bob"}},
	), testAIConfig)

	summary, err := svc.SummarizeComments(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "A lively thread.", summary)
	assert.Equal(t, "text-model", got.Model)
	assert.Equal(t, ai.SystemSummaryPrompt, got.System)
	assert.Contains(t, got.Prompt, "- Jane: Congrats\n- Bob: [Media Comment]")
}

func TestAIService_Failures(t *testing.T) {
	t.Parallel()
	calls := 0
	svc := NewAIService(countingGenerator(&calls, "", errors.New("quota")), postWithComments(
		models.Comment{Content: "hi", User: models.User{Name: "Jane"}},
	), testAIConfig)

	_, err := svc.SummarizeComments(context.Background(), 2)
	appErr := assertAppError(t, err, models.CodeNotFound)
	assert.Equal(t, MsgAIPostNotFound, appErr.Message)

	_, err = svc.SummarizeComments(context.Background(), 1)
	appErr = assertAppError(t, err, models.CodeUpstream)
	assert.Equal(t, MsgSummarizeFailed, appErr.Message)

	_, err = svc.SuggestReply(context.Background(), 1)
	appErr = assertAppError(t, err, models.CodeUpstream)
	assert.Equal(t, MsgSuggestFailed, appErr.Message)
}

func TestAIService_AnalyzeResume(t *testing.T) {
	t.Parallel()
	const good = `{"resumeQualityScore": 70, "jobReadinessScore": 60, "analysisSummary": "ok",
		"keywordsPresent": ["Go"], "keywordsMissing": [], "suggestions": {"structure": "", "skills": "", "achievements": ""}}`
	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n%%EOF")

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		calls := 0
		svc := NewAIService(countingGenerator(&calls, good, nil), noopPostRepo(), testAIConfig)
		cases := []ResumeInput{
			{PortfolioLink: "https://me.dev"},
			{RolePreference: "Engineer"},
			{RolePreference: "Engineer", Resume: pdf, PortfolioLink: "https://me.dev"},
			{RolePreference: "Engineer", PortfolioLink: "ftp://me.dev"},
			{RolePreference: "Engineer", Resume: []byte("plain text, not a pdf")},
			{RolePreference: "Engineer", Resume: append([]byte("%PDF-1.4"), make([]byte, MaxResumeBytes)...)},
		}
		for _, in := range cases {
			_, err := svc.AnalyzeResume(context.Background(), in)
			assertAppError(t, err, models.CodeValidation)
		}
		assert.Equal(t, 0, calls)
	})

	t.Run("pdf attached", func(t *testing.T) {
		t.Parallel()
		var got ai.Request
		gen := ai.GeneratorFunc(func(_ context.Context, req ai.Request) (string, error) {
			got = req
			return good, nil
		})
		res, err := NewAIService(gen, noopPostRepo(), testAIConfig).AnalyzeResume(context.Background(),
			ResumeInput{RolePreference: "Engineer", Resume: pdf})
		require.NoError(t, err)
		assert.Equal(t, 70.0, res.ResumeQualityScore)
		assert.Equal(t, "analysis-model", got.Model)
		assert.Equal(t, ai.FormatResumeAnalysis, got.Format)
		require.Len(t, got.Attachments, 1)
		assert.Equal(t, "application/pdf", got.Attachments[0].MIMEType)
	})

	t.Run("portfolio link", func(t *testing.T) {
		t.Parallel()
		var got ai.Request
		gen := ai.GeneratorFunc(func(_ context.Context, req ai.Request) (string, error) {
			got = req
			return "```json\n" + good + "\n```", nil
		})
		_, err := NewAIService(gen, noopPostRepo(), testAIConfig).AnalyzeResume(context.Background(),
			ResumeInput{RolePreference: "Engineer", PortfolioLink: "https://me.dev/work"})
		require.NoError(t, err)
		assert.Empty(t, got.Attachments)
		assert.Contains(t, got.Prompt, "https://me.dev/work")
	})

	t.Run("malformed output", func(t *testing.T) {
		t.Parallel()
		calls := 0
		_, err := NewAIService(countingGenerator(&calls, "Sorry, I can't do that", nil), noopPostRepo(), testAIConfig).
			AnalyzeResume(context.Background(), ResumeInput{RolePreference: "Engineer", PortfolioLink: "https://me.dev"})
		appErr := assertAppError(t, err, models.CodeMalformedAIOutput)
		assert.Equal(t, "AI returned malformed output", appErr.Message)
		assert.ErrorIs(t, err, ai.ErrMalformedOutput)
	})

	t.Run("upstream failure", func(t *testing.T) {
		t.Parallel()
		_, err := NewAIService(nil, noopPostRepo(), testAIConfig).
			AnalyzeResume(context.Background(), ResumeInput{RolePreference: "Engineer", PortfolioLink: "https://me.dev"})
		appErr := assertAppError(t, err, models.CodeUpstream)
		assert.Equal(t, MsgAnalyzeFailed, appErr.Message)
	})
}
