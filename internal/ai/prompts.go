package ai

import (
	"fmt"
	"strings"
)

const (
	SystemSummaryPrompt = "You are a professional assistant summarizing discussions on a social platform. " +
		"Your goal is to write a clear, concise, and neutral summary of the conversation around a specific post in 3-5 sentences."

	SystemReplyPrompt = "You are an expert social media assistant helping users craft thoughtful, professional replies to discussions. " +
		"Your suggestions should be clear, relevant, and respectful. " +
		"Provide only the suggested reply text, without any introductory phrases or greetings."

	SystemResumePrompt = "You are an experienced technical recruiter and career coach. " +
		"Evaluate resumes and portfolios honestly and return only the requested JSON object."

	NoCommentsSummary    = "No comments yet. There is nothing to summarize."
	NoCommentsSuggestion = "Be the first to comment! Start by introducing a key question or insight."

	mediaOnlyPost    = "[Original Post: Media only]"
	mediaOnlyComment = "[Media Comment]"
)

// CommentLine is one comment rendered into a prompt.
type CommentLine struct {
	Author  string
	Content string
}

// Discussion is the post and its comments in chronological order.
type Discussion struct {
	PostContent string
	Comments    []CommentLine
}

func (d Discussion) post() string {
	if strings.TrimSpace(d.PostContent) == "" {
		return mediaOnlyPost
	}
	return d.PostContent
}

func (d Discussion) comments() string {
	lines := make([]string, 0, len(d.Comments))
	for _, c := range d.Comments {
		content := c.Content
		if strings.TrimSpace(content) == "" {
			content = mediaOnlyComment
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", c.Author, content))
	}
	return strings.Join(lines, "\n")
}

// SummaryPrompt asks for a neutral summary of the discussion.
func SummaryPrompt(d Discussion) string {
	return fmt.Sprintf("Original Post:\n---\n%s\n---\n\nDiscussion/Comments:\n---\n%s\n---\n\n"+
		"Please provide the summary requested in the system instructions.", d.post(), d.comments())
}

// ReplyPrompt asks for a reply the reader could post.
func ReplyPrompt(d Discussion) string {
	return fmt.Sprintf("Based on the following original post and subsequent comments, generate a thoughtful reply.\n\n"+
		"Original Post:\n---\n%s\n---\n\nComments:\n---\n%s\n---\n\n"+
		"Please provide the suggested reply text as directed by the system instructions.", d.post(), d.comments())
}

// ResumePrompt frames the analysis for the desired role. portfolioLink is empty
// when a PDF is attached instead.
func ResumePrompt(rolePreference, portfolioLink string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The candidate is targeting the following role: %s.\n\n", rolePreference)
	if portfolioLink != "" {
		fmt.Fprintf(&b, "Analyze the candidate's online portfolio at: %s\n\n", portfolioLink)
	} else {
		b.WriteString("Analyze the attached resume PDF.\n\n")
	}
	b.WriteString("Score resume quality (structure, clarity, grammar) and job readiness for the target role from 1 to 100, " +
		"summarize the analysis, list relevant keywords that are present and missing, " +
		"and give concrete suggestions for structure, skills and achievements.")
	return b.String()
}
