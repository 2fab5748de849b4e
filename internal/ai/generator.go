// Package ai wraps the generative model behind a small Generator interface and
// keeps prompt construction and output validation next to it.
package ai

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when no API key was provided.
var ErrNotConfigured = errors.New("ai generator is not configured")

// Format selects the response shape requested from the model.
type Format int

const (
	FormatText Format = iota
	FormatResumeAnalysis
)

// Attachment is inline binary input such as a PDF resume.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// Request is one model call.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Attachments []Attachment
	Format      Format
}

// Generator produces raw model text for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

type unconfigured struct{}

func (unconfigured) Generate(context.Context, Request) (string, error) {
	return "", ErrNotConfigured
}

// Unconfigured returns a Generator that always fails with ErrNotConfigured.
func Unconfigured() Generator { return unconfigured{} }
