package guidance

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/verte-zerg/echosnap/internal/model"
)

// DefaultModel is the vision model used when none is configured.
const DefaultModel = "gemini-1.5-flash"

// DefaultPrompt asks for one line per category in the parseable format.
const DefaultPrompt = `You are a photography assistant. The first image is the reference photo;
the second is the current camera view. Tell the photographer how to move to
reproduce the reference composition. Answer with exactly one line per
category, in this format and nothing else:
Angle - DIRECTION | details
Distance - DIRECTION | details
Composition - DIRECTION | details
Lighting - DIRECTION | details`

// Request carries one guidance exchange: the reference image, the current
// view, and the instruction prompt.
type Request struct {
	Reference     []byte
	ReferenceMIME string
	Capture       []byte
	CaptureMIME   string
	Prompt        string
	Model         string
	Temperature   float64
}

// Provider answers a guidance request with the model's raw text reply.
type Provider interface {
	Guide(ctx context.Context, req Request) (string, error)
}

// Gemini is a Provider backed by the Google Gemini API. The API key is
// read from the GEMINI_API_KEY environment variable.
type Gemini struct{}

// NewGemini returns a new Gemini provider.
func NewGemini() *Gemini {
	return &Gemini{}
}

// Guide implements Provider.
func (g *Gemini) Guide(ctx context.Context, req Request) (string, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	name := req.Model
	if name == "" {
		name = DefaultModel
	}
	m := client.GenerativeModel(name)
	m.SetTemperature(float32(req.Temperature))

	prompt := req.Prompt
	if prompt == "" {
		prompt = DefaultPrompt
	}
	parts := []genai.Part{
		genai.Text(prompt),
		genai.ImageData(imageFormat(req.ReferenceMIME), req.Reference),
		genai.ImageData(imageFormat(req.CaptureMIME), req.Capture),
	}

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}
	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return string(txt), nil
	}
	return "", fmt.Errorf("unexpected response format from Gemini")
}

func imageFormat(mime string) string {
	format := strings.TrimPrefix(mime, "image/")
	if knownFormat(format) {
		return format
	}
	return "jpeg"
}

func knownFormat(format string) bool {
	switch format {
	case "jpeg", "png", "webp", "heic", "heif":
		return true
	default:
		return false
	}
}

// Fetch asks the provider for guidance and parses the reply. Transport and
// auth failures never escape: they come back as a single error-category
// item so the caller always renders something consistent.
func Fetch(ctx context.Context, p Provider, req Request) []model.GuidanceItem {
	text, err := p.Guide(ctx, req)
	if err != nil {
		return []model.GuidanceItem{{
			Category:  "Error",
			Direction: missingDirection,
			Detail:    err.Error(),
		}}
	}
	return Parse(text)
}
