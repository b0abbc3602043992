package caption

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/genai"
)

// GeminiGenerator implements [Generator] using the Gemini API with a
// response schema constraining the output to JSON.
type GeminiGenerator struct {
	Client *genai.Client
	Model  string
}

var _ Generator = (*GeminiGenerator)(nil)

func (g *GeminiGenerator) Generate(ctx context.Context, req *SchemaRequest) (*Result, error) {
	temp := float32(req.Temperature)
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   geminiConvSchema(req.Schema),
		Temperature:      &temp,
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(req.System)},
		}
	}

	var contents []*genai.Content
	if req.Context != "" {
		contents = append(contents, &genai.Content{
			Role:  "model",
			Parts: []*genai.Part{genai.NewPartFromText("Context:\n" + req.Context)},
		})
	}
	contents = append(contents, &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{genai.NewPartFromText(req.Prompt)},
	})

	resp, err := g.Client.Models.GenerateContent(ctx, g.Model, contents, cfg)
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 {
		return nil, errors.New("caption: no candidates")
	}
	c := resp.Candidates[0]
	if c.FinishReason != genai.FinishReasonStop {
		return nil, fmt.Errorf("caption: unexpected finish reason: %s", c.FinishReason)
	}
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		if p.Text != "" {
			sb.WriteString(p.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, errors.New("caption: no content")
	}
	return &Result{JSON: sb.String()}, nil
}

// geminiConvSchema converts the subset of JSON schema the caption schema
// uses into the Gemini schema type.
func geminiConvSchema(schema *jsonschema.Schema) *genai.Schema {
	if schema == nil {
		return nil
	}
	gs := genai.Schema{
		Description: schema.Description,
		Items:       geminiConvSchema(schema.Items),
		Required:    schema.Required,
	}
	if n := len(schema.Properties); n > 0 {
		gs.Properties = make(map[string]*genai.Schema, n)
		for k, prop := range schema.Properties {
			gs.Properties[k] = geminiConvSchema(prop)
		}
	}
	switch schema.Type {
	case "object":
		gs.Type = genai.TypeObject
	case "array":
		gs.Type = genai.TypeArray
	case "string":
		gs.Type = genai.TypeString
	case "number":
		gs.Type = genai.TypeNumber
	case "integer":
		gs.Type = genai.TypeInteger
	case "boolean":
		gs.Type = genai.TypeBoolean
	}
	return &gs
}
