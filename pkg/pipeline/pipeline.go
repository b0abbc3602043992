// Package pipeline wires templates, retrieval, prompt composition, and
// generation into the two end-to-end operations: template recommendation
// and caption generation.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DiscountLegolas/memegen/pkg/caption"
	"github.com/DiscountLegolas/memegen/pkg/exemplar"
	"github.com/DiscountLegolas/memegen/pkg/lang"
	"github.com/DiscountLegolas/memegen/pkg/prompt"
	"github.com/DiscountLegolas/memegen/pkg/recommend"
	"github.com/DiscountLegolas/memegen/pkg/retrieve"
	"github.com/DiscountLegolas/memegen/pkg/template"
)

// Sampling temperatures per generation path. The freeform path runs
// slightly hotter because it has no template structure to lean on.
const (
	templateTemperature = 0.6
	freeformTemperature = 0.7
)

// Pipeline is the top-level façade over the caption system.
// It is safe for concurrent use.
type Pipeline struct {
	templates    map[string]*template.Template
	recommender  *recommend.Recommender
	retriever    *retrieve.Retriever
	composer     *prompt.Composer
	orchestrator *caption.Orchestrator
	logger       *slog.Logger
}

// Config collects the pipeline's collaborators.
type Config struct {
	Templates    map[string]*template.Template
	Recommender  *recommend.Recommender
	Retriever    *retrieve.Retriever
	Composer     *prompt.Composer
	Orchestrator *caption.Orchestrator
	Logger       *slog.Logger
}

// New creates a pipeline from cfg.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Orchestrator == nil {
		return nil, fmt.Errorf("pipeline: orchestrator required")
	}
	if cfg.Composer == nil {
		return nil, fmt.Errorf("pipeline: composer required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		templates:    cfg.Templates,
		recommender:  cfg.Recommender,
		retriever:    cfg.Retriever,
		composer:     cfg.Composer,
		orchestrator: cfg.Orchestrator,
		logger:       logger,
	}, nil
}

// Template returns a template by key.
func (p *Pipeline) Template(key string) (*template.Template, bool) {
	t, ok := p.templates[key]
	return t, ok
}

// Templates returns the loaded template collection.
func (p *Pipeline) Templates() map[string]*template.Template {
	return p.templates
}

// RecommendTemplates ranks the loaded templates against query. The query
// is resolved to English first so ranking happens in the corpus language.
func (p *Pipeline) RecommendTemplates(ctx context.Context, query string, topN int) ([]recommend.Scored, error) {
	english, detected := p.composer.ResolveTopic(ctx, query)
	p.logger.Debug("recommend query resolved", "language", detected)
	return p.recommender.Recommend(ctx, p.templates, english, topN)
}

// Request is one caption generation request.
type Request struct {
	// Topic is the subject for the captions, in any supported language.
	Topic string

	// TemplateKey selects a template; empty requests freeform generation
	// with a connected caption sequence.
	TemplateKey string

	// SlotCount is the number of captions to generate. For template
	// requests, 0 means the template's own slot count.
	SlotCount int

	// Language forces the output language; empty uses the topic's
	// detected language.
	Language lang.Language

	// ImageDescription optionally grounds freeform generation in an
	// image.
	ImageDescription string

	// TopK caps retrieved exemplars; 0 uses the retriever default.
	TopK int
}

// GenerateCaptions runs the full path for one request: topic resolution,
// exemplar retrieval, prompt composition, and orchestrated generation. On
// success it returns exactly the requested number of sanitized captions,
// in slot order.
func (p *Pipeline) GenerateCaptions(ctx context.Context, req *Request) ([]string, error) {
	english, detected := p.composer.ResolveTopic(ctx, req.Topic)
	language := req.Language
	if language == "" {
		language = detected
	}

	var (
		tpl         *template.Template
		slots       = req.SlotCount
		temperature = freeformTemperature
	)
	if req.TemplateKey != "" {
		t, ok := p.templates[req.TemplateKey]
		if !ok {
			return nil, fmt.Errorf("pipeline: unknown template %q", req.TemplateKey)
		}
		tpl = t
		if slots == 0 {
			slots = t.SlotCount()
		}
		if slots != t.SlotCount() {
			return nil, fmt.Errorf("pipeline: template %q has %d slots, requested %d", req.TemplateKey, t.SlotCount(), slots)
		}
		temperature = templateTemperature
	}
	if slots < 1 || slots > caption.MaxSlots {
		return nil, fmt.Errorf("pipeline: slot count %d out of range [1, %d]", slots, caption.MaxSlots)
	}

	exemplars := p.retrieveExemplars(ctx, req, english, slots)

	composed, err := p.composer.Compose(ctx, &prompt.Request{
		Topic:            req.Topic,
		TopicEnglish:     english,
		Language:         language,
		Template:         tpl,
		SlotCount:        slots,
		Exemplars:        exemplars,
		ImageDescription: req.ImageDescription,
	})
	if err != nil {
		return nil, err
	}

	return p.orchestrator.Run(ctx, &caption.SchemaRequest{
		System:      composed.System,
		Context:     composed.Context,
		Prompt:      composed.Instructions,
		SchemaName:  "meme_captions",
		Schema:      caption.Schema(slots),
		Temperature: temperature,
	}, slots)
}

// retrieveExemplars fetches grounding exemplars for the request. A nil
// retriever or a retrieval failure degrades to no exemplars: the prompt
// loses grounding but the request still runs.
func (p *Pipeline) retrieveExemplars(ctx context.Context, req *Request, query string, slots int) []exemplar.Document {
	if p.retriever == nil {
		return nil
	}
	var (
		docs []exemplar.Document
		err  error
	)
	if req.TemplateKey != "" {
		docs, err = p.retriever.Retrieve(ctx, req.TemplateKey, query, slots, req.TopK)
	} else {
		docs, err = p.retriever.RetrieveUnion(ctx, query, slots, req.TopK)
	}
	if err != nil {
		p.logger.Warn("exemplar retrieval failed, generating without grounding", "err", err)
		return nil
	}
	return docs
}
