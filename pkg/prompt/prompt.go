// Package prompt assembles generation instructions from a topic, template
// metadata, and retrieved exemplars.
//
// The composed instructions always state the exact caption count and the
// exact caption1..captionN field naming, because the downstream schema
// validation is strict on both. Instructions are written in the target
// language (English or Turkish); the topic is resolved to English
// internally so retrieval and ranking operate on one language.
package prompt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/DiscountLegolas/memegen/pkg/exemplar"
	"github.com/DiscountLegolas/memegen/pkg/lang"
	"github.com/DiscountLegolas/memegen/pkg/template"
)

// maxExamplePairs is the cap on exemplar caption-sets shown as
// illustrative pairs in the instructions.
const maxExamplePairs = 5

// Request carries everything needed to compose one generation prompt.
type Request struct {
	// Topic is the user's topic in its original language.
	Topic string

	// TopicEnglish is the topic resolved to English (see
	// [Composer.ResolveTopic]). Used in English instructions.
	TopicEnglish string

	// Language is the target language for the instructions.
	Language lang.Language

	// Template is the chosen template; nil composes the no-template
	// variant, which asks for a connected caption sequence.
	Template *template.Template

	// SlotCount is the exact number of captions to request.
	SlotCount int

	// Exemplars are the retrieved caption sets grounding the request.
	Exemplars []exemplar.Document

	// ImageDescription optionally describes the source image for the
	// no-template variant.
	ImageDescription string
}

// Composed is the assembled generation request text.
type Composed struct {
	// System is the system-role instruction.
	System string

	// Context is the retrieved-exemplar grounding block (JSON lines);
	// empty when no exemplars were retrieved.
	Context string

	// Instructions is the user-facing prompt.
	Instructions string
}

// Composer builds prompts. It is safe for concurrent use.
type Composer struct {
	detector   *lang.Detector
	translator lang.Translator
	logger     *slog.Logger
}

// NewComposer creates a composer with the given detector and translator.
func NewComposer(detector *lang.Detector, translator lang.Translator) *Composer {
	return &Composer{
		detector:   detector,
		translator: translator,
		logger:     slog.Default(),
	}
}

// ResolveTopic detects the topic language and returns the topic in
// English for retrieval, plus the detected language. Translation is
// best-effort: on failure the original text is used and the error is
// logged, not returned.
func (c *Composer) ResolveTopic(ctx context.Context, topic string) (english string, detected lang.Language) {
	detected = c.detector.Detect(topic)
	if detected == lang.English {
		return topic, detected
	}
	translated, err := c.translator.Translate(ctx, topic, lang.Auto, lang.English)
	if err != nil {
		c.logger.Warn("topic translation failed, using original", "err", err)
		return topic, detected
	}
	return translated, detected
}

// Compose assembles the final prompt for a request.
func (c *Composer) Compose(ctx context.Context, req *Request) (*Composed, error) {
	if req.SlotCount < 1 {
		return nil, fmt.Errorf("prompt: slot count %d", req.SlotCount)
	}

	var instructions string
	if req.Template == nil {
		instructions = c.composeFreeform(req)
	} else {
		instructions = c.composeTemplated(ctx, req)
	}

	return &Composed{
		System:       systemText(req.Language),
		Context:      formatContext(req.Exemplars),
		Instructions: instructions,
	}, nil
}

func systemText(l lang.Language) string {
	if l == lang.Turkish {
		return "Bir RAG asistanısın. Sağlanan bağlamı kullan."
	}
	return "You are a RAG assistant. Use the provided context."
}

func (c *Composer) composeTemplated(ctx context.Context, req *Request) string {
	explanation := req.Template.Explanation
	if req.Language == lang.Turkish {
		translated, err := c.translator.Translate(ctx, explanation, lang.Auto, lang.Turkish)
		if err != nil {
			c.logger.Warn("explanation translation failed, using original", "err", err)
		} else {
			explanation = translated
		}
	}

	var sb strings.Builder
	if req.Language == lang.Turkish {
		fmt.Fprintf(&sb, "'%s' hakkında %d komik altyazı oluştur.\n\n", req.Topic, req.SlotCount)
		fmt.Fprintf(&sb, "ÖNEMLİ: Aşağıdaki yapıda GEÇERLİ bir JSON nesnesi döndürmelisin:\n%s\n\n", schemaSkeleton(req.SlotCount))
		fmt.Fprintf(&sb, "Aşağıdaki şablonu kullan: %s\n", explanation)
		sb.WriteString("Altyazılar kısa, doğal ve akılda kalıcı olsun.\n")
		sb.WriteString("SADECE JSON nesnesini döndür; ek açıklama veya biçimlendirme ekleme.")
	} else {
		fmt.Fprintf(&sb, "Create %d funny captions about '%s'.\n\n", req.SlotCount, req.TopicEnglish)
		fmt.Fprintf(&sb, "IMPORTANT: You must return a valid JSON object with the following structure:\n%s\n\n", schemaSkeleton(req.SlotCount))
		fmt.Fprintf(&sb, "Use the following template: %s\n", explanation)
		sb.WriteString("Make the captions short and memorable.\n")
		sb.WriteString("Return ONLY the JSON object, no additional text or formatting.")
	}

	if pairs := formatExamplePairs(req.Exemplars); pairs != "" {
		if req.Language == lang.Turkish {
			fmt.Fprintf(&sb, "\n\nÖNEMLİ: Bu şablon için örnek altyazı çiftleri:\n%s", pairs)
		} else {
			fmt.Fprintf(&sb, "\n\nIMPORTANT: Example caption pairs for this template:\n%s", pairs)
		}
	}

	if req.Language == lang.Turkish {
		fmt.Fprintf(&sb, "\n\nYukarıda belirtilen JSON formatına uygun şekilde tam olarak %d altyazı üret.", req.SlotCount)
	} else {
		fmt.Fprintf(&sb, "\n\nGenerate exactly %d captions in the JSON format specified above.", req.SlotCount)
	}
	return sb.String()
}

func (c *Composer) composeFreeform(req *Request) string {
	var sb strings.Builder
	if req.ImageDescription != "" {
		fmt.Fprintf(&sb, "Here is a factual description of the image: %q.\n\n", req.ImageDescription)
		fmt.Fprintf(&sb, "Your task is to turn this description into %d funny meme-style captions.\n", req.SlotCount)
	} else {
		fmt.Fprintf(&sb, "Create %d funny meme-style captions about '%s'.\n", req.SlotCount, req.TopicEnglish)
	}
	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- The captions must be connected to each other like a sequence:\n")
	sb.WriteString("- For 2 captions: the second one should feel like a direct response to the first.\n")
	sb.WriteString("- For 3 or more captions: each caption should feel like a continuation of the previous one\n")
	sb.WriteString("  (like a back-and-forth conversation, reaction, or chain of events).\n")
	sb.WriteString("- They must form a coherent mini-story or dialogue.\n\n")
	fmt.Fprintf(&sb, "IMPORTANT: You must return a valid JSON object with the following structure:\n%s\n\n", schemaSkeleton(req.SlotCount))
	sb.WriteString("CRITICAL RULES:\n")
	sb.WriteString("- Each field must contain exactly one caption.\n")
	sb.WriteString("- Return ONLY the JSON object, no extra text.\n")
	fmt.Fprintf(&sb, "- Generate exactly %d captions, following the JSON format above.", req.SlotCount)
	return sb.String()
}

// schemaSkeleton renders the exact field-naming scheme for n captions,
// e.g. { "caption1": "first caption", "caption2": "second caption" }.
func schemaSkeleton(n int) string {
	ordinals := []string{"first", "second", "third", "fourth", "fifth"}
	fields := make([]string, n)
	for i := 0; i < n; i++ {
		ord := "next"
		if i < len(ordinals) {
			ord = ordinals[i]
		}
		fields[i] = fmt.Sprintf("%q: %q", fmt.Sprintf("caption%d", i+1), ord+" caption")
	}
	return "{ " + strings.Join(fields, ", ") + " }"
}

// formatExamplePairs renders up to 5 exemplar caption-sets as
// illustrative lines.
func formatExamplePairs(docs []exemplar.Document) string {
	var lines []string
	for _, d := range docs {
		if len(lines) >= maxExamplePairs {
			break
		}
		parts := make([]string, len(d.Boxes))
		for i, b := range d.Boxes {
			parts[i] = fmt.Sprintf("caption%d: %q", i+1, b)
		}
		lines = append(lines, "- "+strings.Join(parts, " | "))
	}
	return strings.Join(lines, "\n")
}

// formatContext renders retrieved exemplars as one JSON document per line.
func formatContext(docs []exemplar.Document) string {
	var lines []string
	for _, d := range docs {
		raw, err := json.Marshal(d)
		if err != nil {
			continue
		}
		lines = append(lines, string(raw))
	}
	return strings.Join(lines, "\n")
}
