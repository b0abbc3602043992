package prompt_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/DiscountLegolas/memegen/pkg/exemplar"
	"github.com/DiscountLegolas/memegen/pkg/lang"
	"github.com/DiscountLegolas/memegen/pkg/prompt"
	"github.com/DiscountLegolas/memegen/pkg/template"
)

// prefixTranslator marks translated text so tests can tell it apart from
// the original.
type prefixTranslator struct{}

func (prefixTranslator) Translate(_ context.Context, text string, _, target lang.Language) (string, error) {
	return fmt.Sprintf("[%s]%s", target, text), nil
}

type failTranslator struct{}

func (failTranslator) Translate(context.Context, string, lang.Language, lang.Language) (string, error) {
	return "", fmt.Errorf("backend down")
}

func twoSlotTemplate() *template.Template {
	return &template.Template{
		Key:         "drake",
		Name:        "Drake Hotline Bling",
		Explanation: "rejecting the first option, preferring the second",
		Slots:       []template.Slot{{ID: 1}, {ID: 2}},
	}
}

func TestResolveTopicEnglishPassthrough(t *testing.T) {
	c := prompt.NewComposer(lang.NewDetector(), failTranslator{})
	got, detected := c.ResolveTopic(context.Background(), "the cat refuses to move from the keyboard")
	if detected != lang.English {
		t.Errorf("detected = %s, want en", detected)
	}
	if got != "the cat refuses to move from the keyboard" {
		t.Errorf("topic changed: %q", got)
	}
}

func TestResolveTopicTranslatesTurkish(t *testing.T) {
	c := prompt.NewComposer(lang.NewDetector(), prefixTranslator{})
	got, detected := c.ResolveTopic(context.Background(), "kedi klavyeden kalkmıyor ve çalışmama izin vermiyor")
	if detected != lang.Turkish {
		t.Fatalf("detected = %s, want tr", detected)
	}
	if !strings.HasPrefix(got, "[en]") {
		t.Errorf("topic not translated: %q", got)
	}
}

func TestResolveTopicTranslatorFailure(t *testing.T) {
	c := prompt.NewComposer(lang.NewDetector(), failTranslator{})
	got, _ := c.ResolveTopic(context.Background(), "kedi klavyeden kalkmıyor ve çalışmama izin vermiyor")
	if !strings.Contains(got, "kedi") {
		t.Errorf("want original topic on translation failure, got %q", got)
	}
}

func TestComposeTemplatedEnglish(t *testing.T) {
	c := prompt.NewComposer(lang.NewDetector(), lang.Noop{})
	composed, err := c.Compose(context.Background(), &prompt.Request{
		Topic:        "mondays",
		TopicEnglish: "mondays",
		Language:     lang.English,
		Template:     twoSlotTemplate(),
		SlotCount:    2,
		Exemplars: []exemplar.Document{
			{Boxes: []string{"working on the weekend", "calling in sick"}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"Create 2 funny captions",
		`"caption1"`,
		`"caption2"`,
		"rejecting the first option",
		"Generate exactly 2 captions",
		"Example caption pairs",
	} {
		if !strings.Contains(composed.Instructions, want) {
			t.Errorf("instructions missing %q", want)
		}
	}
	if strings.Contains(composed.Instructions, `"caption3"`) {
		t.Error("instructions name a field beyond the slot count")
	}
	if !strings.Contains(composed.Context, "working on the weekend") {
		t.Errorf("context missing exemplar: %q", composed.Context)
	}
}

func TestComposeTemplatedTurkishTranslatesExplanation(t *testing.T) {
	c := prompt.NewComposer(lang.NewDetector(), prefixTranslator{})
	composed, err := c.Compose(context.Background(), &prompt.Request{
		Topic:        "pazartesi sendromu",
		TopicEnglish: "monday syndrome",
		Language:     lang.Turkish,
		Template:     twoSlotTemplate(),
		SlotCount:    2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(composed.Instructions, "[tr]rejecting the first option") {
		t.Error("explanation not translated to Turkish")
	}
	if !strings.Contains(composed.Instructions, "2 komik altyazı") {
		t.Error("instructions not in Turkish")
	}
	if !strings.Contains(composed.Instructions, `"caption1"`) || !strings.Contains(composed.Instructions, `"caption2"`) {
		t.Error("Turkish instructions must still name the exact fields")
	}
}

func TestComposeFreeformSequence(t *testing.T) {
	c := prompt.NewComposer(lang.NewDetector(), lang.Noop{})
	composed, err := c.Compose(context.Background(), &prompt.Request{
		Topic:        "office coffee",
		TopicEnglish: "office coffee",
		Language:     lang.English,
		SlotCount:    3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(composed.Instructions, "connected") {
		t.Error("no-template instructions must ask for a connected sequence")
	}
	if !strings.Contains(composed.Instructions, `"caption3"`) {
		t.Error("instructions missing caption3 field")
	}
}

func TestComposeExamplePairsCapped(t *testing.T) {
	docs := make([]exemplar.Document, 8)
	for i := range docs {
		docs[i] = exemplar.Document{Boxes: []string{fmt.Sprintf("top %d", i), fmt.Sprintf("bottom %d", i)}}
	}
	c := prompt.NewComposer(lang.NewDetector(), lang.Noop{})
	composed, err := c.Compose(context.Background(), &prompt.Request{
		Topic:        "deadlines",
		TopicEnglish: "deadlines",
		Language:     lang.English,
		Template:     twoSlotTemplate(),
		SlotCount:    2,
		Exemplars:    docs,
	})
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(composed.Instructions, "\n- "); n != 5 {
		t.Errorf("example pair lines = %d, want 5", n)
	}
	// The context block keeps every retrieved exemplar.
	if n := strings.Count(composed.Context, "\n") + 1; n != 8 {
		t.Errorf("context lines = %d, want 8", n)
	}
}

func TestComposeInvalidSlotCount(t *testing.T) {
	c := prompt.NewComposer(lang.NewDetector(), lang.Noop{})
	if _, err := c.Compose(context.Background(), &prompt.Request{SlotCount: 0, Language: lang.English}); err == nil {
		t.Fatal("expected error for slot count 0")
	}
}
