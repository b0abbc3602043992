package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DiscountLegolas/memegen/pkg/lang"
	"github.com/DiscountLegolas/memegen/pkg/pipeline"
)

var (
	captionTemplate  string
	captionSlots     int
	captionLang      string
	captionImageDesc string
	captionTopK      int
)

var captionCmd = &cobra.Command{
	Use:   "caption <topic>",
	Short: "Generate captions for a topic",
	Long: `Generate captions for a topic.

With --template the captions follow that template's slot layout. Without
it, --slots freeform captions are generated as a connected sequence.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if captionTemplate == "" && captionSlots == 0 {
			return fmt.Errorf("either --template or --slots is required")
		}

		p, closer, err := newPipeline(cmd, true)
		if err != nil {
			return err
		}
		defer closer()

		captions, err := p.GenerateCaptions(cmd.Context(), &pipeline.Request{
			Topic:            strings.Join(args, " "),
			TemplateKey:      captionTemplate,
			SlotCount:        captionSlots,
			Language:         lang.Language(captionLang),
			ImageDescription: captionImageDesc,
			TopK:             captionTopK,
		})
		if err != nil {
			return err
		}
		for i, c := range captions {
			fmt.Printf("caption%d: %s\n", i+1, c)
		}
		return nil
	},
}

func init() {
	captionCmd.Flags().StringVarP(&captionTemplate, "template", "t", "", "template key")
	captionCmd.Flags().IntVarP(&captionSlots, "slots", "n", 0, "caption count (freeform, or override check for templates)")
	captionCmd.Flags().StringVar(&captionLang, "lang", "", "output language (en, tr; default: detected from topic)")
	captionCmd.Flags().StringVar(&captionImageDesc, "image-description", "", "image description for freeform grounding")
	captionCmd.Flags().IntVar(&captionTopK, "top-k", 0, "retrieved exemplars per request")
	rootCmd.AddCommand(captionCmd)
}
