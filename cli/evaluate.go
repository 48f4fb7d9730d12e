package cli

import (
	"bufio"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mhai-lab/mhai/evaluation"
)

// readTexts returns args, or one text per non-empty stdin line when no
// args are given.
func readTexts(cmd *cobra.Command, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	var out []string
	sc := bufio.NewScanner(cmd.InOrStdin())
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}

func newEvaluateCmd() *cobra.Command {
	var kinds []string
	cmd := &cobra.Command{
		Use:   "evaluate [text...]",
		Short: "Evaluate texts with one or more evaluators",
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := parseKinds(kinds)
			if err != nil {
				return err
			}
			texts, err := readTexts(cmd, args)
			if err != nil {
				return err
			}
			reg, err := newRegistry(cmd.Context(), conf, ks)
			if err != nil {
				return err
			}

			type row struct {
				Text    string                                 `json:"text"`
				Results map[evaluation.Kind]*evaluation.Result `json:"results"`
			}
			rows := make([]row, 0, len(texts))
			for _, t := range texts {
				r := row{Text: t, Results: map[evaluation.Kind]*evaluation.Result{}}
				for _, k := range reg.Kinds() {
					ev, err := reg.Get(k)
					if err != nil {
						return err
					}
					res, err := ev.Evaluate(cmd.Context(), t)
					if err != nil {
						return err
					}
					r.Results[k] = res
				}
				rows = append(rows, r)
			}
			return printJSON(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().StringSliceVarP(&kinds, "kind", "k", nil, "evaluator kinds (sentiment, emotion, mental, clinical); default all")
	return cmd
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [text...]",
		Short: "Map mental-health scores onto core categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			texts, err := readTexts(cmd, args)
			if err != nil {
				return err
			}
			cls, err := newClassifier(cmd.Context(), conf)
			if err != nil {
				return err
			}

			type row struct {
				Text       string                    `json:"text"`
				Category   string                    `json:"category"`
				Categories evaluation.CategoryScores `json:"categories"`
			}
			rows := make([]row, 0, len(texts))
			for _, t := range texts {
				cats, _, err := cls.Classify(cmd.Context(), t)
				if err != nil {
					return err
				}
				r := row{Text: t, Categories: cats}
				if top, ok := cats.Top(); ok {
					r.Category = top.Category
				}
				rows = append(rows, r)
			}
			return printJSON(cmd.OutOrStdout(), rows)
		},
	}
}
