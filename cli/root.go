package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/mhai-lab/mhai/clients"
	"github.com/mhai-lab/mhai/config"
	"github.com/mhai-lab/mhai/evaluation"
	"github.com/mhai-lab/mhai/inference"
	"github.com/mhai-lab/mhai/logging"
)

// Version is stamped at build time with -ldflags "-X".
var Version = "0.1.0"

var (
	cfgFile string
	conf    *config.Root
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mhai",
		Short:         "Mental-health text evaluation over pre-trained classifiers",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfgFile != "" {
				conf, err = config.LoadFile(cfgFile)
			} else {
				conf, err = config.Load()
			}
			if err != nil {
				return err
			}
			return logging.Setup(conf.Pipeline.LogLvl, conf.Pipeline.LogFormat, cmd.ErrOrStderr())
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default config/$CONFIG_ENV/config.yaml)")
	root.AddCommand(newEvaluateCmd())
	root.AddCommand(newClassifyCmd())
	root.AddCommand(newMastodonCmd())
	root.AddCommand(newTwitterCmd())
	root.AddCommand(newServeCmd())
	return root
}

// providerFor is swapped in tests.
var providerFor = func(c *config.Root) inference.Provider {
	return inference.NewHTTPProvider(clients.NewHTTPWithTimeout(c.Inference.Timeout), c.Inference.URL, c.Inference.Token)
}

func newRegistry(ctx context.Context, c *config.Root, kinds []evaluation.Kind) (*evaluation.Registry, error) {
	return evaluation.NewRegistry(ctx, kinds, c.EvaluatorOverrides(), providerFor(c))
}

func newClassifier(ctx context.Context, c *config.Root) (*evaluation.CategoryClassifier, error) {
	if c.Taxonomy.Path == "" && (c.Taxonomy.Model == "" || c.Taxonomy.Model == evaluation.MentBERTModel) {
		return evaluation.NewMentBERTClassifier(ctx, providerFor(c))
	}
	tax, err := c.LoadTaxonomy()
	if err != nil {
		return nil, err
	}
	cfg := evaluation.Config{Model: c.Taxonomy.Model}
	return evaluation.NewCategoryClassifier(ctx, evaluation.KindMental, cfg, providerFor(c), tax)
}

func parseKinds(names []string) ([]evaluation.Kind, error) {
	if len(names) == 0 {
		return evaluation.Kinds(), nil
	}
	out := make([]evaluation.Kind, 0, len(names))
	for _, n := range names {
		k, err := evaluation.ParseKind(n)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
