package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/mhai-lab/mhai/clients"
	"github.com/mhai-lab/mhai/evaluation"
	"github.com/mhai-lab/mhai/orchestrator"
)

type runFlags struct {
	kinds    []string
	classify bool
	persist  bool
}

func (f *runFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.kinds, "kind", "k", []string{"sentiment", "emotion"}, "evaluator kinds to run on each post")
	cmd.Flags().BoolVar(&f.classify, "classify", false, "also map posts onto core mental-health categories")
	cmd.Flags().BoolVar(&f.persist, "persist", true, "write the session under paths.outputs")
}

// run evaluates src and prints the summary.
func (f *runFlags) run(cmd *cobra.Command, src orchestrator.Source) error {
	ctx := cmd.Context()
	ks, err := parseKinds(f.kinds)
	if err != nil {
		return err
	}
	reg, err := newRegistry(ctx, conf, ks)
	if err != nil {
		return err
	}
	var cls *evaluation.CategoryClassifier
	if f.classify {
		c, err := newClassifier(ctx, conf)
		if err != nil {
			return err
		}
		cls = c
	}
	opts := orchestrator.Options{Concurrency: conf.Workers.Concurrency}
	if f.persist {
		opts.OutputsDir = conf.Paths.Outputs
	}
	rep, err := orchestrator.NewPipeline(reg, cls, opts).Run(ctx, src)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), map[string]any{
		"session_id": rep.SessionID,
		"source":     rep.Source,
		"summary":    rep.Summary,
	})
}

func newMastodonCmd() *cobra.Command {
	var (
		f       runFlags
		handle  string
		hashtag string
		public  bool
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "mastodon",
		Short: "Evaluate Mastodon statuses (own, --handle, --hashtag or --public)",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := clients.NewMastodon(clients.NewHTTP(), conf.Mastodon.Instance, conf.Mastodon.Token)
			if err != nil {
				return err
			}
			var src orchestrator.Source
			switch {
			case handle != "" && hashtag != "", handle != "" && public, hashtag != "" && public:
				return errors.New("use only one of --handle, --hashtag, --public")
			case handle != "":
				src = orchestrator.SourceFunc("mastodon:@"+handle, func(ctx context.Context) ([]clients.Post, error) {
					return m.UserStatuses(ctx, handle, limit)
				})
			case hashtag != "":
				src = orchestrator.SourceFunc("mastodon:#"+hashtag, func(ctx context.Context) ([]clients.Post, error) {
					return m.HashtagTimeline(ctx, hashtag, limit)
				})
			case public:
				src = orchestrator.SourceFunc("mastodon:public", func(ctx context.Context) ([]clients.Post, error) {
					return m.PublicTimeline(ctx, limit)
				})
			default:
				src = orchestrator.SourceFunc("mastodon:me", func(ctx context.Context) ([]clients.Post, error) {
					return m.MyStatuses(ctx, limit)
				})
			}
			return f.run(cmd, src)
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&handle, "handle", "", "account handle (user or user@instance)")
	cmd.Flags().StringVar(&hashtag, "hashtag", "", "hashtag timeline")
	cmd.Flags().BoolVar(&public, "public", false, "public timeline")
	cmd.Flags().IntVar(&limit, "limit", 40, "statuses to fetch")
	return cmd
}

func newTwitterCmd() *cobra.Command {
	var (
		f        runFlags
		username string
		from, to string
		maxPosts int
	)
	cmd := &cobra.Command{
		Use:   "twitter",
		Short: "Evaluate a user's tweets between two dates",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				username = conf.Twitter.Username
			}
			tw, err := clients.NewTwitter(clients.NewHTTP(), conf.Twitter.API, conf.Twitter.Token, username)
			if err != nil {
				return err
			}
			src := orchestrator.SourceFunc("twitter:@"+username, func(ctx context.Context) ([]clients.Post, error) {
				return tw.Posts(ctx, from, to, maxPosts)
			})
			return f.run(cmd, src)
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&username, "username", "", "twitter username (default twitter.username)")
	cmd.Flags().StringVar(&from, "from", "", "start date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "end date YYYY-MM-DD")
	cmd.Flags().IntVar(&maxPosts, "max", 3200, "maximum tweets")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
