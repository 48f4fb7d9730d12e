package orchestrator

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mhai-lab/mhai/clients"
	"github.com/mhai-lab/mhai/evaluation"
	"github.com/mhai-lab/mhai/logging"
)

// Source yields the posts one run evaluates.
type Source interface {
	Name() string
	Posts(ctx context.Context) ([]clients.Post, error)
}

type sourceFunc struct {
	name string
	fn   func(ctx context.Context) ([]clients.Post, error)
}

func (s sourceFunc) Name() string { return s.name }
func (s sourceFunc) Posts(ctx context.Context) ([]clients.Post, error) {
	return s.fn(ctx)
}

// SourceFunc names fn as a Source.
func SourceFunc(name string, fn func(ctx context.Context) ([]clients.Post, error)) Source {
	return sourceFunc{name: name, fn: fn}
}

// TextSource serves fixed texts, one post each.
func TextSource(name string, texts ...string) Source {
	return SourceFunc(name, func(context.Context) ([]clients.Post, error) {
		posts := make([]clients.Post, len(texts))
		for i, t := range texts {
			posts[i] = clients.Post{ID: fmt.Sprint(i), Text: t}
		}
		return posts, nil
	})
}

type Options struct {
	// Concurrency bounds parallel evaluations; values below 1 mean 1. Keep it
	// at 1 for backends whose model handles are not safe for concurrent use.
	Concurrency int
	// OutputsDir, when set, receives items.json and summary.json.
	OutputsDir string
}

type Pipeline struct {
	registry   *evaluation.Registry
	classifier *evaluation.CategoryClassifier
	opts       Options
	log        *log.Entry
}

// NewPipeline evaluates every post with each evaluator in reg and, when cls
// is not nil, maps the classifier's scores onto its taxonomy.
func NewPipeline(reg *evaluation.Registry, cls *evaluation.CategoryClassifier, opts Options) *Pipeline {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Pipeline{registry: reg, classifier: cls, opts: opts, log: logging.For("pipeline")}
}

// Run fetches posts from src and evaluates them. The first evaluation error
// aborts the run and is returned as is.
func (p *Pipeline) Run(ctx context.Context, src Source) (*Report, error) {
	posts, err := src.Posts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Name(), err)
	}

	var kept []clients.Post
	for _, post := range posts {
		if strings.TrimSpace(post.Text) != "" {
			kept = append(kept, post)
		}
	}
	p.log.WithFields(log.Fields{"source": src.Name(), "posts": len(posts), "kept": len(kept)}).Info("evaluating")

	items := make([]Item, len(kept))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for i := range kept {
		g.Go(func() error {
			it, err := p.evaluate(gctx, kept[i])
			if err != nil {
				return fmt.Errorf("post %s: %w", kept[i].ID, err)
			}
			items[i] = it
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := &Report{
		SessionID: newSessionID(),
		Source:    src.Name(),
		Items:     items,
		Summary:   summarize(items, len(posts)-len(kept)),
	}
	if p.opts.OutputsDir != "" {
		itemsPath, summaryPath, err := persist(p.opts.OutputsDir, r)
		if err != nil {
			return nil, fmt.Errorf("persist: %w", err)
		}
		p.log.WithFields(log.Fields{"items": itemsPath, "summary": summaryPath}).Info("session written")
	}
	return r, nil
}

func (p *Pipeline) evaluate(ctx context.Context, post clients.Post) (Item, error) {
	it := Item{Post: post, Results: map[evaluation.Kind]*evaluation.Result{}}
	if p.registry != nil {
		for _, k := range p.registry.Kinds() {
			ev, err := p.registry.Get(k)
			if err != nil {
				return Item{}, err
			}
			res, err := ev.Evaluate(ctx, post.Text)
			if err != nil {
				return Item{}, err
			}
			it.Results[k] = res
		}
	}
	if p.classifier != nil {
		cats, _, err := p.classifier.Classify(ctx, post.Text)
		if err != nil {
			return Item{}, err
		}
		it.Categories = cats
		if top, ok := cats.Top(); ok {
			it.Category = top.Category
		}
	}
	return it, nil
}
