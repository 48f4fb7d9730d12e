package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/mhai-lab/mhai/api"
	"github.com/mhai-lab/mhai/logging"
)

func newServeCmd() *cobra.Command {
	var (
		kinds    []string
		classify bool
		addr     string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve evaluators over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ks, err := parseKinds(kinds)
			if err != nil {
				return err
			}
			reg, err := newRegistry(ctx, conf, ks)
			if err != nil {
				return err
			}
			srv := api.NewServer(reg, nil)
			if classify {
				cls, err := newClassifier(ctx, conf)
				if err != nil {
					return err
				}
				srv = api.NewServer(reg, cls)
			}
			if addr == "" {
				addr = conf.Server.Addr
			}

			hs := &http.Server{Addr: addr, Handler: srv, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = hs.Shutdown(shutdownCtx)
			}()

			logging.For("serve").WithField("addr", addr).Info("listening")
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&kinds, "kind", "k", nil, "evaluator kinds to load; default all")
	cmd.Flags().BoolVar(&classify, "classify", true, "load the category classifier")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	return cmd
}
