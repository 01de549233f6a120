package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stegaplots/internal/server"
	"github.com/matzehuels/stegaplots/pkg/cache"
)

// redisKeyPrefix scopes server keys in a Redis instance shared with other
// applications.
const redisKeyPrefix = appName

type serveOpts struct {
	addr    string
	noCache bool
}

func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API for inserting and extracting metadata.

Extraction results are cached in Redis when cache.redis_addr is set in the
config file, and in the local cache directory otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the extraction cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	addr := opts.addr
	if addr == "" {
		addr = c.Config.Server.Addr
	}

	store, keyer, err := c.serverCache(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := server.New(server.Options{
		Logger:    c.Logger,
		Cache:     store,
		Keyer:     keyer,
		CacheTTL:  c.Config.Cache.TTL.Duration,
		MaxUpload: c.Config.MaxUploadBytes(),
	})
	return srv.ListenAndServe(ctx, addr)
}

// serverCache picks the extraction cache: Redis when configured, else the
// file cache.
func (c *CLI) serverCache(ctx context.Context, noCache bool) (cache.Cache, cache.Keyer, error) {
	if noCache {
		return cache.NewNullCache(), nil, nil
	}
	addr := c.Config.Cache.RedisAddr
	if addr == "" {
		return c.newCache(false), nil, nil
	}
	rc, err := cache.NewRedisCache(ctx, addr)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	c.Logger.Info("Using redis cache", "addr", addr)
	return rc, cache.NewScopedKeyer(nil, redisKeyPrefix), nil
}
