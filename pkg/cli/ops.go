package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nimburion/i18nloader/pkg/catalogserver"
	"github.com/nimburion/i18nloader/pkg/config"
	"github.com/nimburion/i18nloader/pkg/health"
	"github.com/nimburion/i18nloader/pkg/i18n"
	"github.com/nimburion/i18nloader/pkg/i18n/fetch"
	"github.com/nimburion/i18nloader/pkg/server"
)

func newSweepCommand(flags *runtimeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired catalogs from the persistent cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := flags.load(cmd)
			if err != nil {
				return err
			}
			rt, err := newCacheRuntime(cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(cmd.Context()) }()

			removed := rt.cache.SweepExpired(time.Now())
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired catalogs from %s\n", removed, cfg.Storage.Type)
			return nil
		},
	}
}

func newServeCommand(flags *runtimeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve catalogs from server.catalog_root over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := flags.load(cmd)
			if err != nil {
				return err
			}
			tracer, err := newTracer(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = tracer.Shutdown(cmd.Context()) }()

			handler := catalogserver.New(catalogserver.Config{
				Root:        cfg.Server.CatalogRoot,
				CacheMaxAge: cfg.Server.CacheMaxAge,
				ServiceName: flags.name,
			}, log)
			srv := server.New(server.Config{
				Port:            cfg.Server.Port,
				ReadTimeout:     cfg.Server.ReadTimeout,
				WriteTimeout:    cfg.Server.WriteTimeout,
				IdleTimeout:     60 * time.Second,
				ShutdownTimeout: 15 * time.Second,
			}, handler, log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Start(ctx)
		},
	}
}

func newPublishCommand(flags *runtimeFlags) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "publish ROOT [NAME...]",
		Short: "Validate catalogs under ROOT and upload them to the source.s3 bucket",
		Long: "Every directory under ROOT holding i18n.json or i18n/<lang>.json is a gadget. " +
			"Catalogs without en messages are rejected.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := flags.load(cmd)
			if err != nil {
				return err
			}
			root := args[0]
			names := args[1:]
			if len(names) == 0 {
				if names, err = gadgetDirs(root); err != nil {
					return err
				}
			}

			payloads := make(map[string][]byte, len(names))
			languages := make(map[string]int, len(names))
			var errs []error
			for _, name := range names {
				catalog, err := fetch.LoadFromDir(root, name)
				if err == nil {
					err = i18n.Validate(catalog)
				}
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", name, err))
					continue
				}
				languages[name] = len(catalog.Languages())
				if payloads[name], err = json.Marshal(catalog); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", name, err))
				}
			}
			if err := errors.Join(errs...); err != nil {
				return fmt.Errorf("catalog validation failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if dryRun {
				for _, name := range names {
					fmt.Fprintf(out, "%s/%s\t%d bytes\n", name, fetch.CatalogFile, len(payloads[name]))
				}
				return nil
			}

			if cfg.Source.S3.Bucket == "" {
				return errors.New("source.s3.bucket is required to publish")
			}
			adapter, err := newS3Adapter(cfg, log)
			if err != nil {
				return err
			}
			defer adapter.Close()

			for _, name := range names {
				key := name + "/" + fetch.CatalogFile
				etag, err := adapter.Upload(cmd.Context(), key, payloads[name], "application/json", map[string]string{
					"languages": strconv.Itoa(languages[name]),
				})
				if err != nil {
					return fmt.Errorf("upload %s: %w", key, err)
				}
				fmt.Fprintf(out, "%s\t%s\n", key, etag)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate and list catalogs without uploading")
	return cmd
}

func gadgetDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read catalog root: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("no gadget directories under %s", root)
	}
	return names, nil
}

func newHealthcheckCommand(flags *runtimeFlags) *cobra.Command {
	var only string
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check connectivity to the storage backend and the catalog source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := flags.load(cmd)
			if err != nil {
				return err
			}
			rt, err := newCacheRuntime(cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(cmd.Context()) }()

			registry := health.NewRegistry()
			if checkable, ok := rt.storage.(health.Checkable); ok {
				registry.Register(health.NewAdapterChecker("storage", checkable, health.DefaultTimeout))
			}
			switch cfg.Source.Type {
			case config.SourceTypeS3:
				adapter, err := newS3Adapter(cfg, log)
				if err != nil {
					return err
				}
				defer adapter.Close()
				registry.Register(health.NewAdapterChecker("source", adapter, health.DefaultTimeout))
			case config.SourceTypeDir:
				registry.Register(health.NewDirChecker("source", cfg.Source.Dir.Root))
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if only != "" {
				result, err := registry.CheckOne(cmd.Context(), only)
				if err != nil {
					return fmt.Errorf("%w (registered: %s)", err, strings.Join(registry.List(), ", "))
				}
				if err := enc.Encode(result); err != nil {
					return err
				}
				if result.Status == health.StatusUnhealthy {
					return fmt.Errorf("%s is %s", only, result.Status)
				}
				return nil
			}

			result := registry.Check(cmd.Context())
			if err := enc.Encode(result); err != nil {
				return err
			}
			if !result.IsHealthy() {
				return fmt.Errorf("dependencies are %s", result.Status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&only, "check", "", "run a single check (storage or source)")
	return cmd
}

func newConfigCommand(flags *runtimeFlags) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management commands",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.NewViperLoader(flags.configPath, flags.envPrefix).Load(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
			return nil
		},
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewViperLoader(flags.configPath, flags.envPrefix).Load()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), cfg.String())
			return nil
		},
	})
	return configCmd
}
