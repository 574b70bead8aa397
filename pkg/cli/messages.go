package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	yaml "go.yaml.in/yaml/v3"

	"github.com/nimburion/i18nloader/pkg/i18n"
	"github.com/nimburion/i18nloader/pkg/i18n/loader"
)

func newMessagesCommand(flags *runtimeFlags) *cobra.Command {
	var (
		opts     loader.Options
		cacheAll bool
		keys     []string
		inLang   string
		format   string
	)
	cmd := &cobra.Command{
		Use:   "messages NAME",
		Short: "Load a gadget's messages through the caches and the catalog source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := flags.load(cmd)
			if err != nil {
				return err
			}
			rt, err := newLoaderRuntime(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := rt.Close(cmd.Context()); closeErr != nil {
					log.Error("failed to close runtime", "error", closeErr)
				}
			}()

			if !cmd.Flags().Changed("cache-version") {
				opts.CacheVersion = cfg.Loader.CacheVersion
			}
			opts.CacheAll.All = cacheAll
			session := rt.loader.LoadMessages(cmd.Context(), args[0], opts)
			if inLang != "" {
				session.InLang(inLang)
			}
			view := session.Messages()

			entries := view.Map()
			if len(keys) > 0 {
				entries = make(map[string]string, len(keys))
				for _, key := range keys {
					entries[key] = view.Msg(key)
				}
			}
			if session.Degraded() {
				log.Warn("catalog unavailable, showing degraded messages", "name", args[0])
			}
			return writeMessages(cmd.OutOrStdout(), format, view.Lang(), entries)
		},
	}
	cmd.Flags().StringVar(&opts.Language, "lang", "", "language to load (default: ambient.user_language)")
	cmd.Flags().StringVar(&opts.Entrypoint, "entrypoint", "", "catalog entrypoint override")
	cmd.Flags().IntVar(&opts.CacheVersion, "cache-version", 0, "minimum cache version (default: loader.cache_version)")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "bypass the persistent cache")
	cmd.Flags().BoolVar(&cacheAll, "cache-all", false, "keep the fetched catalog unoptimized")
	cmd.Flags().StringSliceVar(&opts.CacheAll.Keys, "cache-all-keys", nil, "messages kept in every language")
	cmd.Flags().StringVar(&inLang, "in-lang", "", "show messages in another language (requires a cacheAll option)")
	cmd.Flags().StringSliceVarP(&keys, "key", "k", nil, "only show these keys")
	cmd.Flags().StringVarP(&format, "output", "o", "yaml", "output format (yaml, json)")
	return cmd
}

func writeMessages(out io.Writer, format, lang string, entries map[string]string) error {
	payload := map[string]map[string]string{lang: entries}
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case "yaml", "":
		data, err := yaml.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal messages: %w", err)
		}
		_, err = out.Write(data)
		return err
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func newNormalizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize TAG...",
		Short: "Print the BCP 47 form of language codes",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			for _, tag := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", tag, i18n.Normalize(tag))
			}
		},
	}
}

func newResolveCommand(flags *runtimeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve CATALOG KEY LANG",
		Short: "Resolve one message through the fallback chain",
		Long:  "CATALOG is an i18n.json file or a directory of per-language files.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, err := flags.load(cmd)
			if err != nil {
				return err
			}
			catalog, err := loadCatalogPath(args[0])
			if err != nil {
				return err
			}
			resolver := i18n.NewResolver(i18n.DefaultFallbacks(), log)
			msg, ok := resolver.Resolve(catalog, args[1], i18n.CatalogCode(args[2]), nil)
			if !ok {
				return fmt.Errorf("no message %q for %s", args[1], args[2])
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func loadCatalogPath(path string) (*i18n.Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	if info.IsDir() {
		return i18n.LoadCatalogDir(path)
	}
	return i18n.LoadCatalogFile(path)
}
