package main

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"menulens/internal/logging"
	"menulens/internal/menu"
	"menulens/internal/pipeline"
	"menulens/internal/relay"
	jsonx "menulens/internal/shared/json"
)

type scanOptions struct {
	language string
	direct   bool
	asJSON   bool
}

func newScanCommand(opts *rootOptions) *cobra.Command {
	scan := &scanOptions{}
	cmd := &cobra.Command{
		Use:   "scan <image>",
		Short: "Scan a menu photo through the proxy and print the dishes",
		Long: fmt.Sprintf(
			"Upload a JPG, PNG or HEIC menu photo and print the recognized dishes.\nLanguages: %s (default %s).",
			strings.Join(menu.SupportedLanguages, ", "), menu.DefaultLanguage,
		),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load(cmd, scan.bindings())
			if err != nil {
				return err
			}
			return runScan(cmd, rt, scan, args[0], opts.stdout)
		},
	}

	cmd.Flags().StringVarP(&scan.language, "language", "l", "", "Target language for translations")
	cmd.Flags().String("endpoint", "", "Proxy endpoint URL (the webhook URL with --direct)")
	cmd.Flags().Duration("timeout", 0, "Budget for the whole scan (default 90s, 85s with --direct)")
	cmd.Flags().BoolVar(&scan.direct, "direct", false, "Call the upstream webhook directly instead of the proxy")
	cmd.Flags().BoolVar(&scan.asJSON, "json", false, "Print the raw {data} or {error} envelope")
	return cmd
}

// bindings routes --endpoint and --timeout to the hop being called.
func (s *scanOptions) bindings() map[string]string {
	if s.direct {
		return map[string]string{"upstream.url": "endpoint", "upstream.timeout": "timeout"}
	}
	return map[string]string{"proxy.url": "endpoint", "proxy.timeout": "timeout"}
}

func runScan(cmd *cobra.Command, rt *appRuntime, scan *scanOptions, path string, out io.Writer) error {
	cfg := rt.cfg
	validate, relayCfg, hop := cfg.Validate, cfg.ProxyRelay(), "proxy"
	if scan.direct {
		validate, relayCfg, hop = cfg.ValidateDirect, cfg.UpstreamRelay(), "upstream"
	}
	if err := validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	sender, err := relay.New(relayCfg, relay.WithLogger(logging.NewComponentLogger("relay")))
	if err != nil {
		return err
	}

	payload, err := readUpload(path, scan.language)
	if err != nil {
		return err
	}

	proc := pipeline.New(
		menu.NewValidator(cfg.Policy()),
		sender,
		pipeline.WithHop(hop),
		pipeline.WithLogger(logging.NewComponentLogger("pipeline")),
	)
	rt.logger.Debug("scanning %s (%s, %d bytes) via %s", payload.FileName, payload.ContentType, payload.Size, relayCfg.Endpoint)

	outcome := proc.Process(cmd.Context(), payload)
	if scan.asJSON {
		if err := printJSON(out, outcome); err != nil {
			return err
		}
	} else {
		printOutcome(out, outcome, isTerminal(out))
	}

	if failure, ok := outcome.(*menu.Failure); ok {
		return &ExitCodeError{Code: 1, Err: failure, Silent: true}
	}
	return nil
}

// readUpload loads an image from disk, deriving the declared type from the
// extension and falling back to content sniffing for unknown extensions.
func readUpload(path, language string) (menu.UploadPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return menu.UploadPayload{}, fmt.Errorf("read image: %w", err)
	}
	return menu.NewUploadPayload(data, declaredType(path, data), filepath.Base(path), language), nil
}

func declaredType(path string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	}
	if byExt := mime.TypeByExtension(ext); byExt != "" {
		mediaType, _, err := mime.ParseMediaType(byExt)
		if err == nil {
			return mediaType
		}
	}
	return mimetype.Detect(data).String()
}

func printJSON(out io.Writer, outcome menu.Outcome) error {
	encoded, err := jsonx.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	_, err = fmt.Fprintln(out, string(encoded))
	return err
}

func printOutcome(out io.Writer, outcome menu.Outcome, colored bool) {
	paint := func(attrs ...color.Attribute) func(a ...any) string {
		c := color.New(attrs...)
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	bold := paint(color.Bold)
	green := paint(color.FgGreen)
	yellow := paint(color.FgYellow)
	red := paint(color.FgRed)
	faint := paint(color.Faint)

	switch o := outcome.(type) {
	case *menu.Success:
		fmt.Fprintf(out, "%s\n\n", green(fmt.Sprintf("Found %d dishes", len(o.Items))))
		for i, item := range o.Items {
			marker := "  "
			if item.IsRecommended {
				marker = yellow("★ ")
			}
			fmt.Fprintf(out, "%s%2d. %s  %s\n", marker, i+1, bold(item.TranslatedName), faint(item.OriginalName))
			if item.Description != "" {
				fmt.Fprintf(out, "      %s\n", item.Description)
			}
		}
	case *menu.Failure:
		fmt.Fprintf(out, "%s %s\n", red("✗"), o.Message)
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
