package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formwizard/pkg/model"
	"github.com/goliatone/go-formwizard/pkg/openapi"
	"github.com/goliatone/go-formwizard/pkg/record"
	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/renderers/tui"
	"github.com/goliatone/go-formwizard/pkg/schema"
	"github.com/goliatone/go-formwizard/pkg/summary"
	"github.com/goliatone/go-formwizard/pkg/validation"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

type runOptions struct {
	schemaPath   string
	openapiPath  string
	operationID  string
	locale       string
	format       string
	output       string
	summary      bool
	sanitize     bool
	optionLabels bool
	strict       bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fill a wizard interactively and print the resulting record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := root.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			pageSchema, err := opts.loadSchema(ctx)
			if err != nil {
				return err
			}
			lookup, err := localeLookup(opts.locale)
			if err != nil {
				return err
			}

			var recordOpts []record.Option
			if opts.sanitize {
				recordOpts = append(recordOpts, record.WithSanitizer())
			}
			if opts.optionLabels {
				recordOpts = append(recordOpts, record.WithOptionLabels())
			}
			format, err := record.ParseFormat(opts.format)
			if err != nil {
				return err
			}

			host := tui.New(
				tui.WithPromptDriver(tui.NewSurveyDriver(cmd.OutOrStdout())),
				tui.WithOutputFormat(format),
				tui.WithRecordOptions(recordOpts...),
				tui.WithTheme(tui.Theme{SectionPrefix: "== ", ErrorPrefix: "! "}),
				tui.WithLogger(logger),
			)
			wizardOpts := []wizard.Option{
				wizard.WithLookup(lookup),
				wizard.WithImageAcquirer(host.Acquirer()),
				wizard.WithLogger(logger),
				wizard.WithSink(wizard.SinkFunc(func(snapshot model.FormState) error {
					logger.Info("form finalized", "schema", pageSchema.ID, "fields", len(snapshot))
					return nil
				})),
			}
			if opts.strict {
				wizardOpts = append(wizardOpts, wizard.WithRegistry(validation.NewRegistry(validation.WithStrict())))
			}
			ctrl, err := wizard.New(pageSchema, wizardOpts...)
			if err != nil {
				return err
			}

			payload, err := host.Run(ctx, ctrl)
			if errors.Is(err, tui.ErrAborted) {
				logger.Warn("wizard aborted", "page", ctrl.PageIndex())
				return err
			}
			if err != nil {
				return err
			}
			if err := writeOutput(cmd, opts.output, payload); err != nil {
				return err
			}

			if opts.summary {
				rec := record.FromState(pageSchema, ctrl.State(), recordOpts...)
				if _, err := summary.Render(nil, summary.DefaultTemplate, pageSchema, rec, lookup, cmd.ErrOrStderr()); err != nil {
					return fmt.Errorf("render summary: %w", err)
				}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.schemaPath, "schema", "", "page schema file (JSON or YAML); defaults to the bundled incident schema")
	flags.StringVar(&opts.openapiPath, "openapi", "", "derive the schema from an OpenAPI document instead")
	flags.StringVar(&opts.operationID, "operation", "", "operation ID used with --openapi")
	flags.StringVar(&opts.locale, "locale", "en", "locale used for labels and messages")
	flags.StringVar(&opts.format, "format", string(record.FormatJSON), "output format (json, yaml, form, pretty)")
	flags.StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	flags.BoolVar(&opts.summary, "summary", false, "print a summary of the answers to stderr")
	flags.BoolVar(&opts.sanitize, "sanitize", false, "strip markup from text answers")
	flags.BoolVar(&opts.optionLabels, "option-labels", false, "record option labels instead of ids")
	flags.BoolVar(&opts.strict, "strict", false, "fail when a field has no validation rule")
	return cmd
}

func (o *runOptions) loadSchema(ctx context.Context) (model.PageSchema, error) {
	switch {
	case strings.TrimSpace(o.openapiPath) != "":
		if strings.TrimSpace(o.operationID) == "" {
			return model.PageSchema{}, errors.New("--operation is required with --openapi")
		}
		doc, err := openapi.Load(ctx, openapi.SourceFromFile(o.openapiPath))
		if err != nil {
			return model.PageSchema{}, err
		}
		return openapi.Derive(ctx, doc, o.operationID)
	case strings.TrimSpace(o.schemaPath) != "":
		return schema.Load(ctx, schema.SourceFromFile(o.schemaPath))
	default:
		return schema.Incident(), nil
	}
}

// localeLookup resolves labels through the bundled message catalog.
func localeLookup(locale string) (render.LookupFunc, error) {
	messages, err := render.ParseMessages(schema.EmbeddedMessages())
	if err != nil {
		return nil, err
	}
	catalog, err := render.NewCatalog("en", messages)
	if err != nil {
		return nil, err
	}
	return render.Lookup(catalog, locale, nil), nil
}

func writeOutput(cmd *cobra.Command, path string, payload []byte) error {
	if path == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		return err
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, err := fmt.Fprintf(cmd.ErrOrStderr(), "Record written to %s\n", path)
	return err
}
