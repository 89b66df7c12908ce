package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formwizard/pkg/model"
	"github.com/goliatone/go-formwizard/pkg/schema"
	"github.com/goliatone/go-formwizard/pkg/validation"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

func newCheckCmd(root *rootOptions) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "check [schema files...]",
		Short: "Validate page schema documents",
		Long:  "Validate page schema documents. Without arguments the bundled schemas are checked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := root.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			schemas, err := checkTargets(cmd.Context(), args)
			if err != nil {
				return err
			}

			failed := 0
			for _, target := range schemas {
				if target.err == nil {
					target.err = bindSchema(target.schema, strict)
				}
				if target.err != nil {
					failed++
					logger.Debug("schema rejected", "source", target.name, "error", target.err)
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", target.name, target.err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d pages, %d fields)\n",
					target.name, len(target.schema.Pages), len(target.schema.Fields()))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d schemas failed", failed, len(schemas))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when a field has no validation rule")
	return cmd
}

type checkTarget struct {
	name   string
	schema model.PageSchema
	err    error
}

func checkTargets(ctx context.Context, paths []string) ([]checkTarget, error) {
	if len(paths) == 0 {
		store, err := schema.LoadFS(schema.EmbeddedFS())
		if err != nil {
			return nil, err
		}
		var out []checkTarget
		for _, id := range store.IDs() {
			s, _ := store.Schema(id)
			out = append(out, checkTarget{name: id, schema: s})
		}
		return out, nil
	}

	out := make([]checkTarget, 0, len(paths))
	for _, path := range paths {
		s, err := schema.Load(ctx, schema.SourceFromFile(path))
		out = append(out, checkTarget{name: path, schema: s, err: err})
	}
	return out, nil
}

// bindSchema builds a controller so rule parameters are compiled the same
// way a live wizard would.
func bindSchema(s model.PageSchema, strict bool) error {
	var opts []wizard.Option
	if strict {
		opts = append(opts, wizard.WithRegistry(validation.NewRegistry(validation.WithStrict())))
	}
	_, err := wizard.New(s, opts...)
	return err
}
