package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formwizard/pkg/openapi"
)

func newOpenAPICmd(root *rootOptions) *cobra.Command {
	var operationID string
	cmd := &cobra.Command{
		Use:   "openapi <document>",
		Short: "Derive a page schema from an OpenAPI operation",
		Long:  "Derive a page schema from an OpenAPI operation. Without --operation the usable operations are listed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := root.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			doc, err := openapi.Load(ctx, openapi.SourceFromFile(args[0]))
			if err != nil {
				return err
			}

			if operationID == "" {
				ids, err := openapi.Operations(ctx, doc)
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			}

			derived, err := openapi.Derive(ctx, doc, operationID)
			if err != nil {
				return err
			}
			logger.Debug("schema derived", "operation", operationID, "pages", len(derived.Pages))
			out, err := yaml.Marshal(derived)
			if err != nil {
				return fmt.Errorf("encode schema: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVar(&operationID, "operation", "", "operation ID to derive")
	return cmd
}
