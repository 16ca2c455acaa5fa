package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newImageCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "image <prompt>",
		Short: "Generate a square image from a text prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd, opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cred, err := app.credential(ctx)
			if err != nil {
				return localize(opts.locale, err)
			}
			res, err := app.images.GenerateImage(ctx, cred, strings.Join(args, " "))
			if err != nil {
				app.gate.Observe(err)
				return localize(opts.locale, err)
			}
			path, err := writeResult(ctx, app.blobs, res, opts.out)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newEditCmd(opts *cliOptions) *cobra.Command {
	var imagePath string
	cmd := &cobra.Command{
		Use:   "edit <prompt>",
		Short: "Edit a reference image following a text prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := readReferenceImage(imagePath)
			if err != nil {
				return localize(opts.locale, err)
			}
			app, err := buildApp(cmd, opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cred, err := app.credential(ctx)
			if err != nil {
				return localize(opts.locale, err)
			}
			res, err := app.images.EditImage(ctx, cred, strings.Join(args, " "), image)
			if err != nil {
				app.gate.Observe(err)
				return localize(opts.locale, err)
			}
			path, err := writeResult(ctx, app.blobs, res, opts.out)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "reference image (png, jpeg or webp, under 4MB)")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}
