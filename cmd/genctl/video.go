package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"genstudio/internal/domain"
	"genstudio/internal/i18n"
)

func newVideoCmd(opts *cliOptions) *cobra.Command {
	var (
		imagePath string
		aspect    string
	)
	cmd := &cobra.Command{
		Use:   "video <prompt>",
		Short: "Animate a reference image into a short video",
		Long: `Submits a video generation job and polls it until the video is ready.
Progress is printed to stderr; the output path is printed to stdout.
Generation usually takes a few minutes.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := readReferenceImage(imagePath)
			if err != nil {
				return localize(opts.locale, err)
			}
			ratio, err := domain.ParseAspectRatio(aspect)
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
			job, err := app.videos.Start(ctx, cred, domain.GenerationRequest{
				Kind:           domain.RequestVideo,
				Prompt:         strings.Join(args, " "),
				ReferenceImage: image,
				AspectRatio:    ratio,
			})
			if err != nil {
				return localize(opts.locale, err)
			}

			progress := cmd.ErrOrStderr()
			for u := range job.Updates() {
				fmt.Fprintln(progress, i18n.TranslateLocale(opts.locale, u.Message))
			}
			res, err := job.Result()
			if err != nil {
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
	cmd.Flags().StringVar(&aspect, "aspect", string(domain.DefaultVideoAspect), "aspect ratio: 16:9 or 9:16")
	cmd.Flags().DurationVar(&opts.pollInterval, "poll-interval", 0, "wait between status checks (defaults to POLL_INTERVAL_SECONDS)")
	cmd.Flags().IntVar(&opts.maxPolls, "max-polls", 0, "give up after this many status checks (0 waits indefinitely)")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}
