package main

import (
	"errors"
	"io"
	"os"

	"github.com/sensorable/bblabel"
	"github.com/sensorable/bblabel/internal/controller"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newAnnotateCmd(a *app) *cobra.Command {
	var scriptPath, category string

	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Run an annotation session driven by an event script",
		Long: `Runs an annotation session. Events are read line by line from --script or stdin:

  category NAME   load a category (saves the current image first)
  click X Y       pointer press; two presses draw a box
  move X Y        pointer motion (crosshair and preview)
  key NAME        key press; Escape and s cancel the box, a and d move between images
  select I        select entry I of the box list
  delete          delete the selected box
  clear           delete all boxes
  prev, next      save and move to the previous or next image
  goto N          save and move to image N
  show            print the session state

The current image is saved on every move between images and when the script ends.`,
		Example: `  bblabel annotate -i images -o labels --category cats < events.txt`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			categories, err := a.catalog.Categories()
			if err != nil {
				return err
			}
			a.log.Info("Categories found", zap.Strings("categories", categories))

			session := bblabel.NewSession(a.catalog, a.labels, a.log)
			defer func() {
				err = errors.Join(err, session.Close())
			}()

			ctrl := controller.New(session, cmd.OutOrStdout(), controller.WithLogger(a.log))
			if category != "" {
				if err := ctrl.Exec("category " + category); err != nil {
					if !errors.Is(err, bblabel.ErrNoImages) {
						return err
					}
					a.log.Warn("Session not started", zap.Error(err))
				}
			}

			var script io.Reader = cmd.InOrStdin()
			if scriptPath != "" {
				f, err := os.Open(scriptPath)
				if err != nil {
					return err
				}
				defer f.Close()
				script = f
			}

			return ctrl.Run(cmd.Context(), script)
		},
	}

	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "Event script file (default stdin)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category to load before the script runs")

	return cmd
}
