package main

import (
	"github.com/joho/godotenv"
	"github.com/sensorable/bblabel"
	"github.com/sensorable/bblabel/internal/config"
	"github.com/sensorable/bblabel/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app is the state shared by all subcommands once the configuration is validated.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	catalog *bblabel.Catalog
	labels  *bblabel.LabelStore
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var inputDir, outputDir, logLevel string
	var logDev bool

	cmd := &cobra.Command{
		Use:   "bblabel",
		Short: "Bounding box annotation for category-organized images",
		Long: `bblabel annotates images with axis-aligned bounding boxes.

Images live in one sub-directory per category below the input directory. The boxes of each image
are stored in <output>/<image name>.txt.

Settings are read from BBLABEL_* environment variables (a .env file is loaded if present) and can
be overridden with flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("input") {
				cfg.InputDir = inputDir
			}
			if flags.Changed("output") {
				cfg.OutputDir = outputDir
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if flags.Changed("log-dev") {
				cfg.LogDev = logDev
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Development: cfg.LogDev})
			if err != nil {
				return err
			}
			zap.ReplaceGlobals(logger)

			a.cfg = cfg
			a.log = logger
			a.catalog = bblabel.NewCatalog(cfg.InputDir)
			a.labels = bblabel.NewLabelStore(cfg.OutputDir)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&inputDir, "input", "i", "", "Directory with one sub-directory of images per category")
	pf.StringVarP(&outputDir, "output", "o", "", "Directory for the label files (created if missing)")
	pf.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.BoolVar(&logDev, "log-dev", false, "Human readable console logs")

	cmd.AddCommand(
		newAnnotateCmd(a),
		newStatusCmd(a),
		newExportCmd(a),
		newImportCmd(a),
	)

	return cmd
}
