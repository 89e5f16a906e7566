package main

import (
	"github.com/sensorable/bblabel"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type statusReport struct {
	Input      string                   `yaml:"input"`
	Output     string                   `yaml:"output"`
	Categories []bblabel.CategoryStatus `yaml:"categories"`
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the annotation progress of every category as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			categories, err := bblabel.Summarize(a.catalog, a.labels)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()

			return enc.Encode(statusReport{
				Input:      a.cfg.InputDir,
				Output:     a.cfg.OutputDir,
				Categories: categories,
			})
		},
	}
}
