package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/konkayan987-blip/Dashbord-condensate/internal/dashboard"
	"github.com/konkayan987-blip/Dashbord-condensate/internal/pipeline"
	"github.com/konkayan987-blip/Dashbord-condensate/internal/present"
)

var (
	exportFilters filterFlags
	exportOut     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the filtered data table as CSV",
	Long: `Loads the sheet once, applies the filters and writes the same table the
dashboard download would produce. Writes to stdout unless --out is set.`,
	RunE: runExport,
}

func init() {
	exportFilters.register(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	c, err := exportFilters.criteria()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc := dashboard.New(cfg, nil)

	var w io.Writer = cmd.OutOrStdout()
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOut, err)
		}
		defer f.Close()
		w = f
	}
	bw := bufio.NewWriter(w)

	if err := svc.Export(cmd.Context(), c, bw); err != nil {
		if errors.Is(err, pipeline.ErrEmpty) {
			return errors.New(present.NoDataMessage)
		}
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	if exportOut != "" {
		slog.Info("export written", "path", exportOut)
	}
	return nil
}
