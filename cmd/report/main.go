// Command report runs the processing step and chart generation without the web server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"trapcam/internal/config"
	"trapcam/internal/domain"
	"trapcam/internal/service"
	"trapcam/pkg/logger"
)

func main() {
	process := flag.Bool("process", false, "Label stored images before generating the report")
	bodyPercentage := flag.Int("body-percentage", 50, "Body percentage passed to the classifier")
	bboxWidth := flag.Int("bbox-width", 100, "Bounding box width")
	bboxHeight := flag.Int("bbox-height", 100, "Bounding box height")
	limbPoints := flag.Int("limb-points", 4, "Limb points passed to the classifier")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("CRITICAL: Failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.NewSugared(cfg.Server.LogLevel)
	if err != nil {
		os.Stderr.WriteString("CRITICAL: Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := service.NewImageService(cfg, log.Desugar())
	if err != nil {
		log.Fatal("Failed to create image service: ", err)
	}

	if *process {
		records, err := svc.Process(ctx, domain.ProcessingParams{
			BodyPercentage: *bodyPercentage,
			BBoxWidth:      *bboxWidth,
			BBoxHeight:     *bboxHeight,
			LimbPoints:     *limbPoints,
		})
		if err != nil {
			log.Fatal("Processing failed: ", err)
		}
		log.Infof("Processed %d images", len(records))
	}

	summary, err := svc.Report(ctx)
	if err != nil {
		log.Fatal("Report failed: ", err)
	}

	csvPath, err := svc.ExportCSV(ctx)
	if err != nil {
		log.Fatal("CSV export failed: ", err)
	}

	log.Infof("Report written to %s: %d images, %d empty, %d non-empty; CSV at %s",
		cfg.App.StaticDir, summary.Total, summary.Empty, summary.NonEmpty, csvPath)
}
