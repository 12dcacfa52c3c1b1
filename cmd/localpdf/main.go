package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Svetozar-Technologies/LocalPDF/internal/compressor"
	"github.com/Svetozar-Technologies/LocalPDF/internal/config"
	"github.com/Svetozar-Technologies/LocalPDF/internal/converter"
	"github.com/Svetozar-Technologies/LocalPDF/internal/document"
	"github.com/Svetozar-Technologies/LocalPDF/internal/history"
	"github.com/Svetozar-Technologies/LocalPDF/internal/imagecodec"
	"github.com/Svetozar-Technologies/LocalPDF/internal/logger"
	"github.com/Svetozar-Technologies/LocalPDF/internal/ocr"
	"github.com/Svetozar-Technologies/LocalPDF/internal/pdfinfo"
	"github.com/Svetozar-Technologies/LocalPDF/internal/pdfops"
	"github.com/Svetozar-Technologies/LocalPDF/internal/web"
)

var (
	cfgFile   string
	verbose   bool
	quiet     bool
	jsonOut   bool
	version   = "dev"
	buildTime = "unknown"

	targetMB    float64
	targetBytes int64
	outputPath  string
	outputDir   string
	pagesExpr   string
	orderExpr   string
	span        int
	angle       int

	wmText     string
	wmImage    string
	wmOpacity  float64
	wmRotation float64
	wmFontSize int
	wmBehind   bool

	password      string
	ownerPassword string
	permissions   string

	renderDPI     int
	renderFormat  string
	renderQuality int

	ocrLanguage string
	forceOCR    bool

	historyLimit int
	port         int
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "localpdf",
	Short: "Local PDF toolbox with target-size compression",
	Long: `LocalPDF is a local-first PDF toolbox built around target-size
compression: give it a file and a size budget and it searches JPEG
quality and resolution until the output fits.

Features:
- Compress to an exact target size (quality and scale search)
- Lossless structure optimization and metadata stripping
- Merge, split, extract, reorder and rotate pages
- Text and image watermarks
- AES-256 password protection and unlocking
- PDF to image export and image to PDF import
- Embedded text extraction with OCR fallback for scans
- Batch processing with statistics
- Web interface with live progress`,
}

// compressCmd compresses a single PDF down to a target size.
var compressCmd = &cobra.Command{
	Use:   "compress <input.pdf>",
	Short: "Compress a PDF to a target size",
	Long: `Compresses a PDF until it fits the requested size. The document is
first optimized losslessly (structure compaction, metadata removal);
if that is not enough, embedded photos are re-encoded as JPEG at
decreasing quality, then at decreasing resolution, until the target
is met or the floor is reached.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompress(args[0])
	},
}

// batchCmd compresses every PDF in a directory.
var batchCmd = &cobra.Command{
	Use:   "batch <input-dir>",
	Short: "Compress every PDF in a directory to a target size",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(args[0])
	},
}

// mergeCmd concatenates PDFs.
var mergeCmd = &cobra.Command{
	Use:   "merge <output.pdf> <input1.pdf> <input2.pdf> [input3.pdf ...]",
	Short: "Merge two or more PDFs into one",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMerge(args[0], args[1:])
	},
}

// splitCmd splits a PDF into chunks.
var splitCmd = &cobra.Command{
	Use:   "split <input.pdf>",
	Short: "Split a PDF into files of N pages each",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSplit(args[0])
	},
}

// extractCmd copies selected pages into a new PDF.
var extractCmd = &cobra.Command{
	Use:   "extract <input.pdf>",
	Short: "Extract a page range into a new PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(args[0])
	},
}

// pagesCmd rebuilds a PDF with pages in a given order.
var pagesCmd = &cobra.Command{
	Use:   "pages <input.pdf>",
	Short: "Reorder or duplicate pages",
	Long: `Builds a new PDF from the pages listed in --order, in that order.
Pages may repeat, so "1,1,2" duplicates the first page.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPages(args[0])
	},
}

// rotateCmd rotates pages.
var rotateCmd = &cobra.Command{
	Use:   "rotate <input.pdf>",
	Short: "Rotate pages by a multiple of 90 degrees",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRotate(args[0])
	},
}

// watermarkCmd stamps pages with text or an image.
var watermarkCmd = &cobra.Command{
	Use:   "watermark <input.pdf>",
	Short: "Add a text or image watermark",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatermark(args[0])
	},
}

// protectCmd encrypts a PDF.
var protectCmd = &cobra.Command{
	Use:   "protect <input.pdf>",
	Short: "Password-protect a PDF with AES-256",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProtect(args[0])
	},
}

// unlockCmd removes PDF encryption.
var unlockCmd = &cobra.Command{
	Use:   "unlock <input.pdf>",
	Short: "Remove password protection from a PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUnlock(args[0])
	},
}

// toimagesCmd renders pages as image files.
var toimagesCmd = &cobra.Command{
	Use:   "toimages <input.pdf>",
	Short: "Render PDF pages as PNG or JPEG files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runToImages(args[0])
	},
}

// fromimagesCmd builds a PDF from image files.
var fromimagesCmd = &cobra.Command{
	Use:   "fromimages <output.pdf> <image1> [image2 ...]",
	Short: "Build a PDF with one page per image",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFromImages(args[0], args[1:])
	},
}

// ocrCmd extracts text, running OCR on scanned pages.
var ocrCmd = &cobra.Command{
	Use:   "ocr <input.pdf|image>",
	Short: "Extract text, using OCR for pages without a text layer",
	Long: `Extracts the text of a PDF, preferring the embedded text layer and
falling back to OCR for scanned pages. A standalone image (PNG, JPEG,
TIFF) is recognized directly.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOCR(args[0])
	},
}

// infoCmd inspects a PDF without modifying it.
var infoCmd = &cobra.Command{
	Use:   "info <input.pdf>",
	Short: "Show size, page count, images and metadata of a PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInfo(args[0])
	},
}

// historyCmd lists recent compression runs.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent compression runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistory()
	},
}

// serveCmd starts the web interface server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start web interface server",
	Long: `Starts a web server with a graphical interface for LocalPDF.
The web interface allows you to:
- Pick a PDF and a target size
- Monitor compression progress in real-time
- Inspect documents and browse compression history

Access the interface at http://localhost:<port> (default: 8080)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

// versionCmd prints build information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("LocalPDF %s (built %s)\n", version, buildTime)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress non-error output")

	compressCmd.Flags().Float64Var(&targetMB, "target-mb", 0, "target size in megabytes")
	compressCmd.Flags().Int64Var(&targetBytes, "target-bytes", 0, "target size in bytes (overrides --target-mb)")
	compressCmd.Flags().StringVar(&outputPath, "output", "", "output file (default: <input>_compressed.pdf)")
	compressCmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as JSON")

	batchCmd.Flags().Float64Var(&targetMB, "target-mb", 0, "target size in megabytes")
	batchCmd.Flags().Int64Var(&targetBytes, "target-bytes", 0, "target size in bytes (overrides --target-mb)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "", "output directory (default: <input-dir>/compressed)")

	splitCmd.Flags().StringVar(&outputDir, "output-dir", "", "output directory (default: <input>_split)")
	splitCmd.Flags().IntVar(&span, "span", 1, "pages per output file")

	extractCmd.Flags().StringVar(&pagesExpr, "pages", "", "page ranges, e.g. 1-5,8,11-13")
	extractCmd.Flags().StringVar(&outputPath, "output", "", "output file (default: <input>_extracted.pdf)")
	extractCmd.MarkFlagRequired("pages")

	pagesCmd.Flags().StringVar(&orderExpr, "order", "", "page order, e.g. 3,1,2")
	pagesCmd.Flags().StringVar(&outputPath, "output", "", "output file (default: <input>_reordered.pdf)")
	pagesCmd.MarkFlagRequired("order")

	rotateCmd.Flags().IntVar(&angle, "angle", 90, "rotation in degrees, multiple of 90")
	rotateCmd.Flags().StringVar(&pagesExpr, "pages", "", "page ranges (default: all pages)")
	rotateCmd.Flags().StringVar(&outputPath, "output", "", "output file (default: <input>_rotated.pdf)")

	watermarkCmd.Flags().StringVar(&wmText, "text", "", "watermark text")
	watermarkCmd.Flags().StringVar(&wmImage, "image", "", "watermark image file")
	watermarkCmd.Flags().Float64Var(&wmOpacity, "opacity", 0.3, "watermark opacity (0..1)")
	watermarkCmd.Flags().Float64Var(&wmRotation, "rotation", 45, "watermark rotation in degrees")
	watermarkCmd.Flags().IntVar(&wmFontSize, "font-size", 36, "text watermark font size in points")
	watermarkCmd.Flags().BoolVar(&wmBehind, "behind", false, "render under the page content")
	watermarkCmd.Flags().StringVar(&pagesExpr, "pages", "", "page ranges (default: all pages)")
	watermarkCmd.Flags().StringVar(&outputPath, "output", "", "output file (default: <input>_watermarked.pdf)")

	protectCmd.Flags().StringVar(&password, "password", "", "user password (required)")
	protectCmd.Flags().StringVar(&ownerPassword, "owner-password", "", "owner password (default: user password)")
	protectCmd.Flags().StringVar(&permissions, "permissions", "none", "granted permissions: none, print or all")
	protectCmd.Flags().StringVar(&outputPath, "output", "", "output file (default: <input>_protected.pdf)")
	protectCmd.MarkFlagRequired("password")

	unlockCmd.Flags().StringVar(&password, "password", "", "current user or owner password (required)")
	unlockCmd.Flags().StringVar(&outputPath, "output", "", "output file (default: <input>_unlocked.pdf)")
	unlockCmd.MarkFlagRequired("password")

	toimagesCmd.Flags().StringVar(&outputDir, "output-dir", "", "output directory (default: <input>_images)")
	toimagesCmd.Flags().StringVar(&pagesExpr, "pages", "", "page ranges (default: all pages)")
	toimagesCmd.Flags().IntVar(&renderDPI, "dpi", 0, "render resolution (default from config)")
	toimagesCmd.Flags().StringVar(&renderFormat, "format", "", "image format: png or jpeg (default from config)")
	toimagesCmd.Flags().IntVar(&renderQuality, "jpeg-quality", 0, "JPEG quality (default from config)")

	ocrCmd.Flags().StringVar(&outputPath, "output", "", "text output file (default: stdout)")
	ocrCmd.Flags().StringVar(&ocrLanguage, "language", "", "tesseract language, e.g. eng or eng+deu (default from config)")
	ocrCmd.Flags().BoolVar(&forceOCR, "force", false, "OCR every page even when a text layer exists")

	infoCmd.Flags().BoolVar(&jsonOut, "json", false, "print the report as JSON")

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of runs to show")

	serveCmd.Flags().IntVar(&port, "port", 8080, "port to run web server on")

	rootCmd.AddCommand(compressCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(splitCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(pagesCmd)
	rootCmd.AddCommand(rotateCmd)
	rootCmd.AddCommand(watermarkCmd)
	rootCmd.AddCommand(protectCmd)
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(toimagesCmd)
	rootCmd.AddCommand(fromimagesCmd)
	rootCmd.AddCommand(ocrCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// initConfig loads configuration file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.localpdf")
		viper.AddConfigPath("/etc/localpdf")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// runCompress executes a single target-size compression.
func runCompress(input string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	target, err := resolveTarget()
	if err != nil {
		return err
	}
	output := outputPath
	if output == "" {
		output = pdfinfo.CompressedOutputPath(input, cfg.Output.Suffix)
	}

	log := setupLogger(cfg)
	engine := compressor.NewEngine(document.NewStore(), imagecodec.New(), cfg.Compression, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	params := compressor.CompressionParams{
		InputPath:   input,
		OutputPath:  output,
		TargetBytes: target,
	}
	if !quiet && !jsonOut {
		params.Progress = func(percent int, message string) {
			fmt.Fprintf(os.Stderr, "\r[%3d%%] %-60s", percent, message)
		}
	}

	res, cerr := engine.CompressToTarget(ctx, params)
	if params.Progress != nil {
		fmt.Fprintln(os.Stderr)
	}

	recordHistory(cfg, log, res)

	if jsonOut {
		printJSON(res)
	} else if !quiet {
		printResult(res)
	}
	return cerr
}

// runBatch compresses every PDF in a directory.
func runBatch(inputDir string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	target, err := resolveTarget()
	if err != nil {
		return err
	}

	log := setupLogger(cfg)
	engine := compressor.NewEngine(document.NewStore(), imagecodec.New(), cfg.Compression, log)

	var store *history.Store
	if cfg.History.Enabled {
		if store, err = history.Open(cfg.History.Path, log); err != nil {
			log.Warnf("History disabled: %v", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	br, berr := engine.CompressBatch(ctx, compressor.BatchParams{
		InputDir:    inputDir,
		OutputDir:   outputDir,
		TargetBytes: target,
		OnResult: func(res *compressor.CompressionResult) {
			if !quiet {
				fmt.Printf("%-20s %s\n", res.Status, filepath.Base(res.InputPath))
			}
			if store != nil {
				if herr := store.Record(res); herr != nil {
					log.Warnf("Failed to record history entry: %v", herr)
				}
			}
		},
	})

	if br != nil && !quiet {
		fmt.Println("\n" + br.Stats.GetSummary())
		if br.Stats.GetFilesFailed() > 0 {
			fmt.Println("\n" + br.Stats.GetErrorSummary())
		}
	}
	return berr
}

func runMerge(output string, inputs []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	if err := svc.Merge(inputs, output); err != nil {
		return err
	}
	say("Merged %d files into %s", len(inputs), output)
	return nil
}

func runSplit(input string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	outDir := outputDir
	if outDir == "" {
		outDir = defaultSibling(input, "split")
	}
	if err := svc.Split(input, outDir, span); err != nil {
		return err
	}
	say("Split %s into %s", input, outDir)
	return nil
}

func runExtract(input string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	output := defaultOutput(input, "extracted")
	if err := svc.ExtractPages(input, output, pagesExpr); err != nil {
		return err
	}
	say("Extracted pages %s into %s", pagesExpr, output)
	return nil
}

func runPages(input string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	output := defaultOutput(input, "reordered")
	if err := svc.CollectPages(input, output, orderExpr); err != nil {
		return err
	}
	say("Wrote pages %s into %s", orderExpr, output)
	return nil
}

func runRotate(input string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	output := defaultOutput(input, "rotated")
	if err := svc.Rotate(input, output, angle, pagesExpr); err != nil {
		return err
	}
	say("Rotated %s by %d degrees into %s", input, angle, output)
	return nil
}

func runWatermark(input string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	output := defaultOutput(input, "watermarked")
	opts := pdfops.WatermarkOptions{
		Text:      wmText,
		ImagePath: wmImage,
		FontSize:  wmFontSize,
		Rotation:  wmRotation,
		Opacity:   wmOpacity,
		Behind:    wmBehind,
		Pages:     pagesExpr,
	}
	if err := svc.Watermark(input, output, opts); err != nil {
		return err
	}
	say("Watermarked %s into %s", input, output)
	return nil
}

func runProtect(input string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	output := defaultOutput(input, "protected")
	opts := pdfops.ProtectOptions{
		UserPassword:  password,
		OwnerPassword: ownerPassword,
		Permissions:   permissions,
	}
	if err := svc.Protect(input, output, opts); err != nil {
		return err
	}
	say("Encrypted %s into %s", input, output)
	return nil
}

func runUnlock(input string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	output := defaultOutput(input, "unlocked")
	if err := svc.Unlock(input, output, password); err != nil {
		return err
	}
	say("Decrypted %s into %s", input, output)
	return nil
}

func runToImages(input string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if renderDPI > 0 {
		cfg.Render.DPI = renderDPI
	}
	if renderFormat != "" {
		cfg.Render.Format = renderFormat
	}
	if renderQuality > 0 {
		cfg.Render.JPEGQuality = renderQuality
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	outDir := outputDir
	if outDir == "" {
		outDir = defaultSibling(input, "images")
	}

	log := setupLogger(cfg)
	conv := converter.NewConverter(cfg.Render, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	written, err := conv.ToImages(ctx, input, outDir, pagesExpr)
	if err != nil {
		return err
	}
	say("Wrote %d images to %s", len(written), outDir)
	return nil
}

func runFromImages(output string, inputs []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := setupLogger(cfg)
	conv := converter.NewConverter(cfg.Render, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := conv.FromImages(ctx, inputs, output); err != nil {
		return err
	}
	say("Built %s from %d images", output, len(inputs))
	return nil
}

func runOCR(input string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if ocrLanguage != "" {
		cfg.OCR.Language = ocrLanguage
	}

	log := setupLogger(cfg)
	rec := ocr.New(cfg.OCR, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var res *ocr.Result
	if strings.EqualFold(filepath.Ext(input), ".pdf") {
		res, err = rec.RecognizeFile(ctx, input, forceOCR)
	} else {
		res, err = rec.RecognizeImage(ctx, input)
	}
	if err != nil {
		return err
	}

	text := res.Combined()
	if outputPath != "" {
		if err := os.WriteFile(outputPath, []byte(text+"\n"), 0644); err != nil {
			return fmt.Errorf("failed to write text output: %w", err)
		}
		say("Wrote text of %d pages to %s (%d via OCR)", len(res.Pages), outputPath, res.OCRPages())
	} else {
		fmt.Println(text)
	}
	return nil
}

func runInfo(input string) error {
	report, err := pdfinfo.Inspect(document.NewStore(), input)
	if err != nil {
		return err
	}

	if jsonOut {
		printJSON(report)
		return nil
	}

	fmt.Printf("File:      %s\n", report.Path)
	fmt.Printf("Size:      %s (%d bytes)\n", report.FileSizeHuman, report.FileSize)
	if report.Encrypted {
		fmt.Println("Encrypted: yes")
		return nil
	}
	fmt.Printf("Pages:     %d\n", report.PageCount)
	fmt.Printf("Images:    %d (%s)\n", report.ImageCount, pdfinfo.FormatFileSize(report.ImageBytes))
	if report.Version != "" {
		fmt.Printf("Version:   %s\n", report.Version)
	}
	for _, field := range []struct{ name, value string }{
		{"Title", report.Title},
		{"Author", report.Author},
		{"Subject", report.Subject},
		{"Creator", report.Creator},
		{"Producer", report.Producer},
	} {
		if field.value != "" {
			fmt.Printf("%-10s %s\n", field.name+":", field.value)
		}
	}
	return nil
}

func runHistory() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return fmt.Errorf("history is disabled; set history.enabled in the config")
	}

	log := setupLogger(cfg)
	store, err := history.Open(cfg.History.Path, log)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Recent(historyLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No compression runs recorded yet.")
		return nil
	}

	for _, r := range records {
		fmt.Printf("%s  %-20s %10s -> %-10s %s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Status,
			pdfinfo.FormatFileSize(r.OriginalSize),
			pdfinfo.FormatFileSize(r.CompressedSize),
			r.InputPath)
	}
	return nil
}

// runServe starts the web server and handles graceful shutdown.
func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "CONFIG LOAD ERROR: %v\n", err)
		cfg = config.DefaultConfig()
	}

	log := setupLogger(cfg)
	server := web.NewServer(cfg, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.Start(port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	fmt.Printf("🚀 LocalPDF Web Interface started!\n")
	fmt.Printf("📱 Open your browser and go to: http://localhost:%d\n", port)
	fmt.Printf("🛑 Press Ctrl+C to stop the server\n\n")

	<-sigChan
	fmt.Println("\n🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	fmt.Println("✅ Server stopped gracefully")
	return nil
}

// loadConfig loads configuration file and environment variables.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newService builds the page-operation service with a configured logger.
func newService() (*pdfops.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return pdfops.NewService(setupLogger(cfg)), nil
}

// resolveTarget turns the size flags into a byte count.
func resolveTarget() (int64, error) {
	if targetBytes > 0 {
		return targetBytes, nil
	}
	if targetMB > 0 {
		return int64(targetMB * 1024 * 1024), nil
	}
	return 0, fmt.Errorf("target size required: pass --target-mb or --target-bytes")
}

// recordHistory stores a finished run when history is enabled.
func recordHistory(cfg *config.Config, log *logrus.Logger, res *compressor.CompressionResult) {
	if !cfg.History.Enabled || res == nil {
		return
	}
	store, err := history.Open(cfg.History.Path, log)
	if err != nil {
		log.Warnf("Failed to open history: %v", err)
		return
	}
	defer store.Close()
	if err := store.Record(res); err != nil {
		log.Warnf("Failed to record history entry: %v", err)
	}
}

// printResult prints a human-readable compression summary.
func printResult(res *compressor.CompressionResult) {
	fmt.Printf("Status:     %s\n", res.Status)
	if res.Message != "" {
		fmt.Printf("Message:    %s\n", res.Message)
	}
	fmt.Printf("Original:   %s\n", pdfinfo.FormatFileSize(res.OriginalSize))
	if res.OK() {
		fmt.Printf("Compressed: %s (%.1f%% saved)\n",
			pdfinfo.FormatFileSize(res.CompressedSize), res.PercentageSaved)
		fmt.Printf("Output:     %s\n", res.OutputPath)
	}
	if res.Status == compressor.StatusUnreachable {
		fmt.Printf("Minimum:    %s\n", pdfinfo.FormatFileSize(res.MinimumBytes))
	}
	if res.Iterations > 0 {
		fmt.Printf("Search:     quality %d, scale %.2f, %d iterations\n",
			res.Quality, res.Scale, res.Iterations)
	}
	if res.ImagesTotal > 0 {
		fmt.Printf("Images:     %d recompressible, %d recoded, %d skipped\n",
			res.ImagesTotal, res.ImagesRecoded, res.ImagesSkipped)
	}
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

// say prints to stdout unless --quiet is set.
func say(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// defaultOutput names the output next to the input: doc.pdf -> doc_<tag>.pdf.
func defaultOutput(input, tag string) string {
	if outputPath != "" {
		return outputPath
	}
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(filepath.Base(input), ext)
	if ext == "" {
		ext = ".pdf"
	}
	return filepath.Join(filepath.Dir(input), base+"_"+tag+ext)
}

// defaultSibling names an output directory next to the input file.
func defaultSibling(input, tag string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(filepath.Dir(input), base+"_"+tag)
}

// setupLogger configures and returns a logger.
func setupLogger(cfg *config.Config) *logrus.Logger {
	loggerCfg := logger.LoggerConfig{
		Level:      cfg.Logging.Level,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
		Console:    !quiet,
	}

	if verbose {
		loggerCfg.Level = "debug"
	}
	if quiet {
		loggerCfg.Level = "error"
	}

	log, err := logger.NewLogger(loggerCfg)
	if err != nil {
		log = logrus.New()
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
