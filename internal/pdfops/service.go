package pdfops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotEncrypted     = errors.New("PDF is not encrypted")
	ErrAlreadyEncrypted = errors.New("PDF is already encrypted")
	ErrWrongPassword    = errors.New("wrong password")
)

// Service bundles the page-level document operations that work on whole
// files: merging, splitting, page selection, rotation, watermarking and
// password handling.
type Service struct {
	log *logrus.Logger
}

func NewService(log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{log: log}
}

// Merge concatenates the input files into a single output document,
// preserving the given order.
func (s *Service) Merge(inputs []string, output string) error {
	if len(inputs) < 2 {
		return fmt.Errorf("merge needs at least two input files, got %d", len(inputs))
	}
	for _, in := range inputs {
		if err := checkInput(in); err != nil {
			return err
		}
		if isEncryptedFile(in) {
			return fmt.Errorf("cannot merge encrypted file %s", in)
		}
	}
	if err := ensureParentDir(output); err != nil {
		return err
	}

	s.log.Infof("Merging %d files into %s", len(inputs), output)
	if err := api.MergeCreateFile(inputs, output, false, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("failed to merge files: %w", err)
	}
	return nil
}

// Split writes the input document into outDir as a series of files of
// span pages each.
func (s *Service) Split(input, outDir string, span int) error {
	if err := checkInput(input); err != nil {
		return err
	}
	if span < 1 {
		return fmt.Errorf("span must be at least 1, got %d", span)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	s.log.Infof("Splitting %s into %s (span %d)", input, outDir, span)
	if err := api.SplitFile(input, outDir, span, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("failed to split file: %w", err)
	}
	// pdfcpu names single-page output base_N.pdf; zero-pad so directory
	// listings sort in page order.
	if span == 1 {
		return renameSplitPages(outDir, input)
	}
	return nil
}

// ExtractPages copies the pages named by a 1-indexed range expression
// like "1-5,8" into a new document.
func (s *Service) ExtractPages(input, output, pages string) error {
	if err := checkInput(input); err != nil {
		return err
	}
	sel, err := s.rangeSelectors(input, pages)
	if err != nil {
		return err
	}
	if sel == nil {
		return fmt.Errorf("empty page expression")
	}
	if err := ensureParentDir(output); err != nil {
		return err
	}

	s.log.Infof("Extracting pages %s from %s", pages, input)
	if err := api.TrimFile(input, output, sel, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("failed to extract pages: %w", err)
	}
	return nil
}

// CollectPages builds a new document from the page expression in the
// order given. Pages may repeat, so "2,1,1" duplicates page one.
func (s *Service) CollectPages(input, output, pages string) error {
	if err := checkInput(input); err != nil {
		return err
	}
	n, err := api.PageCountFile(input)
	if err != nil {
		return fmt.Errorf("failed to read page count: %w", err)
	}
	list, err := ParseSequence(pages, n)
	if err != nil {
		return err
	}
	if err := ensureParentDir(output); err != nil {
		return err
	}

	s.log.Infof("Collecting pages %s from %s", pages, input)
	if err := api.CollectFile(input, output, pageTokens(list), model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("failed to collect pages: %w", err)
	}
	return nil
}

// Rotate turns the selected pages by angle degrees clockwise. An empty
// page expression rotates the whole document.
func (s *Service) Rotate(input, output string, angle int, pages string) error {
	if err := checkInput(input); err != nil {
		return err
	}
	if angle == 0 || angle%90 != 0 {
		return fmt.Errorf("rotation must be a non-zero multiple of 90 degrees, got %d", angle)
	}
	sel, err := s.rangeSelectors(input, pages)
	if err != nil {
		return err
	}
	if err := ensureParentDir(output); err != nil {
		return err
	}

	s.log.Infof("Rotating %s by %d degrees", input, angle)
	if err := api.RotateFile(input, output, angle, sel, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("failed to rotate pages: %w", err)
	}
	return nil
}

// WatermarkOptions describes a text or image watermark. Exactly one of
// Text and ImagePath must be set.
type WatermarkOptions struct {
	Text      string
	ImagePath string
	FontSize  int     // text only, defaults to 36
	Rotation  float64 // degrees, counterclockwise
	Opacity   float64 // 0..1, defaults to 0.3
	Behind    bool    // render under the page content instead of over it
	Pages     string  // empty means all pages
}

// Watermark stamps the selected pages with a centered text or image mark.
func (s *Service) Watermark(input, output string, opts WatermarkOptions) error {
	if err := checkInput(input); err != nil {
		return err
	}
	if (opts.Text == "") == (opts.ImagePath == "") {
		return fmt.Errorf("exactly one of text and image must be given")
	}
	if opts.Opacity <= 0 || opts.Opacity > 1 {
		opts.Opacity = 0.3
	}
	if opts.FontSize <= 0 {
		opts.FontSize = 36
	}
	sel, err := s.rangeSelectors(input, opts.Pages)
	if err != nil {
		return err
	}
	if err := ensureParentDir(output); err != nil {
		return err
	}

	onTop := !opts.Behind
	var wm *model.Watermark
	if opts.Text != "" {
		desc := fmt.Sprintf("font:Helvetica, points:%d, pos:c, rot:%.0f, op:%.2f",
			opts.FontSize, opts.Rotation, opts.Opacity)
		wm, err = api.TextWatermark(opts.Text, desc, onTop, false, types.POINTS)
	} else {
		if err := checkExists(opts.ImagePath); err != nil {
			return err
		}
		desc := fmt.Sprintf("pos:c, rot:%.0f, op:%.2f", opts.Rotation, opts.Opacity)
		wm, err = api.ImageWatermark(opts.ImagePath, desc, onTop, false, types.POINTS)
	}
	if err != nil {
		return fmt.Errorf("failed to build watermark: %w", err)
	}

	s.log.Infof("Watermarking %s", input)
	if err := api.AddWatermarksFile(input, output, sel, wm, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("failed to add watermark: %w", err)
	}
	return nil
}

// ProtectOptions sets the passwords and permissions for Protect. An
// empty owner password falls back to the user password.
type ProtectOptions struct {
	UserPassword  string
	OwnerPassword string
	Permissions   string // "none", "print" or "all"
}

// Protect encrypts the document with AES-256.
func (s *Service) Protect(input, output string, opts ProtectOptions) error {
	if err := checkInput(input); err != nil {
		return err
	}
	if opts.UserPassword == "" {
		return fmt.Errorf("user password must not be empty")
	}
	if opts.OwnerPassword == "" {
		opts.OwnerPassword = opts.UserPassword
	}

	conf := model.NewDefaultConfiguration()
	switch opts.Permissions {
	case "", "none":
		conf.Permissions = model.PermissionsNone
	case "print":
		conf.Permissions = model.PermissionsPrint
	case "all":
		conf.Permissions = model.PermissionsAll
	default:
		return fmt.Errorf("unknown permission set %q", opts.Permissions)
	}

	if isEncryptedFile(input) {
		return fmt.Errorf("%s: %w", input, ErrAlreadyEncrypted)
	}
	if err := ensureParentDir(output); err != nil {
		return err
	}

	conf.UserPW = opts.UserPassword
	conf.OwnerPW = opts.OwnerPassword
	conf.EncryptUsingAES = true
	conf.EncryptKeyLength = 256

	s.log.Infof("Encrypting %s", input)
	if err := api.EncryptFile(input, output, conf); err != nil {
		return fmt.Errorf("failed to encrypt file: %w", err)
	}
	return nil
}

// Unlock removes the encryption from a protected document. The password
// is accepted as either the user or the owner password.
func (s *Service) Unlock(input, output, password string) error {
	if err := checkInput(input); err != nil {
		return err
	}
	if ctx, err := api.ReadContextFile(input); err == nil && ctx.Encrypt == nil {
		return fmt.Errorf("%s: %w", input, ErrNotEncrypted)
	}
	if err := ensureParentDir(output); err != nil {
		return err
	}

	conf := model.NewDefaultConfiguration()
	conf.UserPW = password
	conf.OwnerPW = password

	s.log.Infof("Decrypting %s", input)
	if err := api.DecryptFile(input, output, conf); err != nil {
		if isPasswordError(err) {
			return fmt.Errorf("%s: %w", input, ErrWrongPassword)
		}
		return fmt.Errorf("failed to decrypt file: %w", err)
	}
	return nil
}

// PageCount reports the number of pages in the document.
func (s *Service) PageCount(input string) (int, error) {
	if err := checkInput(input); err != nil {
		return 0, err
	}
	n, err := api.PageCountFile(input)
	if err != nil {
		return 0, fmt.Errorf("failed to read page count: %w", err)
	}
	return n, nil
}

// rangeSelectors resolves a range expression into pdfcpu page selection
// tokens. An empty expression selects all pages and returns nil.
func (s *Service) rangeSelectors(input, pages string) ([]string, error) {
	if strings.TrimSpace(pages) == "" {
		return nil, nil
	}
	n, err := api.PageCountFile(input)
	if err != nil {
		return nil, fmt.Errorf("failed to read page count: %w", err)
	}
	list, err := ParseRanges(pages, n)
	if err != nil {
		return nil, err
	}
	return runTokens(list), nil
}

func isPasswordError(err error) bool {
	if errors.Is(err, model.ErrWrongPassword) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password")
}

// isEncryptedFile reports whether the document carries an encryption
// dictionary. Files that cannot be read without a password count as
// encrypted.
func isEncryptedFile(path string) bool {
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return isPasswordError(err)
	}
	return ctx.Encrypt != nil
}

// renameSplitPages renames pdfcpu's base_N.pdf single-page output to
// base_page_NNN.pdf. Files that do not match the pattern are left
// alone.
func renameSplitPages(outDir, input string) error {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return fmt.Errorf("failed to list output directory: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, base+"_") || !strings.HasSuffix(name, ".pdf") {
			continue
		}
		page, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, base+"_"), ".pdf"))
		if err != nil || page < 1 {
			continue
		}
		renamed := fmt.Sprintf("%s_page_%03d.pdf", base, page)
		if err := os.Rename(filepath.Join(outDir, name), filepath.Join(outDir, renamed)); err != nil {
			return fmt.Errorf("failed to rename %s: %w", name, err)
		}
	}
	return nil
}

func checkInput(path string) error {
	if err := checkExists(path); err != nil {
		return err
	}
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fmt.Errorf("not a PDF file: %s", path)
	}
	return nil
}

func checkExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", path)
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("not a file: %s", path)
	}
	return nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}
