package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/filter"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// pdfcpuStore opens documents through pdfcpu's in-memory context model.
type pdfcpuStore struct {
	conf *model.Configuration
}

// NewStore returns a Store backed by pdfcpu with relaxed validation, so that
// the slightly out-of-spec files real scanners and office suites produce
// still open.
func NewStore() Store {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &pdfcpuStore{conf: conf}
}

func (s *pdfcpuStore) Open(path string) (Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("cannot stat %s: %w", path, err)
	}
	if info.IsDir() || !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return nil, fmt.Errorf("%w: %s", ErrNotPDF, path)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return s.OpenBytes(data)
}

func (s *pdfcpuStore) OpenBytes(data []byte) (Document, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	ctx, err := api.ReadContext(bytes.NewReader(data), s.conf)
	if err != nil {
		if isEncryptionError(err) {
			return nil, ErrEncrypted
		}
		return nil, fmt.Errorf("cannot open PDF: %w", err)
	}
	// An encryption dictionary means the save path would have to re-encrypt,
	// so password-protected files are rejected even when the empty user
	// password happens to unlock them.
	if ctx.XRefTable.Encrypt != nil {
		return nil, ErrEncrypted
	}

	if err := api.ValidateContext(ctx); err != nil {
		if isEncryptionError(err) {
			return nil, ErrEncrypted
		}
		return nil, fmt.Errorf("cannot open PDF: %w", err)
	}
	if ctx.PageCount == 0 {
		return nil, ErrNoPages
	}

	return &pdfcpuDocument{ctx: ctx}, nil
}

func isEncryptionError(err error) bool {
	if errors.Is(err, model.ErrWrongPassword) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") || strings.Contains(msg, "encrypt")
}

// pdfcpuDocument wraps a parsed cross-reference table and mutates image
// stream objects in place.
type pdfcpuDocument struct {
	ctx *model.Context
}

func (d *pdfcpuDocument) PageCount() int {
	return d.ctx.PageCount
}

func (d *pdfcpuDocument) Images() ([]ImageInfo, error) {
	var infos []ImageInfo
	for objNr, entry := range d.ctx.XRefTable.Table {
		if entry == nil || entry.Free || entry.Object == nil {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if st := sd.Dict.NameEntry("Subtype"); st == nil || *st != "Image" {
			continue
		}
		infos = append(infos, d.imageInfo(ObjectID(objNr), &sd))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

func (d *pdfcpuDocument) imageInfo(id ObjectID, sd *types.StreamDict) ImageInfo {
	info := ImageInfo{
		ID:               id,
		RawLength:        len(sd.Raw),
		BitsPerComponent: 8,
	}
	if w := sd.Dict.IntEntry("Width"); w != nil {
		info.Width = *w
	}
	if h := sd.Dict.IntEntry("Height"); h != nil {
		info.Height = *h
	}
	if bpc := sd.Dict.IntEntry("BitsPerComponent"); bpc != nil {
		info.BitsPerComponent = *bpc
	}
	if b := sd.Dict.BooleanEntry("ImageMask"); b != nil && *b {
		info.IsMask = true
		info.BitsPerComponent = 1
	}
	if ir := sd.Dict.IndirectRefEntry("SMask"); ir != nil {
		info.SoftMask = ObjectID(ir.ObjectNumber.Value())
	}
	info.Mode = d.colorMode(sd.Dict)
	return info
}

// colorMode maps a ColorSpace entry onto the small set of modes the codec
// layer understands. Anything exotic reports ModeUnknown and gets skipped.
func (d *pdfcpuDocument) colorMode(dict types.Dict) ColorMode {
	o, found := dict.Find("ColorSpace")
	if !found {
		return ModeUnknown
	}
	return d.resolveColorSpace(o, 0)
}

func (d *pdfcpuDocument) resolveColorSpace(o types.Object, depth int) ColorMode {
	if depth > 2 {
		return ModeUnknown
	}
	o, err := d.ctx.Dereference(o)
	if err != nil || o == nil {
		return ModeUnknown
	}

	switch cs := o.(type) {
	case types.Name:
		switch cs.Value() {
		case "DeviceGray", "CalGray":
			return ModeGray
		case "DeviceRGB", "CalRGB":
			return ModeRGB
		case "DeviceCMYK":
			return ModeCMYK
		}
	case types.Array:
		if len(cs) == 0 {
			return ModeUnknown
		}
		name, ok := cs[0].(types.Name)
		if !ok {
			return ModeUnknown
		}
		switch name.Value() {
		case "CalGray":
			return ModeGray
		case "CalRGB", "Lab":
			return ModeRGB
		case "Indexed":
			return ModeIndexed
		case "ICCBased":
			if len(cs) < 2 {
				return ModeUnknown
			}
			sd, _, err := d.ctx.DereferenceStreamDict(cs[1])
			if err != nil || sd == nil {
				return ModeUnknown
			}
			if n := sd.Dict.IntEntry("N"); n != nil {
				switch *n {
				case 1:
					return ModeGray
				case 3:
					return ModeRGB
				case 4:
					return ModeCMYK
				}
			}
		}
	}
	return ModeUnknown
}

// decodeInverted reports whether a Decode array reverses the polarity of the
// first channel, the fingerprint of inverted (Adobe-style) CMYK scans.
func decodeInverted(dict types.Dict) bool {
	arr := dict.ArrayEntry("Decode")
	if len(arr) < 2 {
		return false
	}
	lo, okLo := floatValue(arr[0])
	hi, okHi := floatValue(arr[1])
	return okLo && okHi && lo == 1 && hi == 0
}

func floatValue(o types.Object) (float64, bool) {
	switch v := o.(type) {
	case types.Integer:
		return float64(v.Value()), true
	case types.Float:
		return v.Value(), true
	}
	return 0, false
}

func (d *pdfcpuDocument) streamDict(id ObjectID) (*model.XRefTableEntry, types.StreamDict, error) {
	entry, ok := d.ctx.XRefTable.Table[int(id)]
	if !ok || entry == nil || entry.Free || entry.Object == nil {
		return nil, types.StreamDict{}, fmt.Errorf("object %d not found", id)
	}
	sd, ok := entry.Object.(types.StreamDict)
	if !ok {
		return nil, types.StreamDict{}, fmt.Errorf("object %d is not a stream", id)
	}
	return entry, sd, nil
}

func (d *pdfcpuDocument) ExtractImage(id ObjectID) (*ImageStream, error) {
	_, sd, err := d.streamDict(id)
	if err != nil {
		return nil, err
	}

	info := d.imageInfo(id, &sd)
	img := &ImageStream{
		ID:               id,
		Width:            info.Width,
		Height:           info.Height,
		Mode:             info.Mode,
		BitsPerComponent: info.BitsPerComponent,
		Inverted:         decodeInverted(sd.Dict),
		IsMask:           info.IsMask,
		SoftMask:         info.SoftMask,
	}

	data, encoding, err := streamPayload(&sd)
	if err != nil {
		return nil, err
	}
	img.Data = data
	img.Encoding = encoding
	return img, nil
}

// streamPayload unwinds the filter pipeline far enough for the codec layer.
// A trailing DCTDecode yields the JPEG bytes verbatim; fully decodable
// pipelines yield the raw pixel array.
func streamPayload(sd *types.StreamDict) ([]byte, StreamEncoding, error) {
	fp := sd.FilterPipeline
	if len(fp) == 0 {
		return sd.Raw, EncodingRawPixels, nil
	}

	switch fp[len(fp)-1].Name {
	case filter.DCT:
		data := sd.Raw
		// Undo any container compression layered over the JPEG.
		for _, f := range fp[:len(fp)-1] {
			if f.Name != filter.Flate || f.DecodeParms != nil {
				return nil, EncodingUnsupported,
					fmt.Errorf("unsupported filter %s over DCTDecode", f.Name)
			}
			fl, err := filter.NewFilter(filter.Flate, nil)
			if err != nil {
				return nil, EncodingUnsupported, err
			}
			r, err := fl.Decode(bytes.NewReader(data))
			if err != nil {
				return nil, EncodingUnsupported, fmt.Errorf("inflate DCT payload: %w", err)
			}
			if data, err = io.ReadAll(r); err != nil {
				return nil, EncodingUnsupported, fmt.Errorf("inflate DCT payload: %w", err)
			}
		}
		return data, EncodingJPEG, nil

	case "JPXDecode", "JBIG2Decode", "CCITTFaxDecode":
		return nil, EncodingUnsupported,
			fmt.Errorf("unsupported image filter %s", fp[len(fp)-1].Name)

	default:
		if err := sd.Decode(); err != nil {
			return nil, EncodingUnsupported, fmt.Errorf("decode image stream: %w", err)
		}
		return sd.Content, EncodingRawPixels, nil
	}
}

func (d *pdfcpuDocument) ReplaceImageStream(id ObjectID, rep ImageReplacement) error {
	entry, sd, err := d.streamDict(id)
	if err != nil {
		return err
	}
	if len(rep.Data) == 0 {
		return fmt.Errorf("object %d: empty replacement payload", id)
	}

	var space string
	switch rep.Mode {
	case ModeGray:
		space = "DeviceGray"
	case ModeRGB:
		space = "DeviceRGB"
	default:
		return fmt.Errorf("object %d: unsupported replacement color mode %s", id, rep.Mode)
	}

	sd.Raw = rep.Data
	sd.Content = nil
	length := int64(len(rep.Data))
	sd.StreamLength = &length
	sd.StreamLengthObjNr = nil
	sd.FilterPipeline = []types.PDFFilter{{Name: filter.DCT, DecodeParms: nil}}

	sd.Dict.Update("Filter", types.Name(filter.DCT))
	sd.Dict.Update("Length", types.Integer(len(rep.Data)))
	sd.Dict.Update("Width", types.Integer(rep.Width))
	sd.Dict.Update("Height", types.Integer(rep.Height))
	sd.Dict.Update("ColorSpace", types.Name(space))
	sd.Dict.Update("BitsPerComponent", types.Integer(rep.BitsPerComponent))
	// Stale decode hints would misread the new payload.
	sd.Dict.Delete("DecodeParms")
	sd.Dict.Delete("Decode")
	sd.Dict.Delete("ImageMask")

	// Table entries hold object values, so the mutated copy must be
	// written back to stick.
	entry.Object = sd
	return nil
}

func (d *pdfcpuDocument) StripMetadata() {
	d.ctx.XRefTable.Info = nil
	if rootDict, err := d.ctx.Catalog(); err == nil {
		rootDict.Delete("Metadata")
	}
}

// Summary implements Summarizer from the header version and the information
// dictionary. Hex-encoded entries are skipped rather than shown raw.
func (d *pdfcpuDocument) Summary() Summary {
	s := Summary{}
	if v := d.ctx.XRefTable.HeaderVersion; v != nil {
		s.Version = v.String()
	}
	s.Title = d.infoString("Title")
	s.Author = d.infoString("Author")
	s.Subject = d.infoString("Subject")
	s.Creator = d.infoString("Creator")
	s.Producer = d.infoString("Producer")
	return s
}

func (d *pdfcpuDocument) infoString(key string) string {
	if d.ctx.XRefTable.Info == nil {
		return ""
	}
	obj, err := d.ctx.Dereference(*d.ctx.XRefTable.Info)
	if err != nil {
		return ""
	}
	dict, ok := obj.(types.Dict)
	if !ok {
		return ""
	}
	val, found := dict.Find(key)
	if !found {
		return ""
	}
	val, err = d.ctx.Dereference(val)
	if err != nil {
		return ""
	}
	if sl, ok := val.(types.StringLiteral); ok {
		return sl.Value()
	}
	return ""
}

func (d *pdfcpuDocument) Save(w io.Writer, opts SaveOptions) error {
	if opts.RecompressPayloads {
		if err := d.flateBareStreams(); err != nil {
			return fmt.Errorf("recompress streams: %w", err)
		}
	}
	if opts.StructuralCompaction {
		if err := api.OptimizeContext(d.ctx); err != nil {
			return fmt.Errorf("optimize document: %w", err)
		}
	}
	if err := api.WriteContext(d.ctx, w); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// flateBareStreams flate-compresses filterless non-image streams (page
// content, fonts, metadata). Image streams keep their payload bytes exactly
// as replaced or found.
func (d *pdfcpuDocument) flateBareStreams() error {
	for _, entry := range d.ctx.XRefTable.Table {
		if entry == nil || entry.Free || entry.Object == nil {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok || len(sd.FilterPipeline) > 0 || len(sd.Raw) == 0 {
			continue
		}
		if st := sd.Dict.NameEntry("Subtype"); st != nil && *st == "Image" {
			continue
		}

		sd.Content = sd.Raw
		sd.Raw = nil
		sd.FilterPipeline = []types.PDFFilter{{Name: filter.Flate, DecodeParms: nil}}
		if err := sd.Encode(); err != nil {
			return err
		}
		length := int64(len(sd.Raw))
		sd.StreamLength = &length
		sd.StreamLengthObjNr = nil
		sd.Dict.Update("Filter", types.Name(filter.Flate))
		sd.Dict.Update("Length", types.Integer(len(sd.Raw)))
		entry.Object = sd
	}
	return nil
}
