package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDoc(table map[int]*model.XRefTableEntry) *pdfcpuDocument {
	return &pdfcpuDocument{ctx: &model.Context{XRefTable: &model.XRefTable{Table: table}}}
}

func imageStream(dict types.Dict, raw []byte) types.StreamDict {
	d := types.Dict{"Subtype": types.Name("Image")}
	for k, v := range dict {
		d[k] = v
	}
	return types.StreamDict{Dict: d, Raw: raw}
}

func TestOpenValidatesPath(t *testing.T) {
	store := NewStore()
	dir := t.TempDir()

	_, err := store.Open(filepath.Join(dir, "missing.pdf"))
	assert.ErrorIs(t, err, ErrNotFound)

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0644))
	_, err = store.Open(txt)
	assert.ErrorIs(t, err, ErrNotPDF)

	empty := filepath.Join(dir, "empty.pdf")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	_, err = store.Open(empty)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestOpenBytesEmpty(t *testing.T) {
	_, err := NewStore().OpenBytes(nil)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestImagesFiltersAndSorts(t *testing.T) {
	table := map[int]*model.XRefTableEntry{
		2: {Object: imageStream(types.Dict{"Width": types.Integer(10), "Height": types.Integer(20)}, []byte("abc"))},
		3: {Object: types.StreamDict{Dict: types.Dict{"Subtype": types.Name("Form")}}},
		4: {Free: true},
		5: {Object: types.Dict{"Type": types.Name("Page")}},
		7: {Object: imageStream(types.Dict{"Width": types.Integer(1)}, nil)},
	}
	doc := testDoc(table)

	infos, err := doc.Images()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, ObjectID(2), infos[0].ID)
	assert.Equal(t, ObjectID(7), infos[1].ID)
	assert.Equal(t, 10, infos[0].Width)
	assert.Equal(t, 20, infos[0].Height)
	assert.Equal(t, 3, infos[0].RawLength)
}

func TestImageInfoFields(t *testing.T) {
	doc := testDoc(nil)
	sd := imageStream(types.Dict{
		"Width":            types.Integer(40),
		"Height":           types.Integer(30),
		"BitsPerComponent": types.Integer(8),
		"ColorSpace":       types.Name("DeviceRGB"),
		"SMask":            *types.NewIndirectRef(9, 0),
	}, make([]byte, 5))

	info := doc.imageInfo(ObjectID(3), &sd)
	assert.Equal(t, ObjectID(3), info.ID)
	assert.Equal(t, 40, info.Width)
	assert.Equal(t, 30, info.Height)
	assert.Equal(t, 8, info.BitsPerComponent)
	assert.Equal(t, ModeRGB, info.Mode)
	assert.Equal(t, ObjectID(9), info.SoftMask)
	assert.Equal(t, 5, info.RawLength)
	assert.False(t, info.IsMask)
}

func TestImageInfoMask(t *testing.T) {
	doc := testDoc(nil)
	sd := imageStream(types.Dict{"ImageMask": types.Boolean(true)}, nil)

	info := doc.imageInfo(ObjectID(1), &sd)
	assert.True(t, info.IsMask)
	assert.Equal(t, 1, info.BitsPerComponent)
	assert.Equal(t, ModeUnknown, info.Mode)
}

func TestResolveColorSpace(t *testing.T) {
	doc := testDoc(nil)

	cases := []struct {
		name string
		cs   types.Object
		want ColorMode
	}{
		{"device gray", types.Name("DeviceGray"), ModeGray},
		{"cal gray", types.Name("CalGray"), ModeGray},
		{"device rgb", types.Name("DeviceRGB"), ModeRGB},
		{"device cmyk", types.Name("DeviceCMYK"), ModeCMYK},
		{"cal rgb array", types.Array{types.Name("CalRGB"), types.Dict{}}, ModeRGB},
		{"lab array", types.Array{types.Name("Lab"), types.Dict{}}, ModeRGB},
		{"indexed", types.Array{types.Name("Indexed"), types.Name("DeviceRGB"), types.Integer(255)}, ModeIndexed},
		{"separation", types.Array{types.Name("Separation"), types.Name("All")}, ModeUnknown},
		{"pattern", types.Name("Pattern"), ModeUnknown},
		{"empty array", types.Array{}, ModeUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, doc.resolveColorSpace(tc.cs, 0))
		})
	}
}

func TestDecodeInverted(t *testing.T) {
	cases := []struct {
		name string
		dict types.Dict
		want bool
	}{
		{"inverted cmyk", types.Dict{"Decode": types.NewNumberArray(1, 0, 1, 0, 1, 0, 1, 0)}, true},
		{"normal", types.Dict{"Decode": types.NewNumberArray(0, 1)}, false},
		{"integer entries", types.Dict{"Decode": types.Array{types.Integer(1), types.Integer(0)}}, true},
		{"absent", types.Dict{}, false},
		{"short", types.Dict{"Decode": types.NewNumberArray(1)}, false},
		{"non numeric", types.Dict{"Decode": types.Array{types.Name("A"), types.Name("B")}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, decodeInverted(tc.dict))
		})
	}
}

func TestStreamDictErrors(t *testing.T) {
	doc := testDoc(map[int]*model.XRefTableEntry{
		1: {Object: types.Dict{}},
		2: {Free: true},
	})

	_, _, err := doc.streamDict(ObjectID(1))
	assert.ErrorContains(t, err, "not a stream")

	_, _, err = doc.streamDict(ObjectID(2))
	assert.ErrorContains(t, err, "not found")

	_, _, err = doc.streamDict(ObjectID(9))
	assert.ErrorContains(t, err, "not found")
}
