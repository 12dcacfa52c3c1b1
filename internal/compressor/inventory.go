package compressor

import (
	"github.com/Svetozar-Technologies/LocalPDF/internal/document"
)

// inventory is the per-trial set of image objects eligible for re-encoding.
// It is rebuilt from the baseline on every pass, so trials never see each
// other's state.
type inventory struct {
	total   int
	parents []document.ImageInfo
	skips   []ImageRecord
}

// buildInventory filters the document's image objects. Objects referenced as
// another image's soft mask are not listed independently: they are re-encoded
// in lockstep with their parent so the pair stays consistent.
func buildInventory(doc document.Document, minImageBytes int64) (*inventory, error) {
	infos, err := doc.Images()
	if err != nil {
		return nil, err
	}

	inv := &inventory{total: len(infos)}

	maskRefs := make(map[document.ObjectID]bool)
	for _, info := range infos {
		if info.SoftMask != 0 {
			maskRefs[info.SoftMask] = true
		}
	}

	for _, info := range infos {
		if maskRefs[info.ID] {
			continue
		}
		if int64(info.RawLength) < minImageBytes {
			inv.skips = append(inv.skips, ImageRecord{
				ID:            int(info.ID),
				Action:        ImageSkipped,
				Reason:        "below minimum size threshold",
				OriginalBytes: info.RawLength,
			})
			continue
		}
		if info.IsMask {
			inv.skips = append(inv.skips, ImageRecord{
				ID:            int(info.ID),
				Action:        ImageSkipped,
				Reason:        "1-bit transparency mask",
				OriginalBytes: info.RawLength,
			})
			continue
		}
		inv.parents = append(inv.parents, info)
	}

	return inv, nil
}
