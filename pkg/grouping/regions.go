package grouping

import (
	"fmt"
	"sort"

	"github.com/sverrir/lineforge/pkg/geom"
)

// InferRegions produces coarse, geometry-only region candidates for a page.
//
// The heuristic is intentionally minimal: a block whose center lies in the
// bottom-right 40%x40% quadrant of the page envelope and whose bbox spans at
// least 20% of the envelope width and 8% of its height becomes a title-block
// region. When nothing qualifies, a single unknown region containing all
// blocks is emitted so downstream consumers always have a region to
// reference. Text content is never inspected.
func InferRegions(pageNum int, blocks []Block) []Region {
	if len(blocks) == 0 {
		return []Region{}
	}

	boxes := make([]geom.BBox, 0, len(blocks))
	for _, b := range blocks {
		boxes = append(boxes, b.BBox)
	}
	envelope := geom.UnionAll(boxes)
	pageW := envelope.Width()
	pageH := envelope.Height()
	if pageW <= 0 || pageH <= 0 {
		return []Region{}
	}

	type candidate struct {
		regionType RegionType
		blockIDs   []string
		bbox       geom.BBox
	}

	var candidates []candidate
	for _, b := range blocks {
		cx := float64(b.BBox.X0+b.BBox.X1) / 2
		cy := float64(b.BBox.Y0+b.BBox.Y1) / 2
		inBottomRight := cx >= float64(envelope.X0)+0.6*float64(pageW) &&
			cy >= float64(envelope.Y0)+0.6*float64(pageH)
		bigEnough := float64(b.BBox.Width()) >= 0.2*float64(pageW) &&
			float64(b.BBox.Height()) >= 0.08*float64(pageH)
		if inBottomRight && bigEnough {
			candidates = append(candidates, candidate{
				regionType: RegionTitleBlock,
				blockIDs:   []string{b.BlockID},
				bbox:       b.BBox,
			})
		}
	}

	if len(candidates) == 0 {
		ids := make([]string, 0, len(blocks))
		for _, b := range blocks {
			ids = append(ids, b.BlockID)
		}
		sort.Strings(ids)
		candidates = append(candidates, candidate{
			regionType: RegionUnknown,
			blockIDs:   ids,
			bbox:       envelope,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.bbox.Y0 != b.bbox.Y0 {
			return a.bbox.Y0 < b.bbox.Y0
		}
		if a.bbox.X0 != b.bbox.X0 {
			return a.bbox.X0 < b.bbox.X0
		}
		if a.regionType != b.regionType {
			return a.regionType < b.regionType
		}
		return a.blockIDs[0] < b.blockIDs[0]
	})

	regions := make([]Region, 0, len(candidates))
	for i, c := range candidates {
		regions = append(regions, Region{
			RegionID: fmt.Sprintf("p%03d_r%04d", pageNum, i),
			PageNum:  pageNum,
			Type:     c.regionType,
			BlockIDs: c.blockIDs,
			BBox:     c.bbox,
		})
	}
	return regions
}
