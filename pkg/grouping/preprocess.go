package grouping

import (
	"sort"
	"strings"

	"github.com/sverrir/lineforge/pkg/canonjson"
	"github.com/sverrir/lineforge/pkg/tokenio"
)

// Drop reasons recorded in the audit log.
const (
	DropWhitespace     = "WHITESPACE"
	DropBelowConfFloor = "BELOW_CONFIDENCE_FLOOR"
	DropBBoxZeroArea   = "BBOX_ZERO_AREA"
)

// WarnBBoxRepaired is the warning code emitted when reversed bbox
// coordinates were swapped into order.
const WarnBBoxRepaired = "GROUP_BBOX_REPAIRED"

// PreprocessTokens filters and repairs a page's token set before clustering.
// Rules apply per token in order, first match wins:
//
//  1. whitespace-only text (when enabled) -> drop WHITESPACE
//  2. confidence below a configured floor -> drop BELOW_CONFIDENCE_FLOOR
//  3. reversed bbox coordinates (when repair enabled) -> swap, warn once
//  4. non-positive area after repair -> drop BBOX_ZERO_AREA
//  5. keep
//
// Every input token ends up either in the used set or in the drop log,
// never both, never neither. Both logs are sorted independently of input
// order so the serialized output is byte-stable.
func PreprocessTokens(tokens []tokenio.Token, cfg Config) (used []tokenio.Token, dropped []DroppedToken, warnings []Warning) {
	used = make([]tokenio.Token, 0, len(tokens))
	dropped = make([]DroppedToken, 0)
	warnings = make([]Warning, 0)

	warnedRepair := make(map[string]bool)
	for _, t := range tokens {
		if cfg.DropWhitespaceTokens && strings.TrimSpace(t.Text) == "" {
			dropped = append(dropped, DroppedToken{TokenID: t.TokenID, Reason: DropWhitespace})
			continue
		}

		if cfg.ConfidenceFloor > 0 && t.Confidence != nil && *t.Confidence < cfg.ConfidenceFloor {
			dropped = append(dropped, DroppedToken{TokenID: t.TokenID, Reason: DropBelowConfFloor})
			continue
		}

		bbox := t.BBox
		if cfg.RepairBBoxes {
			repaired, changed := bbox.Normalized()
			if changed && !warnedRepair[t.TokenID] {
				warnedRepair[t.TokenID] = true
				warnings = append(warnings, Warning{
					Code:    WarnBBoxRepaired,
					Message: "Token bbox endpoints were swapped deterministically",
					Detail:  WarningDetail{TokenID: t.TokenID, Before: bbox, After: repaired},
				})
			}
			bbox = repaired
		}

		if bbox.Area() <= 0 {
			dropped = append(dropped, DroppedToken{TokenID: t.TokenID, Reason: DropBBoxZeroArea})
			continue
		}

		kept := t
		kept.BBox = bbox
		used = append(used, kept)
	}

	sort.Slice(dropped, func(i, j int) bool {
		if dropped[i].TokenID != dropped[j].TokenID {
			return dropped[i].TokenID < dropped[j].TokenID
		}
		return dropped[i].Reason < dropped[j].Reason
	})
	sortWarnings(warnings)
	return used, dropped, warnings
}

// sortWarnings orders warnings by (code, message, canonical JSON of detail),
// a conservative key that never depends on input iteration order.
func sortWarnings(warnings []Warning) {
	keys := make(map[int]string, len(warnings))
	for i, w := range warnings {
		detail, err := canonjson.Marshal(w.Detail)
		if err != nil {
			detail = nil
		}
		keys[i] = w.Code + "\x00" + w.Message + "\x00" + string(detail)
	}
	idx := make([]int, len(warnings))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return keys[idx[a]] < keys[idx[b]] })

	sorted := make([]Warning, len(warnings))
	for pos, i := range idx {
		sorted[pos] = warnings[i]
	}
	copy(warnings, sorted)
}
