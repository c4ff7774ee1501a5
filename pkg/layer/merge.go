package layer

import (
	"fmt"
	"sort"

	"github.com/calvin-dev/calvin/pkg/asset"
)

// Warning is a non-fatal diagnostic surfaced during layer merge, such as a
// higher-precedence layer overriding an asset from a lower one.
type Warning struct {
	Message string
}

// Merge combines layers in precedence order (lowest first, project layer
// last) into a single Asset list, recording an override warning whenever a
// higher layer replaces a same-id asset from a lower one (spec §4.2 "Layer
// merge"). The result is stable-ordered by (layer_index, source_path).
func Merge(layers []*Layer) ([]*asset.Asset, []Warning, error) {
	type indexed struct {
		layerIndex int
		asset      *asset.Asset
	}

	byID := make(map[string]indexed)
	var warnings []Warning

	for idx, l := range layers {
		for _, a := range l.Assets {
			prior, ok := byID[a.ID]
			if ok {
				if a.Kind == asset.Skill || prior.asset.Kind == asset.Skill {
					// Skills override whole, not piecewise: no merge of
					// supplementals, just a full replacement (spec §4.2
					// "Skill override policy").
				}
				a.Overrides = prior.asset.Provenance.SourceLayer
				warnings = append(warnings, Warning{
					Message: fmt.Sprintf("asset %q from layer %q overrides the version from layer %q (%s)",
						a.ID, l.Name, prior.asset.Provenance.SourceLayer, a.Provenance.SourcePath),
				})
			}
			byID[a.ID] = indexed{layerIndex: idx, asset: a}
		}
	}

	out := make([]*asset.Asset, 0, len(byID))
	for _, v := range byID {
		out = append(out, v.asset)
	}
	sort.Slice(out, func(i, j int) bool {
		ii, jj := byID[out[i].ID], byID[out[j].ID]
		if ii.layerIndex != jj.layerIndex {
			return ii.layerIndex < jj.layerIndex
		}
		return out[i].Provenance.SourcePath < out[j].Provenance.SourcePath
	})

	return out, warnings, nil
}
