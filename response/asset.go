package response

import "github.com/mtconnect-oss/mtcagent/store"

// AssetDocument builds an MTConnectAssets document (spec.md §4.5, §6's
// /asset route): one element per asset, tagged with its AssetType, a
// removed attribute set whenever the record has been tombstoned.
func AssetDocument(sender, instanceID string, bufferSize, assetBufferSize, assetCount int, assets []*store.Asset) *Element {
	root := El("MTConnectAssets", "xmlns", mtconnectAssetsNS)
	root.Add(buildHeader(headerParams{
		sender: sender, instanceID: instanceID,
		bufferSize: bufferSize, assetBufferSize: assetBufferSize, assetCount: assetCount,
	}))
	body := El("Assets")
	for _, a := range assets {
		body.Add(assetElement(a))
	}
	root.Add(body)
	return root
}

func assetElement(a *store.Asset) *Element {
	el := El(a.AssetType,
		"assetId", a.AssetID,
		"timestamp", a.Timestamp.UTC().Format(timestampLayout),
	)
	if a.Removed {
		el.SetAttr("removed", "true")
	}
	if a.Value != nil {
		for k, v := range a.Value.Attrs {
			el.SetAttr(k, v)
		}
		for _, c := range a.Value.Children {
			el.Add(assetValueElement(c))
		}
		if a.Value.Text != "" {
			el.SetText(a.Value.Text)
		}
	}
	return el
}

func assetValueElement(e *store.AssetElement) *Element {
	el := &Element{Name: e.Name}
	for k, v := range e.Attrs {
		el.SetAttr(k, v)
	}
	for _, c := range e.Children {
		el.Add(assetValueElement(c))
	}
	if e.Text != "" {
		el.SetText(e.Text)
	}
	return el
}

const mtconnectAssetsNS = "urn:mtconnect.org:MTConnectAssets:1.7"
