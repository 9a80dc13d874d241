package response

import "github.com/mtconnect-oss/mtcagent/cmn"

// ErrorDocument builds an MTConnectError document (spec.md §7): one Header
// plus one <Error errorCode="..."> per QueryError, in the order given.
// Existence errors are always a single entry (callers stop validation at
// the first one); parameter-validation errors may be several.
func ErrorDocument(sender, instanceID string, errs []*cmn.QueryError) *Element {
	root := El("MTConnectError", "xmlns", mtconnectErrorNS)
	root.Add(buildHeader(headerParams{sender: sender, instanceID: instanceID}).noBuffers())
	body := El("Errors")
	for _, e := range errs {
		body.Add(El("Error", "errorCode", string(e.Code)).SetText(e.Msg))
	}
	root.Add(body)
	return root
}

// noBuffers drops the buffer-size attributes an error Header doesn't carry
// (spec.md §7 shows Error headers without bufferSize/assetBufferSize).
func (e *Element) noBuffers() *Element {
	kept := e.Attrs[:0:0]
	for _, a := range e.Attrs {
		switch a.Name {
		case "bufferSize", "assetBufferSize", "assetCount":
			continue
		}
		kept = append(kept, a)
	}
	e.Attrs = kept
	return e
}

const mtconnectErrorNS = "urn:mtconnect.org:MTConnectError:1.7"
