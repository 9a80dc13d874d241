package response

import "github.com/mtconnect-oss/mtcagent/schema"

// Probe builds an MTConnectDevices document describing devices (spec.md
// §4.5 / §6's /probe route), sender/instanceID identifying the agent and
// assetCount coming from the Asset Store so assetCount tracks live state
// even though /probe never touches the Data Store.
func Probe(sender, instanceID string, bufferSize, assetBufferSize, assetCount int, devices []*schema.Device) *Element {
	root := El("MTConnectDevices", "xmlns", mtconnectDevicesNS)
	root.Add(buildHeader(headerParams{
		sender: sender, instanceID: instanceID,
		bufferSize: bufferSize, assetBufferSize: assetBufferSize, assetCount: assetCount,
	}))
	body := El("Devices")
	for _, d := range devices {
		body.Add(deviceElement(d))
	}
	root.Add(body)
	return root
}

func deviceElement(d *schema.Device) *Element {
	el := El("Device", "id", d.Root.ID, "name", d.Name, "uuid", d.UUID)
	addComponentBody(el, d.Root)
	return el
}

// addComponentBody attaches c's own DataItems/Components wrapper elements
// to el, which represents c itself (the Device root or a nested
// Component).
func addComponentBody(el *Element, c *schema.Component) {
	if len(c.DataItems) > 0 {
		items := El("DataItems")
		for _, di := range c.DataItems {
			items.Add(dataItemElement(di))
		}
		el.Add(items)
	}
	if len(c.Components) > 0 {
		comps := El("Components")
		for _, child := range c.Components {
			comps.Add(componentElement(child))
		}
		el.Add(comps)
	}
}

func componentElement(c *schema.Component) *Element {
	el := El("Component", "id", c.ID, "name", c.Name, "type", c.Type)
	addComponentBody(el, c)
	return el
}

func dataItemElement(di *schema.DataItem) *Element {
	return El("DataItem",
		"id", di.ID,
		"name", di.Name,
		"type", di.Type,
		"subType", di.SubType,
		"category", string(di.Category),
		"units", di.Units,
		"nativeUnits", di.NativeUnits,
	)
}

const mtconnectDevicesNS = "urn:mtconnect.org:MTConnectDevices:1.7"
