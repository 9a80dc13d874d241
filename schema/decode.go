package schema

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/mtconnect-oss/mtcagent/cmn"
)

// jsonComponent/jsonDataItem mirror the wire shape spec.md §6 describes
// for the device-schema input; they exist only to drive jsoniter's decode
// and are converted to Component/DataItem immediately after.
type jsonDataItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	SubType     string `json:"subType"`
	Category    string `json:"category"`
	Units       string `json:"units"`
	NativeUnits string `json:"nativeUnits"`
}

type jsonComponent struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Components []jsonComponent `json:"components"`
	DataItems  []jsonDataItem  `json:"dataItems"`
}

type jsonDevice struct {
	UUID       string          `json:"uuid"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Components []jsonComponent `json:"components"`
	DataItems  []jsonDataItem  `json:"dataItems"`
}

func decodeDeviceJSON(b []byte) (*Device, error) {
	var jd jsonDevice
	if err := jsoniter.Unmarshal(b, &jd); err != nil {
		return nil, err
	}
	root := &Component{ID: jd.UUID, Name: jd.Name, Type: "Device"}
	convertInto(root, jd.Components, jd.DataItems)
	return &Device{UUID: jd.UUID, Name: jd.Name, Root: root}, nil
}

func convertInto(parent *Component, jcs []jsonComponent, jdis []jsonDataItem) {
	for _, jdi := range jdis {
		parent.DataItems = append(parent.DataItems, &DataItem{
			ID:          jdi.ID,
			Name:        jdi.Name,
			Type:        jdi.Type,
			SubType:     jdi.SubType,
			Category:    cmn.Category(jdi.Category),
			Units:       jdi.Units,
			NativeUnits: jdi.NativeUnits,
		})
	}
	for _, jc := range jcs {
		c := &Component{ID: jc.ID, Name: jc.Name, Type: jc.Type}
		convertInto(c, jc.Components, jc.DataItems)
		parent.Components = append(parent.Components, c)
	}
}
