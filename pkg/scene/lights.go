package scene

import (
	"encoding/json"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/gltf-scene/pkg/math"
)

const extLightsPunctual = "KHR_lights_punctual"

// Default KHR_lights_punctual values.
const (
	defaultIntensity      = 1
	defaultOuterConeAngle = math32.Pi / 4
)

type punctualLights struct {
	Lights []punctualLight `json:"lights"`
}

type punctualLight struct {
	Name      string      `json:"name"`
	Type      string      `json:"type"`
	Color     *[3]float32 `json:"color"`
	Intensity *float32    `json:"intensity"`
	Range     *float32    `json:"range"`
	Spot      *struct {
		InnerConeAngle *float32 `json:"innerConeAngle"`
		OuterConeAngle *float32 `json:"outerConeAngle"`
	} `json:"spot"`
}

type nodeLightExt struct {
	Light *int `json:"light"`
}

// extension decodes exts[name] into out. The object model keeps unregistered
// extensions as raw JSON and registered ones as typed values; re-encoding
// handles both.
func extension(exts map[string]any, name string, out any) (bool, error) {
	raw, ok := exts[name]
	if !ok || raw == nil {
		return false, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (in *ingestor) lights() error {
	var ext punctualLights
	found, err := extension(in.src.Extensions, extLightsPunctual, &ext)
	if err != nil {
		return malformed("%s: %v", extLightsPunctual, err)
	}
	if !found {
		return nil
	}

	in.doc.Lights = make([]Light, len(ext.Lights))
	for i, pl := range ext.Lights {
		l := Light{
			Name:           pl.Name,
			Type:           ParseLightType(pl.Type),
			Color:          math.Vec3{X: 1, Y: 1, Z: 1},
			Intensity:      defaultIntensity,
			OuterConeAngle: defaultOuterConeAngle,
		}
		if l.Type == LightUnknown {
			// The slot is kept so node light indices stay aligned.
			in.opts.log.Warn("dropping light with unknown type",
				zap.Int("light", i), zap.String("name", pl.Name), zap.String("type", pl.Type))
		}
		if pl.Color != nil {
			l.Color = math.Vec3{X: pl.Color[0], Y: pl.Color[1], Z: pl.Color[2]}
		}
		if pl.Intensity != nil {
			l.Intensity = *pl.Intensity
		}
		if pl.Range != nil {
			l.Range = *pl.Range
		}
		if pl.Spot != nil {
			if pl.Spot.InnerConeAngle != nil {
				l.InnerConeAngle = *pl.Spot.InnerConeAngle
			}
			if pl.Spot.OuterConeAngle != nil {
				l.OuterConeAngle = *pl.Spot.OuterConeAngle
			}
		}
		in.doc.Lights[i] = l
	}
	return nil
}
