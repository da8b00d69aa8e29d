package internalfx

import (
	"github.com/justyntemme/sushi-core/pkg/dsp/buffer"
	"github.com/justyntemme/sushi-core/pkg/framework/param"
	"github.com/justyntemme/sushi-core/pkg/framework/plugin"
	"github.com/justyntemme/sushi-core/pkg/graph"
	"github.com/justyntemme/sushi-core/pkg/rtevent"
)

const paramMirroredValue uint32 = 0

// CVToControl is the inverse bridge of ControlToCV: it receives CV/gate RT
// events and mirrors them into its own parameter registry, so a control-
// plane subscriber (through the dispatcher's parameter-notification
// broadcast) observes a modular patch's CV output as an ordinary parameter.
type CVToControl struct {
	*graph.InternalPluginBase
}

// NewCVToControl constructs a CV-to-control bridge with one input channel.
func NewCVToControl(toNonRT *rtevent.Ring) *CVToControl {
	base := graph.NewInternalPluginBase(plugin.Info{
		Name: "CV to Control", Vendor: "sushi-core", Version: "1.0.0", Category: "utility",
	}, 1, 0, toNonRT)

	base.Parameters().Add(&param.Parameter{
		ID: paramMirroredValue, Name: "Mirrored Value", ShortName: "CV In", Min: 0, Max: 1, DefaultValue: 0,
	})

	return &CVToControl{InternalPluginBase: base}
}

func (c *CVToControl) ProcessAudio(in, out *buffer.SampleBuffer) {
	out.Clear()
}

// ProcessEvent mirrors an incoming CV sample into the parameter registry and
// posts a notification so control-plane subscribers see the new value.
func (c *CVToControl) ProcessEvent(e rtevent.Event) {
	if e.Type == rtevent.TypeCVSample {
		c.SetParameterAndNotify(paramMirroredValue, float64(e.Value()))
		return
	}
	c.InternalPluginBase.ProcessEvent(e)
}
