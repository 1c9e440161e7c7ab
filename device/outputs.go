// Package device lists and switches the audio outputs of the server.
package device

import (
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cast"
	"github.com/yhkl-dev/navimpd/mpd"
)

type OutputType int

const (
	OutputUnknown    OutputType = iota
	OutputBuiltIn               // Built-in speakers or the default sound card
	OutputBluetooth             // Bluetooth audio device
	OutputUSB                   // USB audio device
	OutputHDMI                  // HDMI audio
	OutputHeadphones            // Wired headphones
	OutputStream                // Network stream such as httpd or shout
	OutputFile                  // Pipe, fifo or recorder output
)

func (t OutputType) String() string {
	switch t {
	case OutputBuiltIn:
		return "built-in"
	case OutputBluetooth:
		return "bluetooth"
	case OutputUSB:
		return "usb"
	case OutputHDMI:
		return "hdmi"
	case OutputHeadphones:
		return "headphones"
	case OutputStream:
		return "stream"
	case OutputFile:
		return "file"
	default:
		return "unknown"
	}
}

// Output is one audio output configured on the server
type Output struct {
	ID      int
	Name    string
	Plugin  string
	Enabled bool
	Type    OutputType
}

// ParseOutputs splits an "outputs" response into one Output per outputid
func ParseOutputs(b mpd.Block) []Output {
	var outputs []Output
	for _, f := range b {
		key := strings.ToLower(f.Key)
		if key == "outputid" {
			outputs = append(outputs, Output{ID: int(cast.ToFloat64(f.Value))})
			continue
		}
		if len(outputs) == 0 {
			continue
		}
		o := &outputs[len(outputs)-1]
		switch key {
		case "outputname":
			o.Name = f.Value
		case "plugin":
			o.Plugin = f.Value
		case "outputenabled":
			o.Enabled = f.Value == "1"
		}
	}
	for i := range outputs {
		outputs[i].Type = detectOutputType(outputs[i].Name, outputs[i].Plugin)
	}
	return outputs
}

func detectOutputType(name, plugin string) OutputType {
	nameLower := strings.ToLower(strings.TrimSpace(name))

	switch strings.ToLower(strings.TrimSpace(plugin)) {
	case "httpd", "shout", "snapcast", "sles", "recorder_http":
		return OutputStream
	case "fifo", "pipe", "recorder", "null":
		return OutputFile
	}

	if containsAny(nameLower, "bluetooth", "bluez", "airpods", "a2dp", "bose", "jbl", "sony wh") {
		return OutputBluetooth
	}
	if containsAny(nameLower, "hdmi", "displayport", "thunderbolt") {
		return OutputHDMI
	}
	if containsAny(nameLower, "usb", "dac", "audio interface") {
		return OutputUSB
	}
	if containsAny(nameLower, "headphone", "headset", "line out", "3.5mm") {
		return OutputHeadphones
	}
	if containsAny(nameLower, "built-in", "internal", "speakers", "default", "analog") {
		return OutputBuiltIn
	}
	return OutputUnknown
}

func containsAny(s string, subs ...string) bool {
	return lo.SomeBy(subs, func(sub string) bool { return strings.Contains(s, sub) })
}

// Client is the part of mpd.Client the output manager needs
type Client interface {
	Execute(cmd mpd.Command, expectsBody bool) *mpd.Future[mpd.Block]
}

// Outputs manages the server's audio outputs
type Outputs struct {
	client Client
}

func NewOutputs(client Client) *Outputs {
	return &Outputs{client: client}
}

// List returns every configured output
func (o *Outputs) List() *mpd.Future[[]Output] {
	return mpd.Map(o.client.Execute(mpd.Cmd("outputs"), true), func(b mpd.Block) ([]Output, error) {
		return ParseOutputs(b), nil
	})
}

func (o *Outputs) Enable(id int) *mpd.Future[struct{}] {
	return o.switchOutput("enableoutput", id)
}

func (o *Outputs) Disable(id int) *mpd.Future[struct{}] {
	return o.switchOutput("disableoutput", id)
}

func (o *Outputs) Toggle(id int) *mpd.Future[struct{}] {
	return o.switchOutput("toggleoutput", id)
}

func (o *Outputs) switchOutput(name string, id int) *mpd.Future[struct{}] {
	if id < 0 {
		return mpd.Failed[struct{}](mpd.InvalidArgument(name, "negative output id %d", id))
	}
	return mpd.Map(o.client.Execute(mpd.Cmd(name, id), false), func(mpd.Block) (struct{}, error) {
		return struct{}{}, nil
	})
}
