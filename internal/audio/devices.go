package audio

import (
	"fmt"
	"sort"

	"github.com/gordonklaus/portaudio"
)

// Device is a flattened view of a PortAudio input or output for the
// -list-audio-devices listing.
type Device struct {
	Name           string
	HostAPI        string
	InputChannels  int
	OutputChannels int
	SampleRate     float64
	DefaultInput   bool
}

func (d Device) String() string {
	mark := " "
	if d.DefaultInput {
		mark = "*"
	}
	return fmt.Sprintf("%s [%s] %s (in:%d out:%d @ %.0fHz)",
		mark, d.HostAPI, d.Name, d.InputChannels, d.OutputChannels, d.SampleRate)
}

// ListDevices enumerates every device across host APIs, sorted by host
// API then name. The default input is marked.
func ListDevices() ([]Device, error) {
	hosts, err := portaudio.HostApis()
	if err != nil {
		return nil, fmt.Errorf("host apis: %w", err)
	}

	defaultInput := -1
	if d, err := portaudio.DefaultInputDevice(); err == nil && d != nil {
		defaultInput = d.Index
	}

	var devices []Device
	for _, host := range hosts {
		for _, d := range host.Devices {
			devices = append(devices, Device{
				Name:           d.Name,
				HostAPI:        host.Name,
				InputChannels:  d.MaxInputChannels,
				OutputChannels: d.MaxOutputChannels,
				SampleRate:     d.DefaultSampleRate,
				DefaultInput:   d.Index == defaultInput,
			})
		}
	}

	sort.Slice(devices, func(i, j int) bool {
		if devices[i].HostAPI != devices[j].HostAPI {
			return devices[i].HostAPI < devices[j].HostAPI
		}
		return devices[i].Name < devices[j].Name
	})
	return devices, nil
}
