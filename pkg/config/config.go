// Package config loads host-side diagnostic session configuration,
// meaning the module address table, padding policy, and P2/P2* timing
// overrides, from an INI file, the same way the teacher parses EDS
// files with gopkg.in/ini.v1. The core packages (pkg/can, pkg/isotp,
// pkg/uds, pkg/security) never read files themselves; this package is
// purely a host convenience consumed by cmd/fcadiag.
package config

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/ini.v1"

	"github.com/Dsmasal14/FcaDiag/pkg/can"
	"github.com/Dsmasal14/FcaDiag/pkg/uds"
)

// Module is one [module.name] section: an addressable ECU plus the
// padding policy for its channel.
type Module struct {
	Name    string
	Address can.ModuleAddress
	Padding can.PaddingConfig
}

// Config is everything loaded from one session file.
type Config struct {
	Interface string
	Timing    uds.Timing
	Modules   map[string]Module
}

// Load parses an INI file at path into a Config.
//
// Expected layout:
//
//	[bus]
//	interface = can0
//
//	[timing]
//	p2_ms = 1000
//	p2_star_ms = 5000
//	flow_control_timeout_ms = 1000
//	reassembly_timeout_ms = 1000
//	max_consecutive_waits = 10
//	max_pending_responses = 10
//
//	[module.pcm]
//	request_id = 0x7E0
//	response_id = 0x7E8
//	addressing = standard
//	padding_enabled = true
//	padding_byte = 0x00
func Load(path string) (*Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return fromFile(f)
}

func fromFile(f *ini.File) (*Config, error) {
	cfg := &Config{
		Timing:  uds.DefaultTiming(),
		Modules: map[string]Module{},
	}

	bus := f.Section("bus")
	cfg.Interface = bus.Key("interface").MustString("can0")

	timing := f.Section("timing")
	cfg.Timing.P2 = time.Duration(timing.Key("p2_ms").MustInt(1000)) * time.Millisecond
	cfg.Timing.P2Star = time.Duration(timing.Key("p2_star_ms").MustInt(5000)) * time.Millisecond
	cfg.Timing.FlowControlTimeout = time.Duration(timing.Key("flow_control_timeout_ms").MustInt(1000)) * time.Millisecond
	cfg.Timing.ReassemblyTimeout = time.Duration(timing.Key("reassembly_timeout_ms").MustInt(1000)) * time.Millisecond
	cfg.Timing.MaxConsecutiveWaits = timing.Key("max_consecutive_waits").MustInt(10)
	cfg.Timing.MaxPendingResponses = timing.Key("max_pending_responses").MustInt(10)

	for _, section := range f.Sections() {
		name, ok := moduleSectionName(section.Name())
		if !ok {
			continue
		}

		requestID, err := parseUintKey(section, "request_id")
		if err != nil {
			return nil, fmt.Errorf("config: module %q: %w", name, err)
		}
		responseID, err := parseUintKey(section, "response_id")
		if err != nil {
			return nil, fmt.Errorf("config: module %q: %w", name, err)
		}

		addressing := can.Standard11Bit
		if section.Key("addressing").MustString("standard") == "extended" {
			addressing = can.Extended29Bit
		}

		addr := can.ModuleAddress{RequestID: uint32(requestID), ResponseID: uint32(responseID), Addressing: addressing}
		if err := addr.Validate(); err != nil {
			return nil, fmt.Errorf("config: module %q: %w", name, err)
		}

		padding := can.DefaultPadding()
		padding.Enabled = section.Key("padding_enabled").MustBool(true)
		if raw := section.Key("padding_byte").String(); raw != "" {
			b, err := strconv.ParseUint(trimHexPrefix(raw), 16, 8)
			if err != nil {
				return nil, fmt.Errorf("config: module %q: padding_byte: %w", name, err)
			}
			padding.Byte = byte(b)
		}

		cfg.Modules[name] = Module{Name: name, Address: addr, Padding: padding}
	}

	return cfg, nil
}

func parseUintKey(section *ini.Section, key string) (uint64, error) {
	raw := section.Key(key).String()
	if raw == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	return strconv.ParseUint(trimHexPrefix(raw), 16, 32)
}

func trimHexPrefix(s string) string {
	if len(s) > 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		return s[2:]
	}
	return s
}

// moduleSectionName extracts "name" from a `[module.name]` section
// header.
func moduleSectionName(sectionName string) (string, bool) {
	const prefix = `module.`
	if len(sectionName) <= len(prefix) || sectionName[:len(prefix)] != prefix {
		return "", false
	}
	return sectionName[len(prefix):], true
}
