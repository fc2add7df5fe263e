package config

import "testing"

func TestFirmwareSatisfiesNoConstraint(t *testing.T) {
	p := PrinterConfig{Name: "zpl0"}
	if !p.FirmwareSatisfies("1.0.0") {
		t.Fatalf("expected no constraint to always satisfy")
	}
}

func TestFirmwareSatisfiesMeetsMinimum(t *testing.T) {
	p := PrinterConfig{Name: "zpl0", MinFirmwareVersion: "2.1.0"}
	if !p.FirmwareSatisfies("2.1.0") {
		t.Fatalf("expected exact match to satisfy")
	}
	if !p.FirmwareSatisfies("2.2.0") {
		t.Fatalf("expected newer version to satisfy")
	}
	if p.FirmwareSatisfies("2.0.9") {
		t.Fatalf("expected older version to not satisfy")
	}
}

func TestValidateRejectsMalformedMinFirmwareVersion(t *testing.T) {
	cfg := &Config{Printers: []PrinterConfig{{Name: "zpl0", MinFirmwareVersion: "not-a-version"}}}
	if err := cfg.validate(); err == nil {
		t.Fatalf("expected validation error for malformed version")
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	cfg := &Config{Printers: []PrinterConfig{{Name: "zpl0", MinFirmwareVersion: "1.2.3"}}}
	if err := cfg.validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}
