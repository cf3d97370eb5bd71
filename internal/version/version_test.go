// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package version

import "testing"

func TestGetDefaults(t *testing.T) {
	info := Get()
	if info.Version != "dev" {
		t.Errorf("Version = %q, want %q", info.Version, "dev")
	}
	if info.GitCommit != "unknown" || info.BuildTime != "unknown" {
		t.Errorf("unexpected defaults: %+v", info)
	}
}

func TestInfoString(t *testing.T) {
	info := Info{Version: "v1.2.0", GitCommit: "abc1234", BuildTime: "2026-01-30T12:00:00Z"}
	want := "dreamcrafts v1.2.0 (commit: abc1234, built: 2026-01-30T12:00:00Z)"
	if got := info.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
