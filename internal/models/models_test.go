package models

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestFormat(t *testing.T) {
	t.Run("ParseFormat", func(t *testing.T) {
		cases := []struct {
			input string
			want  Format
		}{
			{"audio", FormatAudio},
			{"video", FormatVideo},
			{"AUDIO", FormatAudio},
			{" Video ", FormatVideo},
		}
		for _, tc := range cases {
			got, err := ParseFormat(tc.input)
			if err != nil {
				t.Errorf("ParseFormat(%q) failed: %v", tc.input, err)
				continue
			}
			if got != tc.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tc.input, got, tc.want)
			}
		}

		if _, err := ParseFormat("flac"); err == nil {
			t.Error("expected error for unknown format")
		}
	})

	t.Run("Ext", func(t *testing.T) {
		if FormatAudio.Ext() != "opus" {
			t.Errorf("expected opus, got %s", FormatAudio.Ext())
		}
		if FormatVideo.Ext() != "mkv" {
			t.Errorf("expected mkv, got %s", FormatVideo.Ext())
		}
	})

	t.Run("Valid", func(t *testing.T) {
		if !FormatAudio.Valid() || !FormatVideo.Valid() {
			t.Error("expected supported formats to be valid")
		}
		if Format("flac").Valid() || Format("").Valid() {
			t.Error("expected unsupported formats to be invalid")
		}
	})
}

func TestManifestPath(t *testing.T) {
	cases := []struct {
		name     string
		location string
		want     string
	}{
		{"absolute", "/home/user/Music/favorites", "/home/user/Music/favorites.m3u"},
		{"trailing slash", "/home/user/Music/favorites/", "/home/user/Music/favorites.m3u"},
		{"relative", "music/mix", filepath.Join("music", "mix.m3u")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			target := SyncTarget{Location: tc.location}
			if got := target.ManifestPath(); got != tc.want {
				t.Errorf("ManifestPath() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTargetResult(t *testing.T) {
	t.Run("Succeeded", func(t *testing.T) {
		done := &TargetResult{State: PhaseDone}
		if !done.Succeeded() {
			t.Error("expected clean done result to succeed")
		}

		withFailures := &TargetResult{State: PhaseDone, Failed: map[string]error{"a": errors.New("x")}}
		if withFailures.Succeeded() {
			t.Error("expected result with failed items not to succeed")
		}

		failed := &TargetResult{State: PhaseFailed, Err: errors.New("x")}
		if failed.Succeeded() {
			t.Error("expected failed result not to succeed")
		}
	})
}

func TestRunReport(t *testing.T) {
	t.Run("Failed", func(t *testing.T) {
		clean := &RunReport{Results: []*TargetResult{{State: PhaseDone}, {State: PhaseDone}}}
		if clean.Failed() {
			t.Error("expected clean report not to be failed")
		}

		mixed := &RunReport{Results: []*TargetResult{
			{State: PhaseDone},
			{State: PhaseFailed, Err: errors.New("x")},
		}}
		if !mixed.Failed() {
			t.Error("expected mixed report to be failed")
		}
	})
}

func TestEnumStrings(t *testing.T) {
	if ActionDownload.String() != "download" || ActionKeep.String() != "keep" || ActionRemove.String() != "remove" {
		t.Error("unexpected action strings")
	}
	if PhaseDone.String() != "done" || PhaseFailed.String() != "failed" || PhaseListing.String() != "listing" {
		t.Error("unexpected phase strings")
	}
}
