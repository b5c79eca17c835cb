// Package artifacts names the files a pipeline run produces and reserves the
// shared run token that stamps them.
package artifacts

import (
	"os"
	"path/filepath"

	"reelsmith/internal/config"
)

// TokenLayout formats the run start time as YYYYMMDD_HHMMSS.
const TokenLayout = "20060102_150405"

// Layout holds the four category directories.
type Layout struct {
	ScriptsDir string
	AudioDir   string
	VideoDir   string
	FinalDir   string
}

// LayoutFromConfig reads the resolved category directories from cfg.
func LayoutFromConfig(cfg *config.Config) Layout {
	return Layout{
		ScriptsDir: cfg.Paths.ScriptsDir,
		AudioDir:   cfg.Paths.AudioDir,
		VideoDir:   cfg.Paths.VideoDir,
		FinalDir:   cfg.Paths.FinalDir,
	}
}

// Set is the full list of artifact paths for one run token.
type Set struct {
	Token       string
	Script      string
	Audio       string
	SilentVideo string
	Final       string
}

// Paths builds the artifact set for token.
func (l Layout) Paths(token string) Set {
	return Set{
		Token:       token,
		Script:      filepath.Join(l.ScriptsDir, "script_"+token+".txt"),
		Audio:       filepath.Join(l.AudioDir, "audio_"+token+".mp3"),
		SilentVideo: filepath.Join(l.VideoDir, "video_silent_"+token+".mp4"),
		Final:       filepath.Join(l.FinalDir, "video_final_"+token+".mp4"),
	}
}

// All returns the artifact paths in pipeline order.
func (s Set) All() []string {
	return []string{s.Script, s.Audio, s.SilentVideo, s.Final}
}

// Existing returns the subset of artifact paths present on disk.
func (s Set) Existing() []string {
	var present []string
	for _, path := range s.All() {
		if _, err := os.Lstat(path); err == nil {
			present = append(present, path)
		}
	}
	return present
}
