// ABOUTME: Upload page rendered from an embedded template
// ABOUTME: Carries the slider ranges and tips shown next to the controls
package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/Resonate-Protocol/voicechanger-go/internal/version"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/voicechanger"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Tips are shown under the controls
var Tips = []string{
	"Clear speech works best",
	"5-30 second clips recommended",
	"Phone recordings work great!",
}

type indexData struct {
	Product   string
	Version   string
	Name      string
	MaxUpload string
	Accept    string
	MinSpeed  float64
	MaxSpeed  float64
	MinPitch  float64
	MaxPitch  float64
	Step      float64
	SpeedInit float64
	PitchInit float64
	Tips      []string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		Product:   version.Product,
		Version:   version.Version,
		Name:      s.config.Name,
		MaxUpload: humanize.Bytes(uint64(s.config.MaxUploadBytes)),
		Accept:    ".mp3,.wav,.m4a,.flac,.ogg,.opus,audio/*",
		MinSpeed:  voicechanger.MinSpeed,
		MaxSpeed:  voicechanger.MaxSpeed,
		MinPitch:  voicechanger.MinPitch,
		MaxPitch:  voicechanger.MaxPitch,
		Step:      voicechanger.Step,
		SpeedInit: voicechanger.DefaultSpeed,
		PitchInit: voicechanger.DefaultPitch,
		Tips:      Tips,
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
