package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"video-editor-mcp/internal/domain"
)

// resolveInput maps a tool argument that may be a filesystem path or a
// clip reference to a filesystem path.
func (s *Server) resolveInput(name, value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	path, err := s.clips.Resolve(value)
	if err != nil {
		return "", err
	}
	return path, nil
}

// resolveOutput decides where an edit writes its result. An empty
// outputName allocates a managed clip; otherwise the name (directories
// stripped, extension defaulted) lands in the configured output dir.
func (s *Server) resolveOutput(op, outputName, defaultExt string) (path, clipRef string, err error) {
	name := strings.TrimSpace(outputName)
	if name == "" {
		ref, p := s.clips.Allocate(op, defaultExt)
		return p, ref, nil
	}

	name = filepath.Base(name)
	if filepath.Ext(name) == "" {
		name += defaultExt
	}
	if err := os.MkdirAll(s.settings.OutputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create output directory: %w", err)
	}
	return filepath.Join(s.settings.OutputDir, name), "", nil
}

// releaseClip drops a managed clip reservation after a failed render.
func (s *Server) releaseClip(ref string) {
	if ref == "" {
		return
	}
	if err := s.clips.Discard(ref); err != nil {
		s.logger.Debug("discard clip after failed render: " + err.Error())
	}
}

// editOutcome builds the success payload for a single-output edit.
func editOutcome(job domain.Job, out, clipRef, message string) renderOutcome {
	o := renderOutcome{
		Success: true,
		JobID:   job.ID,
		Message: message,
	}
	if clipRef != "" {
		o.Clip = clipRef
	} else {
		o.OutputPath = out
	}
	return o
}
