package server

import (
	"errors"
	"io/fs"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/snafflertools/consolidator/pkg/ingest"
)

// uploadHandler receives the raw scan log and stages it for parsing. The
// upload replaces any previous pending file.
func (s *HTTP) uploadHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxUploadBytes)

	file, err := c.FormFile("log_file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	if file.Filename == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "No file selected"})
		return
	}

	if err := c.SaveUploadedFile(file, s.uploadPath); err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to save upload"})
		return
	}

	info, err := os.Stat(s.uploadPath)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to stat upload"})
		return
	}

	s.log.Info().
		Str("filename", file.Filename).
		Int64("size_bytes", info.Size()).
		Msg("file uploaded")

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"filename": file.Filename,
		"size":     info.Size(),
	})
}

// parseUploadedHandler runs the ingest pipeline over the staged upload,
// streaming progress as server-sent events. One done or error event
// terminates the stream. The upload is deleted after a successful parse; the
// parsed store stays behind for /entries and /export.
func (s *HTTP) parseUploadedHandler(c *gin.Context) {
	f, err := os.Open(s.uploadPath)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "No file uploaded. Please upload a file first."})
		return
	}
	defer f.Close()

	if !s.parsing.CompareAndSwap(false, true) {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "a parse is already in progress"})
		return
	}
	defer s.parsing.Store(false)

	info, err := f.Stat()
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to stat upload"})
		return
	}

	// The ingest replaces the store generation; cached pages are stale now.
	s.query.Invalidate()

	events := s.ingest.Run(c.Request.Context(), f, info.Size(), s.store)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	// A disconnected client cancels the request context, which stops the
	// pipeline and closes the channel.
	completed := false
	for ev := range events {
		c.SSEvent("message", ev)
		c.Writer.Flush()
		if _, done := ev.(ingest.Summary); done {
			completed = true
		}
	}

	// The pipeline only reads the stream; the upload's lifecycle is ours.
	if completed {
		if err := os.Remove(s.uploadPath); err != nil {
			s.log.Warn().Err(err).Msg("failed to remove consumed upload")
		}
	}
}

// debugSampleHandler shows raw-vs-parsed correspondence for the first lines
// of the staged upload, without committing to a full ingest.
func (s *HTTP) debugSampleHandler(c *gin.Context) {
	f, err := os.Open(s.uploadPath)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer f.Close()

	results, err := s.ingest.Sample(f, 0)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to sample upload"})
		return
	}

	matched := 0
	for _, r := range results {
		if r.Matched {
			matched++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"total_lines": len(results),
		"matched":     matched,
		"results":     results,
	})
}

// clearHandler discards the parsed store and any pending upload.
func (s *HTTP) clearHandler(c *gin.Context) {
	if err := s.store.Clear(); err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := os.Remove(s.uploadPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.query.Invalidate()

	c.JSON(http.StatusOK, gin.H{"success": true})
}
