package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/sargamlabs/sargam/algorithms/swara"
	"github.com/sargamlabs/sargam/logging"
	"github.com/sargamlabs/sargam/raaga"
	"github.com/sargamlabs/sargam/transcribe"
)

// maxUploadBytes bounds the multipart form held in memory before spilling
// to disk
const maxUploadBytes = 64 << 20

// NoteRecord is the wire form of one transcribed swaram
type NoteRecord struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Swaram     string  `json:"swaram"`
	Octave     string  `json:"octave"`
	Gamakam    *string `json:"gamakam"` // explicit null when absent
	Confidence float64 `json:"confidence"`
}

// RaagaRecord is the wire form of a raaga match
type RaagaRecord struct {
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	Confidence      float64  `json:"confidence"`
	Arohana         []string `json:"arohana"`
	Avarohana       []string `json:"avarohana"`
	Characteristics string   `json:"characteristics"`
}

// TranscriptionResponse is the full response body; Raaga is null when no
// candidate cleared the confidence threshold
type TranscriptionResponse struct {
	Swarams    []NoteRecord `json:"swarams"`
	Raaga      *RaagaRecord `json:"raaga"`
	Duration   float64      `json:"duration"`
	SampleRate int          `json:"sample_rate"`
}

// ErrorResponse is the wire form of a request failure
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error(err, "encoding JSON response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleTranscribe handles POST /api/transcribe: a multipart upload with a
// "file" part (WAV) and an optional "sruti" form value in Hz
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	tonicHz := 0.0 // zero selects the default sruti
	if v := r.FormValue("sruti"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			s.respondError(w, http.StatusBadRequest, "sruti must be a positive frequency in Hz")
			return
		}
		tonicHz = parsed
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "missing file upload")
		return
	}
	defer file.Close()

	tempPath, err := s.saveUpload(file)
	if err != nil {
		s.logger.Error(err, "saving upload", logging.Fields{"filename": header.Filename})
		s.respondError(w, http.StatusInternalServerError, "could not store upload")
		return
	}
	defer os.Remove(tempPath)

	audio, err := s.decoder.DecodeFile(tempPath)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "could not decode audio: "+err.Error())
		return
	}

	notes, err := s.transcriber.Transcribe(audio.PCM, audio.SampleRate, tonicHz)
	if err != nil {
		if errors.Is(err, transcribe.ErrInvalidInput) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error(err, "transcription failed", logging.Fields{"filename": header.Filename})
		s.respondError(w, http.StatusInternalServerError, "transcription failed")
		return
	}

	match := s.transcriber.DetectRaaga(notes)

	resp := TranscriptionResponse{
		Swarams:    make([]NoteRecord, 0, len(notes)),
		Raaga:      raagaRecord(match),
		Duration:   audio.Duration.Seconds(),
		SampleRate: audio.SampleRate,
	}
	for _, n := range notes {
		rec := NoteRecord{
			Start:      n.Start,
			End:        n.End,
			Swaram:     n.Swaram.String(),
			Octave:     n.Octave.String(),
			Confidence: n.Confidence,
		}
		if n.Gamakam != "" {
			g := n.Gamakam
			rec.Gamakam = &g
		}
		resp.Swarams = append(resp.Swarams, rec)
	}

	s.respondJSON(w, http.StatusOK, resp)
}

// saveUpload copies the uploaded stream to a uniquely named temp file
func (s *Server) saveUpload(file io.Reader) (string, error) {
	dir := s.config.TempDir
	if dir == "" {
		dir = os.TempDir()
	}

	path := filepath.Join(dir, uuid.NewString()+".wav")
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func raagaRecord(match *raaga.Match) *RaagaRecord {
	if match == nil {
		return nil
	}

	return &RaagaRecord{
		Name:            match.Candidate.Name,
		Type:            match.Candidate.System,
		Confidence:      match.Confidence,
		Arohana:         degreeNames(match.Candidate.Arohana),
		Avarohana:       degreeNames(match.Candidate.Avarohana),
		Characteristics: match.Candidate.Characteristics,
	}
}

func degreeNames(degrees []swara.ScaleDegree) []string {
	names := make([]string, len(degrees))
	for i, d := range degrees {
		names[i] = d.String()
	}
	return names
}
