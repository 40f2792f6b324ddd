package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/invoiceForge/composer-service/internal/ai"
	"github.com/invoiceForge/composer-service/internal/draft"
	"github.com/invoiceForge/composer-service/internal/speech"
)

// extractionTimeout bounds one AI extraction run
const extractionTimeout = 30 * time.Second

// OpenCapture starts a voice capture bound to a draft session. When the
// capture ends with a usable transcript, extraction runs and the result
// is parked on the session for accept/reject.
func (h *Handler) OpenCapture(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	err := h.store.Update(sessionID, func(s *draft.Session) error {
		s.VoiceError = ""
		return nil
	})
	if err != nil {
		h.writeDraftError(w, err)
		return
	}

	captureID, err := h.captures.Open(func(res speech.Result) {
		if res.Err != nil {
			log.Printf("[voice] capture for session %s failed: %v", sessionID, res.Err)
			h.parkVoiceError(sessionID, "voice capture failed: "+res.Err.Error())
			return
		}
		if !res.Usable {
			log.Printf("[voice] capture for session %s too short, skipping extraction", sessionID)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), extractionTimeout)
		defer cancel()

		result, err := h.extractor.ExtractFromText(ctx, res.Transcript, "")
		if err != nil {
			log.Printf("[voice] extraction for session %s failed: %v", sessionID, err)
			h.parkVoiceError(sessionID, "could not extract invoice data from the recording: "+err.Error())
			return
		}

		err = h.store.Update(sessionID, func(s *draft.Session) error {
			s.PendingVoice = result
			s.VoiceError = ""
			return nil
		})
		if err != nil {
			log.Printf("[voice] session %s gone before extraction finished: %v", sessionID, err)
		}
	})
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to start capture: "+err.Error())
		return
	}

	h.sendJSON(w, http.StatusCreated, map[string]string{
		"capture_id": captureID,
		"state":      speech.Listening.String(),
	})
}

// parkVoiceError records a capture or extraction failure on the session
// so clients polling it see what went wrong instead of silence.
func (h *Handler) parkVoiceError(sessionID, msg string) {
	err := h.store.Update(sessionID, func(s *draft.Session) error {
		s.VoiceError = msg
		return nil
	})
	if err != nil {
		log.Printf("[voice] session %s gone, dropping error: %s", sessionID, msg)
	}
}

// CaptureStatus reports the live state and running transcript of a capture
func (h *Handler) CaptureStatus(w http.ResponseWriter, r *http.Request) {
	sess := h.captures.Get(mux.Vars(r)["captureId"])
	if sess == nil {
		h.sendError(w, http.StatusNotFound, "capture not found")
		return
	}

	h.sendJSON(w, http.StatusOK, map[string]string{
		"state":      sess.State().String(),
		"transcript": sess.Transcript(),
	})
}

// CaptureEvent relays one recognizer update into a live capture
func (h *Handler) CaptureEvent(w http.ResponseWriter, r *http.Request) {
	sess := h.captures.Get(mux.Vars(r)["captureId"])
	if sess == nil {
		h.sendError(w, http.StatusNotFound, "capture not found")
		return
	}

	var ev speech.TranscriptEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if ev.Kind != speech.KindPartial && ev.Kind != speech.KindFinal {
		h.sendError(w, http.StatusBadRequest, "event kind must be partial or final")
		return
	}

	if err := sess.HandleEvent(ev); err != nil {
		h.sendError(w, http.StatusConflict, err.Error())
		return
	}

	h.sendJSON(w, http.StatusOK, map[string]string{
		"state":      sess.State().String(),
		"transcript": sess.Transcript(),
	})
}

// StopCapture ends a capture early, before the silence timeout fires
func (h *Handler) StopCapture(w http.ResponseWriter, r *http.Request) {
	sess := h.captures.Get(mux.Vars(r)["captureId"])
	if sess == nil {
		h.sendError(w, http.StatusNotFound, "capture not found")
		return
	}

	if err := sess.Stop(); err != nil {
		h.sendError(w, http.StatusConflict, err.Error())
		return
	}

	h.sendJSON(w, http.StatusOK, map[string]string{
		"state":      sess.State().String(),
		"transcript": sess.Transcript(),
	})
}

// FailCapture marks a capture as failed on behalf of the capture client,
// typically when the microphone or the recognizer broke
func (h *Handler) FailCapture(w http.ResponseWriter, r *http.Request) {
	sess := h.captures.Get(mux.Vars(r)["captureId"])
	if sess == nil {
		h.sendError(w, http.StatusNotFound, "capture not found")
		return
	}

	var req struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Error == "" {
		req.Error = "capture failed"
	}

	sess.Fail(errors.New(req.Error))
	h.sendJSON(w, http.StatusOK, map[string]string{
		"state": speech.Failed.String(),
	})
}

// VoiceToInvoice extracts structured invoice data from raw transcript
// text. With a session_id the result is parked on that session for
// accept/reject; without one it is only returned to the caller.
func (h *Handler) VoiceToInvoice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text         string `json:"text"`
		VoiceInput   string `json:"voice_input"` // accepted alias for text
		CustomerName string `json:"customer_name,omitempty"`
		SessionID    string `json:"session_id,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		req.Text = strings.TrimSpace(req.VoiceInput)
	}
	if req.Text == "" {
		h.sendError(w, http.StatusBadRequest, "text is required")
		return
	}
	if len(req.Text) < h.config.Voice.MinTranscriptLen {
		h.sendError(w, http.StatusBadRequest,
			fmt.Sprintf("transcript too short, need at least %d characters", h.config.Voice.MinTranscriptLen))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), extractionTimeout)
	defer cancel()

	result, err := h.extractor.ExtractFromText(ctx, req.Text, req.CustomerName)
	if err != nil {
		h.sendError(w, http.StatusBadGateway, "extraction failed: "+err.Error())
		return
	}

	if req.SessionID != "" {
		err := h.store.Update(req.SessionID, func(s *draft.Session) error {
			s.PendingVoice = result
			s.VoiceError = ""
			return nil
		})
		if err != nil {
			h.sendError(w, http.StatusNotFound, "session not found: "+req.SessionID)
			return
		}
	}

	h.sendJSON(w, http.StatusOK, result)
}

// VoiceFileToText transcribes an uploaded audio file and, when the
// transcript is rich enough, runs extraction on it as well
func (h *Handler) VoiceFileToText(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		h.sendError(w, http.StatusBadRequest, "failed to parse upload: "+err.Error())
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		file, header, err = r.FormFile("audio_file")
	}
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	if !ai.ValidAudioFile(header.Filename) {
		h.sendError(w, http.StatusBadRequest, "unsupported audio format: "+header.Filename)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*extractionTimeout)
	defer cancel()

	result, err := h.transcriber.FromAudio(ctx, header.Filename, r.FormValue("language"), file)
	if err != nil {
		if errors.Is(err, ai.ErrInvalidFileType) {
			h.sendError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.sendError(w, http.StatusBadGateway, "transcription failed: "+err.Error())
		return
	}

	h.sendJSON(w, http.StatusOK, result)
}
