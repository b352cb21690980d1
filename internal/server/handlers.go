package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/azournas/art-agent/internal/pipeline"
	"github.com/azournas/art-agent/internal/schemas"
)

// AnalyzeRequest represents the request body for /analyze.
type AnalyzeRequest struct {
	Prompt          string `json:"prompt"`
	SecondaryPrompt string `json:"secondary_prompt,omitempty"`
	DataPath        string `json:"data_path"`
	OutputDir       string `json:"output_dir"`
}

// InstructionsRequest represents the request body for /instructions.
type InstructionsRequest struct {
	Prompt     string `json:"prompt"`
	ProjectDir string `json:"project_dir"`
	OutputDir  string `json:"output_dir"`
	SamplePath string `json:"sample_path"`
}

// AnswerRequest represents the request body for /answer.
type AnswerRequest struct {
	Question string `json:"question"`
}

// ReportResponse carries the final report text of a workflow.
type ReportResponse struct {
	Report string `json:"report"`
}

// decodeValidated reads the request body, checks it against the named schema
// and unmarshals it into out. Writes the error response itself on failure.
func (s *Server) decodeValidated(w http.ResponseWriter, r *http.Request, schemaName string, out any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Failed to read request body: "+err.Error())
		return false
	}

	if err := schemas.Validate(schemaName, string(body)); err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			s.errorResponse(w, http.StatusBadRequest, ve.Error())
			return false
		}
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return false
	}

	if err := json.Unmarshal(body, out); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// handleAnalyze runs a full analysis workflow and returns the report.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !s.decodeValidated(w, r, schemas.AnalyzeRequest, &req) {
		return
	}

	report := s.pipeline(nil).Run(r.Context(), pipeline.Goal{
		Prompt:          req.Prompt,
		SecondaryPrompt: req.SecondaryPrompt,
		DataPath:        req.DataPath,
		OutputDir:       req.OutputDir,
	})

	s.jsonResponse(w, http.StatusOK, ReportResponse{Report: report})
}

// handleAnalyzeStream runs an analysis workflow and streams progress events
// via SSE, ending with the report.
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !s.decodeValidated(w, r, schemas.AnalyzeRequest, &req) {
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	runner := s.pipeline(pipeline.SinkFunc(func(event pipeline.Event) {
		if err := sse.WriteProgress(event); err != nil {
			log.Printf("Error writing SSE event: %v", err)
		}
	}))

	report := runner.Run(r.Context(), pipeline.Goal{
		Prompt:          req.Prompt,
		SecondaryPrompt: req.SecondaryPrompt,
		DataPath:        req.DataPath,
		OutputDir:       req.OutputDir,
	})

	sse.WriteComplete(report)
}

// handleInstructions generates robot instructions and returns the report.
func (s *Server) handleInstructions(w http.ResponseWriter, r *http.Request) {
	var req InstructionsRequest
	if !s.decodeValidated(w, r, schemas.InstructionsRequest, &req) {
		return
	}

	report := s.pipeline(nil).GenerateInstructions(r.Context(), pipeline.InstructionsRequest{
		Prompt:     req.Prompt,
		ProjectDir: req.ProjectDir,
		OutputDir:  req.OutputDir,
		SamplePath: req.SamplePath,
	})

	s.jsonResponse(w, http.StatusOK, ReportResponse{Report: report})
}

// handleAnswer answers a question about the toolkit.
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if !s.decodeValidated(w, r, schemas.AnswerRequest, &req) {
		return
	}

	answer := s.pipeline(nil).AnswerQuestion(r.Context(), req.Question)
	s.jsonResponse(w, http.StatusOK, map[string]string{"answer": answer})
}
