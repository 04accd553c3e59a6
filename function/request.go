package function

import (
	"bytes"
	"encoding/json"

	"github.com/nvr-ai/care-symbols/enrich"
	"github.com/nvr-ai/care-symbols/models/postprocess"
)

// Request is the invocation payload.
type Request struct {
	FileID    string   `json:"fileId"`
	TopK      *int     `json:"topK,omitempty"`
	Threshold *float32 `json:"threshold,omitempty"`
}

// Response is the invocation result. Success carries the real outcome; the
// transport always reports success.
type Response struct {
	Success bool            `json:"success"`
	FileID  string          `json:"fileId,omitempty"`
	Results []enrich.Result `json:"results,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// params are the validated request values.
type params struct {
	fileID    string
	topK      int
	threshold float32
}

// parseRequest decodes and validates a request body. It performs no I/O.
func parseRequest(body []byte) (params, error) {
	var req Request
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return params{}, inputError("Invalid JSON payload: %v", err)
		}
	}
	if req.FileID == "" {
		return params{}, inputError("Missing required parameter: fileId")
	}

	p := params{
		fileID:    req.FileID,
		topK:      postprocess.DefaultTopK,
		threshold: postprocess.DefaultThreshold,
	}
	if req.TopK != nil {
		if *req.TopK < 0 {
			return params{}, inputError("Invalid parameter: topK must not be negative, got %d", *req.TopK)
		}
		p.topK = *req.TopK
	}
	if req.Threshold != nil {
		p.threshold = *req.Threshold
	}
	return p, nil
}

// MarshalJSON emits {success, fileId, results} on success and
// {success, error} on failure.
func (r Response) MarshalJSON() ([]byte, error) {
	if !r.Success {
		return json.Marshal(struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}{false, r.Error})
	}
	results := r.Results
	if results == nil {
		results = []enrich.Result{}
	}
	return json.Marshal(struct {
		Success bool            `json:"success"`
		FileID  string          `json:"fileId"`
		Results []enrich.Result `json:"results"`
	}{true, r.FileID, results})
}

func failure(err error) Response {
	return Response{Success: false, Error: err.Error()}
}
