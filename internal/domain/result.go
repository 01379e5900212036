package domain

import (
	"bytes"
	"encoding/json"
)

// HealthyLabel is the class the model reports for a healthy cough.
const HealthyLabel = "Khỏe mạnh"

// Messages shown in the result panel.
const (
	PendingMessage         = "Analyzing... please wait a moment."
	AnalysisFailedMessage  = "Could not analyze the audio file."
	ConnectionErrorMessage = "Could not connect to the server."
	DisclaimerMessage      = "Note: the result is for reference only."
	MicrophoneErrorMessage = "Cannot access the microphone. Check the input device and its permissions."
)

// DiagnosisResult is the classifier output returned by the endpoint.
// Either PredictedClass and Confidence are set, or Error is.
type DiagnosisResult struct {
	PredictedClass string `json:"predicted_class,omitempty" yaml:"predicted_class,omitempty" msgpack:"predicted_class,omitempty"`
	Confidence     string `json:"confidence,omitempty" yaml:"confidence,omitempty" msgpack:"confidence,omitempty"`
	Error          string `json:"error,omitempty" yaml:"error,omitempty" msgpack:"error,omitempty"`
}

// UnmarshalJSON accepts the object form as well as a bare label string.
func (d *DiagnosisResult) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var label string
		if err := json.Unmarshal(b, &label); err != nil {
			return err
		}
		*d = DiagnosisResult{PredictedClass: label}
		return nil
	}
	type plain DiagnosisResult
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*d = DiagnosisResult(p)
	return nil
}

// Failed reports whether the server signalled a diagnosis error.
func (d DiagnosisResult) Failed() bool {
	return d.Error != ""
}

// UploadResponse is the JSON body of a successful upload.
type UploadResponse struct {
	Success   bool             `json:"success"`
	Diagnosis *DiagnosisResult `json:"diagnosis_result,omitempty"`
	Filename  string           `json:"filename,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// OutcomeKind classifies what the result panel shows.
type OutcomeKind int

const (
	OutcomeDiagnosis OutcomeKind = iota
	OutcomeServerError
	OutcomeAnalysisFailed
	OutcomeConnectionError
)

// String returns a human-readable representation of the kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeDiagnosis:
		return "diagnosis"
	case OutcomeServerError:
		return "server_error"
	case OutcomeAnalysisFailed:
		return "analysis_failed"
	case OutcomeConnectionError:
		return "connection_error"
	default:
		return "unknown"
	}
}

// Outcome is the rendered result of one upload attempt.
type Outcome struct {
	Kind       OutcomeKind
	Label      string
	Confidence string
	Healthy    bool
	Message    string
	// AudioFile is the server-side name of the uploaded clip, if returned.
	AudioFile string
}

// OK reports whether the outcome carries a diagnosis.
func (o Outcome) OK() bool {
	return o.Kind == OutcomeDiagnosis
}

// Outcome maps a decoded response onto what the result panel renders.
func (r UploadResponse) Outcome() Outcome {
	if !r.Success || r.Diagnosis == nil {
		return Outcome{Kind: OutcomeAnalysisFailed, Message: AnalysisFailedMessage}
	}
	if r.Diagnosis.Failed() {
		return Outcome{Kind: OutcomeServerError, Message: r.Diagnosis.Error, AudioFile: r.Filename}
	}
	if r.Diagnosis.PredictedClass == "" {
		return Outcome{Kind: OutcomeAnalysisFailed, Message: AnalysisFailedMessage}
	}
	return Outcome{
		Kind:       OutcomeDiagnosis,
		Label:      r.Diagnosis.PredictedClass,
		Confidence: r.Diagnosis.Confidence,
		Healthy:    r.Diagnosis.PredictedClass == HealthyLabel,
		Message:    DisclaimerMessage,
		AudioFile:  r.Filename,
	}
}

// ConnectionFailure is the outcome of a transport error or non-2xx reply.
func ConnectionFailure() Outcome {
	return Outcome{Kind: OutcomeConnectionError, Message: ConnectionErrorMessage}
}
