package domain

import "time"

// HistoryRecord is one archived diagnosis for a user.
type HistoryRecord struct {
	ID        string          `json:"id" yaml:"id" msgpack:"id"`
	UserID    string          `json:"user_id" yaml:"user_id" msgpack:"user_id"`
	AudioURL  string          `json:"audio_url" yaml:"audio_url" msgpack:"audio_url"`
	Result    DiagnosisResult `json:"result" yaml:"result" msgpack:"result"`
	CreatedAt time.Time       `json:"created_at" yaml:"created_at" msgpack:"created_at"`
}
