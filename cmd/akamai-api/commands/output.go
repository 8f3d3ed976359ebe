package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/akamai-api/akamai-api/pkg/akamai"
	"gopkg.in/yaml.v3"
)

var formats = []string{"yaml", "json", "toml"}

// write serializes v to w in format.
func write(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "toml":
		return toml.NewEncoder(w).Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

type purgeStatusOutput struct {
	Status                   string `json:"status" yaml:"status" toml:"status"`
	CompletedAt              string `json:"completed_at,omitempty" yaml:"completed_at,omitempty" toml:"completed_at,omitempty"`
	PurgeID                  string `json:"purge_id,omitempty" yaml:"purge_id,omitempty" toml:"purge_id,omitempty"`
	SupportID                string `json:"support_id,omitempty" yaml:"support_id,omitempty" toml:"support_id,omitempty"`
	ProgressURI              string `json:"progress_uri,omitempty" yaml:"progress_uri,omitempty" toml:"progress_uri,omitempty"`
	SubmittedBy              string `json:"submitted_by,omitempty" yaml:"submitted_by,omitempty" toml:"submitted_by,omitempty"`
	SubmittedAt              string `json:"submitted_at,omitempty" yaml:"submitted_at,omitempty" toml:"submitted_at,omitempty"`
	OriginalEstimatedSeconds int    `json:"original_estimated_seconds,omitempty" yaml:"original_estimated_seconds,omitempty" toml:"original_estimated_seconds,omitempty"`
	OriginalQueueLength      int    `json:"original_queue_length,omitempty" yaml:"original_queue_length,omitempty" toml:"original_queue_length,omitempty"`
	PingAfterSeconds         int    `json:"ping_after_seconds,omitempty" yaml:"ping_after_seconds,omitempty" toml:"ping_after_seconds,omitempty"`
}

func newPurgeStatusOutput(r akamai.PurgeStatus) purgeStatusOutput {
	return purgeStatusOutput{
		Status:                   r.Status,
		CompletedAt:              formatTime(r.CompletedAt),
		PurgeID:                  r.PurgeID,
		SupportID:                r.SupportID,
		ProgressURI:              r.ProgressURI,
		SubmittedBy:              r.SubmittedBy,
		SubmittedAt:              formatTime(r.SubmittedAt),
		OriginalEstimatedSeconds: r.OriginalEstimatedSeconds,
		OriginalQueueLength:      r.OriginalQueueLength,
		PingAfterSeconds:         r.PingAfterSeconds,
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

type eccuRequestOutput struct {
	Code          int            `json:"code" yaml:"code" toml:"code"`
	Status        statusOutput   `json:"status" yaml:"status" toml:"status"`
	File          fileOutput     `json:"file" yaml:"file" toml:"file"`
	Property      propertyOutput `json:"property" yaml:"property" toml:"property"`
	Notes         string         `json:"notes,omitempty" yaml:"notes,omitempty" toml:"notes,omitempty"`
	Email         string         `json:"email,omitempty" yaml:"email,omitempty" toml:"email,omitempty"`
	UploadDate    string         `json:"upload_date,omitempty" yaml:"upload_date,omitempty" toml:"upload_date,omitempty"`
	UploadedBy    string         `json:"uploaded_by,omitempty" yaml:"uploaded_by,omitempty" toml:"uploaded_by,omitempty"`
	VersionString string         `json:"version_string,omitempty" yaml:"version_string,omitempty" toml:"version_string,omitempty"`
}

type statusOutput struct {
	Code       int    `json:"code" yaml:"code" toml:"code"`
	Message    string `json:"message,omitempty" yaml:"message,omitempty" toml:"message,omitempty"`
	Extended   string `json:"extended,omitempty" yaml:"extended,omitempty" toml:"extended,omitempty"`
	UpdateDate string `json:"update_date,omitempty" yaml:"update_date,omitempty" toml:"update_date,omitempty"`
}

type fileOutput struct {
	Name      string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Size      int    `json:"size" yaml:"size" toml:"size"`
	MD5Digest string `json:"md5_digest,omitempty" yaml:"md5_digest,omitempty" toml:"md5_digest,omitempty"`
	Content   string `json:"content,omitempty" yaml:"content,omitempty" toml:"content,omitempty"`
}

type propertyOutput struct {
	Name       string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Type       string `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
	ExactMatch bool   `json:"exact_match" yaml:"exact_match" toml:"exact_match"`
}

func newEccuRequestOutput(r akamai.EccuRequest) eccuRequestOutput {
	return eccuRequestOutput{
		Code: r.Code,
		Status: statusOutput{
			Code:       r.Status.Code,
			Message:    r.Status.Message,
			Extended:   r.Status.Extended,
			UpdateDate: r.Status.UpdateDate,
		},
		File: fileOutput{
			Name:      r.File.Name,
			Size:      r.File.Size,
			MD5Digest: r.File.MD5Digest,
			Content:   string(r.File.Content),
		},
		Property: propertyOutput{
			Name:       r.Property.Name,
			Type:       r.Property.Type,
			ExactMatch: r.Property.ExactMatch,
		},
		Notes:         r.Notes,
		Email:         r.Email,
		UploadDate:    r.UploadDate,
		UploadedBy:    r.UploadedBy,
		VersionString: r.VersionString,
	}
}

// Top level values are wrapped in a table, as required by TOML.

type idsOutput struct {
	IDs []int `json:"ids" yaml:"ids" toml:"ids"`
}

type requestsOutput struct {
	Requests []eccuRequestOutput `json:"requests" yaml:"requests" toml:"requests"`
}

type codeOutput struct {
	Code int `json:"code" yaml:"code" toml:"code"`
}

type successOutput struct {
	Code    int  `json:"code" yaml:"code" toml:"code"`
	Success bool `json:"success" yaml:"success" toml:"success"`
}
