package vcon

import "time"

// TagsAttachmentType is the reserved attachment type whose body carries the
// record's "key:value" tag strings.
const TagsAttachmentType = "tags"

// Plain-text encodings. Anything else (base64url, json, ...) is treated as
// structured or binary content.
const (
	EncodingNone = "none"
	EncodingJSON = "json"
	EncodingB64  = "base64url"
)

type Vcon struct {
	UUID        string       `json:"uuid"`
	Version     string       `json:"vcon"`
	Subject     string       `json:"subject,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Parties     []Party      `json:"parties,omitempty"`
	Dialog      []Dialog     `json:"dialog,omitempty"`
	Analysis    []Analysis   `json:"analysis,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type Party struct {
	Name   string `json:"name,omitempty"`
	Mailto string `json:"mailto,omitempty"`
	Tel    string `json:"tel,omitempty"`
}

type Dialog struct {
	Type      string    `json:"type,omitempty"`
	Start     time.Time `json:"start,omitempty"`
	Parties   []int     `json:"parties,omitempty"`
	MediaType string    `json:"mediatype,omitempty"`
	Body      string    `json:"body,omitempty"`
	Encoding  string    `json:"encoding,omitempty"`
}

type Analysis struct {
	Type     string `json:"type,omitempty"`
	Dialog   []int  `json:"dialog,omitempty"`
	Vendor   string `json:"vendor,omitempty"`
	Body     string `json:"body,omitempty"`
	Encoding string `json:"encoding,omitempty"`
}

type Attachment struct {
	Type     string `json:"type,omitempty"`
	Party    int    `json:"party,omitempty"`
	Body     string `json:"body,omitempty"`
	Encoding string `json:"encoding,omitempty"`
}
