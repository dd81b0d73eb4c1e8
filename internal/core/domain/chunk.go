package domain

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Segment is one unit of extracted text with its structural location.
// Exactly one of PageNumber (> 0) or SheetName is set, except for DOCX
// segments which carry neither.
type Segment struct {
	Text         string   `json:"text"`
	SourceType   FileType `json:"source_type"`
	PageNumber   int      `json:"page_number,omitempty"`
	SheetName    string   `json:"sheet_name,omitempty"`
	SectionTitle string   `json:"section_title,omitempty"`
}

// IsEmpty reports whether the segment has no usable text
func (s Segment) IsEmpty() bool {
	return strings.TrimSpace(s.Text) == ""
}

// Label names the segment for section-scoped chunk ids.
func (s Segment) Label() string {
	switch {
	case s.SectionTitle != "":
		return s.SectionTitle
	case s.SheetName != "":
		return s.SheetName
	case s.PageNumber > 0:
		return "page" + strconv.Itoa(s.PageNumber)
	default:
		return "section"
	}
}

// Granularity is the structural level a chunk represents
type Granularity string

const (
	// GranularityNone marks legacy fixed-window chunks
	GranularityNone      Granularity = ""
	GranularitySection   Granularity = "section"
	GranularityParagraph Granularity = "paragraph"
	GranularitySemantic  Granularity = "semantic"
)

// IsValid reports whether g is a known granularity (including none)
func (g Granularity) IsValid() bool {
	switch g {
	case GranularityNone, GranularitySection, GranularityParagraph, GranularitySemantic:
		return true
	}
	return false
}

// Payload keys stored alongside each vector
const (
	PayloadText           = "text"
	PayloadDocumentID     = "documentId"
	PayloadFilename       = "filename"
	PayloadFileType       = "fileType"
	PayloadChunkID        = "chunkId"
	PayloadGranularity    = "granularity"
	PayloadPageNumber     = "pageNumber"
	PayloadSheetName      = "sheetName"
	PayloadSectionTitle   = "sectionTitle"
	PayloadParagraphIndex = "paragraphIndex"
	PayloadTokenCount     = "tokenCount"
	PayloadStartToken     = "startToken"
	PayloadEndToken       = "endToken"
	PayloadPosition       = "position"
)

// Chunk is the unit that is embedded, stored and retrieved
type Chunk struct {
	Text           string      `json:"text"`
	DocumentID     string      `json:"document_id"`
	Filename       string      `json:"filename"`
	FileType       FileType    `json:"file_type"`
	ChunkID        string      `json:"chunk_id"`
	Granularity    Granularity `json:"granularity,omitempty"`
	Position       int         `json:"position"` // Order within the document
	PageNumber     int         `json:"page_number,omitempty"`
	SheetName      string      `json:"sheet_name,omitempty"`
	SectionTitle   string      `json:"section_title,omitempty"`
	ParagraphIndex *int        `json:"paragraph_index,omitempty"`
	TokenCount     int         `json:"token_count,omitempty"`
	StartToken     *int        `json:"start_token,omitempty"`
	EndToken       *int        `json:"end_token,omitempty"`
}

// ChunkBase carries the document-level metadata every chunk inherits
type ChunkBase struct {
	DocumentID string
	Filename   string
	FileType   FileType
}

// NewChunk creates a chunk from a segment, inheriting its location metadata
func NewChunk(base ChunkBase, seg Segment, text string) *Chunk {
	return &Chunk{
		Text:         text,
		DocumentID:   base.DocumentID,
		Filename:     base.Filename,
		FileType:     base.FileType,
		PageNumber:   seg.PageNumber,
		SheetName:    seg.SheetName,
		SectionTitle: seg.SectionTitle,
	}
}

// Clone returns a deep copy of the chunk
func (c *Chunk) Clone() *Chunk {
	cp := *c
	cp.ParagraphIndex = copyInt(c.ParagraphIndex)
	cp.StartToken = copyInt(c.StartToken)
	cp.EndToken = copyInt(c.EndToken)
	return &cp
}

// PointID returns the chunk's identity in the vector index
func (c *Chunk) PointID() uint64 {
	return PointID(c.DocumentID, c.ChunkID, c.Granularity)
}

// Payload renders the chunk metadata plus text as stored in the index
func (c *Chunk) Payload() map[string]any {
	p := map[string]any{
		PayloadText:       c.Text,
		PayloadDocumentID: c.DocumentID,
		PayloadFilename:   c.Filename,
		PayloadFileType:   string(c.FileType),
		PayloadChunkID:    c.ChunkID,
		PayloadPosition:   c.Position,
	}
	if c.Granularity != GranularityNone {
		p[PayloadGranularity] = string(c.Granularity)
	}
	if c.PageNumber > 0 {
		p[PayloadPageNumber] = c.PageNumber
	}
	if c.SheetName != "" {
		p[PayloadSheetName] = c.SheetName
	}
	if c.SectionTitle != "" {
		p[PayloadSectionTitle] = c.SectionTitle
	}
	if c.ParagraphIndex != nil {
		p[PayloadParagraphIndex] = *c.ParagraphIndex
	}
	if c.TokenCount > 0 {
		p[PayloadTokenCount] = c.TokenCount
	}
	if c.StartToken != nil {
		p[PayloadStartToken] = *c.StartToken
	}
	if c.EndToken != nil {
		p[PayloadEndToken] = *c.EndToken
	}
	return p
}

// ChunkFromPayload rebuilds a chunk from an index payload.
// Numeric values may arrive as any JSON number representation.
func ChunkFromPayload(p map[string]any) *Chunk {
	c := &Chunk{
		Text:         payloadString(p, PayloadText),
		DocumentID:   payloadString(p, PayloadDocumentID),
		Filename:     payloadString(p, PayloadFilename),
		FileType:     FileType(payloadString(p, PayloadFileType)),
		ChunkID:      payloadString(p, PayloadChunkID),
		Granularity:  Granularity(payloadString(p, PayloadGranularity)),
		SheetName:    payloadString(p, PayloadSheetName),
		SectionTitle: payloadString(p, PayloadSectionTitle),
	}
	if v, ok := payloadInt(p, PayloadPosition); ok {
		c.Position = v
	}
	if v, ok := payloadInt(p, PayloadPageNumber); ok {
		c.PageNumber = v
	}
	if v, ok := payloadInt(p, PayloadTokenCount); ok {
		c.TokenCount = v
	}
	if v, ok := payloadInt(p, PayloadParagraphIndex); ok {
		c.ParagraphIndex = &v
	}
	if v, ok := payloadInt(p, PayloadStartToken); ok {
		c.StartToken = &v
	}
	if v, ok := payloadInt(p, PayloadEndToken); ok {
		c.EndToken = &v
	}
	return c
}

// Point is a vector plus the chunk it was computed from
type Point struct {
	ID     uint64
	Vector []float32
	Chunk  *Chunk
}

// pointIDMask keeps point ids within the non-negative int64 range
const pointIDMask = 0x7FFFFFFFFFFFFFFF

// PointID derives a stable, non-negative 63-bit id from the chunk identity triple.
// Distinct triples may collide; callers that need uniqueness must check.
func PointID(documentID, chunkID string, granularity Granularity) uint64 {
	key := documentID + "_" + chunkID
	if granularity != GranularityNone {
		key += "_" + string(granularity)
	}
	return xxhash.Sum64String(key) & pointIDMask
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

func payloadString(p map[string]any, key string) string {
	v, _ := p[key].(string)
	return v
}

func payloadInt(p map[string]any, key string) (int, bool) {
	switch v := p[key].(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float32:
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}
