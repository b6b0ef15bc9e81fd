package schema

import (
	"github.com/plmdeck/backend/internal/plm"
)

// FieldSelection is the per-record-type slice of the schema config: the
// ordered field names sent to the AI plus free-text guidance. An empty
// Fields list means "no preference yet", which downstream code treats
// as include-everything.
type FieldSelection struct {
	Fields       []string `json:"fields"`
	Instructions string   `json:"instructions"`
}

// Config holds one FieldSelection per record type. The zero value is
// the empty skeleton that settings reads fall back to.
type Config struct {
	Item    FieldSelection `json:"item"`
	Change  FieldSelection `json:"change"`
	Request FieldSelection `json:"request"`
	Quality FieldSelection `json:"quality"`
}

func (c Config) ForType(t plm.RecordType) FieldSelection {
	switch t {
	case plm.TypeChange:
		return c.Change
	case plm.TypeRequest:
		return c.Request
	case plm.TypeQuality:
		return c.Quality
	default:
		return c.Item
	}
}

func (c *Config) SetForType(t plm.RecordType, sel FieldSelection) {
	switch t {
	case plm.TypeChange:
		c.Change = sel
	case plm.TypeRequest:
		c.Request = sel
	case plm.TypeQuality:
		c.Quality = sel
	default:
		c.Item = sel
	}
}
