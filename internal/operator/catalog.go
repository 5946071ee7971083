package operator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

var ErrMalformedCatalog = errors.New("malformed catalog")

const (
	unknownValue = "Unknown"
	noBio        = "No bio available"
	defaultStat  = 1
)

// Catalog is the read-only operator list, kept in source order.
type Catalog struct {
	ops   []Operator
	index map[string]int
}

func NewCatalog(ops []Operator) *Catalog {
	c := &Catalog{index: make(map[string]int, len(ops))}
	for _, op := range ops {
		if _, dup := c.index[op.ID]; dup {
			continue
		}
		c.index[op.ID] = len(c.ops)
		c.ops = append(c.ops, op)
	}
	return c
}

func (c *Catalog) Len() int { return len(c.ops) }

// All returns a copy so callers cannot mutate the catalog.
func (c *Catalog) All() []Operator {
	out := make([]Operator, len(c.ops))
	copy(out, c.ops)
	return out
}

func (c *Catalog) Get(id string) (Operator, bool) {
	i, ok := c.index[id]
	if !ok {
		return Operator{}, false
	}
	return c.ops[i], true
}

func (c *Catalog) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.ops))
	for i, op := range c.ops {
		ids[i] = op.ID
	}
	return ids
}

func (c *Catalog) Filter(f Filter) []Operator {
	out := make([]Operator, 0, len(c.ops))
	for _, op := range c.ops {
		if f.Match(op) {
			out = append(out, op)
		}
	}
	return out
}

type rawRatings struct {
	Health     json.RawMessage `json:"health"`
	Speed      json.RawMessage `json:"speed"`
	Difficulty json.RawMessage `json:"difficulty"`
}

type rawBio struct {
	RealName   json.RawMessage `json:"real_name"`
	Birthplace json.RawMessage `json:"birthplace"`
}

type rawPrice struct {
	Renown json.RawMessage `json:"renown"`
}

type rawMeta struct {
	Season  json.RawMessage `json:"season"`
	Country json.RawMessage `json:"country"`
	Gender  json.RawMessage `json:"gender"`
	Height  json.RawMessage `json:"height"`
	Weight  json.RawMessage `json:"weight"`
	Price   json.RawMessage `json:"price"`
}

type rawOperator struct {
	ID      json.RawMessage `json:"id"`
	Name    json.RawMessage `json:"name"`
	Role    json.RawMessage `json:"role"`
	Org     json.RawMessage `json:"org"`
	Squad   json.RawMessage `json:"squad"`
	Ratings json.RawMessage `json:"ratings"`
	Bio     json.RawMessage `json:"bio"`
	Meta    json.RawMessage `json:"meta"`
}

// LoadCatalog reads the exported operator object (keyed by operator id).
// Bad or missing fields fall back to defaults; only a body that is not a
// JSON object is rejected.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCatalog, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: expected object", ErrMalformedCatalog)
	}

	var ops []Operator
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCatalog, err)
		}
		key, _ := tok.(string)

		var entry json.RawMessage
		if err := dec.Decode(&entry); err != nil {
			return nil, fmt.Errorf("%w: operator %q: %v", ErrMalformedCatalog, key, err)
		}
		ops = append(ops, convert(key, entry))
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCatalog, err)
	}
	if tok, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after object (%v)", ErrMalformedCatalog, tok)
	}
	return NewCatalog(ops), nil
}

func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadCatalog(f)
}

func convert(key string, entry json.RawMessage) Operator {
	var raw rawOperator
	_ = json.Unmarshal(entry, &raw) // non-object entries leave everything at defaults

	var ratings rawRatings
	_ = json.Unmarshal(raw.Ratings, &ratings)
	var bio rawBio
	_ = json.Unmarshal(raw.Bio, &bio)
	var meta rawMeta
	_ = json.Unmarshal(raw.Meta, &meta)
	var price rawPrice
	_ = json.Unmarshal(meta.Price, &price)

	op := Operator{
		ID:           scalar(raw.ID),
		Name:         scalar(raw.Name),
		Role:         ParseRole(scalar(raw.Role)),
		Organization: orUnknown(scalar(raw.Org)),
		Unit:         orUnknown(scalar(raw.Squad)),
		Armor:        rating(ratings.Health),
		Speed:        rating(ratings.Speed),
		Difficulty:   rating(ratings.Difficulty),
		Bio:          noBio,
		Season:       orUnknown(scalar(meta.Season)),
		Country:      orUnknown(scalar(meta.Country)),
		Gender:       orUnknown(scalar(meta.Gender)),
		Height:       orUnknown(scalar(meta.Height)),
		Weight:       orUnknown(scalar(meta.Weight)),
		Price:        orUnknown(scalar(price.Renown)),
	}
	if op.ID == "" {
		op.ID = key
	}
	if name := scalar(bio.RealName); name != "" {
		op.Bio = name + " - " + scalar(bio.Birthplace)
	}
	return op
}

// scalar renders a JSON string or number as text. Everything else is "".
func scalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func rating(raw json.RawMessage) int {
	n, err := strconv.ParseFloat(scalar(raw), 64)
	if err != nil || n <= 0 {
		return defaultStat
	}
	return int(n)
}

func orUnknown(s string) string {
	if s == "" {
		return unknownValue
	}
	return s
}
