package ruleset

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Version is the sing-box source rule-set format version written out.
const Version = 3

// indent is the number of spaces per nesting level in the encoded document.
const indent = 4

// Rule is a headless rule matching any subdomain of the listed suffixes.
type Rule struct {
	DomainSuffix []string
}

// Document is a sing-box source rule-set.
type Document struct {
	Version int
	Rules   []Rule
}

// NewDocument wraps a single domain_suffix rule in a versioned document.
func NewDocument(domains []string) Document {
	return Document{
		Version: Version,
		Rules:   []Rule{{DomainSuffix: domains}},
	}
}

// Domains returns the suffixes of every rule, in document order.
func (d Document) Domains() []string {
	var out []string
	for _, r := range d.Rules {
		out = append(out, r.DomainSuffix...)
	}

	return out
}

// Marshal encodes d as indented JSON with a trailing newline. Keys are
// written in a fixed order and non-ASCII text is kept verbatim.
func Marshal(d Document) []byte {
	var e jx.Encoder
	e.SetIdent(indent)

	e.Obj(func(e *jx.Encoder) {
		e.Field("version", func(e *jx.Encoder) {
			e.Int(d.Version)
		})
		e.Field("rules", func(e *jx.Encoder) {
			if len(d.Rules) == 0 {
				e.ArrEmpty()

				return
			}
			e.Arr(func(e *jx.Encoder) {
				for _, r := range d.Rules {
					encodeRule(e, r)
				}
			})
		})
	})

	return append(e.Bytes(), '\n')
}

func encodeRule(e *jx.Encoder, r Rule) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("domain_suffix", func(e *jx.Encoder) {
			// an indented empty array would otherwise span two lines
			if len(r.DomainSuffix) == 0 {
				e.ArrEmpty()

				return
			}
			e.Arr(func(e *jx.Encoder) {
				for _, s := range r.DomainSuffix {
					e.Str(s)
				}
			})
		})
	})
}

// Unmarshal decodes a document produced by Marshal. Unknown keys are skipped.
func Unmarshal(b []byte) (Document, error) {
	var doc Document

	d := jx.DecodeBytes(b)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "version":
			v, err := d.Int()
			if err != nil {
				return errors.Wrap(err, "version")
			}
			doc.Version = v
		case "rules":
			return d.Arr(func(d *jx.Decoder) error {
				r, err := decodeRule(d)
				if err != nil {
					return errors.Wrapf(err, "rules[%d]", len(doc.Rules))
				}
				doc.Rules = append(doc.Rules, r)

				return nil
			})
		default:
			return d.Skip()
		}

		return nil
	}); err != nil {
		return Document{}, errors.Wrap(err, "decode rule-set")
	}

	return doc, nil
}

func decodeRule(d *jx.Decoder) (Rule, error) {
	var r Rule
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "domain_suffix" {
			return d.Skip()
		}

		return d.Arr(func(d *jx.Decoder) error {
			s, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "domain_suffix")
			}
			r.DomainSuffix = append(r.DomainSuffix, s)

			return nil
		})
	})

	return r, err
}
